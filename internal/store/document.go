package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/GregMSThompson/dashboard-builder/internal/models"
)

// document is the decoded form of the widgets file. Top-level keys other than
// widgets and dataStream are kept in extra and written back untouched, in the
// order the file listed them.
type document struct {
	widgets    []models.Widget
	dataStream []models.DataStreamEntry
	sources    []string // sourceIdentifier per dataStream entry, "" when the entry has none
	extra      map[string]json.RawMessage
	keys       []string
}

const (
	keyWidgets    = "widgets"
	keyDataStream = "dataStream"
)

func decodeDocument(data []byte) (document, error) {
	keys, err := topLevelKeys(data)
	if err != nil {
		return document{}, err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return document{}, err
	}
	doc := document{keys: keys}
	if v, ok := raw[keyWidgets]; ok {
		if err := json.Unmarshal(v, &doc.widgets); err != nil {
			return document{}, err
		}
		delete(raw, keyWidgets)
	}
	if v, ok := raw[keyDataStream]; ok {
		if err := json.Unmarshal(v, &doc.dataStream); err != nil {
			return document{}, err
		}
		delete(raw, keyDataStream)
	}
	doc.sources = indexSources(doc.dataStream)
	if len(raw) > 0 {
		doc.extra = raw
	}
	return doc, nil
}

// topLevelKeys lists the keys of the JSON object in data in file order.
func topLevelKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("widgets document is not a JSON object")
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		if !slices.Contains(keys, key) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func indexSources(entries []models.DataStreamEntry) []string {
	sources := make([]string, len(entries))
	for i, e := range entries {
		var h models.DataStreamHeader
		if err := json.Unmarshal(e, &h); err != nil {
			continue
		}
		sources[i] = h.Content.SourceIdentifier
	}
	return sources
}

// encode renders the document pretty-printed with 2-space indentation and
// without HTML escaping. Keys keep their file order; widgets and dataStream
// are appended when the file had neither.
func (d document) encode() ([]byte, error) {
	widgets := d.widgets
	if widgets == nil {
		widgets = []models.Widget{}
	}
	dataStream := d.dataStream
	if dataStream == nil {
		dataStream = []models.DataStreamEntry{}
	}

	keys := slices.Clone(d.keys)
	for _, k := range []string{keyWidgets, keyDataStream} {
		if !slices.Contains(keys, k) {
			keys = append(keys, k)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("{")
	written := 0
	for _, k := range keys {
		var v any
		switch k {
		case keyWidgets:
			v = widgets
		case keyDataStream:
			v = dataStream
		default:
			raw, ok := d.extra[k]
			if !ok {
				continue
			}
			v = raw
		}
		if written > 0 {
			buf.WriteString(",")
		}
		written++
		name, err := marshalIndent(k, "  ")
		if err != nil {
			return nil, err
		}
		value, err := marshalIndent(v, "  ")
		if err != nil {
			return nil, err
		}
		buf.WriteString("\n  ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(value)
	}
	buf.WriteString("\n}")
	return buf.Bytes(), nil
}

// marshalIndent is json.MarshalIndent without HTML escaping.
func marshalIndent(v any, prefix string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent(prefix, "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// ReadDataStream returns the dataStream entries of the widgets file at path.
func ReadDataStream(path string) ([]models.DataStreamEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, err
	}
	return doc.dataStream, nil
}
