package models

import "encoding/json"

// Widget is a user-placed dashboard element. ID is the only identity key.
type Widget struct {
	ID     string `firestore:"id" json:"id"`
	Title  string `firestore:"title" json:"title"`
	Type   string `firestore:"type" json:"type"`
	Source string `firestore:"source" json:"source"` // literal text/image URL, or a data stream identifier
	Width  int    `firestore:"width" json:"width"`   // percent of the row
	Height int    `firestore:"height" json:"height"` // pixels
	Order  int    `firestore:"order" json:"order"`
}

// DataStreamEntry is a raw fixture entry of the form {"content": {"sourceIdentifier": ..., ...}}.
// It is kept undecoded so fixtures survive document rewrites unchanged.
type DataStreamEntry = json.RawMessage

// DataStreamHeader is the part of a fixture entry used for lookups.
type DataStreamHeader struct {
	Content struct {
		SourceIdentifier string `json:"sourceIdentifier"`
	} `json:"content"`
}
