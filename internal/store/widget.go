package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/GregMSThompson/dashboard-builder/internal/errs"
	"github.com/GregMSThompson/dashboard-builder/internal/models"
	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

// WidgetStore is implemented by every storage backend.
type WidgetStore interface {
	List(ctx context.Context) ([]models.Widget, int64, error)
	Create(ctx context.Context, w models.Widget) (int64, error)
	Delete(ctx context.Context, widgetID string) (int64, error)
	DataStream(ctx context.Context, identifier string) ([]models.DataStreamEntry, error)
	Revision(ctx context.Context) (int64, error)
}

// documentStore keeps the widgets file in memory and rewrites it in full on
// every mutation. Mutations are serialized by mu; the revision only moves
// after the new file is in place.
type documentStore struct {
	path string

	mu       sync.RWMutex
	doc      document
	revision int64
	written  [sha256.Size]byte
}

// OpenDocumentStore loads the document at path. A missing file starts an empty
// document, which is written immediately.
func OpenDocumentStore(ctx context.Context, path string) (*documentStore, error) {
	log := logger.FromContext(ctx)

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "invalid widgets document path", err)
	}
	s := &documentStore{path: abs}

	data, err := os.ReadFile(abs)
	if errors.Is(err, os.ErrNotExist) {
		log.Info("widgets document not found, creating empty document", "path", abs)
		if err := s.commit(document{}); err != nil {
			return nil, errs.NewDatabaseError("create", "failed to write widgets document", err)
		}
		s.revision = 0
		return s, nil
	}
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to read widgets document", err)
	}

	doc, err := decodeDocument(data)
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to parse widgets document", err)
	}
	s.doc = doc
	s.written = sha256.Sum256(data)

	log.Info("widgets document loaded", "path", abs, "widgets", len(doc.widgets), "data_streams", len(doc.dataStream))
	return s, nil
}

// Path is the absolute path of the backing file.
func (s *documentStore) Path() string { return s.path }

func (s *documentStore) List(_ context.Context) ([]models.Widget, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Widget, len(s.doc.widgets))
	copy(out, s.doc.widgets)
	return out, s.revision, nil
}

func (s *documentStore) Create(ctx context.Context, w models.Widget) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.doc.widgets {
		if existing.ID == w.ID {
			return s.revision, errs.NewAlreadyExistsError(fmt.Sprintf("Widget with id %s already exists", w.ID))
		}
	}

	next := s.doc
	next.widgets = append(slices.Clip(s.doc.widgets), w)
	if err := s.commit(next); err != nil {
		logger.FromContext(ctx).Error("failed to write widgets document", "path", s.path, "widget_id", w.ID, "error", err)
		return s.revision, errs.NewDatabaseError("create", "failed to write widgets document", err)
	}
	return s.revision, nil
}

func (s *documentStore) Delete(ctx context.Context, widgetID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	widgets := make([]models.Widget, 0, len(s.doc.widgets))
	for _, w := range s.doc.widgets {
		if w.ID != widgetID {
			widgets = append(widgets, w)
		}
	}
	if len(widgets) == len(s.doc.widgets) {
		return s.revision, errs.NewNotFoundError(fmt.Sprintf("Widget with id %s not found", widgetID))
	}

	next := s.doc
	next.widgets = widgets
	if err := s.commit(next); err != nil {
		logger.FromContext(ctx).Error("failed to write widgets document", "path", s.path, "widget_id", widgetID, "error", err)
		return s.revision, errs.NewDatabaseError("delete", "failed to write widgets document", err)
	}
	return s.revision, nil
}

// DataStream returns every fixture entry whose content.sourceIdentifier equals
// identifier. The result is never nil.
func (s *documentStore) DataStream(_ context.Context, identifier string) ([]models.DataStreamEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.DataStreamEntry, 0)
	for i, src := range s.doc.sources {
		if src == identifier {
			out = append(out, s.doc.dataStream[i])
		}
	}
	return out, nil
}

func (s *documentStore) Revision(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision, nil
}

// Reload re-reads the file and replaces the in-memory document when its
// content differs from what this store last wrote.
func (s *documentStore) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return errs.NewDatabaseError("reload", "failed to read widgets document", err)
	}
	sum := sha256.Sum256(data)
	if sum == s.written {
		return nil
	}
	doc, err := decodeDocument(data)
	if err != nil {
		return errs.NewDatabaseError("reload", "failed to parse widgets document", err)
	}

	s.doc = doc
	s.written = sum
	s.revision++
	logger.FromContext(ctx).Info("widgets document reloaded", "path", s.path, "widgets", len(doc.widgets), "revision", s.revision)
	return nil
}

// commit persists next and swaps it in. Caller holds mu.
func (s *documentStore) commit(next document) error {
	data, err := next.encode()
	if err != nil {
		return err
	}
	if err := writeFileAtomic(s.path, data); err != nil {
		return err
	}
	s.doc = next
	s.written = sha256.Sum256(data)
	s.revision++
	return nil
}

// writeFileAtomic writes data to a temp file next to path and renames it over
// path, so readers never see a partial document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once renamed

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
