package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/GregMSThompson/dashboard-builder/internal/errs"
	"github.com/GregMSThompson/dashboard-builder/internal/models"
)

const (
	widgetsCollection    = "widgets"
	dataStreamCollection = "data_stream"
	metaCollection       = "meta"
	metaDoc              = "dashboard"
)

// widgetDoc is a widget as stored in Firestore. Seq is the revision that
// created it and gives insertion order.
type widgetDoc struct {
	ID     string `firestore:"id"`
	Title  string `firestore:"title"`
	Type   string `firestore:"type"`
	Source string `firestore:"source"`
	Width  int    `firestore:"width"`
	Height int    `firestore:"height"`
	Order  int    `firestore:"order"`
	Seq    int64  `firestore:"seq"`
}

type dashboardMeta struct {
	Revision int64 `firestore:"revision"`
}

type firestoreStore struct {
	client *firestore.Client
}

func NewFirestoreStore(client *firestore.Client) *firestoreStore {
	return &firestoreStore{client: client}
}

func (s *firestoreStore) widgets() *firestore.CollectionRef {
	return s.client.Collection(widgetsCollection)
}

func (s *firestoreStore) meta() *firestore.DocumentRef {
	return s.client.Collection(metaCollection).Doc(metaDoc)
}

func (s *firestoreStore) List(ctx context.Context) ([]models.Widget, int64, error) {
	rev, err := s.Revision(ctx)
	if err != nil {
		return nil, 0, err
	}
	docs, err := s.widgets().OrderBy("seq", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errs.NewDatabaseError("read", "failed to list widgets", err)
	}
	widgets := make([]models.Widget, 0, len(docs))
	for _, d := range docs {
		var wd widgetDoc
		if err := d.DataTo(&wd); err != nil {
			return nil, 0, errs.NewDatabaseError("read", "failed to parse widget data", err)
		}
		widgets = append(widgets, wd.widget())
	}
	return widgets, rev, nil
}

func (s *firestoreStore) Create(ctx context.Context, w models.Widget) (int64, error) {
	var revision int64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.widgets().Doc(w.ID)
		if _, err := tx.Get(ref); err == nil {
			return errs.NewAlreadyExistsError(fmt.Sprintf("Widget with id %s already exists", w.ID))
		} else if status.Code(err) != codes.NotFound {
			return err
		}
		rev, err := s.revisionIn(tx)
		if err != nil {
			return err
		}
		revision = rev + 1
		if err := tx.Create(ref, toWidgetDoc(w, revision)); err != nil {
			return err
		}
		return tx.Set(s.meta(), dashboardMeta{Revision: revision})
	})
	if err != nil {
		return 0, classify(err, "create", "failed to create widget")
	}
	return revision, nil
}

func (s *firestoreStore) Delete(ctx context.Context, widgetID string) (int64, error) {
	var revision int64
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := s.widgets().Doc(widgetID)
		if _, err := tx.Get(ref); err != nil {
			if status.Code(err) == codes.NotFound {
				return errs.NewNotFoundError(fmt.Sprintf("Widget with id %s not found", widgetID))
			}
			return err
		}
		rev, err := s.revisionIn(tx)
		if err != nil {
			return err
		}
		revision = rev + 1
		if err := tx.Delete(ref); err != nil {
			return err
		}
		return tx.Set(s.meta(), dashboardMeta{Revision: revision})
	})
	if err != nil {
		return 0, classify(err, "delete", "failed to delete widget")
	}
	return revision, nil
}

func (s *firestoreStore) DataStream(ctx context.Context, identifier string) ([]models.DataStreamEntry, error) {
	docs, err := s.client.Collection(dataStreamCollection).
		Where("content.sourceIdentifier", "==", identifier).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errs.NewDatabaseError("read", "failed to query data stream", err)
	}
	out := make([]models.DataStreamEntry, 0, len(docs))
	for _, d := range docs {
		raw, err := json.Marshal(d.Data())
		if err != nil {
			return nil, errs.NewDatabaseError("read", "failed to encode data stream entry", err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// ImportDataStream upserts fixture entries into the data_stream collection.
// Document ids are content hashes, so importing the same file twice is a no-op.
func (s *firestoreStore) ImportDataStream(ctx context.Context, entries []models.DataStreamEntry) (int, error) {
	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(entries))
	for _, e := range entries {
		var data map[string]any
		if err := json.Unmarshal(e, &data); err != nil {
			bw.End()
			return 0, errs.NewDatabaseError("create", "invalid data stream entry", err)
		}
		sum := sha256.Sum256(e)
		ref := s.client.Collection(dataStreamCollection).Doc(hex.EncodeToString(sum[:10]))
		job, err := bw.Set(ref, data)
		if err != nil {
			bw.End()
			return 0, errs.NewDatabaseError("create", "failed to queue data stream entry", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return 0, errs.NewDatabaseError("create", "failed to import data stream", err)
		}
	}
	return len(jobs), nil
}

func (s *firestoreStore) Revision(ctx context.Context) (int64, error) {
	doc, err := s.meta().Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, errs.NewDatabaseError("read", "failed to read dashboard revision", err)
	}
	var m dashboardMeta
	if err := doc.DataTo(&m); err != nil {
		return 0, errs.NewDatabaseError("read", "failed to parse dashboard revision", err)
	}
	return m.Revision, nil
}

func (s *firestoreStore) revisionIn(tx *firestore.Transaction) (int64, error) {
	doc, err := tx.Get(s.meta())
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return 0, nil
		}
		return 0, err
	}
	var m dashboardMeta
	if err := doc.DataTo(&m); err != nil {
		return 0, err
	}
	return m.Revision, nil
}

// classify keeps typed errors raised inside a transaction and wraps the rest.
func classify(err error, operation, message string) error {
	var nf *errs.NotFoundError
	if errors.As(err, &nf) {
		return nf
	}
	var ae *errs.AlreadyExistsError
	if errors.As(err, &ae) {
		return ae
	}
	return errs.NewDatabaseError(operation, message, err)
}

func toWidgetDoc(w models.Widget, seq int64) widgetDoc {
	return widgetDoc{
		ID:     w.ID,
		Title:  w.Title,
		Type:   w.Type,
		Source: w.Source,
		Width:  w.Width,
		Height: w.Height,
		Order:  w.Order,
		Seq:    seq,
	}
}

func (d widgetDoc) widget() models.Widget {
	return models.Widget{
		ID:     d.ID,
		Title:  d.Title,
		Type:   d.Type,
		Source: d.Source,
		Width:  d.Width,
		Height: d.Height,
		Order:  d.Order,
	}
}
