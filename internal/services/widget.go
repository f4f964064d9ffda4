package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/GregMSThompson/dashboard-builder/internal/dto"
	"github.com/GregMSThompson/dashboard-builder/internal/errs"
	"github.com/GregMSThompson/dashboard-builder/internal/models"
	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

// widgetStore is the storage interface for widgets and data stream fixtures.
type widgetStore interface {
	List(ctx context.Context) ([]models.Widget, int64, error)
	Create(ctx context.Context, w models.Widget) (int64, error)
	Delete(ctx context.Context, widgetID string) (int64, error)
	DataStream(ctx context.Context, identifier string) ([]models.DataStreamEntry, error)
	Revision(ctx context.Context) (int64, error)
}

type widgetMetrics interface {
	ObserveMutation(operation, result string)
	ObserveDataStreamLookup(matched bool)
	SetRevision(rev int64)
}

type widgetService struct {
	store   widgetStore
	metrics widgetMetrics
	newID   func() string
}

// NewWidgetService wires the store; metrics may be nil.
func NewWidgetService(store widgetStore, metrics widgetMetrics) *widgetService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &widgetService{store: store, metrics: metrics, newID: uuid.NewString}
}

func (s *widgetService) ListWidgets(ctx context.Context) (dto.WidgetListResponse, error) {
	widgets, rev, err := s.store.List(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to list widgets", "error", err)
		return dto.WidgetListResponse{}, err
	}
	s.metrics.SetRevision(rev)
	return dto.WidgetListResponse{Data: widgets, Revision: rev}, nil
}

func (s *widgetService) CreateWidget(ctx context.Context, req dto.CreateWidgetRequest) (dto.Mutation, error) {
	if err := validateStruct(req); err != nil {
		s.metrics.ObserveMutation("create", resultOf(err))
		return dto.Mutation{}, err
	}
	w := req.Widget()
	if w.ID == "" {
		w.ID = s.newID()
	}
	log, ctx := logger.With(ctx, "widget_id", w.ID)

	rev, err := s.store.Create(ctx, w)
	s.metrics.ObserveMutation("create", resultOf(err))
	if err != nil {
		log.Error("failed to add widget", "error", err)
		return dto.Mutation{}, err
	}
	s.metrics.SetRevision(rev)
	log.Info("widget added", "type", w.Type, "revision", rev)
	return dto.Mutation{ID: w.ID, Revision: rev}, nil
}

func (s *widgetService) DeleteWidget(ctx context.Context, widgetID string) (dto.Mutation, error) {
	if strings.TrimSpace(widgetID) == "" {
		return dto.Mutation{}, errs.NewValidationError("id is required")
	}
	log, ctx := logger.With(ctx, "widget_id", widgetID)

	rev, err := s.store.Delete(ctx, widgetID)
	s.metrics.ObserveMutation("delete", resultOf(err))
	if err != nil {
		log.Warn("failed to delete widget", "error", err)
		return dto.Mutation{}, err
	}
	s.metrics.SetRevision(rev)
	log.Info("widget deleted", "revision", rev)
	return dto.Mutation{ID: widgetID, Revision: rev}, nil
}

// GetDataStream returns the fixture entries for identifier together with the
// current collection revision.
func (s *widgetService) GetDataStream(ctx context.Context, identifier string) (dto.DataStreamResponse, error) {
	if strings.TrimSpace(identifier) == "" {
		return dto.DataStreamResponse{}, errs.NewValidationError("identifier is required")
	}
	entries, err := s.store.DataStream(ctx, identifier)
	if err != nil {
		logger.FromContext(ctx).Error("failed to fetch data stream", "identifier", identifier, "error", err)
		return dto.DataStreamResponse{}, err
	}
	s.metrics.ObserveDataStreamLookup(len(entries) > 0)

	rev, err := s.store.Revision(ctx)
	if err != nil {
		return dto.DataStreamResponse{}, err
	}
	return dto.DataStreamResponse{Data: entries, Revision: rev}, nil
}

func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	var nf *errs.NotFoundError
	var ae *errs.AlreadyExistsError
	var ve *errs.ValidationError
	switch {
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &ae):
		return "already_exists"
	case errors.As(err, &ve):
		return "invalid"
	default:
		return "error"
	}
}

type noopMetrics struct{}

func (noopMetrics) ObserveMutation(string, string) {}
func (noopMetrics) ObserveDataStreamLookup(bool)   {}
func (noopMetrics) SetRevision(int64)              {}
