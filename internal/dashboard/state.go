// Package dashboard holds the client-side dashboard: the widget list mirrored
// from the gateway, the selected layout, the add-widget modal, and the
// renderer that turns widgets into views.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/GregMSThompson/dashboard-builder/internal/dto"
	"github.com/GregMSThompson/dashboard-builder/internal/errs"
	"github.com/GregMSThompson/dashboard-builder/internal/models"
	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

const (
	AddFailedAlert    = "Failed to add widget. Please try again later."
	DeleteFailedAlert = "Failed to delete widget. Please try again later."
)

// Draft defaults for a freshly dropped widget.
const (
	draftWidth  = 47
	draftHeight = 250
	draftOrder  = 1
)

// Gateway is the subset of the gateway client the dashboard needs.
type Gateway interface {
	ListWidgets(ctx context.Context) (dto.WidgetListResponse, error)
	CreateWidget(ctx context.Context, w models.Widget) (dto.MutationResponse, error)
	DeleteWidget(ctx context.Context, widgetID string) (dto.MutationResponse, error)
	GetDataStream(ctx context.Context, identifier string) (dto.DataStreamResponse, error)
}

type Option func(*State)

// WithAlerter sets the user-facing alert sink. The default discards alerts.
func WithAlerter(alert func(msg string)) Option {
	return func(s *State) { s.alert = alert }
}

// WithClock overrides the clock used for widget ids.
func WithClock(now func() time.Time) Option {
	return func(s *State) { s.now = now }
}

type State struct {
	gw    Gateway
	alert func(string)
	now   func() time.Time

	mu        sync.RWMutex
	widgets   []models.Widget
	revision  int64
	layout    string
	modalOpen bool
	pending   *dto.WidgetTypeOption
}

func NewState(gw Gateway, opts ...Option) *State {
	s := &State{
		gw:     gw,
		alert:  func(string) {},
		now:    time.Now,
		layout: dto.LayoutFull,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the widget list once. A non-empty result replaces the local
// list; the revision is recorded either way.
func (s *State) Load(ctx context.Context) error {
	resp, err := s.gw.ListWidgets(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to load widgets", "error", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	// An empty list keeps local widgets, and with them the local revision, so
	// the next mutation still detects divergence.
	if len(resp.Data) > 0 || len(s.widgets) == 0 {
		s.widgets = slices.Clone(resp.Data)
		s.revision = resp.Revision
	}
	return nil
}

// resync replaces local state with the server's, including an empty list.
func (s *State) resync(ctx context.Context) error {
	resp, err := s.gw.ListWidgets(ctx)
	if err != nil {
		logger.FromContext(ctx).Error("failed to re-sync widgets", "error", err)
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.widgets = slices.Clone(resp.Data)
	s.revision = resp.Revision
	logger.FromContext(ctx).Debug("widgets re-synced", "revision", resp.Revision, "count", len(resp.Data))
	return nil
}

// DropWidgetType selects the pending widget type and opens the add modal.
func (s *State) DropWidgetType(typeID string) error {
	idx := slices.IndexFunc(dto.WidgetTypes, func(o dto.WidgetTypeOption) bool { return o.ID == typeID })
	if idx < 0 {
		return errs.NewValidationError(fmt.Sprintf("unknown widget type %q", typeID))
	}
	opt := dto.WidgetTypes[idx]

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &opt
	s.modalOpen = true
	return nil
}

func (s *State) CloseModal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modalOpen = false
	s.pending = nil
}

func (s *State) ModalOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modalOpen
}

// Pending returns the widget type selected by the last drop, if any.
func (s *State) Pending() (dto.WidgetTypeOption, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pending == nil {
		return dto.WidgetTypeOption{}, false
	}
	return *s.pending, true
}

// Draft is the prefilled form for the pending widget type.
func (s *State) Draft() (dto.CreateWidgetRequest, bool) {
	opt, ok := s.Pending()
	if !ok {
		return dto.CreateWidgetRequest{}, false
	}
	return dto.CreateWidgetRequest{
		Title:  opt.Name,
		Type:   opt.Type,
		Width:  draftWidth,
		Height: draftHeight,
		Order:  draftOrder,
	}, true
}

// SubmitWidget creates the widget on the gateway. The id is the current time
// in Unix milliseconds. An empty input type falls back to the pending type.
func (s *State) SubmitWidget(ctx context.Context, input dto.CreateWidgetRequest) (models.Widget, error) {
	if input.Type == "" {
		if opt, ok := s.Pending(); ok {
			input.Type = opt.Type
		}
	}
	input.ID = strconv.FormatInt(s.now().UnixMilli(), 10)
	w := input.Widget()
	log, ctx := logger.With(ctx, "widget_id", w.ID)

	resp, err := s.gw.CreateWidget(ctx, w)
	if err != nil {
		log.Warn("failed to add widget", "error", err)
		s.alert(AddFailedAlert)
		return models.Widget{}, err
	}

	s.mu.Lock()
	diverged := resp.Revision != s.revision+1
	if !diverged {
		s.widgets = append(s.widgets, w)
		s.revision = resp.Revision
	}
	s.modalOpen = false
	s.pending = nil
	s.mu.Unlock()

	if diverged {
		log.Info("revision diverged after create, re-syncing", "server_revision", resp.Revision)
		if err := s.resync(ctx); err != nil {
			return w, err
		}
	}
	return w, nil
}

// DeleteWidget removes the widget on the gateway, then locally. A 404 means
// the local list is stale, so the state re-syncs instead of alerting.
func (s *State) DeleteWidget(ctx context.Context, widgetID string) error {
	log, ctx := logger.With(ctx, "widget_id", widgetID)

	resp, err := s.gw.DeleteWidget(ctx, widgetID)
	if err != nil {
		var nf *errs.NotFoundError
		if errors.As(err, &nf) {
			log.Info("widget already gone on server, re-syncing")
			return s.resync(ctx)
		}
		log.Warn("failed to delete widget", "error", err)
		s.alert(DeleteFailedAlert)
		return err
	}

	s.mu.Lock()
	diverged := resp.Revision != s.revision+1
	if !diverged {
		s.widgets = slices.DeleteFunc(s.widgets, func(w models.Widget) bool { return w.ID == widgetID })
		s.revision = resp.Revision
	}
	s.mu.Unlock()

	if diverged {
		log.Info("revision diverged after delete, re-syncing", "server_revision", resp.Revision)
		return s.resync(ctx)
	}
	return nil
}

// Widgets returns a copy sorted by order, highest first. Equal orders keep
// their insertion order.
func (s *State) Widgets() []models.Widget {
	s.mu.RLock()
	out := slices.Clone(s.widgets)
	s.mu.RUnlock()
	slices.SortStableFunc(out, func(a, b models.Widget) int { return b.Order - a.Order })
	return out
}

func (s *State) Revision() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *State) Layout() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.layout
}

func (s *State) SelectLayout(id string) error {
	if !slices.ContainsFunc(dto.LayoutOptions, func(o dto.LayoutOption) bool { return o.ID == id }) {
		return errs.NewValidationError(fmt.Sprintf("unknown layout %q", id))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layout = id
	return nil
}

// GridClass maps the selected layout to its grid class list.
func (s *State) GridClass() string {
	return GridClass(s.Layout())
}

func GridClass(layout string) string {
	switch layout {
	case dto.LayoutTwoColumns:
		return "grid-cols-2"
	case dto.LayoutThreeCols:
		return "grid-cols-3"
	case dto.LayoutGrid:
		return "grid-cols-2 lg:grid-cols-3"
	default:
		return "grid-cols-1"
	}
}
