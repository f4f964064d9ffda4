package dashboard

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/dashboard-builder/internal/dto"
	"github.com/GregMSThompson/dashboard-builder/internal/errs"
	"github.com/GregMSThompson/dashboard-builder/internal/models"
	"github.com/GregMSThompson/dashboard-builder/pkg/helpers"
)

// fakeGateway is an in-memory server. bump adds extra revisions to simulate
// writes by other clients.
type fakeGateway struct {
	mu        sync.Mutex
	widgets   []models.Widget
	stream    map[string][]models.DataStreamEntry
	revision  int64
	bump      int64
	createErr error
	deleteErr error
	listCalls int
	created   []models.Widget
	fetches   atomic.Int32
	streamErr error
}

func (f *fakeGateway) ListWidgets(_ context.Context) (dto.WidgetListResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	return dto.WidgetListResponse{Data: append([]models.Widget{}, f.widgets...), Revision: f.revision}, nil
}

func (f *fakeGateway) CreateWidget(_ context.Context, w models.Widget) (dto.MutationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return dto.MutationResponse{}, f.createErr
	}
	f.created = append(f.created, w)
	f.widgets = append(f.widgets, w)
	f.revision += 1 + f.bump
	return dto.MutationResponse{Message: "Widget added successfully", ID: w.ID, Revision: f.revision}, nil
}

func (f *fakeGateway) DeleteWidget(_ context.Context, widgetID string) (dto.MutationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return dto.MutationResponse{}, f.deleteErr
	}
	for i, w := range f.widgets {
		if w.ID == widgetID {
			f.widgets = append(f.widgets[:i], f.widgets[i+1:]...)
			f.revision += 1 + f.bump
			return dto.MutationResponse{Message: "Widget deleted successfully", ID: widgetID, Revision: f.revision}, nil
		}
	}
	return dto.MutationResponse{}, errs.NewNotFoundError("Widget with id " + widgetID + " not found")
}

func (f *fakeGateway) GetDataStream(_ context.Context, identifier string) (dto.DataStreamResponse, error) {
	f.fetches.Add(1)
	time.Sleep(20 * time.Millisecond)
	if f.streamErr != nil {
		return dto.DataStreamResponse{}, f.streamErr
	}
	data := f.stream[identifier]
	if data == nil {
		data = []models.DataStreamEntry{}
	}
	return dto.DataStreamResponse{Data: data}, nil
}

func fixedClock() time.Time { return time.UnixMilli(1718000000000) }

func revenueInput() dto.CreateWidgetRequest {
	return dto.CreateWidgetRequest{Title: "Revenue", Type: dto.WidgetTypeChart, Source: "chart-1", Width: 50, Height: 250, Order: 1}
}

func TestLoad_ReplacesWhenNonEmpty(t *testing.T) {
	gw := &fakeGateway{widgets: []models.Widget{{ID: "a", Order: 1}}, revision: 3}
	s := NewState(gw)

	require.NoError(t, s.Load(helpers.TestCtx()))
	assert.Len(t, s.Widgets(), 1)
	assert.Equal(t, int64(3), s.Revision())
}

func TestLoad_EmptyKeepsLocalRevisionSoNextSubmitResyncs(t *testing.T) {
	gw := &fakeGateway{widgets: []models.Widget{{ID: "a", Order: 1}}, revision: 1}
	s := NewState(gw, WithClock(fixedClock))
	ctx := helpers.TestCtx()
	require.NoError(t, s.Load(ctx))

	gw.mu.Lock()
	gw.widgets = nil
	gw.revision = 5
	gw.mu.Unlock()

	require.NoError(t, s.Load(ctx))
	assert.Len(t, s.Widgets(), 1)
	assert.Equal(t, int64(1), s.Revision())

	_, err := s.SubmitWidget(ctx, revenueInput())
	require.NoError(t, err)
	assert.Equal(t, 3, gw.listCalls)
	assert.Equal(t, int64(6), s.Revision())
	require.Len(t, s.Widgets(), 1)
	assert.Equal(t, "1718000000000", s.Widgets()[0].ID)
}

func TestSubmitWidget_AppendsAndClosesModal(t *testing.T) {
	gw := &fakeGateway{}
	s := NewState(gw, WithClock(fixedClock))
	ctx := helpers.TestCtx()

	require.NoError(t, s.DropWidgetType(dto.WidgetTypeChart))
	require.True(t, s.ModalOpen())

	w, err := s.SubmitWidget(ctx, revenueInput())
	require.NoError(t, err)
	assert.Equal(t, "1718000000000", w.ID)
	assert.False(t, s.ModalOpen())
	_, pending := s.Pending()
	assert.False(t, pending)

	widgets := s.Widgets()
	require.Len(t, widgets, 1)
	assert.Equal(t, "Revenue", widgets[0].Title)
	assert.Equal(t, int64(1), s.Revision())
	assert.Equal(t, 0, gw.listCalls, "no re-sync when revisions line up")
}

func TestSubmitWidget_FailureAlertsAndKeepsState(t *testing.T) {
	gw := &fakeGateway{createErr: errs.NewNetworkError(500, "Error adding widget", errors.New("boom"))}
	var alerts []string
	s := NewState(gw, WithAlerter(func(m string) { alerts = append(alerts, m) }))

	require.NoError(t, s.DropWidgetType(dto.WidgetTypeImage))
	_, err := s.SubmitWidget(helpers.TestCtx(), revenueInput())
	require.Error(t, err)

	assert.Equal(t, []string{AddFailedAlert}, alerts)
	assert.Empty(t, s.Widgets())
	assert.True(t, s.ModalOpen())
}

func TestSubmitWidget_DivergedRevisionResyncs(t *testing.T) {
	gw := &fakeGateway{widgets: []models.Widget{{ID: "other", Order: 5}}, revision: 1, bump: 1}
	s := NewState(gw, WithClock(fixedClock))
	ctx := helpers.TestCtx()

	_, err := s.SubmitWidget(ctx, revenueInput())
	require.NoError(t, err)

	assert.Equal(t, 1, gw.listCalls)
	assert.Equal(t, int64(3), s.Revision())
	ids := []string{}
	for _, w := range s.Widgets() {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"other", "1718000000000"}, ids)
}

func TestDeleteWidget_RemovesLocally(t *testing.T) {
	gw := &fakeGateway{widgets: []models.Widget{{ID: "a"}, {ID: "b"}}, revision: 2}
	s := NewState(gw)
	ctx := helpers.TestCtx()
	require.NoError(t, s.Load(ctx))

	require.NoError(t, s.DeleteWidget(ctx, "a"))
	widgets := s.Widgets()
	require.Len(t, widgets, 1)
	assert.Equal(t, "b", widgets[0].ID)
	assert.Equal(t, 1, gw.listCalls)
}

func TestDeleteWidget_NotFoundResyncsWithoutAlert(t *testing.T) {
	gw := &fakeGateway{widgets: []models.Widget{{ID: "a"}}, revision: 1}
	var alerts []string
	s := NewState(gw, WithAlerter(func(m string) { alerts = append(alerts, m) }))
	ctx := helpers.TestCtx()
	require.NoError(t, s.Load(ctx))

	// another client removed it
	gw.widgets = nil
	gw.revision = 2

	require.NoError(t, s.DeleteWidget(ctx, "a"))
	assert.Empty(t, alerts)
	assert.Empty(t, s.Widgets())
	assert.Equal(t, int64(2), s.Revision())
}

func TestDeleteWidget_FailureAlerts(t *testing.T) {
	gw := &fakeGateway{widgets: []models.Widget{{ID: "a"}}, deleteErr: errs.NewNetworkError(0, "gateway unreachable", errors.New("refused"))}
	var alerts []string
	s := NewState(gw, WithAlerter(func(m string) { alerts = append(alerts, m) }))
	ctx := helpers.TestCtx()
	require.NoError(t, s.Load(ctx))

	require.Error(t, s.DeleteWidget(ctx, "a"))
	assert.Equal(t, []string{DeleteFailedAlert}, alerts)
	assert.Len(t, s.Widgets(), 1)
}

func TestWidgets_SortedByOrderDescendingStable(t *testing.T) {
	gw := &fakeGateway{widgets: []models.Widget{
		{ID: "low", Order: 1},
		{ID: "high", Order: 9},
		{ID: "mid-1", Order: 5},
		{ID: "mid-2", Order: 5},
	}}
	s := NewState(gw)
	require.NoError(t, s.Load(helpers.TestCtx()))

	var ids []string
	for _, w := range s.Widgets() {
		ids = append(ids, w.ID)
	}
	assert.Equal(t, []string{"high", "mid-1", "mid-2", "low"}, ids)
}

func TestSelectLayoutAndGridClass(t *testing.T) {
	s := NewState(&fakeGateway{})
	assert.Equal(t, "grid-cols-1", s.GridClass())

	cases := []struct {
		layout string
		class  string
	}{
		{dto.LayoutTwoColumns, "grid-cols-2"},
		{dto.LayoutThreeCols, "grid-cols-3"},
		{dto.LayoutFull, "grid-cols-1"},
		{dto.LayoutGrid, "grid-cols-2 lg:grid-cols-3"},
	}
	for _, tc := range cases {
		require.NoError(t, s.SelectLayout(tc.layout))
		assert.Equal(t, tc.class, s.GridClass())
	}

	before := s.Layout()
	err := s.SelectLayout("masonry")
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, before, s.Layout())
	assert.Equal(t, dto.LayoutGrid, s.Layout())
}

func TestDropWidgetType_UnknownAndDraft(t *testing.T) {
	s := NewState(&fakeGateway{})
	require.Error(t, s.DropWidgetType("map"))
	assert.False(t, s.ModalOpen())

	require.NoError(t, s.DropWidgetType(dto.WidgetTypeDataTable))
	draft, ok := s.Draft()
	require.True(t, ok)
	assert.Equal(t, "Data Table", draft.Title)
	assert.Equal(t, dto.WidgetTypeDataTable, draft.Type)
	assert.Equal(t, 47, draft.Width)

	s.CloseModal()
	assert.False(t, s.ModalOpen())
	_, ok = s.Draft()
	assert.False(t, ok)
}
