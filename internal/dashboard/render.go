package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/GregMSThompson/dashboard-builder/internal/dto"
	"github.com/GregMSThompson/dashboard-builder/internal/models"
	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

// DefaultFetchDelay is the pause before a data-backed widget fetches its data.
const DefaultFetchDelay = 1500 * time.Millisecond

const DeletePrompt = "Are you sure you want to delete this widget? This action cannot be undone."

const maxConcurrentRenders = 8

type dataFetcher interface {
	GetDataStream(ctx context.Context, identifier string) (dto.DataStreamResponse, error)
}

// View is the rendered form of one widget. Exactly one of Text, ImageURL,
// Table or Chart is set unless Empty or Err is.
type View struct {
	Widget   models.Widget
	Text     string
	ImageURL string
	Table    *dto.TableContent
	Chart    *dto.ChartContent
	Empty    bool
	Err      error
}

type Renderer struct {
	fetcher dataFetcher
	delay   time.Duration
	group   singleflight.Group
}

// NewRenderer uses DefaultFetchDelay when delay is negative. A zero delay
// fetches immediately.
func NewRenderer(fetcher dataFetcher, delay time.Duration) *Renderer {
	if delay < 0 {
		delay = DefaultFetchDelay
	}
	return &Renderer{fetcher: fetcher, delay: delay}
}

func (r *Renderer) Render(ctx context.Context, w models.Widget) View {
	v := View{Widget: w}
	switch w.Type {
	case dto.WidgetTypeCustomText:
		v.Text = w.Source
	case dto.WidgetTypeImage:
		v.ImageURL = w.Source
	case dto.WidgetTypeDataTable:
		entry, ok := r.firstEntry(ctx, &v)
		if !ok {
			return v
		}
		table, err := dto.DecodeContent[dto.TableContent](entry)
		if err != nil {
			v.Err = fmt.Errorf("decode table data for %s: %w", w.Source, err)
			return v
		}
		v.Table = &table
	case dto.WidgetTypeChart:
		entry, ok := r.firstEntry(ctx, &v)
		if !ok {
			return v
		}
		chart, err := dto.DecodeContent[dto.ChartContent](entry)
		if err != nil {
			v.Err = fmt.Errorf("decode chart data for %s: %w", w.Source, err)
			return v
		}
		v.Chart = &chart
	default:
		v.Err = fmt.Errorf("unsupported widget type %q", w.Type)
	}
	return v
}

// RenderAll renders widgets concurrently and returns views in input order.
func (r *Renderer) RenderAll(ctx context.Context, widgets []models.Widget) []View {
	views := make([]View, len(widgets))
	var g errgroup.Group
	g.SetLimit(maxConcurrentRenders)
	for i, w := range widgets {
		g.Go(func() error {
			views[i] = r.Render(ctx, w)
			return nil
		})
	}
	_ = g.Wait()
	return views
}

// firstEntry waits out the fetch delay, loads the widget's data stream and
// returns its first entry. On failure it marks v and returns false.
func (r *Renderer) firstEntry(ctx context.Context, v *View) (models.DataStreamEntry, bool) {
	if r.delay > 0 {
		t := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			v.Err = ctx.Err()
			return nil, false
		case <-t.C:
		}
	}

	res, err, shared := r.group.Do(v.Widget.Source, func() (any, error) {
		resp, err := r.fetcher.GetDataStream(ctx, v.Widget.Source)
		return resp.Data, err
	})
	if err != nil {
		logger.FromContext(ctx).Warn("failed to fetch widget data",
			"widget_id", v.Widget.ID,
			"source", v.Widget.Source,
			"error", err)
		v.Err = err
		return nil, false
	}
	if shared {
		logger.FromContext(ctx).Debug("data stream fetch coalesced", "source", v.Widget.Source)
	}
	entries, _ := res.([]models.DataStreamEntry)
	if len(entries) == 0 {
		v.Empty = true
		return nil, false
	}
	return entries[0], true
}

// ConfirmDelete asks confirm with DeletePrompt and deletes only on yes.
func ConfirmDelete(ctx context.Context, s *State, widgetID string, confirm func(prompt string) bool) (bool, error) {
	if !confirm(DeletePrompt) {
		return false, nil
	}
	return true, s.DeleteWidget(ctx, widgetID)
}
