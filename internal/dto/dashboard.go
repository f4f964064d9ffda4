package dto

import (
	"encoding/json"

	"github.com/GregMSThompson/dashboard-builder/internal/models"
)

// Widget type constants
const (
	WidgetTypeCustomText = "custom-text"
	WidgetTypeImage      = "image"
	WidgetTypeDataTable  = "data-table"
	WidgetTypeChart      = "chart"
)

// Layout constants
const (
	LayoutFull       = "full"
	LayoutTwoColumns = "2-columns"
	LayoutThreeCols  = "3-columns"
	LayoutGrid       = "grid"
)

// --- Request types ---

// CreateWidgetRequest is the POST /widgets body. ID is optional; the server
// assigns one when it is empty.
type CreateWidgetRequest struct {
	ID     string `json:"id,omitempty" validate:"omitempty,max=128,excludesall=/"`
	Title  string `json:"title" validate:"notblank"`
	Type   string `json:"type" validate:"required,oneof=custom-text image data-table chart"`
	Source string `json:"source" validate:"notblank"`
	Width  int    `json:"width" validate:"min=1,max=100"`
	Height int    `json:"height" validate:"gt=0"`
	Order  int    `json:"order" validate:"gt=0"`
}

func (r CreateWidgetRequest) Widget() models.Widget {
	return models.Widget{
		ID:     r.ID,
		Title:  r.Title,
		Type:   r.Type,
		Source: r.Source,
		Width:  r.Width,
		Height: r.Height,
		Order:  r.Order,
	}
}

// --- Response types ---

type WidgetListResponse struct {
	Data     []models.Widget `json:"data"`
	Revision int64           `json:"revision"`
}

type DataStreamResponse struct {
	Data     []models.DataStreamEntry `json:"data"`
	Revision int64                    `json:"revision"`
}

type MutationResponse struct {
	Message  string `json:"message"`
	ID       string `json:"id,omitempty"`
	Revision int64  `json:"revision"`
}

// ErrorResponse is the body of every non-2xx gateway response. Message is
// the route-level summary; Error carries the underlying cause.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Mutation is what the service returns for a successful create or delete.
type Mutation struct {
	ID       string
	Revision int64
}

// --- Data stream content ---

// TableContent is the content of a data-table fixture.
type TableContent struct {
	SourceIdentifier string   `json:"sourceIdentifier"`
	Title            string   `json:"title"`
	Columns          []string `json:"columns"`
	Rows             [][]any  `json:"rows"`
}

// ChartContent is the content of a chart fixture.
type ChartContent struct {
	SourceIdentifier string           `json:"sourceIdentifier"`
	ChartType        string           `json:"chartType"`
	Title            string           `json:"title"`
	XKey             string           `json:"xKey"`
	YKey             string           `json:"yKey"`
	Data             []map[string]any `json:"data"`
}

// DataStreamContent wraps a decoded fixture entry.
type DataStreamContent[T any] struct {
	Content T `json:"content"`
}

// DecodeContent decodes the content of a raw fixture entry.
func DecodeContent[T any](entry models.DataStreamEntry) (T, error) {
	var wrapped DataStreamContent[T]
	err := json.Unmarshal(entry, &wrapped)
	return wrapped.Content, err
}

// --- Catalogs ---

type WidgetTypeOption struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LayoutOption struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cols int    `json:"cols"` // 0 means an auto grid
}

var WidgetTypes = []WidgetTypeOption{
	{ID: WidgetTypeCustomText, Type: WidgetTypeCustomText, Name: "Custom Text", Description: "Add custom text content"},
	{ID: WidgetTypeImage, Type: WidgetTypeImage, Name: "Image Widget", Description: "Display images and media"},
	{ID: WidgetTypeDataTable, Type: WidgetTypeDataTable, Name: "Data Table", Description: "Display tabular data"},
	{ID: WidgetTypeChart, Type: WidgetTypeChart, Name: "Chart Widget", Description: "Create graphs and charts"},
}

var LayoutOptions = []LayoutOption{
	{ID: LayoutFull, Name: "Full Width", Cols: 1},
	{ID: LayoutTwoColumns, Name: "2 Columns", Cols: 2},
	{ID: LayoutThreeCols, Name: "3 Columns", Cols: 3},
	{ID: LayoutGrid, Name: "Grid", Cols: 0},
}
