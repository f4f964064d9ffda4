package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/dashboard-builder/internal/dto"
	"github.com/GregMSThompson/dashboard-builder/internal/errs"
	"github.com/GregMSThompson/dashboard-builder/internal/response"
)

const maxWidgetBody = 1 << 20

type WidgetService interface {
	ListWidgets(ctx context.Context) (dto.WidgetListResponse, error)
	CreateWidget(ctx context.Context, req dto.CreateWidgetRequest) (dto.Mutation, error)
	DeleteWidget(ctx context.Context, widgetID string) (dto.Mutation, error)
	GetDataStream(ctx context.Context, identifier string) (dto.DataStreamResponse, error)
}

type widgetHandlers struct {
	ResponseHandler response.ResponseHandler
	WidgetSvc       WidgetService
}

func NewWidgetHandlers(deps *Deps) *widgetHandlers {
	return &widgetHandlers{
		ResponseHandler: deps.ResponseHandler,
		WidgetSvc:       deps.WidgetSvc,
	}
}

func (h *widgetHandlers) WidgetRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListWidgets)
	r.Post("/", h.CreateWidget)
	r.Delete("/{id}", h.DeleteWidget)
	return r
}

func (h *widgetHandlers) DataStreamRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{identifier}", h.GetDataStream)
	return r
}

// ListWidgets answers 201 rather than 200; existing clients depend on it.
func (h *widgetHandlers) ListWidgets(w http.ResponseWriter, r *http.Request) {
	resp, err := h.WidgetSvc.ListWidgets(r.Context())
	if err != nil {
		h.ResponseHandler.HandleError(w, r, "Error fetching widget", err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, resp.Revision, resp)
}

func (h *widgetHandlers) CreateWidget(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateWidgetRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxWidgetBody))
	if err := dec.Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, "Error adding widget", errs.NewValidationError("invalid request body: "+err.Error()))
		return
	}
	mut, err := h.WidgetSvc.CreateWidget(r.Context(), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, "Error adding widget", err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, mut.Revision, dto.MutationResponse{
		Message:  "Widget added successfully",
		ID:       mut.ID,
		Revision: mut.Revision,
	})
}

func (h *widgetHandlers) DeleteWidget(w http.ResponseWriter, r *http.Request) {
	widgetID := chi.URLParam(r, "id")
	mut, err := h.WidgetSvc.DeleteWidget(r.Context(), widgetID)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, "Error deleting widget", err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, mut.Revision, dto.MutationResponse{
		Message:  "Widget deleted successfully",
		ID:       mut.ID,
		Revision: mut.Revision,
	})
}

// GetDataStream also answers 201.
func (h *widgetHandlers) GetDataStream(w http.ResponseWriter, r *http.Request) {
	identifier := chi.URLParam(r, "identifier")
	resp, err := h.WidgetSvc.GetDataStream(r.Context(), identifier)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, "Error fetching widget", err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, resp.Revision, resp)
}
