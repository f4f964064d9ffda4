package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/dashboard-builder/internal/dto"
	"github.com/GregMSThompson/dashboard-builder/internal/errs"
	"github.com/GregMSThompson/dashboard-builder/internal/models"
)

type stubWidgetService struct {
	listResp   dto.WidgetListResponse
	createReq  dto.CreateWidgetRequest
	createMut  dto.Mutation
	deleteID   string
	deleteMut  dto.Mutation
	identifier string
	streamResp dto.DataStreamResponse
	err        error
	called     bool
}

func (s *stubWidgetService) ListWidgets(_ context.Context) (dto.WidgetListResponse, error) {
	s.called = true
	return s.listResp, s.err
}

func (s *stubWidgetService) CreateWidget(_ context.Context, req dto.CreateWidgetRequest) (dto.Mutation, error) {
	s.called = true
	s.createReq = req
	return s.createMut, s.err
}

func (s *stubWidgetService) DeleteWidget(_ context.Context, widgetID string) (dto.Mutation, error) {
	s.called = true
	s.deleteID = widgetID
	return s.deleteMut, s.err
}

func (s *stubWidgetService) GetDataStream(_ context.Context, identifier string) (dto.DataStreamResponse, error) {
	s.called = true
	s.identifier = identifier
	return s.streamResp, s.err
}

type stubResponseHandler struct {
	writeSuccessCalled   bool
	writeSuccessStatus   int
	writeSuccessRevision int64
	writeSuccessData     any

	handleErrorCalled  bool
	handleErrorMessage string
	handleError        error
}

func (s *stubResponseHandler) WriteSuccess(w http.ResponseWriter, _ *http.Request, status int, revision int64, data any) {
	s.writeSuccessCalled = true
	s.writeSuccessStatus = status
	s.writeSuccessRevision = revision
	s.writeSuccessData = data
	w.WriteHeader(status)
}

func (s *stubResponseHandler) WriteError(w http.ResponseWriter, _ *http.Request, status int, _, _, _ string) {
	w.WriteHeader(status)
}

func (s *stubResponseHandler) HandleError(w http.ResponseWriter, _ *http.Request, message string, err error) {
	s.handleErrorCalled = true
	s.handleErrorMessage = message
	s.handleError = err
	w.WriteHeader(http.StatusInternalServerError)
}

func withChiParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newTestHandlers(svc *stubWidgetService, resp *stubResponseHandler) *widgetHandlers {
	return NewWidgetHandlers(&Deps{ResponseHandler: resp, WidgetSvc: svc})
}

func TestListWidgetsReturns201(t *testing.T) {
	svc := &stubWidgetService{listResp: dto.WidgetListResponse{
		Data:     []models.Widget{{ID: "w1"}},
		Revision: 4,
	}}
	resp := &stubResponseHandler{}
	h := newTestHandlers(svc, resp)

	rr := httptest.NewRecorder()
	h.ListWidgets(rr, httptest.NewRequest(http.MethodGet, "/widgets", nil))

	if resp.writeSuccessStatus != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.writeSuccessStatus)
	}
	if resp.writeSuccessRevision != 4 {
		t.Fatalf("expected revision 4, got %d", resp.writeSuccessRevision)
	}
	got, ok := resp.writeSuccessData.(dto.WidgetListResponse)
	if !ok || len(got.Data) != 1 {
		t.Fatalf("unexpected data %#v", resp.writeSuccessData)
	}
}

func TestListWidgetsError(t *testing.T) {
	svc := &stubWidgetService{err: errors.New("boom")}
	resp := &stubResponseHandler{}
	h := newTestHandlers(svc, resp)

	h.ListWidgets(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/widgets", nil))

	if !resp.handleErrorCalled || resp.handleErrorMessage != "Error fetching widget" {
		t.Fatalf("expected HandleError with fetch message, got %q", resp.handleErrorMessage)
	}
}

func TestCreateWidgetSuccess(t *testing.T) {
	svc := &stubWidgetService{createMut: dto.Mutation{ID: "w9", Revision: 2}}
	resp := &stubResponseHandler{}
	h := newTestHandlers(svc, resp)

	body := `{"title":"Revenue","type":"chart","source":"chart-1","width":50,"height":250,"order":1}`
	rr := httptest.NewRecorder()
	h.CreateWidget(rr, httptest.NewRequest(http.MethodPost, "/widgets", strings.NewReader(body)))

	if svc.createReq.Title != "Revenue" || svc.createReq.Width != 50 || svc.createReq.Source != "chart-1" {
		t.Fatalf("service received wrong request: %+v", svc.createReq)
	}
	if resp.writeSuccessStatus != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.writeSuccessStatus)
	}
	got := resp.writeSuccessData.(dto.MutationResponse)
	if got.Message != "Widget added successfully" || got.ID != "w9" || got.Revision != 2 {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestCreateWidgetInvalidJSON(t *testing.T) {
	svc := &stubWidgetService{}
	resp := &stubResponseHandler{}
	h := newTestHandlers(svc, resp)

	h.CreateWidget(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/widgets", strings.NewReader("not-json")))

	if svc.called {
		t.Fatal("service must not be called for invalid JSON")
	}
	if _, ok := resp.handleError.(*errs.ValidationError); !ok {
		t.Fatalf("expected ValidationError, got %T", resp.handleError)
	}
	if resp.handleErrorMessage != "Error adding widget" {
		t.Fatalf("unexpected message %q", resp.handleErrorMessage)
	}
}

func TestDeleteWidgetSuccess(t *testing.T) {
	svc := &stubWidgetService{deleteMut: dto.Mutation{ID: "w1", Revision: 7}}
	resp := &stubResponseHandler{}
	h := newTestHandlers(svc, resp)

	req := withChiParam(httptest.NewRequest(http.MethodDelete, "/widgets/w1", nil), "id", "w1")
	h.DeleteWidget(httptest.NewRecorder(), req)

	if svc.deleteID != "w1" {
		t.Fatalf("expected id w1, got %q", svc.deleteID)
	}
	if resp.writeSuccessStatus != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.writeSuccessStatus)
	}
	if got := resp.writeSuccessData.(dto.MutationResponse); got.Message != "Widget deleted successfully" {
		t.Fatalf("unexpected message %q", got.Message)
	}
}

func TestDeleteWidgetNotFound(t *testing.T) {
	svc := &stubWidgetService{err: errs.NewNotFoundError("Widget with id w1 not found")}
	resp := &stubResponseHandler{}
	h := newTestHandlers(svc, resp)

	req := withChiParam(httptest.NewRequest(http.MethodDelete, "/widgets/w1", nil), "id", "w1")
	h.DeleteWidget(httptest.NewRecorder(), req)

	if resp.handleErrorMessage != "Error deleting widget" {
		t.Fatalf("unexpected message %q", resp.handleErrorMessage)
	}
	if _, ok := resp.handleError.(*errs.NotFoundError); !ok {
		t.Fatalf("expected NotFoundError, got %T", resp.handleError)
	}
}

func TestGetDataStream(t *testing.T) {
	svc := &stubWidgetService{streamResp: dto.DataStreamResponse{Data: []models.DataStreamEntry{}, Revision: 1}}
	resp := &stubResponseHandler{}
	h := newTestHandlers(svc, resp)

	req := withChiParam(httptest.NewRequest(http.MethodGet, "/data-stream/table-1", nil), "identifier", "table-1")
	h.GetDataStream(httptest.NewRecorder(), req)

	if svc.identifier != "table-1" {
		t.Fatalf("expected identifier table-1, got %q", svc.identifier)
	}
	if resp.writeSuccessStatus != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.writeSuccessStatus)
	}
}

func TestHealth(t *testing.T) {
	rr := httptest.NewRecorder()
	Health(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusOK || rr.Body.String() != "Healthy app!" {
		t.Fatalf("unexpected health response %d %q", rr.Code, rr.Body.String())
	}
}
