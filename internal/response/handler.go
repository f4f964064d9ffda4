package response

import (
	"log/slog"
	"net/http"

	"github.com/GregMSThompson/dashboard-builder/pkg/logger"
)

// RevisionHeader carries the collection revision on every gateway response.
const RevisionHeader = "X-Revision"

type ResponseHandler interface {
	WriteSuccess(w http.ResponseWriter, r *http.Request, status int, revision int64, data any)
	WriteError(w http.ResponseWriter, r *http.Request, status int, code, message, cause string)
	HandleError(w http.ResponseWriter, r *http.Request, message string, err error)
}

type responseHandler struct {
	Log *slog.Logger
}

func New(log *slog.Logger) *responseHandler {
	return &responseHandler{Log: log}
}

// logger prefers the request-scoped logger set by the logging middleware.
func (h *responseHandler) logger(r *http.Request) *slog.Logger {
	return logger.FromContextOr(r.Context(), h.Log)
}
