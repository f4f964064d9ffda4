package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/GregMSThompson/dashboard-builder/internal/dto"
	"github.com/GregMSThompson/dashboard-builder/internal/errs"
)

func (h *responseHandler) WriteError(w http.ResponseWriter, r *http.Request, status int, code, message, cause string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(dto.ErrorResponse{
		Code:    code,
		Message: message,
		Error:   cause,
	}); err != nil {
		log := h.logger(r)
		log.Error("failed to encode error response", "error", err, "status", status, "code", code)
	}
}

// HandleError maps a tagged error to its status code. message is the
// route-level summary, e.g. "Error adding widget".
func (h *responseHandler) HandleError(w http.ResponseWriter, r *http.Request, message string, err error) {
	log := h.logger(r)

	var (
		nf *errs.NotFoundError
		ae *errs.AlreadyExistsError
		ve *errs.ValidationError
		de *errs.DatabaseError
	)
	switch {
	case errors.As(err, &nf):
		log.Warn("resource not found", "error", nf.Message)
		h.WriteError(w, r, http.StatusNotFound, "not_found", message, nf.Message)

	case errors.As(err, &ae):
		log.Warn("resource already exists", "error", ae.Message)
		h.WriteError(w, r, http.StatusConflict, "already_exists", message, ae.Message)

	case errors.As(err, &ve):
		log.Warn("validation failed", "error", ve.Message)
		h.WriteError(w, r, http.StatusBadRequest, "invalid_input", message, ve.Message)

	case errors.As(err, &de):
		log.Error("database error",
			"operation", de.Operation,
			"error", de.Error())
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error", message, de.Message)

	default:
		log.Error("unexpected error",
			"error", err,
			"type", fmt.Sprintf("%T", err))
		h.WriteError(w, r, http.StatusInternalServerError, "internal_error", message,
			"An unexpected error occurred")
	}
}
