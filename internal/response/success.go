package response

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// WriteSuccess encodes data as the JSON body and stamps the revision header.
// A negative revision omits the header.
func (h *responseHandler) WriteSuccess(w http.ResponseWriter, r *http.Request, status int, revision int64, data any) {
	w.Header().Set("Content-Type", "application/json")
	if revision >= 0 {
		w.Header().Set(RevisionHeader, strconv.FormatInt(revision, 10))
	}
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Last-ditch logging; can't return an error now
		h.logger(r).Error("failed to encode success response", "error", err)
	}
}
