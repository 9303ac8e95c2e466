package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"universal-redaction/internal/models"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, errType, rid string) {
	writeJSON(w, status, models.ErrorBody{Error: models.ErrorDetail{
		Message: message,
		Type:    errType,
		RID:     rid,
	}})
}

// decodeBody reads a JSON body of at most limit bytes into v. The returned
// status is the one to answer with when err is non-nil.
func decodeBody(w http.ResponseWriter, r *http.Request, limit int64, v interface{}) (int, error) {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return http.StatusRequestEntityTooLarge, fmt.Errorf("request body exceeds %d bytes", tooLarge.Limit)
		}
		return http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err)
	}
	return http.StatusOK, nil
}
