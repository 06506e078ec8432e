package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	apperrors "spotrent/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("error encoding response: %v", err)
		}
	}
}

// writeError maps service errors onto HTTP responses. Business-rule
// rejections carry their machine-checkable reason code in the body.
func writeError(w http.ResponseWriter, err error) {
	var httpErr *apperrors.HTTPError
	if errors.As(err, &httpErr) {
		writeJSON(w, httpErr.Code, httpErr)
		return
	}
	log.Printf("internal error: %v", err)
	writeJSON(w, http.StatusInternalServerError, apperrors.NewHTTPError(http.StatusInternalServerError, "internal server error"))
}
