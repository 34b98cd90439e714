package handler

import (
	"encoding/json"
	"net/http"

	"github.com/personachat/persona-platform/internal/apperrors"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeDomainError maps a taxonomy error onto an HTTP status. Every turn
// error is fatal to that turn; nothing here retries.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case apperrors.Is(err, apperrors.ErrAuthenticationMissing):
		writeError(w, http.StatusUnauthorized, err.Error())
	case apperrors.Is(err, apperrors.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
