package web

// errors.go provides JSON response helpers. Infrastructure errors are logged
// with full detail server-side and returned to clients as terse messages;
// validation findings are never errors at this layer, they travel in result
// bodies.

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, msg string, err error) {
	if err != nil {
		slog.Error("request error",
			"path", r.URL.Path,
			"method", r.Method,
			"status", status,
			"error", err.Error(),
		)
	}
	respondJSON(w, status, ErrorResponse{Error: msg})
}
