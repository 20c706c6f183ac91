package handlers

import (
	"encoding/json"
	"net/http"
)

// errorBody is the uniform error shape wrapped around every failure the
// API reports: {error, message, statusCode}.
type errorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorBody{
		Error:      code,
		Message:    message,
		StatusCode: status,
	})
}
