package api

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthResponse is the GET /health body.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ChatRequest is the POST /chat body.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the successful POST /chat body.
type ChatResponse struct {
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
}

// ErrorResponse carries a user-facing error message. Internal detail
// never appears here.
type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp,omitempty"`
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
