package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mitscampus/campusbot/internal/rag"
)

// handleHealth reports process liveness.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: timestamp(),
	})
}

// handleChat answers one stateless question. Empty messages are
// rejected before the knowledge store is touched; a missing answerer
// means the store has not been initialized yet.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	body := http.MaxBytesReader(w, r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Please provide a valid question"})
		return
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Please provide a valid question"})
		return
	}

	if s.answerer == nil {
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "Vector store not initialized"})
		return
	}

	answer, err := s.answerer.Answer(r.Context(), message, nil)
	if err != nil {
		s.logger.Error("chat turn failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:     rag.ApologyMessage,
			Timestamp: timestamp(),
		})
		return
	}

	writeJSON(w, http.StatusOK, ChatResponse{
		Response:  answer,
		Timestamp: timestamp(),
	})
}
