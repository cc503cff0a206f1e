package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"oraculo/internal/reply"
	"oraculo/internal/services"
)

type oraculoRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

type oraculoResponse struct {
	Reply string `json:"reply"`
}

// handleOraculo runs one conversation turn. The endpoint always answers
// with a reply the user can read: missing fields get the clarifying line
// and internal failures get the generic failure line, both as 200s, so a
// chat frontend never has to interpret error statuses.
func (s *Server) handleOraculo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req oraculoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusOK, oraculoResponse{Reply: reply.AskClarify})
		return
	}

	out, err := s.oracle.HandleMessage(r.Context(), req.UserID, req.Message)
	if errors.Is(err, services.ErrMissingInput) {
		writeJSON(w, http.StatusOK, oraculoResponse{Reply: reply.AskClarify})
		return
	}
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Conversation turn failed",
			"user_id", req.UserID, "error", err)
		writeJSON(w, http.StatusInternalServerError, oraculoResponse{Reply: reply.Failure})
		return
	}

	writeJSON(w, http.StatusOK, oraculoResponse{Reply: out})
}
