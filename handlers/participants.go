// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"

	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
)

// ParticipantHandler serves the audience API. No identity is required.
type ParticipantHandler struct {
	coord Coordinator
}

func NewParticipantHandler(coord Coordinator) *ParticipantHandler {
	return &ParticipantHandler{coord: coord}
}

// Join handles POST /join
// Checks that the code names an active session before the client opens its
// WebSocket and sends join_session.
func (h *ParticipantHandler) Join(w http.ResponseWriter, r *http.Request) {
	var req models.JoinRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	code := strings.ToUpper(strings.TrimSpace(req.SessionCode))
	if code == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "session_code is required")
		return
	}
	if !auth.IsSessionCode(code) {
		middleware.WriteError(w, models.ErrSessionUnavailable)
		return
	}

	summary, err := h.coord.PublicSession(r.Context(), code)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.JoinResponse{Success: true, Session: summary})
}

// SubmitVote handles POST /vote
func (h *ParticipantHandler) SubmitVote(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitVoteRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.PollID == 0 || req.ParticipantID == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "poll_id and participant_id are required")
		return
	}

	if _, err := h.coord.SubmitVote(r.Context(), req.PollID, req.ParticipantID, req.Answer); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{Success: true})
}
