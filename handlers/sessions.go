// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
)

// SessionHandler serves the presenter API. Every route requires a verified
// owner identity.
type SessionHandler struct {
	coord Coordinator
	cfg   cliparse.Config
}

func NewSessionHandler(coord Coordinator, cfg cliparse.Config) *SessionHandler {
	return &SessionHandler{coord: coord, cfg: cfg}
}

// presenter verifies the identity headers, writing 401 on failure
func (h *SessionHandler) presenter(w http.ResponseWriter, r *http.Request) (models.Identity, bool) {
	who, err := middleware.Identify(r, h.cfg)
	if err != nil {
		slog.Debug("presenter identity rejected", "error", err)
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid owner key")
		return models.Identity{}, false
	}
	return who, true
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	who, ok := h.presenter(w, r)
	if !ok {
		return
	}

	var req models.CreateSessionRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	summary, err := h.coord.CreateSession(r.Context(), who, req)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CreateSessionResponse{
		Success:     true,
		Session:     summary,
		SessionCode: summary.Code,
		Message:     "Session created successfully",
	})
}

// ListSessions handles GET /sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	who, ok := h.presenter(w, r)
	if !ok {
		return
	}

	resp, err := h.coord.ListSessions(r.Context(), who)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// GetSession handles GET /sessions/{code}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	who, ok := h.presenter(w, r)
	if !ok {
		return
	}

	summary, err := h.coord.GetSession(r.Context(), r.PathValue("code"), who)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, summary)
}

// DeleteSession handles DELETE /sessions/{code}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	who, ok := h.presenter(w, r)
	if !ok {
		return
	}

	if err := h.coord.DeleteSession(r.Context(), r.PathValue("code"), who); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Session deleted successfully",
	})
}

// ToggleSession handles PUT /sessions/{code}/toggle
func (h *SessionHandler) ToggleSession(w http.ResponseWriter, r *http.Request) {
	who, ok := h.presenter(w, r)
	if !ok {
		return
	}

	state, err := h.coord.StartOrPause(r.Context(), r.PathValue("code"), who)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SessionStateResponse{
		Success:  true,
		IsActive: state.IsActive,
		Message:  state.Message,
	})
}

// EndSession handles PUT /sessions/{code}/end
func (h *SessionHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	who, ok := h.presenter(w, r)
	if !ok {
		return
	}

	if err := h.coord.End(r.Context(), r.PathValue("code"), who); err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.MessageResponse{
		Success: true,
		Message: "Session ended successfully",
	})
}

// ChangeSlide handles PUT /sessions/{code}/slide
func (h *SessionHandler) ChangeSlide(w http.ResponseWriter, r *http.Request) {
	who, ok := h.presenter(w, r)
	if !ok {
		return
	}

	var req models.ChangeSlideRequest
	if err := middleware.ParseJSONBody(w, r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	state, err := h.coord.ChangeSlide(r.Context(), r.PathValue("code"), who, req.SlideIndex)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, models.SlideStateResponse{
		Success:    true,
		SlideIndex: state.SlideIndex,
		Poll:       state.Poll,
	})
}

// DashboardStats handles GET /dashboard/stats
func (h *SessionHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	who, ok := h.presenter(w, r)
	if !ok {
		return
	}

	stats, err := h.coord.Stats(r.Context(), who)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, stats)
}
