// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"net/http"

	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/coordinator"
	"github.com/danielhkuo/livepoll/handlers"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/room"
	"github.com/danielhkuo/livepoll/ws"
)

func NewRouter(coord *coordinator.Coordinator, reg *room.Registry, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	sessionHandler := handlers.NewSessionHandler(coord, cfg)
	participantHandler := handlers.NewParticipantHandler(coord)
	resultsHandler := handlers.NewResultsHandler(coord, reg)
	wsHandler := ws.NewHandler(coord, reg, cfg)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.HandleFunc("GET /stats/live", middleware.WithLogging(resultsHandler.LiveStats))

	// Session management (presenter, requires X-Owner-* headers)
	mux.HandleFunc("POST /sessions", middleware.WithLogging(sessionHandler.CreateSession))
	mux.HandleFunc("GET /sessions", middleware.WithLogging(sessionHandler.ListSessions))
	mux.HandleFunc("GET /sessions/{code}", middleware.WithLogging(sessionHandler.GetSession))
	mux.HandleFunc("DELETE /sessions/{code}", middleware.WithLogging(sessionHandler.DeleteSession))
	mux.HandleFunc("PUT /sessions/{code}/toggle", middleware.WithLogging(sessionHandler.ToggleSession))
	mux.HandleFunc("PUT /sessions/{code}/end", middleware.WithLogging(sessionHandler.EndSession))
	mux.HandleFunc("PUT /sessions/{code}/slide", middleware.WithLogging(sessionHandler.ChangeSlide))
	mux.HandleFunc("GET /dashboard/stats", middleware.WithLogging(sessionHandler.DashboardStats))

	// Audience operations (public)
	mux.HandleFunc("POST /join", middleware.WithLogging(participantHandler.Join))
	mux.HandleFunc("POST /vote", middleware.WithLogging(participantHandler.SubmitVote))
	mux.HandleFunc("GET /polls/{id}/results", middleware.WithLogging(resultsHandler.GetResults))

	// Real-time transport
	mux.HandleFunc("GET /ws", middleware.WithLogging(wsHandler.ServeHTTP))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("livepoll API v1"))
	})

	return mux
}
