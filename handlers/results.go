// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/room"
)

// StatsSource reports transport metrics
type StatsSource interface {
	Stats() room.Stats
}

type ResultsHandler struct {
	coord Coordinator
	stats StatsSource
}

func NewResultsHandler(coord Coordinator, stats StatsSource) *ResultsHandler {
	return &ResultsHandler{coord: coord, stats: stats}
}

// GetResults handles GET /polls/{id}/results
// Results are only served when the poll's show_results setting is on.
func (h *ResultsHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	pollID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || pollID <= 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "invalid poll id")
		return
	}

	resp, err := h.coord.PollResults(r.Context(), pollID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// LiveStatsResponse is the payload of GET /stats/live
type LiveStatsResponse struct {
	room.Stats
	Uptime          string `json:"uptime"`
	Started         string `json:"started"`
	MessagesSentFmt string `json:"messages_sent_human"`
}

// LiveStats handles GET /stats/live
func (h *ResultsHandler) LiveStats(w http.ResponseWriter, r *http.Request) {
	s := h.stats.Stats()
	middleware.JSONResponse(w, http.StatusOK, LiveStatsResponse{
		Stats:           s,
		Uptime:          time.Since(s.StartTime).Round(time.Second).String(),
		Started:         humanize.Time(s.StartTime),
		MessagesSentFmt: humanize.Comma(s.MessagesSent),
	})
}
