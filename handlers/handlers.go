// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"

	"github.com/danielhkuo/livepoll/coordinator"
	"github.com/danielhkuo/livepoll/models"
)

// Coordinator is the session engine the HTTP API drives
type Coordinator interface {
	CreateSession(ctx context.Context, who models.Identity, req models.CreateSessionRequest) (models.SessionSummary, error)
	GetSession(ctx context.Context, code string, who models.Identity) (models.SessionSummary, error)
	ListSessions(ctx context.Context, who models.Identity) (models.SessionListResponse, error)
	DeleteSession(ctx context.Context, code string, who models.Identity) error
	Stats(ctx context.Context, who models.Identity) (models.DashboardStatsResponse, error)

	StartOrPause(ctx context.Context, code string, who models.Identity) (coordinator.SessionState, error)
	End(ctx context.Context, code string, who models.Identity) error
	ChangeSlide(ctx context.Context, code string, who models.Identity, index int) (coordinator.SlideState, error)

	PublicSession(ctx context.Context, code string) (models.SessionSummary, error)
	SubmitVote(ctx context.Context, pollID, participantID int64, answer string) (models.Vote, error)
	PollResults(ctx context.Context, pollID int64) (models.PollResultsResponse, error)
}
