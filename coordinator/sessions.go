// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
)

const (
	maxCodeAttempts = 10
	recentSessions  = 5
)

// CreateSession validates the request, allocates a unique code and stores
// the session with all of its polls. New sessions start inactive on slide 0.
func (c *Coordinator) CreateSession(ctx context.Context, who models.Identity, req models.CreateSessionRequest) (models.SessionSummary, error) {
	if who.UserID == "" {
		return models.SessionSummary{}, fmt.Errorf("%w: owner identity required", models.ErrForbidden)
	}
	if strings.TrimSpace(req.Title) == "" {
		return models.SessionSummary{}, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	polls, err := pollsFromSlides(req.Slides)
	if err != nil {
		return models.SessionSummary{}, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := c.newCode()
		if err != nil {
			return models.SessionSummary{}, fmt.Errorf("failed to generate session code: %w", err)
		}
		taken, err := c.store.CodeExists(ctx, code)
		if err != nil {
			return models.SessionSummary{}, err
		}
		if taken {
			continue
		}

		sess := models.Session{
			Code:        code,
			OwnerID:     who.UserID,
			OwnerName:   who.Name,
			Title:       strings.TrimSpace(req.Title),
			Description: req.Description,
		}
		// Fresh copy per attempt; a failed insert may have written IDs
		attemptPolls := append([]models.Poll(nil), polls...)
		err = c.store.CreateSession(ctx, &sess, attemptPolls)
		if errors.Is(err, store.ErrConflict) {
			// Lost a race on the code between the check and the insert
			continue
		}
		if err != nil {
			return models.SessionSummary{}, err
		}

		slog.Info("session created", "code", code, "owner_id", who.UserID, "polls", len(attemptPolls))
		return models.SessionSummary{Session: sess, TotalPolls: len(attemptPolls)}, nil
	}
	return models.SessionSummary{}, errors.New("failed to allocate a unique session code")
}

// pollsFromSlides converts slide requests into polls, applying setting
// defaults. A missing slide number defaults to the slide's position.
func pollsFromSlides(slides []models.SlideRequest) ([]models.Poll, error) {
	polls := make([]models.Poll, 0, len(slides))
	seen := make(map[int]bool, len(slides))

	for i, s := range slides {
		slide := s.SlideNumber
		if slide == 0 {
			slide = i + 1
		}
		if slide < 1 {
			return nil, fmt.Errorf("%w: slide %d: slide number must be positive", models.ErrValidation, i+1)
		}
		if seen[slide] {
			return nil, fmt.Errorf("%w: duplicate slide number %d", models.ErrValidation, slide)
		}
		seen[slide] = true

		if strings.TrimSpace(s.Question) == "" {
			return nil, fmt.Errorf("%w: slide %d: question is required", models.ErrValidation, slide)
		}
		if !models.IsValidPollType(s.Type) {
			return nil, fmt.Errorf("%w: slide %d: invalid poll type %q", models.ErrValidation, slide, s.Type)
		}

		options := []string{}
		if models.IsChoiceType(s.Type) {
			for _, opt := range s.Options {
				if opt = strings.TrimSpace(opt); opt != "" {
					options = append(options, opt)
				}
			}
			if len(options) == 0 {
				return nil, fmt.Errorf("%w: slide %d: options are required for %s", models.ErrValidation, slide, s.Type)
			}
		}

		p := models.Poll{
			SlideNumber: slide,
			Question:    strings.TrimSpace(s.Question),
			PollType:    s.Type,
			Options:     options,
			Settings: models.PollSettings{
				AllowMultiple: boolOr(s.Settings.AllowMultiple, false),
				Anonymous:     boolOr(s.Settings.Anonymous, true),
				ShowResults:   boolOr(s.Settings.ShowResults, true),
			},
		}
		if s.ImageURL != "" {
			url := s.ImageURL
			p.ImageURL = &url
		}
		polls = append(polls, p)
	}
	return polls, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// GetSession returns the session with every poll and its current results
func (c *Coordinator) GetSession(ctx context.Context, code string, who models.Identity) (models.SessionSummary, error) {
	sess, err := c.manageable(ctx, code, who)
	if err != nil {
		return models.SessionSummary{}, err
	}

	polls, err := c.store.ListPollsBySession(ctx, sess.ID)
	if err != nil {
		return models.SessionSummary{}, err
	}

	summary := models.SessionSummary{
		Session:    sess,
		TotalPolls: len(polls),
		Polls:      make([]models.PollDetail, 0, len(polls)),
	}
	for _, p := range polls {
		results, err := c.tally.Results(ctx, p)
		if err != nil {
			return models.SessionSummary{}, err
		}
		summary.Polls = append(summary.Polls, models.PollDetail{Poll: p, Results: results})
	}

	online, err := c.store.CountOnlineParticipants(ctx, sess.ID)
	if err != nil {
		return models.SessionSummary{}, err
	}
	summary.ParticipantCount = &online
	return summary, nil
}

// ListSessions returns the caller's sessions (every session for admins),
// newest first, with per-session counts and overall totals
func (c *Coordinator) ListSessions(ctx context.Context, who models.Identity) (models.SessionListResponse, error) {
	sessions, err := c.visibleSessions(ctx, who)
	if err != nil {
		return models.SessionListResponse{}, err
	}

	resp := models.SessionListResponse{Sessions: make([]models.SessionSummary, 0, len(sessions))}
	for _, sess := range sessions {
		summary, err := c.summarize(ctx, sess, true)
		if err != nil {
			return models.SessionListResponse{}, err
		}
		resp.Stats.Total++
		if sess.IsActive {
			resp.Stats.Active++
		}
		resp.Stats.Participants += *summary.ParticipantCount
		resp.Stats.Votes += *summary.VoteCount
		resp.Sessions = append(resp.Sessions, summary)
	}
	return resp, nil
}

// Stats returns dashboard totals and the most recent sessions
func (c *Coordinator) Stats(ctx context.Context, who models.Identity) (models.DashboardStatsResponse, error) {
	list, err := c.ListSessions(ctx, who)
	if err != nil {
		return models.DashboardStatsResponse{}, err
	}

	recent := list.Sessions
	if len(recent) > recentSessions {
		recent = recent[:recentSessions]
	}
	return models.DashboardStatsResponse{Stats: list.Stats, RecentSessions: recent}, nil
}

func (c *Coordinator) visibleSessions(ctx context.Context, who models.Identity) ([]models.Session, error) {
	if who.IsAdmin {
		return c.store.ListSessions(ctx, "", 0)
	}
	if who.UserID == "" {
		return nil, fmt.Errorf("%w: owner identity required", models.ErrForbidden)
	}
	return c.store.ListSessions(ctx, who.UserID, 0)
}

// summarize builds the list view of a session; withCounts adds the online
// participant and vote counts
func (c *Coordinator) summarize(ctx context.Context, sess models.Session, withCounts bool) (models.SessionSummary, error) {
	polls, err := c.store.ListPollsBySession(ctx, sess.ID)
	if err != nil {
		return models.SessionSummary{}, err
	}
	summary := models.SessionSummary{Session: sess, TotalPolls: len(polls)}
	if !withCounts {
		return summary, nil
	}

	online, err := c.store.CountOnlineParticipants(ctx, sess.ID)
	if err != nil {
		return models.SessionSummary{}, err
	}
	votes, err := c.store.CountVotesBySession(ctx, sess.ID)
	if err != nil {
		return models.SessionSummary{}, err
	}
	summary.ParticipantCount = &online
	summary.VoteCount = &votes
	return summary, nil
}

// DeleteSession removes the session and everything recorded under it
func (c *Coordinator) DeleteSession(ctx context.Context, code string, who models.Identity) error {
	sess, err := c.manageable(ctx, code, who)
	if err != nil {
		return err
	}
	if err := c.store.DeleteSession(ctx, sess.ID); err != nil {
		return err
	}
	slog.Info("session deleted", "code", code, "by", who.UserID)
	return nil
}

// PublicSession is the participant-facing lookup; only active sessions are
// visible
func (c *Coordinator) PublicSession(ctx context.Context, code string) (models.SessionSummary, error) {
	sess, err := c.store.FindSessionByCode(ctx, code)
	if errors.Is(err, models.ErrNotFound) {
		return models.SessionSummary{}, fmt.Errorf("%w: %s", models.ErrSessionUnavailable, code)
	}
	if err != nil {
		return models.SessionSummary{}, err
	}
	if !sess.IsActive {
		return models.SessionSummary{}, fmt.Errorf("%w: %s", models.ErrSessionUnavailable, code)
	}
	return c.summarize(ctx, sess, false)
}

// PollResults returns a poll's aggregate when the poll allows showing it
func (c *Coordinator) PollResults(ctx context.Context, pollID int64) (models.PollResultsResponse, error) {
	poll, err := c.store.GetPoll(ctx, pollID)
	if err != nil {
		return models.PollResultsResponse{}, err
	}
	if !poll.Settings.ShowResults {
		return models.PollResultsResponse{}, fmt.Errorf("%w: results are hidden for poll %d", models.ErrForbidden, pollID)
	}

	results, err := c.tally.Results(ctx, poll)
	if err != nil {
		return models.PollResultsResponse{}, err
	}
	return models.PollResultsResponse{
		PollID:     poll.ID,
		PollType:   poll.PollType,
		TotalVotes: poll.TotalVotes,
		Results:    results,
	}, nil
}
