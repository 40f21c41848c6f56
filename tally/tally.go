// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/danielhkuo/livepoll/models"
)

// Store is the slice of the session store the engine needs
type Store interface {
	GetPoll(ctx context.Context, id int64) (models.Poll, error)
	GetParticipant(ctx context.Context, id int64) (models.Participant, error)
	CreateVote(ctx context.Context, v *models.Vote) error
	ListVotesByPoll(ctx context.Context, pollID int64) ([]models.Vote, error)
}

type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Submission is the outcome of an accepted vote
type Submission struct {
	Vote    models.Vote
	Poll    models.Poll
	Results models.ResultView
}

// SubmitVote records one answer for (poll, participant) and recomputes the
// poll's results. Uniqueness is left to the store's constraint, so concurrent
// duplicates fail with models.ErrDuplicateVote without any locking here.
func (e *Engine) SubmitVote(ctx context.Context, pollID, participantID int64, answer string) (Submission, error) {
	if strings.TrimSpace(answer) == "" {
		return Submission{}, fmt.Errorf("%w: answer is required", models.ErrValidation)
	}

	poll, err := e.store.GetPoll(ctx, pollID)
	if err != nil {
		return Submission{}, err
	}
	participant, err := e.store.GetParticipant(ctx, participantID)
	if err != nil {
		return Submission{}, err
	}
	if participant.SessionID != poll.SessionID {
		return Submission{}, fmt.Errorf("%w: participant does not belong to this session", models.ErrValidation)
	}

	vote := models.Vote{
		PollID:        pollID,
		ParticipantID: participantID,
		Answer:        answer,
	}
	if err := e.store.CreateVote(ctx, &vote); err != nil {
		return Submission{}, err
	}

	votes, err := e.store.ListVotesByPoll(ctx, pollID)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to recompute results: %w", err)
	}
	poll.TotalVotes = len(votes)

	slog.Info("vote recorded", "poll_id", pollID, "participant_id", participantID, "total_votes", poll.TotalVotes)

	return Submission{
		Vote:    vote,
		Poll:    poll,
		Results: ComputeResults(poll, votes),
	}, nil
}

// Results loads the votes of a poll and aggregates them
func (e *Engine) Results(ctx context.Context, poll models.Poll) (models.ResultView, error) {
	votes, err := e.store.ListVotesByPoll(ctx, poll.ID)
	if err != nil {
		return models.ResultView{}, fmt.Errorf("failed to load votes: %w", err)
	}
	return ComputeResults(poll, votes), nil
}

// ComputeResults aggregates votes according to the poll type:
//
//   - choice and rating polls count votes per declared option, in declared
//     order, with zero counts kept and unknown answers ignored
//   - word clouds count lower-cased, trimmed answers, skipping empty ones
//   - open-ended polls list every answer in vote order
func ComputeResults(poll models.Poll, votes []models.Vote) models.ResultView {
	view := models.ResultView{PollType: poll.PollType}

	switch {
	case models.IsChoiceType(poll.PollType):
		index := make(map[string]int, len(poll.Options))
		view.Options = make([]models.OptionCount, 0, len(poll.Options))
		for _, opt := range poll.Options {
			if _, dup := index[opt]; dup {
				continue
			}
			index[opt] = len(view.Options)
			view.Options = append(view.Options, models.OptionCount{Option: opt})
		}
		for _, v := range votes {
			if i, ok := index[v.Answer]; ok {
				view.Options[i].Count++
			}
		}

	case poll.PollType == models.PollTypeWordCloud:
		view.Words = make(map[string]int)
		for _, v := range votes {
			word := strings.ToLower(strings.TrimSpace(v.Answer))
			if word == "" {
				continue
			}
			view.Words[word]++
		}

	default:
		view.Answers = make([]string, 0, len(votes))
		for _, v := range votes {
			view.Answers = append(view.Answers, v.Answer)
		}
	}

	return view
}
