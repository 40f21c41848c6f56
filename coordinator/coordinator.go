// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/room"
	"github.com/danielhkuo/livepoll/tally"
)

// Store is the persistence the coordinator depends on
type Store interface {
	tally.Store

	GetSession(ctx context.Context, id int64) (models.Session, error)
	FindSessionByCode(ctx context.Context, code string) (models.Session, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	CreateSession(ctx context.Context, sess *models.Session, polls []models.Poll) error
	UpdateSession(ctx context.Context, sess models.Session) error
	DeleteSession(ctx context.Context, id int64) error
	ListSessions(ctx context.Context, ownerID string, limit int) ([]models.Session, error)

	ListPollsBySession(ctx context.Context, sessionID int64) ([]models.Poll, error)

	CreateParticipant(ctx context.Context, p *models.Participant) error
	FindParticipantByIdentifier(ctx context.Context, identifier string) (models.Participant, error)
	UpdateParticipant(ctx context.Context, p models.Participant) error
	CountOnlineParticipants(ctx context.Context, sessionID int64) (int, error)

	CountVotesBySession(ctx context.Context, sessionID int64) (int, error)
}

// Broadcaster delivers events to session rooms and single connections.
// Rooms are named by session code.
type Broadcaster interface {
	JoinRoom(connID, name string) error
	LeaveRoom(connID, name string)
	EmitToRoom(name, event string, payload any) room.PublishResult
	EmitToConnection(connID, event string, payload any) bool
}

// SessionState is the outcome of a start/pause toggle
type SessionState struct {
	IsActive bool
	Message  string
}

// SlideState is the outcome of a slide change
type SlideState struct {
	SlideIndex int
	Poll       *models.Poll
}

// Coordinator owns session lifecycle and fans every state change out to the
// session's room. Session mutations are last-writer-wins.
type Coordinator struct {
	store Store
	tally *tally.Engine
	bus   Broadcaster

	newCode func() (string, error)

	// serializes participant online/offline transitions
	presence sync.Mutex

	mu sync.Mutex
	// connection ID -> participant ID -> session code
	bindings map[string]map[int64]string
	// participant ID -> connection IDs holding it
	holders map[int64]map[string]struct{}
}

func New(store Store, bus Broadcaster) *Coordinator {
	return &Coordinator{
		store:    store,
		tally:    tally.NewEngine(store),
		bus:      bus,
		newCode:  auth.GenerateSessionCode,
		bindings: make(map[string]map[int64]string),
		holders:  make(map[int64]map[string]struct{}),
	}
}

// manageable loads the session and checks that who may control it
func (c *Coordinator) manageable(ctx context.Context, code string, who models.Identity) (models.Session, error) {
	sess, err := c.store.FindSessionByCode(ctx, code)
	if err != nil {
		return models.Session{}, err
	}
	if !who.CanManage(sess) {
		return models.Session{}, fmt.Errorf("%w: session %s", models.ErrForbidden, code)
	}
	return sess, nil
}

// StartOrPause flips the session's active flag
func (c *Coordinator) StartOrPause(ctx context.Context, code string, who models.Identity) (SessionState, error) {
	sess, err := c.manageable(ctx, code, who)
	if err != nil {
		return SessionState{}, err
	}

	sess.IsActive = !sess.IsActive
	if err := c.store.UpdateSession(ctx, sess); err != nil {
		return SessionState{}, err
	}

	state := SessionState{IsActive: sess.IsActive, Message: models.MessageSessionPaused}
	if sess.IsActive {
		state.Message = models.MessageSessionStarted
	}

	c.bus.EmitToRoom(code, models.EventSessionStatusChanged, models.SessionStatusChangedEvent{
		IsActive: state.IsActive,
		Message:  state.Message,
	})
	slog.Info("session toggled", "code", code, "is_active", state.IsActive, "by", who.UserID)
	return state, nil
}

// End deactivates the session. It shares the active flag with pause, so an
// ended session can be started again with StartOrPause.
func (c *Coordinator) End(ctx context.Context, code string, who models.Identity) error {
	sess, err := c.manageable(ctx, code, who)
	if err != nil {
		return err
	}

	sess.IsActive = false
	if err := c.store.UpdateSession(ctx, sess); err != nil {
		return err
	}

	c.bus.EmitToRoom(code, models.EventSessionEnded, models.MessageEvent{Message: models.MessageSessionEnded})
	slog.Info("session ended", "code", code, "by", who.UserID)
	return nil
}

// ChangeSlide moves the session to a zero-based slide index. The index is
// resolved against the polls sorted by slide number; an index past the last
// poll is accepted and broadcasts a nil poll.
func (c *Coordinator) ChangeSlide(ctx context.Context, code string, who models.Identity, index int) (SlideState, error) {
	if index < 0 {
		return SlideState{}, fmt.Errorf("%w: slide index must not be negative", models.ErrValidation)
	}

	sess, err := c.manageable(ctx, code, who)
	if err != nil {
		return SlideState{}, err
	}

	sess.CurrentSlideIndex = index
	if err := c.store.UpdateSession(ctx, sess); err != nil {
		return SlideState{}, err
	}

	polls, err := c.store.ListPollsBySession(ctx, sess.ID)
	if err != nil {
		return SlideState{}, err
	}

	state := SlideState{SlideIndex: index}
	if index < len(polls) {
		state.Poll = &polls[index]
	}

	c.bus.EmitToRoom(code, models.EventSlideChanged, models.SlideChangedEvent{
		SlideIndex: state.SlideIndex,
		Poll:       state.Poll,
	})
	slog.Info("slide changed", "code", code, "slide_index", index, "has_poll", state.Poll != nil)
	return state, nil
}

// SubmitVote records a vote and pushes the new results to the poll's session
func (c *Coordinator) SubmitVote(ctx context.Context, pollID, participantID int64, answer string) (models.Vote, error) {
	sub, err := c.tally.SubmitVote(ctx, pollID, participantID, answer)
	if err != nil {
		return models.Vote{}, err
	}

	sess, err := c.store.GetSession(ctx, sub.Poll.SessionID)
	if err != nil {
		slog.Warn("vote recorded but session lookup failed", "poll_id", pollID, "error", err)
		return sub.Vote, nil
	}
	c.bus.EmitToRoom(sess.Code, models.EventNewVote, models.NewVoteEvent{
		PollID:  pollID,
		Answer:  answer,
		Results: sub.Results,
	})
	return sub.Vote, nil
}
