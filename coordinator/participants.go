// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/store"
)

const maxIdentifierAttempts = 5

// Join admits a connection to an active session as a participant. The full
// session state is unicast to the connection as session_joined (and returned)
// so a reconnecting client can resynchronize. A known identifier from the
// same session is reused; anything else gets a fresh participant.
func (c *Coordinator) Join(ctx context.Context, code, connID, identifier string) (models.SessionJoinedEvent, error) {
	sess, err := c.store.FindSessionByCode(ctx, code)
	if errors.Is(err, models.ErrNotFound) {
		return models.SessionJoinedEvent{}, fmt.Errorf("%w: %s", models.ErrSessionUnavailable, code)
	}
	if err != nil {
		return models.SessionJoinedEvent{}, err
	}
	if !sess.IsActive {
		return models.SessionJoinedEvent{}, fmt.Errorf("%w: %s", models.ErrSessionUnavailable, code)
	}

	polls, err := c.store.ListPollsBySession(ctx, sess.ID)
	if err != nil {
		return models.SessionJoinedEvent{}, err
	}

	c.presence.Lock()
	participant, err := c.admit(ctx, sess, identifier)
	if err == nil {
		c.bind(connID, participant.ID, code)
	}
	c.presence.Unlock()
	if err != nil {
		return models.SessionJoinedEvent{}, err
	}

	if err := c.bus.JoinRoom(connID, code); err != nil {
		slog.Warn("failed to join room", "code", code, "conn_id", connID, "error", err)
	}

	joined := models.SessionJoinedEvent{
		ParticipantID:         participant.ID,
		ParticipantIdentifier: participant.Identifier,
		CurrentSlide:          sess.CurrentSlideIndex,
		TotalSlides:           len(polls),
	}
	for i := range polls {
		if polls[i].SlideNumber == sess.CurrentSlideIndex+1 {
			joined.CurrentPoll = &polls[i]
			break
		}
	}

	c.bus.EmitToConnection(connID, models.EventSessionJoined, joined)
	c.broadcastCount(ctx, sess, models.EventParticipantJoined)
	slog.Info("participant joined", "code", code, "participant_id", participant.ID, "conn_id", connID)
	return joined, nil
}

func (c *Coordinator) admit(ctx context.Context, sess models.Session, identifier string) (models.Participant, error) {
	if identifier != "" {
		p, err := c.store.FindParticipantByIdentifier(ctx, identifier)
		switch {
		case err == nil && p.SessionID == sess.ID:
			if !p.IsOnline {
				p.IsOnline = true
				if err := c.store.UpdateParticipant(ctx, p); err != nil {
					return models.Participant{}, err
				}
			}
			return p, nil
		case err != nil && !errors.Is(err, models.ErrNotFound):
			return models.Participant{}, err
		}
	}

	for attempt := 0; attempt < maxIdentifierAttempts; attempt++ {
		id, err := auth.GenerateParticipantIdentifier()
		if err != nil {
			return models.Participant{}, fmt.Errorf("failed to generate identifier: %w", err)
		}
		p := models.Participant{SessionID: sess.ID, Identifier: id, IsOnline: true}
		err = c.store.CreateParticipant(ctx, &p)
		if errors.Is(err, store.ErrConflict) {
			continue
		}
		if err != nil {
			return models.Participant{}, err
		}
		return p, nil
	}
	return models.Participant{}, errors.New("failed to allocate participant identifier")
}

// Leave unsubscribes the connection and marks the participant offline unless
// another connection still holds it. A participant that does not belong to
// the session is left untouched.
func (c *Coordinator) Leave(ctx context.Context, code, connID string, participantID int64) error {
	sess, err := c.store.FindSessionByCode(ctx, code)
	if err != nil {
		return err
	}

	if err := c.release(ctx, sess, connID, participantID); err != nil {
		return err
	}
	c.bus.LeaveRoom(connID, code)

	c.broadcastCount(ctx, sess, models.EventParticipantLeft)
	slog.Info("participant left", "code", code, "participant_id", participantID, "conn_id", connID)
	return nil
}

// Disconnect leaves every participant bound to a dropped connection
func (c *Coordinator) Disconnect(ctx context.Context, connID string) {
	for participantID, code := range c.boundTo(connID) {
		sess, err := c.store.FindSessionByCode(ctx, code)
		if err != nil {
			slog.Warn("disconnect: session lookup failed", "code", code, "error", err)
			c.unbind(connID, participantID)
			continue
		}
		if err := c.release(ctx, sess, connID, participantID); err != nil {
			slog.Warn("disconnect: failed to mark participant offline",
				"participant_id", participantID, "error", err)
			c.unbind(connID, participantID)
			continue
		}
		c.bus.LeaveRoom(connID, code)
		c.broadcastCount(ctx, sess, models.EventParticipantLeft)
		slog.Info("participant disconnected", "code", code, "participant_id", participantID, "conn_id", connID)
	}
}

// MonitorJoin subscribes a presenter connection to the session room without
// creating a participant
func (c *Coordinator) MonitorJoin(ctx context.Context, code, connID string, who models.Identity) error {
	if _, err := c.manageable(ctx, code, who); err != nil {
		return err
	}
	if err := c.bus.JoinRoom(connID, code); err != nil {
		return fmt.Errorf("failed to join room: %w", err)
	}
	c.bus.EmitToConnection(connID, models.EventAdminConnected, models.MessageEvent{Message: models.MessageMonitoring})
	slog.Info("monitor joined", "code", code, "conn_id", connID, "by", who.UserID)
	return nil
}

func (c *Coordinator) markOffline(ctx context.Context, sess models.Session, participantID int64) error {
	p, err := c.store.GetParticipant(ctx, participantID)
	if errors.Is(err, models.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if p.SessionID != sess.ID || !p.IsOnline {
		return nil
	}
	p.IsOnline = false
	return c.store.UpdateParticipant(ctx, p)
}

// broadcastCount publishes the online participant count under the given event
func (c *Coordinator) broadcastCount(ctx context.Context, sess models.Session, event string) {
	count, err := c.store.CountOnlineParticipants(ctx, sess.ID)
	if err != nil {
		slog.Warn("failed to count participants", "code", sess.Code, "error", err)
		return
	}
	c.bus.EmitToRoom(sess.Code, event, models.ParticipantCountEvent{Count: count})
}

// release drops the connection's hold on a participant. The participant goes
// offline only when no other connection holds it.
func (c *Coordinator) release(ctx context.Context, sess models.Session, connID string, participantID int64) error {
	c.presence.Lock()
	defer c.presence.Unlock()

	if !c.heldElsewhere(participantID, connID) {
		if err := c.markOffline(ctx, sess, participantID); err != nil {
			return err
		}
	}
	c.unbind(connID, participantID)
	return nil
}

func (c *Coordinator) bind(connID string, participantID int64, code string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	bound, ok := c.bindings[connID]
	if !ok {
		bound = make(map[int64]string)
		c.bindings[connID] = bound
	}
	bound[participantID] = code

	conns, ok := c.holders[participantID]
	if !ok {
		conns = make(map[string]struct{})
		c.holders[participantID] = conns
	}
	conns[connID] = struct{}{}
}

func (c *Coordinator) unbind(connID string, participantID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if bound, ok := c.bindings[connID]; ok {
		delete(bound, participantID)
		if len(bound) == 0 {
			delete(c.bindings, connID)
		}
	}
	if conns, ok := c.holders[participantID]; ok {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(c.holders, participantID)
		}
	}
}

func (c *Coordinator) heldElsewhere(participantID int64, connID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id := range c.holders[participantID] {
		if id != connID {
			return true
		}
	}
	return false
}

// boundTo returns a copy of the participants bound to a connection
func (c *Coordinator) boundTo(connID string) map[int64]string {
	c.mu.Lock()
	defer c.mu.Unlock()

	bound := make(map[int64]string, len(c.bindings[connID]))
	for participantID, code := range c.bindings[connID] {
		bound[participantID] = code
	}
	return bound
}
