// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package coordinator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/livepoll/coordinator"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/testutil"
)

func TestJoin_InactiveOrUnknownSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, false, "Q1")
	h.subscriber(t, "p1", "")

	_, err := h.coord.Join(ctx, code, "p1", "")
	assert.ErrorIs(t, err, models.ErrSessionUnavailable)

	_, err = h.coord.Join(ctx, "ZZZZZZ", "p1", "")
	assert.ErrorIs(t, err, models.ErrSessionUnavailable)

	assert.Equal(t, 0, h.reg.RoomSize(code))
}

func TestJoin_NoPolls(t *testing.T) {
	h := newHarness(t)
	_, code := testutil.CreateTestSession(t, h.conn, true)
	h.subscriber(t, "p1", "")

	joined, err := h.coord.Join(context.Background(), code, "p1", "")

	require.NoError(t, err)
	assert.Nil(t, joined.CurrentPoll)
	assert.Equal(t, 0, joined.TotalSlides)
	assert.Equal(t, 0, joined.CurrentSlide)
	assert.NotZero(t, joined.ParticipantID)
	assert.Len(t, joined.ParticipantIdentifier, 16)
}

func TestJoin_ReturnsCurrentStateAndBroadcastsCount(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, true, "Q1", "Q2")
	monitor := h.subscriber(t, "monitor", code)
	p1 := h.subscriber(t, "p1", "")
	h.subscriber(t, "p2", "")

	_, err := h.coord.ChangeSlide(ctx, code, testutil.Owner(), 1)
	require.NoError(t, err)

	joined, err := h.coord.Join(ctx, code, "p1", "")
	require.NoError(t, err)
	assert.Equal(t, 1, joined.CurrentSlide)
	assert.Equal(t, 2, joined.TotalSlides)
	require.NotNil(t, joined.CurrentPoll)
	assert.Equal(t, "Q2", joined.CurrentPoll.Question)

	// state is unicast before the count broadcast
	assert.Equal(t, []string{models.EventSessionJoined, models.EventParticipantJoined}, p1.Events())
	var unicast models.SessionJoinedEvent
	p1.Last(t, models.EventSessionJoined, &unicast)
	assert.Equal(t, joined.ParticipantID, unicast.ParticipantID)
	assert.Zero(t, monitor.Count(models.EventSessionJoined))

	_, err = h.coord.Join(ctx, code, "p2", "")
	require.NoError(t, err)

	var count models.ParticipantCountEvent
	monitor.Last(t, models.EventParticipantJoined, &count)
	assert.Equal(t, 2, count.Count)
	assert.Equal(t, 3, h.reg.RoomSize(code))
}

func TestJoin_ReusesKnownIdentifier(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, true, "Q1")
	_, otherCode := testutil.CreateTestSession(t, h.conn, true, "Q1")
	h.subscriber(t, "first", "")
	h.subscriber(t, "second", "")
	h.subscriber(t, "third", "")

	first, err := h.coord.Join(ctx, code, "first", "")
	require.NoError(t, err)
	require.NoError(t, h.coord.Leave(ctx, code, "first", first.ParticipantID))

	again, err := h.coord.Join(ctx, code, "second", first.ParticipantIdentifier)
	require.NoError(t, err)
	assert.Equal(t, first.ParticipantID, again.ParticipantID)

	p, err := h.store.GetParticipant(ctx, again.ParticipantID)
	require.NoError(t, err)
	assert.True(t, p.IsOnline)

	// identifiers from another session are not reused
	elsewhere, err := h.coord.Join(ctx, otherCode, "third", first.ParticipantIdentifier)
	require.NoError(t, err)
	assert.NotEqual(t, first.ParticipantID, elsewhere.ParticipantID)
	assert.NotEqual(t, first.ParticipantIdentifier, elsewhere.ParticipantIdentifier)
}

func TestJoin_ReusedIdentifierSurvivesStaleConnection(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sessionID, code := testutil.CreateTestSession(t, h.conn, true, "Q1")
	monitor := h.subscriber(t, "monitor", code)
	h.subscriber(t, "old", "")
	h.subscriber(t, "new", "")

	first, err := h.coord.Join(ctx, code, "old", "")
	require.NoError(t, err)
	again, err := h.coord.Join(ctx, code, "new", first.ParticipantIdentifier)
	require.NoError(t, err)
	require.Equal(t, first.ParticipantID, again.ParticipantID)

	// the old connection's close arrives after the reconnect
	h.coord.Disconnect(ctx, "old")

	p, err := h.store.GetParticipant(ctx, first.ParticipantID)
	require.NoError(t, err)
	assert.True(t, p.IsOnline)
	online, err := h.store.CountOnlineParticipants(ctx, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, online)
	assert.Equal(t, 2, h.reg.RoomSize(code))

	var count models.ParticipantCountEvent
	monitor.Last(t, models.EventParticipantLeft, &count)
	assert.Equal(t, 1, count.Count)

	// leaving from a connection that is already gone keeps the live one
	require.NoError(t, h.coord.Leave(ctx, code, "old", first.ParticipantID))
	p, err = h.store.GetParticipant(ctx, first.ParticipantID)
	require.NoError(t, err)
	assert.True(t, p.IsOnline)

	h.coord.Disconnect(ctx, "new")

	p, err = h.store.GetParticipant(ctx, first.ParticipantID)
	require.NoError(t, err)
	assert.False(t, p.IsOnline)
	monitor.Last(t, models.EventParticipantLeft, &count)
	assert.Equal(t, 0, count.Count)
}

// pollsUnavailable fails every poll listing
type pollsUnavailable struct {
	coordinator.Store
}

func (pollsUnavailable) ListPollsBySession(context.Context, int64) ([]models.Poll, error) {
	return nil, errors.New("connection reset")
}

func TestJoin_FailedLookupLeavesNoParticipant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sessionID, code := testutil.CreateTestSession(t, h.conn, true, "Q1")
	monitor := h.subscriber(t, "monitor", code)
	h.subscriber(t, "p1", "")
	coord := coordinator.New(pollsUnavailable{h.store}, h.reg)

	_, err := coord.Join(ctx, code, "p1", "")
	require.Error(t, err)

	var participants int
	require.NoError(t, h.conn.QueryRow("SELECT COUNT(*) FROM participants WHERE session_id = $1", sessionID).Scan(&participants))
	assert.Equal(t, 0, participants)
	assert.Equal(t, 1, h.reg.RoomSize(code))
	assert.Empty(t, monitor.Events())

	// nothing was bound, so the close is a no-op
	coord.Disconnect(ctx, "p1")
	assert.Empty(t, monitor.Events())
}

func TestLeave(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, true, "Q1")
	monitor := h.subscriber(t, "monitor", code)
	h.subscriber(t, "p1", "")

	joined, err := h.coord.Join(ctx, code, "p1", "")
	require.NoError(t, err)

	require.NoError(t, h.coord.Leave(ctx, code, "p1", joined.ParticipantID))

	p, err := h.store.GetParticipant(ctx, joined.ParticipantID)
	require.NoError(t, err)
	assert.False(t, p.IsOnline)
	assert.Equal(t, 1, h.reg.RoomSize(code))

	var count models.ParticipantCountEvent
	monitor.Last(t, models.EventParticipantLeft, &count)
	assert.Equal(t, 0, count.Count)

	assert.ErrorIs(t, h.coord.Leave(ctx, "ZZZZZZ", "p1", joined.ParticipantID), models.ErrNotFound)
}

func TestLeave_ForeignParticipantUntouched(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, true)
	otherID, _ := testutil.CreateTestSession(t, h.conn, true)
	stranger := testutil.CreateTestParticipant(t, h.conn, otherID)
	h.subscriber(t, "p1", code)

	require.NoError(t, h.coord.Leave(ctx, code, "p1", stranger))

	p, err := h.store.GetParticipant(ctx, stranger)
	require.NoError(t, err)
	assert.True(t, p.IsOnline)
	assert.Equal(t, 0, h.reg.RoomSize(code))
}

func TestDisconnect_MarksBoundParticipantsOffline(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, true, "Q1")
	monitor := h.subscriber(t, "monitor", code)
	h.subscriber(t, "p1", "")
	h.subscriber(t, "p2", "")

	gone, err := h.coord.Join(ctx, code, "p1", "")
	require.NoError(t, err)
	stays, err := h.coord.Join(ctx, code, "p2", "")
	require.NoError(t, err)

	h.coord.Disconnect(ctx, "p1")

	p, err := h.store.GetParticipant(ctx, gone.ParticipantID)
	require.NoError(t, err)
	assert.False(t, p.IsOnline)
	p, err = h.store.GetParticipant(ctx, stays.ParticipantID)
	require.NoError(t, err)
	assert.True(t, p.IsOnline)

	var count models.ParticipantCountEvent
	monitor.Last(t, models.EventParticipantLeft, &count)
	assert.Equal(t, 1, count.Count)

	// a second disconnect for the same connection is a no-op
	monitor.Reset()
	h.coord.Disconnect(ctx, "p1")
	assert.Empty(t, monitor.Events())
}

func TestMonitorJoin(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, false, "Q1")
	presenter := h.subscriber(t, "presenter", "")
	h.subscriber(t, "intruder", "")

	require.NoError(t, h.coord.MonitorJoin(ctx, code, "presenter", testutil.Owner()))

	var msg models.MessageEvent
	presenter.Last(t, models.EventAdminConnected, &msg)
	assert.Equal(t, "Monitoring session", msg.Message)
	assert.Equal(t, 1, h.reg.RoomSize(code))

	err := h.coord.MonitorJoin(ctx, code, "intruder", models.Identity{UserID: "intruder"})
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.Equal(t, 1, h.reg.RoomSize(code))

	// monitors do not count as participants
	n, err := h.store.CountOnlineParticipants(ctx, h.session(t, code).ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSubmitVote_BroadcastsResults(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	sessionID, code := testutil.CreateTestSession(t, h.conn, true, "Q1")
	monitor := h.subscriber(t, "monitor", code)
	polls, err := h.store.ListPollsBySession(ctx, sessionID)
	require.NoError(t, err)
	alice := testutil.CreateTestParticipant(t, h.conn, sessionID)
	bob := testutil.CreateTestParticipant(t, h.conn, sessionID)

	_, err = h.coord.SubmitVote(ctx, polls[0].ID, alice, "A")
	require.NoError(t, err)
	vote, err := h.coord.SubmitVote(ctx, polls[0].ID, bob, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", vote.Answer)

	raw, ok := monitor.LastRaw(models.EventNewVote)
	require.True(t, ok)
	assert.JSONEq(t, `{"poll_id":`+itoa(polls[0].ID)+`,"answer":"A","results":{"A":2,"B":0}}`, string(raw))

	monitor.Reset()
	_, err = h.coord.SubmitVote(ctx, polls[0].ID, alice, "B")
	assert.ErrorIs(t, err, models.ErrDuplicateVote)
	assert.Empty(t, monitor.Events())
}
