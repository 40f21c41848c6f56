// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package coordinator_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/livepoll/coordinator"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/room"
	"github.com/danielhkuo/livepoll/store"
	"github.com/danielhkuo/livepoll/testutil"
)

type harness struct {
	conn  *sql.DB
	store *store.SQLStore
	reg   *room.Registry
	coord *coordinator.Coordinator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := testutil.SetupTestDB(t)
	st := store.New(conn, 5*time.Second)
	reg := room.NewRegistry()
	t.Cleanup(reg.Close)
	return &harness{conn: conn, store: st, reg: reg, coord: coordinator.New(st, reg)}
}

// subscriber registers a recording connection and joins it to the room
func (h *harness) subscriber(t *testing.T, id, code string) *testutil.RecordingConn {
	t.Helper()
	c := testutil.NewRecordingConn(id)
	require.NoError(t, h.reg.Register(c))
	if code != "" {
		require.NoError(t, h.reg.JoinRoom(id, code))
	}
	return c
}

func (h *harness) session(t *testing.T, code string) models.Session {
	t.Helper()
	sess, err := h.store.FindSessionByCode(context.Background(), code)
	require.NoError(t, err)
	return sess
}

func TestStartOrPause(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, false, "Q1")
	viewer := h.subscriber(t, "viewer", code)

	state, err := h.coord.StartOrPause(ctx, code, testutil.Owner())
	require.NoError(t, err)
	assert.True(t, state.IsActive)
	assert.Equal(t, "Session started", state.Message)
	assert.True(t, h.session(t, code).IsActive)

	var event models.SessionStatusChangedEvent
	viewer.Last(t, models.EventSessionStatusChanged, &event)
	assert.True(t, event.IsActive)
	assert.Equal(t, "Session started", event.Message)

	state, err = h.coord.StartOrPause(ctx, code, testutil.Owner())
	require.NoError(t, err)
	assert.False(t, state.IsActive)
	assert.Equal(t, "Session paused", state.Message)

	viewer.Last(t, models.EventSessionStatusChanged, &event)
	assert.False(t, event.IsActive)
	assert.Equal(t, 2, viewer.Count(models.EventSessionStatusChanged))
}

func TestPresenterOperations_Authorization(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, false, "Q1")
	viewer := h.subscriber(t, "viewer", code)

	stranger := models.Identity{UserID: "someone-else"}
	admin := models.Identity{UserID: "root", IsAdmin: true}

	_, err := h.coord.StartOrPause(ctx, code, stranger)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, h.coord.End(ctx, code, stranger), models.ErrForbidden)
	_, err = h.coord.ChangeSlide(ctx, code, stranger, 1)
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = h.coord.GetSession(ctx, code, stranger)
	assert.ErrorIs(t, err, models.ErrForbidden)
	assert.ErrorIs(t, h.coord.DeleteSession(ctx, code, stranger), models.ErrForbidden)

	assert.Empty(t, viewer.Events(), "rejected operations must not broadcast")
	sess := h.session(t, code)
	assert.False(t, sess.IsActive)
	assert.Equal(t, 0, sess.CurrentSlideIndex)

	_, err = h.coord.StartOrPause(ctx, code, admin)
	assert.NoError(t, err)

	_, err = h.coord.StartOrPause(ctx, "NOPE00", testutil.Owner())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEnd(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, true, "Q1")
	viewer := h.subscriber(t, "viewer", code)

	require.NoError(t, h.coord.End(ctx, code, testutil.Owner()))

	assert.False(t, h.session(t, code).IsActive)
	var event models.MessageEvent
	viewer.Last(t, models.EventSessionEnded, &event)
	assert.Equal(t, "Session has ended. Thank you for participating!", event.Message)

	// ended and paused share one flag, so toggling reopens the session
	state, err := h.coord.StartOrPause(ctx, code, testutil.Owner())
	require.NoError(t, err)
	assert.True(t, state.IsActive)
}

func TestChangeSlide_LastChangeWins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, true, "Q1", "Q2", "Q3")
	viewer := h.subscriber(t, "viewer", code)

	for _, idx := range []int{2, 0, 1} {
		_, err := h.coord.ChangeSlide(ctx, code, testutil.Owner(), idx)
		require.NoError(t, err)
	}

	assert.Equal(t, 1, h.session(t, code).CurrentSlideIndex)
	assert.Equal(t, 3, viewer.Count(models.EventSlideChanged))

	var event models.SlideChangedEvent
	viewer.Last(t, models.EventSlideChanged, &event)
	assert.Equal(t, 1, event.SlideIndex)
	require.NotNil(t, event.Poll)
	assert.Equal(t, 2, event.Poll.SlideNumber)
	assert.Equal(t, "Q2", event.Poll.Question)
}

func TestChangeSlide_PastLastPoll(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, code := testutil.CreateTestSession(t, h.conn, true, "Q1")
	viewer := h.subscriber(t, "viewer", code)

	state, err := h.coord.ChangeSlide(ctx, code, testutil.Owner(), 5)

	require.NoError(t, err)
	assert.Equal(t, 5, state.SlideIndex)
	assert.Nil(t, state.Poll)
	assert.Equal(t, 5, h.session(t, code).CurrentSlideIndex)

	raw, ok := viewer.LastRaw(models.EventSlideChanged)
	require.True(t, ok)
	assert.JSONEq(t, `{"slide_index":5,"poll":null}`, string(raw))
}

func TestChangeSlide_NegativeIndex(t *testing.T) {
	h := newHarness(t)
	_, code := testutil.CreateTestSession(t, h.conn, true, "Q1")

	_, err := h.coord.ChangeSlide(context.Background(), code, testutil.Owner(), -1)

	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Equal(t, 0, h.session(t, code).CurrentSlideIndex)
}

func TestChangeSlide_UsesSlideOrder(t *testing.T) {
	h := newHarness(t)
	sessionID, code := testutil.CreateTestSession(t, h.conn, true)
	testutil.AddTestPoll(t, h.conn, sessionID, 2, "Second", models.PollTypeOpenEnded, nil)
	testutil.AddTestPoll(t, h.conn, sessionID, 1, "First", models.PollTypeOpenEnded, nil)

	state, err := h.coord.ChangeSlide(context.Background(), code, testutil.Owner(), 0)

	require.NoError(t, err)
	require.NotNil(t, state.Poll)
	assert.Equal(t, "First", state.Poll.Question)
}
