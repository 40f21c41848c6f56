// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/testutil"
)

func TestJoin(t *testing.T) {
	db, coord, _ := setupHandlers(t)
	handler := NewParticipantHandler(coord)
	_, active := testutil.CreateTestSession(t, db, true, "Q1", "Q2")
	_, paused := testutil.CreateTestSession(t, db, false, "Q1")

	testCases := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{"active session", models.JoinRequest{SessionCode: active}, http.StatusOK},
		{"lower case code", models.JoinRequest{SessionCode: strings.ToLower(active)}, http.StatusOK},
		{"paused session", models.JoinRequest{SessionCode: paused}, http.StatusNotFound},
		{"unknown session", models.JoinRequest{SessionCode: "NOPE00"}, http.StatusNotFound},
		{"malformed code", models.JoinRequest{SessionCode: "A-1"}, http.StatusNotFound},
		{"missing code", models.JoinRequest{}, http.StatusBadRequest},
		{"invalid JSON", []int{1}, http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/join", tc.body, nil)
			w := httptest.NewRecorder()

			handler.Join(w, req)

			testutil.AssertStatus(t, w, tc.expectedStatus)
			if tc.expectedStatus != http.StatusOK {
				return
			}
			var resp models.JoinResponse
			testutil.AssertJSON(t, w, &resp)
			if !resp.Success || resp.Session.Code != active || resp.Session.TotalPolls != 2 {
				t.Errorf("Unexpected response: %+v", resp)
			}
		})
	}
}

func TestJoin_InactiveMessage(t *testing.T) {
	db, coord, _ := setupHandlers(t)
	handler := NewParticipantHandler(coord)
	_, paused := testutil.CreateTestSession(t, db, false)

	req := testutil.MakeRequest("POST", "/join", models.JoinRequest{SessionCode: paused}, nil)
	w := httptest.NewRecorder()
	handler.Join(w, req)

	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Message != "Invalid or inactive session" {
		t.Errorf("Expected inactive session message, got %q", resp.Message)
	}
}

func TestSubmitVote(t *testing.T) {
	db, coord, reg := setupHandlers(t)
	handler := NewParticipantHandler(coord)
	sessionID, code := testutil.CreateTestSession(t, db, true, "Q1")
	participantID := testutil.CreateTestParticipant(t, db, sessionID)

	var pollID int64
	if err := db.QueryRow("SELECT id FROM polls WHERE session_id = $1", sessionID).Scan(&pollID); err != nil {
		t.Fatal(err)
	}

	presenter := testutil.NewRecordingConn("presenter")
	if err := reg.Register(presenter); err != nil {
		t.Fatal(err)
	}
	if err := reg.JoinRoom("presenter", code); err != nil {
		t.Fatal(err)
	}

	vote := models.SubmitVoteRequest{PollID: pollID, ParticipantID: participantID, Answer: "A"}
	req := testutil.MakeRequest("POST", "/vote", vote, nil)
	w := httptest.NewRecorder()
	handler.SubmitVote(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	if presenter.Count(models.EventNewVote) != 1 {
		t.Errorf("Expected one new_vote broadcast, got events %v", presenter.Events())
	}

	// second vote by the same participant
	req = testutil.MakeRequest("POST", "/vote", vote, nil)
	w = httptest.NewRecorder()
	handler.SubmitVote(w, req)

	testutil.AssertStatus(t, w, http.StatusConflict)
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Message != "Already voted" {
		t.Errorf("Expected 'Already voted', got %q", resp.Message)
	}
}

func TestSubmitVote_Errors(t *testing.T) {
	db, coord, _ := setupHandlers(t)
	handler := NewParticipantHandler(coord)
	sessionID, _ := testutil.CreateTestSession(t, db, true, "Q1")
	participantID := testutil.CreateTestParticipant(t, db, sessionID)

	var pollID int64
	if err := db.QueryRow("SELECT id FROM polls WHERE session_id = $1", sessionID).Scan(&pollID); err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name           string
		body           models.SubmitVoteRequest
		expectedStatus int
	}{
		{"missing ids", models.SubmitVoteRequest{Answer: "A"}, http.StatusBadRequest},
		{"empty answer", models.SubmitVoteRequest{PollID: pollID, ParticipantID: participantID}, http.StatusBadRequest},
		{"unknown poll", models.SubmitVoteRequest{PollID: 9999, ParticipantID: participantID, Answer: "A"}, http.StatusNotFound},
		{"unknown participant", models.SubmitVoteRequest{PollID: pollID, ParticipantID: 9999, Answer: "A"}, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := testutil.MakeRequest("POST", "/vote", tc.body, nil)
			w := httptest.NewRecorder()

			handler.SubmitVote(w, req)

			testutil.AssertStatus(t, w, tc.expectedStatus)
		})
	}
}
