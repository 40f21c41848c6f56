// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/db"
	"github.com/danielhkuo/livepoll/models"
)

const (
	TestOwnerID   = "owner-1"
	TestOwnerName = "Presenter"
	TestSalt      = "test-owner-salt"
	TestAdminID   = "root"
)

// SetupTestDB creates a fresh SQLite database with the full schema.
// Each test gets its own file so tests can run in parallel.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "livepoll_test.db")
	conn, err := db.Open(context.Background(), db.TypeSQLite, path)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:         5000,
		DatabaseURL:  ":memory:",
		DatabaseType: cliparse.DatabaseSQLite,
		OwnerKeySalt: TestSalt,
		AdminIDs:     []string{TestAdminID},
		LogLevel:     "debug",
		StoreTimeout: 5 * time.Second,
	}
}

// Owner returns the identity of the default test presenter
func Owner() models.Identity {
	return models.Identity{UserID: TestOwnerID, Name: TestOwnerName}
}

// OwnerHeaders returns the headers that authenticate the default presenter
func OwnerHeaders() map[string]string {
	return IdentityHeaders(TestOwnerID, TestOwnerName)
}

// IdentityHeaders returns headers authenticating the given user
func IdentityHeaders(userID, name string) map[string]string {
	return map[string]string{
		"X-Owner-ID":   userID,
		"X-Owner-Name": name,
		"X-Owner-Key":  auth.GenerateOwnerKey(userID, TestSalt),
	}
}

// CreateTestSession inserts a session owned by TestOwnerID with one poll per
// question and returns its code. Polls are multiple choice with options A, B.
func CreateTestSession(t *testing.T, conn *sql.DB, active bool, questions ...string) (sessionID int64, code string) {
	t.Helper()

	code, err := auth.GenerateSessionCode()
	if err != nil {
		t.Fatalf("Failed to generate code: %v", err)
	}

	err = conn.QueryRow(`
		INSERT INTO sessions (code, owner_id, owner_name, title, description, is_active, current_slide_index, created_at)
		VALUES ($1, $2, $3, 'Test Session', 'A test session', $4, 0, $5)
		RETURNING id
	`, code, TestOwnerID, TestOwnerName, active, time.Now().UTC()).Scan(&sessionID)
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	for i, q := range questions {
		AddTestPoll(t, conn, sessionID, i+1, q, models.PollTypeMultipleChoice, []string{"A", "B"})
	}

	return sessionID, code
}

// AddTestPoll adds a poll to a session and returns its ID
func AddTestPoll(t *testing.T, conn *sql.DB, sessionID int64, slideNumber int, question, pollType string, options []string) int64 {
	t.Helper()

	if options == nil {
		options = []string{}
	}
	optionsJSON, _ := json.Marshal(options)

	var pollID int64
	err := conn.QueryRow(`
		INSERT INTO polls (session_id, slide_number, question, poll_type, options, allow_multiple, anonymous, show_results)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, sessionID, slideNumber, question, pollType, string(optionsJSON), false, true, true).Scan(&pollID)
	if err != nil {
		t.Fatalf("Failed to create test poll: %v", err)
	}

	return pollID
}

// CreateTestParticipant adds an online participant and returns its ID
func CreateTestParticipant(t *testing.T, conn *sql.DB, sessionID int64) int64 {
	t.Helper()

	identifier, _ := auth.GenerateParticipantIdentifier()
	var participantID int64
	err := conn.QueryRow(`
		INSERT INTO participants (session_id, identifier, is_online, joined_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, sessionID, identifier, true, time.Now().UTC()).Scan(&participantID)
	if err != nil {
		t.Fatalf("Failed to create test participant: %v", err)
	}

	return participantID
}

// SubmitTestVote inserts a vote directly
func SubmitTestVote(t *testing.T, conn *sql.DB, pollID, participantID int64, answer string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO votes (poll_id, participant_id, answer, voted_at)
		VALUES ($1, $2, $3, $4)
	`, pollID, participantID, answer, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
