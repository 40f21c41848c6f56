// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/danielhkuo/livepoll/coordinator"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/room"
	"github.com/danielhkuo/livepoll/store"
	"github.com/danielhkuo/livepoll/testutil"
)

func setupRouter(t *testing.T) *http.ServeMux {
	t.Helper()
	db := testutil.SetupTestDB(t)
	reg := room.NewRegistry()
	t.Cleanup(reg.Close)
	coord := coordinator.New(store.New(db, 5*time.Second), reg)
	return NewRouter(coord, reg, testutil.GetTestConfig())
}

func TestHealthEndpoint(t *testing.T) {
	mux := setupRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	if w.Body.String() != "OK" {
		t.Errorf("Expected body 'OK', got '%s'", w.Body.String())
	}
}

func TestRootEndpoint(t *testing.T) {
	mux := setupRouter(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}

	expected := "livepoll API v1"
	if w.Body.String() != expected {
		t.Errorf("Expected body '%s', got '%s'", expected, w.Body.String())
	}
}

func TestRouteExistence(t *testing.T) {
	mux := setupRouter(t)

	// 400, 401, 404 are all valid responses depending on handler logic
	testCases := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"GET", "/"},
		{"GET", "/stats/live"},

		{"POST", "/sessions"},
		{"GET", "/sessions"},
		{"GET", "/sessions/ABC123"},
		{"DELETE", "/sessions/ABC123"},
		{"PUT", "/sessions/ABC123/toggle"},
		{"PUT", "/sessions/ABC123/end"},
		{"PUT", "/sessions/ABC123/slide"},
		{"GET", "/dashboard/stats"},

		{"POST", "/join"},
		{"POST", "/vote"},
		{"GET", "/polls/1/results"},
	}

	for _, tc := range testCases {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code == http.StatusMethodNotAllowed {
				t.Errorf("Route %s %s returned 405, expected route handler to exist", tc.method, tc.path)
			}
		})
	}
}

func TestSpecificMethodRouting(t *testing.T) {
	mux := setupRouter(t)

	testCases := []struct {
		name           string
		method         string
		path           string
		expectedStatus int
	}{
		{"POST to health endpoint", "POST", "/health", http.StatusMethodNotAllowed},
		{"GET to toggle endpoint", "GET", "/sessions/ABC123/toggle", http.StatusMethodNotAllowed},
		{"PUT to vote endpoint", "PUT", "/vote", http.StatusMethodNotAllowed},
		{"unknown path", "GET", "/nowhere", http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			w := httptest.NewRecorder()

			mux.ServeHTTP(w, req)

			if w.Code != tc.expectedStatus {
				t.Errorf("Expected %d for %s %s, got %d", tc.expectedStatus, tc.method, tc.path, w.Code)
			}
		})
	}
}

func TestRequestIDHeader(t *testing.T) {
	mux := setupRouter(t)

	req := httptest.NewRequest("GET", "/stats/live", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if len(w.Header().Get("X-Request-ID")) != 26 {
		t.Errorf("Expected a ULID request id, got %q", w.Header().Get("X-Request-ID"))
	}
}

// TestPresenterDrivesAudience runs a presenter over HTTP and an audience
// member over the WebSocket route against a real server
func TestPresenterDrivesAudience(t *testing.T) {
	srv := httptest.NewServer(setupRouter(t))
	defer srv.Close()
	owner := testutil.OwnerHeaders()

	do := func(method, path string, body any) *http.Response {
		t.Helper()
		req := testutil.MakeRequest(method, srv.URL+path, body, owner)
		req.RequestURI = ""
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := do("POST", "/sessions", models.CreateSessionRequest{
		Title:  "Live",
		Slides: []models.SlideRequest{{Question: "Yes?", Type: models.PollTypeSingleChoice, Options: []string{"Yes", "No"}}},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("Create failed: %d", resp.StatusCode)
	}
	var created models.CreateSessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatal(err)
	}
	code := created.SessionCode

	if resp := do("PUT", "/sessions/"+code+"/toggle", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("Toggle failed: %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	conn, _, err := websocket.Dial(ctx, "ws"+srv.URL[len("http"):]+"/ws", nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	read := func() models.WSMessage {
		t.Helper()
		_, data, err := conn.Read(ctx)
		if err != nil {
			t.Fatalf("Read failed: %v", err)
		}
		var msg models.WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		return msg
	}

	if msg := read(); msg.Type != models.EventConnected {
		t.Fatalf("Expected connected, got %s", msg.Type)
	}

	join, _ := json.Marshal(models.WSMessage{
		Type:    models.EventJoinSession,
		Payload: models.JoinSessionPayload{SessionCode: code},
	})
	if err := conn.Write(ctx, websocket.MessageText, join); err != nil {
		t.Fatal(err)
	}
	if msg := read(); msg.Type != models.EventSessionJoined {
		t.Fatalf("Expected session_joined, got %s", msg.Type)
	}
	if msg := read(); msg.Type != models.EventParticipantJoined {
		t.Fatalf("Expected participant_joined, got %s", msg.Type)
	}

	if resp := do("PUT", "/sessions/"+code+"/end", nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("End failed: %d", resp.StatusCode)
	}
	if msg := read(); msg.Type != models.EventSessionEnded {
		t.Fatalf("Expected session_ended, got %s", msg.Type)
	}
}
