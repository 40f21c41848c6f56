// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

// WSMessage is the frame exchanged over the WebSocket transport
type WSMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Client → Server event names
const (
	EventJoinSession  = "join_session"
	EventAdminJoin    = "admin_join"
	EventLeaveSession = "leave_session"
	EventSubmitVote   = "submit_vote"
)

// Server → Client event names
const (
	EventConnected            = "connected"
	EventError                = "error"
	EventAdminConnected       = "admin_connected"
	EventSessionJoined        = "session_joined"
	EventSessionStatusChanged = "session_status_changed"
	EventSessionEnded         = "session_ended"
	EventSlideChanged         = "slide_changed"
	EventParticipantJoined    = "participant_joined"
	EventParticipantLeft      = "participant_left"
	EventNewVote              = "new_vote"
)

// Fixed client-facing messages
const (
	MessageSessionStarted = "Session started"
	MessageSessionPaused  = "Session paused"
	MessageSessionEnded   = "Session has ended. Thank you for participating!"
	MessageMonitoring     = "Monitoring session"
	MessageConnected      = "Connected to server"
)

// Inbound payloads

type JoinSessionPayload struct {
	SessionCode           string `json:"session_code"`
	ParticipantIdentifier string `json:"participant_identifier,omitempty"`
}

type AdminJoinPayload struct {
	SessionCode string `json:"session_code"`
}

type LeaveSessionPayload struct {
	SessionCode   string `json:"session_code"`
	ParticipantID int64  `json:"participant_id"`
}

// Outbound payloads

type SessionStatusChangedEvent struct {
	IsActive bool   `json:"is_active"`
	Message  string `json:"message"`
}

type MessageEvent struct {
	Message string `json:"message"`
}

type SlideChangedEvent struct {
	SlideIndex int   `json:"slide_index"`
	Poll       *Poll `json:"poll"`
}

type ParticipantCountEvent struct {
	Count int `json:"count"`
}

type NewVoteEvent struct {
	PollID  int64      `json:"poll_id"`
	Answer  string     `json:"answer"`
	Results ResultView `json:"results"`
}

// SessionJoinedEvent doubles as the resynchronization payload: a joining or
// reconnecting client receives the full current state.
type SessionJoinedEvent struct {
	ParticipantID         int64  `json:"participant_id"`
	ParticipantIdentifier string `json:"participant_identifier"`
	CurrentSlide          int    `json:"current_slide"`
	TotalSlides           int    `json:"total_slides"`
	CurrentPoll           *Poll  `json:"current_poll"`
}
