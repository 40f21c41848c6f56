// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Poll type constants
const (
	PollTypeMultipleChoice = "multiple_choice"
	PollTypeSingleChoice   = "single_choice"
	PollTypeRatingScale    = "rating_scale"
	PollTypeOpenEnded      = "open_ended"
	PollTypeWordCloud      = "word_cloud"
)

// IsValidPollType reports whether t is one of the supported poll types
func IsValidPollType(t string) bool {
	switch t {
	case PollTypeMultipleChoice, PollTypeSingleChoice, PollTypeRatingScale,
		PollTypeOpenEnded, PollTypeWordCloud:
		return true
	}
	return false
}

// IsChoiceType reports whether results for t are counted per declared option
func IsChoiceType(t string) bool {
	return t == PollTypeMultipleChoice || t == PollTypeSingleChoice || t == PollTypeRatingScale
}

// Identity is the verified caller of a presenter operation.
// The core trusts whatever identity it is handed.
type Identity struct {
	UserID  string
	Name    string
	IsAdmin bool
}

// CanManage reports whether the identity may mutate the session
func (i Identity) CanManage(s Session) bool {
	return i.IsAdmin || (i.UserID != "" && i.UserID == s.OwnerID)
}

// Request types

type SlideRequest struct {
	SlideNumber int           `json:"slideNumber"`
	Question    string        `json:"question"`
	Type        string        `json:"type"`
	Options     []string      `json:"options"`
	ImageURL    string        `json:"imageUrl,omitempty"`
	Settings    SlideSettings `json:"settings"`
}

// SlideSettings uses pointers so omitted fields fall back to their defaults
type SlideSettings struct {
	AllowMultiple *bool `json:"allowMultiple,omitempty"`
	Anonymous     *bool `json:"anonymous,omitempty"`
	ShowResults   *bool `json:"showResults,omitempty"`
}

type CreateSessionRequest struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Slides      []SlideRequest `json:"slides"`
}

type ChangeSlideRequest struct {
	SlideIndex int `json:"slide_index"`
}

type JoinRequest struct {
	SessionCode string `json:"session_code"`
}

type SubmitVoteRequest struct {
	PollID        int64  `json:"poll_id"`
	ParticipantID int64  `json:"participant_id"`
	Answer        string `json:"answer"`
}

// Response types

type CreateSessionResponse struct {
	Success     bool           `json:"success"`
	Session     SessionSummary `json:"session"`
	SessionCode string         `json:"session_code"`
	Message     string         `json:"message"`
}

type SessionStateResponse struct {
	Success  bool   `json:"success"`
	IsActive bool   `json:"is_active"`
	Message  string `json:"message"`
}

type SlideStateResponse struct {
	Success    bool  `json:"success"`
	SlideIndex int   `json:"slide_index"`
	Poll       *Poll `json:"poll"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type JoinResponse struct {
	Success bool           `json:"success"`
	Session SessionSummary `json:"session"`
}

type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
	Stats    Totals           `json:"stats"`
}

type DashboardStatsResponse struct {
	Stats          Totals           `json:"stats"`
	RecentSessions []SessionSummary `json:"recent_sessions"`
}

type PollResultsResponse struct {
	PollID     int64      `json:"poll_id"`
	PollType   string     `json:"poll_type"`
	TotalVotes int        `json:"total_votes"`
	Results    ResultView `json:"results"`
}

// Domain types

type Session struct {
	ID                int64     `json:"id"`
	Code              string    `json:"code"`
	OwnerID           string    `json:"user_id"`
	OwnerName         string    `json:"creator_name"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	IsActive          bool      `json:"is_active"`
	CurrentSlideIndex int       `json:"current_slide_index"`
	CreatedAt         time.Time `json:"created_at"`
}

type PollSettings struct {
	AllowMultiple bool `json:"allow_multiple"`
	Anonymous     bool `json:"anonymous"`
	ShowResults   bool `json:"show_results"`
}

// Poll is one question bound to one slide. Its JSON form is the payload
// clients receive in slide_changed and session_joined.
type Poll struct {
	ID          int64        `json:"id"`
	SessionID   int64        `json:"-"`
	SlideNumber int          `json:"slide_number"`
	Question    string       `json:"question"`
	PollType    string       `json:"poll_type"`
	Options     []string     `json:"options"`
	ImageURL    *string      `json:"image_url"`
	Settings    PollSettings `json:"settings"`
	TotalVotes  int          `json:"total_votes"`
}

type Participant struct {
	ID         int64     `json:"id"`
	SessionID  int64     `json:"session_id"`
	Identifier string    `json:"identifier"`
	IsOnline   bool      `json:"is_online"`
	JoinedAt   time.Time `json:"joined_at"`
}

type Vote struct {
	ID            int64     `json:"id"`
	PollID        int64     `json:"poll_id"`
	ParticipantID int64     `json:"participant_id"`
	Answer        string    `json:"answer"`
	VotedAt       time.Time `json:"voted_at"`
}

// SessionSummary is the list/detail view of a session
type SessionSummary struct {
	Session
	TotalPolls       int          `json:"total_polls"`
	ParticipantCount *int         `json:"participant_count,omitempty"`
	VoteCount        *int         `json:"vote_count,omitempty"`
	Polls            []PollDetail `json:"polls,omitempty"`
}

// PollDetail is a poll together with its current results
type PollDetail struct {
	Poll
	Results ResultView `json:"results"`
}

type Totals struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Participants int `json:"participants"`
	Votes        int `json:"votes"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
