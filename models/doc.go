// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines domain, request/response, and event types.

# Domain Types

  - Session: presenter-run polling event identified by a 6-character code
  - Poll: one question bound to one slide (1-based slide_number)
  - Participant: one joined audience member, toggled offline but never deleted
  - Vote: one answer per (poll, participant)
  - ResultView: aggregated results for a poll

# Poll Types

	PollTypeMultipleChoice = "multiple_choice"
	PollTypeSingleChoice   = "single_choice"
	PollTypeRatingScale    = "rating_scale"
	PollTypeOpenEnded      = "open_ended"
	PollTypeWordCloud      = "word_cloud"

Choice and rating polls are counted per declared option. Word clouds are
counted per normalized word. Open-ended polls keep every raw answer.

# Events

Every frame on the WebSocket is a WSMessage:

	{"type": "slide_changed", "payload": {"slide_index": 1, "poll": {...}}}

Event names and payload field names are a client contract and must not change.

# Errors

Sentinel errors shared by every layer:

	ErrNotFound, ErrForbidden, ErrSessionUnavailable, ErrDuplicateVote, ErrValidation

Wrap them with fmt.Errorf("%w: detail", ...) and match with errors.Is.
*/
package models
