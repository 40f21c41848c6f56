// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package handlers contains HTTP request handlers for the livepoll API.

# Handler Types

Each handler is a struct over the session Coordinator:

  - SessionHandler: presenter operations (create, list, control, delete)
  - ParticipantHandler: session code check and HTTP vote submission
  - ResultsHandler: poll results and live transport stats

Handlers are created via constructor functions:

	sessionHandler := handlers.NewSessionHandler(coord, cfg)

# Presenter Identity

Presenter endpoints read X-Owner-ID, X-Owner-Name and X-Owner-Key. The key
must be the HMAC of the owner ID under the configured salt, otherwise the
request fails with 401 "Invalid owner key". Owners manage their own
sessions; configured admins manage all of them.

# Session Control

	PUT /sessions/{code}/toggle → ToggleSession (session_status_changed)
	PUT /sessions/{code}/end    → EndSession (session_ended)
	PUT /sessions/{code}/slide  → ChangeSlide (slide_changed)

Each control call persists the new state and then broadcasts the matching
event to the session room.

# Errors

Coordinator errors are mapped by middleware.WriteError:

	models.ErrValidation         → 400
	models.ErrForbidden          → 403
	models.ErrNotFound           → 404
	models.ErrSessionUnavailable → 404 "Invalid or inactive session"
	models.ErrDuplicateVote      → 409 "Already voted"
*/
package handlers
