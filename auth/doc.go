// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identity verification and token generation utilities.

# Owner Keys

Presenters are authenticated upstream. The login service issues an owner key,
an HMAC-SHA256 of the owner ID, which this server verifies without storage:

	key := auth.GenerateOwnerKey(ownerID, salt)
	err := auth.ValidateOwnerKey(ownerID, key, salt)

# Session Codes

Six characters drawn from A-Z and 0-9:

	code, err := auth.GenerateSessionCode()

Codes are random, so the caller must check them against existing sessions.

# Participant Identifiers

Opaque 16 hex character tokens:

	id, err := auth.GenerateParticipantIdentifier()

# Connection IDs

Every WebSocket connection gets a UUID:

	connID := auth.NewConnectionID()
*/
package auth
