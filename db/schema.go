// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB, dbType string) error {
	_, err := db.Exec(SchemaFor(dbType))
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// SchemaFor renders the schema for the given database type.
// Only the identity column and JSON column types differ between engines.
func SchemaFor(dbType string) string {
	pk, jsonType := "BIGSERIAL PRIMARY KEY", "JSONB"
	if dbType == TypeSQLite {
		pk, jsonType = "INTEGER PRIMARY KEY AUTOINCREMENT", "TEXT"
	}
	return strings.NewReplacer("{{pk}}", pk, "{{json}}", jsonType).Replace(schema)
}

const schema = `
-- Sessions
CREATE TABLE IF NOT EXISTS sessions (
    id {{pk}},
    code TEXT NOT NULL UNIQUE,
    owner_id TEXT NOT NULL,
    owner_name TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    is_active BOOLEAN NOT NULL DEFAULT FALSE,
    current_slide_index INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sessions_owner_id ON sessions(owner_id);

-- Polls (one per slide)
CREATE TABLE IF NOT EXISTS polls (
    id {{pk}},
    session_id BIGINT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    slide_number INTEGER NOT NULL,
    question TEXT NOT NULL,
    poll_type TEXT NOT NULL,
    options {{json}} NOT NULL,
    allow_multiple BOOLEAN NOT NULL DEFAULT FALSE,
    anonymous BOOLEAN NOT NULL DEFAULT TRUE,
    show_results BOOLEAN NOT NULL DEFAULT TRUE,
    image_url TEXT,
    UNIQUE (session_id, slide_number)
);

CREATE INDEX IF NOT EXISTS idx_polls_session_id ON polls(session_id);

-- Participants
CREATE TABLE IF NOT EXISTS participants (
    id {{pk}},
    session_id BIGINT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
    identifier TEXT NOT NULL UNIQUE,
    is_online BOOLEAN NOT NULL DEFAULT TRUE,
    joined_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_participants_session_online ON participants(session_id, is_online);

-- Votes
CREATE TABLE IF NOT EXISTS votes (
    id {{pk}},
    poll_id BIGINT NOT NULL REFERENCES polls(id) ON DELETE CASCADE,
    participant_id BIGINT NOT NULL REFERENCES participants(id) ON DELETE CASCADE,
    answer TEXT NOT NULL,
    voted_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    CONSTRAINT votes_poll_participant_key UNIQUE (poll_id, participant_id)
);

CREATE INDEX IF NOT EXISTS idx_votes_poll_id ON votes(poll_id);
`
