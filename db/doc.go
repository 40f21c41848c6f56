// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db opens the database and creates its schema.

# Drivers

Two engines are supported behind database/sql:

  - postgres: github.com/lib/pq
  - sqlite: modernc.org/sqlite (pure Go, the default)

Open pings the database and creates the schema:

	conn, err := db.Open(ctx, cfg.DatabaseType, cfg.DatabaseURL)

SQLite connections enable foreign keys (needed for cascades), a busy timeout,
and WAL mode, and the pool is limited to one connection.

# Tables

  - sessions: code, owner, title, is_active, current_slide_index
  - polls: one per slide, UNIQUE (session_id, slide_number)
  - participants: identifier UNIQUE, is_online
  - votes: UNIQUE (poll_id, participant_id)

# Relationships

	sessions 1──* polls
	sessions 1──* participants
	polls 1──* votes *──1 participants

All foreign keys use ON DELETE CASCADE. The votes uniqueness constraint is
what makes concurrent duplicate votes fail atomically.
*/
package db
