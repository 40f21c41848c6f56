// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the livepoll server.

livepoll runs live audience polls: a presenter steps through slides, each
bound to a poll, while participants join by a 6-character session code and
vote from their own devices. Session state, slide changes and results are
pushed to every connected client over a WebSocket.

# Starting the Server

SQLite is the default store and needs only the owner key salt:

	OWNER_KEY_SALT=secret go run .

PostgreSQL:

	go run . -t postgres -d "postgres://..." -owner-salt secret

# Configuration

Required settings:

  - OWNER_KEY_SALT (-owner-salt): Secret for presenter key HMAC

Optional settings:

  - PORT (-p): Server port (default: 5000)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - DATABASE_URL (-d): Connection string (default: livepoll.db for sqlite)
  - ADMIN_IDS (-admins): Comma separated user IDs that manage every session
  - LOG_LEVEL (-log-level): debug, info, warn, error (default: info)
  - STORE_TIMEOUT (-store-timeout): Per-operation database timeout (default: 5s)

A .env file in the working directory is loaded before the environment is read.

# Architecture

  - coordinator: Session state machine, join/leave bookkeeping, broadcasts
  - tally: Vote acceptance and result aggregation
  - room: Connection registry and named rooms (one per session code)
  - ws: WebSocket transport and event dispatch
  - handlers: HTTP request handlers
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers, presenter identity
  - store: SQL persistence for SQLite and PostgreSQL
  - models: Domain, request/response and event types
  - auth: Owner keys, session codes and participant identifiers
  - db: Connection and schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
