// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package store is the durable session store.

SQLStore runs plain SQL through database/sql against either PostgreSQL
(lib/pq) or SQLite (modernc.org/sqlite). Lookups that find nothing return
models.ErrNotFound; a second vote for the same (poll, participant) returns
models.ErrDuplicateVote; other unique violations return ErrConflict.

Every call derives a context with the configured per-operation timeout.
*/
package store
