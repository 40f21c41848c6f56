// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

A .env file in the working directory is loaded before flags are parsed.
Variables already present in the environment are not overwritten by it.

# CLI Flags

	-p              Server port (default 5000)
	-d              Database URL (default livepoll.db for sqlite)
	-t              Database type: sqlite (default) or postgres
	-log-level      debug, info, warn, error
	-store-timeout  Per-operation database timeout (default 5s)
	-owner-salt     Owner key salt
	-admins         Comma separated super-admin user IDs

# Environment Variables

	PORT           → -p
	DATABASE_URL   → -d
	DATABASE_TYPE  → -t
	LOG_LEVEL      → -log-level
	STORE_TIMEOUT  → -store-timeout
	OWNER_KEY_SALT → -owner-salt
	ADMIN_IDS      → -admins

CLI flags take precedence over environment variables.

# Validation

  - OWNER_KEY_SALT must be provided
  - DATABASE_URL must be provided for postgres
  - DATABASE_TYPE must be sqlite or postgres
*/
package cliparse
