// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package testutil provides database fixtures, HTTP helpers, and a recording
// connection for tests. SetupTestDB gives every test its own SQLite file.
package testutil
