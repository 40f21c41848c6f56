// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP plumbing shared by every handler.

  - WithLogging: structured request logging with a ULID request id
  - CORS: cross-origin headers, including the presenter identity headers
  - Identify: verifies X-Owner-ID / X-Owner-Key and resolves admin status
  - JSONResponse, ErrorResponse, WriteError: JSON responses; WriteError maps
    models sentinel errors to status codes
  - ParseJSONBody: size-limited JSON decoding
*/
package middleware
