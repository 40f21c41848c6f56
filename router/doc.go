// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the livepoll API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(coord, reg, cfg)

# Endpoints

Health and transport stats:

	GET /health
	GET /stats/live

Session management (presenter, requires X-Owner-* headers):

	POST   /sessions              - Create session with its slides
	GET    /sessions              - List own sessions (admins see all)
	GET    /sessions/{code}       - Session with per-poll results
	DELETE /sessions/{code}       - Delete session and everything under it
	PUT    /sessions/{code}/toggle - Start or pause
	PUT    /sessions/{code}/end    - End
	PUT    /sessions/{code}/slide  - Change current slide
	GET    /dashboard/stats       - Totals and recent sessions

Audience (public):

	POST /join               - Check a session code
	POST /vote               - Submit a vote
	GET  /polls/{id}/results - Current results when show_results is set

Real-time:

	GET /ws - WebSocket upgrade, see package ws
*/
package router
