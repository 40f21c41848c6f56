// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package room implements the room registry: which connections are subscribed
to which session, and delivery of events to them.

A room is named by its session code. The registry indexes rooms by name for
multicast and connections by ID for unicast:

	reg := room.NewRegistry()
	reg.Register(conn)
	reg.JoinRoom(conn.ID(), "ABC123")
	reg.EmitToRoom("ABC123", models.EventSlideChanged, payload)

Delivery never blocks. Each Conn owns a send buffer; when it is full the
frame is dropped for that subscriber and counted in Stats. Clients resync by
joining again.

The registry holds no durable state and is closed when the server stops.
*/
package room
