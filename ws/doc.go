// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ws is the WebSocket transport for the session engine.

Handler upgrades GET /ws with github.com/coder/websocket, registers each
connection in the room registry, greets it with a connected event, and
routes inbound frames to the coordinator:

	join_session   {session_code, participant_identifier?}
	admin_join     {session_code}
	leave_session  {session_code, participant_id}
	submit_vote    {poll_id, participant_id, answer}

Failures are unicast to the sender as error{message}. When a connection
drops, the coordinator marks its participants offline and the registry
forgets it.

Each Client has a buffered send channel drained by its write pump; a full
buffer drops frames rather than blocking a broadcast.
*/
package ws
