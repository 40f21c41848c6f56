// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package coordinator is the real-time session engine.

A Coordinator owns each session's lifecycle (active flag and current slide),
admits participants, records votes through the tally engine, and publishes
every change to the session's room through a Broadcaster. Rooms are named by
session code.

# Events

	StartOrPause  -> session_status_changed{is_active, message}
	End           -> session_ended{message}
	ChangeSlide   -> slide_changed{slide_index, poll}
	Join          -> participant_joined{count}
	Leave         -> participant_left{count}
	Disconnect    -> participant_left{count}
	SubmitVote    -> new_vote{poll_id, answer, results}
	MonitorJoin   -> admin_connected{message} (to the monitor only)

Broadcasts are fire-and-forget. Join returns the complete state of the
session so a reconnecting client can resynchronize after missed events.

Presenter operations take an explicit models.Identity; the owner and admins
may manage a session, anyone else gets models.ErrForbidden.
*/
package coordinator
