// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import "time"

const (
	// Outbound frames queued per connection before new frames are dropped
	SendBufferSize = 256

	WriteTimeout = 10 * time.Second
	PingInterval = 30 * time.Second

	// Largest inbound frame accepted from a client
	MaxMessageBytes = 64 << 10

	MaxMessagesPerSecond = 20
	RateLimitWindow      = time.Second
)
