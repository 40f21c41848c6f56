// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"encoding/json"
	"sync"
	"testing"
)

// Frame is a decoded event received by a RecordingConn
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RecordingConn implements room.Conn and keeps every frame it is sent
type RecordingConn struct {
	id string

	mu     sync.Mutex
	frames []Frame
	full   bool
	closed bool
}

func NewRecordingConn(id string) *RecordingConn {
	return &RecordingConn{id: id}
}

func (c *RecordingConn) ID() string { return c.id }

func (c *RecordingConn) Send(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.full || c.closed {
		return false
	}
	var f Frame
	if err := json.Unmarshal(frame, &f); err != nil {
		return false
	}
	c.frames = append(c.frames, f)
	return true
}

func (c *RecordingConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// SetFull makes Send drop frames as a saturated client would
func (c *RecordingConn) SetFull(full bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.full = full
}

func (c *RecordingConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Events returns the event names received so far, in order
func (c *RecordingConn) Events() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, len(c.frames))
	for i, f := range c.frames {
		names[i] = f.Type
	}
	return names
}

// Count returns how many frames of the given event were received
func (c *RecordingConn) Count(event string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, f := range c.frames {
		if f.Type == event {
			n++
		}
	}
	return n
}

// Last decodes the payload of the most recent frame of the given event into v
func (c *RecordingConn) Last(t *testing.T, event string, v any) {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Type == event {
			if err := json.Unmarshal(c.frames[i].Payload, v); err != nil {
				t.Fatalf("Failed to decode %s payload: %v", event, err)
			}
			return
		}
	}
	t.Fatalf("No %s event received; got %v", event, c.eventsLocked())
}

// LastRaw returns the raw payload of the most recent frame of the given event
func (c *RecordingConn) LastRaw(event string) (json.RawMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.frames) - 1; i >= 0; i-- {
		if c.frames[i].Type == event {
			return c.frames[i].Payload, true
		}
	}
	return nil, false
}

// Reset discards recorded frames
func (c *RecordingConn) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = nil
}

func (c *RecordingConn) eventsLocked() []string {
	names := make([]string, len(c.frames))
	for i, f := range c.frames {
		names[i] = f.Type
	}
	return names
}
