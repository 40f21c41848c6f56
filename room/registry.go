// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package room

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/danielhkuo/livepoll/models"
)

var (
	ErrUnknownConnection = errors.New("unknown connection")
	ErrRegistryClosed    = errors.New("registry closed")
)

// Conn is one subscriber. Send must not block: it either queues the frame
// or reports that it was dropped.
type Conn interface {
	ID() string
	Send(frame []byte) bool
	Close()
}

// PublishResult reports how a room-scoped emit was delivered
type PublishResult struct {
	SentTo  int
	Dropped []string
}

// Registry maps session rooms to their subscribed connections. It is owned by
// the server process and rebuilt from nothing on restart.
type Registry struct {
	mu sync.RWMutex

	conns map[string]Conn
	// room -> connection IDs
	rooms map[string]map[string]struct{}
	// connection ID -> rooms, for unicast cleanup
	memberships map[string]map[string]struct{}

	closed  bool
	metrics *Metrics
}

func NewRegistry() *Registry {
	return &Registry{
		conns:       make(map[string]Conn),
		rooms:       make(map[string]map[string]struct{}),
		memberships: make(map[string]map[string]struct{}),
		metrics:     NewMetrics(),
	}
}

// Register makes a connection addressable for unicast and room joins
func (r *Registry) Register(c Conn) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	r.conns[c.ID()] = c
	r.memberships[c.ID()] = make(map[string]struct{})
	r.metrics.IncrementConnections()

	slog.Debug("connection registered", "conn_id", c.ID(), "connections", len(r.conns))
	return nil
}

// Unregister forgets a connection and removes it from every room.
// It returns the rooms the connection was in.
func (r *Registry) Unregister(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; !ok {
		return nil
	}

	var left []string
	for name := range r.memberships[connID] {
		r.removeLocked(connID, name)
		left = append(left, name)
	}
	delete(r.memberships, connID)
	delete(r.conns, connID)
	r.metrics.DecrementConnections()

	slog.Debug("connection unregistered", "conn_id", connID, "rooms_left", len(left))
	return left
}

// JoinRoom subscribes a registered connection to a room. Joining twice is a no-op.
func (r *Registry) JoinRoom(connID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[connID]; !ok {
		return ErrUnknownConnection
	}

	members, ok := r.rooms[name]
	if !ok {
		members = make(map[string]struct{})
		r.rooms[name] = members
		r.metrics.IncrementRooms()
	}
	members[connID] = struct{}{}
	r.memberships[connID][name] = struct{}{}

	slog.Debug("joined room", "room", name, "conn_id", connID, "members", len(members))
	return nil
}

// LeaveRoom unsubscribes a connection; unknown pairs are ignored
func (r *Registry) LeaveRoom(connID, name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeLocked(connID, name)
	if m, ok := r.memberships[connID]; ok {
		delete(m, name)
	}
}

func (r *Registry) removeLocked(connID, name string) {
	members, ok := r.rooms[name]
	if !ok {
		return
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, name)
		r.metrics.DecrementRooms()
	}
}

// EmitToRoom multicasts an event to every current subscriber of the room.
// Delivery is fire-and-forget: slow or gone subscribers miss the event.
func (r *Registry) EmitToRoom(name, event string, payload any) PublishResult {
	frame, err := encode(event, payload)
	if err != nil {
		slog.Error("failed to encode event", "event", event, "error", err)
		return PublishResult{}
	}

	r.mu.RLock()
	targets := make([]Conn, 0, len(r.rooms[name]))
	for connID := range r.rooms[name] {
		targets = append(targets, r.conns[connID])
	}
	r.mu.RUnlock()

	var res PublishResult
	for _, c := range targets {
		if c.Send(frame) {
			res.SentTo++
			r.metrics.IncrementMessagesSent()
		} else {
			res.Dropped = append(res.Dropped, c.ID())
			r.metrics.IncrementDropped()
		}
	}

	slog.Debug("room broadcast", "room", name, "event", event, "sent", res.SentTo, "dropped", len(res.Dropped))
	return res
}

// EmitToConnection unicasts an event; it reports whether the frame was queued
func (r *Registry) EmitToConnection(connID, event string, payload any) bool {
	frame, err := encode(event, payload)
	if err != nil {
		slog.Error("failed to encode event", "event", event, "error", err)
		return false
	}

	r.mu.RLock()
	c, ok := r.conns[connID]
	r.mu.RUnlock()
	if !ok {
		return false
	}

	if !c.Send(frame) {
		r.metrics.IncrementDropped()
		return false
	}
	r.metrics.IncrementMessagesSent()
	return true
}

// RoomSize returns the number of connections subscribed to a room
func (r *Registry) RoomSize(name string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[name])
}

// Rooms returns the rooms a connection is subscribed to
func (r *Registry) Rooms(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.memberships[connID]))
	for name := range r.memberships[connID] {
		names = append(names, name)
	}
	return names
}

func (r *Registry) Stats() Stats {
	return r.metrics.Snapshot()
}

// Close refuses new registrations and closes every connection
func (r *Registry) Close() {
	r.mu.Lock()
	r.closed = true
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.mu.Unlock()

	for _, c := range conns {
		c.Close()
	}
	slog.Info("room registry closed", "connections", len(conns))
}

func encode(event string, payload any) ([]byte, error) {
	return json.Marshal(models.WSMessage{Type: event, Payload: payload})
}
