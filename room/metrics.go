// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package room

import (
	"sync/atomic"
	"time"
)

// Metrics tracks registry activity
type Metrics struct {
	activeConnections atomic.Int64
	totalConnections  atomic.Int64
	activeRooms       atomic.Int64
	messagesSent      atomic.Int64
	messagesDropped   atomic.Int64
	startTime         time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

func (m *Metrics) IncrementConnections() {
	m.activeConnections.Add(1)
	m.totalConnections.Add(1)
}

func (m *Metrics) DecrementConnections()  { m.activeConnections.Add(-1) }
func (m *Metrics) IncrementRooms()        { m.activeRooms.Add(1) }
func (m *Metrics) DecrementRooms()        { m.activeRooms.Add(-1) }
func (m *Metrics) IncrementMessagesSent() { m.messagesSent.Add(1) }
func (m *Metrics) IncrementDropped()      { m.messagesDropped.Add(1) }

// Stats is a point-in-time view of the metrics
type Stats struct {
	ActiveConnections int64     `json:"active_connections"`
	TotalConnections  int64     `json:"total_connections"`
	ActiveRooms       int64     `json:"active_rooms"`
	MessagesSent      int64     `json:"messages_sent"`
	MessagesDropped   int64     `json:"messages_dropped"`
	StartTime         time.Time `json:"start_time"`
}

func (m *Metrics) Snapshot() Stats {
	return Stats{
		ActiveConnections: m.activeConnections.Load(),
		TotalConnections:  m.totalConnections.Load(),
		ActiveRooms:       m.activeRooms.Load(),
		MessagesSent:      m.messagesSent.Load(),
		MessagesDropped:   m.messagesDropped.Load(),
		StartTime:         m.startTime,
	}
}
