// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/danielhkuo/livepoll/models"
)

// Client is one WebSocket connection. Outbound frames go through a buffered
// channel drained by writePump; inbound frames are read by readPump.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	who  models.Identity

	// Rate limiting
	rateMu       sync.Mutex
	messageCount int
	lastReset    time.Time

	// Lifecycle
	ctx     context.Context
	cancel  context.CancelFunc
	closeMu sync.Mutex
	closed  bool
}

func newClient(ctx context.Context, id string, conn *websocket.Conn, who models.Identity) *Client {
	ctx, cancel := context.WithCancel(ctx)
	conn.SetReadLimit(MaxMessageBytes)

	return &Client{
		id:        id,
		conn:      conn,
		send:      make(chan []byte, SendBufferSize),
		who:       who,
		lastReset: time.Now(),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (c *Client) ID() string { return c.id }

// Send queues a frame without blocking. A full buffer drops the frame.
func (c *Client) Send(frame []byte) bool {
	c.closeMu.Lock()
	defer c.closeMu.Unlock()

	if c.closed {
		return false
	}

	select {
	case c.send <- frame:
		return true
	default:
		slog.Warn("send buffer full, dropping frame", "conn_id", c.id)
		return false
	}
}

// Close shuts the connection down; it is safe to call more than once
func (c *Client) Close() {
	c.closeMu.Lock()
	if c.closed {
		c.closeMu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	close(c.send)
	c.closeMu.Unlock()

	_ = c.conn.Close(websocket.StatusNormalClosure, "")
}

// writePump delivers queued frames and keeps the connection alive with pings
func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !ok {
				return
			}

			writeCtx, cancel := context.WithTimeout(context.Background(), WriteTimeout)
			err := c.conn.Write(writeCtx, websocket.MessageText, frame)
			cancel()
			if err != nil {
				slog.Debug("write failed", "conn_id", c.id, "error", err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, WriteTimeout)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				slog.Debug("ping failed", "conn_id", c.id, "error", err)
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// readPump hands every inbound frame to handle until the connection fails
func (c *Client) readPump(handle func(data []byte)) {
	for {
		_, data, err := c.conn.Read(c.ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && c.ctx.Err() == nil {
				slog.Debug("read failed", "conn_id", c.id, "error", err)
			}
			return
		}

		if !c.allow() {
			slog.Warn("rate limit exceeded", "conn_id", c.id)
			c.sendError("Rate limit exceeded. Please slow down.")
			continue
		}

		handle(data)
	}
}

// allow applies a fixed-window message rate limit
func (c *Client) allow() bool {
	c.rateMu.Lock()
	defer c.rateMu.Unlock()

	now := time.Now()
	if now.Sub(c.lastReset) > RateLimitWindow {
		c.messageCount = 0
		c.lastReset = now
	}
	c.messageCount++
	return c.messageCount <= MaxMessagesPerSecond
}

func (c *Client) sendError(message string) {
	frame, err := encode(models.EventError, models.MessageEvent{Message: message})
	if err != nil {
		return
	}
	c.Send(frame)
}
