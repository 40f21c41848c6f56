// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/danielhkuo/livepoll/auth"
	"github.com/danielhkuo/livepoll/cliparse"
	"github.com/danielhkuo/livepoll/middleware"
	"github.com/danielhkuo/livepoll/models"
	"github.com/danielhkuo/livepoll/room"
)

// Coordinator is the session engine behind the inbound events
type Coordinator interface {
	Join(ctx context.Context, code, connID, identifier string) (models.SessionJoinedEvent, error)
	Leave(ctx context.Context, code, connID string, participantID int64) error
	Disconnect(ctx context.Context, connID string)
	MonitorJoin(ctx context.Context, code, connID string, who models.Identity) error
	SubmitVote(ctx context.Context, pollID, participantID int64, answer string) (models.Vote, error)
}

// Registry is the connection side of the room registry
type Registry interface {
	Register(c room.Conn) error
	Unregister(connID string) []string
	EmitToConnection(connID, event string, payload any) bool
}

type Handler struct {
	coord Coordinator
	reg   Registry
	cfg   cliparse.Config
}

func NewHandler(coord Coordinator, reg Registry, cfg cliparse.Config) *Handler {
	return &Handler{coord: coord, reg: reg, cfg: cfg}
}

// ServeHTTP handles GET /ws. The connection lives until the client goes
// away or the registry is closed.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	who := h.identify(r)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", middleware.GetClientIP(r), "error", err)
		return
	}

	client := newClient(context.Background(), auth.NewConnectionID(), conn, who)
	if err := h.reg.Register(client); err != nil {
		slog.Warn("connection rejected", "error", err)
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	slog.Info("client connected", "conn_id", client.ID(), "remote", middleware.GetClientIP(r), "owner_id", who.UserID)

	go client.writePump()
	h.reg.EmitToConnection(client.ID(), models.EventConnected, models.MessageEvent{Message: models.MessageConnected})

	client.readPump(func(data []byte) {
		h.dispatch(client.ctx, client.ID(), client.who, data)
	})

	// Disconnect runs after the read loop ends, so it needs its own context
	h.coord.Disconnect(context.Background(), client.ID())
	h.reg.Unregister(client.ID())
	client.Close()
	slog.Info("client disconnected", "conn_id", client.ID())
}

// identify resolves the presenter identity, if any. Browsers cannot set
// headers on a WebSocket handshake, so query parameters are accepted too.
func (h *Handler) identify(r *http.Request) models.Identity {
	q := r.URL.Query()
	for header, param := range map[string]string{
		middleware.OwnerIDHeader:   "owner_id",
		middleware.OwnerNameHeader: "owner_name",
		middleware.OwnerKeyHeader:  "owner_key",
	} {
		if r.Header.Get(header) == "" && q.Get(param) != "" {
			r.Header.Set(header, q.Get(param))
		}
	}

	if r.Header.Get(middleware.OwnerIDHeader) == "" {
		return models.Identity{}
	}
	who, err := middleware.Identify(r, h.cfg)
	if err != nil {
		slog.Warn("ignoring invalid presenter identity", "error", err)
		return models.Identity{}
	}
	return who
}

// inbound is a client frame with its payload left undecoded
type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// dispatch routes one inbound frame to the coordinator. Failures are
// unicast back to the sender as an error event.
func (h *Handler) dispatch(ctx context.Context, connID string, who models.Identity, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		h.replyError(connID, "Invalid message")
		return
	}

	switch msg.Type {
	case models.EventJoinSession:
		var p models.JoinSessionPayload
		if !h.decode(connID, msg.Payload, &p) {
			return
		}
		if _, err := h.coord.Join(ctx, p.SessionCode, connID, p.ParticipantIdentifier); err != nil {
			h.fail(connID, msg.Type, err)
		}

	case models.EventAdminJoin:
		var p models.AdminJoinPayload
		if !h.decode(connID, msg.Payload, &p) {
			return
		}
		if err := h.coord.MonitorJoin(ctx, p.SessionCode, connID, who); err != nil {
			h.fail(connID, msg.Type, err)
		}

	case models.EventLeaveSession:
		var p models.LeaveSessionPayload
		if !h.decode(connID, msg.Payload, &p) {
			return
		}
		if err := h.coord.Leave(ctx, p.SessionCode, connID, p.ParticipantID); err != nil {
			h.fail(connID, msg.Type, err)
		}

	case models.EventSubmitVote:
		var p models.SubmitVoteRequest
		if !h.decode(connID, msg.Payload, &p) {
			return
		}
		if _, err := h.coord.SubmitVote(ctx, p.PollID, p.ParticipantID, p.Answer); err != nil {
			h.fail(connID, msg.Type, err)
		}

	default:
		h.replyError(connID, "Unknown event: "+msg.Type)
	}
}

func (h *Handler) decode(connID string, payload json.RawMessage, v any) bool {
	if len(payload) == 0 {
		h.replyError(connID, "Missing payload")
		return false
	}
	if err := json.Unmarshal(payload, v); err != nil {
		h.replyError(connID, "Invalid payload")
		return false
	}
	return true
}

func (h *Handler) fail(connID, event string, err error) {
	status, message := middleware.StatusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("event failed", "event", event, "conn_id", connID, "error", err)
	}
	h.replyError(connID, message)
}

func (h *Handler) replyError(connID, message string) {
	h.reg.EmitToConnection(connID, models.EventError, models.MessageEvent{Message: message})
}

func encode(event string, payload any) ([]byte, error) {
	return json.Marshal(models.WSMessage{Type: event, Payload: payload})
}
