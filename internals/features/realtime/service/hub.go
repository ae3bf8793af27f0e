// file: internals/features/realtime/service/hub.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"schoolfee_backend/internals/metrics"
)

const DefaultClientBuffer = 16

var ErrHubClosed = errors.New("realtime hub closed")

// Audience is implemented by payloads that belong to one student.
type Audience interface {
	AudienceStudentID() uuid.UUID
}

// Envelope is the frame written to every websocket and to the redis channel.
type Envelope struct {
	Event     string          `json:"event"`
	StudentID *uuid.UUID      `json:"studentId,omitempty"`
	Data      json.RawMessage `json:"data"`
	At        time.Time       `json:"at"`
}

func NewEnvelope(event string, payload any) (Envelope, error) {
	data, err := sonic.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	env := Envelope{Event: event, Data: data, At: time.Now().UTC()}
	if a, ok := payload.(Audience); ok {
		if sid := a.AudienceStudentID(); sid != uuid.Nil {
			env.StudentID = &sid
		}
	}
	return env, nil
}

/* =========================================================
   Client
========================================================= */

type Client struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Admin     bool
	StudentID *uuid.UUID

	send chan []byte
}

// Send is closed by the hub when the client is removed.
func (c *Client) Send() <-chan []byte { return c.send }

func (c *Client) wants(env Envelope) bool {
	if c.Admin {
		return true
	}
	// event tanpa student hanya untuk admin
	if env.StudentID == nil || c.StudentID == nil {
		return false
	}
	return *c.StudentID == *env.StudentID
}

/* =========================================================
   Hub
========================================================= */

type Hub struct {
	log    *zap.Logger
	buffer int

	mu      sync.RWMutex
	clients map[uuid.UUID]*Client
	closed  bool
}

func NewHub(log *zap.Logger, buffer int) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	if buffer <= 0 {
		buffer = DefaultClientBuffer
	}
	return &Hub{log: log, buffer: buffer, clients: map[uuid.UUID]*Client{}}
}

func (h *Hub) Subscribe(userID uuid.UUID, admin bool, studentID *uuid.UUID) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, ErrHubClosed
	}
	c := &Client{
		ID:        uuid.New(),
		UserID:    userID,
		Admin:     admin,
		StudentID: studentID,
		send:      make(chan []byte, h.buffer),
	}
	h.clients[c.ID] = c
	metrics.RealtimeClients.Inc()
	h.log.Debug("realtime client registered",
		zap.String("client_id", c.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Bool("admin", admin))
	return c, nil
}

func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c.ID)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Broadcast satisfies the fee notifier's realtime channel.
func (h *Hub) Broadcast(_ context.Context, event string, payload any) error {
	env, err := NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	return h.Deliver(env)
}

// Deliver fans the envelope out without blocking; a client whose buffer is full is dropped.
func (h *Hub) Deliver(env Envelope) error {
	frame, err := sonic.Marshal(env)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrHubClosed
	}
	for id, c := range h.clients {
		if !c.wants(env) {
			continue
		}
		select {
		case c.send <- frame:
		default:
			h.log.Warn("realtime client too slow, dropping",
				zap.String("client_id", id.String()),
				zap.String("event", env.Event))
			metrics.RealtimeDropped.Inc()
			h.removeLocked(id)
		}
	}
	return nil
}

// Close disconnects everyone; later Subscribe / Deliver return ErrHubClosed.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id := range h.clients {
		h.removeLocked(id)
	}
	h.closed = true
}

func (h *Hub) removeLocked(id uuid.UUID) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	delete(h.clients, id)
	close(c.send)
	metrics.RealtimeClients.Dec()
}
