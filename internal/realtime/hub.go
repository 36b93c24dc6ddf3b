package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat, in seconds.
	PingInterval = 30
	PongWait     = 60
)

// Publisher publishes an event-scoped message for every instance.
type Publisher interface {
	PublishEvent(ctx context.Context, eventID uuid.UUID, kind string, payload []byte) error
}

// Subscriber delivers messages published for an event.
type Subscriber interface {
	SubscribeEvent(eventID uuid.UUID, handler func(kind string, payload []byte)) (cancel func(), err error)
}

// Hub maintains event_id -> set of connections and broadcasts messages.
// With Redis configured, messages go through pub/sub so every instance delivers them once.
type Hub struct {
	events    map[uuid.UUID]map[string]*Client
	subs      map[uuid.UUID]func()
	mu        sync.RWMutex
	logger    *zap.Logger
	publisher Publisher
	sub       Subscriber
}

// NewHub creates a new WebSocket hub. Both Redis sides may be nil for a single instance.
func NewHub(logger *zap.Logger, publisher Publisher, sub Subscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		events:    make(map[uuid.UUID]map[string]*Client),
		subs:      make(map[uuid.UUID]func()),
		logger:    logger,
		publisher: publisher,
		sub:       sub,
	}
}

// Register adds a client to an event room. The first client starts the Redis
// subscription; a room whose subscription failed retries it on the next join.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events[c.EventID] == nil {
		h.events[c.EventID] = make(map[string]*Client)
	}
	if h.sub != nil && h.subs[c.EventID] == nil {
		h.subscribe(c.EventID)
	}
	h.events[c.EventID][c.ID] = c
	h.logger.Debug("client joined event feed", zap.String("client_id", c.ID), zap.String("event_id", c.EventID.String()))
}

// subscribe must be called with h.mu held.
func (h *Hub) subscribe(eventID uuid.UUID) {
	cancel, err := h.sub.SubscribeEvent(eventID, func(kind string, payload []byte) {
		h.Broadcast(eventID, kind, json.RawMessage(payload))
	})
	if err != nil {
		h.logger.Warn("redis subscribe failed", zap.Error(err), zap.String("event_id", eventID.String()))
		return
	}
	h.subs[eventID] = cancel
}

// Unregister removes a client. The last client leaving cancels the subscription.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	m, ok := h.events[c.EventID]
	if !ok {
		return
	}
	if _, ok := m[c.ID]; !ok {
		return
	}
	delete(m, c.ID)
	close(c.send)
	if len(m) == 0 {
		delete(h.events, c.EventID)
		if cancel, ok := h.subs[c.EventID]; ok {
			cancel()
			delete(h.subs, c.EventID)
		}
	}
	h.logger.Debug("client left event feed", zap.String("client_id", c.ID), zap.String("event_id", c.EventID.String()))
}

// Broadcast sends a message to the local clients of an event.
func (h *Hub) Broadcast(eventID uuid.UUID, kind string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		var err error
		if data, err = json.Marshal(payload); err != nil {
			h.logger.Warn("broadcast marshal failed", zap.Error(err), zap.String("kind", kind))
			return
		}
	}
	msg := WSMessage{Event: kind, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.events[eventID] {
		select {
		case c.send <- msg:
		default:
			h.logger.Debug("client buffer full, message dropped", zap.String("client_id", c.ID))
		}
	}
}

// Notify delivers a change to every subscriber of the event. With Redis it publishes,
// and the subscription callback broadcasts on each instance, this one included.
// Local rooms without a live subscription are served directly.
func (h *Hub) Notify(ctx context.Context, eventID uuid.UUID, kind string, payload any) error {
	if h.publisher == nil {
		h.Broadcast(eventID, kind, payload)
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", kind, err)
	}
	h.mu.RLock()
	_, subscribed := h.subs[eventID]
	local := len(h.events[eventID])
	h.mu.RUnlock()
	if !subscribed && local > 0 {
		h.Broadcast(eventID, kind, json.RawMessage(data))
	}
	return h.publisher.PublishEvent(ctx, eventID, kind, data)
}

// Subscribers returns the number of local connections following an event.
func (h *Hub) Subscribers(eventID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events[eventID])
}
