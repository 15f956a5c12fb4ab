package realtime

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/bridge"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Publisher sends a change notification to every instance (including this one).
type Publisher interface {
	PublishChange(ctx context.Context, n bridge.Notification) error
}

// RemoteSubscriber receives change notifications published by any instance.
type RemoteSubscriber interface {
	SubscribeChanges(handler func(bridge.Notification)) (cancel func(), err error)
}

// Hub fans change notifications out to in-process listeners and keeps surface_id ->
// websocket connections for pushing rendered views.
// With a Publisher configured, Notify only publishes; the remote subscription started by
// Start performs the single local delivery for every instance.
type Hub struct {
	surfaces  map[string]map[string]*Client
	listeners map[uint64]func(bridge.Notification)
	nextID    uint64
	mu        sync.RWMutex
	logger    *zap.Logger
	pub       Publisher
	sub       RemoteSubscriber
	cancelSub func()
}

// NewHub creates a hub. pub and sub may both be nil for a single-process deployment.
func NewHub(logger *zap.Logger, pub Publisher, sub RemoteSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		surfaces:  make(map[string]map[string]*Client),
		listeners: make(map[uint64]func(bridge.Notification)),
		logger:    logger,
		pub:       pub,
		sub:       sub,
	}
}

// Start attaches the remote subscription, if any.
func (h *Hub) Start() error {
	if h.sub == nil {
		return nil
	}
	cancel, err := h.sub.SubscribeChanges(h.deliver)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.cancelSub = cancel
	h.mu.Unlock()
	return nil
}

// Stop detaches the remote subscription.
func (h *Hub) Stop() {
	h.mu.Lock()
	cancel := h.cancelSub
	h.cancelSub = nil
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Notify broadcasts n. Publish failures are logged and fall back to local delivery.
func (h *Hub) Notify(ctx context.Context, n bridge.Notification) {
	if h.pub != nil {
		err := h.pub.PublishChange(ctx, n)
		if err == nil {
			return
		}
		h.logger.Warn("publish change failed, delivering locally", zap.String("key", n.Key), zap.Error(err))
	}
	h.deliver(n)
}

// Subscribe registers an in-process listener.
func (h *Hub) Subscribe(handler func(bridge.Notification)) (func(), error) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners[id] = handler
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.listeners, id)
		h.mu.Unlock()
	}, nil
}

func (h *Hub) deliver(n bridge.Notification) {
	h.mu.RLock()
	handlers := make([]func(bridge.Notification), 0, len(h.listeners))
	for _, fn := range h.listeners {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()
	for _, fn := range handlers {
		fn(n)
	}
}

// Register adds a websocket client to its surface.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.surfaces[c.SurfaceID] == nil {
		h.surfaces[c.SurfaceID] = make(map[string]*Client)
	}
	h.surfaces[c.SurfaceID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client attached to surface", zap.String("client_id", c.ID), zap.String("surface_id", c.SurfaceID))
}

// Unregister removes a websocket client from its surface.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.surfaces[c.SurfaceID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.surfaces, c.SurfaceID)
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client detached from surface", zap.String("client_id", c.ID), zap.String("surface_id", c.SurfaceID))
}

// BroadcastToSurface sends a message to every client watching surfaceID.
func (h *Hub) BroadcastToSurface(surfaceID string, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("marshal surface message", zap.String("event", event), zap.Error(err))
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.surfaces[surfaceID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// ClientCount returns the number of websocket clients watching surfaceID.
func (h *Hub) ClientCount(surfaceID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.surfaces[surfaceID])
}
