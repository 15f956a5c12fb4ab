package surface

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/monitoring"
	"github.com/hapsayhub/backend/internal/worker"
)

// Config sets refresh cadence and idle reaping.
type Config struct {
	StaffInterval   time.Duration // organizer and admin
	VisitorInterval time.Duration
	IdleTimeout     time.Duration // 0 disables reaping
}

// Manager owns every open surface.
type Manager struct {
	catalog    Catalog
	subscriber bridge.Subscriber
	pusher     Pusher
	cfg        Config
	logger     *zap.Logger
	now        func() time.Time

	mu       sync.RWMutex
	surfaces map[string]*Surface
	reaper   *worker.Refresher
}

// NewManager creates a manager. subscriber and pusher may be nil.
func NewManager(catalog Catalog, subscriber bridge.Subscriber, pusher Pusher, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		catalog:    catalog,
		subscriber: subscriber,
		pusher:     pusher,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
		surfaces:   make(map[string]*Surface),
	}
}

// Start begins reaping idle surfaces.
func (m *Manager) Start() error {
	if m.cfg.IdleTimeout <= 0 {
		return nil
	}
	interval := m.cfg.IdleTimeout / 2
	if interval < time.Second {
		interval = time.Second
	}
	m.reaper = worker.NewRefresher(interval, func(context.Context, string) error {
		if n := m.ReapIdle(); n > 0 {
			m.logger.Info("reaped idle surfaces", zap.Int("count", n))
		}
		return nil
	}, m.logger)
	return m.reaper.Start()
}

// Stop closes every surface and stops reaping.
func (m *Manager) Stop() {
	if m.reaper != nil {
		m.reaper.Stop()
	}
	m.mu.RLock()
	ids := make([]string, 0, len(m.surfaces))
	for id := range m.surfaces {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	for _, id := range ids {
		_ = m.Close(id)
	}
}

// Open creates a surface, loads its first snapshot and attaches its timer and
// notification subscription.
func (m *Manager) Open(ctx context.Context, kind Kind) (*Surface, error) {
	if !ValidKind(kind) {
		return nil, &models.ValidationError{Field: "kind", Message: fmt.Sprintf("unknown surface kind %q", kind)}
	}
	s := newSurface(uuid.New().String(), kind, m.catalog, m.pusher, m.logger, m.now)
	if err := s.Refresh(ctx, worker.TriggerManual); err != nil {
		return nil, err
	}

	interval := m.cfg.StaffInterval
	if kind == KindVisitor {
		interval = m.cfg.VisitorInterval
	}
	s.refresher = worker.NewRefresher(interval, s.Refresh, s.logger)
	if err := s.refresher.Start(); err != nil {
		return nil, err
	}

	if m.subscriber != nil {
		cancel, err := m.subscriber.Subscribe(func(n bridge.Notification) {
			if s.watches(n.Key) {
				s.refresher.Request(worker.TriggerNotify)
			}
		})
		if err != nil {
			s.refresher.Stop()
			return nil, fmt.Errorf("subscribe surface: %w", err)
		}
		s.cancelSub = cancel
	}

	m.mu.Lock()
	m.surfaces[s.ID] = s
	n := len(m.surfaces)
	m.mu.Unlock()
	monitoring.SetOpenSurfaces(n)
	s.logger.Info("surface opened")
	return s, nil
}

// Get returns an open surface and marks it as seen.
func (m *Manager) Get(id string) (*Surface, error) {
	m.mu.RLock()
	s, ok := m.surfaces[id]
	m.mu.RUnlock()
	if !ok {
		return nil, models.ErrNotFound
	}
	s.touch()
	return s, nil
}

// Exists reports whether id is an open surface.
func (m *Manager) Exists(id string) bool {
	_, err := m.Get(id)
	return err == nil
}

// Close stops the surface's timer and subscription and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.surfaces[id]
	delete(m.surfaces, id)
	n := len(m.surfaces)
	m.mu.Unlock()
	if !ok {
		return models.ErrNotFound
	}
	if s.cancelSub != nil {
		s.cancelSub()
	}
	if s.refresher != nil {
		s.refresher.Stop()
	}
	monitoring.SetOpenSurfaces(n)
	s.logger.Info("surface closed")
	return nil
}

// Count returns the number of open surfaces.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.surfaces)
}

// ReapIdle closes surfaces not seen within the idle timeout and returns how many.
func (m *Manager) ReapIdle() int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.cfg.IdleTimeout)
	m.mu.RLock()
	var idle []string
	for id, s := range m.surfaces {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	m.mu.RUnlock()
	for _, id := range idle {
		_ = m.Close(id)
	}
	return len(idle)
}

// clientMessage is the payload of websocket list commands.
type clientMessage struct {
	View  View   `json:"view"`
	Value string `json:"value"`
	Delta int    `json:"delta"`
}

// HandleClientMessage applies a websocket command to a surface and pushes the result.
func (m *Manager) HandleClientMessage(surfaceID, event string, data json.RawMessage) {
	s, err := m.Get(surfaceID)
	if err != nil {
		return
	}
	if event == "refresh" {
		s.refresher.Request(worker.TriggerManual)
		return
	}

	var msg clientMessage
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			s.logger.Debug("ignore malformed client message", zap.String("event", event), zap.Error(err))
			return
		}
	}
	var p Params
	switch event {
	case "step":
		p.Step = msg.Delta
	case "search":
		p.Search = &msg.Value
	case "filter":
		p.Filter = &msg.Value
	default:
		return
	}
	page, err := s.Render(msg.View, p)
	if err != nil {
		s.logger.Debug("client message rejected", zap.String("view", string(msg.View)), zap.Error(err))
		return
	}
	if m.pusher != nil {
		m.pusher.BroadcastToSurface(surfaceID, "render", map[string]interface{}{"view": msg.View, "page": page})
	}
}
