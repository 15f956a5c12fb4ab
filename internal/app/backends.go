// Package app opens the shared medium, the sync channel and the record bridges
// used by both the API server and the monitor.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hapsayhub/backend/config"
	"github.com/hapsayhub/backend/internal/bridge"
	"github.com/hapsayhub/backend/internal/models"
	"github.com/hapsayhub/backend/internal/realtime"
	"github.com/hapsayhub/backend/internal/store"
	"github.com/hapsayhub/backend/internal/surface"
	"github.com/hapsayhub/backend/pkg/database"
	"github.com/hapsayhub/backend/pkg/redis"
)

// Backends holds the opened connections.
type Backends struct {
	Medium store.Medium
	Redis  *redis.Client // nil without REDIS_ADDR
	Pool   *pgxpool.Pool // nil unless STORE_DRIVER=postgres
	logger *zap.Logger
}

// Open connects the configured medium. Redis is connected whenever an address is
// configured so that notifications cross process boundaries.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Backends, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backends{logger: logger}

	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			return nil, err
		}
		b.Redis = rdb
	}

	switch cfg.Store.Driver {
	case config.DriverRedis:
		if b.Redis == nil {
			return nil, fmt.Errorf("redis medium requires REDIS_ADDR")
		}
		b.Medium = store.NewRedisMedium(b.Redis.Client)
	case config.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns), logger)
		if err != nil {
			b.Close()
			return nil, err
		}
		b.Pool = pool
		if err := database.Migrate(ctx, pool, logger); err != nil {
			b.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		b.Medium = store.NewPostgresMedium(pool)
	default:
		b.Medium = store.NewMemoryMedium()
	}
	logger.Info("document store ready", zap.String("driver", cfg.Store.Driver))
	return b, nil
}

// Close releases every connection.
func (b *Backends) Close() {
	if b.Pool != nil {
		b.Pool.Close()
	}
	if b.Redis != nil {
		if err := b.Redis.Close(); err != nil {
			b.logger.Warn("redis close", zap.Error(err))
		}
	}
}

// NewHub builds the notification hub, publishing through Redis when connected.
func (b *Backends) NewHub() *realtime.Hub {
	if b.Redis == nil {
		return realtime.NewHub(b.logger, nil, nil)
	}
	ps := realtime.NewRedisPubSub(b.Redis.Client, b.logger)
	return realtime.NewHub(b.logger, ps, ps)
}

// Catalog is every record bridge in the system.
type Catalog struct {
	Events     *bridge.Bridge[models.Event]
	Attendees  *bridge.Bridge[models.Attendee]
	Categories *bridge.Bridge[string]
	Users      *bridge.Bridge[models.User]
	Roles      *bridge.Bridge[string]
}

// NewCatalog wires a bridge per key over medium. notifier may be nil.
func NewCatalog(medium store.Medium, notifier bridge.Notifier, logger *zap.Logger) Catalog {
	return Catalog{
		Events:     bridge.New(store.New(medium, store.KeyEvents, models.EventKey), notifier, logger),
		Attendees:  bridge.New(store.New(medium, store.KeyAttendees, models.AttendeeKey), notifier, logger),
		Categories: bridge.New(store.New(medium, store.KeyCategories, models.CategoryKey), notifier, logger),
		Users:      bridge.New(store.New(medium, store.KeyUsers, models.UserKey), notifier, logger),
		Roles:      bridge.New(store.New(medium, store.KeyRoles, models.CategoryKey), notifier, logger),
	}
}

// Surfaces returns the subset a surface reads.
func (c Catalog) Surfaces() surface.Catalog {
	return surface.Catalog{
		Events:     c.Events,
		Attendees:  c.Attendees,
		Users:      c.Users,
		Categories: c.Categories,
	}
}

// SurfaceConfig converts sync settings.
func SurfaceConfig(cfg config.SyncConfig) surface.Config {
	return surface.Config{
		StaffInterval:   cfg.StaffInterval(),
		VisitorInterval: cfg.VisitorInterval(),
		IdleTimeout:     cfg.IdleTimeout(),
	}
}

// UseTimezone sets the process-wide local zone. Event dates and times are wall-clock
// values in the venue timezone and status evaluation reads them in time.Local.
func UseTimezone(cfg config.ServerConfig) (*time.Location, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	time.Local = loc
	return loc, nil
}
