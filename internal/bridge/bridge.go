// Package bridge pairs every catalog write with a change notification so that all
// attached surfaces re-read the shared medium.
package bridge

import (
	"context"

	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/monitoring"
	"github.com/hapsayhub/backend/internal/store"
)

// Notification tells surfaces that the document under Key changed. It carries no
// record data; receivers re-read whatever keys they display.
type Notification struct {
	Key string `json:"key"`
}

// Notifier broadcasts notifications. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Subscriber delivers notifications to handler until cancel is called.
type Subscriber interface {
	Subscribe(handler func(Notification)) (cancel func(), err error)
}

// Bridge wraps a RecordStore with a broadcast after every mutation.
type Bridge[T any] struct {
	store    *store.RecordStore[T]
	notifier Notifier
	logger   *zap.Logger
}

// New creates a bridge. A nil notifier disables broadcasting.
func New[T any](s *store.RecordStore[T], notifier Notifier, logger *zap.Logger) *Bridge[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bridge[T]{store: s, notifier: notifier, logger: logger}
}

// Key returns the underlying document key.
func (b *Bridge[T]) Key() string { return b.store.Key() }

// ReadAll returns every record. It never broadcasts.
func (b *Bridge[T]) ReadAll(ctx context.Context) ([]T, error) {
	return b.store.ReadAll(ctx)
}

// Find returns one record by identity.
func (b *Bridge[T]) Find(ctx context.Context, id string) (T, error) {
	return b.store.Find(ctx, id)
}

// Save upserts rec and broadcasts.
func (b *Bridge[T]) Save(ctx context.Context, rec T) error {
	err := b.store.Upsert(ctx, rec)
	monitoring.TrackWrite(b.store.Key(), "upsert", err)
	if err != nil {
		return err
	}
	b.broadcast(ctx)
	return nil
}

// Replace swaps the record at oldID for rec and broadcasts.
func (b *Bridge[T]) Replace(ctx context.Context, oldID string, rec T) error {
	err := b.store.Replace(ctx, oldID, rec)
	monitoring.TrackWrite(b.store.Key(), "replace", err)
	if err != nil {
		return err
	}
	b.broadcast(ctx)
	return nil
}

// Delete removes the record with id and broadcasts, even when nothing was removed.
func (b *Bridge[T]) Delete(ctx context.Context, id string) error {
	err := b.store.Delete(ctx, id)
	monitoring.TrackWrite(b.store.Key(), "delete", err)
	if err != nil {
		return err
	}
	b.broadcast(ctx)
	return nil
}

func (b *Bridge[T]) broadcast(ctx context.Context) {
	if b.notifier == nil {
		return
	}
	n := Notification{Key: b.store.Key()}
	b.notifier.Notify(ctx, n)
	monitoring.TrackBroadcast(n.Key)
	b.logger.Debug("catalog change broadcast", zap.String("key", n.Key))
}
