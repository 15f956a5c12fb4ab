package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hapsayhub/backend/internal/bridge"
)

const (
	// SyncChannel carries change notifications between instances.
	SyncChannel = "hh:sync"
	publishTTL  = 5 * time.Second
)

// redisPayload is the message published to Redis for cross-instance broadcast.
type redisPayload struct {
	Key string `json:"key"`
	At  int64  `json:"at"`
}

// RedisPubSub implements Publisher and RemoteSubscriber using Redis pub/sub.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
	now    func() time.Time
}

// NewRedisPubSub creates a Redis pub/sub bridge for change notifications.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisPubSub{client: client, logger: logger, now: time.Now}
}

// PublishChange publishes n on SyncChannel.
func (r *RedisPubSub) PublishChange(ctx context.Context, n bridge.Notification) error {
	body, err := json.Marshal(redisPayload{Key: n.Key, At: r.now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, publishTTL)
	defer cancel()
	return r.client.Publish(ctx, SyncChannel, string(body)).Err()
}

// SubscribeChanges subscribes to SyncChannel and calls handler for each message.
// Returns a cancel function to stop the subscription.
func (r *RedisPubSub) SubscribeChanges(handler func(bridge.Notification)) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, SyncChannel)
	if _, err = pubsub.Receive(ctx); err != nil {
		cancelCtx()
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				n, err := decodeChange(msg.Payload)
				if err != nil {
					r.logger.Warn("drop malformed sync message", zap.Error(err))
					continue
				}
				handler(n)
			}
		}
	}()
	return cancelCtx, nil
}

func decodeChange(payload string) (bridge.Notification, error) {
	var p redisPayload
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		return bridge.Notification{}, err
	}
	if p.Key == "" {
		return bridge.Notification{}, fmt.Errorf("sync message without key")
	}
	return bridge.Notification{Key: p.Key}, nil
}
