package store

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisMedium stores each document as a plain Redis string.
type RedisMedium struct {
	client redis.Cmdable
}

// NewRedisMedium creates a medium backed by client.
func NewRedisMedium(client redis.Cmdable) *RedisMedium {
	return &RedisMedium{client: client}
}

// Get returns the document under key; a missing key is not an error.
func (m *RedisMedium) Get(ctx context.Context, key string) ([]byte, bool, error) {
	doc, err := m.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return doc, true, nil
}

// Set overwrites the document under key with no expiry.
func (m *RedisMedium) Set(ctx context.Context, key string, doc []byte) error {
	return m.client.Set(ctx, key, string(doc), 0).Err()
}
