package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultSessionKey = "portal:session:user"

// RedisPersister stores the signed session token under a fixed Redis key,
// the portal's equivalent of the browser-local session item.
type RedisPersister struct {
	client *redis.Client
	key    string
}

// NewRedisPersister creates a Redis-backed session persister.
func NewRedisPersister(client *redis.Client) *RedisPersister {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	return &RedisPersister{client: client, key: defaultSessionKey}
}

// Save stores the token. The persisted session has no expiry; it lives
// until logout clears it.
func (p *RedisPersister) Save(ctx context.Context, token string) error {
	if err := p.client.Set(ctx, p.key, token, 0).Err(); err != nil {
		return fmt.Errorf("session: save token: %w", err)
	}
	return nil
}

// Load retrieves the stored token, or ErrNoSession when none exists.
func (p *RedisPersister) Load(ctx context.Context) (string, error) {
	token, err := p.client.Get(ctx, p.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("session: load token: %w", err)
	}
	return token, nil
}

// Clear removes the stored token.
func (p *RedisPersister) Clear(ctx context.Context) error {
	if err := p.client.Del(ctx, p.key).Err(); err != nil {
		return fmt.Errorf("session: clear token: %w", err)
	}
	return nil
}
