// internal/domain/cart/store.go
package cart

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vision-studio/storefront-backend/internal/config"
)

// Store persists session carts
type Store interface {
	Load(ctx context.Context, sessionID string) (*SessionCart, error)
	Save(ctx context.Context, cart *SessionCart) error
	Delete(ctx context.Context, sessionID string) error
}

// RedisStore stores session carts as JSON in Redis with a sliding TTL
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new Redis-backed cart store
func NewRedisStore(client *redis.Client, cfg *config.Config) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    cfg.Cart.SessionTTL,
	}
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:session:%s", sessionID)
}

// Load retrieves the cart for a session, returning a fresh empty cart when
// none exists
func (s *RedisStore) Load(ctx context.Context, sessionID string) (*SessionCart, error) {
	data, err := s.client.Get(ctx, cartKey(sessionID)).Result()
	if err == redis.Nil {
		now := time.Now().UTC()
		return &SessionCart{
			SessionID: sessionID,
			Items:     []LineItem{},
			CreatedAt: now,
			UpdatedAt: now,
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	var cart SessionCart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []LineItem{}
	}
	return &cart, nil
}

// Save writes the cart back, refreshing the session TTL
func (s *RedisStore) Save(ctx context.Context, cart *SessionCart) error {
	cart.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKey(cart.SessionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

// Delete removes the cart for a session
func (s *RedisStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
