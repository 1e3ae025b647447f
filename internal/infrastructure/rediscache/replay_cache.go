// Package rediscache atajo de reenvíos del ledger sobre Redis.
package rediscache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-scan/internal/application/ledger"
	"github.com/jhoicas/inventario-scan/pkg/config"
)

var _ ledger.ReplayCache = (*ReplayCache)(nil)

const keyPrefix = "ledger:idem:"

// ReplayCache guarda llave de idempotencia -> id de movimiento con TTL.
type ReplayCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewClient abre el cliente y verifica la conexión.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewReplayCache construye el caché. ttl <= 0 = sin expiración.
func NewReplayCache(client redis.Cmdable, ttl time.Duration) *ReplayCache {
	if ttl < 0 {
		ttl = 0
	}
	return &ReplayCache{client: client, ttl: ttl}
}

// Get devuelve ok=false si la llave no está.
func (c *ReplayCache) Get(ctx context.Context, key string) (string, bool, error) {
	id, err := c.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get: %w", err)
	}
	return id, true, nil
}

// Put no sobrescribe: la primera asociación llave -> movimiento es la definitiva.
func (c *ReplayCache) Put(ctx context.Context, key, movementID string) error {
	if err := c.client.SetNX(ctx, keyPrefix+key, movementID, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	return nil
}
