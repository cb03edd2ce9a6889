// Package cache provides a small key/value cache used for webhook
// deduplication and storefront settings.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("key not found")

// Provider stores string values with a TTL.
type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	// Claim sets key only if it is absent and reports whether it did.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Close() error
}

// claimValue marks a key taken by Claim whose work has not finished.
const claimValue = "in-progress"

type Config struct {
	Provider              string
	RedisConnectionString string
	RedisKeyPrefix        string
	MemorySize            int
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider(cfg.MemorySize)
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString, cfg.RedisKeyPrefix)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

func WebhookKey(source, eventID string) string {
	return fmt.Sprintf("webhook:%s:%s", source, eventID)
}

func SettingsKey(name string) string {
	return "settings:" + name
}

// GetJSON decodes a cached JSON value into T.
func GetJSON[T any](ctx context.Context, p Provider, key string) (T, error) {
	var out T
	raw, err := p.Get(ctx, key)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return out, fmt.Errorf("failed to decode cached value %s: %w", key, err)
	}
	return out, nil
}

func SetJSON(ctx context.Context, p Provider, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value %s: %w", key, err)
	}
	return p.Set(ctx, key, string(raw), ttl)
}
