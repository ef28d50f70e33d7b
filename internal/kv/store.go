// Package kv is the persistence layer: a namespaced string-to-string map with
// native list values for order indices.
package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is the key-value contract every component persists through.
//
// Values set with Set are opaque strings (JSON in practice). Lists managed by
// Append/Members live beside the value under the same key and are appended
// atomically by the backend, so concurrent appends never lose members.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	// GetMany returns the values that exist; missing keys are absent from the map.
	GetMany(ctx context.Context, keys []string) (map[string]string, error)
	// Set overwrites the value. An expiry set by SetIfAbsent is kept.
	Set(ctx context.Context, key, value string) error
	// SetIfAbsent writes only when key has no live value. ttl <= 0 means no expiry.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	Delete(ctx context.Context, key string) error
	Append(ctx context.Context, key, member string) error
	Members(ctx context.Context, key string) ([]string, error)
}

// GetJSON decodes the value at key into out. It reports false when the key is absent.
func GetJSON(ctx context.Context, s Store, key string, out interface{}) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}
