// Package idempotency deduplicates order creation per user and client-supplied key.
package idempotency

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/imrishuroy/kitchen-orderflow/internal/kv"
)

// ErrInvalidKey means the client key is empty or too long.
var ErrInvalidKey = errors.New("invalid idempotency key")

// Store keeps idempotency records in the key-value store.
type Store struct {
	kv      kv.Store
	ttl     time.Duration
	nowFunc func() time.Time
}

// NewStore returns a Store whose records expire after ttl (DefaultTTL when <= 0).
func NewStore(store kv.Store, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{kv: store, ttl: ttl, nowFunc: time.Now}
}

// RecordKey is the key-value entry for one user's client key.
func RecordKey(userID, key string) string { return "idem:" + userID + ":" + key }

// Begin reserves key for userID. It returns (nil, true, nil) when the caller now
// owns the key and should create the order. Otherwise the existing record is
// returned with created=false.
func (s *Store) Begin(ctx context.Context, userID, key string) (*Record, bool, error) {
	if key == "" || len(key) > MaxKeyLength {
		return nil, false, ErrInvalidKey
	}
	now := s.nowFunc().UTC()
	rec := Record{Status: StatusInProgress, CreatedAt: now, UpdatedAt: now}
	raw, err := encode(rec)
	if err != nil {
		return nil, false, err
	}

	// the existing record can expire between the conditional write and the read
	for attempt := 0; attempt < 2; attempt++ {
		created, err := s.kv.SetIfAbsent(ctx, RecordKey(userID, key), raw, s.ttl)
		if err != nil {
			return nil, false, fmt.Errorf("reserve idempotency key: %w", err)
		}
		if created {
			return nil, true, nil
		}
		var existing Record
		ok, err := kv.GetJSON(ctx, s.kv, RecordKey(userID, key), &existing)
		if err != nil {
			return nil, false, fmt.Errorf("get idempotency record: %w", err)
		}
		if ok {
			return &existing, false, nil
		}
	}
	return nil, false, fmt.Errorf("reserve idempotency key %q: record vanished", key)
}

// Complete marks the reservation done and remembers the created order key.
// The expiry set by Begin is kept.
func (s *Store) Complete(ctx context.Context, userID, key, orderKey string) error {
	var rec Record
	ok, err := kv.GetJSON(ctx, s.kv, RecordKey(userID, key), &rec)
	if err != nil {
		return fmt.Errorf("get idempotency record: %w", err)
	}
	if !ok {
		rec.CreatedAt = s.nowFunc().UTC()
	}
	rec.Status = StatusDone
	rec.OrderKey = orderKey
	rec.UpdatedAt = s.nowFunc().UTC()
	if err := kv.SetJSON(ctx, s.kv, RecordKey(userID, key), rec); err != nil {
		return fmt.Errorf("mark done: %w", err)
	}
	return nil
}

// Release drops a reservation whose order was never created, so the client can retry.
func (s *Store) Release(ctx context.Context, userID, key string) error {
	if err := s.kv.Delete(ctx, RecordKey(userID, key)); err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}

func encode(rec Record) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(b), nil
}
