// Package favorites keeps each user's set of favorite menu item ids.
package favorites

import (
	"context"
	"fmt"

	"github.com/imrishuroy/kitchen-orderflow/internal/kv"
)

// Store reads and writes user:<id>:favorites.
type Store struct {
	kv kv.Store
}

func NewStore(store kv.Store) *Store { return &Store{kv: store} }

func key(userID string) string { return "user:" + userID + ":favorites" }

// List returns the user's favorites in the order they were added. A user with
// none yields an empty, non-nil slice.
func (s *Store) List(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if _, err := kv.GetJSON(ctx, s.kv, key(userID), &ids); err != nil {
		return nil, fmt.Errorf("read favorites: %w", err)
	}
	if ids == nil {
		ids = []string{}
	}
	return ids, nil
}

// Add inserts itemID unless it is already present.
func (s *Store) Add(ctx context.Context, userID, itemID string) ([]string, error) {
	ids, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == itemID {
			return ids, nil
		}
	}
	ids = append(ids, itemID)
	if err := kv.SetJSON(ctx, s.kv, key(userID), ids); err != nil {
		return nil, fmt.Errorf("write favorites: %w", err)
	}
	return ids, nil
}

// Remove drops itemID; removing an absent id is not an error.
func (s *Store) Remove(ctx context.Context, userID, itemID string) ([]string, error) {
	ids, err := s.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != itemID {
			kept = append(kept, id)
		}
	}
	if err := kv.SetJSON(ctx, s.kv, key(userID), kept); err != nil {
		return nil, fmt.Errorf("write favorites: %w", err)
	}
	return kept, nil
}
