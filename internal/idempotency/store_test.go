package idempotency

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/imrishuroy/kitchen-orderflow/internal/kv"
)

func TestBegin_ThenReplay(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory(), 0)

	rec, created, err := s.Begin(ctx, "u1", "k-1")
	if err != nil || !created || rec != nil {
		t.Fatalf("expected fresh reservation, got rec=%v created=%v err=%v", rec, created, err)
	}

	rec, created, err = s.Begin(ctx, "u1", "k-1")
	if err != nil || created {
		t.Fatalf("expected existing record, got created=%v err=%v", created, err)
	}
	if rec.Status != StatusInProgress {
		t.Fatalf("expected in progress, got %s", rec.Status)
	}

	if err := s.Complete(ctx, "u1", "k-1", "order:1:u1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	rec, created, err = s.Begin(ctx, "u1", "k-1")
	if err != nil || created {
		t.Fatalf("expected replay, got created=%v err=%v", created, err)
	}
	if rec.Status != StatusDone || rec.OrderKey != "order:1:u1" {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestBegin_KeysAreScopedPerUser(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory(), 0)

	if _, created, _ := s.Begin(ctx, "u1", "same"); !created {
		t.Fatal("u1 should reserve")
	}
	if _, created, _ := s.Begin(ctx, "u2", "same"); !created {
		t.Fatal("u2 should reserve the same client key independently")
	}
}

func TestRelease_AllowsRetry(t *testing.T) {
	ctx := context.Background()
	s := NewStore(kv.NewMemory(), 0)

	if _, created, _ := s.Begin(ctx, "u1", "k"); !created {
		t.Fatal("expected reservation")
	}
	if err := s.Release(ctx, "u1", "k"); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, created, err := s.Begin(ctx, "u1", "k"); err != nil || !created {
		t.Fatalf("expected new reservation after release, got %v %v", created, err)
	}
}

func TestBegin_InvalidKey(t *testing.T) {
	s := NewStore(kv.NewMemory(), 0)
	for _, k := range []string{"", strings.Repeat("x", MaxKeyLength+1)} {
		if _, _, err := s.Begin(context.Background(), "u1", k); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("expected ErrInvalidKey for %d-byte key, got %v", len(k), err)
		}
	}
}
