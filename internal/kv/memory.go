package kv

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	value     string
	hasValue  bool
	members   []string
	expiresAt time.Time
}

// Memory is an in-process Store for local runs and tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*memEntry
	nowFunc func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]*memEntry),
		nowFunc: time.Now,
	}
}

// live returns the entry at key unless it has expired. Callers hold mu.
func (m *Memory) live(key string) *memEntry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !m.nowFunc().Before(e.expiresAt) {
		return nil
	}
	return e
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.live(key)
	if e == nil || !e.hasValue {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *Memory) GetMany(_ context.Context, keys []string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if e := m.live(k); e != nil && e.hasValue {
			out[k] = e.value
		}
	}
	return out, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e == nil {
		e = &memEntry{}
		m.entries[key] = e
	}
	e.value, e.hasValue = value, true
	return nil
}

func (m *Memory) SetIfAbsent(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.live(key) != nil {
		return false, nil
	}
	e := &memEntry{value: value, hasValue: true}
	if ttl > 0 {
		e.expiresAt = m.nowFunc().Add(ttl)
	}
	m.entries[key] = e
	return true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

func (m *Memory) Append(_ context.Context, key, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.live(key)
	if e == nil {
		e = &memEntry{}
		m.entries[key] = e
	}
	e.members = append(e.members, member)
	return nil
}

func (m *Memory) Members(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e := m.live(key)
	if e == nil || len(e.members) == 0 {
		return nil, nil
	}
	out := make([]string, len(e.members))
	copy(out, e.members)
	return out, nil
}
