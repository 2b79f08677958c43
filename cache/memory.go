package cache

import (
	"context"
	"sync"
	"time"
)

// Memory keeps states in process. A zero TTL never expires.
type Memory struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	state   ViewState
	expires time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, key string) (ViewState, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return ViewState{}, false, nil
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.entries, key)
		return ViewState{}, false, nil
	}
	return e.state, true, nil
}

func (m *Memory) Set(_ context.Context, key string, state ViewState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{state: state}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[key] = e
	return nil
}
