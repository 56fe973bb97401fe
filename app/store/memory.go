package store

import (
	"context"
	"sync"
	"time"
)

type memoryItem struct {
	value        string
	expiresAt    time.Time
	neverExpires bool
}

// Memory is an in-process Store with TTL support.
type Memory struct {
	mu    sync.RWMutex
	items map[string]*memoryItem
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

// NewMemory creates a Memory store and starts its periodic cleanup.
func NewMemory() *Memory {
	m := newMemory(time.Now)
	go m.startCleanup(5 * time.Minute)
	return m
}

func newMemory(now func() time.Time) *Memory {
	return &Memory{
		items: make(map[string]*memoryItem),
		now:   now,
		stop:  make(chan struct{}),
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, exists := m.items[key]
	if !exists {
		return "", false, nil
	}

	// Expired items stay until the cleanup goroutine removes them
	if !item.neverExpires && !m.now().Before(item.expiresAt) {
		return "", false, nil
	}

	return item.value, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = &memoryItem{value: value, neverExpires: true}
	return nil
}

func (m *Memory) SetWithExpire(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[key] = &memoryItem{value: value, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, key)
	return nil
}

// Size returns the number of stored items, including expired ones not yet
// cleaned up.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.items)
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *Memory) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for key, item := range m.items {
		if !item.neverExpires && !now.Before(item.expiresAt) {
			delete(m.items, key)
		}
	}
}
