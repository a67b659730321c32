package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	expiresAt time.Time // zero value = never expires
	key       Key
	id        int64
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// Memory is an in-process lookup cache with TTL expiration and optional
// LRU eviction once a maximum entry count is reached.
type Memory struct {
	items    map[Key]*list.Element
	eviction *list.List
	opts     *memoryOptions
	done     chan struct{}
	mu       sync.Mutex
	closed   bool
}

// NewMemory creates an in-memory lookup cache.
//
// Example:
//
//	c := cache.NewMemory(
//	    cache.WithDefaultTTL(5 * time.Minute),
//	    cache.WithMaxEntries(10000),
//	)
//	defer c.Close()
func NewMemory(opts ...MemoryOption) *Memory {
	o := defaultMemoryOptions()
	for _, opt := range opts {
		opt(o)
	}

	m := &Memory{
		items:    make(map[Key]*list.Element),
		eviction: list.New(),
		opts:     o,
		done:     make(chan struct{}),
	}

	if o.cleanupInterval > 0 {
		go m.janitor()
	}

	return m
}

// Get returns the cached id and marks the key as recently used.
func (m *Memory) Get(_ context.Context, key Key) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return 0, ErrNotFound
	}

	e := elem.Value.(*memoryEntry)
	if e.expired(time.Now()) {
		m.remove(elem)
		return 0, ErrNotFound
	}

	m.eviction.MoveToFront(elem)
	return e.id, nil
}

// Set stores id under key.
func (m *Memory) Set(_ context.Context, key Key, id int64, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	if ttl == 0 {
		ttl = m.opts.defaultTTL
	}
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl)
	}

	if elem, ok := m.items[key]; ok {
		e := elem.Value.(*memoryEntry)
		e.id = id
		e.expiresAt = expiresAt
		m.eviction.MoveToFront(elem)
		return nil
	}

	if m.opts.maxEntries > 0 && len(m.items) >= m.opts.maxEntries {
		if oldest := m.eviction.Back(); oldest != nil {
			m.remove(oldest)
		}
	}

	m.items[key] = m.eviction.PushFront(&memoryEntry{key: key, id: id, expiresAt: expiresAt})
	return nil
}

// Delete removes keys.
func (m *Memory) Delete(_ context.Context, keys ...Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	for _, key := range keys {
		if elem, ok := m.items[key]; ok {
			m.remove(elem)
		}
	}
	return nil
}

// Purge removes every key of typ.
func (m *Memory) Purge(_ context.Context, typ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrClosed
	}

	for key, elem := range m.items {
		if key.Type == typ {
			m.remove(elem)
		}
	}
	return nil
}

// Len returns the number of stored entries, including expired ones the
// janitor has not removed yet.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the janitor. Close is idempotent.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil
	}

	m.closed = true
	close(m.done)
	return nil
}

func (m *Memory) janitor() {
	ticker := time.NewTicker(m.opts.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.deleteExpired()
		}
	}
}

func (m *Memory) deleteExpired() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	for elem := m.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if elem.Value.(*memoryEntry).expired(now) {
			m.remove(elem)
		}
		elem = prev
	}
}

// remove drops elem. Caller must hold the mutex.
func (m *Memory) remove(elem *list.Element) {
	m.eviction.Remove(elem)
	delete(m.items, elem.Value.(*memoryEntry).key)
}

var _ Cache = (*Memory)(nil)
