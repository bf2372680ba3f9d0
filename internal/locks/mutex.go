package locks

import (
	"context"
	"sync"
)

// KeyedMutex is the in-process KeyedLock. Entries are refcounted and dropped
// from the map once the last waiter releases, so idle keys cost nothing.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*mutexEntry
}

type mutexEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*mutexEntry)}
}

func (m *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	entry, ok := m.entries[key]
	if !ok {
		entry = &mutexEntry{sem: make(chan struct{}, 1)}
		m.entries[key] = entry
	}
	entry.refs++
	m.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		var once sync.Once
		release := func() {
			once.Do(func() {
				<-entry.sem
				m.unref(key, entry)
			})
		}
		return release, nil
	case <-ctx.Done():
		m.unref(key, entry)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) unref(key string, entry *mutexEntry) {
	m.mu.Lock()
	entry.refs--
	if entry.refs <= 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}
