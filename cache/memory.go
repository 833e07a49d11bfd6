package cache

import (
	"container/list"
	"context"
	"sync"
)

// Memory is a bounded LRU store.
type Memory struct {
	mu         sync.Mutex
	maxEntries int
	items      map[string]*list.Element
	evictList  *list.List
}

type memoryEntry struct {
	key   string
	value []byte
}

// NewMemory returns an LRU holding at most maxEntries values. A
// non-positive maxEntries means unbounded.
func NewMemory(maxEntries int) *Memory {
	return &Memory{
		maxEntries: maxEntries,
		items:      make(map[string]*list.Element),
		evictList:  list.New(),
	}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return nil, ErrNotFound
	}
	m.evictList.MoveToFront(el)

	value := el.Value.(*memoryEntry).value
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	data := make([]byte, len(value))
	copy(data, value)

	m.mu.Lock()
	defer m.mu.Unlock()

	if el, ok := m.items[key]; ok {
		el.Value.(*memoryEntry).value = data
		m.evictList.MoveToFront(el)
		return nil
	}

	m.items[key] = m.evictList.PushFront(&memoryEntry{key: key, value: data})
	for m.maxEntries > 0 && m.evictList.Len() > m.maxEntries {
		oldest := m.evictList.Back()
		m.evictList.Remove(oldest)
		delete(m.items, oldest.Value.(*memoryEntry).key)
	}
	return nil
}

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictList.Len()
}
