/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package progress

import (
	"errors"
	"sync"
)

// ErrQuotaExceeded is returned by a MemoryStorage whose quota is too small
// for a write.
var ErrQuotaExceeded = errors.New("session storage quota exceeded")

// Storage is a session-scoped key/value area. Implementations must be safe
// for concurrent use.
type Storage interface {
	Load(key string) ([]byte, bool, error)
	Save(key string, data []byte) error
}

// MemoryStorage keeps values for the lifetime of one browser session.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string][]byte
	quota int
}

// NewMemoryStorage returns an empty storage area. A quota of zero or less
// means unlimited.
func NewMemoryStorage(quota int) *MemoryStorage {
	return &MemoryStorage{
		items: make(map[string][]byte),
		quota: quota,
	}
}

func (m *MemoryStorage) Load(key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.items[key]
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(data))
	copy(out, data)

	return out, true, nil
}

func (m *MemoryStorage) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.quota > 0 {
		used := len(data)
		for k, v := range m.items {
			if k != key {
				used += len(v)
			}
		}
		if used > m.quota {
			return ErrQuotaExceeded
		}
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	m.items[key] = stored

	return nil
}
