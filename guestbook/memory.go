/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guestbook

import (
	"context"
	"sort"
	"sync"
)

type MemoryBackend struct {
	mu      sync.RWMutex
	entries []Entry
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

func (m *MemoryBackend) Add(ctx context.Context, e Entry) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, e)

	return e, nil
}

func (m *MemoryBackend) List(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	m.mu.RUnlock()

	sortNewestFirst(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out, nil
}

func (m *MemoryBackend) Close() error {
	return nil
}

// ULIDs sort by creation time, so they break timestamp ties.
func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].CreatedAt.After(entries[j].CreatedAt)
		}
		return entries[i].ID > entries[j].ID
	})
}
