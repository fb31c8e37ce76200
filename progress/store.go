/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package progress

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// StorageKey is the name the table is persisted under.
const StorageKey = "graduation-game-progress"

// Tracker is the operation set games and views depend on.
type Tracker interface {
	CompleteGame(year Year)
	FailGame(year Year)
	ResetGame(year Year)
	ResetAllGames()
	IsGameCompleted(year Year) bool
	GetAttempts(year Year) int
	Snapshot() Table
	Subscribe(fn func(Table)) (cancel func())
}

// Store is the session's single source of truth for game progress.
type Store struct {
	mu    sync.Mutex
	table Table

	storage    Storage
	persisting bool

	now     func() time.Time
	onError func(error)

	observers map[int]func(Table)
	nextID    int
}

var _ Tracker = (*Store)(nil)

type Option func(*Store)

// WithClock overrides the source of LastPlayed timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithErrorHandler receives load and persistence failures. None of them stop
// the store from working.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Store) {
		s.onError = fn
	}
}

// NewStore loads any table already saved in storage and returns a ready
// store. A nil storage keeps state in memory only.
func NewStore(storage Storage, opts ...Option) *Store {
	s := &Store{
		table:      NewTable(),
		storage:    storage,
		persisting: storage != nil,
		now:        time.Now,
		onError:    func(error) {},
		observers:  make(map[int]func(Table)),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.load()

	return s
}

func (s *Store) load() {
	if !s.persisting {
		return
	}

	data, ok, err := s.storage.Load(StorageKey)
	if err != nil {
		s.onError(fmt.Errorf("load progress: %w", err))
		return
	}
	if !ok {
		return
	}

	t, err := decodeTable(data)
	if err != nil {
		s.onError(fmt.Errorf("decode progress: %w", err))
		return
	}

	s.table = t
}

// CompleteGame marks year completed. Calling it again only moves LastPlayed.
func (s *Store) CompleteGame(year Year) {
	s.update(year, func(r Record, now time.Time) Record {
		r.Completed = true
		r.LastPlayed = &now
		return r
	})
}

// FailGame records one more failed attempt for year.
func (s *Store) FailGame(year Year) {
	s.update(year, func(r Record, now time.Time) Record {
		r.Attempts++
		r.LastPlayed = &now
		return r
	})
}

// ResetGame returns year to a zeroed record.
func (s *Store) ResetGame(year Year) {
	s.update(year, func(Record, time.Time) Record {
		return Record{}
	})
}

// ResetAllGames replaces the whole table with a zeroed one.
func (s *Store) ResetAllGames() {
	s.mu.Lock()
	s.table = NewTable()
	snap, err := s.commitLocked()
	s.mu.Unlock()

	s.report(err)
	s.notify(snap)
}

func (s *Store) IsGameCompleted(year Year) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.table[year].Completed
}

func (s *Store) GetAttempts(year Year) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.table[year].Attempts
}

// Snapshot returns a copy of the current table.
func (s *Store) Snapshot() Table {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.table.Clone()
}

// AnyCompleted reports whether at least one year is completed.
func (s *Store) AnyCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.table {
		if r.Completed {
			return true
		}
	}

	return false
}

// CompletedYears lists completed years in timeline order.
func (s *Store) CompletedYears() []Year {
	s.mu.Lock()
	defer s.mu.Unlock()

	years := make([]Year, 0, len(s.table))
	for y, r := range s.table {
		if r.Completed {
			years = append(years, y)
		}
	}
	sort.Slice(years, func(i, j int) bool { return years[i] < years[j] })

	return years
}

// Subscribe registers fn to be called with a snapshot after every change.
// Calls happen synchronously on the mutating goroutine.
func (s *Store) Subscribe(fn func(Table)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *Store) update(year Year, fn func(Record, time.Time) Record) {
	if !year.Valid() {
		return
	}

	s.mu.Lock()
	s.table[year] = fn(s.table[year], s.now().UTC())
	snap, err := s.commitLocked()
	s.mu.Unlock()

	s.report(err)
	s.notify(snap)
}

// commitLocked persists the table and returns the snapshot observers get.
// The first failed write switches the store to memory-only for good; its
// error is returned for the caller to report once s.mu is released.
func (s *Store) commitLocked() (Table, error) {
	snap := s.table.Clone()

	if !s.persisting {
		return snap, nil
	}

	data, err := encodeTable(snap)
	if err == nil {
		err = s.storage.Save(StorageKey, data)
	}
	if err != nil {
		s.persisting = false
		return snap, fmt.Errorf("persist progress: %w", err)
	}

	return snap, nil
}

func (s *Store) report(err error) {
	if err != nil {
		s.onError(err)
	}
}

func (s *Store) notify(snap Table) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.observers))
	for id := range s.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Table), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.observers[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap.Clone())
	}
}
