/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package guestbook is an append-only feed of visitor notes. Entries are
// listed newest first and every change is pushed to live subscribers.
package guestbook

import (
	"context"
	"errors"
	"fmt"
	"html"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"
	"golang.org/x/text/unicode/norm"
)

const (
	MaxNameLength    = 10
	MaxMessageLength = 100
	DefaultLimit     = 200

	maxCleanPasses = 8
)

var (
	ErrEmptyName    = errors.New("name is required")
	ErrEmptyMessage = errors.New("message is required")
)

// Colors is the bubble palette a new entry is painted with.
var Colors = []string{"#e4e4e7", "#d4d4d8", "#a1a1aa"}

type Entry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Message   string    `json:"message"`
	Color     string    `json:"color"`
	CreatedAt time.Time `json:"created_at"`
}

// Backend stores entries. List returns at most limit entries, newest first.
type Backend interface {
	Add(ctx context.Context, e Entry) (Entry, error)
	List(ctx context.Context, limit int) ([]Entry, error)
	Close() error
}

// Watcher is implemented by backends that can report changes made by other
// processes. fn is called after each change.
type Watcher interface {
	Watch(ctx context.Context, fn func()) error
}

// Feed validates submissions and fans changes out to subscribers.
type Feed struct {
	backend Backend
	policy  *bluemonday.Policy
	limit   int
	now     func() time.Time
	pick    func(n int) int

	mu     sync.Mutex
	subs   map[int]chan []Entry
	nextID int
}

type Option func(*Feed)

func WithLimit(n int) Option {
	return func(f *Feed) {
		if n > 0 {
			f.limit = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(f *Feed) {
		f.now = now
	}
}

func NewFeed(backend Backend, opts ...Option) *Feed {
	f := &Feed{
		backend: backend,
		policy:  bluemonday.StrictPolicy(),
		limit:   DefaultLimit,
		now:     time.Now,
		pick:    rand.IntN,
		subs:    make(map[int]chan []Entry),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// clean strips markup, normalizes and trims s, then caps it at max runes.
// Entity-encoded markup is decoded and stripped again until nothing changes.
func (f *Feed) clean(s string, max int) string {
	s = norm.NFC.String(s)

	settled := false
	for range maxCleanPasses {
		next := html.UnescapeString(f.policy.Sanitize(s))
		if next == s {
			settled = true
			break
		}
		s = next
	}
	if !settled {
		// Leave whatever is still encoded as entities.
		s = f.policy.Sanitize(s)
	}
	s = strings.Join(strings.Fields(s), " ")

	if r := []rune(s); len(r) > max {
		s = strings.TrimSpace(string(r[:max]))
	}

	return s
}

// Submit adds a note and notifies every subscriber.
func (f *Feed) Submit(ctx context.Context, name, message string) (Entry, error) {
	name = f.clean(name, MaxNameLength)
	message = f.clean(message, MaxMessageLength)

	switch {
	case name == "":
		return Entry{}, ErrEmptyName
	case message == "":
		return Entry{}, ErrEmptyMessage
	}

	e, err := f.backend.Add(ctx, Entry{
		ID:        ulid.Make().String(),
		Name:      name,
		Message:   message,
		Color:     Colors[f.pick(len(Colors))],
		CreatedAt: f.now().UTC(),
	})
	if err != nil {
		return Entry{}, fmt.Errorf("add note: %w", err)
	}

	f.broadcast(ctx)

	return e, nil
}

func (f *Feed) List(ctx context.Context) ([]Entry, error) {
	entries, err := f.backend.List(ctx, f.limit)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}

	return entries, nil
}

// Subscribe returns a channel that receives the current list straight away
// and again after every change. Slow readers only ever see the latest list.
func (f *Feed) Subscribe(ctx context.Context) (<-chan []Entry, func(), error) {
	entries, err := f.List(ctx)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan []Entry, 1)
	ch <- entries

	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = ch
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}

	return ch, cancel, nil
}

func (f *Feed) broadcast(ctx context.Context) {
	entries, err := f.List(ctx)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, ch := range f.subs {
		select {
		case <-ch:
		default:
		}
		ch <- entries
	}
}

// Run relays changes reported by the backend until ctx is done. Backends
// that can't watch simply wait.
func (f *Feed) Run(ctx context.Context) error {
	w, ok := f.backend.(Watcher)
	if !ok {
		<-ctx.Done()
		return nil
	}

	err := w.Watch(ctx, func() { f.broadcast(ctx) })
	if ctx.Err() != nil {
		return nil
	}

	return err
}

func (f *Feed) Close() error {
	return f.backend.Close()
}
