package guestbook

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestFeed(t *testing.T, b Backend) *Feed {
	t.Helper()

	clock := &fixedClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}

	return NewFeed(b, WithClock(clock.now))
}

func TestSubmitRejectsBlankFields(t *testing.T) {
	f := newTestFeed(t, NewMemoryBackend())
	ctx := context.Background()

	_, err := f.Submit(ctx, "   ", "hello")
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = f.Submit(ctx, "Mina", "\t\n")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = f.Submit(ctx, "<b></b>", "hi")
	assert.ErrorIs(t, err, ErrEmptyName)

	entries, err := f.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSubmitCleansInput(t *testing.T) {
	f := newTestFeed(t, NewMemoryBackend())

	e, err := f.Submit(context.Background(),
		"  <script>alert(1)</script>Jin  ",
		"Congrats <b>&</b>   good   luck!",
	)
	require.NoError(t, err)

	assert.Equal(t, "Jin", e.Name)
	assert.Equal(t, "Congrats & good luck!", e.Message)
	assert.NotEmpty(t, e.ID)
	assert.Contains(t, Colors, e.Color)
}

func TestSubmitStripsEncodedMarkup(t *testing.T) {
	f := newTestFeed(t, NewMemoryBackend())

	e, err := f.Submit(context.Background(), "amy", "&lt;b&gt;hi&lt;/b&gt; &amp;lt;i&amp;gt;there")
	require.NoError(t, err)
	assert.Equal(t, "hi there", e.Message)

	e, err = f.Submit(context.Background(), "amy", "a &lt; b &amp; c")
	require.NoError(t, err)
	assert.Equal(t, "a < b & c", e.Message)

	_, err = f.Submit(context.Background(), "amy", "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	deep := "hi &" + strings.Repeat("amp;", 12) + "lt;b&" + strings.Repeat("amp;", 12) + "gt;"
	e, err = f.Submit(context.Background(), "amy", deep)
	require.NoError(t, err)
	assert.NotContains(t, e.Message, "<b>")
}

func TestSubmitTruncatesByRunes(t *testing.T) {
	f := newTestFeed(t, NewMemoryBackend())

	e, err := f.Submit(context.Background(), strings.Repeat("가", 50), strings.Repeat("축", 500))
	require.NoError(t, err)

	assert.Equal(t, MaxNameLength, len([]rune(e.Name)))
	assert.Equal(t, MaxMessageLength, len([]rune(e.Message)))
}

func TestListNewestFirst(t *testing.T) {
	f := newTestFeed(t, NewMemoryBackend())
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.Submit(ctx, name, "note from "+name)
		require.NoError(t, err)
	}

	entries, err := f.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "c", entries[0].Name)
	assert.Equal(t, "a", entries[2].Name)
}

func TestListHonorsLimit(t *testing.T) {
	b := NewMemoryBackend()
	clock := &fixedClock{t: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)}
	f := NewFeed(b, WithClock(clock.now), WithLimit(2))
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.Submit(ctx, name, "hi")
		require.NoError(t, err)
	}

	entries, err := f.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].Name)
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	f := newTestFeed(t, NewMemoryBackend())
	ctx := context.Background()

	_, err := f.Submit(ctx, "first", "hello")
	require.NoError(t, err)

	ch, cancel, err := f.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	initial := <-ch
	require.Len(t, initial, 1)

	_, err = f.Submit(ctx, "second", "hello again")
	require.NoError(t, err)

	updated := <-ch
	require.Len(t, updated, 2)
	assert.Equal(t, "second", updated[0].Name)
}

func TestSlowSubscriberSeesLatest(t *testing.T) {
	f := newTestFeed(t, NewMemoryBackend())
	ctx := context.Background()

	ch, cancel, err := f.Subscribe(ctx)
	require.NoError(t, err)
	defer cancel()

	for _, name := range []string{"a", "b", "c"} {
		_, err := f.Submit(ctx, name, "hi")
		require.NoError(t, err)
	}

	latest := <-ch
	assert.Len(t, latest, 3)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra update: %v", extra)
	default:
	}
}

func TestCancelledSubscriberStopsReceiving(t *testing.T) {
	f := newTestFeed(t, NewMemoryBackend())
	ctx := context.Background()

	ch, cancel, err := f.Subscribe(ctx)
	require.NoError(t, err)
	<-ch
	cancel()
	cancel()

	_, err = f.Submit(ctx, "a", "hi")
	require.NoError(t, err)

	select {
	case got := <-ch:
		t.Fatalf("cancelled subscriber got %v", got)
	default:
	}
}

type failingBackend struct {
	*MemoryBackend
}

func (failingBackend) Add(context.Context, Entry) (Entry, error) {
	return Entry{}, errors.New("disk full")
}

func TestSubmitWrapsBackendErrors(t *testing.T) {
	f := newTestFeed(t, failingBackend{NewMemoryBackend()})

	_, err := f.Submit(context.Background(), "a", "b")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "add note")
	assert.Contains(t, err.Error(), "disk full")
}

func TestRunWithoutWatcherWaitsForContext(t *testing.T) {
	f := newTestFeed(t, NewMemoryBackend())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

type watchingBackend struct {
	*MemoryBackend
	changes chan struct{}
}

func (w watchingBackend) Watch(ctx context.Context, fn func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.changes:
			fn()
		}
	}
}

func TestRunRelaysWatchedChanges(t *testing.T) {
	b := watchingBackend{MemoryBackend: NewMemoryBackend(), changes: make(chan struct{})}
	f := newTestFeed(t, b)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, unsub, err := f.Subscribe(ctx)
	require.NoError(t, err)
	defer unsub()
	<-ch

	go func() { _ = f.Run(ctx) }()

	_, err = b.MemoryBackend.Add(ctx, Entry{ID: "01J", Name: "remote", Message: "hi", CreatedAt: time.Now()})
	require.NoError(t, err)
	b.changes <- struct{}{}

	select {
	case got := <-ch:
		require.Len(t, got, 1)
		assert.Equal(t, "remote", got[0].Name)
	case <-time.After(time.Second):
		t.Fatal("watched change was not relayed")
	}
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	b, err := OpenSQLite(filepath.Join(t.TempDir(), "notes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	f := newTestFeed(t, b)
	ctx := context.Background()

	first, err := f.Submit(ctx, "Mina", "first")
	require.NoError(t, err)
	_, err = f.Submit(ctx, "Jin", "second")
	require.NoError(t, err)

	entries, err := f.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Jin", entries[0].Name)
	assert.Equal(t, first.ID, entries[1].ID)
	assert.Equal(t, first.CreatedAt, entries[1].CreatedAt)
	assert.Equal(t, time.UTC, entries[1].CreatedAt.Location())
}

func TestSQLiteBackendPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.db")
	ctx := context.Background()

	b, err := OpenSQLite(path)
	require.NoError(t, err)
	_, err = newTestFeed(t, b).Submit(ctx, "Mina", "still here")
	require.NoError(t, err)
	require.NoError(t, b.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })

	entries, err := reopened.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "still here", entries[0].Message)
}

func TestOpenSQLiteRequiresPath(t *testing.T) {
	_, err := OpenSQLite(" ")
	assert.Error(t, err)
}

func TestNewFirestoreRequiresProject(t *testing.T) {
	_, err := NewFirestore(context.Background(), "", "")
	assert.Error(t, err)
}
