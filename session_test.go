package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Seednode/timeline/progress"
)

func TestGetOrSetSessionIDIssuesCookie(t *testing.T) {
	cfg := validConfig()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	id := getOrSetSessionID(cfg, rec, req)

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, sessionCookieName, c.Name)
	assert.Equal(t, id, c.Value)
	assert.Equal(t, "/", c.Path)
	assert.True(t, c.HttpOnly)
	assert.Zero(t, c.MaxAge)
	assert.True(t, c.Expires.IsZero())
}

func TestGetOrSetSessionIDReusesCookie(t *testing.T) {
	cfg := validConfig()
	existing := uuid.NewString()

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: existing})

	assert.Equal(t, existing, getOrSetSessionID(cfg, rec, req))
	assert.Empty(t, rec.Result().Cookies())
}

func TestGetOrSetSessionIDReplacesGarbage(t *testing.T) {
	cfg := validConfig()
	cfg.prefix = "/grad"

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/grad/", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "../../etc"})

	id := getOrSetSessionID(cfg, rec, req)

	assert.NotEqual(t, "../../etc", id)
	require.Len(t, rec.Result().Cookies(), 1)
	assert.Equal(t, "/grad/", rec.Result().Cookies()[0].Path)
}

func TestSessionsAreIsolated(t *testing.T) {
	sm := newSessionManager(validConfig())
	t.Cleanup(sm.close)

	a := sm.get("a")
	b := sm.get("b")
	a.store.CompleteGame(progress.Year2021)

	assert.Same(t, a, sm.get("a"))
	assert.True(t, a.store.IsGameCompleted(progress.Year2021))
	assert.False(t, b.store.IsGameCompleted(progress.Year2021))
	assert.Equal(t, 2, sm.count())
}

func TestReapForgetsIdleSessions(t *testing.T) {
	sm := newSessionManager(validConfig())
	sm.idleTimeout = time.Minute
	t.Cleanup(sm.close)

	s := sm.get("idle")
	h := sm.hub("idle")

	assert.Zero(t, sm.reap(time.Now()))
	assert.Equal(t, 1, sm.count())

	assert.Equal(t, 1, sm.reap(time.Now().Add(2*time.Minute)))
	assert.Zero(t, sm.count())

	select {
	case <-h.quit:
	default:
		t.Fatal("reaped hub was not stopped")
	}

	assert.NotSame(t, s, sm.get("idle"))
}

func TestPageLoadsDoNotStartHubs(t *testing.T) {
	sm := newSessionManager(validConfig())
	sm.idleTimeout = time.Minute
	t.Cleanup(sm.close)

	s := sm.get("crawler")
	assert.Nil(t, s.hub)

	h := sm.hub("crawler")
	require.NotNil(t, h)
	assert.Same(t, h, s.hub)
	assert.Same(t, h, sm.hub("crawler"))

	assert.Nil(t, sm.get("other").hub)
	assert.Equal(t, 2, sm.reap(time.Now().Add(2*time.Minute)))
}
