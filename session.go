/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Seednode/timeline/progress"
)

const sessionCookieName = "timeline_session"

// Session is one browser session's worth of state: its progress table and,
// once a socket has connected, the hub that runs its games.
type Session struct {
	id      string
	store   *progress.Store
	hub     *Hub
	touched time.Time
}

// loggingTracker reports game outcomes as they reach the store.
type loggingTracker struct {
	*progress.Store

	cfg *Config
	id  string
}

func (t loggingTracker) CompleteGame(year progress.Year) {
	t.Store.CompleteGame(year)
	logf(t.cfg, "GAMES: Session %s completed %d", t.id, year)
}

func (t loggingTracker) FailGame(year progress.Year) {
	t.Store.FailGame(year)
	logf(t.cfg, "GAMES: Session %s failed %d (attempt %d)", t.id, year, t.Store.GetAttempts(year))
}

// SessionManager holds a set of sessions keyed by cookie, so every browser
// session plays against its own progress.
type SessionManager struct {
	mu          sync.Mutex
	sessions    map[string]*Session
	idleTimeout time.Duration
	cfg         *Config

	quit     chan struct{}
	stopOnce sync.Once
}

func newSessionManager(cfg *Config) *SessionManager {
	sm := &SessionManager{
		sessions:    make(map[string]*Session),
		idleTimeout: cfg.sessionTimeout,
		cfg:         cfg,
		quit:        make(chan struct{}),
	}
	if sm.idleTimeout > 0 {
		go sm.reaperLoop()
	}
	return sm
}

func (sm *SessionManager) get(id string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return sm.getLocked(id)
}

func (sm *SessionManager) getLocked(id string) *Session {
	if s, ok := sm.sessions[id]; ok {
		s.touched = time.Now()
		return s
	}

	store := progress.NewStore(progress.NewMemoryStorage(0),
		progress.WithErrorHandler(func(err error) {
			logf(sm.cfg, "ERROR: Session %s progress kept in memory only: %v", id, err)
		}),
	)

	s := &Session{
		id:      id,
		store:   store,
		touched: time.Now(),
	}
	sm.sessions[id] = s

	logf(sm.cfg, "GAMES: Created session %s", id)

	return s
}

// hub returns the session's hub, starting it on first use. Plain page
// loads never start one.
func (sm *SessionManager) hub(id string) *Hub {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s := sm.getLocked(id)
	if s.hub == nil {
		s.hub = newHub(sm.cfg, id, loggingTracker{Store: s.store, cfg: sm.cfg, id: id})
		go s.hub.run()
	}

	return s.hub
}

func (sm *SessionManager) count() int {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	return len(sm.sessions)
}

// reap forgets sessions nobody has touched since before now minus the idle
// timeout and that have no open sockets.
func (sm *SessionManager) reap(now time.Time) int {
	cutoff := now.Add(-sm.idleTimeout)
	reaped := 0

	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, s := range sm.sessions {
		last, clients := s.touched, 0
		if s.hub != nil {
			var active time.Time
			active, clients = s.hub.activity()
			if active.After(last) {
				last = active
			}
		}

		if clients == 0 && last.Before(cutoff) {
			delete(sm.sessions, id)
			if s.hub != nil {
				s.hub.stop()
			}
			reaped++
		}
	}

	return reaped
}

func (sm *SessionManager) reaperLoop() {
	ticker := time.NewTicker(sm.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			if n := sm.reap(now); n > 0 {
				logf(sm.cfg, "GAMES: Reaped %d idle session(s)", n)
			}
		case <-sm.quit:
			return
		}
	}
}

func (sm *SessionManager) close() {
	sm.stopOnce.Do(func() {
		close(sm.quit)
	})

	sm.mu.Lock()
	defer sm.mu.Unlock()

	for id, s := range sm.sessions {
		if s.hub != nil {
			s.hub.stop()
		}
		delete(sm.sessions, id)
	}
}

// getOrSetSessionID reads the session cookie, issuing a new one if it is
// missing or malformed. The cookie has no expiry, so it ends with the
// browser session.
func getOrSetSessionID(cfg *Config, w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(sessionCookieName); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    id,
		Path:     cfg.prefix + "/",
		HttpOnly: true,
		Secure:   cfg.scheme() == "https",
		SameSite: http.SameSiteLaxMode,
	})

	return id
}
