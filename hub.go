/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"github.com/Seednode/timeline/games"
	"github.com/Seednode/timeline/progress"
)

const maxMessageSize = 4096

// Messages coming from the browser
type ClientMessage struct {
	Type   string        `json:"type"`           // "select", "close", "action", "retry", "reset", "reset_all"
	Year   progress.Year `json:"year,omitempty"` // select / reset
	Action games.Action  `json:"action"`         // action
}

// ProgressMessage carries the whole table plus what the page derives from it.
type ProgressMessage struct {
	Type            string         `json:"type"` // "progress"
	Progress        progress.Table `json:"progress"`
	GalleryUnlocked bool           `json:"gallery_unlocked"`
	Markers         []games.Marker `json:"markers"`
}

// GameMessage describes the open year. Years without a game are sent as a
// placeholder with no state.
type GameMessage struct {
	Type        string        `json:"type"` // "game"
	Year        progress.Year `json:"year"`
	State       games.State   `json:"state,omitempty"`
	Attempts    int           `json:"attempts"`
	Placeholder bool          `json:"placeholder,omitempty"`
	View        any           `json:"view,omitempty"`
}

// SimpleMessage is for generic notifications ("closed", "error").
type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

// Client is one open socket. Game views go through latest, which holds only
// the newest one, so frame updates never pile up behind a slow reader.
type Client struct {
	conn   *websocket.Conn
	send   chan any
	latest chan any
}

// offer replaces any game view the client has not written yet.
// Callers hold the hub's lock.
func (c *Client) offer(msg any) {
	select {
	case <-c.latest:
	default:
	}

	select {
	case c.latest <- msg:
	default:
	}
}

type inbound struct {
	client *Client
	msg    ClientMessage
}

// Hub owns one session's games. Every input and every timer callback runs
// on the run goroutine, so games never see concurrent calls.
type Hub struct {
	id    string
	cfg   *Config
	store progress.Tracker
	shell *games.Shell

	unsubscribe func()

	clients  map[*Client]bool
	register chan *Client
	unreg    chan *Client
	inbox    chan inbound
	posts    chan func()
	quit     chan struct{}
	stopOnce sync.Once

	mu         sync.RWMutex
	lastActive time.Time
}

func newHub(cfg *Config, id string, store progress.Tracker) *Hub {
	h := &Hub{
		id:         id,
		cfg:        cfg,
		store:      store,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		inbox:      make(chan inbound),
		posts:      make(chan func()),
		quit:       make(chan struct{}),
		lastActive: time.Now(),
	}

	h.shell = games.NewShell(games.Env{
		Tracker:     store,
		Scheduler:   games.NewLoopScheduler(h.post),
		Rand:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		ResultDelay: cfg.resultDelay,
		OnChange:    h.broadcastGame,
	}, nil)

	h.unsubscribe = store.Subscribe(h.broadcastProgress)

	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true
			h.sendLocked(c, h.progressMessage(h.store.Snapshot()))
			if msg, ok := h.gameMessage(); ok {
				c.offer(msg)
			}
			h.mu.Unlock()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()

		case in := <-h.inbox:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.mu.Unlock()

			h.handle(in)

		case fn := <-h.posts:
			fn()

		case <-h.quit:
			h.shell.Close()
			h.unsubscribe()
			h.closeAll()
			return
		}
	}
}

// post hands fn to the run goroutine. It gives up once the hub has stopped.
func (h *Hub) post(fn func()) {
	select {
	case h.posts <- fn:
	case <-h.quit:
	}
}

func (h *Hub) handle(in inbound) {
	msg := in.msg

	switch msg.Type {
	case "select":
		if !msg.Year.Valid() {
			return
		}
		h.shell.Select(msg.Year)
		logf(h.cfg, "GAMES: Session %s opened %d", h.id, msg.Year)

		h.broadcastProgress(h.store.Snapshot())
		h.broadcastGame()

	case "close":
		if _, ok := h.shell.Selected(); !ok {
			return
		}
		h.shell.Close()

		h.broadcastView(SimpleMessage{Type: "closed"})
		h.broadcastProgress(h.store.Snapshot())

	case "action":
		g := h.shell.Current()
		if g == nil {
			return
		}
		if err := g.Handle(msg.Action); err != nil {
			h.mu.Lock()
			h.sendLocked(in.client, SimpleMessage{Type: "error", Message: err.Error()})
			h.mu.Unlock()
			return
		}
		h.broadcastGame()

	case "retry":
		g := h.shell.Current()
		if g == nil || g.State() == games.StateShowingResult {
			return
		}
		g.Retry()
		logf(h.cfg, "GAMES: Session %s retried %d", h.id, g.Year())

		h.broadcastGame()

	case "reset":
		h.store.ResetGame(msg.Year)
		h.broadcastGame()

	case "reset_all":
		h.store.ResetAllGames()
		h.broadcastGame()

	default:
		// ignore unknown types
	}
}

func (h *Hub) progressMessage(t progress.Table) ProgressMessage {
	markers := h.shell.Markers()

	unlocked := false
	for _, m := range markers {
		if m.Completed {
			unlocked = true
			break
		}
	}

	return ProgressMessage{
		Type:            "progress",
		Progress:        t,
		GalleryUnlocked: unlocked,
		Markers:         markers,
	}
}

func (h *Hub) gameMessage() (GameMessage, bool) {
	year, ok := h.shell.Selected()
	if !ok {
		return GameMessage{}, false
	}

	msg := GameMessage{
		Type:     "game",
		Year:     year,
		Attempts: h.store.GetAttempts(year),
	}

	g := h.shell.Current()
	if g == nil {
		msg.Placeholder = true
		return msg, true
	}

	msg.State = g.State()
	msg.View = g.View()

	return msg, true
}

func (h *Hub) broadcastProgress(t progress.Table) {
	h.broadcast(h.progressMessage(t))
}

func (h *Hub) broadcastGame() {
	if msg, ok := h.gameMessage(); ok {
		h.broadcastView(msg)
	}
}

// broadcastView hands every client the newest game view, replacing one it
// has not written yet.
func (h *Hub) broadcastView(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		c.offer(msg)
	}
}

func (h *Hub) broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		h.sendLocked(c, msg)
	}
}

// sendLocked drops a client that can't keep up.
func (h *Hub) sendLocked(c *Client, msg any) {
	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) activity() (time.Time, int) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return h.lastActive, len(h.clients)
}

func (h *Hub) stop() {
	h.stopOnce.Do(func() {
		close(h.quit)
	})
}

// closeAll disconnects all clients of this hub.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
		delete(h.clients, c)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func serveGameSocket(cfg *Config, sm *SessionManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		id := getOrSetSessionID(cfg, w, r)
		h := sm.hub(id)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "ERROR: Upgrade for session %s failed: %v", id, err)
			return
		}

		client := &Client{
			conn:   conn,
			send:   make(chan any, 64),
			latest: make(chan any, 1),
		}

		select {
		case h.register <- client:
		case <-h.quit:
			_ = conn.Close()
			return
		}

		go client.writePump()
		client.readPump(h)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case h.inbox <- inbound{client: c, msg: msg}:
		case <-h.quit:
			return
		}
	}
}

// writePump writes queued messages ahead of the latest game view, so a view
// never overtakes the progress it was sent after.
func (c *Client) writePump() {
	defer c.conn.Close()

	for {
		var (
			msg any
			ok  bool
		)

		select {
		case msg, ok = <-c.send:
		default:
			select {
			case msg, ok = <-c.send:
			case msg = <-c.latest:
				ok = true
			}
		}
		if !ok {
			return
		}

		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
