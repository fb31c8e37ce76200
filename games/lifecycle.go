/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package games holds the timeline's mini-games and the lifecycle they
// share. Each game is a small state machine that reports its outcome to a
// progress.Tracker exactly once per run.
package games

import (
	"errors"
	"math/rand/v2"
	"time"

	"github.com/Seednode/timeline/progress"
)

// DefaultResultDelay is how long the reward image stays up before a won
// game counts as succeeded.
const DefaultResultDelay = 3 * time.Second

var ErrUnknownAction = errors.New("unknown action")

type State string

const (
	StateIntro         State = "intro"
	StatePlaying       State = "playing"
	StateShowingResult State = "showing_result"
	StateSucceeded     State = "succeeded"
	StateFailed        State = "failed"
)

// Terminal reports whether the run is over.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// Action is one input from the player. Games read only the fields they need.
type Action struct {
	Kind   string  `json:"kind"`
	Index  int     `json:"index,omitempty"`
	X      float64 `json:"x,omitempty"`
	DX     int     `json:"dx,omitempty"`
	DY     int     `json:"dy,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Game is the contract every mini-game satisfies.
type Game interface {
	Year() progress.Year
	State() State
	Handle(a Action) error
	// Retry discards the current run and starts a freshly randomized one.
	// A won run still showing its result is left to finish.
	Retry()
	// Stop cancels every pending timer and frame loop.
	Stop()
	View() any
}

// Env is what a game needs from its host.
type Env struct {
	Tracker     progress.Tracker
	Scheduler   Scheduler
	Rand        *rand.Rand
	ResultDelay time.Duration
	// OnChange is called after any state change driven by a timer.
	OnChange func()
}

// Lifecycle carries the state and terminal reporting common to all games.
type Lifecycle struct {
	env   Env
	year  progress.Year
	state State

	// reported latches once the tracker has been told about this run.
	reported bool
	tasks    []Task
}

func newLifecycle(year progress.Year, env Env) Lifecycle {
	if env.Rand == nil {
		env.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if env.ResultDelay < 0 {
		env.ResultDelay = 0
	}

	return Lifecycle{
		env:   env,
		year:  year,
		state: StatePlaying,
	}
}

func (l *Lifecycle) Year() progress.Year {
	return l.year
}

func (l *Lifecycle) State() State {
	return l.state
}

// Stop cancels every task this run started.
func (l *Lifecycle) Stop() {
	for _, t := range l.tasks {
		t.Stop()
	}
	l.tasks = nil
}

func (l *Lifecycle) rng() *rand.Rand {
	return l.env.Rand
}

func (l *Lifecycle) playing() bool {
	return l.state == StatePlaying
}

// restartable is false while a result is showing: the pending completion
// must not be cancelled by input.
func (l *Lifecycle) restartable() bool {
	return l.state != StateShowingResult
}

// begin starts a new run in state s.
func (l *Lifecycle) begin(s State) {
	l.Stop()
	l.state = s
	l.reported = false
}

func (l *Lifecycle) after(d time.Duration, fn func()) {
	l.tasks = append(l.tasks, l.env.Scheduler.After(d, func() {
		fn()
		l.changed()
	}))
}

func (l *Lifecycle) every(d time.Duration, fn func()) Task {
	t := l.env.Scheduler.Every(d, func() {
		fn()
		l.changed()
	})
	l.tasks = append(l.tasks, t)

	return t
}

func (l *Lifecycle) changed() {
	if l.env.OnChange != nil {
		l.env.OnChange()
	}
}

// succeed ends a winning run. With showResult the run passes through
// StateShowingResult for the configured delay first; input can't cut that
// short.
func (l *Lifecycle) succeed(showResult bool) {
	if !l.playing() {
		return
	}
	l.Stop()

	if !showResult || l.env.ResultDelay == 0 {
		l.finish(StateSucceeded)
		return
	}

	l.state = StateShowingResult
	l.after(l.env.ResultDelay, func() {
		l.finish(StateSucceeded)
	})
}

// fail ends a losing run.
func (l *Lifecycle) fail() {
	if !l.playing() {
		return
	}
	l.Stop()
	l.finish(StateFailed)
}

func (l *Lifecycle) finish(s State) {
	l.state = s

	if l.reported {
		return
	}
	l.reported = true

	switch s {
	case StateSucceeded:
		l.env.Tracker.CompleteGame(l.year)
	case StateFailed:
		l.env.Tracker.FailGame(l.year)
	}
}

// HasGame reports whether year has a game behind its marker.
func HasGame(year progress.Year) bool {
	return year >= progress.Year2019 && year <= progress.Year2025
}

// New builds the game for year. Years without a game return false.
func New(year progress.Year, env Env) (Game, bool) {
	switch year {
	case progress.Year2019:
		return NewMemory(env), true
	case progress.Year2020:
		return NewPuzzle(env), true
	case progress.Year2021:
		return NewStack(env), true
	case progress.Year2022:
		return NewCatch(env), true
	case progress.Year2023:
		return NewVideo(env), true
	case progress.Year2024:
		return NewCaptcha(env), true
	case progress.Year2025:
		return NewMaze(env), true
	default:
		return nil, false
	}
}
