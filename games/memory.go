/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"math/rand/v2"
	"time"

	"github.com/Seednode/timeline/progress"
)

const (
	memoryMaxMoves    = 19
	memoryRevealDelay = time.Second
)

var memoryFaces = []string{"🌻", "🤓", "👨🏻‍🌾", "📚", "⚽", "🎮", "🍕", "🌈"}

type Card struct {
	ID      int    `json:"id"`
	Face    string `json:"face,omitempty"`
	Flipped bool   `json:"flipped"`
	Matched bool   `json:"matched"`
}

// Memory is the 2019 pair-matching game. A mismatch costs a move; running
// out of moves before every pair is found loses the run.
type Memory struct {
	Lifecycle

	cards    []Card
	flipped  []int
	checking bool
	moves    int
}

func NewMemory(env Env) *Memory {
	m := &Memory{Lifecycle: newLifecycle(progress.Year2019, env)}
	m.Retry()

	return m
}

// DealCards returns every pair in a random order.
func DealCards(r *rand.Rand) []Card {
	cards := make([]Card, 0, len(memoryFaces)*2)
	for i, face := range memoryFaces {
		cards = append(cards,
			Card{ID: i * 2, Face: face},
			Card{ID: i*2 + 1, Face: face},
		)
	}

	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return cards
}

func (m *Memory) Retry() {
	if !m.restartable() {
		return
	}
	m.begin(StatePlaying)
	m.cards = DealCards(m.rng())
	m.flipped = nil
	m.checking = false
	m.moves = 0
}

func (m *Memory) Handle(a Action) error {
	switch a.Kind {
	case "flip":
		m.flip(a.Index)
	default:
		return ErrUnknownAction
	}

	return nil
}

func (m *Memory) card(id int) *Card {
	for i := range m.cards {
		if m.cards[i].ID == id {
			return &m.cards[i]
		}
	}

	return nil
}

func (m *Memory) flip(id int) {
	if !m.playing() || m.checking || len(m.flipped) == 2 || m.moves >= memoryMaxMoves {
		return
	}

	c := m.card(id)
	if c == nil || c.Flipped || c.Matched {
		return
	}

	c.Flipped = true
	m.flipped = append(m.flipped, id)

	if len(m.flipped) == 2 {
		m.checking = true
		m.moves++
		m.after(memoryRevealDelay, m.resolve)
	}
}

func (m *Memory) resolve() {
	first, second := m.card(m.flipped[0]), m.card(m.flipped[1])

	if first.Face == second.Face {
		first.Matched, second.Matched = true, true
	} else {
		first.Flipped, second.Flipped = false, false
	}

	m.flipped = nil
	m.checking = false

	switch {
	case m.allMatched():
		m.succeed(false)
	case m.moves >= memoryMaxMoves:
		m.fail()
	}
}

func (m *Memory) allMatched() bool {
	for _, c := range m.cards {
		if !c.Matched {
			return false
		}
	}

	return true
}

type MemoryView struct {
	State    State  `json:"state"`
	Cards    []Card `json:"cards"`
	Moves    int    `json:"moves"`
	MaxMoves int    `json:"max_moves"`
	Checking bool   `json:"checking"`
}

// View hides the face of every card that isn't turned up.
func (m *Memory) View() any {
	cards := make([]Card, len(m.cards))
	for i, c := range m.cards {
		if !c.Flipped && !c.Matched {
			c.Face = ""
		}
		cards[i] = c
	}

	return MemoryView{
		State:    m.state,
		Cards:    cards,
		Moves:    m.moves,
		MaxMoves: memoryMaxMoves,
		Checking: m.checking,
	}
}
