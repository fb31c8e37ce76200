/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"math"
	"time"

	"github.com/Seednode/timeline/progress"
)

const (
	stackWidth        = 280.0
	stackFloors       = 20
	stackBlockWidth   = 250.0
	stackSpeed        = 1.5
	stackSpeedStep    = 0.1
	stackPerfectSlack = 5.0
	stackFrame        = 16 * time.Millisecond
)

type Block struct {
	X     float64 `json:"x"`
	Width float64 `json:"width"`
}

// Stack is the 2021 tower game. A block slides back and forth every frame
// and is dropped onto the tower; whatever hangs over the edge is cut off.
type Stack struct {
	Lifecycle

	blocks    []Block
	current   Block
	direction float64
	speed     float64
	perfects  int
}

func NewStack(env Env) *Stack {
	s := &Stack{Lifecycle: newLifecycle(progress.Year2021, env)}
	s.Retry()

	return s
}

func (s *Stack) Retry() {
	if !s.restartable() {
		return
	}
	s.begin(StatePlaying)
	s.blocks = []Block{{X: (stackWidth - stackBlockWidth) / 2, Width: stackBlockWidth}}
	s.current = Block{X: 0, Width: stackBlockWidth}
	s.direction = 1
	s.speed = stackSpeed
	s.perfects = 0
	s.every(stackFrame, s.frame)
}

func (s *Stack) frame() {
	if !s.playing() {
		return
	}

	x := s.current.X + s.direction*s.speed
	switch {
	case x <= 0:
		x = 0
		s.direction = 1
	case x+s.current.Width >= stackWidth:
		x = stackWidth - s.current.Width
		s.direction = -1
	}
	s.current.X = x
}

func (s *Stack) Handle(a Action) error {
	switch a.Kind {
	case "drop":
		s.drop()
	default:
		return ErrUnknownAction
	}

	return nil
}

func (s *Stack) drop() {
	if !s.playing() {
		return
	}

	top := s.blocks[len(s.blocks)-1]

	start := math.Max(s.current.X, top.X)
	end := math.Min(s.current.X+s.current.Width, top.X+top.Width)
	overlap := end - start

	if overlap <= 0 {
		s.fail()
		return
	}

	placed := Block{X: start, Width: overlap}
	if math.Abs(s.current.X-top.X) < stackPerfectSlack {
		s.perfects++
		placed = top
	}
	s.blocks = append(s.blocks, placed)

	if len(s.blocks) >= stackFloors {
		s.succeed(true)
		return
	}

	s.current = Block{Width: placed.Width}
	if s.direction < 0 {
		s.current.X = stackWidth - placed.Width
	}
	s.speed += stackSpeedStep
}

type StackView struct {
	State    State   `json:"state"`
	Blocks   []Block `json:"blocks"`
	Current  Block   `json:"current"`
	Floor    int     `json:"floor"`
	Target   int     `json:"target"`
	Perfects int     `json:"perfects"`
	Width    float64 `json:"width"`
}

func (s *Stack) View() any {
	blocks := make([]Block, len(s.blocks))
	copy(blocks, s.blocks)

	return StackView{
		State:    s.state,
		Blocks:   blocks,
		Current:  s.current,
		Floor:    len(s.blocks),
		Target:   stackFloors,
		Perfects: s.perfects,
		Width:    stackWidth,
	}
}
