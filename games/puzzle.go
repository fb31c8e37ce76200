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
	puzzleSide       = 3
	puzzleTiles      = puzzleSide * puzzleSide
	puzzleEmpty      = puzzleTiles - 1
	puzzleShuffles   = 25
	puzzleTimeBudget = 300
	puzzleTick       = time.Second
)

// Board maps each position to the tile sitting on it. Tile puzzleEmpty is
// the gap.
type Board [puzzleTiles]int

func solvedBoard() Board {
	var b Board
	for i := range b {
		b[i] = i
	}

	return b
}

func (b Board) Solved() bool {
	return b == solvedBoard()
}

func (b Board) emptyPos() int {
	for pos, tile := range b {
		if tile == puzzleEmpty {
			return pos
		}
	}

	return puzzleEmpty
}

func puzzleNeighbors(pos int) []int {
	row, col := pos/puzzleSide, pos%puzzleSide

	var out []int
	if row > 0 {
		out = append(out, pos-puzzleSide)
	}
	if row < puzzleSide-1 {
		out = append(out, pos+puzzleSide)
	}
	if col > 0 {
		out = append(out, pos-1)
	}
	if col < puzzleSide-1 {
		out = append(out, pos+1)
	}

	return out
}

func adjacent(a, b int) bool {
	for _, n := range puzzleNeighbors(a) {
		if n == b {
			return true
		}
	}

	return false
}

// ShuffleBoard walks the gap puzzleShuffles steps from the solved board,
// never stepping straight back, so every result is solvable. A walk that
// lands on the solved board is thrown away.
func ShuffleBoard(r *rand.Rand) Board {
	for {
		b := solvedBoard()
		empty, last := puzzleEmpty, -1

		for range puzzleShuffles {
			var choices []int
			for _, n := range puzzleNeighbors(empty) {
				if n != last {
					choices = append(choices, n)
				}
			}

			next := choices[r.IntN(len(choices))]
			b[empty], b[next] = b[next], b[empty]
			last, empty = empty, next
		}

		if !b.Solved() {
			return b
		}
	}
}

// Puzzle is the 2020 sliding puzzle, played against a countdown.
type Puzzle struct {
	Lifecycle

	board    Board
	timeLeft int
}

func NewPuzzle(env Env) *Puzzle {
	p := &Puzzle{Lifecycle: newLifecycle(progress.Year2020, env)}
	p.Retry()

	return p
}

func (p *Puzzle) Retry() {
	if !p.restartable() {
		return
	}
	p.begin(StatePlaying)
	p.board = ShuffleBoard(p.rng())
	p.timeLeft = puzzleTimeBudget
	p.every(puzzleTick, p.tick)
}

func (p *Puzzle) tick() {
	if !p.playing() {
		return
	}

	p.timeLeft--
	if p.timeLeft <= 0 {
		p.timeLeft = 0
		p.fail()
	}
}

func (p *Puzzle) Handle(a Action) error {
	switch a.Kind {
	case "move":
		p.move(a.Index)
	default:
		return ErrUnknownAction
	}

	return nil
}

func (p *Puzzle) move(pos int) {
	if !p.playing() || pos < 0 || pos >= puzzleTiles {
		return
	}

	empty := p.board.emptyPos()
	if !adjacent(pos, empty) {
		return
	}

	p.board[pos], p.board[empty] = p.board[empty], p.board[pos]

	if p.board.Solved() {
		p.succeed(false)
	}
}

type PuzzleView struct {
	State    State `json:"state"`
	Board    Board `json:"board"`
	Movable  []int `json:"movable"`
	TimeLeft int   `json:"time_left"`
}

func (p *Puzzle) View() any {
	return PuzzleView{
		State:    p.state,
		Board:    p.board,
		Movable:  puzzleNeighbors(p.board.emptyPos()),
		TimeLeft: p.timeLeft,
	}
}
