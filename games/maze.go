/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"math/rand/v2"

	"github.com/Seednode/timeline/progress"
)

const mazeSize = 25

const (
	wallTop = iota
	wallRight
	wallBottom
	wallLeft
)

var mazeSteps = [4]struct {
	dx, dy, opposite int
}{
	wallTop:    {0, -1, wallBottom},
	wallRight:  {1, 0, wallLeft},
	wallBottom: {0, 1, wallTop},
	wallLeft:   {-1, 0, wallRight},
}

type Cell struct {
	Walls [4]bool `json:"walls"`
}

// Grid is a square maze stored row by row.
type Grid struct {
	Size  int    `json:"size"`
	Cells []Cell `json:"cells"`
}

func (g Grid) index(x, y int) int {
	if x < 0 || y < 0 || x >= g.Size || y >= g.Size {
		return -1
	}

	return x + y*g.Size
}

// Open reports whether a step from (x, y) towards side is not walled off.
func (g Grid) Open(x, y, side int) bool {
	i := g.index(x, y)
	if i < 0 {
		return false
	}

	return !g.Cells[i].Walls[side]
}

// GenerateMaze carves a perfect maze with a randomized depth-first walk
// starting at the top-left cell.
func GenerateMaze(r *rand.Rand, size int) Grid {
	g := Grid{Size: size, Cells: make([]Cell, size*size)}
	for i := range g.Cells {
		g.Cells[i].Walls = [4]bool{true, true, true, true}
	}

	visited := make([]bool, len(g.Cells))
	visited[0] = true
	stack := []int{0}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x, y := cur%size, cur/size

		var sides []int
		for side, step := range mazeSteps {
			n := g.index(x+step.dx, y+step.dy)
			if n >= 0 && !visited[n] {
				sides = append(sides, side)
			}
		}
		if len(sides) == 0 {
			continue
		}

		side := sides[r.IntN(len(sides))]
		step := mazeSteps[side]
		next := g.index(x+step.dx, y+step.dy)

		g.Cells[cur].Walls[side] = false
		g.Cells[next].Walls[step.opposite] = false
		visited[next] = true

		stack = append(stack, cur, next)
	}

	return g
}

type Item struct {
	ID        int    `json:"id"`
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Emoji     string `json:"emoji"`
	Image     string `json:"image"`
	Collected bool   `json:"collected"`
}

var mazeItems = []struct {
	emoji, image string
}{
	{"💪🏻", "images/games/2025/item1.jpg"},
	{"🎮", "images/games/2025/item2.jpg"},
	{"✨", "images/games/2025/item3.jpg"},
}

// PlaceItems scatters the collectibles on distinct cells, never on the start
// or the goal.
func PlaceItems(r *rand.Rand, size int) []Item {
	taken := map[[2]int]bool{
		{0, 0}:               true,
		{size - 1, size - 1}: true,
	}

	items := make([]Item, 0, len(mazeItems))
	for i, cfg := range mazeItems {
		var x, y int
		for {
			x, y = r.IntN(size), r.IntN(size)
			if !taken[[2]int{x, y}] {
				break
			}
		}
		taken[[2]int{x, y}] = true

		items = append(items, Item{ID: i, X: x, Y: y, Emoji: cfg.emoji, Image: cfg.image})
	}

	return items
}

type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Maze is the 2025 game: walk from the top-left corner to the goal in the
// bottom-right, picking up keepsakes on the way.
type Maze struct {
	Lifecycle

	grid    Grid
	items   []Item
	player  Point
	moves   int
	showing *Item
}

// NewMaze starts on the intro screen; the "start" action begins play.
func NewMaze(env Env) *Maze {
	m := &Maze{Lifecycle: newLifecycle(progress.Year2025, env)}
	m.begin(StateIntro)
	m.reset()

	return m
}

func (m *Maze) reset() {
	m.grid = GenerateMaze(m.rng(), mazeSize)
	m.items = PlaceItems(m.rng(), mazeSize)
	m.player = Point{}
	m.moves = 0
	m.showing = nil
}

func (m *Maze) Retry() {
	if !m.restartable() {
		return
	}
	m.begin(StatePlaying)
	m.reset()
}

func (m *Maze) Handle(a Action) error {
	switch a.Kind {
	case "start":
		if m.state == StateIntro {
			m.Retry()
		}
	case "move":
		m.move(a.DX, a.DY)
	case "continue":
		m.showing = nil
	default:
		return ErrUnknownAction
	}

	return nil
}

func (m *Maze) move(dx, dy int) {
	if !m.playing() || m.showing != nil {
		return
	}

	side := -1
	for s, step := range mazeSteps {
		if step.dx == dx && step.dy == dy {
			side = s
		}
	}
	if side < 0 || !m.grid.Open(m.player.X, m.player.Y, side) {
		return
	}

	m.player = Point{X: m.player.X + dx, Y: m.player.Y + dy}
	m.moves++

	for i := range m.items {
		it := &m.items[i]
		if !it.Collected && it.X == m.player.X && it.Y == m.player.Y {
			it.Collected = true
			shown := *it
			m.showing = &shown
		}
	}

	if m.player.X == mazeSize-1 && m.player.Y == mazeSize-1 {
		m.succeed(true)
	}
}

type MazeView struct {
	State   State  `json:"state"`
	Grid    Grid   `json:"grid"`
	Items   []Item `json:"items"`
	Player  Point  `json:"player"`
	Goal    Point  `json:"goal"`
	Moves   int    `json:"moves"`
	Showing *Item  `json:"showing,omitempty"`
}

func (m *Maze) View() any {
	items := make([]Item, len(m.items))
	copy(items, m.items)

	return MazeView{
		State:   m.state,
		Grid:    m.grid,
		Items:   items,
		Player:  m.player,
		Goal:    Point{X: mazeSize - 1, Y: mazeSize - 1},
		Moves:   m.moves,
		Showing: m.showing,
	}
}
