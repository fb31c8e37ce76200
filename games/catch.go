/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/Seednode/timeline/progress"
)

const (
	catchSpawnEvery   = time.Second
	catchFrame        = 16 * time.Millisecond
	catchBaseSpeed    = 3.0
	catchSpeedJitter  = 2.0
	catchBasketWidth  = 120.0
	catchReach        = 30.0
	catchKeyStep      = 40.0
	catchMargin       = 50.0
	catchBottomMargin = 20.0
	catchDefaultW     = 800.0
	catchDefaultH     = 600.0
)

// Basket image is 1419x456.
var catchBasketHeight = math.Round(catchBasketWidth * 456 / 1419)

var catchWords = []string{
	"마라탕", "건축", "출근", "포항", "모형", "여행", "MWM", "페스티벌", "음악",
	"카메라", "친구", "쿠킹덤", "모델", "웃음", "설계", "꿈", "인턴", "도면",
	"코로나", "지킬앤하이드", "놀이공원", "나창순", "크리스마스파티", "케이크", "산책",
	"어린이대공원", "맛집",
}

type FallingWord struct {
	ID    int     `json:"id"`
	Word  string  `json:"word"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Speed float64 `json:"-"`
}

// SpawnWord places word id at a random column with a random fall speed.
func SpawnWord(r *rand.Rand, id int, word string, fieldWidth float64) FallingWord {
	return FallingWord{
		ID:    id,
		Word:  word,
		X:     r.Float64()*math.Max(fieldWidth-2*catchMargin, 0) + catchMargin,
		Speed: catchBaseSpeed + r.Float64()*catchSpeedJitter,
	}
}

// Catch is the 2022 word-catching game. Every word drops once; the run is
// won when the last one has been caught or has fallen past the basket.
type Catch struct {
	Lifecycle

	width, height float64

	basketX float64
	falling []FallingWord
	caught  []string
	spawned int

	spawner Task
}

func NewCatch(env Env) *Catch {
	c := &Catch{
		Lifecycle: newLifecycle(progress.Year2022, env),
		width:     catchDefaultW,
		height:    catchDefaultH,
	}
	c.Retry()

	return c
}

func (c *Catch) Retry() {
	if !c.restartable() {
		return
	}
	c.begin(StatePlaying)
	c.basketX = c.width/2 - catchBasketWidth/2
	c.falling = nil
	c.caught = nil
	c.spawned = 0

	c.spawn()
	c.spawner = c.every(catchSpawnEvery, c.spawn)
	c.every(catchFrame, c.frame)
}

func (c *Catch) spawn() {
	if !c.playing() {
		return
	}
	if c.spawned >= len(catchWords) {
		c.spawner.Stop()
		return
	}

	c.falling = append(c.falling, SpawnWord(c.rng(), c.spawned, catchWords[c.spawned], c.width))
	c.spawned++
}

func (c *Catch) frame() {
	if !c.playing() {
		return
	}

	left := c.basketX - catchReach
	right := c.basketX + catchBasketWidth + catchReach
	top := c.height - catchBasketHeight - catchBottomMargin

	kept := c.falling[:0]
	for _, w := range c.falling {
		w.Y += w.Speed

		if w.X > left && w.X < right && w.Y > top && w.Y < c.height {
			c.caught = append(c.caught, w.Word)
			continue
		}
		if w.Y > c.height+catchReach {
			continue
		}

		kept = append(kept, w)
	}
	c.falling = kept

	if c.spawned >= len(catchWords) && len(c.falling) == 0 {
		c.succeed(true)
	}
}

func (c *Catch) Handle(a Action) error {
	switch a.Kind {
	case "move":
		c.moveBasket(a.X - catchBasketWidth/2)
	case "left":
		c.moveBasket(c.basketX - catchKeyStep)
	case "right":
		c.moveBasket(c.basketX + catchKeyStep)
	case "resize":
		if a.Width > 0 && a.Height > 0 {
			c.width, c.height = a.Width, a.Height
			c.moveBasket(c.basketX)
		}
	default:
		return ErrUnknownAction
	}

	return nil
}

func (c *Catch) moveBasket(x float64) {
	if !c.playing() {
		return
	}

	c.basketX = math.Max(0, math.Min(x, c.width-catchBasketWidth))
}

type CatchView struct {
	State   State         `json:"state"`
	Falling []FallingWord `json:"falling"`
	Caught  []string      `json:"caught"`
	BasketX float64       `json:"basket_x"`
	Spawned int           `json:"spawned"`
	Total   int           `json:"total"`
}

func (c *Catch) View() any {
	falling := make([]FallingWord, len(c.falling))
	copy(falling, c.falling)
	caught := make([]string, len(c.caught))
	copy(caught, c.caught)

	return CatchView{
		State:   c.state,
		Falling: falling,
		Caught:  caught,
		BasketX: c.basketX,
		Spawned: c.spawned,
		Total:   len(catchWords),
	}
}
