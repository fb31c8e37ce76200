/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"math/rand/v2"
	"sort"

	"github.com/Seednode/timeline/progress"
)

const captchaImages = 9

// Images 5 through 9 (zero-based 4..8) are the ones to pick.
var captchaAnswer = map[int]bool{4: true, 5: true, 6: true, 7: true, 8: true}

// ShuffleImages returns a random grid order of the image indices.
func ShuffleImages(r *rand.Rand) []int {
	return r.Perm(captchaImages)
}

// Captcha is the 2024 "select all images" game. A wrong submission only
// shows an error; there is no way to lose.
type Captcha struct {
	Lifecycle

	order     []int
	selected  map[int]bool
	showError bool
}

func NewCaptcha(env Env) *Captcha {
	c := &Captcha{Lifecycle: newLifecycle(progress.Year2024, env)}
	c.Retry()

	return c
}

func (c *Captcha) Retry() {
	if !c.restartable() {
		return
	}
	c.begin(StatePlaying)
	c.refresh()
}

func (c *Captcha) refresh() {
	c.order = ShuffleImages(c.rng())
	c.selected = make(map[int]bool)
	c.showError = false
}

func (c *Captcha) Handle(a Action) error {
	switch a.Kind {
	case "toggle":
		c.toggle(a.Index)
	case "submit":
		c.submit()
	case "refresh":
		if c.playing() {
			c.refresh()
		}
	default:
		return ErrUnknownAction
	}

	return nil
}

func (c *Captcha) toggle(cell int) {
	if !c.playing() || cell < 0 || cell >= len(c.order) {
		return
	}

	c.showError = false
	if c.selected[cell] {
		delete(c.selected, cell)
	} else {
		c.selected[cell] = true
	}
}

func (c *Captcha) submit() {
	if !c.playing() {
		return
	}

	correct := len(c.selected) == len(captchaAnswer)
	for cell := range c.selected {
		if !captchaAnswer[c.order[cell]] {
			correct = false
		}
	}

	if !correct {
		c.showError = true
		return
	}

	c.succeed(true)
}

type CaptchaView struct {
	State     State `json:"state"`
	Order     []int `json:"order"`
	Selected  []int `json:"selected"`
	ShowError bool  `json:"show_error"`
}

func (c *Captcha) View() any {
	order := make([]int, len(c.order))
	copy(order, c.order)

	selected := make([]int, 0, len(c.selected))
	for cell := range c.selected {
		selected = append(selected, cell)
	}
	sort.Ints(selected)

	return CaptchaView{
		State:     c.state,
		Order:     order,
		Selected:  selected,
		ShowError: c.showError,
	}
}
