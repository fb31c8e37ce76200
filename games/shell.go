/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"github.com/Seednode/timeline/progress"
)

// Factory builds the game for a year, or reports that the year has none.
type Factory func(year progress.Year, env Env) (Game, bool)

type Marker struct {
	Year      progress.Year `json:"year"`
	Completed bool          `json:"completed"`
	Selected  bool          `json:"selected"`
}

// Shell decides which year, if any, is open, and keeps at most one game
// mounted at a time.
type Shell struct {
	env     Env
	factory Factory

	selected *progress.Year
	game     Game
}

func NewShell(env Env, factory Factory) *Shell {
	if factory == nil {
		factory = New
	}

	return &Shell{env: env, factory: factory}
}

// Select opens year, unmounting whatever was open before. The returned game
// is nil for years without one.
func (s *Shell) Select(year progress.Year) Game {
	s.unmount()

	y := year
	s.selected = &y

	if g, ok := s.factory(year, s.env); ok {
		s.game = g
	}

	return s.game
}

// Close unmounts the open game and clears the selection.
func (s *Shell) Close() {
	s.unmount()
	s.selected = nil
}

func (s *Shell) unmount() {
	if s.game != nil {
		s.game.Stop()
		s.game = nil
	}
}

// Selected returns the open year.
func (s *Shell) Selected() (progress.Year, bool) {
	if s.selected == nil {
		return 0, false
	}

	return *s.selected, true
}

// Current returns the mounted game, if any.
func (s *Shell) Current() Game {
	return s.game
}

func (s *Shell) Markers() []Marker {
	markers := make([]Marker, 0, len(progress.Years))
	for _, y := range progress.Years {
		markers = append(markers, Marker{
			Year:      y,
			Completed: s.env.Tracker.IsGameCompleted(y),
			Selected:  s.selected != nil && *s.selected == y,
		})
	}

	return markers
}

// GalleryUnlocked reports whether any year has been completed.
func (s *Shell) GalleryUnlocked() bool {
	for _, y := range progress.Years {
		if s.env.Tracker.IsGameCompleted(y) {
			return true
		}
	}

	return false
}
