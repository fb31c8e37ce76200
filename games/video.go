/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"github.com/Seednode/timeline/progress"
)

// Video is the 2023 entry: watching the clip to the end completes the year.
type Video struct {
	Lifecycle
}

func NewVideo(env Env) *Video {
	return &Video{Lifecycle: newLifecycle(progress.Year2023, env)}
}

func (v *Video) Retry() {
	if !v.restartable() {
		return
	}
	v.begin(StatePlaying)
}

func (v *Video) Handle(a Action) error {
	switch a.Kind {
	case "ended":
		v.succeed(false)
	default:
		return ErrUnknownAction
	}

	return nil
}

type VideoView struct {
	State State `json:"state"`
}

func (v *Video) View() any {
	return VideoView{State: v.state}
}
