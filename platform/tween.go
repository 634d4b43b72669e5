// platform/tween.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

import (
	"fmt"
	"slices"

	"github.com/lumen2d/lumen/math"
)

// TweenStep is one named animation in a Tween: a linear interpolation from
// Start to End over Duration seconds. If AutoNext is set, the Tween moves
// on to the following step (wrapping around) once this one ends.
type TweenStep[T any] struct {
	Name       string
	Start, End T
	Duration   float32
	AutoNext   bool
}

// Tween animates a value through a sequence of steps as time is
// advanced with Update.
type Tween[T any] struct {
	lerp    func(x float32, a, b T) T
	steps   []TweenStep[T]
	current int
	time    float32
	value   T
}

// NewTween returns a Tween that starts at the first of the given steps.
// lerp interpolates between two values; math.Lerp, math.Lerp2f and
// renderer.LerpRGBA all work.
func NewTween[T any](lerp func(x float32, a, b T) T, steps ...TweenStep[T]) *Tween[T] {
	if len(steps) == 0 {
		panic("NewTween: no steps given")
	}
	tw := &Tween[T]{lerp: lerp, steps: steps}
	tw.SetCurrent(steps[0].Name)
	return tw
}

func (tw *Tween[T]) Value() T            { return tw.value }
func (tw *Tween[T]) Current() string     { return tw.steps[tw.current].Name }
func (tw *Tween[T]) Is(name string) bool { return tw.Current() == name }

// SetCurrent restarts the tween at the beginning of the named step. It
// panics if there is no such step.
func (tw *Tween[T]) SetCurrent(name string) {
	idx := slices.IndexFunc(tw.steps, func(s TweenStep[T]) bool { return s.Name == name })
	if idx == -1 {
		panic(fmt.Sprintf("%s: no such tween step", name))
	}
	tw.current, tw.time = idx, 0
	tw.value = tw.steps[idx].Start
}

// Update advances the current step by dt seconds.
func (tw *Tween[T]) Update(dt float32) {
	s := tw.steps[tw.current]
	if s.Duration > 0 {
		tw.time = math.Clamp(tw.time+dt, 0, s.Duration)
		tw.value = tw.lerp(tw.time/s.Duration, s.Start, s.End)
	} else {
		tw.value = s.End
	}

	if tw.Ended() && s.AutoNext {
		tw.SetCurrent(tw.steps[(tw.current+1)%len(tw.steps)].Name)
	}
}

// End jumps to the end of the current step; the value is updated by the
// next call to Update.
func (tw *Tween[T]) End() {
	tw.time = max(0, tw.steps[tw.current].Duration)
}

func (tw *Tween[T]) Ended() bool {
	return tw.time == max(0, tw.steps[tw.current].Duration)
}
