// platform/keymouse.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

type MouseState struct {
	Pos      [2]float32
	DeltaPos [2]float32
	Down     [MouseButtonCount]bool
	Clicked  [MouseButtonCount]bool
	Released [MouseButtonCount]bool
	Wheel    [2]float32
}

type MouseButton int

const (
	MouseButtonPrimary MouseButton = iota
	MouseButtonSecondary
	MouseButtonTertiary
	MouseButtonCount
)

// Key identifies a keyboard key independently of the windowing library.
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeySpace
	KeyEnter
	KeyTab
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyB
	KeyF
	KeyS
	KeyV
)

type KeyboardState struct {
	Input string
	// A key shows up here once each time it is pressed (though repeatedly
	// if key repeat kicks in.)
	Pressed map[Key]interface{}

	shift, control, alt, super bool
}

func (k *KeyboardState) KeyShift() bool   { return k.shift }
func (k *KeyboardState) KeyControl() bool { return k.control }
func (k *KeyboardState) KeyAlt() bool     { return k.alt }
func (k *KeyboardState) KeySuper() bool   { return k.super }

func (k *KeyboardState) WasPressed(key Key) bool {
	_, ok := k.Pressed[key]
	return ok
}
