// platform/platform.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

import (
	"github.com/lumen2d/lumen/math"
)

// Platform is the interface that abstracts platform-specific features like
// creating windows, mouse and keyboard handling, etc.
type Platform interface {
	// NewFrame marks the start of a frame; it advances the frame clock.
	NewFrame()
	// ProcessEvents handles all pending window events. Returns true if
	// there were any events and false otherwise.
	ProcessEvents() bool
	// PostRender performs the buffer swap.
	PostRender()
	// Dispose is called when the application is shutting down and is when
	// resources are be freed.
	Dispose()
	// ShouldStop returns true if the window is to be closed.
	ShouldStop() bool
	// CancelShouldStop cancels a user's request to close the window.
	CancelShouldStop()
	// SetWindowTitle sets the title of the appllication window.
	SetWindowTitle(text string)
	// InputCharacters returns a string of all the characters (generally at most one!) that have
	// been entered since the last call to ProcessEvents.
	InputCharacters() string
	// EnableVSync specifies whether v-sync should be used when rendering;
	// v-sync is on by default and should only be disabled for benchmarking.
	EnableVSync(sync bool)
	// SetSRGB enables or disables sRGB encoding of the window's output.
	// The platform doesn't draw anything itself; the change is passed
	// along to the function registered with OnSRGBChange.
	SetSRGB(enable bool)
	// OnSRGBChange registers the function that applies sRGB changes;
	// usually the renderer's SetSRGB method.
	OnSRGBChange(func(enable bool))
	// GetAllMonitorNames() returns an array of all available monitors' names.
	GetAllMonitorNames() []string
	// DisplaySize returns the dimension of the display.
	DisplaySize() [2]float32
	// WindowSize returns the size of the window.
	WindowSize() [2]int
	// WindowSize returns the position of the window on the screen.
	WindowPosition() [2]int
	// FramebufferSize returns the dimension of the framebuffer.
	FramebufferSize() [2]int
	// Scaling factor to account for Retina-style displays
	DPIScale() float32
	// Time returns the frame clock as of the last call to NewFrame.
	Time() Time

	// KeyPressed reports whether the key was pressed since the last call
	// to ProcessEvents.
	KeyPressed(key Key) bool

	GetMouse() *MouseState
	GetKeyboard() *KeyboardState
}

type Config struct {
	InitialWindowSize     [2]int
	InitialWindowPosition [2]int

	EnableMSAA bool
	VSync      bool
	SRGB       bool

	StartInFullScreen bool
	FullScreenMonitor int
}

///////////////////////////////////////////////////////////////////////////
// Time

// Time is a snapshot of the frame clock. All values are in seconds.
type Time struct {
	Elapsed float64
	Delta   float64
	Frame   int
}

// SineWave returns a value that oscillates between lo and hi freq times a
// second, starting at the midpoint.
func (t Time) SineWave(lo, hi, freq float32) float32 {
	s := math.Sin(float32(t.Elapsed) * freq * 2 * math.Pi())
	return math.Lerp((s+1)/2, lo, hi)
}

// Clock turns a monotonically increasing time source into per-frame Time
// values.
type Clock struct {
	now   func() float64
	start float64
	t     Time
}

// NewClock returns a clock that reads the current time from now.
func NewClock(now func() float64) *Clock {
	return &Clock{now: now, start: now()}
}

// NewFixedClock returns a clock that advances by step seconds each frame,
// regardless of how long frames actually take.
func NewFixedClock(step float64) *Clock {
	var t float64
	return &Clock{now: func() float64 {
		defer func() { t += step }()
		return t
	}}
}

// Tick advances the clock to the next frame.
func (c *Clock) Tick() Time {
	elapsed := c.now() - c.start
	if c.t.Frame > 0 {
		c.t.Delta = elapsed - c.t.Elapsed
	}
	c.t.Elapsed = elapsed
	c.t.Frame++
	return c.t
}

func (c *Clock) Time() Time {
	return c.t
}
