// platform/glfw.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

import (
	"fmt"
	"runtime"
	"strconv"

	"github.com/lumen2d/lumen/log"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// glfwPlatform implements the Platform interface using GLFW.
type glfwPlatform struct {
	window *glfw.Window
	config *Config
	lg     *log.Logger

	clock *Clock

	mouse            MouseState
	keyboard         KeyboardState
	mouseJustPressed [MouseButtonCount]bool
	inputCharacters  string
	anyEvents        bool
	lastMouseX       float64
	lastMouseY       float64
	multisample      bool
	windowTitle      string

	srgb      bool
	applySRGB func(bool)
}

// New returns a new instance of a Platform implemented with a window of
// the specified size open at the specified position on the screen. The
// window has an OpenGL 4.1 core profile context that is current on the
// calling thread when New returns.
func New(config *Config, lg *log.Logger) (Platform, error) {
	lg.Info("Starting GLFW initialization")
	err := glfw.Init()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}
	lg.Infof("GLFW: %s", glfw.GetVersionString())

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.SRGBCapable, glfw.True)

	vm := glfw.GetPrimaryMonitor().GetVideoMode()
	if config.InitialWindowSize[0] == 0 || config.InitialWindowSize[1] == 0 {
		if runtime.GOOS == "windows" {
			config.InitialWindowSize[0] = vm.Width - 200
			config.InitialWindowSize[1] = vm.Height - 300
		} else {
			config.InitialWindowSize[0] = vm.Width - 150
			config.InitialWindowSize[1] = vm.Height - 150
		}
	}

	// If window position is out of bounds, create the window at (100, 100)
	if config.InitialWindowPosition[0] < 0 || config.InitialWindowPosition[1] < 0 ||
		config.InitialWindowPosition[0] > vm.Width || config.InitialWindowPosition[1] > vm.Height {
		config.InitialWindowPosition = [2]int{100, 100}
	}
	// Start with an invisible window so that we can position it first
	glfw.WindowHint(glfw.Visible, 0)
	// Disable GLFW_AUTO_ICONIFY to stop the window from automatically minimizing in fullscreen
	glfw.WindowHint(glfw.AutoIconify, 0)
	// Maybe enable multisampling
	if config.EnableMSAA {
		glfw.WindowHint(glfw.Samples, 4)
	}
	var window *glfw.Window
	monitors := glfw.GetMonitors()
	if config.FullScreenMonitor >= len(monitors) {
		// Monitor saved in config not found, fallback to default
		config.FullScreenMonitor = 0
	}
	if config.StartInFullScreen {
		vm := monitors[config.FullScreenMonitor].GetVideoMode()
		window, err = glfw.CreateWindow(vm.Width, vm.Height, "lumen", monitors[config.FullScreenMonitor], nil)
	} else {
		window, err = glfw.CreateWindow(config.InitialWindowSize[0], config.InitialWindowSize[1], "lumen", nil, nil)
	}
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}
	window.SetPos(config.InitialWindowPosition[0], config.InitialWindowPosition[1])
	window.Show()
	window.MakeContextCurrent()

	platform := &glfwPlatform{
		config:      config,
		lg:          lg,
		window:      window,
		multisample: config.EnableMSAA,
		srgb:        config.SRGB,
		clock:       NewClock(glfw.GetTime),
		keyboard:    KeyboardState{Pressed: make(map[Key]interface{})},
	}
	platform.installCallbacks()
	platform.EnableVSync(config.VSync)

	glfw.SetMonitorCallback(platform.MonitorCallback)

	lg.Info("Finished GLFW initialization")
	return platform, nil
}

func (g *glfwPlatform) DPIScale() float32 {
	if runtime.GOOS == "windows" {
		sx, sy := g.window.GetContentScale()
		return float32(int((sx + sy) / 2))
	} else {
		return float32(g.FramebufferSize()[0]) / g.DisplaySize()[0]
	}
}

func (g *glfwPlatform) EnableVSync(sync bool) {
	if sync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	g.config.VSync = sync
}

func (g *glfwPlatform) SetSRGB(enable bool) {
	g.srgb = enable
	g.config.SRGB = enable
	if g.applySRGB != nil {
		g.applySRGB(enable)
	}
}

func (g *glfwPlatform) OnSRGBChange(f func(bool)) {
	g.applySRGB = f
	if f != nil {
		f(g.srgb)
	}
}

func (g *glfwPlatform) GetAllMonitorNames() []string {
	var monitorNames []string
	monitors := glfw.GetMonitors()
	for index, monitor := range monitors {
		monitorNames = append(monitorNames, "("+strconv.Itoa(index)+") "+monitor.GetName())
	}
	return monitorNames
}

func (g *glfwPlatform) MonitorCallback(monitor *glfw.Monitor, event glfw.PeripheralEvent) {
	if event == glfw.Disconnected {
		g.lg.Infof("Monitor %s disconnected", monitor.GetName())
		g.config.FullScreenMonitor = 0
		g.config.StartInFullScreen = false
	}
}

func (g *glfwPlatform) Dispose() {
	g.window.Destroy()
	glfw.Terminate()
}

func (g *glfwPlatform) InputCharacters() string {
	return g.inputCharacters
}

func (g *glfwPlatform) ShouldStop() bool {
	return g.window.ShouldClose()
}

func (g *glfwPlatform) CancelShouldStop() {
	g.window.SetShouldClose(false)
}

func (g *glfwPlatform) ProcessEvents() bool {
	g.inputCharacters = ""
	g.anyEvents = false
	clear(g.keyboard.Pressed)
	g.mouse.Wheel = [2]float32{}

	glfw.PollEvents()
	g.keyboard.Input = g.inputCharacters

	if g.anyEvents {
		return true
	}

	for i := range g.mouseJustPressed {
		if g.window.GetMouseButton(glfwButtonIDByIndex[MouseButton(i)]) == glfw.Press {
			return true
		}
	}

	x, y := g.window.GetCursorPos()
	if x != g.lastMouseX || y != g.lastMouseY {
		g.lastMouseX, g.lastMouseY = x, y
		return true
	}

	return false
}

func (g *glfwPlatform) DisplaySize() [2]float32 {
	w, h := g.window.GetSize()
	return [2]float32{float32(w), float32(h)}
}

func (g *glfwPlatform) WindowSize() [2]int {
	w, h := g.window.GetSize()
	return [2]int{w, h}
}

func (g *glfwPlatform) WindowPosition() [2]int {
	x, y := g.window.GetPos()
	return [2]int{x, y}
}

func (g *glfwPlatform) FramebufferSize() [2]int {
	w, h := g.window.GetFramebufferSize()
	return [2]int{w, h}
}

func (g *glfwPlatform) Time() Time {
	return g.clock.Time()
}

func (g *glfwPlatform) NewFrame() {
	if g.multisample {
		gl.Enable(gl.MULTISAMPLE)
	}

	g.clock.Tick()

	// Mouse positions are reported in window coordinates with y down;
	// convert to framebuffer pixels with y up to match the default
	// projection.
	prev := g.mouse.Pos
	if g.window.GetAttrib(glfw.Focused) != 0 {
		x, y := g.window.GetCursorPos()
		scale := g.DPIScale()
		h := float32(g.FramebufferSize()[1])
		g.mouse.Pos = [2]float32{float32(x) * scale, h - float32(y)*scale}
	}
	g.mouse.DeltaPos = [2]float32{g.mouse.Pos[0] - prev[0], g.mouse.Pos[1] - prev[1]}

	for i := range g.mouseJustPressed {
		down := g.mouseJustPressed[i] ||
			g.window.GetMouseButton(glfwButtonIDByIndex[MouseButton(i)]) == glfw.Press
		g.mouse.Clicked[i] = down && !g.mouse.Down[i]
		g.mouse.Released[i] = !down && g.mouse.Down[i]
		g.mouse.Down[i] = down
		g.mouseJustPressed[i] = false
	}
}

func (g *glfwPlatform) PostRender() {
	g.window.SwapBuffers()
}

func (g *glfwPlatform) KeyPressed(key Key) bool {
	return g.keyboard.WasPressed(key)
}

func (g *glfwPlatform) GetMouse() *MouseState {
	return &g.mouse
}

func (g *glfwPlatform) GetKeyboard() *KeyboardState {
	return &g.keyboard
}

func (g *glfwPlatform) installCallbacks() {
	g.window.SetMouseButtonCallback(g.mouseButtonChange)
	g.window.SetScrollCallback(g.mouseScrollChange)
	g.window.SetKeyCallback(g.keyChange)
	g.window.SetCharCallback(g.charChange)
}

var glfwButtonIndexByID = map[glfw.MouseButton]MouseButton{
	glfw.MouseButton1: MouseButtonPrimary,
	glfw.MouseButton2: MouseButtonSecondary,
	glfw.MouseButton3: MouseButtonTertiary,
}

var glfwButtonIDByIndex = map[MouseButton]glfw.MouseButton{
	MouseButtonPrimary:   glfw.MouseButton1,
	MouseButtonSecondary: glfw.MouseButton2,
	MouseButtonTertiary:  glfw.MouseButton3,
}

var glfwKeys = map[glfw.Key]Key{
	glfw.KeyEscape: KeyEscape,
	glfw.KeySpace:  KeySpace,
	glfw.KeyEnter:  KeyEnter,
	glfw.KeyTab:    KeyTab,
	glfw.KeyLeft:   KeyLeft,
	glfw.KeyRight:  KeyRight,
	glfw.KeyUp:     KeyUp,
	glfw.KeyDown:   KeyDown,
	glfw.KeyB:      KeyB,
	glfw.KeyF:      KeyF,
	glfw.KeyS:      KeyS,
	glfw.KeyV:      KeyV,
}

func (g *glfwPlatform) mouseButtonChange(window *glfw.Window, rawButton glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
	buttonIndex, known := glfwButtonIndexByID[rawButton]

	if !known {
		return
	}

	g.anyEvents = true
	if action == glfw.Press {
		g.mouseJustPressed[buttonIndex] = true
	}
}

func (g *glfwPlatform) mouseScrollChange(window *glfw.Window, x, y float64) {
	g.anyEvents = true
	g.mouse.Wheel[0] += float32(x)
	g.mouse.Wheel[1] += float32(y)
}

func (g *glfwPlatform) keyChange(window *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	g.anyEvents = true
	if action == glfw.Press || action == glfw.Repeat {
		if k, ok := glfwKeys[key]; ok {
			g.keyboard.Pressed[k] = nil
		}
	}

	g.keyboard.shift = mods&glfw.ModShift != 0
	g.keyboard.control = mods&glfw.ModControl != 0
	g.keyboard.alt = mods&glfw.ModAlt != 0
	g.keyboard.super = mods&glfw.ModSuper != 0
}

func (g *glfwPlatform) charChange(window *glfw.Window, char rune) {
	g.anyEvents = true
	g.inputCharacters = g.inputCharacters + string(char)
}

func (g *glfwPlatform) SetWindowTitle(text string) {
	if text != g.windowTitle {
		g.window.SetTitle(text)
		g.windowTitle = text
	}
}
