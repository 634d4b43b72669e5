// cmd/lumen/main.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// lumen is a demo of the renderer: it cycles through a few scenes drawn
// with the immediate-mode context and post-processed with bloom. With
// -headless, frames are drawn with the software renderer and the last one
// is written to a PNG file.

import (
	"errors"
	"flag"
	"fmt"
	"image/png"
	"os"
	"runtime"

	"github.com/lumen2d/lumen/log"
	"github.com/lumen2d/lumen/platform"
	"github.com/lumen2d/lumen/renderer"
	"github.com/lumen2d/lumen/renderer/ogl"
	"github.com/lumen2d/lumen/util"

	"github.com/apenwarr/fixconsole"
	"github.com/goforj/godump"
)

var (
	cpuprofile  = flag.String("cpuprofile", "", "write CPU profile to file")
	memprofile  = flag.String("memprofile", "", "write memory profile to this file")
	logLevel    = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir      = flag.String("logdir", "", "log file directory")
	configPath  = flag.String("configdir", "", "directory to store the configuration file in")
	headless    = flag.Bool("headless", false, "render with the software renderer and write the last frame to a PNG")
	frames      = flag.Int("frames", 60, "number of frames to render with -headless")
	output      = flag.String("o", "lumen.png", "PNG file to write with -headless")
	sceneName   = flag.String("scene", "", "scene to show at startup")
	enableBloom = flag.Bool("bloom", true, "apply bloom; -bloom=false disables it regardless of the saved configuration")
	dumpConfig  = flag.Bool("dumpconfig", false, "print the configuration and exit")
	dumpStats   = flag.Bool("dumpstats", false, "print rendering statistics for the last frame with -headless")
)

// statsInterval is how often, in frames, statistics are logged.
const statsInterval = 3600

func init() {
	// OpenGL requires that all calls be made from the thread that created
	// the context, so the main goroutine is locked to its thread.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	lg := log.New(*logLevel, *logDir)

	profiler, err := util.CreateProfiler(*cpuprofile, *memprofile)
	if err != nil {
		lg.Errorf("%v", err)
	}
	defer profiler.Cleanup()

	configDir = *configPath
	config, configErr := LoadOrMakeDefaultConfig(lg)
	if configErr != nil {
		lg.Errorf("Discarding saved configuration: %v", configErr)
		fmt.Fprintf(os.Stderr, "Saved configuration is invalid; using defaults: %v\n", configErr)
	}
	if *sceneName != "" {
		config.Scene = *sceneName
	}
	if !*enableBloom {
		config.BloomEnabled = false
	}

	if *dumpConfig {
		godump.Dump(config)
		return
	}

	if *headless {
		err = runHeadless(config, lg)
	} else {
		err = runWindowed(config, lg)
	}
	if err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		profiler.Cleanup()
		os.Exit(1)
	}
}

// loadFont returns the configured font, falling back to the built-in one.
func loadFont(r renderer.Renderer, config *Config, lg *log.Logger) (*renderer.Font, error) {
	if config.FontPath != "" {
		font, err := renderer.LoadFont(r, config.FontPath)
		if err == nil {
			return font, nil
		}
		lg.Warnf("%s: unable to load font; using the built-in font: %v", config.FontPath, err)
	}
	return renderer.NewDefaultFont(r)
}

// setup creates everything that's needed to draw frames with r.
func setup(r renderer.Renderer, config *Config, lg *log.Logger) (*app, func(), error) {
	ctx, err := renderer.NewContext(r, lg)
	if err != nil {
		return nil, nil, err
	}

	font, err := loadFont(r, config, lg)
	if err != nil {
		ctx.Dispose()
		return nil, nil, err
	}

	scenes := NewSceneManager(ctx, &sceneEnv{font: font, lg: lg}, config, lg)
	if err := scenes.Switch(config.Scene); err != nil {
		font.Dispose()
		ctx.Dispose()
		return nil, nil, err
	}

	a := newApp(ctx, scenes, lg)
	cleanup := func() {
		a.dispose()
		scenes.Dispose()
		font.Dispose()
		ctx.Dispose()
	}
	return a, cleanup, nil
}

func runHeadless(config *Config, lg *log.Logger) error {
	if *frames <= 0 {
		return errors.New("-frames must be positive")
	}

	size := config.HeadlessSize
	sr := renderer.NewSoftwareRenderer(lg, size[0], size[1])
	sr.SetSRGB(config.SRGB)

	a, cleanup, err := setup(sr, config, lg)
	if err != nil {
		return err
	}
	defer cleanup()

	clock := platform.NewFixedClock(1. / 60)
	for range *frames {
		clock.Tick()
		if err := a.frame(size, clock.Time()); err != nil {
			return err
		}
	}

	if *dumpStats {
		godump.Dump(a.stats.summary(a.scenes.Current().Name()))
	}

	f, err := os.Create(*output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, sr.Image()); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", *output, err)
	}
	lg.Infof("Wrote %s", *output)
	return f.Close()
}

func runWindowed(config *Config, lg *log.Logger) error {
	plat, err := platform.New(&config.Config, lg)
	if err != nil {
		return fmt.Errorf("unable to create application window: %w", err)
	}
	defer plat.Dispose()

	r, err := ogl.NewRenderer(lg)
	if err != nil {
		return fmt.Errorf("unable to initialize OpenGL: %w", err)
	}
	defer r.Dispose()

	a, cleanup, err := setup(r, config, lg)
	if err != nil {
		return err
	}
	defer cleanup()

	plat.OnSRGBChange(a.ctx.SetSRGB)

	lg.Info("Starting main loop")
	a.stats.startTime = lg.Start

	for {
		plat.ProcessEvents()
		plat.NewFrame()

		quit, err := handleKeys(plat, config, a.scenes)
		if err != nil {
			lg.Errorf("%v", err)
		}
		plat.SetWindowTitle("lumen: " + a.scenes.Current().Name())

		if err := a.frame(plat.FramebufferSize(), plat.Time()); err != nil {
			return err
		}

		plat.PostRender()

		if a.stats.redraws%statsInterval == statsInterval/2 {
			lg.Info("performance", "stats", a.stats.LogValue(lg))
		}

		if quit || plat.ShouldStop() {
			config.Scene = a.scenes.Current().Name()
			config.SaveIfChanged(plat, lg)
			return nil
		}
	}
}

// handleKeys applies the keyboard commands; it returns true if the user
// asked to quit.
func handleKeys(plat platform.Platform, config *Config, scenes *SceneManager) (bool, error) {
	switch {
	case plat.KeyPressed(platform.KeyEscape):
		return true, nil
	case plat.KeyPressed(platform.KeySpace), plat.KeyPressed(platform.KeyRight):
		return false, scenes.Cycle(1)
	case plat.KeyPressed(platform.KeyLeft):
		return false, scenes.Cycle(-1)
	case plat.KeyPressed(platform.KeyB):
		config.BloomEnabled = !config.BloomEnabled
		scenes.SetBloomEnabled(config.BloomEnabled)
	case plat.KeyPressed(platform.KeyS):
		plat.SetSRGB(!config.SRGB)
	case plat.KeyPressed(platform.KeyV):
		plat.EnableVSync(!config.VSync)
	}
	return false, nil
}
