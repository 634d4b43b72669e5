// cmd/lumen/stats.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"log/slog"
	"runtime"
	"time"

	"github.com/lumen2d/lumen/log"
	"github.com/lumen2d/lumen/renderer"
)

type Stats struct {
	// scene covers drawing the scene; total adds post-processing and the
	// copy to the window.
	scene     renderer.RendererStats
	total     renderer.RendererStats
	startTime time.Time
	redraws   int
}

var startupMallocs uint64

func (stats Stats) LogValue(lg *log.Logger) slog.Value {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	if startupMallocs == 0 { // first call
		startupMallocs = mem.Mallocs
	}

	elapsed := time.Since(lg.Start).Seconds()
	mallocsPerSecond := float64(mem.Mallocs-startupMallocs) / elapsed

	return slog.GroupValue(
		slog.Float64("redraws_per_second", float64(stats.redraws)/time.Since(stats.startTime).Seconds()),
		slog.Float64("mallocs_per_second", mallocsPerSecond),
		slog.Int64("active_mallocs", int64(mem.Mallocs-mem.Frees)),
		slog.Int64("memory_in_use", int64(mem.HeapAlloc)),
		slog.Any("scene", stats.scene),
		slog.Any("total", stats.total))
}

// frameStats is the summary printed by -dumpstats.
type frameStats struct {
	Scene          string
	Frames         int
	SceneDrawCalls int
	SceneVertices  int
	DrawCalls      int
	Vertices       int
}

func (stats Stats) summary(scene string) frameStats {
	return frameStats{
		Scene:          scene,
		Frames:         stats.redraws,
		SceneDrawCalls: stats.scene.DrawCalls(),
		SceneVertices:  stats.scene.Vertices(),
		DrawCalls:      stats.total.DrawCalls(),
		Vertices:       stats.total.Vertices(),
	}
}
