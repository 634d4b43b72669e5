// log/stack.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
)

const maxFrames = 16

// Frame is a single entry in a call stack.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%d %s", f.File, f.Line, f.Function)
}

// Frames is logged as a list of "file:line function" strings, which is
// much more compact than a list of objects.
type Frames []Frame

func (fr Frames) LogValue() slog.Value {
	s := make([]string, len(fr))
	for i, f := range fr {
		s[i] = f.String()
	}
	return slog.AnyValue(s)
}

// Callstack returns the stack of the calling goroutine, starting skip
// frames above the function that calls Callstack. It ends at main.main
// or the test runner.
func Callstack(skip int) Frames {
	pc := make([]uintptr, maxFrames)
	pc = pc[:runtime.Callers(2+skip, pc)]

	var fr Frames
	frames := runtime.CallersFrames(pc)
	for {
		f, more := frames.Next()
		if f.Function == "testing.tRunner" || strings.HasPrefix(f.Function, "runtime.") {
			break
		}

		fn := strings.TrimPrefix(f.Function, "github.com/lumen2d/lumen/")
		fr = append(fr, Frame{
			File:     filepath.Base(f.File),
			Line:     f.Line,
			Function: strings.TrimPrefix(fn, "main."),
		})

		if !more || f.Function == "main.main" {
			break
		}
	}
	return fr
}
