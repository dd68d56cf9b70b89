// log/stack.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

type StackFrame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f StackFrame) String() string {
	return f.File + ":" + strconv.Itoa(f.Line) + ":" + f.Function
}

// Stack holds the program counters of a call stack. It implements
// slog.LogValuer, so frames are only resolved for records that are
// actually written.
type Stack []uintptr

// CaptureStack records the stack of the caller's caller, skipping skip
// additional frames.
func CaptureStack(skip int) Stack {
	pcs := make([]uintptr, 16)
	n := runtime.Callers(skip+2, pcs)
	return Stack(pcs[:n])
}

// Frames resolves the stack, stopping at main.main.
func (s Stack) Frames() []StackFrame {
	if len(s) == 0 {
		return nil
	}

	var fr []StackFrame
	frames := runtime.CallersFrames(s)
	for {
		frame, more := frames.Next()
		fn := strings.TrimPrefix(frame.Function, "github.com/mmp/routeplan/")
		fr = append(fr, StackFrame{
			File:     filepath.Base(frame.File),
			Line:     frame.Line,
			Function: strings.TrimPrefix(fn, "main."),
		})
		if !more || frame.Function == "main.main" {
			return fr
		}
	}
}

func (s Stack) LogValue() slog.Value {
	return slog.AnyValue(s.Frames())
}
