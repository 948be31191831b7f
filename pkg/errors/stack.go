package errors

import (
	"fmt"
	"runtime"
	"strings"
)

const maxStackDepth = 32

type stack []uintptr

func callers() *stack {
	pcs := make([]uintptr, maxStackDepth)
	// skip runtime.Callers, callers and the reporter
	n := runtime.Callers(3, pcs)
	s := stack(pcs[:n])
	return &s
}

// fullStack returns one "function file:line" entry per frame, runtime frames excluded.
func (s *stack) fullStack() []string {
	frames := runtime.CallersFrames(*s)
	lines := make([]string, 0, len(*s))
	for {
		frame, more := frames.Next()
		if !strings.HasPrefix(frame.Function, "runtime.") {
			lines = append(lines, fmt.Sprintf("%s %s:%d", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return lines
}

// reportKey picks the frame the rate limiter groups by.
func reportKey(stacks []string) string {
	switch {
	case len(stacks) > 2:
		return stacks[2]
	case len(stacks) > 0:
		return stacks[len(stacks)-1]
	default:
		return ""
	}
}
