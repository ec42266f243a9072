//go:build !tinygo

package kernel

import "runtime/debug"

const maxPanicStack = 4096

func captureStack() []byte {
	s := debug.Stack()
	if len(s) > maxPanicStack {
		s = s[:maxPanicStack]
	}
	return s
}
