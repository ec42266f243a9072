package app

import (
	"fmt"
	"image/color"
	"strings"

	"thinkos/hal"
	"thinkos/kernel"
)

// installPanicHandler logs the panic and paints it over the display. The
// handler runs inside the scheduler, so it only touches the HAL.
func installPanicHandler(h hal.HAL, k *kernel.Kernel) {
	k.SetPanicHandler(func(info kernel.PanicInfo) {
		lines := panicLines(info)
		for _, line := range lines {
			logf(h, "%s", line)
		}

		sc := newScreen(h)
		if sc == nil {
			return
		}
		sc.clear(255, 255, 255)
		sc.lines(lines, color.RGBA{A: 255})
		sc.present()
	})
}

func panicLines(info kernel.PanicInfo) []string {
	lines := []string{
		"ThinkOS panic:",
		fmt.Sprintf("thread: %d", info.Thread),
		fmt.Sprintf("reason: %v", info.Reason),
	}
	if len(info.Stack) == 0 {
		return append(lines, "stack: unavailable")
	}
	lines = append(lines, "stack:")
	for _, line := range strings.Split(string(info.Stack), "\n") {
		if line == "" {
			continue
		}
		lines = append(lines, strings.ReplaceAll(line, "\t", "  "))
	}
	return lines
}
