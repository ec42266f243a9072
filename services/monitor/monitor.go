// Package monitor shows the scheduler state on the display: one line per
// thread with its state, wait queue, timeout and time-share counters.
package monitor

import (
	"fmt"
	"sync/atomic"
	"time"

	"thinkos/hal"
	"thinkos/kernel"

	"tinygo.org/x/tinyfont/proggy"
	"tinygo.org/x/tinyterm"
)

type Logger interface {
	WriteLineString(s string)
}

type Config struct {
	// Period between refreshes.
	Period time.Duration
	// Kick is a flag that forces an early refresh when given. Zero
	// disables it.
	Kick kernel.ObjID
}

type Service struct {
	disp hal.Display
	log  Logger
	cfg  Config

	fb hal.Framebuffer
	d  *fbDisplay

	frames atomic.Uint32
}

const (
	fontHeight = 10
	fontOffset = 7
)

func New(disp hal.Display, log Logger, cfg Config) *Service {
	if cfg.Period <= 0 {
		cfg.Period = 250 * time.Millisecond
	}
	return &Service{disp: disp, log: log, cfg: cfg}
}

// Frames returns how many frames were drawn.
func (s *Service) Frames() uint32 { return s.frames.Load() }

// Run is the monitor thread body.
func (s *Service) Run(c *kernel.Context, _ any) int {
	if s.disp != nil {
		s.fb = s.disp.Framebuffer()
	}
	if s.fb == nil {
		s.logf("monitor: no framebuffer")
		return 1
	}
	s.d = newFBDisplay(s.fb)
	if s.d.w < fontHeight || s.d.h < 2*fontHeight {
		s.logf("monitor: framebuffer not drawable")
		return 1
	}

	k := c.Kernel()
	s.logf("monitor: thread %d, period %v", c.ID(), s.cfg.Period)
	for {
		s.draw(Lines(k.Snapshot(), k.Layout()))
		if s.cfg.Kick != 0 {
			if err := c.TimedTake(s.cfg.Kick, s.cfg.Period); err != nil && err != kernel.ETIMEDOUT {
				s.logf("monitor: kick flag: %v", err)
				s.cfg.Kick = 0
			}
			continue
		}
		c.Sleep(s.cfg.Period)
	}
}

func (s *Service) draw(lines []string) {
	s.fb.ClearRGB(0, 0, 0)

	t := tinyterm.NewTerminal(s.d)
	t.Configure(&tinyterm.Config{
		Font:       &proggy.TinySZ8pt7b,
		FontHeight: fontHeight,
		FontOffset: fontOffset,
	})

	rows := s.fb.Height()/fontHeight - 1
	for i, line := range lines {
		if i >= rows {
			break
		}
		t.Write([]byte(line))
		t.Write([]byte("\r\n"))
	}
	if err := s.d.Display(); err != nil && err != hal.ErrNotImplemented {
		s.logf("monitor: present: %v", err)
	}
	s.frames.Add(1)
}

func (s *Service) logf(format string, args ...any) {
	if s.log == nil {
		return
	}
	s.log.WriteLineString(fmt.Sprintf(format, args...))
}
