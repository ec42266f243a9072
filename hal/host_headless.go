//go:build !tinygo

package hal

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	Enabled    bool
	Hz         int
	Ticks      uint64
	StepBudget int
	// Input feeds the serial line; nil reads stdin.
	Input io.Reader
}

// RunHeadless runs the OS without opening a window. The interrupt
// dispatcher and the step loop run under one errgroup; the first error
// stops both.
func RunHeadless(ctx context.Context, newApp func(HAL) func() error, cfg HeadlessConfig) error {
	if cfg.Hz <= 0 {
		cfg.Hz = 60
	}
	if cfg.StepBudget <= 0 {
		cfg.StepBudget = 1
	}
	d := time.Second / time.Duration(cfg.Hz)
	if d <= 0 {
		return fmt.Errorf("invalid headless hz: %d", cfg.Hz)
	}

	h := New().(*hostHAL)
	step := newApp(h)

	in := cfg.Input
	if in == nil {
		in = os.Stdin
	}
	// Reads cannot be canceled; the pump dies with the process.
	go h.serial.pump(in)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		h.irq.run(gctx)
		return nil
	})

	g.Go(func() error {
		defer cancel()
		t := time.NewTicker(d)
		defer t.Stop()

		var tick uint64
		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case <-t.C:
				h.tick()
				for i := 0; i < cfg.StepBudget && step != nil; i++ {
					if err := step(); err != nil {
						return err
					}
				}
				tick++
				if cfg.Ticks > 0 && tick >= cfg.Ticks {
					return nil
				}
			}
		}
	})

	return g.Wait()
}
