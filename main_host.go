//go:build !tinygo

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"thinkos/app"
	"thinkos/hal"
)

func main() {
	var hcfg hal.HeadlessConfig
	cfg := app.DefaultConfig()
	flag.BoolVar(&hcfg.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&hcfg.Hz, "hz", 60, "Step rate in headless mode.")
	flag.Uint64Var(&hcfg.Ticks, "ticks", 0, "Stop after N steps in headless mode (0 = run forever).")
	flag.IntVar(&cfg.Threads, "threads", cfg.Threads, "Kernel thread slots.")
	flag.BoolVar(&cfg.TimeShare, "timeshare", false, "Enable time-share scheduling.")
	flag.StringVar(&cfg.TracePath, "trace", "", "Write the scheduler timeline PNG here on exit.")
	flag.BoolVar(&cfg.NoDemo, "no-demo", false, "Start only the system services.")
	flag.BoolVar(&cfg.Verbose, "v", false, "Log kernel messages.")
	flag.Parse()

	var sys *app.System
	newApp := func(h hal.HAL) func() error {
		sys = app.NewWithConfig(h, cfg)
		return sys.Step
	}

	var err error
	if !hcfg.Enabled {
		err = hal.RunWindow(newApp)
		if errors.Is(err, hal.ErrNoWindow) {
			fmt.Fprintf(os.Stderr, "%v, running headless\n", err)
			hcfg.Enabled = true
		}
	}
	if hcfg.Enabled {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err = hal.RunHeadless(ctx, newApp, hcfg)
		if errors.Is(err, context.Canceled) {
			err = nil
		}
	}
	if sys != nil {
		if cerr := sys.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
