//go:build !tinygo

package hal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunHeadlessStopsAfterTicks(t *testing.T) {
	var steps int
	err := RunHeadless(context.Background(), func(h HAL) func() error {
		return func() error {
			steps++
			return nil
		}
	}, HeadlessConfig{Hz: 1000, Ticks: 3, StepBudget: 2, Input: strings.NewReader("")})
	if err != nil {
		t.Fatalf("RunHeadless() error = %v", err)
	}
	if steps != 6 {
		t.Fatalf("steps = %d, want 6", steps)
	}
}

func TestRunHeadlessReturnsStepError(t *testing.T) {
	boom := errors.New("boom")
	err := RunHeadless(context.Background(), func(h HAL) func() error {
		return func() error { return boom }
	}, HeadlessConfig{Hz: 1000, Input: strings.NewReader("")})
	if !errors.Is(err, boom) {
		t.Fatalf("RunHeadless() error = %v, want boom", err)
	}
}

func TestRunHeadlessCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := RunHeadless(ctx, func(HAL) func() error { return nil }, HeadlessConfig{Input: strings.NewReader("")})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("RunHeadless() error = %v, want context.Canceled", err)
	}
}

func TestHostHALWiring(t *testing.T) {
	h := New()
	if h.IRQ().Lines() != hostIRQLines {
		t.Fatalf("Lines() = %d, want %d", h.IRQ().Lines(), hostIRQLines)
	}
	fb := h.Display().Framebuffer()
	if fb.Width() != 320 || fb.Format() != PixelFormatRGB565 {
		t.Fatalf("framebuffer = %dx%d format %d", fb.Width(), fb.Height(), fb.Format())
	}
	if _, ok := h.Serial().ReadLine(); ok {
		t.Fatalf("ReadLine() ok = true before any input")
	}
}

func TestFramebufferSnapshotFollowsPresent(t *testing.T) {
	fb := newHostFramebuffer(4, 2)
	dst := make([]byte, len(fb.buf))

	seq, changed := fb.snapshot(dst, 0)
	if changed {
		t.Fatalf("snapshot() changed before any Present")
	}
	fb.ClearRGB(255, 255, 255)
	if _, changed := fb.snapshot(dst, seq); changed {
		t.Fatalf("snapshot() changed without Present")
	}
	fb.Present()
	seq, changed = fb.snapshot(dst, seq)
	if !changed || seq != 1 || dst[0] != 0xff || dst[1] != 0xff {
		t.Fatalf("snapshot() = %d, %v, dst[:2] = %v", seq, changed, dst[:2])
	}
}

func TestHostTimeAdvance(t *testing.T) {
	ht := newHostTime()
	ht.start = time.Now().Add(-5 * time.Millisecond)
	ht.advance()
	if n := len(ht.Ticks()); n < 5 {
		t.Fatalf("ticks after 5ms = %d, want >= 5", n)
	}

	ht.start = time.Now().Add(-10 * time.Second)
	ht.advance()
	if ht.seq < 10000 {
		t.Fatalf("seq = %d after a 10s stall", ht.seq)
	}
	if got := len(ht.Ticks()); got > 5+maxCatchUp+5 {
		t.Fatalf("queued ticks = %d, want at most %d", got, 5+maxCatchUp+5)
	}
}
