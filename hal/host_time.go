//go:build !tinygo

package hal

import "time"

// hostTime turns wall time into 1 ms ticks. advance is called from the host
// loop; the kernel side drains Ticks.
type hostTime struct {
	ch    chan uint64
	start time.Time
	seq   uint64
	// lost counts ticks the channel had no room for.
	lost uint64
}

// maxCatchUp bounds the ticks emitted by one advance after a stall.
const maxCatchUp = 250

func newHostTime() *hostTime {
	return &hostTime{ch: make(chan uint64, 1024), start: time.Now()}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// Cycles counts nanoseconds since the HAL was created.
func (t *hostTime) Cycles() uint32 { return uint32(time.Since(t.start).Nanoseconds()) }

// advance emits the ticks due since the last call, at most maxCatchUp. A
// longer stall is skipped rather than replayed.
func (t *hostTime) advance() {
	due := uint64(time.Since(t.start) / time.Millisecond)
	if due <= t.seq {
		return
	}
	if due-t.seq > maxCatchUp {
		t.seq = due - maxCatchUp
	}
	for t.seq < due {
		t.seq++
		select {
		case t.ch <- t.seq:
		default:
			t.lost++
		}
	}
}
