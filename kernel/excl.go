package kernel

import (
	"runtime"
	"sync/atomic"
)

// excl emulates the exclusive monitor of a single core.
//
// ldrex takes a reservation together with the value; strex stores only if no
// other store went through the monitor since the reservation. An interrupt
// entry clears the hardware monitor; here any store from any context clears
// every outstanding reservation, which is never weaker.
//
// lock/unlock is the "interrupts disabled" section for multi-word changes.
// Code inside it uses the plain word accessors and must not call ldrex.
type excl struct {
	seq atomic.Uint32 // odd while a store is in progress
}

type resv uint32

func (m *excl) ldrex(w *atomic.Uint32) (uint32, resv) {
	for {
		s := m.seq.Load()
		if s&1 == 0 {
			return w.Load(), resv(s)
		}
		runtime.Gosched()
	}
}

func (m *excl) strex(w *atomic.Uint32, v uint32, r resv) bool {
	if !m.seq.CompareAndSwap(uint32(r), uint32(r)+1) {
		return false
	}
	w.Store(v)
	m.seq.Store(uint32(r) + 2)
	return true
}

func (m *excl) lock() uint32 {
	for {
		s := m.seq.Load()
		if s&1 == 0 && m.seq.CompareAndSwap(s, s+1) {
			return s
		}
		runtime.Gosched()
	}
}

func (m *excl) unlock(s uint32) {
	m.seq.Store(s + 2)
}

// store writes one word through the monitor.
func (m *excl) store(w *atomic.Uint32, v uint32) {
	s := m.lock()
	w.Store(v)
	m.unlock(s)
}
