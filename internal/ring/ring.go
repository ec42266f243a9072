// Package ring is a fixed-size multi-producer, single-consumer queue for
// handing data from interrupt handlers to threads. It never allocates after
// New and never blocks a producer.
package ring

import (
	"runtime"
	"sync/atomic"
)

type slot[T any] struct {
	seq atomic.Uint32
	val T
}

// Ring is a bounded queue of T. The size is a power of two.
type Ring[T any] struct {
	_     [0]func() // prevent accidental copying.
	mask  uint32
	head  atomic.Uint32
	tail  atomic.Uint32
	slots []slot[T]
	drops atomic.Uint32
}

// New returns a ring with room for at least n values.
func New[T any](n int) *Ring[T] {
	size := uint32(2)
	for int(size) < n {
		size <<= 1
	}
	r := &Ring[T]{mask: size - 1, slots: make([]slot[T], size)}
	for i := range r.slots {
		r.slots[i].seq.Store(uint32(i))
	}
	return r
}

// Cap returns the number of slots.
func (r *Ring[T]) Cap() int { return int(r.mask + 1) }

// Len returns the number of queued values.
func (r *Ring[T]) Len() int { return int(r.head.Load() - r.tail.Load()) }

// Drops returns how many values TryPush rejected.
func (r *Ring[T]) Drops() uint32 { return r.drops.Load() }

// TryPush enqueues v, returning false if the ring is full.
func (r *Ring[T]) TryPush(v T) bool {
	for {
		head := r.head.Load()
		s := &r.slots[head&r.mask]
		seq := s.seq.Load()
		switch {
		case seq == head:
			if r.head.CompareAndSwap(head, head+1) {
				s.val = v
				s.seq.Store(head + 1)
				return true
			}
		case int32(seq-head) < 0:
			r.drops.Add(1)
			return false
		}
	}
}

// Push enqueues v, spinning until there is room.
func (r *Ring[T]) Push(v T) {
	for !r.TryPush(v) {
		runtime.Gosched()
	}
}

// TryPop dequeues one value. Only one goroutine may pop.
func (r *Ring[T]) TryPop() (T, bool) {
	tail := r.tail.Load()
	s := &r.slots[tail&r.mask]
	if s.seq.Load() != tail+1 {
		var zero T
		return zero, false
	}
	v := s.val
	var zero T
	s.val = zero
	s.seq.Store(tail + r.mask + 1)
	r.tail.Store(tail + 1)
	return v, true
}

// Drain pops everything queued into dst.
func (r *Ring[T]) Drain(dst []T) []T {
	for {
		v, ok := r.TryPop()
		if !ok {
			return dst
		}
		dst = append(dst, v)
	}
}
