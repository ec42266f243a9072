package kernel

import (
	"math/bits"
	"sync/atomic"
)

// bitmap is a bitset of any width stored in 32-bit words.
//
// Readers may use it at any time. Writers either hold the monitor lock and
// use set/clr, or go through ldrex/strex on a single word.
type bitmap []atomic.Uint32

func newBitmap(n int) bitmap {
	if n <= 0 {
		n = 1
	}
	return make(bitmap, (n+31)/32)
}

func (b bitmap) word(i int) (*atomic.Uint32, uint32) {
	return &b[i>>5], 1 << uint(i&31)
}

func (b bitmap) test(i int) bool {
	w, m := b.word(i)
	return w.Load()&m != 0
}

// ffs returns the lowest set bit, or -1.
func (b bitmap) ffs() int {
	for i := range b {
		if v := b[i].Load(); v != 0 {
			return i<<5 + bits.TrailingZeros32(v)
		}
	}
	return -1
}

// fls returns the highest set bit, or -1.
func (b bitmap) fls() int {
	for i := len(b) - 1; i >= 0; i-- {
		if v := b[i].Load(); v != 0 {
			return i<<5 + 31 - bits.LeadingZeros32(v)
		}
	}
	return -1
}

func (b bitmap) empty() bool {
	for i := range b {
		if b[i].Load() != 0 {
			return false
		}
	}
	return true
}

func (b bitmap) count() int {
	n := 0
	for i := range b {
		n += bits.OnesCount32(b[i].Load())
	}
	return n
}

// members appends every set bit, lowest first.
func (b bitmap) members(dst []int) []int {
	for i := range b {
		v := b[i].Load()
		for v != 0 {
			n := bits.TrailingZeros32(v)
			dst = append(dst, i<<5+n)
			v &^= 1 << uint(n)
		}
	}
	return dst
}

// The accessors below require the monitor lock.

func (b bitmap) set(i int) {
	w, m := b.word(i)
	w.Store(w.Load() | m)
}

func (b bitmap) clr(i int) {
	w, m := b.word(i)
	w.Store(w.Load() &^ m)
}

// testClr clears bit i and reports whether it was set.
func (b bitmap) testClr(i int) bool {
	w, m := b.word(i)
	v := w.Load()
	if v&m == 0 {
		return false
	}
	w.Store(v &^ m)
	return true
}

// take merges src into b and clears src.
func (b bitmap) take(src bitmap) {
	for i := range b {
		if v := src[i].Load(); v != 0 {
			b[i].Store(b[i].Load() | v)
			src[i].Store(0)
		}
	}
}

func (b bitmap) reset() {
	for i := range b {
		b[i].Store(0)
	}
}

// allocLo claims the lowest clear bit at or above from, below n.
func (b bitmap) allocLo(from, n int) int {
	if from < 0 {
		from = 0
	}
	for i := from; i < n; i++ {
		if !b.test(i) {
			b.set(i)
			return i
		}
	}
	return -1
}

// allocHi claims the highest clear bit below from.
func (b bitmap) allocHi(from int) int {
	for i := from - 1; i >= 0; i-- {
		if !b.test(i) {
			b.set(i)
			return i
		}
	}
	return -1
}
