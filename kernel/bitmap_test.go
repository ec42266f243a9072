package kernel

import (
	"sync"
	"testing"
)

func TestBitmapWide(t *testing.T) {
	b := newBitmap(70)
	if len(b) != 3 {
		t.Fatalf("len(newBitmap(70)) = %d, want 3", len(b))
	}
	if got := b.ffs(); got != -1 {
		t.Fatalf("ffs() = %d, want -1", got)
	}

	b.set(69)
	b.set(33)
	if got := b.ffs(); got != 33 {
		t.Fatalf("ffs() = %d, want 33", got)
	}
	if got := b.fls(); got != 69 {
		t.Fatalf("fls() = %d, want 69", got)
	}
	if got := b.members(nil); len(got) != 2 || got[0] != 33 || got[1] != 69 {
		t.Fatalf("members() = %v, want [33 69]", got)
	}
	if !b.testClr(33) || b.testClr(33) {
		t.Fatalf("testClr(33) did not clear exactly once")
	}
	if got := b.count(); got != 1 {
		t.Fatalf("count() = %d, want 1", got)
	}
}

func TestBitmapAlloc(t *testing.T) {
	b := newBitmap(8)

	if got := b.allocLo(3, 8); got != 3 {
		t.Fatalf("allocLo(3) = %d, want 3", got)
	}
	if got := b.allocLo(3, 8); got != 4 {
		t.Fatalf("allocLo(3) = %d, want 4", got)
	}
	for i := 5; i < 8; i++ {
		b.set(i)
	}
	if got := b.allocLo(3, 8); got != -1 {
		t.Fatalf("allocLo(3) on full tail = %d, want -1", got)
	}
	if got := b.allocHi(3); got != 2 {
		t.Fatalf("allocHi(3) = %d, want 2", got)
	}
}

func TestBitmapTake(t *testing.T) {
	a, b := newBitmap(40), newBitmap(40)
	a.set(1)
	b.set(35)

	a.take(b)
	if !a.test(1) || !a.test(35) {
		t.Fatalf("take() lost bits: %v", a.members(nil))
	}
	if !b.empty() {
		t.Fatalf("take() left src = %v, want empty", b.members(nil))
	}
}

func TestExclStrexFailsAfterStore(t *testing.T) {
	var m excl
	b := newBitmap(64)
	w0, w1 := &b[0], &b[1]

	v, r := m.ldrex(w0)
	m.store(w1, 7)
	if m.strex(w0, v|1, r) {
		t.Fatalf("strex() = true after an intervening store, want false")
	}

	v, r = m.ldrex(w0)
	if !m.strex(w0, v|1, r) {
		t.Fatalf("strex() = false without interference, want true")
	}
	if got := w0.Load(); got != 1 {
		t.Fatalf("word = %d, want 1", got)
	}
}

func TestExclCounter(t *testing.T) {
	var m excl
	b := newBitmap(32)
	w := &b[0]

	const (
		workers = 8
		per     = 2000
	)
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for n := 0; n < per; n++ {
				for {
					v, r := m.ldrex(w)
					if m.strex(w, v+1, r) {
						break
					}
				}
			}
		}()
	}
	wg.Wait()

	if got := w.Load(); got != workers*per {
		t.Fatalf("counter = %d, want %d", got, workers*per)
	}
}
