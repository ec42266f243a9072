package kernel

import (
	"testing"
	"time"
)

func TestMutexHandoffOrder(t *testing.T) {
	k, c := newTestKernel(t, nil)
	m := mustAlloc(t, c, KindMutex)
	mi := k.Layout().Split(m).Index

	if err := c.Lock(m); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	var order recorder
	for th := 2; th <= 4; th++ {
		spawn(t, c, th, func(c *Context) int {
			if err := c.Lock(m); err != nil {
				order.add(-c.ID())
				return 1
			}
			order.add(c.ID())
			c.Unlock(m)
			return 0
		})
	}
	waitQueued(t, c, m, 3)

	snap := k.Snapshot()
	checkOneQueue(t, snap)
	if got := snap.Owners[mi]; got != 1 {
		t.Fatalf("owner = %d, want 1", got)
	}

	if err := c.Unlock(m); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}
	snap = k.Snapshot()
	if got := snap.Owners[mi]; got != 2 {
		t.Fatalf("owner after Unlock() = %d, want 2", got)
	}
	if got := snap.Queue(m); len(got) != 2 || got[0] != 3 || got[1] != 4 {
		t.Fatalf("queue after Unlock() = %v, want [3 4]", got)
	}
	checkOneQueue(t, snap)

	waitUntil(t, c, "all lockers", func() bool { return order.len() == 3 })
	if got := order.get(); got[0] != 2 || got[1] != 3 || got[2] != 4 {
		t.Fatalf("lock order = %v, want [2 3 4]", got)
	}
	if _, locked := k.Snapshot().Owners[mi]; locked {
		t.Fatalf("mutex still locked after every thread unlocked")
	}
}

func TestMutexErrors(t *testing.T) {
	_, c := newTestKernel(t, nil)
	m := mustAlloc(t, c, KindMutex)

	if err := c.Unlock(m); err != EPERM {
		t.Fatalf("Unlock() unowned error = %v, want EPERM", err)
	}
	if got := c.Errno(); got != ErrMutexNotMine {
		t.Fatalf("Errno() = %v, want %v", got, ErrMutexNotMine)
	}

	if err := c.Lock(m); err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	if err := c.Lock(m); err != EDEADLK {
		t.Fatalf("Lock() relock error = %v, want EDEADLK", err)
	}
	if got := c.Errno(); got != ErrMutexLocked {
		t.Fatalf("Errno() = %v, want %v", got, ErrMutexLocked)
	}

	var res recorder
	spawn(t, c, 2, func(c *Context) int {
		res.add(int(errnoOf(c.TryLock(m))))
		res.add(int(errnoOf(c.TimedLock(m, 2*time.Millisecond))))
		return 0
	})
	waitUntil(t, c, "trylock results", func() bool { return res.len() == 2 })
	got := res.get()
	if Errno(got[0]) != EAGAIN {
		t.Fatalf("TryLock() busy = %v, want EAGAIN", Errno(got[0]))
	}
	if Errno(got[1]) != ETIMEDOUT {
		t.Fatalf("TimedLock() busy = %v, want ETIMEDOUT", Errno(got[1]))
	}

	if err := c.Lock(c.Kernel().Obj(KindSemaphore, 0)); err != EINVAL {
		t.Fatalf("Lock(sem) error = %v, want EINVAL", err)
	}
	if got := c.Errno(); got != ErrMutexInvalid {
		t.Fatalf("Errno() = %v, want %v", got, ErrMutexInvalid)
	}
	if err := c.Lock(c.Kernel().Obj(KindMutex, 5)); err != EINVAL {
		t.Fatalf("Lock(unallocated) error = %v, want EINVAL", err)
	}
	if got := c.Errno(); got != ErrMutexAlloc {
		t.Fatalf("Errno() = %v, want %v", got, ErrMutexAlloc)
	}
}

func TestCondWaitSignal(t *testing.T) {
	k, c := newTestKernel(t, nil)
	m := mustAlloc(t, c, KindMutex)
	cv := mustAlloc(t, c, KindCond)
	mi := k.Layout().Split(m).Index

	var res recorder
	spawn(t, c, 2, func(c *Context) int {
		c.Lock(m)
		err := c.Wait(cv, m)
		res.add(int(errnoOf(err)))
		res.add(c.Kernel().Snapshot().Owners[mi])
		c.Unlock(m)
		return 0
	})
	waitQueued(t, c, cv, 1)

	if err := c.TryLock(m); err != nil {
		t.Fatalf("TryLock() while waiter sleeps error = %v, want nil", err)
	}
	if err := c.Signal(cv); err != nil {
		t.Fatalf("Signal() error = %v", err)
	}
	if err := c.Unlock(m); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	waitUntil(t, c, "cond waiter", func() bool { return res.len() == 2 })
	got := res.get()
	if got[0] != 0 {
		t.Fatalf("Wait() = %v, want nil", Errno(got[0]))
	}
	if got[1] != 2 {
		t.Fatalf("owner after Wait() = %d, want 2", got[1])
	}
}

func TestCondWaitNotOwner(t *testing.T) {
	_, c := newTestKernel(t, nil)
	m := mustAlloc(t, c, KindMutex)
	cv := mustAlloc(t, c, KindCond)

	if err := c.Wait(cv, m); err != EPERM {
		t.Fatalf("Wait() without mutex error = %v, want EPERM", err)
	}
	if err := c.Broadcast(cv); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}
}

func TestCondBroadcastWakesAll(t *testing.T) {
	k, c := newTestKernel(t, nil)
	m := mustAlloc(t, c, KindMutex)
	cv := mustAlloc(t, c, KindCond)
	mi := k.Layout().Split(m).Index

	var order recorder
	for th := 5; th >= 2; th-- {
		spawn(t, c, th, func(c *Context) int {
			c.Lock(m)
			if err := c.Wait(cv, m); err != nil {
				order.add(-c.ID())
			} else if owner := c.Kernel().Snapshot().Owners[mi]; owner != c.ID() {
				order.add(-c.ID())
			} else {
				order.add(c.ID())
			}
			c.Unlock(m)
			return 0
		})
	}
	waitQueued(t, c, cv, 4)

	c.Lock(m)
	if err := c.Broadcast(cv); err != nil {
		t.Fatalf("Broadcast() error = %v", err)
	}
	if n := len(k.Snapshot().Queue(cv)); n != 0 {
		t.Fatalf("cond waiters after Broadcast() = %d, want 0", n)
	}
	c.Unlock(m)

	waitUntil(t, c, "all waiters", func() bool { return order.len() == 4 })
	got := order.get()
	want := []int{2, 3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("relock order = %v, want %v", got, want)
		}
	}
}

func TestCondTimedWaitRelocks(t *testing.T) {
	k, c := newTestKernel(t, nil)
	m := mustAlloc(t, c, KindMutex)
	cv := mustAlloc(t, c, KindCond)

	c.Lock(m)
	if err := c.TimedWait(cv, m, 2*time.Millisecond); err != ETIMEDOUT {
		t.Fatalf("TimedWait() error = %v, want ETIMEDOUT", err)
	}
	if got := k.Snapshot().Owners[k.Layout().Split(m).Index]; got != c.ID() {
		t.Fatalf("owner after TimedWait() = %d, want %d", got, c.ID())
	}
}

func errnoOf(err error) Errno {
	if err == nil {
		return OK
	}
	if e, ok := err.(Errno); ok {
		return e
	}
	return EFAULT
}
