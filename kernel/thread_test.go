package kernel

import (
	"sync"
	"testing"
	"time"
)

func TestJoinReturnsExitCode(t *testing.T) {
	_, c := newTestKernel(t, nil)

	th, err := c.ThreadCreate(ThreadInit{
		Tag:   "worker",
		Entry: func(c *Context, arg any) int { return arg.(int) + 1 },
		Arg:   6,
	})
	if err != nil {
		t.Fatalf("ThreadCreate() error = %v", err)
	}
	code, err := c.Join(th)
	if err != nil || code != 7 {
		t.Fatalf("Join() = %d, %v, want 7, nil", code, err)
	}
	if _, ok := c.Kernel().ThreadInfo(th); ok {
		t.Fatalf("ThreadInfo(%d) ok = true after join", th)
	}
}

func TestJoinAfterExit(t *testing.T) {
	k, c := newTestKernel(t, nil)

	th, err := c.ThreadCreate(ThreadInit{Entry: func(*Context, any) int { return 3 }})
	if err != nil {
		t.Fatalf("ThreadCreate() error = %v", err)
	}
	waitQueued(t, c, k.Layout().Base(KindCanceled), 1)

	code, err := c.Join(th)
	if err != nil || code != 3 {
		t.Fatalf("Join() = %d, %v, want 3, nil", code, err)
	}
	if got := c.Errno(); got != ErrNone {
		t.Fatalf("Errno() = %v, want %v", got, ErrNone)
	}
	if _, err := c.Join(c.ID()); err != EDEADLK {
		t.Fatalf("Join(self) error = %v, want EDEADLK", err)
	}
	if got := c.Errno(); got != ErrThreadInvalid {
		t.Fatalf("Errno() after Join(self) = %v, want %v", got, ErrThreadInvalid)
	}
	if err := c.Pause(c.ID() + 100); err != EINVAL {
		t.Fatalf("Pause(bad) error = %v, want EINVAL", err)
	}
}

func TestCancelBlockedThread(t *testing.T) {
	_, c := newTestKernel(t, nil)
	s := mustAlloc(t, c, KindSemaphore)

	var after recorder
	th, err := c.ThreadCreate(ThreadInit{Entry: func(c *Context, _ any) int {
		c.SemWait(s)
		after.add(1)
		return 0
	}})
	if err != nil {
		t.Fatalf("ThreadCreate() error = %v", err)
	}
	waitQueued(t, c, s, 1)

	if err := c.Cancel(th, 9); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	code, err := c.Join(th)
	if err != nil || code != 9 {
		t.Fatalf("Join() = %d, %v, want 9, nil", code, err)
	}
	if after.len() != 0 {
		t.Fatalf("canceled thread returned from SemWait()")
	}
}

func TestTerminate(t *testing.T) {
	k, c := newTestKernel(t, nil)
	s := mustAlloc(t, c, KindSemaphore)

	th := spawn(t, c, 4, func(c *Context) int {
		c.SemWait(s)
		return 0
	})
	waitQueued(t, c, s, 1)

	if err := c.Terminate(th, 0); err != nil {
		t.Fatalf("Terminate() error = %v", err)
	}
	snap := k.Snapshot()
	if _, ok := snap.Thread(th); ok {
		t.Fatalf("thread %d still in snapshot", th)
	}
	if q := snap.Queue(s); len(q) != 0 {
		t.Fatalf("semaphore queue = %v, want empty", q)
	}
	if again := spawn(t, c, 4, func(c *Context) int { return 0 }); again != 4 {
		t.Fatalf("ThreadCreate(ID 4) after terminate = %d, want 4", again)
	}
}

func TestPauseResumeWaiter(t *testing.T) {
	k, c := newTestKernel(t, nil)
	s := mustAlloc(t, c, KindSemaphore)

	var res recorder
	th := spawn(t, c, 2, func(c *Context) int {
		res.add(int(errnoOf(c.SemWait(s))))
		return 0
	})
	waitQueued(t, c, s, 1)

	if err := c.Pause(th); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	snap := k.Snapshot()
	ts, _ := snap.Thread(th)
	if !ts.Paused || ts.WaitKind != KindSemaphore {
		t.Fatalf("paused thread state = %+v", ts)
	}
	if q := snap.Queue(s); len(q) != 0 {
		t.Fatalf("semaphore queue while paused = %v, want empty", q)
	}
	checkOneQueue(t, snap)

	c.SemPost(s)
	c.Sleep(2 * time.Millisecond)
	if res.len() != 0 {
		t.Fatalf("paused thread ran")
	}

	if err := c.Resume(th); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	waitUntil(t, c, "resumed thread", func() bool { return res.len() == 1 })
	if got := res.get()[0]; got != 0 {
		t.Fatalf("SemWait() after resume = %v, want nil", Errno(got))
	}
	if err := c.SemTryWait(s); err != EAGAIN {
		t.Fatalf("SemTryWait() = %v, want EAGAIN: resume consumed the post", err)
	}
}

func TestPauseResumeRequeues(t *testing.T) {
	k, c := newTestKernel(t, nil)
	f, _ := c.FlagAlloc(FlagTake)

	th := spawn(t, c, 2, func(c *Context) int {
		c.Take(f)
		return 0
	})
	waitQueued(t, c, f, 1)

	c.Pause(th)
	c.Resume(th)
	if q := k.Snapshot().Queue(f); len(q) != 1 || q[0] != th {
		t.Fatalf("flag queue after resume = %v, want [%d]", q, th)
	}
	c.Give(f)
}

func TestStackOverflowFaults(t *testing.T) {
	k, c := newTestKernel(t, nil)

	var mu sync.Mutex
	var faults []FaultInfo
	k.SetFaultHandler(func(fi FaultInfo) {
		mu.Lock()
		faults = append(faults, fi)
		mu.Unlock()
	})

	th := spawn(t, c, 3, func(c *Context) int {
		for {
			c.Sleep(time.Millisecond)
		}
	})
	c.Sleep(2 * time.Millisecond)
	// Goroutine threads never touch their stack slice.
	if tc := k.ctx(th); tc.stackFree() != 4*len(tc.stack) {
		t.Fatalf("stackFree() = %d, want %d", tc.stackFree(), 4*len(tc.stack))
	}
	k.ctx(th).stack[0] = 0

	waitUntil(t, c, "stack fault", func() bool {
		ts, ok := k.Snapshot().Thread(th)
		return ok && ts.Faulted
	})
	mu.Lock()
	defer mu.Unlock()
	if len(faults) != 1 || faults[0].Thread != th || faults[0].Reason != FaultStackOverflow {
		t.Fatalf("faults = %+v, want one stack overflow of %d", faults, th)
	}
}

func TestErrorTrap(t *testing.T) {
	k, c := newTestKernel(t, func(cfg *Config) { cfg.ErrorTrap = true })
	m := mustAlloc(t, c, KindMutex)

	var got FaultInfo
	var mu sync.Mutex
	k.SetFaultHandler(func(fi FaultInfo) {
		mu.Lock()
		got = fi
		mu.Unlock()
	})

	th := spawn(t, c, 2, func(c *Context) int {
		c.Unlock(m)
		return 0
	})
	waitUntil(t, c, "usage fault", func() bool {
		ts, ok := k.Snapshot().Thread(th)
		return ok && ts.Faulted && ts.Errno == ErrMutexNotMine
	})
	mu.Lock()
	defer mu.Unlock()
	if got.Reason != FaultUsage || got.Err != ErrMutexNotMine {
		t.Fatalf("fault = %+v, want usage/%v", got, ErrMutexNotMine)
	}
	if q := k.Snapshot().Queue(k.Layout().Base(KindFault)); len(q) != 1 || q[0] != th {
		t.Fatalf("fault queue = %v, want [%d]", q, th)
	}
}

func TestCriticalSectionHoldsReschedule(t *testing.T) {
	_, c := newTestKernel(t, nil)
	s := mustAlloc(t, c, KindSemaphore)

	var res recorder
	spawn(t, c, 2, func(c *Context) int {
		c.SemWait(s)
		res.add(2)
		return 0
	})
	waitQueued(t, c, s, 1)

	spawn(t, c, 5, func(c *Context) int {
		c.CriticalEnter()
		c.CriticalEnter()
		c.SemPost(s)
		res.add(51)
		c.CriticalExit()
		c.Yield()
		res.add(52)
		c.CriticalExit()
		res.add(53)
		return 0
	})
	waitUntil(t, c, "critical section", func() bool { return res.len() == 4 })

	got := res.get()
	want := []int{51, 52, 2, 53}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("run order = %v, want %v", got, want)
		}
	}

	if err := c.CriticalExit(); err != EFAULT {
		t.Fatalf("CriticalExit() outside a section error = %v, want EFAULT", err)
	}
	if got := c.Errno(); got != ErrCriticalExit {
		t.Fatalf("Errno() = %v, want %v", got, ErrCriticalExit)
	}
}

func TestCriticalSectionBlocking(t *testing.T) {
	_, c := newTestKernel(t, nil)

	var res recorder
	spawn(t, c, 3, func(c *Context) int {
		c.CriticalEnter()
		c.Sleep(2 * time.Millisecond)
		res.add(3)
		c.CriticalExit()
		return 0
	})
	spawn(t, c, 4, func(c *Context) int {
		res.add(4)
		return 0
	})
	waitUntil(t, c, "both threads", func() bool { return res.len() == 2 })
	if got := res.get(); got[0] != 4 {
		t.Fatalf("run order = %v, want 4 first: the sleeper gave up the processor", got)
	}
}

func TestTimeShareRotates(t *testing.T) {
	_, c := newTestKernel(t, func(cfg *Config) { cfg.TimeShare = true })

	var mu sync.Mutex
	counts := map[int]int{}
	busy := func(c *Context, _ any) int {
		for {
			mu.Lock()
			counts[c.ID()]++
			mu.Unlock()
			c.Clock()
		}
	}
	var ths []int
	for i := 0; i < 2; i++ {
		th, err := c.ThreadCreate(ThreadInit{Entry: busy, Priority: 4, Detached: true})
		if err != nil {
			t.Fatalf("ThreadCreate() error = %v", err)
		}
		ths = append(ths, th)
	}
	waitUntil(t, c, "both busy threads", func() bool {
		mu.Lock()
		defer mu.Unlock()
		return counts[ths[0]] > 0 && counts[ths[1]] > 0
	})
	for _, th := range ths {
		c.Terminate(th, 0)
	}
}
