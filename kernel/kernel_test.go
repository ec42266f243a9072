package kernel

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// newTestKernel builds a kernel, makes the test goroutine thread 1 and pumps
// the clock until the test ends.
func newTestKernel(t *testing.T, mut func(*Config)) (*Kernel, *Context) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Threads = 8
	if mut != nil {
		mut(&cfg)
	}
	k, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	c, err := k.Init(ThreadInit{ID: 1, Tag: "main"})
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	stop := make(chan struct{})
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			k.Tick()
			time.Sleep(50 * time.Microsecond)
		}
	}()
	t.Cleanup(func() { close(stop) })

	return k, c
}

// waitUntil sleeps the calling thread one tick at a time until cond holds.
func waitUntil(t *testing.T, c *Context, what string, cond func() bool) {
	t.Helper()
	for i := 0; i < 5000; i++ {
		if cond() {
			return
		}
		c.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func waitQueued(t *testing.T, c *Context, q ObjID, n int) {
	t.Helper()
	waitUntil(t, c, "queue members", func() bool {
		snap := c.Kernel().Snapshot()
		return len(snap.Queue(q)) == n
	})
}

func mustAlloc(t *testing.T, c *Context, kind Kind) ObjID {
	t.Helper()
	id, err := c.ObjAlloc(kind)
	if err != nil {
		t.Fatalf("ObjAlloc(%v) error = %v", kind, err)
	}
	return id
}

func spawn(t *testing.T, c *Context, id int, fn func(c *Context) int) int {
	t.Helper()
	th, err := c.ThreadCreate(ThreadInit{
		ID:       id,
		Tag:      "t",
		Detached: true,
		Entry:    func(c *Context, _ any) int { return fn(c) },
	})
	if err != nil {
		t.Fatalf("ThreadCreate() error = %v", err)
	}
	return th
}

// recorder collects values from kernel threads for the main thread to
// check.
type recorder struct {
	mu   sync.Mutex
	vals []int
}

func (r *recorder) add(v int) {
	r.mu.Lock()
	r.vals = append(r.vals, v)
	r.mu.Unlock()
}

func (r *recorder) get() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.vals...)
}

func (r *recorder) len() int { return len(r.get()) }

// checkOneQueue verifies no thread is linked in more than one wait queue.
func checkOneQueue(t *testing.T, snap Snapshot) {
	t.Helper()
	seen := map[int]ObjID{}
	for _, q := range snap.Queues {
		if q.Obj.Kind == KindClock || q.Obj.Kind == KindPaused || q.Obj.Kind == KindTmshare {
			continue
		}
		for _, th := range q.Threads {
			if prev, ok := seen[th]; ok {
				t.Fatalf("thread %d in queues %d and %d", th, prev, q.ID)
			}
			seen[th] = q.ID
		}
	}
}

func TestNewRejectsNoThreads(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threads = 0
	_, err := New(cfg)
	if !errors.Is(err, ErrBadConfig) {
		t.Fatalf("New() error = %v, want ErrBadConfig", err)
	}
}

func TestInitRejectsEntry(t *testing.T) {
	k, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	_, err = k.Init(ThreadInit{Entry: func(*Context, any) int { return 0 }})
	if !errors.Is(err, ErrBadConfig) {
		t.Fatalf("Init() error = %v, want ErrBadConfig", err)
	}
}

func TestLayoutPartitionsIDs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Threads = 4
	cfg.Mutexes = 2
	cfg.Semaphores = 3
	l := newLayout(cfg)

	id, ok := l.ID(Obj{Kind: KindSemaphore, Index: 2})
	if !ok {
		t.Fatalf("ID(sem/2) ok = false")
	}
	if got := l.Kind(id); got != KindSemaphore {
		t.Fatalf("Kind(%d) = %v, want sem", id, got)
	}
	if got := l.Split(id); got.Index != 2 {
		t.Fatalf("Split(%d).Index = %d, want 2", id, got.Index)
	}
	if _, ok := l.ID(Obj{Kind: KindMutex, Index: 2}); ok {
		t.Fatalf("ID(mutex/2) ok = true, want false")
	}
	if got := l.Kind(l.End()); got != KindInvalid {
		t.Fatalf("Kind(End) = %v, want invalid", got)
	}
	if got := l.Count(KindJoin); got != 4 {
		t.Fatalf("Count(join) = %d, want 4", got)
	}
	if l.Base(KindReady) != 0 {
		t.Fatalf("Base(ready) = %d, want 0", l.Base(KindReady))
	}
}

func TestLayoutSkipsEmptyKinds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Conds = 0
	l := newLayout(cfg)

	id := l.Base(KindSemaphore)
	if got := l.Kind(id); got != KindSemaphore {
		t.Fatalf("Kind(%d) = %v, want sem", id, got)
	}
}

func TestObjKind(t *testing.T) {
	_, c := newTestKernel(t, nil)
	k := c.Kernel()

	m := mustAlloc(t, c, KindMutex)
	if got := k.ObjKind(m); got != KindMutex {
		t.Fatalf("ObjKind(%d) = %v, want mutex", m, got)
	}
	if got := k.ObjKind(-1); got != KindInvalid {
		t.Fatalf("ObjKind(-1) = %v, want invalid", got)
	}
}

func TestThreadCreatePrefersID(t *testing.T) {
	_, c := newTestKernel(t, nil)
	k := c.Kernel()

	th := spawn(t, c, 5, func(c *Context) int { return 0 })
	if th != 5 {
		t.Fatalf("ThreadCreate(ID 5) = %d, want 5", th)
	}
	th2, err := c.ThreadCreate(ThreadInit{ID: 5, Entry: func(*Context, any) int { return 0 }, Paused: true})
	if err != nil {
		t.Fatalf("ThreadCreate() error = %v", err)
	}
	if th2 == 5 || th2 == 1 {
		t.Fatalf("ThreadCreate(ID 5) = %d, want a free slot", th2)
	}
	info, ok := k.ThreadInfo(th2)
	if !ok || info.StackSize != k.Config().StackSize {
		t.Fatalf("ThreadInfo(%d) = %+v, %v", th2, info, ok)
	}
}

func TestThreadCreateSmallStack(t *testing.T) {
	_, c := newTestKernel(t, nil)

	_, err := c.ThreadCreate(ThreadInit{Entry: func(*Context, any) int { return 0 }, Stack: make([]uint32, 2)})
	if err != EINVAL {
		t.Fatalf("ThreadCreate() error = %v, want EINVAL", err)
	}
	if got := c.Errno(); got != ErrThreadSmallStack {
		t.Fatalf("Errno() = %v, want %v", got, ErrThreadSmallStack)
	}
}

func TestThreadCreateExhausted(t *testing.T) {
	_, c := newTestKernel(t, func(cfg *Config) { cfg.Threads = 2 })

	if _, err := c.ThreadCreate(ThreadInit{Entry: func(*Context, any) int { return 0 }, Paused: true}); err != nil {
		t.Fatalf("ThreadCreate() error = %v", err)
	}
	_, err := c.ThreadCreate(ThreadInit{Entry: func(*Context, any) int { return 0 }})
	if err != ENOMEM {
		t.Fatalf("ThreadCreate() error = %v, want ENOMEM", err)
	}
}

func TestSyscallUnknown(t *testing.T) {
	k, c := newTestKernel(t, nil)

	var arg Args
	k.Syscall(c.ID(), svcCount+3, &arg)
	if Errno(arg[0]) != ENOSYS {
		t.Fatalf("Syscall() r0 = %d, want ENOSYS", arg[0])
	}
	if got := c.Errno(); got != ErrSyscallInvalid {
		t.Fatalf("Errno() = %v, want %v", got, ErrSyscallInvalid)
	}
}

func TestSleepAdvancesClock(t *testing.T) {
	_, c := newTestKernel(t, nil)

	start := c.Clock()
	if err := c.Sleep(5 * time.Millisecond); err != nil {
		t.Fatalf("Sleep() error = %v", err)
	}
	if d := c.Clock() - start; d < 5 {
		t.Fatalf("Clock() advanced %d ticks, want >= 5", d)
	}

	target := c.Clock() + 3
	if err := c.Alarm(target); err != nil {
		t.Fatalf("Alarm() error = %v", err)
	}
	if now := c.Clock(); int32(now-target) < 0 {
		t.Fatalf("Clock() = %d after Alarm(%d)", now, target)
	}
}

func TestRealtimeClock(t *testing.T) {
	k, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	k.ClockSetRealtime(100 << 32)
	for i := 0; i < TickHz; i++ {
		k.Tick()
	}
	if got := k.ClockRealtime() >> 32; got != 100 && got != 101 {
		t.Fatalf("ClockRealtime() = %d s, want about 101", got)
	}

	before := k.ClockRealtime()
	k.ClockDrift(1000)
	if got := k.ClockRealtime(); got != before {
		t.Fatalf("ClockDrift() moved the clock: %d -> %d", before, got)
	}
}

func TestSchedulePanicsOnBadContext(t *testing.T) {
	k, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	var got []PanicInfo
	k.SetPanicHandler(func(info PanicInfo) { got = append(got, info) })

	s := k.x.lock()
	k.rdy.set(2)
	k.x.unlock(s)

	k.mu.Lock()
	k.schedule()
	k.schedule()
	k.mu.Unlock()

	if !k.InPanicMode() {
		t.Fatalf("InPanicMode() = false, want true")
	}
	if len(got) != 1 || got[0].Reason != PanicBadContext || got[0].Thread != 3 {
		t.Fatalf("panic handler calls = %+v, want one bad context for thread 3", got)
	}
	if k.Active() != k.Idle() {
		t.Fatalf("Active() = %d, want idle", k.Active())
	}
}

func TestErrnoString(t *testing.T) {
	tests := []struct {
		in   Errno
		want string
	}{
		{OK, "ok"},
		{ETIMEDOUT, "timed out"},
		{EFAULT, "bad address"},
		{ENOMEM, "out of objects"},
		{Errno(-2), "errno -2"},
		{Errno(-10), "errno -10"},
	}
	for _, tt := range tests {
		if got := tt.in.String(); got != tt.want {
			t.Fatalf("Errno(%d).String() = %q, want %q", int32(tt.in), got, tt.want)
		}
	}
}
