package kernel

import "sync/atomic"

const (
	// ctxWords is the size of a saved register frame.
	ctxWords = 16

	stackGuard = 0xdeadbeef

	ctrlUnprivileged = 1 << 0
	ctrlFPU          = 1 << 2
)

// Entry is the body of a thread. Its return value is the exit code.
type Entry func(c *Context, arg any) int

// ThreadInit describes a new thread.
type ThreadInit struct {
	// ID is the preferred slot. The lowest free slot at or above it is
	// used, then the highest free slot below it. 0 means any.
	ID    int
	Tag   string
	Entry Entry
	Arg   any

	// Stack is the thread stack. When nil, StackSize bytes are reserved.
	// Stack[0] is the guard word at the stack limit.
	Stack     []uint32
	StackSize int

	// Priority is the time-share weight: the larger, the faster the
	// thread uses up its share.
	Priority   int
	Privileged bool
	FPU        bool
	Paused     bool

	// Detached threads free their slot on exit without waiting for a
	// joiner.
	Detached bool
}

type thread struct {
	ctx   atomic.Pointer[threadCtx] // nil: no thread
	stat  atomic.Uint32             // wq<<1 | timed
	tmr   atomic.Uint32             // absolute deadline
	errno atomic.Uint32
	cyc   atomic.Uint32

	// owned by the exception band
	pri  int32
	val  int32
	crit int32 // critical section depth
}

type threadCtx struct {
	arg   Args
	ctrl  uint32
	stack []uint32
	frame Frame
	entry Entry
	param any
	tag   string
	prio  int

	detached bool
	code     int32 // exit or cancel code
	cancel   atomic.Bool
}

// stackFree counts the untouched guard words at the stack limit.
func (tc *threadCtx) stackFree() int {
	n := 0
	for _, w := range tc.stack {
		if w != stackGuard {
			break
		}
		n += 4
	}
	return n
}

func (tc *threadCtx) guardOK() bool {
	return len(tc.stack) == 0 || tc.stack[0] == stackGuard
}

func ctrlBits(init ThreadInit) uint32 {
	var c uint32
	if !init.Privileged {
		c |= ctrlUnprivileged
	}
	if init.FPU {
		c |= ctrlFPU
	}
	return c
}

// allocThread claims a slot near id. Requires the monitor lock.
func (k *Kernel) allocThread(id int) int {
	from := id - 1
	if from < 0 {
		from = 0
	}
	i := k.thAlloc.allocLo(from, k.cfg.Threads)
	if i < 0 {
		i = k.thAlloc.allocHi(from)
	}
	return i + 1
}

func (k *Kernel) validThread(th int) bool {
	return th >= 1 && th <= k.cfg.Threads
}

func (k *Kernel) ctx(th int) *threadCtx {
	if th < 1 || th >= len(k.th) {
		return nil
	}
	return k.th[th].ctx.Load()
}

func (k *Kernel) setupThread(th int, tc *threadCtx, prio int) {
	t := &k.th[th]
	t.stat.Store(0)
	t.tmr.Store(0)
	t.errno.Store(0)
	t.cyc.Store(0)
	t.crit = 0
	k.prioritySet(th, prio)
	t.ctx.Store(tc)
}

func (k *Kernel) threadMain(th int, tc *threadCtx) {
	k.park(th, tc.frame)
	c := &Context{k: k, th: th}
	code := tc.entry(c, tc.param)
	c.Exit(code)
}

func threadCreateSvc(k *Kernel, arg *Args, self int, init *ThreadInit) {
	if init.Entry == nil || init.ID < 0 || init.ID > k.cfg.Threads {
		k.fail(arg, self, ErrThreadInvalid, EINVAL)
		return
	}

	stack := init.Stack
	if stack == nil {
		n := init.StackSize
		if n == 0 {
			n = k.cfg.StackSize
		}
		stack = make([]uint32, (n+3)/4)
	}
	if len(stack)*4 < k.cfg.MinStack {
		k.fail(arg, self, ErrThreadSmallStack, EINVAL)
		return
	}

	s := k.x.lock()
	th := k.allocThread(init.ID)
	k.x.unlock(s)
	if th == 0 {
		k.fail(arg, self, ErrThreadAlloc, ENOMEM)
		return
	}

	for i := range stack {
		stack[i] = stackGuard
	}
	tc := &threadCtx{
		ctrl:  ctrlBits(*init),
		stack: stack,
		entry: init.Entry,
		param: init.Arg,
		tag:   init.Tag,
		prio:  init.Priority,

		detached: init.Detached,
	}
	tc.frame = k.cfg.Port.NewFrame(th, func() { k.threadMain(th, tc) })
	k.setupThread(th, tc, init.Priority)

	s = k.x.lock()
	if init.Paused {
		k.paused.set(th - 1)
	} else {
		k.rdy.set(th - 1)
	}
	k.x.unlock(s)

	k.logf("thread %d (%s) created", th, init.Tag)
	arg[0] = int32(th)
	k.deferSched()
}

// ThreadInfo describes an existing thread.
type ThreadInfo struct {
	ID         int
	Tag        string
	Priority   int
	Privileged bool
	StackSize  int
	StackFree  int
}

// ThreadInfo returns the creation parameters of th.
func (k *Kernel) ThreadInfo(th int) (ThreadInfo, bool) {
	tc := k.ctx(th)
	if tc == nil {
		return ThreadInfo{}, false
	}
	return ThreadInfo{
		ID:         th,
		Tag:        tc.tag,
		Priority:   tc.prio,
		Privileged: tc.ctrl&ctrlUnprivileged == 0,
		StackSize:  len(tc.stack) * 4,
		StackFree:  tc.stackFree(),
	}, true
}
