package kernel

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Kernel holds all scheduler and object state. Every table is sized by New;
// nothing on a kernel path allocates afterwards.
type Kernel struct {
	cfg Config
	lay Layout
	x   excl

	// mu is the exception band: system calls, the tick and the scheduler
	// never run concurrently. Interrupt entry points do not take it except
	// to dispatch an idle processor.
	mu sync.Mutex

	wq       []bitmap // indexed by ObjID
	rdy      bitmap
	tms      bitmap
	clk      bitmap
	paused   bitmap
	canceled bitmap
	faulted  bitmap

	th   []thread // 0 unused, 1..Threads, idle
	idle int

	active  atomic.Int32
	pendsv  atomic.Bool
	insched atomic.Bool
	started bool

	thAlloc bitmap
	alloc   [kindCount]bitmap
	limit   int32
	cycRef  uint32

	ticks atomic.Uint32
	rt    rtclock

	mtx    []int32
	sem    []atomic.Uint32
	flags  bitmap
	watch  bitmap
	gates  bitmap // two bits per gate
	gateIn []int32
	evPend []atomic.Uint32
	evMask []atomic.Uint32
	irqTh  []atomic.Int32

	scratch []int // tick-time member list

	panicked  atomic.Bool
	panicOnce sync.Once
	panicFn   atomic.Value // func(PanicInfo)
	faultFn   atomic.Value // func(FaultInfo)
}

// New creates a kernel sized by cfg.
func New(cfg Config) (*Kernel, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	k := &Kernel{cfg: cfg, lay: newLayout(cfg)}

	words := (cfg.Threads + 31) / 32
	end := int(k.lay.End())
	backing := make([]atomic.Uint32, words*end)
	k.wq = make([]bitmap, end)
	for i := range k.wq {
		k.wq[i] = bitmap(backing[i*words : (i+1)*words])
	}
	k.rdy = k.wq[k.lay.Base(KindReady)]
	k.tms = k.wq[k.lay.Base(KindTmshare)]
	k.clk = k.wq[k.lay.Base(KindClock)]
	k.paused = k.wq[k.lay.Base(KindPaused)]
	k.canceled = k.wq[k.lay.Base(KindCanceled)]
	k.faulted = k.wq[k.lay.Base(KindFault)]

	k.idle = cfg.Threads + 1
	k.th = make([]thread, cfg.Threads+2)
	k.active.Store(int32(k.idle))
	k.thAlloc = newBitmap(cfg.Threads)

	for _, kind := range []Kind{KindMutex, KindCond, KindSemaphore, KindEvent, KindFlag, KindGate} {
		k.alloc[kind] = newBitmap(k.lay.Count(kind))
	}

	k.mtx = make([]int32, cfg.Mutexes)
	k.sem = make([]atomic.Uint32, cfg.Semaphores)
	k.flags = newBitmap(cfg.Flags)
	k.watch = newBitmap(cfg.Flags)
	k.gates = newBitmap(2 * cfg.Gates)
	k.gateIn = make([]int32, cfg.Gates)
	k.evPend = make([]atomic.Uint32, cfg.EventSets)
	k.evMask = make([]atomic.Uint32, cfg.EventSets)
	for i := range k.evMask {
		k.evMask[i].Store(0xffffffff)
	}
	k.irqTh = make([]atomic.Int32, cfg.IRQs)
	k.limit = int32(cfg.SchedLimitMin)
	k.scratch = make([]int, 0, cfg.Threads)

	return k, nil
}

// Init turns the calling goroutine into the first thread and starts the
// scheduler. init.Entry must be nil.
func (k *Kernel) Init(init ThreadInit) (*Context, error) {
	if init.Entry != nil {
		return nil, fmt.Errorf("%w: main thread has an entry", ErrBadConfig)
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	if k.started {
		return nil, fmt.Errorf("%w: already initialized", ErrBadConfig)
	}

	s := k.x.lock()
	th := k.allocThread(init.ID)
	k.x.unlock(s)
	if th == 0 {
		return nil, fmt.Errorf("%w: no thread slot", ErrBadConfig)
	}

	tc := &threadCtx{
		tag:   init.Tag,
		prio:  init.Priority,
		ctrl:  ctrlBits(init),
		stack: init.Stack,

		detached: init.Detached,
	}
	tc.frame = k.cfg.Port.NewFrame(th, nil)
	k.setupThread(th, tc, init.Priority)

	s = k.x.lock()
	k.rdy.set(th - 1)
	k.x.unlock(s)

	k.active.Store(int32(th))
	k.started = true
	k.logf("thread %d (%s) is main", th, init.Tag)

	return &Context{k: k, th: th}, nil
}

// Config returns the configuration the kernel was built with.
func (k *Kernel) Config() Config { return k.cfg }

// Layout returns the object id layout.
func (k *Kernel) Layout() *Layout { return &k.lay }

// ObjKind returns the kind of object id.
func (k *Kernel) ObjKind(id ObjID) Kind { return k.lay.Kind(id) }

// Obj returns the flat id of index i of kind.
func (k *Kernel) Obj(kind Kind, i int) ObjID {
	id, ok := k.lay.ID(Obj{Kind: kind, Index: i})
	if !ok {
		return -1
	}
	return id
}

// Idle returns the id of the idle pseudo thread.
func (k *Kernel) Idle() int { return k.idle }

// Active returns the running thread, or Idle.
func (k *Kernel) Active() int { return int(k.active.Load()) }

// Ticks returns the tick counter.
func (k *Kernel) Ticks() uint32 { return k.ticks.Load() }

func (k *Kernel) logf(format string, args ...any) {
	if k.cfg.Log == nil {
		return
	}
	k.cfg.Log.WriteLineString(fmt.Sprintf("krn: "+format, args...))
}
