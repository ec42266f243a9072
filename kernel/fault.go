package kernel

// PanicReason tells why the kernel stopped scheduling.
type PanicReason uint8

const (
	PanicBadContext PanicReason = iota + 1
	PanicSchedReentry
)

func (r PanicReason) String() string {
	switch r {
	case PanicBadContext:
		return "ready thread without context"
	case PanicSchedReentry:
		return "scheduler re-entered"
	default:
		return "unknown"
	}
}

// PanicInfo contains details about a kernel panic.
type PanicInfo struct {
	Thread int
	Reason PanicReason
	Stack  []byte
}

// FaultReason tells why a thread was moved to the fault queue.
type FaultReason uint8

const (
	FaultUsage FaultReason = iota + 1
	FaultStackOverflow
)

func (r FaultReason) String() string {
	switch r {
	case FaultUsage:
		return "usage"
	case FaultStackOverflow:
		return "stack overflow"
	default:
		return "unknown"
	}
}

// FaultInfo describes a faulted thread.
type FaultInfo struct {
	Thread int
	Reason FaultReason
	Err    ErrCode
}

// InPanicMode reports whether the kernel has stopped scheduling threads.
func (k *Kernel) InPanicMode() bool { return k.panicked.Load() }

// SetPanicHandler installs the kernel panic handler.
//
// The handler is invoked at most once, from inside the scheduler. It must not
// make system calls.
func (k *Kernel) SetPanicHandler(fn func(PanicInfo)) { k.panicFn.Store(fn) }

// SetFaultHandler installs the handler called when a thread faults. It runs
// in the exception band and must not make system calls.
func (k *Kernel) SetFaultHandler(fn func(FaultInfo)) { k.faultFn.Store(fn) }

func (k *Kernel) kernelPanic(reason PanicReason, th int) {
	k.panicOnce.Do(func() {
		k.panicked.Store(true)
		k.logf("panic: %v (thread %d)", reason, th)
		info := PanicInfo{Thread: th, Reason: reason, Stack: captureStack()}
		if v := k.panicFn.Load(); v != nil {
			if fn, ok := v.(func(PanicInfo)); ok && fn != nil {
				fn(info)
			}
		}
	})
}

// fault parks th in the fault queue. Only Terminate gets it out.
func (k *Kernel) fault(th int, reason FaultReason, code ErrCode) {
	t := &k.th[th]
	fq := k.lay.Base(KindFault)

	s := k.x.lock()
	q := statQueue(t.stat.Load())
	if q == 0 {
		k.readyClrL(th)
	} else {
		k.wq[q].clr(th - 1)
	}
	k.tms.clr(th - 1)
	k.clk.clr(th - 1)
	t.stat.Store(mkstat(fq, false))
	k.faulted.set(th - 1)
	k.x.unlock(s)

	if q != 0 && k.lay.Kind(q) == KindIRQ {
		k.irqUnbind(int(q-k.lay.Base(KindIRQ)), th)
	}
	k.deferSched()

	k.logf("thread %d fault: %v %v", th, reason, code)
	if v := k.faultFn.Load(); v != nil {
		if fn, ok := v.(func(FaultInfo)); ok && fn != nil {
			fn(FaultInfo{Thread: th, Reason: reason, Err: code})
		}
	}
}
