package kernel

import (
	"runtime"
	"time"
)

// Context is the system call interface of one thread. It must only be used
// from that thread.
type Context struct {
	k  *Kernel
	th int
}

// ID returns the thread id.
func (c *Context) ID() int { return c.th }

// Kernel returns the kernel the thread runs on.
func (c *Context) Kernel() *Kernel { return c.k }

func (c *Context) svc(no Svc, a ...int32) error {
	r, _ := c.k.call(c.th, no, a...)
	return result(r)
}

func ms(d time.Duration) int32 {
	if d <= 0 {
		return 0
	}
	n := d.Milliseconds()
	if n > 1<<30 {
		n = 1 << 30
	}
	return int32(n)
}

func b2i(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

// Yield gives the processor to another ready thread.
func (c *Context) Yield() { c.svc(SvcYield) }

// CriticalEnter keeps the thread on the processor until the matching
// CriticalExit, unless it blocks.
func (c *Context) CriticalEnter() error { return c.svc(SvcCriticalEnter) }

// CriticalExit closes the innermost critical section. A pending reschedule
// runs when the last one closes.
func (c *Context) CriticalExit() error { return c.svc(SvcCriticalExit) }

// Clock returns the tick counter.
func (c *Context) Clock() uint32 {
	r, _ := c.k.call(c.th, SvcClock)
	return uint32(r)
}

// Sleep suspends the thread for d.
func (c *Context) Sleep(d time.Duration) error { return c.svc(SvcSleep, ms(d)) }

// Alarm suspends the thread until the tick counter reaches clk.
func (c *Context) Alarm(clk uint32) error { return c.svc(SvcAlarm, int32(clk)) }

// Errno returns the last usage error of the thread.
func (c *Context) Errno() ErrCode {
	r, _ := c.k.call(c.th, SvcErrno)
	return ErrCode(r)
}

// Mutex

func (c *Context) Lock(m ObjID) error    { return c.svc(SvcMutexLock, int32(m)) }
func (c *Context) TryLock(m ObjID) error { return c.svc(SvcMutexTryLock, int32(m)) }
func (c *Context) Unlock(m ObjID) error  { return c.svc(SvcMutexUnlock, int32(m)) }

func (c *Context) TimedLock(m ObjID, d time.Duration) error {
	return c.svc(SvcMutexTimedLock, int32(m), ms(d))
}

// Semaphore

func (c *Context) SemInit(s ObjID, val uint32) error { return c.svc(SvcSemInit, int32(s), int32(val)) }
func (c *Context) SemWait(s ObjID) error             { return c.svc(SvcSemWait, int32(s)) }
func (c *Context) SemTryWait(s ObjID) error          { return c.svc(SvcSemTryWait, int32(s)) }
func (c *Context) SemPost(s ObjID) error             { return c.svc(SvcSemPost, int32(s)) }

func (c *Context) SemTimedWait(s ObjID, d time.Duration) error {
	return c.svc(SvcSemTimedWait, int32(s), ms(d))
}

// Cond

// Wait releases mutex m, waits for cond and locks m again.
func (c *Context) Wait(cond, m ObjID) error {
	err := c.svc(SvcCondWait, int32(cond), int32(m))
	if err == EINVAL || err == EPERM {
		return err
	}
	if lerr := c.Lock(m); lerr != nil {
		return lerr
	}
	return err
}

// TimedWait is Wait with a timeout. The mutex is locked again even when it
// times out.
func (c *Context) TimedWait(cond, m ObjID, d time.Duration) error {
	err := c.svc(SvcCondTimedWait, int32(cond), int32(m), ms(d))
	if err == EINVAL || err == EPERM {
		return err
	}
	if lerr := c.Lock(m); lerr != nil {
		return lerr
	}
	return err
}

func (c *Context) Signal(cond ObjID) error    { return c.svc(SvcCondSignal, int32(cond)) }
func (c *Context) Broadcast(cond ObjID) error { return c.svc(SvcCondBroadcast, int32(cond)) }

// Flag

func (c *Context) Take(f ObjID) error { return c.svc(SvcFlagTake, int32(f)) }
func (c *Context) Give(f ObjID) error { return c.svc(SvcFlagGive, int32(f)) }
func (c *Context) Set(f ObjID) error  { return c.svc(SvcFlagSet, int32(f)) }
func (c *Context) Clr(f ObjID) error  { return c.svc(SvcFlagClr, int32(f)) }

func (c *Context) TimedTake(f ObjID, d time.Duration) error {
	return c.svc(SvcFlagTimedTake, int32(f), ms(d))
}

func (c *Context) Watch(f ObjID) error { return c.svc(SvcFlagWatch, int32(f)) }

func (c *Context) TimedWatch(f ObjID, d time.Duration) error {
	return c.svc(SvcFlagTimedWatch, int32(f), ms(d))
}

// Val reports whether flag f is set.
func (c *Context) Val(f ObjID) (bool, error) {
	r, _ := c.k.call(c.th, SvcFlagVal, int32(f))
	if err := result(r); err != nil {
		return false, err
	}
	return r != 0, nil
}

// Gate

func (c *Context) GateWait(g ObjID) error { return c.svc(SvcGateWait, int32(g)) }

func (c *Context) GateTimedWait(g ObjID, d time.Duration) error {
	return c.svc(SvcGateTimedWait, int32(g), ms(d))
}

// GateExit leaves gate g, signaling it first when open is set.
func (c *Context) GateExit(g ObjID, open bool) error {
	return c.svc(SvcGateExit, int32(g), b2i(open))
}

func (c *Context) GateOpen(g ObjID) error  { return c.svc(SvcGateOpen, int32(g)) }
func (c *Context) GateClose(g ObjID) error { return c.svc(SvcGateClose, int32(g)) }

// Event set

// EventWait returns the lowest pending unmasked event of set.
func (c *Context) EventWait(set ObjID) (int, error) {
	r, _ := c.k.call(c.th, SvcEventWait, int32(set))
	if err := result(r); err != nil {
		return -1, err
	}
	return int(r), nil
}

func (c *Context) EventTimedWait(set ObjID, d time.Duration) (int, error) {
	r, _ := c.k.call(c.th, SvcEventTimedWait, int32(set), ms(d))
	if err := result(r); err != nil {
		return -1, err
	}
	return int(r), nil
}

func (c *Context) EventRaise(set ObjID, ev int) error {
	return c.svc(SvcEventRaise, int32(set), int32(ev))
}

// EventMask enables or disables delivery of ev.
func (c *Context) EventMask(set ObjID, ev int, enable bool) error {
	return c.svc(SvcEventMask, int32(set), int32(ev), b2i(enable))
}

func (c *Context) EventClear(set ObjID, ev int) error {
	return c.svc(SvcEventClear, int32(set), int32(ev))
}

// IRQ

// IRQWait enables irq and waits for it. It returns the cycle counter
// sampled by the handler.
func (c *Context) IRQWait(irq int) (uint32, error) {
	r0, r1 := c.k.call(c.th, SvcIRQWait, int32(irq))
	return uint32(r1), result(r0)
}

func (c *Context) IRQTimedWait(irq int, d time.Duration) (uint32, error) {
	r0, r1 := c.k.call(c.th, SvcIRQTimedWait, int32(irq), ms(d))
	return uint32(r1), result(r0)
}

func (c *Context) IRQCtl(irq int, op IRQOp, val int) error {
	return c.svc(SvcIRQCtl, int32(irq), int32(op), int32(val))
}

// Objects

// ObjAlloc allocates an object of kind.
func (c *Context) ObjAlloc(kind Kind) (ObjID, error) {
	r, _ := c.k.call(c.th, SvcObjAlloc, int32(kind))
	if err := result(r); err != nil {
		return -1, err
	}
	return ObjID(r), nil
}

// FlagAlloc allocates a flag of the given family.
func (c *Context) FlagAlloc(mode FlagMode) (ObjID, error) {
	r, _ := c.k.call(c.th, SvcObjAlloc, int32(KindFlag), int32(mode))
	if err := result(r); err != nil {
		return -1, err
	}
	return ObjID(r), nil
}

func (c *Context) ObjFree(id ObjID) error { return c.svc(SvcObjFree, int32(id)) }

// Threads

// ThreadCreate starts a new thread and returns its id.
func (c *Context) ThreadCreate(init ThreadInit) (int, error) {
	r, _ := c.k.trap(c.th, func(k *Kernel, arg *Args, self int) {
		threadCreateSvc(k, arg, self, &init)
	}, 0, 0, 0, 0)
	if err := result(r); err != nil {
		return 0, err
	}
	return int(r), nil
}

// Join waits for th to exit and returns its exit code.
func (c *Context) Join(th int) (int, error) {
	r, _ := c.k.call(c.th, SvcJoin, int32(th))
	if r == int32(EINVAL) || r == int32(EDEADLK) {
		return 0, Errno(r)
	}
	return int(r), nil
}

// Cancel makes th exit with code the next time it runs.
func (c *Context) Cancel(th int, code int) error {
	return c.svc(SvcCancel, int32(th), int32(code))
}

// Terminate destroys th at once. Its joiners receive code.
func (c *Context) Terminate(th int, code int) error {
	return c.svc(SvcTerminate, int32(th), int32(code))
}

func (c *Context) Pause(th int) error  { return c.svc(SvcPause, int32(th)) }
func (c *Context) Resume(th int) error { return c.svc(SvcResume, int32(th)) }

// Exit ends the calling thread with code. It does not return.
func (c *Context) Exit(code int) {
	c.k.call(c.th, SvcExit, int32(code))
	c.k.call(c.th, SvcTerminate, int32(c.th), int32(code))
	runtime.Goexit()
}
