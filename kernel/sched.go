package kernel

import "runtime"

// deferSched requests a scheduling pass on the way out of the kernel.
func (k *Kernel) deferSched() { k.pendsv.Store(true) }

// schedule makes the lowest numbered ready thread active. Requires mu.
func (k *Kernel) schedule() {
	if !k.insched.CompareAndSwap(false, true) {
		k.kernelPanic(PanicSchedReentry, int(k.active.Load()))
		return
	}
	defer k.insched.Store(false)

	old := int(k.active.Load())
	if old != k.idle {
		if tc := k.ctx(old); tc != nil && !tc.guardOK() {
			k.fault(old, FaultStackOverflow, ErrNone)
		}
	}

	next := k.idle
	if !k.panicked.Load() {
		if th := k.rdy.ffs() + 1; th != 0 {
			next = th
		}
	}
	if next != k.idle && k.ctx(next) == nil {
		k.kernelPanic(PanicBadContext, next)
		next = k.idle
	}

	if k.cfg.Cycles != nil {
		now := k.cfg.Cycles()
		k.th[old].cyc.Add(now - k.cycRef)
		k.cycRef = now
	}

	k.active.Store(int32(next))
	if next != old && next != k.idle {
		k.ctx(next).frame.Resume()
	}
}

// dispatchIdle runs a pending scheduling pass when no thread would pick it
// up at its next kernel entry. Requires mu.
func (k *Kernel) dispatchIdle() {
	if int(k.active.Load()) == k.idle && k.pendsv.Swap(false) {
		k.schedule()
	}
}

// preempt is the exit path of an interrupt that readied a thread.
func (k *Kernel) preempt() {
	k.pendsv.Store(true)
	k.mu.Lock()
	k.dispatchIdle()
	k.mu.Unlock()
}

// held reports whether self keeps the processor despite a pending
// reschedule: it is inside a critical section and still ready. Requires mu.
func (k *Kernel) held(self int) bool {
	return k.th[self].crit > 0 && k.rdy.test(self-1)
}

// enter is the kernel entry of a system call. A pending reschedule is
// honored first unless the caller holds it back.
func (k *Kernel) enter(self int, f Frame) {
	k.mu.Lock()
	for !k.held(self) && k.pendsv.Swap(false) {
		k.schedule()
		if int(k.active.Load()) != self {
			k.mu.Unlock()
			k.park(self, f)
			k.mu.Lock()
		}
	}
}

func (k *Kernel) leave(self int, f Frame) {
	if !k.held(self) && k.pendsv.Swap(false) {
		k.schedule()
	}
	k.mu.Unlock()
	k.park(self, f)
}

// park returns once self is the active thread. A thread whose frame went
// away while it was parked never returns.
func (k *Kernel) park(self int, f Frame) {
	for {
		if tc := k.ctx(self); tc == nil || tc.frame != f {
			runtime.Goexit()
		}
		if int(k.active.Load()) == self {
			return
		}
		if !f.Park() {
			runtime.Goexit()
		}
	}
}

// prioritySet clamps and installs the time-share weight of th. Requires mu.
func (k *Kernel) prioritySet(th int, prio int) {
	if prio < 0 {
		prio = 0
	}
	if prio > k.cfg.SchedLimitMax {
		prio = k.cfg.SchedLimitMax
	}
	t := &k.th[th]
	t.pri = int32(prio)
	if t.pri > k.limit {
		k.limit = t.pri
	}
	t.val = k.limit / 2
}

// limitUpdate recomputes the schedule limit from the live threads.
func (k *Kernel) limitUpdate() {
	lim := int32(k.cfg.SchedLimitMin)
	for th := 1; th <= k.cfg.Threads; th++ {
		if k.ctx(th) != nil && k.th[th].pri > lim {
			lim = k.th[th].pri
		}
	}
	k.limit = lim
}

// timeshare charges the active thread for one tick. A thread whose share
// runs out sits in the time-share queue until nobody else is ready.
func (k *Kernel) timeshare() {
	th := int(k.active.Load())
	if th == k.idle || k.ctx(th) == nil {
		return
	}
	t := &k.th[th]
	if t.stat.Load() != 0 || t.crit > 0 {
		return
	}
	t.val -= t.pri
	if t.val >= 0 {
		return
	}
	t.val += k.limit

	s := k.x.lock()
	if k.rdy.test(th - 1) {
		k.tms.set(th - 1)
		k.readyClrL(th)
	}
	k.x.unlock(s)
	k.deferSched()
}

// criticalEnterSvc opens a critical section of the caller. Sections nest;
// until the outermost one closes a pending reschedule leaves the caller
// running. Blocking inside a section still gives up the processor.
func criticalEnterSvc(k *Kernel, arg *Args, self int) {
	k.th[self].crit++
	arg[0] = int32(OK)
}

func criticalExitSvc(k *Kernel, arg *Args, self int) {
	t := &k.th[self]
	if t.crit == 0 {
		k.fail(arg, self, ErrCriticalExit, EFAULT)
		return
	}
	t.crit--
	if t.crit == 0 {
		k.deferSched()
	}
	arg[0] = int32(OK)
}
