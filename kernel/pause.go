package kernel

import "math/bits"

// pauseSvc stops thread arg[0]. A waiting thread keeps its stat so Resume
// can put it back where it was.
func pauseSvc(k *Kernel, arg *Args, self int) {
	th, _, ok := k.threadArg(arg, self)
	if !ok {
		return
	}
	arg[0] = int32(OK)
	t := &k.th[th]

	s := k.x.lock()
	if k.paused.test(th - 1) {
		k.x.unlock(s)
		return
	}
	k.paused.set(th - 1)
	q := statQueue(t.stat.Load())
	if q == 0 {
		k.readyClrL(th)
	} else {
		k.wq[q].clr(th - 1)
	}
	k.tms.clr(th - 1)
	k.clk.clr(th - 1)
	k.x.unlock(s)

	if q != 0 && k.lay.Kind(q) == KindIRQ {
		k.cfg.IRQ.Disable(int(q - k.lay.Base(KindIRQ)))
	}
	k.deferSched()
}

// resumeSvc restarts thread arg[0]. A thread paused inside a wait gets the
// object if it became available meanwhile, and waits again otherwise.
func resumeSvc(k *Kernel, arg *Args, self int) {
	th, _, ok := k.threadArg(arg, self)
	if !ok {
		return
	}
	arg[0] = int32(OK)
	t := &k.th[th]

	s := k.x.lock()
	if !k.paused.testClr(th - 1) {
		k.x.unlock(s)
		return
	}
	st := t.stat.Load()
	q := statQueue(st)
	enable := -1
	if q == 0 {
		k.rdy.set(th - 1)
	} else if k.resumeWaitL(th, q) {
		k.readyL(th)
	} else {
		k.wq[q].set(th - 1)
		if statTimed(st) {
			k.clk.set(th - 1)
		}
		if k.lay.Kind(q) == KindIRQ {
			enable = int(q - k.lay.Base(KindIRQ))
		}
	}
	k.x.unlock(s)

	if enable >= 0 {
		k.cfg.IRQ.Enable(enable)
	}
	k.deferSched()
}

// resumeWaitL completes the interrupted wait of th on q when the object is
// available now, storing the result the wait would have returned.
func (k *Kernel) resumeWaitL(th int, q ObjID) bool {
	o := k.lay.Split(q)
	i := o.Index
	switch o.Kind {
	case KindMutex:
		if k.mtx[i] != 0 {
			return false
		}
		k.mtx[i] = int32(th)
	case KindSemaphore:
		v := k.sem[i].Load()
		if v == 0 {
			return false
		}
		k.sem[i].Store(v - 1)
	case KindEvent:
		v := k.evPend[i].Load()
		p := v & k.evMask[i].Load()
		if p == 0 {
			return false
		}
		n := bits.TrailingZeros32(p)
		k.evPend[i].Store(v &^ (1 << uint(n)))
		k.setRet(th, int32(n))
		return true
	case KindFlag:
		if !k.flags.test(i) {
			return false
		}
		if !k.cfg.NoAlloc && k.watch.test(i) {
			break
		}
		k.flags.clr(i)
	case KindGate:
		if !k.gates.test(gateSig(i)) || k.gates.test(gateLock(i)) {
			return false
		}
		k.gates.clr(gateSig(i))
		k.gates.set(gateLock(i))
		k.gateIn[i] = int32(th)
	case KindIRQ:
		// A signal that arrived while paused already dropped the binding.
		if k.irqTh[i].Load() == int32(th) {
			return false
		}
	default:
		return false
	}
	k.setRet(th, int32(OK))
	return true
}
