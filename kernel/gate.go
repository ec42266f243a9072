package kernel

// A gate uses two bits of k.gates: 2i is SIGNALED, 2i+1 is LOCKED. A locked
// gate has one thread inside, recorded in k.gateIn; a signaled gate admits
// the next thread. Every gate operation runs under the monitor lock.

func gateSig(i int) int  { return 2 * i }
func gateLock(i int) int { return 2*i + 1 }

func (k *Kernel) gateArg(arg *Args, self int) (int, bool) {
	i, e := k.objCheck(arg[0], KindGate, ErrGateInvalid, ErrGateAlloc)
	if e != ErrNone {
		k.fail(arg, self, e, EINVAL)
		return -1, false
	}
	return i, true
}

func (k *Kernel) gateQueue(i int) ObjID { return k.lay.Base(KindGate) + ObjID(i) }

// gateAdmitL lets the first waiter of gate i in, or leaves the gate open
// with nobody inside. It reports whether a thread was admitted.
func (k *Kernel) gateAdmitL(i int) bool {
	th := k.wakeupHeadL(k.gateQueue(i), int32(OK))
	if th == 0 {
		k.gates.clr(gateLock(i))
		k.gateIn[i] = 0
		return false
	}
	k.gates.clr(gateSig(i))
	k.gates.set(gateLock(i))
	k.gateIn[i] = int32(th)
	return true
}

// gateOpenL signals gate i. A locked gate keeps the signal for its exit.
func (k *Kernel) gateOpenL(i int) bool {
	if k.gates.test(gateLock(i)) {
		k.gates.set(gateSig(i))
		return false
	}
	if k.head(k.gateQueue(i)) == 0 {
		k.gates.set(gateSig(i))
		return false
	}
	return k.gateAdmitL(i)
}

func (k *Kernel) gateWait(arg *Args, self int, timed bool) {
	i, ok := k.gateArg(arg, self)
	if !ok {
		return
	}
	ms := arg[1]

	s := k.x.lock()
	if k.gates.test(gateSig(i)) && !k.gates.test(gateLock(i)) {
		k.gates.set(gateLock(i))
		k.gates.clr(gateSig(i))
		k.gateIn[i] = int32(self)
		k.x.unlock(s)
		arg[0] = int32(OK)
		return
	}
	presetWait(arg, timed)
	k.readyClrL(self)
	k.insertL(k.gateQueue(i), self, timed, ms)
	k.x.unlock(s)
	k.deferSched()
}

func gateWaitSvc(k *Kernel, arg *Args, self int)      { k.gateWait(arg, self, false) }
func gateTimedWaitSvc(k *Kernel, arg *Args, self int) { k.gateWait(arg, self, true) }

// gateExitSvc leaves gate arg[0], which the caller must be inside. When
// arg[1] is non-zero the gate is signaled on the way out.
func gateExitSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.gateArg(arg, self)
	if !ok {
		return
	}
	open := arg[1] != 0

	s := k.x.lock()
	if !k.gates.test(gateLock(i)) || k.gateIn[i] != int32(self) {
		k.x.unlock(s)
		k.fail(arg, self, ErrGateUnlocked, EPERM)
		return
	}
	if open {
		k.gates.set(gateSig(i))
	}
	woke := false
	if k.gates.test(gateSig(i)) {
		woke = k.gateAdmitL(i)
	} else {
		k.gates.clr(gateLock(i))
		k.gateIn[i] = 0
	}
	k.x.unlock(s)

	if woke {
		k.deferSched()
	}
	arg[0] = int32(OK)
}

func gateOpenSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.gateArg(arg, self)
	if !ok {
		return
	}
	s := k.x.lock()
	woke := k.gateOpenL(i)
	k.x.unlock(s)
	if woke {
		k.deferSched()
	}
	arg[0] = int32(OK)
}

func gateCloseSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.gateArg(arg, self)
	if !ok {
		return
	}
	s := k.x.lock()
	k.gates.clr(gateSig(i))
	k.x.unlock(s)
	arg[0] = int32(OK)
}

// GateOpenI signals gate from interrupt context.
func (k *Kernel) GateOpenI(gate ObjID) error {
	i, e := k.objCheck(int32(gate), KindGate, ErrGateInvalid, ErrGateAlloc)
	if e != ErrNone {
		return EINVAL
	}
	s := k.x.lock()
	woke := k.gateOpenL(i)
	k.x.unlock(s)
	if woke {
		k.preempt()
	}
	return nil
}
