package kernel

// IRQOp selects an IRQCtl operation.
type IRQOp int32

const (
	IRQEnable IRQOp = iota
	IRQDisable
	IRQClearPending
	IRQPriority
)

func (k *Kernel) irqQueue(irq int) ObjID { return k.lay.Base(KindIRQ) + ObjID(irq) }

func (k *Kernel) irqArg(arg *Args, self int) (int, bool) {
	irq := int(arg[0])
	if irq < 0 || irq >= k.cfg.IRQs {
		k.fail(arg, self, ErrIRQInvalid, EINVAL)
		return -1, false
	}
	return irq, true
}

// irqUnbind releases irq when th still owns it.
func (k *Kernel) irqUnbind(irq int, th int) {
	if k.irqTh[irq].CompareAndSwap(int32(th), 0) {
		k.cfg.IRQ.Disable(irq)
	}
}

func (k *Kernel) irqWait(arg *Args, self int, timed bool) {
	irq, ok := k.irqArg(arg, self)
	if !ok {
		return
	}
	ms := arg[1]
	q := k.irqQueue(irq)

	k.cfg.IRQ.ClearPending(irq)
	presetWait(arg, timed)
	arg[1] = 0

	s := k.x.lock()
	k.readyClrL(self)
	k.insertL(q, self, timed, ms)
	k.x.unlock(s)

	if !k.irqTh[irq].CompareAndSwap(0, int32(self)) {
		s = k.x.lock()
		k.wq[q].clr(self - 1)
		k.readyL(self)
		k.x.unlock(s)
		arg[0] = int32(EAGAIN)
		return
	}
	k.deferSched()
	k.cfg.IRQ.Enable(irq)
}

func irqWaitSvc(k *Kernel, arg *Args, self int)      { k.irqWait(arg, self, false) }
func irqTimedWaitSvc(k *Kernel, arg *Args, self int) { k.irqWait(arg, self, true) }

func irqCtlSvc(k *Kernel, arg *Args, self int) {
	irq, ok := k.irqArg(arg, self)
	if !ok {
		return
	}
	switch IRQOp(arg[1]) {
	case IRQEnable:
		k.cfg.IRQ.Enable(irq)
	case IRQDisable:
		k.cfg.IRQ.Disable(irq)
	case IRQClearPending:
		k.cfg.IRQ.ClearPending(irq)
	case IRQPriority:
		k.cfg.IRQ.SetPriority(irq, int(arg[2]))
	default:
		k.fail(arg, self, ErrIRQInvalid, EINVAL)
		return
	}
	arg[0] = int32(OK)
}

// IRQSignal is the interrupt handler of line irq. The line is masked and
// the bound thread, if any, resumes with the cycle counter in r1.
func (k *Kernel) IRQSignal(irq int) {
	if irq < 0 || irq >= k.cfg.IRQs {
		return
	}
	k.cfg.IRQ.Disable(irq)
	th := int(k.irqTh[irq].Swap(0))
	if th == 0 {
		return
	}

	var cyc uint32
	if k.cfg.Cycles != nil {
		cyc = k.cfg.Cycles()
	}

	s := k.x.lock()
	ok := k.wq[k.irqQueue(irq)].testClr(th - 1)
	if ok {
		k.setRet2(th, int32(OK), int32(cyc))
		k.readyL(th)
	}
	k.x.unlock(s)

	if ok {
		k.preempt()
	}
}

// IRQBound returns the thread waiting on irq, or 0.
func (k *Kernel) IRQBound(irq int) int {
	if irq < 0 || irq >= k.cfg.IRQs {
		return 0
	}
	return int(k.irqTh[irq].Load())
}
