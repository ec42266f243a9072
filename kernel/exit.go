package kernel

func (k *Kernel) joinQueue(th int) ObjID { return k.lay.Base(KindJoin) + ObjID(th-1) }

func (k *Kernel) threadArg(arg *Args, self int) (int, *threadCtx, bool) {
	th := int(arg[0])
	if !k.validThread(th) {
		k.fail(arg, self, ErrThreadInvalid, EINVAL)
		return 0, nil, false
	}
	tc := k.ctx(th)
	if tc == nil {
		k.fail(arg, self, ErrThreadAlloc, EINVAL)
		return 0, nil, false
	}
	return th, tc, true
}

// exitSvc records the exit code of self. Without a joiner the thread waits
// in the canceled queue until one arrives.
func exitSvc(k *Kernel, arg *Args, self int) {
	tc := k.ctx(self)
	tc.code = arg[0]
	arg[0] = int32(OK)
	if tc.detached || k.head(k.joinQueue(self)) != 0 {
		return
	}
	k.suspendOn(self, k.lay.Base(KindCanceled), false, 0)
}

func terminateSvc(k *Kernel, arg *Args, self int) {
	th, _, ok := k.threadArg(arg, self)
	if !ok {
		return
	}
	k.terminate(th, arg[1])
	arg[0] = int32(OK)
}

// terminate removes th from every queue, hands code to its joiners and
// frees its slot.
func (k *Kernel) terminate(th int, code int32) {
	t := &k.th[th]

	s := k.x.lock()
	q := statQueue(t.stat.Load())
	if q != 0 {
		k.wq[q].clr(th - 1)
	}
	k.tms.clr(th - 1)
	k.paused.clr(th - 1)
	k.clk.clr(th - 1)
	k.x.unlock(s)

	if q != 0 && k.lay.Kind(q) == KindIRQ {
		k.irqUnbind(int(q-k.lay.Base(KindIRQ)), th)
	}
	k.wakeupAll(k.joinQueue(th), code)
	k.abort(th)
}

func (k *Kernel) abort(th int) {
	t := &k.th[th]
	tc := t.ctx.Load()

	s := k.x.lock()
	k.readyClrL(th)
	t.stat.Store(0)
	k.thAlloc.clr(th - 1)
	k.x.unlock(s)

	t.ctx.Store(nil)
	t.pri = 0
	k.limitUpdate()
	if tc != nil {
		tc.frame.Discard()
	}
	k.deferSched()
	k.logf("thread %d terminated", th)
}

func joinSvc(k *Kernel, arg *Args, self int) {
	if int(arg[0]) == self {
		k.fail(arg, self, ErrThreadInvalid, EDEADLK)
		return
	}
	th, _, ok := k.threadArg(arg, self)
	if !ok {
		return
	}

	arg[0] = int32(OK)
	s := k.x.lock()
	k.readyClrL(self)
	k.insertL(k.joinQueue(th), self, false, 0)
	if k.canceled.test(th - 1) {
		k.wakeupL(k.lay.Base(KindCanceled), th, int32(OK))
	}
	k.x.unlock(s)
	k.deferSched()
}

// cancelSvc makes thread arg[0] exit with code arg[1] as soon as it runs.
func cancelSvc(k *Kernel, arg *Args, self int) {
	th, tc, ok := k.threadArg(arg, self)
	if !ok {
		return
	}
	t := &k.th[th]
	tc.code = arg[1]
	tc.cancel.Store(true)

	s := k.x.lock()
	q := statQueue(t.stat.Load())
	if q != 0 {
		k.wq[q].clr(th - 1)
	}
	k.paused.clr(th - 1)
	k.tms.clr(th - 1)
	k.readyL(th)
	k.x.unlock(s)

	if q != 0 && k.lay.Kind(q) == KindIRQ {
		k.irqUnbind(int(q-k.lay.Base(KindIRQ)), th)
	}
	k.deferSched()
	arg[0] = int32(OK)
}
