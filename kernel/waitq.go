package kernel

import "sync/atomic"

// A thread's stat word records the queue it waits on and whether the wait
// carries a deadline. 0 is the ready queue.

func mkstat(q ObjID, timed bool) uint32 {
	s := uint32(q) << 1
	if timed {
		s |= 1
	}
	return s
}

func statQueue(s uint32) ObjID { return ObjID(s >> 1) }
func statTimed(s uint32) bool  { return s&1 != 0 }

func (k *Kernel) setRet(th int, r0 int32) {
	if tc := k.ctx(th); tc != nil {
		atomic.StoreInt32(&tc.arg[0], r0)
	}
}

func (k *Kernel) setRet2(th int, r0, r1 int32) {
	if tc := k.ctx(th); tc != nil {
		atomic.StoreInt32(&tc.arg[0], r0)
		atomic.StoreInt32(&tc.arg[1], r1)
	}
}

// The ...L helpers require the monitor lock.

// readyClrL removes th from the ready queue. When that leaves nobody ready,
// the threads that used up their time share get another round.
func (k *Kernel) readyClrL(th int) {
	k.rdy.clr(th - 1)
	if k.cfg.TimeShare && k.rdy.empty() {
		k.rdy.take(k.tms)
	}
}

// readyL moves th back to the ready queue. A paused thread only gets its
// stat cleared, so Resume finds it ready.
func (k *Kernel) readyL(th int) {
	k.clk.clr(th - 1)
	k.th[th].stat.Store(0)
	if !k.paused.test(th - 1) {
		k.rdy.set(th - 1)
	}
}

// insertL publishes th in q. th must already be out of the ready queue.
func (k *Kernel) insertL(q ObjID, th int, timed bool, ms int32) {
	t := &k.th[th]
	t.stat.Store(mkstat(q, timed))
	if timed {
		if ms < 0 {
			ms = 0
		}
		t.tmr.Store(k.ticks.Load() + uint32(ms))
		k.clk.set(th - 1)
	}
	k.wq[q].set(th - 1)
}

// wakeupL completes the wait of th on q with r0 = ret. Whoever clears the
// queue bit owns the wakeup; it reports false when someone else did.
func (k *Kernel) wakeupL(q ObjID, th int, ret int32) bool {
	if !k.wq[q].testClr(th - 1) {
		return false
	}
	k.setRet(th, ret)
	k.readyL(th)
	return true
}

func (k *Kernel) wakeupHeadL(q ObjID, ret int32) int {
	th := k.wq[q].ffs() + 1
	if th == 0 {
		return 0
	}
	k.wakeupL(q, th, ret)
	return th
}

func (k *Kernel) wakeupAllL(q ObjID, ret int32) int {
	n := 0
	for {
		th := k.wq[q].ffs() + 1
		if th == 0 {
			return n
		}
		k.wakeupL(q, th, ret)
		n++
	}
}

func (k *Kernel) wakeup(q ObjID, th int, ret int32) bool {
	s := k.x.lock()
	ok := k.wakeupL(q, th, ret)
	k.x.unlock(s)
	return ok
}

func (k *Kernel) wakeupAll(q ObjID, ret int32) int {
	s := k.x.lock()
	n := k.wakeupAllL(q, ret)
	k.x.unlock(s)
	return n
}

func (k *Kernel) head(q ObjID) int { return k.wq[q].ffs() + 1 }

// suspendOn takes self out of the ready queue and publishes it in q in one
// step. It is for waits whose condition is checked under the monitor lock.
func (k *Kernel) suspendOn(self int, q ObjID, timed bool, ms int32) {
	s := k.x.lock()
	k.readyClrL(self)
	k.insertL(q, self, timed, ms)
	k.x.unlock(s)
	k.deferSched()
}

// block suspends self on q using a conditional store of its queue bit.
// cond runs between the reservation and the store; when it reports true, or
// the store loses to a concurrent update, everything is undone and block
// returns false so the caller retries its fast path.
//
// arg[0] must hold the preset result before block is called: a wakeup can
// land as soon as the bit is visible.
func (k *Kernel) block(self int, q ObjID, timed bool, ms int32, cond func() bool) bool {
	t := &k.th[self]

	s := k.x.lock()
	k.readyClrL(self)
	t.stat.Store(mkstat(q, timed))
	if timed {
		if ms < 0 {
			ms = 0
		}
		t.tmr.Store(k.ticks.Load() + uint32(ms))
		k.clk.set(self - 1)
	}
	k.x.unlock(s)

	w, m := k.wq[q].word(self - 1)
	v, r := k.x.ldrex(w)
	if (cond == nil || !cond()) && k.x.strex(w, v|m, r) {
		k.deferSched()
		return true
	}

	s = k.x.lock()
	k.clk.clr(self - 1)
	t.stat.Store(0)
	k.rdy.set(self - 1)
	k.x.unlock(s)
	return false
}

// presetWait stores the result a wait reports if nothing else does.
func presetWait(arg *Args, timed bool) {
	if timed {
		arg[0] = int32(ETIMEDOUT)
	} else {
		arg[0] = int32(OK)
	}
}

// fail rejects the running system call of self.
func (k *Kernel) fail(arg *Args, self int, code ErrCode, ret Errno) {
	arg[0] = int32(ret)
	if self < 1 || self > k.cfg.Threads {
		return
	}
	k.th[self].errno.Store(uint32(code))
	if k.cfg.ErrorTrap {
		k.fault(self, FaultUsage, code)
	}
}

// objCheck validates id as an allocated object of kind and returns its
// index within the kind.
func (k *Kernel) objCheck(id int32, kind Kind, inval, unalloc ErrCode) (int, ErrCode) {
	o := k.lay.Split(ObjID(id))
	if o.Kind != kind {
		return -1, inval
	}
	if !k.cfg.NoAlloc && !k.alloc[kind].test(o.Index) {
		return -1, unalloc
	}
	return o.Index, ErrNone
}
