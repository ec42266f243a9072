package kernel

func (k *Kernel) condWait(arg *Args, self int, timed bool) {
	ci, e := k.objCheck(arg[0], KindCond, ErrCondInvalid, ErrCondAlloc)
	if e != ErrNone {
		k.fail(arg, self, e, EINVAL)
		return
	}
	mi, e := k.objCheck(arg[1], KindMutex, ErrMutexInvalid, ErrMutexAlloc)
	if e != ErrNone {
		k.fail(arg, self, e, EINVAL)
		return
	}
	if k.mtx[mi] != int32(self) {
		k.fail(arg, self, ErrMutexNotMine, EPERM)
		return
	}

	q := k.lay.Base(KindCond) + ObjID(ci)
	presetWait(arg, timed)
	k.suspendOn(self, q, timed, arg[2])
	k.mutexHandoff(mi)
}

func condWaitSvc(k *Kernel, arg *Args, self int)      { k.condWait(arg, self, false) }
func condTimedWaitSvc(k *Kernel, arg *Args, self int) { k.condWait(arg, self, true) }

func (k *Kernel) condWake(arg *Args, self int, all bool) {
	ci, e := k.objCheck(arg[0], KindCond, ErrCondInvalid, ErrCondAlloc)
	if e != ErrNone {
		k.fail(arg, self, e, EINVAL)
		return
	}
	q := k.lay.Base(KindCond) + ObjID(ci)
	var n int
	if all {
		n = k.wakeupAll(q, int32(OK))
	} else {
		s := k.x.lock()
		if k.wakeupHeadL(q, int32(OK)) != 0 {
			n = 1
		}
		k.x.unlock(s)
	}
	if n > 0 {
		k.deferSched()
	}
	arg[0] = int32(OK)
}

func condSignalSvc(k *Kernel, arg *Args, self int)    { k.condWake(arg, self, false) }
func condBroadcastSvc(k *Kernel, arg *Args, self int) { k.condWake(arg, self, true) }
