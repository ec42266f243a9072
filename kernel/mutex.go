package kernel

// Mutex state is only touched in the exception band: mtx[i] is the owning
// thread, 0 when unlocked.

func (k *Kernel) mutexArg(arg *Args, self int) (int, bool) {
	i, e := k.objCheck(arg[0], KindMutex, ErrMutexInvalid, ErrMutexAlloc)
	if e != ErrNone {
		k.fail(arg, self, e, EINVAL)
		return -1, false
	}
	return i, true
}

func (k *Kernel) mutexLock(arg *Args, self int, timed bool) {
	i, ok := k.mutexArg(arg, self)
	if !ok {
		return
	}
	q := ObjID(arg[0])
	ms := arg[1]

	switch k.mtx[i] {
	case 0:
		k.mtx[i] = int32(self)
		arg[0] = int32(OK)
	case int32(self):
		k.fail(arg, self, ErrMutexLocked, EDEADLK)
	default:
		presetWait(arg, timed)
		k.suspendOn(self, q, timed, ms)
	}
}

func mutexLockSvc(k *Kernel, arg *Args, self int)      { k.mutexLock(arg, self, false) }
func mutexTimedLockSvc(k *Kernel, arg *Args, self int) { k.mutexLock(arg, self, true) }

func mutexTryLockSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.mutexArg(arg, self)
	if !ok {
		return
	}
	switch k.mtx[i] {
	case 0:
		k.mtx[i] = int32(self)
		arg[0] = int32(OK)
	case int32(self):
		k.fail(arg, self, ErrMutexLocked, EDEADLK)
	default:
		arg[0] = int32(EAGAIN)
	}
}

func mutexUnlockSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.mutexArg(arg, self)
	if !ok {
		return
	}
	if k.mtx[i] != int32(self) {
		k.fail(arg, self, ErrMutexNotMine, EPERM)
		return
	}
	k.mutexHandoff(i)
	arg[0] = int32(OK)
}

// mutexHandoff passes mutex i to the first waiter, or unlocks it.
func (k *Kernel) mutexHandoff(i int) {
	q := k.lay.Base(KindMutex) + ObjID(i)
	s := k.x.lock()
	th := k.wakeupHeadL(q, int32(OK))
	k.mtx[i] = int32(th)
	k.x.unlock(s)
	if th != 0 {
		k.deferSched()
	}
}
