package kernel

func (k *Kernel) semArg(arg *Args, self int) (int, bool) {
	i, e := k.objCheck(arg[0], KindSemaphore, ErrSemInvalid, ErrSemAlloc)
	if e != ErrNone {
		k.fail(arg, self, e, EINVAL)
		return -1, false
	}
	return i, true
}

func (k *Kernel) semTryWait(i int) bool {
	w := &k.sem[i]
	for {
		v, r := k.x.ldrex(w)
		if v == 0 {
			return false
		}
		if k.x.strex(w, v-1, r) {
			return true
		}
	}
}

// semPost gives one unit to semaphore i. It reports whether a waiter got it.
func (k *Kernel) semPost(i int) bool {
	q := k.lay.Base(KindSemaphore) + ObjID(i)
	w := &k.sem[i]
	for {
		v, r := k.x.ldrex(w)
		if th := k.head(q); th != 0 {
			if k.wakeup(q, th, int32(OK)) {
				return true
			}
			continue
		}
		if k.x.strex(w, v+1, r) {
			return false
		}
	}
}

func semInitSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.semArg(arg, self)
	if !ok {
		return
	}
	k.x.store(&k.sem[i], uint32(arg[1]))
	arg[0] = int32(OK)
}

func (k *Kernel) semWait(arg *Args, self int, timed bool) {
	i, ok := k.semArg(arg, self)
	if !ok {
		return
	}
	q := ObjID(arg[0])
	ms := arg[1]
	for {
		if k.semTryWait(i) {
			arg[0] = int32(OK)
			return
		}
		presetWait(arg, timed)
		if k.block(self, q, timed, ms, func() bool { return k.sem[i].Load() > 0 }) {
			return
		}
	}
}

func semWaitSvc(k *Kernel, arg *Args, self int)      { k.semWait(arg, self, false) }
func semTimedWaitSvc(k *Kernel, arg *Args, self int) { k.semWait(arg, self, true) }

func semTryWaitSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.semArg(arg, self)
	if !ok {
		return
	}
	if k.semTryWait(i) {
		arg[0] = int32(OK)
	} else {
		arg[0] = int32(EAGAIN)
	}
}

func semPostSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.semArg(arg, self)
	if !ok {
		return
	}
	if k.semPost(i) {
		k.deferSched()
	}
	arg[0] = int32(OK)
}

// SemPostI posts semaphore sem from interrupt context.
func (k *Kernel) SemPostI(sem ObjID) error {
	i, e := k.objCheck(int32(sem), KindSemaphore, ErrSemInvalid, ErrSemAlloc)
	if e != ErrNone {
		return EINVAL
	}
	if k.semPost(i) {
		k.preempt()
	}
	return nil
}
