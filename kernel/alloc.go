package kernel

func allocatable(kind Kind) bool {
	switch kind {
	case KindMutex, KindCond, KindSemaphore, KindEvent, KindFlag, KindGate:
		return true
	}
	return false
}

// objAllocSvc claims an object of kind arg[0]. For flags arg[1] is the
// FlagMode. r0 is the object id.
func objAllocSvc(k *Kernel, arg *Args, self int) {
	kind := Kind(arg[0])
	if k.cfg.NoAlloc {
		arg[0] = int32(ENOSYS)
		return
	}
	if arg[0] < 0 || arg[0] >= int32(kindCount) || !allocatable(kind) {
		k.fail(arg, self, ErrObjectInvalid, EINVAL)
		return
	}

	s := k.x.lock()
	i := k.alloc[kind].allocLo(0, k.lay.Count(kind))
	if i >= 0 {
		k.objInitL(kind, i, FlagMode(arg[1]))
	}
	k.x.unlock(s)
	if i < 0 {
		k.fail(arg, self, ErrObjectAlloc, ENOMEM)
		return
	}
	arg[0] = int32(k.lay.Base(kind)) + int32(i)
}

func (k *Kernel) objInitL(kind Kind, i int, mode FlagMode) {
	switch kind {
	case KindMutex:
		k.mtx[i] = 0
	case KindSemaphore:
		k.sem[i].Store(0)
	case KindEvent:
		k.evPend[i].Store(0)
		k.evMask[i].Store(0xffffffff)
	case KindFlag:
		k.flags.clr(i)
		if mode == FlagWatch {
			k.watch.set(i)
		} else {
			k.watch.clr(i)
		}
	case KindGate:
		k.gates.clr(gateSig(i))
		k.gates.clr(gateLock(i))
		k.gateIn[i] = 0
	}
}

// objFreeSvc releases object arg[0]. Waiters are not checked.
func objFreeSvc(k *Kernel, arg *Args, self int) {
	o := k.lay.Split(ObjID(arg[0]))
	if !allocatable(o.Kind) {
		k.fail(arg, self, ErrObjectInvalid, EINVAL)
		return
	}
	if k.cfg.NoAlloc {
		arg[0] = int32(OK)
		return
	}
	s := k.x.lock()
	k.alloc[o.Kind].clr(o.Index)
	k.x.unlock(s)
	arg[0] = int32(OK)
}

// Allocated reports whether id is a live object.
func (k *Kernel) Allocated(id ObjID) bool {
	o := k.lay.Split(id)
	if !allocatable(o.Kind) {
		return false
	}
	return k.cfg.NoAlloc || k.alloc[o.Kind].test(o.Index)
}
