package kernel

// FlagMode selects the family of a flag when it is allocated.
type FlagMode int32

const (
	// FlagTake flags are binary semaphores: Give sets, Take consumes.
	FlagTake FlagMode = iota
	// FlagWatch flags are levels: Set wakes every watcher, Clr resets.
	FlagWatch
)

// flagArg validates arg[0] as a flag. family is checked unless it is -1.
func (k *Kernel) flagArg(arg *Args, self int, family FlagMode) (int, bool) {
	i, e := k.objCheck(arg[0], KindFlag, ErrFlagInvalid, ErrFlagAlloc)
	if e != ErrNone {
		k.fail(arg, self, e, EINVAL)
		return -1, false
	}
	if family >= 0 && !k.flagFamily(i, family) {
		k.fail(arg, self, ErrFlagInvalid, EINVAL)
		return -1, false
	}
	return i, true
}

func (k *Kernel) flagFamily(i int, family FlagMode) bool {
	if k.cfg.NoAlloc {
		return true
	}
	return k.watch.test(i) == (family == FlagWatch)
}

func (k *Kernel) flagQueue(i int) ObjID { return k.lay.Base(KindFlag) + ObjID(i) }

// flagGive hands flag i to the first taker or sets it.
func (k *Kernel) flagGive(i int) bool {
	q := k.flagQueue(i)
	w, m := k.flags.word(i)
	for {
		v, r := k.x.ldrex(w)
		if th := k.head(q); th != 0 {
			if k.wakeup(q, th, int32(OK)) {
				return true
			}
			continue
		}
		if v&m != 0 {
			return false
		}
		if k.x.strex(w, v|m, r) {
			return false
		}
	}
}

// flagSet raises flag i and releases every watcher.
func (k *Kernel) flagSet(i int) bool {
	s := k.x.lock()
	k.flags.set(i)
	n := k.wakeupAllL(k.flagQueue(i), int32(OK))
	k.x.unlock(s)
	return n > 0
}

func (k *Kernel) flagTake(arg *Args, self int, timed bool) {
	i, ok := k.flagArg(arg, self, FlagTake)
	if !ok {
		return
	}
	ms := arg[1]
	w, m := k.flags.word(i)
	for {
		v, r := k.x.ldrex(w)
		if v&m != 0 {
			if k.x.strex(w, v&^m, r) {
				arg[0] = int32(OK)
				return
			}
			continue
		}
		presetWait(arg, timed)
		if k.block(self, k.flagQueue(i), timed, ms, func() bool { return k.flags.test(i) }) {
			return
		}
	}
}

func flagTakeSvc(k *Kernel, arg *Args, self int)      { k.flagTake(arg, self, false) }
func flagTimedTakeSvc(k *Kernel, arg *Args, self int) { k.flagTake(arg, self, true) }

func flagGiveSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.flagArg(arg, self, FlagTake)
	if !ok {
		return
	}
	if k.flagGive(i) {
		k.deferSched()
	}
	arg[0] = int32(OK)
}

func (k *Kernel) flagWatch(arg *Args, self int, timed bool) {
	i, ok := k.flagArg(arg, self, FlagWatch)
	if !ok {
		return
	}
	ms := arg[1]
	for {
		if k.flags.test(i) {
			arg[0] = int32(OK)
			return
		}
		presetWait(arg, timed)
		if k.block(self, k.flagQueue(i), timed, ms, func() bool { return k.flags.test(i) }) {
			return
		}
	}
}

func flagWatchSvc(k *Kernel, arg *Args, self int)      { k.flagWatch(arg, self, false) }
func flagTimedWatchSvc(k *Kernel, arg *Args, self int) { k.flagWatch(arg, self, true) }

func flagSetSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.flagArg(arg, self, FlagWatch)
	if !ok {
		return
	}
	if k.flagSet(i) {
		k.deferSched()
	}
	arg[0] = int32(OK)
}

func flagValSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.flagArg(arg, self, -1)
	if !ok {
		return
	}
	if k.flags.test(i) {
		arg[0] = 1
	} else {
		arg[0] = 0
	}
}

func flagClrSvc(k *Kernel, arg *Args, self int) {
	i, ok := k.flagArg(arg, self, -1)
	if !ok {
		return
	}
	s := k.x.lock()
	k.flags.clr(i)
	k.x.unlock(s)
	arg[0] = int32(OK)
}

// FlagGiveI gives a take-family flag from interrupt context.
func (k *Kernel) FlagGiveI(flag ObjID) error {
	i, e := k.objCheck(int32(flag), KindFlag, ErrFlagInvalid, ErrFlagAlloc)
	if e != ErrNone || !k.flagFamily(i, FlagTake) {
		return EINVAL
	}
	if k.flagGive(i) {
		k.preempt()
	}
	return nil
}

// FlagSetI sets a watch-family flag from interrupt context.
func (k *Kernel) FlagSetI(flag ObjID) error {
	i, e := k.objCheck(int32(flag), KindFlag, ErrFlagInvalid, ErrFlagAlloc)
	if e != ErrNone || !k.flagFamily(i, FlagWatch) {
		return EINVAL
	}
	if k.flagSet(i) {
		k.preempt()
	}
	return nil
}
