package kernel

import "math/bits"

// MaxEvent is the highest event number of an event set.
const MaxEvent = 31

func (k *Kernel) evsetArg(arg *Args, self int) (int, bool) {
	i, e := k.objCheck(arg[0], KindEvent, ErrEvsetInvalid, ErrEvsetAlloc)
	if e != ErrNone {
		k.fail(arg, self, e, EINVAL)
		return -1, false
	}
	return i, true
}

func (k *Kernel) evArg(arg *Args, self int) (int, uint32, bool) {
	i, ok := k.evsetArg(arg, self)
	if !ok {
		return -1, 0, false
	}
	ev := arg[1]
	if ev < 0 || ev > MaxEvent {
		k.fail(arg, self, ErrEventOutOfRange, EINVAL)
		return -1, 0, false
	}
	return i, 1 << uint(ev), true
}

func (k *Kernel) evQueue(i int) ObjID { return k.lay.Base(KindEvent) + ObjID(i) }

// evConsume takes the lowest pending unmasked event of set i, or returns -1.
func (k *Kernel) evConsume(i int) int {
	w := &k.evPend[i]
	for {
		v, r := k.x.ldrex(w)
		p := v & k.evMask[i].Load()
		if p == 0 {
			return -1
		}
		n := bits.TrailingZeros32(p)
		if k.x.strex(w, v&^(1<<uint(n)), r) {
			return n
		}
	}
}

// evRaise delivers event ev of set i to the first waiter, or leaves it
// pending. A masked event is always left pending.
func (k *Kernel) evRaise(i int, ev int) bool {
	q := k.evQueue(i)
	w := &k.evPend[i]
	bit := uint32(1) << uint(ev)
	for {
		v, r := k.x.ldrex(w)
		if k.evMask[i].Load()&bit != 0 {
			if th := k.head(q); th != 0 {
				if k.wakeup(q, th, int32(ev)) {
					return true
				}
				continue
			}
		}
		if k.x.strex(w, v|bit, r) {
			return false
		}
	}
}

func (k *Kernel) eventWait(arg *Args, self int, timed bool) {
	i, ok := k.evsetArg(arg, self)
	if !ok {
		return
	}
	ms := arg[1]
	for {
		if n := k.evConsume(i); n >= 0 {
			arg[0] = int32(n)
			return
		}
		presetWait(arg, timed)
		if k.block(self, k.evQueue(i), timed, ms, func() bool {
			return k.evPend[i].Load()&k.evMask[i].Load() != 0
		}) {
			return
		}
	}
}

func eventWaitSvc(k *Kernel, arg *Args, self int)      { k.eventWait(arg, self, false) }
func eventTimedWaitSvc(k *Kernel, arg *Args, self int) { k.eventWait(arg, self, true) }

func eventRaiseSvc(k *Kernel, arg *Args, self int) {
	i, _, ok := k.evArg(arg, self)
	if !ok {
		return
	}
	if k.evRaise(i, int(arg[1])) {
		k.deferSched()
	}
	arg[0] = int32(OK)
}

// eventMaskSvc enables (arg[2] != 0) or disables event arg[1]. Enabling a
// pending event hands it to a waiter at once.
func eventMaskSvc(k *Kernel, arg *Args, self int) {
	i, bit, ok := k.evArg(arg, self)
	if !ok {
		return
	}
	ev := arg[1]
	woke := false

	s := k.x.lock()
	m := &k.evMask[i]
	if arg[2] != 0 {
		m.Store(m.Load() | bit)
		p := &k.evPend[i]
		if p.Load()&bit != 0 {
			if th := k.head(k.evQueue(i)); th != 0 {
				p.Store(p.Load() &^ bit)
				woke = k.wakeupL(k.evQueue(i), th, ev)
			}
		}
	} else {
		m.Store(m.Load() &^ bit)
	}
	k.x.unlock(s)

	if woke {
		k.deferSched()
	}
	arg[0] = int32(OK)
}

func eventClearSvc(k *Kernel, arg *Args, self int) {
	i, bit, ok := k.evArg(arg, self)
	if !ok {
		return
	}
	s := k.x.lock()
	p := &k.evPend[i]
	p.Store(p.Load() &^ bit)
	k.x.unlock(s)
	arg[0] = int32(OK)
}

// EventRaiseI raises event ev of set from interrupt context.
func (k *Kernel) EventRaiseI(set ObjID, ev int) error {
	i, e := k.objCheck(int32(set), KindEvent, ErrEvsetInvalid, ErrEvsetAlloc)
	if e != ErrNone || ev < 0 || ev > MaxEvent {
		return EINVAL
	}
	if k.evRaise(i, ev) {
		k.preempt()
	}
	return nil
}
