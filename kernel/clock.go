package kernel

// TickHz is the kernel clock rate. One tick is one millisecond.
const TickHz = 1000

// rtclock keeps wall time as a Q32.32 count of seconds derived from the
// tick counter: t = offs + ticks*period.
type rtclock struct {
	offs   uint64
	period uint64
}

const tickQ32 = (1 << 32) / TickHz

func (c *rtclock) now(ticks uint32) uint64 {
	if c.period == 0 {
		c.period = tickQ32
	}
	return c.offs + uint64(ticks)*c.period
}

// Tick advances the kernel clock by one tick. It is the timer interrupt:
// expired waits are completed and the running thread is charged for its
// time share.
func (k *Kernel) Tick() {
	k.mu.Lock()
	now := k.ticks.Add(1)
	k.timeouts(now)
	if k.cfg.TimeShare {
		k.timeshare()
	}
	k.dispatchIdle()
	act := int(k.active.Load())
	k.mu.Unlock()

	if fn := k.cfg.OnTick; fn != nil {
		fn(now, act)
	}
}

// timeouts readies every thread whose deadline has passed. Their preset
// result (ETIMEDOUT, or OK for a sleep) stays in place.
func (k *Kernel) timeouts(now uint32) {
	k.scratch = k.clk.members(k.scratch[:0])
	cq := k.lay.Base(KindClock)
	for _, i := range k.scratch {
		th := i + 1
		t := &k.th[th]
		if int32(t.tmr.Load()-now) > 0 {
			continue
		}

		s := k.x.lock()
		if !k.clk.test(i) {
			k.x.unlock(s)
			continue
		}
		q := statQueue(t.stat.Load())
		if q != cq && !k.wq[q].testClr(i) {
			k.x.unlock(s)
			continue
		}
		k.readyL(th)
		k.x.unlock(s)

		if k.lay.Kind(q) == KindIRQ {
			k.irqUnbind(int(q-k.lay.Base(KindIRQ)), th)
		}
		k.deferSched()
	}
}

// ClockRealtime returns the wall clock as Q32.32 seconds.
func (k *Kernel) ClockRealtime() uint64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.rt.now(k.ticks.Load())
}

// ClockSetRealtime sets the wall clock.
func (k *Kernel) ClockSetRealtime(ts uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ticks := k.ticks.Load()
	k.rt.now(ticks)
	k.rt.offs = ts - uint64(ticks)*k.rt.period
}

// ClockDrift adjusts the length of a tick by drift Q32.32 seconds without
// moving the current wall time.
func (k *Kernel) ClockDrift(drift int32) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ticks := k.ticks.Load()
	cur := k.rt.now(ticks)
	k.rt.period = uint64(int64(tickQ32) + int64(drift))
	k.rt.offs = cur - uint64(ticks)*k.rt.period
}

func clockSvc(k *Kernel, arg *Args, self int) {
	arg[0] = int32(k.ticks.Load())
}

func sleepSvc(k *Kernel, arg *Args, self int) {
	ms := arg[0]
	arg[0] = int32(OK)
	k.suspendOn(self, k.lay.Base(KindClock), true, ms)
}

// alarmSvc sleeps until the absolute tick arg[0].
func alarmSvc(k *Kernel, arg *Args, self int) {
	ms := int32(uint32(arg[0]) - k.ticks.Load())
	arg[0] = int32(OK)
	if ms <= 0 {
		return
	}
	k.suspendOn(self, k.lay.Base(KindClock), true, ms)
}

func yieldSvc(k *Kernel, arg *Args, self int) {
	arg[0] = int32(OK)
	if k.cfg.TimeShare {
		t := &k.th[self]
		t.val = k.limit / 2
		s := k.x.lock()
		k.tms.set(self - 1)
		k.readyClrL(self)
		k.x.unlock(s)
	}
	k.deferSched()
}
