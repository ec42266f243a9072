package kernel

// ThreadState is the scheduler's view of one thread.
type ThreadState struct {
	ID       int
	Tag      string
	Active   bool
	Ready    bool
	Wait     ObjID // 0 when not waiting
	WaitKind Kind
	Timed    bool
	Deadline uint32
	Paused   bool
	Faulted  bool
	Priority int
	SchedVal int32
	Errno    ErrCode
	Cycles   uint32

	StackSize int
	StackFree int
}

// QueueState lists the members of a non-empty wait queue.
type QueueState struct {
	ID      ObjID
	Obj     Obj
	Threads []int
}

// Snapshot is a consistent copy of the kernel state.
type Snapshot struct {
	Ticks   uint32
	Active  int
	Panic   bool
	Threads []ThreadState
	Queues  []QueueState
	// Owners maps each locked mutex index to its owner.
	Owners map[int]int
}

// Snapshot captures the kernel state. It takes the exception band, so it
// never observes a half-done system call.
func (k *Kernel) Snapshot() Snapshot {
	k.mu.Lock()
	defer k.mu.Unlock()
	s := k.x.lock()
	defer k.x.unlock(s)

	snap := Snapshot{
		Ticks:  k.ticks.Load(),
		Active: int(k.active.Load()),
		Panic:  k.panicked.Load(),
		Owners: make(map[int]int),
	}

	for th := 1; th <= k.cfg.Threads; th++ {
		tc := k.th[th].ctx.Load()
		if tc == nil {
			continue
		}
		t := &k.th[th]
		st := t.stat.Load()
		q := statQueue(st)
		ts := ThreadState{
			ID:       th,
			Tag:      tc.tag,
			Active:   snap.Active == th,
			Ready:    k.rdy.test(th-1) || k.tms.test(th-1),
			Wait:     q,
			Timed:    statTimed(st),
			Deadline: t.tmr.Load(),
			Paused:   k.paused.test(th - 1),
			Faulted:  k.faulted.test(th - 1),
			Priority: int(t.pri),
			SchedVal: t.val,
			Errno:    ErrCode(t.errno.Load()),
			Cycles:   t.cyc.Load(),
		}
		if q != 0 {
			ts.WaitKind = k.lay.Kind(q)
		}
		ts.StackSize = len(tc.stack) * 4
		ts.StackFree = tc.stackFree()
		snap.Threads = append(snap.Threads, ts)
	}

	for id := ObjID(0); id < k.lay.End(); id++ {
		if k.wq[id].empty() {
			continue
		}
		var m []int
		for _, i := range k.wq[id].members(nil) {
			m = append(m, i+1)
		}
		snap.Queues = append(snap.Queues, QueueState{ID: id, Obj: k.lay.Split(id), Threads: m})
	}

	for i, owner := range k.mtx {
		if owner != 0 {
			snap.Owners[i] = int(owner)
		}
	}
	return snap
}

// Thread returns the state of th from the snapshot.
func (s Snapshot) Thread(th int) (ThreadState, bool) {
	for _, t := range s.Threads {
		if t.ID == th {
			return t, true
		}
	}
	return ThreadState{}, false
}

// Queue returns the members of q from the snapshot.
func (s Snapshot) Queue(q ObjID) []int {
	for _, qs := range s.Queues {
		if qs.ID == q {
			return qs.Threads
		}
	}
	return nil
}
