package kernel

import "strconv"

// Kind is the type of a kernel object.
type Kind uint8

const (
	KindReady Kind = iota
	KindTmshare
	KindClock
	KindMutex
	KindCond
	KindSemaphore
	KindEvent
	KindFlag
	KindGate
	KindJoin
	KindPaused
	KindCanceled
	KindIRQ
	KindFault
	kindCount

	KindInvalid Kind = 0xff
)

func (k Kind) String() string {
	switch k {
	case KindReady:
		return "ready"
	case KindTmshare:
		return "tmshare"
	case KindClock:
		return "clock"
	case KindMutex:
		return "mutex"
	case KindCond:
		return "cond"
	case KindSemaphore:
		return "sem"
	case KindEvent:
		return "evset"
	case KindFlag:
		return "flag"
	case KindGate:
		return "gate"
	case KindJoin:
		return "join"
	case KindPaused:
		return "paused"
	case KindCanceled:
		return "canceled"
	case KindIRQ:
		return "irq"
	case KindFault:
		return "fault"
	default:
		return "invalid"
	}
}

// ObjID is a flat object id. Every wait queue of a kernel has one.
type ObjID int32

// Obj is the tagged form of an ObjID.
type Obj struct {
	Kind  Kind
	Index int
}

func (o Obj) String() string {
	return o.Kind.String() + "/" + strconv.Itoa(o.Index)
}

// Layout partitions the flat id space into one contiguous range per kind.
// The ranges follow the Kind order.
type Layout struct {
	base  [kindCount + 1]ObjID
	count [kindCount]int
}

func newLayout(cfg Config) Layout {
	var l Layout
	l.count = [kindCount]int{
		KindReady:     1,
		KindTmshare:   1,
		KindClock:     1,
		KindMutex:     cfg.Mutexes,
		KindCond:      cfg.Conds,
		KindSemaphore: cfg.Semaphores,
		KindEvent:     cfg.EventSets,
		KindFlag:      cfg.Flags,
		KindGate:      cfg.Gates,
		KindJoin:      cfg.Threads,
		KindPaused:    1,
		KindCanceled:  1,
		KindIRQ:       cfg.IRQs,
		KindFault:     1,
	}
	var next ObjID
	for k := Kind(0); k < kindCount; k++ {
		l.base[k] = next
		next += ObjID(l.count[k])
	}
	l.base[kindCount] = next
	return l
}

// Base returns the first id of kind k.
func (l *Layout) Base(k Kind) ObjID {
	if k >= kindCount {
		return -1
	}
	return l.base[k]
}

// Count returns the number of ids of kind k.
func (l *Layout) Count(k Kind) int {
	if k >= kindCount {
		return 0
	}
	return l.count[k]
}

// End returns one past the last id.
func (l *Layout) End() ObjID { return l.base[kindCount] }

// ID returns the flat id of o.
func (l *Layout) ID(o Obj) (ObjID, bool) {
	if o.Kind >= kindCount || o.Index < 0 || o.Index >= l.count[o.Kind] {
		return -1, false
	}
	return l.base[o.Kind] + ObjID(o.Index), true
}

// Kind returns the kind of id, or KindInvalid.
func (l *Layout) Kind(id ObjID) Kind {
	if id < 0 || id >= l.End() {
		return KindInvalid
	}
	for k := kindCount - 1; ; k-- {
		if l.count[k] > 0 && id >= l.base[k] {
			return k
		}
		if k == 0 {
			return KindInvalid
		}
	}
}

// Split returns the tagged form of id.
func (l *Layout) Split(id ObjID) Obj {
	k := l.Kind(id)
	if k == KindInvalid {
		return Obj{Kind: KindInvalid, Index: -1}
	}
	return Obj{Kind: k, Index: int(id - l.base[k])}
}
