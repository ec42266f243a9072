package kernel

import "fmt"

// Logger writes newline-delimited log lines. hal.Logger satisfies it.
type Logger interface {
	WriteLineString(s string)
}

// IRQController is the interrupt controller the IRQ-wait calls drive.
type IRQController interface {
	Enable(irq int)
	Disable(irq int)
	ClearPending(irq int)
	SetPriority(irq int, pri int)
}

// Config sizes the kernel tables and selects optional behavior.
type Config struct {
	// Threads is the number of thread slots. Wait queues grow one word per
	// 32 threads.
	Threads int

	Mutexes    int
	Conds      int
	Semaphores int
	EventSets  int
	Flags      int
	Gates      int
	IRQs       int

	// TimeShare enables priority decay among ready threads.
	TimeShare bool
	// SchedLimitMax caps a thread's time-share weight.
	SchedLimitMax int
	// SchedLimitMin is the smallest schedule limit.
	SchedLimitMin int

	// NoAlloc treats every object id as allocated and disables ObjAlloc.
	NoAlloc bool

	// ErrorTrap moves a thread to the fault queue when one of its system
	// calls is rejected with a usage error.
	ErrorTrap bool

	// MinStack is the smallest stack accepted by ThreadCreate, in bytes.
	MinStack int
	// StackSize is used when ThreadInit carries neither Stack nor StackSize.
	StackSize int

	Log    Logger
	IRQ    IRQController
	Cycles func() uint32
	Port   Port

	// OnTick runs after every tick, outside the kernel lock.
	OnTick func(ticks uint32, active int)
}

// DefaultConfig returns a configuration with room for a small application.
func DefaultConfig() Config {
	return Config{
		Threads:       32,
		Mutexes:       8,
		Conds:         8,
		Semaphores:    8,
		EventSets:     4,
		Flags:         8,
		Gates:         4,
		IRQs:          16,
		SchedLimitMax: 32,
		SchedLimitMin: 1,
		MinStack:      ctxWords * 4,
		StackSize:     512,
	}
}

func (c *Config) validate() error {
	if c.Threads <= 0 {
		return fmt.Errorf("%w: threads = %d", ErrBadConfig, c.Threads)
	}
	for _, n := range []int{c.Mutexes, c.Conds, c.Semaphores, c.EventSets, c.Flags, c.Gates, c.IRQs} {
		if n < 0 {
			return fmt.Errorf("%w: negative object count", ErrBadConfig)
		}
	}
	if c.SchedLimitMax <= 0 {
		c.SchedLimitMax = 32
	}
	if c.SchedLimitMin <= 0 {
		c.SchedLimitMin = 1
	}
	if c.SchedLimitMin > c.SchedLimitMax {
		return fmt.Errorf("%w: sched limit min %d > max %d", ErrBadConfig, c.SchedLimitMin, c.SchedLimitMax)
	}
	if c.MinStack <= 0 {
		c.MinStack = ctxWords * 4
	}
	if c.StackSize < c.MinStack {
		c.StackSize = c.MinStack
	}
	if c.IRQ == nil {
		c.IRQ = nopIRQ{}
	}
	if c.Port == nil {
		c.Port = GoPort{}
	}
	return nil
}

type nopIRQ struct{}

func (nopIRQ) Enable(int)           {}
func (nopIRQ) Disable(int)          {}
func (nopIRQ) ClearPending(int)     {}
func (nopIRQ) SetPriority(int, int) {}
