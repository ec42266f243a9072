package hal

import (
	"context"
	"sync"
)

// irqCtl is a software interrupt controller in the manner of an NVIC: every
// line has a pending latch, an enable bit and a priority. A dispatcher
// goroutine delivers the highest priority pending line that is enabled,
// lowest number first among equals.
type irqCtl struct {
	mu      sync.Mutex
	pending []bool
	enabled []bool
	prio    []int
	fn      func(irq int)

	kick chan struct{}
}

func newIRQCtl(lines int) *irqCtl {
	return &irqCtl{
		pending: make([]bool, lines),
		enabled: make([]bool, lines),
		prio:    make([]int, lines),
		kick:    make(chan struct{}, 1),
	}
}

func (c *irqCtl) Lines() int { return len(c.pending) }

func (c *irqCtl) valid(irq int) bool { return irq >= 0 && irq < len(c.pending) }

func (c *irqCtl) Enable(irq int) {
	if !c.valid(irq) {
		return
	}
	c.mu.Lock()
	c.enabled[irq] = true
	wake := c.pending[irq]
	c.mu.Unlock()
	if wake {
		c.signal()
	}
}

func (c *irqCtl) Disable(irq int) {
	if !c.valid(irq) {
		return
	}
	c.mu.Lock()
	c.enabled[irq] = false
	c.mu.Unlock()
}

func (c *irqCtl) ClearPending(irq int) {
	if !c.valid(irq) {
		return
	}
	c.mu.Lock()
	c.pending[irq] = false
	c.mu.Unlock()
}

func (c *irqCtl) SetPriority(irq int, pri int) {
	if !c.valid(irq) {
		return
	}
	c.mu.Lock()
	c.prio[irq] = pri
	c.mu.Unlock()
}

func (c *irqCtl) Raise(irq int) {
	if !c.valid(irq) {
		return
	}
	c.mu.Lock()
	c.pending[irq] = true
	wake := c.enabled[irq]
	c.mu.Unlock()
	if wake {
		c.signal()
	}
}

func (c *irqCtl) Attach(fn func(irq int)) {
	c.mu.Lock()
	c.fn = fn
	c.mu.Unlock()
	c.signal()
}

func (c *irqCtl) signal() {
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

// next clears and returns the line to deliver, or -1.
func (c *irqCtl) next() (int, func(int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fn == nil {
		return -1, nil
	}
	best := -1
	for i := range c.pending {
		if !c.pending[i] || !c.enabled[i] {
			continue
		}
		if best < 0 || c.prio[i] < c.prio[best] {
			best = i
		}
	}
	if best >= 0 {
		c.pending[best] = false
	}
	return best, c.fn
}

// run delivers interrupts until ctx is done.
func (c *irqCtl) run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.kick:
		}
		for {
			irq, fn := c.next()
			if irq < 0 {
				break
			}
			fn(irq)
		}
	}
}
