package app

import (
	"fmt"
	"sync/atomic"
	"time"

	"thinkos/hal"
	"thinkos/kernel"
)

// Events on the demo event set.
const (
	evBeat = iota
	evKey
)

// demo is a small workload that keeps every object family busy:
//
//	sig1hz   --SemPost-->  producer --mutex+cond--> consumer
//	sig5hz   --evBeat--+
//	keys     --evKey---+-> events --GateOpen--> blinker (LED)
//	                           \--Pause/Resume-> blinker
type demo struct {
	h hal.HAL

	mu, nonempty, tokens, evs, led kernel.ObjID

	// queue is guarded by the mu kernel mutex.
	queue []int

	blinker  int
	produced atomic.Uint32
	consumed atomic.Uint32
	blinks   atomic.Uint32
}

func newDemo(h hal.HAL) *demo { return &demo{h: h} }

func (d *demo) alloc(c *kernel.Context, objs map[string]kernel.ObjID) error {
	for _, o := range []struct {
		name string
		kind kernel.Kind
		dst  *kernel.ObjID
	}{
		{"lock", kernel.KindMutex, &d.mu},
		{"nonempty", kernel.KindCond, &d.nonempty},
		{"tokens", kernel.KindSemaphore, &d.tokens},
		{"events", kernel.KindEvent, &d.evs},
		{"led", kernel.KindGate, &d.led},
	} {
		id, err := c.ObjAlloc(o.kind)
		if err != nil {
			return fmt.Errorf("demo: alloc %s: %w", o.name, err)
		}
		*o.dst = id
		objs[o.name] = id
	}
	return nil
}

func (d *demo) start(c *kernel.Context) error {
	var err error
	d.blinker, err = c.ThreadCreate(kernel.ThreadInit{Tag: "blinker", Entry: d.blink, Detached: true})
	if err != nil {
		return fmt.Errorf("demo: blinker: %w", err)
	}
	for _, init := range []kernel.ThreadInit{
		{Tag: "producer", Entry: d.produce},
		{Tag: "consumer", Entry: d.consume},
		{Tag: "sig1hz", Entry: d.irqPost, Arg: hal.IRQSignal0},
		{Tag: "sig5hz", Entry: d.irqRaise, Arg: [2]int{hal.IRQSignal0 + 1, evBeat}},
		{Tag: "keys", Entry: d.irqRaise, Arg: [2]int{hal.IRQKey1, evKey}},
		{Tag: "events", Entry: d.events},
	} {
		init.Detached = true
		if _, err := c.ThreadCreate(init); err != nil {
			return fmt.Errorf("demo: %s: %w", init.Tag, err)
		}
	}
	return nil
}

// produce queues a burst of items for every token.
func (d *demo) produce(c *kernel.Context, _ any) int {
	n := 0
	for {
		if err := c.SemTimedWait(d.tokens, 2*time.Second); err != nil {
			continue
		}
		c.Lock(d.mu)
		for i := 0; i < 4; i++ {
			n++
			d.queue = append(d.queue, n)
		}
		c.Broadcast(d.nonempty)
		c.Unlock(d.mu)
		d.produced.Add(4)
	}
}

func (d *demo) consume(c *kernel.Context, _ any) int {
	for {
		c.Lock(d.mu)
		for len(d.queue) == 0 {
			c.Wait(d.nonempty, d.mu)
		}
		item := d.queue[0]
		d.queue = d.queue[1:]
		c.Unlock(d.mu)

		if d.consumed.Add(1)%20 == 0 {
			logf(d.h, "demo: consumed item %d", item)
		}
	}
}

func (d *demo) irqPost(c *kernel.Context, arg any) int {
	irq := arg.(int)
	for {
		if _, err := c.IRQWait(irq); err != nil {
			logf(d.h, "demo: irq %d: %v", irq, err)
			return 1
		}
		c.SemPost(d.tokens)
	}
}

func (d *demo) irqRaise(c *kernel.Context, arg any) int {
	a := arg.([2]int)
	irq, ev := a[0], a[1]
	for {
		if _, err := c.IRQWait(irq); err != nil {
			logf(d.h, "demo: irq %d: %v", irq, err)
			return 1
		}
		c.EventRaise(d.evs, ev)
	}
}

// events opens the LED gate on every beat and pauses or resumes the
// blinker on every key.
func (d *demo) events(c *kernel.Context, _ any) int {
	paused := false
	for {
		ev, err := c.EventWait(d.evs)
		if err != nil {
			logf(d.h, "demo: events: %v", err)
			return 1
		}
		switch ev {
		case evBeat:
			c.GateOpen(d.led)
		case evKey:
			if paused {
				err = c.Resume(d.blinker)
			} else {
				err = c.Pause(d.blinker)
			}
			if err == nil {
				paused = !paused
				logf(d.h, "demo: blinker paused=%v", paused)
			}
		}
	}
}

func (d *demo) blink(c *kernel.Context, _ any) int {
	led := d.h.LED()
	on := false
	for {
		if err := c.GateWait(d.led); err != nil {
			return 1
		}
		on = !on
		if led != nil {
			if on {
				led.High()
			} else {
				led.Low()
			}
		}
		d.blinks.Add(1)
		c.GateExit(d.led, false)
	}
}
