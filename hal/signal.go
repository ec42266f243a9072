package hal

import (
	"strings"
	"time"
)

// signalSource is a square wave that raises an IRQ line on every rising
// edge. Sources are sampled on each tick.
type signalSource struct {
	name string
	irq  int

	t0     time.Time
	now    func() time.Time
	period time.Duration
	high   time.Duration

	last bool
}

func newSignalSource(name string, irq int, period, high time.Duration) *signalSource {
	return newSignalSourceWithClock(name, irq, period, high, time.Now)
}

func newSignalSourceWithClock(name string, irq int, period, high time.Duration, now func() time.Time) *signalSource {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	if now == nil {
		now = time.Now
	}
	if period <= 0 {
		period = 1 * time.Second
	}
	if high < 0 {
		high = 0
	}
	if high > period {
		high = period
	}
	return &signalSource{
		name:   name,
		irq:    irq,
		t0:     now(),
		now:    now,
		period: period,
		high:   high,
	}
}

func (s *signalSource) Name() string { return s.name }

// Level reports the current output level.
func (s *signalSource) Level() bool {
	elapsed := s.now().Sub(s.t0)
	if elapsed < 0 {
		elapsed = -elapsed
	}
	return elapsed%s.period < s.high
}

// sample raises the line on a rising edge and reports whether it did.
func (s *signalSource) sample(irq IRQ) bool {
	level := s.Level()
	rising := level && !s.last
	s.last = level
	if rising && irq != nil {
		irq.Raise(s.irq)
	}
	return rising
}

func defaultSignals() []*signalSource {
	return []*signalSource{
		newSignalSource("SIG1HZ", IRQSignal0, 1*time.Second, 500*time.Millisecond),
		newSignalSource("SIG5HZ", IRQSignal0+1, 200*time.Millisecond, 100*time.Millisecond),
		newSignalSource("SIGPULSE", IRQSignal0+2, 1*time.Second, 50*time.Millisecond),
	}
}
