//go:build !tinygo

package hal

import (
	"fmt"
	"os"
	"sync"
	"time"
)

const hostIRQLines = 16

type hostHAL struct {
	logger  *hostLogger
	led     *hostLED
	fb      *hostFramebuffer
	kbd     *hostKeyboard
	t       *hostTime
	irq     *irqCtl
	serial  *lineSerial
	signals []*signalSource
}

// New returns a host HAL implementation.
func New() HAL {
	logger := &hostLogger{w: os.Stdout}
	irq := newIRQCtl(hostIRQLines)
	serial := newLineSerial(os.Stdout, irq)
	kbd := newHostKeyboard(irq)
	kbd.serial = serial
	return &hostHAL{
		logger:  logger,
		led:     &hostLED{logger: logger},
		fb:      newHostFramebuffer(320, 320),
		kbd:     kbd,
		t:       newHostTime(),
		irq:     irq,
		serial:  serial,
		signals: defaultSignals(),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) LED() LED         { return h.led }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Time() Time       { return h.t }
func (h *hostHAL) Serial() Serial   { return h.serial }
func (h *hostHAL) IRQ() IRQ         { return h.irq }

// tick advances host time and samples the signal sources.
func (h *hostHAL) tick() {
	h.t.advance()
	for _, s := range h.signals {
		s.sample(h.irq)
	}
}

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostLogger struct {
	mu sync.Mutex
	w  *os.File
}

func (l *hostLogger) WriteLineString(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, s)
}

func (l *hostLogger) WriteLineBytes(b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.w.Write(b)
	l.w.Write([]byte{'\n'})
}

type hostLED struct {
	mu     sync.Mutex
	on     bool
	since  time.Time
	logger *hostLogger
}

func (l *hostLED) High() { l.set(true) }
func (l *hostLED) Low()  { l.set(false) }

// set logs level changes only, with the time spent in the previous level.
func (l *hostLED) set(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.on == on && !l.since.IsZero() {
		return
	}
	now := time.Now()
	var held time.Duration
	if !l.since.IsZero() {
		held = now.Sub(l.since).Round(time.Millisecond)
	}
	l.on, l.since = on, now
	state := "LOW"
	if on {
		state = "HIGH"
	}
	l.logger.WriteLineString(fmt.Sprintf("led: %s (after %v)", state, held))
}
