package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"thinkos/hal"
	"thinkos/kernel"
)

type testLogger struct {
	mu    sync.Mutex
	lines []string
}

func (l *testLogger) WriteLineString(s string) {
	l.mu.Lock()
	l.lines = append(l.lines, s)
	l.mu.Unlock()
}

func (l *testLogger) WriteLineBytes(b []byte) { l.WriteLineString(string(b)) }

func (l *testLogger) contains(sub string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range l.lines {
		if strings.Contains(line, sub) {
			return true
		}
	}
	return false
}

type testLED struct {
	mu      sync.Mutex
	on      bool
	toggles int
}

func (l *testLED) High() { l.set(true) }
func (l *testLED) Low()  { l.set(false) }

func (l *testLED) set(on bool) {
	l.mu.Lock()
	if l.on != on {
		l.toggles++
	}
	l.on = on
	l.mu.Unlock()
}

type testTime struct{ ch chan uint64 }

func (t *testTime) Ticks() <-chan uint64 { return t.ch }
func (t *testTime) Cycles() uint32       { return 0 }

type testSerial struct{}

func (testSerial) Write(p []byte) (int, error) { return len(p), nil }
func (testSerial) ReadLine() (string, bool)    { return "", false }

// testIRQ latches lines while disabled. Enable never delivers inline since
// the kernel calls it with its lock held.
type testIRQ struct {
	mu      sync.Mutex
	enabled [16]bool
	pending [16]bool
	fn      func(int)
}

func (q *testIRQ) Lines() int           { return 16 }
func (q *testIRQ) SetPriority(int, int) {}
func (q *testIRQ) Attach(fn func(int))  { q.mu.Lock(); q.fn = fn; q.mu.Unlock() }

func (q *testIRQ) Enable(irq int) {
	q.mu.Lock()
	q.enabled[irq] = true
	fire := q.pending[irq]
	q.pending[irq] = false
	fn := q.fn
	q.mu.Unlock()
	if fire && fn != nil {
		go fn(irq)
	}
}

func (q *testIRQ) Disable(irq int) {
	q.mu.Lock()
	q.enabled[irq] = false
	q.mu.Unlock()
}

func (q *testIRQ) ClearPending(irq int) {
	q.mu.Lock()
	q.pending[irq] = false
	q.mu.Unlock()
}

func (q *testIRQ) Raise(irq int) {
	q.mu.Lock()
	fn := q.fn
	if !q.enabled[irq] || fn == nil {
		q.pending[irq] = true
		q.mu.Unlock()
		return
	}
	q.mu.Unlock()
	fn(irq)
}

type testHAL struct {
	log  *testLogger
	led  *testLED
	disp hal.Display
	t    *testTime
	irq  *testIRQ
}

func (h *testHAL) Logger() hal.Logger   { return h.log }
func (h *testHAL) LED() hal.LED         { return h.led }
func (h *testHAL) Display() hal.Display { return h.disp }
func (h *testHAL) Time() hal.Time       { return h.t }
func (h *testHAL) Serial() hal.Serial   { return testSerial{} }
func (h *testHAL) IRQ() hal.IRQ         { return h.irq }

func newTestHAL(t *testing.T) *testHAL {
	t.Helper()
	h := &testHAL{log: &testLogger{}, led: &testLED{}, t: &testTime{ch: make(chan uint64, 64)}, irq: &testIRQ{}}
	stop := make(chan struct{})
	go func() {
		for seq := uint64(1); ; seq++ {
			select {
			case <-stop:
				return
			case h.t.ch <- seq:
			}
			time.Sleep(50 * time.Microsecond)
		}
	}()
	t.Cleanup(func() { close(stop) })
	return h
}

func eventually(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

// raiseBound raises irq once a thread waits on it.
func raiseBound(t *testing.T, s *System, h *testHAL, irq int) {
	t.Helper()
	q := s.k.Obj(kernel.KindIRQ, irq)
	eventually(t, "irq waiter", func() bool {
		snap := s.k.Snapshot()
		return len(snap.Queue(q)) == 1
	})
	h.irq.Raise(irq)
}

func TestBootStartsServices(t *testing.T) {
	h := newTestHAL(t)
	s := NewWithConfig(h, Config{})

	objs := s.Objects()
	for _, name := range []string{"kick", "lock", "nonempty", "tokens", "events", "led"} {
		if _, ok := objs[name]; !ok {
			t.Fatalf("Objects() missing %q: %v", name, objs)
		}
	}
	if err := s.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}

	snap := s.k.Snapshot()
	tags := map[string]bool{}
	for _, ts := range snap.Threads {
		tags[ts.Tag] = true
	}
	for _, tag := range []string{"main", "trace", "console", "producer", "consumer", "blinker", "events"} {
		if !tags[tag] {
			t.Fatalf("thread %q not running: %v", tag, tags)
		}
	}
	// No display: the monitor gives up at once.
	eventually(t, "monitor log", func() bool { return h.log.contains("monitor: no framebuffer") })
}

func TestDemoPipeline(t *testing.T) {
	h := newTestHAL(t)
	s := NewWithConfig(h, Config{})
	s.Objects()

	for i := 0; i < 3; i++ {
		raiseBound(t, s, h, hal.IRQSignal0)
	}
	eventually(t, "12 items", func() bool { return s.d.consumed.Load() == 12 })
	if got := s.d.produced.Load(); got != 12 {
		t.Fatalf("produced = %d, want 12", got)
	}

	raiseBound(t, s, h, hal.IRQSignal0+1)
	eventually(t, "blink", func() bool { return s.d.blinks.Load() == 1 })
	h.led.mu.Lock()
	on := h.led.on
	h.led.mu.Unlock()
	if !on {
		t.Fatalf("LED off after one blink")
	}

	raiseBound(t, s, h, hal.IRQKey1)
	eventually(t, "blinker paused", func() bool {
		ts, ok := s.k.Snapshot().Thread(s.d.blinker)
		return ok && ts.Paused
	})
}

func TestBootFailureReported(t *testing.T) {
	h := newTestHAL(t)
	s := NewWithConfig(h, Config{Threads: 2})
	s.Objects()
	if err := s.Step(); err == nil {
		t.Fatalf("Step() error = nil with too few threads")
	}
}

func TestCloseWritesTrace(t *testing.T) {
	h := newTestHAL(t)
	path := filepath.Join(t.TempDir(), "sched.png")
	s := NewWithConfig(h, Config{NoDemo: true, TracePath: path})
	s.Objects()
	eventually(t, "ticks", func() bool { return s.k.Ticks() > 20 })

	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
}

func TestStepReportsFailure(t *testing.T) {
	s := &System{cfg: Config{HaltOnPanic: true}}
	if err := s.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	s.fail(errors.New("boom"))
	if err := s.Step(); err == nil || err.Error() != "boom" {
		t.Fatalf("Step() error = %v, want boom", err)
	}
}
