package app

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"thinkos/hal"
	"thinkos/kernel"
	"thinkos/services/console"
	"thinkos/services/monitor"
	"thinkos/services/trace"
)

type Config struct {
	// Threads is the number of kernel thread slots.
	Threads int
	// TimeShare enables priority decay among ready threads.
	TimeShare bool
	// TracePath, if set, receives the scheduler timeline on Close.
	TracePath string
	// TraceWindow is the number of ticks the timeline keeps.
	TraceWindow int
	// NoDemo starts only the system services.
	NoDemo bool
	// HaltOnPanic makes Step fail once the kernel panicked.
	HaltOnPanic bool
	// Verbose routes kernel log lines to the HAL logger.
	Verbose bool
}

func DefaultConfig() Config {
	return Config{Threads: 16, TraceWindow: 2000, HaltOnPanic: true}
}

// ErrKernelPanic is returned by Step after the kernel stopped scheduling.
var ErrKernelPanic = errors.New("kernel panic")

// System is a booted kernel with its services.
type System struct {
	h   hal.HAL
	cfg Config
	k   *kernel.Kernel
	rec *trace.Recorder
	mon *monitor.Service
	con *console.Service
	d   *demo

	mu      sync.Mutex
	err     error
	objects map[string]kernel.ObjID
	ready   chan struct{}
}

// New initializes and starts the OS with the default config.
func New(h hal.HAL) func() error {
	return NewWithConfig(h, DefaultConfig()).Step
}

// Run starts the OS and blocks forever (TinyGo entrypoint).
func Run(h hal.HAL) {
	RunWithConfig(h, DefaultConfig())
}

func RunWithConfig(h hal.HAL, cfg Config) {
	s := NewWithConfig(h, cfg)
	for {
		if err := s.Step(); err != nil {
			logf(h, "halt: %v", err)
			select {}
		}
		time.Sleep(100 * time.Millisecond)
	}
}

// NewWithConfig boots the kernel on h. Boot errors are reported by Step.
func NewWithConfig(h hal.HAL, cfg Config) *System {
	def := DefaultConfig()
	if cfg.Threads <= 0 {
		cfg.Threads = def.Threads
	}
	if cfg.TraceWindow <= 0 {
		cfg.TraceWindow = def.TraceWindow
	}

	s := &System{h: h, cfg: cfg, ready: make(chan struct{})}
	if err := s.start(); err != nil {
		s.fail(err)
		close(s.ready)
	}
	return s
}

func (s *System) start() error {
	s.rec = trace.New(s.cfg.Threads, s.cfg.TraceWindow)

	kcfg := kernel.DefaultConfig()
	kcfg.Threads = s.cfg.Threads
	kcfg.TimeShare = s.cfg.TimeShare
	kcfg.OnTick = s.rec.OnTick
	if s.cfg.Verbose {
		kcfg.Log = s.h.Logger()
	}
	if irq := s.h.IRQ(); irq != nil {
		kcfg.IRQs = irq.Lines()
		kcfg.IRQ = irq
	}
	if t := s.h.Time(); t != nil {
		kcfg.Cycles = t.Cycles
	}

	k, err := kernel.New(kcfg)
	if err != nil {
		return fmt.Errorf("kernel: %w", err)
	}
	s.k = k
	installPanicHandler(s.h, k)
	k.SetFaultHandler(func(info kernel.FaultInfo) {
		logf(s.h, "fault: thread %d %v (%v)", info.Thread, info.Reason, info.Err)
	})
	if irq := s.h.IRQ(); irq != nil {
		irq.Attach(k.IRQSignal)
	}

	go s.main()
	return nil
}

// pumpTicks turns the HAL tick stream into kernel ticks.
func (s *System) pumpTicks() {
	t := s.h.Time()
	if t == nil {
		return
	}
	if ch := t.Ticks(); ch != nil {
		go func() {
			for range ch {
				s.k.Tick()
			}
		}()
	}
}

// main becomes thread 1 and stays behind as the supervisor.
func (s *System) main() {
	bootScreen(s.h, "kernel init")
	c, err := s.k.Init(kernel.ThreadInit{Tag: "main"})
	if err != nil {
		s.fail(err)
		close(s.ready)
		return
	}
	s.pumpTicks()
	if err := s.boot(c); err != nil {
		s.fail(err)
		close(s.ready)
		c.Exit(1)
		return
	}
	close(s.ready)
	logf(s.h, "thinkos: %d threads up", len(s.k.Snapshot().Threads))

	for {
		c.Sleep(10 * time.Second)
		if d := s.rec.Dropped(); d > 0 {
			logf(s.h, "trace: %d samples dropped", d)
		}
	}
}

func (s *System) boot(c *kernel.Context) error {
	objs := map[string]kernel.ObjID{}

	bootScreen(s.h, "objects")
	kick, err := c.FlagAlloc(kernel.FlagTake)
	if err != nil {
		return fmt.Errorf("kick flag: %w", err)
	}
	objs["kick"] = kick

	if !s.cfg.NoDemo {
		s.d = newDemo(s.h)
		if err := s.d.alloc(c, objs); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.objects = objs
	s.mu.Unlock()

	bootScreen(s.h, "services")
	s.mon = monitor.New(s.h.Display(), s.h.Logger(), monitor.Config{Kick: kick})
	s.con, err = console.New(s.h.Serial(), console.Config{
		IRQ:     hal.IRQSerial,
		Lines:   s.h.IRQ(),
		Trace:   s.rec,
		Kick:    kick,
		Objects: objs,
	})
	if err != nil {
		return err
	}
	services := []kernel.ThreadInit{
		{Tag: "trace", Entry: s.rec.Run, Detached: true},
		{Tag: "monitor", Entry: s.mon.Run, Detached: true},
		{Tag: "console", Entry: s.con.Run, Detached: true},
	}
	for _, init := range services {
		if _, err := c.ThreadCreate(init); err != nil {
			return fmt.Errorf("%s: %w (%v)", init.Tag, err, c.Errno())
		}
	}

	if s.d != nil {
		bootScreen(s.h, "demo")
		if err := s.d.start(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *System) fail(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
	logf(s.h, "thinkos: %v", err)
}

// Kernel returns the kernel, nil if it failed to start.
func (s *System) Kernel() *kernel.Kernel { return s.k }

// Objects returns the named kernel objects once boot finished.
func (s *System) Objects() map[string]kernel.ObjID {
	<-s.ready
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]kernel.ObjID, len(s.objects))
	for name, id := range s.objects {
		out[name] = id
	}
	return out
}

// Step reports the system health to the host loop.
func (s *System) Step() error {
	s.mu.Lock()
	err := s.err
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if s.cfg.HaltOnPanic && s.k != nil && s.k.InPanicMode() {
		return ErrKernelPanic
	}
	return nil
}

// Close writes the scheduler timeline if one was requested.
func (s *System) Close() error {
	if s.cfg.TracePath == "" || s.rec == nil {
		return nil
	}
	s.rec.Collect()
	if err := s.rec.WritePNG(s.cfg.TracePath); err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	logf(s.h, "trace: wrote %s", s.cfg.TracePath)
	return nil
}

func logf(h hal.HAL, format string, args ...any) {
	if h == nil {
		return
	}
	if l := h.Logger(); l != nil {
		l.WriteLineString(fmt.Sprintf(format, args...))
	}
}
