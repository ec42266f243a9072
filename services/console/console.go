// Package console is a line oriented command interpreter for poking at a
// running kernel: listing threads, pausing and resuming them and signaling
// objects by hand. It sleeps on the serial line interrupt between lines.
package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"thinkos/hal"
	"thinkos/kernel"
	"thinkos/services/trace"

	"github.com/google/shlex"
)

type Config struct {
	// IRQ is the serial line interrupt.
	IRQ int
	// Lines is raised by the irq command. Nil disables it.
	Lines hal.IRQ
	// Trace backs the trace command. Nil disables it.
	Trace *trace.Recorder
	// Kick is given after state changing commands so the monitor redraws.
	Kick kernel.ObjID
	// Objects names kernel objects for the commands that take one.
	Objects map[string]kernel.ObjID
	// Poll bounds the wait for a line interrupt.
	Poll time.Duration
}

type Service struct {
	serial hal.Serial
	cfg    Config
	reg    *registry
}

var ErrUsage = errors.New("usage")

func New(serial hal.Serial, cfg Config) (*Service, error) {
	if cfg.Poll <= 0 {
		cfg.Poll = 250 * time.Millisecond
	}
	s := &Service{serial: serial, cfg: cfg, reg: newRegistry()}
	if err := registerCommands(s.reg); err != nil {
		return nil, err
	}
	return s, nil
}

// Run is the console thread body.
func (s *Service) Run(c *kernel.Context, _ any) int {
	s.printf("console ready, type help\n")
	for {
		for {
			line, ok := s.serial.ReadLine()
			if !ok {
				break
			}
			if err := s.Exec(c, line); err != nil {
				s.printf("%v\n", err)
			}
		}
		// Lines queued between the drain and the wait are picked up on the
		// next poll; the wait clears the line first.
		_, err := c.IRQTimedWait(s.cfg.IRQ, s.cfg.Poll)
		if err != nil && err != kernel.ETIMEDOUT {
			s.printf("console: irq %d: %v\n", s.cfg.IRQ, err)
			c.Sleep(s.cfg.Poll)
		}
	}
}

// Exec runs one command line.
func (s *Service) Exec(c *kernel.Context, line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if len(args) == 0 {
		return nil
	}
	cmd, ok := s.reg.resolve(args[0])
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	if len(args)-1 < cmd.Args {
		return fmt.Errorf("%w: %s", ErrUsage, cmd.Usage)
	}
	return cmd.Run(c, s, args[1:])
}

func (s *Service) printf(format string, args ...any) {
	if s.serial == nil {
		return
	}
	s.serial.Write([]byte(fmt.Sprintf(format, args...)))
}

func (s *Service) kick(c *kernel.Context) {
	if s.cfg.Kick != 0 {
		c.Give(s.cfg.Kick)
	}
}

// object resolves a name from Objects, a kind/index pair such as "sem/1"
// or a flat object id.
func (s *Service) object(c *kernel.Context, arg string, want kernel.Kind) (kernel.ObjID, error) {
	k := c.Kernel()
	id, ok := s.cfg.Objects[arg]
	if !ok {
		if kind, idx, found := strings.Cut(arg, "/"); found {
			i, err := strconv.Atoi(idx)
			if err != nil {
				return 0, fmt.Errorf("bad object index %q", idx)
			}
			id = k.Obj(parseKind(kind), i)
		} else {
			n, err := strconv.Atoi(arg)
			if err != nil {
				return 0, fmt.Errorf("unknown object %q", arg)
			}
			id = kernel.ObjID(n)
		}
	}
	if got := k.ObjKind(id); got != want {
		return 0, fmt.Errorf("%s is a %v, want %v", arg, got, want)
	}
	return id, nil
}

func parseKind(name string) kernel.Kind {
	for k := kernel.Kind(0); k.String() != "invalid"; k++ {
		if k.String() == name {
			return k
		}
	}
	return kernel.KindInvalid
}

func intArg(arg string, what string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("bad %s %q", what, arg)
	}
	return n, nil
}
