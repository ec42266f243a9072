package console

import (
	"errors"
	"fmt"
	"sort"

	"thinkos/internal/buildinfo"
	"thinkos/kernel"
	"thinkos/services/monitor"
)

func registerCommands(r *registry) error {
	return r.register(
		command{Name: "help", Usage: "help [command]", Desc: "Show available commands.", Run: cmdHelp},
		command{Name: "ps", Usage: "ps", Desc: "List threads.", Run: cmdPs},
		command{Name: "pause", Usage: "pause <thread>", Desc: "Pause a thread.", Args: 1, Run: cmdPause},
		command{Name: "resume", Usage: "resume <thread>", Desc: "Resume a paused thread.", Args: 1, Run: cmdResume},
		command{Name: "kill", Usage: "kill <thread> [code]", Desc: "Cancel a thread.", Args: 1, Run: cmdKill},
		command{Name: "irq", Usage: "irq <line>", Desc: "Raise an interrupt line.", Args: 1, Run: cmdIRQ},
		command{Name: "post", Usage: "post <sem>", Desc: "Post a semaphore.", Args: 1, Run: cmdPost},
		command{Name: "give", Usage: "give <flag>", Desc: "Give a flag.", Args: 1, Run: cmdGive},
		command{Name: "raise", Usage: "raise <evset> <event>", Desc: "Raise an event.", Args: 2, Run: cmdRaise},
		command{Name: "open", Usage: "open <gate>", Desc: "Open a gate.", Args: 1, Run: cmdOpen},
		command{Name: "objs", Usage: "objs", Desc: "List named objects.", Run: cmdObjs},
		command{Name: "ticks", Aliases: []string{"uptime"}, Usage: "ticks", Desc: "Show the tick counter and clock.", Run: cmdTicks},
		command{Name: "trace", Usage: "trace <file.png>", Desc: "Write the scheduler timeline.", Args: 1, Run: cmdTrace},
		command{Name: "version", Usage: "version", Desc: "Show build version.", Run: cmdVersion},
	)
}

func cmdHelp(c *kernel.Context, s *Service, args []string) error {
	if len(args) == 0 {
		for _, name := range s.reg.names() {
			cmd, _ := s.reg.resolve(name)
			s.printf("%-8s %s\n", cmd.Name, cmd.Desc)
		}
		return nil
	}
	cmd, ok := s.reg.resolve(args[0])
	if !ok {
		return fmt.Errorf("unknown command: %s", args[0])
	}
	s.printf("usage: %s\n%s\n", cmd.Usage, cmd.Desc)
	return nil
}

func cmdPs(c *kernel.Context, s *Service, _ []string) error {
	k := c.Kernel()
	for _, line := range monitor.Lines(k.Snapshot(), k.Layout()) {
		s.printf("%s\n", line)
	}
	return nil
}

// sysErr adds the latched error code to a rejected call.
func sysErr(c *kernel.Context, what string, err error) error {
	if err == nil {
		return nil
	}
	if code := c.Errno(); code != kernel.ErrNone {
		return fmt.Errorf("%s: %w (%v)", what, err, code)
	}
	return fmt.Errorf("%s: %w", what, err)
}

func threadArg(c *kernel.Context, arg string) (int, error) {
	th, err := intArg(arg, "thread")
	if err != nil {
		return 0, err
	}
	if th == c.ID() {
		return 0, errors.New("refusing to act on the console thread")
	}
	return th, nil
}

func cmdPause(c *kernel.Context, s *Service, args []string) error {
	th, err := threadArg(c, args[0])
	if err != nil {
		return err
	}
	defer s.kick(c)
	return sysErr(c, "pause", c.Pause(th))
}

func cmdResume(c *kernel.Context, s *Service, args []string) error {
	th, err := threadArg(c, args[0])
	if err != nil {
		return err
	}
	defer s.kick(c)
	return sysErr(c, "resume", c.Resume(th))
}

func cmdKill(c *kernel.Context, s *Service, args []string) error {
	th, err := threadArg(c, args[0])
	if err != nil {
		return err
	}
	code := 0
	if len(args) > 1 {
		if code, err = intArg(args[1], "exit code"); err != nil {
			return err
		}
	}
	defer s.kick(c)
	return sysErr(c, "kill", c.Cancel(th, code))
}

func cmdIRQ(c *kernel.Context, s *Service, args []string) error {
	if s.cfg.Lines == nil {
		return errors.New("irq: no interrupt controller")
	}
	irq, err := intArg(args[0], "irq")
	if err != nil {
		return err
	}
	if irq < 0 || irq >= s.cfg.Lines.Lines() {
		return fmt.Errorf("irq: line %d out of range", irq)
	}
	s.cfg.Lines.Raise(irq)
	return nil
}

func cmdPost(c *kernel.Context, s *Service, args []string) error {
	id, err := s.object(c, args[0], kernel.KindSemaphore)
	if err != nil {
		return err
	}
	return sysErr(c, "post", c.SemPost(id))
}

func cmdGive(c *kernel.Context, s *Service, args []string) error {
	id, err := s.object(c, args[0], kernel.KindFlag)
	if err != nil {
		return err
	}
	return sysErr(c, "give", c.Give(id))
}

func cmdRaise(c *kernel.Context, s *Service, args []string) error {
	id, err := s.object(c, args[0], kernel.KindEvent)
	if err != nil {
		return err
	}
	ev, err := intArg(args[1], "event")
	if err != nil {
		return err
	}
	return sysErr(c, "raise", c.EventRaise(id, ev))
}

func cmdOpen(c *kernel.Context, s *Service, args []string) error {
	id, err := s.object(c, args[0], kernel.KindGate)
	if err != nil {
		return err
	}
	return sysErr(c, "open", c.GateOpen(id))
}

func cmdObjs(c *kernel.Context, s *Service, _ []string) error {
	names := make([]string, 0, len(s.cfg.Objects))
	for name := range s.cfg.Objects {
		names = append(names, name)
	}
	sort.Strings(names)
	lay := c.Kernel().Layout()
	for _, name := range names {
		id := s.cfg.Objects[name]
		s.printf("%-10s %3d %v\n", name, id, lay.Split(id))
	}
	return nil
}

func cmdTicks(c *kernel.Context, s *Service, _ []string) error {
	rt := c.Kernel().ClockRealtime()
	s.printf("%d ticks, clock %d.%03d s\n", c.Clock(), rt>>32, (rt&0xffffffff)*1000>>32)
	return nil
}

func cmdTrace(c *kernel.Context, s *Service, args []string) error {
	if s.cfg.Trace == nil {
		return errors.New("trace: not recording")
	}
	s.cfg.Trace.Collect()
	if err := s.cfg.Trace.WritePNG(args[0]); err != nil {
		return err
	}
	counts := s.cfg.Trace.Counts()
	ths := make([]int, 0, len(counts))
	for th := range counts {
		ths = append(ths, th)
	}
	sort.Ints(ths)
	for _, th := range ths {
		s.printf("T%-3d %d\n", th, counts[th])
	}
	s.printf("wrote %s\n", args[0])
	return nil
}

func cmdVersion(c *kernel.Context, s *Service, _ []string) error {
	s.printf("%s\n", buildinfo.String())
	return nil
}
