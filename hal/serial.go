package hal

import (
	"io"
	"strings"
	"sync"

	"thinkos/internal/ring"
)

// lineSerial assembles input bytes into lines, queues them on a ring and
// raises the serial IRQ for each one.
type lineSerial struct {
	mu  sync.Mutex
	w   io.Writer
	irq IRQ

	inMu  sync.Mutex
	buf   []byte
	lines *ring.Ring[string]
}

const maxLine = 128

func newLineSerial(w io.Writer, irq IRQ) *lineSerial {
	return &lineSerial{
		w:     w,
		irq:   irq,
		buf:   make([]byte, 0, maxLine),
		lines: ring.New[string](16),
	}
}

func (s *lineSerial) Write(p []byte) (int, error) {
	if s.w == nil {
		return 0, ErrNotImplemented
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *lineSerial) ReadLine() (string, bool) { return s.lines.TryPop() }

// feed consumes raw input. Backspace edits the pending line and Ctrl-U
// drops it.
func (s *lineSerial) feed(p []byte) {
	s.inMu.Lock()
	defer s.inMu.Unlock()
	for _, b := range p {
		switch b {
		case '\r', '\n':
			if len(s.buf) == 0 {
				continue
			}
			line := strings.TrimSpace(string(s.buf))
			s.buf = s.buf[:0]
			if line != "" && s.lines.TryPush(line) && s.irq != nil {
				s.irq.Raise(IRQSerial)
			}
		case 0x08, 0x7f:
			if len(s.buf) > 0 {
				s.buf = s.buf[:len(s.buf)-1]
			}
		case 0x15:
			s.buf = s.buf[:0]
		default:
			if len(s.buf) < maxLine {
				s.buf = append(s.buf, b)
			}
		}
	}
}

// pump copies r into the line assembler until r fails.
func (s *lineSerial) pump(r io.Reader) error {
	var b [64]byte
	for {
		n, err := r.Read(b[:])
		if n > 0 {
			s.feed(b[:n])
		}
		if err != nil {
			return err
		}
	}
}
