package hal

import "errors"

// Logger writes newline-delimited log lines.
type Logger interface {
	WriteLineString(s string)
	WriteLineBytes(b []byte)
}

// LED is a minimal output pin abstraction.
type LED interface {
	High()
	Low()
}

var ErrNotImplemented = errors.New("not implemented")

// ErrNoWindow is returned by RunWindow when the build has no window support.
var ErrNoWindow = errors.New("no window support")

// PixelFormat defines the framebuffer pixel encoding.
type PixelFormat uint8

const (
	// PixelFormatRGB565 is 16bpp: rrrrrggggggbbbbb.
	PixelFormatRGB565 PixelFormat = iota + 1
)

// Framebuffer is a simple pixel buffer plus a "present" hook.
type Framebuffer interface {
	Width() int
	Height() int
	Format() PixelFormat
	StrideBytes() int
	Buffer() []byte
	ClearRGB(r, g, b uint8)
	Present() error
}

// Display provides access to the framebuffer (if available).
type Display interface {
	Framebuffer() Framebuffer
}

// Time provides the system tick stream, one tick per millisecond.
type Time interface {
	Ticks() <-chan uint64
	// Cycles is a free running cycle counter.
	Cycles() uint32
}

// Serial is a byte stream. Input arrives line by line on the line IRQ.
type Serial interface {
	Write(p []byte) (int, error)
	// ReadLine returns the next buffered input line.
	ReadLine() (string, bool)
}

// IRQ lines wired by the HAL.
const (
	IRQSerial = 0
	// IRQKey1 .. IRQKey1+8 follow keys 1..9 on the host window.
	IRQKey1 = 1
	// IRQSignal0 is the first periodic signal source.
	IRQSignal0 = 10
)

// IRQ is the interrupt controller. Lines latch pending while disabled and
// are delivered to the attached handler once enabled.
type IRQ interface {
	Lines() int
	Enable(irq int)
	Disable(irq int)
	ClearPending(irq int)
	SetPriority(irq int, pri int)
	// Raise marks irq pending, delivering it if enabled.
	Raise(irq int)
	// Attach installs the handler run for every delivered interrupt.
	Attach(fn func(irq int))
}

// HAL provides the only contact point between the OS and the outside world.
type HAL interface {
	Logger() Logger
	LED() LED
	Display() Display
	Time() Time
	Serial() Serial
	IRQ() IRQ
}
