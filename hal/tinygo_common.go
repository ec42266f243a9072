//go:build tinygo && baremetal

package hal

import (
	"machine"
	"time"
)

type tinyGoDisplay struct {
	fb Framebuffer
}

func (d tinyGoDisplay) Framebuffer() Framebuffer { return d.fb }

type tinyGoTime struct {
	ch    chan uint64
	seq   uint64
	start time.Time
}

func newTinyGoTime(signals []*signalSource, irq IRQ) *tinyGoTime {
	t := &tinyGoTime{ch: make(chan uint64, 16), start: time.Now()}
	go func() {
		ticker := time.NewTicker(1 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			t.seq++
			select {
			case t.ch <- t.seq:
			default:
			}
			for _, s := range signals {
				s.sample(irq)
			}
		}
	}()
	return t
}

func (t *tinyGoTime) Ticks() <-chan uint64 { return t.ch }

func (t *tinyGoTime) Cycles() uint32 { return uint32(time.Since(t.start).Nanoseconds()) }

type uartLogger struct {
	uart *machine.UART
}

func (l *uartLogger) WriteLineString(s string) { l.WriteLineBytes([]byte(s)) }

func (l *uartLogger) WriteLineBytes(b []byte) {
	l.uart.Write(b)
	l.uart.Write([]byte{'\r', '\n'})
}

type pinLED struct {
	pin machine.Pin
}

func (l *pinLED) High() { l.pin.High() }
func (l *pinLED) Low()  { l.pin.Low() }

// uartReader polls the UART receive buffer.
type uartReader struct {
	uart *machine.UART
}

func (r *uartReader) Read(p []byte) (int, error) {
	for r.uart.Buffered() == 0 {
		time.Sleep(5 * time.Millisecond)
	}
	return r.uart.Read(p)
}
