//go:build tinygo && baremetal

package hal

import (
	"context"
	"machine"
)

const boardIRQLines = 16

type tinyGoHAL struct {
	logger *uartLogger
	led    *pinLED
	fb     Framebuffer
	t      *tinyGoTime
	irq    *irqCtl
	serial *lineSerial
}

// New returns a Pico 2 (RP2350) HAL implementation.
//
// UART: UART0 on GP0 (TX) / GP1 (RX), 115200 8N1. Received lines raise
// IRQSerial; the signal sources are sampled on the tick.
func New() HAL {
	uart := machine.UART0
	uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GP0,
		RX:       machine.GP1,
	})

	ledPin := machine.LED
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	irq := newIRQCtl(boardIRQLines)
	h := &tinyGoHAL{
		logger: &uartLogger{uart: uart},
		led:    &pinLED{pin: ledPin},
		fb:     noPanel{},
		irq:    irq,
		serial: newLineSerial(uart, irq),
	}
	h.t = newTinyGoTime(defaultSignals(), irq)

	go irq.run(context.Background())
	go h.serial.pump(&uartReader{uart: uart})
	return h
}

func (h *tinyGoHAL) Logger() Logger   { return h.logger }
func (h *tinyGoHAL) LED() LED         { return h.led }
func (h *tinyGoHAL) Display() Display { return tinyGoDisplay{fb: h.fb} }
func (h *tinyGoHAL) Time() Time       { return h.t }
func (h *tinyGoHAL) Serial() Serial   { return h.serial }
func (h *tinyGoHAL) IRQ() IRQ         { return h.irq }
