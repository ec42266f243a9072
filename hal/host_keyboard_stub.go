//go:build !tinygo && !cgo

package hal

type hostKeyboard struct {
	irq    IRQ
	serial *lineSerial
}

func newHostKeyboard(irq IRQ) *hostKeyboard {
	return &hostKeyboard{irq: irq}
}

func (k *hostKeyboard) poll() {
	// No keyboard support without the window backend.
}
