//go:build !tinygo && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// hostKeyboard turns window input into hardware events: typed text goes to
// the serial line and F1..F9 raise IRQ lines 1..9.
type hostKeyboard struct {
	irq    IRQ
	serial *lineSerial
}

func newHostKeyboard(irq IRQ) *hostKeyboard {
	return &hostKeyboard{irq: irq}
}

var irqKeys = [...]ebiten.Key{
	ebiten.KeyF1, ebiten.KeyF2, ebiten.KeyF3,
	ebiten.KeyF4, ebiten.KeyF5, ebiten.KeyF6,
	ebiten.KeyF7, ebiten.KeyF8, ebiten.KeyF9,
}

func (k *hostKeyboard) poll() {
	for i, key := range irqKeys {
		if inpututil.IsKeyJustPressed(key) {
			k.irq.Raise(IRQKey1 + i)
		}
	}

	if k.serial == nil {
		return
	}

	ctrl := ebiten.IsKeyPressed(ebiten.KeyControlLeft) || ebiten.IsKeyPressed(ebiten.KeyControlRight)
	var in []byte
	if ctrl && inpututil.IsKeyJustPressed(ebiten.KeyU) {
		in = append(in, 0x15)
	}
	for _, r := range ebiten.AppendInputChars(nil) {
		if r < 0x80 {
			in = append(in, byte(r))
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		in = append(in, 0x08)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		in = append(in, '\n')
	}
	if len(in) > 0 {
		k.serial.feed(in)
	}
}
