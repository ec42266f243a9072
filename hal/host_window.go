//go:build !tinygo && cgo

package hal

import (
	"context"
	"image"
	"os"

	"thinkos/internal/buildinfo"

	"github.com/hajimehoshi/ebiten/v2"
)

// RunWindow starts a desktop window that displays the framebuffer and turns
// keyboard input into serial lines and interrupts. It blocks until the
// window closes.
func RunWindow(newApp func(HAL) func() error) error {
	h := New().(*hostHAL)
	step := newApp(h)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.irq.run(ctx)
	go h.serial.pump(os.Stdin)

	g := &hostGame{h: h, step: step}
	ebiten.SetWindowTitle("ThinkOS (" + buildinfo.Short() + ")")
	ebiten.SetWindowSize(h.fb.width*2, h.fb.height*2)
	ebiten.SetTPS(60)
	return ebiten.RunGame(g)
}

type hostGame struct {
	h       *hostHAL
	img     *image.RGBA
	fbImg   *ebiten.Image
	scratch []byte
	seq     uint32
	step    func() error
}

func (g *hostGame) Update() error {
	g.h.kbd.poll()
	g.h.tick()
	if g.step != nil {
		if err := g.step(); err != nil {
			return err
		}
	}
	return nil
}

func (g *hostGame) Draw(screen *ebiten.Image) {
	fb := g.h.fb
	if g.img == nil {
		g.img = image.NewRGBA(image.Rect(0, 0, fb.width, fb.height))
		g.scratch = make([]byte, len(fb.buf))
		g.fbImg = ebiten.NewImage(fb.width, fb.height)
		g.seq = fb.presented.Load() - 1
	}

	var changed bool
	if g.seq, changed = fb.snapshot(g.scratch, g.seq); changed {
		toRGBA(g.img.Pix, g.scratch)
		g.fbImg.WritePixels(g.img.Pix)
	}
	screen.DrawImage(g.fbImg, nil)
}

func (g *hostGame) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.h.fb.width, g.h.fb.height
}
