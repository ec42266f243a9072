package monitor

import (
	"image/color"

	"thinkos/hal"

	"tinygo.org/x/drivers"
)

// fbDisplay adapts an RGB565 framebuffer to the drivers display interface
// tinyterm draws on.
type fbDisplay struct {
	fb   hal.Framebuffer
	w, h int
}

var _ drivers.Displayer = (*fbDisplay)(nil)

func newFBDisplay(fb hal.Framebuffer) *fbDisplay {
	d := &fbDisplay{fb: fb}
	if fb != nil && fb.Format() == hal.PixelFormatRGB565 && fb.Buffer() != nil {
		d.w, d.h = fb.Width(), fb.Height()
	}
	return d
}

func (d *fbDisplay) Size() (x, y int16) { return int16(d.w), int16(d.h) }

func (d *fbDisplay) put(x, y int, lo, hi byte) {
	if x < 0 || x >= d.w || y < 0 || y >= d.h {
		return
	}
	buf := d.fb.Buffer()
	off := y*d.fb.StrideBytes() + x*2
	if off+1 >= len(buf) {
		return
	}
	buf[off] = lo
	buf[off+1] = hi
}

func (d *fbDisplay) SetPixel(x, y int16, c color.RGBA) {
	p := rgb565(c)
	d.put(int(x), int(y), byte(p), byte(p>>8))
}

func (d *fbDisplay) Display() error {
	if d.w == 0 {
		return nil
	}
	return d.fb.Present()
}

func (d *fbDisplay) FillRectangle(x, y, width, height int16, c color.RGBA) error {
	p := rgb565(c)
	x1, y1 := int(x)+int(width), int(y)+int(height)
	for py := max(int(y), 0); py < min(y1, d.h); py++ {
		for px := max(int(x), 0); px < min(x1, d.w); px++ {
			d.put(px, py, byte(p), byte(p>>8))
		}
	}
	return nil
}

// SetScroll is a no-op: the monitor repaints whole frames.
func (d *fbDisplay) SetScroll(line int16) {}

func (d *fbDisplay) SetRotation(rotation drivers.Rotation) error {
	if rotation != drivers.Rotation0 {
		return hal.ErrNotImplemented
	}
	return nil
}

func rgb565(c color.RGBA) uint16 {
	return uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
}
