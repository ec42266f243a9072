package app

import (
	"image/color"
	"strings"
	"unicode/utf8"

	"thinkos/hal"

	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/proggy"
)

const (
	fontHeight = 10
	fontOffset = 7
)

// screen writes text straight into the framebuffer, for the moments the
// monitor thread cannot run.
type screen struct {
	fb    hal.Framebuffer
	font  tinyfont.Fonter
	fontW int16
}

func newScreen(h hal.HAL) *screen {
	if h == nil || h.Display() == nil {
		return nil
	}
	fb := h.Display().Framebuffer()
	if fb == nil || fb.Format() != hal.PixelFormatRGB565 {
		return nil
	}
	font := &proggy.TinySZ8pt7b
	_, w := tinyfont.LineWidth(font, "0")
	if w == 0 {
		return nil
	}
	return &screen{fb: fb, font: font, fontW: int16(w)}
}

func (s *screen) clear(r, g, b uint8) { s.fb.ClearRGB(r, g, b) }

func (s *screen) present() { _ = s.fb.Present() }

// lines draws text top down, wrapping at the right edge, until the screen
// is full.
func (s *screen) lines(lines []string, fg color.RGBA) {
	cols := int16(s.fb.Width()) / s.fontW
	if cols <= 0 {
		cols = 1
	}
	maxH := int16(s.fb.Height())
	y := int16(0)
	for _, line := range lines {
		for {
			if y+fontHeight > maxH {
				return
			}
			chunk, rest := takeRunes(line, cols)
			s.text(0, y, chunk, fg)
			y += fontHeight
			line = strings.TrimLeft(rest, " ")
			if line == "" {
				break
			}
		}
	}
}

func (s *screen) text(x, y int16, str string, fg color.RGBA) {
	for _, r := range str {
		tinyfont.DrawChar(s, s.font, x, y+fontOffset, r, fg)
		x += s.fontW
	}
}

func (s *screen) Size() (x, y int16) {
	return int16(s.fb.Width()), int16(s.fb.Height())
}

func (s *screen) SetPixel(x, y int16, c color.RGBA) {
	buf := s.fb.Buffer()
	ix, iy := int(x), int(y)
	if buf == nil || ix < 0 || ix >= s.fb.Width() || iy < 0 || iy >= s.fb.Height() {
		return
	}
	off := iy*s.fb.StrideBytes() + ix*2
	if off+1 >= len(buf) {
		return
	}
	px := uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
	buf[off] = byte(px)
	buf[off+1] = byte(px >> 8)
}

func (s *screen) Display() error { return nil }

func takeRunes(s string, n int16) (prefix, rest string) {
	if n <= 0 || s == "" {
		return "", s
	}
	i := 0
	for count := int16(0); i < len(s) && count < n; count++ {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}

// bootScreen shows the current boot stage.
func bootScreen(h hal.HAL, stage string) {
	logf(h, "boot: %s", stage)
	sc := newScreen(h)
	if sc == nil {
		return
	}
	sc.clear(0, 0, 0)
	sc.lines([]string{"ThinkOS boot", stage}, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	sc.present()
}
