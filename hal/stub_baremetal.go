//go:build tinygo && baremetal

package hal

// noPanel is the framebuffer of a board without a display. It has no
// pixels, so screen writers give up instead of drawing into nothing.
type noPanel struct{}

func (noPanel) Width() int             { return 0 }
func (noPanel) Height() int            { return 0 }
func (noPanel) Format() PixelFormat    { return PixelFormatRGB565 }
func (noPanel) StrideBytes() int       { return 0 }
func (noPanel) Buffer() []byte         { return nil }
func (noPanel) ClearRGB(r, g, b uint8) {}
func (noPanel) Present() error         { return ErrNotImplemented }
