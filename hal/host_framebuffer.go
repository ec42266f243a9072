//go:build !tinygo

package hal

import (
	"sync"
	"sync/atomic"
)

// hostFramebuffer is written by kernel threads through Buffer and read by
// the window through snapshot. Present publishes a frame.
type hostFramebuffer struct {
	mu     sync.Mutex
	width  int
	height int
	buf    []byte

	presented atomic.Uint32
}

func newHostFramebuffer(width, height int) *hostFramebuffer {
	return &hostFramebuffer{width: width, height: height, buf: make([]byte, width*2*height)}
}

func (f *hostFramebuffer) Width() int          { return f.width }
func (f *hostFramebuffer) Height() int         { return f.height }
func (f *hostFramebuffer) Format() PixelFormat { return PixelFormatRGB565 }
func (f *hostFramebuffer) StrideBytes() int    { return f.width * 2 }
func (f *hostFramebuffer) Buffer() []byte      { return f.buf }

func (f *hostFramebuffer) Present() error {
	f.presented.Add(1)
	return nil
}

func (f *hostFramebuffer) ClearRGB(r, g, b uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	px := rgb565(r, g, b)
	for i := 0; i+1 < len(f.buf); i += 2 {
		f.buf[i], f.buf[i+1] = byte(px), byte(px>>8)
	}
}

// snapshot copies the last frame into dst if one was presented after seq.
// It returns the frame sequence and whether dst changed.
func (f *hostFramebuffer) snapshot(dst []byte, seq uint32) (uint32, bool) {
	cur := f.presented.Load()
	if cur == seq {
		return seq, false
	}
	f.mu.Lock()
	copy(dst, f.buf)
	f.mu.Unlock()
	return cur, true
}
