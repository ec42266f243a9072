// Package trace records which thread held the processor on every tick and
// renders the timeline as a PNG.
package trace

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"thinkos/internal/ring"
	"thinkos/kernel"

	"github.com/fogleman/gg"
)

// Sample is the active thread at one tick.
type Sample struct {
	Tick   uint32
	Active int
}

// Recorder collects samples from the tick hook. OnTick only pushes to a
// ring; the recorder thread moves samples into the history window.
type Recorder struct {
	in      *ring.Ring[Sample]
	threads int

	mu   sync.Mutex
	hist []Sample
	next int
	full bool
	buf  []Sample
}

// New returns a recorder for a kernel with the given thread count that
// keeps the last window samples.
func New(threads, window int) *Recorder {
	if window <= 0 {
		window = 1000
	}
	return &Recorder{
		in:      ring.New[Sample](window),
		threads: threads,
		hist:    make([]Sample, window),
		buf:     make([]Sample, 0, window),
	}
}

// OnTick is installed as kernel.Config.OnTick.
func (r *Recorder) OnTick(ticks uint32, active int) {
	r.in.TryPush(Sample{Tick: ticks, Active: active})
}

// Dropped returns how many samples were lost because the ring was full.
func (r *Recorder) Dropped() uint32 { return r.in.Drops() }

// Collect moves queued samples into the history and returns how many.
func (r *Recorder) Collect() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = r.in.Drain(r.buf[:0])
	for _, s := range r.buf {
		r.hist[r.next] = s
		r.next++
		if r.next == len(r.hist) {
			r.next = 0
			r.full = true
		}
	}
	return len(r.buf)
}

// Samples returns the history, oldest first.
func (r *Recorder) Samples() []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.full {
		return append([]Sample(nil), r.hist[:r.next]...)
	}
	out := make([]Sample, 0, len(r.hist))
	out = append(out, r.hist[r.next:]...)
	return append(out, r.hist[:r.next]...)
}

// Counts returns the number of samples per active thread.
func (r *Recorder) Counts() map[int]int {
	m := make(map[int]int)
	for _, s := range r.Samples() {
		m[s.Active]++
	}
	return m
}

// Run is the recorder thread body.
func (r *Recorder) Run(c *kernel.Context, _ any) int {
	for {
		r.Collect()
		c.Sleep(50 * time.Millisecond)
	}
}

const (
	labelW = 44
	rowH   = 12
)

var palette = [...][3]float64{
	{0.90, 0.30, 0.25},
	{0.25, 0.60, 0.90},
	{0.35, 0.75, 0.35},
	{0.95, 0.70, 0.20},
	{0.60, 0.40, 0.80},
	{0.20, 0.75, 0.75},
}

// Render draws one row per thread plus one for idle, a column per sample.
func (r *Recorder) Render(w io.Writer) error {
	samples := r.Samples()
	if len(samples) == 0 {
		return fmt.Errorf("trace: no samples")
	}
	rows := r.threads + 1
	idle := r.threads + 1

	dc := gg.NewContext(labelW+len(samples), rows*rowH+rowH)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	for th := 1; th <= rows; th++ {
		label := fmt.Sprintf("T%d", th)
		if th == idle {
			label = "idle"
		}
		dc.DrawString(label, 2, float64(th*rowH)-2)
	}

	for x, s := range samples {
		th := s.Active
		if th < 1 || th > idle {
			continue
		}
		if th == idle {
			dc.SetRGB(0.75, 0.75, 0.75)
		} else {
			c := palette[(th-1)%len(palette)]
			dc.SetRGB(c[0], c[1], c[2])
		}
		dc.DrawRectangle(float64(labelW+x), float64((th-1)*rowH+1), 1, rowH-2)
		dc.Fill()
	}

	dc.SetRGB(0, 0, 0)
	footer := fmt.Sprintf("ticks %d..%d", samples[0].Tick, samples[len(samples)-1].Tick)
	dc.DrawString(footer, 2, float64(rows*rowH+rowH)-2)

	return dc.EncodePNG(w)
}

// WritePNG renders the timeline into the file at path.
func (r *Recorder) WritePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	if err := r.Render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
