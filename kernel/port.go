package kernel

import "sync"

// Port switches the processor between thread contexts. It is the only
// architecture-specific part of the kernel.
//
// The stack guard checked on every switch only means something for a port
// that runs threads on the stack given to ThreadCreate. GoPort does not, so
// there a guard word changes only if something writes the slice directly.
type Port interface {
	// NewFrame creates the context of thread th. body runs the first time
	// the frame is resumed. A nil body adopts the calling context.
	NewFrame(th int, body func()) Frame
}

// Frame is the saved context of one thread.
type Frame interface {
	// Resume hands the processor to the frame.
	Resume()
	// Park saves the caller, which owns the frame, and waits until the frame
	// is resumed. It returns false once the frame has been discarded.
	Park() bool
	// Discard destroys the frame.
	Discard()
}

// GoPort runs every thread on its own goroutine. Only the goroutine of the
// active thread holds the baton; the others wait in Park.
type GoPort struct{}

type goFrame struct {
	run  chan struct{}
	done chan struct{}
	once sync.Once
}

func (GoPort) NewFrame(th int, body func()) Frame {
	f := &goFrame{
		run:  make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	if body != nil {
		go func() {
			if f.Park() {
				body()
			}
		}()
	}
	return f
}

func (f *goFrame) Resume() {
	select {
	case f.run <- struct{}{}:
	default:
	}
}

func (f *goFrame) Park() bool {
	select {
	case <-f.run:
		select {
		case <-f.done:
			return false
		default:
			return true
		}
	case <-f.done:
		return false
	}
}

func (f *goFrame) Discard() {
	f.once.Do(func() { close(f.done) })
}
