//go:build !tinygo && !cgo

package hal

import "fmt"

// RunWindow is unavailable without cgo; callers fall back to RunHeadless.
func RunWindow(_ func(h HAL) func() error) error {
	return fmt.Errorf("%w: built without cgo", ErrNoWindow)
}
