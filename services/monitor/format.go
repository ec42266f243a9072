package monitor

import (
	"fmt"

	"thinkos/kernel"
)

// State is the one-word scheduler state of a thread.
func State(ts kernel.ThreadState) string {
	switch {
	case ts.Faulted:
		return "FAULT"
	case ts.Paused:
		return "PAUSE"
	case ts.Active:
		return "RUN"
	case ts.Ready:
		return "READY"
	case ts.Wait != 0:
		return "WAIT"
	default:
		return "?"
	}
}

// Header is the column legend of Lines.
const Header = "TH TAG      STATE WAIT       TMO  PRI  VAL ERR"

// Lines formats one line per thread, preceded by a tick and panic status
// line and the column header.
func Lines(snap kernel.Snapshot, lay *kernel.Layout) []string {
	status := fmt.Sprintf("tick %d  active %d  threads %d", snap.Ticks, snap.Active, len(snap.Threads))
	if snap.Panic {
		status += "  PANIC"
	}
	out := []string{status, Header}
	for _, ts := range snap.Threads {
		wait := "-"
		if ts.Wait != 0 {
			wait = lay.Split(ts.Wait).String()
		}
		tmo := "-"
		if ts.Timed {
			if left := int32(ts.Deadline - snap.Ticks); left > 0 {
				tmo = fmt.Sprint(left)
			} else {
				tmo = "0"
			}
		}
		errno := ""
		if ts.Errno != kernel.ErrNone {
			errno = ts.Errno.String()
		}
		out = append(out, fmt.Sprintf("%2d %-8.8s %-5s %-10.10s %4s %3d %4d %s",
			ts.ID, ts.Tag, State(ts), wait, tmo, ts.Priority, ts.SchedVal, errno))
	}
	return out
}
