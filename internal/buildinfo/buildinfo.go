// Package buildinfo carries the version stamp set with
//
//	-ldflags "-X thinkos/internal/buildinfo.Version=v0.3.0 -X ...Commit=abc123"
package buildinfo

import "fmt"

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Short returns a compact build identifier for the window title.
func Short() string {
	switch {
	case Version != "" && Version != "dev":
		return Version
	case Commit != "" && Commit != "unknown":
		return Commit
	}
	return "dev"
}

// String is the full stamp printed by the console.
func String() string {
	return fmt.Sprintf("thinkos %s (commit %s, built %s)", Version, Commit, Date)
}
