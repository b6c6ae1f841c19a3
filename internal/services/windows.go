package services

import (
	"math"
	"time"

	"github.com/desertthunder/kopisync/internal/shared"
)

// Window is an inclusive range of calendar days.
type Window struct {
	Start time.Time
	End   time.Time
}

// Days returns the number of calendar days covered by the window.
func (w Window) Days() int {
	return int(math.Round(w.End.Sub(w.Start).Hours()/24)) + 1
}

// SplitWindows cuts [from, to] into contiguous windows of at most maxDays days.
//
// Times are truncated to midnight. An inverted range yields no windows.
func SplitWindows(from, to time.Time, maxDays int) []Window {
	if maxDays <= 0 {
		maxDays = MaxWindowDays
	}

	from, to = shared.Today(from), shared.Today(to)
	if to.Before(from) {
		return nil
	}

	var windows []Window
	for start := from; !start.After(to); {
		end := start.AddDate(0, 0, maxDays-1)
		if end.After(to) {
			end = to
		}
		windows = append(windows, Window{Start: start, End: end})
		start = end.AddDate(0, 0, 1)
	}

	return windows
}
