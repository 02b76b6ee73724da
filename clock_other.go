//go:build !linux

package readyset

import "time"

var processStart = time.Now()

func monotonicNow() Timespec {
	return TimespecFromDuration(time.Since(processStart))
}
