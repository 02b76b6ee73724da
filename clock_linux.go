//go:build linux

package readyset

import (
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

func monotonicNow() Timespec {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		log.Fatal().Msgf("clock_gettime(CLOCK_MONOTONIC): %+v", err)
	}
	return Timespec{Sec: int64(ts.Sec), Nsec: int64(ts.Nsec)}
}
