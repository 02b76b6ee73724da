package readyset

import (
	"fmt"
	"math"
	"time"
)

const nanosPerSecond = 1_000_000_000

// Timespec is a point on a monotonic timeline. Nsec is always in [0, 1e9).
type Timespec struct {
	Sec  int64
	Nsec int64
}

func TimespecFromDuration(d time.Duration) Timespec {
	return Timespec{Sec: int64(d / time.Second), Nsec: int64(d % time.Second)}
}

// Add returns t advanced by nanos, carrying the sub-second overflow into Sec.
func (t Timespec) Add(nanos uint64) Timespec {
	sec := t.Sec + int64(nanos/nanosPerSecond)
	nsec := t.Nsec + int64(nanos%nanosPerSecond)
	if nsec >= nanosPerSecond {
		sec++
		nsec -= nanosPerSecond
	}
	return Timespec{Sec: sec, Nsec: nsec}
}

func (t Timespec) Before(u Timespec) bool {
	if t.Sec != u.Sec {
		return t.Sec < u.Sec
	}
	return t.Nsec < u.Nsec
}

// Sub returns t-u, saturating at the bounds of time.Duration.
func (t Timespec) Sub(u Timespec) time.Duration {
	const (
		maxSec  = math.MaxInt64 / nanosPerSecond
		maxNsec = math.MaxInt64 % nanosPerSecond
		minSec  = -maxSec - 1
		minNsec = nanosPerSecond - maxNsec - 1
	)
	sec := t.Sec - u.Sec
	nsec := t.Nsec - u.Nsec
	if nsec < 0 {
		sec--
		nsec += nanosPerSecond
	}
	switch {
	case sec > maxSec, sec == maxSec && nsec > maxNsec:
		return math.MaxInt64
	case sec < minSec, sec == minSec && nsec < minNsec:
		return math.MinInt64
	}
	if sec < 0 && nsec > 0 {
		return time.Duration((sec+1)*nanosPerSecond + nsec - nanosPerSecond)
	}
	return time.Duration(sec*nanosPerSecond + nsec)
}

func (t Timespec) String() string {
	return fmt.Sprintf("%d.%09ds", t.Sec, t.Nsec)
}
