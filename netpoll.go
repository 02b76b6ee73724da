package readyset

import "time"

type NetPollerConfig struct {
	EventBufferSize int
	// Timeout bounds a single Poll so Run notices cancellation.
	Timeout time.Duration
}
