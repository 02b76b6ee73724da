package readyset

import (
	"context"
	"github.com/rs/zerolog/log"
)

// Yield blocks until a network device or block token is ready, or until
// deadlineNanos have elapsed. Network devices always win over block tokens
// and lower ids win within each class. Yield does not consume readiness:
// the caller clears the selected bit once it has acted on it.
func (r *Registry) Yield(deadlineNanos uint64) Selection {
	sel, _ := r.YieldContext(context.Background(), deadlineNanos)
	return sel
}

// YieldContext is Yield that also returns early with None and ctx.Err() once
// ctx is done.
func (r *Registry) YieldContext(ctx context.Context, deadlineNanos uint64) (Selection, error) {
	deadline := r.clock.Now().Add(deadlineNanos)
	r.stats.Yields.Inc()

	var timer Timer
	woken := false

	r.mu.Lock()
	defer r.mu.Unlock()
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		if sel, ok := r.scanLocked(); ok {
			r.stats.recordSelection(sel)
			if log.Debug().Enabled() {
				log.Debug().Msgf("yield selected %s", sel)
			}
			return sel, nil
		}
		if woken {
			r.stats.SpuriousWakeups.Inc()
		}
		if !r.clock.Now().Before(deadline) {
			r.stats.Timeouts.Inc()
			return None(), nil
		}
		if timer == nil {
			timer = r.clock.NewTimer(deadline)
		}
		// The waiter channel is taken before mu is released.
		wake := r.waiterLocked()
		r.mu.Unlock()

		select {
		case <-wake:
			r.mu.Lock()
			r.stats.Wakeups.Inc()
			woken = true
		case <-timer.C():
			r.mu.Lock()
			if sel, ok := r.scanLocked(); ok {
				r.stats.recordSelection(sel)
				return sel, nil
			}
			r.stats.Timeouts.Inc()
			if log.Debug().Enabled() {
				log.Debug().Msgf("yield timed out at %s", deadline)
			}
			return None(), nil
		case <-ctx.Done():
			r.mu.Lock()
			r.stats.Cancellations.Inc()
			return None(), ctx.Err()
		}
	}
}
