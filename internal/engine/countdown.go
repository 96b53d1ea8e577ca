package engine

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// TickInterval is the countdown resolution.
const TickInterval = time.Second

// Countdown ticks once per second until the limit measured from startedAt is
// used up, then calls onExpire once. Remaining time is always derived from the
// clock, so a delayed tick never stretches the limit.
type Countdown struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// StartCountdown launches the ticker goroutine. Callbacks run on that goroutine.
func StartCountdown(clock clockwork.Clock, startedAt time.Time, limit time.Duration, onTick func(remaining time.Duration), onExpire func()) *Countdown {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Countdown{cancel: cancel, done: make(chan struct{})}

	ticker := clock.NewTicker(TickInterval)
	go func() {
		defer close(c.done)
		defer ticker.Stop()

		if limit-clock.Since(startedAt) <= 0 {
			onExpire()
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if ctx.Err() != nil {
					return
				}
				remaining := limit - clock.Since(startedAt)
				if remaining <= 0 {
					onExpire()
					return
				}
				onTick(remaining)
			}
		}
	}()
	return c
}

// Stop cancels further ticks. It does not wait for a callback already running;
// owners guard their callbacks against stale sessions instead.
func (c *Countdown) Stop() {
	c.cancel()
}

// Done is closed once the ticker goroutine has exited.
func (c *Countdown) Done() <-chan struct{} {
	return c.done
}
