package recorder

import (
	"context"
)

// Run is the recorder event loop. It serializes bus notifications and
// capture ticks onto a single goroutine, which is what keeps the session
// state machine simple. Returns when ctx is cancelled or the tick channel
// closes; an active session is stopped cleanly on the way out.
func (r *Recorder) Run(ctx context.Context, ticks <-chan Events) {
	notifications, cancel := r.bus.Subscribe("", 64)
	defer cancel()

	r.log.Info().Msg("Recorder loop started")

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("Recorder loop stopping")
			r.Stop()
			return

		case n, ok := <-notifications:
			if !ok {
				r.Stop()
				return
			}
			r.OnNotify(n)

		case events, ok := <-ticks:
			if !ok {
				r.log.Info().Msg("Tick source closed, recorder loop stopping")
				r.Stop()
				return
			}
			r.Tick(events)
		}
	}
}
