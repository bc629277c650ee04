// Package timer implements the periodic tick source: a standalone task
// that injects SYSMR/action/tick actions into the runtime loop's inbound
// channel at a fixed best-effort interval.
package timer

import (
	"context"
	"time"

	"github.com/myrulesiot/myrulesiot/action"
)

// Run sends a tick Action on out every interval until ctx is cancelled.
// A send that out's consumer does not accept blocks until ctx is
// cancelled; ticks that fall due meanwhile are dropped by the
// underlying time.Ticker rather than queued.
func Run(ctx context.Context, interval time.Duration, out chan<- action.Action) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			tick := action.New(action.TickTopic, []byte(now.Format(time.RFC3339)))
			select {
			case out <- tick:
			case <-ctx.Done():
				return
			}
		}
	}
}
