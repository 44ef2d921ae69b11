package realtime

import (
	"context"
	"sync"

	"github.com/wolfman30/agenda/internal/observability/metrics"
	"github.com/wolfman30/agenda/pkg/logging"
)

// Refresher turns change events into refetches.
type Refresher struct {
	refetch func(context.Context) error
	metrics *metrics.ClientMetrics
	logger  *logging.Logger
}

func NewRefresher(refetch func(context.Context) error, m *metrics.ClientMetrics, logger *logging.Logger) *Refresher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Refresher{refetch: refetch, metrics: m, logger: logger}
}

// Run starts an independent refetch for every event until events closes or
// ctx ends, then waits for in-flight refetches. Refetches are not serialised:
// whichever response lands last wins.
func (r *Refresher) Run(ctx context.Context, events <-chan Event) {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.metrics.ObserveEvent(ev.Table, ev.Type)
			r.logger.Debug("change received", "table", ev.Table, "type", ev.Type)

			wg.Add(1)
			go func() {
				defer wg.Done()
				err := r.refetch(ctx)
				r.metrics.ObserveRefetch(err)
				if err != nil {
					r.logger.Warn("refetch after change failed", "error", err)
				}
			}()
		}
	}
}
