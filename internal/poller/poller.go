// Package poller runs the pseudo-realtime sync: a fixed-interval refresh
// of the local snapshot from the remote store. Consistency stays
// eventual, not atomic; the poller only narrows the window.
package poller

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type Poller struct {
	interval time.Duration
	refresh  func(context.Context)
	logger   *zap.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func New(interval time.Duration, refresh func(context.Context), logger *zap.Logger) *Poller {
	return &Poller{
		interval: interval,
		refresh:  refresh,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start refreshes immediately, then on every tick until Stop or parent
// context cancellation.
func (p *Poller) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	go func() {
		defer close(p.done)
		p.refresh(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				p.logger.Info("Poller stopped")
				return
			case <-ticker.C:
				p.refresh(ctx)
			}
		}
	}()
	p.logger.Info("Poller started", zap.Duration("interval", p.interval))
}

// Stop cancels the poll loop and waits for it to exit.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}
