package app

import (
	"context"
	"errors"
	"time"

	"github.com/five82/addressable/internal/addressable"
	"github.com/five82/addressable/internal/logging"
	"github.com/five82/addressable/internal/metrics"
	"github.com/five82/addressable/internal/state"
	"github.com/five82/addressable/internal/views"
)

const (
	defaultPollInterval = 15 * time.Second
	maxBackoff          = 30 * time.Second
)

// calculateBackoff returns base * 2^failures, capped at maxBackoff or base,
// whichever is larger. A failure never polls sooner than a success would.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	ceiling := max(base, maxBackoff)
	if failures <= 0 {
		return base
	}
	backoff := base
	for i := 0; i < failures; i++ {
		backoff *= 2
		if backoff >= ceiling {
			return ceiling
		}
	}
	return backoff
}

// Poller refreshes the dashboard store in the background.
type Poller struct {
	Store    *state.Store
	API      addressable.API
	Metrics  *metrics.Metrics
	Logger   logging.Logger
	Interval time.Duration

	// OnUnauthorized runs when a poll is rejected with 401. The poller stops
	// afterwards; the stored credentials are no longer valid.
	OnUnauthorized func(ctx context.Context)
}

// Start launches the polling goroutine and returns immediately. The loop
// exits when ctx is canceled or the session is rejected.
func (p *Poller) Start(ctx context.Context) {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			err := p.Refresh(ctx)
			if errors.Is(err, addressable.ErrUnauthorized) {
				return
			}
			timer.Reset(calculateBackoff(p.Store.Snapshot().ConsecutiveFailures, interval))
		}
	}()
}

// Refresh runs one poll and records the outcome in the store.
func (p *Poller) Refresh(ctx context.Context) error {
	log := p.Logger
	if log == nil {
		log = logging.Nop()
	}

	d, err := views.FetchDashboard(ctx, p.API)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.Store.Update(d, err)
	snap := p.Store.Snapshot()
	p.Metrics.ObservePoll(err == nil, snap.ConsecutiveFailures, float64(snap.LastUpdated.Unix()))

	if err != nil {
		log.Warn(ctx, "dashboard poll failed", "error", err, "failures", snap.ConsecutiveFailures)
		if errors.Is(err, addressable.ErrUnauthorized) && p.OnUnauthorized != nil {
			p.OnUnauthorized(ctx)
		}
		return err
	}
	log.Debug(ctx, "dashboard refreshed", "mailings", len(d.Mailings), "leads", len(d.Leads))
	return nil
}
