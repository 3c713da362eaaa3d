// MetricsTicker: periodically folds source samples into the live metrics and publishes them.

package metrics

import (
	"Studio/internal/entity"
	"Studio/pkg/log"
	"context"
	"sync"
	"time"
)

// Sink takes a combined delta, applies it under the single writer and publishes metrics:update.
type Sink interface {
	IngestMetrics(mutate func(*entity.Metrics)) entity.Metrics
}

type Ticker struct {
	sink    Sink
	sources []Source
	// nil when the snapshot isn't mirrored
	repo   Repository
	logger log.Logger
}

func NewTicker(sink Sink, repo Repository, logger log.Logger, sources ...Source) *Ticker {
	return &Ticker{sink: sink, sources: sources, repo: repo, logger: logger}
}

// Handle cancels a running ticker.
type Handle struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// Stop halts the ticker and waits for an in-flight tick to finish. Safe to call more than once.
func (h *Handle) Stop() {
	h.once.Do(func() { close(h.stop) })
	<-h.done
}

// Shutdown adapts Stop to the clean up operation signature.
func (h *Handle) Shutdown(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		h.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done is closed once the ticker goroutine has returned.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Start ticks every interval until the returned Handle is stopped or ctx is cancelled.
func (t *Ticker) Start(ctx context.Context, interval time.Duration) *Handle {
	h := &Handle{stop: make(chan struct{}), done: make(chan struct{})}
	ticker := time.NewTicker(interval)
	t.logger.WithCtx(ctx).Info().Dur("interval", interval).Int("sources", len(t.sources)).Msg("Launching metrics ticker")

	go func() {
		defer close(h.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				t.Tick(ctx)
			case <-h.stop:
				t.logger.WithCtx(ctx).Info().Msg("Successfully stopped metrics ticker")
				return
			case <-ctx.Done():
				t.logger.WithCtx(ctx).Info().Msg("Metrics ticker context cancelled")
				return
			}
		}
	}()
	return h
}

// Tick samples every source once and hands the combined delta to the sink.
// A failing source is skipped for this tick.
func (t *Ticker) Tick(ctx context.Context) entity.Metrics {
	deltas := make([]Delta, 0, len(t.sources))
	for _, src := range t.sources {
		delta, err := src.Sample(ctx)
		if err != nil {
			t.logger.WithCtx(ctx).Warn().Err(err).Str("source", src.Name()).Msg("Metrics source sample failed")
			continue
		}
		if delta != nil {
			deltas = append(deltas, delta)
		}
	}

	metrics := t.sink.IngestMetrics(func(m *entity.Metrics) {
		for _, delta := range deltas {
			delta(m)
		}
	})

	if t.repo != nil {
		if err := t.repo.SaveMetrics(ctx, t.logger, metrics); err != nil {
			t.logger.WithCtx(ctx).Debug().Err(err).Msg("Metrics snapshot not mirrored")
		}
	}
	return metrics
}
