package worker

import (
	"context"
	"log/slog"
	"time"

	"basegraph.app/suggestbox/common/logger"
	"basegraph.app/suggestbox/internal/service"
)

// Sweeper periodically deletes merge sources that outlived their merge.
type Sweeper struct {
	merges   service.MergeService
	interval time.Duration

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

const defaultSweepInterval = 10 * time.Minute

func NewSweeper(merges service.MergeService, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		merges:    merges,
		interval:  interval,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run sweeps once at start and then on every tick until stopped.
func (s *Sweeper) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "suggestbox.worker.sweeper",
	})

	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "merge sweeper started", "interval", s.interval)

	s.sweepOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			slog.InfoContext(ctx, "merge sweeper stopping")
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	span := logger.StartSpan(ctx, "worker.merge_sweep")
	ctx = span.Context()

	start := time.Now()
	result, err := s.merges.Sweep(ctx)
	span.End(err)
	if err != nil {
		slog.ErrorContext(ctx, "merge sweep failed", "error", err)
		return
	}

	if len(result.Deleted) > 0 {
		slog.WarnContext(ctx, "merge sweep removed orphaned sources",
			"scanned", result.Scanned,
			"deleted", result.Deleted,
			"duration_ms", time.Since(start).Milliseconds())
		return
	}
	slog.DebugContext(ctx, "merge sweep clean",
		"scanned", result.Scanned,
		"duration_ms", time.Since(start).Milliseconds())
}
