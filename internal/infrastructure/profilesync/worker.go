package profilesync

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Repairer rewrites drifted profile shadows from their sources.
type Repairer interface {
	RepairProfiles(ctx context.Context) (int, error)
}

// Worker periodically repairs profile shadows whose best-effort balance
// sync failed after a committed operation.
type Worker struct {
	repairer Repairer
	logger   zerolog.Logger
	interval time.Duration
}

// Config for Worker.
type Config struct {
	Repairer Repairer
	Logger   zerolog.Logger
	Interval time.Duration // Polling interval
}

// NewWorker creates a new Worker.
func NewWorker(cfg Config) *Worker {
	if cfg.Interval == 0 {
		cfg.Interval = time.Minute
	}

	return &Worker{
		repairer: cfg.Repairer,
		logger:   cfg.Logger,
		interval: cfg.Interval,
	}
}

// Start runs the repair loop until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("profile sync worker started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Process immediately on start
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("profile sync worker shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	repaired, err := w.repairer.RepairProfiles(w.logger.WithContext(ctx))
	if err != nil {
		w.logger.Error().Err(err).Int("repaired", repaired).Msg("profile repair failed")
		return
	}

	if repaired > 0 {
		w.logger.Info().Int("repaired", repaired).Msg("profiles repaired")
	}
}
