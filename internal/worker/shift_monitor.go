package worker

// shift_monitor.go
// Periodically counts OPEN shifts older than the alert threshold across all
// gyms. Results feed the stale-shift gauge and a warning per gym so an
// administrator can force-close abandoned drawers.

import (
	"context"
	"time"

	"nexogym/internal/infra"
	"nexogym/internal/repository"

	"github.com/rs/zerolog/log"
)

const monitorTickInterval = 5 * time.Minute

// ShiftMonitorConfig holds the dependencies of the monitor goroutine.
type ShiftMonitorConfig struct {
	Reports    repository.ReportRepository
	Metrics    *infra.Metrics
	AlertAfter time.Duration
	Interval   time.Duration
	Now        func() time.Time
}

// StartShiftMonitor runs one check immediately and then every Interval
// until ctx is cancelled.
func StartShiftMonitor(ctx context.Context, cfg ShiftMonitorConfig) {
	if cfg.Interval <= 0 {
		cfg.Interval = monitorTickInterval
	}
	go func() {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()

		log.Info().Dur("alert_after", cfg.AlertAfter).Msg("shift_monitor: started")
		checkStaleShifts(ctx, cfg)

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("shift_monitor: shutting down")
				return
			case <-ticker.C:
				checkStaleShifts(ctx, cfg)
			}
		}
	}()
}

// checkStaleShifts returns the total it published, for tests.
func checkStaleShifts(ctx context.Context, cfg ShiftMonitorConfig) int64 {
	now := time.Now
	if cfg.Now != nil {
		now = cfg.Now
	}
	cutoff := now().UTC().Add(-cfg.AlertAfter)

	counts, err := cfg.Reports.CountStaleOpenShifts(ctx, cutoff)
	if err != nil {
		log.Error().Err(err).Msg("shift_monitor: failed to count stale shifts")
		return 0
	}

	var total int64
	for _, c := range counts {
		total += c.Count
		log.Warn().
			Str("gym_id", c.GymID.String()).
			Int64("open_shifts", c.Count).
			Time("opened_before", cutoff).
			Msg("shift_monitor: shifts left open past threshold")
	}
	cfg.Metrics.SetStaleOpenShifts(total)
	return total
}
