// Package cleanup provides the background worker that closes idle editor
// sessions and purges expired renders.
package cleanup

import (
	"context"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
)

// IdleCloser closes sessions that have not been used for maxIdle.
type IdleCloser interface {
	CloseIdle(ctx context.Context, maxIdle time.Duration, busy func(sessionID string) bool) int
}

// Purger drops expired cache entries.
type Purger interface {
	PurgeExpired(now time.Time) int
}

// Worker handles background cleanup operations
type Worker struct {
	sessions IdleCloser
	busy     func(sessionID string) bool
	caches   []Purger
	config   *Config
	logger   *logging.ChanneledLogger
}

// NewWorker creates a cleanup worker. busy reports sessions that still have
// live clients and must stay open; it may be nil.
func NewWorker(sessions IdleCloser, busy func(sessionID string) bool, caches []Purger, config *Config, logger *logging.ChanneledLogger) *Worker {
	return &Worker{
		sessions: sessions,
		busy:     busy,
		caches:   caches,
		config:   config,
		logger:   logger,
	}
}

// Start begins the cleanup worker routine, using the configured interval
func (w *Worker) Start(ctx context.Context) {
	if w.config.CleanupInterval <= 0 {
		w.logger.Startup().Info("Cleanup worker disabled")
		return
	}
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	w.logger.Startup().Info("Cleanup worker started",
		"interval", w.config.CleanupInterval,
		"sessionIdleTimeout", w.config.SessionIdleTimeout)

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown().Info("Cleanup worker stopping")
			return
		case <-ticker.C:
			w.RunOnce(ctx, time.Now().UTC())
		}
	}
}

// RunOnce performs a single cleanup pass and returns the number of sessions
// closed and cache entries purged.
func (w *Worker) RunOnce(ctx context.Context, now time.Time) (sessions, entries int) {
	start := time.Now()
	if w.sessions != nil {
		sessions = w.sessions.CloseIdle(ctx, w.config.SessionIdleTimeout, w.busy)
	}
	for _, cache := range w.caches {
		entries += cache.PurgeExpired(now)
	}

	if sessions > 0 || entries > 0 {
		w.logger.System().Info("Cleanup finished",
			"sessionsClosed", sessions,
			"entriesPurged", entries,
			"duration", time.Since(start))
	} else if w.config.VerboseReporting {
		w.logger.System().Debug("Cleanup completed - nothing expired", "duration", time.Since(start))
	}
	return sessions, entries
}
