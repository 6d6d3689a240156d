package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/AtRiskMedia/pagecraft-go/internal/infrastructure/observability/logging"
	"github.com/AtRiskMedia/pagecraft-go/pkg/config"
)

const verifyTimeout = 10 * time.Second

// verifyConnection runs a trivial query through the pool. A Turso auth token
// is only checked once a statement runs.
func verifyConnection(ctx context.Context, conn *sql.DB, driver string, logger *logging.ChanneledLogger) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()

	var result int
	if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		logger.Database().Error("Connection test query failed", "error", err.Error(), "driverName", driver)
		return fmt.Errorf("%s connection test query failed: %w", driver, err)
	}
	if result != 1 {
		return fmt.Errorf("unexpected query result: %d", result)
	}

	logger.Database().Debug("Connection test successful", "driverName", driver, "duration", time.Since(start))
	return nil
}

// CheckAndLogSlowQuery warns on the database channel when a query runs past
// the configured threshold.
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration, pageID string) {
	if duration > config.SlowQueryThreshold {
		logger.Database().Warn("Slow query", "query", query, "duration", duration, "threshold", config.SlowQueryThreshold, "pageId", pageID)
	}
}
