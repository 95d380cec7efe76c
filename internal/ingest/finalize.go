package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Finalize marks the dataset file loaded and refreshes planner statistics.
func Finalize(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, datasetFileID int64) (time.Duration, error) {
	start := time.Now()

	if err := UpdateStatus(ctx, pool, datasetFileID, "loaded"); err != nil {
		return 0, fmt.Errorf("update status to loaded: %w", err)
	}

	// ANALYZE so detector aggregations see fresh statistics.
	if _, err := pool.Exec(ctx, "ANALYZE claims.billing_monthly"); err != nil {
		return 0, fmt.Errorf("analyze billing_monthly: %w", err)
	}
	if _, err := pool.Exec(ctx, "ANALYZE ingest.stage_billing_rows"); err != nil {
		return 0, fmt.Errorf("analyze staging: %w", err)
	}
	log.Info().Msg("ANALYZE complete")

	return time.Since(start), nil
}
