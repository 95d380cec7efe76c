package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	embedsql "github.com/gyeh/claimstats/internal/sql"
)

// TransformResult holds metrics from the staging→serving transformation.
type TransformResult struct {
	RowsInserted int64
	Duration     time.Duration
}

// Transform executes the INSERT...SELECT from staging into the serving fact
// table (claims.billing_monthly).
func Transform(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID) (*TransformResult, error) {
	start := time.Now()

	tag, err := pool.Exec(ctx, embedsql.TransformStaging, batchID)
	if err != nil {
		return nil, fmt.Errorf("transform staging: %w", err)
	}

	dur := time.Since(start)
	rows := tag.RowsAffected()

	log.Info().
		Int64("rows_inserted", rows).
		Str("duration", dur.String()).
		Float64("rows_per_sec", float64(rows)/dur.Seconds()).
		Msg("transform complete")

	return &TransformResult{
		RowsInserted: rows,
		Duration:     dur,
	}, nil
}
