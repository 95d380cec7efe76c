package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimstats/internal/config"
	"github.com/gyeh/claimstats/internal/model"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Run executes the full load pipeline: preflight → stage → transform →
// finalize → cleanup.
func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, cfg *config.Config) (*model.LoadSummary, error) {
	totalStart := time.Now()

	// Phase 1: Preflight
	log.Info().Str("file", cfg.FilePath).Msg("starting preflight")
	pf, err := Preflight(ctx, pool, log, cfg.FilePath, cfg.Force)
	if err != nil {
		return nil, &PipelineError{Phase: "preflight", Err: err}
	}

	if pf.AlreadyLoaded {
		log.Info().
			Int64("dataset_file_id", pf.DatasetFileID).
			Str("sha256", pf.FileSHA256).
			Msg("file already loaded, skipping (use --force to re-load)")
		return &model.LoadSummary{
			FilePath:      pf.FilePath,
			FileSHA256:    pf.FileSHA256,
			DatasetFileID: pf.DatasetFileID,
			LoadBatchID:   pf.LoadBatchID.String(),
			DurationTotal: time.Since(totalStart),
		}, nil
	}

	// Phase 2: Stage
	log.Info().Msg("starting staging")
	if err := UpdateStatus(ctx, pool, pf.DatasetFileID, "staging"); err != nil {
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	stageResult, err := Stage(ctx, pool, log, pf)
	if err != nil {
		_ = UpdateStatus(ctx, pool, pf.DatasetFileID, "failed")
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	if err := UpdateStatus(ctx, pool, pf.DatasetFileID, "staged"); err != nil {
		return nil, &PipelineError{Phase: "stage", Err: err}
	}

	// Phase 3: Transform
	log.Info().Msg("starting transform")
	if err := UpdateStatus(ctx, pool, pf.DatasetFileID, "transforming"); err != nil {
		return nil, &PipelineError{Phase: "transform", Err: err}
	}

	transformResult, err := Transform(ctx, pool, log, pf.LoadBatchID)
	if err != nil {
		_ = UpdateStatus(ctx, pool, pf.DatasetFileID, "failed")
		return nil, &PipelineError{Phase: "transform", Err: err}
	}

	// Phase 4: Finalize
	log.Info().Msg("finalizing")
	finalizeDur, err := Finalize(ctx, pool, log, pf.DatasetFileID)
	if err != nil {
		_ = UpdateStatus(ctx, pool, pf.DatasetFileID, "failed")
		return nil, &PipelineError{Phase: "finalize", Err: err}
	}

	// Phase 5: Cleanup staging
	if !cfg.KeepStaging {
		log.Info().Msg("cleaning up staging")
		if err := Cleanup(ctx, pool, log, pf.LoadBatchID); err != nil {
			log.Warn().Err(err).Msg("staging cleanup failed (non-fatal)")
		}
	}

	summary := &model.LoadSummary{
		FilePath:          pf.FilePath,
		FileSHA256:        pf.FileSHA256,
		DatasetFileID:     pf.DatasetFileID,
		LoadBatchID:       pf.LoadBatchID.String(),
		RowsRead:          stageResult.RowsRead,
		RowsStaged:        stageResult.RowsStaged,
		RowsRejected:      stageResult.RowsRejected,
		RowsInserted:      transformResult.RowsInserted,
		DurationRead:      stageResult.Duration,
		DurationCopy:      stageResult.Duration,
		DurationTransform: transformResult.Duration,
		DurationFinalize:  finalizeDur,
		DurationTotal:     time.Since(totalStart),
	}

	log.Info().
		Int64("rows_read", summary.RowsRead).
		Int64("rows_staged", summary.RowsStaged).
		Int64("rows_serving", summary.RowsInserted).
		Int64("rows_rejected", summary.RowsRejected).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("load pipeline complete")

	return summary, nil
}
