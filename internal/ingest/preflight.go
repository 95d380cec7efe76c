package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimstats/internal/normalize"
	"github.com/gyeh/claimstats/internal/parquetread"
)

// PreflightResult holds all context resolved during the preflight phase.
type PreflightResult struct {
	FilePath   string
	FileSHA256 string
	FileSize   int64
	// DatasetFileID is the DB primary key for this source file record,
	// inserted or looked up via its SHA-256.
	DatasetFileID int64
	// LoadBatchID is a freshly generated UUIDv4 identifying this load run,
	// used to tag staged rows for later transform/cleanup.
	LoadBatchID uuid.UUID
	// NumRows is the total row count reported by the Parquet file metadata.
	NumRows int64
	// AlreadyLoaded is true when the file's sha256 already exists with
	// status "loaded" and force mode is off, signaling the pipeline can
	// skip this file.
	AlreadyLoaded bool
}

// Preflight opens the file, computes SHA-256, validates the schema, and
// registers the dataset file.
func Preflight(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, filePath string, force bool) (*PreflightResult, error) {
	start := time.Now()

	sha, err := normalize.FileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight hash: %w", err)
	}

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight stat: %w", err)
	}

	// Open and validate Parquet schema
	reader, err := parquetread.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("preflight open: %w", err)
	}
	defer reader.Close()

	if err := parquetread.ValidateSchema(reader.Schema()); err != nil {
		return nil, fmt.Errorf("preflight validate: %w", err)
	}

	numRows := reader.NumRows()

	log.Info().
		Str("file", filepath.Base(filePath)).
		Str("sha256", sha).
		Int64("rows", numRows).
		Dur("duration", time.Since(start)).
		Msg("preflight complete")

	fileID, alreadyLoaded, err := registerDatasetFile(ctx, pool, filePath, sha, stat.Size(), numRows, force)
	if err != nil {
		return nil, fmt.Errorf("preflight register file: %w", err)
	}

	return &PreflightResult{
		FilePath:      filePath,
		FileSHA256:    sha,
		FileSize:      stat.Size(),
		DatasetFileID: fileID,
		LoadBatchID:   uuid.New(),
		NumRows:       numRows,
		AlreadyLoaded: alreadyLoaded,
	}, nil
}

func registerDatasetFile(ctx context.Context, pool *pgxpool.Pool, filePath, sha string, fileSize, numRows int64, force bool) (int64, bool, error) {
	var fileID int64
	err := pool.QueryRow(ctx,
		`INSERT INTO ingest.dataset_files (source_file_name, source_file_sha256, file_size_bytes, num_rows)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (source_file_sha256) DO NOTHING
		 RETURNING dataset_file_id`,
		filepath.Base(filePath), sha, fileSize, numRows,
	).Scan(&fileID)

	if err == pgx.ErrNoRows {
		// Already registered (ON CONFLICT DO NOTHING returned no rows)
		var status string
		err2 := pool.QueryRow(ctx,
			"SELECT dataset_file_id, status FROM ingest.dataset_files WHERE source_file_sha256 = $1",
			sha,
		).Scan(&fileID, &status)
		if err2 != nil {
			return 0, false, fmt.Errorf("lookup existing dataset file: %w", err2)
		}

		if !force && status == "loaded" {
			return fileID, true, nil
		}

		// Reset status for re-load
		if err3 := UpdateStatus(ctx, pool, fileID, "pending"); err3 != nil {
			return 0, false, fmt.Errorf("reset dataset file status: %w", err3)
		}
		return fileID, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("register dataset file: %w", err)
	}

	return fileID, false, nil
}
