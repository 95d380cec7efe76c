package model

import "time"

// LoadSummary captures metrics from a single dataset load run.
type LoadSummary struct {
	FilePath          string
	FileSHA256        string
	DatasetFileID     int64
	LoadBatchID       string
	RowsRead          int64
	RowsStaged        int64
	RowsRejected      int64
	RowsInserted      int64
	DurationRead      time.Duration
	DurationCopy      time.Duration
	DurationTransform time.Duration
	DurationFinalize  time.Duration
	DurationTotal     time.Duration
}
