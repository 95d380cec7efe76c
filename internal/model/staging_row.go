package model

import (
	"time"

	"github.com/google/uuid"
)

// StagingRow is the normalized, DB-ready representation of a single billing
// line. Paid amounts are stored as int64 cents.
type StagingRow struct {
	LoadBatchID   uuid.UUID
	DatasetFileID int64

	SourceRowNumber int64
	SourceRowHash   []byte

	BillingNPI   string
	ServicingNPI string
	HCPCSCode    string
	ClaimMonth   time.Time

	PaidCents  int64
	ClaimCount int64
	BeneCount  int64
}

// StagingColumns returns the ordered column names for COPY into
// ingest.stage_billing_rows.
func StagingColumns() []string {
	return []string{
		"load_batch_id",
		"dataset_file_id",
		"source_row_number",
		"source_row_hash",
		"billing_npi",
		"servicing_npi",
		"hcpcs_code",
		"claim_month",
		"paid_cents",
		"claim_count",
		"bene_count",
	}
}

// CopyValues returns the row values in the same order as StagingColumns(),
// suitable for pgx CopyFromSource.
func (r *StagingRow) CopyValues() []any {
	return []any{
		r.LoadBatchID,
		r.DatasetFileID,
		r.SourceRowNumber,
		r.SourceRowHash,
		r.BillingNPI,
		r.ServicingNPI,
		r.HCPCSCode,
		r.ClaimMonth,
		r.PaidCents,
		r.ClaimCount,
		r.BeneCount,
	}
}
