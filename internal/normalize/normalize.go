package normalize

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/gyeh/claimstats/internal/model"
)

// ToStagingRow converts a Parquet-read BillingRow into a normalized StagingRow.
// Rows with an unusable provider ID, code, or month, or with negative
// amounts, are rejected with an error; the caller counts and skips them.
func ToStagingRow(row *model.BillingRow, batchID uuid.UUID, datasetFileID int64, rowNum int64) (*model.StagingRow, error) {
	billingNPI, err := NormalizeNPI(row.BillingNPI)
	if err != nil {
		return nil, fmt.Errorf("billing npi: %w", err)
	}
	servicingNPI, err := NormalizeNPI(row.ServicingNPI)
	if err != nil {
		return nil, fmt.Errorf("servicing npi: %w", err)
	}
	code, err := NormalizeHCPCS(row.HCPCSCode)
	if err != nil {
		return nil, fmt.Errorf("hcpcs: %w", err)
	}
	month := ParseMonth(row.ClaimMonth)
	if month.IsZero() {
		return nil, fmt.Errorf("unparseable claim month %q", row.ClaimMonth)
	}
	if row.TotalPaid < 0 {
		return nil, fmt.Errorf("negative paid amount %.2f", row.TotalPaid)
	}
	if row.TotalClaims < 0 || row.TotalBeneficiaries < 0 {
		return nil, fmt.Errorf("negative counts claims=%d bene=%d", row.TotalClaims, row.TotalBeneficiaries)
	}

	s := &model.StagingRow{
		LoadBatchID:     batchID,
		DatasetFileID:   datasetFileID,
		SourceRowNumber: rowNum,

		BillingNPI:   billingNPI,
		ServicingNPI: servicingNPI,
		HCPCSCode:    code,
		ClaimMonth:   month,

		PaidCents:  DollarsToCents(row.TotalPaid),
		ClaimCount: row.TotalClaims,
		BeneCount:  row.TotalBeneficiaries,
	}

	s.SourceRowHash = RowHashFromValues(rowNum,
		billingNPI,
		servicingNPI,
		code,
		month.Format("2006-01"),
	)

	return s, nil
}
