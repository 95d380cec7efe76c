package parquetread

import (
	"fmt"
	"strings"

	"github.com/parquet-go/parquet-go"
)

// requiredColumns are the source columns a billing extract must carry.
var requiredColumns = []string{
	"billing_provider_npi",
	"servicing_provider_npi",
	"hcpcs_code",
	"claim_from_month",
	"total_paid",
	"total_claims",
	"total_unique_beneficiaries",
}

// ValidateSchema checks that the Parquet schema contains every required
// column. Column presence is validated once here, at the ingestion
// boundary, so nothing downstream has to re-check it.
func ValidateSchema(schema *parquet.Schema) error {
	columns := make(map[string]bool)
	for _, field := range schema.Fields() {
		columns[strings.ToLower(field.Name())] = true
	}

	var missing []string
	for _, col := range requiredColumns {
		if !columns[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return nil
}
