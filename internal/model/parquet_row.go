package model

// BillingRow mirrors the Parquet schema for one aggregated billing line:
// one row per billing provider × servicing provider × HCPCS code × month.
// Money fields are float64 matching the Parquet representation; they get
// converted to integer cents during normalization.
type BillingRow struct {
	BillingNPI   string `parquet:"billing_provider_npi"`
	ServicingNPI string `parquet:"servicing_provider_npi"`
	HCPCSCode    string `parquet:"hcpcs_code"`

	// ClaimMonth is a year-month string, e.g. "2023-07". Day precision is
	// not carried by the source; normalization pins it to the first.
	ClaimMonth string `parquet:"claim_from_month"`

	TotalPaid          float64 `parquet:"total_paid"`
	TotalClaims        int64   `parquet:"total_claims"`
	TotalBeneficiaries int64   `parquet:"total_unique_beneficiaries"`
}
