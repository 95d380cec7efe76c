package fraud

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimstats/internal/config"
	embedsql "github.com/gyeh/claimstats/internal/sql"
)

// CostOutlierRecord is one (provider, code) cost-per-claim observation
// against its code's Tukey fence.
type CostOutlierRecord struct {
	NPI         string
	HCPCSCode   string
	CostPerUnit float64
	TotalPaid   float64
	TotalClaims int64
	Q1          float64
	Median      float64
	Q3          float64
	UpperFence  float64
	ExcessRatio float64
	Flagged     bool
}

// CostOutlierProvider aggregates a provider's flagged outlier codes.
type CostOutlierProvider struct {
	NPI            string
	FlaggedCodes   int
	MaxExcessRatio float64
	TotalPaid      float64
}

// CostOutlierResult holds the flagged records sorted by excess ratio
// descending and the provider rollup.
type CostOutlierResult struct {
	Flagged   []CostOutlierRecord
	Providers []CostOutlierProvider
}

// FlaggedSet returns the flagged provider IDs for composite scoring.
func (r *CostOutlierResult) FlaggedSet() ProviderSet {
	s := make(ProviderSet, len(r.Providers))
	for _, p := range r.Providers {
		s[p.NPI] = struct{}{}
	}
	return s
}

// DetectCostOutliers flags (provider, code) unit costs above the upper
// Tukey fence Q3 + mult*IQR that also clear the excess-ratio cutoff
// against the code median. Codes below the peer-count minimum never
// produce observations; the query enforces that.
func DetectCostOutliers(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, th config.CostOutlierThresholds) (*CostOutlierResult, error) {
	rows, err := pool.Query(ctx, embedsql.CostOutlierObs, th.MinPeerObs)
	if err != nil {
		return nil, fmt.Errorf("cost outlier query: %w", err)
	}
	defer rows.Close()

	res := &CostOutlierResult{}
	byProvider := make(map[string]*CostOutlierProvider)
	var examined int

	for rows.Next() {
		var rec CostOutlierRecord
		if err := rows.Scan(&rec.NPI, &rec.HCPCSCode, &rec.CostPerUnit, &rec.TotalPaid, &rec.TotalClaims,
			&rec.Q1, &rec.Median, &rec.Q3); err != nil {
			return nil, fmt.Errorf("cost outlier scan: %w", err)
		}
		examined++

		iqr := rec.Q3 - rec.Q1
		rec.UpperFence = rec.Q3 + th.FenceIQRMult*iqr
		median := rec.Median
		if median < th.MedianFloor {
			median = th.MedianFloor
		}
		rec.ExcessRatio = rec.CostPerUnit / median

		// Sitting exactly on the fence is not an outlier.
		rec.Flagged = rec.CostPerUnit > rec.UpperFence && rec.ExcessRatio > th.FlagExcessRatio
		if !rec.Flagged {
			continue
		}

		res.Flagged = append(res.Flagged, rec)
		agg, ok := byProvider[rec.NPI]
		if !ok {
			agg = &CostOutlierProvider{NPI: rec.NPI}
			byProvider[rec.NPI] = agg
		}
		agg.FlaggedCodes++
		agg.TotalPaid += rec.TotalPaid
		if rec.ExcessRatio > agg.MaxExcessRatio {
			agg.MaxExcessRatio = rec.ExcessRatio
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cost outlier rows: %w", err)
	}

	sort.SliceStable(res.Flagged, func(i, j int) bool {
		if res.Flagged[i].ExcessRatio != res.Flagged[j].ExcessRatio {
			return res.Flagged[i].ExcessRatio > res.Flagged[j].ExcessRatio
		}
		return res.Flagged[i].NPI < res.Flagged[j].NPI
	})

	for _, agg := range byProvider {
		res.Providers = append(res.Providers, *agg)
	}
	sort.SliceStable(res.Providers, func(i, j int) bool {
		if res.Providers[i].MaxExcessRatio != res.Providers[j].MaxExcessRatio {
			return res.Providers[i].MaxExcessRatio > res.Providers[j].MaxExcessRatio
		}
		return res.Providers[i].NPI < res.Providers[j].NPI
	})

	log.Info().
		Int("observations", examined).
		Int("flagged_records", len(res.Flagged)).
		Int("providers", len(res.Providers)).
		Msg("cost outlier detection complete")

	return res, nil
}
