package fraud

import (
	"context"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimstats/internal/config"
	embedsql "github.com/gyeh/claimstats/internal/sql"
	"github.com/gyeh/claimstats/internal/stats"
)

// RelationshipPair is one billing→servicing pair with its concentration
// against the billing provider's total outbound spend.
type RelationshipPair struct {
	BillingNPI       string
	ServicingNPI     string
	SharedCodes      int64
	SharedMonths     int64
	RelationshipPaid float64
	Claims           int64
	BillingTotal     float64
	ConcentrationPct float64
	Concentrated     bool
	Broad            bool
}

// RelationshipResult holds every pair plus the flagged subset sorted by
// relationship paid descending. BroadCodeCutoff is the P95 of shared
// code counts across all pairs.
type RelationshipResult struct {
	Pairs           []RelationshipPair
	Flagged         []RelationshipPair
	BroadCodeCutoff float64
}

// FlaggedSet returns the billing-side provider IDs of flagged pairs.
func (r *RelationshipResult) FlaggedSet() ProviderSet {
	s := make(ProviderSet)
	for _, p := range r.Flagged {
		s[p.BillingNPI] = struct{}{}
	}
	return s
}

// DetectRelationships flags billing→servicing pairs that carry an extreme
// share of the billing provider's outbound spend, or that span an unusually
// broad set of codes. Self-billing rows are excluded upstream.
func DetectRelationships(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, th config.RelationshipThresholds) (*RelationshipResult, error) {
	rows, err := pool.Query(ctx, embedsql.RelationshipPairs)
	if err != nil {
		return nil, fmt.Errorf("relationship query: %w", err)
	}
	defer rows.Close()

	res := &RelationshipResult{}
	billingTotals := make(map[string]float64)
	var sharedCodes []float64

	for rows.Next() {
		var p RelationshipPair
		if err := rows.Scan(&p.BillingNPI, &p.ServicingNPI, &p.SharedCodes, &p.SharedMonths,
			&p.RelationshipPaid, &p.Claims); err != nil {
			return nil, fmt.Errorf("relationship scan: %w", err)
		}
		res.Pairs = append(res.Pairs, p)
		billingTotals[p.BillingNPI] += p.RelationshipPaid
		sharedCodes = append(sharedCodes, float64(p.SharedCodes))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("relationship rows: %w", err)
	}
	if len(res.Pairs) == 0 {
		return res, nil
	}

	res.BroadCodeCutoff = stats.Percentile(sharedCodes, th.BroadCodePercentile)

	var concentrated, broad int
	for i := range res.Pairs {
		p := &res.Pairs[i]
		p.BillingTotal = billingTotals[p.BillingNPI]
		total := p.BillingTotal
		if total < 1 {
			total = 1
		}
		p.ConcentrationPct = p.RelationshipPaid / total * 100

		p.Concentrated = p.ConcentrationPct > th.FlagConcentrationPct && p.RelationshipPaid > th.MinRelationshipPaid
		p.Broad = float64(p.SharedCodes) > res.BroadCodeCutoff
		if p.Concentrated {
			concentrated++
		}
		if p.Broad {
			broad++
		}
		if p.Concentrated || p.Broad {
			res.Flagged = append(res.Flagged, *p)
		}
	}

	sort.SliceStable(res.Flagged, func(i, j int) bool {
		if res.Flagged[i].RelationshipPaid != res.Flagged[j].RelationshipPaid {
			return res.Flagged[i].RelationshipPaid > res.Flagged[j].RelationshipPaid
		}
		if res.Flagged[i].BillingNPI != res.Flagged[j].BillingNPI {
			return res.Flagged[i].BillingNPI < res.Flagged[j].BillingNPI
		}
		return res.Flagged[i].ServicingNPI < res.Flagged[j].ServicingNPI
	})

	log.Info().
		Int("pairs", len(res.Pairs)).
		Int("concentrated", concentrated).
		Int("broad", broad).
		Float64("broad_code_cutoff", res.BroadCodeCutoff).
		Msg("relationship detection complete")

	return res, nil
}
