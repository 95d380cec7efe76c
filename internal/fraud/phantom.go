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

// PhantomRecord is one (provider, code) volume observation with its
// peer-relative ratios.
type PhantomRecord struct {
	NPI            string
	HCPCSCode      string
	TotalPaid      float64
	TotalClaims    int64
	TotalBene      int64
	ActiveMonths   int64
	ClaimsPerBene  float64
	PaidPerBene    float64
	ClaimsPerMonth float64
	PeerP95        float64
	RatioToP95     float64
	Flagged        bool
}

// PhantomProvider aggregates a provider's flagged phantom records.
type PhantomProvider struct {
	NPI              string
	FlaggedCodes     int
	MaxClaimsPerBene float64
	TotalPaid        float64
}

// PhantomResult holds flagged (provider, code) records sorted by
// claims-per-beneficiary descending, and the provider rollup sorted by max
// claims-per-beneficiary descending.
type PhantomResult struct {
	Records   []PhantomRecord
	Flagged   []PhantomRecord
	Providers []PhantomProvider
}

// FlaggedSet returns the flagged provider IDs for composite scoring.
func (r *PhantomResult) FlaggedSet() ProviderSet {
	s := make(ProviderSet, len(r.Providers))
	for _, p := range r.Providers {
		s[p.NPI] = struct{}{}
	}
	return s
}

// DetectPhantom finds billing volumes that are implausible per beneficiary.
// Peer percentiles are computed over every observation of a code; the
// absolute ceiling catches codes with too few peers for a meaningful
// percentile. Rows with zero denominators never reach the ratios — the
// query filters them out.
func DetectPhantom(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, th config.PhantomThresholds) (*PhantomResult, error) {
	rows, err := pool.Query(ctx, embedsql.PhantomGroups)
	if err != nil {
		return nil, fmt.Errorf("phantom query: %w", err)
	}
	defer rows.Close()

	res := &PhantomResult{}
	peerGroups := make(map[string][]float64)

	for rows.Next() {
		var rec PhantomRecord
		if err := rows.Scan(&rec.NPI, &rec.HCPCSCode, &rec.TotalPaid, &rec.TotalClaims, &rec.TotalBene, &rec.ActiveMonths); err != nil {
			return nil, fmt.Errorf("phantom scan: %w", err)
		}
		rec.ClaimsPerBene = float64(rec.TotalClaims) / float64(rec.TotalBene)
		rec.PaidPerBene = rec.TotalPaid / float64(rec.TotalBene)
		months := rec.ActiveMonths
		if months < 1 {
			months = 1
		}
		rec.ClaimsPerMonth = float64(rec.TotalClaims) / float64(months)

		res.Records = append(res.Records, rec)
		peerGroups[rec.HCPCSCode] = append(peerGroups[rec.HCPCSCode], rec.ClaimsPerBene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("phantom rows: %w", err)
	}

	peerStats := stats.GroupStats(peerGroups, 1)

	byProvider := make(map[string]*PhantomProvider)
	for i := range res.Records {
		rec := &res.Records[i]
		rec.PeerP95 = peerStats[rec.HCPCSCode].P95

		p95 := rec.PeerP95
		if p95 < th.P95Floor {
			p95 = th.P95Floor
		}
		rec.RatioToP95 = rec.ClaimsPerBene / p95
		rec.Flagged = rec.RatioToP95 > th.FlagP95Ratio || rec.ClaimsPerBene > th.AbsoluteCeiling
		if !rec.Flagged {
			continue
		}

		res.Flagged = append(res.Flagged, *rec)
		agg, ok := byProvider[rec.NPI]
		if !ok {
			agg = &PhantomProvider{NPI: rec.NPI}
			byProvider[rec.NPI] = agg
		}
		agg.FlaggedCodes++
		agg.TotalPaid += rec.TotalPaid
		if rec.ClaimsPerBene > agg.MaxClaimsPerBene {
			agg.MaxClaimsPerBene = rec.ClaimsPerBene
		}
	}

	sort.SliceStable(res.Flagged, func(i, j int) bool {
		if res.Flagged[i].ClaimsPerBene != res.Flagged[j].ClaimsPerBene {
			return res.Flagged[i].ClaimsPerBene > res.Flagged[j].ClaimsPerBene
		}
		return res.Flagged[i].NPI < res.Flagged[j].NPI
	})

	for _, agg := range byProvider {
		res.Providers = append(res.Providers, *agg)
	}
	sort.SliceStable(res.Providers, func(i, j int) bool {
		if res.Providers[i].MaxClaimsPerBene != res.Providers[j].MaxClaimsPerBene {
			return res.Providers[i].MaxClaimsPerBene > res.Providers[j].MaxClaimsPerBene
		}
		return res.Providers[i].NPI < res.Providers[j].NPI
	})

	log.Info().
		Int("flagged_records", len(res.Flagged)).
		Int("providers", len(res.Providers)).
		Msg("phantom detection complete")

	return res, nil
}
