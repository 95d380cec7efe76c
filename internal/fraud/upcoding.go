package fraud

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimstats/internal/config"
	embedsql "github.com/gyeh/claimstats/internal/sql"
)

// UpcodingProvider is one provider's peer-deviation profile across the
// procedure codes it bills.
type UpcodingProvider struct {
	NPI         string
	Codes       int64
	AvgZ        float64
	MaxZ        float64
	HighZCount  int64
	HighZShare  float64
	TotalPaid   float64
	TotalClaims int64
	Flagged     bool
}

// UpcodingResult holds every eligible provider plus the flagged subset,
// both ranked by average z-score descending (ties by provider ID).
type UpcodingResult struct {
	Providers []UpcodingProvider
	Flagged   []UpcodingProvider
}

// FlaggedSet returns the flagged provider IDs for composite scoring.
func (r *UpcodingResult) FlaggedSet() ProviderSet {
	s := make(ProviderSet, len(r.Flagged))
	for _, p := range r.Flagged {
		s[p.NPI] = struct{}{}
	}
	return s
}

// DetectUpcoding finds providers whose cost-per-claim sits systematically
// above peers across the codes they bill. Peer groups below the minimum
// provider count, and providers billing fewer than the minimum number of
// codes, are excluded rather than flagged.
func DetectUpcoding(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, th config.UpcodingThresholds) (*UpcodingResult, error) {
	rows, err := pool.Query(ctx, embedsql.UpcodingDeviation,
		th.MinPeerProviders, th.HighZ, th.MinCodesBilled)
	if err != nil {
		return nil, fmt.Errorf("upcoding query: %w", err)
	}
	defer rows.Close()

	res := &UpcodingResult{}
	for rows.Next() {
		var p UpcodingProvider
		if err := rows.Scan(&p.NPI, &p.Codes, &p.AvgZ, &p.MaxZ, &p.HighZCount, &p.TotalPaid, &p.TotalClaims); err != nil {
			return nil, fmt.Errorf("upcoding scan: %w", err)
		}
		p.HighZShare = float64(p.HighZCount) / float64(p.Codes)
		p.Flagged = p.AvgZ > th.FlagAvgZ || p.HighZShare > th.FlagHighZShare
		res.Providers = append(res.Providers, p)
		if p.Flagged {
			res.Flagged = append(res.Flagged, p)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("upcoding rows: %w", err)
	}

	pct := 0.0
	if len(res.Providers) > 0 {
		pct = float64(len(res.Flagged)) / float64(len(res.Providers)) * 100
	}
	log.Info().
		Int("flagged", len(res.Flagged)).
		Int("eligible", len(res.Providers)).
		Float64("pct", pct).
		Msg("upcoding detection complete")

	return res, nil
}
