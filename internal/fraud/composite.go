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

// RiskTier buckets a provider's composite score.
type RiskTier string

const (
	TierClean  RiskTier = "Clean"
	TierLow    RiskTier = "Low"
	TierMedium RiskTier = "Medium"
	TierHigh   RiskTier = "High"
)

// TierForScore maps a signal count to its tier: 0 Clean, 1 Low, 2 Medium,
// 3 and above High.
func TierForScore(score int) RiskTier {
	switch {
	case score <= 0:
		return TierClean
	case score == 1:
		return TierLow
	case score == 2:
		return TierMedium
	default:
		return TierHigh
	}
}

// Signals holds the flagged provider set per detector. A nil set means the
// detector did not run (or flagged nobody); membership checks on nil sets
// are false, so partial runs score against whatever subset is present.
type Signals struct {
	Upcoding     ProviderSet
	Velocity     ProviderSet
	Phantom      ProviderSet
	CostOutlier  ProviderSet
	Relationship ProviderSet
	Temporal     ProviderSet
}

// ProviderScore is one provider's composite risk assessment.
type ProviderScore struct {
	NPI         string
	TotalPaid   float64
	TotalClaims int64
	Flags       map[SignalKind]bool
	Score       int
	Tier        RiskTier
}

// TierSummary aggregates providers and spending per tier.
type TierSummary struct {
	Tier         RiskTier
	Providers    int
	TotalPaid    float64
	PctProviders float64
	PctSpending  float64
}

// CompositeResult holds the per-provider scores over the full provider
// universe, the tier rollup, and the high-risk extract.
type CompositeResult struct {
	Scores   []ProviderScore
	Tiers    []TierSummary
	HighRisk []ProviderScore
}

// ScoreProviders assigns every billing provider one point per detector that
// flagged it, tiers the score, and extracts the high-risk cohort sorted by
// score then spend, both descending.
func ScoreProviders(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, th config.CompositeThresholds, sig Signals) (*CompositeResult, error) {
	rows, err := pool.Query(ctx, embedsql.ProviderUniverse)
	if err != nil {
		return nil, fmt.Errorf("composite query: %w", err)
	}
	defer rows.Close()

	res := &CompositeResult{}
	tierAgg := make(map[RiskTier]*TierSummary)
	var totalPaid float64

	for rows.Next() {
		var ps ProviderScore
		if err := rows.Scan(&ps.NPI, &ps.TotalPaid, &ps.TotalClaims); err != nil {
			return nil, fmt.Errorf("composite scan: %w", err)
		}
		ps.Flags = map[SignalKind]bool{
			SignalUpcoding:     sig.Upcoding.Contains(ps.NPI),
			SignalVelocity:     sig.Velocity.Contains(ps.NPI),
			SignalPhantom:      sig.Phantom.Contains(ps.NPI),
			SignalCostOutlier:  sig.CostOutlier.Contains(ps.NPI),
			SignalRelationship: sig.Relationship.Contains(ps.NPI),
			SignalTemporal:     sig.Temporal.Contains(ps.NPI),
		}
		for _, on := range ps.Flags {
			if on {
				ps.Score++
			}
		}
		ps.Tier = TierForScore(ps.Score)
		res.Scores = append(res.Scores, ps)

		agg, ok := tierAgg[ps.Tier]
		if !ok {
			agg = &TierSummary{Tier: ps.Tier}
			tierAgg[ps.Tier] = agg
		}
		agg.Providers++
		agg.TotalPaid += ps.TotalPaid
		totalPaid += ps.TotalPaid

		if ps.Score >= th.HighRiskMinScore {
			res.HighRisk = append(res.HighRisk, ps)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("composite rows: %w", err)
	}

	for _, tier := range []RiskTier{TierClean, TierLow, TierMedium, TierHigh} {
		agg, ok := tierAgg[tier]
		if !ok {
			continue
		}
		if n := len(res.Scores); n > 0 {
			agg.PctProviders = float64(agg.Providers) / float64(n) * 100
		}
		if totalPaid > 0 {
			agg.PctSpending = agg.TotalPaid / totalPaid * 100
		}
		res.Tiers = append(res.Tiers, *agg)
	}

	sort.SliceStable(res.HighRisk, func(i, j int) bool {
		if res.HighRisk[i].Score != res.HighRisk[j].Score {
			return res.HighRisk[i].Score > res.HighRisk[j].Score
		}
		if res.HighRisk[i].TotalPaid != res.HighRisk[j].TotalPaid {
			return res.HighRisk[i].TotalPaid > res.HighRisk[j].TotalPaid
		}
		return res.HighRisk[i].NPI < res.HighRisk[j].NPI
	})

	ev := log.Info().Int("providers", len(res.Scores)).Int("high_risk", len(res.HighRisk))
	for _, t := range res.Tiers {
		ev = ev.Int(string(t.Tier), t.Providers)
	}
	ev.Msg("composite scoring complete")

	return res, nil
}
