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

// TemporalProfile is a provider's billing rhythm: how spread out payments
// are across months (entropy), their spread relative to the mean (CV), and
// how much of the total one month carries.
type TemporalProfile struct {
	NPI              string
	ActiveMonths     int
	TotalPaid        float64
	MaxMonthly       float64
	MaxConcentration float64
	Entropy          float64
	CV               float64
	ConcentratedTime bool
	HighCV           bool
}

// Flagged reports whether either temporal signal fired.
func (p TemporalProfile) Flagged() bool { return p.ConcentratedTime || p.HighCV }

// TemporalResult holds every profile, the flagged subset sorted by total
// paid descending, and the entropy cutoff used for the concentration flag.
type TemporalResult struct {
	Profiles      []TemporalProfile
	Flagged       []TemporalProfile
	EntropyCutoff float64
}

// FlaggedSet returns the flagged provider IDs for composite scoring.
func (r *TemporalResult) FlaggedSet() ProviderSet {
	s := make(ProviderSet, len(r.Flagged))
	for _, p := range r.Flagged {
		s[p.NPI] = struct{}{}
	}
	return s
}

// DetectTemporal flags providers whose payments are abnormally concentrated
// in time. The entropy cutoff is the low percentile among providers with
// enough history; short-tenure providers are never compared against it.
func DetectTemporal(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, th config.TemporalThresholds) (*TemporalResult, error) {
	rows, err := pool.Query(ctx, embedsql.ProviderMonthly)
	if err != nil {
		return nil, fmt.Errorf("temporal query: %w", err)
	}
	defer rows.Close()

	res := &TemporalResult{}

	var cur string
	var paids []float64
	flush := func() {
		if cur == "" {
			return
		}
		res.Profiles = append(res.Profiles, profileFromMonthly(cur, paids))
		paids = nil
	}

	for rows.Next() {
		var pt MonthlyPoint
		var npi string
		if err := rows.Scan(&npi, &pt.Month, &pt.Paid, &pt.Claims, &pt.Codes); err != nil {
			return nil, fmt.Errorf("temporal scan: %w", err)
		}
		if npi != cur {
			flush()
			cur = npi
		}
		paids = append(paids, pt.Paid)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("temporal rows: %w", err)
	}
	flush()

	var eligibleEntropy []float64
	for _, p := range res.Profiles {
		if p.ActiveMonths >= th.MinActiveMonths {
			eligibleEntropy = append(eligibleEntropy, p.Entropy)
		}
	}
	if len(eligibleEntropy) > 0 {
		res.EntropyCutoff = stats.Percentile(eligibleEntropy, th.EntropyPercentile)
	}

	var concentrated, highCV int
	for i := range res.Profiles {
		p := &res.Profiles[i]
		if p.ActiveMonths < th.MinActiveMonths {
			continue
		}
		p.ConcentratedTime = len(eligibleEntropy) > 0 &&
			p.Entropy < res.EntropyCutoff && p.TotalPaid > th.MinTotalPaid
		p.HighCV = p.CV > th.FlagHighCV
		if p.ConcentratedTime {
			concentrated++
		}
		if p.HighCV {
			highCV++
		}
		if p.Flagged() {
			res.Flagged = append(res.Flagged, *p)
		}
	}

	sort.SliceStable(res.Flagged, func(i, j int) bool {
		if res.Flagged[i].TotalPaid != res.Flagged[j].TotalPaid {
			return res.Flagged[i].TotalPaid > res.Flagged[j].TotalPaid
		}
		return res.Flagged[i].NPI < res.Flagged[j].NPI
	})

	log.Info().
		Int("providers", len(res.Profiles)).
		Int("concentrated_time", concentrated).
		Int("high_cv", highCV).
		Float64("entropy_cutoff", res.EntropyCutoff).
		Msg("temporal detection complete")

	return res, nil
}

func profileFromMonthly(npi string, paids []float64) TemporalProfile {
	p := TemporalProfile{
		NPI:          npi,
		ActiveMonths: len(paids),
		Entropy:      stats.Entropy(paids),
		CV:           stats.CV(paids),
	}
	for _, v := range paids {
		p.TotalPaid += v
		if v > p.MaxMonthly {
			p.MaxMonthly = v
		}
	}
	total := p.TotalPaid
	if total < 1 {
		total = 1
	}
	p.MaxConcentration = p.MaxMonthly / total
	return p
}
