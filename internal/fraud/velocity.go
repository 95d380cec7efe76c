package fraud

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/gyeh/claimstats/internal/config"
	embedsql "github.com/gyeh/claimstats/internal/sql"
	"github.com/gyeh/claimstats/internal/stats"
)

// SpikeEvent is one provider-month whose paid amount broke away from that
// provider's trailing baseline.
type SpikeEvent struct {
	NPI         string
	Month       time.Time
	Paid        float64
	RollingMean float64
	RollingStd  float64
	SpikeRatio  float64
	ZSpike      float64
}

// VelocityProvider aggregates a provider's flagged spike events.
type VelocityProvider struct {
	NPI           string
	SpikeCount    int
	MaxSpikeRatio float64
	MaxSpikePaid  float64
	TotalPaid     float64
}

// VelocityResult holds flagged spike events and the per-provider rollup,
// ranked by max spike ratio descending. Both slices are empty (never nil
// semantics beyond that) when no provider has enough history.
type VelocityResult struct {
	Events    []SpikeEvent
	Providers []VelocityProvider
}

// FlaggedSet returns the flagged provider IDs for composite scoring.
func (r *VelocityResult) FlaggedSet() ProviderSet {
	s := make(ProviderSet, len(r.Providers))
	for _, p := range r.Providers {
		s[p.NPI] = struct{}{}
	}
	return s
}

// DetectVelocity finds sudden month-over-month billing spikes. A provider
// needs at least MinActiveMonths of history; the baseline for each month is
// a trailing window over strictly prior months so a spike cannot
// contaminate its own baseline.
func DetectVelocity(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, th config.VelocityThresholds) (*VelocityResult, error) {
	rows, err := pool.Query(ctx, embedsql.ProviderMonthly)
	if err != nil {
		return nil, fmt.Errorf("velocity query: %w", err)
	}
	defer rows.Close()

	res := &VelocityResult{Events: []SpikeEvent{}, Providers: []VelocityProvider{}}
	byProvider := make(map[string]*VelocityProvider)

	var (
		curNPI string
		series []MonthlyPoint
	)
	flush := func() {
		if curNPI == "" || len(series) < th.MinActiveMonths {
			return
		}
		for _, ev := range detectSpikes(curNPI, series, th) {
			res.Events = append(res.Events, ev)
			agg, ok := byProvider[ev.NPI]
			if !ok {
				agg = &VelocityProvider{NPI: ev.NPI}
				byProvider[ev.NPI] = agg
			}
			agg.SpikeCount++
			agg.TotalPaid += ev.Paid
			if ev.SpikeRatio > agg.MaxSpikeRatio {
				agg.MaxSpikeRatio = ev.SpikeRatio
			}
			if ev.Paid > agg.MaxSpikePaid {
				agg.MaxSpikePaid = ev.Paid
			}
		}
	}

	// Rows arrive ordered by provider then month.
	for rows.Next() {
		var npi string
		var pt MonthlyPoint
		if err := rows.Scan(&npi, &pt.Month, &pt.Paid, &pt.Claims, &pt.Codes); err != nil {
			return nil, fmt.Errorf("velocity scan: %w", err)
		}
		if npi != curNPI {
			flush()
			curNPI = npi
			series = series[:0]
		}
		series = append(series, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("velocity rows: %w", err)
	}
	flush()

	for _, agg := range byProvider {
		res.Providers = append(res.Providers, *agg)
	}
	sort.SliceStable(res.Providers, func(i, j int) bool {
		if res.Providers[i].MaxSpikeRatio != res.Providers[j].MaxSpikeRatio {
			return res.Providers[i].MaxSpikeRatio > res.Providers[j].MaxSpikeRatio
		}
		return res.Providers[i].NPI < res.Providers[j].NPI
	})

	log.Info().
		Int("spike_events", len(res.Events)).
		Int("providers", len(res.Providers)).
		Msg("velocity detection complete")

	return res, nil
}

// detectSpikes scans one provider's chronological monthly series and
// returns the months breaking the spike thresholds. The baseline window
// covers up to windowMonths strictly prior months and needs at least
// minObs of them; the rolling mean and deviation are floored at 1 so
// near-zero baselines cannot blow the ratios up.
func detectSpikes(npi string, series []MonthlyPoint, th config.VelocityThresholds) []SpikeEvent {
	var events []SpikeEvent
	for i := range series {
		lo := i - th.WindowMonths
		if lo < 0 {
			lo = 0
		}
		prior := series[lo:i]
		if len(prior) < th.MinWindowObs {
			continue
		}
		paids := make([]float64, len(prior))
		for j, p := range prior {
			paids[j] = p.Paid
		}
		mean := stats.Mean(paids)
		std := stats.StdDevSamp(paids)

		floorMean := mean
		if floorMean < 1 {
			floorMean = 1
		}
		floorStd := std
		if floorStd < 1 {
			floorStd = 1
		}

		ratio := series[i].Paid / floorMean
		z := (series[i].Paid - mean) / floorStd

		if ratio > th.FlagSpikeRatio || z > th.FlagSpikeZ {
			events = append(events, SpikeEvent{
				NPI:         npi,
				Month:       series[i].Month,
				Paid:        series[i].Paid,
				RollingMean: mean,
				RollingStd:  std,
				SpikeRatio:  ratio,
				ZSpike:      z,
			})
		}
	}
	return events
}
