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

// ClusterProfile is one provider's behaviour vector plus its assigned
// cluster.
type ClusterProfile struct {
	NPI          string
	TotalPaid    float64
	TotalClaims  int64
	TotalBene    int64
	NCodes       int64
	ActiveMonths int64
	AvgCPC       float64
	NServicing   int64
	Cluster      int
}

// ClusterSummary describes one cluster's membership and averages.
type ClusterSummary struct {
	Cluster   int
	Count     int
	Pct       float64
	AvgPaid   float64
	AvgClaims float64
	AvgCPC    float64
	AvgCodes  float64
	AvgMonths float64
}

// ClusteringResult holds the labelled profiles and per-cluster summaries.
// Clustering is diagnostic: it contributes no composite signal.
type ClusteringResult struct {
	Profiles  []ClusterProfile
	Summaries []ClusterSummary
	Inertia   float64
}

// ClusterProviders groups providers by behaviour with seeded k-means over
// log1p-standardized feature vectors. Providers below the paid floor are
// excluded; if fewer providers remain than clusters requested, k drops to
// the provider count.
func ClusterProviders(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, th config.ClusteringThresholds) (*ClusteringResult, error) {
	rows, err := pool.Query(ctx, embedsql.ClusterProfiles, th.MinTotalPaid)
	if err != nil {
		return nil, fmt.Errorf("cluster query: %w", err)
	}
	defer rows.Close()

	res := &ClusteringResult{}
	for rows.Next() {
		var p ClusterProfile
		if err := rows.Scan(&p.NPI, &p.TotalPaid, &p.TotalClaims, &p.TotalBene,
			&p.NCodes, &p.ActiveMonths, &p.AvgCPC, &p.NServicing); err != nil {
			return nil, fmt.Errorf("cluster scan: %w", err)
		}
		res.Profiles = append(res.Profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("cluster rows: %w", err)
	}
	if len(res.Profiles) == 0 {
		return res, nil
	}

	features := make([][]float64, len(res.Profiles))
	for i, p := range res.Profiles {
		features[i] = []float64{
			p.TotalPaid,
			float64(p.TotalClaims),
			float64(p.TotalBene),
			float64(p.NCodes),
			float64(p.ActiveMonths),
			p.AvgCPC,
			float64(p.NServicing),
		}
	}

	k := th.Clusters
	if k > len(res.Profiles) {
		k = len(res.Profiles)
	}
	km := kmeans(log1pStandardize(features), k, th.Restarts, th.MaxIter, th.Seed)
	res.Inertia = km.Inertia

	sums := make([]ClusterSummary, k)
	for i := range res.Profiles {
		p := &res.Profiles[i]
		p.Cluster = km.Labels[i]
		s := &sums[p.Cluster]
		s.Count++
		s.AvgPaid += p.TotalPaid
		s.AvgClaims += float64(p.TotalClaims)
		s.AvgCPC += p.AvgCPC
		s.AvgCodes += float64(p.NCodes)
		s.AvgMonths += float64(p.ActiveMonths)
	}
	for c := range sums {
		sums[c].Cluster = c
		if sums[c].Count == 0 {
			continue
		}
		n := float64(sums[c].Count)
		sums[c].Pct = n / float64(len(res.Profiles)) * 100
		sums[c].AvgPaid /= n
		sums[c].AvgClaims /= n
		sums[c].AvgCPC /= n
		sums[c].AvgCodes /= n
		sums[c].AvgMonths /= n
	}
	res.Summaries = sums

	sort.SliceStable(res.Profiles, func(i, j int) bool {
		if res.Profiles[i].Cluster != res.Profiles[j].Cluster {
			return res.Profiles[i].Cluster < res.Profiles[j].Cluster
		}
		return res.Profiles[i].NPI < res.Profiles[j].NPI
	})

	ev := log.Info().Int("providers", len(res.Profiles)).Int("clusters", k)
	for _, s := range sums {
		ev = ev.Int(fmt.Sprintf("c%d", s.Cluster), s.Count)
	}
	ev.Msg("provider clustering complete")

	return res, nil
}
