package analyze

import (
	"context"

	"github.com/gyeh/claimstats/internal/fraud"
)

// The fraud sections run the detectors, persist their tables, and stash the
// flagged sets on the runtime for the composite section. A detector that
// fails leaves its set nil, which the composite treats as empty.

func runUpcoding(ctx context.Context, rt *Runtime) error {
	res, err := fraud.DetectUpcoding(ctx, rt.Pool, rt.Log, rt.Th.Upcoding)
	if err != nil {
		return err
	}
	rt.Signals.Upcoding = res.FlaggedSet()

	header := []string{"billing_npi", "n_codes", "avg_z_score", "max_z_score", "high_z_count", "high_z_share", "total_paid", "total_claims", "flagged"}
	rows := make([][]string, 0, len(res.Providers))
	for _, p := range res.Providers {
		rows = append(rows, []string{
			p.NPI, formatInt(p.Codes), formatFloat(p.AvgZ), formatFloat(p.MaxZ),
			formatInt(p.HighZCount), formatFloat(p.HighZShare),
			formatFloat(p.TotalPaid), formatInt(p.TotalClaims),
			boolStr(p.Flagged),
		})
	}
	return rt.Sink.WriteTable("fraud", "33_upcoding_providers", header, rows)
}

func runVelocity(ctx context.Context, rt *Runtime) error {
	res, err := fraud.DetectVelocity(ctx, rt.Pool, rt.Log, rt.Th.Velocity)
	if err != nil {
		return err
	}
	rt.Signals.Velocity = res.FlaggedSet()

	header := []string{"billing_npi", "claim_month", "paid", "rolling_mean", "rolling_std", "spike_ratio", "z_spike"}
	rows := make([][]string, 0, len(res.Events))
	for _, e := range res.Events {
		rows = append(rows, []string{
			e.NPI, formatMonth(e.Month), formatFloat(e.Paid),
			formatFloat(e.RollingMean), formatFloat(e.RollingStd),
			formatFloat(e.SpikeRatio), formatFloat(e.ZSpike),
		})
	}
	if err := rt.Sink.WriteTable("fraud", "34_velocity_spikes", header, rows); err != nil {
		return err
	}

	header = []string{"billing_npi", "spike_count", "max_spike_ratio", "max_spike_paid", "total_spike_paid"}
	rows = rows[:0]
	for _, p := range res.Providers {
		rows = append(rows, []string{
			p.NPI, formatInt(int64(p.SpikeCount)), formatFloat(p.MaxSpikeRatio),
			formatFloat(p.MaxSpikePaid), formatFloat(p.TotalPaid),
		})
	}
	return rt.Sink.WriteTable("fraud", "34_velocity_providers", header, rows)
}

func runPhantom(ctx context.Context, rt *Runtime) error {
	res, err := fraud.DetectPhantom(ctx, rt.Pool, rt.Log, rt.Th.Phantom)
	if err != nil {
		return err
	}
	rt.Signals.Phantom = res.FlaggedSet()

	header := []string{"billing_npi", "hcpcs_code", "claims_per_bene", "peer_p95", "ratio_to_p95", "total_paid", "total_claims", "total_bene"}
	rows := make([][]string, 0, len(res.Flagged))
	for _, r := range res.Flagged {
		rows = append(rows, []string{
			r.NPI, r.HCPCSCode, formatFloat(r.ClaimsPerBene),
			formatFloat(r.PeerP95), formatFloat(r.RatioToP95),
			formatFloat(r.TotalPaid), formatInt(r.TotalClaims), formatInt(r.TotalBene),
		})
	}
	return rt.Sink.WriteTable("fraud", "35_phantom_flagged", header, rows)
}

func runClustering(ctx context.Context, rt *Runtime) error {
	res, err := fraud.ClusterProviders(ctx, rt.Pool, rt.Log, rt.Th.Clustering)
	if err != nil {
		return err
	}
	// Diagnostic only: clustering contributes no composite signal.

	header := []string{"billing_npi", "cluster", "total_paid", "total_claims", "total_bene", "n_codes", "active_months", "avg_cpc", "n_servicing"}
	rows := make([][]string, 0, len(res.Profiles))
	for _, p := range res.Profiles {
		rows = append(rows, []string{
			p.NPI, formatInt(int64(p.Cluster)), formatFloat(p.TotalPaid),
			formatInt(p.TotalClaims), formatInt(p.TotalBene), formatInt(p.NCodes),
			formatInt(p.ActiveMonths), formatFloat(p.AvgCPC), formatInt(p.NServicing),
		})
	}
	if err := rt.Sink.WriteTable("fraud", "36_provider_clusters", header, rows); err != nil {
		return err
	}

	header = []string{"cluster", "providers", "pct", "avg_paid", "avg_claims", "avg_cpc", "avg_codes", "avg_months"}
	rows = rows[:0]
	for _, s := range res.Summaries {
		rows = append(rows, []string{
			formatInt(int64(s.Cluster)), formatInt(int64(s.Count)), formatFloat(s.Pct),
			formatFloat(s.AvgPaid), formatFloat(s.AvgClaims), formatFloat(s.AvgCPC),
			formatFloat(s.AvgCodes), formatFloat(s.AvgMonths),
		})
	}
	return rt.Sink.WriteTable("fraud", "36_cluster_stats", header, rows)
}

func runCostOutliers(ctx context.Context, rt *Runtime) error {
	res, err := fraud.DetectCostOutliers(ctx, rt.Pool, rt.Log, rt.Th.CostOutlier)
	if err != nil {
		return err
	}
	rt.Signals.CostOutlier = res.FlaggedSet()

	header := []string{"billing_npi", "hcpcs_code", "cost_per_claim", "median_cpc", "upper_fence", "excess_ratio", "total_paid", "total_claims"}
	rows := make([][]string, 0, len(res.Flagged))
	for _, r := range res.Flagged {
		rows = append(rows, []string{
			r.NPI, r.HCPCSCode, formatFloat(r.CostPerUnit),
			formatFloat(r.Median), formatFloat(r.UpperFence), formatFloat(r.ExcessRatio),
			formatFloat(r.TotalPaid), formatInt(r.TotalClaims),
		})
	}
	return rt.Sink.WriteTable("fraud", "37_cost_outliers", header, rows)
}

func runRelationships(ctx context.Context, rt *Runtime) error {
	res, err := fraud.DetectRelationships(ctx, rt.Pool, rt.Log, rt.Th.Relationship)
	if err != nil {
		return err
	}
	rt.Signals.Relationship = res.FlaggedSet()

	header := []string{"billing_npi", "servicing_npi", "relationship_paid", "concentration_pct", "shared_codes", "shared_months", "concentrated", "broad"}
	rows := make([][]string, 0, len(res.Flagged))
	for _, p := range res.Flagged {
		rows = append(rows, []string{
			p.BillingNPI, p.ServicingNPI, formatFloat(p.RelationshipPaid),
			formatFloat(p.ConcentrationPct), formatInt(p.SharedCodes), formatInt(p.SharedMonths),
			boolStr(p.Concentrated), boolStr(p.Broad),
		})
	}
	return rt.Sink.WriteTable("fraud", "38_billing_servicing_anomalies", header, rows)
}

func runTemporal(ctx context.Context, rt *Runtime) error {
	res, err := fraud.DetectTemporal(ctx, rt.Pool, rt.Log, rt.Th.Temporal)
	if err != nil {
		return err
	}
	rt.Signals.Temporal = res.FlaggedSet()

	header := []string{"billing_npi", "active_months", "total_paid", "entropy", "cv", "max_concentration", "concentrated_time", "high_cv"}
	rows := make([][]string, 0, len(res.Profiles))
	for _, p := range res.Profiles {
		rows = append(rows, []string{
			p.NPI, formatInt(int64(p.ActiveMonths)), formatFloat(p.TotalPaid),
			formatFloat(p.Entropy), formatFloat(p.CV), formatFloat(p.MaxConcentration),
			boolStr(p.ConcentratedTime), boolStr(p.HighCV),
		})
	}
	if err := rt.Sink.WriteTable("fraud", "39_temporal_profiles", header, rows); err != nil {
		return err
	}

	rows = rows[:0]
	for _, p := range res.Flagged {
		rows = append(rows, []string{
			p.NPI, formatInt(int64(p.ActiveMonths)), formatFloat(p.TotalPaid),
			formatFloat(p.Entropy), formatFloat(p.CV), formatFloat(p.MaxConcentration),
			boolStr(p.ConcentratedTime), boolStr(p.HighCV),
		})
	}
	return rt.Sink.WriteTable("fraud", "39_temporal_flagged", header, rows)
}

func runComposite(ctx context.Context, rt *Runtime) error {
	res, err := fraud.ScoreProviders(ctx, rt.Pool, rt.Log, rt.Th.Composite, rt.Signals)
	if err != nil {
		return err
	}

	header := []string{"billing_npi", "total_paid", "total_claims"}
	for _, sig := range fraud.AllSignals {
		header = append(header, "risk_"+string(sig))
	}
	header = append(header, "fraud_score", "risk_tier")

	scoreRow := func(s fraud.ProviderScore) []string {
		row := []string{s.NPI, formatFloat(s.TotalPaid), formatInt(s.TotalClaims)}
		for _, sig := range fraud.AllSignals {
			if s.Flags[sig] {
				row = append(row, "1")
			} else {
				row = append(row, "0")
			}
		}
		return append(row, formatInt(int64(s.Score)), string(s.Tier))
	}

	rows := make([][]string, 0, len(res.Scores))
	for _, s := range res.Scores {
		rows = append(rows, scoreRow(s))
	}
	if err := rt.Sink.WriteTable("fraud", "40_fraud_risk_scores", header, rows); err != nil {
		return err
	}

	tierHeader := []string{"risk_tier", "providers", "total_paid", "pct_providers", "pct_spending"}
	tierRows := make([][]string, 0, len(res.Tiers))
	for _, t := range res.Tiers {
		tierRows = append(tierRows, []string{
			string(t.Tier), formatInt(int64(t.Providers)), formatFloat(t.TotalPaid),
			formatFloat(t.PctProviders), formatFloat(t.PctSpending),
		})
	}
	if err := rt.Sink.WriteTable("fraud", "40_risk_tier_summary", tierHeader, tierRows); err != nil {
		return err
	}

	rows = rows[:0]
	for _, s := range res.HighRisk {
		rows = append(rows, scoreRow(s))
	}
	return rt.Sink.WriteTable("fraud", "40_high_risk_providers", header, rows)
}

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
