package config

import "fmt"

// Thresholds collects every tunable cutoff used by the fraud detectors.
// The defaults mirror the values the signal definitions were calibrated
// with; none of them has a derivation beyond that calibration, which is
// why they live here instead of being buried in detector code.
type Thresholds struct {
	Upcoding     UpcodingThresholds     `yaml:"upcoding"`
	Velocity     VelocityThresholds     `yaml:"velocity"`
	Phantom      PhantomThresholds      `yaml:"phantom"`
	CostOutlier  CostOutlierThresholds  `yaml:"cost_outlier"`
	Relationship RelationshipThresholds `yaml:"relationship"`
	Temporal     TemporalThresholds     `yaml:"temporal"`
	Clustering   ClusteringThresholds   `yaml:"clustering"`
	Composite    CompositeThresholds    `yaml:"composite"`
}

type UpcodingThresholds struct {
	MinPeerProviders int     `yaml:"min_peer_providers"` // peer group eligibility
	MinCodesBilled   int     `yaml:"min_codes_billed"`   // provider eligibility
	HighZ            float64 `yaml:"high_z"`             // per-code "high" z cutoff
	FlagAvgZ         float64 `yaml:"flag_avg_z"`
	FlagHighZShare   float64 `yaml:"flag_high_z_share"`
}

type VelocityThresholds struct {
	MinActiveMonths int     `yaml:"min_active_months"`
	WindowMonths    int     `yaml:"window_months"`
	MinWindowObs    int     `yaml:"min_window_obs"`
	FlagSpikeRatio  float64 `yaml:"flag_spike_ratio"`
	FlagSpikeZ      float64 `yaml:"flag_spike_z"`
}

type PhantomThresholds struct {
	FlagP95Ratio    float64 `yaml:"flag_p95_ratio"`
	AbsoluteCeiling float64 `yaml:"absolute_ceiling"` // claims per beneficiary
	P95Floor        float64 `yaml:"p95_floor"`
}

type CostOutlierThresholds struct {
	MinPeerObs      int     `yaml:"min_peer_obs"`
	FenceIQRMult    float64 `yaml:"fence_iqr_mult"`
	FlagExcessRatio float64 `yaml:"flag_excess_ratio"`
	MedianFloor     float64 `yaml:"median_floor"`
}

type RelationshipThresholds struct {
	FlagConcentrationPct float64 `yaml:"flag_concentration_pct"`
	MinRelationshipPaid  float64 `yaml:"min_relationship_paid"`
	BroadCodePercentile  float64 `yaml:"broad_code_percentile"`
}

type TemporalThresholds struct {
	MinActiveMonths   int     `yaml:"min_active_months"`
	EntropyPercentile float64 `yaml:"entropy_percentile"`
	MinTotalPaid      float64 `yaml:"min_total_paid"`
	FlagHighCV        float64 `yaml:"flag_high_cv"`
}

type ClusteringThresholds struct {
	Clusters     int     `yaml:"clusters"`
	Restarts     int     `yaml:"restarts"`
	MaxIter      int     `yaml:"max_iter"`
	Seed         int64   `yaml:"seed"`
	MinTotalPaid float64 `yaml:"min_total_paid"`
}

type CompositeThresholds struct {
	HighRiskMinScore int `yaml:"high_risk_min_score"`
}

// DefaultThresholds returns the calibrated defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Upcoding: UpcodingThresholds{
			MinPeerProviders: 20,
			MinCodesBilled:   3,
			HighZ:            2.0,
			FlagAvgZ:         1.5,
			FlagHighZShare:   0.5,
		},
		Velocity: VelocityThresholds{
			MinActiveMonths: 4,
			WindowMonths:    3,
			MinWindowObs:    2,
			FlagSpikeRatio:  5,
			FlagSpikeZ:      4,
		},
		Phantom: PhantomThresholds{
			FlagP95Ratio:    3,
			AbsoluteCeiling: 50,
			P95Floor:        0.1,
		},
		CostOutlier: CostOutlierThresholds{
			MinPeerObs:      30,
			FenceIQRMult:    3,
			FlagExcessRatio: 3,
			MedianFloor:     0.01,
		},
		Relationship: RelationshipThresholds{
			FlagConcentrationPct: 90,
			MinRelationshipPaid:  10000,
			BroadCodePercentile:  0.95,
		},
		Temporal: TemporalThresholds{
			MinActiveMonths:   6,
			EntropyPercentile: 0.05,
			MinTotalPaid:      5000,
			FlagHighCV:        2,
		},
		Clustering: ClusteringThresholds{
			Clusters:     6,
			Restarts:     10,
			MaxIter:      300,
			Seed:         42,
			MinTotalPaid: 1000,
		},
		Composite: CompositeThresholds{
			HighRiskMinScore: 2,
		},
	}
}

// Validate rejects threshold combinations that would make a detector
// degenerate (empty windows, zero clusters, out-of-range percentiles).
func (t *Thresholds) Validate() error {
	if t.Upcoding.MinPeerProviders < 2 {
		return fmt.Errorf("upcoding.min_peer_providers must be >= 2, got %d", t.Upcoding.MinPeerProviders)
	}
	if t.Velocity.WindowMonths < 2 || t.Velocity.MinWindowObs < 1 {
		return fmt.Errorf("velocity window %d/%d too small", t.Velocity.WindowMonths, t.Velocity.MinWindowObs)
	}
	if t.Velocity.MinActiveMonths < t.Velocity.MinWindowObs+1 {
		return fmt.Errorf("velocity.min_active_months %d cannot support a lagged %d-observation window",
			t.Velocity.MinActiveMonths, t.Velocity.MinWindowObs)
	}
	if t.CostOutlier.MinPeerObs < 4 {
		return fmt.Errorf("cost_outlier.min_peer_obs must be >= 4 for quartiles, got %d", t.CostOutlier.MinPeerObs)
	}
	for name, p := range map[string]float64{
		"relationship.broad_code_percentile": t.Relationship.BroadCodePercentile,
		"temporal.entropy_percentile":        t.Temporal.EntropyPercentile,
	} {
		if p <= 0 || p >= 1 {
			return fmt.Errorf("%s must be in (0,1), got %g", name, p)
		}
	}
	if t.Clustering.Clusters < 1 || t.Clustering.Restarts < 1 || t.Clustering.MaxIter < 1 {
		return fmt.Errorf("clustering needs positive clusters/restarts/max_iter")
	}
	return nil
}
