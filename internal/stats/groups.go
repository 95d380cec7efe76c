package stats

// GroupStat is the peer baseline for one group (e.g. one HCPCS code):
// member count, mean, population deviation, and the order statistics the
// detectors threshold against.
type GroupStat struct {
	Key    string
	N      int
	Mean   float64
	StdPop float64
	Median float64
	P95    float64
	P99    float64
}

// GroupStats computes a GroupStat per key for every group with at least
// minSize members. Groups below the threshold are dropped entirely: their
// members are ineligible for peer comparison, not compared against a noisy
// baseline.
func GroupStats(groups map[string][]float64, minSize int) map[string]GroupStat {
	out := make(map[string]GroupStat, len(groups))
	for key, xs := range groups {
		if len(xs) < minSize {
			continue
		}
		out[key] = GroupStat{
			Key:    key,
			N:      len(xs),
			Mean:   Mean(xs),
			StdPop: StdDevPop(xs),
			Median: Median(xs),
			P95:    Percentile(xs, 0.95),
			P99:    Percentile(xs, 0.99),
		}
	}
	return out
}
