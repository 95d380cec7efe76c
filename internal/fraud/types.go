// Package fraud implements the anomaly-signal detectors and the composite
// risk scorer. Each detector reads the claims.billing_monthly fact table
// through its own aggregation query, compares providers against peer
// statistics, and emits a typed set of flagged providers. Detectors are
// independent of each other; only the composite scorer consumes their
// outputs, and it tolerates any subset being absent.
package fraud

import "time"

// SignalKind identifies one anomaly signal.
type SignalKind string

const (
	SignalUpcoding     SignalKind = "upcoding"
	SignalVelocity     SignalKind = "velocity"
	SignalPhantom      SignalKind = "phantom"
	SignalCostOutlier  SignalKind = "cost_outlier"
	SignalRelationship SignalKind = "relationship"
	SignalTemporal     SignalKind = "temporal"
)

// AllSignals lists the signals in composite-score order.
var AllSignals = []SignalKind{
	SignalUpcoding,
	SignalVelocity,
	SignalPhantom,
	SignalCostOutlier,
	SignalRelationship,
	SignalTemporal,
}

// ProviderSet is a membership set of billing provider IDs.
type ProviderSet map[string]struct{}

// NewProviderSet builds a set from a list of IDs.
func NewProviderSet(npis ...string) ProviderSet {
	s := make(ProviderSet, len(npis))
	for _, n := range npis {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports membership. A nil set contains nothing, so an absent
// detector output behaves exactly like an empty one.
func (s ProviderSet) Contains(npi string) bool {
	if s == nil {
		return false
	}
	_, ok := s[npi]
	return ok
}

// MonthlyPoint is one month of a provider's billing series.
type MonthlyPoint struct {
	Month  time.Time
	Paid   float64
	Claims int64
	Codes  int64
}
