package fraud

import "testing"

func TestTierForScore(t *testing.T) {
	cases := []struct {
		score int
		want  RiskTier
	}{
		{0, TierClean},
		{1, TierLow},
		{2, TierMedium},
		{3, TierHigh},
		{4, TierHigh},
		{5, TierHigh},
		{6, TierHigh},
	}
	for _, tc := range cases {
		if got := TierForScore(tc.score); got != tc.want {
			t.Errorf("TierForScore(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestProviderSetNilSafe(t *testing.T) {
	var s ProviderSet
	if s.Contains("1234567893") {
		t.Error("nil set must contain nothing")
	}
	s = NewProviderSet("1234567893")
	if !s.Contains("1234567893") {
		t.Error("membership lost")
	}
	if s.Contains("9999999995") {
		t.Error("false membership")
	}
}

func TestSignalsPartialSubset(t *testing.T) {
	// Only two detectors ran; the rest are nil. Scores count just those two.
	sig := Signals{
		Upcoding: NewProviderSet("1111111116", "2222222224"),
		Temporal: NewProviderSet("1111111116"),
	}
	score := 0
	for _, set := range []ProviderSet{sig.Upcoding, sig.Velocity, sig.Phantom,
		sig.CostOutlier, sig.Relationship, sig.Temporal} {
		if set.Contains("1111111116") {
			score++
		}
	}
	if score != 2 {
		t.Fatalf("score = %d, want 2", score)
	}
	if TierForScore(score) != TierMedium {
		t.Fatalf("tier = %s, want Medium", TierForScore(score))
	}
}
