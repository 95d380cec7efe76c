package stats

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanAndStd(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(xs), 1e-12)
	assert.InDelta(t, 2.0, StdDevPop(xs), 1e-12)
	assert.InDelta(t, 2.138089935, StdDevSamp(xs), 1e-9)

	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, StdDevPop([]float64{3}))
	assert.Equal(t, 0.0, StdDevSamp([]float64{3}))
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	xs := []float64{10, 20, 30, 40}
	// rank = p*(n-1): p95 over 4 points sits between the last two values.
	assert.InDelta(t, 38.5, Percentile(xs, 0.95), 1e-12)
	assert.InDelta(t, 25.0, Median(xs), 1e-12)
	assert.InDelta(t, 10.0, Percentile(xs, 0), 1e-12)
	assert.InDelta(t, 40.0, Percentile(xs, 1), 1e-12)

	q1, med, q3 := Quartiles([]float64{1, 2, 3, 4, 5})
	assert.InDelta(t, 2.0, q1, 1e-12)
	assert.InDelta(t, 3.0, med, 1e-12)
	assert.InDelta(t, 4.0, q3, 1e-12)

	assert.Equal(t, 0.0, Percentile(nil, 0.5))
}

func TestPercentile_DoesNotMutateInput(t *testing.T) {
	xs := []float64{3, 1, 2}
	Percentile(xs, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, xs)
}

// Aggregation must not depend on row order.
func TestOrderInvariance(t *testing.T) {
	base := []float64{5, 1, 12, 7, 3, 3, 9, 100, 0.5}
	shuffled := make([]float64, len(base))
	copy(shuffled, base)
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		assert.Equal(t, Mean(base), Mean(shuffled))
		assert.Equal(t, StdDevPop(base), StdDevPop(shuffled))
		assert.Equal(t, Percentile(base, 0.95), Percentile(shuffled, 0.95))
		assert.Equal(t, Entropy(base), Entropy(shuffled))
	}
}

func TestEntropy_Degenerate(t *testing.T) {
	assert.Equal(t, 0.0, Entropy(nil))
	assert.Equal(t, 0.0, Entropy([]float64{100}), "single active month")
	assert.Equal(t, 0.0, Entropy([]float64{0, 0, 0}), "zero total paid")
	assert.False(t, math.IsNaN(Entropy([]float64{0, 5, 0})))
}

func TestEntropy_Uniform(t *testing.T) {
	// Uniform distribution over n outcomes has entropy ln(n).
	h := Entropy([]float64{10, 10, 10, 10})
	assert.InDelta(t, math.Log(4), h, 1e-12)

	// Concentration strictly lowers entropy.
	assert.Less(t, Entropy([]float64{97, 1, 1, 1}), h)
}

func TestCV(t *testing.T) {
	assert.Equal(t, 0.0, CV([]float64{0, 0}), "zero mean")
	assert.Equal(t, 0.0, CV([]float64{-5, -5}), "negative mean")
	assert.InDelta(t, 0.0, CV([]float64{10, 10, 10}), 1e-12)
	assert.Greater(t, CV([]float64{0, 0, 0, 0, 0, 100}), 2.0)
}

func TestSafeDiv(t *testing.T) {
	v, ok := SafeDiv(10, 4)
	assert.True(t, ok)
	assert.Equal(t, 2.5, v)

	for _, den := range []float64{0, -1} {
		v, ok := SafeDiv(10, den)
		assert.False(t, ok)
		assert.Equal(t, 0.0, v)
	}
}

func TestZScore_ZeroStdNeverFlags(t *testing.T) {
	assert.Equal(t, 0.0, ZScore(1e9, 100, 0))
	assert.InDelta(t, 2.0, ZScore(120, 100, 10), 1e-12)
}

func TestGroupStats_MinSize(t *testing.T) {
	groups := map[string][]float64{
		"A": {1, 2, 3, 4, 5},
		"B": {1, 2}, // below threshold
	}
	out := GroupStats(groups, 3)
	assert.Contains(t, out, "A")
	assert.NotContains(t, out, "B", "undersized groups must be excluded entirely")
	assert.Equal(t, 5, out["A"].N)
	assert.InDelta(t, 3.0, out["A"].Mean, 1e-12)
}
