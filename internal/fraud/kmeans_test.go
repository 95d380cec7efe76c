package fraud

import (
	"math"
	"testing"
)

// threeBlobs returns points in three tight, well-separated groups.
func threeBlobs() [][]float64 {
	var rows [][]float64
	for _, center := range [][]float64{{0, 0}, {10, 10}, {-10, 10}} {
		for _, d := range []float64{-0.2, -0.1, 0, 0.1, 0.2} {
			rows = append(rows, []float64{center[0] + d, center[1] - d})
		}
	}
	return rows
}

func TestKMeansSeparatesBlobs(t *testing.T) {
	rows := threeBlobs()
	res := kmeans(rows, 3, 10, 300, 42)

	// Every point in a blob must share a label, and the three blobs must
	// land in three distinct clusters.
	seen := make(map[int]bool)
	for blob := 0; blob < 3; blob++ {
		label := res.Labels[blob*5]
		for i := blob * 5; i < blob*5+5; i++ {
			if res.Labels[i] != label {
				t.Fatalf("blob %d split across clusters: %v", blob, res.Labels)
			}
		}
		if seen[label] {
			t.Fatalf("two blobs share cluster %d: %v", label, res.Labels)
		}
		seen[label] = true
	}
}

func TestKMeansDeterministicForSeed(t *testing.T) {
	rows := threeBlobs()
	a := kmeans(rows, 3, 10, 300, 42)
	b := kmeans(rows, 3, 10, 300, 42)
	for i := range a.Labels {
		if a.Labels[i] != b.Labels[i] {
			t.Fatalf("labels differ at %d: %d vs %d", i, a.Labels[i], b.Labels[i])
		}
	}
	if a.Inertia != b.Inertia {
		t.Fatalf("inertia differs: %g vs %g", a.Inertia, b.Inertia)
	}
}

func TestLog1pStandardize(t *testing.T) {
	rows := [][]float64{{0, 5}, {1, 5}, {3, 5}}
	out := log1pStandardize(rows)

	// First feature: zero mean, unit population deviation.
	var mean, variance float64
	for _, r := range out {
		mean += r[0]
	}
	mean /= 3
	for _, r := range out {
		variance += (r[0] - mean) * (r[0] - mean)
	}
	std := math.Sqrt(variance / 3)
	if math.Abs(mean) > 1e-12 {
		t.Errorf("standardized mean = %g, want 0", mean)
	}
	if math.Abs(std-1) > 1e-12 {
		t.Errorf("standardized std = %g, want 1", std)
	}

	// Constant feature stays at zero instead of NaN.
	for i, r := range out {
		if r[1] != 0 {
			t.Errorf("constant feature row %d = %g, want 0", i, r[1])
		}
	}
}
