package fraud

import (
	"math"
	"math/rand"
)

// kmeansResult is one converged run: assignments per row, centroids, and
// the total within-cluster sum of squared distances.
type kmeansResult struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

// kmeans runs Lloyd's algorithm with k-means++ seeding, restarted
// `restarts` times from the given seed, keeping the run with the lowest
// inertia. Deterministic for a fixed seed. Rows must all have the same
// dimension; k must not exceed len(rows).
func kmeans(rows [][]float64, k, restarts, maxIter int, seed int64) kmeansResult {
	rng := rand.New(rand.NewSource(seed))
	best := kmeansResult{Inertia: math.Inf(1)}
	for r := 0; r < restarts; r++ {
		res := kmeansOnce(rows, k, maxIter, rng)
		if res.Inertia < best.Inertia {
			best = res
		}
	}
	return best
}

func kmeansOnce(rows [][]float64, k, maxIter int, rng *rand.Rand) kmeansResult {
	centroids := seedPlusPlus(rows, k, rng)
	labels := make([]int, len(rows))
	counts := make([]int, k)
	sums := make([][]float64, k)
	dim := len(rows[0])
	for i := range sums {
		sums[i] = make([]float64, dim)
	}

	var inertia float64
	for iter := 0; iter < maxIter; iter++ {
		inertia = 0
		moved := false
		for i, row := range rows {
			c, d := nearestCentroid(row, centroids)
			inertia += d
			if labels[i] != c || iter == 0 {
				labels[i] = c
				moved = true
			}
		}
		if !moved {
			break
		}

		for c := 0; c < k; c++ {
			counts[c] = 0
			for j := range sums[c] {
				sums[c][j] = 0
			}
		}
		for i, row := range rows {
			c := labels[i]
			counts[c]++
			for j, v := range row {
				sums[c][j] += v
			}
		}
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				// Empty cluster: reseed on the point farthest from its centroid.
				centroids[c] = append([]float64(nil), rows[farthestPoint(rows, labels, centroids)]...)
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = sums[c][j] / float64(counts[c])
			}
		}
	}
	return kmeansResult{Labels: labels, Centroids: centroids, Inertia: inertia}
}

// seedPlusPlus picks initial centroids with probability proportional to
// squared distance from the nearest already-chosen centroid.
func seedPlusPlus(rows [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	centroids = append(centroids, append([]float64(nil), rows[rng.Intn(len(rows))]...))

	d2 := make([]float64, len(rows))
	for len(centroids) < k {
		var total float64
		for i, row := range rows {
			_, d := nearestCentroid(row, centroids)
			d2[i] = d
			total += d
		}
		if total == 0 {
			centroids = append(centroids, append([]float64(nil), rows[rng.Intn(len(rows))]...))
			continue
		}
		target := rng.Float64() * total
		var cum float64
		pick := len(rows) - 1
		for i, d := range d2 {
			cum += d
			if cum >= target {
				pick = i
				break
			}
		}
		centroids = append(centroids, append([]float64(nil), rows[pick]...))
	}
	return centroids
}

func nearestCentroid(row []float64, centroids [][]float64) (int, float64) {
	best, bestD := 0, math.Inf(1)
	for c, cent := range centroids {
		var d float64
		for j, v := range row {
			diff := v - cent[j]
			d += diff * diff
		}
		if d < bestD {
			best, bestD = c, d
		}
	}
	return best, bestD
}

func farthestPoint(rows [][]float64, labels []int, centroids [][]float64) int {
	best, bestD := 0, -1.0
	for i, row := range rows {
		cent := centroids[labels[i]]
		var d float64
		for j, v := range row {
			diff := v - cent[j]
			d += diff * diff
		}
		if d > bestD {
			best, bestD = i, d
		}
	}
	return best
}

// log1pStandardize maps each feature through log1p then standardizes it to
// zero mean and unit population deviation. Constant features stay at zero
// rather than dividing by zero.
func log1pStandardize(rows [][]float64) [][]float64 {
	if len(rows) == 0 {
		return nil
	}
	dim := len(rows[0])
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, dim)
		for j, v := range row {
			out[i][j] = math.Log1p(v)
		}
	}

	for j := 0; j < dim; j++ {
		var mean float64
		for i := range out {
			mean += out[i][j]
		}
		mean /= float64(len(out))
		var variance float64
		for i := range out {
			d := out[i][j] - mean
			variance += d * d
		}
		std := math.Sqrt(variance / float64(len(out)))
		for i := range out {
			if std > 0 {
				out[i][j] = (out[i][j] - mean) / std
			} else {
				out[i][j] = 0
			}
		}
	}
	return out
}
