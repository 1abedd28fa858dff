package geometry

import "sort"

// Median returns the median of the positive values in vs, or fallback when
// no positive values remain. Page statistics ignore degenerate measurements
// so a handful of zero-height tokens cannot skew thresholds.
func Median(vs []float64, fallback float64) float64 {
	pos := make([]float64, 0, len(vs))
	for _, v := range vs {
		if v > 0 {
			pos = append(pos, v)
		}
	}
	if len(pos) == 0 {
		return fallback
	}
	sort.Float64s(pos)
	mid := len(pos) / 2
	if len(pos)%2 == 1 {
		return pos[mid]
	}
	return (pos[mid-1] + pos[mid]) / 2.0
}

// Cluster1D groups sorted points into clusters where consecutive members are
// within tol of each other. Input order does not matter; the result is sorted
// ascending by cluster position.
func Cluster1D(points []float64, tol float64) [][]float64 {
	if len(points) == 0 {
		return nil
	}
	pts := make([]float64, len(points))
	copy(pts, points)
	sort.Float64s(pts)

	clusters := [][]float64{{pts[0]}}
	for _, p := range pts[1:] {
		last := clusters[len(clusters)-1]
		if p-last[len(last)-1] <= tol {
			clusters[len(clusters)-1] = append(last, p)
		} else {
			clusters = append(clusters, []float64{p})
		}
	}
	return clusters
}

// ClusterCenters returns the mean of each cluster produced by Cluster1D.
func ClusterCenters(points []float64, tol float64) []float64 {
	clusters := Cluster1D(points, tol)
	centers := make([]float64, 0, len(clusters))
	for _, c := range clusters {
		var sum float64
		for _, v := range c {
			sum += v
		}
		centers = append(centers, sum/float64(len(c)))
	}
	return centers
}

// NearestIndex returns the index of the center closest to value.
// Returns -1 for an empty slice.
func NearestIndex(centers []float64, value float64) int {
	best := -1
	bestDist := 0.0
	for i, c := range centers {
		d := value - c
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
