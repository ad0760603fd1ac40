package domain

import "math"

// EuclideanDistance returns the L2 distance between two vectors.
// Mismatched lengths yield +Inf so the pair ranks last.
func EuclideanDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// CosineDistance returns 1 - cosine similarity, so that smaller is
// closer under both metrics. Zero vectors yield +Inf.
func CosineDistance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return math.Inf(1)
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// Distance computes the distance between two vectors under metric.
func Distance(metric DistanceMetric, a, b []float32) float64 {
	if metric == MetricCosine {
		return CosineDistance(a, b)
	}
	return EuclideanDistance(a, b)
}

// SimilarityFromDistance maps a distance to the (0, 1] similarity
// scale: 1 / (1 + distance). Identical vectors score 1.0 under the
// euclidean metric.
func SimilarityFromDistance(distance float64) float64 {
	if math.IsInf(distance, 1) {
		return 0
	}
	return 1 / (1 + distance)
}
