package vector

import (
	"fmt"
	"math"
)

// CosineSimilarity returns dot(a, b) / (|a| * |b|), clamped to [-1, 1].
// Vectors of different length fail with ErrDimensionMismatch; an empty or zero-magnitude
// operand fails with ErrInvalidVector.
func CosineSimilarity(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, fmt.Errorf("%w: empty vector", ErrInvalidVector)
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("%w: zero magnitude", ErrInvalidVector)
	}
	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0, fmt.Errorf("%w: non-finite similarity", ErrInvalidVector)
	}
	return math.Max(-1, math.Min(1, sim)), nil
}

// L2Norm returns the Euclidean norm of x.
func L2Norm(x []float64) float64 {
	var sum float64
	for _, v := range x {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Normalize scales x in place to unit L2 norm. A zero or non-finite magnitude leaves x
// unchanged and returns ErrInvalidVector.
func Normalize(x []float64) error {
	if err := CheckFinite(x); err != nil {
		return err
	}
	mag := L2Norm(x)
	if mag == 0 || math.IsInf(mag, 0) {
		return fmt.Errorf("%w: cannot normalize magnitude %v", ErrInvalidVector, mag)
	}
	for i := range x {
		x[i] /= mag
	}
	return nil
}

// CheckFinite returns ErrInvalidVector if any component of x is NaN or infinite.
func CheckFinite(x []float64) error {
	for i, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: component %d is %v", ErrInvalidVector, i, v)
		}
	}
	return nil
}
