package vector

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{0.6, 0.8}, []float64{0.6, 0.8}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"unnormalized", []float64{3, 0}, []float64{5, 0}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CosineSimilarity(tt.a, tt.b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
			assert.GreaterOrEqual(t, got, -1.0)
			assert.LessOrEqual(t, got, 1.0)
		})
	}
}

func TestCosineSimilarity_Errors(t *testing.T) {
	_, err := CosineSimilarity([]float64{1, 0}, []float64{1, 0, 0})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, err = CosineSimilarity([]float64{0, 0}, []float64{1, 0})
	assert.ErrorIs(t, err, ErrInvalidVector)

	_, err = CosineSimilarity(nil, nil)
	assert.ErrorIs(t, err, ErrInvalidVector)
}

func TestNormalize(t *testing.T) {
	v := []float64{3, 4}
	require.NoError(t, Normalize(v))
	assert.InDelta(t, 0.6, v[0], 1e-12)
	assert.InDelta(t, 0.8, v[1], 1e-12)
	assert.InDelta(t, 1.0, L2Norm(v), 1e-12)

	zero := []float64{0, 0}
	assert.ErrorIs(t, Normalize(zero), ErrInvalidVector)
	assert.Equal(t, []float64{0, 0}, zero)

	assert.ErrorIs(t, Normalize([]float64{math.NaN(), 1}), ErrInvalidVector)
	assert.ErrorIs(t, Normalize([]float64{math.Inf(1), 1}), ErrInvalidVector)
}
