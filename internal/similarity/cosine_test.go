package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"scaled is identical", []float64{1, 2}, []float64{2, 4}, 1},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Cosine(tt.a, tt.b)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestCosineSymmetric(t *testing.T) {
	a := []float64{0.3, -0.7, 0.2, 0.9}
	b := []float64{0.1, 0.4, -0.5, 0.8}
	assert.Equal(t, Cosine(a, b), Cosine(b, a))
}

func TestCosineBounded(t *testing.T) {
	a := []float64{1e150, 1e-150}
	b := []float64{1e150, 1e150}
	got := Cosine(a, b)
	assert.False(t, math.IsNaN(got))
	assert.LessOrEqual(t, got, 1.0+Epsilon)
	assert.GreaterOrEqual(t, got, -1.0-Epsilon)
}
