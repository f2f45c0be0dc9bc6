package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(n int, start, step float64) []float64 {
	values := make([]float64, n)
	for i := range values {
		values[i] = start + float64(i)*step
	}
	return values
}

func TestCalculateSMA(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		window   int
		expected *float64
	}{
		{name: "one short of window", values: series(19, 1, 1), window: 20},
		{name: "exact window", values: []float64{1, 2, 3, 4}, window: 4, expected: ptr(2.5)},
		{name: "uses last window only", values: []float64{100, 1, 2, 3}, window: 3, expected: ptr(2)},
		{name: "zero window", values: []float64{1, 2}, window: 0},
		{name: "negative window", values: []float64{1, 2}, window: -1},
		{name: "empty input", values: nil, window: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateSMA(tt.values, tt.window)
			if tt.expected == nil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.InDelta(t, *tt.expected, *result, 1e-12)
		})
	}
}

func TestCalculateEMA(t *testing.T) {
	t.Run("seeded with first value", func(t *testing.T) {
		// k = 0.5: 1 -> 1.5 -> 2.25
		result := CalculateEMA([]float64{1, 2, 3}, 3)
		require.NotNil(t, result)
		assert.Equal(t, 2.25, *result)
	})

	t.Run("runs over the whole sequence", func(t *testing.T) {
		values := []float64{10, 10, 10, 20}
		result := CalculateEMA(values, 3)
		require.NotNil(t, result)
		assert.Equal(t, 15.0, *result)
	})

	t.Run("boundary uses less-than", func(t *testing.T) {
		assert.Nil(t, CalculateEMA([]float64{1, 2}, 3))
		assert.NotNil(t, CalculateEMA([]float64{1, 2, 3}, 3))
	})

	t.Run("invalid window", func(t *testing.T) {
		assert.Nil(t, CalculateEMA([]float64{1, 2, 3}, 0))
	})
}

func TestCalculateROC(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		window   int
		expected *float64
	}{
		{name: "length equal to window", values: []float64{1, 2, 3, 4, 5}, window: 5},
		{name: "length window plus one", values: []float64{100, 1, 2, 3, 4, 110}, window: 5, expected: ptr(0.1)},
		{name: "negative change", values: []float64{200, 150}, window: 1, expected: ptr(-0.25)},
		{name: "zero reference price", values: []float64{0, 1, 2}, window: 2},
		{name: "zero window", values: []float64{1, 2}, window: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CalculateROC(tt.values, tt.window)
			if tt.expected == nil {
				assert.Nil(t, result)
				return
			}
			require.NotNil(t, result)
			assert.InDelta(t, *tt.expected, *result, 1e-12)
		})
	}
}

func TestCalculateRSI(t *testing.T) {
	t.Run("length equal to period is unavailable", func(t *testing.T) {
		assert.Nil(t, CalculateRSI(series(14, 1, 1), 14))
	})

	t.Run("period plus one is available", func(t *testing.T) {
		assert.NotNil(t, CalculateRSI(series(15, 1, 1), 14))
	})

	t.Run("no losses returns exactly 100", func(t *testing.T) {
		result := CalculateRSI(series(30, 10, 0.5), 14)
		require.NotNil(t, result)
		assert.Equal(t, 100.0, *result)
	})

	t.Run("flat window counts as no losses", func(t *testing.T) {
		result := CalculateRSI(series(20, 42, 0), 14)
		require.NotNil(t, result)
		assert.Equal(t, 100.0, *result)
	})

	t.Run("only gains inside window matter", func(t *testing.T) {
		// Early crash is outside the last two changes
		result := CalculateRSI([]float64{100, 1, 2, 3}, 2)
		require.NotNil(t, result)
		assert.Equal(t, 100.0, *result)
	})

	t.Run("balanced gains and losses", func(t *testing.T) {
		result := CalculateRSI([]float64{1, 2, 1}, 2)
		require.NotNil(t, result)
		assert.InDelta(t, 50.0, *result, 1e-12)
	})

	t.Run("only losses", func(t *testing.T) {
		result := CalculateRSI(series(20, 100, -1), 14)
		require.NotNil(t, result)
		assert.InDelta(t, 0.0, *result, 1e-12)
	})

	t.Run("simple average not smoothed", func(t *testing.T) {
		// gains 3, losses 1 -> RS 3 -> 75
		result := CalculateRSI([]float64{10, 12, 11, 12}, 3)
		require.NotNil(t, result)
		assert.InDelta(t, 75.0, *result, 1e-12)
	})
}

func ptr(v float64) *float64 {
	return &v
}
