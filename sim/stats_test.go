package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccumulator(samples ...float64) *StatsAccumulator {
	a := NewStatsAccumulator("test")
	for _, x := range samples {
		a.Add(x)
	}
	return a
}

func TestStatsAccumulator_OneToFive(t *testing.T) {
	// GIVEN samples 1..5 added out of order
	a := newAccumulator(3, 1, 5, 2, 4)

	// THEN every summary matches
	assert.Equal(t, 5, a.Count())
	assert.Equal(t, 15.0, a.Sum())
	mean, err := a.Mean()
	require.NoError(t, err)
	assert.Equal(t, 3.0, mean)
	min, err := a.Minimum()
	require.NoError(t, err)
	assert.Equal(t, 1.0, min)
	max, err := a.Maximum()
	require.NoError(t, err)
	assert.Equal(t, 5.0, max)
	median, err := a.Median()
	require.NoError(t, err)
	assert.Equal(t, 3.0, median)
	sd, err := a.StandardDeviation()
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(2.5), sd, 1e-12)
}

func TestStatsAccumulator_Median(t *testing.T) {
	tests := []struct {
		name    string
		samples []float64
		want    float64
	}{
		{"single", []float64{7}, 7},
		{"two averages both", []float64{4, 2}, 3},
		{"odd unsorted", []float64{9, 1, 5}, 5},
		{"even unsorted", []float64{10, 1, 4, 3}, 3.5},
		{"duplicates", []float64{2, 2, 2, 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := newAccumulator(tt.samples...).Median()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatsAccumulator_MedianKeepsInsertionOrder(t *testing.T) {
	a := newAccumulator(3, 1, 2)

	_, err := a.Median()
	require.NoError(t, err)

	assert.Equal(t, []float64{3, 1, 2}, a.Samples())
}

func TestStatsAccumulator_EmptyDataset(t *testing.T) {
	// GIVEN an empty accumulator
	a := NewStatsAccumulator("delay")

	// THEN count and sum are zero and the rest fail with ErrEmptyDataset
	assert.Equal(t, 0, a.Count())
	assert.Equal(t, 0.0, a.Sum())
	queries := map[string]func() (float64, error){
		"mean":       a.Mean,
		"minimum":    a.Minimum,
		"maximum":    a.Maximum,
		"median":     a.Median,
		"percentile": func() (float64, error) { return a.Percentile(50) },
	}
	for name, q := range queries {
		_, err := q()
		assert.ErrorIs(t, err, ErrEmptyDataset, name)
		assert.Contains(t, err.Error(), "delay", name)
	}
}

func TestStatsAccumulator_StandardDeviation_InsufficientSamples(t *testing.T) {
	for _, samples := range [][]float64{nil, {1}} {
		_, err := newAccumulator(samples...).StandardDeviation()
		assert.ErrorIs(t, err, ErrInsufficientSamples)
	}
}

func TestStatsAccumulator_Percentile(t *testing.T) {
	a := newAccumulator(5, 1, 4, 2, 3)

	p0, err := a.Percentile(0)
	require.NoError(t, err)
	p100, err := a.Percentile(100)
	require.NoError(t, err)

	assert.Equal(t, 1.0, p0)
	assert.Equal(t, 5.0, p100)

	_, err = a.Percentile(101)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestStatsAccumulator_SummaryMidRun(t *testing.T) {
	// GIVEN an accumulator that keeps growing after a summary
	a := newAccumulator(1, 3)
	first, err := a.Summarize()
	require.NoError(t, err)

	a.Add(8)
	second, err := a.Summarize()
	require.NoError(t, err)

	// THEN each summary reflects the samples at the time it was taken
	assert.Equal(t, 2, first.Count)
	assert.Equal(t, 2.0, first.Mean)
	assert.Equal(t, 3, second.Count)
	assert.Equal(t, 4.0, second.Mean)
	assert.Equal(t, 3.0, second.Median)
	assert.Equal(t, 8.0, second.Max)
}

func TestStatsAccumulator_Summarize_NeedsTwoSamples(t *testing.T) {
	_, err := newAccumulator(1).Summarize()
	assert.ErrorIs(t, err, ErrInsufficientSamples)
}
