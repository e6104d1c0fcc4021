// Collects per-event observations (delays, idle periods, waits) and
// summarizes them on demand.

package sim

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// StatsAccumulator is an append-only sample set for one tracked quantity.
// Summaries may be requested at any time, including mid-run.
type StatsAccumulator struct {
	name    string
	samples []float64
}

// NewStatsAccumulator returns an empty accumulator. The name appears in errors.
func NewStatsAccumulator(name string) *StatsAccumulator {
	return &StatsAccumulator{name: name, samples: make([]float64, 0)}
}

// Name returns the label given at construction.
func (a *StatsAccumulator) Name() string {
	return a.name
}

// Add appends a sample.
func (a *StatsAccumulator) Add(x float64) {
	a.samples = append(a.samples, x)
}

// Samples returns a copy of the samples in insertion order.
func (a *StatsAccumulator) Samples() []float64 {
	out := make([]float64, len(a.samples))
	copy(out, a.samples)
	return out
}

// Count returns the number of samples.
func (a *StatsAccumulator) Count() int {
	return len(a.samples)
}

// Sum returns the total of all samples; zero when empty.
func (a *StatsAccumulator) Sum() float64 {
	return floats.Sum(a.samples)
}

// Mean returns the arithmetic mean.
func (a *StatsAccumulator) Mean() (float64, error) {
	if err := a.requireSamples(1); err != nil {
		return 0, err
	}
	return stat.Mean(a.samples, nil), nil
}

// Minimum returns the smallest sample.
func (a *StatsAccumulator) Minimum() (float64, error) {
	if err := a.requireSamples(1); err != nil {
		return 0, err
	}
	return floats.Min(a.samples), nil
}

// Maximum returns the largest sample.
func (a *StatsAccumulator) Maximum() (float64, error) {
	if err := a.requireSamples(1); err != nil {
		return 0, err
	}
	return floats.Max(a.samples), nil
}

// Median returns the middle sample of a sorted copy. For an even count it is
// the mean of the two central samples.
func (a *StatsAccumulator) Median() (float64, error) {
	if err := a.requireSamples(1); err != nil {
		return 0, err
	}
	sorted := a.sorted()
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2], nil
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2, nil
}

// StandardDeviation returns the sample standard deviation (n-1 denominator).
func (a *StatsAccumulator) StandardDeviation() (float64, error) {
	if len(a.samples) < 2 {
		return 0, fmt.Errorf("%w: %s has %d samples, standard deviation needs at least 2",
			ErrInsufficientSamples, a.name, len(a.samples))
	}
	return stat.StdDev(a.samples, nil), nil
}

// Percentile returns the p-th percentile (0 <= p <= 100), linearly
// interpolating the empirical CDF.
func (a *StatsAccumulator) Percentile(p float64) (float64, error) {
	if err := a.requireSamples(1); err != nil {
		return 0, err
	}
	if math.IsNaN(p) || p < 0 || p > 100 {
		return 0, fmt.Errorf("%w: percentile %v outside [0, 100]", ErrInvalidConfiguration, p)
	}
	return stat.Quantile(p/100, stat.LinInterp, a.sorted(), nil), nil
}

func (a *StatsAccumulator) sorted() []float64 {
	sorted := a.Samples()
	sort.Float64s(sorted)
	return sorted
}

func (a *StatsAccumulator) requireSamples(n int) error {
	if len(a.samples) >= n {
		return nil
	}
	return fmt.Errorf("%w: %s has no samples", ErrEmptyDataset, a.name)
}

// Summary is a snapshot of every descriptive statistic of an accumulator.
type Summary struct {
	Count             int     `json:"count"`
	Sum               float64 `json:"sum"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
	Mean              float64 `json:"mean"`
	Median            float64 `json:"median"`
	StandardDeviation float64 `json:"sd"`
	P95               float64 `json:"p95"`
}

// Summarize computes every statistic at once. It fails with the first error
// of the underlying queries, so it needs at least two samples.
func (a *StatsAccumulator) Summarize() (Summary, error) {
	var (
		s   = Summary{Count: a.Count(), Sum: a.Sum()}
		err error
	)
	if s.Min, err = a.Minimum(); err != nil {
		return Summary{}, err
	}
	if s.Max, err = a.Maximum(); err != nil {
		return Summary{}, err
	}
	if s.Mean, err = a.Mean(); err != nil {
		return Summary{}, err
	}
	if s.Median, err = a.Median(); err != nil {
		return Summary{}, err
	}
	if s.StandardDeviation, err = a.StandardDeviation(); err != nil {
		return Summary{}, err
	}
	if s.P95, err = a.Percentile(95); err != nil {
		return Summary{}, err
	}
	return s, nil
}
