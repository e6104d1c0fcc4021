package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netqueue-sim/netqueue-sim/sim"
)

func TestRunSingleQueue_FiniteBufferUtilization(t *testing.T) {
	// GIVEN lambda=0.8, mu=1.0, exponential times and room for 5 packets
	cfg := NewSingleQueueConfig()
	cfg.ArrivalRates = []float64{0.8}
	cfg.Mu = 1.0
	cfg.BufferSize = 5
	cfg.SimTime = 1_000_000

	// WHEN simulated
	report, err := RunSingleQueue(cfg)
	require.NoError(t, err)
	require.Len(t, report.Rows, 1)
	row := report.Rows[0]

	// THEN utilization matches M/M/1/5 (1 - P0 = 0.7289) and some packets were lost
	assert.InDelta(t, 0.729, row.Utilization, 0.02)
	assert.Less(t, row.Utilization, 1.0)
	assert.Positive(t, row.Rejected)
	assert.Positive(t, row.NumDropped)
	assert.GreaterOrEqual(t, row.NumDropped, row.Rejected)
	assert.Equal(t, row.NumTotal, row.Admitted+row.Rejected)
}

func TestRunSingleQueue_ConstantTimes(t *testing.T) {
	// GIVEN one packet every 2.0 served in 0.5
	cfg := NewSingleQueueConfig()
	cfg.ArrivalRates = []float64{0.5}
	cfg.Mu = 2
	cfg.Distribution = sim.DistributionConstant
	cfg.SimTime = 100

	report, err := RunSingleQueue(cfg)
	require.NoError(t, err)
	row := report.Rows[0]

	// THEN every delay is the service time and only the packet in service at
	// the end goes unrecorded
	assert.Equal(t, int64(50), row.NumTotal)
	assert.Equal(t, 49, row.Delay.Count)
	assert.Equal(t, int64(1), row.NumDropped)
	assert.Equal(t, int64(0), row.Rejected)
	assert.InDelta(t, 0.5, row.Delay.Mean, 1e-12)
	assert.InDelta(t, 0.5, row.Delay.Median, 1e-12)
	assert.InDelta(t, 0, row.Delay.StandardDeviation, 1e-12)
	assert.InDelta(t, 75.5, row.IdleTime, 1e-9)
	assert.InDelta(t, 0.245, row.Utilization, 1e-9)
}

func TestRunSingleQueue_Deterministic(t *testing.T) {
	cfg := NewSingleQueueConfig()
	cfg.ArrivalRates = []float64{0.4, 1.6}
	cfg.SimTime = 5000

	first, err := RunSingleQueue(cfg)
	require.NoError(t, err)
	second, err := RunSingleQueue(cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, first.Rows, 2)
	assert.Less(t, first.Rows[0].Utilization, first.Rows[1].Utilization)
}

func TestRunSingleQueue_RowsIndependentOfOrder(t *testing.T) {
	cfg := NewSingleQueueConfig()
	cfg.SimTime = 5000
	cfg.ArrivalRates = []float64{0.3}
	alone, err := RunSingleQueue(cfg)
	require.NoError(t, err)

	cfg.ArrivalRates = []float64{0.9, 0.3}
	both, err := RunSingleQueue(cfg)
	require.NoError(t, err)

	assert.Equal(t, alone.Rows[0], both.Rows[1])
}

func TestRunSingleQueue_SeedChangesResult(t *testing.T) {
	cfg := NewSingleQueueConfig()
	cfg.SimTime = 5000
	a, err := RunSingleQueue(cfg)
	require.NoError(t, err)

	cfg.Seed = 30
	b, err := RunSingleQueue(cfg)
	require.NoError(t, err)

	assert.NotEqual(t, a.Rows[0].Delay.Mean, b.Rows[0].Delay.Mean)
}

func TestNewSingleQueueRun_Wiring(t *testing.T) {
	run, err := NewSingleQueueRun(NewSingleQueueConfig(), 0.1)
	require.NoError(t, err)

	assert.Same(t, run.Server, run.Generator.Out())
	assert.Same(t, run.Sink, run.Server.Out())
	capacity, unit := run.Server.Capacity()
	assert.Equal(t, int64(20), capacity)
	assert.Equal(t, CapacityPackets, unit)
}

func TestSingleQueueConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *SingleQueueConfig)
	}{
		{"no rates", func(c *SingleQueueConfig) { c.ArrivalRates = nil }},
		{"zero rate", func(c *SingleQueueConfig) { c.ArrivalRates = []float64{0.1, 0} }},
		{"zero sim time", func(c *SingleQueueConfig) { c.SimTime = 0 }},
		{"negative buffer", func(c *SingleQueueConfig) { c.BufferSize = -1 }},
		{"unknown distribution", func(c *SingleQueueConfig) { c.Distribution = "uniform" }},
		{"zero mu", func(c *SingleQueueConfig) { c.Mu = 0 }},
	}
	require.NoError(t, NewSingleQueueConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewSingleQueueConfig()
			tt.mutate(&cfg)
			_, err := RunSingleQueue(cfg)
			assert.ErrorIs(t, err, sim.ErrInvalidConfiguration)
		})
	}
}
