package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netqueue-sim/netqueue-sim/sim"
	"github.com/netqueue-sim/netqueue-sim/sim/trace"
)

func TestRunNetwork_Deterministic(t *testing.T) {
	cfg := NewNetworkConfig()
	cfg.SimTime = 500

	first, err := RunNetwork(cfg)
	require.NoError(t, err)
	second, err := RunNetwork(cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunNetwork_PacketAccounting(t *testing.T) {
	// GIVEN the built-in network run by hand so port contents are visible
	cfg := NewNetworkConfig()
	top := NewTopology(sim.NewSimulator(), sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)), nil)
	require.NoError(t, DefaultTopologySpec(cfg.PortRate, cfg.BufferSize).Build(top))

	// WHEN run and summarized
	require.NoError(t, top.Run(1000))
	report, err := summarizeNetwork(top, 1000)
	require.NoError(t, err)

	// THEN every packet sent is received, dropped, discarded or held by a port
	held := int64(0)
	for _, q := range top.QueueServers() {
		held += int64(q.QueueLength())
	}
	assert.Equal(t, held, report.InFlight)
	assert.Equal(t, report.TotalSent, report.Received+report.Dropped+report.InFlight)
	assert.Equal(t, report.Sent["SJSU1"]+report.Sent["SJSU2"]+report.Sent["SJSU3"], report.TotalSent)
}

func TestRunNetwork_BranchFractionsAndPaths(t *testing.T) {
	cfg := NewNetworkConfig()
	cfg.SimTime = 4000

	report, err := RunNetwork(cfg)
	require.NoError(t, err)

	require.Len(t, report.Branches, 2)
	assert.InDelta(t, 0.8, report.Branches[0].Fractions[0], 0.03)
	assert.InDelta(t, 0.7, report.Branches[1].Fractions[0], 0.03)
	assert.Positive(t, report.Branches[0].Discarded, "branch1 edge 1 leaves the network")

	require.Len(t, report.Paths, 2)
	assert.Equal(t, "SJSU1", report.Paths[0].Source)
	assert.Equal(t, "sink1", report.Paths[0].Sink)
	assert.Equal(t, "SJSU2", report.Paths[1].Source)
	for _, p := range report.Paths {
		assert.Positive(t, p.Recorded)
		assert.Positive(t, p.MeanWait)
	}
	require.Len(t, report.Ports, 4)
	for _, p := range report.Ports {
		assert.GreaterOrEqual(t, p.Utilization, 0.0)
		assert.LessOrEqual(t, p.Utilization, 1.0)
	}
}

func TestRunNetwork_TraceMatchesCounters(t *testing.T) {
	// GIVEN a tiny buffer so ports drop packets
	cfg := NewNetworkConfig()
	cfg.SimTime = 2000
	cfg.BufferSize = 150
	cfg.PortRate = 2
	cfg.TraceLevel = trace.TraceLevelDecisions

	report, err := RunNetwork(cfg)
	require.NoError(t, err)

	// THEN the decision trace agrees with the node counters
	portDrops := int64(0)
	for _, p := range report.Ports {
		portDrops += p.Dropped
	}
	branched := int64(0)
	for _, b := range report.Branches {
		branched += b.Received
	}
	assert.Positive(t, portDrops)
	assert.Equal(t, portDrops, int64(report.TracedDrops))
	assert.Equal(t, branched, int64(report.TracedBranches))
}

func TestRunNetwork_CustomTopology(t *testing.T) {
	spec, err := ParseTopologySpec([]byte(lineYAML))
	require.NoError(t, err)
	cfg := NewNetworkConfig()
	cfg.SimTime = 100
	cfg.Topology = spec
	cfg.PortRate = 0 // ignored with a custom topology

	report, err := RunNetwork(cfg)
	require.NoError(t, err)

	assert.Equal(t, int64(100), report.TotalSent)
	require.Len(t, report.Ports, 1)
	assert.Equal(t, "port", report.Ports[0].Name)
}

func TestRunNetwork_EmptySinkFailsTheRun(t *testing.T) {
	// GIVEN a run too short for any packet to reach a sink
	cfg := NewNetworkConfig()
	cfg.SimTime = 0.001

	// WHEN summarized
	report, err := RunNetwork(cfg)

	// THEN the empty wait set is an error, not a zero mean
	assert.Nil(t, report)
	assert.ErrorIs(t, err, sim.ErrEmptyDataset)
	assert.Contains(t, err.Error(), "sink1 mean wait")
}

func TestNetworkConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *NetworkConfig)
	}{
		{"zero port rate", func(c *NetworkConfig) { c.PortRate = 0 }},
		{"negative buffer", func(c *NetworkConfig) { c.BufferSize = -5 }},
		{"zero sim time", func(c *NetworkConfig) { c.SimTime = 0 }},
		{"unknown trace level", func(c *NetworkConfig) { c.TraceLevel = "verbose" }},
	}
	require.NoError(t, NewNetworkConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewNetworkConfig()
			tt.mutate(&cfg)
			_, err := RunNetwork(cfg)
			assert.ErrorIs(t, err, sim.ErrInvalidConfiguration)
		})
	}
}
