package network

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netqueue-sim/netqueue-sim/sim"
	"github.com/netqueue-sim/netqueue-sim/sim/trace"
)

func newTestTopology(seed int64) *Topology {
	return NewTopology(sim.NewSimulator(), sim.NewPartitionedRNG(sim.NewSimulationKey(seed)), nil)
}

func newTracedTopology(seed int64) *Topology {
	tr := trace.NewSimulationTrace(trace.TraceConfig{Level: trace.TraceLevelDecisions})
	return NewTopology(sim.NewSimulator(), sim.NewPartitionedRNG(sim.NewSimulationKey(seed)), tr)
}

// constantLine wires generator -> server -> sink with deterministic times.
func constantLine(t *testing.T, gap, service float64, capacity int64) (*Topology, *Generator, *QueueServer, *Sink) {
	t.Helper()
	top := newTestTopology(1)
	g, err := top.AddGenerator("gen", GeneratorConfig{InterArrival: &sim.ConstantSampler{Value: gap}})
	require.NoError(t, err)
	q, err := top.AddQueueServer("server", QueueServerConfig{Capacity: capacity, Service: &sim.ConstantSampler{Value: service}})
	require.NoError(t, err)
	k, err := top.AddSink("sink", SinkConfig{RecordWaits: true})
	require.NoError(t, err)
	require.NoError(t, top.Connect("gen", "server"))
	require.NoError(t, top.Connect("server", "sink"))
	return top, g, q, k
}
