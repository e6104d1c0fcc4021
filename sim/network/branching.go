package network

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/netqueue-sim/netqueue-sim/sim"
	"github.com/netqueue-sim/netqueue-sim/sim/trace"
)

// MeanPacketSize is the mean packet size, in bytes, of the branching network.
const MeanPacketSize = 100.0

// NetworkConfig parameterizes the branching-network experiment.
type NetworkConfig struct {
	Seed       int64
	PortRate   float64 // packets per time unit a port serves at MeanPacketSize
	BufferSize int64   // port buffer in bytes
	SimTime    float64
	TraceLevel trace.TraceLevel
	// Topology replaces the built-in topology when set; PortRate and
	// BufferSize are then ignored.
	Topology *TopologySpec
}

// NewNetworkConfig returns a config with the defaults of the CLI.
func NewNetworkConfig() NetworkConfig {
	return NetworkConfig{
		Seed:       29,
		PortRate:   1000,
		BufferSize: 120000,
		SimTime:    4000,
		TraceLevel: trace.TraceLevelNone,
	}
}

// Validate checks the configuration before the run starts.
func (c NetworkConfig) Validate() error {
	if c.Topology == nil {
		if !(c.PortRate > 0) || math.IsInf(c.PortRate, 0) {
			return fmt.Errorf("%w: port rate must be positive and finite, got %v", sim.ErrInvalidConfiguration, c.PortRate)
		}
		if c.BufferSize < 0 {
			return fmt.Errorf("%w: buffer size must be non-negative, got %d", sim.ErrInvalidConfiguration, c.BufferSize)
		}
	}
	if !(c.SimTime > 0) || math.IsInf(c.SimTime, 0) {
		return fmt.Errorf("%w: sim time must be positive and finite, got %v", sim.ErrInvalidConfiguration, c.SimTime)
	}
	if !trace.IsValidTraceLevel(string(c.TraceLevel)) {
		return fmt.Errorf("%w: unknown trace level %q", sim.ErrInvalidConfiguration, c.TraceLevel)
	}
	return nil
}

// DefaultTopologySpec returns the three-generator, four-port network:
//
//	SJSU1 -> port1 -> branch1[0] -> port2 -> branch2[0] -> port3 -> sink1
//	                  branch1[1] (open)       branch2[1] -> port4 -> sink2
//	SJSU3 -> port3
//	SJSU2 -> port4
//
// sink1 records waits and arrivals of SJSU1 packets, sink2 records waits of
// SJSU2 packets. Ports serve at portRate packets per time unit for the mean
// packet size and hold at most bufferSize bytes.
func DefaultTopologySpec(portRate float64, bufferSize int64) *TopologySpec {
	bitRate := portRate * 8 * MeanPacketSize
	size := &DistSpec{Type: "exponential", Mean: MeanPacketSize}
	port := func(name, out string) QueueServerSpec {
		return QueueServerSpec{
			Name:     name,
			Capacity: bufferSize,
			Unit:     string(CapacityBytes),
			Service:  DistSpec{Type: "transmission", BitRate: bitRate},
			Out:      out,
		}
	}
	monitor := func(port string) MonitorSpec {
		return MonitorSpec{Name: port + "-monitor", Port: port, Interval: DistSpec{Type: "exponential", Rate: 0.5}}
	}
	return &TopologySpec{
		Generators: []GeneratorSpec{
			{Name: "SJSU1", InterArrival: DistSpec{Type: "exponential", Rate: 1.5}, Size: size, Out: "port1"},
			{Name: "SJSU2", InterArrival: DistSpec{Type: "exponential", Rate: 0.5}, Size: size, Out: "port4"},
			{Name: "SJSU3", InterArrival: DistSpec{Type: "exponential", Rate: 0.7}, Size: size, Out: "port3"},
		},
		QueueServers: []QueueServerSpec{
			port("port1", "branch1"),
			port("port2", "branch2"),
			port("port3", "sink1"),
			port("port4", "sink2"),
		},
		Branchers: []BrancherSpec{
			{Name: "branch1", Probabilities: []float64{0.80, 0.20}, Outs: []string{"port2"}},
			{Name: "branch2", Probabilities: []float64{0.70, 0.30}, Outs: []string{"port3", "port4"}},
		},
		Sinks: []SinkSpec{
			{Name: "sink1", RecordWaits: true, RecordArrivals: true, SelectorSource: "SJSU1"},
			{Name: "sink2", RecordWaits: true, SelectorSource: "SJSU2"},
		},
		Monitors: []MonitorSpec{
			monitor("port1"), monitor("port2"), monitor("port3"), monitor("port4"),
		},
	}
}

// PathReport is the end-to-end wait observed at one sink for its selected flow.
type PathReport struct {
	Source   string  `json:"source"`
	Sink     string  `json:"sink"`
	Recorded int64   `json:"recorded"`
	MeanWait float64 `json:"mean_wait"`
}

// PortReport summarizes one queue server.
type PortReport struct {
	Name          string  `json:"name"`
	Received      int64   `json:"received"`
	Dropped       int64   `json:"dropped"`
	Completed     int64   `json:"completed"`
	Utilization   float64 `json:"utilization"`
	MeanOccupancy float64 `json:"mean_occupancy,omitempty"`
}

// BranchReport summarizes one brancher.
type BranchReport struct {
	Name          string    `json:"name"`
	Received      int64     `json:"received"`
	Fractions     []float64 `json:"fractions"`
	Discarded     int64     `json:"discarded"`
	Probabilities []float64 `json:"probabilities"`
}

// NetworkReport is the outcome of a branching-network run.
type NetworkReport struct {
	SimTime  float64          `json:"sim_time"`
	Paths    []PathReport     `json:"paths"`
	Sent     map[string]int64 `json:"sent"`
	Ports    []PortReport     `json:"ports"`
	Branches []BranchReport   `json:"branches"`

	TotalSent      int64 `json:"total_sent"`
	Received       int64 `json:"received"`
	Dropped        int64 `json:"dropped"`
	InFlight       int64 `json:"in_flight"`
	TracedDrops    int   `json:"traced_drops,omitempty"`
	TracedBranches int   `json:"traced_branch_decisions,omitempty"`
}

// RunNetwork builds the configured topology, runs it and summarizes it.
func RunNetwork(cfg NetworkConfig) (*NetworkReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	spec := cfg.Topology
	if spec == nil {
		spec = DefaultTopologySpec(cfg.PortRate, cfg.BufferSize)
	}

	s := sim.NewSimulator()
	t := NewTopology(s, sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)), trace.NewSimulationTrace(trace.TraceConfig{Level: cfg.TraceLevel}))
	if err := spec.Build(t); err != nil {
		return nil, err
	}
	logrus.Infof("[run %s] branching network: seed=%d sim_time=%v", s.RunID, cfg.Seed, cfg.SimTime)
	if err := t.Run(cfg.SimTime); err != nil {
		return nil, err
	}
	return summarizeNetwork(t, cfg.SimTime)
}

func summarizeNetwork(t *Topology, simTime float64) (*NetworkReport, error) {
	report := &NetworkReport{SimTime: simTime, Sent: make(map[string]int64)}

	for _, g := range t.Generators() {
		report.Sent[g.Name()] = g.PacketsSent
		report.TotalSent += g.PacketsSent
	}
	for _, k := range t.Sinks() {
		report.Received += k.Received
		if !k.Config().RecordWaits {
			continue
		}
		mean, err := k.Waits.Mean()
		if err != nil {
			return nil, fmt.Errorf("sink %s mean wait: %w", k.Name(), err)
		}
		report.Paths = append(report.Paths, PathReport{
			Source:   sinkSource(k),
			Sink:     k.Name(),
			Recorded: int64(k.Waits.Count()),
			MeanWait: mean,
		})
	}

	occupancy := make(map[string]float64)
	for _, m := range t.Monitors() {
		if mean, err := m.Occupancy.Mean(); err == nil {
			occupancy[m.Port().Name()] = mean
		}
	}
	for _, q := range t.QueueServers() {
		u, err := q.Utilization(simTime)
		if err != nil {
			return nil, err
		}
		report.Dropped += q.Dropped
		report.Ports = append(report.Ports, PortReport{
			Name:          q.Name(),
			Received:      q.Received,
			Dropped:       q.Dropped,
			Completed:     q.Completed,
			Utilization:   u,
			MeanOccupancy: occupancy[q.Name()],
		})
	}
	for _, b := range t.Branchers() {
		report.Dropped += b.Discarded
		br := BranchReport{
			Name:          b.Name(),
			Received:      b.Received,
			Discarded:     b.Discarded,
			Probabilities: b.Probabilities(),
			Fractions:     make([]float64, b.Edges()),
		}
		for i, n := range b.Routed {
			if b.Received > 0 {
				br.Fractions[i] = float64(n) / float64(b.Received)
			}
		}
		report.Branches = append(report.Branches, br)
	}
	report.InFlight = report.TotalSent - report.Received - report.Dropped

	if tr := t.Trace(); tr != nil {
		summary := trace.Summarize(tr)
		report.TracedDrops = len(tr.Drops(""))
		for _, n := range summary.BranchTotals {
			report.TracedBranches += n
		}
	}
	return report, nil
}

// sinkSource names the flow a sink measures.
func sinkSource(k *Sink) string {
	if src := k.Config().Source; src != "" {
		return src
	}
	return "all"
}
