package network

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/netqueue-sim/netqueue-sim/sim"
)

// TopologySpec is a declarative topology, loadable from YAML via
// LoadTopologySpec(path). Build turns it into a wired Topology.
type TopologySpec struct {
	Generators   []GeneratorSpec   `yaml:"generators"`
	QueueServers []QueueServerSpec `yaml:"queue_servers"`
	Branchers    []BrancherSpec    `yaml:"branchers,omitempty"`
	Sinks        []SinkSpec        `yaml:"sinks"`
	Monitors     []MonitorSpec     `yaml:"monitors,omitempty"`
}

// DistSpec parameterizes a sampler.
//
//	constant:     value
//	exponential:  rate, or mean (rate = 1/mean)
//	transmission: bit_rate (service time = size * 8 / bit_rate)
type DistSpec struct {
	Type    string  `yaml:"type"`
	Value   float64 `yaml:"value,omitempty"`
	Rate    float64 `yaml:"rate,omitempty"`
	Mean    float64 `yaml:"mean,omitempty"`
	BitRate float64 `yaml:"bit_rate,omitempty"`
}

// GeneratorSpec declares a packet source and its single output.
type GeneratorSpec struct {
	Name         string    `yaml:"name"`
	InterArrival DistSpec  `yaml:"inter_arrival"`
	Size         *DistSpec `yaml:"size,omitempty"`
	StartAt      float64   `yaml:"start_at,omitempty"`
	StopAt       float64   `yaml:"stop_at,omitempty"`
	Out          string    `yaml:"out"`
}

// QueueServerSpec declares a finite-buffer server and its single output.
type QueueServerSpec struct {
	Name     string   `yaml:"name"`
	Capacity int64    `yaml:"capacity"`
	Unit     string   `yaml:"unit,omitempty"`
	Service  DistSpec `yaml:"service"`
	Out      string   `yaml:"out"`
}

// BrancherSpec declares a brancher. Outs[i] receives edge i; an empty or
// missing entry leaves the edge open.
type BrancherSpec struct {
	Name          string    `yaml:"name"`
	Probabilities []float64 `yaml:"probabilities"`
	Outs          []string  `yaml:"outs"`
}

// SinkSpec declares a terminal node and what it records.
type SinkSpec struct {
	Name             string `yaml:"name"`
	RecordWaits      bool   `yaml:"record_waits"`
	RecordArrivals   bool   `yaml:"record_arrivals,omitempty"`
	AbsoluteArrivals bool   `yaml:"absolute_arrivals,omitempty"`
	SelectorSource   string `yaml:"selector_source,omitempty"`
}

// MonitorSpec declares an occupancy sampler on a queue server.
type MonitorSpec struct {
	Name     string   `yaml:"name"`
	Port     string   `yaml:"port"`
	Interval DistSpec `yaml:"interval"`
}

// LoadTopologySpec reads and parses a YAML topology file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadTopologySpec(path string) (*TopologySpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology spec: %w", err)
	}
	return ParseTopologySpec(data)
}

// ParseTopologySpec parses YAML topology bytes with strict field checking.
func ParseTopologySpec(data []byte) (*TopologySpec, error) {
	var spec TopologySpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("%w: parsing topology spec: %v", sim.ErrInvalidConfiguration, err)
	}
	return &spec, nil
}

// Sampler converts the declaration into a sampler.
func (d DistSpec) Sampler() (sim.Sampler, error) {
	switch d.Type {
	case "constant":
		if d.Value < 0 || math.IsNaN(d.Value) || math.IsInf(d.Value, 0) {
			return nil, fmt.Errorf("%w: constant value must be non-negative and finite, got %v", sim.ErrInvalidConfiguration, d.Value)
		}
		return &sim.ConstantSampler{Value: d.Value}, nil
	case "exponential", "poisson":
		rate := d.Rate
		if rate == 0 && d.Mean > 0 {
			rate = 1 / d.Mean
		}
		if !(rate > 0) || math.IsInf(rate, 0) {
			return nil, fmt.Errorf("%w: exponential needs a positive rate or mean", sim.ErrInvalidConfiguration)
		}
		return &sim.ExponentialSampler{Rate: rate}, nil
	case "transmission":
		if !(d.BitRate > 0) || math.IsInf(d.BitRate, 0) {
			return nil, fmt.Errorf("%w: transmission needs a positive bit_rate, got %v", sim.ErrInvalidConfiguration, d.BitRate)
		}
		return &sim.TransmissionSampler{BitRate: d.BitRate}, nil
	default:
		return nil, fmt.Errorf("%w: unknown distribution type %q; valid: constant, exponential, transmission", sim.ErrInvalidConfiguration, d.Type)
	}
}

// Validate checks every declaration without building anything.
func (s *TopologySpec) Validate() error {
	if len(s.Generators) == 0 {
		return fmt.Errorf("%w: at least one generator required", sim.ErrInvalidConfiguration)
	}
	if len(s.Sinks) == 0 {
		return fmt.Errorf("%w: at least one sink required", sim.ErrInvalidConfiguration)
	}
	for i, g := range s.Generators {
		gap, err := g.InterArrival.Sampler()
		if err == nil {
			err = requireProgress("inter_arrival", gap)
		}
		if err != nil {
			return fmt.Errorf("generators[%d] %s inter_arrival: %w", i, g.Name, err)
		}
		if g.Size != nil {
			if _, err := g.Size.Sampler(); err != nil {
				return fmt.Errorf("generators[%d] %s size: %w", i, g.Name, err)
			}
		}
	}
	for i, q := range s.QueueServers {
		if _, err := q.Service.Sampler(); err != nil {
			return fmt.Errorf("queue_servers[%d] %s service: %w", i, q.Name, err)
		}
	}
	for i, b := range s.Branchers {
		if len(b.Outs) > len(b.Probabilities) {
			return fmt.Errorf("%w: branchers[%d] %s has %d outs for %d probabilities",
				sim.ErrInvalidConfiguration, i, b.Name, len(b.Outs), len(b.Probabilities))
		}
	}
	for i, m := range s.Monitors {
		interval, err := m.Interval.Sampler()
		if err == nil {
			err = requireProgress("interval", interval)
		}
		if err != nil {
			return fmt.Errorf("monitors[%d] %s interval: %w", i, m.Name, err)
		}
	}
	return nil
}

// Build adds every declared node to t, wires the edges and validates the
// resulting graph.
func (s *TopologySpec) Build(t *Topology) error {
	if err := s.Validate(); err != nil {
		return err
	}
	for _, g := range s.Generators {
		cfg := GeneratorConfig{StartAt: g.StartAt, StopAt: g.StopAt}
		cfg.InterArrival, _ = g.InterArrival.Sampler()
		if g.Size != nil {
			cfg.Size, _ = g.Size.Sampler()
		}
		if _, err := t.AddGenerator(g.Name, cfg); err != nil {
			return err
		}
	}
	for _, q := range s.QueueServers {
		service, _ := q.Service.Sampler()
		cfg := QueueServerConfig{Capacity: q.Capacity, Unit: CapacityUnit(q.Unit), Service: service}
		if _, err := t.AddQueueServer(q.Name, cfg); err != nil {
			return err
		}
	}
	for _, b := range s.Branchers {
		if _, err := t.AddBrancher(b.Name, b.Probabilities); err != nil {
			return err
		}
	}
	for _, k := range s.Sinks {
		cfg := SinkConfig{
			RecordWaits:      k.RecordWaits,
			RecordArrivals:   k.RecordArrivals,
			AbsoluteArrivals: k.AbsoluteArrivals,
			Source:           k.SelectorSource,
		}
		if _, err := t.AddSink(k.Name, cfg); err != nil {
			return err
		}
	}

	for _, g := range s.Generators {
		if err := t.Connect(g.Name, g.Out); err != nil {
			return err
		}
	}
	for _, q := range s.QueueServers {
		if err := t.Connect(q.Name, q.Out); err != nil {
			return err
		}
	}
	for _, b := range s.Branchers {
		for i, out := range b.Outs {
			if out == "" {
				continue
			}
			if err := t.ConnectBranch(b.Name, i, out); err != nil {
				return err
			}
		}
	}
	for _, m := range s.Monitors {
		interval, _ := m.Interval.Sampler()
		if _, err := t.AddMonitor(m.Name, m.Port, interval); err != nil {
			return err
		}
	}
	return t.Build()
}
