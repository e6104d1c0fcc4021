package network

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/netqueue-sim/netqueue-sim/sim"
)

// GeneratorConfig parameterizes a packet source.
type GeneratorConfig struct {
	InterArrival sim.Sampler // time between consecutive packets
	Size         sim.Sampler // packet size in bytes; nil for size-less packets
	StartAt      float64     // virtual time before which no gaps are drawn
	StopAt       float64     // no packets are created at or after this time; 0 = never stop
}

// requireProgress rejects a constant self-rescheduling interval of zero,
// which would fire forever without advancing the clock.
func requireProgress(what string, s sim.Sampler) error {
	if c, ok := s.(*sim.ConstantSampler); ok && !(c.Value > 0) {
		return fmt.Errorf("%w: %s must be positive, got constant %v", sim.ErrInvalidConfiguration, what, c.Value)
	}
	return nil
}

// Validate checks the configuration.
func (c GeneratorConfig) Validate() error {
	if c.InterArrival == nil {
		return fmt.Errorf("%w: generator needs an inter-arrival sampler", sim.ErrInvalidConfiguration)
	}
	if err := requireProgress("inter-arrival time", c.InterArrival); err != nil {
		return err
	}
	if c.StartAt < 0 || math.IsNaN(c.StartAt) {
		return fmt.Errorf("%w: generator start time must be non-negative, got %v", sim.ErrInvalidConfiguration, c.StartAt)
	}
	if c.StopAt < 0 || math.IsNaN(c.StopAt) || (c.StopAt > 0 && c.StopAt <= c.StartAt) {
		return fmt.Errorf("%w: generator stop time %v must be 0 or after start time %v", sim.ErrInvalidConfiguration, c.StopAt, c.StartAt)
	}
	return nil
}

// Generator produces an unbounded stream of packets. Each arrival schedules
// the next one, so the stream ends only when the simulator stops firing
// events or StopAt is reached.
type Generator struct {
	name string
	cfg  GeneratorConfig
	sim  *sim.Simulator
	rng  sim.RandomSource
	out  Receiver

	PacketsSent int64
	BytesSent   float64
}

func newGenerator(name string, cfg GeneratorConfig, s *sim.Simulator, rng sim.RandomSource) *Generator {
	return &Generator{name: name, cfg: cfg, sim: s, rng: rng}
}

func (g *Generator) Name() string { return g.name }
func (g *Generator) Kind() Kind   { return KindGenerator }

// Out returns the downstream node, or nil before wiring.
func (g *Generator) Out() Receiver { return g.out }

// Start schedules the first arrival.
func (g *Generator) Start() error {
	gap := g.cfg.InterArrival.Sample(g.rng, nil)
	if err := g.sim.ScheduleAt(g.cfg.StartAt+gap, g.label(), g.arrive); err != nil {
		return fmt.Errorf("generator %s: %w", g.name, err)
	}
	return nil
}

func (g *Generator) arrive() error {
	now := g.sim.Now()
	if g.cfg.StopAt > 0 && now >= g.cfg.StopAt {
		logrus.Debugf("[t=%.6f] generator %s stopped after %d packets", now, g.name, g.PacketsSent)
		return nil
	}
	g.PacketsSent++
	size := 0.0
	if g.cfg.Size != nil {
		size = g.cfg.Size.Sample(g.rng, nil)
	}
	p := sim.NewPacket(g.PacketsSent, now, g.name, size)
	g.BytesSent += size
	logrus.Tracef("[t=%.6f] generator %s emits %v", now, g.name, p)

	if err := forward(g.name, g.out, p); err != nil {
		return err
	}

	gap := g.cfg.InterArrival.Sample(g.rng, nil)
	if err := g.sim.ScheduleAfter(gap, g.label(), g.arrive); err != nil {
		return fmt.Errorf("generator %s: %w", g.name, err)
	}
	return nil
}

func (g *Generator) label() string {
	return "arrival@" + g.name
}
