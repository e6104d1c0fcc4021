package network

import (
	"github.com/sirupsen/logrus"

	"github.com/netqueue-sim/netqueue-sim/sim"
)

// Selector decides whether a sink records statistics for a packet.
type Selector func(p *sim.Packet) bool

// SourceSelector matches packets created by the named generator.
func SourceSelector(source string) Selector {
	return func(p *sim.Packet) bool { return p.Source == source }
}

// SinkConfig selects what a sink records.
type SinkConfig struct {
	RecordWaits      bool     // record now - packet creation time
	RecordArrivals   bool     // record arrival times
	AbsoluteArrivals bool     // record absolute times instead of gaps between recorded arrivals
	Source           string   // record only packets from this generator; empty matches all
	Selector         Selector // extra predicate; nil matches all
}

// Sink is a terminal node. Every packet counts as received; only packets the
// selector accepts are recorded.
type Sink struct {
	name        string
	cfg         SinkConfig
	sim         *sim.Simulator
	lastArrival float64

	Received      int64
	BytesReceived float64
	Recorded      int64

	// Waits holds end-to-end delays of recorded packets.
	Waits *sim.StatsAccumulator
	// Arrivals holds arrival times, or inter-arrival gaps, of recorded packets.
	Arrivals *sim.StatsAccumulator
}

func newSink(name string, cfg SinkConfig, s *sim.Simulator) *Sink {
	return &Sink{
		name:     name,
		cfg:      cfg,
		sim:      s,
		Waits:    sim.NewStatsAccumulator(name + " wait"),
		Arrivals: sim.NewStatsAccumulator(name + " arrival"),
	}
}

func (s *Sink) Name() string { return s.name }
func (s *Sink) Kind() Kind   { return KindSink }

// Config returns the recording options.
func (s *Sink) Config() SinkConfig { return s.cfg }

func (s *Sink) selects(p *sim.Packet) bool {
	if s.cfg.Source != "" && p.Source != s.cfg.Source {
		return false
	}
	return s.cfg.Selector == nil || s.cfg.Selector(p)
}

// Receive consumes p.
func (s *Sink) Receive(p *sim.Packet) error {
	now := s.sim.Now()
	s.Received++
	s.BytesReceived += p.Size
	if !s.selects(p) {
		return nil
	}
	s.Recorded++
	if s.cfg.RecordWaits {
		s.Waits.Add(now - p.ArrivalTime)
	}
	if s.cfg.RecordArrivals {
		if s.cfg.AbsoluteArrivals {
			s.Arrivals.Add(now)
		} else {
			s.Arrivals.Add(now - s.lastArrival)
		}
		s.lastArrival = now
	}
	logrus.Tracef("[t=%.6f] %s received %v", now, s.name, p)
	return nil
}
