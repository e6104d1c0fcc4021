package network

import (
	"fmt"

	"github.com/netqueue-sim/netqueue-sim/sim"
)

// PortMonitor samples a queue server's occupancy at random instants.
// It is not a topology node; it observes one without touching its state.
type PortMonitor struct {
	name     string
	port     *QueueServer
	interval sim.Sampler
	sim      *sim.Simulator
	rng      sim.RandomSource

	// Occupancy holds the sampled packet counts (queued + in service).
	Occupancy *sim.StatsAccumulator
	// ByteOccupancy holds the sampled byte counts.
	ByteOccupancy *sim.StatsAccumulator
}

func newPortMonitor(name string, port *QueueServer, interval sim.Sampler, s *sim.Simulator, rng sim.RandomSource) *PortMonitor {
	return &PortMonitor{
		name:          name,
		port:          port,
		interval:      interval,
		sim:           s,
		rng:           rng,
		Occupancy:     sim.NewStatsAccumulator(name + " occupancy"),
		ByteOccupancy: sim.NewStatsAccumulator(name + " byte occupancy"),
	}
}

// Name returns the monitor name.
func (m *PortMonitor) Name() string { return m.name }

// Port returns the observed queue server.
func (m *PortMonitor) Port() *QueueServer { return m.port }

// Start schedules the first sample.
func (m *PortMonitor) Start() error {
	return m.scheduleNext()
}

func (m *PortMonitor) sample() error {
	m.Occupancy.Add(float64(m.port.QueueLength()))
	m.ByteOccupancy.Add(m.port.BytesHeld())
	return m.scheduleNext()
}

func (m *PortMonitor) scheduleNext() error {
	d := m.interval.Sample(m.rng, nil)
	if err := m.sim.ScheduleAfter(d, "sample@"+m.name, m.sample); err != nil {
		return fmt.Errorf("monitor %s: %w", m.name, err)
	}
	return nil
}
