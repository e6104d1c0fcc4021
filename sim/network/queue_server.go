package network

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/netqueue-sim/netqueue-sim/sim"
	"github.com/netqueue-sim/netqueue-sim/sim/trace"
)

// CapacityUnit selects what a queue server's capacity counts.
type CapacityUnit string

const (
	// CapacityPackets bounds the number of packets held (queued + in service).
	CapacityPackets CapacityUnit = "packets"
	// CapacityBytes bounds the total size of packets held (queued + in service).
	CapacityBytes CapacityUnit = "bytes"
)

// QueueServerConfig parameterizes a single-server FIFO station.
type QueueServerConfig struct {
	Capacity int64        // buffer size in Unit
	Unit     CapacityUnit // defaults to CapacityPackets
	Service  sim.Sampler  // service time per packet
}

// Validate checks the configuration.
func (c QueueServerConfig) Validate() error {
	if c.Capacity < 0 {
		return fmt.Errorf("%w: capacity must be non-negative, got %d", sim.ErrInvalidConfiguration, c.Capacity)
	}
	switch c.Unit {
	case "", CapacityPackets, CapacityBytes:
	default:
		return fmt.Errorf("%w: unknown capacity unit %q", sim.ErrInvalidConfiguration, c.Unit)
	}
	if c.Service == nil {
		return fmt.Errorf("%w: queue server needs a service sampler", sim.ErrInvalidConfiguration)
	}
	return nil
}

// QueueServer is one server slot in front of a finite FIFO buffer. Packets
// that do not fit are dropped on arrival and never retried.
//
// Idle periods are measured from the moment the server empties (time 0 for
// the first one) to the next admission; utilization is one minus their sum
// over the run length.
type QueueServer struct {
	name  string
	cfg   QueueServerConfig
	sim   *sim.Simulator
	rng   sim.RandomSource
	out   Receiver
	trace *trace.SimulationTrace

	waitQ     sim.WaitQueue
	inService *sim.Packet
	inFlight  int     // admitted and not yet departed, including the one in service
	bytes     float64 // size of the packets counted by inFlight
	idleStart float64
	finalized bool

	Received  int64
	Admitted  int64
	Dropped   int64
	Completed int64

	// Delays holds completion time minus packet creation time per served packet.
	Delays *sim.StatsAccumulator
	// IdlePeriods holds the length of every idle period that has ended.
	IdlePeriods *sim.StatsAccumulator
}

func newQueueServer(name string, cfg QueueServerConfig, s *sim.Simulator, rng sim.RandomSource, tr *trace.SimulationTrace) *QueueServer {
	if cfg.Unit == "" {
		cfg.Unit = CapacityPackets
	}
	return &QueueServer{
		name:        name,
		cfg:         cfg,
		sim:         s,
		rng:         rng,
		trace:       tr,
		idleStart:   s.Now(),
		Delays:      sim.NewStatsAccumulator(name + " delay"),
		IdlePeriods: sim.NewStatsAccumulator(name + " idle period"),
	}
}

func (q *QueueServer) Name() string { return q.name }
func (q *QueueServer) Kind() Kind   { return KindQueueServer }

// Out returns the downstream node, or nil before wiring.
func (q *QueueServer) Out() Receiver { return q.out }

// Capacity returns the configured buffer size and its unit.
func (q *QueueServer) Capacity() (int64, CapacityUnit) { return q.cfg.Capacity, q.cfg.Unit }

// QueueLength returns the packets admitted and not yet departed.
func (q *QueueServer) QueueLength() int { return q.inFlight }

// BytesHeld returns the total size of the packets counted by QueueLength.
func (q *QueueServer) BytesHeld() float64 { return q.bytes }

// Busy reports whether a packet is in service.
func (q *QueueServer) Busy() bool { return q.inService != nil }

func (q *QueueServer) fits(p *sim.Packet) bool {
	if q.cfg.Unit == CapacityBytes {
		return q.bytes+p.Size <= float64(q.cfg.Capacity)
	}
	return int64(q.inFlight) < q.cfg.Capacity
}

// Receive admits p if it fits in the buffer and starts its service when the
// server is free; otherwise p is dropped.
func (q *QueueServer) Receive(p *sim.Packet) error {
	now := q.sim.Now()
	q.Received++
	admitted := q.fits(p)
	if q.trace != nil {
		q.trace.RecordAdmission(trace.AdmissionRecord{
			Node:     q.name,
			PacketID: p.ID,
			Source:   p.Source,
			Clock:    now,
			Admitted: admitted,
			InFlight: q.inFlight,
			Bytes:    q.bytes,
		})
	}
	if !admitted {
		q.Dropped++
		logrus.Debugf("[t=%.6f] %s dropped %v (held %d packets, %.0f bytes)", now, q.name, p, q.inFlight, q.bytes)
		return nil
	}

	q.Admitted++
	if q.inFlight == 0 {
		q.IdlePeriods.Add(now - q.idleStart)
	}
	q.inFlight++
	q.bytes += p.Size
	q.waitQ.Enqueue(p)
	if q.inService == nil {
		return q.startNext()
	}
	return nil
}

func (q *QueueServer) startNext() error {
	p := q.waitQ.Dequeue()
	q.inService = p
	d := q.cfg.Service.Sample(q.rng, p)
	if err := q.sim.ScheduleAfter(d, "departure@"+q.name, func() error { return q.complete(p) }); err != nil {
		return fmt.Errorf("queue server %s: %w", q.name, err)
	}
	return nil
}

func (q *QueueServer) complete(p *sim.Packet) error {
	now := q.sim.Now()
	q.Delays.Add(now - p.ArrivalTime)
	q.Completed++
	q.inService = nil
	q.inFlight--
	q.bytes -= p.Size
	if q.inFlight == 0 {
		q.bytes = 0
		q.idleStart = now
	}
	logrus.Tracef("[t=%.6f] %s served %v, %d held", now, q.name, p, q.inFlight)

	if err := forward(q.name, q.out, p); err != nil {
		return err
	}
	if q.waitQ.Len() > 0 {
		return q.startNext()
	}
	return nil
}

// Finalize closes the idle period that is still open at the end of a run.
// It is idempotent.
func (q *QueueServer) Finalize() {
	if q.finalized {
		return
	}
	q.finalized = true
	if q.inFlight == 0 {
		if idle := q.sim.Now() - q.idleStart; idle > 0 {
			q.IdlePeriods.Add(idle)
		}
	}
}

// Utilization returns 1 minus total idle time over totalTime, clamped to [0, 1].
func (q *QueueServer) Utilization(totalTime float64) (float64, error) {
	if !(totalTime > 0) {
		return 0, fmt.Errorf("%w: utilization of %s needs a positive run length, got %v",
			sim.ErrInvalidConfiguration, q.name, totalTime)
	}
	u := 1 - q.IdlePeriods.Sum()/totalTime
	return min(1, max(0, u)), nil
}
