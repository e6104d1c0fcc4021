package network

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"

	"github.com/netqueue-sim/netqueue-sim/sim"
	"github.com/netqueue-sim/netqueue-sim/sim/trace"
)

// probabilityTolerance absorbs rounding when branch probabilities are summed.
const probabilityTolerance = 1e-9

// Brancher routes each packet to one of its edges. Edge i owns the interval
// [p0+...+p(i-1), p0+...+pi) of a uniform draw; the first interval holding
// the draw wins. Draws beyond the last interval, and edges left unwired, are
// discarded.
type Brancher struct {
	name          string
	probabilities []float64
	cumulative    []float64
	outs          []Receiver
	rng           sim.RandomSource
	sim           *sim.Simulator
	trace         *trace.SimulationTrace

	Received  int64
	Routed    []int64 // packets per edge, including those routed to open edges
	Discarded int64
}

func validateProbabilities(probabilities []float64) error {
	if len(probabilities) == 0 {
		return fmt.Errorf("%w: brancher needs at least one edge", sim.ErrInvalidConfiguration)
	}
	total := 0.0
	for i, p := range probabilities {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return fmt.Errorf("%w: branch probability %d is %v, want [0, 1]", sim.ErrInvalidConfiguration, i, p)
		}
		total += p
	}
	if total > 1+probabilityTolerance {
		return fmt.Errorf("%w: branch probabilities sum to %v, want at most 1", sim.ErrInvalidConfiguration, total)
	}
	return nil
}

func newBrancher(name string, probabilities []float64, s *sim.Simulator, rng sim.RandomSource, tr *trace.SimulationTrace) *Brancher {
	cumulative := make([]float64, len(probabilities))
	total := 0.0
	for i, p := range probabilities {
		total += p
		cumulative[i] = total
	}
	if total < 1-probabilityTolerance {
		logrus.Warnf("brancher %s probabilities sum to %v; %.4f of packets will be discarded", name, total, 1-total)
	}
	return &Brancher{
		name:          name,
		probabilities: append([]float64(nil), probabilities...),
		cumulative:    cumulative,
		outs:          make([]Receiver, len(probabilities)),
		rng:           rng,
		sim:           s,
		trace:         tr,
		Routed:        make([]int64, len(probabilities)),
	}
}

func (b *Brancher) Name() string { return b.name }
func (b *Brancher) Kind() Kind   { return KindBrancher }

// Edges returns the number of configured edges.
func (b *Brancher) Edges() int { return len(b.outs) }

// Out returns the node wired to edge i, or nil for an open edge.
func (b *Brancher) Out(i int) Receiver { return b.outs[i] }

// Probabilities returns a copy of the configured edge probabilities.
func (b *Brancher) Probabilities() []float64 {
	return append([]float64(nil), b.probabilities...)
}

// choose maps a uniform draw to an edge index, or -1 when no interval holds it.
func (b *Brancher) choose(u float64) int {
	for i, c := range b.cumulative {
		if u < c {
			return i
		}
	}
	return -1
}

// Receive forwards p, unchanged and without delay, along a randomly chosen edge.
func (b *Brancher) Receive(p *sim.Packet) error {
	b.Received++
	u := b.rng.Float64()
	edge := b.choose(u)

	var out Receiver
	if edge >= 0 {
		b.Routed[edge]++
		out = b.outs[edge]
	}
	if b.trace != nil {
		target := ""
		if out != nil {
			target = out.Name()
		}
		b.trace.RecordBranch(trace.BranchRecord{
			Brancher: b.name,
			PacketID: p.ID,
			Source:   p.Source,
			Clock:    b.sim.Now(),
			Draw:     u,
			Edge:     edge,
			Target:   target,
		})
	}
	if out == nil {
		b.Discarded++
		logrus.Tracef("[t=%.6f] %s discarded %v (edge %d)", b.sim.Now(), b.name, p, edge)
		return nil
	}
	return forward(b.name, out, p)
}
