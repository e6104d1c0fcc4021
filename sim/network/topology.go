package network

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/netqueue-sim/netqueue-sim/sim"
	"github.com/netqueue-sim/netqueue-sim/sim/trace"
)

// Topology owns the nodes of one simulation run and the directed edges
// between them. Capabilities are checked when an edge is added; Build checks
// the graph as a whole.
type Topology struct {
	sim   *sim.Simulator
	rng   *sim.PartitionedRNG
	trace *trace.SimulationTrace

	nodes    map[string]Node
	ids      map[string]int64
	names    []string // insertion order
	monitors []*PortMonitor
	built    bool
	started  bool
}

// NewTopology creates an empty topology on s. tr may be nil to disable tracing.
func NewTopology(s *sim.Simulator, rng *sim.PartitionedRNG, tr *trace.SimulationTrace) *Topology {
	return &Topology{
		sim:   s,
		rng:   rng,
		trace: tr,
		nodes: make(map[string]Node),
		ids:   make(map[string]int64),
	}
}

// Simulator returns the simulator driving the topology.
func (t *Topology) Simulator() *sim.Simulator { return t.sim }

// Trace returns the decision trace, or nil when tracing is disabled.
func (t *Topology) Trace() *trace.SimulationTrace { return t.trace }

func (t *Topology) register(n Node) error {
	if t.built {
		return fmt.Errorf("%w: cannot add %s after the topology is built", sim.ErrInvalidConfiguration, n.Name())
	}
	if strings.TrimSpace(n.Name()) == "" {
		return fmt.Errorf("%w: %s needs a name", sim.ErrInvalidConfiguration, n.Kind())
	}
	if _, dup := t.nodes[n.Name()]; dup {
		return fmt.Errorf("%w: duplicate node name %q", sim.ErrInvalidConfiguration, n.Name())
	}
	t.nodes[n.Name()] = n
	t.ids[n.Name()] = int64(len(t.names))
	t.names = append(t.names, n.Name())
	return nil
}

// AddGenerator adds a packet source.
func (t *Topology) AddGenerator(name string, cfg GeneratorConfig) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("generator %s: %w", name, err)
	}
	g := newGenerator(name, cfg, t.sim, t.rng.ForSubsystem(sim.SubsystemGenerator(name)))
	if err := t.register(g); err != nil {
		return nil, err
	}
	return g, nil
}

// AddQueueServer adds a finite-buffer FIFO server.
func (t *Topology) AddQueueServer(name string, cfg QueueServerConfig) (*QueueServer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("queue server %s: %w", name, err)
	}
	q := newQueueServer(name, cfg, t.sim, t.rng.ForSubsystem(sim.SubsystemServer(name)), t.trace)
	if err := t.register(q); err != nil {
		return nil, err
	}
	return q, nil
}

// AddBrancher adds a probabilistic router with one edge per probability.
func (t *Topology) AddBrancher(name string, probabilities []float64) (*Brancher, error) {
	if err := validateProbabilities(probabilities); err != nil {
		return nil, fmt.Errorf("brancher %s: %w", name, err)
	}
	b := newBrancher(name, probabilities, t.sim, t.rng.ForSubsystem(sim.SubsystemBrancher(name)), t.trace)
	if err := t.register(b); err != nil {
		return nil, err
	}
	return b, nil
}

// AddSink adds a terminal node.
func (t *Topology) AddSink(name string, cfg SinkConfig) (*Sink, error) {
	s := newSink(name, cfg, t.sim)
	if err := t.register(s); err != nil {
		return nil, err
	}
	return s, nil
}

// AddMonitor attaches an occupancy sampler to the named queue server.
func (t *Topology) AddMonitor(name, port string, interval sim.Sampler) (*PortMonitor, error) {
	if interval == nil {
		return nil, fmt.Errorf("%w: monitor %s needs an interval sampler", sim.ErrInvalidConfiguration, name)
	}
	if err := requireProgress("sampling interval", interval); err != nil {
		return nil, fmt.Errorf("monitor %s: %w", name, err)
	}
	q, ok := t.nodes[port].(*QueueServer)
	if !ok {
		return nil, fmt.Errorf("%w: monitor %s observes %q, which is not a queue server", sim.ErrInvalidConfiguration, name, port)
	}
	for _, m := range t.monitors {
		if m.name == name {
			return nil, fmt.Errorf("%w: duplicate monitor name %q", sim.ErrInvalidConfiguration, name)
		}
	}
	m := newPortMonitor(name, q, interval, t.sim, t.rng.ForSubsystem(sim.SubsystemMonitor(name)))
	t.monitors = append(t.monitors, m)
	return m, nil
}

func (t *Topology) receiver(from, to string) (Receiver, error) {
	if from == to {
		return nil, fmt.Errorf("%w: %s cannot feed itself", sim.ErrInvalidConfiguration, from)
	}
	n, ok := t.nodes[to]
	if !ok {
		return nil, fmt.Errorf("%w: %s -> %s: unknown node %q", sim.ErrInvalidConfiguration, from, to, to)
	}
	r, ok := n.(Receiver)
	if !ok || !n.Kind().CanReceive() {
		return nil, fmt.Errorf("%w: %s -> %s: a %s cannot receive packets", sim.ErrInvalidConfiguration, from, to, n.Kind())
	}
	return r, nil
}

// Connect wires the single output of a generator or queue server to a receiver.
func (t *Topology) Connect(from, to string) error {
	if t.built {
		return fmt.Errorf("%w: cannot wire %s -> %s after the topology is built", sim.ErrInvalidConfiguration, from, to)
	}
	n, ok := t.nodes[from]
	if !ok {
		return fmt.Errorf("%w: %s -> %s: unknown node %q", sim.ErrInvalidConfiguration, from, to, from)
	}
	r, err := t.receiver(from, to)
	if err != nil {
		return err
	}
	switch src := n.(type) {
	case *Generator:
		if src.out != nil {
			return fmt.Errorf("%w: generator %s is already wired to %s", sim.ErrInvalidConfiguration, from, src.out.Name())
		}
		src.out = r
	case *QueueServer:
		if src.out != nil {
			return fmt.Errorf("%w: queue server %s is already wired to %s", sim.ErrInvalidConfiguration, from, src.out.Name())
		}
		src.out = r
	case *Brancher:
		return fmt.Errorf("%w: brancher %s has indexed edges; use ConnectBranch", sim.ErrInvalidConfiguration, from)
	default:
		return fmt.Errorf("%w: %s -> %s: a %s has no outgoing edge", sim.ErrInvalidConfiguration, from, to, n.Kind())
	}
	return nil
}

// ConnectBranch wires edge index of a brancher to a receiver.
func (t *Topology) ConnectBranch(from string, index int, to string) error {
	if t.built {
		return fmt.Errorf("%w: cannot wire %s[%d] -> %s after the topology is built", sim.ErrInvalidConfiguration, from, index, to)
	}
	b, ok := t.nodes[from].(*Brancher)
	if !ok {
		return fmt.Errorf("%w: %q is not a brancher", sim.ErrInvalidConfiguration, from)
	}
	if index < 0 || index >= len(b.outs) {
		return fmt.Errorf("%w: brancher %s has edges 0..%d, got %d", sim.ErrInvalidConfiguration, from, len(b.outs)-1, index)
	}
	if b.outs[index] != nil {
		return fmt.Errorf("%w: brancher %s edge %d is already wired to %s", sim.ErrInvalidConfiguration, from, index, b.outs[index].Name())
	}
	r, err := t.receiver(from, to)
	if err != nil {
		return err
	}
	b.outs[index] = r
	return nil
}

// graph returns the wiring as a gonum directed graph keyed by insertion index.
func (t *Topology) graph() *simple.DirectedGraph {
	g := simple.NewDirectedGraph()
	for _, name := range t.names {
		g.AddNode(simple.Node(t.ids[name]))
	}
	link := func(from string, to Receiver) {
		if to == nil {
			return
		}
		g.SetEdge(g.NewEdge(simple.Node(t.ids[from]), simple.Node(t.ids[to.Name()])))
	}
	for _, name := range t.names {
		switch n := t.nodes[name].(type) {
		case *Generator:
			link(name, n.out)
		case *QueueServer:
			link(name, n.out)
		case *Brancher:
			for _, out := range n.outs {
				link(name, out)
			}
		}
	}
	return g
}

// Build validates the topology: every generator and queue server is wired,
// the graph is acyclic, every generator reaches at least one sink, and no
// generator without a packet size reaches a byte-capacity queue server. Open
// brancher edges are allowed and logged. After Build no nodes or edges may
// be added.
func (t *Topology) Build() error {
	if t.built {
		return nil
	}
	var problems []string
	for _, name := range t.names {
		switch n := t.nodes[name].(type) {
		case *Generator:
			if n.out == nil {
				problems = append(problems, fmt.Sprintf("generator %s is not wired", name))
			}
		case *QueueServer:
			if n.out == nil {
				problems = append(problems, fmt.Sprintf("queue server %s is not wired", name))
			}
		case *Brancher:
			for i, out := range n.outs {
				if out == nil {
					logrus.Warnf("brancher %s edge %d (p=%v) is open; packets routed there are discarded", name, i, n.probabilities[i])
				}
			}
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", sim.ErrInvalidConfiguration, strings.Join(problems, "; "))
	}

	g := t.graph()
	order, err := topo.SortStabilized(g, byID)
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) {
			return fmt.Errorf("%w: topology has a cycle through %s", sim.ErrInvalidConfiguration, t.describe(cycles))
		}
		return fmt.Errorf("%w: %v", sim.ErrInvalidConfiguration, err)
	}

	for _, gen := range t.Generators() {
		reaches := false
		for _, sink := range t.Sinks() {
			if topo.PathExistsIn(g, simple.Node(t.ids[gen.name]), simple.Node(t.ids[sink.name])) {
				reaches = true
				break
			}
		}
		if !reaches {
			return fmt.Errorf("%w: generator %s does not reach any sink", sim.ErrInvalidConfiguration, gen.name)
		}
	}

	// Size-less packets would never fill a byte-bounded buffer.
	for _, gen := range t.Generators() {
		if gen.cfg.Size != nil {
			continue
		}
		for _, q := range t.QueueServers() {
			if q.cfg.Unit != CapacityBytes {
				continue
			}
			if topo.PathExistsIn(g, simple.Node(t.ids[gen.name]), simple.Node(t.ids[q.name])) {
				return fmt.Errorf("%w: generator %s has no packet size but feeds byte-capacity queue server %s",
					sim.ErrInvalidConfiguration, gen.name, q.name)
			}
		}
	}

	sorted := make([]string, len(order))
	for i, n := range order {
		sorted[i] = t.names[n.ID()]
	}
	logrus.Infof("topology built with %d nodes: %s", len(sorted), strings.Join(sorted, " -> "))
	t.built = true
	return nil
}

func (t *Topology) describe(cycles topo.Unorderable) string {
	var parts []string
	for _, component := range cycles {
		names := make([]string, len(component))
		for i, n := range component {
			names[i] = t.names[n.ID()]
		}
		sort.Strings(names)
		parts = append(parts, "{"+strings.Join(names, ", ")+"}")
	}
	return strings.Join(parts, " ")
}

func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID() < nodes[j].ID() })
}

// Start builds the topology if needed and schedules every generator's first
// arrival and every monitor's first sample.
func (t *Topology) Start() error {
	if t.started {
		return fmt.Errorf("%w: topology already started", sim.ErrInvalidConfiguration)
	}
	if err := t.Build(); err != nil {
		return err
	}
	for _, g := range t.Generators() {
		if err := g.Start(); err != nil {
			return err
		}
	}
	for _, m := range t.monitors {
		if err := m.Start(); err != nil {
			return err
		}
	}
	t.started = true
	return nil
}

// Run starts the topology and simulates until endTime, then closes the open
// idle periods of every queue server.
func (t *Topology) Run(endTime float64) error {
	if err := t.Start(); err != nil {
		return err
	}
	if err := t.sim.RunUntil(endTime); err != nil {
		return err
	}
	for _, q := range t.QueueServers() {
		q.Finalize()
	}
	return nil
}

// Node returns the named node, or nil.
func (t *Topology) Node(name string) Node {
	return t.nodes[name]
}

// Generators returns the generators in insertion order.
func (t *Topology) Generators() []*Generator { return nodesOf[*Generator](t) }

// QueueServers returns the queue servers in insertion order.
func (t *Topology) QueueServers() []*QueueServer { return nodesOf[*QueueServer](t) }

// Branchers returns the branchers in insertion order.
func (t *Topology) Branchers() []*Brancher { return nodesOf[*Brancher](t) }

// Sinks returns the sinks in insertion order.
func (t *Topology) Sinks() []*Sink { return nodesOf[*Sink](t) }

// Monitors returns the port monitors in insertion order.
func (t *Topology) Monitors() []*PortMonitor {
	return append([]*PortMonitor(nil), t.monitors...)
}

func nodesOf[T Node](t *Topology) []T {
	var out []T
	for _, name := range t.names {
		if n, ok := t.nodes[name].(T); ok {
			out = append(out, n)
		}
	}
	return out
}
