// Package network models packet networks built from generators, finite-buffer
// queue servers, probabilistic branchers and sinks, wired into a directed
// acyclic topology and driven by a sim.Simulator.
package network

import (
	"fmt"

	"github.com/netqueue-sim/netqueue-sim/sim"
)

// Kind tags the variant of a topology node.
type Kind int

const (
	KindGenerator Kind = iota
	KindQueueServer
	KindBrancher
	KindSink
)

func (k Kind) String() string {
	switch k {
	case KindGenerator:
		return "generator"
	case KindQueueServer:
		return "queue-server"
	case KindBrancher:
		return "brancher"
	case KindSink:
		return "sink"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// CanReceive reports whether nodes of this kind accept packets.
// Generators only emit.
func (k Kind) CanReceive() bool {
	return k != KindGenerator
}

// CanEmit reports whether nodes of this kind have outgoing edges.
// Sinks are terminal.
func (k Kind) CanEmit() bool {
	return k != KindSink
}

// Node is any element of a topology.
type Node interface {
	Name() string
	Kind() Kind
}

// Receiver is a node that accepts packets from an upstream edge.
// Receive runs inside a simulator action at the current virtual time.
type Receiver interface {
	Node
	Receive(p *sim.Packet) error
}

// forward hands p to out. A nil out means the edge was never wired, which
// Topology.Build rules out for generators and queue servers.
func forward(from string, out Receiver, p *sim.Packet) error {
	if out == nil {
		return fmt.Errorf("%s has no downstream node for packet %v", from, p)
	}
	if err := out.Receive(p); err != nil {
		return fmt.Errorf("%s -> %s: %w", from, out.Name(), err)
	}
	return nil
}
