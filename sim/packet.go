package sim

import "fmt"

// Packet is the unit of work that flows through a topology.
// Fields are set once by the generator; nodes forward the pointer without
// modifying it.
type Packet struct {
	ID          int64   // Per-generator identifier, starting at 1
	ArrivalTime float64 // Virtual time the generator created the packet
	Source      string  // Label of the generating node
	Size        float64 // Size in bytes; zero when the model ignores sizes
}

// NewPacket creates a packet stamped with the given creation time.
func NewPacket(id int64, arrivalTime float64, source string, size float64) *Packet {
	return &Packet{ID: id, ArrivalTime: arrivalTime, Source: source, Size: size}
}

func (p *Packet) String() string {
	return fmt.Sprintf("%s#%d@%.6f", p.Source, p.ID, p.ArrivalTime)
}
