// Implements the WaitQueue, which holds packets admitted to a server but not
// yet in service. Packets are enqueued on admission.

package sim

import (
	"fmt"
	"strings"
)

// WaitQueue represents a FIFO queue of packets waiting for a server slot.
type WaitQueue struct {
	queue []*Packet // FIFO queue of packets
	bytes float64   // total size of queued packets
}

// Enqueue adds a packet to the back of the wait queue.
func (wq *WaitQueue) Enqueue(p *Packet) {
	if p == nil {
		panic("Enqueue: packet must not be nil")
	}
	wq.queue = append(wq.queue, p)
	wq.bytes += p.Size
}

func (wq *WaitQueue) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, val := range wq.queue {
		sb.WriteString(fmt.Sprint(val))
		if i < len(wq.queue)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// Len returns the number of packets in the queue.
func (wq *WaitQueue) Len() int {
	return len(wq.queue)
}

// Bytes returns the total size of the queued packets.
func (wq *WaitQueue) Bytes() float64 {
	return wq.bytes
}

// Peek returns the packet at the front of the queue without removing it.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Peek() *Packet {
	if len(wq.queue) == 0 {
		return nil
	}
	return wq.queue[0]
}

// Dequeue removes and returns the packet at the front of the queue.
// Returns nil if the queue is empty.
func (wq *WaitQueue) Dequeue() *Packet {
	if len(wq.queue) == 0 {
		return nil
	}
	p := wq.queue[0]
	wq.queue[0] = nil
	wq.queue = wq.queue[1:]
	wq.bytes -= p.Size
	if len(wq.queue) == 0 {
		wq.bytes = 0
	}
	return p
}
