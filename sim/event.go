package sim

// Action is the body of a scheduled event. It runs with the simulator clock
// set to the event's time and may schedule further events. A non-nil error
// aborts the run.
type Action func() error

// Event is a single entry on the simulator's timeline.
type Event struct {
	time   float64 // Virtual time at which the action fires
	seq    uint64  // Insertion order, breaks ties between equal times
	label  string  // Short description used in trace logs
	action Action
}

// Timestamp returns the scheduled virtual time of the event.
func (e *Event) Timestamp() float64 {
	return e.time
}

// Seq returns the insertion sequence number assigned by the simulator.
func (e *Event) Seq() uint64 {
	return e.seq
}

// Label returns the description the event was scheduled with.
func (e *Event) Label() string {
	return e.label
}

// EventQueue implements heap.Interface and orders events by timestamp, then by
// insertion order so that events at the same time fire first-in first-out.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []*Event

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	if eq[i].time != eq[j].time {
		return eq[i].time < eq[j].time
	}
	return eq[i].seq < eq[j].seq
}

func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(*Event))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*eq = old[0 : n-1]
	return item
}
