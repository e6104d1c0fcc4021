// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
)

// Simulator holds the virtual clock and the pending event queue.
// A Simulator belongs to exactly one run and is not safe for concurrent use.
type Simulator struct {
	// RunID identifies the run in log output.
	RunID string
	// Clock is the current virtual time. It never decreases.
	Clock float64
	// EventQueue has all pending events ordered by (time, insertion order).
	EventQueue EventQueue
	// Executed counts the events that have fired.
	Executed uint64

	nextSeq uint64
}

// NewSimulator returns a simulator with its clock at zero and no pending events.
func NewSimulator() *Simulator {
	return &Simulator{
		RunID:      xid.New().String(),
		Clock:      0,
		EventQueue: make(EventQueue, 0),
	}
}

// Now returns the current virtual time.
func (sim *Simulator) Now() float64 {
	return sim.Clock
}

// Pending returns the number of events that have not fired yet.
func (sim *Simulator) Pending() int {
	return len(sim.EventQueue)
}

// ScheduleAfter enqueues action to fire delay time units from now.
// A negative or NaN delay fails with ErrInvalidDelay and leaves the queue untouched.
func (sim *Simulator) ScheduleAfter(delay float64, label string, action Action) error {
	if math.IsNaN(delay) || delay < 0 {
		return fmt.Errorf("%w: %s scheduled with delay %v at t=%v", ErrInvalidDelay, label, delay, sim.Clock)
	}
	return sim.ScheduleAt(sim.Clock+delay, label, action)
}

// ScheduleAt enqueues action to fire at the absolute virtual time t.
// Times earlier than the current clock fail with ErrInvalidDelay.
func (sim *Simulator) ScheduleAt(t float64, label string, action Action) error {
	if math.IsNaN(t) || t < sim.Clock {
		return fmt.Errorf("%w: %s scheduled at t=%v before current time %v", ErrInvalidDelay, label, t, sim.Clock)
	}
	if action == nil {
		return fmt.Errorf("%w: %s scheduled without an action", ErrInvalidConfiguration, label)
	}
	sim.nextSeq++
	heap.Push(&sim.EventQueue, &Event{time: t, seq: sim.nextSeq, label: label, action: action})
	return nil
}

// Peek returns the earliest pending event without removing it, or nil.
func (sim *Simulator) Peek() *Event {
	if len(sim.EventQueue) == 0 {
		return nil
	}
	return sim.EventQueue[0]
}

// RunUntil fires every pending event whose time is at or before endTime, in
// (time, insertion order). Events scheduled by actions are eligible in the
// same call. When no eligible event remains the clock is advanced to endTime.
// The first action error stops the run and is returned with the failing time.
func (sim *Simulator) RunUntil(endTime float64) error {
	if math.IsNaN(endTime) || endTime < sim.Clock {
		return fmt.Errorf("%w: end time %v is before current time %v", ErrInvalidConfiguration, endTime, sim.Clock)
	}
	logrus.Infof("[run %s] simulating from t=%v to t=%v with %d pending events", sim.RunID, sim.Clock, endTime, len(sim.EventQueue))
	for len(sim.EventQueue) > 0 && sim.EventQueue[0].time <= endTime {
		ev := heap.Pop(&sim.EventQueue).(*Event)
		sim.Clock = ev.time
		sim.Executed++
		logrus.Tracef("[t=%.6f] executing %s", sim.Clock, ev.label)
		if err := ev.action(); err != nil {
			return fmt.Errorf("run %s aborted at t=%v in %s: %w", sim.RunID, sim.Clock, ev.label, err)
		}
	}
	sim.Clock = endTime
	logrus.Infof("[run %s] simulation ended at t=%v after %d events", sim.RunID, sim.Clock, sim.Executed)
	return nil
}
