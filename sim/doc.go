// Package sim provides the discrete-event simulation kernel for netqueue-sim.
//
// # Reading Guide
//
// Start with these files to understand the kernel:
//   - event.go: Event and the heap-ordered EventQueue (time, then insertion order)
//   - simulator.go: the virtual clock, ScheduleAfter/ScheduleAt and RunUntil
//   - stats.go: StatsAccumulator, the append-only sample set behind every report
//
// # Architecture
//
// The sim package holds the timeline and the shared value types; models live in
// sub-packages:
//   - sim/network/: generators, queue servers, branchers, sinks and the
//     topology that wires them, plus the single-queue and branching-network
//     experiments
//   - sim/trace/: branch-decision and drop recording
//
// All apparent concurrency is interleaving on one timeline. Actions run to
// completion; a node "waits" by scheduling its continuation. Randomness comes
// from PartitionedRNG so that each node draws from an isolated, seeded stream.
package sim
