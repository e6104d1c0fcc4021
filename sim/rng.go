package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical results.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === RandomSource ===

// RandomSource supplies the draws every stochastic node needs.
// *rand.Rand satisfies it.
type RandomSource interface {
	// Float64 returns a uniform draw in [0, 1).
	Float64() float64
	// ExpFloat64 returns an exponential draw with rate 1.
	ExpFloat64() float64
}

// Exponential returns a draw from the exponential distribution with the
// given rate (mean 1/rate).
func Exponential(src RandomSource, rate float64) float64 {
	return src.ExpFloat64() / rate
}

// === Subsystem names ===

// SubsystemGenerator returns the RNG subsystem name for a packet generator.
func SubsystemGenerator(name string) string {
	return fmt.Sprintf("generator_%s", name)
}

// SubsystemServer returns the RNG subsystem name for a queue server.
func SubsystemServer(name string) string {
	return fmt.Sprintf("server_%s", name)
}

// SubsystemBrancher returns the RNG subsystem name for a random brancher.
func SubsystemBrancher(name string) string {
	return fmt.Sprintf("brancher_%s", name)
}

// SubsystemMonitor returns the RNG subsystem name for a port monitor.
func SubsystemMonitor(name string) string {
	return fmt.Sprintf("monitor_%s", name)
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName).
//
// Each node draws from its own subsystem, so adding a node to a topology does
// not perturb the streams of the others.
//
// Thread-safety: NOT thread-safe. Must be called from single goroutine.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	derivedSeed := int64(p.key) ^ fnv1a64(name)
	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
