package sim

import (
	"fmt"
	"math"
	"strings"
)

// TimeDistribution selects how inter-arrival and service times are drawn.
type TimeDistribution string

const (
	// DistributionConstant uses the deterministic mean (1/rate) for every draw.
	DistributionConstant TimeDistribution = "constant"
	// DistributionPoisson draws exponential times, giving Poisson arrivals.
	DistributionPoisson TimeDistribution = "poisson"
)

// validDistributions maps accepted distribution keywords.
var validDistributions = map[TimeDistribution]bool{
	DistributionConstant: true,
	DistributionPoisson:  true,
}

// ParseTimeDistribution converts a keyword to a TimeDistribution.
func ParseTimeDistribution(s string) (TimeDistribution, error) {
	d := TimeDistribution(strings.ToLower(strings.TrimSpace(s)))
	if !validDistributions[d] {
		return "", fmt.Errorf("%w: unknown time distribution %q (want constant or poisson)", ErrInvalidConfiguration, s)
	}
	return d, nil
}

// Sampler draws a non-negative quantity: a duration in virtual time units or
// a packet size in bytes.
type Sampler interface {
	// Sample returns a non-negative value. The packet is nil when the draw
	// does not depend on one, e.g. inter-arrival times.
	Sample(rng RandomSource, p *Packet) float64
}

// ConstantSampler always returns the same value.
type ConstantSampler struct {
	Value float64
}

func (s *ConstantSampler) Sample(_ RandomSource, _ *Packet) float64 {
	return s.Value
}

// ExponentialSampler draws exponential values with the given rate (mean 1/Rate).
type ExponentialSampler struct {
	Rate float64
}

func (s *ExponentialSampler) Sample(rng RandomSource, _ *Packet) float64 {
	return Exponential(rng, s.Rate)
}

// TransmissionSampler serves a packet in the time needed to put its bytes on
// a link of BitRate bits per time unit.
type TransmissionSampler struct {
	BitRate float64
}

func (s *TransmissionSampler) Sample(_ RandomSource, p *Packet) float64 {
	if p == nil {
		return 0
	}
	return p.Size * 8 / s.BitRate
}

// NewRateSampler returns the sampler for a rate under the given distribution:
// a constant 1/rate or an exponential with that rate.
func NewRateSampler(dist TimeDistribution, rate float64) (Sampler, error) {
	if !(rate > 0) || math.IsInf(rate, 0) {
		return nil, fmt.Errorf("%w: rate must be a positive finite number, got %v", ErrInvalidConfiguration, rate)
	}
	switch dist {
	case DistributionConstant:
		return &ConstantSampler{Value: 1 / rate}, nil
	case DistributionPoisson:
		return &ExponentialSampler{Rate: rate}, nil
	default:
		return nil, fmt.Errorf("%w: unknown time distribution %q", ErrInvalidConfiguration, dist)
	}
}
