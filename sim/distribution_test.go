package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeDistribution(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeDistribution
		wantErr bool
	}{
		{"constant", DistributionConstant, false},
		{"poisson", DistributionPoisson, false},
		{" Poisson ", DistributionPoisson, false},
		{"uniform", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTimeDistribution(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRateSampler_Constant(t *testing.T) {
	s, err := NewRateSampler(DistributionConstant, 4)
	require.NoError(t, err)

	assert.Equal(t, 0.25, s.Sample(nil, nil))
}

func TestNewRateSampler_Poisson(t *testing.T) {
	s, err := NewRateSampler(DistributionPoisson, 2)
	require.NoError(t, err)
	rng := NewPartitionedRNG(NewSimulationKey(1)).ForSubsystem("p")

	x := s.Sample(rng, nil)

	assert.GreaterOrEqual(t, x, 0.0)
	assert.IsType(t, &ExponentialSampler{}, s)
}

func TestNewRateSampler_RejectsBadRates(t *testing.T) {
	for _, rate := range []float64{0, -1} {
		_, err := NewRateSampler(DistributionConstant, rate)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	}
	_, err := NewRateSampler("weibull", 1)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestTransmissionSampler(t *testing.T) {
	// 100 bytes on an 800 bit/s link takes one time unit
	s := &TransmissionSampler{BitRate: 800}

	assert.Equal(t, 1.0, s.Sample(nil, NewPacket(1, 0, "g", 100)))
	assert.Equal(t, 0.0, s.Sample(nil, nil))
}
