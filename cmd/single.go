package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netqueue-sim/netqueue-sim/sim"
	"github.com/netqueue-sim/netqueue-sim/sim/network"
)

var (
	// CLI flags for the single-queue model
	singleSeed         int64  // Seed for inter-arrival and service draws
	singleArrivalRates string // Comma-separated arrival rates, one run each
	singleSimTime      int64  // Virtual time per run
	singleBufferSize   int64  // Buffer size in packets
	singleDistribution string // constant or poisson
	singleMu           float64
)

// singleCmd runs one finite-buffer queue per arrival rate
var singleCmd = &cobra.Command{
	Use:   "single",
	Short: "Simulate a single finite-buffer queue for a list of arrival rates",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := singleConfigFromFlags()
		if err != nil {
			return err
		}
		format, err := network.ParseOutputFormat(outputFormat)
		if err != nil {
			return err
		}
		logrus.Infof("Starting single queue runs: rates=%v mu=%v buffer=%d distribution=%s sim_time=%v",
			cfg.ArrivalRates, cfg.Mu, cfg.BufferSize, cfg.Distribution, cfg.SimTime)

		report, err := network.RunSingleQueue(cfg)
		if err != nil {
			return err
		}
		return report.Write(cmd.OutOrStdout(), format)
	},
}

func singleConfigFromFlags() (network.SingleQueueConfig, error) {
	rates, err := parseArrivalRates(singleArrivalRates)
	if err != nil {
		return network.SingleQueueConfig{}, err
	}
	dist, err := sim.ParseTimeDistribution(singleDistribution)
	if err != nil {
		return network.SingleQueueConfig{}, err
	}
	cfg := network.SingleQueueConfig{
		Seed:         singleSeed,
		ArrivalRates: rates,
		SimTime:      float64(singleSimTime),
		BufferSize:   singleBufferSize,
		Distribution: dist,
		Mu:           singleMu,
	}
	return cfg, cfg.Validate()
}

// parseArrivalRates splits a comma-separated list of positive rates.
func parseArrivalRates(s string) ([]float64, error) {
	fields := strings.Split(s, ",")
	rates := make([]float64, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		r, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: arrival rate %q is not a number", sim.ErrInvalidConfiguration, f)
		}
		if !(r > 0) {
			return nil, fmt.Errorf("%w: arrival rate %v must be positive", sim.ErrInvalidConfiguration, r)
		}
		rates = append(rates, r)
	}
	return rates, nil
}

func init() {
	defaults := network.NewSingleQueueConfig()
	singleCmd.Flags().Int64Var(&singleSeed, "random_seed", defaults.Seed, "Random seed for the simulation")
	singleCmd.Flags().StringVar(&singleArrivalRates, "arrival_rates", "0.1,0.2", "A comma separated list of arrival rates, lambdas")
	singleCmd.Flags().Int64Var(&singleSimTime, "sim_time", int64(defaults.SimTime), "Simulation time")
	singleCmd.Flags().Int64Var(&singleBufferSize, "buffer_size", defaults.BufferSize, "Buffer size in packets")
	singleCmd.Flags().StringVar(&singleDistribution, "time_distribution", string(defaults.Distribution), "Time distribution for inter-arrival and service (constant, poisson)")
	singleCmd.Flags().Float64Var(&singleMu, "mu", defaults.Mu, "Service rate in packets per time unit")
}
