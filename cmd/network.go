package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netqueue-sim/netqueue-sim/sim/network"
	"github.com/netqueue-sim/netqueue-sim/sim/trace"
)

var (
	// CLI flags for the branching network model
	networkSeed       int64   // Seed for arrivals, sizes, branching and monitors
	networkPortRate   float64 // Port rate in packets per time unit
	networkBufferSize int64   // Port buffer in bytes
	networkSimTime    int64   // Virtual run length
	topologyPath      string  // Optional YAML topology replacing the built-in one
	traceLevel        string  // Decision trace level
)

// networkCmd runs the branching network of switch ports
var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Simulate a network of switch ports joined by random branchers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := networkConfigFromFlags()
		if err != nil {
			return err
		}
		format, err := network.ParseOutputFormat(outputFormat)
		if err != nil {
			return err
		}
		report, err := network.RunNetwork(cfg)
		if err != nil {
			return err
		}
		return report.Write(cmd.OutOrStdout(), format)
	},
}

func networkConfigFromFlags() (network.NetworkConfig, error) {
	cfg := network.NetworkConfig{
		Seed:       networkSeed,
		PortRate:   networkPortRate,
		BufferSize: networkBufferSize,
		SimTime:    float64(networkSimTime),
		TraceLevel: trace.TraceLevel(traceLevel),
	}
	if topologyPath != "" {
		spec, err := network.LoadTopologySpec(topologyPath)
		if err != nil {
			return network.NetworkConfig{}, err
		}
		logrus.Infof("Loaded topology from %s; --port_rate and --buffer_size are ignored", topologyPath)
		cfg.Topology = spec
	}
	return cfg, cfg.Validate()
}

func init() {
	defaults := network.NewNetworkConfig()
	networkCmd.Flags().Int64Var(&networkSeed, "random_seed", defaults.Seed, "Random seed for the simulation")
	networkCmd.Flags().Float64Var(&networkPortRate, "port_rate", defaults.PortRate, "Port rate in packets per second")
	networkCmd.Flags().Int64Var(&networkBufferSize, "buffer_size", defaults.BufferSize, "Buffer size in bytes")
	networkCmd.Flags().Int64Var(&networkSimTime, "sim_time", int64(defaults.SimTime), "Simulation time")
	networkCmd.Flags().StringVar(&topologyPath, "topology", "", "YAML topology file (replaces the built-in network)")
	networkCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")
}
