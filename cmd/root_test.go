package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netqueue-sim/netqueue-sim/sim"
)

// execute runs the root command with args. Flag variables are package
// globals, so every test passes the full flag set it relies on.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	err := rootCmd.Execute()
	return out.String(), err
}

func singleArgs(extra ...string) []string {
	args := []string{"single", "--log", "error", "--format", "table",
		"--random_seed", "29", "--arrival_rates", "0.1,0.2", "--sim_time", "2000",
		"--buffer_size", "20", "--time_distribution", "poisson", "--mu", "2"}
	return append(args, extra...)
}

func networkArgs(extra ...string) []string {
	args := []string{"network", "--log", "error", "--format", "table",
		"--random_seed", "29", "--port_rate", "1000", "--buffer_size", "120000",
		"--sim_time", "200", "--topology", "", "--trace", "none"}
	return append(args, extra...)
}

func TestSingleCommand_PrintsOneRowPerRate(t *testing.T) {
	out, err := execute(t, singleArgs()...)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Simple queue system model:mu = 2", lines[0])
	assert.True(t, strings.HasPrefix(lines[2], "0.100"))
	assert.True(t, strings.HasPrefix(lines[3], "0.200"))
}

func TestSingleCommand_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown distribution", singleArgs("--time_distribution", "uniform")},
		{"non-numeric rate", singleArgs("--arrival_rates", "0.1,fast")},
		{"negative rate", singleArgs("--arrival_rates", "-1")},
		{"negative buffer", singleArgs("--buffer_size", "-1")},
		{"unknown format", singleArgs("--format", "xml")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorIs(t, err, sim.ErrInvalidConfiguration)
		})
	}
}

func TestSingleCommand_ConstantDistributionIsCaseInsensitive(t *testing.T) {
	out, err := execute(t, singleArgs("--time_distribution", "Constant", "--arrival_rates", "0.5", "--sim_time", "100")...)
	require.NoError(t, err)

	assert.Contains(t, out, "0.500     49        0.500     0.500     0.500")
}

func TestNetworkCommand_JSON(t *testing.T) {
	out, err := execute(t, networkArgs("--format", "json")...)
	require.NoError(t, err)

	var report struct {
		TotalSent int64            `json:"total_sent"`
		Received  int64            `json:"received"`
		Dropped   int64            `json:"dropped"`
		InFlight  int64            `json:"in_flight"`
		Sent      map[string]int64 `json:"sent"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Positive(t, report.TotalSent)
	assert.Equal(t, report.TotalSent, report.Received+report.Dropped+report.InFlight)
	assert.Len(t, report.Sent, 3)
}

func TestNetworkCommand_Table(t *testing.T) {
	out, err := execute(t, networkArgs()...)
	require.NoError(t, err)

	assert.Contains(t, out, "average wait SJSU1 to sink1 = ")
	assert.Contains(t, out, "average wait SJSU2 to sink2 = ")
	assert.Contains(t, out, "packets sent: ")
	assert.Contains(t, out, "=== Ports ===")
}

func TestNetworkCommand_TopologyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "line.yaml")
	yaml := `
generators:
  - name: src
    inter_arrival: {type: constant, value: 2}
    out: port
queue_servers:
  - name: port
    capacity: 4
    service: {type: constant, value: 1}
    out: sink
sinks:
  - name: sink
    record_waits: true
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	out, err := execute(t, networkArgs("--topology", path, "--sim_time", "10")...)
	require.NoError(t, err)

	assert.Contains(t, out, "average wait all to sink = 1\n")
	assert.Contains(t, out, "packets sent: 5\n")
	assert.Contains(t, out, "packets in flight: 1\n")
}

func TestNetworkCommand_RejectsBadInput(t *testing.T) {
	_, err := execute(t, networkArgs("--trace", "everything")...)
	assert.ErrorIs(t, err, sim.ErrInvalidConfiguration)

	_, err = execute(t, networkArgs("--topology", filepath.Join(t.TempDir(), "missing.yaml"))...)
	assert.Error(t, err)
}
