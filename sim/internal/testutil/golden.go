// Package testutil provides shared test infrastructure for the simulator.
// It holds the analytic reference dataset and assertion helpers used across
// sim/ test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one finite-buffer single-server station with exponential
// inter-arrival and service times (M/M/1/K), K counting the packet in service.
type GoldenTestCase struct {
	Name        string        `json:"name"`
	ArrivalRate float64       `json:"arrival_rate"`
	Mu          float64       `json:"mu"`
	BufferSize  int64         `json:"buffer_size"`
	Seed        int64         `json:"seed"`
	SimTime     float64       `json:"sim_time"`
	Metrics     GoldenMetrics `json:"metrics"`
}

// GoldenMetrics holds the closed-form steady-state values for a test case.
type GoldenMetrics struct {
	Utilization         float64 `json:"utilization"`          // 1 - P0
	BlockingProbability float64 `json:"blocking_probability"` // PK, seen by arrivals
	MeanDelay           float64 `json:"mean_delay"`           // L / (lambda * (1 - PK))
	MeanOccupancy       float64 `json:"mean_occupancy"`       // L
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
