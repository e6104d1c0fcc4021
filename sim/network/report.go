// Renders experiment reports as fixed-width tables or JSON.

package network

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/netqueue-sim/netqueue-sim/sim"
)

// OutputFormat selects how reports are rendered.
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
)

// ParseOutputFormat validates a format keyword.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatTable, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown output format %q; valid: table, json", sim.ErrInvalidConfiguration, s)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Write renders the report in the given format.
func (r *SingleQueueReport) Write(w io.Writer, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, r)
	}
	return r.Print(w)
}

// Print writes one fixed-width row per arrival rate.
func (r *SingleQueueReport) Print(w io.Writer) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Simple queue system model:mu = %v\n", r.Mu)
	for _, h := range []string{"Lambda", "Count", "Min", "Max", "Mean", "Median", "Sd", "Utilization", "Num. Total", "Num. Dropped"} {
		fmt.Fprintf(&sb, "%-9s ", h)
	}
	sb.WriteString("\n")
	for _, row := range r.Rows {
		fmt.Fprintf(&sb, "%-9.3f %-9d %-9.3f %-9.3f %-9.3f %-9.3f %-9.3f %-9.3f %-9d %-9d\n",
			row.Lambda,
			row.Delay.Count,
			row.Delay.Min,
			row.Delay.Max,
			row.Delay.Mean,
			row.Delay.Median,
			row.Delay.StandardDeviation,
			row.Utilization,
			row.NumTotal,
			row.NumDropped)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Write renders the report in the given format.
func (r *NetworkReport) Write(w io.Writer, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, r)
	}
	return r.Print(w)
}

// Print writes the average wait per measured path, then packet accounting.
func (r *NetworkReport) Print(w io.Writer) error {
	var sb strings.Builder
	for _, p := range r.Paths {
		fmt.Fprintf(&sb, "average wait %s to %s = %v\n", p.Source, p.Sink, p.MeanWait)
	}

	sources := make([]string, 0, len(r.Sent))
	for name := range r.Sent {
		sources = append(sources, name)
	}
	sort.Strings(sources)
	for _, name := range sources {
		fmt.Fprintf(&sb, "packets sent by %s: %d\n", name, r.Sent[name])
	}
	fmt.Fprintf(&sb, "packets sent: %d\n", r.TotalSent)
	fmt.Fprintf(&sb, "packets received: %d\n", r.Received)
	fmt.Fprintf(&sb, "packets dropped: %d\n", r.Dropped)
	fmt.Fprintf(&sb, "packets in flight: %d\n", r.InFlight)

	sb.WriteString("=== Ports ===\n")
	for _, p := range r.Ports {
		fmt.Fprintf(&sb, "%-8s received=%-8d dropped=%-8d completed=%-8d utilization=%.3f mean_occupancy=%.3f\n",
			p.Name, p.Received, p.Dropped, p.Completed, p.Utilization, p.MeanOccupancy)
	}
	if len(r.Branches) > 0 {
		sb.WriteString("=== Branchers ===\n")
	}
	for _, b := range r.Branches {
		fmt.Fprintf(&sb, "%-8s received=%-8d discarded=%-8d fractions=%s (configured %s)\n",
			b.Name, b.Received, b.Discarded, formatFractions(b.Fractions), formatFractions(b.Probabilities))
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func formatFractions(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%.3f", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
