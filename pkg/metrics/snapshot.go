package metrics

import (
	"fmt"
	"slices"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// CallCount is the number of calls of one operation.
type CallCount struct {
	Operation string `json:"operation" yaml:"operation"`
	Success   uint64 `json:"success" yaml:"success"`
	Errors    uint64 `json:"errors" yaml:"errors"`
}

// Total returns successful plus failed calls.
func (c CallCount) Total() uint64 { return c.Success + c.Errors }

// Stats is a point-in-time summary of driver activity.
type Stats struct {
	Calls        []CallCount `json:"calls" yaml:"calls"`
	BytesRead    uint64      `json:"bytes_read" yaml:"bytes_read"`
	BytesWritten uint64      `json:"bytes_written" yaml:"bytes_written"`
}

// RoundTrips returns the number of driver calls across all operations.
func (s Stats) RoundTrips() uint64 {
	var n uint64
	for _, c := range s.Calls {
		n += c.Total()
	}
	return n
}

// Count returns the call count of op.
func (s Stats) Count(op string) CallCount {
	for _, c := range s.Calls {
		if c.Operation == op {
			return c
		}
	}
	return CallCount{Operation: op}
}

// Snapshot reads the driver metrics from g. Operations are sorted by name.
func Snapshot(g prometheus.Gatherer) (Stats, error) {
	families, err := g.Gather()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to gather metrics: %w", err)
	}

	var stats Stats
	calls := make(map[string]*CallCount)
	for _, mf := range families {
		switch mf.GetName() {
		case CallsTotalName:
			for _, m := range mf.GetMetric() {
				var op, status string
				for _, lp := range m.GetLabel() {
					switch lp.GetName() {
					case "operation":
						op = lp.GetValue()
					case "status":
						status = lp.GetValue()
					}
				}
				c, ok := calls[op]
				if !ok {
					c = &CallCount{Operation: op}
					calls[op] = c
				}
				v := uint64(m.GetCounter().GetValue())
				if status == "error" {
					c.Errors += v
				} else {
					c.Success += v
				}
			}
		case BytesTotalName:
			for _, m := range mf.GetMetric() {
				v := uint64(m.GetCounter().GetValue())
				for _, lp := range m.GetLabel() {
					if lp.GetName() != "direction" {
						continue
					}
					switch lp.GetValue() {
					case DirectionRead:
						stats.BytesRead += v
					case DirectionWrite:
						stats.BytesWritten += v
					}
				}
			}
		}
	}

	for _, c := range calls {
		stats.Calls = append(stats.Calls, *c)
	}
	slices.SortFunc(stats.Calls, func(a, b CallCount) int {
		return strings.Compare(a.Operation, b.Operation)
	})
	return stats, nil
}
