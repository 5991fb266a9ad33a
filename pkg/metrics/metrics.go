// Package metrics records per-call driver statistics in Prometheus.
//
// Every driver call the navigation layer makes is a device round trip, so
// counting them by operation is the most direct measure of how chatty a
// command was. InstrumentDriver wraps an mtp.Driver so that every call,
// including those on the sessions, cursors and streams it hands out, is
// observed.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation labels.
const (
	OpRefresh              = "refresh"
	OpListDevices          = "list_devices"
	OpFriendlyName         = "friendly_name"
	OpOpenSession          = "open_session"
	OpCloseSession         = "close_session"
	OpGetProperties        = "get_properties"
	OpEnumerate            = "enumerate"
	OpEnumerateNext        = "enumerate_next"
	OpCreateObject         = "create_object"
	OpCreateObjectWithData = "create_object_with_data"
	OpDeleteObject         = "delete_object"
	OpMoveObject           = "move_object"
	OpOpenResource         = "open_resource"
	OpReadChunk            = "read_chunk"
	OpWriteChunk           = "write_chunk"
	OpCommit               = "commit"
	OpCloseResource        = "close_resource"
)

// Transfer directions.
const (
	DirectionRead  = "read"
	DirectionWrite = "write"
)

// Metric names.
const (
	CallsTotalName   = "mtpfs_driver_calls_total"
	CallDurationName = "mtpfs_driver_call_duration_milliseconds"
	BytesTotalName   = "mtpfs_transfer_bytes_total"
	SessionsOpenName = "mtpfs_sessions_open"
)

// Metrics holds the driver collectors. A nil *Metrics records nothing.
type Metrics struct {
	// CallsTotal counts driver calls by operation and status.
	CallsTotal *prometheus.CounterVec

	// CallDuration tracks call latency in milliseconds.
	CallDuration *prometheus.HistogramVec

	// BytesTotal counts transferred bytes by direction.
	BytesTotal *prometheus.CounterVec

	// SessionsOpen tracks sessions opened and not yet closed.
	SessionsOpen prometheus.Gauge
}

// NewMetrics creates the driver collectors and registers them with reg.
// Registration panics on duplicates, so call it once per registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: CallsTotalName,
				Help: "Total driver calls by operation and status",
			},
			[]string{"operation", "status"},
		),
		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: CallDurationName,
				Help: "Duration of driver calls in milliseconds",
				Buckets: []float64{
					0.1,  // in-process emulator
					1,    // 1ms
					5,    // 5ms - typical USB round trip
					20,   // 20ms
					100,  // 100ms - large chunk transfer
					500,  // 500ms
					2000, // 2s - slow storage, recursive delete
				},
			},
			[]string{"operation"},
		),
		BytesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: BytesTotalName,
				Help: "Total bytes transferred to and from devices",
			},
			[]string{"direction"},
		),
		SessionsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: SessionsOpenName,
				Help: "Current number of open device sessions",
			},
		),
	}
}

// ObserveCall records one driver call.
func (m *Metrics) ObserveCall(op string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.CallsTotal.WithLabelValues(op, status).Inc()
	m.CallDuration.WithLabelValues(op).Observe(float64(d.Microseconds()) / 1000)
}

// RecordBytes adds n transferred bytes in the given direction.
func (m *Metrics) RecordBytes(direction string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BytesTotal.WithLabelValues(direction).Add(float64(n))
}

// SessionOpened increments the open session gauge.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.SessionsOpen.Inc()
	}
}

// SessionClosed decrements the open session gauge.
func (m *Metrics) SessionClosed() {
	if m != nil {
		m.SessionsOpen.Dec()
	}
}
