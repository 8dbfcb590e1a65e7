package metrics

import (
	"time"

	"github.com/gustavosantosASA/Florestal-App-PPR/pkg/sheets"
	"github.com/prometheus/client_golang/prometheus"
)

const outcomeOK = "ok"

// SheetMetrics records every call made to the spreadsheet provider. It
// satisfies sheets.Observer.
type SheetMetrics struct {
	duration *prometheus.HistogramVec
	calls    *prometheus.CounterVec
}

// NewSheetMetrics registers the sheet call metrics on the provided registerer.
func NewSheetMetrics(reg prometheus.Registerer) *SheetMetrics {
	if reg == nil {
		return &SheetMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    namespace + "_sheet_call_duration_seconds",
		Help:    "Latency of spreadsheet provider calls.",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 15},
	}, []string{"op"})
	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: namespace + "_sheet_calls_total",
		Help: "Spreadsheet provider calls by operation and outcome.",
	}, []string{"op", "outcome"})
	reg.MustRegister(duration, calls)
	return &SheetMetrics{duration: duration, calls: calls}
}

// ObserveSheetCall implements sheets.Observer. An empty kind means success.
func (s *SheetMetrics) ObserveSheetCall(op string, took time.Duration, kind sheets.Kind) {
	if s == nil || s.duration == nil {
		return
	}
	op = normalizeLabel(op)
	outcome := outcomeOK
	if kind != "" {
		outcome = string(kind)
	}
	s.duration.WithLabelValues(op).Observe(took.Seconds())
	s.calls.WithLabelValues(op, outcome).Inc()
}

var _ sheets.Observer = (*SheetMetrics)(nil)
