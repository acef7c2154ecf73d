// Package metrics records executor and session activity as Prometheus metrics.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/s0up4200/dhparkeren/parkeren"
)

const namespace = "dhparkeren"

// Recorder implements parkeren.Recorder on a Prometheus registry
type Recorder struct {
	registry *prometheus.Registry

	Attempts       *prometheus.CounterVec
	AttemptLatency *prometheus.HistogramVec
	Logins         *prometheus.CounterVec
	LoginLatency   prometheus.Histogram
	Reauths        prometheus.Counter
}

var _ parkeren.Recorder = (*Recorder)(nil)

// NewRecorder creates a Recorder with its own registry
func NewRecorder() *Recorder {
	return NewRecorderWithRegistry(prometheus.NewRegistry())
}

// NewRecorderWithRegistry registers the metrics on registry
func NewRecorderWithRegistry(registry *prometheus.Registry) *Recorder {
	factory := promauto.With(registry)

	return &Recorder{
		registry: registry,
		Attempts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "request_attempts_total",
				Help:      "Total number of HTTP attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		AttemptLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_attempt_duration_seconds",
				Help:      "HTTP attempt latency in seconds",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"method"},
		),
		Logins: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "logins_total",
				Help:      "Total number of login exchanges by result",
			},
			[]string{"result"},
		),
		LoginLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "login_duration_seconds",
				Help:      "Login exchange latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Reauths: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reauthentications_total",
				Help:      "Total number of re-authentications after a rejected session",
			},
		),
	}
}

// Registry returns the registry the metrics live on
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveAttempt implements parkeren.Recorder
func (r *Recorder) ObserveAttempt(method string, kind parkeren.OutcomeKind, elapsed time.Duration) {
	r.Attempts.WithLabelValues(method, kind.String()).Inc()
	r.AttemptLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// ObserveLogin implements parkeren.Recorder
func (r *Recorder) ObserveLogin(success bool, elapsed time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	r.Logins.WithLabelValues(result).Inc()
	r.LoginLatency.Observe(elapsed.Seconds())
}

// ObserveReauth implements parkeren.Recorder
func (r *Recorder) ObserveReauth() {
	r.Reauths.Inc()
}

// WriteSummary writes one line per counter series, sorted by name
func (r *Recorder) WriteSummary(w io.Writer) error {
	families, err := r.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	var lines []string
	for _, family := range families {
		if family.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, m := range family.GetMetric() {
			lines = append(lines, fmt.Sprintf("%s%s %s",
				family.GetName(),
				formatLabels(m.GetLabel()),
				strconv.FormatFloat(m.GetCounter().GetValue(), 'f', -1, 64)))
		}
	}
	sort.Strings(lines)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func formatLabels(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}
