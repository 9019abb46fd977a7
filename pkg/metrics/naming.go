package metrics

import (
	"sync"

	"github.com/marmos91/dittodrive/pkg/reference"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// namingMetrics is the Prometheus implementation of reference.GeneratorMetrics.
//
// This implementation collects metrics about unique name generation:
//   - Candidate outcomes (accepted, reserved, exists)
//   - Reservation cache size
type namingMetrics struct {
	candidatesTotal *prometheus.CounterVec
	reservations    prometheus.Gauge
}

var (
	namingMetricsOnce     sync.Once
	namingMetricsInstance *namingMetrics
)

// NewNamingMetrics creates a new Prometheus-backed GeneratorMetrics instance.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// causes the generator to use its built-in no-op implementation.
func NewNamingMetrics() reference.GeneratorMetrics {
	if !IsEnabled() {
		return nil
	}

	namingMetricsOnce.Do(func() {
		reg := GetRegistry()

		namingMetricsInstance = &namingMetrics{
			candidatesTotal: promauto.With(reg).NewCounterVec(
				prometheus.CounterOpts{
					Name: "dittodrive_naming_candidates_total",
					Help: "Total number of name candidates examined by outcome",
				},
				[]string{"outcome"},
			),
			reservations: promauto.With(reg).NewGauge(
				prometheus.GaugeOpts{
					Name: "dittodrive_naming_reservations",
					Help: "Current number of entries in the name reservation cache",
				},
			),
		}
	})

	return namingMetricsInstance
}

func (m *namingMetrics) RecordCandidate(outcome reference.CandidateOutcome) {
	m.candidatesTotal.WithLabelValues(string(outcome)).Inc()
}

func (m *namingMetrics) SetReservations(count int) {
	m.reservations.Set(float64(count))
}
