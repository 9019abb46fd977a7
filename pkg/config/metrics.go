package config

import (
	"github.com/marmos91/dittodrive/pkg/metrics"
)

// InitializeMetrics enables the global Prometheus registry when metrics are
// enabled in the configuration. It must run before NewRuntime: the component
// metrics are created there and fall back to no-op implementations when the
// registry is not initialized.
//
// Returns whether metrics are enabled.
func InitializeMetrics(cfg *Config) bool {
	if !cfg.Metrics.Enabled {
		return false
	}

	metrics.InitRegistry()
	return true
}

// CreateMetricsServer creates the HTTP server exposing /metrics on
// metrics.port.
//
// Returns:
//   - *metrics.Server: Bound but not yet serving; nil when metrics are disabled
//   - error: The port could not be bound
func CreateMetricsServer(cfg *Config) (*metrics.Server, error) {
	if !InitializeMetrics(cfg) {
		return nil, nil
	}

	return metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
}
