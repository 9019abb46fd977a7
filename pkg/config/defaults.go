package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/dittodrive/pkg/filemanager"
	"github.com/marmos91/dittodrive/pkg/gc"
	"github.com/marmos91/dittodrive/pkg/reference"
)

const (
	// DefaultQuestionTimeout is how long a job waits for an overwrite answer
	// when the configuration does not say otherwise.
	DefaultQuestionTimeout = 10 * time.Minute

	// DefaultShutdownTimeout bounds the wait for running jobs on shutdown.
	DefaultShutdownTimeout = 30 * time.Second

	// DefaultMetricsPort is where long-running commands expose /metrics.
	DefaultMetricsPort = 9090
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// This function is called after loading configuration from file and environment
// variables to fill in any missing values with sensible defaults.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - jobs.question_timeout is left alone: 0 means "wait forever"; Load
//     supplies DefaultQuestionTimeout when the key is absent
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyMetadataDefaults(&cfg.Metadata)
	applyContentDefaults(&cfg.Content)
	applyJobsDefaults(&cfg.Jobs)
	applyNamingDefaults(&cfg.Naming)
	applyGCDefaults(&cfg.GC)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyMetadataDefaults sets metadata store defaults.
func applyMetadataDefaults(cfg *MetadataConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}

	// Apply defaults for all store types (for config file generation)
	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = filepath.Join(os.TempDir(), "dittodrive", "metadata")
	}
}

// applyContentDefaults sets content store defaults.
func applyContentDefaults(cfg *ContentConfig) {
	if cfg.Type == "" {
		cfg.Type = "filesystem"
	}

	if cfg.Filesystem == nil {
		cfg.Filesystem = make(map[string]any)
	}

	if _, ok := cfg.Filesystem["path"]; !ok {
		cfg.Filesystem["path"] = filepath.Join(os.TempDir(), "dittodrive", "content")
	}
}

// applyJobsDefaults sets job manager defaults.
func applyJobsDefaults(cfg *JobsConfig) {
	if cfg.MaxConcurrent == 0 {
		cfg.MaxConcurrent = filemanager.DefaultMaxConcurrent
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = filemanager.DefaultQueueSize
	}
	if cfg.StatusRetention == 0 {
		cfg.StatusRetention = filemanager.DefaultStatusRetention
	}
	if cfg.MaxRetainedStatuses == 0 {
		cfg.MaxRetainedStatuses = filemanager.DefaultMaxRetainedStatuses
	}
	// SubmissionRate defaults to 0 (unlimited)
	if cfg.SubmissionBurst == 0 {
		cfg.SubmissionBurst = 10
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// applyNamingDefaults sets unique-name reservation defaults.
func applyNamingDefaults(cfg *NamingConfig) {
	if cfg.ReservationTTL == 0 {
		cfg.ReservationTTL = reference.DefaultReservationTTL
	}
	if cfg.ReservationCapacity == 0 {
		cfg.ReservationCapacity = reference.DefaultReservationCapacity
	}
}

// applyGCDefaults sets garbage collector defaults.
func applyGCDefaults(cfg *GCConfig) {
	// Enabled defaults to false: one-shot commands never collect
	if cfg.Interval == 0 {
		cfg.Interval = gc.DefaultInterval
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = gc.DefaultBatchSize
	}
	if cfg.PackArchiveTTL == 0 {
		cfg.PackArchiveTTL = gc.DefaultArchiveTTL
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = DefaultMetricsPort
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Jobs: JobsConfig{
			QuestionTimeout: DefaultQuestionTimeout,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
