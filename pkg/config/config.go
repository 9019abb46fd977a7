package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete DittoDrive configuration.
//
// This structure captures all configurable aspects of DittoDrive including:
//   - Logging configuration
//   - Metadata store selection and configuration (store-specific)
//   - Content store selection and configuration (store-specific)
//   - Job manager limits
//   - Unique-name reservations
//   - Garbage collection
//   - Metrics
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DITTODRIVE_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each store implementation defines its own options. The Config struct
// contains type-specific sections (e.g., content.filesystem, content.s3) and
// only the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Metadata specifies the metadata store type and type-specific configuration
	Metadata MetadataConfig `mapstructure:"metadata" yaml:"metadata"`

	// Content specifies the content store type and type-specific configuration
	Content ContentConfig `mapstructure:"content" yaml:"content"`

	// Jobs contains the job manager limits
	Jobs JobsConfig `mapstructure:"jobs" yaml:"jobs"`

	// Naming configures the reservations of the unique-name generator
	Naming NamingConfig `mapstructure:"naming" yaml:"naming"`

	// GC configures the garbage collector
	GC GCConfig `mapstructure:"gc" yaml:"gc"`

	// Metrics configures Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// MetadataConfig specifies metadata store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type MetadataConfig struct {
	// Type specifies which metadata store implementation to use
	// Valid values: memory, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`
}

// ContentConfig specifies content store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type ContentConfig struct {
	// Type specifies which content store implementation to use
	// Valid values: filesystem, memory, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=filesystem memory s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem" yaml:"filesystem,omitempty"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// JobsConfig contains the job manager limits.
type JobsConfig struct {
	// MaxConcurrent is the number of jobs running at the same time
	MaxConcurrent int `mapstructure:"max_concurrent" yaml:"max_concurrent" validate:"gte=1"`

	// QueueSize bounds the jobs waiting for a worker
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size" validate:"gte=1"`

	// QuestionTimeout bounds the wait for an overwrite answer. An unanswered
	// question keeps the existing file. 0 waits forever.
	QuestionTimeout time.Duration `mapstructure:"question_timeout" yaml:"question_timeout" validate:"gte=0"`

	// StatusRetention is how long a finished job stays queryable
	StatusRetention time.Duration `mapstructure:"status_retention" yaml:"status_retention" validate:"gt=0"`

	// MaxRetainedStatuses caps the finished jobs kept queryable
	MaxRetainedStatuses int `mapstructure:"max_retained_statuses" yaml:"max_retained_statuses" validate:"gte=1"`

	// SubmissionRate is the sustained job submissions per second (0 = unlimited)
	SubmissionRate float64 `mapstructure:"submission_rate" yaml:"submission_rate" validate:"gte=0"`

	// SubmissionBurst is the number of submissions accepted at once
	SubmissionBurst int `mapstructure:"submission_burst" yaml:"submission_burst" validate:"gte=0"`

	// TempDir is where pack archives are written
	TempDir string `mapstructure:"temp_dir" yaml:"temp_dir" validate:"required"`

	// ShutdownTimeout bounds the wait for running jobs on shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

// NamingConfig configures the reservations of the unique-name generator.
type NamingConfig struct {
	// ReservationTTL is how long a generated reference stays reserved
	ReservationTTL time.Duration `mapstructure:"reservation_ttl" yaml:"reservation_ttl" validate:"gt=0"`

	// ReservationCapacity bounds the number of reservations kept
	ReservationCapacity int `mapstructure:"reservation_capacity" yaml:"reservation_capacity" validate:"gte=1"`
}

// GCConfig configures the garbage collector.
type GCConfig struct {
	// Enabled runs the collector periodically in long-running commands
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Interval is how often the collector runs
	Interval time.Duration `mapstructure:"interval" yaml:"interval" validate:"gt=0"`

	// BatchSize is how many orphaned blobs are deleted per batch
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size" validate:"gte=1,lte=1000"`

	// DryRun logs what would be deleted without deleting anything
	DryRun bool `mapstructure:"dry_run" yaml:"dry_run"`

	// PackArchiveTTL is how long a pack archive is kept
	PackArchiveTTL time.Duration `mapstructure:"pack_archive_ttl" yaml:"pack_archive_ttl" validate:"gt=0"`
}

// MetricsConfig configures Prometheus metrics collection.
type MetricsConfig struct {
	// Enabled turns metrics collection on
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is where long-running commands expose /metrics
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DITTODRIVE_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use DITTODRIVE_ prefix and underscores
	// Example: DITTODRIVE_JOBS_MAX_CONCURRENT=8
	v.SetEnvPrefix("DITTODRIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, reflect.TypeFor[Config](), "")

	// 0 is a meaningful question timeout: only an absent key gets the default
	v.SetDefault("jobs.question_timeout", DefaultQuestionTimeout)

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/dittodrive/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml") // Primary format
	}
}

// bindEnvs registers every scalar key of t with viper. AutomaticEnv only
// resolves keys viper already knows, so without this an environment variable
// is ignored unless the configuration file sets the same key.
func bindEnvs(v *viper.Viper, t reflect.Type, prefix string) {
	for i := range t.NumField() {
		field := t.Field(i)
		key := field.Tag.Get("mapstructure")
		if key == "" || key == "-" {
			continue
		}
		if prefix != "" {
			key = prefix + "." + key
		}

		switch field.Type.Kind() {
		case reflect.Struct:
			bindEnvs(v, field.Type, key)
		case reflect.Map:
			// Store-specific sections are free-form
		default:
			_ = v.BindEnv(key)
		}
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - use defaults
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dittodrive")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "dittodrive")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
