package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/content"
	"github.com/marmos91/dittodrive/pkg/filemanager"
	"github.com/marmos91/dittodrive/pkg/filesystem"
	"github.com/marmos91/dittodrive/pkg/gc"
	"github.com/marmos91/dittodrive/pkg/metadata"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/reference"
)

// Runtime holds the components built from a configuration, wired together.
type Runtime struct {
	MetadataStore metadata.Store
	ContentStore  content.ContentStore
	FileSystem    *filesystem.DefaultFileSystem
	Generator     *reference.Generator
	Manager       *filemanager.Manager
	Collector     *gc.Collector

	shutdownConfig JobsConfig
}

// NewRuntime creates the stores and the components running on top of them.
//
// Metrics are wired when InitializeMetrics enabled the registry beforehand.
// The collector is created but not started.
//
// Parameters:
//   - ctx: Context for store initialization
//   - cfg: A validated configuration
//
// Returns:
//   - *Runtime: Ready-to-use components; Close releases them
//   - error: Store creation error
func NewRuntime(ctx context.Context, cfg *Config) (*Runtime, error) {
	// ========================================================================
	// Step 1: Stores
	// ========================================================================

	metadataStore, err := CreateMetadataStore(ctx, &cfg.Metadata)
	if err != nil {
		return nil, err
	}

	contentStore, err := CreateContentStore(ctx, &cfg.Content)
	if err != nil {
		_ = metadataStore.Close()
		return nil, err
	}

	// ========================================================================
	// Step 2: File system, name generator and job manager
	// ========================================================================

	fs := filesystem.New(metadataStore, contentStore, metrics.NewFileSystemMetrics(cfg.Metadata.Type))

	generator := reference.NewGenerator(fs, reference.GeneratorConfig{
		ReservationTTL:      cfg.Naming.ReservationTTL,
		ReservationCapacity: cfg.Naming.ReservationCapacity,
		Metrics:             metrics.NewNamingMetrics(),
	})

	manager := filemanager.NewManager(fs, generator, filemanager.Config{
		MaxConcurrent:       cfg.Jobs.MaxConcurrent,
		QueueSize:           cfg.Jobs.QueueSize,
		QuestionTimeout:     cfg.Jobs.QuestionTimeout,
		StatusRetention:     cfg.Jobs.StatusRetention,
		MaxRetainedStatuses: cfg.Jobs.MaxRetainedStatuses,
		SubmissionRate:      cfg.Jobs.SubmissionRate,
		SubmissionBurst:     cfg.Jobs.SubmissionBurst,
		TempDir:             cfg.Jobs.TempDir,
		Metrics:             metrics.NewJobMetrics(),
	})

	// ========================================================================
	// Step 3: Garbage collector
	// ========================================================================

	collector := gc.NewCollector(metadataStore, contentStore, gc.Config{
		Enabled:    cfg.GC.Enabled,
		Interval:   cfg.GC.Interval,
		BatchSize:  cfg.GC.BatchSize,
		DryRun:     cfg.GC.DryRun,
		ArchiveDir: filepath.Join(cfg.Jobs.TempDir, filemanager.PackArchiveDir),
		ArchiveTTL: cfg.GC.PackArchiveTTL,
		Metrics:    metrics.NewGCMetrics(),
		InFlight:   fs,
	})

	logger.Debug("Runtime ready: metadata=%s content=%s max_concurrent=%d",
		cfg.Metadata.Type, cfg.Content.Type, cfg.Jobs.MaxConcurrent)

	return &Runtime{
		MetadataStore:  metadataStore,
		ContentStore:   contentStore,
		FileSystem:     fs,
		Generator:      generator,
		Manager:        manager,
		Collector:      collector,
		shutdownConfig: cfg.Jobs,
	}, nil
}

// Close stops the collector and the job manager, waiting at most
// jobs.shutdown_timeout for running jobs, then closes the stores.
func (r *Runtime) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.shutdownConfig.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := r.Collector.Stop(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop the garbage collector: %w", err))
	}
	if err := r.Manager.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to stop the job manager: %w", err))
	}
	if err := r.ContentStore.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close the content store: %w", err))
	}
	if err := r.MetadataStore.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close the metadata store: %w", err))
	}
	return errors.Join(errs...)
}
