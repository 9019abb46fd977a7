// Package gc removes what the file system no longer needs:
//   - content blobs no file record references (orphaned content)
//   - pack archives older than their retention period
//
// Orphaned content appears when a process dies between deleting a file
// record and deleting its content, or when a content delete fails and is
// only logged. Pack archives are written for a caller to download and are
// never deleted by the pack job itself.
package gc

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/content"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// Defaults applied by NewCollector to zero Config fields.
const (
	DefaultInterval   = 24 * time.Hour
	DefaultBatchSize  = 1000
	DefaultArchiveTTL = 24 * time.Hour
)

// CollectorMetrics records garbage collection runs.
type CollectorMetrics interface {
	// RecordRun records one collection run. stats may be partial when err
	// is set.
	RecordRun(stats *Stats, err error)
}

// InFlightContent reports content already written whose file record is
// not saved yet.
type InFlightContent interface {
	PendingContent() []metadata.ContentID
}

type noopMetrics struct{}

func (noopMetrics) RecordRun(stats *Stats, err error) {}

// Config contains configuration for the garbage collector.
type Config struct {
	// Enabled controls whether Start runs the periodic worker
	Enabled bool

	// Interval is how often to run garbage collection (default: 24h)
	Interval time.Duration

	// BatchSize is how many orphaned items to delete per batch (default: 1000)
	// S3 supports up to 1000 objects per DeleteObjects call
	BatchSize int

	// DryRun logs what would be deleted without deleting anything
	DryRun bool

	// ArchiveDir is the root of the pack archives. Empty skips the archive
	// sweep.
	ArchiveDir string

	// ArchiveTTL is how long a pack archive is kept (default: 24h)
	ArchiveTTL time.Duration

	// Metrics records runs. Nil disables collection.
	Metrics CollectorMetrics

	// InFlight protects content whose record is still being saved. Nil
	// assumes nothing writes content while the collector runs.
	InFlight InFlightContent
}

// Collector performs periodic garbage collection.
//
// Thread Safety: Safe for concurrent use. Runs are serialized.
type Collector struct {
	metadataStore metadata.Store
	contentStore  content.ContentStore
	config        Config

	runMu    sync.Mutex
	stopOnce sync.Once
	started  bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewCollector creates a collector. Call Start to run it periodically or
// RunNow for a single run.
//
// Parameters:
//   - metadataStore: Metadata store to query referenced content
//   - contentStore: Content store to scan and delete orphaned content
//   - config: Garbage collection configuration
func NewCollector(metadataStore metadata.Store, contentStore content.ContentStore, config Config) *Collector {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DefaultBatchSize
	}
	if config.ArchiveTTL <= 0 {
		config.ArchiveTTL = DefaultArchiveTTL
	}
	if config.Metrics == nil {
		config.Metrics = noopMetrics{}
	}

	return &Collector{
		metadataStore: metadataStore,
		contentStore:  contentStore,
		config:        config,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start begins background garbage collection. Does nothing when the
// collector is disabled. Must be called at most once.
func (c *Collector) Start() {
	if !c.config.Enabled {
		logger.Info("Garbage collection disabled")
		return
	}

	logger.Info("Starting garbage collector: interval=%s batch_size=%d dry_run=%v",
		c.config.Interval, c.config.BatchSize, c.config.DryRun)

	c.started = true
	go c.worker()
}

// Stop stops the worker and waits for an in-progress run to finish, or for
// ctx to expire. Safe to call multiple times.
func (c *Collector) Stop(ctx context.Context) error {
	if !c.started {
		return nil
	}

	c.stopOnce.Do(func() { close(c.stopCh) })

	select {
	case <-c.doneCh:
		logger.Info("Garbage collector stopped")
		return nil
	case <-ctx.Done():
		logger.Warn("Garbage collector shutdown timeout")
		return ctx.Err()
	}
}

// RunNow runs a collection immediately and blocks until it completes.
func (c *Collector) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running garbage collection (manual trigger)")
	return c.collect(ctx)
}

func (c *Collector) worker() {
	defer close(c.doneCh)

	ticker := time.NewTicker(c.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			stats, err := c.collect(ctx)
			cancel()

			if err != nil {
				logger.Error("Garbage collection failed: %v", err)
			} else {
				logger.Info("Garbage collection completed: %s", stats.Summary())
			}

		case <-c.stopCh:
			return
		}
	}
}

// collect performs a single run:
//  1. Get all ContentIDs referenced by file records
//  2. Get all ContentIDs in the content store
//  3. Batch delete existing - referenced
//  4. Delete the expired pack archives
func (c *Collector) collect(ctx context.Context) (stats *Stats, err error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	stats = &Stats{StartTime: time.Now()}
	defer func() {
		stats.EndTime = time.Now()
		c.config.Metrics.RecordRun(stats, err)
	}()

	if err := c.collectContent(ctx, stats); err != nil {
		return stats, err
	}
	if err := c.collectArchives(ctx, stats); err != nil {
		return stats, err
	}

	logger.Info("GC: Completed - %s", stats.Summary())
	return stats, nil
}

func (c *Collector) collectContent(ctx context.Context, stats *Stats) error {
	// Listing content before references, and in-flight content last, means
	// content written during the run is either referenced or pending here.

	// Step 1: stored content
	existing, err := c.contentStore.ListAllContent(ctx)
	if err != nil {
		return fmt.Errorf("failed to list content: %w", err)
	}
	stats.ExistingCount = uint64(len(existing))

	// Step 2: referenced content
	referenced, err := c.metadataStore.ListContentIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get referenced content: %w", err)
	}
	stats.ReferencedCount = uint64(len(referenced))

	referencedSet := make(map[metadata.ContentID]struct{}, len(referenced))
	for _, id := range referenced {
		referencedSet[id] = struct{}{}
	}

	// Step 3: content whose record is not saved yet
	if c.config.InFlight != nil {
		for _, id := range c.config.InFlight.PendingContent() {
			referencedSet[id] = struct{}{}
		}
	}

	orphaned := make([]metadata.ContentID, 0)
	for _, id := range existing {
		if _, ok := referencedSet[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	stats.OrphanedCount = uint64(len(orphaned))

	if len(orphaned) == 0 {
		logger.Debug("GC: No orphaned content found")
		return nil
	}

	if c.config.DryRun {
		logger.Info("GC: DRY RUN - Would delete %d content items", len(orphaned))
		for _, id := range orphaned[:min(len(orphaned), 10)] {
			logger.Info("  - %s", id)
		}
		return nil
	}

	// Step 4: batch delete
	for batch := range slices.Chunk(orphaned, c.config.BatchSize) {
		if err := ctx.Err(); err != nil {
			return err
		}

		failures, err := c.contentStore.DeleteBatch(ctx, batch)
		if err != nil {
			logger.Warn("GC: Batch delete failed: %v", err)
			stats.FailedCount += uint64(len(batch))
			continue
		}

		stats.DeletedCount += uint64(len(batch) - len(failures))
		stats.FailedCount += uint64(len(failures))
		for id, ferr := range failures {
			logger.Debug("GC: Failed to delete %s: %v", id, ferr)
		}
	}
	return nil
}

// collectArchives deletes the files under ArchiveDir older than ArchiveTTL
// and the directories left empty.
func (c *Collector) collectArchives(ctx context.Context, stats *Stats) error {
	if c.config.ArchiveDir == "" {
		return nil
	}

	cutoff := time.Now().Add(-c.config.ArchiveTTL)
	var dirs []string

	err := filepath.WalkDir(c.config.ArchiveDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == c.config.ArchiveDir {
				return fs.SkipAll
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != c.config.ArchiveDir {
				dirs = append(dirs, path)
			}
			return nil
		}

		info, err := d.Info()
		if err != nil || info.ModTime().After(cutoff) {
			return nil
		}

		if c.config.DryRun {
			logger.Info("GC: DRY RUN - Would delete archive %s", path)
			return nil
		}
		if err := os.Remove(path); err != nil {
			logger.Debug("GC: Failed to delete archive %s: %v", path, err)
			stats.FailedCount++
			return nil
		}
		stats.ArchivesDeleted++
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sweep pack archives: %w", err)
	}

	if c.config.DryRun {
		return nil
	}

	// Deepest first; os.Remove refuses non-empty directories
	for _, dir := range slices.Backward(dirs) {
		_ = os.Remove(dir)
	}
	return nil
}

// Stats contains statistics from a garbage collection run.
type Stats struct {
	StartTime       time.Time // When collection started
	EndTime         time.Time // When collection ended
	ReferencedCount uint64    // Number of ContentIDs referenced by file records
	ExistingCount   uint64    // Number of ContentIDs in the content store
	OrphanedCount   uint64    // Number of orphaned ContentIDs found
	DeletedCount    uint64    // Number of orphaned items successfully deleted
	ArchivesDeleted uint64    // Number of expired pack archives deleted
	FailedCount     uint64    // Number of items that failed to delete
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the collection.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deleted=%d archives=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DeletedCount, s.ArchivesDeleted, s.FailedCount, s.Duration())
}
