package config

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/dittodrive/pkg/metadata"
)

func TestCreateContentStore_Filesystem(t *testing.T) {
	cfg := &ContentConfig{
		Type:       "filesystem",
		Filesystem: map[string]any{"path": t.TempDir()},
	}

	store, err := CreateContentStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create filesystem content store: %v", err)
	}
	defer func() { _ = store.Close() }()
}

func TestCreateContentStore_FilesystemMissingPath(t *testing.T) {
	cfg := &ContentConfig{Type: "filesystem", Filesystem: map[string]any{}}

	if _, err := CreateContentStore(context.Background(), cfg); err == nil {
		t.Fatal("Expected error for missing path, got nil")
	}
}

func TestCreateContentStore_Memory(t *testing.T) {
	store, err := CreateContentStore(context.Background(), &ContentConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create memory content store: %v", err)
	}
	defer func() { _ = store.Close() }()
}

func TestCreateContentStore_S3MissingBucket(t *testing.T) {
	cfg := &ContentConfig{Type: "s3", S3: map[string]any{"region": "us-east-1"}}

	_, err := CreateContentStore(context.Background(), cfg)
	if err == nil || !strings.Contains(err.Error(), "bucket is required") {
		t.Fatalf("Expected missing bucket error, got: %v", err)
	}
}

func TestDecodeS3Options(t *testing.T) {
	opts, err := decodeS3Options(map[string]any{
		"region":      "eu-central-1",
		"bucket":      "drive",
		"key_prefix":  "content/",
		"endpoint":    "http://localhost:9000",
		"max_retries": "3",
	})
	if err != nil {
		t.Fatalf("Failed to decode options: %v", err)
	}
	if opts.Bucket != "drive" || opts.KeyPrefix != "content/" || opts.Endpoint != "http://localhost:9000" {
		t.Errorf("Unexpected options: %+v", opts)
	}
	if opts.MaxRetries != 3 {
		t.Errorf("Expected max_retries 3, got %d", opts.MaxRetries)
	}

	opts, err = decodeS3Options(map[string]any{"region": "eu-central-1", "bucket": "drive"})
	if err != nil {
		t.Fatalf("Failed to decode options: %v", err)
	}
	if opts.MaxRetries != 10 {
		t.Errorf("Expected default max_retries 10, got %d", opts.MaxRetries)
	}
}

func TestCreateContentStore_UnknownType(t *testing.T) {
	if _, err := CreateContentStore(context.Background(), &ContentConfig{Type: "unknown"}); err == nil {
		t.Fatal("Expected error for unknown type, got nil")
	}
}

func TestCreateMetadataStore_Memory(t *testing.T) {
	store, err := CreateMetadataStore(context.Background(), &MetadataConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("Failed to create memory metadata store: %v", err)
	}
	defer func() { _ = store.Close() }()
}

func TestCreateMetadataStore_Badger(t *testing.T) {
	cfg := &MetadataConfig{
		Type: "badger",
		Badger: map[string]any{
			"db_path":        filepath.Join(t.TempDir(), "metadata"),
			"block_cache_mb": 8,
			"index_cache_mb": "4",
		},
	}

	store, err := CreateMetadataStore(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Failed to create badger metadata store: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Failed to close badger metadata store: %v", err)
	}
}

func TestCreateMetadataStore_BadgerMissingPath(t *testing.T) {
	if _, err := CreateMetadataStore(context.Background(), &MetadataConfig{Type: "badger"}); err == nil {
		t.Fatal("Expected error for missing db_path, got nil")
	}
}

func TestCreateMetadataStore_UnknownType(t *testing.T) {
	if _, err := CreateMetadataStore(context.Background(), &MetadataConfig{Type: "unknown"}); err == nil {
		t.Fatal("Expected error for unknown type, got nil")
	}
}

func TestCreateMetadataStore_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := CreateMetadataStore(ctx, &MetadataConfig{Type: "memory"}); err == nil {
		t.Fatal("Expected error for cancelled context, got nil")
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metadata = MetadataConfig{Type: "memory"}
	cfg.Content = ContentConfig{Type: "memory"}
	cfg.Jobs.TempDir = t.TempDir()

	ctx := context.Background()
	rt, err := NewRuntime(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create runtime: %v", err)
	}

	root := metadata.NewReference("drive", "root")
	file := metadata.NewReference("drive", "notes")
	if _, err := rt.FileSystem.CreateFolder(ctx, root, "Root", metadata.Reference{}); err != nil {
		t.Fatalf("Failed to create folder: %v", err)
	}
	if _, err := rt.FileSystem.CreateFile(ctx, file, "notes.txt", []metadata.Reference{root}, bytes.NewReader([]byte("hello"))); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	admin := &metadata.Identity{Username: "admin", Admin: true}
	id, err := rt.Manager.Delete(ctx, admin, []metadata.Path{metadata.NewFilePath(root, file)})
	if err != nil {
		t.Fatalf("Failed to submit delete: %v", err)
	}
	if err := rt.Manager.Join(ctx, id); err != nil {
		t.Fatalf("Failed to join job: %v", err)
	}

	if exists, err := rt.FileSystem.Exists(ctx, file); err != nil || exists {
		t.Errorf("Expected file deleted, exists=%v err=%v", exists, err)
	}

	stats, err := rt.Collector.RunNow(ctx)
	if err != nil {
		t.Fatalf("Garbage collection failed: %v", err)
	}
	if stats.OrphanedCount != 0 {
		t.Errorf("Expected no orphaned content, got %d", stats.OrphanedCount)
	}

	if err := rt.Close(); err != nil {
		t.Errorf("Failed to close runtime: %v", err)
	}
}
