//go:build e2e

package e2e

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/marmos91/dittodrive/pkg/config"
)

// MetadataStoreType represents the type of metadata store
type MetadataStoreType string

const (
	MetadataMemory MetadataStoreType = "memory"
	MetadataBadger MetadataStoreType = "badger"
)

// ContentStoreType represents the type of content store
type ContentStoreType string

const (
	ContentMemory     ContentStoreType = "memory"
	ContentFilesystem ContentStoreType = "filesystem"
	ContentS3         ContentStoreType = "s3"
)

// TestConfig holds the store combination of a test run
type TestConfig struct {
	Name          string
	MetadataStore MetadataStoreType
	ContentStore  ContentStoreType

	// S3-specific fields (set by SetupS3Config)
	s3Endpoint string
	s3Bucket   string
}

// String returns a string representation of the configuration
func (tc *TestConfig) String() string {
	return fmt.Sprintf("%s/%s", tc.MetadataStore, tc.ContentStore)
}

// Build returns a runtime configuration for the store combination. Every
// directory lives under t.TempDir().
func (tc *TestConfig) Build(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.GetDefaultConfig()
	cfg.Logging.Level = "ERROR"
	cfg.Jobs.TempDir = t.TempDir()
	cfg.Jobs.QuestionTimeout = 0

	switch tc.MetadataStore {
	case MetadataMemory:
		cfg.Metadata = config.MetadataConfig{Type: "memory"}
	case MetadataBadger:
		cfg.Metadata = config.MetadataConfig{
			Type:   "badger",
			Badger: map[string]any{"db_path": filepath.Join(t.TempDir(), "metadata")},
		}
	default:
		t.Fatalf("unknown metadata store type: %s", tc.MetadataStore)
	}

	switch tc.ContentStore {
	case ContentMemory:
		cfg.Content = config.ContentConfig{Type: "memory"}
	case ContentFilesystem:
		cfg.Content = config.ContentConfig{
			Type:       "filesystem",
			Filesystem: map[string]any{"path": t.TempDir()},
		}
	case ContentS3:
		if tc.s3Bucket == "" {
			t.Fatal("S3 bucket not initialized (localstack not running?)")
		}
		cfg.Content = config.ContentConfig{
			Type: "s3",
			S3: map[string]any{
				"region":            "us-east-1",
				"bucket":            tc.s3Bucket,
				"key_prefix":        t.Name() + "/",
				"endpoint":          tc.s3Endpoint,
				"access_key_id":     "test",
				"secret_access_key": "test",
			},
		}
	default:
		t.Fatalf("unknown content store type: %s", tc.ContentStore)
	}

	return cfg
}

// AllConfigurations returns all test configurations to run
func AllConfigurations() []*TestConfig {
	return []*TestConfig{
		{
			Name:          "memory-memory",
			MetadataStore: MetadataMemory,
			ContentStore:  ContentMemory,
		},
		{
			Name:          "memory-filesystem",
			MetadataStore: MetadataMemory,
			ContentStore:  ContentFilesystem,
		},
		{
			Name:          "badger-filesystem",
			MetadataStore: MetadataBadger,
			ContentStore:  ContentFilesystem,
		},
	}
}

// S3Configurations returns configurations that use S3 (requires localstack)
func S3Configurations() []*TestConfig {
	return []*TestConfig{
		{
			Name:          "memory-s3",
			MetadataStore: MetadataMemory,
			ContentStore:  ContentS3,
		},
		{
			Name:          "badger-s3",
			MetadataStore: MetadataBadger,
			ContentStore:  ContentS3,
		},
	}
}
