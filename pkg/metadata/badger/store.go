package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/metadata"
)

// BadgerMetadataStore implements metadata.Store using BadgerDB for persistence.
//
// This implementation provides a persistent record store backed by BadgerDB,
// a fast embedded key-value store. It is suitable for:
//   - Production environments requiring persistence across restarts
//   - Drives whose hierarchy does not fit comfortably in memory
//
// Thread Safety:
// All operations are protected by a single read-write mutex (mu) on top of
// BadgerDB transactions. Multi-key updates (a record and its child links)
// always happen inside one read-write transaction.
//
// Storage Model:
// Records and child links live under namespaced prefixes (see keys.go).
// Child links are maintained on every put, delete and rename so GetFolder is
// a point lookup plus one prefix scan.
type BadgerMetadataStore struct {
	// mu serializes mutations against concurrent reads of the same keys.
	mu sync.RWMutex

	// db is the BadgerDB database handle
	db *badger.DB
}

// BadgerMetadataStoreConfig contains configuration for creating a BadgerDB metadata store.
type BadgerMetadataStoreConfig struct {
	// DBPath is the directory where BadgerDB will store its files
	DBPath string

	// InMemory runs BadgerDB without touching disk (tests)
	InMemory bool

	// BadgerOptions allows customization of BadgerDB behavior
	// If nil, sensible defaults are used
	BadgerOptions *badger.Options

	// BlockCacheSizeMB is BadgerDB's block cache size in MB (default: 64)
	BlockCacheSizeMB int64

	// IndexCacheSizeMB is BadgerDB's index cache size in MB (default: 32)
	IndexCacheSizeMB int64
}

// NewBadgerMetadataStore opens (or creates) a BadgerDB metadata store.
//
// Parameters:
//   - ctx: Context for cancellation
//   - config: Configuration including DB path and cache sizes
//
// Returns:
//   - *BadgerMetadataStore: A new store instance ready for use
//   - error: Error if database initialization fails or context is cancelled
func NewBadgerMetadataStore(ctx context.Context, config BadgerMetadataStoreConfig) (*BadgerMetadataStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		if config.InMemory {
			opts = badger.DefaultOptions("").WithInMemory(true)
		} else {
			opts = badger.DefaultOptions(config.DBPath)
		}

		// Records are small JSON documents: compression is not worth it
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None)

		blockCacheMB := config.BlockCacheSizeMB
		if blockCacheMB == 0 {
			blockCacheMB = 64
		}
		indexCacheMB := config.IndexCacheSizeMB
		if indexCacheMB == 0 {
			indexCacheMB = 32
		}

		opts = opts.WithBlockCacheSize(blockCacheMB << 20)
		opts = opts.WithIndexCacheSize(indexCacheMB << 20)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	logger.Debug("Opened badger metadata store at %q (in_memory=%v)", config.DBPath, config.InMemory)

	return &BadgerMetadataStore{db: db}, nil
}

// NewBadgerMetadataStoreWithDefaults opens a BadgerDB metadata store at dbPath
// with default options.
func NewBadgerMetadataStoreWithDefaults(ctx context.Context, dbPath string) (*BadgerMetadataStore, error) {
	return NewBadgerMetadataStore(ctx, BadgerMetadataStoreConfig{DBPath: dbPath})
}

// Close closes the underlying database.
func (s *BadgerMetadataStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

// ============================================================================
// Transaction helpers
// ============================================================================

// getRecord loads the record stored under ref.
func getRecord(txn *badger.Txn, ref metadata.Reference) (*entityRecord, error) {
	item, err := txn.Get(keyEntity(ref))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, metadata.NewNotFoundError(ref, "entity")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity %s: %w", ref, err)
	}

	var record *entityRecord
	err = item.Value(func(val []byte) error {
		r, err := decodeRecord(val)
		if err != nil {
			return err
		}
		record = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// keyExists reports whether key is present.
func keyExists(txn *badger.Txn, key []byte) (bool, error) {
	_, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// listChildren scans the child links of parent. Keys sort folders ('d')
// before files ('f') and each group by name, so both slices come out sorted.
func listChildren(txn *badger.Txn, parent metadata.Reference) (folders, files []metadata.Reference) {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = keyChildPrefix(parent)
	opts.PrefetchValues = false

	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		child, kind, ok := parseChildKey(parent, it.Item().KeyCopy(nil))
		if !ok {
			continue
		}
		if kind == metadata.KindFolder {
			folders = append(folders, child)
		} else {
			files = append(files, child)
		}
	}
	return folders, files
}
