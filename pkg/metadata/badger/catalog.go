package badger

import (
	"context"
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/marmos91/lsysfs/internal/logger"
	"github.com/marmos91/lsysfs/pkg/metadata"
)

// BadgerCatalog implements metadata.Catalog on top of an in-memory BadgerDB.
//
// The database is always opened with InMemory enabled: the catalog lives for
// the lifetime of the process and nothing is written to disk. Badger is used
// for its ordered keyspace and transactional multi-key updates, which map the
// catalog's three structures (records, name index, ID index) onto one atomic
// write per mutation.
//
// Thread Safety:
// Badger transactions are safe for concurrent use. Mutations are additionally
// serialized by mu so the entry count and the capacity check cannot race.
type BadgerCatalog struct {
	db  *badger.DB
	seq *badger.Sequence

	kind     metadata.EntryKind
	capacity int

	// mu serializes mutations; count is the number of live entries.
	mu    sync.Mutex
	count int
}

// BadgerCatalogConfig configures a BadgerCatalog.
type BadgerCatalogConfig struct {
	// Kind selects the kind of entries stored in the catalog
	Kind metadata.EntryKind

	// Capacity bounds the number of entries (0 selects metadata.DefaultCapacity)
	Capacity int

	// IndexCacheSizeMB is the badger index cache size (0 selects 16MB)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`

	// BlockCacheSizeMB is the badger block cache size (0 selects 16MB)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// BadgerOptions overrides every other option when set. InMemory is
	// forced on regardless.
	BadgerOptions *badger.Options
}

// NewBadgerCatalog opens an in-memory BadgerDB and returns an empty catalog.
func NewBadgerCatalog(ctx context.Context, config BadgerCatalogConfig) (*BadgerCatalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var opts badger.Options
	if config.BadgerOptions != nil {
		opts = *config.BadgerOptions
	} else {
		opts = badger.DefaultOptions("")
		opts = opts.WithLoggingLevel(badger.WARNING)
		opts = opts.WithCompression(options.None) // Records are tiny

		indexCacheMB := config.IndexCacheSizeMB
		if indexCacheMB == 0 {
			indexCacheMB = 16
		}
		blockCacheMB := config.BlockCacheSizeMB
		if blockCacheMB == 0 {
			blockCacheMB = 16
		}
		opts = opts.WithIndexCacheSize(indexCacheMB << 20)
		opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	}
	opts = opts.WithInMemory(true).WithDir("").WithValueDir("").WithLogger(badgerLogger{})

	capacity := config.Capacity
	if capacity <= 0 {
		capacity = metadata.DefaultCapacity
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory BadgerDB: %w", err)
	}

	seq, err := db.GetSequence(sequenceKey, 128)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to lease entry sequence: %w", err)
	}

	return &BadgerCatalog{
		db:       db,
		seq:      seq,
		kind:     config.Kind,
		capacity: capacity,
	}, nil
}

func (c *BadgerCatalog) Kind() metadata.EntryKind {
	return c.kind
}

func (c *BadgerCatalog) Capacity() int {
	return c.capacity
}

func (c *BadgerCatalog) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count, nil
}

func (c *BadgerCatalog) Append(ctx context.Context, name string) (*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &metadata.Entry{
		ID:   metadata.NewEntryID(),
		Kind: c.kind,
		Name: name,
	}
	if c.kind == metadata.KindFile {
		entry.Content = []byte{}
	}

	// Sequence leases run their own transaction, so allocate outside ours.
	// A rejected append leaves a gap, which ordering tolerates.
	seq, err := c.seq.Next()
	if err != nil {
		return nil, ioError("failed to allocate sequence", name, err)
	}

	err = c.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyName(name))
		if err == nil {
			return metadata.NewError(metadata.ErrAlreadyExists, "entry already exists", name)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return ioError("failed to check name", name, err)
		}

		if c.count >= c.capacity {
			return metadata.NewError(metadata.ErrCapacityExceeded, "catalog capacity exceeded", name)
		}

		data, err := encodeEntry(entry)
		if err != nil {
			return ioError("failed to encode entry", name, err)
		}

		if err := txn.Set(keyEntry(seq), data); err != nil {
			return ioError("failed to store entry", name, err)
		}
		if err := txn.Set(keyName(name), encodeSeq(seq)); err != nil {
			return ioError("failed to index name", name, err)
		}
		if err := txn.Set(keyID(entry.ID), encodeSeq(seq)); err != nil {
			return ioError("failed to index id", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.count++
	return entry.Clone(), nil
}

func (c *BadgerCatalog) Lookup(ctx context.Context, name string) (*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry *metadata.Entry
	err := c.db.View(func(txn *badger.Txn) error {
		seq, err := readSeq(txn, keyName(name))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return metadata.NewNotFoundError(name)
			}
			return ioError("failed to resolve name", name, err)
		}

		entry, err = readEntry(txn, seq)
		return err
	})
	return entry, err
}

func (c *BadgerCatalog) Get(ctx context.Context, id metadata.EntryID) (*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var entry *metadata.Entry
	err := c.db.View(func(txn *badger.Txn) error {
		var err error
		entry, _, err = entryByID(txn, id)
		return err
	})
	return entry, err
}

func (c *BadgerCatalog) Content(ctx context.Context, id metadata.EntryID) ([]byte, error) {
	entry, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return entry.Content, nil
}

func (c *BadgerCatalog) SetContent(ctx context.Context, id metadata.EntryID, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Update(func(txn *badger.Txn) error {
		entry, seq, err := entryByID(txn, id)
		if err != nil {
			return err
		}
		if c.kind != metadata.KindFile {
			return metadata.NewError(metadata.ErrInvalidArgument, "directories have no content", entry.Name)
		}

		entry.Content = content
		return writeEntry(txn, seq, entry)
	})
}

func (c *BadgerCatalog) SetTimestamps(ctx context.Context, id metadata.EntryID, ts metadata.Timestamps) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.db.Update(func(txn *badger.Txn) error {
		entry, seq, err := entryByID(txn, id)
		if err != nil {
			return err
		}

		entry.Times = ts
		return writeEntry(txn, seq, entry)
	})
}

// Remove deletes the record and both index keys in one transaction.
func (c *BadgerCatalog) Remove(ctx context.Context, id metadata.EntryID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.db.Update(func(txn *badger.Txn) error {
		entry, seq, err := entryByID(txn, id)
		if err != nil {
			return err
		}

		for _, key := range [][]byte{keyEntry(seq), keyName(entry.Name), keyID(id)} {
			if err := txn.Delete(key); err != nil {
				return ioError("failed to delete entry", entry.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.count--
	return nil
}

func (c *BadgerCatalog) Scan(ctx context.Context, fn func(*metadata.Entry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return c.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEntry)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(opts.Prefix); it.ValidForPrefix(opts.Prefix); it.Next() {
			data, err := it.Item().ValueCopy(nil)
			if err != nil {
				return ioError("failed to read entry", "", err)
			}

			entry, err := decodeEntry(data)
			if err != nil {
				return ioError("failed to decode entry", "", err)
			}

			if err := fn(entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the sequence lease and closes the database.
func (c *BadgerCatalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.seq.Release(); err != nil {
		logger.Warn("badger catalog: failed to release sequence: %v", err)
	}
	if err := c.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

func entryByID(txn *badger.Txn, id metadata.EntryID) (*metadata.Entry, uint64, error) {
	seq, err := readSeq(txn, keyID(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, 0, metadata.NewError(metadata.ErrNotFound, "entry not found", id.String())
		}
		return nil, 0, ioError("failed to resolve id", id.String(), err)
	}

	entry, err := readEntry(txn, seq)
	if err != nil {
		return nil, 0, err
	}
	return entry, seq, nil
}

func readSeq(txn *badger.Txn, key []byte) (uint64, error) {
	item, err := txn.Get(key)
	if err != nil {
		return 0, err
	}

	raw, err := item.ValueCopy(nil)
	if err != nil {
		return 0, err
	}

	seq, ok := decodeSeq(raw)
	if !ok {
		return 0, fmt.Errorf("corrupt sequence value for key %q", key)
	}
	return seq, nil
}

func readEntry(txn *badger.Txn, seq uint64) (*metadata.Entry, error) {
	item, err := txn.Get(keyEntry(seq))
	if err != nil {
		return nil, ioError("failed to load entry record", "", err)
	}

	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, ioError("failed to read entry record", "", err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, ioError("failed to decode entry record", "", err)
	}
	return entry, nil
}

func writeEntry(txn *badger.Txn, seq uint64, entry *metadata.Entry) error {
	data, err := encodeEntry(entry)
	if err != nil {
		return ioError("failed to encode entry", entry.Name, err)
	}
	if err := txn.Set(keyEntry(seq), data); err != nil {
		return ioError("failed to store entry", entry.Name, err)
	}
	return nil
}

func ioError(message, path string, err error) error {
	return &metadata.StoreError{
		Code:    metadata.ErrIOError,
		Message: fmt.Sprintf("%s: %v", message, err),
		Path:    path,
	}
}

// badgerLogger routes badger's internal logging into the process logger.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, v ...any)   { logger.Error("badger: "+format, v...) }
func (badgerLogger) Warningf(format string, v ...any) { logger.Warn("badger: "+format, v...) }
func (badgerLogger) Infof(format string, v ...any)    { logger.Debug("badger: "+format, v...) }
func (badgerLogger) Debugf(format string, v ...any)   { logger.Debug("badger: "+format, v...) }

var _ metadata.Catalog = (*BadgerCatalog)(nil)
