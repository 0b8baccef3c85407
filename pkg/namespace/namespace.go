// Package namespace implements the filesystem namespace engine.
//
// A Namespace owns two flat catalogs, one for directories and one for files,
// and derives the hierarchy from their names: an entry named "a/b/c" is a
// child of "a/b" because its name extends "a/b" by one separator and one
// segment. No entry stores a parent pointer and the root is never stored.
//
// Every operation enters through the path resolver, then reads or mutates
// the catalogs. There is no cache and no background work: all state lives in
// the catalogs and is guarded by a single read-write lock.
package namespace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/marmos91/lsysfs/internal/logger"
	"github.com/marmos91/lsysfs/pkg/metadata"
	"github.com/marmos91/lsysfs/pkg/metrics"
)

// WriteMode selects how Write combines new data with existing content.
type WriteMode string

const (
	// WriteModeOverwrite writes data at the requested offset, extending the
	// content and zero-filling any gap.
	WriteModeOverwrite WriteMode = "overwrite"

	// WriteModeAppend concatenates data onto non-empty content and ignores
	// the offset. Empty content becomes exactly the written data.
	WriteModeAppend WriteMode = "append"
)

// NamePolicy controls whether a file and a directory may share a name.
type NamePolicy string

const (
	// NamePolicyExclusive rejects a name already used in either catalog.
	NamePolicyExclusive NamePolicy = "exclusive"

	// NamePolicyShared only checks uniqueness within the target catalog.
	// A name present in both catalogs resolves to the file.
	NamePolicyShared NamePolicy = "shared"
)

// SizeReporting selects the size GetAttributes reports for files.
type SizeReporting string

const (
	// SizeReportingContent reports the actual content length.
	SizeReportingContent SizeReporting = "content"

	// SizeReportingNominal reports Config.NominalFileSize for every file.
	SizeReportingNominal SizeReporting = "nominal"
)

const (
	DefaultNominalFileSize = 1024
	DefaultMaxContentSize  = 64 << 20
	DefaultMaxNameLength   = 255
	DefaultDirMode         = 0o755
	DefaultFileMode        = 0o644
)

// Config holds the behavioral knobs of a Namespace.
//
// Zero values select defaults (see ApplyDefaults). Catalog capacity is a
// property of the catalogs themselves and is configured when they are built.
type Config struct {
	WriteMode     WriteMode
	NamePolicy    NamePolicy
	SizeReporting SizeReporting

	// NominalFileSize is the size reported under SizeReportingNominal
	NominalFileSize int64

	// MaxContentSize bounds the content of a single file in bytes
	MaxContentSize int64

	// MaxNameLength bounds each path segment in bytes
	MaxNameLength int

	// RequireParent makes create operations fail with ErrNotFound unless
	// the parent directory exists
	RequireParent bool

	// DirMode and FileMode are the permission bits reported by GetAttributes
	DirMode  uint32
	FileMode uint32

	// UID and GID own every entry
	UID uint32
	GID uint32
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.WriteMode == "" {
		c.WriteMode = WriteModeOverwrite
	}
	if c.NamePolicy == "" {
		c.NamePolicy = NamePolicyExclusive
	}
	if c.SizeReporting == "" {
		c.SizeReporting = SizeReportingContent
	}
	if c.NominalFileSize == 0 {
		c.NominalFileSize = DefaultNominalFileSize
	}
	if c.MaxContentSize <= 0 {
		c.MaxContentSize = DefaultMaxContentSize
	}
	if c.MaxNameLength == 0 {
		c.MaxNameLength = DefaultMaxNameLength
	}
	if c.DirMode == 0 {
		c.DirMode = DefaultDirMode
	}
	if c.FileMode == 0 {
		c.FileMode = DefaultFileMode
	}
}

// Option customizes a Namespace.
type Option func(*Namespace)

// WithClock sets the time source for timestamps. Tests pass a mock clock.
func WithClock(c clock.Clock) Option {
	return func(ns *Namespace) {
		ns.clock = c
	}
}

// WithMetrics sets the metrics sink. A nil value keeps the no-op sink.
func WithMetrics(m metrics.NamespaceMetrics) Option {
	return func(ns *Namespace) {
		if m != nil {
			ns.metrics = m
		}
	}
}

// Namespace is the namespace engine.
//
// Thread Safety:
// mu guards both catalogs as one unit. Mutations and the first-observation
// timestamp materialization take the write lock; resolution, listing, reads
// and cached attribute queries take the read lock. Every operation therefore
// applies completely or not at all with respect to concurrent callers.
type Namespace struct {
	mu sync.RWMutex

	dirs  metadata.Catalog
	files metadata.Catalog

	config  Config
	clock   clock.Clock
	metrics metrics.NamespaceMetrics
}

// New creates a Namespace over a directory catalog and a file catalog.
//
// The Namespace takes ownership of both catalogs and closes them in Close.
//
// Returns an error if a catalog holds the wrong kind of entries or the
// configuration contains an unknown mode.
func New(dirs, files metadata.Catalog, config Config, opts ...Option) (*Namespace, error) {
	if dirs == nil || files == nil {
		return nil, fmt.Errorf("namespace requires both catalogs")
	}
	if dirs.Kind() != metadata.KindDirectory {
		return nil, fmt.Errorf("directory catalog holds %s entries", dirs.Kind())
	}
	if files.Kind() != metadata.KindFile {
		return nil, fmt.Errorf("file catalog holds %s entries", files.Kind())
	}

	config.ApplyDefaults()
	switch config.WriteMode {
	case WriteModeOverwrite, WriteModeAppend:
	default:
		return nil, fmt.Errorf("unknown write mode %q", config.WriteMode)
	}
	switch config.NamePolicy {
	case NamePolicyExclusive, NamePolicyShared:
	default:
		return nil, fmt.Errorf("unknown name policy %q", config.NamePolicy)
	}
	switch config.SizeReporting {
	case SizeReportingContent, SizeReportingNominal:
	default:
		return nil, fmt.Errorf("unknown size reporting %q", config.SizeReporting)
	}

	ns := &Namespace{
		dirs:    dirs,
		files:   files,
		config:  config,
		clock:   clock.New(),
		metrics: metrics.NewNoopNamespaceMetrics(),
	}
	for _, opt := range opts {
		opt(ns)
	}

	logger.Debug("namespace: ready (write_mode=%s name_policy=%s size_reporting=%s capacity=%d/%d)",
		config.WriteMode, config.NamePolicy, config.SizeReporting, dirs.Capacity(), files.Capacity())

	return ns, nil
}

// Config returns the effective configuration.
func (ns *Namespace) Config() Config {
	return ns.config
}

// Close closes both catalogs.
func (ns *Namespace) Close() error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	dirErr := ns.dirs.Close()
	fileErr := ns.files.Close()
	if dirErr != nil {
		return fmt.Errorf("failed to close directory catalog: %w", dirErr)
	}
	if fileErr != nil {
		return fmt.Errorf("failed to close file catalog: %w", fileErr)
	}
	return nil
}

// observe records the outcome of an operation that started at start.
// Call it deferred with a pointer to the named error result.
func (ns *Namespace) observe(operation string, start time.Time, err *error) {
	ns.metrics.RecordOperation(operation, ns.clock.Since(start), *err)
}

// catalogFor returns the catalog holding entries of kind.
func (ns *Namespace) catalogFor(kind metadata.EntryKind) metadata.Catalog {
	if kind == metadata.KindDirectory {
		return ns.dirs
	}
	return ns.files
}

// reportEntries publishes the entry count of a catalog. Caller holds mu.
func (ns *Namespace) reportEntries(ctx context.Context, catalog metadata.Catalog) {
	count, err := catalog.Count(ctx)
	if err != nil {
		return
	}
	ns.metrics.SetEntries(catalog.Kind().String(), count)
}
