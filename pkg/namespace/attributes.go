package namespace

import (
	"context"
	"time"

	"github.com/marmos91/lsysfs/pkg/metadata"
)

// Attributes is the metadata record a driver needs to answer a stat.
type Attributes struct {
	// ID is the entry's stable identifier (NilEntryID for the root)
	ID metadata.EntryID

	Kind  metadata.EntryKind
	Mode  uint32
	Nlink uint32
	Size  int64
	UID   uint32
	GID   uint32

	Atime time.Time
	Mtime time.Time
	Ctime time.Time
}

// IsDir reports whether the attributes describe a directory.
func (a *Attributes) IsDir() bool {
	return a.Kind == metadata.KindDirectory
}

// Stats summarizes catalog usage.
type Stats struct {
	Directories int
	Files       int

	// Capacity is the combined entry bound of both catalogs
	Capacity int

	// ContentBytes is the total size of all file content
	ContentBytes int64
}

// GetAttributes projects the entry at path into Attributes.
//
// The root reports the current time for all three timestamps on every call.
// Other entries materialize their timestamps to the current time on the first
// call and report the stored values afterwards, until a Touch or SetTimes.
//
// Returns ErrNotFound if path names neither a directory nor a file.
func (ns *Namespace) GetAttributes(ctx context.Context, path string) (attrs *Attributes, err error) {
	defer ns.observe("GetAttributes", ns.clock.Now(), &err)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ns.mu.RLock()
	res, err := ns.resolveLocked(ctx, path)
	ns.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	switch res.Kind {
	case NotResolved:
		return nil, metadata.NewNotFoundError(path)
	case ResolvedRoot:
		return ns.rootAttributes(), nil
	}

	if !res.Entry.Times.Initialized {
		res, err = ns.materialize(ctx, path)
		if err != nil {
			return nil, err
		}
	}

	return ns.project(res.Entry), nil
}

// materialize sets the timestamps of path to now unless another caller got
// there first, and returns the fresh resolution.
func (ns *Namespace) materialize(ctx context.Context, path string) (Resolution, error) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	// The entry may have been removed or materialized since the read lock
	// was released.
	res, err := ns.resolveLocked(ctx, path)
	if err != nil {
		return Resolution{}, err
	}
	if res.Kind == NotResolved {
		return Resolution{}, metadata.NewNotFoundError(path)
	}
	if res.Entry.Times.Initialized {
		return res, nil
	}

	res.Entry.Times = res.Entry.Times.Materialize(ns.clock.Now())
	if err := ns.catalogFor(res.Entry.Kind).SetTimestamps(ctx, res.Entry.ID, res.Entry.Times); err != nil {
		return Resolution{}, err
	}
	return res, nil
}

func (ns *Namespace) rootAttributes() *Attributes {
	now := ns.clock.Now()
	return &Attributes{
		ID:    metadata.NilEntryID,
		Kind:  metadata.KindDirectory,
		Mode:  ns.config.DirMode,
		Nlink: 2,
		UID:   ns.config.UID,
		GID:   ns.config.GID,
		Atime: now,
		Mtime: now,
		Ctime: now,
	}
}

func (ns *Namespace) project(entry *metadata.Entry) *Attributes {
	attrs := &Attributes{
		ID:    entry.ID,
		Kind:  entry.Kind,
		UID:   ns.config.UID,
		GID:   ns.config.GID,
		Atime: entry.Times.Atime,
		Mtime: entry.Times.Mtime,
		Ctime: entry.Times.Ctime,
	}

	if entry.Kind == metadata.KindDirectory {
		attrs.Mode = ns.config.DirMode
		attrs.Nlink = 2
		return attrs
	}

	attrs.Mode = ns.config.FileMode
	attrs.Nlink = 1
	if ns.config.SizeReporting == SizeReportingNominal {
		attrs.Size = ns.config.NominalFileSize
	} else {
		attrs.Size = int64(len(entry.Content))
	}
	return attrs
}

// Stats returns entry counts and total content size.
func (ns *Namespace) Stats(ctx context.Context) (stats Stats, err error) {
	defer ns.observe("Stats", ns.clock.Now(), &err)

	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	if stats.Directories, err = ns.dirs.Count(ctx); err != nil {
		return Stats{}, err
	}
	if stats.Files, err = ns.files.Count(ctx); err != nil {
		return Stats{}, err
	}
	stats.Capacity = ns.dirs.Capacity() + ns.files.Capacity()

	err = ns.files.Scan(ctx, func(entry *metadata.Entry) error {
		stats.ContentBytes += int64(len(entry.Content))
		return nil
	})
	if err != nil {
		return Stats{}, err
	}

	return stats, nil
}
