package namespace

import (
	"context"
	"errors"
	"time"

	"github.com/marmos91/lsysfs/internal/logger"
	"github.com/marmos91/lsysfs/pkg/metadata"
)

// errStopScan ends a catalog scan early once the answer is known.
var errStopScan = errors.New("stop scan")

// CreateDirectory creates a directory entry at path.
//
// The parent does not need to exist unless Config.RequireParent is set.
//
// Returns:
//   - *metadata.Entry: copy of the created entry
//   - error: ErrInvalidArgument for the root or a malformed path,
//     ErrNameTooLong, ErrAlreadyExists, ErrCapacityExceeded, or ErrNotFound
//     when RequireParent is set and the parent is missing
func (ns *Namespace) CreateDirectory(ctx context.Context, path string) (entry *metadata.Entry, err error) {
	defer ns.observe("CreateDirectory", ns.clock.Now(), &err)
	return ns.create(ctx, path, metadata.KindDirectory)
}

// CreateFile creates an empty file entry at path.
// The contract matches CreateDirectory.
func (ns *Namespace) CreateFile(ctx context.Context, path string) (entry *metadata.Entry, err error) {
	defer ns.observe("CreateFile", ns.clock.Now(), &err)
	return ns.create(ctx, path, metadata.KindFile)
}

func (ns *Namespace) create(ctx context.Context, path string, kind metadata.EntryKind) (*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := relName(path)
	if err := validateName(path, name, ns.config.MaxNameLength); err != nil {
		return nil, err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	if ns.config.NamePolicy == NamePolicyExclusive {
		other := ns.files
		if kind == metadata.KindFile {
			other = ns.dirs
		}
		_, err := other.Lookup(ctx, name)
		if err == nil {
			return nil, metadata.NewError(metadata.ErrAlreadyExists, "name is taken by a "+other.Kind().String(), path)
		}
		if !metadata.IsNotFoundError(err) {
			return nil, err
		}
	}

	if ns.config.RequireParent {
		if parent := parentName(name); parent != "" {
			if _, err := ns.dirs.Lookup(ctx, parent); err != nil {
				if metadata.IsNotFoundError(err) {
					return nil, metadata.NewError(metadata.ErrNotFound, "parent directory does not exist", path)
				}
				return nil, err
			}
		}
	}

	catalog := ns.catalogFor(kind)
	entry, err := catalog.Append(ctx, name)
	if err != nil {
		if storeErr, ok := err.(*metadata.StoreError); ok && storeErr.Path != path {
			storeErr.Path = path
		}
		return nil, err
	}

	ns.reportEntries(ctx, catalog)
	logger.Debug("namespace: created %s %s", kind, path)
	return entry, nil
}

// DeleteFile removes the file at path.
//
// Returns ErrNotFound if path does not name a file.
func (ns *Namespace) DeleteFile(ctx context.Context, path string) (err error) {
	defer ns.observe("DeleteFile", ns.clock.Now(), &err)

	if err := ctx.Err(); err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	entry, err := ns.lookupLocked(ctx, metadata.KindFile, path)
	if err != nil {
		return err
	}

	if err := ns.files.Remove(ctx, entry.ID); err != nil {
		return err
	}

	ns.reportEntries(ctx, ns.files)
	logger.Debug("namespace: deleted file %s", path)
	return nil
}

// DeleteDirectory removes the directory at path.
//
// A directory is empty when no directory and no file has a name starting
// with the directory name followed by the separator.
//
// Returns:
//   - error: ErrInvalidArgument for the root, ErrNotFound if path does not
//     name a directory, ErrNotEmpty if it has descendants
func (ns *Namespace) DeleteDirectory(ctx context.Context, path string) (err error) {
	defer ns.observe("DeleteDirectory", ns.clock.Now(), &err)

	if err := ctx.Err(); err != nil {
		return err
	}

	if relName(path) == "" {
		return metadata.NewError(metadata.ErrInvalidArgument, "cannot remove the root", path)
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	entry, err := ns.lookupLocked(ctx, metadata.KindDirectory, path)
	if err != nil {
		return err
	}

	empty, err := ns.isEmptyLocked(ctx, entry.Name)
	if err != nil {
		return err
	}
	if !empty {
		return metadata.NewError(metadata.ErrNotEmpty, "directory not empty", path)
	}

	if err := ns.dirs.Remove(ctx, entry.ID); err != nil {
		return err
	}

	ns.reportEntries(ctx, ns.dirs)
	logger.Debug("namespace: deleted directory %s", path)
	return nil
}

// isEmptyLocked reports whether no entry lies below the directory name.
// Caller holds mu.
func (ns *Namespace) isEmptyLocked(ctx context.Context, name string) (bool, error) {
	for _, catalog := range []metadata.Catalog{ns.dirs, ns.files} {
		err := catalog.Scan(ctx, func(entry *metadata.Entry) error {
			if isDescendant(name, entry.Name) {
				return errStopScan
			}
			return nil
		})
		if errors.Is(err, errStopScan) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
	}
	return true, nil
}

// Touch sets the access and modification times of path to now.
//
// The change time is set only if the entry's timestamps were never
// materialized. The root is accepted and left alone since its times always
// read as now.
//
// Returns ErrNotFound if path names neither a directory nor a file.
func (ns *Namespace) Touch(ctx context.Context, path string) (err error) {
	defer ns.observe("Touch", ns.clock.Now(), &err)

	now := ns.clock.Now()
	return ns.setTimes(ctx, path, &now, &now)
}

// SetTimes sets the access and/or modification time of path.
//
// A nil time leaves the corresponding value untouched. Timestamps that were
// never materialized are first materialized to now.
func (ns *Namespace) SetTimes(ctx context.Context, path string, atime, mtime *time.Time) (err error) {
	defer ns.observe("SetTimes", ns.clock.Now(), &err)
	return ns.setTimes(ctx, path, atime, mtime)
}

func (ns *Namespace) setTimes(ctx context.Context, path string, atime, mtime *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ns.mu.Lock()
	defer ns.mu.Unlock()

	res, err := ns.resolveLocked(ctx, path)
	if err != nil {
		return err
	}

	switch res.Kind {
	case ResolvedRoot:
		return nil
	case NotResolved:
		return metadata.NewNotFoundError(path)
	}

	ts := res.Entry.Times
	if !ts.Initialized {
		ts = ts.Materialize(ns.clock.Now())
	}
	if atime != nil {
		ts.Atime = *atime
	}
	if mtime != nil {
		ts.Mtime = *mtime
	}

	return ns.catalogFor(res.Entry.Kind).SetTimestamps(ctx, res.Entry.ID, ts)
}
