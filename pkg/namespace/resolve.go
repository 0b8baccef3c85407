package namespace

import (
	"context"

	"github.com/marmos91/lsysfs/pkg/metadata"
)

// ResolutionKind classifies the outcome of path resolution.
type ResolutionKind int

const (
	// NotResolved means the path names no known entry
	NotResolved ResolutionKind = iota

	// ResolvedRoot means the path is the implicit root
	ResolvedRoot

	// ResolvedDirectory means the path names a directory entry
	ResolvedDirectory

	// ResolvedFile means the path names a file entry
	ResolvedFile
)

func (k ResolutionKind) String() string {
	switch k {
	case ResolvedRoot:
		return "root"
	case ResolvedDirectory:
		return "directory"
	case ResolvedFile:
		return "file"
	default:
		return "not-resolved"
	}
}

// Resolution is the result of resolving a path.
type Resolution struct {
	Kind ResolutionKind

	// Entry is a copy of the resolved entry. Nil for the root and for
	// unresolved paths.
	Entry *metadata.Entry
}

// IsDirectory reports whether the path is the root or a directory.
func (r Resolution) IsDirectory() bool {
	return r.Kind == ResolvedRoot || r.Kind == ResolvedDirectory
}

// Resolve maps an absolute path to the entry it names.
//
// Resolution is an exact-name lookup, never a prefix search. An unknown
// path is not an error: it yields Kind NotResolved.
func (ns *Namespace) Resolve(ctx context.Context, path string) (res Resolution, err error) {
	defer ns.observe("Resolve", ns.clock.Now(), &err)

	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	return ns.resolveLocked(ctx, path)
}

// resolveLocked resolves path. Caller holds mu.
//
// The file catalog is consulted first so that, under NamePolicyShared, a
// name present in both catalogs resolves to the file.
func (ns *Namespace) resolveLocked(ctx context.Context, path string) (Resolution, error) {
	name := relName(path)
	if name == "" {
		return Resolution{Kind: ResolvedRoot}, nil
	}

	entry, err := ns.files.Lookup(ctx, name)
	if err == nil {
		return Resolution{Kind: ResolvedFile, Entry: entry}, nil
	}
	if !metadata.IsNotFoundError(err) {
		return Resolution{}, err
	}

	entry, err = ns.dirs.Lookup(ctx, name)
	if err == nil {
		return Resolution{Kind: ResolvedDirectory, Entry: entry}, nil
	}
	if !metadata.IsNotFoundError(err) {
		return Resolution{}, err
	}

	return Resolution{Kind: NotResolved}, nil
}

// lookupLocked finds name in the catalog of the given kind, translating
// a miss into the not-found error for path. Caller holds mu.
func (ns *Namespace) lookupLocked(ctx context.Context, kind metadata.EntryKind, path string) (*metadata.Entry, error) {
	name := relName(path)
	if name == "" {
		return nil, metadata.NewNotFoundError(path)
	}

	entry, err := ns.catalogFor(kind).Lookup(ctx, name)
	if err != nil {
		if metadata.IsNotFoundError(err) {
			return nil, metadata.NewNotFoundError(path)
		}
		return nil, err
	}
	return entry, nil
}
