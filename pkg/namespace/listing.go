package namespace

import (
	"context"

	"github.com/marmos91/lsysfs/pkg/metadata"
)

// DirEntry is one item of a directory listing.
type DirEntry struct {
	// Name is the leaf name relative to the listed directory
	Name string

	// Kind is the kind of the child
	Kind metadata.EntryKind
}

// ListChildren returns the immediate children of a directory.
//
// The listing always starts with "." and "..", followed by the child
// directories and then the child files, each group in catalog order. No
// sorting is applied. A child is any entry whose name extends the directory
// name by exactly one separator and one segment, so "a/b" is a child of "a"
// while "a/b/c" and "abc" are not.
//
// Listing a path that is not a directory (a file, or an unknown path) is not
// an error and yields only the two markers.
func (ns *Namespace) ListChildren(ctx context.Context, dirPath string) (children []DirEntry, err error) {
	defer ns.observe("ListChildren", ns.clock.Now(), &err)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ns.mu.RLock()
	defer ns.mu.RUnlock()

	children = []DirEntry{
		{Name: ".", Kind: metadata.KindDirectory},
		{Name: "..", Kind: metadata.KindDirectory},
	}

	res, err := ns.resolveLocked(ctx, dirPath)
	if err != nil {
		return nil, err
	}
	if !res.IsDirectory() {
		return children, nil
	}

	prefix := relName(dirPath)
	for _, catalog := range []metadata.Catalog{ns.dirs, ns.files} {
		err := catalog.Scan(ctx, func(entry *metadata.Entry) error {
			if leaf, ok := childName(prefix, entry.Name); ok {
				children = append(children, DirEntry{Name: leaf, Kind: entry.Kind})
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return children, nil
}
