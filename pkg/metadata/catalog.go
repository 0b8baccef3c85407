package metadata

import "context"

// DefaultCapacity is the number of entries a catalog accepts when no
// explicit bound is configured.
const DefaultCapacity = 256

// Catalog is one of the two flat collections (directories, files) that
// together hold every entry of a namespace.
//
// A catalog knows nothing about hierarchy. It stores entries by their full
// relative name in insertion order, enforces name uniqueness within itself
// and a fixed capacity, and compacts on removal: when an entry is removed,
// every later entry moves down one slot so the remaining entries keep their
// relative order.
//
// Design Principles:
//   - Stable identity: entries are addressed by EntryID, never by position
//   - Copy semantics: returned entries are copies, mutation goes through methods
//   - Bounded: Append beyond Capacity fails with ErrCapacityExceeded
//   - Thread-safe: implementations guard their own state
//
// Error Handling:
// Business errors are returned as *StoreError (ErrNotFound, ErrAlreadyExists,
// ErrCapacityExceeded, ErrInvalidArgument). Backend failures are wrapped and
// reported with code ErrIOError.
type Catalog interface {
	// Kind returns the kind of entries this catalog holds.
	Kind() EntryKind

	// Capacity returns the maximum number of entries.
	Capacity() int

	// Count returns the current number of entries.
	Count(ctx context.Context) (int, error)

	// Append adds a new entry with the given name at the end of the catalog.
	//
	// File entries start with empty content. Timestamps start uninitialized.
	//
	// Returns:
	//   - *Entry: copy of the created entry (with its new ID)
	//   - error: ErrAlreadyExists if the name is taken in this catalog,
	//     ErrCapacityExceeded if the catalog is full
	Append(ctx context.Context, name string) (*Entry, error)

	// Lookup finds an entry by exact name. This is a point lookup; no
	// prefix matching is performed.
	//
	// Returns ErrNotFound if no entry has exactly this name.
	Lookup(ctx context.Context, name string) (*Entry, error)

	// Get returns the entry with the given ID, or ErrNotFound.
	Get(ctx context.Context, id EntryID) (*Entry, error)

	// Content returns a copy of a file entry's content.
	Content(ctx context.Context, id EntryID) ([]byte, error)

	// SetContent replaces a file entry's content.
	// Directory catalogs reject this with ErrInvalidArgument.
	SetContent(ctx context.Context, id EntryID, content []byte) error

	// SetTimestamps replaces an entry's timestamps.
	SetTimestamps(ctx context.Context, id EntryID, ts Timestamps) error

	// Remove deletes the entry and compacts the catalog.
	// Returns ErrNotFound if the ID is unknown.
	Remove(ctx context.Context, id EntryID) error

	// Scan calls fn for every entry in insertion order.
	//
	// fn receives a copy. Returning a non-nil error stops the scan and
	// Scan returns that error. fn must not call back into the catalog.
	Scan(ctx context.Context, fn func(*Entry) error) error

	// Close releases backend resources. The catalog is unusable afterwards.
	Close() error
}
