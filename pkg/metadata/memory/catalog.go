package memory

import (
	"context"
	"sync"

	"github.com/marmos91/lsysfs/pkg/metadata"
)

// MemoryCatalog implements metadata.Catalog using in-memory storage.
//
// Thread Safety:
// All operations are protected by a single read-write mutex (mu), making the
// catalog safe for concurrent access from multiple goroutines. The namespace
// engine serializes mutations on top of this, so contention here is low.
//
// Storage Model:
//
//  1. Entries (entries):
//     A dense slice in insertion order. Removing an entry shifts every later
//     entry down one slot (compaction), exactly like the fixed arrays of the
//     classic flat-catalog design, but the slice grows on demand up to
//     capacity instead of being preallocated.
//
//  2. Indexes (byName, byID):
//     Map a full name or an EntryID to the current slot. They turn every
//     point lookup into O(1) and are rebuilt for the shifted tail on removal.
//
// Consistency Guarantees:
//   - len(byName) == len(byID) == len(entries)
//   - entries[byName[n]].Name == n and entries[byID[id]].ID == id
type MemoryCatalog struct {
	// mu protects all fields below.
	mu sync.RWMutex

	kind     metadata.EntryKind
	capacity int

	entries []*metadata.Entry
	byName  map[string]int
	byID    map[metadata.EntryID]int

	closed bool
}

// NewMemoryCatalog creates an empty catalog for entries of the given kind.
//
// A capacity of zero or less selects metadata.DefaultCapacity.
func NewMemoryCatalog(kind metadata.EntryKind, capacity int) *MemoryCatalog {
	if capacity <= 0 {
		capacity = metadata.DefaultCapacity
	}

	return &MemoryCatalog{
		kind:     kind,
		capacity: capacity,
		entries:  make([]*metadata.Entry, 0, min(capacity, 64)),
		byName:   make(map[string]int),
		byID:     make(map[metadata.EntryID]int),
	}
}

func (c *MemoryCatalog) Kind() metadata.EntryKind {
	return c.kind
}

func (c *MemoryCatalog) Capacity() int {
	return c.capacity
}

func (c *MemoryCatalog) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	return len(c.entries), nil
}

func (c *MemoryCatalog) Append(ctx context.Context, name string) (*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	if _, exists := c.byName[name]; exists {
		return nil, metadata.NewError(metadata.ErrAlreadyExists, "entry already exists", name)
	}

	if len(c.entries) >= c.capacity {
		return nil, metadata.NewError(metadata.ErrCapacityExceeded, "catalog capacity exceeded", name)
	}

	entry := &metadata.Entry{
		ID:   metadata.NewEntryID(),
		Kind: c.kind,
		Name: name,
	}
	if c.kind == metadata.KindFile {
		entry.Content = []byte{}
	}

	slot := len(c.entries)
	c.entries = append(c.entries, entry)
	c.byName[name] = slot
	c.byID[entry.ID] = slot

	return entry.Clone(), nil
}

func (c *MemoryCatalog) Lookup(ctx context.Context, name string) (*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	slot, ok := c.byName[name]
	if !ok {
		return nil, metadata.NewNotFoundError(name)
	}
	return c.entries[slot].Clone(), nil
}

func (c *MemoryCatalog) Get(ctx context.Context, id metadata.EntryID) (*metadata.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, err := c.entryLocked(id)
	if err != nil {
		return nil, err
	}
	return entry.Clone(), nil
}

func (c *MemoryCatalog) Content(ctx context.Context, id metadata.EntryID) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, err := c.entryLocked(id)
	if err != nil {
		return nil, err
	}

	content := make([]byte, len(entry.Content))
	copy(content, entry.Content)
	return content, nil
}

func (c *MemoryCatalog) SetContent(ctx context.Context, id metadata.EntryID, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.entryLocked(id)
	if err != nil {
		return err
	}
	if c.kind != metadata.KindFile {
		return metadata.NewError(metadata.ErrInvalidArgument, "directories have no content", entry.Name)
	}

	buf := make([]byte, len(content))
	copy(buf, content)
	entry.Content = buf
	return nil
}

func (c *MemoryCatalog) SetTimestamps(ctx context.Context, id metadata.EntryID, ts metadata.Timestamps) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, err := c.entryLocked(id)
	if err != nil {
		return err
	}
	entry.Times = ts
	return nil
}

// Remove deletes the entry and shifts every later entry down one slot.
// This is O(n) in the number of entries after the removed one.
func (c *MemoryCatalog) Remove(ctx context.Context, id metadata.EntryID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.checkOpen(); err != nil {
		return err
	}

	slot, ok := c.byID[id]
	if !ok {
		return metadata.NewError(metadata.ErrNotFound, "entry not found", id.String())
	}

	removed := c.entries[slot]
	copy(c.entries[slot:], c.entries[slot+1:])
	c.entries[len(c.entries)-1] = nil
	c.entries = c.entries[:len(c.entries)-1]

	delete(c.byName, removed.Name)
	delete(c.byID, removed.ID)

	for i := slot; i < len(c.entries); i++ {
		c.byName[c.entries[i].Name] = i
		c.byID[c.entries[i].ID] = i
	}

	return nil
}

func (c *MemoryCatalog) Scan(ctx context.Context, fn func(*metadata.Entry) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.checkOpen(); err != nil {
		return err
	}

	for _, entry := range c.entries {
		if err := fn(entry.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// Close drops all entries.
func (c *MemoryCatalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = nil
	c.byName = nil
	c.byID = nil
	c.closed = true
	return nil
}

// entryLocked returns the live entry for id. Caller must hold mu.
func (c *MemoryCatalog) entryLocked(id metadata.EntryID) (*metadata.Entry, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	slot, ok := c.byID[id]
	if !ok {
		return nil, metadata.NewError(metadata.ErrNotFound, "entry not found", id.String())
	}
	return c.entries[slot], nil
}

func (c *MemoryCatalog) checkOpen() error {
	if c.closed {
		return metadata.NewError(metadata.ErrIOError, "catalog is closed", "")
	}
	return nil
}

var _ metadata.Catalog = (*MemoryCatalog)(nil)
