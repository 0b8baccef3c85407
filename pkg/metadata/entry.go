package metadata

import (
	"time"

	"github.com/google/uuid"
)

// Separator is the hierarchy separator used in entry names.
const Separator = "/"

// EntryID identifies an entry for its whole lifetime.
//
// IDs are random UUIDs assigned at creation. Unlike catalog positions they
// survive the compaction that follows every deletion, so a holder of an ID
// is never invalidated by an unrelated delete.
type EntryID uuid.UUID

// NilEntryID is the zero EntryID. The implicit root uses it.
var NilEntryID EntryID

// NewEntryID returns a fresh random EntryID.
func NewEntryID() EntryID {
	return EntryID(uuid.New())
}

// ParseEntryID parses the canonical string form of an EntryID.
func ParseEntryID(s string) (EntryID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return NilEntryID, err
	}
	return EntryID(id), nil
}

func (id EntryID) String() string {
	return uuid.UUID(id).String()
}

// Bytes returns the 16 raw bytes of the ID.
func (id EntryID) Bytes() []byte {
	b := make([]byte, len(id))
	copy(b, id[:])
	return b
}

// EntryKind says which catalog an entry lives in.
type EntryKind uint8

const (
	// KindDirectory marks directory entries (and the implicit root)
	KindDirectory EntryKind = iota + 1

	// KindFile marks regular file entries
	KindFile
)

func (k EntryKind) String() string {
	switch k {
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Timestamps holds the lifecycle times of an entry.
//
// Timestamps are materialized lazily: a new entry has Initialized=false
// and zero times. The first attribute query sets all three to the
// current time and flips Initialized; later queries return the cached
// values until an explicit touch.
type Timestamps struct {
	Atime       time.Time
	Mtime       time.Time
	Ctime       time.Time
	Initialized bool
}

// Materialize returns ts with every time set to now and Initialized set.
func (ts Timestamps) Materialize(now time.Time) Timestamps {
	return Timestamps{Atime: now, Mtime: now, Ctime: now, Initialized: true}
}

// Entry is a named directory or file record.
type Entry struct {
	// ID is the stable identifier assigned at creation
	ID EntryID

	// Kind says which catalog holds the entry
	Kind EntryKind

	// Name is the path relative to the root, without a leading separator
	Name string

	// Content is the file body. Always empty for directories.
	Content []byte

	// Times holds the lazily materialized timestamps
	Times Timestamps
}

// Clone returns a deep copy of e.
func (e *Entry) Clone() *Entry {
	if e == nil {
		return nil
	}
	c := *e
	if e.Content != nil {
		c.Content = make([]byte, len(e.Content))
		copy(c.Content, e.Content)
	}
	return &c
}
