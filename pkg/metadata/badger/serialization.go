package badger

import (
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/marmos91/lsysfs/pkg/metadata"
)

// Serialization Strategy
// ======================
//
// Entry records are encoded with CBOR using integer map keys. Records are
// small and written on every content change, so the compact binary form is
// preferred over JSON. Timestamps are stored as Unix seconds plus a
// nanosecond remainder, which covers every year time.Time can represent
// (a single nanosecond count would wrap outside 1678-2262). They are omitted
// until materialized, which keeps the "not yet observed" state explicit
// instead of relying on a zero sentinel.

// entryRecord is the on-wire form of metadata.Entry.
type entryRecord struct {
	ID          []byte `cbor:"1,keyasint"`
	Kind        uint8  `cbor:"2,keyasint"`
	Name        string `cbor:"3,keyasint"`
	Content     []byte `cbor:"4,keyasint,omitempty"`
	Atime       *timeRecord `cbor:"5,keyasint,omitempty"`
	Mtime       *timeRecord `cbor:"6,keyasint,omitempty"`
	Ctime       *timeRecord `cbor:"7,keyasint,omitempty"`
	Initialized bool        `cbor:"8,keyasint,omitempty"`
}

// timeRecord is a point in time as Unix seconds and nanoseconds.
type timeRecord struct {
	Sec  int64 `cbor:"1,keyasint"`
	Nsec int64 `cbor:"2,keyasint,omitempty"`
}

func newTimeRecord(t time.Time) *timeRecord {
	return &timeRecord{Sec: t.Unix(), Nsec: int64(t.Nanosecond())}
}

func (r *timeRecord) time() time.Time {
	if r == nil {
		return time.Unix(0, 0)
	}
	return time.Unix(r.Sec, r.Nsec)
}

var encMode = mustEncMode()

func mustEncMode() cbor.EncMode {
	mode, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("badger catalog: invalid CBOR options: %v", err))
	}
	return mode
}

func encodeEntry(entry *metadata.Entry) ([]byte, error) {
	record := entryRecord{
		ID:          entry.ID.Bytes(),
		Kind:        uint8(entry.Kind),
		Name:        entry.Name,
		Content:     entry.Content,
		Initialized: entry.Times.Initialized,
	}
	if entry.Times.Initialized {
		record.Atime = newTimeRecord(entry.Times.Atime)
		record.Mtime = newTimeRecord(entry.Times.Mtime)
		record.Ctime = newTimeRecord(entry.Times.Ctime)
	}

	data, err := encMode.Marshal(&record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry %q: %w", entry.Name, err)
	}
	return data, nil
}

func decodeEntry(data []byte) (*metadata.Entry, error) {
	var record entryRecord
	if err := cbor.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}
	if len(record.ID) != len(metadata.EntryID{}) {
		return nil, fmt.Errorf("failed to decode entry %q: bad id length %d", record.Name, len(record.ID))
	}

	entry := &metadata.Entry{
		Kind:    metadata.EntryKind(record.Kind),
		Name:    record.Name,
		Content: record.Content,
	}
	copy(entry.ID[:], record.ID)

	if entry.Kind == metadata.KindFile && entry.Content == nil {
		entry.Content = []byte{}
	}

	if record.Initialized {
		entry.Times = metadata.Timestamps{
			Atime:       record.Atime.time(),
			Mtime:       record.Mtime.time(),
			Ctime:       record.Ctime.time(),
			Initialized: true,
		}
	}

	return entry, nil
}
