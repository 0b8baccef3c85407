package badger

import (
	"encoding/binary"

	"github.com/marmos91/lsysfs/pkg/metadata"
)

// Database Key Namespace Design
// ==============================
//
// BadgerDB is a key-value store, so prefixed keys organize the catalog into
// logical namespaces:
//
// Data Type        Prefix   Key Format             Value
// ==========================================================================
// Entry Records    "e:"     e:<seq uint64 BE>      entryRecord (CBOR)
// Name Index       "n:"     n:<full name>          seq (8 bytes BE)
// ID Index         "i:"     i:<16-byte EntryID>    seq (8 bytes BE)
// Sequence         "seq"    seq                    badger.Sequence lease
//
// Insertion Order:
// Badger iterates keys in byte order. Every Append takes the next value of a
// monotonic sequence and stores the record under its big-endian encoding, so
// a prefix scan over "e:" visits entries in insertion order. Removing a
// record leaves a gap in the sequence, which is the key-value equivalent of
// compaction: the survivors keep their relative order and nothing is
// renumbered.

const (
	prefixEntry = "e:"
	prefixName  = "n:"
	prefixID    = "i:"
)

var sequenceKey = []byte("seq")

func keyEntry(seq uint64) []byte {
	key := make([]byte, len(prefixEntry)+8)
	copy(key, prefixEntry)
	binary.BigEndian.PutUint64(key[len(prefixEntry):], seq)
	return key
}

func keyName(name string) []byte {
	return []byte(prefixName + name)
}

func keyID(id metadata.EntryID) []byte {
	key := make([]byte, 0, len(prefixID)+len(id))
	key = append(key, prefixID...)
	return append(key, id[:]...)
}

func encodeSeq(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func decodeSeq(b []byte) (uint64, bool) {
	if len(b) != 8 {
		return 0, false
	}
	return binary.BigEndian.Uint64(b), true
}
