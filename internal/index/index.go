// Package index implements spec.md §4.4: ordered and hash index
// abstractions sharing one IndexKey/RecordID/Entry vocabulary behind a
// common Index interface.
//
// Grounded on original_source/src/storage/index.rs (IndexKey lexicographic
// Ord, RecordId{page_id,slot_id}, the Index trait's insert/delete/search/
// range_scan/size shape, and the pull-style IndexIterator) and on the
// teacher's basic/index.go for the Go interface-over-concrete-types
// convention (server/innodb/basic/index.go).
package index

import (
	"github.com/minidb/core/internal/errs"
	"github.com/minidb/core/internal/page"
	"github.com/minidb/core/internal/types"
)

// RecordID locates a record by page id and slot id. Declared here as its
// own type rather than reusing page.RecordID because an index entry
// conceptually owns the pairing, independent of any loaded page.
type RecordID struct {
	PageID uint32
	SlotID page.SlotID
}

// IndexKey is an ordered tuple of values compared lexicographically,
// column by column, with NULL sorting below every non-NULL value.
// Grounded on original_source/src/storage/index.rs's IndexKey.
type IndexKey struct {
	Values []types.Value
}

// NewIndexKey builds a multi-column key.
func NewIndexKey(values ...types.Value) IndexKey {
	return IndexKey{Values: values}
}

// Compare orders two keys lexicographically; a shorter key that is a
// prefix of a longer one sorts first, matching the Rust original's
// length tiebreak.
func (k IndexKey) Compare(other IndexKey) int {
	n := len(k.Values)
	if len(other.Values) < n {
		n = len(other.Values)
	}
	for i := 0; i < n; i++ {
		if c := k.Values[i].Compare(other.Values[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(k.Values) < len(other.Values):
		return -1
	case len(k.Values) > len(other.Values):
		return 1
	default:
		return 0
	}
}

func (k IndexKey) Equal(other IndexKey) bool { return k.Compare(other) == 0 }

// Entry pairs a key with the record it addresses, the unit an Iterator
// walks over.
type Entry struct {
	Key IndexKey
	RID RecordID
}

// Index is the contract shared by OrderedIndex and HashIndex: point
// lookups, range scans, and size reporting over a set of unique keys.
// Grounded on original_source/src/storage/index.rs's Index trait.
type Index interface {
	Insert(key IndexKey, rid RecordID) error
	Delete(key IndexKey) (bool, error)
	Search(key IndexKey) (RecordID, bool, error)
	RangeScan(start, end *IndexKey) (*Iterator, error)
	Size() int
	IsEmpty() bool
}

// KeySpec declares one column position of an index's key: its data
// type, and for Varchar columns the declared maximum length, used by
// the asymmetric Varchar compatibility rule in validateKey.
type KeySpec struct {
	Kind   types.DataType
	MaxLen int
}

// KeyTypesOf builds a KeySpec slice for non-Varchar key columns, where
// MaxLen plays no role.
func KeyTypesOf(kinds ...types.DataType) []KeySpec {
	specs := make([]KeySpec, len(kinds))
	for i, k := range kinds {
		specs[i] = KeySpec{Kind: k}
	}
	return specs
}

// validateKey checks a key's column count and per-column type against
// the index's declared key schema, via DataType.IsCompatibleWith: equal
// kinds are always compatible, and a Varchar value only fits a Varchar
// key column declared at least as wide (spec.md §4.4). NULL values are
// compatible with any declared kind (spec.md §3: NULL sorts low across
// all types).
func validateKey(key IndexKey, keyTypes []KeySpec) error {
	if len(key.Values) != len(keyTypes) {
		return errs.ErrInvalidKeyFormat
	}
	for i, v := range key.Values {
		if v.IsNull {
			continue
		}
		spec := keyTypes[i]
		if !v.Kind.IsCompatibleWith(spec.Kind, v.StrMax, spec.MaxLen) {
			return errs.ErrTypeMismatch
		}
	}
	return nil
}

// Iterator walks a materialized, already-ordered slice of entries.
// Pull-style per original_source/src/storage/index.rs's IndexIterator:
// callers alternate HasNext/Next rather than ranging over a channel.
type Iterator struct {
	entries []Entry
	current int
}

func newIterator(entries []Entry) *Iterator {
	return &Iterator{entries: entries}
}

// HasNext reports whether Next has an entry left to return.
func (it *Iterator) HasNext() bool {
	return it.current < len(it.entries)
}

// Next returns the next entry and advances the cursor. The second
// return is false once the iterator is exhausted.
func (it *Iterator) Next() (Entry, bool) {
	if !it.HasNext() {
		return Entry{}, false
	}
	e := it.entries[it.current]
	it.current++
	return e, true
}

// Reset rewinds the iterator to its first entry.
func (it *Iterator) Reset() {
	it.current = 0
}

// Collect drains all remaining entries into a slice.
func (it *Iterator) Collect() []Entry {
	out := make([]Entry, 0, len(it.entries)-it.current)
	for it.HasNext() {
		e, _ := it.Next()
		out = append(out, e)
	}
	return out
}
