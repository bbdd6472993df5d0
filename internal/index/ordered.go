package index

import (
	"sort"
	"sync"

	"github.com/minidb/core/internal/errs"
)

// OrderedIndex is an in-memory stand-in for the engine's B+-tree
// contract: unique keys kept sorted, supporting point lookup and
// inclusive range scans in O(log n + k). Grounded on
// original_source/src/storage/index.rs's BPlusTreeIndex (there backed
// by a BTreeMap); here a sorted slice plays the same role, since
// spec.md §4.4 specifies the contract an ordered index must honor, not
// a particular on-disk tree layout.
type OrderedIndex struct {
	mu       sync.RWMutex
	keyTypes []KeySpec
	entries  []Entry // kept sorted by Key at all times
}

// NewOrderedIndex declares an index over the given column types, in
// key order.
func NewOrderedIndex(keyTypes []KeySpec) *OrderedIndex {
	return &OrderedIndex{keyTypes: append([]KeySpec(nil), keyTypes...)}
}

func (idx *OrderedIndex) find(key IndexKey) (int, bool) {
	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].Key.Compare(key) >= 0
	})
	if i < len(idx.entries) && idx.entries[i].Key.Equal(key) {
		return i, true
	}
	return i, false
}

// Insert rejects a key already present (spec.md §4.4: duplicate keys
// are not permitted within a single index).
func (idx *OrderedIndex) Insert(key IndexKey, rid RecordID) error {
	if err := validateKey(key, idx.keyTypes); err != nil {
		return err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	i, found := idx.find(key)
	if found {
		return errs.ErrDuplicateKey
	}
	idx.entries = append(idx.entries, Entry{})
	copy(idx.entries[i+1:], idx.entries[i:])
	idx.entries[i] = Entry{Key: key, RID: rid}
	return nil
}

// Delete removes key if present, reporting whether it was found.
func (idx *OrderedIndex) Delete(key IndexKey) (bool, error) {
	if err := validateKey(key, idx.keyTypes); err != nil {
		return false, err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	i, found := idx.find(key)
	if !found {
		return false, nil
	}
	idx.entries = append(idx.entries[:i], idx.entries[i+1:]...)
	return true, nil
}

// Search returns the record id for an exact key match.
func (idx *OrderedIndex) Search(key IndexKey) (RecordID, bool, error) {
	if err := validateKey(key, idx.keyTypes); err != nil {
		return RecordID{}, false, err
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i, found := idx.find(key)
	if !found {
		return RecordID{}, false, nil
	}
	return idx.entries[i].RID, true, nil
}

// RangeScan returns entries with start <= key <= end, treating a nil
// bound as unbounded on that side, in ascending key order.
func (idx *OrderedIndex) RangeScan(start, end *IndexKey) (*Iterator, error) {
	if start != nil {
		if err := validateKey(*start, idx.keyTypes); err != nil {
			return nil, err
		}
	}
	if end != nil {
		if err := validateKey(*end, idx.keyTypes); err != nil {
			return nil, err
		}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	lo := 0
	if start != nil {
		lo = sort.Search(len(idx.entries), func(i int) bool {
			return idx.entries[i].Key.Compare(*start) >= 0
		})
	}
	hi := len(idx.entries)
	if end != nil {
		hi = sort.Search(len(idx.entries), func(i int) bool {
			return idx.entries[i].Key.Compare(*end) > 0
		})
	}
	if lo >= hi {
		return newIterator(nil), nil
	}
	out := make([]Entry, hi-lo)
	copy(out, idx.entries[lo:hi])
	return newIterator(out), nil
}

// Size reports the number of entries currently indexed.
func (idx *OrderedIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// IsEmpty reports whether the index holds no entries.
func (idx *OrderedIndex) IsEmpty() bool { return idx.Size() == 0 }

var _ Index = (*OrderedIndex)(nil)
