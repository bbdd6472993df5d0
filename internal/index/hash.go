package index

import (
	"encoding/binary"
	"sort"
	"sync"

	"github.com/OneOfOne/xxhash"

	"github.com/minidb/core/internal/errs"
	"github.com/minidb/core/internal/types"
)

// HashIndex supports O(1) equality lookup over unique keys but, per
// spec.md §4.4, has no efficient range scan: RangeScan falls back to a
// full bucket scan with filtering, materialized and sorted on demand.
// Grounded on original_source/src/storage/index.rs's HashIndex and on
// util/hash_utils.go's HashCode(key []byte) uint64, which wires the
// same xxhash package used here for bucket hashing.
type HashIndex struct {
	mu       sync.RWMutex
	keyTypes []KeySpec
	buckets  map[uint64][]Entry // chained on hash collision
}

// NewHashIndex declares a hash index over the given column types.
func NewHashIndex(keyTypes []KeySpec) *HashIndex {
	return &HashIndex{
		keyTypes: append([]KeySpec(nil), keyTypes...),
		buckets:  make(map[uint64][]Entry),
	}
}

// hashKey derives a bucket hash from a key's values. Collisions are
// resolved by exact-key comparison within the bucket's chain.
func hashKey(key IndexKey) uint64 {
	h := xxhash.New64()
	for _, v := range key.Values {
		h.Write(valueHashBytes(v))
	}
	return h.Sum64()
}

func valueHashBytes(v types.Value) []byte {
	var buf [9]byte
	buf[0] = byte(v.Kind)
	if v.IsNull {
		return buf[:1]
	}
	switch v.Kind {
	case types.Int32:
		binary.BigEndian.PutUint32(buf[1:5], uint32(v.I32))
		return buf[:5]
	case types.Int64, types.Timestamp:
		n := v.I64
		if v.Kind == types.Timestamp {
			n = v.TSVal
		}
		binary.BigEndian.PutUint64(buf[1:9], uint64(n))
		return buf[:9]
	case types.Float32:
		binary.BigEndian.PutUint32(buf[1:5], uint32(int32(v.F32*1e6)))
		return buf[:5]
	case types.Float64:
		binary.BigEndian.PutUint64(buf[1:9], uint64(int64(v.F64*1e6)))
		return buf[:9]
	case types.Varchar:
		return append(buf[:1], []byte(v.Str)...)
	case types.Bool:
		if v.B {
			buf[1] = 1
		}
		return buf[:2]
	case types.Date:
		binary.BigEndian.PutUint32(buf[1:5], uint32(v.DateVal))
		return buf[:5]
	default:
		return buf[:1]
	}
}

func findInBucket(bucket []Entry, key IndexKey) int {
	for i, e := range bucket {
		if e.Key.Equal(key) {
			return i
		}
	}
	return -1
}

// Insert rejects a key already present.
func (idx *HashIndex) Insert(key IndexKey, rid RecordID) error {
	if err := validateKey(key, idx.keyTypes); err != nil {
		return err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	h := hashKey(key)
	bucket := idx.buckets[h]
	if findInBucket(bucket, key) >= 0 {
		return errs.ErrDuplicateKey
	}
	idx.buckets[h] = append(bucket, Entry{Key: key, RID: rid})
	return nil
}

// Delete removes key if present.
func (idx *HashIndex) Delete(key IndexKey) (bool, error) {
	if err := validateKey(key, idx.keyTypes); err != nil {
		return false, err
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	h := hashKey(key)
	bucket := idx.buckets[h]
	i := findInBucket(bucket, key)
	if i < 0 {
		return false, nil
	}
	bucket = append(bucket[:i], bucket[i+1:]...)
	if len(bucket) == 0 {
		delete(idx.buckets, h)
	} else {
		idx.buckets[h] = bucket
	}
	return true, nil
}

// Search returns the record id for an exact key match.
func (idx *HashIndex) Search(key IndexKey) (RecordID, bool, error) {
	if err := validateKey(key, idx.keyTypes); err != nil {
		return RecordID{}, false, err
	}
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	bucket := idx.buckets[hashKey(key)]
	i := findInBucket(bucket, key)
	if i < 0 {
		return RecordID{}, false, nil
	}
	return bucket[i].RID, true, nil
}

// RangeScan has no efficient path over a hash table: every entry is
// collected, filtered against the bounds, and sorted so callers see a
// deterministic order despite the index itself being unordered.
func (idx *HashIndex) RangeScan(start, end *IndexKey) (*Iterator, error) {
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

	var out []Entry
	for _, bucket := range idx.buckets {
		for _, e := range bucket {
			if start != nil && e.Key.Compare(*start) < 0 {
				continue
			}
			if end != nil && e.Key.Compare(*end) > 0 {
				continue
			}
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Compare(out[j].Key) < 0 })
	return newIterator(out), nil
}

// Size reports the number of entries currently indexed.
func (idx *HashIndex) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	n := 0
	for _, bucket := range idx.buckets {
		n += len(bucket)
	}
	return n
}

// IsEmpty reports whether the index holds no entries.
func (idx *HashIndex) IsEmpty() bool { return idx.Size() == 0 }

var _ Index = (*HashIndex)(nil)
