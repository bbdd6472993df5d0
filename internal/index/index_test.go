package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minidb/core/internal/errs"
	"github.com/minidb/core/internal/page"
	"github.com/minidb/core/internal/types"
)

func TestIndexKeyOrderingNullSortsLow(t *testing.T) {
	k1 := NewIndexKey(types.Int32Value(1))
	k2 := NewIndexKey(types.Int32Value(2))
	kNull := NewIndexKey(types.NullValue(types.Int32))

	require.Negative(t, k1.Compare(k2))
	require.Positive(t, k2.Compare(k1))
	require.Negative(t, kNull.Compare(k1))
	require.Zero(t, k1.Compare(k1))
}

func TestOrderedIndexBasicOperations(t *testing.T) {
	idx := NewOrderedIndex(KeyTypesOf(types.Int32))

	k1 := NewIndexKey(types.Int32Value(1))
	k2 := NewIndexKey(types.Int32Value(2))

	require.NoError(t, idx.Insert(k1, RecordID{PageID: 1, SlotID: 0}))
	require.NoError(t, idx.Insert(k2, RecordID{PageID: 1, SlotID: 1}))
	require.Equal(t, 2, idx.Size())

	rid, found, err := idx.Search(k1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, RecordID{PageID: 1, SlotID: 0}, rid)

	_, found, err = idx.Search(NewIndexKey(types.Int32Value(999)))
	require.NoError(t, err)
	require.False(t, found)

	deleted, err := idx.Delete(k1)
	require.NoError(t, err)
	require.True(t, deleted)
	deleted, err = idx.Delete(k1)
	require.NoError(t, err)
	require.False(t, deleted)
	require.Equal(t, 1, idx.Size())
}

func TestOrderedIndexRejectsDuplicateKey(t *testing.T) {
	idx := NewOrderedIndex(KeyTypesOf(types.Int32))
	k := NewIndexKey(types.Int32Value(1))
	require.NoError(t, idx.Insert(k, RecordID{PageID: 1, SlotID: 0}))
	err := idx.Insert(k, RecordID{PageID: 1, SlotID: 1})
	require.ErrorIs(t, err, errs.ErrDuplicateKey)
}

func TestOrderedIndexRejectsWrongArity(t *testing.T) {
	idx := NewOrderedIndex(KeyTypesOf(types.Int32))
	wrong := NewIndexKey(types.Int32Value(1), types.Int32Value(2))
	err := idx.Insert(wrong, RecordID{})
	require.ErrorIs(t, err, errs.ErrInvalidKeyFormat)
}

func TestOrderedIndexRejectsWiderVarcharThanDeclared(t *testing.T) {
	idx := NewOrderedIndex([]KeySpec{{Kind: types.Varchar, MaxLen: 10}})

	fits := NewIndexKey(types.VarcharValue("short", 10))
	require.NoError(t, idx.Insert(fits, RecordID{PageID: 1, SlotID: 0}))

	tooWide := NewIndexKey(types.VarcharValue("another", 20))
	err := idx.Insert(tooWide, RecordID{PageID: 1, SlotID: 1})
	require.ErrorIs(t, err, errs.ErrTypeMismatch)
}

func TestOrderedIndexRangeScan(t *testing.T) {
	idx := NewOrderedIndex(KeyTypesOf(types.Int32))
	for i := int32(1); i <= 10; i++ {
		require.NoError(t, idx.Insert(NewIndexKey(types.Int32Value(i)), RecordID{PageID: 1, SlotID: page.SlotID(i)}))
	}

	start := NewIndexKey(types.Int32Value(3))
	end := NewIndexKey(types.Int32Value(7))
	it, err := idx.RangeScan(&start, &end)
	require.NoError(t, err)

	results := it.Collect()
	require.Len(t, results, 5)
	for i, e := range results {
		require.Equal(t, int32(i)+3, e.Key.Values[0].I32)
	}
}

func TestOrderedIndexRangeScanUnbounded(t *testing.T) {
	idx := NewOrderedIndex(KeyTypesOf(types.Int32))
	for i := int32(1); i <= 5; i++ {
		require.NoError(t, idx.Insert(NewIndexKey(types.Int32Value(i)), RecordID{PageID: 1, SlotID: page.SlotID(i)}))
	}
	it, err := idx.RangeScan(nil, nil)
	require.NoError(t, err)
	require.Len(t, it.Collect(), 5)
}

func TestIteratorHasNextNextReset(t *testing.T) {
	idx := NewOrderedIndex(KeyTypesOf(types.Int32))
	require.NoError(t, idx.Insert(NewIndexKey(types.Int32Value(1)), RecordID{PageID: 1, SlotID: 0}))
	require.NoError(t, idx.Insert(NewIndexKey(types.Int32Value(2)), RecordID{PageID: 1, SlotID: 1}))

	it, err := idx.RangeScan(nil, nil)
	require.NoError(t, err)

	require.True(t, it.HasNext())
	first, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, int32(1), first.Key.Values[0].I32)

	it.Reset()
	require.True(t, it.HasNext())
	again, ok := it.Next()
	require.True(t, ok)
	require.Equal(t, int32(1), again.Key.Values[0].I32)

	it.Next()
	require.False(t, it.HasNext())
	_, ok = it.Next()
	require.False(t, ok)
}

func TestHashIndexOperations(t *testing.T) {
	idx := NewHashIndex([]KeySpec{{Kind: types.Varchar, MaxLen: 50}})

	k1 := NewIndexKey(types.VarcharValue("alice", 50))
	k2 := NewIndexKey(types.VarcharValue("bob", 50))

	require.NoError(t, idx.Insert(k1, RecordID{PageID: 1, SlotID: 0}))
	require.NoError(t, idx.Insert(k2, RecordID{PageID: 1, SlotID: 1}))

	rid, found, err := idx.Search(k1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, RecordID{PageID: 1, SlotID: 0}, rid)

	deleted, err := idx.Delete(k1)
	require.NoError(t, err)
	require.True(t, deleted)
	require.Equal(t, 1, idx.Size())
}

func TestHashIndexRangeScanFallsBackToSortedFullScan(t *testing.T) {
	idx := NewHashIndex(KeyTypesOf(types.Int32))
	for _, v := range []int32{5, 1, 3, 2, 4} {
		require.NoError(t, idx.Insert(NewIndexKey(types.Int32Value(v)), RecordID{PageID: 1, SlotID: page.SlotID(v)}))
	}

	start := NewIndexKey(types.Int32Value(2))
	end := NewIndexKey(types.Int32Value(4))
	it, err := idx.RangeScan(&start, &end)
	require.NoError(t, err)

	results := it.Collect()
	require.Len(t, results, 3)
	for i, e := range results {
		require.Equal(t, int32(i)+2, e.Key.Values[0].I32)
	}
}

func TestMultiColumnIndexKey(t *testing.T) {
	idx := NewOrderedIndex([]KeySpec{{Kind: types.Varchar, MaxLen: 50}, {Kind: types.Int32}})

	k1 := NewIndexKey(types.VarcharValue("alice", 50), types.Int32Value(25))
	k2 := NewIndexKey(types.VarcharValue("bob", 50), types.Int32Value(30))

	require.NoError(t, idx.Insert(k1, RecordID{PageID: 1, SlotID: 0}))
	require.NoError(t, idx.Insert(k2, RecordID{PageID: 1, SlotID: 1}))

	rid, found, err := idx.Search(k1)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, RecordID{PageID: 1, SlotID: 0}, rid)
}
