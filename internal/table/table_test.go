package table

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minidb/core/internal/index"
	"github.com/minidb/core/internal/types"
)

func testSchema(t *testing.T) *types.Schema {
	t.Helper()
	schema, err := types.NewSchema([]types.Column{
		{Name: "id", DataType: types.Int32},
		{Name: "name", DataType: types.Varchar, MaxLen: 50},
	}, []int{0})
	require.NoError(t, err)
	return schema
}

func TestTableCreatePrimaryAndSecondaryIndex(t *testing.T) {
	tbl := NewTable(testSchema(t))
	require.NoError(t, tbl.CreatePrimaryIndex(Ordered, []int{0}))
	require.NoError(t, tbl.CreateIndex("by_name", Hash, []int{1}))

	names := tbl.ListIndices()
	require.Contains(t, names, "PRIMARY")
	require.Contains(t, names, "by_name")

	meta, ok := tbl.GetIndexMetadata("by_name")
	require.True(t, ok)
	require.Equal(t, Hash, meta.Kind)
	require.Equal(t, []int{1}, meta.Columns)
}

func TestTableCreatePrimaryIndexTwiceFails(t *testing.T) {
	tbl := NewTable(testSchema(t))
	require.NoError(t, tbl.CreatePrimaryIndex(Ordered, []int{0}))
	require.Error(t, tbl.CreatePrimaryIndex(Ordered, []int{0}))
}

func TestTableCreatePrimaryIndexDefaultsToSchemaPrimaryKey(t *testing.T) {
	tbl := NewTable(testSchema(t))
	require.NoError(t, tbl.CreatePrimaryIndex(Ordered, nil))

	meta, ok := tbl.GetIndexMetadata("PRIMARY")
	require.True(t, ok)
	require.Equal(t, []int{0}, meta.Columns)
}

func TestTableListIndicesPreservesRegistrationOrder(t *testing.T) {
	tbl := NewTable(testSchema(t))
	require.NoError(t, tbl.CreatePrimaryIndex(Ordered, []int{0}))
	require.NoError(t, tbl.CreateIndex("by_name", Hash, []int{1}))
	require.NoError(t, tbl.CreateIndex("by_id_name", Ordered, []int{0, 1}))

	require.Equal(t, []string{"PRIMARY", "by_name", "by_id_name"}, tbl.ListIndices())

	require.NoError(t, tbl.DropIndex("by_name"))
	require.Equal(t, []string{"PRIMARY", "by_id_name"}, tbl.ListIndices())
}

func TestTableInsertWithIndicesPopulatesAll(t *testing.T) {
	tbl := NewTable(testSchema(t))
	require.NoError(t, tbl.CreatePrimaryIndex(Ordered, []int{0}))
	require.NoError(t, tbl.CreateIndex("by_name", Hash, []int{1}))

	tuple := types.Tuple{Values: []types.Value{types.Int32Value(1), types.VarcharValue("alice", 50)}}
	rid := index.RecordID{PageID: 1, SlotID: 0}
	require.NoError(t, tbl.InsertWithIndices(tuple, rid))

	primary, _ := tbl.GetIndex("PRIMARY")
	got, found, err := primary.Search(index.NewIndexKey(types.Int32Value(1)))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, rid, got)

	byName, _ := tbl.GetIndex("by_name")
	got2, found, err := byName.Search(index.NewIndexKey(types.VarcharValue("alice", 50)))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, rid, got2)
}

func TestTableInsertWithIndicesNonAtomicOnSecondaryFailure(t *testing.T) {
	tbl := NewTable(testSchema(t))
	require.NoError(t, tbl.CreatePrimaryIndex(Ordered, []int{0}))
	require.NoError(t, tbl.CreateIndex("by_name", Ordered, []int{1}))

	t1 := types.Tuple{Values: []types.Value{types.Int32Value(1), types.VarcharValue("alice", 50)}}
	t2 := types.Tuple{Values: []types.Value{types.Int32Value(2), types.VarcharValue("alice", 50)}}

	require.NoError(t, tbl.InsertWithIndices(t1, index.RecordID{PageID: 1, SlotID: 0}))
	// t2 has a distinct primary key but a colliding secondary key: the
	// primary insert succeeds, the secondary insert fails, and the
	// partial state is left as-is.
	err := tbl.InsertWithIndices(t2, index.RecordID{PageID: 1, SlotID: 1})
	require.Error(t, err)

	primary, _ := tbl.GetIndex("PRIMARY")
	_, found, err := primary.Search(index.NewIndexKey(types.Int32Value(2)))
	require.NoError(t, err)
	require.True(t, found, "primary insert is not rolled back on secondary failure")
}

func TestTableDeleteFromIndicesRemovesAll(t *testing.T) {
	tbl := NewTable(testSchema(t))
	require.NoError(t, tbl.CreatePrimaryIndex(Ordered, []int{0}))
	require.NoError(t, tbl.CreateIndex("by_name", Hash, []int{1}))

	tuple := types.Tuple{Values: []types.Value{types.Int32Value(1), types.VarcharValue("alice", 50)}}
	rid := index.RecordID{PageID: 1, SlotID: 0}
	require.NoError(t, tbl.InsertWithIndices(tuple, rid))
	require.NoError(t, tbl.DeleteFromIndices(tuple))

	primary, _ := tbl.GetIndex("PRIMARY")
	require.True(t, primary.IsEmpty())
	byName, _ := tbl.GetIndex("by_name")
	require.True(t, byName.IsEmpty())
}

func TestTableDropIndex(t *testing.T) {
	tbl := NewTable(testSchema(t))
	require.NoError(t, tbl.CreatePrimaryIndex(Ordered, []int{0}))
	require.NoError(t, tbl.CreateIndex("by_name", Hash, []int{1}))

	require.NoError(t, tbl.DropIndex("by_name"))
	_, ok := tbl.GetIndex("by_name")
	require.False(t, ok)
	require.Error(t, tbl.DropIndex("PRIMARY"))
}
