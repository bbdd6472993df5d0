package file

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minidb/core/internal/errs"
	"github.com/minidb/core/internal/page"
)

func TestCreateOpenDeleteFile(t *testing.T) {
	dir := t.TempDir()
	fm, err := NewFileManager(dir)
	require.NoError(t, err)

	df, err := fm.CreateFile("orders")
	require.NoError(t, err)
	require.NotNil(t, df)

	_, err = fm.CreateFile("orders")
	require.ErrorIs(t, err, errs.ErrAlreadyExists)

	require.NoError(t, fm.CloseFile("orders"))
	reopened, err := fm.OpenFile("orders")
	require.NoError(t, err)
	require.Equal(t, uint32(0), reopened.PageCount())

	require.NoError(t, fm.DeleteFile("orders"))
}

func TestAllocateWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	fm, err := NewFileManager(dir)
	require.NoError(t, err)
	df, err := fm.CreateFile("t1")
	require.NoError(t, err)

	id, err := df.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, uint32(0), id)
	require.Equal(t, uint32(1), df.PageCount())

	p := page.New(id, page.Data)
	_, err = p.InsertRecord([]byte("hello"))
	require.NoError(t, err)
	require.NoError(t, df.WritePage(p))
	require.False(t, p.IsDirty())

	read, err := df.ReadPage(id)
	require.NoError(t, err)
	rec, err := read.GetRecord(0)
	require.NoError(t, err)
	require.Equal(t, "hello", string(rec))
}

func TestReadInvalidPageID(t *testing.T) {
	dir := t.TempDir()
	fm, err := NewFileManager(dir)
	require.NoError(t, err)
	df, err := fm.CreateFile("t2")
	require.NoError(t, err)

	_, err = df.ReadPage(0)
	require.ErrorIs(t, err, errs.ErrInvalidPageID)
}

func TestPageIdsAreDense(t *testing.T) {
	dir := t.TempDir()
	fm, err := NewFileManager(dir)
	require.NoError(t, err)
	df, err := fm.CreateFile("t3")
	require.NoError(t, err)

	for i := uint32(0); i < 5; i++ {
		id, err := df.AllocatePage()
		require.NoError(t, err)
		require.Equal(t, i, id)
	}
}
