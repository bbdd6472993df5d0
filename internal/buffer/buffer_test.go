package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minidb/core/internal/file"
	"github.com/minidb/core/internal/page"
)

func newTestFile(t *testing.T) (*file.FileManager, *file.DatabaseFile) {
	t.Helper()
	fm, err := file.NewFileManager(t.TempDir())
	require.NoError(t, err)
	df, err := fm.CreateFile("t")
	require.NoError(t, err)
	return fm, df
}

func TestBufferPoolEvictionRespectsPinning(t *testing.T) {
	_, df := newTestFile(t)
	bp := NewBufferPool(2, NewLRUPolicy())

	f1, frame1, err := bp.NewPage(df, page.Data)
	require.NoError(t, err)
	f2, frame2, err := bp.NewPage(df, page.Data)
	require.NoError(t, err)

	bp.UnpinPage(f1, false)
	bp.UnpinPage(f2, false)

	_, frame3, err := bp.NewPage(df, page.Data)
	require.NoError(t, err)

	stats := bp.Stats()
	require.Equal(t, 2, stats.UsedFrames)
	require.Equal(t, 1, stats.PinnedPages)
	require.NotNil(t, frame1)
	require.NotNil(t, frame2)
	require.NotNil(t, frame3)
}

func TestBufferPoolFetchHitReusesFrame(t *testing.T) {
	_, df := newTestFile(t)
	bp := NewBufferPool(4, NewLRUPolicy())

	fid, frame, err := bp.NewPage(df, page.Data)
	require.NoError(t, err)
	_, err = frame.Page.InsertRecord([]byte("x"))
	require.NoError(t, err)
	bp.UnpinPage(fid, true)
	require.NoError(t, bp.FlushPage(fid))

	fid2, frame2, err := bp.FetchPage(df, frame.Page.PageID())
	require.NoError(t, err)
	require.Equal(t, fid, fid2)
	rec, err := frame2.Page.GetRecord(0)
	require.NoError(t, err)
	require.Equal(t, "x", string(rec))
}

func TestBufferPoolFlushAllClearsDirty(t *testing.T) {
	_, df := newTestFile(t)
	bp := NewBufferPool(2, NewLRUPolicy())

	fid, _, err := bp.NewPage(df, page.Data)
	require.NoError(t, err)
	bp.UnpinPage(fid, true)

	require.NoError(t, bp.FlushAll())
	stats := bp.Stats()
	require.Equal(t, 0, stats.DirtyPages)
}

func TestBufferPoolFullWhenAllPinned(t *testing.T) {
	_, df := newTestFile(t)
	bp := NewBufferPool(1, NewLRUPolicy())

	_, _, err := bp.NewPage(df, page.Data)
	require.NoError(t, err)

	_, _, err = bp.NewPage(df, page.Data)
	require.Error(t, err)
}

func TestClockPolicyCandidatesSkipPinned(t *testing.T) {
	_, df := newTestFile(t)
	bp := NewBufferPool(2, NewClockPolicy())

	_, _, err := bp.NewPage(df, page.Data) // stays pinned
	require.NoError(t, err)
	f2, _, err := bp.NewPage(df, page.Data)
	require.NoError(t, err)
	bp.UnpinPage(f2, false)

	_, _, err = bp.NewPage(df, page.Data)
	require.NoError(t, err)
	stats := bp.Stats()
	require.Equal(t, 2, stats.UsedFrames)
	require.Equal(t, 2, stats.PinnedPages)
}
