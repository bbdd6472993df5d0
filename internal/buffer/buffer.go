package buffer

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/minidb/core/internal/errs"
	"github.com/minidb/core/internal/file"
	"github.com/minidb/core/internal/page"
	"github.com/minidb/core/logger"
)

type pageKey struct {
	file   string
	pageID uint32
}

// Frame is a buffer-pool cell holding at most one page plus metadata.
// Frame is free when Page is nil and PinCount is 0; evictable when
// PinCount == 0.
type Frame struct {
	mu sync.Mutex

	Page     *page.Page
	file     *file.DatabaseFile
	fileName string
	PinCount int
	IsDirty  bool
}

func (f *Frame) empty() bool { return f.Page == nil }

// Stats is the invariant-exposing snapshot of spec.md §4.3 / §8.
type Stats struct {
	PoolSize    int
	UsedFrames  int
	PinnedPages int
	DirtyPages  int
}

// BufferPool maps (file, page id) to a pinned frame, evicting via a
// pluggable ReplacementPolicy. Grounded on the teacher's BufferPool
// (server/innodb/buffer_pool/buffer_pool.go): a page-table lock
// guarding the (file,pageID)->frame map, acquired before any individual
// frame's lock, and never held across a frame's disk I/O.
type BufferPool struct {
	pageTableMu sync.Mutex
	pageTable   map[pageKey]FrameID

	frames []*Frame
	policy ReplacementPolicy
}

// NewBufferPool pre-allocates capacity empty frames and wires the given
// replacement policy (default LRU if nil).
func NewBufferPool(capacity int, policy ReplacementPolicy) *BufferPool {
	if policy == nil {
		policy = NewLRUPolicy()
	}
	bp := &BufferPool{
		pageTable: make(map[pageKey]FrameID),
		frames:    make([]*Frame, capacity),
		policy:    policy,
	}
	for i := range bp.frames {
		bp.frames[i] = &Frame{}
	}
	return bp
}

// FetchPage returns a pinned handle to (f, pageID), loading it from
// disk on a miss.
func (bp *BufferPool) FetchPage(f *file.DatabaseFile, pageID uint32) (FrameID, *Frame, error) {
	fileName := f.Name()
	key := pageKey{fileName, pageID}

	bp.pageTableMu.Lock()
	if fid, ok := bp.pageTable[key]; ok {
		frame := bp.frames[fid]
		bp.pageTableMu.Unlock()

		frame.mu.Lock()
		frame.PinCount++
		frame.mu.Unlock()
		bp.policy.RecordAccess(fid)
		return fid, frame, nil
	}
	bp.pageTableMu.Unlock()

	fid, frame, err := bp.evictVictim()
	if err != nil {
		return 0, nil, err
	}

	// I/O runs with the frame lock released so a slow disk read never
	// blocks other frames' eviction decisions; evictVictim hands the
	// frame back already pinned, which keeps it from being chosen as a
	// victim by another caller while the read is in flight. The frame is
	// published into the page table only after the read completes.
	p, err := f.ReadPage(pageID)
	if err != nil {
		bp.freeFrame(fid)
		return 0, nil, err
	}

	frame.mu.Lock()
	frame.Page = p
	frame.file = f
	frame.fileName = fileName
	frame.PinCount = 1
	frame.IsDirty = false
	frame.mu.Unlock()

	bp.pageTableMu.Lock()
	bp.pageTable[key] = fid
	bp.pageTableMu.Unlock()

	bp.policy.Track(fid)
	bp.policy.RecordAccess(fid)
	return fid, frame, nil
}

// NewPage allocates a page id via f and installs a fresh empty page
// into a victim frame, pinned and dirty.
func (bp *BufferPool) NewPage(f *file.DatabaseFile, pageType page.Type) (FrameID, *Frame, error) {
	fileName := f.Name()
	pageID, err := f.AllocatePage()
	if err != nil {
		return 0, nil, err
	}

	fid, frame, err := bp.evictVictim()
	if err != nil {
		return 0, nil, err
	}

	p := page.New(pageID, pageType)
	frame.mu.Lock()
	frame.Page = p
	frame.file = f
	frame.fileName = fileName
	frame.PinCount = 1
	frame.IsDirty = true
	frame.mu.Unlock()

	key := pageKey{fileName, pageID}
	bp.pageTableMu.Lock()
	bp.pageTable[key] = fid
	bp.pageTableMu.Unlock()

	bp.policy.Track(fid)
	bp.policy.RecordAccess(fid)
	return fid, frame, nil
}

// evictVictim finds a free or evictable frame and returns it empty with
// a pin count of 1, so no other caller can pick it while it is written
// back or loaded. Frames are chosen under their own locks; the
// page-table lock is taken only to drop the victim's mapping, never
// while a frame lock is held (spec.md §5).
func (bp *BufferPool) evictVictim() (FrameID, *Frame, error) {
	for fid, frame := range bp.frames {
		frame.mu.Lock()
		if frame.empty() && frame.PinCount == 0 {
			frame.PinCount = 1
			frame.mu.Unlock()
			return FrameID(fid), frame, nil
		}
		frame.mu.Unlock()
	}

	for _, fid := range bp.policy.Candidates() {
		frame := bp.frames[fid]
		frame.mu.Lock()
		if frame.PinCount > 0 || frame.empty() {
			frame.mu.Unlock()
			continue
		}
		frame.PinCount = 1
		dirty := frame.IsDirty
		victimPage := frame.Page
		victimFile := frame.file
		key := pageKey{frame.fileName, victimPage.PageID()}
		frame.mu.Unlock()

		if dirty && victimFile != nil {
			if err := victimFile.WritePage(victimPage); err != nil {
				logger.Debugf("buffer: failed to write back dirty page during eviction: %v", err)
			}
		}

		bp.pageTableMu.Lock()
		delete(bp.pageTable, key)
		bp.pageTableMu.Unlock()
		frame.mu.Lock()
		frame.Page, frame.file, frame.fileName, frame.IsDirty = nil, nil, "", false
		frame.mu.Unlock()
		bp.policy.Untrack(fid)
		return fid, frame, nil
	}

	return 0, nil, errs.ErrPoolFull
}

// freeFrame removes a frame's page-table mapping and clears its content.
func (bp *BufferPool) freeFrame(fid FrameID) {
	frame := bp.frames[fid]

	frame.mu.Lock()
	key := pageKey{frame.fileName, 0}
	if frame.Page != nil {
		key.pageID = frame.Page.PageID()
	}
	hadPage := frame.Page != nil
	frame.Page = nil
	frame.file = nil
	frame.fileName = ""
	frame.PinCount = 0
	frame.IsDirty = false
	frame.mu.Unlock()

	if hadPage {
		bp.pageTableMu.Lock()
		delete(bp.pageTable, key)
		bp.pageTableMu.Unlock()
	}
	bp.policy.Untrack(fid)
}

// UnpinPage decrements the pin count (no-op at 0) and ORs becameDirty
// into the frame's dirty flag.
func (bp *BufferPool) UnpinPage(fid FrameID, becameDirty bool) {
	frame := bp.frames[fid]
	frame.mu.Lock()
	defer frame.mu.Unlock()
	if frame.PinCount > 0 {
		frame.PinCount--
	}
	frame.IsDirty = frame.IsDirty || becameDirty
}

// FlushPage writes a dirty frame's page through its file and clears
// the dirty flag.
func (bp *BufferPool) FlushPage(fid FrameID) error {
	frame := bp.frames[fid]
	frame.mu.Lock()
	dirty := frame.IsDirty
	p := frame.Page
	f := frame.file
	frame.mu.Unlock()

	if !dirty || f == nil {
		return nil
	}
	if err := f.WritePage(p); err != nil {
		return errors.Wrap(err, "buffer: flush page")
	}

	frame.mu.Lock()
	frame.IsDirty = false
	frame.mu.Unlock()
	return nil
}

// FlushAll flushes every dirty frame.
func (bp *BufferPool) FlushAll() error {
	for fid := range bp.frames {
		if err := bp.FlushPage(FrameID(fid)); err != nil {
			return err
		}
	}
	return nil
}

// Stats reports the invariant-exposing snapshot of spec.md §8.
func (bp *BufferPool) Stats() Stats {
	s := Stats{PoolSize: len(bp.frames)}
	for _, frame := range bp.frames {
		frame.mu.Lock()
		if !frame.empty() {
			s.UsedFrames++
		}
		if frame.PinCount > 0 {
			s.PinnedPages++
		}
		if frame.IsDirty {
			s.DirtyPages++
		}
		frame.mu.Unlock()
	}
	return s
}
