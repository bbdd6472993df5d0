// Package page implements the fixed-size, slotted page format of
// spec.md §3, §4.1, and §6: a 64-byte header followed by a
// forward-growing slot directory and a backward-growing record region.
//
// Grounded on the teacher's server/innodb/basic/page_header.go field
// layout (fixed-offset header fields) and the original Rust
// implementation's storage/page.rs (slot directory as offset+length
// pairs, backward-growing data region, advisory checksum).
package page

import (
	"encoding/binary"

	"github.com/OneOfOne/xxhash"
	"github.com/pkg/errors"

	"github.com/minidb/core/internal/errs"
)

const (
	// Size is the fixed size of every page on disk.
	Size = 8192

	// HeaderSize is the size of the fixed-offset page header. It must
	// be preserved across versions of the same engine (spec.md §6).
	HeaderSize = 64

	slotEntrySize = 4 // offset u16 LE + length u16 LE
	MaxRecordSize = Size - HeaderSize

	// tombstoneLength marks a deleted slot on disk. MaxRecordSize (8128
	// for the default page size) is always well under this, so it never
	// collides with a live record's length.
	tombstoneLength = 0xFFFF

	offPageID           = 0
	offPageType         = 4
	offReserved         = 5 // 3 bytes, zero
	offSlotCount        = 8
	offFreeSpaceOffset  = 10
	offFreeSpaceSize    = 12
	offChecksum         = 14 // 8 bytes
	offPrevPage         = 22 // 4 bytes
	offNextPage         = 26 // 4 bytes
	// bytes [30,64) remain reserved padding
)

// Type distinguishes what a page's record region holds.
type Type uint8

const (
	Data Type = 1
	Index Type = 2
	Meta Type = 3
)

// SlotID identifies a record's slot within a page.
type SlotID uint16

// RecordID is the stable, opaque identifier of a record within a file:
// a (page, slot) pair. Stable until the record is deleted.
type RecordID struct {
	PageID uint32
	SlotID SlotID
}

type slotEntry struct {
	offset uint16
	length uint16
}

// Page is a fixed-size, mutable in-memory buffer with a slot directory.
// It is not safe for concurrent use; callers (the buffer pool) serialize
// access to a given page via its frame lock.
type Page struct {
	pageID    uint32
	pageType  Type
	prevPage  uint32 // meaningful only when hasPrev; stored on disk as id+1 so 0 there means "none"
	nextPage  uint32
	hasPrev   bool
	hasNext   bool
	slots     []slotEntry // index i corresponds to SlotID(i)
	tombstone []bool      // true once a slot has been deleted
	data      []byte      // record region, exactly MaxRecordSize bytes, indexed the same as the on-disk layout
	freeOff   uint16      // offset of the slot directory's free-space boundary (HeaderSize + slotCount*slotEntrySize)
	freeSize  uint16
	// watermark is how many bytes have been claimed from the back of the
	// data region, counting deleted records' bytes too: holes left by
	// DeleteRecord are never reclaimed until the page is rewritten whole
	// (spec.md §4.1), so the next insert always advances past them.
	watermark int
	dirty     bool
}

// New creates a zero-initialized page with an empty slot directory.
func New(pageID uint32, pageType Type) *Page {
	return &Page{
		pageID:   pageID,
		pageType: pageType,
		data:     make([]byte, MaxRecordSize),
		freeOff:  HeaderSize,
		freeSize: uint16(MaxRecordSize),
		dirty:    true,
	}
}

func (p *Page) PageID() uint32 { return p.pageID }
func (p *Page) PageType() Type { return p.pageType }
func (p *Page) IsDirty() bool  { return p.dirty }
func (p *Page) SlotCount() int { return len(p.slots) }

// MarkClean is called only by the buffer pool immediately after a
// successful write-back.
func (p *Page) MarkClean() { p.dirty = false }

func (p *Page) SetSiblings(prev, next uint32, hasPrev, hasNext bool) {
	p.prevPage, p.hasPrev = prev, hasPrev
	p.nextPage, p.hasNext = next, hasNext
	p.dirty = true
}

func (p *Page) Siblings() (prev uint32, hasPrev bool, next uint32, hasNext bool) {
	return p.prevPage, p.hasPrev, p.nextPage, p.hasNext
}

// FreeSpaceSize returns the number of bytes available for new slot
// entries plus their record bytes.
func (p *Page) FreeSpaceSize() int { return int(p.freeSize) }

// InsertRecord allocates a new slot at the end of the slot directory
// and copies bytes into the high end of the free region. Record bytes
// of live slots are never overlapped; deleted slots leave holes that
// are not compacted until the page is rewritten whole.
func (p *Page) InsertRecord(record []byte) (SlotID, error) {
	if len(record) > MaxRecordSize {
		return 0, errs.ErrRecordTooLarge
	}
	needed := len(record) + slotEntrySize
	if needed > int(p.freeSize) {
		return 0, errs.ErrInsufficientSpace
	}
	// Bytes freed by DeleteRecord are counted in freeSize but sit in holes
	// below the watermark, so the contiguous gap between the slot
	// directory and the watermark must also fit the record and its entry.
	if needed > MaxRecordSize-p.watermark-len(p.slots)*slotEntrySize {
		return 0, errs.ErrInsufficientSpace
	}

	// Records grow backward from the end of the data region. watermark
	// only ever increases, so a deleted record's bytes are never handed
	// back to a later insert (no compaction, spec.md §4.1).
	newRecordStart := MaxRecordSize - p.watermark - len(record)
	copy(p.data[newRecordStart:newRecordStart+len(record)], record)
	p.watermark += len(record)

	slotID := SlotID(len(p.slots))
	p.slots = append(p.slots, slotEntry{offset: uint16(newRecordStart), length: uint16(len(record))})
	p.tombstone = append(p.tombstone, false)
	p.freeOff += slotEntrySize
	p.freeSize -= uint16(needed)
	p.dirty = true
	return slotID, nil
}

// GetRecord returns the bytes stored at slotID.
func (p *Page) GetRecord(slotID SlotID) ([]byte, error) {
	if !p.validSlot(slotID) {
		return nil, errs.ErrSlotNotFound
	}
	s := p.slots[slotID]
	out := make([]byte, s.length)
	copy(out, p.data[s.offset:s.offset+s.length])
	return out, nil
}

func (p *Page) validSlot(slotID SlotID) bool {
	i := int(slotID)
	return i >= 0 && i < len(p.slots) && !p.tombstone[i]
}

// UpdateRecord replaces the bytes of an existing slot in place. It
// never grows a slot: a record that grew must be deleted and
// re-inserted by the caller.
func (p *Page) UpdateRecord(slotID SlotID, record []byte) error {
	if !p.validSlot(slotID) {
		return errs.ErrSlotNotFound
	}
	s := p.slots[slotID]
	if len(record) > int(s.length) {
		return errs.ErrInsufficientSpace
	}
	// zero any shrinkage so stale bytes never leak into the live region
	for i := range p.data[s.offset : s.offset+s.length] {
		p.data[int(s.offset)+i] = 0
	}
	copy(p.data[s.offset:], record)
	p.slots[slotID].length = uint16(len(record))
	p.dirty = true
	return nil
}

// DeleteRecord marks the slot deleted (GetRecord then fails
// SlotNotFound), zeroes its region, and returns the freed length to the
// free-space counter. The directory entry is kept, so other slot ids do
// not shift and SlotCount is unchanged. The hole left behind is not
// recovered until the page is rewritten whole.
func (p *Page) DeleteRecord(slotID SlotID) error {
	if !p.validSlot(slotID) {
		return errs.ErrSlotNotFound
	}
	s := p.slots[slotID]
	for i := range p.data[s.offset : s.offset+s.length] {
		p.data[int(s.offset)+i] = 0
	}
	p.tombstone[slotID] = true
	p.freeSize += s.length
	p.dirty = true
	return nil
}

// Checksum computes the advisory checksum over the record-data region
// using xxhash, the same hashing primitive the teacher's
// util/hash_utils.go uses for key hashing.
func (p *Page) Checksum() uint64 {
	return xxhash.Checksum64(p.data)
}

// ToBytes serializes header, slot directory, and data region into one
// page-sized buffer. Called under the buffer pool's write path.
func (p *Page) ToBytes() []byte {
	buf := make([]byte, Size)

	binary.LittleEndian.PutUint32(buf[offPageID:], p.pageID)
	buf[offPageType] = byte(p.pageType)
	binary.LittleEndian.PutUint16(buf[offSlotCount:], uint16(len(p.slots)))
	binary.LittleEndian.PutUint16(buf[offFreeSpaceOffset:], p.freeOff)
	binary.LittleEndian.PutUint16(buf[offFreeSpaceSize:], p.freeSize)
	binary.LittleEndian.PutUint64(buf[offChecksum:], p.Checksum())
	if p.hasPrev {
		binary.LittleEndian.PutUint32(buf[offPrevPage:], p.prevPage+1) // 0 reserved for "none"
	}
	if p.hasNext {
		binary.LittleEndian.PutUint32(buf[offNextPage:], p.nextPage+1)
	}

	// The data region spans every byte after the header, slot directory
	// included, so it is copied first and the directory written over it.
	copy(buf[Size-len(p.data):], p.data)
	for i, s := range p.slots {
		off := HeaderSize + i*slotEntrySize
		length := s.length
		if p.tombstone[i] {
			length = tombstoneLength
		}
		binary.LittleEndian.PutUint16(buf[off:], s.offset)
		binary.LittleEndian.PutUint16(buf[off+2:], length)
	}
	return buf
}

// FromBytes parses a page-sized buffer, cross-checking the page id and
// rebuilding the slot directory. It fails InvalidFormat on size, type,
// or id mismatch.
func FromBytes(expectedPageID uint32, buf []byte) (*Page, error) {
	if len(buf) != Size {
		return nil, errors.Wrapf(errs.ErrInvalidFormat, "page size is %d, want %d", len(buf), Size)
	}
	pageID := binary.LittleEndian.Uint32(buf[offPageID:])
	if pageID != expectedPageID {
		return nil, errors.Wrapf(errs.ErrInvalidFormat, "page id mismatch: got %d, want %d", pageID, expectedPageID)
	}
	pageType := Type(buf[offPageType])
	if pageType != Data && pageType != Index && pageType != Meta {
		return nil, errors.Wrapf(errs.ErrInvalidFormat, "unknown page type %d", pageType)
	}

	slotCount := binary.LittleEndian.Uint16(buf[offSlotCount:])
	p := &Page{
		pageID:   pageID,
		pageType: pageType,
		freeOff:  binary.LittleEndian.Uint16(buf[offFreeSpaceOffset:]),
		freeSize: binary.LittleEndian.Uint16(buf[offFreeSpaceSize:]),
		data:     make([]byte, MaxRecordSize),
	}
	if prev := binary.LittleEndian.Uint32(buf[offPrevPage:]); prev != 0 {
		p.prevPage, p.hasPrev = prev-1, true
	}
	if next := binary.LittleEndian.Uint32(buf[offNextPage:]); next != 0 {
		p.nextPage, p.hasNext = next-1, true
	}

	p.slots = make([]slotEntry, slotCount)
	p.tombstone = make([]bool, slotCount)
	for i := uint16(0); i < slotCount; i++ {
		off := HeaderSize + int(i)*slotEntrySize
		entryOff := binary.LittleEndian.Uint16(buf[off:])
		entryLen := binary.LittleEndian.Uint16(buf[off+2:])
		if entryLen == tombstoneLength {
			p.tombstone[i] = true
			entryLen = 0
		}
		p.slots[i] = slotEntry{offset: entryOff, length: entryLen}
		if claimed := MaxRecordSize - int(entryOff); claimed > p.watermark {
			p.watermark = claimed
		}
	}
	// skip the slot directory bytes so the in-memory data region (and its
	// checksum) matches the page that was serialized
	dirEnd := int(slotCount) * slotEntrySize
	copy(p.data[dirEnd:], buf[HeaderSize+dirEnd:])
	p.dirty = false
	return p, nil
}

// VerifyChecksum is an opt-in integrity check (spec.md §4.1: readers MAY
// verify; failure is ChecksumMismatch). FromBytes never calls this
// implicitly.
func (p *Page) VerifyChecksum(storedChecksum uint64) error {
	if p.Checksum() != storedChecksum {
		return errs.ErrChecksumMismatch
	}
	return nil
}

// ChecksumFromBytes extracts the checksum stored in a serialized page's
// header, for use with VerifyChecksum.
func ChecksumFromBytes(buf []byte) uint64 {
	return binary.LittleEndian.Uint64(buf[offChecksum:])
}
