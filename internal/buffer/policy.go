// Package buffer implements spec.md §4.3: a BufferPool mapping
// (file, page id) to a pinned frame, backed by a pluggable replacement
// policy.
//
// Grounded on the teacher's server/innodb/buffer_pool/buffer_lru.go
// (container/list-based recency tracking) generalized from InnoDB's
// young/old sublist scheme into the plain LRU/CLOCK/LFU policies
// spec.md §4.3 calls for.
package buffer

// FrameID identifies a slot in the buffer pool's frame array.
type FrameID int

// ReplacementPolicy observes access and eviction-candidate requests for
// frames. It must never select a frame the buffer pool reports as
// pinned; the pool asks for candidates in priority order until it finds
// one that is actually evictable.
type ReplacementPolicy interface {
	// Track registers a frame as participating in replacement decisions.
	Track(id FrameID)
	// Untrack removes a frame from consideration (e.g. once cleared).
	Untrack(id FrameID)
	// RecordAccess marks a frame as freshly accessed (fetch hit or
	// newly installed page).
	RecordAccess(id FrameID)
	// Candidates returns tracked frames in eviction priority order
	// (most evictable first). The pool skips any that are pinned.
	Candidates() []FrameID
}
