// Package config holds the plain, in-memory configuration struct the
// storage core is constructed from. File/flag parsing is a concern of
// whatever embeds this core (spec.md §1 names configuration parsing as
// an external collaborator), so this package carries no parser: callers
// build an EngineConfig by hand and pass it to constructors.
//
// Grounded on the teacher's server/innodb/buffer_pool/buffer_pool.go
// BufferPoolConfig, a plain struct threaded into NewBufferPool rather
// than something the buffer pool loads from disk itself.
package config

import "github.com/minidb/core/internal/buffer"

// ReplacementPolicyKind selects which buffer-pool eviction policy an
// EngineConfig wires up.
type ReplacementPolicyKind int

const (
	LRU ReplacementPolicyKind = iota
	Clock
	LFU
)

// EngineConfig is the full set of knobs needed to stand up a storage
// core: a base directory for database files, a buffer pool capacity,
// and which eviction policy backs it.
type EngineConfig struct {
	BaseDir            string
	BufferPoolCapacity int
	ReplacementPolicy  ReplacementPolicyKind
}

// DefaultEngineConfig returns reasonable teaching-scale defaults: a
// small buffer pool and LRU eviction.
func DefaultEngineConfig(baseDir string) EngineConfig {
	return EngineConfig{
		BaseDir:            baseDir,
		BufferPoolCapacity: 64,
		ReplacementPolicy:  LRU,
	}
}

// NewReplacementPolicy builds the buffer.ReplacementPolicy named by the
// config's ReplacementPolicy field.
func (c EngineConfig) NewReplacementPolicy() buffer.ReplacementPolicy {
	switch c.ReplacementPolicy {
	case Clock:
		return buffer.NewClockPolicy()
	case LFU:
		return buffer.NewLFUPolicy()
	default:
		return buffer.NewLRUPolicy()
	}
}
