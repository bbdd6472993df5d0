// Package table implements spec.md §4.5: a Table coordinates one
// primary index and zero or more named secondary indices over a single
// schema, projecting each inserted tuple into each index's own key.
//
// Grounded on the teacher's basic/index.go (an index is addressed by
// name and owns its own lookup cost/contract) and on
// original_source/src/engine/table.rs for the primary+secondary index
// coordination shape; this package only coordinates index.Index values,
// it does not itself store tuples (that remains the caller's page/file
// layer via the RecordID each index entry carries).
package table

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/minidb/core/internal/errs"
	"github.com/minidb/core/internal/index"
	"github.com/minidb/core/internal/types"
)

// IndexKind selects which Index implementation backs a named index.
type IndexKind int

const (
	Ordered IndexKind = iota
	Hash
)

// IndexMetadata describes one of a table's indices: which columns its
// key is projected from, and what kind of structure backs it.
type IndexMetadata struct {
	Name    string
	Columns []int
	Kind    IndexKind
}

type namedIndex struct {
	meta IndexMetadata
	idx  index.Index
}

// Table coordinates a schema's primary index plus any number of named
// secondary indices. All index mutation is non-atomic across indices:
// see InsertWithIndices.
type Table struct {
	mu sync.RWMutex

	schema    *types.Schema
	primary   *namedIndex
	secondary map[string]*namedIndex
	// secondaryOrder records registration order: InsertWithIndices and
	// DeleteFromIndices fan out to secondary indices in this order, since
	// both are non-atomic and callers reasoning about a partial failure
	// need a reproducible order (spec.md §4.5).
	secondaryOrder []string
}

// NewTable declares a table over schema with no indices yet created.
func NewTable(schema *types.Schema) *Table {
	return &Table{schema: schema, secondary: make(map[string]*namedIndex)}
}

func (t *Table) keyTypes(columns []int) []index.KeySpec {
	kt := make([]index.KeySpec, len(columns))
	for i, c := range columns {
		col := t.schema.Columns[c]
		kt[i] = index.KeySpec{Kind: col.DataType, MaxLen: col.MaxLen}
	}
	return kt
}

func newIndexOf(kind IndexKind, keyTypes []index.KeySpec) index.Index {
	if kind == Hash {
		return index.NewHashIndex(keyTypes)
	}
	return index.NewOrderedIndex(keyTypes)
}

// CreatePrimaryIndex installs the table's primary index, projected from
// the given column positions. If columns is nil, the schema's declared
// primary-key column list (Schema.PrimaryKeyIdx) is used instead. A
// table may have exactly one primary index; calling this twice returns
// ErrAlreadyExists.
func (t *Table) CreatePrimaryIndex(kind IndexKind, columns []int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.primary != nil {
		return errs.ErrAlreadyExists
	}
	if columns == nil {
		columns = t.schema.PrimaryKeyIdx
	}
	if len(columns) == 0 {
		return errs.ErrInvalidIndexDefinition
	}
	t.primary = &namedIndex{
		meta: IndexMetadata{Name: "PRIMARY", Columns: columns, Kind: kind},
		idx:  newIndexOf(kind, t.keyTypes(columns)),
	}
	return nil
}

// CreateIndex installs a named secondary index projected from columns.
func (t *Table) CreateIndex(name string, kind IndexKind, columns []int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if name == "PRIMARY" {
		return errs.ErrIndexAlreadyExists
	}
	if _, ok := t.secondary[name]; ok {
		return errs.ErrIndexAlreadyExists
	}
	t.secondary[name] = &namedIndex{
		meta: IndexMetadata{Name: name, Columns: columns, Kind: kind},
		idx:  newIndexOf(kind, t.keyTypes(columns)),
	}
	t.secondaryOrder = append(t.secondaryOrder, name)
	return nil
}

// DropIndex removes a secondary index by name. The primary index
// cannot be dropped.
func (t *Table) DropIndex(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if name == "PRIMARY" {
		return errs.ErrInvalidFormat
	}
	if _, ok := t.secondary[name]; !ok {
		return errs.ErrIndexNotFound
	}
	delete(t.secondary, name)
	for i, n := range t.secondaryOrder {
		if n == name {
			t.secondaryOrder = append(t.secondaryOrder[:i], t.secondaryOrder[i+1:]...)
			break
		}
	}
	return nil
}

// GetIndex returns the named index ("PRIMARY" for the primary index).
func (t *Table) GetIndex(name string) (index.Index, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if name == "PRIMARY" {
		if t.primary == nil {
			return nil, false
		}
		return t.primary.idx, true
	}
	ni, ok := t.secondary[name]
	if !ok {
		return nil, false
	}
	return ni.idx, true
}

// GetIndexMetadata returns the named index's column/kind metadata.
func (t *Table) GetIndexMetadata(name string) (IndexMetadata, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if name == "PRIMARY" {
		if t.primary == nil {
			return IndexMetadata{}, false
		}
		return t.primary.meta, true
	}
	ni, ok := t.secondary[name]
	if !ok {
		return IndexMetadata{}, false
	}
	return ni.meta, true
}

// ListIndices returns every index name, "PRIMARY" first if present,
// followed by secondary indices in registration order.
func (t *Table) ListIndices() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	names := make([]string, 0, len(t.secondaryOrder)+1)
	if t.primary != nil {
		names = append(names, "PRIMARY")
	}
	names = append(names, t.secondaryOrder...)
	return names
}

func keyFor(tuple types.Tuple, meta IndexMetadata) index.IndexKey {
	return index.IndexKey{Values: tuple.Project(meta.Columns)}
}

// InsertWithIndices projects tuple into the primary index and every
// secondary index in turn, inserting rid into each.
//
// This is deliberately non-atomic: if a secondary index insert fails
// (most commonly a duplicate key on a unique secondary index) after the
// primary and some earlier secondaries already succeeded, those earlier
// insertions are left in place. The caller gets the first error and is
// responsible for any compensating Delete calls it wants to issue.
func (t *Table) InsertWithIndices(tuple types.Tuple, rid index.RecordID) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.primary == nil {
		return errs.ErrIndexNotFound
	}
	if err := t.primary.idx.Insert(keyFor(tuple, t.primary.meta), rid); err != nil {
		return errors.Wrap(err, "table: insert into PRIMARY")
	}
	for _, name := range t.secondaryOrder {
		ni := t.secondary[name]
		if err := ni.idx.Insert(keyFor(tuple, ni.meta), rid); err != nil {
			return errors.Wrapf(err, "table: insert into %s", name)
		}
	}
	return nil
}

// DeleteFromIndices removes tuple's projected key from the primary
// index and every secondary index. Like InsertWithIndices this is
// non-atomic: a failure partway through leaves earlier deletions
// applied and later indices untouched.
func (t *Table) DeleteFromIndices(tuple types.Tuple) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.primary == nil {
		return errs.ErrIndexNotFound
	}
	if _, err := t.primary.idx.Delete(keyFor(tuple, t.primary.meta)); err != nil {
		return errors.Wrap(err, "table: delete from PRIMARY")
	}
	for _, name := range t.secondaryOrder {
		ni := t.secondary[name]
		if _, err := ni.idx.Delete(keyFor(tuple, ni.meta)); err != nil {
			return errors.Wrapf(err, "table: delete from %s", name)
		}
	}
	return nil
}
