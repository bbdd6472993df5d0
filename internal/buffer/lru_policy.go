package buffer

import (
	"container/list"
	"sync"
)

// LRUPolicy evicts the least recently accessed frame first, using the
// same container/list recency structure as the teacher's LRUCacheImpl.
type LRUPolicy struct {
	mu   sync.Mutex
	lru  *list.List
	elem map[FrameID]*list.Element
}

func NewLRUPolicy() *LRUPolicy {
	return &LRUPolicy{lru: list.New(), elem: make(map[FrameID]*list.Element)}
}

func (p *LRUPolicy) Track(id FrameID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.elem[id]; ok {
		return
	}
	p.elem[id] = p.lru.PushFront(id)
}

func (p *LRUPolicy) Untrack(id FrameID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.elem[id]; ok {
		p.lru.Remove(e)
		delete(p.elem, id)
	}
}

func (p *LRUPolicy) RecordAccess(id FrameID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.elem[id]; ok {
		p.lru.MoveToFront(e)
	}
}

// Candidates returns frames oldest-accessed first (back of the list).
func (p *LRUPolicy) Candidates() []FrameID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]FrameID, 0, p.lru.Len())
	for e := p.lru.Back(); e != nil; e = e.Prev() {
		out = append(out, e.Value.(FrameID))
	}
	return out
}
