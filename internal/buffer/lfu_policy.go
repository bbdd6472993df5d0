package buffer

import "sync"

// LFUPolicy evicts the least frequently accessed frame first. Ties
// break by insertion order (the frame tracked earliest wins),
// which keeps Candidates deterministic for tests.
type LFUPolicy struct {
	mu     sync.Mutex
	order  []FrameID
	counts map[FrameID]uint64
}

func NewLFUPolicy() *LFUPolicy {
	return &LFUPolicy{counts: make(map[FrameID]uint64)}
}

func (p *LFUPolicy) Track(id FrameID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.counts[id]; ok {
		return
	}
	p.order = append(p.order, id)
	p.counts[id] = 0
}

func (p *LFUPolicy) Untrack(id FrameID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.counts[id]; !ok {
		return
	}
	delete(p.counts, id)
	for i, f := range p.order {
		if f == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
}

func (p *LFUPolicy) RecordAccess(id FrameID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, ok := p.counts[id]; ok {
		p.counts[id]++
	}
}

func (p *LFUPolicy) Candidates() []FrameID {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := append([]FrameID(nil), p.order...)
	// stable insertion-order sort by count, ascending
	for i := 1; i < len(out); i++ {
		j := i
		for j > 0 && p.counts[out[j-1]] > p.counts[out[j]] {
			out[j-1], out[j] = out[j], out[j-1]
			j--
		}
	}
	return out
}
