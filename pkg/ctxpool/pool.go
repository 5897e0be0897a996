// Package ctxpool keeps a small set of reusable analysis contexts per
// document, ordered by how recently each one was reparsed.
//
// Keeping more than one context per document lets a worker refresh the
// stalest copy while an interactive query reads the freshest one.
package ctxpool

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"
)

// ErrExhausted indicates every context of a pool is checked out.
var ErrExhausted = errors.New("no analysis context available")

// Clock hands out parse stamps. Pools sharing a Clock order their stamps
// globally.
type Clock struct {
	last atomic.Uint64
}

// Next returns a stamp greater than every stamp returned before.
func (c *Clock) Next() uint64 {
	return c.last.Add(1)
}

// Handle is one pooled context. While checked out it belongs to the caller
// and may be rebuilt in place.
type Handle[H any] struct {
	Value H

	path  string
	args  []string
	stamp uint64
	built bool
}

// Stamp returns the parse stamp of the last reparse, 0 if never parsed.
func (h *Handle[H]) Stamp() uint64 {
	return h.stamp
}

// Built reports whether the handle holds a constructed value.
func (h *Handle[H]) Built() bool {
	return h.built
}

// Rebuild stores a freshly constructed value for path and args.
func (h *Handle[H]) Rebuild(value H, path string, args []string) {
	h.Value = value
	h.path = path
	h.args = slices.Clone(args)
	h.built = true
}

// Reset forgets the value, its path and arguments, and the stamp. The caller
// releases the old value first.
func (h *Handle[H]) Reset() {
	var zero H
	h.Value = zero
	h.path = ""
	h.args = nil
	h.stamp = 0
	h.built = false
}

// Pool holds the contexts of one document.
type Pool[H any] struct {
	mu      sync.Mutex
	clock   *Clock
	entries []*Handle[H]
	size    int
	closed  bool
}

// New returns a pool of size empty handles. A nil clock gives the pool a
// private one.
func New[H any](clock *Clock, size int) *Pool[H] {
	if clock == nil {
		clock = &Clock{}
	}
	size = max(size, 1)
	p := &Pool[H]{clock: clock, size: size, entries: make([]*Handle[H], 0, size)}
	for range size {
		p.entries = append(p.entries, &Handle[H]{})
	}
	return p
}

// Size returns the number of handles the pool owns, pooled or checked out.
func (p *Pool[H]) Size() int {
	return p.size
}

// Available returns the number of pooled handles.
func (p *Pool[H]) Available() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// TakeLeastUpToDate removes and returns the handle with the smallest stamp.
// It reports false when every handle is checked out.
func (p *Pool[H]) TakeLeastUpToDate() (*Handle[H], bool) {
	return p.take(func(a, b *Handle[H]) bool { return a.stamp < b.stamp })
}

// TakeMostUpToDate removes and returns the handle with the largest stamp.
func (p *Pool[H]) TakeMostUpToDate() (*Handle[H], bool) {
	return p.take(func(a, b *Handle[H]) bool { return a.stamp > b.stamp })
}

func (p *Pool[H]) take(better func(a, b *Handle[H]) bool) (*Handle[H], bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || len(p.entries) == 0 {
		return nil, false
	}
	best := 0
	for i := 1; i < len(p.entries); i++ {
		if better(p.entries[i], p.entries[best]) {
			best = i
		}
	}
	h := p.entries[best]
	p.entries = slices.Delete(p.entries, best, best+1)
	return h, true
}

// Put returns h to the pool. A reparsed handle gets a new stamp. Put reports
// false if the pool was closed meanwhile; the handle is then dropped and its
// value is the caller's to release.
func (p *Pool[H]) Put(h *Handle[H], wasReparsed bool) bool {
	if h == nil {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if wasReparsed {
		h.stamp = p.clock.Next()
	}
	if p.closed {
		return false
	}
	p.entries = append(p.entries, h)
	return true
}

// Discard empties h and returns it to the pool, so the next taker builds a
// new context from scratch. The caller releases the old value first.
func (p *Pool[H]) Discard(h *Handle[H]) {
	if h == nil {
		return
	}
	h.Reset()
	p.Put(h, false)
}

// CanBeReused reports whether h was built for exactly path and args. Anything
// else calls for a full rebuild instead of an incremental reparse.
func (p *Pool[H]) CanBeReused(h *Handle[H], path string, args []string) bool {
	return h != nil && h.built && h.path == path && slices.Equal(h.args, args)
}

// Close empties the pool and returns the values of the pooled handles that
// were built, for the caller to release. Handles checked out at the time are
// dropped when they are put back.
func (p *Pool[H]) Close() []H {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	var out []H
	for _, h := range p.entries {
		if h.built {
			out = append(out, h.Value)
		}
	}
	p.entries = nil
	return out
}
