// Package cache provides the VM's inline property-lookup cache: a
// lock-free, sync.Map-backed table mapping a property-access callsite
// plus the Shape it last saw to the Object slot the property lives in,
// so OpGetProperty/OpSetProperty can skip Shape.Lookup's O(depth) walk
// on the hot path (spec.md §9 "dense opcode space" / §4.5 inline
// caching note; see internal/value/shape.go's own comment pointing
// here for the pattern this package follows).
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/standardbeagle/jsengine/internal/bytecode"
	"github.com/standardbeagle/jsengine/internal/value"
)

// DefaultMaxSites bounds how many distinct callsites this cache will
// track before new sites simply go uncached (the slow Shape.Lookup
// path still works; a lookup cache is a speedup, never a dependency).
const DefaultMaxSites = 4096

// Site identifies one property-access instruction: the CodeBlock that
// owns it plus the byte offset the Op lives at. Two calls to the same
// function share one Site across every invocation's frames.
type Site struct {
	Code *bytecode.CodeBlock
	PC   uint32
}

// Entry is what a Site resolves to: the Shape the cache was primed
// against and the slot that held the property under that Shape. A
// lookup is a hit only when the Object's current Shape is still
// exactly this one — any transition invalidates the entry implicitly,
// no notification required.
type Entry struct {
	Shape *value.Shape
	Slot  int
}

// PropertyCache is the VM's single shared inline cache: one instance
// per Machine, read from and written to by every CallFrame's property
// opcodes without explicit locking (sync.Map carries its own).
type PropertyCache struct {
	sites      sync.Map // map[Site]*atomic.Pointer[Entry]
	maxEntries int
	count      int64

	hits      int64
	misses    int64
	evictions int64
}

func NewPropertyCache(maxEntries int) *PropertyCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxSites
	}
	return &PropertyCache{maxEntries: maxEntries}
}

// Lookup returns the cached slot for site if the cache was last
// primed with exactly this shape.
func (c *PropertyCache) Lookup(site Site, shape *value.Shape) (int, bool) {
	v, ok := c.sites.Load(site)
	if !ok {
		atomic.AddInt64(&c.misses, 1)
		return 0, false
	}
	box := v.(*atomic.Pointer[Entry])
	e := box.Load()
	if e == nil || e.Shape != shape {
		atomic.AddInt64(&c.misses, 1)
		return 0, false
	}
	atomic.AddInt64(&c.hits, 1)
	return e.Slot, true
}

// Store primes site with shape/slot, overwriting whatever Shape it
// held before (a monomorphic cache: the common case in real code is
// one shape per callsite, so the last write simply wins rather than
// tracking a polymorphic chain).
func (c *PropertyCache) Store(site Site, shape *value.Shape, slot int) {
	v, loaded := c.sites.LoadOrStore(site, &atomic.Pointer[Entry]{})
	box := v.(*atomic.Pointer[Entry])
	box.Store(&Entry{Shape: shape, Slot: slot})
	if loaded {
		return
	}
	if atomic.AddInt64(&c.count, 1) > int64(c.maxEntries) {
		// Over budget: drop this brand-new entry immediately rather
		// than scanning for something to evict. The next access at
		// this site just misses and falls back to Shape.Lookup.
		c.sites.Delete(site)
		atomic.AddInt64(&c.count, -1)
		atomic.AddInt64(&c.evictions, 1)
	}
}

// Invalidate drops the cached entry for one site, for code paths that
// know the Shape that site was primed with can no longer be trusted
// (it does not search for other sites primed with the same Shape; none currently
// call this; it's exposed for the builtin layer's Object.defineProperty
// path, which can force dictionary mode out from under a cached Shape).
func (c *PropertyCache) Invalidate(site Site) {
	c.sites.Delete(site)
}

// Stats reports cache hit/miss/eviction counters for the embedder's
// diagnostics surface.
func (c *PropertyCache) Stats() (hits, misses, evictions int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses), atomic.LoadInt64(&c.evictions)
}
