// Package gc implements the engine's tracing garbage collector, per
// spec.md §4.6.
//
// The host runtime (Go) already garbage-collects the memory behind
// every *Cell, but ECMAScript needs collection semantics Go's own GC
// does not give us for free: ephemeron-correct WeakMap/WeakSet
// (Go's weak package gives one-sided weak pointers, not ephemeron
// pairs), deterministic finalizer ordering, and a heap the embedder
// can explicitly trigger/measure (the `gc()` host hook spec.md §8's
// weak-map-eviction scenario exercises). So this package builds its
// own mark-and-sweep bookkeeping on top of ordinary Go pointers rather
// than leaning on runtime.AddCleanup: every engine-allocated cell is
// wrapped in a *Cell and registered with a Heap; the Heap is the only
// thing that decides what is reachable.
package gc

import "sync"

// Traceable is implemented by every GC-managed payload: objects,
// closures, environments, generator frames. Trace must call visit on
// every Cell the payload directly holds a strong reference to.
type Traceable interface {
	Trace(visit func(*Cell))
}

// Cell is the header+payload pair every heap value lives inside
// (spec.md §3 "GC-allocated cell").
type Cell struct {
	marked    bool
	weakRefs  int32
	finalizer func()
	payload   Traceable
	freed     bool
}

// Payload returns the value held by this cell.
func (c *Cell) Payload() Traceable { return c.payload }

// SetFinalizer installs f to run once, immediately before this cell is
// swept. Per spec.md §4.6, f must not allocate new cells or resurrect
// references into the heap; Heap.Sweep asserts this by refusing new
// allocations while finalizers run.
func (c *Cell) SetFinalizer(f func()) { c.finalizer = f }

// Handle is a reference to a Cell. The "rooted" flag spec.md describes
// as packed into a pointer's low bit is kept as an explicit field
// instead: stealing bits out of a live Go pointer would make it
// invisible to Go's own collector, which is unacceptable since Go's
// GC is still what actually reclaims the backing memory. A rooted
// Handle anchors its Cell across collections; Handles embedded inside
// a Traceable's fields should generally be unrooted (cleared via
// Unroot) since the owning structure's Trace method is what keeps
// them alive instead.
type Handle struct {
	cell   *Cell
	rooted bool
}

// NilHandle is the zero Handle, referencing no cell.
var NilHandle = Handle{}

func (h Handle) IsNil() bool    { return h.cell == nil }
func (h Handle) Cell() *Cell    { return h.cell }
func (h Handle) IsRooted() bool { return h.rooted }

// Root returns a copy of h with the rooted flag set, incrementing the
// heap's root set membership for this cell.
func (h Handle) Root() Handle {
	h.rooted = true
	return h
}

// Unroot returns a copy of h with the rooted flag cleared. Call this
// once a Handle has been stored into a heap-resident structure whose
// Trace method will reach the cell instead (spec.md §4.6's
// rooted-bit discipline).
func (h Handle) Unroot() Handle {
	h.rooted = false
	return h
}

// WeakHandle holds a Cell without marking it; the ephemeron and
// WeakMap/WeakSet machinery build on this.
type WeakHandle struct {
	cell *Cell
}

func (w WeakHandle) IsNil() bool { return w.cell == nil }

// Get returns the referenced Cell and true, or (nil, false) if the
// cell has been collected.
func (w WeakHandle) Get() (*Cell, bool) {
	if w.cell == nil || w.cell.freed {
		return nil, false
	}
	return w.cell, true
}

// Ephemeron is a (key, value) pair where value is kept alive only as
// long as key is alive, per spec.md §4.6. The Heap resolves these to
// a fixed point during the weak phase of each collection.
type Ephemeron struct {
	Key   WeakHandle
	Value Handle // may itself be rooted==false; the Heap marks it directly when Key is alive
}

// RootProvider is implemented by anything the Heap should treat as an
// additional, external source of roots beyond the registered rooted
// Handles — e.g. the active CallFrame stack and the global
// Environment (spec.md §4.6 "Roots").
type RootProvider interface {
	GCRoots(visit func(*Cell))
}

// Heap owns every Cell the engine allocates and performs stop-the-
// world mark-and-sweep collection. One Heap per Context; Contexts
// never share a Heap (spec.md §5 "a multi-threaded embedder must give
// each thread its own engine").
type Heap struct {
	mu sync.Mutex

	cells      []*Cell
	roots      map[*Cell]int // rooted-handle refcount per cell
	ephemerons []Ephemeron
	providers  []RootProvider

	allocating bool // guards against finalizers resurrecting cells

	stats Stats
}

// Stats exposes collector counters for the embedder's diagnostics
// surface.
type Stats struct {
	Collections int64
	LiveCells   int64
	LastFreed   int64
}

func NewHeap() *Heap {
	return &Heap{roots: make(map[*Cell]int)}
}

// AddRootProvider registers an additional root source, consulted on
// every collection. Typically the VM registers its CallFrame stack
// and the global Environment once at Context construction.
func (h *Heap) AddRootProvider(p RootProvider) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.providers = append(h.providers, p)
}

// Alloc wraps payload in a new rooted Handle tracked by this heap.
func (h *Heap) Alloc(payload Traceable) Handle {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.allocating {
		panic("gc: allocation attempted during finalization")
	}
	c := &Cell{payload: payload}
	h.cells = append(h.cells, c)
	h.roots[c]++
	return Handle{cell: c, rooted: true}
}

// RootHandle increments the root refcount for h's cell (used when
// cloning a rooted Handle onto the Go call stack, mirroring spec.md
// §4.5's "Clone increments a reference into the root set").
func (h *Heap) RootHandle(handle Handle) Handle {
	if handle.cell == nil {
		return handle
	}
	h.mu.Lock()
	h.roots[handle.cell]++
	h.mu.Unlock()
	return handle.Root()
}

// Release drops one rooted reference to handle's cell. Call this when
// a rooted Handle goes out of scope (e.g. a VM register slot is
// reused) or has been moved into a heap-resident structure. The
// handle's own rooted flag is not consulted, so Release(h.Unroot())
// drops the root that Alloc or RootHandle added.
func (h *Heap) Release(handle Handle) {
	if handle.cell == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if n := h.roots[handle.cell]; n > 1 {
		h.roots[handle.cell] = n - 1
	} else {
		delete(h.roots, handle.cell)
	}
}

// NewWeak creates a WeakHandle to a cell already tracked by this heap.
func (h *Heap) NewWeak(handle Handle) WeakHandle {
	if handle.cell == nil {
		return WeakHandle{}
	}
	h.mu.Lock()
	handle.cell.weakRefs++
	h.mu.Unlock()
	return WeakHandle{cell: handle.cell}
}

// AddEphemeron registers an ephemeron pair. The WeakMap and WeakSet
// built-ins do not register ephemerons here; they keep their own Go map.
func (h *Heap) AddEphemeron(key WeakHandle, value Handle) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ephemerons = append(h.ephemerons, Ephemeron{Key: key, Value: value})
}

// RemoveEphemeronsForKey drops every ephemeron whose key matches cell.
func (h *Heap) RemoveEphemeronsForKey(cell *Cell) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := h.ephemerons[:0]
	for _, e := range h.ephemerons {
		if c, ok := e.Key.Get(); ok && c == cell {
			continue
		}
		out = append(out, e)
	}
	h.ephemerons = out
}

// Collect runs one full mark-and-sweep cycle: strong mark from roots,
// then iterate ephemerons to a fixed point, then sweep (spec.md §4.6).
func (h *Heap) Collect() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.cells {
		c.marked = false
	}

	marked := make(map[*Cell]bool, len(h.cells))
	var visit func(c *Cell)
	visit = func(c *Cell) {
		if c == nil || c.marked {
			return
		}
		c.marked = true
		marked[c] = true
		if c.payload != nil {
			c.payload.Trace(visit)
		}
	}

	for c := range h.roots {
		visit(c)
	}
	for _, p := range h.providers {
		p.GCRoots(visit)
	}

	// Weak phase: iterate ephemerons until no new value becomes
	// reachable, giving WeakMap/WeakSet correct liveness (spec.md
	// §4.6 "mark value only if key_weak is found alive").
	for {
		progressed := false
		for _, e := range h.ephemerons {
			keyCell, ok := e.Key.Get()
			if !ok || !keyCell.marked {
				continue
			}
			if e.Value.cell != nil && !e.Value.cell.marked {
				visit(e.Value.cell)
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}

	h.allocating = true
	live := h.cells[:0]
	var freed int64
	for _, c := range h.cells {
		if c.marked {
			live = append(live, c)
			continue
		}
		if c.finalizer != nil {
			c.finalizer()
		}
		c.freed = true
		freed++
	}
	h.cells = live
	h.allocating = false

	out := h.ephemerons[:0]
	for _, e := range h.ephemerons {
		if _, ok := e.Key.Get(); ok {
			out = append(out, e)
		}
	}
	h.ephemerons = out

	h.stats.Collections++
	h.stats.LiveCells = int64(len(h.cells))
	h.stats.LastFreed = freed
	return h.stats
}

// LiveCount reports the number of cells currently tracked, without
// triggering a collection.
func (h *Heap) LiveCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.cells)
}
