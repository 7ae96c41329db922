package value

import (
	"sync"
	"sync/atomic"

	"github.com/standardbeagle/jsengine/internal/interner"
)

// Attributes packs the W/E/C property flags spec.md §4.5 calls for
// into a single byte, following the bitmask layout original_source/
// (boa-dev/boa) uses for its PropertyDescriptor — see
// SPEC_FULL.md's SUPPLEMENTED FEATURES section.
type Attributes uint8

const (
	AttrWritable     Attributes = 1 << 0
	AttrEnumerable   Attributes = 1 << 1
	AttrConfigurable Attributes = 1 << 2
	// AttrAccessor marks a get/set pair rather than a data slot; it is
	// not one of the three standard attributes but is carried in the
	// same byte since every property needs exactly one bit for it.
	AttrAccessor Attributes = 1 << 3
)

func DefaultDataAttributes() Attributes {
	return AttrWritable | AttrEnumerable | AttrConfigurable
}

func (a Attributes) Writable() bool     { return a&AttrWritable != 0 }
func (a Attributes) Enumerable() bool   { return a&AttrEnumerable != 0 }
func (a Attributes) Configurable() bool { return a&AttrConfigurable != 0 }
func (a Attributes) IsAccessor() bool   { return a&AttrAccessor != 0 }

// PropertyDescriptor is a property's Shape-independent metadata: for a
// data property Get/Set are nil and the value itself is stored in the
// Object's slot array; for an accessor property the value slot is
// unused and Get/Set hold the accessor functions.
type PropertyDescriptor struct {
	Attrs Attributes
	Get   *Object
	Set   *Object
}

func (d PropertyDescriptor) Writable() bool     { return d.Attrs.Writable() }
func (d PropertyDescriptor) Enumerable() bool   { return d.Attrs.Enumerable() }
func (d PropertyDescriptor) Configurable() bool { return d.Attrs.Configurable() }
func (d PropertyDescriptor) IsAccessor() bool   { return d.Attrs.IsAccessor() }

// transitionKey identifies one edge out of a Shape in the transition
// DAG: adding property Name with the given initial Attrs.
type transitionKey struct {
	name  interner.Symbol
	attrs Attributes
}

// Shape is a hidden class: an ordered list of property names each
// mapped to a slot index, shared structurally by every Object that
// has added exactly the same properties in exactly the same order
// (spec.md §4.5). Transitions out of a Shape are cached and bounded so
// a single shape can't accumulate unbounded children from pathological
// dynamic-property code.
type Shape struct {
	parent   *Shape
	propName interner.Symbol // property this shape added over parent; zero for the root
	propDesc PropertyDescriptor
	slot     int // index into Object.slots for propName
	depth    int // number of properties including this one

	mu          sync.Mutex
	transitions map[transitionKey]*Shape

	hits   int64 // atomic: transition-cache hits, exposed for diagnostics
	misses int64 // atomic: transition-cache misses (new shape created)
}

// MaxTransitions is the "shape explosion" guard (spec.md §9): a Shape
// caches at most this many child transitions (further children are
// built but not cached), and an object whose shape is deeper than this
// falls back to dictionary mode.
const MaxTransitions = 255

// RootShape returns a fresh empty shape, the starting point for every
// new ordinary object.
func RootShape() *Shape {
	return &Shape{depth: 0}
}

// Lookup walks the shape chain for name, returning the slot index and
// descriptor if present. This is O(depth); callers needing speed
// should go through an inline cache in internal/vm rather than calling
// this directly on every property access.
func (s *Shape) Lookup(name interner.Symbol) (int, PropertyDescriptor, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.depth == 0 {
			break
		}
		if cur.propName == name {
			return cur.slot, cur.propDesc, true
		}
	}
	return 0, PropertyDescriptor{}, false
}

// Has reports whether name exists anywhere in the shape chain.
func (s *Shape) Has(name interner.Symbol) bool {
	_, _, ok := s.Lookup(name)
	return ok
}

// Depth returns the number of own properties this shape represents.
func (s *Shape) Depth() int { return s.depth }

// IsDictionary reports whether this shape has exceeded MaxTransitions
// and should no longer participate in transition sharing.
func (s *Shape) IsDictionary() bool { return s.depth > MaxTransitions }

// Transition returns the child shape that adds name with attrs on top
// of s, creating and caching it if this is the first time that exact
// edge has been taken. The cache is a plain mutex-guarded map rather
// than sync.Map: transitions are read-mostly per shape but contention
// is local to one shape's occasional new-property event, not a global
// hot path, so the simpler structure wins (see
// internal/cache.PropertyCache for the sync.Map+atomic pattern used
// instead where contention really is global — the inline property
// cache the VM consults).
func (s *Shape) Transition(name interner.Symbol, attrs Attributes) *Shape {
	key := transitionKey{name: name, attrs: attrs}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.transitions == nil {
		s.transitions = make(map[transitionKey]*Shape, 4)
	}
	if child, ok := s.transitions[key]; ok {
		atomic.AddInt64(&s.hits, 1)
		return child
	}
	atomic.AddInt64(&s.misses, 1)
	child := &Shape{
		parent:   s,
		propName: name,
		propDesc: PropertyDescriptor{Attrs: attrs},
		slot:     s.depth,
		depth:    s.depth + 1,
	}
	if len(s.transitions) < MaxTransitions {
		s.transitions[key] = child
	}
	return child
}

// Stats reports this shape's transition-cache hit/miss counters, for
// the engine's optional diagnostics surface.
func (s *Shape) Stats() (hits, misses int64) {
	return atomic.LoadInt64(&s.hits), atomic.LoadInt64(&s.misses)
}

// OwnPropertyNames returns property names in insertion order, walking
// the parent chain from the root down.
func (s *Shape) OwnPropertyNames() []interner.Symbol {
	names := make([]interner.Symbol, s.depth)
	for cur := s; cur != nil && cur.depth > 0; cur = cur.parent {
		names[cur.depth-1] = cur.propName
	}
	return names
}
