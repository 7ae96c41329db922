// Package interner provides the engine's string-to-Symbol table.
//
// Every identifier, property key, and keyword the lexer produces is
// interned once; every later stage (parser, compiler, VM) carries the
// cheap Symbol instead of copying the string. Two symbols compare
// equal iff their backing strings are equal.
package interner

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Symbol is an opaque, non-zero integer identifying a previously
// interned string. The zero value is reserved and never returned by
// Intern; it is used by callers as a "no symbol" sentinel.
type Symbol uint32

// String looks the symbol back up in the default table. Prefer
// (*Interner).Lookup when a specific table is in scope; this is a
// convenience for debug printing.
func (s Symbol) String() string {
	if s == 0 {
		return "<nil-symbol>"
	}
	return defaultTable().Lookup(s)
}

// Interner is a Context-owned string table. It is not safe to share
// Symbols minted by one Interner with another: symbol values are only
// meaningful relative to the table that produced them.
type Interner struct {
	mu      sync.RWMutex
	byHash  map[uint64][]Symbol
	strings []string // index 0 unused, Symbol(i) -> strings[i]
}

// New creates an empty Interner seeded with wellKnownStrings (common
// binding and property names; no punctuators) so hot bindings like
// "this", "length", and "prototype" land on small, stable symbol numbers.
func New() *Interner {
	in := &Interner{
		byHash:  make(map[uint64][]Symbol, 256),
		strings: make([]string, 1, 512),
	}
	for _, kw := range wellKnownStrings {
		in.Intern(kw)
	}
	return in
}

// Intern returns the Symbol for s, allocating a new one if s has not
// been seen by this table before.
func (in *Interner) Intern(s string) Symbol {
	h := xxhash.Sum64String(s)

	in.mu.RLock()
	if sym, ok := in.find(h, s); ok {
		in.mu.RUnlock()
		return sym
	}
	in.mu.RUnlock()

	in.mu.Lock()
	defer in.mu.Unlock()
	// Re-check: another goroutine may have interned s while we waited
	// for the write lock. The engine itself is single-threaded, but an
	// embedder may intern host identifiers from a worker goroutine
	// between eval() calls.
	if sym, ok := in.find(h, s); ok {
		return sym
	}

	sym := Symbol(len(in.strings))
	in.strings = append(in.strings, s)
	in.byHash[h] = append(in.byHash[h], sym)
	return sym
}

func (in *Interner) find(h uint64, s string) (Symbol, bool) {
	for _, sym := range in.byHash[h] {
		if in.strings[sym] == s {
			return sym, true
		}
	}
	return 0, false
}

// Lookup returns the string backing sym, or "" if sym is not known to
// this table (including the zero Symbol).
func (in *Interner) Lookup(sym Symbol) string {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if int(sym) <= 0 || int(sym) >= len(in.strings) {
		return ""
	}
	return in.strings[sym]
}

// Len reports how many distinct strings are interned, including the
// reserved zero slot.
func (in *Interner) Len() int {
	in.mu.RLock()
	defer in.mu.RUnlock()
	return len(in.strings)
}

var (
	defaultOnce  sync.Once
	defaultTab   *Interner
)

func defaultTable() *Interner {
	defaultOnce.Do(func() { defaultTab = New() })
	return defaultTab
}

// wellKnownStrings primes low, stable symbol numbers for identifiers
// the VM and object model compare against on every property access.
var wellKnownStrings = []string{
	"this", "arguments", "prototype", "constructor", "length", "name",
	"message", "stack", "value", "writable", "enumerable", "configurable",
	"get", "set", "undefined", "null", "true", "false",
	"Symbol.iterator", "Symbol.asyncIterator", "done", "next", "return",
}

// Well-known symbols every Interner built via New assigns the same
// low, stable id to, since New primes wellKnownStrings in this fixed
// order before any other Intern call. The VM and object model use
// these constants instead of re-interning the strings on every
// property access.
const (
	SymThis Symbol = iota + 1
	SymArguments
	SymPrototype
	SymConstructor
	SymLength
	SymName
	SymMessage
	SymStack
	SymValue
	SymWritable
	SymEnumerable
	SymConfigurable
	SymGet
	SymSet
	SymUndefined
	SymNull
	SymTrue
	SymFalse
	SymIteratorKey
	SymAsyncIteratorKey
	SymDone
	SymNext
	SymReturnKey
)
