package cache

import (
	"sync"
	"testing"

	"github.com/standardbeagle/jsengine/internal/bytecode"
	"github.com/standardbeagle/jsengine/internal/value"
)

func TestPropertyCache_MissThenHit(t *testing.T) {
	c := NewPropertyCache(0)
	code := &bytecode.CodeBlock{}
	site := Site{Code: code, PC: 7}
	shape := value.RootShape().Transition(1, value.DefaultDataAttributes())

	if _, ok := c.Lookup(site, shape); ok {
		t.Fatal("expected miss on an unprimed site")
	}
	c.Store(site, shape, 0)
	slot, ok := c.Lookup(site, shape)
	if !ok || slot != 0 {
		t.Fatalf("expected hit at slot 0, got slot=%d ok=%v", slot, ok)
	}

	hits, misses, _ := c.Stats()
	if hits != 1 || misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got hits=%d misses=%d", hits, misses)
	}
}

func TestPropertyCache_ShapeChangeInvalidates(t *testing.T) {
	c := NewPropertyCache(0)
	code := &bytecode.CodeBlock{}
	site := Site{Code: code, PC: 3}
	shapeA := value.RootShape().Transition(1, value.DefaultDataAttributes())
	shapeB := value.RootShape().Transition(2, value.DefaultDataAttributes())

	c.Store(site, shapeA, 0)
	if _, ok := c.Lookup(site, shapeB); ok {
		t.Fatal("a different Shape at the same site must not hit the stale entry")
	}
}

func TestPropertyCache_OverBudgetEntriesStayUncached(t *testing.T) {
	c := NewPropertyCache(2)
	code := &bytecode.CodeBlock{}
	shape := value.RootShape().Transition(1, value.DefaultDataAttributes())

	for i := uint32(0); i < 8; i++ {
		c.Store(Site{Code: code, PC: i}, shape, 0)
	}
	_, _, evictions := c.Stats()
	if evictions == 0 {
		t.Fatal("expected at least one entry to be dropped once over budget")
	}
}

func TestPropertyCache_ConcurrentAccess(t *testing.T) {
	c := NewPropertyCache(0)
	code := &bytecode.CodeBlock{}
	shape := value.RootShape().Transition(1, value.DefaultDataAttributes())

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(pc uint32) {
			defer wg.Done()
			site := Site{Code: code, PC: pc}
			c.Store(site, shape, 0)
			c.Lookup(site, shape)
		}(uint32(i))
	}
	wg.Wait()
}
