package gc

import "testing"

type leafPayload struct {
	refs []*Cell
}

func (l *leafPayload) Trace(visit func(*Cell)) {
	for _, c := range l.refs {
		visit(c)
	}
}

func TestCollectSweepsUnreachable(t *testing.T) {
	h := NewHeap()
	root := h.Alloc(&leafPayload{})
	h.Collect()
	if h.LiveCount() != 1 {
		t.Fatalf("expected root cell to survive, got %d live cells", h.LiveCount())
	}
	h.Release(root)
	h.Collect()
	if h.LiveCount() != 0 {
		t.Fatalf("expected unrooted cell to be swept, got %d live cells", h.LiveCount())
	}
}

func TestTracingKeepsReachableAlive(t *testing.T) {
	h := NewHeap()
	child := h.Alloc(&leafPayload{})
	parentPayload := &leafPayload{refs: []*Cell{child.Cell()}}
	parent := h.Alloc(parentPayload)
	// The child handle is no longer itself rooted; only the parent's
	// Trace method should keep it alive.
	h.Release(child.Unroot())

	h.Collect()
	if h.LiveCount() != 2 {
		t.Fatalf("expected both cells reachable via trace, got %d", h.LiveCount())
	}

	h.Release(parent)
	h.Collect()
	if h.LiveCount() != 0 {
		t.Fatalf("expected both cells collected once parent is unrooted, got %d", h.LiveCount())
	}
}

func TestEphemeronLivesOnlyWithKey(t *testing.T) {
	h := NewHeap()
	keyHandle := h.Alloc(&leafPayload{})
	valueHandle := h.Alloc(&leafPayload{})
	weakKey := h.NewWeak(keyHandle)
	h.AddEphemeron(weakKey, valueHandle.Unroot())
	h.Release(valueHandle.Unroot())

	// Key still rooted: value should survive through the ephemeron.
	h.Collect()
	if h.LiveCount() != 2 {
		t.Fatalf("expected key+value alive while key is rooted, got %d", h.LiveCount())
	}

	h.Release(keyHandle)
	h.Collect()
	if h.LiveCount() != 0 {
		t.Fatalf("expected ephemeron value collected once key dies, got %d", h.LiveCount())
	}
}

func TestFinalizerRunsBeforeSweep(t *testing.T) {
	h := NewHeap()
	handle := h.Alloc(&leafPayload{})
	ran := false
	handle.Cell().SetFinalizer(func() { ran = true })
	h.Release(handle)
	h.Collect()
	if !ran {
		t.Fatal("expected finalizer to run before sweep")
	}
}
