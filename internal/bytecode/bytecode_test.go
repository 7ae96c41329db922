package bytecode

import "testing"

func TestLineForPCReturnsMostRecentEntry(t *testing.T) {
	c := &CodeBlock{Lines: []LineEntry{{PC: 0, Line: 1}, {PC: 10, Line: 2}, {PC: 20, Line: 3}}}
	if got := c.LineForPC(15); got != 2 {
		t.Fatalf("LineForPC(15) = %d, want 2", got)
	}
	if got := c.LineForPC(0); got != 1 {
		t.Fatalf("LineForPC(0) = %d, want 1", got)
	}
}

func TestHandlerForPicksInnermostRange(t *testing.T) {
	c := &CodeBlock{Handlers: []ExceptionHandler{
		{StartPC: 0, EndPC: 100, CatchPC: 50},
		{StartPC: 10, EndPC: 30, CatchPC: 25},
	}}
	h, ok := c.HandlerFor(15)
	if !ok || h.CatchPC != 25 {
		t.Fatalf("expected innermost handler with CatchPC=25, got %+v ok=%v", h, ok)
	}
}

func TestHandlerForReturnsFalseOutsideAnyRange(t *testing.T) {
	c := &CodeBlock{Handlers: []ExceptionHandler{{StartPC: 0, EndPC: 5}}}
	if _, ok := c.HandlerFor(10); ok {
		t.Fatal("expected no handler for pc outside all ranges")
	}
}
