package vm

import "github.com/standardbeagle/jsengine/internal/value"

// Generators suspend mid-body, which this
// engine implements with a real Go goroutine standing in for the
// suspended call stack rather than a CPS transform or manually saved
// stack snapshot (spec.md §4.4 leaves the suspension mechanism to the
// implementer). The goroutine and its driver hand off control over a
// pair of unbuffered channels, so exactly one side is ever running —
// the driver blocks on fromBody while the body runs, the body blocks
// on toBody while the driver runs — which is what makes it safe for
// both sides to share this Machine's value stack and frame list
// without any additional locking. Async functions do not use this:
// OpAwait settles its operand in place by draining the job queue (see
// awaitValue).

type resumeKind uint8

const (
	resumeNext resumeKind = iota
	resumeThrow
	resumeReturn
)

type resumeMsg struct {
	kind  resumeKind
	value value.Value
}

type yieldMsg struct {
	completion Completion
	done       bool
}

// Generator is the InternalData installed on the object a generator
// function call returns; its Next/Throw/Return back the object's
// .next()/.throw()/.return() builtin methods.
type Generator struct {
	toBody   chan resumeMsg
	fromBody chan yieldMsg
	done     bool
}

// startGenerator spawns the goroutine that will run c's body, parked
// immediately on the first message from toBody so that none of the
// body's side effects happen before the caller's first .next() call
// (spec.md §4.4: calling a generator function only creates the
// generator object, it does not start executing the body).
func (m *Machine) startGenerator(c *Closure, this value.Value, args []value.Value) *Generator {
	g := &Generator{
		toBody:   make(chan resumeMsg),
		fromBody: make(chan yieldMsg),
	}
	go func() {
		first := <-g.toBody
		if first.kind == resumeReturn {
			g.fromBody <- yieldMsg{completion: Return(first.value), done: true}
			return
		}
		if first.kind == resumeThrow {
			g.fromBody <- yieldMsg{completion: Throw(first.value), done: true}
			return
		}

		frame := m.pushCall(c, this, args, nil)
		frame.gen = g
		comp, err := m.execute(frame)
		m.popCall()
		if err != nil {
			tv := m.wrapError(err)
			g.fromBody <- yieldMsg{completion: Throw(tv.Value), done: true}
			return
		}
		g.fromBody <- yieldMsg{completion: comp, done: true}
	}()
	return g
}

func (g *Generator) resume(msg resumeMsg) Completion {
	if g.done {
		if msg.kind == resumeThrow {
			return Throw(msg.value)
		}
		return Return(value.UndefinedValue)
	}
	g.toBody <- msg
	out := <-g.fromBody
	g.done = out.done
	return out.completion
}

func (g *Generator) Next(v value.Value) Completion   { return g.resume(resumeMsg{kind: resumeNext, value: v}) }
func (g *Generator) Throw(v value.Value) Completion  { return g.resume(resumeMsg{kind: resumeThrow, value: v}) }
func (g *Generator) Return(v value.Value) Completion { return g.resume(resumeMsg{kind: resumeReturn, value: v}) }

// Done reports whether the generator has run to completion (returned,
// thrown past its own body, or been force-completed via Return).
func (g *Generator) Done() bool { return g.done }
