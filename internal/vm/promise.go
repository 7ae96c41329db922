package vm

import "github.com/standardbeagle/jsengine/internal/value"

// PromiseStateKind is a Promise's internal [[PromiseState]] (spec.md §4.4).
type PromiseStateKind uint8

const (
	PromisePending PromiseStateKind = iota
	PromiseFulfilled
	PromiseRejected
)

// PromiseState is the InternalData of a value.ClassPromise object.
// internal/builtins owns the Promise constructor and .then/.catch
// surface; this package only needs enough of a Promise to make
// `await` meaningful inside the VM loop.
type PromiseState struct {
	State     PromiseStateKind
	Result    value.Value
	Reactions []func(state PromiseStateKind, result value.Value)
}

// NewPromise allocates a pending Promise object. Settling it is the
// caller's job (via ResolvePromise/RejectPromise) — there is no
// executor callback here, that belongs to the builtin Promise
// constructor.
func (m *Machine) NewPromise() *value.Object {
	o := value.NewWithClass(m.PromiseProto, value.ClassPromise)
	o.InternalData = &PromiseState{State: PromisePending}
	return o
}

func (m *Machine) ResolvePromise(p *value.Object, result value.Value) { m.settlePromise(p, PromiseFulfilled, result) }
func (m *Machine) RejectPromise(p *value.Object, reason value.Value)  { m.settlePromise(p, PromiseRejected, reason) }

func (m *Machine) settlePromise(p *value.Object, kind PromiseStateKind, result value.Value) {
	ps, ok := p.InternalData.(*PromiseState)
	if !ok || ps.State != PromisePending {
		return
	}
	ps.State = kind
	ps.Result = result
	reactions := ps.Reactions
	ps.Reactions = nil
	for _, r := range reactions {
		r := r
		m.Jobs.Enqueue(func() error { r(kind, result); return nil })
	}
}

// OnSettle registers react to run as a microtask once p settles, or
// queues it immediately if p has already settled.
func (m *Machine) OnSettle(p *value.Object, react func(state PromiseStateKind, result value.Value)) {
	ps, ok := p.InternalData.(*PromiseState)
	if !ok {
		return
	}
	if ps.State != PromisePending {
		state, result := ps.State, ps.Result
		m.Jobs.Enqueue(func() error { react(state, result); return nil })
		return
	}
	ps.Reactions = append(ps.Reactions, react)
}

// awaitValue implements `await` for OpAwait: a non-Promise operand
// resolves to itself immediately (ToPromise-wrapping a plain value is
// the builtin layer's concern, not the VM's); a Promise drains this
// Machine's own job queue until it settles, since the engine has no
// host event loop distinct from its microtask queue (spec.md §6
// excludes timers/host I/O entirely, so nothing outside the queue
// could ever settle a still-pending promise).
func (m *Machine) awaitValue(v value.Value) (value.Value, error) {
	if v.Kind() != value.Object_ || v.AsObject().Class != value.ClassPromise {
		return v, nil
	}
	p := v.AsObject()
	ps, ok := p.InternalData.(*PromiseState)
	if !ok {
		return value.UndefinedValue, nil
	}
	for ps.State == PromisePending {
		if m.Jobs.Len() == 0 {
			return value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(
				m.newError("Error", "await on a promise with no pending jobs left to settle it"))}
		}
		if err := m.Jobs.RunOne(); err != nil {
			return value.UndefinedValue, err
		}
	}
	if ps.State == PromiseRejected {
		return value.UndefinedValue, &ThrownValue{Value: ps.Result}
	}
	return ps.Result, nil
}
