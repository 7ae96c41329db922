package builtins

import (
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
	"github.com/standardbeagle/jsengine/internal/vm"
)

// installPromise builds Promise.prototype's then/catch/finally plus
// the Promise constructor (executor-based) and its resolve/reject/all/
// race statics, all driven through vm.Machine's
// NewPromise/ResolvePromise/RejectPromise/OnSettle seam so the same
// PromiseState `await` already understands backs script-visible
// promises too.
func installPromise(m *vm.Machine, in *interner.Interner, objectProto *value.Object) *value.Object {
	proto := value.NewWithClass(objectProto, value.ClassPromise)

	Def(in, proto, "then", 2, func(this value.Value, args []value.Value) (value.Value, error) {
		p, err := promiseReceiver(m, this, "Promise.prototype.then")
		if err != nil {
			return value.UndefinedValue, err
		}
		onFulfilled := callableArg(args, 0)
		onRejected := callableArg(args, 1)
		next := m.NewPromise()
		m.OnSettle(p, func(state vm.PromiseStateKind, result value.Value) {
			settleChained(m, next, state, result, onFulfilled, onRejected)
		})
		return value.ObjectValue(next), nil
	})
	Def(in, proto, "catch", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		p, err := promiseReceiver(m, this, "Promise.prototype.catch")
		if err != nil {
			return value.UndefinedValue, err
		}
		onRejected := callableArg(args, 0)
		next := m.NewPromise()
		m.OnSettle(p, func(state vm.PromiseStateKind, result value.Value) {
			settleChained(m, next, state, result, nil, onRejected)
		})
		return value.ObjectValue(next), nil
	})
	Def(in, proto, "finally", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		p, err := promiseReceiver(m, this, "Promise.prototype.finally")
		if err != nil {
			return value.UndefinedValue, err
		}
		onFinally := callableArg(args, 0)
		next := m.NewPromise()
		m.OnSettle(p, func(state vm.PromiseStateKind, result value.Value) {
			if onFinally != nil {
				onFinally.Call(value.UndefinedValue, nil)
			}
			if state == vm.PromiseRejected {
				m.RejectPromise(next, result)
			} else {
				m.ResolvePromise(next, result)
			}
		})
		return value.ObjectValue(next), nil
	})

	ctorFn := &NativeFunc{Name: "Promise", fn: func(this value.Value, args []value.Value) (value.Value, error) {
		return value.UndefinedValue, m.NewThrownError("TypeError", "Promise constructor requires 'new'")
	}}
	ctor := value.NewWithClass(nil, value.ClassFunction)
	ctor.Callable = &promiseCtor{m: m, proto: proto, fallback: ctorFn}
	ctor.DefineDataProperty(interner.SymName, value.Str("Promise"), value.AttrConfigurable)
	ctor.DefineDataProperty(interner.SymPrototype, value.ObjectValue(proto), 0)
	proto.DefineDataProperty(interner.SymConstructor, value.ObjectValue(ctor), value.AttrWritable|value.AttrConfigurable)

	Def(in, ctor, "resolve", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		v := arg(args, 0)
		if v.Kind() == value.Object_ && v.AsObject().Class == value.ClassPromise {
			return v, nil
		}
		p := m.NewPromise()
		m.ResolvePromise(p, v)
		return value.ObjectValue(p), nil
	})
	Def(in, ctor, "reject", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		p := m.NewPromise()
		m.RejectPromise(p, arg(args, 0))
		return value.ObjectValue(p), nil
	})
	Def(in, ctor, "all", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		items, err := m.IterableToSlice(arg(args, 0))
		if err != nil {
			return value.UndefinedValue, err
		}
		result := m.NewPromise()
		results := make([]value.Value, len(items))
		remaining := len(items)
		if remaining == 0 {
			m.ResolvePromise(result, newArray(m, results))
			return value.ObjectValue(result), nil
		}
		for i, it := range items {
			i := i
			awaitOne(m, it, func(state vm.PromiseStateKind, v value.Value) {
				if state == vm.PromiseRejected {
					m.RejectPromise(result, v)
					return
				}
				results[i] = v
				remaining--
				if remaining == 0 {
					m.ResolvePromise(result, newArray(m, results))
				}
			})
		}
		return value.ObjectValue(result), nil
	})
	Def(in, ctor, "race", 1, func(this value.Value, args []value.Value) (value.Value, error) {
		items, err := m.IterableToSlice(arg(args, 0))
		if err != nil {
			return value.UndefinedValue, err
		}
		result := m.NewPromise()
		for _, it := range items {
			awaitOne(m, it, func(state vm.PromiseStateKind, v value.Value) {
				if state == vm.PromiseRejected {
					m.RejectPromise(result, v)
				} else {
					m.ResolvePromise(result, v)
				}
			})
		}
		return value.ObjectValue(result), nil
	})

	return ctor
}

// promiseCtor implements `new Promise(executor)`, calling executor
// synchronously with resolve/reject functions closing over the
// freshly allocated PromiseState (spec.md's Promise is eager about
// running its executor, only the reactions are deferred).
type promiseCtor struct {
	m        *vm.Machine
	proto    *value.Object
	fallback value.Callable
}

func (c *promiseCtor) Call(this value.Value, args []value.Value) (value.Value, error) {
	return c.fallback.Call(this, args)
}

func (c *promiseCtor) Construct(args []value.Value, newTarget *value.Object) (value.Value, error) {
	executor := callableArg(args, 0)
	if executor == nil {
		return value.UndefinedValue, c.m.NewThrownError("TypeError", "Promise resolver is not a function")
	}
	p := c.m.NewPromise()
	resolveFn := &NativeFunc{fn: func(this value.Value, a []value.Value) (value.Value, error) {
		c.m.ResolvePromise(p, arg(a, 0))
		return value.UndefinedValue, nil
	}}
	rejectFn := &NativeFunc{fn: func(this value.Value, a []value.Value) (value.Value, error) {
		c.m.RejectPromise(p, arg(a, 0))
		return value.UndefinedValue, nil
	}}
	resolveObj := value.NewWithClass(nil, value.ClassFunction)
	resolveObj.Callable = resolveFn
	rejectObj := value.NewWithClass(nil, value.ClassFunction)
	rejectObj.Callable = rejectFn
	if _, err := executor.Call(value.UndefinedValue, []value.Value{value.ObjectValue(resolveObj), value.ObjectValue(rejectObj)}); err != nil {
		c.m.RejectPromise(p, errorToValue(c.m, err))
	}
	return value.ObjectValue(p), nil
}

func errorToValue(m *vm.Machine, err error) value.Value {
	if tv, ok := err.(*vm.ThrownValue); ok {
		return tv.Value
	}
	if tv, ok := m.NewThrownError("Error", err.Error()).(*vm.ThrownValue); ok {
		return tv.Value
	}
	return value.UndefinedValue
}

func promiseReceiver(m *vm.Machine, this value.Value, who string) (*value.Object, error) {
	if this.Kind() != value.Object_ || this.AsObject().Class != value.ClassPromise {
		return nil, m.NewThrownError("TypeError", who+" called on non-Promise")
	}
	return this.AsObject(), nil
}

// settleChained implements one link of Promise.prototype.then's
// reaction chain: runs the matching handler (if any), and folds its
// outcome into next, including handler-throws-and-that-rejects-next.
func settleChained(m *vm.Machine, next *value.Object, state vm.PromiseStateKind, result value.Value, onFulfilled, onRejected value.Callable) {
	handler := onFulfilled
	if state == vm.PromiseRejected {
		handler = onRejected
	}
	if handler == nil {
		if state == vm.PromiseRejected {
			m.RejectPromise(next, result)
		} else {
			m.ResolvePromise(next, result)
		}
		return
	}
	r, err := handler.Call(value.UndefinedValue, []value.Value{result})
	if err != nil {
		m.RejectPromise(next, errorToValue(m, err))
		return
	}
	if r.Kind() == value.Object_ && r.AsObject().Class == value.ClassPromise {
		m.OnSettle(r.AsObject(), func(s vm.PromiseStateKind, v value.Value) {
			if s == vm.PromiseRejected {
				m.RejectPromise(next, v)
			} else {
				m.ResolvePromise(next, v)
			}
		})
		return
	}
	m.ResolvePromise(next, r)
}

// awaitOne normalizes a Promise.all/race element (plain value or
// Promise) to a single OnSettle-style callback.
func awaitOne(m *vm.Machine, v value.Value, react func(vm.PromiseStateKind, value.Value)) {
	if v.Kind() == value.Object_ && v.AsObject().Class == value.ClassPromise {
		m.OnSettle(v.AsObject(), react)
		return
	}
	react(vm.PromiseFulfilled, v)
}
