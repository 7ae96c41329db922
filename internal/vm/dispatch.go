package vm

import (
	"github.com/standardbeagle/jsengine/internal/bytecode"
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// execute runs f's CodeBlock from pc 0 until a Return/Throw completion
// or the final OpHalt, per spec.md §4.4's dispatch loop. Every opcode
// that can fail routes its error through handleError before falling
// back to returning a Throw completion, so a try/catch/finally inside
// this very frame is serviced without unwinding the Go call stack.
func (m *Machine) execute(f *CallFrame) (Completion, error) {
	code := f.Code
	bc := code.Bytecode
	var pc uint32

	readU32 := func() uint32 {
		v := uint32(bc[pc]) | uint32(bc[pc+1])<<8 | uint32(bc[pc+2])<<16 | uint32(bc[pc+3])<<24
		pc += 4
		return v
	}

	for {
		if int(pc) >= len(bc) {
			return Normal(value.UndefinedValue), nil
		}
		opStart := pc
		op := bytecode.Op(bc[pc])
		pc++

		switch op {
		case bytecode.OpNop:

		case bytecode.OpLoadConst:
			idx := readU32()
			v, err := m.loadConstant(f, code.Constants[idx])
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(v)
		case bytecode.OpLoadUndefined:
			m.push(value.UndefinedValue)
		case bytecode.OpLoadNull:
			m.push(value.NullValue)
		case bytecode.OpLoadTrue:
			m.push(value.TrueValue)
		case bytecode.OpLoadFalse:
			m.push(value.FalseValue)
		case bytecode.OpDup:
			m.push(m.top())
		case bytecode.OpPop:
			m.pop()
		case bytecode.OpSwap:
			n := len(m.stack)
			m.stack[n-1], m.stack[n-2] = m.stack[n-2], m.stack[n-1]

		case bytecode.OpGetBinding:
			loc := code.Locators[readU32()]
			v, err := m.resolveGet(f, loc)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(v)
		case bytecode.OpSetBinding:
			loc := code.Locators[readU32()]
			v := m.top()
			if err := m.resolveSet(f, loc, v); err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
		case bytecode.OpInitBinding:
			loc := code.Locators[readU32()]
			v := m.pop()
			switch loc.Kind {
			case bytecode.LocatorLocal:
				m.stack[f.StackBase+int(loc.Slot)] = v
			case bytecode.LocatorGlobal:
				_ = m.Global.Set(loc.Name, v)
			default:
				env := asEnvironment(f.Env)
				if !env.HasBinding(loc.Name) {
					env.Declare(loc.Name, true, false)
				}
				env.Initialize(loc.Name, v)
			}
		case bytecode.OpDeclareVar:
			loc := code.Locators[readU32()]
			switch loc.Kind {
			case bytecode.LocatorGlobal:
				if _, _, ok := m.Global.GetOwnProperty(loc.Name); !ok {
					_ = m.Global.DefineDataProperty(loc.Name, value.UndefinedValue, value.DefaultDataAttributes())
				}
			case bytecode.LocatorLocal:
				// Slot already reserved and zero-initialized by pushCall.
			default:
				env := asEnvironment(f.Env)
				env.Declare(loc.Name, true, true)
			}
		case bytecode.OpPushScope:
			h := NewEnvironment(m.Heap, EnvBlock, f.Env)
			m.Heap.Release(h) // kept alive via GCRoots walking m.frames, not a standing root
			f.Env = h.Unroot()
			f.EnvDepth++
		case bytecode.OpPopScope:
			if env := asEnvironment(f.Env); env != nil {
				f.Env = env.Outer
			}
			f.EnvDepth--

		case bytecode.OpNewObject:
			m.push(value.ObjectValue(value.New(m.ObjectProto)))
		case bytecode.OpNewArray:
			n := int(readU32())
			m.push(m.newArrayValue(m.popN(n)))

		case bytecode.OpGetProperty:
			sym := code.Constants[readU32()].Sym
			objv := m.pop()
			v, err := m.getProperty(f, opStart, objv, sym)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(v)
		case bytecode.OpSetProperty:
			sym := code.Constants[readU32()].Sym
			v := m.pop()
			objv := m.pop()
			if err := m.setProperty(objv, sym, v); err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(v)
		case bytecode.OpGetPropertyComputed:
			keyv := m.pop()
			objv := m.pop()
			sym := m.toPropertyKey(keyv)
			v, err := m.getProperty(f, opStart, objv, sym)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(v)
		case bytecode.OpSetPropertyComputed:
			v := m.pop()
			keyv := m.pop()
			objv := m.pop()
			sym := m.toPropertyKey(keyv)
			if err := m.setProperty(objv, sym, v); err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(v)
		case bytecode.OpGetPropertyOptional:
			sym := code.Constants[readU32()].Sym
			objv := m.pop()
			if objv.IsNullish() {
				m.push(value.UndefinedValue)
				continue
			}
			v, err := m.getProperty(f, opStart, objv, sym)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(v)
		case bytecode.OpDeleteProperty:
			sym := code.Constants[readU32()].Sym
			objv := m.pop()
			obj, err := m.toObject(objv)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(value.Bool(obj.Delete(sym)))
		case bytecode.OpDefineMethod:
			sym := code.Constants[readU32()].Sym
			fnv := m.pop()
			objv := m.top()
			obj, _ := m.toObject(objv)
			_ = obj.DefineDataProperty(sym, fnv, value.AttrWritable|value.AttrConfigurable)
		case bytecode.OpDefineGetter:
			sym := code.Constants[readU32()].Sym
			fnv := m.pop()
			objv := m.top()
			obj, _ := m.toObject(objv)
			_, existing, _ := obj.GetOwnProperty(sym)
			obj.DefineAccessorProperty(sym, fnv.AsObject(), existing.Set, value.AttrEnumerable|value.AttrConfigurable)
		case bytecode.OpDefineSetter:
			sym := code.Constants[readU32()].Sym
			fnv := m.pop()
			objv := m.top()
			obj, _ := m.toObject(objv)
			_, existing, _ := obj.GetOwnProperty(sym)
			obj.DefineAccessorProperty(sym, existing.Get, fnv.AsObject(), value.AttrEnumerable|value.AttrConfigurable)
		case bytecode.OpCopyDataProperties:
			srcv := m.pop()
			targetv := m.top()
			src, err := m.toObject(srcv)
			if err == nil {
				target, _ := m.toObject(targetv)
				for _, name := range src.OwnPropertyNames() {
					val, desc, ok := src.GetOwnProperty(name)
					if !ok || !desc.Enumerable() {
						continue
					}
					_ = target.DefineDataProperty(name, val, value.DefaultDataAttributes())
				}
			}

		case bytecode.OpBinary:
			result, err := m.evalBinaryOp(bytecode.BinaryOp(bc[pc]))
			pc++
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(result)
		case bytecode.OpUnary:
			uop := bytecode.UnaryOp(bc[pc])
			pc++
			v := m.pop()
			result, err := EvalUnary(uop, v)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(result)
		case bytecode.OpUpdate:
			uop := bytecode.UpdateOp(bc[pc])
			pc++
			prefix := bc[pc] != 0
			pc++
			v := m.pop()
			old := toNumber(toPrimitive(v))
			delta := 1.0
			if uop == bytecode.UpdateDecrement {
				delta = -1
			}
			newVal := value.Number(old + delta)
			if prefix {
				m.push(newVal)
				m.push(newVal)
			} else {
				m.push(value.Number(old))
				m.push(newVal)
			}

		case bytecode.OpJump:
			pc = readU32()
		case bytecode.OpJumpIfFalse:
			target := readU32()
			if !m.pop().ToBoolean() {
				pc = target
			}
		case bytecode.OpJumpIfTrue:
			target := readU32()
			if m.pop().ToBoolean() {
				pc = target
			}
		case bytecode.OpJumpIfNullish:
			target := readU32()
			if m.top().IsNullish() {
				m.pop()
				pc = target
			}

		case bytecode.OpCall:
			argc := int(readU32())
			args := m.popN(argc)
			calleeV := m.pop()
			thisV := m.pop()
			result, err := m.callValue(calleeV, thisV, args)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(result)
		case bytecode.OpCallSpread:
			argc := int(readU32())
			spreadSrc := m.pop()
			plain := m.popN(argc)
			extra, err := m.iterableToSlice(spreadSrc)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			calleeV := m.pop()
			thisV := m.pop()
			result, err := m.callValue(calleeV, thisV, append(plain, extra...))
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(result)
		case bytecode.OpNew:
			argc := int(readU32())
			args := m.popN(argc)
			calleeV := m.pop()
			result, err := m.constructValue(calleeV, args)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(result)
		case bytecode.OpNewSpread:
			argc := int(readU32())
			spreadSrc := m.pop()
			plain := m.popN(argc)
			extra, err := m.iterableToSlice(spreadSrc)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			calleeV := m.pop()
			result, err := m.constructValue(calleeV, append(plain, extra...))
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(result)
		case bytecode.OpReturn:
			v := m.pop()
			comp := Return(v)
			if h, found := code.HandlerFor(opStart); found && h.FinallyPC != 0 {
				f.Pending = &comp
				m.stack = m.stack[:f.StackBase+int(h.StackDepth)]
				pc = h.FinallyPC
				continue
			}
			return comp, nil
		case bytecode.OpThrow:
			v := m.pop()
			if comp, handled := m.handleError(f, opStart, &ThrownValue{Value: v}, &pc); !handled {
				return comp, nil
			}

		case bytecode.OpMakeFunction, bytecode.OpMakeArrow, bytecode.OpMakeGenerator:
			tmpl := code.Constants[readU32()].Template
			m.push(value.ObjectValue(m.makeFunction(f, tmpl)))
		case bytecode.OpMakeClass:
			tmpl := code.Constants[readU32()].Template
			superV := m.pop()
			m.push(value.ObjectValue(m.makeClass(f, tmpl, superV)))

		case bytecode.OpGetIterator:
			v := m.pop()
			iterObj, nextFn, err := m.getIterator(v)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			f.Iterators = append(f.Iterators, IteratorRecord{Object: iterObj, Next: nextFn})
		case bytecode.OpIteratorNext:
			if len(f.Iterators) == 0 {
				err := &ThrownValue{Value: value.ObjectValue(m.newError("SyntaxError", "no active iterator"))}
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			rec := &f.Iterators[len(f.Iterators)-1]
			done, val, err := m.iteratorStep(rec)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(value.Bool(done))
			m.push(val)
		case bytecode.OpIteratorClose:
			if len(f.Iterators) > 0 {
				rec := f.Iterators[len(f.Iterators)-1]
				f.Iterators = f.Iterators[:len(f.Iterators)-1]
				m.closeIterator(rec)
			}

		case bytecode.OpYield:
			v := m.pop()
			if f.gen == nil {
				err := &ThrownValue{Value: value.ObjectValue(m.newError("SyntaxError", "yield outside generator"))}
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			f.gen.fromBody <- yieldMsg{completion: Normal(v)}
			resume := <-f.gen.toBody
			switch resume.kind {
			case resumeThrow:
				if comp, handled := m.handleError(f, opStart, &ThrownValue{Value: resume.value}, &pc); !handled {
					return comp, nil
				}
			case resumeReturn:
				return Return(resume.value), nil
			default:
				m.push(resume.value)
			}
		case bytecode.OpAwait:
			v := m.pop()
			resolved, err := m.awaitValue(v)
			if err != nil {
				if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
					return comp, nil
				}
				continue
			}
			m.push(resolved)

		case bytecode.OpPushExceptionFrame:
			idx := readU32()
			f.ExcStack = append(f.ExcStack, ExceptionFrame{Handler: code.Handlers[idx], EnvDepth: f.EnvDepth})
		case bytecode.OpPopExceptionFrame:
			if len(f.ExcStack) > 0 {
				f.ExcStack = f.ExcStack[:len(f.ExcStack)-1]
			}
		case bytecode.OpFinallyReturn:
			if f.Pending != nil {
				p := *f.Pending
				f.Pending = nil
				if p.Kind == CompletionThrow {
					if comp, handled := m.handleError(f, opStart, &ThrownValue{Value: p.Value}, &pc); !handled {
						return comp, nil
					}
					continue
				}
				return p, nil
			}

		case bytecode.OpLoadThis:
			m.push(f.This)
		case bytecode.OpLoadNewTarget:
			if f.NewTarget != nil {
				m.push(value.ObjectValue(f.NewTarget))
			} else {
				m.push(value.UndefinedValue)
			}
		case bytecode.OpLoadSuper:
			if f.Closure != nil && f.Closure.HomeObject != nil && f.Closure.HomeObject.Proto != nil {
				m.push(value.ObjectValue(f.Closure.HomeObject.Proto))
			} else {
				m.push(value.UndefinedValue)
			}

		case bytecode.OpConcat:
			n := int(readU32())
			m.push(concatStrings(m.popN(n)))

		case bytecode.OpHalt:
			return Normal(value.UndefinedValue), nil

		default:
			err := &ThrownValue{Value: value.ObjectValue(m.newError("InternalError", "unimplemented opcode"))}
			if comp, handled := m.handleError(f, opStart, err, &pc); !handled {
				return comp, nil
			}
		}
	}
}

// loadConstant materializes a bytecode.Value constant-pool entry into
// a runtime value.Value. FunctionTemplate entries are only ever
// reached through OpMakeFunction/OpMakeClass, never OpLoadConst, so
// ValueKindTemplate here would be a compiler bug.
func (m *Machine) loadConstant(f *CallFrame, c bytecode.Value) (value.Value, error) {
	switch c.Kind {
	case bytecode.ValueKindNumber:
		return value.Number(c.Num), nil
	case bytecode.ValueKindString:
		return value.Str(c.Str), nil
	case bytecode.ValueKindSymbol:
		return value.SymbolValue(c.Sym), nil
	case bytecode.ValueKindBigInt:
		b, ok := value.BigIntFromString(c.BigIntDigits)
		if !ok {
			return value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(m.newError("SyntaxError", "invalid BigInt literal"))}
		}
		return value.BigIntValue(b), nil
	default:
		return value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(m.newError("InternalError", "unsupported constant kind"))}
	}
}

func (m *Machine) callValue(calleeV, thisV value.Value, args []value.Value) (value.Value, error) {
	if calleeV.Kind() != value.Object_ || calleeV.AsObject().Callable == nil {
		return value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(m.newError("TypeError", "value is not a function"))}
	}
	return calleeV.AsObject().Callable.Call(thisV, args)
}

func (m *Machine) constructValue(calleeV value.Value, args []value.Value) (value.Value, error) {
	if calleeV.Kind() != value.Object_ || calleeV.AsObject().Callable == nil {
		return value.UndefinedValue, &ThrownValue{Value: value.ObjectValue(m.newError("TypeError", "value is not a constructor"))}
	}
	return calleeV.AsObject().Callable.Construct(args, calleeV.AsObject())
}

func (m *Machine) evalBinaryOp(op bytecode.BinaryOp) (value.Value, error) {
	r := m.pop()
	l := m.pop()
	switch op {
	case bytecode.BinInstanceOf:
		return EvalInstanceOf(l, r)
	case bytecode.BinIn:
		if l.Kind() != value.String && l.Kind() != value.Symbol {
			return value.UndefinedValue, &BinaryOpError{Msg: "Cannot use 'in' operator with a non-string/symbol left-hand side"}
		}
		return EvalIn(m.toPropertyKey(l), r)
	default:
		return EvalBinary(op, l, r)
	}
}

func (m *Machine) makeFunction(f *CallFrame, tmpl *bytecode.FunctionTemplate) *value.Object {
	closure := &Closure{Template: tmpl, Env: f.Env, Heap: m.Heap, VM: m}
	fnObj := value.NewWithClass(m.FunctionProto, value.ClassFunction)
	fnObj.Callable = closure
	_ = fnObj.DefineDataProperty(interner.SymName, value.Str(m.Interner.Lookup(tmpl.Name)), value.AttrConfigurable)
	_ = fnObj.DefineDataProperty(interner.SymLength, value.Int32(int32(tmpl.ParamCount)), value.AttrConfigurable)
	if !tmpl.IsArrow {
		proto := value.New(m.ObjectProto)
		_ = proto.DefineDataProperty(interner.SymConstructor, value.ObjectValue(fnObj), value.AttrWritable|value.AttrConfigurable)
		_ = fnObj.DefineDataProperty(interner.SymPrototype, value.ObjectValue(proto), value.AttrWritable)
	}
	return fnObj
}

func (m *Machine) makeClass(f *CallFrame, tmpl *bytecode.FunctionTemplate, superV value.Value) *value.Object {
	closure := &Closure{Template: tmpl, Env: f.Env, Heap: m.Heap, VM: m}
	fnObj := value.NewWithClass(m.FunctionProto, value.ClassFunction)
	fnObj.Callable = closure
	proto := value.New(m.ObjectProto)
	if superV.Kind() == value.Object_ {
		if sp, err := superV.AsObject().Get(interner.SymPrototype, superV); err == nil && sp.Kind() == value.Object_ {
			proto.Proto = sp.AsObject()
		}
		fnObj.Proto = superV.AsObject()
	}
	closure.HomeObject = proto
	_ = proto.DefineDataProperty(interner.SymConstructor, value.ObjectValue(fnObj), value.AttrWritable|value.AttrConfigurable)
	_ = fnObj.DefineDataProperty(interner.SymPrototype, value.ObjectValue(proto), 0)
	_ = fnObj.DefineDataProperty(interner.SymName, value.Str(m.Interner.Lookup(tmpl.Name)), value.AttrConfigurable)
	return fnObj
}
