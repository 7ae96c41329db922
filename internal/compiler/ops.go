package compiler

import "github.com/standardbeagle/jsengine/internal/bytecode"

// mapBinaryOp translates a parser operator string into the dense
// BinaryOp OpBinary dispatches on.
func mapBinaryOp(op string) (bytecode.BinaryOp, bool) {
	switch op {
	case "+":
		return bytecode.BinAdd, true
	case "-":
		return bytecode.BinSub, true
	case "*":
		return bytecode.BinMul, true
	case "/":
		return bytecode.BinDiv, true
	case "%":
		return bytecode.BinMod, true
	case "**":
		return bytecode.BinExp, true
	case "==":
		return bytecode.BinEq, true
	case "!=":
		return bytecode.BinNeq, true
	case "===":
		return bytecode.BinStrictEq, true
	case "!==":
		return bytecode.BinStrictNeq, true
	case "<":
		return bytecode.BinLt, true
	case ">":
		return bytecode.BinGt, true
	case "<=":
		return bytecode.BinLe, true
	case ">=":
		return bytecode.BinGe, true
	case "instanceof":
		return bytecode.BinInstanceOf, true
	case "in":
		return bytecode.BinIn, true
	case "&":
		return bytecode.BinBitAnd, true
	case "|":
		return bytecode.BinBitOr, true
	case "^":
		return bytecode.BinBitXor, true
	case "<<":
		return bytecode.BinShl, true
	case ">>":
		return bytecode.BinShr, true
	case ">>>":
		return bytecode.BinUShr, true
	}
	return 0, false
}

func mapUnaryOp(op string) (bytecode.UnaryOp, bool) {
	switch op {
	case "-":
		return bytecode.UnaryNeg, true
	case "+":
		return bytecode.UnaryPlus, true
	case "!":
		return bytecode.UnaryNot, true
	case "~":
		return bytecode.UnaryBitNot, true
	case "typeof":
		return bytecode.UnaryTypeof, true
	case "void":
		return bytecode.UnaryVoid, true
	case "delete":
		return bytecode.UnaryDelete, true
	}
	return 0, false
}

// compoundBinaryOp strips the trailing "=" off a compound-assignment
// operator ("+=" -> "+") and maps what remains, reporting false for the
// three logical-assignment operators which aren't OpBinary operators at
// all (they compile to a short-circuit jump instead).
func compoundBinaryOp(op string) (bytecode.BinaryOp, bool) {
	switch op {
	case "&&=", "||=", "??=", "=":
		return 0, false
	}
	return mapBinaryOp(op[:len(op)-1])
}
