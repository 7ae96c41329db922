// Package ast defines the parser's output tree.
//
// Per spec.md §3, identifier nodes hold interned Symbols rather than
// strings, binding patterns form their own sub-tree, and every node
// carries a source Span so diagnostics and the bytecode compiler's
// line tables can point back at the original text.
package ast

import (
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/token"
)

// Node is implemented by every statement, declaration, and expression
// node. The interface is intentionally thin: real dispatch happens by
// type switch in the compiler, matching spec.md §9's "tagged-variant
// walk, not virtual methods" guidance.
type Node interface {
	Span() token.Span
}

// Base is embedded by every concrete node type to supply Span().
type Base struct {
	Loc token.Span
}

func (b Base) Span() token.Span { return b.Loc }

// NewBase is a convenience constructor used by the parser.
func NewBase(span token.Span) Base { return Base{Loc: span} }

// ---- Programs & statement lists ----------------------------------

type Program struct {
	Base
	Body     []Node
	IsModule bool
}

type ExpressionStatement struct {
	Base
	Expression Node
}

type BlockStatement struct {
	Base
	Body []Node
}

type EmptyStatement struct{ Base }

type DebuggerStatement struct{ Base }

// ---- Declarations ---------------------------------------------------

// DeclKind distinguishes var/let/const declarations.
type DeclKind uint8

const (
	Var DeclKind = iota
	Let
	Const
)

type VariableDeclarator struct {
	Base
	ID   Node // Identifier or a binding pattern
	Init Node // nil if no initializer
}

type VariableDeclaration struct {
	Base
	Kind         DeclKind
	Declarations []*VariableDeclarator
}

type FunctionParam struct {
	Base
	Pattern Node // Identifier | ArrayPattern | ObjectPattern | RestElement
	Default Node // nil if none
}

type FunctionDeclaration struct {
	Base
	ID          *Identifier // nil for default-exported anonymous functions
	Params      []*FunctionParam
	Body        *BlockStatement
	IsGenerator bool
	IsAsync     bool
	IsStrict    bool
}

type ClassMember struct {
	Base
	Key         Node
	Value       Node // FunctionExpression for methods, any expr for fields
	Kind        string // "method" | "get" | "set" | "field" | "constructor"
	IsStatic    bool
	IsPrivate   bool
	Computed    bool
}

type ClassDeclaration struct {
	Base
	ID         *Identifier
	SuperClass Node
	Members    []*ClassMember
}

// ---- Identifiers & patterns -----------------------------------------

type Identifier struct {
	Base
	Name interner.Symbol
}

type PrivateIdentifier struct {
	Base
	Name interner.Symbol
}

type ArrayPattern struct {
	Base
	Elements []Node // elements may be nil for elisions
}

type ObjectPatternProperty struct {
	Base
	Key      Node
	Value    Node
	Computed bool
	Shorthand bool
}

type ObjectPattern struct {
	Base
	Properties []*ObjectPatternProperty
	Rest       Node // RestElement or nil
}

type RestElement struct {
	Base
	Argument Node
}

type AssignmentPattern struct {
	Base
	Left  Node
	Right Node
}

// FormalParameterListOrExpression is the cover-grammar node spec.md
// §3/§4.2 calls for: a parenthesized group parsed once as an
// expression list, disambiguated after the parser sees (or doesn't
// see) a following "=>".
type FormalParameterListOrExpression struct {
	Base
	Elements []Node // parsed as expressions; reinterpreted in place if "=>" follows
	HasTrailingComma bool
}

// ---- Expressions -----------------------------------------------------

type Literal struct {
	Base
	Kind  token.Kind // NumericLiteral | StringLiteral | BigIntLiteral | regex handled separately
	Num   float64
	Str   string
	BigInt string
}

type BooleanLiteral struct {
	Base
	Value bool
}

type NullLiteral struct{ Base }

type RegExpLiteral struct {
	Base
	Pattern interner.Symbol
	Flags   interner.Symbol
}

type TemplateElement struct {
	Cooked string
	Raw    string
	Tail   bool
}

type TemplateLiteral struct {
	Base
	Quasis      []TemplateElement
	Expressions []Node
}

type TaggedTemplate struct {
	Base
	Tag   Node
	Quasi *TemplateLiteral
}

type ArrayElement struct {
	Value  Node // nil for elisions
	Spread bool
}

type ArrayExpression struct {
	Base
	Elements []ArrayElement
}

type ObjectProperty struct {
	Base
	Key      Node
	Value    Node
	Computed bool
	Shorthand bool
	Kind     string // "init" | "get" | "set" | "spread" | "method"
}

type ObjectExpression struct {
	Base
	Properties []*ObjectProperty
}

type FunctionExpression struct {
	Base
	ID          *Identifier
	Params      []*FunctionParam
	Body        *BlockStatement
	IsGenerator bool
	IsAsync     bool
	IsStrict    bool
}

type ArrowFunctionExpression struct {
	Base
	Params       []*FunctionParam
	Body         Node // BlockStatement or a single expression (concise body)
	ExpressionBody bool
	IsAsync      bool
}

type ClassExpression struct {
	Base
	ID         *Identifier
	SuperClass Node
	Members    []*ClassMember
}

type UnaryExpression struct {
	Base
	Operator string
	Argument Node
	Prefix   bool
}

type UpdateExpression struct {
	Base
	Operator string
	Argument Node
	Prefix   bool
}

type BinaryExpression struct {
	Base
	Operator string
	Left     Node
	Right    Node
}

type LogicalExpression struct {
	Base
	Operator string // "&&" | "||" | "??"
	Left     Node
	Right    Node
}

type AssignmentExpression struct {
	Base
	Operator string // "=" | "+=" | ... | "&&=" | "||=" | "??="
	Left     Node   // Identifier | member expr | destructuring pattern
	Right    Node
}

type ConditionalExpression struct {
	Base
	Test       Node
	Consequent Node
	Alternate  Node
}

type CallExpression struct {
	Base
	Callee    Node
	Arguments []ArrayElement // reuses spread-tagging shape
	Optional  bool
}

type NewExpression struct {
	Base
	Callee    Node
	Arguments []ArrayElement
}

type MemberExpression struct {
	Base
	Object   Node
	Property Node
	Computed bool
	Optional bool
}

type SequenceExpression struct {
	Base
	Expressions []Node
}

type ThisExpression struct{ Base }
type SuperExpression struct{ Base }
type NewTargetExpression struct{ Base }

type YieldExpression struct {
	Base
	Argument Node
	Delegate bool
}

type AwaitExpression struct {
	Base
	Argument Node
}

type SpreadElement struct {
	Base
	Argument Node
}

// ---- Statements using control flow -----------------------------------

type IfStatement struct {
	Base
	Test       Node
	Consequent Node
	Alternate  Node
}

type ForStatement struct {
	Base
	Init   Node // VariableDeclaration | Expression | nil
	Test   Node
	Update Node
	Body   Node
}

type ForInStatement struct {
	Base
	Left  Node // VariableDeclaration | pattern
	Right Node
	Body  Node
	Of    bool // true for for-of
	IsAwait bool
}

type WhileStatement struct {
	Base
	Test Node
	Body Node
}

type DoWhileStatement struct {
	Base
	Body Node
	Test Node
}

type BreakStatement struct {
	Base
	Label *Identifier
}

type ContinueStatement struct {
	Base
	Label *Identifier
}

type ReturnStatement struct {
	Base
	Argument Node
}

type ThrowStatement struct {
	Base
	Argument Node
}

type LabeledStatement struct {
	Base
	Label Node
	Body  Node
}

type SwitchCase struct {
	Base
	Test       Node // nil for default
	Consequent []Node
}

type SwitchStatement struct {
	Base
	Discriminant Node
	Cases        []*SwitchCase
}

type CatchClause struct {
	Base
	Param Node // nil if catch has no binding
	Body  *BlockStatement
}

type TryStatement struct {
	Base
	Block     *BlockStatement
	Handler   *CatchClause
	Finalizer *BlockStatement
}

// ---- Modules -----------------------------------------------------------

type ImportSpecifier struct {
	Imported *Identifier // nil for default/namespace
	Local    *Identifier
	Default  bool
	Namespace bool
}

type ImportDeclaration struct {
	Base
	Specifiers []*ImportSpecifier
	Source     string
}

type ExportNamedDeclaration struct {
	Base
	Declaration Node // nil if re-exporting named bindings
	Specifiers  []*ImportSpecifier
	Source      string // "" if not a re-export
}

type ExportDefaultDeclaration struct {
	Base
	Declaration Node
}

type ExportAllDeclaration struct {
	Base
	Source string
	Exported *Identifier
}
