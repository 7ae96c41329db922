// Package parser builds an AST from tokens, enforcing the syntactic
// Early Errors spec.md §4.2 calls for and resolving the cover-grammar
// ambiguity between a parenthesized expression and an arrow function's
// parameter list.
package parser

import (
	"fmt"

	"github.com/standardbeagle/jsengine/internal/ast"
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/lexer"
	"github.com/standardbeagle/jsengine/internal/token"
)

// Error is a syntax error raised by the parser. Syntax errors are
// reported directly (never thrown) since there is no script context
// yet when parsing fails — spec.md §7.
type Error struct {
	Span    token.Span
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: SyntaxError: %s", e.Span.Start, e.Message)
}

// context carries the three grammar parameters spec.md §4.2 threads
// through every recursive-descent entry point (in, yield, await), plus
// the strict-mode flag.
type context struct {
	in, yield, await, strict bool
}

// labelEntry tracks an enclosing label/iteration/switch target for
// break/continue validation.
type labelEntry struct {
	name       interner.Symbol // 0 for unlabelled loop/switch entries
	isIteration bool
	isSwitch   bool
}

// Parser recursive-descends over a lexer's token stream.
type Parser struct {
	lex *lexer.Lexer
	in  *interner.Interner

	cur  token.Token
	goal token.Goal // goal to use for the next Next() call

	labels []labelEntry
}

// New creates a Parser over src.
func New(src string, in *interner.Interner) (*Parser, error) {
	p := &Parser{lex: lexer.New(src, in), in: in, goal: token.Division}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	t, err := p.lex.Next(p.goal)
	if err != nil {
		return err
	}
	p.cur = t
	p.goal = token.Division
	return nil
}

func (p *Parser) errorf(format string, args ...any) error {
	return &Error{Span: p.cur.Span, Message: fmt.Sprintf(format, args...)}
}

func (p *Parser) isPunct(s string) bool {
	return p.cur.Kind == token.Punctuator && p.cur.Text == s
}

func (p *Parser) isKeyword(s string) bool {
	return p.cur.Kind == token.Keyword && p.cur.Text == s
}

func (p *Parser) isContextualKeyword(s string) bool {
	return (p.cur.Kind == token.Identifier || p.cur.Kind == token.Keyword) && p.cur.Text == s
}

func (p *Parser) expectPunct(s string) (token.Span, error) {
	if !p.isPunct(s) {
		return token.Span{}, p.errorf("expected %q, got %q", s, p.tokenText())
	}
	span := p.cur.Span
	return span, p.advance()
}

func (p *Parser) tokenText() string {
	if p.cur.Text != "" {
		return p.cur.Text
	}
	return p.cur.Kind.String()
}

func (p *Parser) startSpan() token.Position { return p.cur.Span.Start }

// ParseScript is the top-level entry point for non-module source.
func (p *Parser) ParseScript() (*ast.Program, error) {
	start := p.startSpan()
	ctx := context{in: true}
	body, err := p.parseStatementList(ctx, func() bool { return p.cur.Kind == token.EOF })
	if err != nil {
		return nil, err
	}
	return &ast.Program{Base: ast.NewBase(p.spanFromStart(start)), Body: body}, nil
}

// ParseModule parses module source. Import/export declarations are
// accepted at the top level; everything else behaves as strict-mode
// script code per the ECMAScript module goal symbol.
func (p *Parser) ParseModule() (*ast.Program, error) {
	start := p.startSpan()
	ctx := context{in: true, strict: true}
	body, err := p.parseStatementList(ctx, func() bool { return p.cur.Kind == token.EOF })
	if err != nil {
		return nil, err
	}
	return &ast.Program{Base: ast.NewBase(p.spanFromStart(start)), Body: body, IsModule: true}, nil
}

func (p *Parser) spanFromStart(start token.Position) token.Span {
	return token.Span{Start: start, End: p.cur.Span.Start}
}

func (p *Parser) parseStatementList(ctx context, done func() bool) ([]ast.Node, error) {
	var body []ast.Node
	for !done() {
		stmt, err := p.parseStatementListItem(ctx)
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	return body, nil
}

func (p *Parser) parseStatementListItem(ctx context) (ast.Node, error) {
	switch {
	case p.isKeyword("function"):
		return p.parseFunctionDeclaration(ctx, false)
	case p.isContextualKeyword("async") && p.peekIsFunctionNoLineBreak():
		return p.parseFunctionDeclaration(ctx, true)
	case p.isKeyword("class"):
		return p.parseClassDeclaration(ctx)
	case p.isContextualKeyword("let") || p.isKeyword("const"):
		return p.parseVariableStatement(ctx)
	case p.isKeyword("import"):
		return p.parseImportDeclaration(ctx)
	case p.isKeyword("export"):
		return p.parseExportDeclaration(ctx)
	default:
		return p.parseStatement(ctx)
	}
}

// peekIsFunctionNoLineBreak looks ahead for "async function" with no
// intervening line terminator (required by the grammar so ASI doesn't
// split `async\nfunction f(){}` into an expression statement).
func (p *Parser) peekIsFunctionNoLineBreak() bool {
	save := p.lex.Save()
	savedCur, savedGoal := p.cur, p.goal
	defer func() { p.lex.Rewind(save); p.cur, p.goal = savedCur, savedGoal }()

	if err := p.advance(); err != nil {
		return false
	}
	return p.isKeyword("function") && !p.cur.PrecededByLineTerminator
}

func (p *Parser) parseStatement(ctx context) (ast.Node, error) {
	switch {
	case p.isPunct("{"):
		return p.parseBlockStatement(ctx)
	case p.isKeyword("var"):
		return p.parseVariableStatement(ctx)
	case p.isPunct(";"):
		start := p.cur.Span
		return &ast.EmptyStatement{Base: ast.NewBase(start)}, p.advance()
	case p.isKeyword("if"):
		return p.parseIfStatement(ctx)
	case p.isKeyword("for"):
		return p.parseForStatement(ctx)
	case p.isKeyword("while"):
		return p.parseWhileStatement(ctx)
	case p.isKeyword("do"):
		return p.parseDoWhileStatement(ctx)
	case p.isKeyword("break"):
		return p.parseBreakContinue(ctx, true)
	case p.isKeyword("continue"):
		return p.parseBreakContinue(ctx, false)
	case p.isKeyword("return"):
		return p.parseReturnStatement(ctx)
	case p.isKeyword("throw"):
		return p.parseThrowStatement(ctx)
	case p.isKeyword("try"):
		return p.parseTryStatement(ctx)
	case p.isKeyword("switch"):
		return p.parseSwitchStatement(ctx)
	case p.isKeyword("debugger"):
		start := p.cur.Span
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.consumeSemicolon(); err != nil {
			return nil, err
		}
		return &ast.DebuggerStatement{Base: ast.NewBase(start)}, nil
	case p.isKeyword("with"):
		return nil, p.errorf("'with' statements are not supported")
	default:
		return p.parseExpressionOrLabeledStatement(ctx)
	}
}

func (p *Parser) parseBlockStatement(ctx context) (*ast.BlockStatement, error) {
	start := p.startSpan()
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	body, err := p.parseStatementList(ctx, func() bool { return p.isPunct("}") })
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &ast.BlockStatement{Base: ast.NewBase(p.spanFromStart(start)), Body: body}, nil
}

// consumeSemicolon implements ASI: a ";" is consumed if present;
// otherwise insertion is allowed only before "}", at EOF, or after a
// line terminator (spec.md §4.2 Automatic Semicolon Insertion).
func (p *Parser) consumeSemicolon() error {
	if p.isPunct(";") {
		return p.advance()
	}
	if p.isPunct("}") || p.cur.Kind == token.EOF || p.cur.PrecededByLineTerminator {
		return nil
	}
	return p.errorf("expected ';', got %q", p.tokenText())
}

func (p *Parser) parseExpressionOrLabeledStatement(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if p.cur.Kind == token.Identifier {
		// Lookahead for "ident :" (labelled statement).
		save := p.lex.Save()
		savedCur, savedGoal := p.cur, p.goal
		name := p.cur.Sym
		if err := p.advance(); err != nil {
			return nil, err
		}
		if p.isPunct(":") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			p.labels = append(p.labels, labelEntry{name: name})
			body, err := p.parseStatement(ctx)
			p.labels = p.labels[:len(p.labels)-1]
			if err != nil {
				return nil, err
			}
			label := &ast.Identifier{Base: ast.NewBase(savedCur.Span), Name: name}
			return &ast.LabeledStatement{Base: ast.NewBase(p.spanFromStart(start)), Label: label, Body: body}, nil
		}
		p.lex.Rewind(save)
		p.cur, p.goal = savedCur, savedGoal
	}

	expr, err := p.parseExpression(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Base: ast.NewBase(p.spanFromStart(start)), Expression: expr}, nil
}

func (p *Parser) parseVariableStatement(ctx context) (ast.Node, error) {
	start := p.startSpan()
	decl, err := p.parseVariableDeclaration(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	decl.Loc = p.spanFromStart(start)
	return decl, nil
}

func (p *Parser) parseVariableDeclaration(ctx context, requireInit bool) (*ast.VariableDeclaration, error) {
	start := p.startSpan()
	var kind ast.DeclKind
	switch {
	case p.isKeyword("var"):
		kind = ast.Var
	case p.isContextualKeyword("let"):
		kind = ast.Let
	case p.isKeyword("const"):
		kind = ast.Const
	default:
		return nil, p.errorf("expected var/let/const")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	var decls []*ast.VariableDeclarator
	for {
		id, err := p.parseBindingTarget(ctx)
		if err != nil {
			return nil, err
		}
		var init ast.Node
		if p.isPunct("=") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			init, err = p.parseAssignmentExpression(ctx)
			if err != nil {
				return nil, err
			}
		} else if kind == ast.Const && requireInit {
			return nil, p.errorf("missing initializer in const declaration")
		}
		decls = append(decls, &ast.VariableDeclarator{ID: id, Init: init})
		if !p.isPunct(",") {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return &ast.VariableDeclaration{Base: ast.NewBase(p.spanFromStart(start)), Kind: kind, Declarations: decls}, nil
}

func (p *Parser) parseBindingTarget(ctx context) (ast.Node, error) {
	switch {
	case p.isPunct("["):
		return p.parseArrayPattern(ctx)
	case p.isPunct("{"):
		return p.parseObjectPattern(ctx)
	default:
		return p.parseBindingIdentifier(ctx)
	}
}

func (p *Parser) parseBindingIdentifier(ctx context) (*ast.Identifier, error) {
	if p.cur.Kind != token.Identifier && p.cur.Kind != token.Keyword {
		return nil, p.errorf("expected binding identifier, got %q", p.tokenText())
	}
	if ctx.strict && isStrictReserved(p.cur.Text) {
		return nil, p.errorf("%q is reserved in strict mode", p.cur.Text)
	}
	if ctx.yield && p.cur.Text == "yield" {
		return nil, p.errorf("'yield' is not a valid binding identifier here")
	}
	if ctx.await && p.cur.Text == "await" {
		return nil, p.errorf("'await' is not a valid binding identifier here")
	}
	id := &ast.Identifier{Base: ast.NewBase(p.cur.Span), Name: p.cur.Sym}
	return id, p.advance()
}

func isStrictReserved(name string) bool {
	switch name {
	case "implements", "interface", "package", "private", "protected", "public", "static", "let", "yield", "arguments", "eval":
		return true
	default:
		return false
	}
}

func (p *Parser) parseArrayPattern(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if _, err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var elems []ast.Node
	for !p.isPunct("]") {
		if p.isPunct(",") {
			elems = append(elems, nil)
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		if p.isPunct("...") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			target, err := p.parseBindingTarget(ctx)
			if err != nil {
				return nil, err
			}
			elems = append(elems, &ast.RestElement{Argument: target})
			break
		}
		target, err := p.parseBindingTarget(ctx)
		if err != nil {
			return nil, err
		}
		if p.isPunct("=") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			def, err := p.parseAssignmentExpression(ctx)
			if err != nil {
				return nil, err
			}
			target = &ast.AssignmentPattern{Left: target, Right: def}
		}
		elems = append(elems, target)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return &ast.ArrayPattern{Base: ast.NewBase(p.spanFromStart(start)), Elements: elems}, nil
}

func (p *Parser) parseObjectPattern(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var props []*ast.ObjectPatternProperty
	var rest ast.Node
	for !p.isPunct("}") {
		if p.isPunct("...") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			target, err := p.parseBindingIdentifier(ctx)
			if err != nil {
				return nil, err
			}
			rest = &ast.RestElement{Argument: target}
			break
		}
		propStart := p.startSpan()
		computed := false
		var key ast.Node
		if p.isPunct("[") {
			computed = true
			if err := p.advance(); err != nil {
				return nil, err
			}
			k, err := p.parseAssignmentExpression(context{in: true})
			if err != nil {
				return nil, err
			}
			key = k
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
		} else {
			k, err := p.parsePropertyKeyLiteral()
			if err != nil {
				return nil, err
			}
			key = k
		}
		var value ast.Node
		shorthand := false
		if p.isPunct(":") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			v, err := p.parseBindingTarget(ctx)
			if err != nil {
				return nil, err
			}
			value = v
		} else {
			ident, ok := key.(*ast.Identifier)
			if !ok {
				return nil, p.errorf("invalid shorthand property in destructuring pattern")
			}
			value = ident
			shorthand = true
		}
		if p.isPunct("=") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			def, err := p.parseAssignmentExpression(ctx)
			if err != nil {
				return nil, err
			}
			value = &ast.AssignmentPattern{Left: value, Right: def}
		}
		props = append(props, &ast.ObjectPatternProperty{
			Base: ast.NewBase(p.spanFromStart(propStart)), Key: key, Value: value,
			Computed: computed, Shorthand: shorthand,
		})
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &ast.ObjectPattern{Base: ast.NewBase(p.spanFromStart(start)), Properties: props, Rest: rest}, nil
}

func (p *Parser) parsePropertyKeyLiteral() (ast.Node, error) {
	switch p.cur.Kind {
	case token.Identifier, token.Keyword:
		id := &ast.Identifier{Base: ast.NewBase(p.cur.Span), Name: p.cur.Sym}
		return id, p.advance()
	case token.StringLiteral:
		lit := &ast.Literal{Base: ast.NewBase(p.cur.Span), Kind: token.StringLiteral, Str: p.cur.Cooked}
		return lit, p.advance()
	case token.NumericLiteral:
		lit := &ast.Literal{Base: ast.NewBase(p.cur.Span), Kind: token.NumericLiteral, Num: p.cur.NumValue}
		return lit, p.advance()
	default:
		return nil, p.errorf("expected property key, got %q", p.tokenText())
	}
}

// ---- Control-flow statements ------------------------------------------

func (p *Parser) parseIfStatement(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil { // 'if'
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	test, err := p.parseExpression(context{in: true, yield: ctx.yield, await: ctx.await, strict: ctx.strict})
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	consequent, err := p.parseStatement(ctx)
	if err != nil {
		return nil, err
	}
	var alternate ast.Node
	if p.isKeyword("else") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		alternate, err = p.parseStatement(ctx)
		if err != nil {
			return nil, err
		}
	}
	return &ast.IfStatement{Base: ast.NewBase(p.spanFromStart(start)), Test: test, Consequent: consequent, Alternate: alternate}, nil
}

func (p *Parser) parseWhileStatement(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	test, err := p.parseExpression(withIn(ctx, true))
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	p.labels = append(p.labels, labelEntry{isIteration: true})
	body, err := p.parseStatement(ctx)
	p.labels = p.labels[:len(p.labels)-1]
	if err != nil {
		return nil, err
	}
	return &ast.WhileStatement{Base: ast.NewBase(p.spanFromStart(start)), Test: test, Body: body}, nil
}

func (p *Parser) parseDoWhileStatement(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil { // 'do'
		return nil, err
	}
	p.labels = append(p.labels, labelEntry{isIteration: true})
	body, err := p.parseStatement(ctx)
	p.labels = p.labels[:len(p.labels)-1]
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("while") {
		return nil, p.errorf("expected 'while', got %q", p.tokenText())
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	test, err := p.parseExpression(withIn(ctx, true))
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	// the trailing ';' after do-while is ASI-eligible even without a
	// line terminator (spec.md §4.2 special-cases do-while).
	if p.isPunct(";") {
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return &ast.DoWhileStatement{Base: ast.NewBase(p.spanFromStart(start)), Body: body, Test: test}, nil
}

func withIn(ctx context, in bool) context { ctx.in = in; return ctx }

func (p *Parser) parseForStatement(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil { // 'for'
		return nil, err
	}
	isAwait := false
	if p.isContextualKeyword("await") {
		isAwait = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}

	var init ast.Node
	noInCtx := withIn(ctx, false)
	switch {
	case p.isPunct(";"):
		// no init
	case p.isKeyword("var") || p.isContextualKeyword("let") || p.isKeyword("const"):
		decl, err := p.parseVariableDeclaration(noInCtx, false)
		if err != nil {
			return nil, err
		}
		init = decl
	default:
		expr, err := p.parseExpression(noInCtx)
		if err != nil {
			return nil, err
		}
		init = expr
	}

	if p.isKeyword("in") || p.isContextualKeyword("of") {
		of := p.isContextualKeyword("of")
		if err := p.advance(); err != nil {
			return nil, err
		}
		left := init
		if decl, ok := init.(*ast.VariableDeclaration); ok {
			if len(decl.Declarations) != 1 {
				return nil, p.errorf("for-in/of loop variable declaration may not have multiple bindings")
			}
		} else {
			left = toAssignmentTarget(init)
		}
		right, err := p.parseAssignmentExpression(withIn(ctx, true))
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		p.labels = append(p.labels, labelEntry{isIteration: true})
		body, err := p.parseStatement(ctx)
		p.labels = p.labels[:len(p.labels)-1]
		if err != nil {
			return nil, err
		}
		return &ast.ForInStatement{Base: ast.NewBase(p.spanFromStart(start)), Left: left, Right: right, Body: body, Of: of, IsAwait: isAwait}, nil
	}

	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	var test ast.Node
	if !p.isPunct(";") {
		t, err := p.parseExpression(withIn(ctx, true))
		if err != nil {
			return nil, err
		}
		test = t
	}
	if _, err := p.expectPunct(";"); err != nil {
		return nil, err
	}
	var update ast.Node
	if !p.isPunct(")") {
		u, err := p.parseExpression(withIn(ctx, true))
		if err != nil {
			return nil, err
		}
		update = u
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	p.labels = append(p.labels, labelEntry{isIteration: true})
	body, err := p.parseStatement(ctx)
	p.labels = p.labels[:len(p.labels)-1]
	if err != nil {
		return nil, err
	}
	return &ast.ForStatement{Base: ast.NewBase(p.spanFromStart(start)), Init: init, Test: test, Update: update, Body: body}, nil
}

func (p *Parser) parseBreakContinue(ctx context, isBreak bool) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil {
		return nil, err
	}
	var label *ast.Identifier
	if p.cur.Kind == token.Identifier && !p.cur.PrecededByLineTerminator {
		label = &ast.Identifier{Base: ast.NewBase(p.cur.Span), Name: p.cur.Sym}
		if !p.labelInScope(label.Name) {
			return nil, p.errorf("undefined label")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else if len(p.labels) == 0 || !p.anyEnclosingIterationOrSwitch(isBreak) {
		return nil, p.errorf("illegal break/continue statement outside of loop or switch")
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	if isBreak {
		return &ast.BreakStatement{Base: ast.NewBase(p.spanFromStart(start)), Label: label}, nil
	}
	return &ast.ContinueStatement{Base: ast.NewBase(p.spanFromStart(start)), Label: label}, nil
}

func (p *Parser) labelInScope(name interner.Symbol) bool {
	for _, l := range p.labels {
		if l.name == name {
			return true
		}
	}
	return false
}

func (p *Parser) anyEnclosingIterationOrSwitch(isBreak bool) bool {
	for _, l := range p.labels {
		if l.isIteration || (isBreak && l.isSwitch) {
			return true
		}
	}
	return false
}

func (p *Parser) parseReturnStatement(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil {
		return nil, err
	}
	var arg ast.Node
	if !p.isPunct(";") && !p.isPunct("}") && p.cur.Kind != token.EOF && !p.cur.PrecededByLineTerminator {
		a, err := p.parseExpression(withIn(ctx, true))
		if err != nil {
			return nil, err
		}
		arg = a
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.ReturnStatement{Base: ast.NewBase(p.spanFromStart(start)), Argument: arg}, nil
}

func (p *Parser) parseThrowStatement(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.PrecededByLineTerminator {
		return nil, p.errorf("illegal newline after 'throw'")
	}
	arg, err := p.parseExpression(withIn(ctx, true))
	if err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.ThrowStatement{Base: ast.NewBase(p.spanFromStart(start)), Argument: arg}, nil
}

func (p *Parser) parseTryStatement(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil {
		return nil, err
	}
	block, err := p.parseBlockStatement(ctx)
	if err != nil {
		return nil, err
	}
	var handler *ast.CatchClause
	if p.isKeyword("catch") {
		catchStart := p.startSpan()
		if err := p.advance(); err != nil {
			return nil, err
		}
		var param ast.Node
		if p.isPunct("(") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			param, err = p.parseBindingTarget(ctx)
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
		}
		body, err := p.parseBlockStatement(ctx)
		if err != nil {
			return nil, err
		}
		handler = &ast.CatchClause{Base: ast.NewBase(p.spanFromStart(catchStart)), Param: param, Body: body}
	}
	var finalizer *ast.BlockStatement
	if p.isKeyword("finally") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		finalizer, err = p.parseBlockStatement(ctx)
		if err != nil {
			return nil, err
		}
	}
	if handler == nil && finalizer == nil {
		return nil, p.errorf("missing catch or finally after try block")
	}
	return &ast.TryStatement{Base: ast.NewBase(p.spanFromStart(start)), Block: block, Handler: handler, Finalizer: finalizer}, nil
}

func (p *Parser) parseSwitchStatement(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	disc, err := p.parseExpression(withIn(ctx, true))
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	p.labels = append(p.labels, labelEntry{isSwitch: true})
	defer func() { p.labels = p.labels[:len(p.labels)-1] }()

	var cases []*ast.SwitchCase
	seenDefault := false
	for !p.isPunct("}") {
		caseStart := p.startSpan()
		var test ast.Node
		if p.isKeyword("default") {
			if seenDefault {
				return nil, p.errorf("more than one default clause in switch statement")
			}
			seenDefault = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		} else if p.isKeyword("case") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			test, err = p.parseExpression(withIn(ctx, true))
			if err != nil {
				return nil, err
			}
		} else {
			return nil, p.errorf("expected 'case' or 'default', got %q", p.tokenText())
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}
		var body []ast.Node
		for !p.isPunct("}") && !p.isKeyword("case") && !p.isKeyword("default") {
			stmt, err := p.parseStatementListItem(ctx)
			if err != nil {
				return nil, err
			}
			body = append(body, stmt)
		}
		cases = append(cases, &ast.SwitchCase{Base: ast.NewBase(p.spanFromStart(caseStart)), Test: test, Consequent: body})
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &ast.SwitchStatement{Base: ast.NewBase(p.spanFromStart(start)), Discriminant: disc, Cases: cases}, nil
}

// ---- Functions & classes ------------------------------------------------

func (p *Parser) parseFunctionDeclaration(ctx context, isAsync bool) (ast.Node, error) {
	start := p.startSpan()
	if isAsync {
		if err := p.advance(); err != nil { // 'async'
			return nil, err
		}
	}
	if err := p.advance(); err != nil { // 'function'
		return nil, err
	}
	isGenerator := false
	if p.isPunct("*") {
		isGenerator = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	var id *ast.Identifier
	if p.cur.Kind == token.Identifier {
		ident, err := p.parseBindingIdentifier(ctx)
		if err != nil {
			return nil, err
		}
		id = ident
	}
	fnCtx := context{yield: isGenerator, await: isAsync}
	params, err := p.parseFormalParameters(fnCtx)
	if err != nil {
		return nil, err
	}
	body, strict, err := p.parseFunctionBody(fnCtx)
	if err != nil {
		return nil, err
	}
	if strict {
		if err := checkStrictParams(params); err != nil {
			return nil, err
		}
	}
	return &ast.FunctionDeclaration{
		Base: ast.NewBase(p.spanFromStart(start)), ID: id, Params: params, Body: body,
		IsGenerator: isGenerator, IsAsync: isAsync, IsStrict: strict || ctx.strict,
	}, nil
}

func checkStrictParams(params []*ast.FunctionParam) error {
	seen := map[interner.Symbol]bool{}
	for _, param := range params {
		id, ok := param.Pattern.(*ast.Identifier)
		if !ok {
			continue
		}
		if seen[id.Name] {
			return &Error{Span: id.Span(), Message: "duplicate parameter name not allowed in this context"}
		}
		seen[id.Name] = true
	}
	return nil
}

func (p *Parser) parseFormalParameters(ctx context) ([]*ast.FunctionParam, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var params []*ast.FunctionParam
	for !p.isPunct(")") {
		paramStart := p.startSpan()
		if p.isPunct("...") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			target, err := p.parseBindingTarget(ctx)
			if err != nil {
				return nil, err
			}
			params = append(params, &ast.FunctionParam{Base: ast.NewBase(p.spanFromStart(paramStart)), Pattern: &ast.RestElement{Argument: target}})
			break
		}
		target, err := p.parseBindingTarget(ctx)
		if err != nil {
			return nil, err
		}
		var def ast.Node
		if p.isPunct("=") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			def, err = p.parseAssignmentExpression(withIn(ctx, true))
			if err != nil {
				return nil, err
			}
		}
		params = append(params, &ast.FunctionParam{Base: ast.NewBase(p.spanFromStart(paramStart)), Pattern: target, Default: def})
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return params, nil
}

// parseFunctionBody parses the "{ ... }" body and reports whether a
// "use strict" directive prologue entry was present.
func (p *Parser) parseFunctionBody(ctx context) (*ast.BlockStatement, bool, error) {
	start := p.startSpan()
	if _, err := p.expectPunct("{"); err != nil {
		return nil, false, err
	}
	strict := ctx.strict
	var body []ast.Node
	inPrologue := true
	for !p.isPunct("}") {
		if inPrologue && p.cur.Kind == token.StringLiteral {
			text := p.cur.Cooked
			stmt, err := p.parseStatementListItem(ctx)
			if err != nil {
				return nil, false, err
			}
			if exprStmt, ok := stmt.(*ast.ExpressionStatement); ok {
				if _, ok := exprStmt.Expression.(*ast.Literal); ok && text == "use strict" {
					strict = true
				}
			}
			body = append(body, stmt)
			continue
		}
		inPrologue = false
		stmt, err := p.parseStatementListItem(context{in: ctx.in, yield: ctx.yield, await: ctx.await, strict: strict})
		if err != nil {
			return nil, false, err
		}
		body = append(body, stmt)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, false, err
	}
	return &ast.BlockStatement{Base: ast.NewBase(p.spanFromStart(start)), Body: body}, strict, nil
}

func (p *Parser) parseClassDeclaration(ctx context) (ast.Node, error) {
	node, err := p.parseClassTail(ctx, true)
	if err != nil {
		return nil, err
	}
	return node.(*ast.ClassDeclaration), nil
}

func (p *Parser) parseClassTail(ctx context, isDeclaration bool) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil { // 'class'
		return nil, err
	}
	classCtx := context{strict: true}
	var id *ast.Identifier
	if p.cur.Kind == token.Identifier {
		ident, err := p.parseBindingIdentifier(classCtx)
		if err != nil {
			return nil, err
		}
		id = ident
	} else if isDeclaration {
		return nil, p.errorf("class declaration requires a name")
	}
	var super ast.Node
	if p.isKeyword("extends") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		s, err := p.parseLeftHandSideExpression(withIn(classCtx, true))
		if err != nil {
			return nil, err
		}
		super = s
	}
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var members []*ast.ClassMember
	for !p.isPunct("}") {
		if p.isPunct(";") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		member, err := p.parseClassMember(classCtx)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	span := ast.NewBase(p.spanFromStart(start))
	if isDeclaration {
		return &ast.ClassDeclaration{Base: span, ID: id, SuperClass: super, Members: members}, nil
	}
	return &ast.ClassExpression{Base: span, ID: id, SuperClass: super, Members: members}, nil
}

func (p *Parser) parseClassMember(ctx context) (*ast.ClassMember, error) {
	start := p.startSpan()
	isStatic := false
	if p.isContextualKeyword("static") && !p.peekIsPunctAfterIdent("(", "=", ";") {
		isStatic = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	kind := "method"
	isAsync := false
	isGenerator := false
	if p.isContextualKeyword("async") && !p.peekIsPunctAfterIdent("(", "=", ";") && !p.cur.PrecededByLineTerminator {
		isAsync = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.isPunct("*") {
		isGenerator = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if (p.isContextualKeyword("get") || p.isContextualKeyword("set")) && !p.peekIsPunctAfterIdent("(", "=", ";") {
		if p.isContextualKeyword("get") {
			kind = "get"
		} else {
			kind = "set"
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	isPrivate := false
	var key ast.Node
	computed := false
	if p.cur.Kind == token.PrivateIdentifier {
		isPrivate = true
		key = &ast.PrivateIdentifier{Base: ast.NewBase(p.cur.Span), Name: p.cur.Sym}
		if err := p.advance(); err != nil {
			return nil, err
		}
	} else if p.isPunct("[") {
		computed = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		k, err := p.parseAssignmentExpression(context{in: true})
		if err != nil {
			return nil, err
		}
		key = k
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
	} else {
		k, err := p.parsePropertyKeyLiteral()
		if err != nil {
			return nil, err
		}
		key = k
		if ident, ok := k.(*ast.Identifier); ok && ident.Name.String() == "constructor" && kind == "method" && !isStatic {
			kind = "constructor"
		}
	}

	if p.isPunct("(") {
		fnCtx := context{yield: isGenerator, await: isAsync, strict: true}
		params, err := p.parseFormalParameters(fnCtx)
		if err != nil {
			return nil, err
		}
		body, _, err := p.parseFunctionBody(fnCtx)
		if err != nil {
			return nil, err
		}
		value := &ast.FunctionExpression{Params: params, Body: body, IsGenerator: isGenerator, IsAsync: isAsync, IsStrict: true}
		return &ast.ClassMember{Base: ast.NewBase(p.spanFromStart(start)), Key: key, Value: value, Kind: kind, IsStatic: isStatic, IsPrivate: isPrivate, Computed: computed}, nil
	}

	// Field declaration.
	var value ast.Node
	if p.isPunct("=") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := p.parseAssignmentExpression(context{in: true, strict: true})
		if err != nil {
			return nil, err
		}
		value = v
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.ClassMember{Base: ast.NewBase(p.spanFromStart(start)), Key: key, Value: value, Kind: "field", IsStatic: isStatic, IsPrivate: isPrivate, Computed: computed}, nil
}

// peekIsPunctAfterIdent looks one token ahead without consuming the
// current one, reporting whether the following token is one of the
// given punctuators. Used to tell a contextual keyword ("static",
// "get", "set", "async") apart from its use as a plain property name.
func (p *Parser) peekIsPunctAfterIdent(puncts ...string) bool {
	save := p.lex.Save()
	savedCur, savedGoal := p.cur, p.goal
	defer func() { p.lex.Rewind(save); p.cur, p.goal = savedCur, savedGoal }()

	if err := p.advance(); err != nil {
		return false
	}
	for _, s := range puncts {
		if p.isPunct(s) {
			return true
		}
	}
	return false
}

// ---- Expressions ---------------------------------------------------------

func (p *Parser) parseExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	first, err := p.parseAssignmentExpression(ctx)
	if err != nil {
		return nil, err
	}
	if !p.isPunct(",") {
		return first, nil
	}
	exprs := []ast.Node{first}
	for p.isPunct(",") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseAssignmentExpression(ctx)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, next)
	}
	return &ast.SequenceExpression{Base: ast.NewBase(p.spanFromStart(start)), Expressions: exprs}, nil
}

var assignmentOperators = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"**=": true, "<<=": true, ">>=": true, ">>>=": true, "&=": true, "|=": true,
	"^=": true, "&&=": true, "||=": true, "??=": true,
}

func (p *Parser) parseAssignmentExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()

	if ctx.yield && p.isContextualKeyword("yield") {
		return p.parseYieldExpression(ctx)
	}

	if arrow, ok, err := p.tryParseArrowFunction(ctx, start); err != nil {
		return nil, err
	} else if ok {
		return arrow, nil
	}

	left, err := p.parseConditionalExpression(ctx)
	if err != nil {
		return nil, err
	}
	if p.cur.Kind == token.Punctuator && assignmentOperators[p.cur.Text] {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		target := left
		if op == "=" {
			target = toAssignmentTarget(left)
		}
		right, err := p.parseAssignmentExpression(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.AssignmentExpression{Base: ast.NewBase(p.spanFromStart(start)), Operator: op, Left: target, Right: right}, nil
	}
	return left, nil
}

func (p *Parser) parseYieldExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil {
		return nil, err
	}
	delegate := false
	if p.isPunct("*") {
		delegate = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	var arg ast.Node
	if !p.cur.PrecededByLineTerminator && !p.isPunct(")") && !p.isPunct("]") && !p.isPunct("}") &&
		!p.isPunct(",") && !p.isPunct(";") && p.cur.Kind != token.EOF {
		a, err := p.parseAssignmentExpression(ctx)
		if err != nil {
			return nil, err
		}
		arg = a
	}
	return &ast.YieldExpression{Base: ast.NewBase(p.spanFromStart(start)), Argument: arg, Delegate: delegate}, nil
}

// tryParseArrowFunction implements the cover-grammar disambiguation of
// spec.md §4.2: a bare identifier or a parenthesized group is
// speculatively parsed, and only reinterpreted as an arrow function's
// parameter list if "=>" immediately follows with no line terminator.
func (p *Parser) tryParseArrowFunction(ctx context, start token.Position) (ast.Node, bool, error) {
	// outerSave covers everything tried below, including a leading
	// "async" that turns out not to introduce an arrow function (e.g.
	// "async" used as a plain identifier in "async + 1").
	outerSave := p.lex.Save()
	outerCur, outerGoal := p.cur, p.goal
	rewindOuter := func() {
		p.lex.Rewind(outerSave)
		p.cur, p.goal = outerCur, outerGoal
	}

	isAsync := false
	if p.isContextualKeyword("async") {
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		if !p.cur.PrecededByLineTerminator && (p.cur.Kind == token.Identifier || p.isPunct("(")) {
			isAsync = true
		} else {
			rewindOuter()
		}
	}

	// Single bare identifier case: `x => x` / `async x => x`.
	if p.cur.Kind == token.Identifier {
		save := p.lex.Save()
		savedCur, savedGoal := p.cur, p.goal
		name := p.cur.Sym
		idSpan := p.cur.Span
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		if p.isPunct("=>") && !p.cur.PrecededByLineTerminator {
			if err := p.advance(); err != nil {
				return nil, false, err
			}
			param := &ast.FunctionParam{Base: ast.NewBase(idSpan), Pattern: &ast.Identifier{Base: ast.NewBase(idSpan), Name: name}}
			return p.finishArrowFunction(ctx, start, []*ast.FunctionParam{param}, isAsync)
		}
		p.lex.Rewind(save)
		p.cur, p.goal = savedCur, savedGoal
		if isAsync {
			rewindOuter()
			return nil, false, nil
		}
		return nil, false, nil
	}

	if !p.isPunct("(") {
		if isAsync {
			rewindOuter()
		}
		return nil, false, nil
	}

	save := p.lex.Save()
	savedCur, savedGoal := p.cur, p.goal
	savedLabels := len(p.labels)

	params, paramsErr := p.tryParseArrowParameterList(ctx)
	if paramsErr == nil && p.isPunct("=>") && !p.cur.PrecededByLineTerminator {
		if err := p.advance(); err != nil {
			return nil, false, err
		}
		return p.finishArrowFunction(ctx, start, params, isAsync)
	}

	// Not an arrow function: rewind and let the caller parse it as a
	// normal parenthesized/conditional expression.
	p.lex.Rewind(save)
	p.cur, p.goal = savedCur, savedGoal
	p.labels = p.labels[:savedLabels]
	if isAsync {
		rewindOuter()
	}
	return nil, false, nil
}

// tryParseArrowParameterList speculatively parses "(" ... ")" as a
// formal parameter list. Errors here just mean the cover grammar
// should fall back to parsing it as a parenthesized expression.
func (p *Parser) tryParseArrowParameterList(ctx context) (params []*ast.FunctionParam, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("not a parameter list")
		}
	}()
	return p.parseFormalParameters(context{yield: ctx.yield, await: ctx.await})
}

func (p *Parser) finishArrowFunction(ctx context, start token.Position, params []*ast.FunctionParam, isAsync bool) (ast.Node, bool, error) {
	fnCtx := context{await: isAsync}
	if p.isPunct("{") {
		body, strict, err := p.parseFunctionBody(fnCtx)
		if err != nil {
			return nil, false, err
		}
		if strict {
			if err := checkStrictParams(params); err != nil {
				return nil, false, err
			}
		}
		return &ast.ArrowFunctionExpression{Base: ast.NewBase(p.spanFromStart(start)), Params: params, Body: body, ExpressionBody: false, IsAsync: isAsync}, true, nil
	}
	body, err := p.parseAssignmentExpression(withIn(fnCtx, true))
	if err != nil {
		return nil, false, err
	}
	return &ast.ArrowFunctionExpression{Base: ast.NewBase(p.spanFromStart(start)), Params: params, Body: body, ExpressionBody: true, IsAsync: isAsync}, true, nil
}

func (p *Parser) parseConditionalExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	test, err := p.parseNullishExpression(ctx)
	if err != nil {
		return nil, err
	}
	if !p.isPunct("?") {
		return test, nil
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	cons, err := p.parseAssignmentExpression(withIn(ctx, true))
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(":"); err != nil {
		return nil, err
	}
	alt, err := p.parseAssignmentExpression(ctx)
	if err != nil {
		return nil, err
	}
	return &ast.ConditionalExpression{Base: ast.NewBase(p.spanFromStart(start)), Test: test, Consequent: cons, Alternate: alt}, nil
}

func (p *Parser) parseNullishExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	left, err := p.parseLogicalOrExpression(ctx)
	if err != nil {
		return nil, err
	}
	for p.isPunct("??") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicalOrExpression(ctx)
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalExpression{Base: ast.NewBase(p.spanFromStart(start)), Operator: "??", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseLogicalOrExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	left, err := p.parseLogicalAndExpression(ctx)
	if err != nil {
		return nil, err
	}
	for p.isPunct("||") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseLogicalAndExpression(ctx)
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalExpression{Base: ast.NewBase(p.spanFromStart(start)), Operator: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseLogicalAndExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	left, err := p.parseBitwiseOrExpression(ctx)
	if err != nil {
		return nil, err
	}
	for p.isPunct("&&") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBitwiseOrExpression(ctx)
		if err != nil {
			return nil, err
		}
		left = &ast.LogicalExpression{Base: ast.NewBase(p.spanFromStart(start)), Operator: "&&", Left: left, Right: right}
	}
	return left, nil
}

// binaryTiers lists left-associative binary operator tiers from
// lowest to highest, matching spec.md §4.2's operator precedence table.
var binaryTiers = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"==", "!=", "===", "!=="},
	{"<", ">", "<=", ">=", "instanceof", "in"},
	{"<<", ">>", ">>>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *Parser) parseBitwiseOrExpression(ctx context) (ast.Node, error) {
	return p.parseBinaryTier(ctx, 0)
}

func (p *Parser) parseBinaryTier(ctx context, tier int) (ast.Node, error) {
	if tier >= len(binaryTiers) {
		return p.parseExponentExpression(ctx)
	}
	start := p.startSpan()
	left, err := p.parseBinaryTier(ctx, tier+1)
	if err != nil {
		return nil, err
	}
	ops := binaryTiers[tier]
	for {
		op, ok := p.matchesAnyOperator(ops, ctx)
		if !ok {
			break
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseBinaryTier(ctx, tier+1)
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Base: ast.NewBase(p.spanFromStart(start)), Operator: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) matchesAnyOperator(ops []string, ctx context) (string, bool) {
	for _, op := range ops {
		if op == "in" && !ctx.in {
			continue
		}
		if op == "in" || op == "instanceof" {
			if p.isKeyword(op) {
				return op, true
			}
			continue
		}
		if p.isPunct(op) {
			return op, true
		}
	}
	return "", false
}

func (p *Parser) parseExponentExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	left, err := p.parseUnaryExpression(ctx)
	if err != nil {
		return nil, err
	}
	if p.isPunct("**") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseExponentExpression(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpression{Base: ast.NewBase(p.spanFromStart(start)), Operator: "**", Left: left, Right: right}, nil
	}
	return left, nil
}

var unaryOperators = map[string]bool{
	"+": true, "-": true, "~": true, "!": true,
}
var unaryKeywords = map[string]bool{
	"typeof": true, "void": true, "delete": true,
}

func (p *Parser) parseUnaryExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if ctx.await && p.isContextualKeyword("await") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		arg, err := p.parseUnaryExpression(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.AwaitExpression{Base: ast.NewBase(p.spanFromStart(start)), Argument: arg}, nil
	}
	if (p.cur.Kind == token.Punctuator && unaryOperators[p.cur.Text]) ||
		(p.cur.Kind == token.Keyword && unaryKeywords[p.cur.Text]) {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		arg, err := p.parseUnaryExpression(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Base: ast.NewBase(p.spanFromStart(start)), Operator: op, Argument: arg, Prefix: true}, nil
	}
	if p.isPunct("++") || p.isPunct("--") {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		arg, err := p.parseUnaryExpression(ctx)
		if err != nil {
			return nil, err
		}
		return &ast.UpdateExpression{Base: ast.NewBase(p.spanFromStart(start)), Operator: op, Argument: toAssignmentTarget(arg), Prefix: true}, nil
	}
	return p.parsePostfixExpression(ctx)
}

func (p *Parser) parsePostfixExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	expr, err := p.parseLeftHandSideExpression(ctx)
	if err != nil {
		return nil, err
	}
	if (p.isPunct("++") || p.isPunct("--")) && !p.cur.PrecededByLineTerminator {
		op := p.cur.Text
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.UpdateExpression{Base: ast.NewBase(p.spanFromStart(start)), Operator: op, Argument: toAssignmentTarget(expr), Prefix: false}, nil
	}
	return expr, nil
}

func (p *Parser) parseLeftHandSideExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	var expr ast.Node
	var err error
	if p.isKeyword("new") {
		expr, err = p.parseNewExpression(ctx)
	} else {
		expr, err = p.parsePrimaryExpression(ctx)
	}
	if err != nil {
		return nil, err
	}
	return p.parseCallOrMemberTail(ctx, expr, start, true)
}

func (p *Parser) parseNewExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil { // 'new'
		return nil, err
	}
	if p.isPunct(".") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !p.isContextualKeyword("target") {
			return nil, p.errorf("expected 'target' after 'new.'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return &ast.NewTargetExpression{Base: ast.NewBase(p.spanFromStart(start))}, nil
	}
	var callee ast.Node
	var err error
	if p.isKeyword("new") {
		callee, err = p.parseNewExpression(ctx)
	} else {
		callee, err = p.parsePrimaryExpression(ctx)
	}
	if err != nil {
		return nil, err
	}
	callee, err = p.parseCallOrMemberTail(ctx, callee, start, false)
	if err != nil {
		return nil, err
	}
	var args []ast.ArrayElement
	if p.isPunct("(") {
		args, err = p.parseArguments(ctx)
		if err != nil {
			return nil, err
		}
	}
	return &ast.NewExpression{Base: ast.NewBase(p.spanFromStart(start)), Callee: callee, Arguments: args}, nil
}

// parseCallOrMemberTail consumes member accesses, and, when
// allowCalls, call expressions, tagged templates, and optional-chain
// links — i.e. everything CallExpression/MemberExpression productions
// add on top of a primary expression.
func (p *Parser) parseCallOrMemberTail(ctx context, expr ast.Node, start token.Position, allowCalls bool) (ast.Node, error) {
	for {
		switch {
		case p.isPunct("."):
			if err := p.advance(); err != nil {
				return nil, err
			}
			var prop ast.Node
			if p.cur.Kind == token.PrivateIdentifier {
				prop = &ast.PrivateIdentifier{Base: ast.NewBase(p.cur.Span), Name: p.cur.Sym}
			} else if p.cur.Kind == token.Identifier || p.cur.Kind == token.Keyword {
				prop = &ast.Identifier{Base: ast.NewBase(p.cur.Span), Name: p.cur.Sym}
			} else {
				return nil, p.errorf("expected property name after '.'")
			}
			if err := p.advance(); err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{Base: ast.NewBase(p.spanFromStart(start)), Object: expr, Property: prop, Computed: false}
		case p.isPunct("?."):
			if err := p.advance(); err != nil {
				return nil, err
			}
			switch {
			case p.isPunct("("):
				if !allowCalls {
					return expr, nil
				}
				args, err := p.parseArguments(ctx)
				if err != nil {
					return nil, err
				}
				expr = &ast.CallExpression{Base: ast.NewBase(p.spanFromStart(start)), Callee: expr, Arguments: args, Optional: true}
			case p.isPunct("["):
				if err := p.advance(); err != nil {
					return nil, err
				}
				prop, err := p.parseExpression(withIn(ctx, true))
				if err != nil {
					return nil, err
				}
				if _, err := p.expectPunct("]"); err != nil {
					return nil, err
				}
				expr = &ast.MemberExpression{Base: ast.NewBase(p.spanFromStart(start)), Object: expr, Property: prop, Computed: true, Optional: true}
			default:
				var prop ast.Node
				if p.cur.Kind == token.PrivateIdentifier {
					prop = &ast.PrivateIdentifier{Base: ast.NewBase(p.cur.Span), Name: p.cur.Sym}
				} else {
					prop = &ast.Identifier{Base: ast.NewBase(p.cur.Span), Name: p.cur.Sym}
				}
				if err := p.advance(); err != nil {
					return nil, err
				}
				expr = &ast.MemberExpression{Base: ast.NewBase(p.spanFromStart(start)), Object: expr, Property: prop, Computed: false, Optional: true}
			}
		case p.isPunct("["):
			if err := p.advance(); err != nil {
				return nil, err
			}
			prop, err := p.parseExpression(withIn(ctx, true))
			if err != nil {
				return nil, err
			}
			if _, err := p.expectPunct("]"); err != nil {
				return nil, err
			}
			expr = &ast.MemberExpression{Base: ast.NewBase(p.spanFromStart(start)), Object: expr, Property: prop, Computed: true}
		case p.isPunct("(") && allowCalls:
			args, err := p.parseArguments(ctx)
			if err != nil {
				return nil, err
			}
			expr = &ast.CallExpression{Base: ast.NewBase(p.spanFromStart(start)), Callee: expr, Arguments: args}
		case (p.cur.Kind == token.NoSubstitutionTemplate || p.cur.Kind == token.TemplateHead):
			quasi, err := p.parseTemplateLiteral(ctx)
			if err != nil {
				return nil, err
			}
			expr = &ast.TaggedTemplate{Base: ast.NewBase(p.spanFromStart(start)), Tag: expr, Quasi: quasi}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArguments(ctx context) ([]ast.ArrayElement, error) {
	if _, err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var args []ast.ArrayElement
	for !p.isPunct(")") {
		spread := false
		if p.isPunct("...") {
			spread = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		arg, err := p.parseAssignmentExpression(withIn(ctx, true))
		if err != nil {
			return nil, err
		}
		args = append(args, ast.ArrayElement{Value: arg, Spread: spread})
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimaryExpression(ctx context) (ast.Node, error) {
	start := p.cur.Span
	switch {
	case p.isKeyword("this"):
		return &ast.ThisExpression{Base: ast.NewBase(start)}, p.advance()
	case p.isKeyword("super"):
		return &ast.SuperExpression{Base: ast.NewBase(start)}, p.advance()
	case p.isKeyword("null"):
		return &ast.NullLiteral{Base: ast.NewBase(start)}, p.advance()
	case p.isKeyword("true"):
		v := &ast.BooleanLiteral{Base: ast.NewBase(start), Value: true}
		return v, p.advance()
	case p.isKeyword("false"):
		v := &ast.BooleanLiteral{Base: ast.NewBase(start), Value: false}
		return v, p.advance()
	case p.cur.Kind == token.NumericLiteral:
		v := &ast.Literal{Base: ast.NewBase(start), Kind: token.NumericLiteral, Num: p.cur.NumValue}
		return v, p.advance()
	case p.cur.Kind == token.BigIntLiteral:
		v := &ast.Literal{Base: ast.NewBase(start), Kind: token.BigIntLiteral, BigInt: p.cur.BigIntDigits}
		return v, p.advance()
	case p.cur.Kind == token.StringLiteral:
		v := &ast.Literal{Base: ast.NewBase(start), Kind: token.StringLiteral, Str: p.cur.Cooked}
		return v, p.advance()
	case p.cur.Kind == token.RegexLiteral:
		v := &ast.RegExpLiteral{Base: ast.NewBase(start), Pattern: p.cur.Sym, Flags: p.cur.RegexFlags}
		return v, p.advance()
	case p.cur.Kind == token.NoSubstitutionTemplate || p.cur.Kind == token.TemplateHead:
		return p.parseTemplateLiteral(ctx)
	case p.cur.Kind == token.PrivateIdentifier:
		v := &ast.PrivateIdentifier{Base: ast.NewBase(start), Name: p.cur.Sym}
		return v, p.advance()
	case p.isKeyword("function"):
		return p.parseFunctionExpression(ctx, false)
	case p.isContextualKeyword("async") && p.peekIsFunctionNoLineBreak():
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseFunctionExpression(ctx, true)
	case p.isKeyword("class"):
		return p.parseClassTail(ctx, false)
	case p.isPunct("["):
		return p.parseArrayExpression(ctx)
	case p.isPunct("{"):
		return p.parseObjectExpression(ctx)
	case p.isPunct("("):
		return p.parseParenthesizedExpression(ctx)
	case p.cur.Kind == token.Identifier || p.cur.Kind == token.Keyword:
		id := &ast.Identifier{Base: ast.NewBase(start), Name: p.cur.Sym}
		return id, p.advance()
	default:
		return nil, p.errorf("unexpected token %q", p.tokenText())
	}
}

func (p *Parser) parseParenthesizedExpression(ctx context) (ast.Node, error) {
	if err := p.advance(); err != nil { // '('
		return nil, err
	}
	expr, err := p.parseExpression(withIn(ctx, true))
	if err != nil {
		return nil, err
	}
	if _, err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return expr, nil
}

func (p *Parser) parseFunctionExpression(ctx context, isAsync bool) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil { // 'function'
		return nil, err
	}
	isGenerator := false
	if p.isPunct("*") {
		isGenerator = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	var id *ast.Identifier
	if p.cur.Kind == token.Identifier {
		ident, err := p.parseBindingIdentifier(context{yield: isGenerator, await: isAsync})
		if err != nil {
			return nil, err
		}
		id = ident
	}
	fnCtx := context{yield: isGenerator, await: isAsync}
	params, err := p.parseFormalParameters(fnCtx)
	if err != nil {
		return nil, err
	}
	body, strict, err := p.parseFunctionBody(fnCtx)
	if err != nil {
		return nil, err
	}
	return &ast.FunctionExpression{
		Base: ast.NewBase(p.spanFromStart(start)), ID: id, Params: params, Body: body,
		IsGenerator: isGenerator, IsAsync: isAsync, IsStrict: strict,
	}, nil
}

func (p *Parser) parseArrayExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if _, err := p.expectPunct("["); err != nil {
		return nil, err
	}
	var elems []ast.ArrayElement
	for !p.isPunct("]") {
		if p.isPunct(",") {
			elems = append(elems, ast.ArrayElement{})
			if err := p.advance(); err != nil {
				return nil, err
			}
			continue
		}
		spread := false
		if p.isPunct("...") {
			spread = true
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		val, err := p.parseAssignmentExpression(withIn(ctx, true))
		if err != nil {
			return nil, err
		}
		elems = append(elems, ast.ArrayElement{Value: val, Spread: spread})
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expectPunct("]"); err != nil {
		return nil, err
	}
	return &ast.ArrayExpression{Base: ast.NewBase(p.spanFromStart(start)), Elements: elems}, nil
}

func (p *Parser) parseObjectExpression(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}
	var props []*ast.ObjectProperty
	for !p.isPunct("}") {
		prop, err := p.parseObjectProperty(ctx)
		if err != nil {
			return nil, err
		}
		props = append(props, prop)
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}
	return &ast.ObjectExpression{Base: ast.NewBase(p.spanFromStart(start)), Properties: props}, nil
}

func (p *Parser) parseObjectProperty(ctx context) (*ast.ObjectProperty, error) {
	start := p.startSpan()
	if p.isPunct("...") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		val, err := p.parseAssignmentExpression(withIn(ctx, true))
		if err != nil {
			return nil, err
		}
		return &ast.ObjectProperty{Base: ast.NewBase(p.spanFromStart(start)), Value: val, Kind: "spread"}, nil
	}

	isAsync := false
	isGenerator := false
	kind := "init"
	if p.isContextualKeyword("async") && !p.peekIsPunctAfterIdent(":", "(", ",", "}") && !p.cur.PrecededByLineTerminator {
		isAsync = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.isPunct("*") {
		isGenerator = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if (p.isContextualKeyword("get") || p.isContextualKeyword("set")) && !p.peekIsPunctAfterIdent(":", "(", ",", "}") {
		if p.isContextualKeyword("get") {
			kind = "get"
		} else {
			kind = "set"
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
	}

	computed := false
	var key ast.Node
	if p.isPunct("[") {
		computed = true
		if err := p.advance(); err != nil {
			return nil, err
		}
		k, err := p.parseAssignmentExpression(withIn(ctx, true))
		if err != nil {
			return nil, err
		}
		key = k
		if _, err := p.expectPunct("]"); err != nil {
			return nil, err
		}
	} else {
		k, err := p.parsePropertyKeyLiteral()
		if err != nil {
			return nil, err
		}
		key = k
	}

	if p.isPunct("(") {
		fnCtx := context{yield: isGenerator, await: isAsync}
		params, err := p.parseFormalParameters(fnCtx)
		if err != nil {
			return nil, err
		}
		body, strict, err := p.parseFunctionBody(fnCtx)
		if err != nil {
			return nil, err
		}
		fn := &ast.FunctionExpression{Params: params, Body: body, IsGenerator: isGenerator, IsAsync: isAsync, IsStrict: strict}
		if kind == "init" {
			kind = "method"
		}
		return &ast.ObjectProperty{Base: ast.NewBase(p.spanFromStart(start)), Key: key, Value: fn, Computed: computed, Kind: kind}, nil
	}

	if p.isPunct(":") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		val, err := p.parseAssignmentExpression(withIn(ctx, true))
		if err != nil {
			return nil, err
		}
		return &ast.ObjectProperty{Base: ast.NewBase(p.spanFromStart(start)), Key: key, Value: val, Computed: computed, Kind: "init"}, nil
	}

	// Shorthand property, optionally with a CoverInitializedName
	// default (only meaningful inside a destructuring pattern; carried
	// through as an AssignmentPattern value so the reinterpretation
	// in toAssignmentTarget can recover it).
	ident, ok := key.(*ast.Identifier)
	if !ok {
		return nil, p.errorf("invalid shorthand property")
	}
	var value ast.Node = ident
	if p.isPunct("=") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		def, err := p.parseAssignmentExpression(withIn(ctx, true))
		if err != nil {
			return nil, err
		}
		value = &ast.AssignmentPattern{Left: ident, Right: def}
	}
	return &ast.ObjectProperty{Base: ast.NewBase(p.spanFromStart(start)), Key: key, Value: value, Computed: false, Shorthand: true, Kind: "init"}, nil
}

func (p *Parser) parseTemplateLiteral(ctx context) (*ast.TemplateLiteral, error) {
	start := p.cur.Span
	var quasis []ast.TemplateElement
	var exprs []ast.Node

	if p.cur.Kind == token.NoSubstitutionTemplate {
		quasis = append(quasis, ast.TemplateElement{Cooked: p.cur.Cooked, Raw: p.cur.Raw, Tail: true})
		return &ast.TemplateLiteral{Base: ast.NewBase(start), Quasis: quasis}, p.advance()
	}

	quasis = append(quasis, ast.TemplateElement{Cooked: p.cur.Cooked, Raw: p.cur.Raw})
	if err := p.advance(); err != nil {
		return nil, err
	}
	for {
		expr, err := p.parseExpression(withIn(ctx, true))
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
		if !p.isPunct("}") {
			return nil, p.errorf("expected '}' to resume template literal")
		}
		cont, err := p.lex.LexTemplateContinuation()
		if err != nil {
			return nil, err
		}
		p.cur = cont
		quasis = append(quasis, ast.TemplateElement{Cooked: p.cur.Cooked, Raw: p.cur.Raw, Tail: p.cur.Kind == token.TemplateTail})
		isTail := p.cur.Kind == token.TemplateTail
		if err := p.advance(); err != nil {
			return nil, err
		}
		if isTail {
			break
		}
	}
	return &ast.TemplateLiteral{Base: ast.NewBase(p.spanFromStart(start.Start)), Quasis: quasis, Expressions: exprs}, nil
}

// toAssignmentTarget reinterprets an expression parsed under the
// cover grammar (ArrayExpression/ObjectExpression) as a destructuring
// assignment target, per spec.md §4.2.
func toAssignmentTarget(expr ast.Node) ast.Node {
	switch e := expr.(type) {
	case *ast.ArrayExpression:
		var elems []ast.Node
		for _, el := range e.Elements {
			if el.Value == nil {
				elems = append(elems, nil)
				continue
			}
			target := toAssignmentTarget(el.Value)
			if el.Spread {
				target = &ast.RestElement{Argument: target}
			}
			elems = append(elems, target)
		}
		return &ast.ArrayPattern{Base: e.Base, Elements: elems}
	case *ast.ObjectExpression:
		var props []*ast.ObjectPatternProperty
		var rest ast.Node
		for _, prop := range e.Properties {
			if prop.Kind == "spread" {
				rest = &ast.RestElement{Argument: toAssignmentTarget(prop.Value)}
				continue
			}
			props = append(props, &ast.ObjectPatternProperty{
				Base: prop.Base, Key: prop.Key, Value: toAssignmentTarget(prop.Value),
				Computed: prop.Computed, Shorthand: prop.Shorthand,
			})
		}
		return &ast.ObjectPattern{Base: e.Base, Properties: props, Rest: rest}
	case *ast.AssignmentExpression:
		if e.Operator == "=" {
			return &ast.AssignmentPattern{Base: e.Base, Left: toAssignmentTarget(e.Left), Right: e.Right}
		}
		return e
	case *ast.AssignmentPattern:
		return e
	default:
		return expr
	}
}

// ---- Imports & exports ----------------------------------------------------

func (p *Parser) parseImportDeclaration(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil { // 'import'
		return nil, err
	}
	var specs []*ast.ImportSpecifier
	if p.cur.Kind == token.Identifier {
		local, err := p.parseBindingIdentifier(ctx)
		if err != nil {
			return nil, err
		}
		specs = append(specs, &ast.ImportSpecifier{Local: local, Default: true})
		if p.isPunct(",") {
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
	}
	if p.isPunct("*") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !p.isContextualKeyword("as") {
			return nil, p.errorf("expected 'as' after 'import *'")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		local, err := p.parseBindingIdentifier(ctx)
		if err != nil {
			return nil, err
		}
		specs = append(specs, &ast.ImportSpecifier{Local: local, Namespace: true})
	} else if p.isPunct("{") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		for !p.isPunct("}") {
			imported, err := p.parseBindingIdentifier(ctx)
			if err != nil {
				return nil, err
			}
			local := imported
			if p.isContextualKeyword("as") {
				if err := p.advance(); err != nil {
					return nil, err
				}
				l, err := p.parseBindingIdentifier(ctx)
				if err != nil {
					return nil, err
				}
				local = l
			}
			specs = append(specs, &ast.ImportSpecifier{Imported: imported, Local: local})
			if p.isPunct(",") {
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if _, err := p.expectPunct("}"); err != nil {
			return nil, err
		}
	}
	if !p.isContextualKeyword("from") {
		return nil, p.errorf("expected 'from' in import declaration")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind != token.StringLiteral {
		return nil, p.errorf("expected module specifier string")
	}
	source := p.cur.Cooked
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.consumeSemicolon(); err != nil {
		return nil, err
	}
	return &ast.ImportDeclaration{Base: ast.NewBase(p.spanFromStart(start)), Specifiers: specs, Source: source}, nil
}

func (p *Parser) parseExportDeclaration(ctx context) (ast.Node, error) {
	start := p.startSpan()
	if err := p.advance(); err != nil { // 'export'
		return nil, err
	}
	if p.isKeyword("default") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		var decl ast.Node
		var err error
		switch {
		case p.isKeyword("function"):
			decl, err = p.parseFunctionDeclaration(ctx, false)
		case p.isContextualKeyword("async") && p.peekIsFunctionNoLineBreak():
			decl, err = p.parseFunctionDeclaration(ctx, true)
		case p.isKeyword("class"):
			decl, err = p.parseClassDeclaration(ctx)
		default:
			decl, err = p.parseAssignmentExpression(withIn(ctx, true))
			if err == nil {
				err = p.consumeSemicolon()
			}
		}
		if err != nil {
			return nil, err
		}
		return &ast.ExportDefaultDeclaration{Base: ast.NewBase(p.spanFromStart(start)), Declaration: decl}, nil
	}
	if p.isPunct("*") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		var exported *ast.Identifier
		if p.isContextualKeyword("as") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			id, err := p.parseBindingIdentifier(ctx)
			if err != nil {
				return nil, err
			}
			exported = id
		}
		if !p.isContextualKeyword("from") {
			return nil, p.errorf("expected 'from' in export-all declaration")
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		source := p.cur.Cooked
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.consumeSemicolon(); err != nil {
			return nil, err
		}
		return &ast.ExportAllDeclaration{Base: ast.NewBase(p.spanFromStart(start)), Source: source, Exported: exported}, nil
	}
	if p.isPunct("{") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		var specs []*ast.ImportSpecifier
		for !p.isPunct("}") {
			local, err := p.parseBindingIdentifier(ctx)
			if err != nil {
				return nil, err
			}
			exported := local
			if p.isContextualKeyword("as") {
				if err := p.advance(); err != nil {
					return nil, err
				}
				e, err := p.parseBindingIdentifier(ctx)
				if err != nil {
					return nil, err
				}
				exported = e
			}
			specs = append(specs, &ast.ImportSpecifier{Imported: exported, Local: local})
			if p.isPunct(",") {
				if err := p.advance(); err != nil {
					return nil, err
				}
			}
		}
		if _, err := p.expectPunct("}"); err != nil {
			return nil, err
		}
		source := ""
		if p.isContextualKeyword("from") {
			if err := p.advance(); err != nil {
				return nil, err
			}
			source = p.cur.Cooked
			if err := p.advance(); err != nil {
				return nil, err
			}
		}
		if err := p.consumeSemicolon(); err != nil {
			return nil, err
		}
		return &ast.ExportNamedDeclaration{Base: ast.NewBase(p.spanFromStart(start)), Specifiers: specs, Source: source}, nil
	}
	decl, err := p.parseStatementListItem(ctx)
	if err != nil {
		return nil, err
	}
	return &ast.ExportNamedDeclaration{Base: ast.NewBase(p.spanFromStart(start)), Declaration: decl}, nil
}
