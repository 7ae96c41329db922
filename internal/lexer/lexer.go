// Package lexer tokenizes ECMAScript source text.
//
// The lexer is context-sensitive at exactly the two points spec.md
// §4.1 calls out: the parser tells it which Goal to lex under before
// every call to Next, because "/" is ambiguous between division and a
// regex literal, and a "}" closing a template substitution is
// ambiguous between ending the template and continuing it.
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nukilabs/unicodeid"

	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/token"
)

// Error is a lexical error: an invalid escape, unterminated literal,
// stray backslash, or a number immediately followed by an identifier.
type Error struct {
	Span    token.Span
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: SyntaxError: %s", e.Span.Start, e.Message)
}

// Lexer tokenizes a single source string.
type Lexer struct {
	src      string
	interner *interner.Interner

	pos      int // byte offset of the rune about to be read
	line     int
	col      int
	lastLine int // line of the previously emitted token, for ASI

	prevSignificant token.Kind // kind of the previous non-trivia token, for "/" disambiguation hints
}

// State is an opaque lexer checkpoint for the parser's limited
// backtracking (the arrow-function cover grammar in spec.md §4.2).
type State struct {
	pos, line, col int
	prevSignificant token.Kind
}

// New creates a lexer over src. The interner is shared with the
// parser/compiler that will consume the resulting tokens.
func New(src string, in *interner.Interner) *Lexer {
	return &Lexer{src: src, interner: in, line: 1, col: 1}
}

// Save captures the current position for later Rewind.
func (l *Lexer) Save() State {
	return State{pos: l.pos, line: l.line, col: l.col, prevSignificant: l.prevSignificant}
}

// Rewind restores a previously captured position.
func (l *Lexer) Rewind(s State) {
	l.pos, l.line, l.col, l.prevSignificant = s.pos, s.line, s.col, s.prevSignificant
}

func (l *Lexer) position() token.Position {
	return token.Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) eof() bool { return l.pos >= len(l.src) }

func (l *Lexer) peekByte() byte {
	if l.eof() {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) peekByteAt(off int) byte {
	if l.pos+off >= len(l.src) {
		return 0
	}
	return l.src[l.pos+off]
}

func (l *Lexer) peekRune() (rune, int) {
	if l.eof() {
		return 0, 0
	}
	return utf8.DecodeRuneInString(l.src[l.pos:])
}

// advance consumes one rune, updating line/column. Line terminators
// per the ECMAScript LineTerminator production: LF, CR, LS, PS.
func (l *Lexer) advance() rune {
	r, size := l.peekRune()
	l.pos += size
	switch r {
	case '\n', ' ', ' ':
		l.line++
		l.col = 1
	case '\r':
		// Treat CRLF as one terminator.
		if l.peekByte() == '\n' {
			l.pos++
		}
		l.line++
		l.col = 1
	default:
		l.col++
	}
	return r
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == ' ' || r == ' '
}

// skipTrivia consumes whitespace and comments, reporting whether a
// line terminator was crossed (needed for ASI and for the "no
// LineTerminator here" restrictions on return/throw/yield/etc).
func (l *Lexer) skipTrivia() bool {
	crossedLine := false
	for !l.eof() {
		r, _ := l.peekRune()
		switch {
		case isLineTerminator(r):
			crossedLine = true
			l.advance()
		case unicode.IsSpace(r):
			l.advance()
		case r == '/' && l.peekByteAt(1) == '/':
			for !l.eof() {
				r, _ := l.peekRune()
				if isLineTerminator(r) {
					break
				}
				l.advance()
			}
		case r == '/' && l.peekByteAt(1) == '*':
			l.advance()
			l.advance()
			for !l.eof() {
				r, _ := l.peekRune()
				if isLineTerminator(r) {
					crossedLine = true
				}
				if r == '*' && l.peekByteAt(1) == '/' {
					l.advance()
					l.advance()
					goto doneComment
				}
				l.advance()
			}
		doneComment:
		default:
			return crossedLine
		}
	}
	return crossedLine
}

// Next produces the next token under the given lexing Goal.
func (l *Lexer) Next(goal token.Goal) (token.Token, error) {
	crossedLine := l.skipTrivia()
	start := l.position()

	if l.eof() {
		t := token.New(token.EOF, token.Span{Start: start, End: start})
		t.PrecededByLineTerminator = crossedLine
		return t, nil
	}

	r, _ := l.peekRune()

	var (
		t   token.Token
		err error
	)
	switch {
	case r == '/' && goal == token.RegExp:
		t, err = l.lexRegex(start)
	case r == '"' || r == '\'':
		t, err = l.lexString(start, byte(r))
	case r == '`':
		t, err = l.lexTemplateHead(start)
	case unicode.IsDigit(r):
		t, err = l.lexNumber(start)
	case r == '.' && unicode.IsDigit(rune(l.peekByteAt(1))):
		t, err = l.lexNumber(start)
	case isIdentifierStart(r) || r == '\\':
		t, err = l.lexIdentifierOrKeyword(start)
	case r == '#':
		t, err = l.lexPrivateIdentifier(start)
	default:
		t, err = l.lexPunctuator(start)
	}
	if err != nil {
		return token.Token{}, err
	}
	t.PrecededByLineTerminator = crossedLine
	t.Span.Start = start
	t.Span.End = l.position()
	l.prevSignificant = t.Kind
	return t, nil
}

// PeekSemicolon implements the lookahead automatic-semicolon-insertion
// rule needs: it tells the parser whether a real ";" is next without
// consuming trivia state permanently, and whether the upcoming token
// is on a new line or "}"/EOF (the three ASI trigger conditions).
type SemicolonLookahead struct {
	Found   bool   // an explicit ";" was the next token
	Virtual bool   // ASI would insert one (line terminator, "}", or EOF)
	Next    token.Token
}

func (l *Lexer) PeekSemicolon(goal token.Goal) (SemicolonLookahead, error) {
	save := l.Save()
	defer l.Rewind(save)

	tok, err := l.Next(goal)
	if err != nil {
		return SemicolonLookahead{}, err
	}
	switch {
	case tok.Kind == token.Punctuator && tok.Text == ";":
		return SemicolonLookahead{Found: true, Next: tok}, nil
	case tok.Kind == token.EOF:
		return SemicolonLookahead{Virtual: true, Next: tok}, nil
	case tok.Kind == token.Punctuator && tok.Text == "}":
		return SemicolonLookahead{Virtual: true, Next: tok}, nil
	case tok.PrecededByLineTerminator:
		return SemicolonLookahead{Virtual: true, Next: tok}, nil
	default:
		return SemicolonLookahead{Next: tok}, nil
	}
}

// isIdentifierStart reports whether r can begin an IdentifierName: the
// ECMAScript grammar is Unicode ID_Start plus "$" and "_", which
// unicode.IsLetter only approximates (it admits letters outside
// ID_Start and misses Other_ID_Start), so classification goes through
// unicodeid rather than unicode.IsLetter.
func isIdentifierStart(r rune) bool {
	return r == '$' || r == '_' || unicodeid.IsIDStart(r)
}

// isIdentifierPart reports whether r can continue an IdentifierName:
// Unicode ID_Continue plus "$", "_", and the zero-width joiner/non-joiner
// (U+200C/U+200D), which ID_Continue itself excludes but spec.md §4.1
// admits explicitly.
func isIdentifierPart(r rune) bool {
	return r == '$' || r == '_' || unicodeid.IsIDContinue(r) || r == '‌' || r == '‍'
}

func (l *Lexer) lexPrivateIdentifier(start token.Position) (token.Token, error) {
	l.advance() // '#'
	if !isIdentifierStart(l.peekRuneOrZero()) {
		return token.Token{}, &Error{Span: token.Span{Start: start}, Message: "invalid private identifier"}
	}
	var b strings.Builder
	for isIdentifierPart(l.peekRuneOrZero()) {
		b.WriteRune(l.advance())
	}
	t := token.New(token.PrivateIdentifier, token.Span{})
	t.Sym = l.interner.Intern(b.String())
	t.Text = "#" + b.String()
	return t, nil
}

func (l *Lexer) peekRuneOrZero() rune {
	r, _ := l.peekRune()
	return r
}

func (l *Lexer) lexIdentifierOrKeyword(start token.Position) (token.Token, error) {
	var b strings.Builder
	for {
		if l.peekByte() == '\\' {
			if l.peekByteAt(1) != 'u' {
				break
			}
			l.advance()
			l.advance()
			r, err := l.readUnicodeEscape()
			if err != nil {
				return token.Token{}, err
			}
			b.WriteRune(r)
			continue
		}
		r, _ := l.peekRune()
		if b.Len() == 0 {
			if !isIdentifierStart(r) {
				break
			}
		} else if !isIdentifierPart(r) {
			break
		}
		b.WriteRune(l.advance())
	}
	name := b.String()
	if name == "" {
		return token.Token{}, &Error{Span: token.Span{Start: start}, Message: "invalid identifier"}
	}

	kind := token.Identifier
	if isKeyword(name) {
		kind = token.Keyword
	}
	t := token.New(kind, token.Span{})
	t.Sym = l.interner.Intern(name)
	t.Text = name
	return t, nil
}

func (l *Lexer) readUnicodeEscape() (rune, error) {
	if l.peekByte() == '{' {
		l.advance()
		var v int64
		start := l.pos
		for l.peekByte() != '}' {
			d, ok := hexDigit(l.peekByte())
			if !ok {
				return 0, &Error{Message: "invalid unicode escape"}
			}
			v = v*16 + int64(d)
			if v > 0x10FFFF {
				return 0, &Error{Message: "unicode escape out of range"}
			}
			l.advance()
		}
		if l.pos == start {
			return 0, &Error{Message: "empty unicode escape"}
		}
		l.advance() // '}'
		return rune(v), nil
	}
	var v int64
	for i := 0; i < 4; i++ {
		d, ok := hexDigit(l.peekByte())
		if !ok {
			return 0, &Error{Message: "invalid unicode escape"}
		}
		v = v*16 + int64(d)
		l.advance()
	}
	return rune(v), nil
}

func hexDigit(b byte) (int, bool) {
	switch {
	case b >= '0' && b <= '9':
		return int(b - '0'), true
	case b >= 'a' && b <= 'f':
		return int(b-'a') + 10, true
	case b >= 'A' && b <= 'F':
		return int(b-'A') + 10, true
	default:
		return 0, false
	}
}

var keywordSet = map[string]struct{}{
	"break": {}, "case": {}, "catch": {}, "class": {}, "const": {}, "continue": {},
	"debugger": {}, "default": {}, "delete": {}, "do": {}, "else": {}, "export": {},
	"extends": {}, "finally": {}, "for": {}, "function": {}, "if": {}, "import": {},
	"in": {}, "instanceof": {}, "new": {}, "return": {}, "super": {}, "switch": {},
	"this": {}, "throw": {}, "try": {}, "typeof": {}, "var": {}, "void": {}, "while": {},
	"with": {}, "yield": {}, "let": {}, "static": {}, "async": {}, "await": {},
	"null": {}, "true": {}, "false": {}, "of": {}, "get": {}, "set": {},
}

func isKeyword(s string) bool {
	_, ok := keywordSet[s]
	return ok
}

func (l *Lexer) lexNumber(start token.Position) (token.Token, error) {
	var b strings.Builder

	if l.peekByte() == '0' && (l.peekByteAt(1) == 'x' || l.peekByteAt(1) == 'X') {
		b.WriteByte(l.advance2())
		b.WriteByte(l.advance2())
		for isHexDigitOrSeparator(l.peekByte()) {
			b.WriteByte(l.advance2())
		}
		return l.finishNumber(start, b.String(), 16)
	}
	if l.peekByte() == '0' && (l.peekByteAt(1) == 'b' || l.peekByteAt(1) == 'B') {
		b.WriteByte(l.advance2())
		b.WriteByte(l.advance2())
		for l.peekByte() == '0' || l.peekByte() == '1' || l.peekByte() == '_' {
			b.WriteByte(l.advance2())
		}
		return l.finishNumber(start, b.String(), 2)
	}
	if l.peekByte() == '0' && (l.peekByteAt(1) == 'o' || l.peekByteAt(1) == 'O') {
		b.WriteByte(l.advance2())
		b.WriteByte(l.advance2())
		for l.peekByte() >= '0' && l.peekByte() <= '7' || l.peekByte() == '_' {
			b.WriteByte(l.advance2())
		}
		return l.finishNumber(start, b.String(), 8)
	}
	// Legacy octal: 0 followed by digits is read as a decimal literal
	// ("010" is 10); neither the lexer nor the parser rejects it in
	// strict mode.
	for unicode.IsDigit(l.peekRuneOrZero()) || l.peekByte() == '_' {
		b.WriteByte(l.advance2())
	}
	if l.peekByte() == '.' {
		b.WriteByte(l.advance2())
		for unicode.IsDigit(l.peekRuneOrZero()) || l.peekByte() == '_' {
			b.WriteByte(l.advance2())
		}
	}
	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		b.WriteByte(l.advance2())
		if l.peekByte() == '+' || l.peekByte() == '-' {
			b.WriteByte(l.advance2())
		}
		for unicode.IsDigit(l.peekRuneOrZero()) {
			b.WriteByte(l.advance2())
		}
	}
	if l.peekByte() == 'n' {
		l.advance()
		t := token.New(token.BigIntLiteral, token.Span{})
		t.BigIntDigits = strings.ReplaceAll(b.String(), "_", "")
		if err := l.rejectIdentifierStartAfterNumber(); err != nil {
			return token.Token{}, err
		}
		return t, nil
	}
	return l.finishNumber(start, b.String(), 10)
}

func (l *Lexer) advance2() byte {
	b := l.peekByte()
	l.advance()
	return b
}

func isHexDigitOrSeparator(b byte) bool {
	_, ok := hexDigit(b)
	return ok || b == '_'
}

func (l *Lexer) finishNumber(start token.Position, text string, base int) (token.Token, error) {
	if l.peekByte() == 'n' {
		l.advance()
		t := token.New(token.BigIntLiteral, token.Span{})
		t.BigIntDigits = strings.ReplaceAll(text, "_", "")
		if err := l.rejectIdentifierStartAfterNumber(); err != nil {
			return token.Token{}, err
		}
		return t, nil
	}
	clean := strings.ReplaceAll(text, "_", "")
	var f float64
	var err error
	switch base {
	case 16:
		var v uint64
		v, err = strconv.ParseUint(clean[2:], 16, 64)
		f = float64(v)
	case 2:
		var v uint64
		v, err = strconv.ParseUint(clean[2:], 2, 64)
		f = float64(v)
	case 8:
		var v uint64
		v, err = strconv.ParseUint(clean[2:], 8, 64)
		f = float64(v)
	default:
		f, err = strconv.ParseFloat(clean, 64)
	}
	if err != nil {
		return token.Token{}, &Error{Span: token.Span{Start: start}, Message: "invalid numeric literal: " + err.Error()}
	}
	if err := l.rejectIdentifierStartAfterNumber(); err != nil {
		return token.Token{}, err
	}
	t := token.New(token.NumericLiteral, token.Span{})
	t.NumValue = f
	return t, nil
}

// rejectIdentifierStartAfterNumber enforces "a numeric literal must
// not be immediately followed by an IdentifierStart or a decimal
// digit" (spec.md §4.1 Errors).
func (l *Lexer) rejectIdentifierStartAfterNumber() error {
	r, _ := l.peekRune()
	if isIdentifierStart(r) || unicode.IsDigit(r) {
		return &Error{Message: "identifier starts immediately after numeric literal"}
	}
	return nil
}

func (l *Lexer) lexString(start token.Position, quote byte) (token.Token, error) {
	l.advance() // opening quote
	var cooked strings.Builder
	var raw strings.Builder
	ascii := true
	for {
		if l.eof() {
			return token.Token{}, &Error{Span: token.Span{Start: start}, Message: "unterminated string literal"}
		}
		r, _ := l.peekRune()
		if byte(r) == quote && r < 128 {
			l.advance()
			break
		}
		if isLineTerminator(r) {
			return token.Token{}, &Error{Span: token.Span{Start: start}, Message: "unterminated string literal"}
		}
		if r == '\\' {
			raw.WriteRune(r)
			l.advance()
			if isLineTerminator(l.peekRuneOrZero()) {
				// Line continuation: consumed, contributes nothing to cooked value.
				raw.WriteRune(l.advance())
				continue
			}
			cr, err := l.readEscapeSequence()
			if err != nil {
				return token.Token{}, err
			}
			cooked.WriteRune(cr)
			if cr > 127 {
				ascii = false
			}
			continue
		}
		if r > 127 {
			ascii = false
		}
		cooked.WriteRune(r)
		raw.WriteRune(r)
		l.advance()
	}
	t := token.New(token.StringLiteral, token.Span{})
	t.Cooked = cooked.String()
	t.Raw = raw.String()
	t.ASCIIOnly = ascii
	t.Sym = l.interner.Intern(t.Cooked)
	return t, nil
}

// readEscapeSequence reads the escape body after a consumed backslash.
func (l *Lexer) readEscapeSequence() (rune, error) {
	r := l.peekRuneOrZero()
	switch r {
	case 'n':
		l.advance()
		return '\n', nil
	case 't':
		l.advance()
		return '\t', nil
	case 'r':
		l.advance()
		return '\r', nil
	case 'b':
		l.advance()
		return '\b', nil
	case 'f':
		l.advance()
		return '\f', nil
	case 'v':
		l.advance()
		return '\v', nil
	case '0':
		// "\0" only means NUL when not followed by another digit.
		if !unicode.IsDigit(rune(l.peekByteAt(1))) {
			l.advance()
			return 0, nil
		}
		return 0, &Error{Message: "octal escape sequences are not supported"}
	case 'x':
		l.advance()
		var v int
		for i := 0; i < 2; i++ {
			d, ok := hexDigit(l.peekByte())
			if !ok {
				return 0, &Error{Message: "invalid \\x escape"}
			}
			v = v*16 + d
			l.advance()
		}
		return rune(v), nil
	case 'u':
		l.advance()
		return l.readUnicodeEscape()
	default:
		if isLineTerminator(r) {
			return 0, &Error{Message: "stray line continuation"}
		}
		l.advance()
		return r, nil
	}
}

func (l *Lexer) lexTemplateHead(start token.Position) (token.Token, error) {
	l.advance() // '`'
	return l.lexTemplatePart(start, token.NoSubstitutionTemplate, token.TemplateHead)
}

// LexTemplateContinuation re-enters template lexing after the parser
// has compiled a `${ expr }` substitution and consumed the closing
// "}" under Goal TemplateTail.
func (l *Lexer) LexTemplateContinuation() (token.Token, error) {
	start := l.position()
	return l.lexTemplatePart(start, token.TemplateTail, token.TemplateMiddle)
}

func (l *Lexer) lexTemplatePart(start token.Position, endKind, midKind token.Kind) (token.Token, error) {
	var cooked strings.Builder
	var raw strings.Builder
	for {
		if l.eof() {
			return token.Token{}, &Error{Span: token.Span{Start: start}, Message: "unterminated template literal"}
		}
		r, _ := l.peekRune()
		if r == '`' {
			l.advance()
			t := token.New(endKind, token.Span{})
			t.Cooked, t.Raw = cooked.String(), raw.String()
			return t, nil
		}
		if r == '$' && l.peekByteAt(1) == '{' {
			l.advance()
			l.advance()
			t := token.New(midKind, token.Span{})
			t.Cooked, t.Raw = cooked.String(), raw.String()
			return t, nil
		}
		if r == '\\' {
			raw.WriteRune(r)
			l.advance()
			cr, err := l.readEscapeSequence()
			if err != nil {
				return token.Token{}, err
			}
			cooked.WriteRune(cr)
			continue
		}
		cooked.WriteRune(r)
		raw.WriteRune(r)
		l.advance()
	}
}

// lexRegex consumes a "/pattern/flags" literal, tracking character
// classes so an unescaped "/" inside "[...]" doesn't end the literal.
func (l *Lexer) lexRegex(start token.Position) (token.Token, error) {
	l.advance() // opening '/'
	var pattern strings.Builder
	inClass := false
	for {
		if l.eof() {
			return token.Token{}, &Error{Span: token.Span{Start: start}, Message: "unterminated regular expression"}
		}
		r, _ := l.peekRune()
		if isLineTerminator(r) {
			return token.Token{}, &Error{Span: token.Span{Start: start}, Message: "unterminated regular expression"}
		}
		if r == '\\' {
			pattern.WriteRune(r)
			l.advance()
			if l.eof() || isLineTerminator(l.peekRuneOrZero()) {
				return token.Token{}, &Error{Span: token.Span{Start: start}, Message: "unterminated regular expression"}
			}
			pattern.WriteRune(l.advance())
			continue
		}
		if r == '[' {
			inClass = true
		} else if r == ']' {
			inClass = false
		} else if r == '/' && !inClass {
			l.advance()
			break
		}
		pattern.WriteRune(r)
		l.advance()
	}
	var flags strings.Builder
	for isIdentifierPart(l.peekRuneOrZero()) {
		flags.WriteRune(l.advance())
	}
	t := token.New(token.RegexLiteral, token.Span{})
	t.Sym = l.interner.Intern(pattern.String())
	t.RegexFlags = l.interner.Intern(flags.String())
	return t, nil
}

var punctuators = []string{
	">>>=", "...", "===", "!==", "**=", "<<=", ">>=", ">>>", "&&=", "||=", "??=",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "++", "--", "**",
	"+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", ">>",
	"{", "}", "(", ")", "[", "]", ".", ";", ",", "<", ">", "+", "-", "*", "%",
	"&", "|", "^", "!", "~", "?", ":", "=", "/", "#",
}

func (l *Lexer) lexPunctuator(start token.Position) (token.Token, error) {
	rest := l.src[l.pos:]
	for _, p := range punctuators {
		if strings.HasPrefix(rest, p) {
			for range p {
				l.advance()
			}
			t := token.New(token.Punctuator, token.Span{})
			t.Text = p
			return t, nil
		}
	}
	r, _ := l.peekRune()
	return token.Token{}, &Error{Span: token.Span{Start: start}, Message: fmt.Sprintf("unexpected character %q", r)}
}
