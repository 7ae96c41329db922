// Package token defines the lexical tokens produced by internal/lexer
// and consumed by internal/parser.
package token

import (
	"fmt"

	"github.com/standardbeagle/jsengine/internal/interner"
)

// Position is a single point in source text.
type Position struct {
	Line   int // 1-based
	Column int // 1-based, in code points (runes), not UTF-16 code units
	Offset int // 0-based byte offset into the source
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Span covers [Start, End) in the source.
type Span struct {
	Start Position
	End   Position
}

func (s Span) String() string { return fmt.Sprintf("%s-%s", s.Start, s.End) }

// Kind tags the variant held by a Token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF
	LineTerminator

	Identifier // sym may be a reserved word used as an identifier (sloppy mode)
	PrivateIdentifier

	NumericLiteral
	BigIntLiteral
	StringLiteral
	RegexLiteral
	NoSubstitutionTemplate
	TemplateHead
	TemplateMiddle
	TemplateTail

	Punctuator
	Keyword
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case LineTerminator:
		return "LineTerminator"
	case Identifier:
		return "Identifier"
	case PrivateIdentifier:
		return "PrivateIdentifier"
	case NumericLiteral:
		return "NumericLiteral"
	case BigIntLiteral:
		return "BigIntLiteral"
	case StringLiteral:
		return "StringLiteral"
	case RegexLiteral:
		return "RegexLiteral"
	case NoSubstitutionTemplate:
		return "NoSubstitutionTemplate"
	case TemplateHead:
		return "TemplateHead"
	case TemplateMiddle:
		return "TemplateMiddle"
	case TemplateTail:
		return "TemplateTail"
	case Punctuator:
		return "Punctuator"
	case Keyword:
		return "Keyword"
	default:
		return "Invalid"
	}
}

// Goal selects which of the three context-sensitive lexing modes the
// parser wants for the next token; see spec.md §4.1.
type Goal uint8

const (
	Division Goal = iota
	RegExp
	TemplateTailGoal
)

// Token is the tagged variant the lexer emits. Not every field is
// populated for every Kind; see the comments on each.
type Token struct {
	Kind Kind
	Span Span

	Sym interner.Symbol // Identifier, Keyword, string literal (interned form)

	// Numeric literals.
	NumValue     float64
	BigIntDigits string // preserved digit string for a trailing `n` literal

	// String / template literals.
	Cooked     string
	Raw        string
	HasEscapes bool
	ASCIIOnly  bool

	// Regex literals.
	RegexFlags interner.Symbol

	// Punctuator / keyword text, e.g. "=>", "instanceof".
	Text string

	PrecededByLineTerminator bool
}

// New builds a Token of the given kind and span; callers set the
// variant-specific fields directly since Go has no tagged-union
// literal syntax.
func New(kind Kind, span Span) Token {
	return Token{Kind: kind, Span: span}
}
