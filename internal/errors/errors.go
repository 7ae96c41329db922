// Package errors defines the engine's own typed error values for the
// lex/parse/compile/runtime pipeline stages, distinct from the
// JS-visible exceptions internal/jserr wraps into thrown Error objects.
// These are the errors an embedder sees back from eval()/parse_module()
// when the Go call itself fails, before any JS code has run.
package errors

import (
	"fmt"
	"time"
)

// ErrorType tags which pipeline stage raised the error.
type ErrorType string

const (
	ErrorTypeLex     ErrorType = "lex"
	ErrorTypeParse   ErrorType = "parse"
	ErrorTypeCompile ErrorType = "compile"
	ErrorTypeRuntime ErrorType = "runtime"
	ErrorTypeConfig  ErrorType = "config"
	ErrorTypeModule  ErrorType = "module"
)

// LexError reports an invalid token the lexer could not produce,
// e.g. an unterminated string or an illegal character.
type LexError struct {
	Type       ErrorType
	Source     string
	Line       int
	Column     int
	Underlying error
	Timestamp  time.Time
}

func NewLexError(source string, line, column int, err error) *LexError {
	return &LexError{
		Type:       ErrorTypeLex,
		Source:     source,
		Line:       line,
		Column:     column,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *LexError) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("%s:%d:%d: %v", e.Source, e.Line, e.Column, e.Underlying)
	}
	return fmt.Sprintf("line %d:%d: %v", e.Line, e.Column, e.Underlying)
}

func (e *LexError) Unwrap() error { return e.Underlying }

// ParseError reports a syntax error the parser raised while building
// the AST, with the offending token's text for the caret diagnostic.
type ParseError struct {
	Type       ErrorType
	Source     string
	Line       int
	Column     int
	Token      string
	Underlying error
	Timestamp  time.Time
}

func NewParseError(source string, line, column int, token string, err error) *ParseError {
	return &ParseError{
		Type:       ErrorTypeParse,
		Source:     source,
		Line:       line,
		Column:     column,
		Token:      token,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s:%d:%d (near token %q): %v",
		e.Source, e.Line, e.Column, e.Token, e.Underlying)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

// CompileError reports a failure lowering the AST to bytecode: an
// invalid binding reference, a malformed exception table region, or
// any other compiler-internal inconsistency that never reaches a JS
// SyntaxError (those stay parse errors) or a runtime exception.
type CompileError struct {
	Type       ErrorType
	Source     string
	Stage      string // which compiler pass raised it, e.g. "scope-resolution"
	Underlying error
	Timestamp  time.Time
}

func NewCompileError(source, stage string, err error) *CompileError {
	return &CompileError{
		Type:       ErrorTypeCompile,
		Source:     source,
		Stage:      stage,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compile error in %s during %s: %v", e.Source, e.Stage, e.Underlying)
}

func (e *CompileError) Unwrap() error { return e.Underlying }

// RuntimeError reports a VM-level failure that is not itself a thrown
// JS value — a host-side panic recovery, a stack exhaustion the VM
// detected before it could even construct a RangeError, or a job queue
// failure propagated out of run_jobs(). A `throw` inside JS code, by
// contrast, crosses the embedding API boundary as internal/vm.ThrownValue.
type RuntimeError struct {
	Type       ErrorType
	Operation  string
	Underlying error
	Timestamp  time.Time
}

func NewRuntimeError(op string, err error) *RuntimeError {
	return &RuntimeError{
		Type:       ErrorTypeRuntime,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime %s failed: %v", e.Operation, e.Underlying)
}

func (e *RuntimeError) Unwrap() error { return e.Underlying }

// ConfigError reports an invalid config.Config field, caught either by
// structural validation or by the jsonschema-go schema check.
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// ModuleError reports a module resolution or loading failure: a
// specifier the loader could not resolve, a read failure, or a cycle
// the linker detected.
type ModuleError struct {
	Specifier  string
	Underlying error
	Timestamp  time.Time
}

func NewModuleError(specifier string, err error) *ModuleError {
	return &ModuleError{Specifier: specifier, Underlying: err, Timestamp: time.Now()}
}

func (e *ModuleError) Error() string {
	return fmt.Sprintf("module %q failed to load: %v", e.Specifier, e.Underlying)
}

func (e *ModuleError) Unwrap() error { return e.Underlying }

// MultiError aggregates independent failures from a batch operation,
// e.g. compiling every module in a warmed module graph.
type MultiError struct {
	Errors []error
}

func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

func (e *MultiError) Unwrap() []error { return e.Errors }
