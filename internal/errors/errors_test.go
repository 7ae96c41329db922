package errors

import (
	"errors"
	"testing"
	"time"
)

func TestLexError(t *testing.T) {
	underlying := errors.New("unterminated string literal")
	err := NewLexError("main.js", 10, 5, underlying)

	if err.Type != ErrorTypeLex {
		t.Errorf("Expected Type to be ErrorTypeLex, got %v", err.Type)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}
	expectedMsg := "main.js:10:5: unterminated string literal"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestParseError(t *testing.T) {
	underlying := errors.New("unexpected token")
	err := NewParseError("main.js", 10, 5, "identifier", underlying)

	if err.Type != ErrorTypeParse {
		t.Errorf("Expected Type to be ErrorTypeParse, got %v", err.Type)
	}
	if err.Line != 10 || err.Column != 5 {
		t.Errorf("Expected Line/Column to be 10:5, got %d:%d", err.Line, err.Column)
	}
	if err.Token != "identifier" {
		t.Errorf("Expected Token to be 'identifier', got %s", err.Token)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}
	expectedMsg := `parse error at main.js:10:5 (near token "identifier"): unexpected token`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestCompileError(t *testing.T) {
	underlying := errors.New("unresolved binding locator")
	err := NewCompileError("main.js", "scope-resolution", underlying)

	if err.Type != ErrorTypeCompile {
		t.Errorf("Expected Type to be ErrorTypeCompile, got %v", err.Type)
	}
	if err.Stage != "scope-resolution" {
		t.Errorf("Expected Stage to be 'scope-resolution', got %s", err.Stage)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}
	expectedMsg := "compile error in main.js during scope-resolution: unresolved binding locator"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestRuntimeError(t *testing.T) {
	underlying := errors.New("job queue drain failed")
	err := NewRuntimeError("run_jobs", underlying)

	if err.Type != ErrorTypeRuntime {
		t.Errorf("Expected Type to be ErrorTypeRuntime, got %v", err.Type)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}
	expectedMsg := "runtime run_jobs failed: job queue drain failed"
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestConfigError(t *testing.T) {
	underlying := errors.New("invalid value")
	err := NewConfigError("field_name", "invalid_value", underlying)

	if err.Field != "field_name" {
		t.Errorf("Expected Field to be 'field_name', got %s", err.Field)
	}
	if err.Value != "invalid_value" {
		t.Errorf("Expected Value to be 'invalid_value', got %s", err.Value)
	}
	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}
	expectedMsg := `config error for field field_name (value invalid_value): invalid value`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestModuleError(t *testing.T) {
	underlying := errors.New("no such file")
	err := NewModuleError("./missing.js", underlying)

	if !errors.Is(err, underlying) {
		t.Errorf("Expected error to unwrap to underlying error")
	}
	expectedMsg := `module "./missing.js" failed to load: no such file`
	if err.Error() != expectedMsg {
		t.Errorf("Expected error message %q, got %q", expectedMsg, err.Error())
	}
}

func TestMultiError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")
	err3 := errors.New("error 3")

	multiErr := NewMultiError([]error{err1, err2, err3})
	if len(multiErr.Errors) != 3 {
		t.Errorf("Expected 3 errors, got %d", len(multiErr.Errors))
	}
	if len(multiErr.Error()) < 10 || multiErr.Error()[:10] != "3 errors: " {
		t.Errorf("Expected message to start with '3 errors: ', got %q", multiErr.Error())
	}

	singleErr := NewMultiError([]error{err1})
	if singleErr.Error() != "error 1" {
		t.Errorf("Expected 'error 1', got %q", singleErr.Error())
	}

	emptyErr := NewMultiError([]error{})
	if emptyErr.Error() != "no errors" {
		t.Errorf("Expected 'no errors', got %q", emptyErr.Error())
	}

	nilFiltered := NewMultiError([]error{err1, nil, err2, nil})
	if len(nilFiltered.Errors) != 2 {
		t.Errorf("Expected 2 errors after filtering nil, got %d", len(nilFiltered.Errors))
	}

	unwrapped := multiErr.Unwrap()
	if len(unwrapped) != 3 {
		t.Errorf("Expected 3 unwrapped errors, got %d", len(unwrapped))
	}
}

func TestTimestamp(t *testing.T) {
	err := NewRuntimeError("test", errors.New("test"))
	if err.Timestamp.IsZero() {
		t.Errorf("Expected non-zero timestamp")
	}
	now := time.Now()
	if err.Timestamp.After(now) || now.Sub(err.Timestamp) > time.Second {
		t.Errorf("Timestamp seems incorrect: %v", err.Timestamp)
	}
}

func BenchmarkRuntimeError(b *testing.B) {
	underlying := errors.New("underlying error")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := NewRuntimeError("test operation", underlying)
		_ = err.Error()
	}
}
