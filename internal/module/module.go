// Package module implements the engine's ModuleLoader seam (spec.md
// §6): resolving a bare or relative specifier to a ModuleId, loading
// its source (or a host-synthesized namespace), and seeding
// import.meta for the compiled result. Module linking itself (binding
// imported names to a dependency's exports) is the compiler/VM's
// concern; this package only gets source text, or a synthetic
// namespace, in front of them.
package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/jsengine/internal/errors"
	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// ModuleId identifies a resolved module uniquely within one Context.
// For the filesystem loader this is the cleaned absolute path; a host
// loader serving synthetic modules is free to mint any string.
type ModuleId string

// Source is module source text ready to parse, or a Synthetic
// namespace a host loader built directly without any JS source (e.g.
// exposing a Go map as a pre-populated module namespace object).
type Source struct {
	Code      string
	Synthetic *value.Object
}

// IsSynthetic reports whether this Source skips parsing entirely.
func (s Source) IsSynthetic() bool { return s.Synthetic != nil }

// Record is the loader-facing half of a module's state: its identity,
// the loader that produced it, and the namespace object import.meta
// and InitImportMeta populate. The compiler/VM own everything about a
// module's bindings and evaluation state; Record never reaches into
// that.
type Record struct {
	Id       ModuleId
	Referrer ModuleId
	Meta     *value.Object
}

// Loader is the engine's ModuleLoader interface (spec.md §6): resolve
// a specifier against the module that imported it, load the result,
// and seed that module's import.meta object. A host embedding the
// engine implements this to control where modules come from — the
// filesystem, a bundle, a network fetch, or values synthesized
// entirely in Go.
type Loader interface {
	Resolve(referrer ModuleId, specifier string) (ModuleId, error)
	Load(id ModuleId) (Source, error)
	InitImportMeta(record *Record, meta *value.Object, in *interner.Interner)
}

// FSLoader is the default Loader: specifiers are resolved relative to
// the referrer's directory, falling back to each of Roots in order
// for a specifier that isn't relative (doesn't start with "./" or
// "../" and isn't an absolute path). Ignore is a set of doublestar
// glob patterns; a resolved path matching any of them is rejected.
type FSLoader struct {
	Roots  []string
	Ignore []string
}

// NewFSLoader builds an FSLoader rooted at roots, used as the
// fallback search path for bare specifiers (import "some/lib" instead
// of a relative path).
func NewFSLoader(roots []string) *FSLoader {
	return &FSLoader{Roots: roots}
}

func isRelativeSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../") || filepath.IsAbs(specifier)
}

// Resolve implements Loader. With referrer == "" (the entry script) a
// relative specifier resolves against the current working directory;
// a bare one is still searched for in Roots.
func (l *FSLoader) Resolve(referrer ModuleId, specifier string) (ModuleId, error) {
	if isRelativeSpecifier(specifier) {
		base := "."
		if referrer != "" {
			base = filepath.Dir(string(referrer))
		}
		resolved := filepath.Clean(filepath.Join(base, specifier))
		id, err := l.resolveFile(resolved)
		if err != nil {
			return "", errors.NewModuleError(specifier, err)
		}
		return id, nil
	}

	for _, root := range l.Roots {
		candidate := filepath.Join(root, specifier)
		if id, err := l.resolveFile(candidate); err == nil {
			return id, nil
		}
	}
	return "", errors.NewModuleError(specifier, fmt.Errorf("cannot resolve %q against any root", specifier))
}

// resolveFile extends a path without an extension by trying ".js"
// then ".mjs", matching how a specifier usually omits one, and checks
// the result against Ignore before returning it.
func (l *FSLoader) resolveFile(path string) (ModuleId, error) {
	candidates := []string{path, path + ".js", path + ".mjs"}
	for _, c := range candidates {
		info, err := os.Stat(c)
		if err != nil || info.IsDir() {
			continue
		}
		abs, err := filepath.Abs(c)
		if err != nil {
			abs = c
		}
		if l.ignored(abs) {
			return "", fmt.Errorf("module %q is excluded by an ignore pattern", abs)
		}
		return ModuleId(abs), nil
	}
	return "", fmt.Errorf("no such module file: %s", path)
}

func (l *FSLoader) ignored(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range l.Ignore {
		if matched, _ := doublestar.Match(pattern, slashed); matched {
			return true
		}
	}
	return false
}

// Load implements Loader by reading the file off disk. A
// filesystem-backed Loader never returns a Synthetic Source; that
// capability is reserved for hosts that build modules directly from
// Go data.
func (l *FSLoader) Load(id ModuleId) (Source, error) {
	content, err := os.ReadFile(string(id))
	if err != nil {
		return Source{}, errors.NewModuleError(string(id), err)
	}
	return Source{Code: string(content)}, nil
}

// InitImportMeta seeds import.meta.url with a file:// URL for id,
// following the host-defined-data-slot pattern: everything else a
// host wants on import.meta (build info, feature flags) is free to
// attach through the same meta object before or after this call.
func (l *FSLoader) InitImportMeta(record *Record, meta *value.Object, in *interner.Interner) {
	url := "file://" + filepath.ToSlash(string(record.Id))
	meta.DefineDataProperty(in.Intern("url"), value.Str(url), value.AttrEnumerable)
}
