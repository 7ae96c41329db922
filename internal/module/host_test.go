package module

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

// fakeLoader and fakeEvaluator let Host's caching/invalidation
// behavior be tested independent of the parse/compile/run pipeline.
type fakeLoader struct {
	sources map[ModuleId]string
	loads   int
}

func (f *fakeLoader) Resolve(referrer ModuleId, specifier string) (ModuleId, error) {
	return ModuleId(specifier), nil
}

func (f *fakeLoader) Load(id ModuleId) (Source, error) {
	f.loads++
	src, ok := f.sources[id]
	if !ok {
		return Source{}, errors.New("no such module")
	}
	return Source{Code: src}, nil
}

func (f *fakeLoader) InitImportMeta(rec *Record, meta *value.Object, in *interner.Interner) {
	meta.DefineDataProperty(in.Intern("url"), value.Str(string(rec.Id)), value.AttrEnumerable)
}

type fakeEvaluator struct {
	in  *interner.Interner
	ran []string
}

func (f *fakeEvaluator) ParseModule(src string) (value.Value, error) {
	f.ran = append(f.ran, src)
	return value.UndefinedValue, nil
}

func (f *fakeEvaluator) Interner() *interner.Interner { return f.in }

func TestHostImportRunsModuleOnce(t *testing.T) {
	loader := &fakeLoader{sources: map[ModuleId]string{"a.js": "export const x = 1;"}}
	ev := &fakeEvaluator{in: interner.New()}
	h := NewHost(loader, ev)

	_, err := h.Import("", "a.js")
	require.NoError(t, err)
	_, err = h.Import("", "a.js")
	require.NoError(t, err)

	assert.Equal(t, 1, loader.loads)
	assert.Len(t, ev.ran, 1)
}

func TestHostInvalidateForcesReload(t *testing.T) {
	loader := &fakeLoader{sources: map[ModuleId]string{"a.js": "export const x = 1;"}}
	ev := &fakeEvaluator{in: interner.New()}
	h := NewHost(loader, ev)

	_, err := h.Import("", "a.js")
	require.NoError(t, err)
	h.Invalidate("a.js")
	_, err = h.Import("", "a.js")
	require.NoError(t, err)

	assert.Equal(t, 2, loader.loads)
}

func TestHostImportUnresolvedFails(t *testing.T) {
	loader := &fakeLoader{sources: map[ModuleId]string{}}
	ev := &fakeEvaluator{in: interner.New()}
	h := NewHost(loader, ev)

	_, err := h.Import("", "missing.js")
	require.Error(t, err)
}
