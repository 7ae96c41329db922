package module

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/jsengine/internal/interner"
	"github.com/standardbeagle/jsengine/internal/value"
)

func TestFSLoaderResolveRelative(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.js")
	dep := filepath.Join(dir, "dep.js")
	require.NoError(t, os.WriteFile(entry, []byte("export const x = 1;"), 0644))
	require.NoError(t, os.WriteFile(dep, []byte("export const y = 2;"), 0644))

	l := NewFSLoader(nil)
	id, err := l.Resolve(ModuleId(entry), "./dep")
	require.NoError(t, err)
	assert.Equal(t, dep, string(id))
}

func TestFSLoaderResolveRoot(t *testing.T) {
	dir := t.TempDir()
	libDir := filepath.Join(dir, "lib")
	require.NoError(t, os.Mkdir(libDir, 0755))
	libFile := filepath.Join(libDir, "util.js")
	require.NoError(t, os.WriteFile(libFile, []byte("export const z = 3;"), 0644))

	l := NewFSLoader([]string{dir})
	id, err := l.Resolve("", "lib/util")
	require.NoError(t, err)
	abs, _ := filepath.Abs(libFile)
	assert.Equal(t, abs, string(id))
}

func TestFSLoaderIgnorePattern(t *testing.T) {
	dir := t.TempDir()
	secret := filepath.Join(dir, "secret.js")
	require.NoError(t, os.WriteFile(secret, []byte("export default 1;"), 0644))

	l := &FSLoader{Ignore: []string{"**/secret.js"}}
	_, err := l.Resolve(ModuleId(filepath.Join(dir, "main.js")), "./secret")
	require.Error(t, err)
}

func TestFSLoaderLoadMissing(t *testing.T) {
	l := NewFSLoader(nil)
	_, err := l.Load(ModuleId("/does/not/exist.js"))
	require.Error(t, err)
}

func TestFSLoaderInitImportMeta(t *testing.T) {
	l := NewFSLoader(nil)
	in := interner.New()
	meta := value.New(nil)
	rec := &Record{Id: ModuleId("/a/b.js")}
	l.InitImportMeta(rec, meta, in)

	urlKey := in.Intern("url")
	urlV, err := meta.Get(urlKey, value.ObjectValue(meta))
	require.NoError(t, err)
	assert.Equal(t, "file:///a/b.js", urlV.AsString())
}
