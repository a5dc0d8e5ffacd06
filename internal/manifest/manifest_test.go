package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provmap/internal/provenance"
	"github.com/roach88/provmap/internal/testutil"
)

func TestLoadYAML(t *testing.T) {
	m, err := Load("testdata/module_a.yaml")
	require.NoError(t, err)

	assert.Equal(t, "M.A", m.Module)
	assert.Len(t, m.Batches, 2)
	assert.Equal(t, 2, m.EntryCount())
	assert.Equal(t, "testdata/module_a.yaml", m.Path)

	batches, err := m.Build()
	require.NoError(t, err)
	require.Len(t, batches, 2)
	assert.True(t, batches[1].Empty())

	e := batches[0][1]
	assert.Equal(t, provenance.Key(0x1004), e.Key)
	assert.Equal(t, "M.A", e.Module, "module defaults to the manifest module")
	assert.Equal(t, "A.hs:12", e.SrcLoc)
	assert.Equal(t, "THUNK", e.ClosureDesc)
}

func TestLoadCUE(t *testing.T) {
	m, err := Load("testdata/module_b.cue")
	require.NoError(t, err)

	batches, err := m.Build()
	require.NoError(t, err)
	require.Len(t, batches, 1)

	e := batches[0][0]
	assert.Equal(t, provenance.Key(0x2000), e.Key)
	assert.Equal(t, "M.B", e.Module)
	assert.Equal(t, "Maybe Int", e.TypeDesc)
}

func TestParseYAML_UnknownField(t *testing.T) {
	_, err := ParseYAML("bad.yaml", []byte(`
batches:
  - entries:
      - key: "0x1"
        sourceloc: A.hs:1
`))
	require.Error(t, err)

	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeParse, le.Code)
	assert.Contains(t, err.Error(), "sourceloc")
}

func TestParseYAML_BadKey(t *testing.T) {
	_, err := ParseYAML("bad.yaml", []byte(`
batches:
  - entries:
      - key: "0xnope"
`))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeInvalid, le.Code)
	assert.Contains(t, le.Message, "batch 0 entry 0")
}

func TestParseYAML_MissingKey(t *testing.T) {
	_, err := ParseYAML("bad.yaml", []byte(`
batches:
  - entries:
      - table_name: t
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "key is required")
}

func TestParseCUE_SchemaRejectsUnknownField(t *testing.T) {
	_, err := ParseCUE("bad.cue", []byte(`
batches: [{entries: [{key: "0x1", sourceloc: "A.hs:1"}]}]
`))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeInvalid, le.Code)
}

func TestParseCUE_SchemaRejectsBadKey(t *testing.T) {
	_, err := ParseCUE("bad.cue", []byte(`
batches: [{entries: [{key: "zzz"}]}]
`))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeInvalid, le.Code)
}

func TestParseCUE_SyntaxError(t *testing.T) {
	_, err := ParseCUE("bad.cue", []byte(`batches: [{`))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeParse, le.Code)
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	_, err := Load("manifest.json")
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeUnsupported, le.Code)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrCodeRead, le.Code)
}

func TestLoadAll(t *testing.T) {
	ms, err := LoadAll("testdata/module_a.yaml", "testdata/module_b.cue")
	require.NoError(t, err)
	assert.Len(t, ms, 2)

	_, err = LoadAll("testdata/module_a.yaml", "nope.toml")
	assert.Error(t, err)
}

func TestRegisterAll(t *testing.T) {
	ms, err := LoadAll("testdata/module_a.yaml", "testdata/module_b.cue")
	require.NoError(t, err)

	m := provenance.New(provenance.WithLogger(testutil.DiscardLogger()))
	n, err := RegisterAll(m, ms...)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	// The empty batch in module_a is ignored by Register.
	assert.Equal(t, 2, m.Stats().StagedBatches)

	e, ok := m.Lookup(0x1004)
	require.True(t, ok)
	assert.Equal(t, "M.A", e.Module)
	assert.Equal(t, "A.hs:12", e.SrcLoc)

	_, ok = m.Lookup(0x3000)
	assert.False(t, ok)
	assert.Equal(t, 3, m.Len())
}

func TestRegisterAll_InvalidRegistersNothing(t *testing.T) {
	good, err := Load("testdata/module_a.yaml")
	require.NoError(t, err)
	bad := &Manifest{Path: "inline", Batches: []BatchSpec{{Entries: []EntrySpec{{Key: "nope"}}}}}

	m := provenance.New(provenance.WithLogger(testutil.DiscardLogger()))
	_, err = RegisterAll(m, good, bad)
	require.Error(t, err)
	assert.Equal(t, provenance.StateEmpty, m.State())
}

func TestLoadError_Format(t *testing.T) {
	assert.Equal(t, "E101: boom", (&LoadError{Code: ErrCodeRead, Message: "boom"}).Error())
	assert.Equal(t, "a.yaml: E101: boom", (&LoadError{Path: "a.yaml", Code: ErrCodeRead, Message: "boom"}).Error())
}

func TestLoadYAML_WrittenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen.yml")
	require.NoError(t, os.WriteFile(path, []byte("batches:\n  - entries:\n      - key: \"42\"\n"), 0o644))

	m, err := Load(path)
	require.NoError(t, err)
	batches, err := m.Build()
	require.NoError(t, err)
	assert.Equal(t, provenance.Key(42), batches[0][0].Key)
}
