package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const moduleA = `module: M.A
batches:
  - entries:
      - key: "0x1000"
        table_name: M.A_f_info
        closure_desc: FUN
        type_desc: Int -> Int
        label: f
        srcloc: A.hs:10
      - key: "0x1004"
        table_name: M.A_g_info
        closure_desc: THUNK
        type_desc: Int
        label: g
        srcloc: A.hs:12
  - entries: []
`

const moduleB = `module: "M.B"
batches: [{
	entries: [{
		key:        "0x2000"
		table_name: "M.B_h_info"
		srcloc:     "B.hs:5"
	}]
}]
`

// writeFile writes content to name inside dir and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeManifests writes the two-module fixture and returns both paths.
func writeManifests(t *testing.T) []string {
	t.Helper()
	dir := t.TempDir()
	return []string{
		writeFile(t, dir, "a.yaml", moduleA),
		writeFile(t, dir, "b.cue", moduleB),
	}
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
