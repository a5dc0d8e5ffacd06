package eventlog

import (
	"path/filepath"
	"testing"

	"github.com/roach88/provmap/internal/provenance"
	"github.com/roach88/provmap/internal/testutil"
)

// createTestStore opens a fresh event log in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "events.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// scenarioMap returns a map holding three registered, undrained entries.
func scenarioMap() *provenance.Map {
	m := provenance.New(provenance.WithLogger(testutil.DiscardLogger()))
	m.Register(testutil.BatchOf(
		testutil.NewEntry(0x1000, "M.A", "A.hs:10"),
		testutil.NewEntry(0x1004, "M.A", "A.hs:12"),
	))
	m.Register(testutil.BatchOf(
		testutil.NewEntry(0x2000, "M.B", "B.hs:5"),
	))
	return m
}
