package provenance_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provmap/internal/provenance"
	"github.com/roach88/provmap/internal/testutil"
)

func newTestMap(opts ...provenance.Option) *provenance.Map {
	opts = append([]provenance.Option{
		provenance.WithLogger(testutil.DiscardLogger()),
		provenance.WithInvariantChecks(true),
	}, opts...)
	return provenance.New(opts...)
}

func TestMap_ModuleScenario(t *testing.T) {
	m := newTestMap()

	m.Register(testutil.BatchOf(
		testutil.NewEntry(0x1000, "M.A", "A.hs:10"),
		testutil.NewEntry(0x1004, "M.A", "A.hs:12"),
	))
	m.Register(provenance.Batch{})
	m.Register(testutil.BatchOf(
		testutil.NewEntry(0x2000, "M.B", "B.hs:5"),
	))

	e, ok := m.Lookup(0x1004)
	require.True(t, ok)
	assert.Equal(t, "M.A", e.Module)
	assert.Equal(t, "A.hs:12", e.SrcLoc)

	_, ok = m.Lookup(0x3000)
	assert.False(t, ok)

	count := 0
	m.Traverse(func(*provenance.Entry) bool {
		count++
		return true
	})
	assert.Equal(t, 3, count)
}

func TestMap_LookupReturnsRegisteredPointer(t *testing.T) {
	m := newTestMap()
	e := testutil.NewEntry(0x10, "Data.List", "List.hs:1")
	m.Register(testutil.BatchOf(e))

	got, ok := m.Lookup(0x10)
	require.True(t, ok)
	assert.Same(t, e, got, "entries are referenced, not copied")
}

func TestMap_UnknownKeyOnEmptyMap(t *testing.T) {
	m := newTestMap()

	_, ok := m.Lookup(0xdead)
	assert.False(t, ok)
	assert.Equal(t, provenance.StateIndexed, m.State(), "lookup creates the index")
	assert.Equal(t, 0, m.Len())
}

func TestMap_EmptyBatchesAreIgnored(t *testing.T) {
	m := newTestMap()

	m.Register(nil)
	m.Register(provenance.Batch{})
	m.Register(provenance.Batch{nil, testutil.NewEntry(0x1, "M", "M.hs:1")})

	assert.Equal(t, provenance.StateEmpty, m.State())
	assert.Equal(t, 0, m.Stats().StagedBatches)
}

func TestMap_TerminatorEndsBatch(t *testing.T) {
	m := newTestMap()
	m.Register(provenance.Batch{
		testutil.NewEntry(0x1, "M", "M.hs:1"),
		testutil.NewEntry(0x2, "M", "M.hs:2"),
		nil,
		testutil.NewEntry(0x3, "M", "M.hs:3"),
	})

	_, ok := m.Lookup(0x2)
	assert.True(t, ok)
	_, ok = m.Lookup(0x3)
	assert.False(t, ok, "entries after the terminator are ignored")
	assert.Equal(t, 2, m.Len())
}

func TestMap_IdempotentDrain(t *testing.T) {
	m := newTestMap()
	seq := testutil.NewKeySequence(0x1000, 8)
	m.Register(testutil.ModuleBatch(seq, "M.A", 10))

	first := keysOf(m.Entries())
	for i := 0; i < 3; i++ {
		m.Drain()
		assert.ElementsMatch(t, first, keysOf(m.Entries()))
	}
	assert.Equal(t, 1, m.Stats().Drains, "only the first drain had work")
}

func TestMap_IncrementalVisibility(t *testing.T) {
	m := newTestMap()
	e1 := testutil.NewEntry(0x100, "M.A", "A.hs:1")
	e2 := testutil.NewEntry(0x200, "M.B", "B.hs:1")

	m.Register(testutil.BatchOf(e1))
	got, ok := m.Lookup(e1.Key)
	require.True(t, ok)
	assert.Same(t, e1, got)

	m.Register(testutil.BatchOf(e2))
	assert.Equal(t, provenance.StateStaging, m.State())

	got, ok = m.Lookup(e2.Key)
	require.True(t, ok)
	assert.Same(t, e2, got)
	assert.Equal(t, provenance.StateIndexed, m.State())

	_, ok = m.Lookup(e1.Key)
	assert.True(t, ok, "earlier entries survive later drains")
}

func TestMap_DuplicateKeyLastRegisteredWins(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
	}{
		{"same node", provenance.DefaultNodeCapacity},
		{"across nodes", 1},
		{"partial nodes", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestMap(provenance.WithNodeCapacity(tt.capacity))
			first := testutil.NewEntry(0x42, "Old", "Old.hs:1")
			filler := testutil.NewEntry(0x43, "Filler", "Filler.hs:1")
			last := testutil.NewEntry(0x42, "New", "New.hs:1")

			m.Register(testutil.BatchOf(first))
			m.Register(testutil.BatchOf(filler))
			m.Register(testutil.BatchOf(last))

			got, ok := m.Lookup(0x42)
			require.True(t, ok)
			assert.Same(t, last, got)
			assert.Equal(t, 2, m.Len())
		})
	}
}

func TestMap_DuplicateKeyWithinBatch(t *testing.T) {
	m := newTestMap()
	a := testutil.NewEntry(0x9, "A", "A.hs:1")
	b := testutil.NewEntry(0x9, "B", "B.hs:1")
	m.Register(testutil.BatchOf(a, b))

	got, ok := m.Lookup(0x9)
	require.True(t, ok)
	assert.Same(t, b, got, "later position in a batch wins")
}

func TestMap_DuplicateKeyAcrossDrains(t *testing.T) {
	m := newTestMap()
	a := testutil.NewEntry(0x9, "A", "A.hs:1")
	b := testutil.NewEntry(0x9, "B", "B.hs:1")

	m.Register(testutil.BatchOf(a))
	m.Drain()
	m.Register(testutil.BatchOf(b))

	got, ok := m.Lookup(0x9)
	require.True(t, ok)
	assert.Same(t, b, got)
}

func TestMap_ManyNodes(t *testing.T) {
	m := newTestMap(provenance.WithNodeCapacity(4))
	seq := testutil.NewKeySequence(0x10000, 16)

	for i := 0; i < 37; i++ {
		m.Register(testutil.ModuleBatch(seq, "Gen", 3))
	}

	stats := m.Stats()
	assert.Equal(t, 10, stats.StagedNodes)
	assert.Equal(t, 37, stats.StagedBatches)
	assert.Equal(t, provenance.StateStaging, stats.State)

	assert.Equal(t, 37*3, m.Len())

	stats = m.Stats()
	assert.Equal(t, 0, stats.StagedNodes)
	assert.Equal(t, 0, stats.StagedBatches)
	assert.Equal(t, 37*3, stats.Indexed)
	assert.Equal(t, "indexed", stats.StateName)
}

func TestMap_StateMachine(t *testing.T) {
	m := newTestMap()
	assert.Equal(t, provenance.StateEmpty, m.State())

	m.Register(testutil.BatchOf(testutil.NewEntry(0x1, "M", "M.hs:1")))
	assert.Equal(t, provenance.StateStaging, m.State())

	m.Drain()
	assert.Equal(t, provenance.StateIndexed, m.State())

	m.Register(testutil.BatchOf(testutil.NewEntry(0x2, "M", "M.hs:2")))
	assert.Equal(t, provenance.StateStaging, m.State())

	m.Traverse(func(*provenance.Entry) bool { return true })
	assert.Equal(t, provenance.StateIndexed, m.State())
}

func TestMap_TraverseStopsEarly(t *testing.T) {
	m := newTestMap()
	seq := testutil.NewKeySequence(0x1000, 8)
	m.Register(testutil.ModuleBatch(seq, "M", 20))

	visited := 0
	m.Traverse(func(*provenance.Entry) bool {
		visited++
		return visited < 5
	})
	assert.Equal(t, 5, visited)
}

func TestMap_TraverseVisitorMayCallBack(t *testing.T) {
	m := newTestMap()
	seq := testutil.NewKeySequence(0x1000, 8)
	m.Register(testutil.ModuleBatch(seq, "M", 5))

	extra := testutil.NewEntry(0x9999, "Late", "Late.hs:1")
	m.Traverse(func(e *provenance.Entry) bool {
		got, ok := m.Lookup(e.Key)
		assert.True(t, ok)
		assert.Same(t, e, got)
		m.Register(testutil.BatchOf(extra))
		return true
	})

	_, ok := m.Lookup(extra.Key)
	assert.True(t, ok)
}

func TestMap_WalkDoesNotBuildIndex(t *testing.T) {
	m := newTestMap(provenance.WithNodeCapacity(2))
	seq := testutil.NewKeySequence(0x1000, 8)
	b1 := testutil.ModuleBatch(seq, "M.A", 2)
	b2 := testutil.ModuleBatch(seq, "M.B", 1)
	b3 := testutil.ModuleBatch(seq, "M.C", 2)
	m.Register(b1)
	m.Register(b2)
	m.Register(b3)

	var keys []provenance.Key
	m.Walk(func(e *provenance.Entry) bool {
		keys = append(keys, e.Key)
		return true
	})

	assert.Equal(t, []provenance.Key{0x1000, 0x1008, 0x1010, 0x1018, 0x1020}, keys,
		"staged entries are walked in registration order")
	assert.Equal(t, provenance.StateStaging, m.State())
	assert.Equal(t, 0, m.Stats().Drains)
}

func TestMap_WalkSeesStagedAndIndexed(t *testing.T) {
	m := newTestMap()
	m.Register(testutil.BatchOf(testutil.NewEntry(0x1, "M", "M.hs:1")))
	m.Drain()
	m.Register(testutil.BatchOf(testutil.NewEntry(0x2, "M", "M.hs:2")))

	var keys []provenance.Key
	m.Walk(func(e *provenance.Entry) bool {
		keys = append(keys, e.Key)
		return true
	})
	assert.Equal(t, []provenance.Key{0x1, 0x2}, keys, "indexed entries are walked before staged ones")
}

func TestMap_WalkVisitsReregisteredKeyNewestLast(t *testing.T) {
	m := newTestMap(provenance.WithNodeCapacity(1))
	m.Register(testutil.BatchOf(testutil.NewEntry(0x10, "M.Old", "Old.hs:1")))
	_, ok := m.Lookup(0x10)
	require.True(t, ok)
	m.Register(testutil.BatchOf(testutil.NewEntry(0x10, "M.Mid", "Mid.hs:1")))
	m.Register(testutil.BatchOf(testutil.NewEntry(0x10, "M.New", "New.hs:1")))

	var modules []string
	m.Walk(func(e *provenance.Entry) bool {
		modules = append(modules, e.Module)
		return true
	})
	assert.Equal(t, []string{"M.Old", "M.Mid", "M.New"}, modules)

	e, ok := m.Lookup(0x10)
	require.True(t, ok)
	assert.Equal(t, modules[len(modules)-1], e.Module, "the last walked entry is the one lookup resolves to")
}

func TestNodeCapacityOption(t *testing.T) {
	m := newTestMap(provenance.WithNodeCapacity(-3))
	seq := testutil.NewKeySequence(0, 8)
	for i := 0; i < provenance.DefaultNodeCapacity+1; i++ {
		m.Register(testutil.ModuleBatch(seq, "M", 1))
	}
	assert.Equal(t, 2, m.Stats().StagedNodes, "non-positive capacity falls back to the default")
}

func TestWithNilLogger(t *testing.T) {
	m := provenance.New(provenance.WithLogger(nil))
	m.Register(testutil.BatchOf(testutil.NewEntry(0x1, "M", "M.hs:1")))
	assert.Equal(t, 1, m.Len())
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		in      string
		want    provenance.Key
		wantErr bool
	}{
		{"0x1000", 0x1000, false},
		{"0X1a", 0x1a, false},
		{"4096", 4096, false},
		{" 0x10 ", 0x10, false},
		{"", 0, true},
		{"0xzz", 0, true},
		{"-1", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := provenance.ParseKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "0x1004", provenance.Key(0x1004).String())
}

func keysOf(entries []*provenance.Entry) []provenance.Key {
	keys := make([]provenance.Key, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return keys
}
