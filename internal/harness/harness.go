package harness

import (
	"fmt"

	"github.com/roach88/provmap/internal/manifest"
	"github.com/roach88/provmap/internal/provenance"
	"github.com/roach88/provmap/internal/testutil"
)

// Run executes a scenario on a fresh Map and returns the result.
//
// Expectation mismatches are recorded in the Result. A returned error means
// the scenario could not be executed at all (bad manifest, bad key).
func Run(s *Scenario) (*Result, error) {
	m := provenance.New(
		provenance.WithNodeCapacity(s.NodeCapacity),
		provenance.WithInvariantChecks(true),
		provenance.WithLogger(testutil.DiscardLogger()),
	)
	result := NewResult()

	if len(s.Manifests) > 0 {
		manifests, err := manifest.LoadAll(s.Manifests...)
		if err != nil {
			return nil, fmt.Errorf("preload manifests: %w", err)
		}
		n, err := manifest.RegisterAll(m, manifests...)
		if err != nil {
			return nil, fmt.Errorf("preload manifests: %w", err)
		}
		result.Preloaded = n
	}

	for i, step := range s.Steps {
		if err := runStep(m, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := evaluateAssertion(m, a); err != nil {
			result.AddError(fmt.Sprintf("assertion %d (%s): %v", i, a.Type, err))
		}
	}
	return result, nil
}

func runStep(m *provenance.Map, i int, step Step, result *Result) error {
	switch step.kind() {
	case "register":
		inline := &manifest.Manifest{
			Batches: []manifest.BatchSpec{*step.Register},
			Path:    fmt.Sprintf("step %d", i),
		}
		batches, err := inline.Build()
		if err != nil {
			return err
		}
		m.Register(batches[0])
		result.addTrace(TraceEvent{Step: i, Op: "register", Entries: batches[0].Len()})

	case "lookup":
		key, err := provenance.ParseKey(step.Lookup.Key)
		if err != nil {
			return err
		}
		e, found := m.Lookup(key)
		ev := TraceEvent{Step: i, Op: "lookup", Key: key.String(), Found: found}
		if found {
			ev.Module = e.Module
			ev.SrcLoc = e.SrcLoc
		}
		result.addTrace(ev)
		if step.Lookup.Expect != nil {
			checkLookup(result, i, key, e, found, step.Lookup.Expect)
		}

	case "traverse":
		count := 0
		m.Traverse(func(*provenance.Entry) bool {
			count++
			return true
		})
		result.addTrace(TraceEvent{Step: i, Op: "traverse", Count: count})
		if want := step.Traverse.Count; want != nil && count != *want {
			result.AddError(fmt.Sprintf("step %d: traverse visited %d entries, expected %d",
				i, count, *want))
		}

	case "drain":
		m.Drain()
		result.addTrace(TraceEvent{Step: i, Op: "drain", Count: m.Stats().Indexed})

	case "state":
		got := m.State().String()
		result.addTrace(TraceEvent{Step: i, Op: "state", State: got})
		if got != step.State {
			result.AddError(fmt.Sprintf("step %d: state is %q, expected %q", i, got, step.State))
		}
	}
	return nil
}

// checkLookup compares a lookup answer with an expectation. Only non-empty
// expectation fields are compared.
func checkLookup(result *Result, i int, key provenance.Key, e *provenance.Entry, found bool, want *LookupExpect) {
	if found != want.Found {
		result.AddError(fmt.Sprintf("step %d: lookup %s found=%v, expected %v", i, key, found, want.Found))
		return
	}
	if !found {
		return
	}

	fields := []struct {
		name, got, want string
	}{
		{"module", e.Module, want.Module},
		{"srcloc", e.SrcLoc, want.SrcLoc},
		{"table_name", e.TableName, want.TableName},
		{"label", e.Label, want.Label},
	}
	for _, f := range fields {
		if f.want != "" && f.got != f.want {
			result.AddError(fmt.Sprintf("step %d: lookup %s %s is %q, expected %q",
				i, key, f.name, f.got, f.want))
		}
	}
}

func evaluateAssertion(m *provenance.Map, a Assertion) error {
	switch a.Type {
	case AssertEntryCount:
		if n := m.Len(); n != a.Count {
			return fmt.Errorf("map holds %d entries, expected %d", n, a.Count)
		}
	case AssertKeysFound, AssertKeysMissing:
		wantFound := a.Type == AssertKeysFound
		for _, raw := range a.Keys {
			key, err := provenance.ParseKey(raw)
			if err != nil {
				return err
			}
			if _, found := m.Lookup(key); found != wantFound {
				return fmt.Errorf("key %s found=%v, expected %v", key, found, wantFound)
			}
		}
	case AssertState:
		if got := m.State().String(); got != a.State {
			return fmt.Errorf("state is %q, expected %q", got, a.State)
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
