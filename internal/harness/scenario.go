package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/provmap/internal/manifest"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// NodeCapacity overrides the staging node capacity (0 keeps the default).
	// Small values force multi-node staging lists.
	NodeCapacity int `yaml:"node_capacity,omitempty"`

	// Manifests are registered, in order, before the first step.
	// Relative paths are resolved against the scenario file's directory.
	Manifests []string `yaml:"manifests,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the map after all steps ran.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one operation. Exactly one field must be set.
type Step struct {
	Register *manifest.BatchSpec `yaml:"register,omitempty"`
	Lookup   *LookupStep         `yaml:"lookup,omitempty"`
	Traverse *TraverseStep       `yaml:"traverse,omitempty"`
	Drain    bool                `yaml:"drain,omitempty"`
	State    string              `yaml:"state,omitempty"`
}

// LookupStep looks up one key and optionally checks the answer.
type LookupStep struct {
	Key    string        `yaml:"key"`
	Expect *LookupExpect `yaml:"expect,omitempty"`
}

// LookupExpect is a subset match: only non-empty fields are compared.
type LookupExpect struct {
	Found     bool   `yaml:"found"`
	Module    string `yaml:"module,omitempty"`
	SrcLoc    string `yaml:"srcloc,omitempty"`
	TableName string `yaml:"table_name,omitempty"`
	Label     string `yaml:"label,omitempty"`
}

// TraverseStep traverses the map. A nil Count skips the count check.
type TraverseStep struct {
	Count *int `yaml:"count,omitempty"`
}

// Assertion validates the final map.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Count is the expected number of distinct keys (entry_count).
	Count int `yaml:"count,omitempty"`

	// Keys are the keys checked by keys_found and keys_missing.
	Keys []string `yaml:"keys,omitempty"`

	// State is the expected lifecycle state name (state).
	State string `yaml:"state,omitempty"`
}

// Assertion type constants.
const (
	AssertEntryCount  = "entry_count"
	AssertKeysFound   = "keys_found"
	AssertKeysMissing = "keys_missing"
	AssertState       = "state"
)

// kind names the operation a step performs, or "" if none or several are set.
func (s Step) kind() string {
	var kinds []string
	if s.Register != nil {
		kinds = append(kinds, "register")
	}
	if s.Lookup != nil {
		kinds = append(kinds, "lookup")
	}
	if s.Traverse != nil {
		kinds = append(kinds, "traverse")
	}
	if s.Drain {
		kinds = append(kinds, "drain")
	}
	if s.State != "" {
		kinds = append(kinds, "state")
	}
	if len(kinds) != 1 {
		return ""
	}
	return kinds[0]
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected and manifest paths are resolved relative to
// the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	base := filepath.Dir(path)
	for i, p := range scenario.Manifests {
		if !filepath.IsAbs(p) {
			scenario.Manifests[i] = filepath.Join(base, p)
		}
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("at least one step or assertion is required")
	}

	for i, step := range s.Steps {
		if step.kind() == "" {
			return fmt.Errorf("step %d: exactly one of register, lookup, traverse, drain, state must be set", i)
		}
		if step.Lookup != nil && step.Lookup.Key == "" {
			return fmt.Errorf("step %d: lookup key is required", i)
		}
	}

	for i, a := range s.Assertions {
		switch a.Type {
		case AssertEntryCount, AssertState:
		case AssertKeysFound, AssertKeysMissing:
			if len(a.Keys) == 0 {
				return fmt.Errorf("assertion %d: %s requires keys", i, a.Type)
			}
		default:
			return fmt.Errorf("assertion %d: unknown type %q", i, a.Type)
		}
	}
	return nil
}
