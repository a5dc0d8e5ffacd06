package manifest

import (
	"fmt"

	"github.com/roach88/provmap/internal/provenance"
)

// Manifest is one registration unit, typically one compiled module.
type Manifest struct {
	// Module is the default module for entries that do not name one.
	Module string `yaml:"module,omitempty" json:"module,omitempty"`

	// Batches are registered in order, one Register call each.
	Batches []BatchSpec `yaml:"batches" json:"batches"`

	// Path is the file the manifest was loaded from.
	Path string `yaml:"-" json:"-"`
}

// BatchSpec is one registration batch.
type BatchSpec struct {
	Entries []EntrySpec `yaml:"entries" json:"entries"`
}

// EntrySpec describes one provenance entry.
type EntrySpec struct {
	Key         string `yaml:"key" json:"key"`
	TableName   string `yaml:"table_name,omitempty" json:"table_name,omitempty"`
	ClosureDesc string `yaml:"closure_desc,omitempty" json:"closure_desc,omitempty"`
	TypeDesc    string `yaml:"type_desc,omitempty" json:"type_desc,omitempty"`
	Label       string `yaml:"label,omitempty" json:"label,omitempty"`
	Module      string `yaml:"module,omitempty" json:"module,omitempty"`
	SrcLoc      string `yaml:"srcloc,omitempty" json:"srcloc,omitempty"`
}

// Registrar is the write side of provenance.Map.
type Registrar interface {
	Register(b provenance.Batch)
}

// Build converts the manifest into provenance batches.
// Every key is validated before anything is returned.
func (m *Manifest) Build() ([]provenance.Batch, error) {
	batches := make([]provenance.Batch, 0, len(m.Batches))
	for i, bs := range m.Batches {
		b := make(provenance.Batch, 0, len(bs.Entries))
		for j, es := range bs.Entries {
			e, err := m.entry(es)
			if err != nil {
				return nil, &LoadError{
					Path:    m.Path,
					Code:    ErrCodeInvalid,
					Message: fmt.Sprintf("batch %d entry %d: %v", i, j, err),
				}
			}
			b = append(b, e)
		}
		batches = append(batches, b)
	}
	return batches, nil
}

func (m *Manifest) entry(es EntrySpec) (*provenance.Entry, error) {
	if es.Key == "" {
		return nil, fmt.Errorf("key is required")
	}
	key, err := provenance.ParseKey(es.Key)
	if err != nil {
		return nil, err
	}

	module := es.Module
	if module == "" {
		module = m.Module
	}
	return &provenance.Entry{
		Key: key,
		Provenance: provenance.Provenance{
			TableName:   es.TableName,
			ClosureDesc: es.ClosureDesc,
			TypeDesc:    es.TypeDesc,
			Label:       es.Label,
			Module:      module,
			SrcLoc:      es.SrcLoc,
		},
	}, nil
}

// EntryCount returns the number of entries across all batches.
func (m *Manifest) EntryCount() int {
	n := 0
	for _, b := range m.Batches {
		n += len(b.Entries)
	}
	return n
}

// RegisterAll converts every manifest, then registers all batches into r.
// Nothing is registered if any manifest is invalid. Returns the number of
// entries registered.
func RegisterAll(r Registrar, manifests ...*Manifest) (int, error) {
	var all []provenance.Batch
	for _, m := range manifests {
		batches, err := m.Build()
		if err != nil {
			return 0, err
		}
		all = append(all, batches...)
	}

	n := 0
	for _, b := range all {
		r.Register(b)
		n += b.Len()
	}
	return n, nil
}
