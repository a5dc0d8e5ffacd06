package cli

import (
	"log/slog"

	"github.com/roach88/provmap/internal/manifest"
	"github.com/roach88/provmap/internal/provenance"
)

// loadMap registers every manifest into a fresh Map. Nothing is registered
// if any manifest fails to load.
func loadMap(paths []string) (*provenance.Map, int, error) {
	manifests, err := manifest.LoadAll(paths...)
	if err != nil {
		return nil, 0, WrapExitError(ExitCommandError, "failed to load manifests", err)
	}

	m := provenance.New(provenance.WithLogger(slog.Default()))
	n, err := manifest.RegisterAll(m, manifests...)
	if err != nil {
		return nil, 0, WrapExitError(ExitCommandError, "failed to register manifests", err)
	}

	slog.Debug("manifests registered", "files", len(paths), "entries", n)
	return m, n, nil
}

// EntryView is the JSON form of a provenance entry.
type EntryView struct {
	Key         string `json:"key"`
	TableName   string `json:"table_name"`
	ClosureDesc string `json:"closure_desc,omitempty"`
	TypeDesc    string `json:"type_desc,omitempty"`
	Label       string `json:"label,omitempty"`
	Module      string `json:"module"`
	SrcLoc      string `json:"srcloc"`
}

func newEntryView(e *provenance.Entry) EntryView {
	return EntryView{
		Key:         e.Key.String(),
		TableName:   e.TableName,
		ClosureDesc: e.ClosureDesc,
		TypeDesc:    e.TypeDesc,
		Label:       e.Label,
		Module:      e.Module,
		SrcLoc:      e.SrcLoc,
	}
}
