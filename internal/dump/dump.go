// Package dump writes diagnostic dumps of a provenance map.
//
// The format is one canonical JSON object per line, sorted by key:
//
//	{"info":4096,"module":"M.A","name":"M.A_info","srcloc":"A.hs:10","type":"Int"}
//
// closure, label and type are omitted when empty.
package dump

import (
	"bytes"
	"cmp"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/roach88/provmap/internal/canonical"
	"github.com/roach88/provmap/internal/provenance"
)

// Traverser is the read side of provenance.Map that a dump needs.
type Traverser interface {
	Traverse(fn func(*provenance.Entry) bool)
}

// Summary describes a written dump.
type Summary struct {
	Entries int    `json:"entries"`
	Bytes   int    `json:"bytes"`
	Digest  string `json:"digest"`
}

// Record converts an entry to its dump line object.
func Record(e *provenance.Entry) canonical.Object {
	rec := canonical.Object{
		"info":   uint64(e.Key),
		"name":   e.TableName,
		"module": e.Module,
		"srcloc": e.SrcLoc,
	}
	if e.ClosureDesc != "" {
		rec["closure"] = e.ClosureDesc
	}
	if e.TypeDesc != "" {
		rec["type"] = e.TypeDesc
	}
	if e.Label != "" {
		rec["label"] = e.Label
	}
	return rec
}

// Encode renders every entry of t as sorted JSON lines.
func Encode(t Traverser) ([]byte, int, error) {
	var entries []*provenance.Entry
	t.Traverse(func(e *provenance.Entry) bool {
		entries = append(entries, e)
		return true
	})
	slices.SortFunc(entries, func(a, b *provenance.Entry) int {
		return cmp.Compare(a.Key, b.Key)
	})

	var buf bytes.Buffer
	for _, e := range entries {
		line, err := canonical.Marshal(Record(e))
		if err != nil {
			return nil, 0, fmt.Errorf("encode entry %s: %w", e.Key, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), len(entries), nil
}

// Write encodes t and writes the dump to w.
func Write(w io.Writer, t Traverser) (Summary, error) {
	data, n, err := Encode(t)
	if err != nil {
		return Summary{}, fmt.Errorf("write dump: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return Summary{}, fmt.Errorf("write dump: %w", err)
	}
	return Summary{Entries: n, Bytes: len(data), Digest: canonical.Digest(data)}, nil
}

// WriteFile creates (or truncates) path and writes the dump to it.
func WriteFile(path string, t Traverser) (Summary, error) {
	f, err := os.Create(path)
	if err != nil {
		return Summary{}, fmt.Errorf("create dump file: %w", err)
	}

	sum, err := Write(f, t)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close dump file: %w", closeErr)
	}
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}
