package testutil

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/provmap/internal/provenance"
)

// NewEntry builds an entry with the fields the tests usually inspect.
// TableName and Label are derived from the key so every entry is distinct.
func NewEntry(key provenance.Key, module, srcLoc string) *provenance.Entry {
	return &provenance.Entry{
		Key: key,
		Provenance: provenance.Provenance{
			TableName:   fmt.Sprintf("%s_info_%x", module, uint64(key)),
			ClosureDesc: "FUN",
			TypeDesc:    "Int -> Int",
			Label:       fmt.Sprintf("fn%x", uint64(key)),
			Module:      module,
			SrcLoc:      srcLoc,
		},
	}
}

// BatchOf builds a batch from entries. No terminator is appended, since a
// slice carries its own length.
func BatchOf(entries ...*provenance.Entry) provenance.Batch {
	return provenance.Batch(entries)
}

// ModuleBatch builds a batch of n entries for module using keys from seq.
// Source locations are "<module>.hs:<line>" with line counting from 1.
func ModuleBatch(seq *KeySequence, module string, n int) provenance.Batch {
	b := make(provenance.Batch, n)
	for i := range b {
		b[i] = NewEntry(seq.Next(), module, fmt.Sprintf("%s.hs:%d", module, i+1))
	}
	return b
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
