package provenance

import (
	"fmt"
	"strconv"
	"strings"
)

// Key is an opaque code-object identifier, usually an info table address.
// It is used only as a map key and is never dereferenced.
type Key uint64

// String renders the key as a hex address.
func (k Key) String() string {
	return fmt.Sprintf("0x%x", uint64(k))
}

// ParseKey parses a key written either as 0x-prefixed hex or as decimal.
func ParseKey(s string) (Key, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("parse key: empty string")
	}

	var (
		v   uint64
		err error
	)
	if rest, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		v, err = strconv.ParseUint(rest, 16, 64)
	} else {
		v, err = strconv.ParseUint(s, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("parse key %q: %w", s, err)
	}
	return Key(v), nil
}

// Provenance is the source-level description attached to a code object.
type Provenance struct {
	TableName   string
	ClosureDesc string
	TypeDesc    string
	Label       string
	Module      string
	SrcLoc      string
}

// Entry binds one Key to its Provenance.
type Entry struct {
	Key Key
	Provenance
}

// Batch is an ordered group of entries registered in a single call.
// A nil element terminates the batch; anything after it is ignored.
type Batch []*Entry

// Empty reports whether the batch contributes no entries.
func (b Batch) Empty() bool {
	return len(b) == 0 || b[0] == nil
}

// each calls fn for every entry up to the terminator.
func (b Batch) each(fn func(*Entry)) {
	for _, e := range b {
		if e == nil {
			return
		}
		fn(e)
	}
}

// Len returns the number of entries before the terminator.
func (b Batch) Len() int {
	n := 0
	for _, e := range b {
		if e == nil {
			break
		}
		n++
	}
	return n
}
