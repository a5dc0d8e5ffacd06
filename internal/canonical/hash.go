package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/provmap/internal/provenance"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows a future algorithm change.
const (
	DomainEntry = "provmap/entry/v1"
	DomainDump  = "provmap/dump/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator keeps the domain/data boundary unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EntryObject is the canonical object form of an entry. Every field is
// present, so two entries differing only in an empty field hash differently.
func EntryObject(e *provenance.Entry) Object {
	return Object{
		"info":         uint64(e.Key),
		"table_name":   e.TableName,
		"closure_desc": e.ClosureDesc,
		"type_desc":    e.TypeDesc,
		"label":        e.Label,
		"module":       e.Module,
		"srcloc":       e.SrcLoc,
	}
}

// EntryID computes the content-addressed identity of an entry.
// The same key and provenance always yield the same id. Text is hashed
// exactly as registered, without normalization, so entries that differ only
// in Unicode normalization get distinct ids.
func EntryID(e *provenance.Entry) (string, error) {
	data, err := MarshalExact(EntryObject(e))
	if err != nil {
		return "", fmt.Errorf("EntryID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainEntry, data), nil
}

// Digest hashes an encoded dump so two dumps can be compared cheaply.
func Digest(dump []byte) string {
	return hashWithDomain(DomainDump, dump)
}
