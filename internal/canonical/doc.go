// Package canonical produces RFC 8785 style canonical JSON and the
// content-addressed identities derived from it.
//
// Canonical output differs from encoding/json in four ways:
//   - object keys are sorted by UTF-16 code units
//   - strings are NFC normalized and HTML characters are not escaped
//   - U+2028 and U+2029 are emitted literally
//   - floats and null are rejected
//
// Dump files use this encoding so that the same provenance data yields
// byte-identical output on every run. Event-log ids use MarshalExact, which
// skips NFC normalization and hashes text exactly as registered.
package canonical
