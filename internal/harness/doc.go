// Package harness runs conformance scenarios against a provenance map.
//
// A scenario is a YAML file describing an ordered list of steps (register,
// lookup, traverse, drain, state) with inline expectations, plus assertions
// over the final map. Each scenario runs on a fresh Map with invariant
// checks enabled and logging discarded.
//
// Steps produce a trace. RunWithGolden snapshots that trace as canonical
// JSON so a scenario's observable behavior can be pinned in a golden file:
//
//	go test ./internal/harness -update
package harness
