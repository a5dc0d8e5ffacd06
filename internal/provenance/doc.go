// Package provenance maps code-object identifiers to source-level provenance.
//
// A Map absorbs registrations cheaply and builds its lookup index lazily:
//   - Register appends a Batch to a chunked staging list (no hashing)
//   - Lookup, Traverse and Drain move every staged batch into the index first
//   - Walk visits staged and indexed entries without building the index
//
// # Concurrency
//
// One sync.RWMutex guards both the staging list and the index. Register and
// the drain step take the write lock; point queries and snapshots take the
// read lock. Before locking, queries consult two atomics ("index built" and
// "batches pending"). When the index is built and nothing is pending the drain
// is skipped. A stale read only causes an extra drain attempt, which is
// re-checked under the write lock and is idempotent.
//
// # Duplicate keys
//
// Staged batches are drained in registration order (oldest node first, slots
// in order, entries in batch order), so the entry registered last wins.
//
// Entries are referenced, never copied; callers must not mutate an Entry after
// registering it.
package provenance
