// Package eventlog persists provenance entries as SQLite event rows.
//
// Each export runs inside a session. A session walks the provenance map
// without forcing its index to be built, so exporting right after startup
// stays cheap. Rows are content addressed:
//   - id is canonical.EntryID of the entry
//   - UNIQUE(session_id, id) makes re-exporting a session idempotent
//   - seq is a logical clock, never a timestamp
//
// All queries order by seq ASC, id ASC COLLATE BINARY so reads are
// deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package eventlog
