package eventlog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/provmap/internal/canonical"
	"github.com/roach88/provmap/internal/provenance"
)

// Walker is the read side of provenance.Map used by Export.
type Walker interface {
	Walk(fn func(*provenance.Entry) bool)
}

// Session is one export run.
type Session struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Seq   int64  `json:"seq"`
}

// ExportResult reports what an export wrote.
type ExportResult struct {
	SessionID string `json:"session_id"`
	Visited   int    `json:"visited"`
	Inserted  int    `json:"inserted"`
}

// BeginSession creates a new export session identified by a UUIDv7, so
// session ids sort by creation time.
func (s *Store) BeginSession(ctx context.Context, label string) (Session, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return Session{}, fmt.Errorf("begin session: generate id: %w", err)
	}

	sess := Session{ID: id.String(), Label: label, Seq: s.clock.Next()}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, label, seq)
		VALUES (?, ?, ?)
	`, sess.ID, sess.Label, sess.Seq)
	if err != nil {
		return Session{}, fmt.Errorf("begin session: %w", err)
	}
	return sess, nil
}

// Export writes every entry w walks into the session, in one transaction.
// Rows get seq numbers in walk order, so LoadInto replays them with the most
// recent registration of a key last.
// Identical entries (same content id) are written once per session; this
// covers keys visited both in staging and in the index, and repeated
// exports of the same map. A dropped duplicate still consumes a seq number,
// so seq values within a session may have gaps.
func (s *Store) Export(ctx context.Context, sessionID string, w Walker) (ExportResult, error) {
	res := ExportResult{SessionID: sessionID}

	var entries []*provenance.Entry
	w.Walk(func(e *provenance.Entry) bool {
		entries = append(entries, e)
		return true
	})
	res.Visited = len(entries)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("export: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ipe_events
		(id, session_id, info, table_name, closure_desc, type_desc, label, module, srcloc, seq)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id, id) DO NOTHING
	`)
	if err != nil {
		return res, fmt.Errorf("export: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		id, err := canonical.EntryID(e)
		if err != nil {
			return res, fmt.Errorf("export: %w", err)
		}

		result, err := stmt.ExecContext(ctx,
			id,
			sessionID,
			int64(e.Key),
			e.TableName,
			e.ClosureDesc,
			e.TypeDesc,
			e.Label,
			e.Module,
			e.SrcLoc,
			s.clock.Next(),
		)
		if err != nil {
			return res, fmt.Errorf("export: insert %s: %w", e.Key, err)
		}

		n, err := result.RowsAffected()
		if err != nil {
			return res, fmt.Errorf("export: rows affected: %w", err)
		}
		res.Inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return res, fmt.Errorf("export: commit: %w", err)
	}
	return res, nil
}
