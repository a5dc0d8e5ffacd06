package eventlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/provmap/internal/provenance"
)

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("eventlog: session not found")

// Event is one stored provenance row.
type Event struct {
	ID        string
	SessionID string
	Seq       int64
	Entry     provenance.Entry
}

// Registrar is the write side of provenance.Map used by LoadInto.
type Registrar interface {
	Register(b provenance.Batch)
}

// GetSession returns the session with the given id.
func (s *Store) GetSession(ctx context.Context, id string) (Session, error) {
	var sess Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, label, seq FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Label, &sess.Seq)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return Session{}, fmt.Errorf("get session: %w", err)
	}
	return sess, nil
}

// ListSessions returns all sessions ordered by creation.
// Returns an empty slice (not nil) when there are none.
func (s *Store) ListSessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label, seq FROM sessions
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []Session{}
	for rows.Next() {
		var sess Session
		if err := rows.Scan(&sess.ID, &sess.Label, &sess.Seq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// ReadSession returns every event of a session in seq order.
func (s *Store) ReadSession(ctx context.Context, sessionID string) ([]Event, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.queryEvents(ctx, `
		SELECT id, session_id, info, table_name, closure_desc, type_desc, label, module, srcloc, seq
		FROM ipe_events
		WHERE session_id = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID)
}

// LookupKey returns the events recorded for key in a session. More than one
// event means the key was exported with differing provenance.
func (s *Store) LookupKey(ctx context.Context, sessionID string, key provenance.Key) ([]Event, error) {
	return s.queryEvents(ctx, `
		SELECT id, session_id, info, table_name, closure_desc, type_desc, label, module, srcloc, seq
		FROM ipe_events
		WHERE session_id = ? AND info = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sessionID, int64(key))
}

// LoadInto registers a session's events into r as a single batch, in seq
// order. Returns the number of entries registered.
func (s *Store) LoadInto(ctx context.Context, sessionID string, r Registrar) (int, error) {
	events, err := s.ReadSession(ctx, sessionID)
	if err != nil {
		return 0, err
	}

	batch := make(provenance.Batch, len(events))
	for i := range events {
		batch[i] = &events[i].Entry
	}
	r.Register(batch)
	return len(batch), nil
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			ev   Event
			info int64
		)
		err := rows.Scan(
			&ev.ID,
			&ev.SessionID,
			&info,
			&ev.Entry.TableName,
			&ev.Entry.ClosureDesc,
			&ev.Entry.TypeDesc,
			&ev.Entry.Label,
			&ev.Entry.Module,
			&ev.Entry.SrcLoc,
			&ev.Seq,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Entry.Key = provenance.Key(uint64(info))
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
