package store

import (
	"context"
	"database/sql"
	"fmt"
)

// SessionSummary describes one journaled session.
type SessionSummary struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Events  int    `json:"events"`
	LastSeq int64  `json:"last_seq"`
}

// ReadEvents returns all events for a session.
// Results are ordered deterministically: ORDER BY seq ASC, id ASC.
//
// Returns an empty slice (not nil) if the session has no events.
func (s *Store) ReadEvents(ctx context.Context, sessionID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, event, edit_id, edit_name, description, undo_depth, redo_depth
		FROM edit_events
		WHERE session_id = ?
		ORDER BY seq ASC, id ASC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		var ev EventRecord
		if err := rows.Scan(
			&ev.SessionID,
			&ev.Seq,
			&ev.Event,
			&ev.EditID,
			&ev.EditName,
			&ev.Description,
			&ev.UndoDepth,
			&ev.RedoDepth,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// ReadEditEvents returns the lifecycle of a single edit across sessions.
func (s *Store) ReadEditEvents(ctx context.Context, editID string) ([]EventRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, seq, event, edit_id, edit_name, description, undo_depth, redo_depth
		FROM edit_events
		WHERE edit_id = ?
		ORDER BY seq ASC, id ASC
	`, editID)
	if err != nil {
		return nil, fmt.Errorf("query edit events: %w", err)
	}
	defer rows.Close()

	events := []EventRecord{}
	for rows.Next() {
		var ev EventRecord
		if err := rows.Scan(&ev.SessionID, &ev.Seq, &ev.Event, &ev.EditID, &ev.EditName,
			&ev.Description, &ev.UndoDepth, &ev.RedoDepth); err != nil {
			return nil, fmt.Errorf("scan edit event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edit events: %w", err)
	}
	return events, nil
}

// Sessions lists every session with its event count, ordered by id.
func (s *Store) Sessions(ctx context.Context) ([]SessionSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.label, COUNT(e.id), COALESCE(MAX(e.seq), 0)
		FROM sessions s
		LEFT JOIN edit_events e ON e.session_id = s.id
		GROUP BY s.id, s.label
		ORDER BY s.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionSummary{}
	for rows.Next() {
		var ss SessionSummary
		if err := rows.Scan(&ss.ID, &ss.Label, &ss.Events, &ss.LastSeq); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sessions = append(sessions, ss)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

// CountEvents returns the number of events journaled for a session, or for
// all sessions when sessionID is empty.
func (s *Store) CountEvents(ctx context.Context, sessionID string) (int, error) {
	var row *sql.Row
	if sessionID == "" {
		row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edit_events`)
	} else {
		row = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM edit_events WHERE session_id = ?`, sessionID)
	}
	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return n, nil
}

// LastSeq returns the highest seq journaled for a session, or 0 if it has
// none. A log that continues the session starts its clock here.
func (s *Store) LastSeq(ctx context.Context, sessionID string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM edit_events WHERE session_id = ?`, sessionID,
	).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}
