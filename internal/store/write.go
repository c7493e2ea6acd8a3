package store

import (
	"context"
	"fmt"
)

// EventRecord is one journaled edit log event.
type EventRecord struct {
	SessionID   string `json:"session_id"`
	Seq         int64  `json:"seq"`
	Event       string `json:"event"`
	EditID      string `json:"edit_id,omitempty"`
	EditName    string `json:"edit_name,omitempty"`
	Description string `json:"description,omitempty"`
	UndoDepth   int    `json:"undo_depth"`
	RedoDepth   int    `json:"redo_depth"`
}

// WriteSession registers a session. Uses ON CONFLICT(id) DO NOTHING for
// idempotency: reopening a session keeps its original label.
func (s *Store) WriteSession(ctx context.Context, id, label string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, label)
		VALUES (?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, label)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// WriteEvent appends an event to the journal.
// Uses ON CONFLICT DO NOTHING for idempotency: an event with a
// (session_id, seq) pair already journaled is silently ignored.
//
// Note: The session must exist (foreign key constraint).
func (s *Store) WriteEvent(ctx context.Context, ev EventRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edit_events
		(session_id, seq, event, edit_id, edit_name, description, undo_depth, redo_depth)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		ev.SessionID,
		ev.Seq,
		ev.Event,
		ev.EditID,
		ev.EditName,
		ev.Description,
		ev.UndoDepth,
		ev.RedoDepth,
	)
	if err != nil {
		return fmt.Errorf("write event: %w", err)
	}
	return nil
}
