package store

import (
	"path/filepath"
	"testing"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// mustWriteSession registers a session or fails the test.
func mustWriteSession(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.WriteSession(t.Context(), id, ""); err != nil {
		t.Fatalf("WriteSession(%q) failed: %v", id, err)
	}
}

// createTestEvent creates an event with minimal required fields.
func createTestEvent(session string, seq int64, event string) EventRecord {
	return EventRecord{
		SessionID: session,
		Seq:       seq,
		Event:     event,
		EditID:    "e1",
		EditName:  "set",
		UndoDepth: 1,
	}
}
