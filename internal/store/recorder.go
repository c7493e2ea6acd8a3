package store

import (
	"context"
	"log/slog"

	"github.com/roach88/scheduler/internal/edit"
)

// Recorder journals every event of an edit log under one session.
//
// Write failures do not interrupt editing: the first error is kept and
// reported by Err, later failures are logged.
type Recorder struct {
	store   *Store
	session string
	ctx     context.Context
	err     error
	written int
}

// NewRecorder creates a recorder for session. The session row is written
// on Attach.
func NewRecorder(s *Store, session string) *Recorder {
	return &Recorder{store: s, session: session}
}

// subscriberID names the recorder's subscription on the log. Recorders for
// the same session in different journals may share a log.
func (r *Recorder) subscriberID() string {
	return "journal:" + r.store.path + "#" + r.session
}

// Attach registers the session and subscribes to log. ctx is used for
// every write made on behalf of the subscription.
func (r *Recorder) Attach(ctx context.Context, log *edit.Log, label string) error {
	if err := r.store.WriteSession(ctx, r.session, label); err != nil {
		return err
	}
	r.ctx = ctx
	return log.Subscribe(r.subscriberID(), r.record)
}

// Detach stops journaling log.
func (r *Recorder) Detach(log *edit.Log) {
	log.Unsubscribe(r.subscriberID())
}

// Err returns the first write error, if any.
func (r *Recorder) Err() error {
	return r.err
}

// Written returns the number of events journaled.
func (r *Recorder) Written() int {
	return r.written
}

func (r *Recorder) record(ev edit.Event) {
	rec := EventRecord{
		SessionID: r.session,
		Seq:       ev.Seq,
		Event:     string(ev.Type),
		UndoDepth: ev.UndoDepth,
		RedoDepth: ev.RedoDepth,
	}
	if ev.Record != nil {
		rec.EditID = ev.Record.ID()
		rec.EditName = ev.Record.Name()
		rec.Description = ev.Record.Description()
	}
	if err := r.store.WriteEvent(r.ctx, rec); err != nil {
		if r.err == nil {
			r.err = err
		}
		slog.Error("journal write failed", "session", r.session, "seq", ev.Seq, "error", err)
		return
	}
	r.written++
}
