package edit

import "fmt"

// EventType identifies what happened to the log.
type EventType string

const (
	// EventCommitted fires after a record is pushed onto the undo stack.
	EventCommitted EventType = "committed"
	// EventUndone fires after a record is undone.
	EventUndone EventType = "undone"
	// EventRedone fires after a record is redone.
	EventRedone EventType = "redone"
	// EventDiscarded fires when a scope closes without committing.
	EventDiscarded EventType = "discarded"
	// EventCleared fires after both stacks are cleared. Record is nil.
	EventCleared EventType = "cleared"

	// EventRunning fires before the forward action of a top-level record
	// first runs.
	EventRunning EventType = "running"
	// EventUndoing fires before a record is undone.
	EventUndoing EventType = "undoing"
	// EventRedoing fires before a record is redone.
	EventRedoing EventType = "redoing"
)

// Before reports whether the event fires ahead of the change it announces.
// Pre-change events are only delivered to subscribers that ask for them
// with ForEvents, and carry no seq.
func (t EventType) Before() bool {
	return t == EventRunning || t == EventUndoing || t == EventRedoing
}

// Event describes a change to the log. Depths are taken when the event
// fires: after the change, or before it for pre-change events.
type Event struct {
	Type      EventType
	Seq       int64
	Record    *Record
	UndoDepth int
	RedoDepth int
}

type subscriber struct {
	id     string
	fn     func(Event)
	events map[EventType]bool // nil: every post-change event
	edits  map[string]bool    // nil: every record
}

func (s subscriber) wants(typ EventType, rec *Record) bool {
	if s.events == nil {
		if typ.Before() {
			return false
		}
	} else if !s.events[typ] {
		return false
	}
	if s.edits != nil && (rec == nil || !s.edits[rec.name]) {
		return false
	}
	return true
}

// SubscribeOption narrows what a subscriber receives.
type SubscribeOption func(*subscriber)

// ForEvents delivers only the given event types. Naming a pre-change type
// is the only way to receive it.
func ForEvents(types ...EventType) SubscribeOption {
	return func(s *subscriber) {
		if s.events == nil {
			s.events = make(map[EventType]bool, len(types))
		}
		for _, t := range types {
			s.events[t] = true
		}
	}
}

// ForEdits delivers only events about records with one of the given names.
// Cleared events, which carry no record, are dropped.
func ForEdits(names ...string) SubscribeOption {
	return func(s *subscriber) {
		if s.edits == nil {
			s.edits = make(map[string]bool, len(names))
		}
		for _, n := range names {
			s.edits[n] = true
		}
	}
}

// Subscribe registers fn to be called on log events: by default after every
// committed, undone, redone, discarded and cleared event.
// Subscribers run in registration order, synchronously, and must not
// register edits or call Undo/Redo themselves.
//
// Returns an error if id is already subscribed.
func (l *Log) Subscribe(id string, fn func(Event), opts ...SubscribeOption) error {
	for _, s := range l.subscribers {
		if s.id == id {
			return &Error{
				Code:    ErrCodeDuplicateSubscriber,
				Message: fmt.Sprintf("subscriber %q already registered", id),
			}
		}
	}
	sub := subscriber{id: id, fn: fn}
	for _, opt := range opts {
		opt(&sub)
	}
	l.subscribers = append(l.subscribers, sub)
	return nil
}

// Unsubscribe removes the subscriber with the given id, if any.
func (l *Log) Unsubscribe(id string) {
	kept := l.subscribers[:0]
	for _, s := range l.subscribers {
		if s.id != id {
			kept = append(kept, s)
		}
	}
	l.subscribers = kept
}

// publish delivers an event to the subscribers that want it. For
// post-change events seq == 0 stamps a fresh sequence number.
func (l *Log) publish(typ EventType, rec *Record, seq int64) {
	var ev *Event
	for _, s := range l.subscribers {
		if !s.wants(typ, rec) {
			continue
		}
		if ev == nil {
			if seq == 0 && !typ.Before() {
				seq = l.clock.Next()
			}
			ev = &Event{
				Type:      typ,
				Seq:       seq,
				Record:    rec,
				UndoDepth: len(l.undo),
				RedoDepth: len(l.redo),
			}
		}
		l.notify(s, *ev)
	}
}

// notify shields the log from a panicking subscriber.
func (l *Log) notify(s subscriber, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("edit subscriber panicked", "subscriber", s.id, "event", ev.Type, "panic", r)
		}
	}()
	s.fn(ev)
}
