package schedule

import (
	"fmt"

	"github.com/roach88/scheduler/internal/container"
	"github.com/roach88/scheduler/internal/edit"
	"github.com/roach88/scheduler/internal/tasks"
)

// Record names of schedule edits.
const (
	EditAdd    = "schedule_item"
	EditRemove = "unschedule_item"
	EditModify = "modify_item"
	EditStatus = "item_status"
	EditShift  = "shift_day"
)

// EditNames lists every record name the Manager commits.
func EditNames() []string {
	return []string{EditAdd, EditRemove, EditModify, EditStatus, EditShift}
}

// Change lists the fields ModifyItem replaces. Nil fields are kept.
type Change struct {
	Name     *string
	Day      *string
	Start    *Minute
	End      *Minute
	Category *string
	TaskPath *string
}

// Manager makes undoable changes to a Calendar.
type Manager struct {
	cal *Calendar
	log *edit.Log
	ids edit.IDGenerator
}

// NewManager wires a manager for c onto log. ids generates item IDs when
// AddItem is given an item without one.
func NewManager(c *Calendar, log *edit.Log, ids edit.IDGenerator) *Manager {
	if ids == nil {
		ids = edit.UUIDv7Generator{}
	}
	return &Manager{cal: c, log: log, ids: ids}
}

// Calendar returns the managed calendar.
func (m *Manager) Calendar() *Calendar { return m.cal }

// Watch calls fn for every committed, undone or redone schedule edit.
func (m *Manager) Watch(id string, fn func(edit.Event)) error {
	return m.log.Subscribe(id, fn,
		edit.ForEdits(EditNames()...),
		edit.ForEvents(edit.EventCommitted, edit.EventUndone, edit.EventRedone))
}

// AddItem schedules item in start order on its day. An empty status means
// unstarted. Returns the item ID.
func (m *Manager) AddItem(item Item) (string, error) {
	if item.Status == "" {
		item.Status = tasks.StatusUnstarted
	}
	st, err := tasks.ParseStatus(string(item.Status))
	if err != nil {
		return "", fmt.Errorf("schedule item: %w", err)
	}
	item.Status = st
	if err := item.validate(); err != nil {
		return "", fmt.Errorf("schedule item: %w", err)
	}
	d, err := m.cal.day(item.Day)
	if err != nil {
		return "", fmt.Errorf("schedule item: %w", err)
	}
	if item.ID == "" {
		item.ID = m.ids.Generate()
	}
	if _, ok := m.cal.Find(item.ID); ok {
		return "", fmt.Errorf("schedule item %s: %w", item.ID, ErrDuplicateItem)
	}

	desc := fmt.Sprintf("schedule %s on %s %s-%s", item.Name, item.Day, item.Start, item.End)
	err = m.apply(EditAdd, desc, container.Insert(d, item.ID, slot(d, item), item))
	if err != nil {
		return "", err
	}
	return item.ID, nil
}

// RemoveItem unschedules the item with id.
func (m *Manager) RemoveItem(id string) error {
	it, d, err := m.existing(id)
	if err != nil {
		return fmt.Errorf("unschedule item: %w", err)
	}
	return m.apply(EditRemove, fmt.Sprintf("unschedule %s from %s", it.Name, it.Day), container.Remove(d, id))
}

// ModifyItem applies ch to the item with id as one edit. A new day moves
// the item there; a new start re-sorts it. A change that leaves the item
// as it was records nothing.
func (m *Manager) ModifyItem(id string, ch Change) error {
	old, from, err := m.existing(id)
	if err != nil {
		return fmt.Errorf("modify item: %w", err)
	}
	updated := old
	set(&updated.Name, ch.Name)
	set(&updated.Day, ch.Day)
	set(&updated.Start, ch.Start)
	set(&updated.End, ch.End)
	set(&updated.Category, ch.Category)
	set(&updated.TaskPath, ch.TaskPath)
	if updated == old {
		return nil
	}
	if err := updated.validate(); err != nil {
		return fmt.Errorf("modify item %s: %w", id, err)
	}

	var children []edit.Edit
	if updated.Day != old.Day {
		to, err := m.cal.day(updated.Day)
		if err != nil {
			return fmt.Errorf("modify item %s: %w", id, err)
		}
		children = []edit.Edit{
			container.Remove(from, id),
			container.Insert(to, id, slot(to, updated), updated),
		}
	} else {
		children = []edit.Edit{container.Modify(from, id, updated)}
		if i := slot(from, updated); updated.Start != old.Start && i != from.Index(id) {
			children = append(children, container.Move(from, id, i))
		}
	}
	desc := fmt.Sprintf("modify %s on %s %s-%s", updated.Name, updated.Day, updated.Start, updated.End)
	return m.apply(EditModify, desc, children...)
}

// SetStatus changes the status of the item with id.
func (m *Manager) SetStatus(id string, status tasks.Status) error {
	it, d, err := m.existing(id)
	if err != nil {
		return fmt.Errorf("set item status: %w", err)
	}
	status, err = tasks.ParseStatus(string(status))
	if err != nil {
		return fmt.Errorf("set item status: %w", err)
	}
	if it.Status == status {
		return nil
	}
	prev := it.Status
	it.Status = status
	return m.apply(EditStatus, fmt.Sprintf("mark %s %s (was %s)", it.Name, status, prev), container.Modify(d, id, it))
}

// ShiftDay moves every item on day by delta minutes. The whole day is
// rejected if any item would leave it.
func (m *Manager) ShiftDay(day string, delta Minute) error {
	d, err := m.cal.day(day)
	if err != nil {
		return fmt.Errorf("shift day: %w", err)
	}
	if delta == 0 || d.Len() == 0 {
		return nil
	}
	s := container.NewSnapshot(EditShift, d, func(d *Day) error {
		for id, it := range d.All() {
			it.Start += delta
			it.End += delta
			if it.Start < 0 || it.End > EndOfDay {
				return fmt.Errorf("%s would run %s-%s: %w", it.Name, it.Start, it.End, ErrInvalidTime)
			}
			d.Set(id, it)
		}
		return nil
	})
	return m.log.Apply(s, edit.Args{}, edit.WithDescription(fmt.Sprintf("shift %s by %+d min", day, int(delta))))
}

// apply commits children as one composite record called name.
func (m *Manager) apply(name, desc string, children ...edit.Edit) error {
	comp, err := edit.NewComposite(name, children)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	bundles := make([]edit.Args, len(children))
	return m.log.Apply(comp, edit.Bundle(bundles...), edit.WithDescription(desc))
}

func (m *Manager) existing(id string) (Item, *Day, error) {
	it, ok := m.cal.Find(id)
	if !ok {
		return Item{}, nil, fmt.Errorf("%s: %w", id, ErrItemNotFound)
	}
	return it, m.cal.days[it.Day], nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
