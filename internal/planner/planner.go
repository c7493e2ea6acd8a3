// Package planner keeps items planned for calendar days and makes undoable
// changes to them.
package planner

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/scheduler/internal/container"
	"github.com/roach88/scheduler/internal/edit"
)

// DayLayout is the ISO date format used for day keys.
const DayLayout = "2006-01-02"

var (
	// ErrInvalidDay is returned for day keys that are not ISO dates.
	ErrInvalidDay = errors.New("invalid day")
	// ErrItemNotFound is returned when a day has no item with the id.
	ErrItemNotFound = errors.New("planned item not found")
	// ErrDuplicateItem is returned when the item id is already planned on
	// the day.
	ErrDuplicateItem = errors.New("planned item already exists")
)

// Item is a planned entry. TaskPath optionally links it to a task.
type Item struct {
	ID       string
	Name     string
	TaskPath string
}

// Day is the ordered list of items planned for one date.
type Day = container.OrderedMap[string, *Item]

// Planner maps ISO dates to their planned items.
type Planner struct {
	days map[string]*Day
}

// New creates an empty planner.
func New() *Planner {
	return &Planner{days: make(map[string]*Day)}
}

// Items returns the items planned for day, in order.
func (p *Planner) Items(day string) []*Item {
	d, ok := p.days[day]
	if !ok {
		return nil
	}
	out := make([]*Item, 0, d.Len())
	for _, it := range d.All() {
		out = append(out, it)
	}
	return out
}

// Days returns the day keys that have at least one item, sorted.
func (p *Planner) Days() []string {
	out := make([]string, 0, len(p.days))
	for k, d := range p.days {
		if d.Len() > 0 {
			out = append(out, k)
		}
	}
	// ISO dates sort lexically.
	slices.Sort(out)
	return out
}

// Render prints every non-empty day with its items.
func (p *Planner) Render() string {
	var b strings.Builder
	for _, day := range p.Days() {
		fmt.Fprintf(&b, "%s:\n", day)
		for _, it := range p.Items(day) {
			fmt.Fprintf(&b, "  - %s", it.Name)
			if it.TaskPath != "" {
				fmt.Fprintf(&b, " -> %s", it.TaskPath)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// day returns the map for key, creating it if needed.
func (p *Planner) day(key string) (*Day, error) {
	if _, err := time.Parse(DayLayout, key); err != nil {
		return nil, fmt.Errorf("%q: %w", key, ErrInvalidDay)
	}
	d, ok := p.days[key]
	if !ok {
		d = container.NewOrderedMap[string, *Item]()
		p.days[key] = d
	}
	return d, nil
}

// Manager makes undoable changes to a Planner.
type Manager struct {
	planner *Planner
	log     *edit.Log
	ids     edit.IDGenerator
}

// NewManager wires a manager for p onto log. ids generates item IDs when
// AddItem is given an item without one.
func NewManager(p *Planner, log *edit.Log, ids edit.IDGenerator) *Manager {
	if ids == nil {
		ids = edit.UUIDv7Generator{}
	}
	return &Manager{planner: p, log: log, ids: ids}
}

// Planner returns the managed planner.
func (m *Manager) Planner() *Planner { return m.planner }

// AddItem plans item on day at index (negative appends). Returns the item
// ID.
func (m *Manager) AddItem(day string, item Item, index int) (string, error) {
	d, err := m.planner.day(day)
	if err != nil {
		return "", fmt.Errorf("add item: %w", err)
	}
	if item.ID == "" {
		item.ID = m.ids.Generate()
	}
	if d.Has(item.ID) {
		return "", fmt.Errorf("add item %s: %w", item.ID, ErrDuplicateItem)
	}
	it := &item
	var e edit.Edit
	if index < 0 {
		e = container.Add(d, it.ID, it)
	} else {
		e = container.Insert(d, it.ID, index, it)
	}
	if err := m.log.Apply(e, edit.Args{}, edit.WithDescription(fmt.Sprintf("plan %s on %s", it.Name, day))); err != nil {
		return "", err
	}
	return it.ID, nil
}

// RemoveItem unplans the item with id from day.
func (m *Manager) RemoveItem(day, id string) error {
	d, err := m.existing(day, id)
	if err != nil {
		return fmt.Errorf("remove item: %w", err)
	}
	return m.log.Apply(container.Remove(d, id), edit.Args{},
		edit.WithDescription(fmt.Sprintf("unplan %s from %s", id, day)))
}

// MoveItem moves an item to another day (or another position on the same
// day) as one edit. A negative index moves the item to the end of toDay.
func (m *Manager) MoveItem(fromDay, id, toDay string, index int) error {
	from, err := m.existing(fromDay, id)
	if err != nil {
		return fmt.Errorf("move item: %w", err)
	}
	to, err := m.planner.day(toDay)
	if err != nil {
		return fmt.Errorf("move item: %w", err)
	}
	desc := edit.WithDescription(fmt.Sprintf("move %s from %s to %s", id, fromDay, toDay))
	if from == to {
		if index < 0 {
			index = to.Len() - 1
		}
		return m.log.Apply(container.Move(to, id, index), edit.Args{}, desc)
	}
	if to.Has(id) {
		return fmt.Errorf("move item %s: %w", id, ErrDuplicateItem)
	}
	it, _ := from.Get(id)
	if index < 0 {
		index = to.Len()
	}
	comp, err := edit.NewComposite("move_item", []edit.Edit{
		container.Remove(from, id),
		container.Insert(to, id, index, it),
	})
	if err != nil {
		return fmt.Errorf("move item: %w", err)
	}
	return m.log.Apply(comp, edit.Bundle(edit.Args{}, edit.Args{}), desc)
}

// SortDay orders a day's items by name. Undo restores the previous order.
func (m *Manager) SortDay(day string) error {
	d, err := m.planner.day(day)
	if err != nil {
		return fmt.Errorf("sort day: %w", err)
	}
	s := container.NewSnapshot("sort_day", d, func(d *Day) error {
		d.SortByValue(func(a, b *Item) int { return strings.Compare(a.Name, b.Name) })
		return nil
	})
	return m.log.Apply(s, edit.Args{}, edit.WithDescription("sort "+day))
}

func (m *Manager) existing(day, id string) (*Day, error) {
	d, err := m.planner.day(day)
	if err != nil {
		return nil, err
	}
	if !d.Has(id) {
		return nil, fmt.Errorf("%s on %s: %w", id, day, ErrItemNotFound)
	}
	return d, nil
}
