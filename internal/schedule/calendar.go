// Package schedule keeps time-blocked calendar items and makes undoable
// changes to them.
package schedule

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/scheduler/internal/container"
	"github.com/roach88/scheduler/internal/tasks"
)

// DayLayout is the ISO date format used for day keys.
const DayLayout = "2006-01-02"

// EndOfDay is the latest time an item may end.
const EndOfDay Minute = 24 * 60

var (
	// ErrInvalidDay is returned for day keys that are not ISO dates.
	ErrInvalidDay = errors.New("invalid day")
	// ErrInvalidTime is returned for malformed times and empty or
	// inverted ranges.
	ErrInvalidTime = errors.New("invalid time range")
	// ErrItemNotFound is returned when no item has the id.
	ErrItemNotFound = errors.New("scheduled item not found")
	// ErrDuplicateItem is returned when the id is already scheduled.
	ErrDuplicateItem = errors.New("scheduled item already exists")
)

// Minute is a time of day in minutes after midnight.
type Minute int

// ParseMinute reads "15:04". "24:00" is accepted as the end of the day.
func ParseMinute(s string) (Minute, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" {
		return EndOfDay, nil
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrInvalidTime)
	}
	return Minute(t.Hour()*60 + t.Minute()), nil
}

func (m Minute) String() string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// Item is a block of time on one day, optionally linked to a task.
type Item struct {
	ID       string
	Name     string
	Day      string
	Start    Minute
	End      Minute
	Category string
	TaskPath string
	Status   tasks.Status
}

func (it Item) validate() error {
	if strings.TrimSpace(it.Name) == "" {
		return errors.New("name is required")
	}
	if _, err := time.Parse(DayLayout, it.Day); err != nil {
		return fmt.Errorf("%q: %w", it.Day, ErrInvalidDay)
	}
	if it.Start < 0 || it.End > EndOfDay || it.Start >= it.End {
		return fmt.Errorf("%s-%s: %w", it.Start, it.End, ErrInvalidTime)
	}
	if _, err := tasks.ParseStatus(string(it.Status)); err != nil {
		return err
	}
	return nil
}

// Day holds one date's items ordered by start time.
type Day = container.OrderedMap[string, Item]

// Calendar maps ISO dates to their scheduled items.
type Calendar struct {
	days map[string]*Day
}

// New creates an empty calendar.
func New() *Calendar {
	return &Calendar{days: make(map[string]*Day)}
}

// Items returns the items scheduled on day, earliest first.
func (c *Calendar) Items(day string) []Item {
	d, ok := c.days[day]
	if !ok {
		return nil
	}
	out := make([]Item, 0, d.Len())
	for _, it := range d.All() {
		out = append(out, it)
	}
	return out
}

// Days returns the days that have at least one item, sorted.
func (c *Calendar) Days() []string {
	out := make([]string, 0, len(c.days))
	for k, d := range c.days {
		if d.Len() > 0 {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}

// Find returns the item with id.
func (c *Calendar) Find(id string) (Item, bool) {
	for _, d := range c.days {
		if it, ok := d.Get(id); ok {
			return it, true
		}
	}
	return Item{}, false
}

// Overlaps returns the ids of items on day whose ranges intersect, as
// pairs in start order.
func (c *Calendar) Overlaps(day string) [][2]string {
	items := c.Items(day)
	var out [][2]string
	for i, a := range items {
		for _, b := range items[i+1:] {
			if b.Start >= a.End {
				break
			}
			out = append(out, [2]string{a.ID, b.ID})
		}
	}
	return out
}

// Render prints every non-empty day with its items.
//
//	2024-03-04:
//	  09:00-09:30 standup [Unstarted] (work) -> Work/Reports
func (c *Calendar) Render() string {
	var b strings.Builder
	for _, day := range c.Days() {
		fmt.Fprintf(&b, "%s:\n", day)
		for _, it := range c.Items(day) {
			fmt.Fprintf(&b, "  %s-%s %s [%s]", it.Start, it.End, it.Name, it.Status)
			if it.Category != "" {
				fmt.Fprintf(&b, " (%s)", it.Category)
			}
			if it.TaskPath != "" {
				fmt.Fprintf(&b, " -> %s", it.TaskPath)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// day returns the map for key, creating it if needed.
func (c *Calendar) day(key string) (*Day, error) {
	if _, err := time.Parse(DayLayout, key); err != nil {
		return nil, fmt.Errorf("%q: %w", key, ErrInvalidDay)
	}
	d, ok := c.days[key]
	if !ok {
		d = container.NewOrderedMap[string, Item]()
		c.days[key] = d
	}
	return d, nil
}

// slot is the index it would take in d among the other items, keeping
// start order. Items starting at the same time keep insertion order.
func slot(d *Day, it Item) int {
	n := 0
	for id, other := range d.All() {
		if id != it.ID && other.Start <= it.Start {
			n++
		}
	}
	return n
}
