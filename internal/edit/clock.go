package edit

// Sequencer stamps log events with strictly increasing numbers.
type Sequencer interface {
	Next() int64
}

// Clock is the default Sequencer: a counter owned by one Log, so it shares
// the Log's single-goroutine contract.
type Clock struct {
	last int64
}

// NewClock returns a clock whose first seq is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first seq is last+1. Pass the highest
// journaled seq to keep appending to a resumed session.
func NewClockAt(last int64) *Clock {
	return &Clock{last: last}
}

// Next issues the next seq.
func (c *Clock) Next() int64 {
	c.last++
	return c.last
}
