package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aretw0/agenda/pkg/domain"
)

// Interval is a busy period on the in-memory calendar.
type Interval struct {
	Start time.Time
	End   time.Time
}

func (i Interval) overlaps(start, end time.Time) bool {
	return i.Start.Before(end) && start.Before(i.End)
}

// Event is an event created through CreateEvent.
type Event struct {
	ID      string
	Summary string
	Interval
}

// Calendar implements ports.Calendar in memory.
// It is used by the CLI demo mode and by tests. Safe for concurrent use.
type Calendar struct {
	mu     sync.Mutex
	busy   []Interval
	events []Event

	checkErr  error
	createErr error

	checks  int
	creates int
}

// NewCalendar creates an empty calendar, optionally pre-filled with busy intervals.
func NewCalendar(busy ...Interval) *Calendar {
	return &Calendar{busy: append([]Interval(nil), busy...)}
}

// Block marks [start, start+d) as busy.
func (c *Calendar) Block(start time.Time, d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.busy = append(c.busy, Interval{Start: start, End: start.Add(d)})
}

// FailChecks makes every CheckFree call return err (nil restores normal behaviour).
func (c *Calendar) FailChecks(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checkErr = err
}

// FailCreates makes every CreateEvent call return err (nil restores normal behaviour).
func (c *Calendar) FailCreates(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.createErr = err
}

// CheckFree reports whether [start, start+duration) is free of busy intervals and events.
func (c *Calendar) CheckFree(ctx context.Context, start time.Time, duration time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks++

	if c.checkErr != nil {
		return false, c.checkErr
	}

	end := start.Add(duration)
	for _, b := range c.busy {
		if b.overlaps(start, end) {
			return false, nil
		}
	}
	for _, e := range c.events {
		if e.overlaps(start, end) {
			return false, nil
		}
	}
	return true, nil
}

// CreateEvent records an event and marks its interval busy.
func (c *Calendar) CreateEvent(ctx context.Context, start time.Time, duration time.Duration, summary string) (domain.Booking, error) {
	if err := ctx.Err(); err != nil {
		return domain.Booking{}, fmt.Errorf("%w: %v", domain.ErrServiceUnavailable, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.creates++

	if c.createErr != nil {
		return domain.Booking{}, c.createErr
	}

	ev := Event{
		ID:       fmt.Sprintf("evt-%d", len(c.events)+1),
		Summary:  summary,
		Interval: Interval{Start: start, End: start.Add(duration)},
	}
	c.events = append(c.events, ev)

	return domain.Booking{
		EventID:      ev.ID,
		Start:        start,
		Confirmation: domain.ConfirmationText(start, ""),
	}, nil
}

// Events returns a copy of the created events.
func (c *Calendar) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

// Checks returns how many times CheckFree was called.
func (c *Calendar) Checks() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.checks
}

// Creates returns how many times CreateEvent was called.
func (c *Calendar) Creates() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.creates
}
