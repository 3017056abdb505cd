package calendar

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DateLayout is the wire format for civil dates.
const DateLayout = "2006-01-02"

// Clock is the virtual clock: wall-clock time unless an override date is set.
type Clock struct {
	mu        sync.RWMutex
	now       func() time.Time
	loc       *time.Location
	override  *time.Time
	nextID    int
	listeners map[int]func(time.Time)
}

// NewClock creates a clock. A nil now uses time.Now; a nil loc uses time.Local.
func NewClock(now func() time.Time, loc *time.Location) *Clock {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.Local
	}
	return &Clock{now: now, loc: loc, listeners: map[int]func(time.Time){}}
}

// Today returns the current virtual date.
func (c *Clock) Today() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.override != nil {
		return *c.override
	}
	return DateOf(c.now().In(c.loc))
}

// Now returns the wall-clock instant, ignoring any override.
func (c *Clock) Now() time.Time {
	return c.now()
}

// Override reports the active override, if any.
func (c *Clock) Override() (time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.override == nil {
		return time.Time{}, false
	}
	return *c.override, true
}

// SetOverride pins the virtual date and notifies subscribers.
func (c *Clock) SetOverride(date time.Time) {
	d := DateOf(date)
	c.mu.Lock()
	c.override = &d
	listeners := c.snapshotListenersLocked()
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(d)
	}
}

// ClearOverride returns the clock to wall-clock time and notifies subscribers.
func (c *Clock) ClearOverride() {
	c.mu.Lock()
	had := c.override != nil
	c.override = nil
	listeners := c.snapshotListenersLocked()
	c.mu.Unlock()

	if !had {
		return
	}
	today := c.Today()
	for _, fn := range listeners {
		fn(today)
	}
}

// Subscribe registers fn to run after every override change. The returned
// func removes the subscription.
func (c *Clock) Subscribe(fn func(today time.Time)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

func (c *Clock) snapshotListenersLocked() []func(time.Time) {
	ids := make([]int, 0, len(c.listeners))
	for id := range c.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]func(time.Time), 0, len(ids))
	for _, id := range ids {
		out = append(out, c.listeners[id])
	}
	return out
}

// ParseDateOverride parses a YYYY-MM-DD override. Partial or zero parts are
// rejected so that callers can fall back to the wall clock.
func ParseDateOverride(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateOverride, s)
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateOverride, s)
		}
		nums[i] = n
	}

	year, month, day := nums[0], nums[1], nums[2]
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date rolls 2025-02-31 over into March
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDateOverride, s)
	}
	return d, nil
}
