package calendar

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// OpenedStore persists one visitor's OpenedSet under a key. A missing key
// loads as an empty list.
type OpenedStore interface {
	LoadOpened(ctx context.Context, key string) ([]int, error)
	SaveOpened(ctx context.Context, key string, indices []int) error
	DeleteOpened(ctx context.Context, key string) error
}

// Listener is notified whenever derived day states may have changed.
type Listener interface {
	StatesChanged(at time.Time, days []DayState, grandPrize DayState)
}

// ListenerFunc adapts a plain function to Listener.
type ListenerFunc func(at time.Time, days []DayState, grandPrize DayState)

func (f ListenerFunc) StatesChanged(at time.Time, days []DayState, grandPrize DayState) {
	f(at, days, grandPrize)
}

// Controller owns one OpenedSet and answers state questions about the table.
type Controller struct {
	mu        sync.RWMutex
	table     *Table
	clock     *Clock
	store     OpenedStore
	key       string
	opened    OpenedSet
	degraded  bool
	listeners []Listener
	logger    *zap.Logger
	unsub     func()
}

// NewController restores the OpenedSet stored under key. A load failure
// leaves the controller degraded with an empty in-memory set.
func NewController(ctx context.Context, table *Table, clock *Clock, store OpenedStore, key string, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Controller{
		table:  table,
		clock:  clock,
		store:  store,
		key:    key,
		opened: OpenedSet{},
		logger: logger.With(zap.String("key", key)),
	}

	if store != nil {
		indices, err := store.LoadOpened(ctx, key)
		if err != nil {
			c.degraded = true
			c.logger.Warn("opened set unavailable, continuing in memory", zap.Error(err))
		} else {
			c.opened = NewOpenedSet(indices...)
		}
	}

	c.unsub = clock.Subscribe(func(today time.Time) { c.notify(today) })
	return c
}

// Close detaches the controller from its clock.
func (c *Controller) Close() {
	if c.unsub != nil {
		c.unsub()
	}
}

// Table returns the controller's read-only table.
func (c *Controller) Table() *Table { return c.table }

// Clock returns the virtual clock the controller evaluates against.
func (c *Controller) Clock() *Clock { return c.clock }

// Degraded reports whether persistence has failed during this session.
func (c *Controller) Degraded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.degraded
}

// Opened returns a copy of the current OpenedSet.
func (c *Controller) Opened() OpenedSet {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opened.Clone()
}

// Subscribe registers a listener for state changes.
func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Lookup returns the regular or grand prize day for index.
func (c *Controller) Lookup(index int) (ScheduledDay, bool) {
	if day, ok := c.table.Day(index); ok {
		return day, true
	}
	if index == c.table.GrandPrize.Index {
		return c.table.GrandPrize.Day(), true
	}
	return ScheduledDay{}, false
}

// StateAt computes the state of one day at the given virtual date.
func (c *Controller) StateAt(index int, at time.Time) (State, error) {
	day, ok := c.Lookup(index)
	if !ok {
		return Locked, fmt.Errorf("%w: %d", ErrUnknownDay, index)
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ComputeState(day, at, c.opened), nil
}

// States computes every regular day at the current virtual date.
func (c *Controller) States() []DayState {
	return c.StatesAt(c.clock.Today())
}

// StatesAt computes every regular day at the given virtual date.
func (c *Controller) StatesAt(at time.Time) []DayState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statesLocked(at)
}

// GrandPrizeStateAt computes the grand prize cell at the given virtual date.
func (c *Controller) GrandPrizeStateAt(at time.Time) DayState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return dayState(c.table.GrandPrize.Day(), at, c.opened)
}

func (c *Controller) statesLocked(at time.Time) []DayState {
	out := make([]DayState, 0, len(c.table.Days))
	for _, day := range c.table.Days {
		out = append(out, dayState(day, at, c.opened))
	}
	return out
}

// VisitedItems returns the ids of items whose day is unlocked at the given
// date, in table order.
func (c *Controller) VisitedItems(at time.Time) []int {
	var ids []int
	for _, day := range c.table.Days {
		if ComputeState(day, at, nil) == Locked {
			continue
		}
		for _, it := range day.Items {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// Open reveals a day at the current virtual date.
func (c *Controller) Open(ctx context.Context, index int) (OpenedSet, bool) {
	return c.OpenAt(ctx, index, c.clock.Today())
}

// OpenAt reveals a day as of the given virtual date. Locked and unknown days
// are refused without touching the set. The set is persisted before
// returning; a persistence failure keeps the change in memory only.
func (c *Controller) OpenAt(ctx context.Context, index int, at time.Time) (OpenedSet, bool) {
	day, ok := c.Lookup(index)
	if !ok {
		return c.Opened(), false
	}

	c.mu.Lock()
	if ComputeState(day, at, c.opened) == Locked {
		snapshot := c.opened.Clone()
		c.mu.Unlock()
		c.logger.Debug("refusing to open locked day", zap.Int("day", index), zap.Time("at", at))
		return snapshot, false
	}
	if c.opened.Has(index) {
		snapshot := c.opened.Clone()
		c.mu.Unlock()
		return snapshot, true
	}

	c.opened[index] = struct{}{}
	c.persistLocked(func() error {
		return c.store.SaveOpened(ctx, c.key, c.opened.Sorted())
	})
	snapshot := c.opened.Clone()
	c.mu.Unlock()

	c.notify(at)
	return snapshot, true
}

// Reset clears the set and durably removes the stored value.
func (c *Controller) Reset(ctx context.Context) OpenedSet {
	c.mu.Lock()
	c.opened = OpenedSet{}
	c.persistLocked(func() error {
		return c.store.DeleteOpened(ctx, c.key)
	})
	c.mu.Unlock()

	c.notify(c.clock.Today())
	return OpenedSet{}
}

// persistLocked runs write against the store. Caller must hold c.mu.
func (c *Controller) persistLocked(write func() error) {
	if c.store == nil {
		return
	}
	if err := write(); err != nil {
		c.degraded = true
		c.logger.Warn("persisting opened set failed, keeping in memory",
			zap.Error(errors.Join(ErrPersistenceUnavailable, err)))
	}
}

func (c *Controller) notify(at time.Time) {
	c.mu.RLock()
	if len(c.listeners) == 0 {
		c.mu.RUnlock()
		return
	}
	days := c.statesLocked(at)
	grand := dayState(c.table.GrandPrize.Day(), at, c.opened)
	listeners := append([]Listener{}, c.listeners...)
	c.mu.RUnlock()

	for _, l := range listeners {
		l.StatesChanged(at, days, grand)
	}
}
