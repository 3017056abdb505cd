package calendar

import (
	"fmt"
	"time"
)

// State is the lock state of a calendar cell.
type State int

const (
	Locked State = iota
	AvailableUnopened
	AvailableOpened
)

func (s State) String() string {
	switch s {
	case Locked:
		return "locked"
	case AvailableUnopened:
		return "available"
	case AvailableOpened:
		return "opened"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Locked, AvailableUnopened, AvailableOpened} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// ComputeState derives a day's state from the virtual date and the opened
// set. Only the calendar date of both values is compared.
func ComputeState(day ScheduledDay, virtualDate time.Time, opened OpenedSet) State {
	if DateOf(virtualDate).Before(DateOf(day.Date)) {
		return Locked
	}
	if opened.Has(day.Index) {
		return AvailableOpened
	}
	return AvailableUnopened
}

// DayState is the per-day view handed to renderers.
type DayState struct {
	Index int       `json:"day"`
	Date  time.Time `json:"date"`
	State State     `json:"state"`
	Today bool      `json:"today"`
	Items int       `json:"centers"`
}

func dayState(day ScheduledDay, at time.Time, opened OpenedSet) DayState {
	st := ComputeState(day, at, opened)
	return DayState{
		Index: day.Index,
		Date:  day.Date,
		State: st,
		Today: st != Locked && DateOf(at).Equal(DateOf(day.Date)),
		Items: len(day.Items),
	}
}
