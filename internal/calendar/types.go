package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Role is the function a person holds within a center's study team.
type Role int

const (
	PrimaryInvestigator Role = iota
	CoInvestigator
	Coordinator
	Manager
	Nurse
)

var roleLabels = map[Role]string{
	PrimaryInvestigator: "PI",
	CoInvestigator:      "Co-I",
	Coordinator:         "Research Coordinator",
	Manager:             "Research Manager",
	Nurse:               "Research Nurse",
}

// Roles lists every role in display order.
var Roles = []Role{PrimaryInvestigator, CoInvestigator, Manager, Coordinator, Nurse}

func (r Role) String() string {
	if label, ok := roleLabels[r]; ok {
		return label
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// ParseRole maps a display label back to its Role.
func ParseRole(label string) (Role, error) {
	for role, l := range roleLabels {
		if strings.EqualFold(l, strings.TrimSpace(label)) {
			return role, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", label)
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Person is a recognised team member.
type Person struct {
	Name string `json:"name" yaml:"name"`
	Role Role   `json:"role" yaml:"role"`
}

// Waypoint is a geographic point used as a map marker and flight target.
type Waypoint struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Item is a participating center.
type Item struct {
	ID       int      `json:"id" yaml:"id"`
	Name     string   `json:"name" yaml:"name"`
	City     string   `json:"city" yaml:"city"`
	State    string   `json:"state,omitempty" yaml:"state"`
	Country  string   `json:"country" yaml:"country"`
	Waypoint Waypoint `json:"coordinates" yaml:"coordinates"`
	People   []Person `json:"members" yaml:"members"`
}

// Location renders "City, State, Country", dropping the state when empty.
func (it Item) Location() string {
	if it.State == "" {
		return fmt.Sprintf("%s, %s", it.City, it.Country)
	}
	return fmt.Sprintf("%s, %s, %s", it.City, it.State, it.Country)
}

// PeopleByRole groups members by role, keeping their table order.
func (it Item) PeopleByRole() map[Role][]Person {
	grouped := make(map[Role][]Person)
	for _, p := range it.People {
		grouped[p.Role] = append(grouped[p.Role], p)
	}
	return grouped
}

// ScheduledDay is one calendar cell.
type ScheduledDay struct {
	Index                  int       `json:"day"`
	Date                   time.Time `json:"date"`
	Superlative            string    `json:"superlative,omitempty"`
	SuperlativeDescription string    `json:"superlativeDescription,omitempty"`
	Items                  []Item    `json:"centers"`
}

// Winner is one entry of the grand prize reveal.
type Winner struct {
	Name     string `json:"name" yaml:"name"`
	Location string `json:"location" yaml:"location"`
}

// GrandPrize is the terminal day. It carries a fixed payload instead of items.
type GrandPrize struct {
	Index   int       `json:"day"`
	Date    time.Time `json:"date"`
	Title   string    `json:"title"`
	Winners []Winner  `json:"winners"`
	Message string    `json:"message"`
	Amount  string    `json:"amount"`
}

// Day returns the grand prize as an item-less ScheduledDay so it can go
// through the same state computation.
func (g GrandPrize) Day() ScheduledDay {
	return ScheduledDay{Index: g.Index, Date: g.Date}
}

// OpenedSet holds the indices of days a visitor has revealed.
type OpenedSet map[int]struct{}

// NewOpenedSet builds a set from a list of indices.
func NewOpenedSet(indices ...int) OpenedSet {
	s := make(OpenedSet, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}

func (s OpenedSet) Has(index int) bool {
	_, ok := s[index]
	return ok
}

// Sorted returns the indices in ascending order.
func (s OpenedSet) Sorted() []int {
	out := make([]int, 0, len(s))
	for i := range s {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

func (s OpenedSet) Clone() OpenedSet {
	c := make(OpenedSet, len(s))
	for i := range s {
		c[i] = struct{}{}
	}
	return c
}
