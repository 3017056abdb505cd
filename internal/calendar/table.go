package calendar

import (
	_ "embed"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed data/carsk.yaml
var defaultTableYAML []byte

// Table is the static, read-only schedule.
type Table struct {
	Name         string
	PrizePerItem string
	TrackingFrom string
	Days         []ScheduledDay
	GrandPrize   GrandPrize
	Recruitment  map[int]int
}

type tableDoc struct {
	Name          string      `yaml:"name"`
	StartDate     string      `yaml:"start_date"`
	Prize         string      `yaml:"prize_per_center"`
	TrackingStart string      `yaml:"recruitment_tracking_start"`
	GrandPrize    grandDoc    `yaml:"grand_prize"`
	Recruitment   map[int]int `yaml:"recruitment"`
	Days          []dayDoc    `yaml:"days"`
}

type grandDoc struct {
	Date    string   `yaml:"date"`
	Title   string   `yaml:"title"`
	Winners []Winner `yaml:"winners"`
	Message string   `yaml:"message"`
	Amount  string   `yaml:"amount"`
}

type dayDoc struct {
	Date        string `yaml:"date"`
	Superlative string `yaml:"superlative"`
	Description string `yaml:"description"`
	Centers     []Item `yaml:"centers"`
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
	defaultErr   error
)

// DefaultTable returns the embedded schedule, parsed once.
func DefaultTable() (*Table, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = ParseTable(defaultTableYAML)
	})
	return defaultTable, defaultErr
}

// LoadTable reads and validates a schedule from a YAML file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML schedule. Days without an explicit date are
// placed on consecutive working days from start_date.
func ParseTable(data []byte) (*Table, error) {
	var doc tableDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidTable, err)
	}
	if len(doc.Days) == 0 {
		return nil, fmt.Errorf("%w: no days", ErrInvalidTable)
	}

	var derived []time.Time
	if doc.StartDate != "" {
		start, err := time.Parse(DateLayout, doc.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: start_date: %v", ErrInvalidTable, err)
		}
		derived = WorkingDays(start, len(doc.Days))
	}

	t := &Table{
		Name:         doc.Name,
		PrizePerItem: doc.Prize,
		TrackingFrom: doc.TrackingStart,
		Recruitment:  doc.Recruitment,
	}
	if t.Recruitment == nil {
		t.Recruitment = map[int]int{}
	}

	for i, d := range doc.Days {
		day := ScheduledDay{
			Index:                  i + 1,
			Superlative:            d.Superlative,
			SuperlativeDescription: d.Description,
			Items:                  d.Centers,
		}
		switch {
		case d.Date != "":
			date, err := time.Parse(DateLayout, d.Date)
			if err != nil {
				return nil, fmt.Errorf("%w: day %d date: %v", ErrInvalidTable, day.Index, err)
			}
			day.Date = date
		case derived != nil:
			day.Date = derived[i]
		default:
			return nil, fmt.Errorf("%w: day %d has no date and no start_date is set", ErrInvalidTable, day.Index)
		}
		t.Days = append(t.Days, day)
	}

	grandDate, err := time.Parse(DateLayout, doc.GrandPrize.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: grand_prize date: %v", ErrInvalidTable, err)
	}
	t.GrandPrize = GrandPrize{
		Index:   len(t.Days) + 1,
		Date:    grandDate,
		Title:   doc.GrandPrize.Title,
		Winners: doc.GrandPrize.Winners,
		Message: doc.GrandPrize.Message,
		Amount:  doc.GrandPrize.Amount,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the table invariants: strictly increasing dates,
// non-empty days, unique item ids and a grand prize after the last day.
func (t *Table) Validate() error {
	seen := map[int]bool{}
	for i, day := range t.Days {
		if day.Index != i+1 {
			return fmt.Errorf("%w: day at position %d has index %d", ErrInvalidTable, i+1, day.Index)
		}
		if len(day.Items) == 0 {
			return fmt.Errorf("%w: day %d has no items", ErrInvalidTable, day.Index)
		}
		if i > 0 && !t.Days[i-1].Date.Before(day.Date) {
			return fmt.Errorf("%w: day %d is not after day %d", ErrInvalidTable, day.Index, day.Index-1)
		}
		for _, it := range day.Items {
			if seen[it.ID] {
				return fmt.Errorf("%w: duplicate item id %d", ErrInvalidTable, it.ID)
			}
			seen[it.ID] = true
		}
	}
	if n := len(t.Days); n > 0 && !t.Days[n-1].Date.Before(t.GrandPrize.Date) {
		return fmt.Errorf("%w: grand prize must follow the last day", ErrInvalidTable)
	}
	return nil
}

// Day returns the regular day with the given 1-based index.
func (t *Table) Day(index int) (ScheduledDay, bool) {
	if index < 1 || index > len(t.Days) {
		return ScheduledDay{}, false
	}
	return t.Days[index-1], true
}

// Items returns every item in table order.
func (t *Table) Items() []Item {
	var out []Item
	for _, day := range t.Days {
		out = append(out, day.Items...)
	}
	return out
}

// Item finds an item by id.
func (t *Table) Item(id int) (Item, bool) {
	for _, day := range t.Days {
		for _, it := range day.Items {
			if it.ID == id {
				return it, true
			}
		}
	}
	return Item{}, false
}

// DayOfItem returns the index of the day an item is scheduled on.
func (t *Table) DayOfItem(id int) (int, bool) {
	for _, day := range t.Days {
		for _, it := range day.Items {
			if it.ID == id {
				return day.Index, true
			}
		}
	}
	return 0, false
}

// RecruitmentCount returns the recruitment total for an item, 0 if unknown.
func (t *Table) RecruitmentCount(id int) int {
	return t.Recruitment[id]
}
