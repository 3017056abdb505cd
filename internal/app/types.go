package app

import (
	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
	"github.com/klabast/wb-services/advent-kalender/internal/projection"
	"github.com/klabast/wb-services/advent-kalender/internal/sequencer"
)

// ConfigResponse describes the calendar to a renderer.
type ConfigResponse struct {
	Name           string              `json:"name"`
	PrizePerCenter string              `json:"prizePerCenter"`
	TrackingFrom   string              `json:"recruitmentTrackingStart"`
	Today          string              `json:"today"`
	DateOverride   string              `json:"dateOverride,omitempty"`
	Days           int                 `json:"days"`
	GrandPrizeDay  int                 `json:"grandPrizeDay"`
	Roles          []string            `json:"roles"`
	Map            projection.Mercator `json:"map"`
	SantaEnabled   bool                `json:"santaEnabled"`
}

// CalendarResponse is the per-visitor state of every cell.
type CalendarResponse struct {
	Today      string              `json:"today"`
	Degraded   bool                `json:"degraded"`
	Opened     []int               `json:"opened"`
	Days       []calendar.DayState `json:"days"`
	GrandPrize calendar.DayState   `json:"grandPrize"`
}

// RoleGroup lists the people of a center holding one role.
type RoleGroup struct {
	Role  string   `json:"role"`
	Names []string `json:"names"`
}

// CenterView is a center as shown inside an opened day.
type CenterView struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Location    string            `json:"location"`
	Coordinates calendar.Waypoint `json:"coordinates"`
	Recruitment int               `json:"recruitment"`
	Team        []RoleGroup       `json:"team"`
}

// DayResponse is the content revealed by an available day.
type DayResponse struct {
	Day                    int            `json:"day"`
	Date                   string         `json:"date"`
	State                  calendar.State `json:"state"`
	Superlative            string         `json:"superlative,omitempty"`
	SuperlativeDescription string         `json:"superlativeDescription,omitempty"`
	Prize                  string         `json:"prize,omitempty"`
	Centers                []CenterView   `json:"centers"`
}

// GrandPrizeResponse is the celebratory payload of the terminal day.
type GrandPrizeResponse struct {
	Day     int               `json:"day"`
	Date    string            `json:"date"`
	State   calendar.State    `json:"state"`
	Title   string            `json:"title"`
	Winners []calendar.Winner `json:"winners"`
	Message string            `json:"message"`
	Amount  string            `json:"amount"`
}

// OpenResponse reports the outcome of opening a day.
type OpenResponse struct {
	Day    int            `json:"day"`
	State  calendar.State `json:"state"`
	Opened []int          `json:"opened"`
}

// Marker is a map marker for one center.
type Marker struct {
	ID          int             `json:"id"`
	Name        string          `json:"name"`
	Location    string          `json:"location"`
	Day         int             `json:"day"`
	Visited     bool            `json:"visited"`
	Recruitment int             `json:"recruitment"`
	Pixel       sequencer.Point `json:"pixel"`
}

// ClockRequest sets the virtual clock override.
type ClockRequest struct {
	Date string `json:"date"`
}

// ClockResponse reports the virtual clock.
type ClockResponse struct {
	Today    string `json:"today"`
	Override string `json:"override,omitempty"`
}

// StatusResponse is a generic acknowledgement.
type StatusResponse struct {
	Status string `json:"status"`
}

// NewDayResponse builds the content of an available day.
func NewDayResponse(table *calendar.Table, day calendar.ScheduledDay, state calendar.State) DayResponse {
	resp := DayResponse{
		Day:                    day.Index,
		Date:                   day.Date.Format(calendar.DateLayout),
		State:                  state,
		Superlative:            day.Superlative,
		SuperlativeDescription: day.SuperlativeDescription,
		Prize:                  table.PrizePerItem,
		Centers:                make([]CenterView, 0, len(day.Items)),
	}
	for _, it := range day.Items {
		resp.Centers = append(resp.Centers, CenterView{
			ID:          it.ID,
			Name:        it.Name,
			Location:    it.Location(),
			Coordinates: it.Waypoint,
			Recruitment: table.RecruitmentCount(it.ID),
			Team:        teamByRole(it),
		})
	}
	return resp
}

// NewGrandPrizeResponse builds the grand prize payload.
func NewGrandPrizeResponse(g calendar.GrandPrize, state calendar.State) GrandPrizeResponse {
	return GrandPrizeResponse{
		Day:     g.Index,
		Date:    g.Date.Format(calendar.DateLayout),
		State:   state,
		Title:   g.Title,
		Winners: g.Winners,
		Message: g.Message,
		Amount:  g.Amount,
	}
}

// teamByRole groups members in display order, skipping empty roles.
func teamByRole(it calendar.Item) []RoleGroup {
	grouped := it.PeopleByRole()
	var team []RoleGroup
	for _, role := range calendar.Roles {
		people := grouped[role]
		if len(people) == 0 {
			continue
		}
		names := make([]string, len(people))
		for i, p := range people {
			names[i] = p.Name
		}
		team = append(team, RoleGroup{Role: role.String(), Names: names})
	}
	return team
}
