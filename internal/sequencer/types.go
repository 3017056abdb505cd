package sequencer

import (
	"errors"
	"fmt"
)

// ErrUnknownWaypoint is returned when an id is not on the route.
var ErrUnknownWaypoint = errors.New("unknown waypoint")

// Point is a pixel position in the map viewport.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Waypoint is a geographic animation target.
type Waypoint struct {
	ID  int     `json:"id"`
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Projector turns geographic coordinates into stable viewport pixels.
type Projector interface {
	Project(lat, lng float64) Point
}

// ProjectorFunc adapts a plain function to Projector.
type ProjectorFunc func(lat, lng float64) Point

func (f ProjectorFunc) Project(lat, lng float64) Point { return f(lat, lng) }

// Mode is the sequencer's coarse state.
type Mode int

const (
	Idle Mode = iota
	Flying
	Stopped
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Flying:
		return "flying"
	case Stopped:
		return "stopped"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// Facing is the horizontal orientation of the marker for the current leg.
type Facing int

const (
	Right Facing = iota
	Left
)

func (f Facing) String() string {
	if f == Left {
		return "left"
	}
	return "right"
}

func (f Facing) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

// State is a read-only snapshot of the animation.
type State struct {
	Position      Point  `json:"position"`
	WaypointIndex int    `json:"waypointIndex"`
	WaypointID    int    `json:"waypointId"`
	Facing        Facing `json:"facing"`
	Mode          Mode   `json:"mode"`
	Running       bool   `json:"running"`
	Program       string `json:"program,omitempty"`
	Loop          int    `json:"loop"`
	Visited       []int  `json:"visited"`
}

// Arrival is emitted when a leg reaches its waypoint.
type Arrival struct {
	WaypointID int   `json:"waypointId"`
	Position   Point `json:"position"`
	Leg        int   `json:"leg"`
	Loop       int   `json:"loop"`
}

// Observer receives arrival events in traversal order. Observers run on the
// goroutine that called Tick and must not call Tick themselves.
type Observer interface {
	Arrived(Arrival)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(Arrival)

func (f ObserverFunc) Arrived(a Arrival) { f(a) }
