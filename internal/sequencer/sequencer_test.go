package sequencer

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// identity treats lat/lng as pixel y/x, which keeps expected positions obvious.
var identity = ProjectorFunc(func(lat, lng float64) Point { return Point{X: lng, Y: lat} })

type recorder struct {
	mu       sync.Mutex
	arrivals []Arrival
}

func (r *recorder) Arrived(a Arrival) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arrivals = append(r.arrivals, a)
}

func (r *recorder) ids() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]int, len(r.arrivals))
	for i, a := range r.arrivals {
		out[i] = a.WaypointID
	}
	return out
}

func threeWaypoints() []Waypoint {
	// deliberately out of longitude order
	return []Waypoint{
		{ID: 30, Lat: 200, Lng: 500},
		{ID: 10, Lat: 300, Lng: 200},
		{ID: 20, Lat: 250, Lng: 350},
	}
}

func TestRouteOrderedByLongitude(t *testing.T) {
	s := New(threeWaypoints(), identity)
	route := s.Route()
	require.Len(t, route, 3)
	assert.Equal(t, []int{10, 20, 30}, []int{route[0].ID, route[1].ID, route[2].ID})
}

func TestRouteLongitudeTiesBrokenByID(t *testing.T) {
	s := New([]Waypoint{{ID: 9, Lng: 1}, {ID: 3, Lng: 1}, {ID: 5, Lng: 0}}, identity)
	route := s.Route()
	assert.Equal(t, []int{5, 3, 9}, []int{route[0].ID, route[1].ID, route[2].ID})
}

func TestRouteShuffle(t *testing.T) {
	wps := []Waypoint{{ID: 1}, {ID: 2}, {ID: 3}}
	s := New(wps, identity, WithShuffle(1))
	route := s.Route()
	// SeededShuffle(3, 1) == [2 1 0]
	assert.Equal(t, []int{3, 2, 1}, []int{route[0].ID, route[1].ID, route[2].ID})
}

func TestContinuousLoopScenario(t *testing.T) {
	rec := &recorder{}
	s := New(threeWaypoints(), identity, WithObserver(rec))
	require.True(t, s.Start())

	oneStop := DefaultLegDuration + DefaultDwell
	s.Tick(3 * oneStop)
	assert.Equal(t, []int{10, 20, 30}, rec.ids())

	snap := s.Snapshot()
	assert.Equal(t, Idle, snap.Mode)
	assert.Equal(t, Point{X: 500, Y: 200}, snap.Position)
	assert.Equal(t, []int{10, 20, 30}, snap.Visited)

	s.Tick(DefaultLoopPause + DefaultLegDuration)
	assert.Equal(t, []int{10, 20, 30, 10}, rec.ids())
	assert.Equal(t, 1, rec.arrivals[3].Loop)
	assert.Equal(t, 4, rec.arrivals[3].Leg)
}

func TestSmallTicksMatchLargeTick(t *testing.T) {
	big := &recorder{}
	small := &recorder{}
	a := New(threeWaypoints(), identity, WithObserver(big))
	b := New(threeWaypoints(), identity, WithObserver(small))
	a.Start()
	b.Start()

	total := 20 * time.Second
	a.Tick(total)
	for elapsed := time.Duration(0); elapsed < total; elapsed += 10 * time.Millisecond {
		b.Tick(10 * time.Millisecond)
	}

	assert.Equal(t, big.ids(), small.ids())
	assert.Equal(t, a.Snapshot().Position, b.Snapshot().Position)
}

func TestFlyingMidLeg(t *testing.T) {
	s := New(threeWaypoints(), identity)
	s.Start()
	s.Tick(DefaultLegDuration / 2)

	snap := s.Snapshot()
	assert.Equal(t, Flying, snap.Mode)
	assert.Equal(t, 10, snap.WaypointID)
	assert.Equal(t, Right, snap.Facing, "200 > 100 so the first leg heads right")

	// ease-in-out is exactly 0.5 at the midpoint; the arc is at its peak
	want := Point{X: 100 + (200-100)*0.5, Y: 80 + (300-80)*0.5 + DefaultLoopArc}
	assert.InDelta(t, want.X, snap.Position.X, 1e-9)
	assert.InDelta(t, want.Y, snap.Position.Y, 1e-9)
}

func TestStopDiscardsInFlightLeg(t *testing.T) {
	rec := &recorder{}
	s := New(threeWaypoints(), identity, WithObserver(rec))
	s.Start()
	s.Tick(DefaultLegDuration - time.Millisecond)

	s.Stop()
	assert.False(t, s.Running())
	s.Tick(time.Hour)

	assert.Empty(t, rec.ids())
	snap := s.Snapshot()
	assert.Equal(t, Stopped, snap.Mode)
	assert.NotEqual(t, Point{X: 200, Y: 300}, snap.Position)

	s.Tick(time.Hour)
	assert.Empty(t, rec.ids(), "stopped sequencer does not move")
}

func TestStartIsNoOpWhileRunning(t *testing.T) {
	s := New(threeWaypoints(), identity)
	require.True(t, s.Start())
	s.Tick(time.Second)
	before := s.Snapshot()

	assert.False(t, s.Start())
	assert.False(t, s.Restart())
	assert.Equal(t, before, s.Snapshot())
}

func TestRepeatedStopStartNeverDoublesLegs(t *testing.T) {
	rec := &recorder{}
	s := New(threeWaypoints(), identity, WithObserver(rec))

	for i := 0; i < 5; i++ {
		s.Start()
		s.Tick(DefaultLegDuration / 3)
		s.Stop()
		s.Start()
	}
	assert.Empty(t, rec.ids())

	s.Tick(DefaultLegDuration)
	assert.Equal(t, []int{10}, rec.ids(), "one leg, one arrival")
}

func TestRestartAfterStopRecreatesState(t *testing.T) {
	s := New(threeWaypoints(), identity)
	s.Start()
	s.Tick(2 * (DefaultLegDuration + DefaultDwell))
	s.Stop()
	s.Tick(0)
	require.Equal(t, Stopped, s.Snapshot().Mode)

	require.True(t, s.Restart())
	snap := s.Snapshot()
	assert.Equal(t, StartPosition, snap.Position)
	assert.Equal(t, 0, snap.WaypointIndex)
	assert.Empty(t, snap.Visited)
	assert.True(t, snap.Running)
}

func TestFlyTo(t *testing.T) {
	rec := &recorder{}
	s := New(threeWaypoints(), identity, WithObserver(rec))

	assert.False(t, s.FlyTo(999))
	require.True(t, s.FlyTo(20))
	s.Tick(FlyToDuration)

	assert.Equal(t, []int{20}, rec.ids())
	snap := s.Snapshot()
	assert.Equal(t, Idle, snap.Mode)
	assert.False(t, snap.Running)
	assert.Equal(t, Point{X: 350, Y: 250}, snap.Position)

	require.True(t, s.FlyTo(10))
	s.Tick(FlyToDuration / 2)
	assert.Equal(t, Left, s.Snapshot().Facing)
}

func TestVisitDay(t *testing.T) {
	rec := &recorder{}
	s := New(threeWaypoints(), identity, WithObserver(rec))

	assert.False(t, s.VisitDay([]int{404}))
	require.True(t, s.VisitDay([]int{30, 404, 10}))
	assert.False(t, s.VisitDay([]int{20}), "one program at a time")

	s.Tick(VisitLeadIn)
	assert.Equal(t, StartPosition, s.Snapshot().Position)

	s.Tick(2 * (VisitLegDuration + VisitDwell))
	assert.Equal(t, []int{30, 10}, rec.ids())

	s.Tick(ReturnDuration)
	snap := s.Snapshot()
	assert.Equal(t, ReturnPosition, snap.Position)
	assert.Equal(t, Idle, snap.Mode)
	assert.Equal(t, Right, snap.Facing)
	assert.False(t, snap.Running)
	assert.Equal(t, []int{30, 10}, rec.ids(), "the return leg has no arrival")
}

func TestEmptyRouteNeverStarts(t *testing.T) {
	s := New(nil, identity)
	assert.False(t, s.Start())
	s.Tick(time.Hour)
	assert.Equal(t, Idle, s.Snapshot().Mode)
}

func TestLookup(t *testing.T) {
	s := New(threeWaypoints(), identity)
	p, err := s.Lookup(30)
	require.NoError(t, err)
	assert.Equal(t, Point{X: 500, Y: 200}, p)

	_, err = s.Lookup(1)
	assert.ErrorIs(t, err, ErrUnknownWaypoint)
}
