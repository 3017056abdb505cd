// Package sequencer drives the map marker over the route of waypoints. It is
// tick driven: a caller advances it with Tick(dt) and reads snapshots, so the
// whole animation is deterministic and testable without timers.
package sequencer

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/klabast/wb-services/advent-kalender/internal/calendar"
)

// Timing of the animation programs.
const (
	DefaultLegDuration = 3000 * time.Millisecond
	DefaultDwell       = 1200 * time.Millisecond
	DefaultLoopPause   = 2000 * time.Millisecond
	DefaultLoopArc     = -40.0
	FlyToDuration      = 2500 * time.Millisecond
	FlyToArc           = -50.0
	VisitLeadIn        = 300 * time.Millisecond
	VisitLegDuration   = 2000 * time.Millisecond
	VisitDwell         = 800 * time.Millisecond
	VisitArc           = -50.0
	ReturnDuration     = 1500 * time.Millisecond
	ReturnArc          = -30.0
)

const (
	minStepDuration = time.Millisecond
	maxStepsPerTick = 10000

	programNone  = ""
	programLoop  = "loop"
	programFlyTo = "fly-to"
	programVisit = "visit"
)

var (
	// StartPosition is where a fresh animation begins.
	StartPosition = Point{X: 100, Y: 80}
	// ReturnPosition is where a day visit ends.
	ReturnPosition = Point{X: 30, Y: 30}
)

// Option configures a Sequencer.
type Option func(*Sequencer)

// WithLegDuration sets the continuous-loop leg duration.
func WithLegDuration(d time.Duration) Option { return func(s *Sequencer) { s.legDuration = d } }

// WithDwell sets the pause after each continuous-loop arrival.
func WithDwell(d time.Duration) Option { return func(s *Sequencer) { s.dwell = d } }

// WithLoopPause sets the extra pause after the last waypoint of a loop.
func WithLoopPause(d time.Duration) Option { return func(s *Sequencer) { s.loopPause = d } }

// WithArc sets the continuous-loop arc height. Negative values lift.
func WithArc(h float64) Option { return func(s *Sequencer) { s.arc = h } }

// WithShuffle orders the route with calendar.SeededShuffle instead of by
// longitude.
func WithShuffle(seed int64) Option {
	return func(s *Sequencer) {
		s.shuffle = true
		s.seed = seed
	}
}

// WithObserver registers an observer at construction time.
func WithObserver(o Observer) Option {
	return func(s *Sequencer) { s.observers = append(s.observers, o) }
}

// WithLogger sets the logger. The default discards.
func WithLogger(l *zap.Logger) Option { return func(s *Sequencer) { s.logger = l } }

type stepKind int

const (
	stepWait stepKind = iota
	stepLeg
)

type step struct {
	kind     stepKind
	duration time.Duration

	// legs only
	target   Point
	ease     EaseFunc
	arc      float64
	arrival  bool
	routeIdx int
	id       int
}

type routeStop struct {
	Point
	Waypoint
}

// Sequencer owns the AnimationState. All methods are safe for concurrent use.
type Sequencer struct {
	mu     sync.Mutex
	tickMu sync.Mutex

	route     []routeStop
	byID      map[int]int
	observers []Observer
	logger    *zap.Logger

	legDuration time.Duration
	dwell       time.Duration
	loopPause   time.Duration
	arc         float64
	shuffle     bool
	seed        int64

	// animation state
	position Point
	facing   Facing
	mode     Mode
	index    int
	visited  map[int]struct{}

	// program state
	program  string
	steps    []step
	cont     bool
	loop     int
	legs     int
	cur      *step
	from     Point
	elapsed  time.Duration
	canceled bool
}

// New builds a sequencer over waypoints, projecting each once through p.
func New(waypoints []Waypoint, p Projector, opts ...Option) *Sequencer {
	s := &Sequencer{
		legDuration: DefaultLegDuration,
		dwell:       DefaultDwell,
		loopPause:   DefaultLoopPause,
		arc:         DefaultLoopArc,
		logger:      zap.NewNop(),
		position:    StartPosition,
		visited:     map[int]struct{}{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	ordered := append([]Waypoint(nil), waypoints...)
	if s.shuffle {
		perm := calendar.SeededShuffle(len(ordered), s.seed)
		shuffled := make([]Waypoint, len(ordered))
		for i, j := range perm {
			shuffled[i] = ordered[j]
		}
		ordered = shuffled
	} else {
		sort.SliceStable(ordered, func(i, j int) bool {
			if ordered[i].Lng != ordered[j].Lng {
				return ordered[i].Lng < ordered[j].Lng
			}
			return ordered[i].ID < ordered[j].ID
		})
	}

	s.byID = make(map[int]int, len(ordered))
	for i, wp := range ordered {
		s.route = append(s.route, routeStop{Point: p.Project(wp.Lat, wp.Lng), Waypoint: wp})
		s.byID[wp.ID] = i
	}
	return s
}

// Subscribe adds an observer.
func (s *Sequencer) Subscribe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Route returns the waypoints in traversal order.
func (s *Sequencer) Route() []Waypoint {
	out := make([]Waypoint, len(s.route))
	for i, st := range s.route {
		out[i] = st.Waypoint
	}
	return out
}

// Lookup returns the projected position of a waypoint.
func (s *Sequencer) Lookup(id int) (Point, error) {
	i, ok := s.byID[id]
	if !ok {
		return Point{}, fmt.Errorf("%w: %d", ErrUnknownWaypoint, id)
	}
	return s.route[i].Point, nil
}

// Snapshot returns the current AnimationState.
func (s *Sequencer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Position:      s.position,
		WaypointIndex: s.index,
		Facing:        s.facing,
		Mode:          s.mode,
		Running:       s.runningLocked(),
		Program:       s.program,
		Loop:          s.loop,
		Visited:       make([]int, 0, len(s.visited)),
	}
	if s.index >= 0 && s.index < len(s.route) {
		st.WaypointID = s.route[s.index].ID
	}
	for id := range s.visited {
		st.Visited = append(st.Visited, id)
	}
	sort.Ints(st.Visited)
	return st
}

// Running reports whether a program is active and not cancelled.
func (s *Sequencer) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runningLocked()
}

func (s *Sequencer) runningLocked() bool {
	return s.program != programNone && !s.canceled
}

// Start begins the continuous loop. It is a no-op while a program runs or
// when the route is empty. The animation state is recreated at the start
// position every time.
func (s *Sequencer) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runningLocked() || len(s.route) == 0 {
		return false
	}
	s.resetLocked(programLoop)
	s.cont = true
	s.steps = s.loopStepsLocked()
	s.logger.Debug("sequencer started", zap.Int("waypoints", len(s.route)))
	return true
}

// Stop cancels the active program. The in-flight leg is discarded at the
// next Tick without firing its arrival.
func (s *Sequencer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.program == programNone {
		return
	}
	s.canceled = true
}

// Restart starts the loop unless a program is already running.
func (s *Sequencer) Restart() bool {
	return s.Start()
}

// FlyTo flies a single leg to the waypoint with id, from wherever the
// marker currently is. Unknown ids and calls while a program runs are
// silently ignored.
func (s *Sequencer) FlyTo(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.byID[id]
	if !ok {
		s.logger.Debug("fly-to skipped", zap.Error(fmt.Errorf("%w: %d", ErrUnknownWaypoint, id)))
		return false
	}
	if s.runningLocked() {
		return false
	}
	s.beginLocked(programFlyTo)
	s.steps = []step{s.legLocked(i, FlyToDuration, EaseOutCubic, FlyToArc, true)}
	return true
}

// VisitDay resets the marker to the start position, visits each known id in
// order and returns to the corner. Unknown ids are skipped. It returns false
// if nothing would be visited or another program runs.
func (s *Sequencer) VisitDay(ids []int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runningLocked() {
		return false
	}

	steps := []step{{kind: stepWait, duration: VisitLeadIn}}
	known := 0
	for _, id := range ids {
		i, ok := s.byID[id]
		if !ok {
			s.logger.Debug("visit skipped waypoint", zap.Int("id", id))
			continue
		}
		known++
		steps = append(steps,
			s.legLocked(i, VisitLegDuration, EaseOutCubic, VisitArc, true),
			step{kind: stepWait, duration: VisitDwell},
		)
	}
	if known == 0 {
		return false
	}
	steps = append(steps, step{
		kind:     stepLeg,
		duration: ReturnDuration,
		target:   ReturnPosition,
		ease:     EaseOutCubic,
		arc:      ReturnArc,
		routeIdx: -1,
	})

	s.resetLocked(programVisit)
	s.steps = steps
	return true
}

// resetLocked recreates the animation state for a new program.
func (s *Sequencer) resetLocked(program string) {
	s.position = StartPosition
	s.facing = Right
	s.mode = Idle
	s.index = 0
	s.visited = map[int]struct{}{}
	s.loop = 0
	s.beginLocked(program)
}

func (s *Sequencer) beginLocked(program string) {
	s.program = program
	s.steps = nil
	s.cont = false
	s.legs = 0
	s.cur = nil
	s.elapsed = 0
	s.canceled = false
}

func (s *Sequencer) endLocked(mode Mode) {
	s.program = programNone
	s.steps = nil
	s.cont = false
	s.cur = nil
	s.elapsed = 0
	s.canceled = false
	s.mode = mode
}

func (s *Sequencer) legLocked(routeIdx int, d time.Duration, ease EaseFunc, arc float64, arrival bool) step {
	st := s.route[routeIdx]
	return step{
		kind:     stepLeg,
		duration: d,
		target:   st.Point,
		ease:     ease,
		arc:      arc,
		arrival:  arrival,
		routeIdx: routeIdx,
		id:       st.ID,
	}
}

func (s *Sequencer) loopStepsLocked() []step {
	steps := make([]step, 0, 2*len(s.route)+1)
	for i := range s.route {
		steps = append(steps,
			s.legLocked(i, s.legDuration, EaseInOutQuad, s.arc, true),
			step{kind: stepWait, duration: s.dwell},
		)
	}
	return append(steps, step{kind: stepWait, duration: s.loopPause})
}

// nextStepLocked pops the next step, refilling the continuous loop.
func (s *Sequencer) nextStepLocked() {
	if len(s.steps) == 0 {
		s.loop++
		s.steps = s.loopStepsLocked()
	}
	next := s.steps[0]
	s.steps = s.steps[1:]
	if next.duration < minStepDuration {
		next.duration = minStepDuration
	}
	s.cur = &next
	s.elapsed = 0
	if next.kind == stepLeg {
		s.from = s.position
		s.facing = facingFor(s.from, next.target)
		s.mode = Flying
		if next.routeIdx >= 0 {
			s.index = next.routeIdx
		}
	}
}

// Tick advances the active program by dt. Time left over after a step
// completes carries into the following steps, so a large dt may complete
// several legs. Arrivals are delivered in order after the state is updated.
func (s *Sequencer) Tick(dt time.Duration) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	arrivals, observers := s.advance(dt)
	for _, a := range arrivals {
		for _, o := range observers {
			o.Arrived(a)
		}
	}
}

func (s *Sequencer) advance(dt time.Duration) ([]Arrival, []Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.program == programNone {
		return nil, nil
	}
	if s.canceled {
		s.logger.Debug("sequencer stopped", zap.String("program", s.program))
		s.endLocked(Stopped)
		return nil, nil
	}
	if dt < 0 {
		dt = 0
	}

	var arrivals []Arrival
	remaining := dt
	for guard := 0; guard < maxStepsPerTick; guard++ {
		if s.cur == nil {
			if len(s.steps) == 0 && !s.cont {
				if s.program == programVisit {
					s.facing = Right
				}
				s.endLocked(Idle)
				break
			}
			if remaining <= 0 {
				break
			}
			s.nextStepLocked()
		}

		cur := s.cur
		need := cur.duration - s.elapsed
		if remaining < need {
			s.elapsed += remaining
			if cur.kind == stepLeg {
				p := float64(s.elapsed) / float64(cur.duration)
				s.position = Interpolate(s.from, cur.target, p, cur.ease, cur.arc)
			}
			break
		}

		remaining -= need
		s.cur = nil
		s.elapsed = 0
		if cur.kind != stepLeg {
			continue
		}
		s.position = cur.target
		s.mode = Idle
		s.legs++
		if cur.arrival {
			s.visited[cur.id] = struct{}{}
			arrivals = append(arrivals, Arrival{
				WaypointID: cur.id,
				Position:   cur.target,
				Leg:        s.legs,
				Loop:       s.loop,
			})
		}
	}

	if len(arrivals) == 0 {
		return nil, nil
	}
	return arrivals, append([]Observer(nil), s.observers...)
}
