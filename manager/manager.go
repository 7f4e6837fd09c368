// Package manager implements the fleet manager coordinator: the process-wide
// registry of robots, the monotonic command-id allocator, the admission
// checks for outbound requests, and the run_once tick that drains the
// transport and feeds inbound states to the tracking subsystem.
package manager

import (
	"log"
	"time"

	"github.com/chianfern/free-fleet/events"
	"github.com/chianfern/free-fleet/messages"
	"github.com/chianfern/free-fleet/navgraph"
	"github.com/chianfern/free-fleet/robot"
	"github.com/chianfern/free-fleet/transform"
)

// Transport is the non-blocking boundary to the message middleware. Manager
// never blocks waiting on it; DrainStates must return immediately with
// whatever is already available.
type Transport interface {
	DrainStates() []messages.RobotState
	SendModeRequest(robotName string, req robot.Request) error
	SendNavigationRequest(robotName string, req robot.Request) error
	SendRelocalizationRequest(robotName string, req robot.Request) error
}

// Clock supplies the current time, so tests can control it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Options configures a Manager beyond the mandatory graph and transport.
type Options struct {
	// Threshold is the nearness threshold D used by waypoint tracking.
	Threshold float64
	// RelocalizationThreshold is the admission radius for Relocalization
	// requests. Zero means "use Threshold", per spec §9's default-equal
	// guidance; config.TrackingConfig.EffectiveRelocalizationThreshold
	// implements the same rule for callers wiring this up from a file.
	RelocalizationThreshold float64
	Transformer             transform.Transformer
	Clock       Clock
	// OnRobotUpdated, when set, is invoked after every inbound state is
	// applied to a RobotInfo, with a read-only view valid for the call only.
	OnRobotUpdated func(robot.View)
	// Events, when set, additionally receives RobotUpdated and
	// CommandAdmitted events for ambient observers (diagnostics, metrics).
	Events *events.Bus
}

const defaultThreshold = 0.5

// Manager is the single-threaded coordinator described in spec.md §4.4-§5.
// All exported methods must be invoked from one logical thread; see
// SyncManager for a mutex-guarded wrapper usable from several goroutines.
type Manager struct {
	graph       *navgraph.Graph
	transport   Transport
	transformer transform.Transformer
	clock       Clock
	threshold   float64
	onUpdated   func(robot.View)
	events      *events.Bus

	robots map[string]*robot.Info
	nextId messages.CommandId

	relocalizationThreshold float64
}

// New constructs a Manager over a fixed navigation graph and transport.
func New(graph *navgraph.Graph, t Transport, opts Options) *Manager {
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = defaultThreshold
	}
	relocThreshold := opts.RelocalizationThreshold
	if relocThreshold <= 0 {
		relocThreshold = threshold
	}
	transformer := opts.Transformer
	if transformer == nil {
		transformer = transform.Identity()
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &Manager{
		graph:                   graph,
		transport:               t,
		transformer:             transformer,
		clock:                   clock,
		threshold:               threshold,
		relocalizationThreshold: relocThreshold,
		onUpdated:               opts.OnRobotUpdated,
		events:                  opts.Events,
		robots:                  make(map[string]*robot.Info),
		nextId:                  1,
	}
}

func (m *Manager) emitAdmitted(name string, id messages.CommandId) {
	if m.events == nil {
		return
	}
	m.events.Emit(events.Event{
		Kind:    events.CommandAdmitted,
		Payload: events.AdmittedCommand{RobotName: name, CommandID: uint32(id)},
	})
}

// RobotNames returns a snapshot of currently known robot names.
func (m *Manager) RobotNames() []string {
	names := make([]string, 0, len(m.robots))
	for name := range m.robots {
		names = append(names, name)
	}
	return names
}

// Robot returns a read-only view of the named robot, if known.
func (m *Manager) Robot(name string) (robot.View, bool) {
	r, ok := m.robots[name]
	if !ok {
		return robot.View{}, false
	}
	return robot.NewView(r), true
}

// AllRobots returns a snapshot view of every known robot.
func (m *Manager) AllRobots() []robot.View {
	views := make([]robot.View, 0, len(m.robots))
	for _, r := range m.robots {
		views = append(views, robot.NewView(r))
	}
	return views
}

// RequestPause admits a Pause mode request. See spec.md §4.2.
func (m *Manager) RequestPause(name string) (messages.CommandId, bool) {
	return m.admitMode(name, robot.ModePause, "")
}

// RequestResume admits a Resume mode request.
func (m *Manager) RequestResume(name string) (messages.CommandId, bool) {
	return m.admitMode(name, robot.ModeResume, "")
}

// RequestDock admits a Dock mode request.
func (m *Manager) RequestDock(name, dockName string) (messages.CommandId, bool) {
	return m.admitMode(name, robot.ModeDock, dockName)
}

func (m *Manager) admitMode(name string, kind robot.ModeKind, dockName string) (messages.CommandId, bool) {
	r, ok := m.robots[name]
	if !ok {
		return messages.NoCommand, false
	}
	id := m.allocateId()
	req := robot.NewModeRequest(id, m.clock.Now(), kind, dockName)
	if err := m.transport.SendModeRequest(name, req); err != nil {
		log.Printf("manager: send mode request to %s: %v", name, err)
	}
	r.AllocateRequest(req)
	m.emitAdmitted(name, id)
	return id, true
}

// RequestRelocalization admits a Relocalization request. Rejected unless the
// robot exists, last_visited_waypoint_index is a valid graph index, and the
// requested location is within the relocalization threshold (by default the
// nearness threshold) of that waypoint's graph location (strict inequality,
// per spec.md §8). The location is sent to the robot converted to its frame
// via Transformer.ToRobotFrame; the stored record keeps the manager frame.
func (m *Manager) RequestRelocalization(name string, loc messages.Location, lastVisitedWaypointIndex int) (messages.CommandId, bool) {
	r, ok := m.robots[name]
	if !ok {
		return messages.NoCommand, false
	}
	if !m.graph.IsValidWaypoint(lastVisitedWaypointIndex) {
		return messages.NoCommand, false
	}
	wp := m.graph.Waypoint(lastVisitedWaypointIndex)
	if wp.Location.Distance(loc.Position) >= m.relocalizationThreshold {
		return messages.NoCommand, false
	}

	id := m.allocateId()
	req := robot.NewRelocalizationRequest(id, m.clock.Now(), loc, lastVisitedWaypointIndex)
	outbound := req
	outbound.Location.Position = m.transformer.ToRobotFrame(loc.Position)
	if err := m.transport.SendRelocalizationRequest(name, outbound); err != nil {
		log.Printf("manager: send relocalization request to %s: %v", name, err)
	}
	r.AllocateRequest(req)
	m.emitAdmitted(name, id)
	return id, true
}

// RequestNavigation admits a Navigation request. Rejected unless the robot
// exists, the path is non-empty, and every waypoint_index in the path is a
// valid graph index. No path-connectivity check is performed.
func (m *Manager) RequestNavigation(name string, path []messages.NavigationPoint) (messages.CommandId, bool) {
	r, ok := m.robots[name]
	if !ok {
		return messages.NoCommand, false
	}
	if len(path) == 0 {
		return messages.NoCommand, false
	}
	for _, pt := range path {
		if !m.graph.IsValidWaypoint(pt.WaypointIndex) {
			return messages.NoCommand, false
		}
	}

	id := m.allocateId()
	req := robot.NewNavigationRequest(id, m.clock.Now(), path)
	if err := m.transport.SendNavigationRequest(name, req); err != nil {
		log.Printf("manager: send navigation request to %s: %v", name, err)
	}
	r.AllocateRequest(req)
	m.emitAdmitted(name, id)
	return id, true
}

func (m *Manager) allocateId() messages.CommandId {
	id := m.nextId
	m.nextId++
	return id
}

// RunOnce drains all currently available inbound states from the transport,
// applies the coordinate transform, and dispatches each to its RobotInfo
// (creating one if the name is new), in the order the transport produced
// them. It never blocks and never sleeps.
func (m *Manager) RunOnce() {
	states := m.transport.DrainStates()
	now := m.clock.Now()
	for _, state := range states {
		state.Location.Position = m.transformer.ToManagerFrame(state.Location.Position)

		r, ok := m.robots[state.Name]
		if !ok {
			r = robot.New(state, m.graph, now, m.threshold)
			m.robots[state.Name] = r
		} else {
			r.UpdateState(state, now)
		}

		view := robot.NewView(r)
		if m.onUpdated != nil {
			m.onUpdated(view)
		}
		if m.events != nil {
			m.events.Emit(events.Event{Kind: events.RobotUpdated, Payload: view})
		}
	}
}
