// Package robot implements RobotInfo: the per-robot aggregate that fuses a
// stream of self-reported RobotState messages with knowledge of the
// navigation graph and any command currently in flight, to infer which
// node or edge of the graph the robot occupies (or that it is lost). This
// is spec.md's "hard part" — the tracking subsystem.
package robot

import (
	"log"
	"time"

	"github.com/chianfern/free-fleet/geometry"
	"github.com/chianfern/free-fleet/messages"
	"github.com/chianfern/free-fleet/navgraph"
)

// Info is the per-robot aggregate: identity, timestamps, the currently
// allocated request records, and the tracking state machine.
type Info struct {
	name        string
	model       string
	firstFound  time.Time
	lastUpdated time.Time
	lastState   *messages.RobotState

	allocated map[messages.CommandId]*Request

	trackingState TrackingState
	trackingIndex int

	graph     *navgraph.Graph
	threshold float64 // the nearness threshold D, spec.md §4.1
}

// New creates a RobotInfo from the first observed state for a previously
// unknown robot, per spec.md §4.3.3: first_found = last_updated = now,
// tracking_state starts Lost, then task-free inference is applied once so
// the initial state is already classified.
func New(state messages.RobotState, graph *navgraph.Graph, now time.Time, threshold float64) *Info {
	r := &Info{
		name:          state.Name,
		model:         state.Model,
		firstFound:    now,
		lastUpdated:   now,
		allocated:     make(map[messages.CommandId]*Request),
		trackingState: Lost,
		graph:         graph,
		threshold:     threshold,
	}
	r.trackAndUpdate(state)
	r.lastUpdated = now
	return r
}

// Name returns the robot's name.
func (r *Info) Name() string { return r.name }

// Model returns the robot's model string.
func (r *Info) Model() string { return r.model }

// FirstFound returns when this RobotInfo was created.
func (r *Info) FirstFound() time.Time { return r.firstFound }

// LastUpdated returns the time of the most recently applied state.
func (r *Info) LastUpdated() time.Time { return r.lastUpdated }

// LastState returns the most recently applied state and whether one exists.
func (r *Info) LastState() (messages.RobotState, bool) {
	if r.lastState == nil {
		return messages.RobotState{}, false
	}
	return *r.lastState, true
}

// TrackingState returns the current tracking hypothesis.
func (r *Info) TrackingState() TrackingState { return r.trackingState }

// TrackingIndex returns the index associated with the current tracking
// state: a waypoint index for OnWaypoint/TowardsWaypoint, a lane index for
// OnLane, unused for Lost.
func (r *Info) TrackingIndex() int { return r.trackingIndex }

// AllocateRequest attaches a newly admitted request record to this robot.
// Called only by the Manager at admission time (spec.md §4.2).
func (r *Info) AllocateRequest(req Request) {
	cp := req
	r.allocated[req.Id] = &cp
}

// Request returns the allocated request with the given id, if any.
func (r *Info) Request(id messages.CommandId) (Request, bool) {
	req, ok := r.allocated[id]
	if !ok {
		return Request{}, false
	}
	return *req, true
}

// AllocatedCount returns the number of request records ever allocated to
// this robot (never shrinks — records are retained for audit).
func (r *Info) AllocatedCount() int { return len(r.allocated) }

// UpdateState applies a new inbound state report. Updates are refused
// silently if the inbound name does not match this robot's name, matching
// free_fleet's RobotInfo::update_state.
func (r *Info) UpdateState(state messages.RobotState, now time.Time) {
	if state.Name != r.name {
		return
	}
	r.trackAndUpdate(state)
	r.lastUpdated = now
}

func (r *Info) trackAndUpdate(state messages.RobotState) {
	p := state.Location.Position

	if !state.HasActiveCommand() {
		r.trackWithoutTask(p)
	} else {
		req, ok := r.allocated[state.CommandId]
		if !ok {
			log.Printf("robot %s: command id %d not found among allocated requests, treating as task-free", r.name, state.CommandId)
			r.trackWithoutTask(p)
		} else {
			req.Acknowledged = true
			r.trackWithTask(state, p, req)
		}
	}

	st := state
	r.lastState = &st
}

// trackWithoutTask implements spec.md §4.3.1's transition table.
func (r *Info) trackWithoutTask(p geometry.Point) {
	switch r.trackingState {
	case OnWaypoint:
		w := r.trackingIndex
		if r.isNearWaypoint(w, p) {
			// stays OnWaypoint(w)
			return
		}
		// Diverging from OnWaypoint without an active task is loss: a robot
		// not executing a command should not be moving.
		r.trackingState = Lost

	case OnLane:
		lane := r.graph.Lane(r.trackingIndex)
		if r.isNearWaypoint(lane.Exit, p) {
			r.trackingState = OnWaypoint
			r.trackingIndex = lane.Exit
			return
		}
		if geometry.Contains(r.graph.Segment(lane), p) {
			// stays OnLane(lane)
			return
		}
		if nearest, dist, found := r.nearestWaypointWithin(p); found {
			r.trackingState = OnWaypoint
			r.trackingIndex = nearest
			_ = dist
			return
		}
		r.trackingState = Lost

	case TowardsWaypoint:
		t := r.trackingIndex
		if r.isNearWaypoint(t, p) {
			r.trackingState = OnWaypoint
			// trackingIndex unchanged (still t)
			return
		}
		// stays TowardsWaypoint(t)

	case Lost:
		if nearest, _, found := r.nearestWaypointWithin(p); found {
			r.trackingState = OnWaypoint
			r.trackingIndex = nearest
		}
		// else stays Lost
	}
}

// trackWithTask implements spec.md §4.3.2's task-aware inference.
func (r *Info) trackWithTask(state messages.RobotState, p geometry.Point, req *Request) {
	switch req.Kind {
	case KindMode:
		// Mode commands do not move the robot between nodes; any observed
		// motion is still loss.
		r.trackWithoutTask(p)
		r.maybeCompleteByAck(state, req)

	case KindRelocalization:
		if r.isNearWaypoint(req.LastVisitedWaypointIndex, p) {
			r.trackingState = OnWaypoint
			r.trackingIndex = req.LastVisitedWaypointIndex
		} else {
			r.trackWithoutTask(p)
		}
		r.maybeCompleteByAck(state, req)

	case KindNavigation:
		target, ok := navigationTarget(req, state.TargetPathIndex)
		if !ok {
			// No usable target_path_index: fall back to task-free
			// inference rather than guessing a target.
			r.trackWithoutTask(p)
		} else if r.isNearWaypoint(target, p) {
			r.trackingState = OnWaypoint
			r.trackingIndex = target
		} else if lane, found := r.laneIntoContaining(target, p); found {
			r.trackingState = OnLane
			r.trackingIndex = lane
		} else {
			// En route but off-lane: not yet lost, a command justifies
			// motion.
			r.trackingState = TowardsWaypoint
			r.trackingIndex = target
		}

		completedByAck := state.HasActiveCommand() && state.CommandId == req.Id && state.CommandCompleted
		completedByArrival := r.trackingState == OnWaypoint && r.trackingIndex == req.lastPathWaypoint()
		if completedByAck || completedByArrival {
			req.Completed = true
		}
	}
}

// maybeCompleteByAck marks req completed when the inbound state reports
// command_completed=true for this command's id — the only completion
// signal for Mode and Relocalization requests.
func (r *Info) maybeCompleteByAck(state messages.RobotState, req *Request) {
	if state.HasActiveCommand() && state.CommandId == req.Id && state.CommandCompleted {
		req.Completed = true
	}
}

// navigationTarget resolves the target waypoint named by a navigation
// request's target_path_index, if present and within the path.
func navigationTarget(req *Request, targetPathIndex *int) (int, bool) {
	if targetPathIndex == nil {
		return 0, false
	}
	i := *targetPathIndex
	if i < 0 || i >= len(req.Path) {
		return 0, false
	}
	return req.Path[i].WaypointIndex, true
}

// laneIntoContaining finds a lane whose exit is target and that
// longitudinally contains p.
func (r *Info) laneIntoContaining(target int, p geometry.Point) (int, bool) {
	for i := 0; i < r.graph.NumLanes(); i++ {
		lane := r.graph.Lane(i)
		if lane.Exit != target {
			continue
		}
		if geometry.Contains(r.graph.Segment(lane), p) {
			return i, true
		}
	}
	return 0, false
}

func (r *Info) isNearWaypoint(index int, p geometry.Point) bool {
	return geometry.IsNear(r.graph.Waypoint(index).Location, p, r.threshold)
}

func (r *Info) nearestWaypointWithin(p geometry.Point) (int, float64, bool) {
	w, dist := r.graph.NearestWaypoint(p)
	if dist < r.threshold {
		return w.Index, dist, true
	}
	return 0, dist, false
}
