package robot

import (
	"testing"
	"time"

	"github.com/chianfern/free-fleet/geometry"
	"github.com/chianfern/free-fleet/messages"
	"github.com/chianfern/free-fleet/navgraph"
)

const testThreshold = 0.5

// crossGraph mirrors navgraph's concrete cross-shaped test graph: waypoint 0
// at the origin, waypoints 1-4 at (+-10, 0) and (0, +-10), lanes between 0
// and each spoke in both directions, plus an isolated waypoint 5.
func crossGraph(t *testing.T) *navgraph.Graph {
	t.Helper()
	waypoints := []navgraph.Waypoint{
		{Index: 0, MapName: "L1", Location: geometry.Point{X: 0, Y: 0}},
		{Index: 1, MapName: "L1", Location: geometry.Point{X: 10, Y: 0}},
		{Index: 2, MapName: "L1", Location: geometry.Point{X: -10, Y: 0}},
		{Index: 3, MapName: "L1", Location: geometry.Point{X: 0, Y: 10}},
		{Index: 4, MapName: "L1", Location: geometry.Point{X: 0, Y: -10}},
		{Index: 5, MapName: "L1", Location: geometry.Point{X: 100, Y: 100}},
	}
	var lanes []navgraph.Lane
	idx := 0
	for spoke := 1; spoke <= 4; spoke++ {
		lanes = append(lanes,
			navgraph.Lane{Index: idx, Entry: 0, Exit: spoke},
			navgraph.Lane{Index: idx + 1, Entry: spoke, Exit: 0},
		)
		idx += 2
	}
	g, err := navgraph.New(waypoints, lanes)
	if err != nil {
		t.Fatalf("navgraph.New: %v", err)
	}
	return g
}

func stateAt(name string, p geometry.Point, cmd messages.CommandId, completed bool, targetPathIndex *int) messages.RobotState {
	s, err := messages.NewRobotState(time.Unix(0, 0), name, "model", cmd, completed, messages.ModeMoving, 1.0,
		messages.Location{MapName: "L1", Position: p}, targetPathIndex)
	if err != nil {
		panic(err)
	}
	return s
}

func TestBootstrapNearWaypointLandsOnWaypoint(t *testing.T) {
	g := crossGraph(t)
	now := time.Unix(1000, 0)
	r := New(stateAt("r1", geometry.Point{X: 0.1, Y: 0}, messages.NoCommand, false, nil), g, now, testThreshold)

	if r.TrackingState() != OnWaypoint || r.TrackingIndex() != 0 {
		t.Fatalf("got %v/%d, want OnWaypoint/0", r.TrackingState(), r.TrackingIndex())
	}
	if r.FirstFound() != now || r.LastUpdated() != now {
		t.Fatalf("first_found/last_updated not both set to bootstrap time")
	}
}

func TestBootstrapFarFromAnyWaypointIsLost(t *testing.T) {
	g := crossGraph(t)
	r := New(stateAt("r1", geometry.Point{X: 50, Y: 50}, messages.NoCommand, false, nil), g, time.Unix(0, 0), testThreshold)
	if r.TrackingState() != Lost {
		t.Fatalf("got %v, want Lost", r.TrackingState())
	}
}

func TestOnWaypointStaysWhenStillNear(t *testing.T) {
	g := crossGraph(t)
	r := New(stateAt("r1", geometry.Point{X: 0, Y: 0}, messages.NoCommand, false, nil), g, time.Unix(0, 0), testThreshold)
	r.UpdateState(stateAt("r1", geometry.Point{X: 0.2, Y: 0}, messages.NoCommand, false, nil), time.Unix(1, 0))
	if r.TrackingState() != OnWaypoint || r.TrackingIndex() != 0 {
		t.Fatalf("got %v/%d, want OnWaypoint/0", r.TrackingState(), r.TrackingIndex())
	}
}

func TestOnWaypointDivergingWithoutTaskIsLost(t *testing.T) {
	g := crossGraph(t)
	r := New(stateAt("r1", geometry.Point{X: 0, Y: 0}, messages.NoCommand, false, nil), g, time.Unix(0, 0), testThreshold)
	r.UpdateState(stateAt("r1", geometry.Point{X: 5, Y: 0}, messages.NoCommand, false, nil), time.Unix(1, 0))
	if r.TrackingState() != Lost {
		t.Fatalf("got %v, want Lost", r.TrackingState())
	}
}

func TestIgnoresStateForDifferentRobot(t *testing.T) {
	g := crossGraph(t)
	r := New(stateAt("r1", geometry.Point{X: 0, Y: 0}, messages.NoCommand, false, nil), g, time.Unix(0, 0), testThreshold)
	r.UpdateState(stateAt("r2", geometry.Point{X: 999, Y: 999}, messages.NoCommand, false, nil), time.Unix(1, 0))
	if r.TrackingState() != OnWaypoint || r.TrackingIndex() != 0 {
		t.Fatalf("state for another robot must be ignored, got %v/%d", r.TrackingState(), r.TrackingIndex())
	}
	if r.LastUpdated() != time.Unix(0, 0) {
		t.Fatalf("last_updated must not advance on a refused update")
	}
}

// navigateRequest allocates a KindNavigation request to r travelling 0 -> 1
// and returns it.
func navigateRequest(r *Info, id messages.CommandId, now time.Time) Request {
	req := NewNavigationRequest(id, now, []messages.NavigationPoint{{WaypointIndex: 1}})
	r.AllocateRequest(req)
	return req
}

func intPtr(i int) *int { return &i }

func TestNavigationOnLaneThenArrival(t *testing.T) {
	g := crossGraph(t)
	r := New(stateAt("r1", geometry.Point{X: 0, Y: 0}, messages.NoCommand, false, nil), g, time.Unix(0, 0), testThreshold)
	req := navigateRequest(r, messages.CommandId(1), time.Unix(0, 0))

	r.UpdateState(stateAt("r1", geometry.Point{X: 5, Y: 0}, req.Id, false, intPtr(0)), time.Unix(1, 0))
	if r.TrackingState() != OnLane {
		t.Fatalf("got %v, want OnLane", r.TrackingState())
	}

	r.UpdateState(stateAt("r1", geometry.Point{X: 10, Y: 0}, req.Id, false, intPtr(0)), time.Unix(2, 0))
	if r.TrackingState() != OnWaypoint || r.TrackingIndex() != 1 {
		t.Fatalf("got %v/%d, want OnWaypoint/1", r.TrackingState(), r.TrackingIndex())
	}
	got, ok := r.Request(req.Id)
	if !ok || !got.Completed {
		t.Fatalf("expected navigation request to be marked completed on arrival, got %+v ok=%v", got, ok)
	}
}

func TestNavigationOffLaneIsTowardsWaypointNotLost(t *testing.T) {
	g := crossGraph(t)
	r := New(stateAt("r1", geometry.Point{X: 0, Y: 0}, messages.NoCommand, false, nil), g, time.Unix(0, 0), testThreshold)
	req := navigateRequest(r, messages.CommandId(1), time.Unix(0, 0))

	// Off the 0->1 lane's longitudinal extent (negative x), but task-justified.
	r.UpdateState(stateAt("r1", geometry.Point{X: -5, Y: 5}, req.Id, false, intPtr(0)), time.Unix(1, 0))
	if r.TrackingState() != TowardsWaypoint || r.TrackingIndex() != 1 {
		t.Fatalf("got %v/%d, want TowardsWaypoint/1", r.TrackingState(), r.TrackingIndex())
	}
}

func TestRelocalizationSnapsToLastVisitedWhenNear(t *testing.T) {
	g := crossGraph(t)
	r := New(stateAt("r1", geometry.Point{X: 50, Y: 50}, messages.NoCommand, false, nil), g, time.Unix(0, 0), testThreshold)
	req := NewRelocalizationRequest(messages.CommandId(1), time.Unix(0, 0), messages.Location{MapName: "L1", Position: geometry.Point{X: 10, Y: 0}}, 1)
	r.AllocateRequest(req)

	r.UpdateState(stateAt("r1", geometry.Point{X: 10.1, Y: 0}, req.Id, true, nil), time.Unix(1, 0))
	if r.TrackingState() != OnWaypoint || r.TrackingIndex() != 1 {
		t.Fatalf("got %v/%d, want OnWaypoint/1", r.TrackingState(), r.TrackingIndex())
	}
	got, ok := r.Request(req.Id)
	if !ok || !got.Completed {
		t.Fatalf("expected relocalization request completed, got %+v ok=%v", got, ok)
	}
}

func TestRelocalizationFarFromLastVisitedFallsBackToTaskFree(t *testing.T) {
	g := crossGraph(t)
	r := New(stateAt("r1", geometry.Point{X: 0, Y: 0}, messages.NoCommand, false, nil), g, time.Unix(0, 0), testThreshold)
	req := NewRelocalizationRequest(messages.CommandId(1), time.Unix(0, 0), messages.Location{MapName: "L1", Position: geometry.Point{X: 10, Y: 0}}, 1)
	r.AllocateRequest(req)

	// Near waypoint 0, not waypoint 1: falls back to task-free inference,
	// which keeps OnWaypoint(0) since it is still near.
	r.UpdateState(stateAt("r1", geometry.Point{X: 0.1, Y: 0}, req.Id, false, nil), time.Unix(1, 0))
	if r.TrackingState() != OnWaypoint || r.TrackingIndex() != 0 {
		t.Fatalf("got %v/%d, want OnWaypoint/0", r.TrackingState(), r.TrackingIndex())
	}
}

func TestUnknownCommandIdFallsBackToTaskFree(t *testing.T) {
	g := crossGraph(t)
	r := New(stateAt("r1", geometry.Point{X: 0, Y: 0}, messages.NoCommand, false, nil), g, time.Unix(0, 0), testThreshold)
	r.UpdateState(stateAt("r1", geometry.Point{X: 0.1, Y: 0}, messages.CommandId(999), false, nil), time.Unix(1, 0))
	if r.TrackingState() != OnWaypoint || r.TrackingIndex() != 0 {
		t.Fatalf("got %v/%d, want OnWaypoint/0", r.TrackingState(), r.TrackingIndex())
	}
}

func TestTowardsWaypointStaysUntilNear(t *testing.T) {
	g := crossGraph(t)
	r := New(stateAt("r1", geometry.Point{X: 0, Y: 0}, messages.NoCommand, false, nil), g, time.Unix(0, 0), testThreshold)
	req := navigateRequest(r, messages.CommandId(1), time.Unix(0, 0))
	r.UpdateState(stateAt("r1", geometry.Point{X: -5, Y: 5}, req.Id, false, intPtr(0)), time.Unix(1, 0))
	if r.TrackingState() != TowardsWaypoint {
		t.Fatalf("precondition failed: got %v", r.TrackingState())
	}
	// Still off-lane and far from the target: stays TowardsWaypoint rather
	// than going Lost, because the active command still justifies motion.
	r.UpdateState(stateAt("r1", geometry.Point{X: -3, Y: 6}, req.Id, false, intPtr(0)), time.Unix(2, 0))
	if r.TrackingState() != TowardsWaypoint || r.TrackingIndex() != 1 {
		t.Fatalf("got %v/%d, want TowardsWaypoint/1", r.TrackingState(), r.TrackingIndex())
	}
}
