// Package navgraph holds the static, immutable navigation graph the
// tracking subsystem reasons over: a set of waypoints plus directed lanes
// between them. Construction and persistence of the graph are external
// concerns (it is normally produced by a site-survey or map-building tool);
// this package only defines the shape the core consumes read-only and a
// thin YAML loader for wiring it up in cmd/fleetmanager.
package navgraph

import (
	"fmt"

	"github.com/chianfern/free-fleet/geometry"
)

// Waypoint is a single node of the navigation graph.
type Waypoint struct {
	Index    int
	MapName  string
	Location geometry.Point
}

// Lane is a directed edge between two waypoints, referenced by index.
type Lane struct {
	Index int
	Entry int
	Exit  int
}

// Graph is an immutable, shared navigation graph. The zero value is not
// usable; construct with New.
type Graph struct {
	waypoints []Waypoint
	lanes     []Lane

	// lanesFromEntry indexes lanes by their entry waypoint, used by
	// LaneFrom and LanesFrom.
	lanesFromEntry map[int][]int
}

// New builds a Graph from waypoints and lanes. Waypoints must be supplied in
// index order (Index i at position i); lanes must reference valid waypoint
// indices. Returns an error rather than panicking, matching the rest of the
// module's eager-validation convention for construction-time invariants.
func New(waypoints []Waypoint, lanes []Lane) (*Graph, error) {
	for i, w := range waypoints {
		if w.Index != i {
			return nil, fmt.Errorf("navgraph: waypoint at position %d has index %d", i, w.Index)
		}
	}
	g := &Graph{
		waypoints:      append([]Waypoint(nil), waypoints...),
		lanes:          append([]Lane(nil), lanes...),
		lanesFromEntry: make(map[int][]int, len(lanes)),
	}
	for i, l := range lanes {
		if l.Entry < 0 || l.Entry >= len(waypoints) {
			return nil, fmt.Errorf("navgraph: lane %d has invalid entry waypoint %d", i, l.Entry)
		}
		if l.Exit < 0 || l.Exit >= len(waypoints) {
			return nil, fmt.Errorf("navgraph: lane %d has invalid exit waypoint %d", i, l.Exit)
		}
		if l.Index != i {
			return nil, fmt.Errorf("navgraph: lane at position %d has index %d", i, l.Index)
		}
		g.lanesFromEntry[l.Entry] = append(g.lanesFromEntry[l.Entry], i)
	}
	return g, nil
}

// NumWaypoints returns the number of waypoints in the graph.
func (g *Graph) NumWaypoints() int { return len(g.waypoints) }

// NumLanes returns the number of lanes in the graph.
func (g *Graph) NumLanes() int { return len(g.lanes) }

// Waypoint returns the waypoint at the given index. Panics if out of range,
// matching direct-indexing behavior elsewhere in the package — callers are
// expected to validate indices against NumWaypoints first (as the admission
// pipeline and tracking state machine both do).
func (g *Graph) Waypoint(index int) Waypoint {
	return g.waypoints[index]
}

// Lane returns the lane at the given index. Panics if out of range.
func (g *Graph) Lane(index int) Lane {
	return g.lanes[index]
}

// IsValidWaypoint reports whether index names a waypoint in this graph.
func (g *Graph) IsValidWaypoint(index int) bool {
	return index >= 0 && index < len(g.waypoints)
}

// LaneFrom returns the lane connecting entry directly to exit, if any.
// Navigation admission does not use it: paths are not checked for
// connectivity.
func (g *Graph) LaneFrom(entry, exit int) (Lane, bool) {
	for _, li := range g.lanesFromEntry[entry] {
		if g.lanes[li].Exit == exit {
			return g.lanes[li], true
		}
	}
	return Lane{}, false
}

// LanesFrom returns all lanes whose entry waypoint is the given index.
func (g *Graph) LanesFrom(entry int) []Lane {
	idxs := g.lanesFromEntry[entry]
	out := make([]Lane, len(idxs))
	for i, li := range idxs {
		out[i] = g.lanes[li]
	}
	return out
}

// EntryLocation returns the location of a lane's entry waypoint.
func (g *Graph) EntryLocation(l Lane) geometry.Point {
	return g.waypoints[l.Entry].Location
}

// ExitLocation returns the location of a lane's exit waypoint.
func (g *Graph) ExitLocation(l Lane) geometry.Point {
	return g.waypoints[l.Exit].Location
}

// Segment returns the geometric segment (entry->exit) for a lane.
func (g *Graph) Segment(l Lane) geometry.Segment {
	return geometry.Segment{Entry: g.EntryLocation(l), Exit: g.ExitLocation(l)}
}
