package navgraph

import (
	"math"

	"github.com/chianfern/free-fleet/geometry"
)

// NearestWaypoint returns the waypoint closest to p and its distance. Ties
// are broken by smallest index since waypoints are scanned in index order
// and only a strictly smaller distance replaces the current best.
func (g *Graph) NearestWaypoint(p geometry.Point) (Waypoint, float64) {
	var best Waypoint
	bestDist := math.Inf(1)
	for _, w := range g.waypoints {
		d := w.Location.Distance(p)
		if d < bestDist {
			best = w
			bestDist = d
		}
	}
	return best, bestDist
}

// NearestLane returns the lane containing p longitudinally (per
// geometry.Contains) that minimizes perpendicular distance to p, and that
// distance. ok is false if no lane contains p longitudinally. Ties are
// broken by smallest index.
func (g *Graph) NearestLane(p geometry.Point) (lane Lane, dist float64, ok bool) {
	bestDist := math.Inf(1)
	found := false
	for _, l := range g.lanes {
		seg := g.Segment(l)
		if !geometry.Contains(seg, p) {
			continue
		}
		d := geometry.PerpendicularDistance(seg, p)
		if d < bestDist {
			lane = l
			bestDist = d
			found = true
		}
	}
	return lane, bestDist, found
}
