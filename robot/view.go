package robot

import "time"

// View is a read-only snapshot of a RobotInfo, per spec.md §9's
// arena-plus-identifier design: RobotInfos live in the Manager's map, and
// callers (the robot_updated callback, diagnostics, accessors) get a
// detached value rather than a live handle into it.
type View struct {
	Name        string
	Model       string
	FirstFound  time.Time
	LastUpdated time.Time

	TrackingState TrackingState
	TrackingIndex int

	AllocatedCount int
}

// NewView takes a snapshot of r. Safe to retain past the call that produced
// it, unlike a pointer into the Manager's registry.
func NewView(r *Info) View {
	return View{
		Name:           r.name,
		Model:          r.model,
		FirstFound:     r.firstFound,
		LastUpdated:    r.lastUpdated,
		TrackingState:  r.trackingState,
		TrackingIndex:  r.trackingIndex,
		AllocatedCount: len(r.allocated),
	}
}
