package robot

import (
	"time"

	"github.com/chianfern/free-fleet/messages"
)

// RequestKind discriminates the closed set of outbound command variants.
// Modeled as a tagged variant rather than a class hierarchy per spec.md §9:
// dispatch happens on this tag inside the tracking inference tables, and
// adding a new kind means touching those tables deliberately.
type RequestKind int

const (
	KindMode RequestKind = iota
	KindNavigation
	KindRelocalization
)

// ModeKind is the closed set of mode-change commands.
type ModeKind int

const (
	ModePause ModeKind = iota
	ModeResume
	ModeDock
)

// Request is a single outbound command record allocated to a robot. Exactly
// one of the kind-specific payload fields is meaningful, selected by Kind —
// the tagged-variant discipline spec.md §9 calls for.
type Request struct {
	Id           messages.CommandId
	Kind         RequestKind
	IssuedAt     time.Time
	Acknowledged bool
	Completed    bool

	// Mode payload (Kind == KindMode)
	ModeKind ModeKind
	DockName string // only meaningful when ModeKind == ModeDock

	// Navigation payload (Kind == KindNavigation)
	Path []messages.NavigationPoint

	// Relocalization payload (Kind == KindRelocalization)
	Location                 messages.Location
	LastVisitedWaypointIndex int
}

// NewModeRequest builds a Mode request record. Called only by the Manager
// at admission time.
func NewModeRequest(id messages.CommandId, issuedAt time.Time, kind ModeKind, dockName string) Request {
	return Request{
		Id:       id,
		Kind:     KindMode,
		IssuedAt: issuedAt,
		ModeKind: kind,
		DockName: dockName,
	}
}

// NewNavigationRequest builds a Navigation request record. Called only by
// the Manager at admission time.
func NewNavigationRequest(id messages.CommandId, issuedAt time.Time, path []messages.NavigationPoint) Request {
	return Request{
		Id:       id,
		Kind:     KindNavigation,
		IssuedAt: issuedAt,
		Path:     append([]messages.NavigationPoint(nil), path...),
	}
}

// NewRelocalizationRequest builds a Relocalization request record. Called
// only by the Manager at admission time.
func NewRelocalizationRequest(id messages.CommandId, issuedAt time.Time, loc messages.Location, lastVisited int) Request {
	return Request{
		Id:                       id,
		Kind:                     KindRelocalization,
		IssuedAt:                 issuedAt,
		Location:                 loc,
		LastVisitedWaypointIndex: lastVisited,
	}
}

// lastPathWaypoint returns the waypoint index of the final point in a
// Navigation request's path. Only valid when Kind == KindNavigation and
// Path is non-empty, which admission guarantees.
func (r Request) lastPathWaypoint() int {
	return r.Path[len(r.Path)-1].WaypointIndex
}
