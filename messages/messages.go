// Package messages defines the wire-level vocabulary exchanged between the
// fleet manager and its robots: robot state reports, locations, and
// navigation points. Construction-time invariants (empty name, battery out
// of range) are validated eagerly here, matching spec.md §7: invalid
// messages must fail before they ever reach the tracking subsystem.
package messages

import (
	"fmt"
	"time"

	"github.com/chianfern/free-fleet/geometry"
)

// CommandId is a 32-bit command identifier allocated monotonically by the
// manager. Zero is reserved to mean "no command".
type CommandId uint32

// NoCommand is the reserved CommandId meaning "no command in progress".
const NoCommand CommandId = 0

// RobotMode is the closed set of modes a robot can self-report.
type RobotMode int

const (
	ModeIdle RobotMode = iota
	ModeMoving
	ModePaused
	ModeCharging
	ModeDocking
	ModeEmergency
	ModeError
)

func (m RobotMode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeMoving:
		return "moving"
	case ModePaused:
		return "paused"
	case ModeCharging:
		return "charging"
	case ModeDocking:
		return "docking"
	case ModeEmergency:
		return "emergency"
	case ModeError:
		return "error"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Location is a pose: a map name, a planar position, and a yaw in radians.
type Location struct {
	MapName  string
	Position geometry.Point
	Yaw      float64
}

// NavigationPoint is one stop along a navigation request's path.
type NavigationPoint struct {
	WaypointIndex int
	Yaw           *float64
	WaitUntil     *time.Time
}

// RobotState is an inbound state report from a robot.
type RobotState struct {
	Timestamp        time.Time
	Name             string
	Model            string
	CommandId        CommandId // NoCommand if no command is in progress
	CommandCompleted bool
	Mode             RobotMode
	Battery          float64 // in [0, 1]
	Location         Location
	TargetPathIndex  *int // index into the active navigation request's path, if any
}

// NewRobotState validates and constructs a RobotState. This is the
// construction-time invariant boundary spec.md §7 calls out: an empty name
// or out-of-range battery must fail here, before the state ever reaches a
// RobotInfo — the transport layer discards the message.
func NewRobotState(
	timestamp time.Time,
	name, model string,
	commandId CommandId,
	commandCompleted bool,
	mode RobotMode,
	battery float64,
	location Location,
	targetPathIndex *int,
) (RobotState, error) {
	if name == "" {
		return RobotState{}, fmt.Errorf("messages: robot state name must not be empty")
	}
	if battery < 0 || battery > 1 {
		return RobotState{}, fmt.Errorf("messages: battery %v out of range [0,1]", battery)
	}
	return RobotState{
		Timestamp:        timestamp,
		Name:             name,
		Model:            model,
		CommandId:        commandId,
		CommandCompleted: commandCompleted,
		Mode:             mode,
		Battery:          battery,
		Location:         location,
		TargetPathIndex:  targetPathIndex,
	}, nil
}

// HasActiveCommand reports whether this state references a command in
// progress (spec.md's "command_id != none" test).
func (s RobotState) HasActiveCommand() bool {
	return s.CommandId != NoCommand
}
