// Package transform maps coordinates between the fleet manager's shared
// frame and each robot's own frame. It is a pluggable seam: the manager
// consumes it read-only through the Transformer interface and never
// mutates it, matching spec §4.5's "stateless and thread-safe" contract.
package transform

import (
	"math"

	"github.com/chianfern/free-fleet/geometry"
)

// Transformer maps points between the manager frame and a robot's frame.
type Transformer interface {
	// ToRobotFrame converts a point in manager-frame coordinates to the
	// robot's frame, used when encoding an outbound command.
	ToRobotFrame(p geometry.Point) geometry.Point

	// ToManagerFrame converts a point in the robot's frame to manager-frame
	// coordinates, used when an inbound state report is received.
	ToManagerFrame(p geometry.Point) geometry.Point
}

// Affine is a stateless, thread-safe Transformer applying a uniform scale,
// a rotation (radians) and a translation, in that order, to go from the
// robot frame to the manager frame; ToRobotFrame applies the exact inverse.
type Affine struct {
	Scale       float64
	RotationRad float64
	Translation geometry.Point
}

// Identity returns an Affine transform that passes coordinates through
// unchanged — the default when the manager and robot share one frame.
func Identity() Affine {
	return Affine{Scale: 1}
}

func (a Affine) ToManagerFrame(p geometry.Point) geometry.Point {
	sin, cos := math.Sincos(a.RotationRad)
	x := a.Scale*(p.X*cos-p.Y*sin) + a.Translation.X
	y := a.Scale*(p.X*sin+p.Y*cos) + a.Translation.Y
	return geometry.Point{X: x, Y: y}
}

func (a Affine) ToRobotFrame(p geometry.Point) geometry.Point {
	// Invert: subtract translation, undo scale, rotate by -theta.
	ux := (p.X - a.Translation.X) / a.Scale
	uy := (p.Y - a.Translation.Y) / a.Scale
	sin, cos := math.Sincos(-a.RotationRad)
	x := ux*cos - uy*sin
	y := ux*sin + uy*cos
	return geometry.Point{X: x, Y: y}
}
