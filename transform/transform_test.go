package transform

import (
	"math"
	"testing"

	"github.com/chianfern/free-fleet/geometry"
)

func approxEqual(a, b geometry.Point) bool {
	const eps = 1e-9
	return math.Abs(a.X-b.X) < eps && math.Abs(a.Y-b.Y) < eps
}

func TestIdentityRoundTrip(t *testing.T) {
	tr := Identity()
	p := geometry.Point{X: 3, Y: -4}
	if got := tr.ToManagerFrame(p); !approxEqual(got, p) {
		t.Errorf("ToManagerFrame(identity) = %v, want %v", got, p)
	}
	if got := tr.ToRobotFrame(p); !approxEqual(got, p) {
		t.Errorf("ToRobotFrame(identity) = %v, want %v", got, p)
	}
}

func TestAffineRoundTrip(t *testing.T) {
	tr := Affine{Scale: 2, RotationRad: math.Pi / 4, Translation: geometry.Point{X: 5, Y: -2}}
	p := geometry.Point{X: 1.5, Y: 7.25}
	manager := tr.ToManagerFrame(p)
	back := tr.ToRobotFrame(manager)
	if !approxEqual(back, p) {
		t.Errorf("round trip = %v, want %v", back, p)
	}
}
