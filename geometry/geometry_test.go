package geometry

import "testing"

func TestIsNear(t *testing.T) {
	w := Point{0, 0}
	if !IsNear(w, Point{0.4, 0}, 0.5) {
		t.Errorf("expected point at 0.4 to be near within 0.5")
	}
	if IsNear(w, Point{0.5, 0}, 0.5) {
		t.Errorf("expected point at exactly threshold to not be near (strict inequality)")
	}
	if IsNear(w, Point{10, 0}, 0.5) {
		t.Errorf("expected far point to not be near")
	}
}

func TestContains(t *testing.T) {
	s := Segment{Entry: Point{0, 0}, Exit: Point{10, 0}}
	cases := []struct {
		p    Point
		want bool
	}{
		{Point{5, 0}, true},
		{Point{0, 0}, true},
		{Point{10, 0}, true},
		{Point{-1, 0}, false},
		{Point{11, 0}, false},
		{Point{5, 3}, true}, // lateral offset doesn't affect longitudinal containment
	}
	for _, c := range cases {
		if got := Contains(s, c.p); got != c.want {
			t.Errorf("Contains(%v) = %v, want %v", c.p, got, c.want)
		}
	}
}

func TestPerpendicularDistance(t *testing.T) {
	s := Segment{Entry: Point{0, 0}, Exit: Point{10, 0}}
	if d := PerpendicularDistance(s, Point{5, 3}); d != 3 {
		t.Errorf("perpendicular distance = %v, want 3", d)
	}
	if d := PerpendicularDistance(s, Point{5, 0}); d != 0 {
		t.Errorf("perpendicular distance on-line = %v, want 0", d)
	}
}

func TestPerpendicularDistanceDiagonal(t *testing.T) {
	// 3-4-5 triangle: segment along (0,0)->(4,3), point at (4,0) is
	// distance 12/5 = 2.4 from the infinite line.
	s := Segment{Entry: Point{0, 0}, Exit: Point{4, 3}}
	d := PerpendicularDistance(s, Point{4, 0})
	if diff := d - 2.4; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("perpendicular distance = %v, want 2.4", d)
	}
}
