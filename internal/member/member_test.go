package member

import (
	"math"
	"testing"

	"github.com/framewright/tenon/internal/geom"
)

func TestRolePrecedence(t *testing.T) {
	if RolePost.Precedence() >= RoleBeam.Precedence() {
		t.Error("posts must outrank beams for the housing side")
	}
	if RoleSill.Precedence() >= RoleFloorJoist.Precedence() {
		t.Error("sills must outrank floor joists")
	}
	if Role("Custom").Precedence() != len(RolePrecedence) {
		t.Errorf("unknown role rank = %d, want %d", Role("Custom").Precedence(), len(RolePrecedence))
	}
}

func TestDatumGeometry(t *testing.T) {
	d := Datum{Start: geom.Vec3{}, End: geom.Vec3{Z: 3000}, Width: 200, Height: 150}
	if got := d.Length(); got != 3000 {
		t.Errorf("Length = %g", got)
	}
	if got := d.FinishedLength(); got != 3000 {
		t.Errorf("FinishedLength = %g, want datum length", got)
	}
	if got := d.Area(); got != 30000 {
		t.Errorf("Area = %g", got)
	}
	axis, err := d.Axis()
	if err != nil {
		t.Fatalf("Axis: %v", err)
	}
	if math.Abs(axis.Z-1) > 1e-12 {
		t.Errorf("axis = %+v, want +z", axis)
	}
}

func TestLocalCSHorizontal(t *testing.T) {
	d := Datum{Start: geom.Vec3{}, End: geom.Vec3{X: 1000}, Width: 100, Height: 200}
	_, x, y, z := d.LocalCS()

	// Height must stay vertical for a horizontal member.
	if math.Abs(z.Z-1) > 1e-9 {
		t.Errorf("z = %+v, want world up", z)
	}
	checkFrame(t, x, y, z)
}

func TestLocalCSVerticalFallback(t *testing.T) {
	d := Datum{Start: geom.Vec3{}, End: geom.Vec3{Z: 3000}, Width: 200, Height: 200}
	_, x, y, z := d.LocalCS()
	checkFrame(t, x, y, z)
}

func checkFrame(t *testing.T, x, y, z geom.Vec3) {
	t.Helper()
	for name, v := range map[string]geom.Vec3{"x": x, "y": y, "z": z} {
		if math.Abs(v.Length()-1) > 1e-9 {
			t.Errorf("%s is not unit length: %+v", name, v)
		}
	}
	if math.Abs(x.Dot(y)) > 1e-9 || math.Abs(x.Dot(z)) > 1e-9 || math.Abs(y.Dot(z)) > 1e-9 {
		t.Errorf("frame is not orthogonal: x=%+v y=%+v z=%+v", x, y, z)
	}
}

func TestSectionOffset(t *testing.T) {
	y := geom.Vec3{Y: 1}
	z := geom.Vec3{Z: 1}

	cases := []struct {
		face ReferenceFace
		want geom.Vec3
	}{
		{FaceBottom, geom.Vec3{Y: -50}},
		{FaceTop, geom.Vec3{Y: -50, Z: -200}},
		{FaceLeft, geom.Vec3{Z: -100}},
		{FaceRight, geom.Vec3{Y: -100, Z: -100}},
	}
	for _, c := range cases {
		d := Datum{Width: 100, Height: 200, ReferenceFace: c.face}
		got := d.SectionOffset(y, z)
		if got.DistanceTo(c.want) > 1e-9 {
			t.Errorf("SectionOffset(%s) = %+v, want %+v", c.face, got, c.want)
		}
	}
}
