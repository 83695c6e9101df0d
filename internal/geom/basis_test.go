package geom

import (
	"math"
	"testing"
)

func TestBasisRoundTripOblique(t *testing.T) {
	// A 60-degree skewed frame: Secondary is NOT orthogonal to Primary.
	b := Basis{
		Origin:    Vec3{X: 10, Y: 20, Z: 30},
		Primary:   Vec3{X: 1},
		Secondary: Vec3{X: 0.5, Y: math.Sqrt(3) / 2},
		Normal:    Vec3{Z: 1},
	}

	local := Vec3{X: 2, Y: 3, Z: 4}
	world := b.ToWorld(local)
	back, err := b.ToLocal(world)
	if err != nil {
		t.Fatalf("ToLocal: %v", err)
	}
	if !vecAlmostEqual(back, local, 1e-9) {
		t.Errorf("round trip = %+v, want %+v", back, local)
	}
}

func TestBasisToWorldOrigin(t *testing.T) {
	b := Basis{Origin: Vec3{X: 5}, Primary: Vec3{X: 1}, Secondary: Vec3{Y: 1}, Normal: Vec3{Z: 1}}
	if got := b.ToWorld(Vec3{}); !vecAlmostEqual(got, Vec3{X: 5}, 1e-12) {
		t.Errorf("ToWorld(zero) = %+v, want origin", got)
	}
}

func TestBasisDegenerate(t *testing.T) {
	b := Basis{
		Primary:   Vec3{X: 1},
		Secondary: Vec3{X: 2}, // coplanar with primary and normal
		Normal:    Vec3{Z: 1},
	}
	if _, err := b.ToLocal(Vec3{X: 1}); err == nil {
		t.Fatal("expected error for degenerate basis")
	}
}

func TestBasisDetOrthonormal(t *testing.T) {
	b := Basis{Primary: Vec3{X: 1}, Secondary: Vec3{Y: 1}, Normal: Vec3{Z: 1}}
	if got := b.Det(); !almostEqual(got, 1, 1e-12) {
		t.Errorf("Det = %g, want 1", got)
	}
}
