package geom

import "fmt"

// Basis is a local coordinate frame whose axes need not be mutually
// orthogonal. Joint frames are built from the two member datum directions
// as-is, so the frame is oblique in general: local coordinates are
// (primary-component, secondary-component, normal-component) against this
// skewed basis, and mapping back requires the true inverse of the basis
// matrix, never an orthonormal shortcut.
type Basis struct {
	Origin    Vec3 `json:"origin"`
	Primary   Vec3 `json:"primary"`
	Secondary Vec3 `json:"secondary"`
	Normal    Vec3 `json:"normal"`
}

// ToWorld maps a local coordinate triple into world space.
func (b Basis) ToWorld(local Vec3) Vec3 {
	return b.Origin.
		Add(b.Primary.Scale(local.X)).
		Add(b.Secondary.Scale(local.Y)).
		Add(b.Normal.Scale(local.Z))
}

// Det returns the determinant of the basis matrix (columns Primary,
// Secondary, Normal). Zero means the axes are coplanar and the frame
// cannot be inverted.
func (b Basis) Det() float64 {
	return b.Primary.Dot(b.Secondary.Cross(b.Normal))
}

// ToLocal maps a world point into local coordinates by solving the 3x3
// system with Cramer's rule. Fails when the basis is degenerate.
func (b Basis) ToLocal(world Vec3) (Vec3, error) {
	det := b.Det()
	if det > -Epsilon && det < Epsilon {
		return Vec3{}, fmt.Errorf("geom: degenerate basis, det=%g", det)
	}
	d := world.Sub(b.Origin)
	return Vec3{
		X: d.Dot(b.Secondary.Cross(b.Normal)) / det,
		Y: b.Primary.Dot(d.Cross(b.Normal)) / det,
		Z: b.Primary.Dot(b.Secondary.Cross(d)) / det,
	}, nil
}
