// Package member defines the timber member data model: the datum line,
// cross-section, material, and structural role of a single timber at the
// moment of joint evaluation. Values are immutable inputs owned by the
// caller; the core never mutates them.
package member

import (
	"math"

	"github.com/framewright/tenon/internal/geom"
)

// Role is the structural role of a member within the frame.
type Role string

const (
	RolePost       Role = "Post"
	RoleBeam       Role = "Beam"
	RoleRafter     Role = "Rafter"
	RolePurlin     Role = "Purlin"
	RoleGirt       Role = "Girt"
	RoleTieBeam    Role = "TieBeam"
	RoleBrace      Role = "Brace"
	RoleHeader     Role = "Header"
	RoleTrimmer    Role = "Trimmer"
	RoleRidge      Role = "Ridge"
	RoleValley     Role = "Valley"
	RoleSill       Role = "Sill"
	RolePlate      Role = "Plate"
	RoleFloorJoist Role = "FloorJoist"
	RoleSummerBeam Role = "SummerBeam"
)

// RolePrecedence is the total order used to break ties when two
// intersecting members have equal cross-section area: the earlier role
// becomes the primary (housing) member. Posts house beams, sills and
// plates house joists, braces are always tenoned.
var RolePrecedence = []Role{
	RolePost, RoleSill, RolePlate, RoleTieBeam, RoleSummerBeam,
	RoleBeam, RoleGirt, RoleHeader, RoleTrimmer, RoleRidge,
	RoleValley, RoleRafter, RolePurlin, RoleFloorJoist, RoleBrace,
}

// Precedence returns the rank of r in RolePrecedence; unknown roles rank
// last so user-defined roles never steal the housing side from built-ins.
func (r Role) Precedence() int {
	for i, role := range RolePrecedence {
		if role == r {
			return i
		}
	}
	return len(RolePrecedence)
}

// ReferenceFace names which face of the cross-section the datum line
// runs along.
type ReferenceFace string

const (
	FaceTop    ReferenceFace = "Top"
	FaceBottom ReferenceFace = "Bottom"
	FaceLeft   ReferenceFace = "Left"
	FaceRight  ReferenceFace = "Right"
)

// ReferenceFaces lists all valid reference face values.
var ReferenceFaces = []ReferenceFace{FaceTop, FaceBottom, FaceLeft, FaceRight}

// Datum is one timber's centerline and cross-section at joint
// evaluation time.
type Datum struct {
	Start         geom.Vec3     `json:"start"`
	End           geom.Vec3     `json:"end"`
	Width         float64       `json:"width"`
	Height        float64       `json:"height"`
	ReferenceFace ReferenceFace `json:"reference_face"`
	Role          Role          `json:"role"`
	Species       string        `json:"species"`
	Grade         string        `json:"grade"`

	// End-cut angles measured from perpendicular to the datum, degrees.
	StartCutAngle float64 `json:"start_cut_angle"`
	EndCutAngle   float64 `json:"end_cut_angle"`
}

// Segment returns the datum as a geometric segment.
func (d Datum) Segment() geom.Segment {
	return geom.Segment{Start: d.Start, End: d.End}
}

// Direction returns End - Start (not normalized).
func (d Datum) Direction() geom.Vec3 {
	return d.End.Sub(d.Start)
}

// Length returns the datum length.
func (d Datum) Length() float64 {
	return d.Direction().Length()
}

// FinishedLength is the cut length of the timber. End cuts are angled,
// not shortened, so the finished length equals the datum length.
func (d Datum) FinishedLength() float64 {
	return d.Length()
}

// Area returns the cross-section area.
func (d Datum) Area() float64 {
	return d.Width * d.Height
}

// Axis returns the unit datum direction.
func (d Datum) Axis() (geom.Vec3, error) {
	return d.Direction().Unit()
}

// LocalCS returns the member's local coordinate system:
// origin at the datum start, x along the datum, y in the width
// direction, z in the height direction. The y axis is chosen with a
// world-up hint so horizontal members keep height vertical; vertical
// members fall back to a world-Y hint.
func (d Datum) LocalCS() (origin, x, y, z geom.Vec3) {
	origin = d.Start
	xa, err := d.Axis()
	if err != nil {
		return origin, geom.Vec3{X: 1}, geom.Vec3{Y: 1}, geom.Vec3{Z: 1}
	}
	up := geom.Vec3{Z: 1}
	if math.Abs(xa.Dot(up)) > 0.999 {
		up = geom.Vec3{Y: 1}
	}
	ya, _ := xa.Cross(up).Unit()
	za, _ := ya.Cross(xa).Unit()
	return origin, xa, ya, za
}

// SectionOffset returns the offset from the datum line to the
// cross-section's lower-left corner in the local (y, z) frame, honoring
// the reference face the datum runs along.
func (d Datum) SectionOffset(y, z geom.Vec3) geom.Vec3 {
	switch d.ReferenceFace {
	case FaceTop:
		return y.Scale(-d.Width / 2).Add(z.Scale(-d.Height))
	case FaceLeft:
		return z.Scale(-d.Height / 2)
	case FaceRight:
		return y.Scale(-d.Width).Add(z.Scale(-d.Height / 2))
	default: // Bottom
		return y.Scale(-d.Width / 2)
	}
}
