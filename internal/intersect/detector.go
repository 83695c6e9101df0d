// Package intersect detects intersections between member datum lines and
// constructs the joint coordinate system at each one. Pure geometry, no
// state: a non-match is a normal negative result, never an error.
package intersect

import (
	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/member"
)

// Default detection constants.
const (
	// DefaultTolerance is the maximum closest-approach distance in mm
	// (0.5 inches).
	DefaultTolerance = 12.7

	// EndpointThreshold is the fraction of a segment within which the
	// closest-approach parameter counts as an endpoint.
	EndpointThreshold = 0.02

	// MinAngleDegrees rejects near-parallel datums: below this the cross
	// product vanishes and no joint frame exists.
	MinAngleDegrees = 5.0
)

// Type classifies how two datum segments meet.
type Type string

const (
	EndpointToMidpoint Type = "EndpointToMidpoint"
	MidpointToMidpoint Type = "MidpointToMidpoint"
	EndpointToEndpoint Type = "EndpointToEndpoint"

	// None means no joint: segments farther apart than tolerance, or
	// effectively collinear.
	None Type = "None"
)

// JointCS is the local coordinate system at a joint. PrimaryAxis and
// SecondaryAxis are the unit datum directions of the two members, NOT
// orthogonalized against each other, so the frame is oblique in general.
type JointCS struct {
	Origin        geom.Vec3 `json:"origin"`
	PrimaryAxis   geom.Vec3 `json:"primary_axis"`
	SecondaryAxis geom.Vec3 `json:"secondary_axis"`
	Normal        geom.Vec3 `json:"normal"`

	// AngleDegrees is the undirected angle between the datum directions,
	// folded into [0, 90].
	AngleDegrees float64 `json:"angle_degrees"`
}

// Basis returns the (oblique) basis for transforming between JCS-local
// and world coordinates.
func (cs JointCS) Basis() geom.Basis {
	return geom.Basis{
		Origin:    cs.Origin,
		Primary:   cs.PrimaryAxis,
		Secondary: cs.SecondaryAxis,
		Normal:    cs.Normal,
	}
}

// Result is the outcome of detecting an intersection between two member
// datums. When Type is None the remaining fields are zero except
// Distance, which still reports the closest approach.
type Result struct {
	Type     Type    `json:"type"`
	Distance float64 `json:"distance"`

	// Primary is the housing member, Secondary the tenoned one.
	Primary   member.Datum `json:"primary"`
	Secondary member.Datum `json:"secondary"`

	// TPrimary and TSecondary are the closest-approach fractional
	// parameters along the primary and secondary datums.
	TPrimary   float64 `json:"t_primary"`
	TSecondary float64 `json:"t_secondary"`

	CS JointCS `json:"cs"`
}

// Detect classifies the relationship between two member datums.
// tolerance <= 0 uses DefaultTolerance.
func Detect(a, b member.Datum, tolerance float64) Result {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	pa, pb, dist, ta, tb := geom.ClosestApproach(a.Segment(), b.Segment())
	if dist > tolerance {
		return Result{Type: None, Distance: dist}
	}

	angle, err := geom.AngleBetweenDegrees(a.Direction(), b.Direction())
	if err != nil || angle < MinAngleDegrees {
		// Collinear or degenerate datums: deliberate rejection, no frame.
		return Result{Type: None, Distance: dist}
	}

	itype := classify(ta, tb, EndpointThreshold)
	primary, secondary, tp, ts := assignPrimary(a, b, itype, ta, tb)

	point := pa.Add(pb).Scale(0.5)
	cs, ok := buildCS(primary, secondary, point, angle)
	if !ok {
		return Result{Type: None, Distance: dist}
	}

	return Result{
		Type:       itype,
		Distance:   dist,
		Primary:    primary,
		Secondary:  secondary,
		TPrimary:   tp,
		TSecondary: ts,
		CS:         cs,
	}
}

// DetectAll scans all pairs of members and returns every detected
// intersection, in input order. Used after member placement to propose
// joints.
func DetectAll(members []member.Datum, tolerance float64) []Result {
	var out []Result
	for i := 0; i < len(members); i++ {
		for j := i + 1; j < len(members); j++ {
			if r := Detect(members[i], members[j], tolerance); r.Type != None {
				out = append(out, r)
			}
		}
	}
	return out
}

// classify maps the closest-approach parameters to an intersection type.
// A parameter within threshold of 0 or 1 counts as an endpoint.
func classify(ta, tb, threshold float64) Type {
	epA := nearEndpoint(ta, threshold)
	epB := nearEndpoint(tb, threshold)
	switch {
	case epA && epB:
		return EndpointToEndpoint
	case epA || epB:
		return EndpointToMidpoint
	default:
		return MidpointToMidpoint
	}
}

func nearEndpoint(t, threshold float64) bool {
	return t <= threshold || t >= 1-threshold
}

// assignPrimary decides which member is primary (housing) and which is
// secondary (tenoned):
//
//   - EndpointToMidpoint: the midpoint member receives the mortise.
//   - Otherwise: the larger cross-section wins; equal areas fall back to
//     role precedence; equal roles keep the first argument primary so the
//     result stays a pure function of the inputs.
func assignPrimary(a, b member.Datum, itype Type, ta, tb float64) (primary, secondary member.Datum, tp, ts float64) {
	if itype == EndpointToMidpoint {
		if nearEndpoint(ta, EndpointThreshold) {
			return b, a, tb, ta
		}
		return a, b, ta, tb
	}
	switch {
	case a.Area() > b.Area():
		return a, b, ta, tb
	case b.Area() > a.Area():
		return b, a, tb, ta
	case b.Role.Precedence() < a.Role.Precedence():
		return b, a, tb, ta
	default:
		return a, b, ta, tb
	}
}

// buildCS constructs the joint coordinate system at point. The normal is
// the normalized cross product of the two datum directions; the angle
// guard in Detect guarantees it exists.
func buildCS(primary, secondary member.Datum, point geom.Vec3, angle float64) (JointCS, bool) {
	pAxis, err := primary.Axis()
	if err != nil {
		return JointCS{}, false
	}
	sAxis, err := secondary.Axis()
	if err != nil {
		return JointCS{}, false
	}
	normal, err := pAxis.Cross(sAxis).Unit()
	if err != nil {
		return JointCS{}, false
	}
	return JointCS{
		Origin:        point,
		PrimaryAxis:   pAxis,
		SecondaryAxis: sAxis,
		Normal:        normal,
		AngleDegrees:  angle,
	}, true
}
