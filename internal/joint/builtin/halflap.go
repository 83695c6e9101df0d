package builtin

import (
	"fmt"

	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/member"
)

// HalfLapID identifies the half lap family.
const HalfLapID = "half_lap"

// HalfLap notches both members to half depth at a crossing so their top
// surfaces stay flush. Common for crossing girts, purlins, or plates.
type HalfLap struct{}

func (HalfLap) Metadata() joint.Metadata {
	return joint.Metadata{
		ID:       HalfLapID,
		Name:     "Half Lap",
		Category: "Lap Joints",
		Description: "Both members are notched to half their depth at the crossing " +
			"point. Top surfaces remain flush when assembled.",
		PrimaryRoles: []member.Role{
			member.RoleBeam, member.RoleGirt, member.RolePlate,
			member.RoleSill, member.RolePurlin, member.RoleTieBeam,
		},
		SecondaryRoles: []member.Role{
			member.RoleBeam, member.RoleGirt, member.RolePlate,
			member.RoleSill, member.RolePurlin, member.RoleTieBeam,
		},
		MinAngle:          60,
		MaxAngle:          90,
		IntersectionTypes: []intersect.Type{intersect.MidpointToMidpoint},
	}
}

func (HalfLap) Parameters(primary, secondary member.Datum, cs intersect.JointCS) *joint.ParameterSet {
	priH, priW := primary.Height, primary.Width
	secH, secW := secondary.Height, secondary.Width

	return joint.NewParameterSet(
		joint.LengthParam("lap_depth_primary", priH/2).
			WithRange(priH*0.25, priH*0.75).WithGroup("Lap").
			WithDescription("Depth of notch in primary member"),
		joint.LengthParam("lap_depth_secondary", secH/2).
			WithRange(secH*0.25, secH*0.75).WithGroup("Lap").
			WithDescription("Depth of notch in secondary member"),
		joint.LengthParam("lap_width_primary", secW+ClearancePerSide).
			WithMin(secW*0.5).WithGroup("Lap").
			WithDescription("Width of notch in primary (accepts secondary)"),
		joint.LengthParam("lap_width_secondary", priW+ClearancePerSide).
			WithMin(priW*0.5).WithGroup("Lap").
			WithDescription("Width of notch in secondary (accepts primary)"),
	)
}

// PrimaryTool cuts the notch from the top face of the primary member,
// centred on the crossing. The notch runs along the secondary datum
// direction projected into the primary cross-section plane, so a skewed
// crossing gets a correspondingly skewed notch.
func (HalfLap) PrimaryTool(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (geom.Solid, error) {
	depth := params.Float("lap_depth_primary")
	width := params.Float("lap_width_primary")

	_, x, y, z := primary.LocalCS()
	across, err := projectAcross(secondary, x, y)
	if err != nil {
		return geom.Solid{}, err
	}

	notchTop := cs.Origin.Add(z.Scale(topOffset(primary)))
	corner := notchTop.
		Sub(z.Scale(depth)).
		Sub(across.Scale(width / 2)).
		Sub(y.Scale(primary.Width/2 + Overshoot))
	return geom.Box(corner,
		across.Scale(width),
		z.Scale(depth+Overshoot),
		y.Scale(primary.Width+2*Overshoot),
	)
}

// SecondaryProfile cuts the matching notch from the bottom face of the
// secondary member. The remaining half section above the notch is
// reported as the nesting tenon body.
func (HalfLap) SecondaryProfile(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (joint.Profile, error) {
	depth := params.Float("lap_depth_secondary")
	width := params.Float("lap_width_secondary")

	_, x, y, z := secondary.LocalCS()
	across, err := projectAcross(primary, x, y)
	if err != nil {
		return joint.Profile{}, err
	}

	notchBottom := cs.Origin.Add(z.Scale(topOffset(secondary) - secondary.Height))
	corner := notchBottom.
		Sub(across.Scale(width / 2)).
		Sub(y.Scale(secondary.Width/2 + Overshoot))
	cut, err := geom.Box(corner,
		across.Scale(width),
		z.Scale(depth),
		y.Scale(secondary.Width+2*Overshoot),
	)
	if err != nil {
		return joint.Profile{}, fmt.Errorf("lap notch: %w", err)
	}

	remaining := secondary.Height - depth
	tenonCorner := notchBottom.
		Add(z.Scale(depth)).
		Sub(across.Scale(width / 2)).
		Sub(y.Scale(secondary.Width / 2))
	tenon, err := geom.Box(tenonCorner,
		across.Scale(width),
		z.Scale(remaining),
		y.Scale(secondary.Width),
	)
	if err != nil {
		return joint.Profile{}, fmt.Errorf("lap body: %w", err)
	}

	return joint.Profile{
		Tenon:       tenon,
		ShoulderCut: geom.CutRecipe{Base: cut},
	}, nil
}

// Pegs returns none; half laps rely on the nesting fit and fasteners the
// host adds separately.
func (HalfLap) Pegs(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) ([]joint.Peg, error) {
	return nil, nil
}

func (d HalfLap) Validate(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) []joint.Finding {
	var out []joint.Finding
	if lap := params.Float("lap_depth_primary"); lap > primary.Height*0.6 {
		out = append(out, joint.Finding{
			Severity: joint.SeverityWarning,
			Code:     "LAP_TOO_DEEP",
			Message: fmt.Sprintf("primary lap depth (%.1fmm) exceeds 60%% of member height (%.1fmm)",
				lap, primary.Height),
		})
	}
	if lap := params.Float("lap_depth_secondary"); lap > secondary.Height*0.6 {
		out = append(out, joint.Finding{
			Severity: joint.SeverityWarning,
			Code:     "LAP_TOO_DEEP",
			Message: fmt.Sprintf("secondary lap depth (%.1fmm) exceeds 60%% of member height (%.1fmm)",
				lap, secondary.Height),
		})
	}
	return append(out, angleFinding(d.Metadata(), cs.AngleDegrees)...)
}

func (HalfLap) SignatureFragment(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) joint.Fragment {
	return joint.Fragment{
		"joint_type":          HalfLapID,
		"lap_depth_primary":   params.Float("lap_depth_primary"),
		"lap_depth_secondary": params.Float("lap_depth_secondary"),
		"lap_width_primary":   params.Float("lap_width_primary"),
		"lap_width_secondary": params.Float("lap_width_secondary"),
		"angle":               cs.AngleDegrees,
	}
}

func (HalfLap) StructuralProperties(params *joint.ParameterSet, primary, secondary member.Datum, lookup joint.CapacityLookup) (joint.StructuralProperties, error) {
	return lookupCapacities(lookup, HalfLapID, primary, secondary, pegConfig(0, 0), true)
}

// projectAcross projects another member's datum direction into the
// cross-section plane of the member whose local frame is (x, y). Falls
// back to y when the datums are effectively parallel.
func projectAcross(other member.Datum, x, y geom.Vec3) (geom.Vec3, error) {
	axis, err := other.Axis()
	if err != nil {
		return geom.Vec3{}, err
	}
	inPlane := axis.Sub(x.Scale(axis.Dot(x)))
	if inPlane.Length() < geom.Epsilon {
		return y, nil
	}
	return inPlane.Unit()
}

// topOffset is the distance from the datum line to the top face along the
// member's local z axis, which depends on the reference face the datum
// runs along.
func topOffset(d member.Datum) float64 {
	switch d.ReferenceFace {
	case member.FaceTop:
		return 0
	case member.FaceLeft, member.FaceRight:
		return d.Height / 2
	default: // Bottom
		return d.Height
	}
}
