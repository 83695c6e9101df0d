package builtin

import (
	"fmt"

	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/member"
)

// ThroughMortiseTenonID identifies the through mortise and tenon family.
const ThroughMortiseTenonID = "through_mortise_tenon"

// ThroughMortiseTenon is the most common timber frame joint: a
// rectangular mortise cut fully through the primary member and a matching
// tenon on the end of the secondary, secured with drawbore pegs.
type ThroughMortiseTenon struct{}

func (ThroughMortiseTenon) Metadata() joint.Metadata {
	return joint.Metadata{
		ID:       ThroughMortiseTenonID,
		Name:     "Through Mortise and Tenon",
		Category: "Mortise and Tenon",
		Description: "A rectangular tenon on the secondary member passes through a " +
			"matching mortise in the primary member. Secured with drawbore pegs.",
		PrimaryRoles: []member.Role{
			member.RolePost, member.RoleBeam, member.RoleGirt, member.RoleTieBeam,
			member.RolePlate, member.RoleSill, member.RoleSummerBeam,
		},
		SecondaryRoles: []member.Role{
			member.RoleBeam, member.RoleGirt, member.RoleTieBeam, member.RoleRafter,
			member.RoleBrace, member.RoleFloorJoist,
		},
		MinAngle:          45,
		MaxAngle:          90,
		IntersectionTypes: []intersect.Type{intersect.EndpointToMidpoint},
	}
}

func (ThroughMortiseTenon) Parameters(primary, secondary member.Datum, cs intersect.JointCS) *joint.ParameterSet {
	secW, secH, priW := secondary.Width, secondary.Height, primary.Width

	mortiseWidth := secW - ShoulderAllowance
	if mortiseWidth < 20 {
		mortiseWidth = 20
	}
	tenonWidth := mortiseWidth - 2*ClearancePerSide
	tenonHeight := secH * 0.75
	tenonLength := priW // through joint
	mortiseHeight := tenonHeight + 2*ClearancePerSide
	shoulderDepth := (secH - tenonHeight) / 2

	pegDiameter := 25.4
	pegCount := 1
	if secH >= 150 {
		pegCount = 2
	}
	pegEdge := pegDiameter * 2.5
	pegSpacing := 0.0
	if pegCount > 1 {
		pegSpacing = tenonHeight - 2*pegEdge
	}

	return joint.NewParameterSet(
		joint.LengthParam("tenon_width", tenonWidth).
			WithRange(20, secW*0.9).WithGroup("Tenon").
			WithDescription("Width of the tenon"),
		joint.LengthParam("tenon_height", tenonHeight).
			WithRange(20, secH*0.9).WithGroup("Tenon").
			WithDescription("Height of the tenon"),
		joint.LengthParam("tenon_length", tenonLength).
			WithRange(priW*0.5, priW*1.5).WithGroup("Tenon").
			WithDescription("Length of the tenon (through primary)"),
		joint.LengthParam("mortise_width", mortiseWidth).
			WithMin(20).WithGroup("Mortise").
			WithDescription("Width of the mortise opening"),
		joint.LengthParam("mortise_height", mortiseHeight).
			WithMin(20).WithGroup("Mortise").
			WithDescription("Height of the mortise opening"),
		joint.LengthParam("shoulder_depth", shoulderDepth).
			WithMin(0).WithGroup("Tenon").
			WithDescription("Depth of the shoulder (top and bottom)"),
		joint.LengthParam("peg_diameter", pegDiameter).
			WithRange(12, 38).WithGroup("Pegs").
			WithDescription("Peg diameter"),
		joint.IntParam("peg_count", pegCount).
			WithRange(0, 4).WithGroup("Pegs").
			WithDescription("Number of pegs"),
		joint.LengthParam("peg_spacing", pegSpacing).
			WithMin(0).WithGroup("Pegs").
			WithDescription("Spacing between pegs"),
		joint.LengthParam("peg_edge_distance", pegEdge).
			WithMin(pegDiameter*1.5).WithGroup("Pegs").
			WithDescription("Minimum distance from peg to tenon edge"),
		joint.LengthParam("drawbore_offset", 3.2).
			WithRange(0, 6).WithGroup("Pegs").
			WithDescription("Drawbore offset (0 = no drawbore)"),
	)
}

// PrimaryTool builds the mortise void. The box is laid out in JCS-local
// coordinates and mapped through the oblique basis: opening height along
// the primary axis, opening width along the normal, passage along the
// secondary axis, so a skewed frame yields a correctly sheared mortise.
func (ThroughMortiseTenon) PrimaryTool(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (geom.Solid, error) {
	mw := params.Float("mortise_width")
	mh := params.Float("mortise_height")
	through := params.Float("tenon_length") + 2*Overshoot

	b := cs.Basis()
	corner := b.ToWorld(geom.Vec3{X: -mh / 2, Y: -through / 2, Z: -mw / 2})
	return geom.Box(corner,
		b.Primary.Scale(mh),
		b.Secondary.Scale(through),
		b.Normal.Scale(mw),
	)
}

// SecondaryProfile builds the tenon and the shoulder cut that exposes it.
// The tenon is centred on the secondary datum and extends past the joint
// end; the shoulder recipe removes the ring of material around it.
func (ThroughMortiseTenon) SecondaryProfile(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (joint.Profile, error) {
	tw := params.Float("tenon_width")
	th := params.Float("tenon_height")
	tl := params.Float("tenon_length")

	outward, end, err := jointEnd(secondary, cs.Origin)
	if err != nil {
		return joint.Profile{}, err
	}
	_, _, y, z := secondary.LocalCS()

	corner := end.Sub(y.Scale(tw / 2)).Sub(z.Scale(th / 2))
	tenon, err := geom.Box(corner, y.Scale(tw), z.Scale(th), outward.Scale(tl))
	if err != nil {
		return joint.Profile{}, fmt.Errorf("tenon: %w", err)
	}

	inward := outward.Neg()
	full, err := sectionBox(secondary, end, inward, tl)
	if err != nil {
		return joint.Profile{}, fmt.Errorf("shoulder: %w", err)
	}
	keep, err := geom.Box(corner, y.Scale(tw), z.Scale(th), inward.Scale(tl))
	if err != nil {
		return joint.Profile{}, fmt.Errorf("shoulder keep: %w", err)
	}

	return joint.Profile{
		Tenon:       tenon,
		ShoulderCut: geom.CutRecipe{Base: full, Subtract: []geom.Solid{keep}},
	}, nil
}

// Pegs places the drawbore pegs, spread along the primary axis within the
// tenon height. Peg axis is normalize(primaryAxis x approach), never
// simply parallel to either member.
func (ThroughMortiseTenon) Pegs(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) ([]joint.Peg, error) {
	count := params.Int("peg_count")
	if count <= 0 {
		return nil, nil
	}
	axis, err := pegAxis(primary, secondary, cs.Origin)
	if err != nil {
		return nil, err
	}

	spacing := params.Float("peg_spacing")
	offsets := pegOffsets(count, spacing)

	pegs := make([]joint.Peg, 0, count)
	for _, off := range offsets {
		pegs = append(pegs, joint.Peg{
			Origin:         cs.Origin.Add(cs.PrimaryAxis.Scale(off)),
			Axis:           axis,
			Diameter:       params.Float("peg_diameter"),
			Length:         primary.Width + 20, // extend beyond both faces
			DrawboreOffset: params.Float("drawbore_offset"),
		})
	}
	return pegs, nil
}

func (d ThroughMortiseTenon) Validate(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) []joint.Finding {
	var out []joint.Finding
	th := params.Float("tenon_height")
	tw := params.Float("tenon_width")
	tl := params.Float("tenon_length")
	pegD := params.Float("peg_diameter")
	pegEdge := params.Float("peg_edge_distance")

	if th > secondary.Height*0.80 {
		out = append(out, joint.Finding{
			Severity: joint.SeverityWarning,
			Code:     "TENON_TOO_TALL",
			Message: fmt.Sprintf("tenon height (%.1fmm) exceeds 80%% of member height (%.1fmm)",
				th, secondary.Height),
		})
	}

	cheek := (secondary.Width - tw) / 2
	if cheek < 10 {
		out = append(out, joint.Finding{
			Severity: joint.SeverityError,
			Code:     "CHEEK_TOO_THIN",
			Message:  fmt.Sprintf("cheek thickness (%.1fmm) is too thin, minimum 10mm", cheek),
		})
	}

	if tl > primary.Width+geom.Epsilon {
		out = append(out, joint.Finding{
			Severity: joint.SeverityError,
			Code:     "TENON_TOO_LONG",
			Message: fmt.Sprintf("tenon length (%.1fmm) exceeds primary member depth (%.1fmm)",
				tl, primary.Width),
		})
	}

	if pegEdge < pegD*1.5 {
		out = append(out, joint.Finding{
			Severity: joint.SeverityWarning,
			Code:     "PEG_EDGE_DISTANCE",
			Message: fmt.Sprintf("peg edge distance (%.1fmm) is less than 1.5x peg diameter (%.1fmm)",
				pegEdge, pegD*1.5),
		})
	}

	return append(out, angleFinding(d.Metadata(), cs.AngleDegrees)...)
}

func (ThroughMortiseTenon) SignatureFragment(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) joint.Fragment {
	return joint.Fragment{
		"joint_type":   ThroughMortiseTenonID,
		"tenon_width":  params.Float("tenon_width"),
		"tenon_height": params.Float("tenon_height"),
		"tenon_length": params.Float("tenon_length"),
		"peg_count":    params.Int("peg_count"),
		"peg_diameter": params.Float("peg_diameter"),
		"angle":        cs.AngleDegrees,
	}
}

func (ThroughMortiseTenon) StructuralProperties(params *joint.ParameterSet, primary, secondary member.Datum, lookup joint.CapacityLookup) (joint.StructuralProperties, error) {
	pegs := pegConfig(params.Int("peg_count"), params.Float("peg_diameter"))
	return lookupCapacities(lookup, ThroughMortiseTenonID, primary, secondary, pegs, true)
}

// pegOffsets spreads count pegs evenly across spacing, centred on zero.
func pegOffsets(count int, spacing float64) []float64 {
	if count == 1 {
		return []float64{0}
	}
	out := make([]float64, count)
	for i := 0; i < count; i++ {
		out[i] = -spacing/2 + float64(i)*spacing/float64(count-1)
	}
	return out
}
