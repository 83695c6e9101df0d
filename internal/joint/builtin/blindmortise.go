package builtin

import (
	"fmt"

	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/member"
)

// BlindMortiseTenonID identifies the blind (stub) mortise and tenon family.
const BlindMortiseTenonID = "blind_mortise_tenon"

// BlindMortiseTenon is a stub tenon in a mortise that stops inside the
// primary member, leaving the far face uncut. Preferred where the joint
// must stay hidden or the primary face is weather-exposed.
type BlindMortiseTenon struct{}

func (BlindMortiseTenon) Metadata() joint.Metadata {
	return joint.Metadata{
		ID:       BlindMortiseTenonID,
		Name:     "Blind Mortise and Tenon",
		Category: "Mortise and Tenon",
		Description: "A stub tenon seats in a mortise that stops inside the primary " +
			"member, leaving the far face uncut.",
		PrimaryRoles: []member.Role{
			member.RolePost, member.RoleBeam, member.RoleGirt, member.RoleTieBeam,
			member.RolePlate, member.RoleSill, member.RoleSummerBeam,
		},
		SecondaryRoles: []member.Role{
			member.RoleBeam, member.RoleGirt, member.RoleTieBeam,
			member.RoleBrace, member.RoleHeader,
		},
		MinAngle:          30,
		MaxAngle:          90,
		IntersectionTypes: []intersect.Type{intersect.EndpointToMidpoint},
	}
}

func (BlindMortiseTenon) Parameters(primary, secondary member.Datum, cs intersect.JointCS) *joint.ParameterSet {
	secW, secH, priW := secondary.Width, secondary.Height, primary.Width

	mortiseWidth := secW - ShoulderAllowance
	if mortiseWidth < 20 {
		mortiseWidth = 20
	}
	tenonWidth := mortiseWidth - 2*ClearancePerSide
	tenonHeight := secH * 0.75
	tenonLength := priW * 0.6 // stops inside the primary
	mortiseHeight := tenonHeight + 2*ClearancePerSide

	pegDiameter := 19.05
	pegCount := 1

	return joint.NewParameterSet(
		joint.LengthParam("tenon_width", tenonWidth).
			WithRange(20, secW*0.9).WithGroup("Tenon").
			WithDescription("Width of the tenon"),
		joint.LengthParam("tenon_height", tenonHeight).
			WithRange(20, secH*0.9).WithGroup("Tenon").
			WithDescription("Height of the tenon"),
		joint.LengthParam("tenon_length", tenonLength).
			WithRange(priW*0.25, priW).WithGroup("Tenon").
			WithDescription("Depth the tenon seats into the primary"),
		joint.LengthParam("mortise_width", mortiseWidth).
			WithMin(20).WithGroup("Mortise").
			WithDescription("Width of the mortise opening"),
		joint.LengthParam("mortise_height", mortiseHeight).
			WithMin(20).WithGroup("Mortise").
			WithDescription("Height of the mortise opening"),
		joint.LengthParam("mortise_extra_depth", ClearancePerSide).
			WithRange(0, 10).WithGroup("Mortise").
			WithDescription("Glue/air relief past the tenon tip"),
		joint.LengthParam("peg_diameter", pegDiameter).
			WithRange(12, 38).WithGroup("Pegs").
			WithDescription("Peg diameter"),
		joint.IntParam("peg_count", pegCount).
			WithRange(0, 2).WithGroup("Pegs").
			WithDescription("Number of pegs"),
		joint.LengthParam("drawbore_offset", 3.2).
			WithRange(0, 6).WithGroup("Pegs").
			WithDescription("Drawbore offset (0 = no drawbore)"),
	)
}

// PrimaryTool builds the blind mortise pocket: same JCS-local layout as
// the through mortise, but starting at the entry face and stopping at the
// tenon depth plus relief instead of passing through.
func (BlindMortiseTenon) PrimaryTool(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (geom.Solid, error) {
	mw := params.Float("mortise_width")
	mh := params.Float("mortise_height")
	depth := params.Float("tenon_length") + params.Float("mortise_extra_depth")

	approach, err := approachDirection(primary, secondary, cs.Origin)
	if err != nil {
		return geom.Solid{}, err
	}
	// Entry face of the primary along the approach, not its centre.
	entry := cs.Origin.Sub(approach.Scale(entryHalfExtent(primary, approach) + Overshoot))

	b := cs.Basis()
	corner := entry.
		Sub(b.Primary.Scale(mh / 2)).
		Sub(b.Normal.Scale(mw / 2))
	return geom.Box(corner,
		b.Primary.Scale(mh),
		b.Normal.Scale(mw),
		approach.Scale(depth+Overshoot),
	)
}

// SecondaryProfile builds the stub tenon and its shoulder relief. Unlike
// the through tenon, the blind tenon anchors at the shoulder plane where
// the secondary bears on the primary's entry face, so tenon_length is
// measured from that face and the tip stays inside the pocket.
func (BlindMortiseTenon) SecondaryProfile(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (joint.Profile, error) {
	tw := params.Float("tenon_width")
	th := params.Float("tenon_height")
	tl := params.Float("tenon_length")

	outward, end, err := jointEnd(secondary, cs.Origin)
	if err != nil {
		return joint.Profile{}, err
	}
	approach, err := approachDirection(primary, secondary, cs.Origin)
	if err != nil {
		return joint.Profile{}, err
	}
	_, _, y, z := secondary.LocalCS()

	// Distance along the datum from the joint end back to the shoulder
	// plane on the primary's entry face.
	standoff := entryHalfExtent(primary, approach) / outward.Dot(approach)
	shoulder := end.Sub(outward.Scale(standoff))

	corner := shoulder.Sub(y.Scale(tw / 2)).Sub(z.Scale(th / 2))
	tenon, err := geom.Box(corner, y.Scale(tw), z.Scale(th), outward.Scale(tl))
	if err != nil {
		return joint.Profile{}, fmt.Errorf("tenon: %w", err)
	}

	// Relieve the stock between the joint end and the shoulder plane,
	// keeping only the tenon cross-section.
	inward := outward.Neg()
	full, err := sectionBox(secondary, end, inward, standoff)
	if err != nil {
		return joint.Profile{}, fmt.Errorf("shoulder: %w", err)
	}
	endCorner := end.Sub(y.Scale(tw / 2)).Sub(z.Scale(th / 2))
	keep, err := geom.Box(endCorner, y.Scale(tw), z.Scale(th), inward.Scale(standoff))
	if err != nil {
		return joint.Profile{}, fmt.Errorf("shoulder keep: %w", err)
	}

	return joint.Profile{
		Tenon:       tenon,
		ShoulderCut: geom.CutRecipe{Base: full, Subtract: []geom.Solid{keep}},
	}, nil
}

func (BlindMortiseTenon) Pegs(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) ([]joint.Peg, error) {
	count := params.Int("peg_count")
	if count <= 0 {
		return nil, nil
	}
	axis, err := pegAxis(primary, secondary, cs.Origin)
	if err != nil {
		return nil, err
	}
	th := params.Float("tenon_height")
	offsets := pegOffsets(count, th/2)

	pegs := make([]joint.Peg, 0, count)
	for _, off := range offsets {
		pegs = append(pegs, joint.Peg{
			Origin:         cs.Origin.Add(cs.PrimaryAxis.Scale(off)),
			Axis:           axis,
			Diameter:       params.Float("peg_diameter"),
			Length:         primary.Width + 20,
			DrawboreOffset: params.Float("drawbore_offset"),
		})
	}
	return pegs, nil
}

func (d BlindMortiseTenon) Validate(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) []joint.Finding {
	var out []joint.Finding
	tl := params.Float("tenon_length")
	tw := params.Float("tenon_width")

	if tl > primary.Width*0.8 {
		out = append(out, joint.Finding{
			Severity: joint.SeverityError,
			Code:     "TENON_TOO_DEEP",
			Message: fmt.Sprintf("blind tenon depth (%.1fmm) exceeds 80%% of primary depth (%.1fmm); use a through tenon",
				tl, primary.Width),
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

	return append(out, angleFinding(d.Metadata(), cs.AngleDegrees)...)
}

func (BlindMortiseTenon) SignatureFragment(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) joint.Fragment {
	return joint.Fragment{
		"joint_type":   BlindMortiseTenonID,
		"tenon_width":  params.Float("tenon_width"),
		"tenon_height": params.Float("tenon_height"),
		"tenon_length": params.Float("tenon_length"),
		"peg_count":    params.Int("peg_count"),
		"peg_diameter": params.Float("peg_diameter"),
		"angle":        cs.AngleDegrees,
	}
}

func (BlindMortiseTenon) StructuralProperties(params *joint.ParameterSet, primary, secondary member.Datum, lookup joint.CapacityLookup) (joint.StructuralProperties, error) {
	pegs := pegConfig(params.Int("peg_count"), params.Float("peg_diameter"))
	return lookupCapacities(lookup, BlindMortiseTenonID, primary, secondary, pegs, true)
}

// entryHalfExtent is the half-extent of the primary cross-section along
// the approach direction, locating the entry face relative to the datum.
func entryHalfExtent(primary member.Datum, approach geom.Vec3) float64 {
	_, _, y, z := primary.LocalCS()
	return (abs(approach.Dot(y))*primary.Width + abs(approach.Dot(z))*primary.Height) / 2
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
