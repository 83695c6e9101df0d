package builtin

import (
	"fmt"

	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/member"
)

// BladedScarfID identifies the bladed scarf family.
const BladedScarfID = "bladed_scarf"

// BladedScarf splices two members end to end: the primary keeps its
// bottom blade over the splice, the secondary carries a matching top
// blade that nests into the primary's notch. Pegged through the overlap.
type BladedScarf struct{}

func (BladedScarf) Metadata() joint.Metadata {
	return joint.Metadata{
		ID:       BladedScarfID,
		Name:     "Bladed Scarf",
		Category: "Scarf Joints",
		Description: "An end-to-end splice: half-depth blades overlap over the " +
			"splice length and are pegged together.",
		PrimaryRoles: []member.Role{
			member.RolePlate, member.RoleSill, member.RoleRidge,
			member.RolePurlin, member.RoleBeam,
		},
		SecondaryRoles: []member.Role{
			member.RolePlate, member.RoleSill, member.RoleRidge,
			member.RolePurlin, member.RoleBeam,
		},
		MinAngle:          5,
		MaxAngle:          45,
		IntersectionTypes: []intersect.Type{intersect.EndpointToEndpoint},
	}
}

func (BladedScarf) Parameters(primary, secondary member.Datum, cs intersect.JointCS) *joint.ParameterSet {
	depth := primary.Height
	if secondary.Height > depth {
		depth = secondary.Height
	}
	bladeLength := 3 * depth

	return joint.NewParameterSet(
		joint.LengthParam("blade_length", bladeLength).
			WithRange(1.5*depth, 6*depth).WithGroup("Blades").
			WithDescription("Length of the overlapping blades"),
		joint.LengthParam("blade_depth", primary.Height/2).
			WithRange(primary.Height*0.3, primary.Height*0.7).WithGroup("Blades").
			WithDescription("Depth of the blade notch in the primary"),
		joint.LengthParam("clearance", ClearancePerSide).
			WithRange(0, 3).WithGroup("Blades").
			WithDescription("Fit clearance per face"),
		joint.IntParam("peg_count", 2).
			WithRange(0, 4).WithGroup("Pegs").
			WithDescription("Pegs through the blade overlap"),
		joint.LengthParam("peg_diameter", 19.05).
			WithRange(12, 32).WithGroup("Pegs").
			WithDescription("Peg diameter"),
		joint.LengthParam("drawbore_offset", 3.2).
			WithRange(0, 6).WithGroup("Pegs").
			WithDescription("Drawbore offset (0 = no drawbore)"),
	)
}

// PrimaryTool removes the top blade notch from the primary's joint end:
// full section width, blade depth from the top face, running the blade
// length back from the end.
func (BladedScarf) PrimaryTool(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (geom.Solid, error) {
	length := params.Float("blade_length")
	depth := params.Float("blade_depth") + params.Float("clearance")

	outward, end, err := jointEnd(primary, cs.Origin)
	if err != nil {
		return geom.Solid{}, err
	}
	_, _, y, z := primary.LocalCS()

	// Notch floor sits at blade depth below the top face.
	corner := end.
		Add(outward.Scale(Overshoot)).
		Sub(y.Scale(primary.Width/2 + Overshoot)).
		Add(z.Scale(topOffset(primary) - depth))
	return geom.Box(corner,
		outward.Neg().Scale(length+Overshoot),
		y.Scale(primary.Width+2*Overshoot),
		z.Scale(depth+Overshoot),
	)
}

// SecondaryProfile builds the secondary's top blade, protruding past its
// end into the primary's notch. The full-depth end region below the blade
// is trimmed away.
func (BladedScarf) SecondaryProfile(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (joint.Profile, error) {
	length := params.Float("blade_length")
	depth := params.Float("blade_depth")

	outward, end, err := jointEnd(secondary, cs.Origin)
	if err != nil {
		return joint.Profile{}, err
	}
	_, _, y, z := secondary.LocalCS()

	bladeFloor := topOffset(secondary) - depth
	corner := end.
		Sub(y.Scale(secondary.Width / 2)).
		Add(z.Scale(bladeFloor))
	blade, err := geom.Box(corner,
		outward.Scale(length),
		y.Scale(secondary.Width),
		z.Scale(depth),
	)
	if err != nil {
		return joint.Profile{}, fmt.Errorf("scarf blade: %w", err)
	}

	// Trim everything below the blade floor over the protruding length.
	trimCorner := end.
		Add(outward.Scale(Overshoot)).
		Sub(y.Scale(secondary.Width/2 + Overshoot)).
		Add(z.Scale(topOffset(secondary) - secondary.Height - Overshoot))
	trim, err := geom.Box(trimCorner,
		outward.Scale(length),
		y.Scale(secondary.Width+2*Overshoot),
		z.Scale(secondary.Height-depth+Overshoot),
	)
	if err != nil {
		return joint.Profile{}, fmt.Errorf("scarf trim: %w", err)
	}

	return joint.Profile{
		Tenon:       blade,
		ShoulderCut: geom.CutRecipe{Base: trim},
	}, nil
}

// Pegs spreads the pegs along the blade overlap, driven through the
// member height.
func (BladedScarf) Pegs(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) ([]joint.Peg, error) {
	count := params.Int("peg_count")
	if count <= 0 {
		return nil, nil
	}
	length := params.Float("blade_length")

	outward, _, err := jointEnd(primary, cs.Origin)
	if err != nil {
		return nil, err
	}
	_, _, _, z := primary.LocalCS()
	inward := outward.Neg()

	pegs := make([]joint.Peg, 0, count)
	for i := 0; i < count; i++ {
		frac := float64(i+1) / float64(count+1)
		pegs = append(pegs, joint.Peg{
			Origin:         cs.Origin.Add(inward.Scale(length * frac)),
			Axis:           z.Neg(),
			Diameter:       params.Float("peg_diameter"),
			Length:         primary.Height + 20,
			DrawboreOffset: params.Float("drawbore_offset"),
		})
	}
	return pegs, nil
}

func (d BladedScarf) Validate(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) []joint.Finding {
	var out []joint.Finding

	if primary.Width != secondary.Width || primary.Height != secondary.Height {
		out = append(out, joint.Finding{
			Severity: joint.SeverityWarning,
			Code:     "SECTION_MISMATCH",
			Message: fmt.Sprintf("spliced sections differ (%s vs %s); faces will not be flush",
				sectionKey(primary), sectionKey(secondary)),
		})
	}

	depth := primary.Height
	if secondary.Height > depth {
		depth = secondary.Height
	}
	if params.Float("blade_length") < 2*depth {
		out = append(out, joint.Finding{
			Severity: joint.SeverityWarning,
			Code:     "BLADE_TOO_SHORT",
			Message: fmt.Sprintf("blade length (%.1fmm) is under twice the section depth (%.1fmm)",
				params.Float("blade_length"), depth),
		})
	}

	return append(out, angleFinding(d.Metadata(), cs.AngleDegrees)...)
}

func (BladedScarf) SignatureFragment(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) joint.Fragment {
	return joint.Fragment{
		"joint_type":   BladedScarfID,
		"blade_length": params.Float("blade_length"),
		"blade_depth":  params.Float("blade_depth"),
		"peg_count":    params.Int("peg_count"),
		"peg_diameter": params.Float("peg_diameter"),
		"angle":        cs.AngleDegrees,
	}
}

func (BladedScarf) StructuralProperties(params *joint.ParameterSet, primary, secondary member.Datum, lookup joint.CapacityLookup) (joint.StructuralProperties, error) {
	pegs := pegConfig(params.Int("peg_count"), params.Float("peg_diameter"))
	return lookupCapacities(lookup, BladedScarfID, primary, secondary, pegs, false)
}
