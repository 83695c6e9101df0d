package builtin

import (
	"fmt"
	"math"

	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/member"
)

// DovetailID identifies the dovetail family.
const DovetailID = "dovetail"

// Channel modes for the dovetail slot.
const (
	ChannelThrough = "Through"
	ChannelHalf    = "Half"
)

// Dovetail is a trapezoidal tenon in a matching slot. The taper resists
// withdrawal, so the family suits joist-to-beam and purlin-to-rafter
// connections where the secondary must not pull away from the primary.
type Dovetail struct{}

func (Dovetail) Metadata() joint.Metadata {
	return joint.Metadata{
		ID:       DovetailID,
		Name:     "Dovetail",
		Category: "Dovetail",
		Description: "A dovetail-shaped tenon fits into a matching trapezoidal slot. " +
			"Provides withdrawal resistance for beam-to-post or joist-to-beam connections.",
		PrimaryRoles: []member.Role{
			member.RoleBeam, member.RoleGirt, member.RoleSummerBeam,
			member.RolePlate, member.RolePost,
		},
		SecondaryRoles: []member.Role{
			member.RoleFloorJoist, member.RoleRafter, member.RolePurlin, member.RoleGirt,
		},
		MinAngle:          75,
		MaxAngle:          90,
		IntersectionTypes: []intersect.Type{intersect.EndpointToMidpoint},
	}
}

func (Dovetail) Parameters(primary, secondary member.Datum, cs intersect.JointCS) *joint.ParameterSet {
	secW, secH, priW := secondary.Width, secondary.Height, primary.Width

	dovetailAngle := 14.0 // standard 1:4 slope
	tailHeight := secH * 0.5
	tailNarrow := secW * 0.6
	spread := 2 * tailHeight * math.Tan(dovetailAngle*math.Pi/180)
	tailWide := tailNarrow + spread
	slotDepth := priW * 0.5
	shoulderDepth := (secH - tailHeight) / 2

	return joint.NewParameterSet(
		joint.AngleParam("dovetail_angle", dovetailAngle).
			WithRange(8, 20).WithGroup("Dovetail").
			WithDescription("Dovetail slope angle in degrees"),
		joint.LengthParam("tail_width_narrow", tailNarrow).
			WithRange(20, secW*0.9).WithGroup("Dovetail").
			WithDescription("Width at the narrow (surface) end"),
		joint.LengthParam("tail_width_wide", tailWide).
			WithMin(tailNarrow).WithGroup("Dovetail").
			WithDescription("Width at the wide (back) end"),
		joint.LengthParam("tail_height", tailHeight).
			WithRange(20, secH*0.8).WithGroup("Dovetail").
			WithDescription("Height of the dovetail"),
		joint.LengthParam("slot_depth", slotDepth).
			WithRange(priW*0.25, priW*0.75).WithGroup("Slot").
			WithDescription("Depth of dovetail slot in primary member"),
		joint.LengthParam("shoulder_depth", shoulderDepth).
			WithMin(0).WithGroup("Dovetail").
			WithDescription("Depth of shoulder above/below dovetail"),
		joint.LengthParam("clearance", ClearancePerSide).
			WithRange(0, 3).WithGroup("Slot").
			WithDescription("Clearance per side in slot"),
		joint.EnumParam("channel_mode", ChannelThrough, ChannelThrough, ChannelHalf).
			WithGroup("Slot").
			WithDescription("Through = open both sides; Half = open toward one edge"),
		joint.BoolParam("flip_channel", false).
			WithGroup("Slot").
			WithDescription("Reverse which side the half-channel opens toward"),
	)
}

// PrimaryTool builds the dovetail slot. The slot sits on the entry face
// of the primary where the secondary approaches, not at its geometric
// centre, and runs perpendicular to that face so the secondary slides in
// from the side. Through mode opens both edges; Half opens toward one.
func (Dovetail) PrimaryTool(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (geom.Solid, error) {
	clearance := params.Float("clearance")
	narrowW := params.Float("tail_width_narrow") + 2*clearance
	wideW := params.Float("tail_width_wide") + 2*clearance
	slotDepth := params.Float("slot_depth")

	priAxis, err := primary.Axis()
	if err != nil {
		return geom.Solid{}, err
	}
	depthDir, err := approachDirection(primary, secondary, cs.Origin)
	if err != nil {
		return geom.Solid{}, err
	}
	slideDir, err := depthDir.Cross(priAxis).Unit()
	if err != nil {
		return geom.Solid{}, fmt.Errorf("slot slide direction: %w", err)
	}

	entryFace := cs.Origin.Sub(depthDir.Scale(entryHalfExtent(primary, depthDir)))
	slideExtent := entryHalfExtent(primary, slideDir) * 2

	center := entryFace
	length := slideExtent + 2*Overshoot
	if params.Enum("channel_mode") == ChannelHalf {
		// Open toward one edge only; flip reverses which one.
		half := slideExtent/2 + Overshoot
		sign := 1.0
		if params.Bool("flip_channel") {
			sign = -1.0
		}
		center = entryFace.Add(slideDir.Scale(sign * half / 2))
		length = half
	}

	return geom.TrapezoidPrism(center,
		priAxis,  // dovetail taper measured along the primary axis
		slideDir, // slot runs this way across the section
		depthDir, // into the primary
		narrowW, wideW, length, slotDepth)
}

// SecondaryProfile builds the dovetail tail and its shoulder cut. The
// tail anchors at the shoulder plane on the primary's entry face and
// tapers like the slot, narrow at the shoulder and wide at the tip.
func (Dovetail) SecondaryProfile(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (joint.Profile, error) {
	narrowW := params.Float("tail_width_narrow")
	wideW := params.Float("tail_width_wide")
	tailH := params.Float("tail_height")
	slotDepth := params.Float("slot_depth")

	priAxis, err := primary.Axis()
	if err != nil {
		return joint.Profile{}, err
	}
	depthDir, err := approachDirection(primary, secondary, cs.Origin)
	if err != nil {
		return joint.Profile{}, err
	}
	slideDir, err := depthDir.Cross(priAxis).Unit()
	if err != nil {
		return joint.Profile{}, fmt.Errorf("taper direction: %w", err)
	}

	outward, end, err := jointEnd(secondary, cs.Origin)
	if err != nil {
		return joint.Profile{}, err
	}

	// Anchor the tail at the shoulder plane on the primary's entry face
	// so it fills the slot rather than the far half of the primary.
	standoff := entryHalfExtent(primary, depthDir) / outward.Dot(depthDir)
	shoulder := end.Sub(outward.Scale(standoff))

	// Narrow at the shoulder, wide at the tip, mirroring the slot taper
	// so the tail locks against withdrawal.
	tenon, err := geom.TrapezoidPrism(shoulder, priAxis, slideDir, outward,
		narrowW, wideW, tailH, slotDepth)
	if err != nil {
		return joint.Profile{}, fmt.Errorf("dovetail tenon: %w", err)
	}

	// Relieve the stock between the joint end and the shoulder plane,
	// keeping only the tail, which is the tenon solid itself.
	full, err := sectionBox(secondary, end, outward.Neg(), standoff)
	if err != nil {
		return joint.Profile{}, fmt.Errorf("shoulder: %w", err)
	}

	return joint.Profile{
		Tenon:       tenon,
		ShoulderCut: geom.CutRecipe{Base: full, Subtract: []geom.Solid{tenon}},
	}, nil
}

// Pegs returns none; the dovetail taper itself provides the withdrawal
// resistance.
func (Dovetail) Pegs(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) ([]joint.Peg, error) {
	return nil, nil
}

func (d Dovetail) Validate(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) []joint.Finding {
	var out []joint.Finding
	tailH := params.Float("tail_height")
	narrowW := params.Float("tail_width_narrow")
	slotD := params.Float("slot_depth")

	if tailH > secondary.Height*0.7 {
		out = append(out, joint.Finding{
			Severity: joint.SeverityWarning,
			Code:     "DOVETAIL_TOO_TALL",
			Message: fmt.Sprintf("dovetail height (%.1fmm) exceeds 70%% of secondary member height (%.1fmm)",
				tailH, secondary.Height),
		})
	}
	if narrowW > secondary.Width*0.8 {
		out = append(out, joint.Finding{
			Severity: joint.SeverityWarning,
			Code:     "DOVETAIL_TOO_WIDE",
			Message: fmt.Sprintf("dovetail narrow width (%.1fmm) exceeds 80%% of secondary member width (%.1fmm)",
				narrowW, secondary.Width),
		})
	}
	if slotD > primary.Width*0.6 {
		out = append(out, joint.Finding{
			Severity: joint.SeverityWarning,
			Code:     "SLOT_TOO_DEEP",
			Message: fmt.Sprintf("slot depth (%.1fmm) exceeds 60%% of primary member width (%.1fmm), may weaken the primary",
				slotD, primary.Width),
		})
	}
	return append(out, angleFinding(d.Metadata(), cs.AngleDegrees)...)
}

func (Dovetail) SignatureFragment(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) joint.Fragment {
	return joint.Fragment{
		"joint_type":        DovetailID,
		"tail_width_narrow": params.Float("tail_width_narrow"),
		"tail_width_wide":   params.Float("tail_width_wide"),
		"tail_height":       params.Float("tail_height"),
		"slot_depth":        params.Float("slot_depth"),
		"dovetail_angle":    params.Float("dovetail_angle"),
		"channel_mode":      params.Enum("channel_mode"),
		"angle":             cs.AngleDegrees,
	}
}

func (Dovetail) StructuralProperties(params *joint.ParameterSet, primary, secondary member.Datum, lookup joint.CapacityLookup) (joint.StructuralProperties, error) {
	return lookupCapacities(lookup, DovetailID, primary, secondary, pegConfig(0, 0), true)
}
