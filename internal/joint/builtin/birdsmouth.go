package builtin

import (
	"fmt"
	"math"

	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/member"
)

// BirdsmouthID identifies the birdsmouth family.
const BirdsmouthID = "birdsmouth"

// Birdsmouth seats a sloped rafter on a plate: a level seat cut and a
// plumb cut notched out of the rafter underside, optionally with a
// shallow housing in the plate top.
type Birdsmouth struct{}

func (Birdsmouth) Metadata() joint.Metadata {
	return joint.Metadata{
		ID:       BirdsmouthID,
		Name:     "Birdsmouth",
		Category: "Seat Cuts",
		Description: "A level seat and plumb cut notched from the rafter underside " +
			"so the rafter bears on the plate. Optional housing in the plate.",
		PrimaryRoles: []member.Role{
			member.RolePlate, member.RoleBeam, member.RoleRidge, member.RoleGirt,
		},
		SecondaryRoles: []member.Role{
			member.RoleRafter, member.RoleValley,
		},
		MinAngle: 10,
		MaxAngle: 90,
		IntersectionTypes: []intersect.Type{
			intersect.EndpointToMidpoint, intersect.MidpointToMidpoint,
		},
	}
}

func (Birdsmouth) Parameters(primary, secondary member.Datum, cs intersect.JointCS) *joint.ParameterSet {
	secH, secW := secondary.Height, secondary.Width

	seatDepth := secH / 4
	pitch := rafterPitch(secondary)
	seatLength := seatDepth * 2
	if t := math.Tan(pitch * math.Pi / 180); t > 0.05 {
		seatLength = seatDepth / t
	}

	return joint.NewParameterSet(
		joint.LengthParam("seat_depth", seatDepth).
			WithRange(secH*0.1, secH*0.5).WithGroup("Seat").
			WithDescription("Vertical depth of the plumb cut"),
		joint.LengthParam("seat_length", seatLength).
			WithRange(20, secH*2).WithGroup("Seat").
			WithDescription("Horizontal length of the level cut"),
		joint.LengthParam("housing_depth", 0).
			WithRange(0, primary.Height*0.25).WithGroup("Housing").
			WithDescription("Depth of the housing in the plate top (0 = none)"),
		joint.LengthParam("housing_clearance", ClearancePerSide).
			WithRange(0, 3).WithGroup("Housing").
			WithDescription("Clearance per side in the housing"),
		joint.IntParam("peg_count", 1).
			WithRange(0, 1).WithGroup("Pegs").
			WithDescription("Vertical peg through the seat into the plate"),
		joint.LengthParam("peg_diameter", 19.05).
			WithRange(12, 32).WithGroup("Pegs").
			WithDescription("Peg diameter"),
		joint.LengthParam("seat_width", secW+2*ClearancePerSide).
			WithMin(secW*0.5).WithGroup("Housing").
			WithDescription("Housing width across the plate"),
	)
}

// PrimaryTool builds the optional plate housing: a shallow pocket in the
// plate's top face sized to the rafter width. Depth zero means no cut and
// an empty solid is returned.
func (Birdsmouth) PrimaryTool(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (geom.Solid, error) {
	depth := params.Float("housing_depth")
	if depth < geom.Epsilon {
		return geom.Solid{}, nil
	}
	width := params.Float("seat_width") + 2*params.Float("housing_clearance")
	length := params.Float("seat_length") + 2*params.Float("housing_clearance")

	_, x, y, z := primary.LocalCS()
	top := cs.Origin.Add(z.Scale(topOffset(primary)))
	corner := top.
		Sub(x.Scale(length / 2)).
		Sub(y.Scale(width / 2)).
		Sub(z.Scale(depth))
	return geom.Box(corner, x.Scale(length), y.Scale(width), z.Scale(depth+Overshoot))
}

// SecondaryProfile builds the birdsmouth notch: a triangular wedge with a
// level cut along the horizontal run and a plumb cut along world up,
// extruded across the rafter width. The remaining rafter tail past the
// notch is reported as the bearing body.
func (Birdsmouth) SecondaryProfile(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (joint.Profile, error) {
	depth := params.Float("seat_depth")
	length := params.Float("seat_length")

	uphill, err := uphillRun(secondary)
	if err != nil {
		return joint.Profile{}, fmt.Errorf("birdsmouth run: %w", err)
	}
	up := geom.Vec3{Z: 1}
	_, _, y, _ := secondary.LocalCS()

	// Inner corner where level and plumb cuts meet, at the datum crossing.
	inner := cs.Origin
	tri := []geom.Vec3{
		inner,
		inner.Sub(uphill.Scale(length)),
		inner.Sub(up.Scale(depth)),
	}
	span := secondary.Width + 2*Overshoot
	base := y.Scale(-span / 2)
	wedge, err := geom.Prism([]geom.Vec3{
		tri[0].Add(base), tri[1].Add(base), tri[2].Add(base),
	}, y.Scale(span))
	if err != nil {
		return joint.Profile{}, fmt.Errorf("birdsmouth wedge: %w", err)
	}

	// Bearing body: the seat footprint that lands on the plate.
	seatCorner := inner.
		Sub(uphill.Scale(length)).
		Sub(y.Scale(secondary.Width / 2))
	seat, err := geom.Box(seatCorner,
		uphill.Scale(length),
		y.Scale(secondary.Width),
		up.Scale(depth),
	)
	if err != nil {
		return joint.Profile{}, fmt.Errorf("birdsmouth seat: %w", err)
	}

	return joint.Profile{
		Tenon:       seat,
		ShoulderCut: geom.CutRecipe{Base: wedge},
	}, nil
}

// Pegs places a single vertical peg down through the seat into the plate.
func (Birdsmouth) Pegs(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) ([]joint.Peg, error) {
	if params.Int("peg_count") <= 0 {
		return nil, nil
	}
	return []joint.Peg{{
		Origin:   cs.Origin,
		Axis:     geom.Vec3{Z: -1},
		Diameter: params.Float("peg_diameter"),
		Length:   params.Float("seat_depth") + primary.Height,
	}}, nil
}

func (d Birdsmouth) Validate(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) []joint.Finding {
	var out []joint.Finding
	depth := params.Float("seat_depth")

	if depth > secondary.Height/3 {
		out = append(out, joint.Finding{
			Severity: joint.SeverityWarning,
			Code:     "SEAT_TOO_DEEP",
			Message: fmt.Sprintf("seat depth (%.1fmm) exceeds one third of rafter height (%.1fmm)",
				depth, secondary.Height),
		})
	}
	if rafterPitch(secondary) < 5 {
		out = append(out, joint.Finding{
			Severity: joint.SeverityError,
			Code:     "RAFTER_NOT_SLOPED",
			Message:  "rafter is nearly level; a birdsmouth needs a sloped member",
		})
	}
	return append(out, angleFinding(d.Metadata(), cs.AngleDegrees)...)
}

func (Birdsmouth) SignatureFragment(params *joint.ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) joint.Fragment {
	return joint.Fragment{
		"joint_type":    BirdsmouthID,
		"seat_depth":    params.Float("seat_depth"),
		"seat_length":   params.Float("seat_length"),
		"housing_depth": params.Float("housing_depth"),
		"peg_count":     params.Int("peg_count"),
		"angle":         cs.AngleDegrees,
	}
}

func (Birdsmouth) StructuralProperties(params *joint.ParameterSet, primary, secondary member.Datum, lookup joint.CapacityLookup) (joint.StructuralProperties, error) {
	pegs := pegConfig(params.Int("peg_count"), params.Float("peg_diameter"))
	return lookupCapacities(lookup, BirdsmouthID, primary, secondary, pegs, true)
}

// rafterPitch is the slope of the member against the horizontal plane,
// in degrees.
func rafterPitch(d member.Datum) float64 {
	axis, err := d.Axis()
	if err != nil {
		return 0
	}
	rise := math.Abs(axis.Dot(geom.Vec3{Z: 1}))
	return math.Asin(math.Min(rise, 1)) * 180 / math.Pi
}

// uphillRun is the unit horizontal direction the member climbs along.
func uphillRun(d member.Datum) (geom.Vec3, error) {
	axis, err := d.Axis()
	if err != nil {
		return geom.Vec3{}, err
	}
	up := geom.Vec3{Z: 1}
	if axis.Dot(up) < 0 {
		axis = axis.Neg()
	}
	run := axis.Sub(up.Scale(axis.Dot(up)))
	return run.Unit()
}
