// Package builtin provides the built-in joint families: through and
// blind mortise and tenon, half lap, dovetail, birdsmouth, and bladed
// scarf. Every family is a stateless value implementing joint.Definition.
package builtin

import (
	"fmt"

	"github.com/framewright/tenon/internal/apperr"
	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/member"
)

// Shared fabrication constants, inch-derived per timber framing practice.
const (
	// ClearancePerSide is the fit clearance per side (1/16 inch).
	ClearancePerSide = 1.6

	// ShoulderAllowance is the total section width reserved as shoulders
	// around a through-mortise opening.
	ShoulderAllowance = 50.0

	// Overshoot extends cutting tools past member faces so the host
	// kernel's booleans never leave a zero-thickness skin.
	Overshoot = 2.0
)

// RegisterAll registers every built-in family and the default family per
// intersection type. The registry invariant is that this set is always
// present before any geometry call.
func RegisterAll(reg *joint.Registry) error {
	defs := []joint.Definition{
		ThroughMortiseTenon{},
		BlindMortiseTenon{},
		HalfLap{},
		Dovetail{},
		Birdsmouth{},
		BladedScarf{},
	}
	for _, d := range defs {
		if err := reg.Register(d); err != nil {
			return err
		}
	}
	defaults := map[intersect.Type]string{
		intersect.EndpointToMidpoint: ThroughMortiseTenonID,
		intersect.MidpointToMidpoint: HalfLapID,
		intersect.EndpointToEndpoint: BladedScarfID,
	}
	for t, id := range defaults {
		if err := reg.SetDefault(t, id); err != nil {
			return err
		}
	}
	return nil
}

// jointEnd reports which end of the secondary member sits at the joint:
// the outward unit direction past that end, and the end point itself.
func jointEnd(secondary member.Datum, origin geom.Vec3) (outward geom.Vec3, end geom.Vec3, err error) {
	axis, err := secondary.Axis()
	if err != nil {
		return geom.Vec3{}, geom.Vec3{}, err
	}
	if origin.DistanceTo(secondary.Start) <= origin.DistanceTo(secondary.End) {
		return axis.Neg(), secondary.Start, nil
	}
	return axis, secondary.End, nil
}

// approachDirection returns the unit direction the secondary member
// slides into the primary along, projected into the primary cross-section
// plane. Entry faces sit at Origin - approach*halfExtent and pockets
// extrude along approach, so the opening lands on the face the secondary
// arrives at. Families with a directional insertion (entry face offsets,
// slide-in slots, peg axes) derive their orientation from this, never
// from a fixed convention.
func approachDirection(primary, secondary member.Datum, origin geom.Vec3) (geom.Vec3, error) {
	priAxis, err := primary.Axis()
	if err != nil {
		return geom.Vec3{}, err
	}
	outward, _, err := jointEnd(secondary, origin)
	if err != nil {
		return geom.Vec3{}, err
	}
	// outward continues past the secondary's joint end, which is the
	// direction its tenon travels into the primary. Strip the
	// along-primary component to stay in the cross-section plane.
	inPlane := outward.Sub(priAxis.Scale(outward.Dot(priAxis)))
	dir, err := inPlane.Unit()
	if err != nil {
		return geom.Vec3{}, fmt.Errorf("approach direction is parallel to primary axis: %w", err)
	}
	return dir, nil
}

// pegAxis is the drawbore peg axis: normalize(primaryAxis x approach).
func pegAxis(primary, secondary member.Datum, origin geom.Vec3) (geom.Vec3, error) {
	priAxis, err := primary.Axis()
	if err != nil {
		return geom.Vec3{}, err
	}
	approach, err := approachDirection(primary, secondary, origin)
	if err != nil {
		return geom.Vec3{}, err
	}
	return priAxis.Cross(approach).Unit()
}

// sectionBox builds the full cross-section of d at point, centred on the
// datum, extruded by depth along dir.
func sectionBox(d member.Datum, point, dir geom.Vec3, depth float64) (geom.Solid, error) {
	_, _, y, z := d.LocalCS()
	corner := point.
		Sub(y.Scale(d.Width / 2)).
		Sub(z.Scale(d.Height / 2))
	return geom.Box(corner, y.Scale(d.Width), z.Scale(d.Height), dir.Scale(depth))
}

// angleFinding returns the standard out-of-range error finding when the
// folded joint angle falls outside the family envelope.
func angleFinding(m joint.Metadata, angle float64) []joint.Finding {
	if m.MatchesAngle(angle) {
		return nil
	}
	return []joint.Finding{{
		Severity: joint.SeverityError,
		Code:     "ANGLE_OUT_OF_RANGE",
		Message: fmt.Sprintf("intersection angle %.1f deg is outside the valid range %.0f-%.0f deg",
			angle, m.MinAngle, m.MaxAngle),
	}}
}

// sectionKey formats a cross-section for reference-table lookups.
func sectionKey(d member.Datum) string {
	return fmt.Sprintf("%gx%g", d.Width, d.Height)
}

// pegConfig formats the peg layout for reference-table lookups.
func pegConfig(count int, diameter float64) string {
	if count <= 0 {
		return "none"
	}
	return fmt.Sprintf("%dx%g", count, diameter)
}

// lookupCapacities resolves joint capacities through the collaborator and
// maps them into family structural properties.
func lookupCapacities(lookup joint.CapacityLookup, id string, primary, secondary member.Datum, pegs string, lateral bool) (joint.StructuralProperties, error) {
	props := joint.StructuralProperties{AcceptsLateralPointLoad: lateral}
	if lookup == nil {
		return props, fmt.Errorf("joint %s: no capacity table configured: %w", id, apperr.ErrNotFound)
	}
	caps, err := lookup(id, sectionKey(secondary), secondary.Species, secondary.Grade, pegs)
	if err != nil {
		return props, err
	}
	props.AllowableMoment = caps.AllowableMoment
	props.AllowableShear = caps.AllowableShear
	props.RotationalStiffness = caps.RotationalStiffness
	return props, nil
}
