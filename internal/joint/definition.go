package joint

import (
	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/member"
)

// Severity grades a validation finding.
type Severity string

const (
	// SeverityError marks a joint that cannot be fabricated as specified.
	SeverityError Severity = "error"

	// SeverityWarning marks a craft-practice concern; fabrication proceeds.
	SeverityWarning Severity = "warning"
)

// Finding is a single validation result attached to a joint evaluation.
type Finding struct {
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Common finding codes shared across families. Families define their own
// codes for family-specific rules.
const (
	CodeGeometryFailed  = "GEOMETRY_CONSTRUCTION_FAILED"
	CodeNoReferenceData = "NO_REFERENCE_DATA"
	CodeLookupFailed    = "REFERENCE_LOOKUP_FAILED"
)

// Peg is one cylindrical fastener: its axis placement, diameter, and the
// drawbore offset between the hole centers in the mortised and tenoned
// pieces.
type Peg struct {
	Origin         geom.Vec3 `json:"axis_origin"`
	Axis           geom.Vec3 `json:"axis_direction"`
	Diameter       float64   `json:"diameter"`
	Length         float64   `json:"length"`
	DrawboreOffset float64   `json:"drawbore_offset"`
}

// Profile is the shaping of the secondary (tenoned) member: the positive
// tenon body that remains, and the shoulder cut recipe the host kernel
// subtracts from the member stock to expose it.
type Profile struct {
	Tenon       geom.Solid     `json:"tenon"`
	ShoulderCut geom.CutRecipe `json:"shoulder_cut"`
}

// StructuralProperties are joint capacities resolved from reference
// tables, with the lateral-load flag a family declares directly.
type StructuralProperties struct {
	AllowableMoment         float64 `json:"allowable_moment"`
	AllowableShear          float64 `json:"allowable_shear"`
	RotationalStiffness     float64 `json:"rotational_stiffness"`
	AcceptsLateralPointLoad bool    `json:"accepts_lateral_point_load"`
}

// Capacities is the raw row a capacity lookup returns.
type Capacities struct {
	AllowableMoment     float64
	AllowableShear      float64
	RotationalStiffness float64
}

// CapacityLookup resolves joint capacities from reference data. The core
// passes a key built from the joint type, section, species, grade, and
// peg configuration; implementations report apperr.ErrNotFound when no
// row matches. A nil lookup means no reference data is available at all.
type CapacityLookup func(jointTypeID, sectionKey, species, grade, pegConfig string) (Capacities, error)

// Fragment is a family's normalized contribution to a member fabrication
// signature: quantized dimensions and discrete options only, no world
// coordinates.
type Fragment map[string]any

// Metadata describes a joint family for registry listing and
// compatibility ranking.
type Metadata struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description"`

	// Role constraints. Empty means any role (wildcard).
	PrimaryRoles   []member.Role `json:"primary_roles,omitempty"`
	SecondaryRoles []member.Role `json:"secondary_roles,omitempty"`

	// Angle range in degrees the family accepts, after folding to [0, 90].
	MinAngle float64 `json:"min_angle"`
	MaxAngle float64 `json:"max_angle"`

	// IntersectionTypes the family applies to.
	IntersectionTypes []intersect.Type `json:"intersection_types"`
}

// MatchesRoles reports whether the family accepts the given role pairing.
func (m Metadata) MatchesRoles(primary, secondary member.Role) bool {
	return roleMatch(m.PrimaryRoles, primary) && roleMatch(m.SecondaryRoles, secondary)
}

// MatchesAngle reports whether the folded joint angle is in range.
func (m Metadata) MatchesAngle(angle float64) bool {
	return angle >= m.MinAngle && angle <= m.MaxAngle
}

// MatchesIntersection reports whether the family applies to the given
// intersection type. An empty list means all types.
func (m Metadata) MatchesIntersection(t intersect.Type) bool {
	if len(m.IntersectionTypes) == 0 {
		return true
	}
	for _, it := range m.IntersectionTypes {
		if it == t {
			return true
		}
	}
	return false
}

// RoleSpecificity counts how many of the two role slots are constrained.
// Exact-role matches outrank wildcards in compatibility ranking.
func (m Metadata) RoleSpecificity() int {
	n := 0
	if len(m.PrimaryRoles) > 0 {
		n++
	}
	if len(m.SecondaryRoles) > 0 {
		n++
	}
	return n
}

// AngleSpan is the width of the accepted angle range. Narrower ranges
// outrank wider ones among equally role-specific families.
func (m Metadata) AngleSpan() float64 {
	return m.MaxAngle - m.MinAngle
}

func roleMatch(allowed []member.Role, r member.Role) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}

// Definition is the contract every joint family implements. All methods
// are pure functions of their inputs; Evaluate wraps them in a recovery
// boundary so a family bug degrades to a finding, never a crash.
type Definition interface {
	// Metadata identifies the family and its compatibility envelope.
	Metadata() Metadata

	// Parameters derives the family's parameter set from the two members
	// and the joint frame. Called again whenever member geometry changes.
	Parameters(primary, secondary member.Datum, cs intersect.JointCS) *ParameterSet

	// PrimaryTool builds the cutting solid subtracted from the primary
	// (housing) member, in world coordinates.
	PrimaryTool(params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (geom.Solid, error)

	// SecondaryProfile builds the tenon body and shoulder cut recipe for
	// the secondary (tenoned) member.
	SecondaryProfile(params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (Profile, error)

	// Pegs places the fasteners. An empty slice is a valid unpegged joint.
	Pegs(params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) ([]Peg, error)

	// Validate applies the family's craft rules and returns findings.
	Validate(params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) []Finding

	// SignatureFragment returns the family's normalized, quantization-ready
	// contribution to the fabrication signature.
	SignatureFragment(params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) Fragment

	// StructuralProperties resolves joint capacities through the lookup.
	StructuralProperties(params *ParameterSet, primary, secondary member.Datum, lookup CapacityLookup) (StructuralProperties, error)
}
