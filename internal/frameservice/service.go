// Package frameservice coordinates the geometry core for callers: it
// detects intersections, evaluates joints through the registry, and
// computes member fabrication signatures against the reference tables.
package frameservice

import (
	"context"
	"sort"

	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/member"
	"github.com/framewright/tenon/internal/reftable"
	"github.com/framewright/tenon/internal/signature"
)

// JointTypeInfo is a lightweight registry listing item.
type JointTypeInfo struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	MinAngle    float64 `json:"min_angle"`
	MaxAngle    float64 `json:"max_angle"`
}

// Service wires the registry, reference tables, and signature engine.
type Service struct {
	registry  *joint.Registry
	tables    reftable.Tables
	engine    *signature.Engine
	tolerance float64
}

// NewService creates a frame service. tables may be nil when no reference
// data is configured; capacity lookups then report missing data.
func NewService(registry *joint.Registry, tables reftable.Tables, engine *signature.Engine) *Service {
	if engine == nil {
		engine = signature.NewEngine()
	}
	return &Service{registry: registry, tables: tables, engine: engine}
}

// SetDefaultTolerance sets the detection tolerance used when a caller
// passes zero. Values <= 0 keep the built-in default.
func (s *Service) SetDefaultTolerance(mm float64) {
	s.tolerance = mm
}

// Detect classifies the intersection of two member datums. A None result
// is a normal negative, not an error.
func (s *Service) Detect(_ context.Context, a, b member.Datum, tolerance float64) intersect.Result {
	if tolerance <= 0 {
		tolerance = s.tolerance
	}
	return intersect.Detect(a, b, tolerance)
}

// Scan detects every pairwise intersection among the given members.
func (s *Service) Scan(_ context.Context, members []member.Datum, tolerance float64) []intersect.Result {
	if tolerance <= 0 {
		tolerance = s.tolerance
	}
	return intersect.DetectAll(members, tolerance)
}

// EvaluateJoint runs the named joint family against a detected
// intersection. Unknown joint types report a configuration error wrapping
// apperr.ErrUnknownJointType; everything downstream degrades to findings.
func (s *Service) EvaluateJoint(_ context.Context, jointType string, res intersect.Result, stored *joint.ParameterSet) (*joint.Evaluation, error) {
	def, err := s.registry.Lookup(jointType)
	if err != nil {
		return nil, err
	}
	return joint.Evaluate(def, stored, res.Primary, res.Secondary, res.CS, s.capacityLookup()), nil
}

// ProposeJointType returns the default joint family for an intersection
// type. The registry invariant guarantees a default exists for every
// detectable type once the built-ins are registered.
func (s *Service) ProposeJointType(t intersect.Type) (string, bool) {
	return s.registry.DefaultFor(t)
}

// MemberSignature computes the fabrication identity of a member and its
// owned joints.
func (s *Service) MemberSignature(_ context.Context, d member.Datum, joints []signature.Joint) signature.Signature {
	return s.engine.Compute(d, joints)
}

// JointTypes lists all registered families, sorted by id.
func (s *Service) JointTypes(_ context.Context) []JointTypeInfo {
	defs := s.registry.All()
	out := make([]JointTypeInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, typeInfo(def.Metadata()))
	}
	return out
}

// Compatible lists the families applicable to a role pairing and folded
// angle, ranked most-specific first.
func (s *Service) Compatible(_ context.Context, primary, secondary member.Role, angle float64) []JointTypeInfo {
	defs := s.registry.Compatible(primary, secondary, angle)
	out := make([]JointTypeInfo, 0, len(defs))
	for _, def := range defs {
		out = append(out, typeInfo(def.Metadata()))
	}
	return out
}

// Categories lists the distinct joint categories, sorted.
func (s *Service) Categories(_ context.Context) []string {
	seen := make(map[string]struct{})
	for _, def := range s.registry.All() {
		seen[def.Metadata().Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

func (s *Service) capacityLookup() joint.CapacityLookup {
	if s.tables == nil {
		return nil
	}
	return reftable.CapacityLookup(s.tables)
}

func typeInfo(m joint.Metadata) JointTypeInfo {
	return JointTypeInfo{
		ID:          m.ID,
		Name:        m.Name,
		Category:    m.Category,
		Description: m.Description,
		MinAngle:    m.MinAngle,
		MaxAngle:    m.MaxAngle,
	}
}
