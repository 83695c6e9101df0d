package joint

import (
	"errors"
	"testing"

	"github.com/framewright/tenon/internal/apperr"
	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/member"
)

// fakeDef is a configurable test family. Zero-value behavior is benign;
// individual hooks inject failures.
type fakeDef struct {
	meta Metadata

	parameters func(primary, secondary member.Datum, cs intersect.JointCS) *ParameterSet
	primary    func() (geom.Solid, error)
	structural func(lookup CapacityLookup) (StructuralProperties, error)
}

func (f fakeDef) Metadata() Metadata { return f.meta }

func (f fakeDef) Parameters(primary, secondary member.Datum, cs intersect.JointCS) *ParameterSet {
	if f.parameters != nil {
		return f.parameters(primary, secondary, cs)
	}
	return NewParameterSet(LengthParam("depth", 50).WithRange(10, 100))
}

func (f fakeDef) PrimaryTool(params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (geom.Solid, error) {
	if f.primary != nil {
		return f.primary()
	}
	return geom.Box(cs.Origin, geom.Vec3{X: 10}, geom.Vec3{Y: 10}, geom.Vec3{Z: 10})
}

func (f fakeDef) SecondaryProfile(params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) (Profile, error) {
	s, err := geom.Box(cs.Origin, geom.Vec3{X: 10}, geom.Vec3{Y: 10}, geom.Vec3{Z: 10})
	return Profile{Tenon: s, ShoulderCut: geom.CutRecipe{Base: s}}, err
}

func (f fakeDef) Pegs(params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) ([]Peg, error) {
	return nil, nil
}

func (f fakeDef) Validate(params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) []Finding {
	return nil
}

func (f fakeDef) SignatureFragment(params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) Fragment {
	return Fragment{"joint_type": f.meta.ID, "depth": params.Float("depth")}
}

func (f fakeDef) StructuralProperties(params *ParameterSet, primary, secondary member.Datum, lookup CapacityLookup) (StructuralProperties, error) {
	if f.structural != nil {
		return f.structural(lookup)
	}
	return StructuralProperties{}, nil
}

func TestRegistryRegister(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(fakeDef{meta: Metadata{ID: "a", MaxAngle: 90}}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := reg.Register(fakeDef{meta: Metadata{}}); err == nil {
		t.Error("expected error for empty id")
	}
	err := reg.Register(fakeDef{meta: Metadata{ID: "a"}})
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("duplicate register error = %v, want ErrAlreadyExists", err)
	}
}

func TestRegistryLookupUnknown(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Lookup("no_such")
	if !errors.Is(err, apperr.ErrUnknownJointType) {
		t.Fatalf("error = %v, want ErrUnknownJointType", err)
	}
}

func TestRegistryDefaults(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(fakeDef{meta: Metadata{ID: "a", MaxAngle: 90}})

	if err := reg.SetDefault(intersect.EndpointToMidpoint, "no_such"); err == nil {
		t.Error("expected error for unregistered default")
	}
	if err := reg.SetDefault(intersect.EndpointToMidpoint, "a"); err != nil {
		t.Fatalf("SetDefault: %v", err)
	}
	id, ok := reg.DefaultFor(intersect.EndpointToMidpoint)
	if !ok || id != "a" {
		t.Errorf("DefaultFor = %q, %v", id, ok)
	}
	if _, ok := reg.DefaultFor(intersect.MidpointToMidpoint); ok {
		t.Error("unset default must report ok=false")
	}
}

func TestRegistryIDsSorted(t *testing.T) {
	reg := NewRegistry()
	for _, id := range []string{"charlie", "alpha", "bravo"} {
		_ = reg.Register(fakeDef{meta: Metadata{ID: id, MaxAngle: 90}})
	}
	ids := reg.IDs()
	if len(ids) != 3 || ids[0] != "alpha" || ids[2] != "charlie" {
		t.Errorf("IDs = %v, want sorted", ids)
	}
}

func TestRegistryCompatibleRanking(t *testing.T) {
	wildcard := fakeDef{meta: Metadata{ID: "wildcard", MinAngle: 0, MaxAngle: 90}}
	roled := fakeDef{meta: Metadata{
		ID:             "roled",
		PrimaryRoles:   []member.Role{member.RolePost},
		SecondaryRoles: []member.Role{member.RoleBeam},
		MinAngle:       45, MaxAngle: 90,
	}}
	narrow := fakeDef{meta: Metadata{
		ID:             "narrow",
		PrimaryRoles:   []member.Role{member.RolePost},
		SecondaryRoles: []member.Role{member.RoleBeam},
		MinAngle:       75, MaxAngle: 90,
	}}

	reg := NewRegistry()
	for _, d := range []Definition{wildcard, roled, narrow} {
		if err := reg.Register(d); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}

	got := reg.Compatible(member.RolePost, member.RoleBeam, 80)
	if len(got) != 3 {
		t.Fatalf("matches = %d, want 3", len(got))
	}
	wantOrder := []string{"narrow", "roled", "wildcard"}
	for i, d := range got {
		if d.Metadata().ID != wantOrder[i] {
			t.Errorf("rank %d = %s, want %s", i, d.Metadata().ID, wantOrder[i])
		}
	}

	// A pairing only the wildcard accepts.
	got = reg.Compatible(member.RoleRafter, member.RoleBrace, 80)
	if len(got) != 1 || got[0].Metadata().ID != "wildcard" {
		t.Errorf("rafter/brace matches = %d", len(got))
	}

	// Angle outside the roled families' envelopes.
	got = reg.Compatible(member.RolePost, member.RoleBeam, 30)
	if len(got) != 1 || got[0].Metadata().ID != "wildcard" {
		t.Errorf("30-degree matches = %d, want only wildcard", len(got))
	}
}

func TestMetadataMatchesIntersection(t *testing.T) {
	m := Metadata{IntersectionTypes: []intersect.Type{intersect.EndpointToMidpoint}}
	if !m.MatchesIntersection(intersect.EndpointToMidpoint) {
		t.Error("listed type must match")
	}
	if m.MatchesIntersection(intersect.MidpointToMidpoint) {
		t.Error("unlisted type must not match")
	}
	if !(Metadata{}).MatchesIntersection(intersect.EndpointToEndpoint) {
		t.Error("empty list means all types")
	}
}
