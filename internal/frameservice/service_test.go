package frameservice

import (
	"context"
	"sort"
	"testing"

	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/joint/builtin"
	"github.com/framewright/tenon/internal/member"
)

func testService(t *testing.T) *Service {
	t.Helper()
	reg := joint.NewRegistry()
	if err := builtin.RegisterAll(reg); err != nil {
		t.Fatal(err)
	}
	return NewService(reg, nil, nil)
}

func post() member.Datum {
	return member.Datum{
		End:   geom.Vec3{Z: 3000},
		Width: 200, Height: 200,
		ReferenceFace: member.FaceBottom, Role: member.RolePost,
	}
}

func beamNear(gap float64) member.Datum {
	return member.Datum{
		Start: geom.Vec3{X: gap, Z: 1500},
		End:   geom.Vec3{X: gap + 2000, Z: 1500},
		Width: 150, Height: 200,
		ReferenceFace: member.FaceBottom, Role: member.RoleBeam,
	}
}

func TestDetectDefaultTolerance(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	// A 20mm gap is outside the built-in 12.7mm tolerance.
	if res := svc.Detect(ctx, post(), beamNear(20), 0); res.Type != intersect.None {
		t.Errorf("type = %q, want None at default tolerance", res.Type)
	}

	svc.SetDefaultTolerance(25)
	if res := svc.Detect(ctx, post(), beamNear(20), 0); res.Type != intersect.EndpointToMidpoint {
		t.Errorf("type = %q, want EndpointToMidpoint with widened default", res.Type)
	}

	// An explicit tolerance always wins over the configured default.
	if res := svc.Detect(ctx, post(), beamNear(20), 5); res.Type != intersect.None {
		t.Errorf("type = %q, want None with explicit 5mm", res.Type)
	}
}

func TestProposeJointType(t *testing.T) {
	svc := testService(t)

	id, ok := svc.ProposeJointType(intersect.EndpointToMidpoint)
	if !ok || id != builtin.ThroughMortiseTenonID {
		t.Errorf("proposal = %q, %v", id, ok)
	}
	id, ok = svc.ProposeJointType(intersect.MidpointToMidpoint)
	if !ok || id != builtin.HalfLapID {
		t.Errorf("proposal = %q, %v", id, ok)
	}
}

func TestJointTypesAndCategories(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	types := svc.JointTypes(ctx)
	if len(types) != 6 {
		t.Fatalf("joint types = %d, want 6 built-ins", len(types))
	}

	cats := svc.Categories(ctx)
	if len(cats) == 0 {
		t.Fatal("no categories")
	}
	if !sort.StringsAreSorted(cats) {
		t.Errorf("categories not sorted: %v", cats)
	}
}
