package builtin

import (
	"math"
	"testing"

	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/member"
)

// plateRafter is the canonical seat case: a 100x200 rafter climbing at
// 30 degrees over the middle of a 150x150 plate.
func plateRafter(t *testing.T) intersect.Result {
	t.Helper()
	plate := member.Datum{
		Start: geom.Vec3{X: -1500, Z: 2400}, End: geom.Vec3{X: 1500, Z: 2400},
		Width: 150, Height: 150,
		ReferenceFace: member.FaceBottom, Role: member.RolePlate,
	}
	rafter := member.Datum{
		Start: geom.Vec3{Z: 2400}, End: geom.Vec3{Y: 1500 * math.Sqrt(3), Z: 3900},
		Width: 100, Height: 200,
		ReferenceFace: member.FaceBottom, Role: member.RoleRafter,
	}
	res := intersect.Detect(plate, rafter, 12.7)
	if res.Type != intersect.EndpointToMidpoint {
		t.Fatalf("detect = %s, want EndpointToMidpoint", res.Type)
	}
	if res.Primary.Role != member.RolePlate {
		t.Fatalf("primary = %s, want Plate", res.Primary.Role)
	}
	return res
}

func TestBirdsmouthDerivedParameters(t *testing.T) {
	res := plateRafter(t)

	ps := Birdsmouth{}.Parameters(res.Primary, res.Secondary, res.CS)
	if got := ps.Float("seat_depth"); got != 50 {
		t.Errorf("seat_depth = %g, want quarter rafter height", got)
	}
	// Level run of the plumb cut at 30 degrees of pitch.
	want := 50 / math.Tan(30*math.Pi/180)
	if got := ps.Float("seat_length"); math.Abs(got-want) > 1e-6 {
		t.Errorf("seat_length = %g, want %g", got, want)
	}
	if got := ps.Float("housing_depth"); got != 0 {
		t.Errorf("housing_depth = %g, want 0 by default", got)
	}
}

func TestBirdsmouthEvaluate(t *testing.T) {
	reg := testRegistry(t)
	res := plateRafter(t)
	def, err := reg.Lookup(BirdsmouthID)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}

	ev := joint.Evaluate(def, nil, res.Primary, res.Secondary, res.CS, nil)
	if !ev.FabricationReady() {
		t.Fatalf("not fabrication ready: %v", ev.Findings)
	}

	// No housing by default: nothing is cut from the plate.
	if !ev.Primary.IsEmpty() {
		t.Error("expected empty plate cut with zero housing depth")
	}

	// The notch is a triangular wedge across the rafter width.
	wedge := ev.Secondary.ShoulderCut.Base
	if len(wedge.Vertices) != 6 {
		t.Fatalf("wedge vertices = %d, want 6", len(wedge.Vertices))
	}
	for _, v := range wedge.Vertices {
		if v.Z < 2350-1e-9 || v.Z > 2400+1e-9 {
			t.Errorf("wedge vertex z = %g, want within seat depth below the datum", v.Z)
		}
		if v.Y > 1e-9 {
			t.Errorf("wedge vertex y = %g, the level cut runs downhill of the crossing", v.Y)
		}
	}
	if ev.Secondary.Tenon.IsEmpty() {
		t.Error("bearing seat missing")
	}

	// One vertical peg down into the plate.
	if len(ev.Pegs) != 1 {
		t.Fatalf("pegs = %d, want 1", len(ev.Pegs))
	}
	peg := ev.Pegs[0]
	if peg.Axis.DistanceTo(geom.Vec3{Z: -1}) > 1e-9 {
		t.Errorf("peg axis = %+v, want straight down", peg.Axis)
	}
	if got := peg.Length; got != 50+150 {
		t.Errorf("peg length = %g, want seat depth plus plate height", got)
	}
}

func TestBirdsmouthHousing(t *testing.T) {
	res := plateRafter(t)
	d := Birdsmouth{}

	ps := d.Parameters(res.Primary, res.Secondary, res.CS)
	if err := ps.SetOverride("housing_depth", 20.0); err != nil {
		t.Fatalf("SetOverride: %v", err)
	}

	housing, err := d.PrimaryTool(ps, res.Primary, res.Secondary, res.CS)
	if err != nil {
		t.Fatalf("PrimaryTool: %v", err)
	}
	if housing.IsEmpty() {
		t.Fatal("expected a housing pocket")
	}
	// The pocket sits in the plate's top face: 20mm down from the top at
	// z = 2550, overshooting upward for the boolean.
	for _, v := range housing.Vertices {
		if v.Z < 2530-1e-9 || v.Z > 2550+Overshoot+1e-9 {
			t.Errorf("housing vertex z = %g, want within the top face pocket", v.Z)
		}
	}
}

func TestBirdsmouthLevelRafterRejected(t *testing.T) {
	reg := testRegistry(t)
	plate := member.Datum{
		Start: geom.Vec3{X: -1500, Z: 2400}, End: geom.Vec3{X: 1500, Z: 2400},
		Width: 150, Height: 150,
		ReferenceFace: member.FaceBottom, Role: member.RolePlate,
	}
	level := member.Datum{
		Start: geom.Vec3{Z: 2400}, End: geom.Vec3{Y: 3000, Z: 2400},
		Width: 100, Height: 200,
		ReferenceFace: member.FaceBottom, Role: member.RoleRafter,
	}
	res := intersect.Detect(plate, level, 12.7)

	def, _ := reg.Lookup(BirdsmouthID)
	ev := joint.Evaluate(def, nil, res.Primary, res.Secondary, res.CS, nil)
	if ev.FabricationReady() {
		t.Fatal("a level rafter must block fabrication")
	}
	var found bool
	for _, f := range ev.Findings {
		if f.Code == "RAFTER_NOT_SLOPED" && f.Severity == joint.SeverityError {
			found = true
		}
	}
	if !found {
		t.Errorf("findings = %v, want RAFTER_NOT_SLOPED", ev.Findings)
	}
}
