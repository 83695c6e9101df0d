package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/framewright/tenon/internal/frameservice"
	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/joint/builtin"
)

// testEnv sets up a registry with the built-in families and a router.
// authToken="" means auth disabled; non-empty means token mode.
func testEnv(t *testing.T, authToken string) (*frameservice.Service, http.Handler) {
	t.Helper()
	reg := joint.NewRegistry()
	if err := builtin.RegisterAll(reg); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	svc := frameservice.NewService(reg, nil, nil)
	router := NewRouter(svc, authToken != "", authToken, nil)
	return svc, router
}

func postMember() MemberDTO {
	return MemberDTO{
		Start: geom.Vec3{}, End: geom.Vec3{Z: 3000},
		Width: 200, Height: 200, Role: "Post",
		Species: "douglas_fir", Grade: "no1",
	}
}

func beamMember() MemberDTO {
	return MemberDTO{
		Start: geom.Vec3{Z: 1500}, End: geom.Vec3{X: 2000, Z: 1500},
		Width: 150, Height: 200, Role: "Beam",
		Species: "douglas_fir", Grade: "no1",
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDetectEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/detect", DetectRequest{A: postMember(), B: beamMember()})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp DetectResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := string(resp.Result.Type); got != "EndpointToMidpoint" {
		t.Errorf("type = %q", got)
	}
	if resp.ProposedJointType != builtin.ThroughMortiseTenonID {
		t.Errorf("proposed = %q, want %q", resp.ProposedJointType, builtin.ThroughMortiseTenonID)
	}
}

func TestDetectValidation(t *testing.T) {
	_, router := testEnv(t, "")

	req := httptest.NewRequest(http.MethodPost, "/detect", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}

	bad := postMember()
	bad.Width = 0
	w2 := doJSON(t, router, http.MethodPost, "/detect", DetectRequest{A: bad, B: beamMember()})
	if w2.Code != http.StatusBadRequest {
		t.Errorf("zero width status = %d, want 400", w2.Code)
	}
}

func TestScanEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	b2 := beamMember()
	b2.Start = geom.Vec3{Z: 2500}
	b2.End = geom.Vec3{X: 2000, Z: 2500}
	w := doJSON(t, router, http.MethodPost, "/detect/scan", ScanRequest{
		Members: []MemberDTO{postMember(), beamMember(), b2},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp ScanResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 2 || len(resp.Results) != 2 {
		t.Errorf("total = %d, results = %d, want 2", resp.Total, len(resp.Results))
	}

	w2 := doJSON(t, router, http.MethodPost, "/detect/scan", ScanRequest{
		Members: []MemberDTO{postMember()},
	})
	if w2.Code != http.StatusBadRequest {
		t.Errorf("single member status = %d, want 400", w2.Code)
	}
}

func TestEvaluateEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/joints/evaluate", EvaluateRequest{
		JointType: builtin.ThroughMortiseTenonID,
		A:         postMember(),
		B:         beamMember(),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var resp EvaluateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Evaluation == nil {
		t.Fatal("evaluation missing")
	}
	if !resp.FabricationReady {
		t.Errorf("not fabrication ready: %+v", resp.Evaluation.Findings)
	}
	if resp.Evaluation.Params == nil {
		t.Error("derived parameters missing")
	}
}

func TestEvaluateUnknownType(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodPost, "/joints/evaluate", EvaluateRequest{
		JointType: "no_such_family",
		A:         postMember(),
		B:         beamMember(),
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestEvaluateNonIntersecting(t *testing.T) {
	_, router := testEnv(t, "")

	apart := beamMember()
	apart.Start = geom.Vec3{X: 5000, Z: 1500}
	apart.End = geom.Vec3{X: 7000, Z: 1500}
	w := doJSON(t, router, http.MethodPost, "/joints/evaluate", EvaluateRequest{
		JointType: builtin.ThroughMortiseTenonID,
		A:         postMember(),
		B:         apart,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for a negative result", w.Code)
	}
	var resp EvaluateResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(resp.Intersection.Type) != "None" {
		t.Errorf("type = %q, want None", resp.Intersection.Type)
	}
	if resp.Evaluation != nil {
		t.Error("no evaluation expected without an intersection")
	}
}

func TestMemberSignatureEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	j1 := JointDTO{TypeID: "through_mortise_tenon", PositionFraction: 0, Face: "Bottom",
		Fragment: map[string]any{"tenon_width": 96.8}}
	j2 := JointDTO{TypeID: "half_lap", PositionFraction: 0.5, Face: "Top",
		Fragment: map[string]any{"lap_depth_primary": 75.0}}

	w := doJSON(t, router, http.MethodPost, "/members/signature", SignatureRequest{
		Member: beamMember(), Joints: []JointDTO{j1, j2},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body)
	}
	var first struct {
		Hash string `json:"hash"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(first.Hash) != 64 {
		t.Errorf("hash = %q, want sha256 hex", first.Hash)
	}

	// Joint order in the request must not matter.
	w2 := doJSON(t, router, http.MethodPost, "/members/signature", SignatureRequest{
		Member: beamMember(), Joints: []JointDTO{j2, j1},
	})
	var second struct {
		Hash string `json:"hash"`
	}
	_ = json.Unmarshal(w2.Body.Bytes(), &second)
	if first.Hash != second.Hash {
		t.Error("joint order changed the signature")
	}

	// Position outside [0, 1] fails validation.
	bad := JointDTO{TypeID: "half_lap", PositionFraction: 1.5}
	w3 := doJSON(t, router, http.MethodPost, "/members/signature", SignatureRequest{
		Member: beamMember(), Joints: []JointDTO{bad},
	})
	if w3.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w3.Code)
	}
}

func TestJointTypesEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/joint-types", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp JointTypesResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.JointTypes) != 6 {
		t.Errorf("joint types = %d, want 6 built-ins", len(resp.JointTypes))
	}
	if len(resp.Categories) == 0 {
		t.Error("categories missing")
	}
}

func TestCompatibleEndpoint(t *testing.T) {
	_, router := testEnv(t, "")

	w := doJSON(t, router, http.MethodGet, "/joint-types/compatible?primary=Post&secondary=Beam&angle=90", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp CompatibleResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.JointTypes) == 0 {
		t.Fatal("no compatible families for post/beam at 90 degrees")
	}
	// Mortise and tenon families outrank the generic ones for post/beam.
	if got := resp.JointTypes[0].ID; got != builtin.ThroughMortiseTenonID && got != builtin.BlindMortiseTenonID {
		t.Errorf("top rank = %q, want a mortise and tenon family", got)
	}

	w2 := doJSON(t, router, http.MethodGet, "/joint-types/compatible?primary=Post&angle=90", nil)
	if w2.Code != http.StatusBadRequest {
		t.Errorf("missing secondary status = %d, want 400", w2.Code)
	}
	w3 := doJSON(t, router, http.MethodGet, "/joint-types/compatible?primary=Post&secondary=Beam&angle=steep", nil)
	if w3.Code != http.StatusBadRequest {
		t.Errorf("bad angle status = %d, want 400", w3.Code)
	}
}

func TestAuthToken(t *testing.T) {
	_, router := testEnv(t, "secret-token")

	w := doJSON(t, router, http.MethodGet, "/joint-types", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/joint-types", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/joint-types", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong token status = %d, want 401", rec.Code)
	}
}
