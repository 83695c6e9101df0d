package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/framewright/tenon/internal/frameservice"
	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/member"
	"github.com/framewright/tenon/internal/signature"
)

// MemberDTO is the wire form of a member datum.
type MemberDTO struct {
	Start         geom.Vec3 `json:"start"`
	End           geom.Vec3 `json:"end"`
	Width         float64   `json:"width"`
	Height        float64   `json:"height"`
	ReferenceFace string    `json:"reference_face,omitempty"`
	Role          string    `json:"role"`
	Species       string    `json:"species,omitempty"`
	Grade         string    `json:"grade,omitempty"`
	StartCutAngle float64   `json:"start_cut_angle,omitempty"`
	EndCutAngle   float64   `json:"end_cut_angle,omitempty"`
}

// Validate applies wire-level sanity checks.
func (m MemberDTO) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Width, validation.Required, validation.Min(1.0)),
		validation.Field(&m.Height, validation.Required, validation.Min(1.0)),
		validation.Field(&m.Role, validation.Required),
		validation.Field(&m.ReferenceFace, validation.In("", "Top", "Bottom", "Left", "Right")),
	)
}

// Datum converts the DTO into the domain type, defaulting the reference
// face to Bottom.
func (m MemberDTO) Datum() member.Datum {
	face := member.ReferenceFace(m.ReferenceFace)
	if face == "" {
		face = member.FaceBottom
	}
	return member.Datum{
		Start:         m.Start,
		End:           m.End,
		Width:         m.Width,
		Height:        m.Height,
		ReferenceFace: face,
		Role:          member.Role(m.Role),
		Species:       m.Species,
		Grade:         m.Grade,
		StartCutAngle: m.StartCutAngle,
		EndCutAngle:   m.EndCutAngle,
	}
}

// JointDTO is one member-owned joint in a signature request.
type JointDTO struct {
	TypeID           string         `json:"type_id"`
	PositionFraction float64        `json:"position_fraction"`
	Face             string         `json:"face"`
	Fragment         map[string]any `json:"fragment"`
}

// Validate applies wire-level sanity checks.
func (j JointDTO) Validate() error {
	return validation.ValidateStruct(&j,
		validation.Field(&j.TypeID, validation.Required),
		validation.Field(&j.PositionFraction, validation.Min(0.0), validation.Max(1.0)),
	)
}

// Domain converts the DTO into the signature-engine joint type.
func (j JointDTO) Domain() signature.Joint {
	return signature.Joint{
		TypeID:           j.TypeID,
		PositionFraction: j.PositionFraction,
		Face:             j.Face,
		Fragment:         joint.Fragment(j.Fragment),
	}
}

// DetectRequest is the request body for intersection detection.
type DetectRequest struct {
	A           MemberDTO `json:"a"`
	B           MemberDTO `json:"b"`
	ToleranceMM float64   `json:"tolerance_mm,omitempty"`
}

// DetectResponse carries the classification and the registry's proposed
// default joint family for it.
type DetectResponse struct {
	Result            intersect.Result `json:"result"`
	ProposedJointType string           `json:"proposed_joint_type,omitempty"`
}

// ScanRequest is the request body for pairwise intersection scanning.
type ScanRequest struct {
	Members     []MemberDTO `json:"members"`
	ToleranceMM float64     `json:"tolerance_mm,omitempty"`
}

// ScanResponse wraps all detected intersections.
type ScanResponse struct {
	Results []intersect.Result `json:"results"`
	Total   int                `json:"total"`
}

// EvaluateRequest is the request body for joint evaluation. Parameters,
// when present, restore a previously persisted parameter set.
type EvaluateRequest struct {
	JointType   string              `json:"joint_type"`
	A           MemberDTO           `json:"a"`
	B           MemberDTO           `json:"b"`
	ToleranceMM float64             `json:"tolerance_mm,omitempty"`
	Parameters  *joint.ParameterSet `json:"parameters,omitempty"`
}

// EvaluateResponse wraps a joint evaluation. Evaluation is nil when the
// members do not intersect.
type EvaluateResponse struct {
	Intersection     intersect.Result  `json:"intersection"`
	Evaluation       *joint.Evaluation `json:"evaluation,omitempty"`
	FabricationReady bool              `json:"fabrication_ready"`
}

// SignatureRequest is the request body for a member signature.
type SignatureRequest struct {
	Member MemberDTO  `json:"member"`
	Joints []JointDTO `json:"joints"`
}

// JointTypesResponse wraps the registry listing.
type JointTypesResponse struct {
	JointTypes []frameservice.JointTypeInfo `json:"joint_types"`
	Categories []string                     `json:"categories"`
}

// CompatibleResponse wraps a ranked compatibility listing.
type CompatibleResponse struct {
	JointTypes []frameservice.JointTypeInfo `json:"joint_types"`
}
