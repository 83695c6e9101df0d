// Package signature computes fabrication identity signatures: two members
// hash identically exactly when the same cut list produces both. The
// signature is the grouping key for "cut N of these" on the shop floor.
package signature

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/framewright/tenon/internal/checksum"
	"github.com/framewright/tenon/internal/joint"
	"github.com/framewright/tenon/internal/member"
)

// Default quantization steps.
const (
	// DefaultLengthQuantum absorbs floating-point noise in lengths
	// (1/16 inch in mm).
	DefaultLengthQuantum = 1.5875

	// DefaultAngleQuantum is the angular rounding step in degrees.
	DefaultAngleQuantum = 0.1
)

// Joint is one joint owned by a member, positioned along it.
type Joint struct {
	// TypeID is the joint family id.
	TypeID string `json:"type_id"`

	// PositionFraction locates the joint along the member's finished
	// length, in [0, 1].
	PositionFraction float64 `json:"position_fraction"`

	// Face names which member face the joint is cut on. Handedness is
	// fabrication-relevant: mirrored members must not collide.
	Face string `json:"face"`

	// Fragment is the family's normalized contribution.
	Fragment joint.Fragment `json:"fragment"`
}

// Signature is the computed fabrication identity.
type Signature struct {
	// Hash is the hex digest of the canonical form.
	Hash string `json:"hash"`

	// Canonical is the deterministic serialization the hash covers,
	// kept for diffing two members that unexpectedly differ.
	Canonical string `json:"canonical"`
}

// Engine quantizes, canonicalizes, and hashes member fabrication data.
type Engine struct {
	// LengthQuantum and AngleQuantum are the rounding steps.
	LengthQuantum float64
	AngleQuantum  float64

	// SymmetricRoles marks roles whose end-cut angle pair is canonicalized
	// by sorting, because either end of the part can face either way.
	// This is an explicit flag, never inferred from geometry.
	SymmetricRoles map[member.Role]bool
}

// NewEngine returns an engine with the default quanta and braces marked
// symmetric.
func NewEngine() *Engine {
	return &Engine{
		LengthQuantum:  DefaultLengthQuantum,
		AngleQuantum:   DefaultAngleQuantum,
		SymmetricRoles: map[member.Role]bool{member.RoleBrace: true},
	}
}

type jointPayload struct {
	Type     string         `json:"type"`
	Position float64        `json:"position"`
	Face     string         `json:"face"`
	Fragment map[string]any `json:"fragment"`
}

type memberPayload struct {
	Species       string         `json:"species"`
	Grade         string         `json:"grade"`
	Width         float64        `json:"width"`
	Height        float64        `json:"height"`
	Length        float64        `json:"length"`
	ReferenceFace string         `json:"reference_face"`
	EndCutAngles  [2]float64     `json:"end_cut_angles"`
	Joints        []jointPayload `json:"joints"`
}

// Compute builds the fabrication signature of a member and its owned
// joints. Joint order in the input does not matter: fragments are sorted
// by quantized position then type id then face before serialization, so
// two members assembled in different creation order still compare equal.
// World placement never enters the payload; only intrinsic dimensions do.
func (e *Engine) Compute(d member.Datum, joints []Joint) Signature {
	length := e.quantizeLength(d.FinishedLength())

	cuts := [2]float64{
		e.quantizeAngle(d.StartCutAngle),
		e.quantizeAngle(d.EndCutAngle),
	}
	if e.SymmetricRoles[d.Role] && cuts[1] < cuts[0] {
		cuts[0], cuts[1] = cuts[1], cuts[0]
	}

	payload := memberPayload{
		Species:       d.Species,
		Grade:         d.Grade,
		Width:         e.quantizeLength(d.Width),
		Height:        e.quantizeLength(d.Height),
		Length:        length,
		ReferenceFace: string(d.ReferenceFace),
		EndCutAngles:  cuts,
		Joints:        make([]jointPayload, 0, len(joints)),
	}

	for _, j := range joints {
		payload.Joints = append(payload.Joints, jointPayload{
			Type:     j.TypeID,
			Position: e.quantizeLength(j.PositionFraction * d.FinishedLength()),
			Face:     j.Face,
			Fragment: e.normalizeFragment(j.Fragment),
		})
	}
	sort.SliceStable(payload.Joints, func(i, k int) bool {
		a, b := payload.Joints[i], payload.Joints[k]
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Face < b.Face
	})

	// encoding/json emits struct fields in declaration order and map keys
	// sorted, so the serialization is deterministic.
	data, err := json.Marshal(payload)
	if err != nil {
		// Payload is plain data; marshalling cannot fail in practice.
		data = []byte(err.Error())
	}

	return Signature{
		Hash:      checksum.Sum(data),
		Canonical: string(data),
	}
}

// normalizeFragment quantizes every numeric value in a fragment. Keys
// named "angle" or ending in "_angle" use the angular quantum, all other
// numbers the length quantum. Non-numeric values pass through.
func (e *Engine) normalizeFragment(frag joint.Fragment) map[string]any {
	out := make(map[string]any, len(frag))
	for k, v := range frag {
		switch x := v.(type) {
		case float64:
			if k == "angle" || strings.HasSuffix(k, "_angle") {
				out[k] = e.quantizeAngle(x)
			} else {
				out[k] = e.quantizeLength(x)
			}
		case float32:
			out[k] = e.quantizeLength(float64(x))
		default:
			out[k] = v
		}
	}
	return out
}

func (e *Engine) quantizeLength(v float64) float64 {
	return quantize(v, e.LengthQuantum)
}

func (e *Engine) quantizeAngle(v float64) float64 {
	return quantize(v, e.AngleQuantum)
}

// quantize snaps v to the nearest multiple of step, then trims the result
// to four decimals so float noise cannot leak into the serialization.
func quantize(v, step float64) float64 {
	if step <= 0 {
		return v
	}
	snapped := math.Round(v/step) * step
	return math.Round(snapped*10000) / 10000
}
