package joint

import (
	"errors"
	"fmt"

	"github.com/framewright/tenon/internal/apperr"
	"github.com/framewright/tenon/internal/geom"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/member"
)

// Evaluation is the complete outcome of evaluating one joint: the
// effective parameters, the geometry for both members, fasteners,
// findings, structural data, and the signature fragment.
type Evaluation struct {
	JointType  string               `json:"joint_type"`
	Params     *ParameterSet        `json:"parameters"`
	Primary    geom.Solid           `json:"primary_tool"`
	Secondary  Profile              `json:"secondary_profile"`
	Pegs       []Peg                `json:"pegs"`
	Findings   []Finding            `json:"findings"`
	Structural StructuralProperties `json:"structural"`
	Fragment   Fragment             `json:"signature_fragment"`
}

// FabricationReady reports whether no error-severity finding blocks the
// joint. Warnings do not block.
func (e *Evaluation) FabricationReady() bool {
	for _, f := range e.Findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Evaluate runs a joint definition against two members and their joint
// frame. stored carries previously persisted parameters; it is adopted
// when its parameter names match the freshly derived set (overrides kept,
// defaults refreshed) and discarded otherwise, which is what happens when
// the user switches joint type.
//
// Evaluate never panics and never fails outright: a family bug or
// degenerate geometry degrades to an error finding plus placeholder
// geometry, so the host always has something to show and a reason why.
func Evaluate(def Definition, stored *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS, lookup CapacityLookup) *Evaluation {
	ev := &Evaluation{JointType: def.Metadata().ID}

	fresh := safeParameters(def, primary, secondary, cs, &ev.Findings)
	if stored != nil && stored.SameNames(fresh) {
		stored.UpdateDefaults(fresh)
		ev.Params = stored
	} else {
		ev.Params = fresh
	}

	ev.Primary = safeSolid(func() (geom.Solid, error) {
		return def.PrimaryTool(ev.Params, primary, secondary, cs)
	}, "primary tool", cs.Origin, &ev.Findings)

	ev.Secondary = safeProfile(func() (Profile, error) {
		return def.SecondaryProfile(ev.Params, primary, secondary, cs)
	}, cs.Origin, &ev.Findings)

	ev.Pegs = safePegs(func() ([]Peg, error) {
		return def.Pegs(ev.Params, primary, secondary, cs)
	}, &ev.Findings)

	ev.Findings = append(ev.Findings, safeValidate(def, ev.Params, primary, secondary, cs)...)

	ev.Structural = safeStructural(def, ev.Params, primary, secondary, lookup, &ev.Findings)

	ev.Fragment = safeFragment(def, ev.Params, primary, secondary, cs, &ev.Findings)

	return ev
}

func failure(findings *[]Finding, stage string, err error) {
	*findings = append(*findings, Finding{
		Severity: SeverityError,
		Code:     CodeGeometryFailed,
		Message:  fmt.Sprintf("%s: %v", stage, err),
	})
}

// recovered runs fn and converts a panic into an error.
func recovered(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}

func safeParameters(def Definition, primary, secondary member.Datum, cs intersect.JointCS, findings *[]Finding) *ParameterSet {
	var ps *ParameterSet
	err := recovered(func() error {
		ps = def.Parameters(primary, secondary, cs)
		return nil
	})
	if err != nil || ps == nil {
		if err == nil {
			err = fmt.Errorf("nil parameter set")
		}
		failure(findings, "parameter derivation", err)
		return NewParameterSet()
	}
	return ps
}

func safeSolid(build func() (geom.Solid, error), stage string, at geom.Vec3, findings *[]Finding) geom.Solid {
	var s geom.Solid
	err := recovered(func() error {
		var e error
		s, e = build()
		return e
	})
	if err != nil {
		failure(findings, stage, err)
		return geom.PlaceholderBox(at)
	}
	return s
}

func safeProfile(build func() (Profile, error), at geom.Vec3, findings *[]Finding) Profile {
	var p Profile
	err := recovered(func() error {
		var e error
		p, e = build()
		return e
	})
	if err != nil {
		failure(findings, "secondary profile", err)
		box := geom.PlaceholderBox(at)
		return Profile{Tenon: box, ShoulderCut: geom.CutRecipe{Base: box}}
	}
	return p
}

func safePegs(build func() ([]Peg, error), findings *[]Finding) []Peg {
	var pegs []Peg
	err := recovered(func() error {
		var e error
		pegs, e = build()
		return e
	})
	if err != nil {
		failure(findings, "peg placement", err)
		return nil
	}
	return pegs
}

func safeValidate(def Definition, params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS) []Finding {
	var out []Finding
	err := recovered(func() error {
		out = def.Validate(params, primary, secondary, cs)
		return nil
	})
	if err != nil {
		out = append(out, Finding{
			Severity: SeverityError,
			Code:     CodeGeometryFailed,
			Message:  fmt.Sprintf("validation: %v", err),
		})
	}
	return out
}

func safeStructural(def Definition, params *ParameterSet, primary, secondary member.Datum, lookup CapacityLookup, findings *[]Finding) StructuralProperties {
	var props StructuralProperties
	err := recovered(func() error {
		var e error
		props, e = def.StructuralProperties(params, primary, secondary, lookup)
		return e
	})
	switch {
	case err == nil:
		return props
	case errors.Is(err, apperr.ErrNotFound):
		*findings = append(*findings, Finding{
			Severity: SeverityWarning,
			Code:     CodeNoReferenceData,
			Message:  "no reference capacity data for this joint configuration",
		})
	default:
		*findings = append(*findings, Finding{
			Severity: SeverityWarning,
			Code:     CodeLookupFailed,
			Message:  fmt.Sprintf("capacity lookup: %v", err),
		})
	}
	return props
}

func safeFragment(def Definition, params *ParameterSet, primary, secondary member.Datum, cs intersect.JointCS, findings *[]Finding) Fragment {
	var frag Fragment
	err := recovered(func() error {
		frag = def.SignatureFragment(params, primary, secondary, cs)
		return nil
	})
	if err != nil {
		failure(findings, "signature fragment", err)
		return Fragment{}
	}
	return frag
}
