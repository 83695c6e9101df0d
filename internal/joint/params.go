// Package joint defines the joint definition contract, the typed
// parameter model, the registry of joint families, and the evaluation
// boundary that turns a definition plus two members into geometry,
// fasteners, findings, and structural data.
package joint

import (
	"encoding/json"
	"fmt"
)

// ParamType is the kind of a joint parameter.
type ParamType string

const (
	TypeLength      ParamType = "length"
	TypeAngle       ParamType = "angle"
	TypeInteger     ParamType = "integer"
	TypeBoolean     ParamType = "boolean"
	TypeEnumeration ParamType = "enumeration"
)

// Parameter is a single typed joint parameter. Its value is a tagged
// union: Derived (tracks the geometry-derived default) or Overridden
// (frozen by the user). Re-deriving defaults can never clobber an
// override because the override lives in its own slot.
//
// Numeric values (length, angle, integer) are float64, booleans bool,
// enumerations string.
type Parameter struct {
	Name        string
	Type        ParamType
	Group       string
	Description string
	Min         *float64
	Max         *float64
	EnumOptions []string

	defaultValue any
	override     any // nil while derived
}

// LengthParam creates a length parameter with a derived default in mm.
func LengthParam(name string, def float64) *Parameter {
	return &Parameter{Name: name, Type: TypeLength, defaultValue: def}
}

// AngleParam creates an angle parameter with a derived default in degrees.
func AngleParam(name string, def float64) *Parameter {
	return &Parameter{Name: name, Type: TypeAngle, defaultValue: def}
}

// IntParam creates an integer parameter.
func IntParam(name string, def int) *Parameter {
	return &Parameter{Name: name, Type: TypeInteger, defaultValue: float64(def)}
}

// BoolParam creates a boolean parameter.
func BoolParam(name string, def bool) *Parameter {
	return &Parameter{Name: name, Type: TypeBoolean, defaultValue: def}
}

// EnumParam creates an enumeration parameter.
func EnumParam(name, def string, options ...string) *Parameter {
	return &Parameter{Name: name, Type: TypeEnumeration, defaultValue: def, EnumOptions: options}
}

// WithRange sets both bounds.
func (p *Parameter) WithRange(min, max float64) *Parameter {
	p.Min, p.Max = &min, &max
	return p
}

// WithMin sets the lower bound only.
func (p *Parameter) WithMin(min float64) *Parameter {
	p.Min = &min
	return p
}

// WithMax sets the upper bound only.
func (p *Parameter) WithMax(max float64) *Parameter {
	p.Max = &max
	return p
}

// WithGroup sets the UI grouping label.
func (p *Parameter) WithGroup(g string) *Parameter {
	p.Group = g
	return p
}

// WithDescription sets the tooltip text.
func (p *Parameter) WithDescription(d string) *Parameter {
	p.Description = d
	return p
}

// Default returns the geometry-derived default value.
func (p *Parameter) Default() any {
	return p.defaultValue
}

// Value returns the effective value: the override when present,
// otherwise the derived default.
func (p *Parameter) Value() any {
	if p.override != nil {
		return p.override
	}
	return p.defaultValue
}

// Overridden reports whether the user has frozen this parameter.
func (p *Parameter) Overridden() bool {
	return p.override != nil
}

// ParameterSet is an ordered collection of parameters, keyed by name.
// Order is definition order and is preserved through JSON so the host
// can persist and restore it byte-identically.
type ParameterSet struct {
	order  []string
	params map[string]*Parameter
}

// NewParameterSet builds a set from parameters in definition order.
func NewParameterSet(params ...*Parameter) *ParameterSet {
	ps := &ParameterSet{params: make(map[string]*Parameter, len(params))}
	for _, p := range params {
		ps.params[p.Name] = p
		ps.order = append(ps.order, p.Name)
	}
	return ps
}

// Len returns the number of parameters.
func (ps *ParameterSet) Len() int {
	return len(ps.order)
}

// Names returns the parameter names in definition order.
func (ps *ParameterSet) Names() []string {
	out := make([]string, len(ps.order))
	copy(out, ps.order)
	return out
}

// Get returns the parameter with the given name.
func (ps *ParameterSet) Get(name string) (*Parameter, bool) {
	p, ok := ps.params[name]
	return p, ok
}

func (ps *ParameterSet) mustGet(name string) *Parameter {
	p, ok := ps.params[name]
	if !ok {
		panic(fmt.Sprintf("joint: unknown parameter %q", name))
	}
	return p
}

// Float returns the effective value of a length, angle, or integer
// parameter. Panics on a missing name; the Evaluate boundary converts
// such programming errors into error findings.
func (ps *ParameterSet) Float(name string) float64 {
	v, ok := ps.mustGet(name).Value().(float64)
	if !ok {
		panic(fmt.Sprintf("joint: parameter %q is not numeric", name))
	}
	return v
}

// Int returns the effective value of an integer parameter.
func (ps *ParameterSet) Int(name string) int {
	return int(ps.Float(name))
}

// Bool returns the effective value of a boolean parameter.
func (ps *ParameterSet) Bool(name string) bool {
	v, ok := ps.mustGet(name).Value().(bool)
	if !ok {
		panic(fmt.Sprintf("joint: parameter %q is not boolean", name))
	}
	return v
}

// Enum returns the effective value of an enumeration parameter.
func (ps *ParameterSet) Enum(name string) string {
	v, ok := ps.mustGet(name).Value().(string)
	if !ok {
		panic(fmt.Sprintf("joint: parameter %q is not an enumeration", name))
	}
	return v
}

// SetOverride freezes a parameter at the given value until cleared.
// Numeric values are clamped to the parameter bounds; enumeration values
// must be one of the declared options.
func (ps *ParameterSet) SetOverride(name string, value any) error {
	p, ok := ps.params[name]
	if !ok {
		return fmt.Errorf("joint: unknown parameter %q", name)
	}
	switch p.Type {
	case TypeLength, TypeAngle, TypeInteger:
		f, ok := toFloat(value)
		if !ok {
			return fmt.Errorf("joint: parameter %q needs a numeric value", name)
		}
		if p.Min != nil && f < *p.Min {
			f = *p.Min
		}
		if p.Max != nil && f > *p.Max {
			f = *p.Max
		}
		if p.Type == TypeInteger {
			f = float64(int(f))
		}
		p.override = f
	case TypeBoolean:
		b, ok := value.(bool)
		if !ok {
			return fmt.Errorf("joint: parameter %q needs a boolean value", name)
		}
		p.override = b
	case TypeEnumeration:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("joint: parameter %q needs a string value", name)
		}
		if !contains(p.EnumOptions, s) {
			return fmt.Errorf("joint: %q is not a valid option for parameter %q", s, name)
		}
		p.override = s
	default:
		return fmt.Errorf("joint: parameter %q has unknown type %q", name, p.Type)
	}
	return nil
}

// ClearOverride reverts a parameter to its derived default.
func (ps *ParameterSet) ClearOverride(name string) error {
	p, ok := ps.params[name]
	if !ok {
		return fmt.Errorf("joint: unknown parameter %q", name)
	}
	p.override = nil
	return nil
}

// UpdateDefaults adopts freshly derived defaults for every parameter
// present in both sets. Overridden parameters keep their user value but
// still track the new default for later ClearOverride.
func (ps *ParameterSet) UpdateDefaults(fresh *ParameterSet) {
	for _, name := range ps.order {
		fp, ok := fresh.params[name]
		if !ok {
			continue
		}
		p := ps.params[name]
		p.defaultValue = fp.defaultValue
		p.Min = fp.Min
		p.Max = fp.Max
	}
}

// SameNames reports whether both sets define exactly the same parameter
// names. A stored set from a different joint type fails this check and
// is discarded in favor of fresh parameters.
func (ps *ParameterSet) SameNames(other *ParameterSet) bool {
	if len(ps.params) != len(other.params) {
		return false
	}
	for name := range ps.params {
		if _, ok := other.params[name]; !ok {
			return false
		}
	}
	return true
}

type paramJSON struct {
	Name        string    `json:"name"`
	Type        ParamType `json:"param_type"`
	Default     any       `json:"default_value"`
	Value       any       `json:"value"`
	Overridden  bool      `json:"is_overridden"`
	Min         *float64  `json:"min_value,omitempty"`
	Max         *float64  `json:"max_value,omitempty"`
	EnumOptions []string  `json:"enum_options,omitempty"`
	Group       string    `json:"group,omitempty"`
	Description string    `json:"description,omitempty"`
}

// MarshalJSON serializes the set as an ordered array so the host can
// persist it and two identical sets encode byte-identically.
func (ps *ParameterSet) MarshalJSON() ([]byte, error) {
	out := make([]paramJSON, 0, len(ps.order))
	for _, name := range ps.order {
		p := ps.params[name]
		out = append(out, paramJSON{
			Name:        p.Name,
			Type:        p.Type,
			Default:     p.defaultValue,
			Value:       p.Value(),
			Overridden:  p.Overridden(),
			Min:         p.Min,
			Max:         p.Max,
			EnumOptions: p.EnumOptions,
			Group:       p.Group,
			Description: p.Description,
		})
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a set persisted by MarshalJSON.
func (ps *ParameterSet) UnmarshalJSON(data []byte) error {
	var raw []paramJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	ps.order = nil
	ps.params = make(map[string]*Parameter, len(raw))
	for _, r := range raw {
		p := &Parameter{
			Name:         r.Name,
			Type:         r.Type,
			Group:        r.Group,
			Description:  r.Description,
			Min:          r.Min,
			Max:          r.Max,
			EnumOptions:  r.EnumOptions,
			defaultValue: normalizeValue(r.Type, r.Default),
		}
		if r.Overridden {
			p.override = normalizeValue(r.Type, r.Value)
		}
		ps.params[p.Name] = p
		ps.order = append(ps.order, p.Name)
	}
	return nil
}

// normalizeValue coerces a JSON-decoded value into the canonical Go type
// for the parameter kind.
func normalizeValue(t ParamType, v any) any {
	switch t {
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b
		}
		return false
	case TypeEnumeration:
		if s, ok := v.(string); ok {
			return s
		}
		return ""
	default:
		if f, ok := toFloat(v); ok {
			if t == TypeInteger {
				return float64(int(f))
			}
			return f
		}
		return 0.0
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
