package joint

import (
	"fmt"
	"sort"
	"sync"

	"github.com/framewright/tenon/internal/apperr"
	"github.com/framewright/tenon/internal/intersect"
	"github.com/framewright/tenon/internal/member"
)

// Registry holds the known joint families and the default family for
// each intersection type. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	defs     map[string]Definition
	defaults map[intersect.Type]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		defs:     make(map[string]Definition),
		defaults: make(map[intersect.Type]string),
	}
}

// Register adds a family. Duplicate or empty IDs are rejected.
func (r *Registry) Register(def Definition) error {
	id := def.Metadata().ID
	if id == "" {
		return fmt.Errorf("joint: definition has empty id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[id]; ok {
		return fmt.Errorf("joint: definition %q: %w", id, apperr.ErrAlreadyExists)
	}
	r.defs[id] = def
	return nil
}

// Lookup returns the family with the given id. Unknown ids report an
// error wrapping apperr.ErrUnknownJointType so callers can surface it to
// the user instead of silently substituting a default.
func (r *Registry) Lookup(id string) (Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[id]
	if !ok {
		return nil, fmt.Errorf("joint: %q: %w", id, apperr.ErrUnknownJointType)
	}
	return def, nil
}

// IDs returns all registered family ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.defs))
	for id := range r.defs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns all registered families, sorted by id.
func (r *Registry) All() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Definition, 0, len(r.defs))
	for _, def := range r.defs {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Metadata().ID < out[j].Metadata().ID
	})
	return out
}

// SetDefault assigns the default family proposed for an intersection
// type. The family must already be registered.
func (r *Registry) SetDefault(t intersect.Type, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[id]; !ok {
		return fmt.Errorf("joint: default for %s: %q: %w", t, id, apperr.ErrUnknownJointType)
	}
	r.defaults[t] = id
	return nil
}

// DefaultFor returns the default family id for an intersection type.
func (r *Registry) DefaultFor(t intersect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.defaults[t]
	return id, ok
}

// Compatible returns the families applicable to the given role pairing
// and folded angle, ranked most-specific first: exact-role matches
// outrank wildcards, then narrower angle ranges outrank wider ones, then
// id order for stability.
func (r *Registry) Compatible(primary, secondary member.Role, angle float64) []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Definition
	for _, def := range r.defs {
		m := def.Metadata()
		if m.MatchesRoles(primary, secondary) && m.MatchesAngle(angle) {
			out = append(out, def)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		mi, mj := out[i].Metadata(), out[j].Metadata()
		if si, sj := mi.RoleSpecificity(), mj.RoleSpecificity(); si != sj {
			return si > sj
		}
		if ai, aj := mi.AngleSpan(), mj.AngleSpan(); ai != aj {
			return ai < aj
		}
		return mi.ID < mj.ID
	})
	return out
}
