package interp

import "github.com/tulpar-lang/tulpar/internal/value"

// Scope is a parent-linked chain mapping names to slots holding a
// Value (spec §3.4). Lookup walks parent-ward; insertion is always in
// the innermost scope.
type Scope struct {
	parent *Scope
	vars   map[string]*value.Value
}

func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: make(map[string]*value.Value)}
}

// Define creates a new slot in this scope, shadowing any outer one.
func (s *Scope) Define(name string, v value.Value) {
	slot := v
	s.vars[name] = &slot
}

// Lookup walks parent-ward and returns the slot for name, if any.
func (s *Scope) Lookup(name string) (*value.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if slot, ok := sc.vars[name]; ok {
			return slot, true
		}
	}
	return nil, false
}

// Assign writes to the nearest existing slot for name. If none exists
// it defines one in this (innermost) scope, matching the original's
// permissive global-assignment behavior.
func (s *Scope) Assign(name string, v value.Value) {
	if slot, ok := s.Lookup(name); ok {
		*slot = v
		return
	}
	s.Define(name, v)
}
