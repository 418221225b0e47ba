package regalloc

import (
	"sort"

	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

// VarSet is a set of TAC variables
type VarSet map[tac.Ident]struct{}

// NewVarSet creates a set holding the given variables
func NewVarSet(vars ...tac.Ident) VarSet {
	s := make(VarSet, len(vars))
	for _, v := range vars {
		s[v] = struct{}{}
	}
	return s
}

// Add adds a variable to the set
func (s VarSet) Add(v tac.Ident) {
	s[v] = struct{}{}
}

// Contains returns true if v is in the set
func (s VarSet) Contains(v tac.Ident) bool {
	_, ok := s[v]
	return ok
}

// Union returns a new set with the members of both sets
func (s VarSet) Union(other VarSet) VarSet {
	result := make(VarSet, len(s)+len(other))
	for v := range s {
		result[v] = struct{}{}
	}
	for v := range other {
		result[v] = struct{}{}
	}
	return result
}

// Minus returns a new set with the members of s that are not in other
func (s VarSet) Minus(other VarSet) VarSet {
	result := make(VarSet, len(s))
	for v := range s {
		if !other.Contains(v) {
			result[v] = struct{}{}
		}
	}
	return result
}

// Equal returns true if both sets have the same members
func (s VarSet) Equal(other VarSet) bool {
	if len(s) != len(other) {
		return false
	}
	for v := range s {
		if !other.Contains(v) {
			return false
		}
	}
	return true
}

// Copy returns an independent copy
func (s VarSet) Copy() VarSet {
	result := make(VarSet, len(s))
	for v := range s {
		result[v] = struct{}{}
	}
	return result
}

// Sorted returns the members in lexical order
func (s VarSet) Sorted() []tac.Ident {
	result := make([]tac.Ident, 0, len(s))
	for v := range s {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i] < result[j]
	})
	return result
}
