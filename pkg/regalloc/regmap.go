package regalloc

import (
	"errors"
	"fmt"
	"io"

	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

// RegisterMap maps every variable to a color. Colors below MaxRegs are
// register indices; a color c >= MaxRegs is spill slot c - MaxRegs.
type RegisterMap struct {
	colors  map[tac.Ident]int
	spilled []tac.Ident
	maxRegs int
}

// MaxRegs returns the register budget the map was computed with
func (m *RegisterMap) MaxRegs() int {
	return m.maxRegs
}

// Len returns the number of variables in the map
func (m *RegisterMap) Len() int {
	return len(m.colors)
}

// Color returns the color of v
func (m *RegisterMap) Color(v tac.Ident) (int, bool) {
	c, ok := m.colors[v]
	return c, ok
}

// IsSpilled returns true if v lives in a spill slot
func (m *RegisterMap) IsSpilled(v tac.Ident) bool {
	c, ok := m.colors[v]
	return ok && c >= m.maxRegs
}

// Register returns the register index of v, or false if v is spilled or unknown
func (m *RegisterMap) Register(v tac.Ident) (int, bool) {
	c, ok := m.colors[v]
	if !ok || c >= m.maxRegs {
		return 0, false
	}
	return c, true
}

// SpillSlot returns the spill slot index of v, or false if v is in a register
func (m *RegisterMap) SpillSlot(v tac.Ident) (int, bool) {
	c, ok := m.colors[v]
	if !ok || c < m.maxRegs {
		return 0, false
	}
	return c - m.maxRegs, true
}

// Spilled returns the spilled variables in the order they were deferred,
// which is also the order of their spill slots.
func (m *RegisterMap) Spilled() []tac.Ident {
	return append([]tac.Ident(nil), m.spilled...)
}

// NumSpillSlots returns the number of spill slots in use
func (m *RegisterMap) NumSpillSlots() int {
	return len(m.spilled)
}

// Vars returns all variables in lexical order
func (m *RegisterMap) Vars() []tac.Ident {
	s := make(VarSet, len(m.colors))
	for v := range m.colors {
		s.Add(v)
	}
	return s.Sorted()
}

// Colors returns a copy of the variable -> color map
func (m *RegisterMap) Colors() map[tac.Ident]int {
	result := make(map[tac.Ident]int, len(m.colors))
	for v, c := range m.colors {
		result[v] = c
	}
	return result
}

// Print writes one line per variable: name, color and location.
func (m *RegisterMap) Print(w io.Writer) {
	for _, v := range m.Vars() {
		c := m.colors[v]
		if slot, ok := m.SpillSlot(v); ok {
			fmt.Fprintf(w, "%s\t%d\tspill %d\n", v, c, slot)
		} else {
			fmt.Fprintf(w, "%s\t%d\treg %d\n", v, c, c)
		}
	}
}

var (
	// ErrUncolored means a graph node has no color
	ErrUncolored = errors.New("variable has no color")
	// ErrConflict means two interfering variables share a color
	ErrConflict = errors.New("interfering variables share a color")
	// ErrSpillOrder means spill slots are not dense and in deferral order
	ErrSpillOrder = errors.New("spill slots out of order")
)

// Verify checks m against g: every node is colored, no edge joins two nodes
// of the same color, and spill slots are 0, 1, ... in deferral order.
func Verify(g *InterferenceGraph, m *RegisterMap) error {
	for _, v := range g.Vertices() {
		if _, ok := m.colors[v]; !ok {
			return fmt.Errorf("%w: %s", ErrUncolored, v)
		}
	}
	for _, v := range g.Vertices() {
		for _, n := range g.Edges[v].Sorted() {
			if m.colors[v] == m.colors[n] {
				return fmt.Errorf("%w: %s and %s both have color %d", ErrConflict, v, n, m.colors[v])
			}
		}
	}
	for i, v := range m.spilled {
		if m.colors[v] != m.maxRegs+i {
			return fmt.Errorf("%w: %s has color %d, want %d", ErrSpillOrder, v, m.colors[v], m.maxRegs+i)
		}
	}
	for v, c := range m.colors {
		if c >= m.maxRegs && !containsIdent(m.spilled, v) {
			return fmt.Errorf("%w: %s has spill color %d but was never deferred", ErrSpillOrder, v, c)
		}
	}
	return nil
}

func containsIdent(list []tac.Ident, v tac.Ident) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
