package regalloc

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

// ErrInvalidRegisters is returned when the register budget is not positive
var ErrInvalidRegisters = errors.New("register budget must be positive")

// colorer colors an interference graph in a single pass.
//
// Unlike Chaitin-Briggs simplify/select, the degree of every node is taken
// once up front and never updated as nodes are colored or deferred.
type colorer struct {
	graph     *InterferenceGraph
	K         int               // number of registers
	degree    map[tac.Ident]int // static degree
	order     []tac.Ident       // visiting order
	colors    map[tac.Ident]int // assigned colors
	deferred  []tac.Ident       // spill list, in deferral order
	secondary map[tac.Ident]int
}

// ColorGraph assigns a color to every node of g. Colors in [0, maxRegs) are
// registers; nodes that find no free register are spilled and receive
// maxRegs, maxRegs+1, ... in the order they were deferred.
//
// Nodes are visited by decreasing degree. Ties are broken by secondaryOrder
// (smaller value first; nodes missing from it come after those present) and
// finally by name, so the result never depends on map iteration order.
func ColorGraph(g *InterferenceGraph, maxRegs int, secondaryOrder map[tac.Ident]int) (*RegisterMap, error) {
	if maxRegs <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRegisters, maxRegs)
	}
	c := &colorer{
		graph:     g,
		K:         maxRegs,
		degree:    make(map[tac.Ident]int, len(g.Nodes)),
		colors:    make(map[tac.Ident]int, len(g.Nodes)),
		secondary: secondaryOrder,
	}
	c.computeOrder()
	for _, v := range c.order {
		c.colorNode(v)
	}
	return c.buildResult(), nil
}

func (c *colorer) computeOrder() {
	for v := range c.graph.Nodes {
		c.degree[v] = c.graph.Degree(v)
	}
	c.order = c.graph.Vertices()
	sort.SliceStable(c.order, func(i, j int) bool {
		return c.before(c.order[i], c.order[j])
	})
}

// before reports whether x is visited before y
func (c *colorer) before(x, y tac.Ident) bool {
	if c.degree[x] != c.degree[y] {
		return c.degree[x] > c.degree[y]
	}
	kx, okx := c.secondary[x]
	ky, oky := c.secondary[y]
	switch {
	case okx && oky && kx != ky:
		return kx < ky
	case okx != oky:
		return okx
	}
	return x < y
}

func (c *colorer) colorNode(v tac.Ident) {
	forbidden := make(map[int]bool)
	for n := range c.graph.Edges[v] {
		if color, ok := c.colors[n]; ok {
			forbidden[color] = true
		}
	}
	for color := 0; color < c.K; color++ {
		if !forbidden[color] {
			c.colors[v] = color
			return
		}
	}
	c.deferred = append(c.deferred, v)
}

func (c *colorer) buildResult() *RegisterMap {
	for i, v := range c.deferred {
		c.colors[v] = c.K + i
	}
	return &RegisterMap{
		colors:  c.colors,
		spilled: c.deferred,
		maxRegs: c.K,
	}
}
