package regalloc

import (
	"github.com/rpufe/compiler-construction-student/pkg/cfg"
	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

// InterferenceGraph represents the variable interference graph.
// Two variables interfere if one is defined while the other is live, so they
// must not share a register.
type InterferenceGraph struct {
	// Nodes are all variables defined or used anywhere in the program
	Nodes VarSet
	// Edges maps each variable to its interfering neighbors (undirected)
	Edges map[tac.Ident]VarSet
}

// NewInterferenceGraph creates an empty interference graph
func NewInterferenceGraph() *InterferenceGraph {
	return &InterferenceGraph{
		Nodes: NewVarSet(),
		Edges: make(map[tac.Ident]VarSet),
	}
}

// AddNode adds a variable to the graph if it is not already there
func (g *InterferenceGraph) AddNode(v tac.Ident) {
	g.Nodes.Add(v)
	if g.Edges[v] == nil {
		g.Edges[v] = NewVarSet()
	}
}

// AddEdge adds an interference edge, adding missing endpoints first
func (g *InterferenceGraph) AddEdge(v1, v2 tac.Ident) {
	if v1 == v2 {
		return // No self-edges
	}
	g.AddNode(v1)
	g.AddNode(v2)
	g.Edges[v1].Add(v2)
	g.Edges[v2].Add(v1)
}

// HasEdge returns true if there is an interference edge
func (g *InterferenceGraph) HasEdge(v1, v2 tac.Ident) bool {
	if edges, ok := g.Edges[v1]; ok {
		return edges.Contains(v2)
	}
	return false
}

// Degree returns the number of neighbors of a variable
func (g *InterferenceGraph) Degree(v tac.Ident) int {
	return len(g.Edges[v])
}

// Neighbors returns the interfering neighbors of a variable
func (g *InterferenceGraph) Neighbors(v tac.Ident) VarSet {
	if edges, ok := g.Edges[v]; ok {
		return edges.Copy()
	}
	return NewVarSet()
}

// Vertices returns all variables in lexical order
func (g *InterferenceGraph) Vertices() []tac.Ident {
	return g.Nodes.Sorted()
}

// NumEdges returns the number of undirected edges
func (g *InterferenceGraph) NumEdges() int {
	n := 0
	for _, edges := range g.Edges {
		n += len(edges)
	}
	return n / 2
}

// BuildInterferenceGraph constructs the interference graph from liveness info.
func BuildInterferenceGraph(fn *cfg.Graph, liveness *LivenessInfo) *InterferenceGraph {
	g := NewInterferenceGraph()

	// Every variable is a node, even one that interferes with nothing
	fn.Instrs(func(_ cfg.InstrID, instr tac.Instr) {
		for _, v := range tac.Defs(instr) {
			g.AddNode(v)
		}
		for _, v := range tac.Uses(instr) {
			g.AddNode(v)
		}
	})

	// Rule: a defined variable interferes with everything live after the
	// definition, except itself and, for a copy d = v, the source v.
	fn.Instrs(func(id cfg.InstrID, instr tac.Instr) {
		liveOut := liveness.After[id]
		for _, d := range tac.Defs(instr) {
			for v := range liveOut {
				if isMoveSource(instr, d, v) {
					continue
				}
				g.AddEdge(d, v)
			}
		}
	})

	return g
}

// isMoveSource returns true if instr is the copy `dst = src`
func isMoveSource(instr tac.Instr, dst, src tac.Ident) bool {
	d, s, ok := tac.IsCopy(instr)
	return ok && d == dst && s == src
}
