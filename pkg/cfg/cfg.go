// Package cfg models the control-flow graph handed to the register allocator:
// basic blocks of TAC instructions connected by successor edges.
package cfg

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

var (
	// ErrMalformed is wrapped by every structural error of a graph
	ErrMalformed = errors.New("malformed control-flow graph")
	// ErrUnknownBlock means an edge refers to a block that does not exist
	ErrUnknownBlock = fmt.Errorf("%w: unknown block", ErrMalformed)
	// ErrDuplicateBlock means two blocks share an index
	ErrDuplicateBlock = fmt.Errorf("%w: duplicate block", ErrMalformed)
)

// BasicBlock is a straight-line sequence of instructions with a unique index.
type BasicBlock struct {
	Index  int
	Instrs []tac.Instr
}

// InstrID identifies an instruction in the whole program: the block index and
// the position inside that block.
type InstrID struct {
	Block int
	Index int
}

func (id InstrID) String() string {
	return fmt.Sprintf("%d.%d", id.Block, id.Index)
}

// Graph is a directed graph over block indices. It may contain cycles.
type Graph struct {
	blocks map[int]*BasicBlock
	succs  map[int][]int
	preds  map[int][]int
}

// NewGraph creates an empty graph
func NewGraph() *Graph {
	return &Graph{
		blocks: make(map[int]*BasicBlock),
		succs:  make(map[int][]int),
		preds:  make(map[int][]int),
	}
}

// AddBlock adds a block. Blocks are never replaced.
func (g *Graph) AddBlock(bb *BasicBlock) error {
	if _, exists := g.blocks[bb.Index]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateBlock, bb.Index)
	}
	g.blocks[bb.Index] = bb
	return nil
}

// AddEdge adds a control-flow edge from -> to. Duplicate edges are ignored.
// Endpoints are checked by Validate, so edges may be added before blocks.
func (g *Graph) AddEdge(from, to int) {
	for _, s := range g.succs[from] {
		if s == to {
			return
		}
	}
	g.succs[from] = append(g.succs[from], to)
	g.preds[to] = append(g.preds[to], from)
}

// Block returns the block with the given index
func (g *Graph) Block(index int) (*BasicBlock, bool) {
	bb, ok := g.blocks[index]
	return bb, ok
}

// Succs returns the successors of a block in insertion order
func (g *Graph) Succs(index int) []int {
	return g.succs[index]
}

// Preds returns the predecessors of a block in insertion order
func (g *Graph) Preds(index int) []int {
	return g.preds[index]
}

// Vertices returns all block indices in ascending order
func (g *Graph) Vertices() []int {
	result := make([]int, 0, len(g.blocks))
	for idx := range g.blocks {
		result = append(result, idx)
	}
	sort.Ints(result)
	return result
}

// Len returns the number of blocks
func (g *Graph) Len() int {
	return len(g.blocks)
}

// Entry returns the lowest block index, or false for an empty graph
func (g *Graph) Entry() (int, bool) {
	vs := g.Vertices()
	if len(vs) == 0 {
		return 0, false
	}
	return vs[0], true
}

// Validate checks that every edge endpoint resolves to a block.
func (g *Graph) Validate() error {
	for _, from := range sortedKeys(g.succs) {
		if _, ok := g.blocks[from]; !ok {
			return fmt.Errorf("%w: edge source %d", ErrUnknownBlock, from)
		}
		for _, to := range g.succs[from] {
			if _, ok := g.blocks[to]; !ok {
				return fmt.Errorf("%w: successor %d of block %d", ErrUnknownBlock, to, from)
			}
		}
	}
	return nil
}

// Postorder returns the blocks in DFS postorder starting at the entry block,
// followed by blocks unreachable from it. For an acyclic graph every block
// comes after all of its successors, which is the order a backward analysis
// wants.
func (g *Graph) Postorder() []int {
	visited := make(map[int]bool, len(g.blocks))
	order := make([]int, 0, len(g.blocks))

	var dfs func(n int)
	dfs = func(n int) {
		if visited[n] {
			return
		}
		visited[n] = true
		if _, ok := g.blocks[n]; !ok {
			return
		}
		for _, s := range g.succs[n] {
			dfs(s)
		}
		order = append(order, n)
	}

	entry, ok := g.Entry()
	if !ok {
		return order
	}
	dfs(entry)
	for _, n := range g.Vertices() {
		dfs(n)
	}
	return order
}

// Instrs calls fn for every instruction of every block, blocks in ascending
// index order.
func (g *Graph) Instrs(fn func(id InstrID, instr tac.Instr)) {
	for _, idx := range g.Vertices() {
		for i, instr := range g.blocks[idx].Instrs {
			fn(InstrID{Block: idx, Index: i}, instr)
		}
	}
}

func sortedKeys(m map[int][]int) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
