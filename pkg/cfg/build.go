package cfg

import (
	"fmt"

	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

var (
	// ErrUnknownLabel means a jump targets a label that is never defined
	ErrUnknownLabel = fmt.Errorf("%w: unknown label", ErrMalformed)
	// ErrDuplicateLabel means a label is defined twice
	ErrDuplicateLabel = fmt.Errorf("%w: duplicate label", ErrMalformed)
)

// Build splits a flat instruction list into basic blocks numbered from 0 and
// connects them. A Label starts a new block; Goto and GotoIf end one. Edges
// follow jump targets and fall-through into the next block (except after an
// unconditional Goto).
func Build(instrs []tac.Instr) (*Graph, error) {
	var blocks []*BasicBlock
	var cur *BasicBlock

	closeBlock := func() {
		if cur != nil {
			blocks = append(blocks, cur)
			cur = nil
		}
	}

	for _, instr := range instrs {
		if _, isLabel := instr.(tac.Label); isLabel && cur != nil && len(cur.Instrs) > 0 {
			closeBlock()
		}
		if cur == nil {
			cur = &BasicBlock{Index: len(blocks)}
		}
		cur.Instrs = append(cur.Instrs, instr)
		switch instr.(type) {
		case tac.Goto, tac.GotoIf:
			closeBlock()
		}
	}
	closeBlock()

	// Map labels to the block they start
	labels := make(map[string]int)
	for _, bb := range blocks {
		for _, instr := range bb.Instrs {
			lbl, ok := instr.(tac.Label)
			if !ok {
				continue
			}
			if _, dup := labels[lbl.Name]; dup {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateLabel, lbl.Name)
			}
			labels[lbl.Name] = bb.Index
		}
	}

	g := NewGraph()
	for _, bb := range blocks {
		if err := g.AddBlock(bb); err != nil {
			return nil, err
		}
	}

	for i, bb := range blocks {
		fallThrough := i+1 < len(blocks)
		last := bb.Instrs[len(bb.Instrs)-1]
		switch t := last.(type) {
		case tac.Goto:
			target, ok := labels[t.Label]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, t.Label)
			}
			g.AddEdge(bb.Index, target)
			fallThrough = false
		case tac.GotoIf:
			target, ok := labels[t.Label]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, t.Label)
			}
			g.AddEdge(bb.Index, target)
		}
		if fallThrough {
			g.AddEdge(bb.Index, blocks[i+1].Index)
		}
	}

	return g, nil
}
