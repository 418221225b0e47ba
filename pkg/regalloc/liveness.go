// Package regalloc assigns every TAC variable either a machine register or a
// spill slot. It runs three passes over a control-flow graph:
//
//  1. liveness analysis (backward dataflow to a fixed point),
//  2. interference graph construction,
//  3. greedy coloring by static degree, spilling what does not fit.
//
// Colors below the register budget are register indices; colors at or above
// it are spill slots. Translating either into target registers or stack
// offsets is left to instruction selection.
package regalloc

import (
	"github.com/rpufe/compiler-construction-student/pkg/cfg"
	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

// LivenessInfo holds the result of liveness analysis.
type LivenessInfo struct {
	// Before maps each instruction to the variables live immediately before it
	Before map[cfg.InstrID]VarSet
	// After maps each instruction to the variables live immediately after it
	After map[cfg.InstrID]VarSet
	// LiveIn and LiveOut are the per-block IN and OUT sets
	LiveIn  map[int]VarSet
	LiveOut map[int]VarSet
	// Iterations is the number of full passes until nothing changed,
	// including the final confirming pass
	Iterations int
}

// ComputeDefUse returns the def and use sets of every instruction
func ComputeDefUse(g *cfg.Graph) (def, use map[cfg.InstrID]VarSet) {
	def = make(map[cfg.InstrID]VarSet)
	use = make(map[cfg.InstrID]VarSet)
	g.Instrs(func(id cfg.InstrID, instr tac.Instr) {
		def[id] = NewVarSet(tac.Defs(instr)...)
		use[id] = NewVarSet(tac.Uses(instr)...)
	})
	return def, use
}

// AnalyzeLiveness computes live variables at every program point.
//
// OUT[b] is the union of IN[s] over the successors s of b, and IN[b] comes
// from scanning b backwards from OUT[b]. All sets start empty and every block
// is revisited until a whole pass changes nothing. Sets only grow and are
// bounded by the variables of the program, so the loop terminates. Blocks
// are visited in postorder so that acyclic graphs settle in one pass.
func AnalyzeLiveness(g *cfg.Graph) (*LivenessInfo, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	info := &LivenessInfo{
		Before:  make(map[cfg.InstrID]VarSet),
		After:   make(map[cfg.InstrID]VarSet),
		LiveIn:  make(map[int]VarSet),
		LiveOut: make(map[int]VarSet),
	}
	for _, b := range g.Vertices() {
		info.LiveIn[b] = NewVarSet()
		info.LiveOut[b] = NewVarSet()
	}

	def, use := ComputeDefUse(g)
	order := g.Postorder()
	changed := true
	for changed {
		changed = false
		info.Iterations++
		for _, b := range order {
			out := NewVarSet()
			for _, s := range g.Succs(b) {
				out = out.Union(info.LiveIn[s])
			}
			if !out.Equal(info.LiveOut[b]) {
				info.LiveOut[b] = out
				changed = true
			}

			bb, _ := g.Block(b)
			in := info.liveStart(bb, info.LiveOut[b], def, use)
			if !in.Equal(info.LiveIn[b]) {
				info.LiveIn[b] = in
				changed = true
			}
		}
	}

	return info, nil
}

// liveStart scans bb from its last instruction to its first, given the set
// of variables live at its end, recording Before and After for every
// instruction. It returns the set live at the start of the block; an empty
// block passes its live-out set through unchanged.
func (info *LivenessInfo) liveStart(bb *cfg.BasicBlock, out VarSet, def, use map[cfg.InstrID]VarSet) VarSet {
	live := out.Copy()
	for k := len(bb.Instrs) - 1; k >= 0; k-- {
		id := cfg.InstrID{Block: bb.Index, Index: k}
		before := live.Minus(def[id]).Union(use[id])

		info.After[id] = live.Copy()
		info.Before[id] = before
		live = before
	}
	return live.Copy()
}
