package regalloc

import (
	"fmt"
	"io"
	"strings"

	"github.com/rpufe/compiler-construction-student/pkg/cfg"
	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

// PrintLiveness writes the live sets of every block and instruction:
//
//	block 1 -> 2, 3
//	  in:  {a, b}
//	  1.0  c = a + b   before {a, b}  after {c}
//	  out: {c}
func PrintLiveness(w io.Writer, fn *cfg.Graph, info *LivenessInfo) {
	for _, b := range fn.Vertices() {
		fmt.Fprintf(w, "block %d", b)
		if succs := fn.Succs(b); len(succs) > 0 {
			parts := make([]string, len(succs))
			for i, s := range succs {
				parts[i] = fmt.Sprint(s)
			}
			fmt.Fprintf(w, " -> %s", strings.Join(parts, ", "))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  in:  %s\n", formatSet(info.LiveIn[b]))
		bb, _ := fn.Block(b)
		for i, instr := range bb.Instrs {
			id := cfg.InstrID{Block: b, Index: i}
			fmt.Fprintf(w, "  %-5s %-24s before %s  after %s\n",
				id, tac.FormatInstr(instr), formatSet(info.Before[id]), formatSet(info.After[id]))
		}
		fmt.Fprintf(w, "  out: %s\n", formatSet(info.LiveOut[b]))
	}
}

// PrintInterference writes one line per node with its sorted neighbors
func PrintInterference(w io.Writer, g *InterferenceGraph) {
	for _, v := range g.Vertices() {
		fmt.Fprintf(w, "%s: %s\n", v, formatSet(g.Edges[v]))
	}
}

func formatSet(s VarSet) string {
	vars := s.Sorted()
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = string(v)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
