package regalloc

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/rpufe/compiler-construction-student/pkg/cfg"
	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

// Options configures one allocation run
type Options struct {
	// Registers is the number of allocatable registers (must be positive)
	Registers int
	// SecondaryOrder breaks ties between variables of equal degree.
	// Optional; tests use it to pin down the result.
	SecondaryOrder map[tac.Ident]int
	// Logger receives debug traces of the passes. nil discards them.
	Logger *slog.Logger
}

// Result holds the outputs of every pass of one allocation run
type Result struct {
	Liveness *LivenessInfo
	Graph    *InterferenceGraph
	Map      *RegisterMap
}

// Allocate runs liveness analysis, interference graph construction and
// coloring over fn. It fails only on a non-positive register budget (checked
// before any analysis) or a malformed CFG; spilling is never an error.
//
// Allocate keeps no state between calls, so independent graphs may be
// allocated concurrently.
func Allocate(fn *cfg.Graph, opts Options) (*Result, error) {
	if opts.Registers <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRegisters, opts.Registers)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	liveness, err := AnalyzeLiveness(fn)
	if err != nil {
		return nil, err
	}
	logger.Debug("liveness converged",
		"blocks", fn.Len(),
		"iterations", liveness.Iterations)

	graph := BuildInterferenceGraph(fn, liveness)
	logger.Debug("interference graph built",
		"nodes", len(graph.Nodes),
		"edges", graph.NumEdges())

	m, err := ColorGraph(graph, opts.Registers, opts.SecondaryOrder)
	if err != nil {
		return nil, err
	}
	logger.Debug("coloring complete",
		"registers", opts.Registers,
		"colored", m.Len()-m.NumSpillSlots(),
		"spilled", m.NumSpillSlots())

	return &Result{Liveness: liveness, Graph: graph, Map: m}, nil
}

// AllocateProgram builds the CFG of a flat instruction list and allocates it
func AllocateProgram(instrs []tac.Instr, opts Options) (*Result, error) {
	if opts.Registers <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidRegisters, opts.Registers)
	}
	fn, err := cfg.Build(instrs)
	if err != nil {
		return nil, err
	}
	return Allocate(fn, opts)
}
