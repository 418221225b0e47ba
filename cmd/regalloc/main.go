package main

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rpufe/compiler-construction-student/pkg/cfg"
	"github.com/rpufe/compiler-construction-student/pkg/config"
	"github.com/rpufe/compiler-construction-student/pkg/regalloc"
	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

var version = "0.1.0"

// Debug flags for dumping intermediate results
var (
	dTAC    bool
	dCFG    bool
	dLive   bool
	dInterf bool
	dRaw    bool
)

// Allocation options
var (
	registers  int
	configPath string
	orderPath  string
	check      bool
	verbose    bool
)

// dumpFlag describes one -dXXX flag
type dumpFlag struct {
	flag *bool
	name string // name in config.Config.Dump
	ext  string // extension of the file written next to the input
	desc string
}

var dumpFlags = []dumpFlag{
	{&dTAC, "tac", ".tac.0", "Dump parsed TAC"},
	{&dCFG, "cfg", ".cfg", "Dump basic blocks and edges"},
	{&dLive, "live", ".live", "Dump liveness sets"},
	{&dInterf, "interf", ".interf", "Dump interference graph"},
	{&dRaw, "raw", "", "Dump raw allocation result"},
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	rootCmd.SetArgs(normalizeFlags(os.Args[1:]))
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

// normalizeFlags converts single-dash dump flags like -dlive to --dlive
func normalizeFlags(args []string) []string {
	result := make([]string, len(args))
	for i, arg := range args {
		result[i] = arg
		for _, d := range dumpFlags {
			if arg == "-d"+d.name {
				result[i] = "--d" + d.name
				break
			}
		}
	}
	return result
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "regalloc [file.tac]",
		Short: "regalloc assigns registers and spill slots to TAC variables",
		Long: `regalloc reads a three-address-code program, computes liveness,
builds the interference graph and colors it with a fixed number of
registers. Variables that do not fit are assigned spill slots.

Each output line is: variable, color, location (reg N or spill N).`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			c, err := buildConfig(cmd.Flags())
			if err != nil {
				fmt.Fprintf(errOut, "regalloc: %v\n", err)
				return err
			}
			return doAllocate(args[0], c, out, errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	addDumpFlags(rootCmd.Flags())
	rootCmd.Flags().IntVarP(&registers, "registers", "k", config.DefaultRegisters, "Number of allocatable registers")
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML configuration file")
	rootCmd.Flags().StringVar(&orderPath, "order", "", "YAML file mapping variables to tie-break keys")
	rootCmd.Flags().BoolVar(&check, "check", false, "Verify the coloring after allocation")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log pass statistics to stderr")

	return rootCmd
}

func addDumpFlags(fs *pflag.FlagSet) {
	for _, d := range dumpFlags {
		fs.BoolVar(d.flag, "d"+d.name, false, d.desc)
	}
}

// buildConfig layers defaults, environment, config file and explicit flags
func buildConfig(fs *pflag.FlagSet) (*config.Config, error) {
	c := config.FromEnv()
	if configPath != "" {
		if err := c.Load(configPath); err != nil {
			return nil, err
		}
	}
	if fs.Changed("registers") {
		c.Registers = registers
	}
	if fs.Changed("check") {
		c.Check = check
	}
	if fs.Changed("verbose") {
		c.Verbose = verbose
	}
	for _, d := range dumpFlags {
		if *d.flag && !c.Dumps(d.name) {
			c.Dump = append(c.Dump, d.name)
		}
	}
	if orderPath != "" {
		order, err := config.LoadOrder(orderPath)
		if err != nil {
			return nil, err
		}
		c.SecondaryOrder = order
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// doAllocate parses, allocates and prints the register map of one file
func doAllocate(filename string, c *config.Config, out, errOut io.Writer) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(errOut, "regalloc: error reading %s: %v\n", filename, err)
		return err
	}

	instrs, err := tac.Parse(string(content))
	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", filename, err)
		return err
	}
	if c.Dumps("tac") {
		if err := dump(filename, dumpExt("tac"), out, errOut, func(w io.Writer) {
			tac.NewPrinter(w).PrintProgram(instrs)
		}); err != nil {
			return err
		}
	}

	fn, err := cfg.Build(instrs)
	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", filename, err)
		return err
	}
	if c.Dumps("cfg") {
		if err := dump(filename, dumpExt("cfg"), out, errOut, func(w io.Writer) {
			printCFG(w, fn)
		}); err != nil {
			return err
		}
	}

	logger := newLogger(errOut, c.Verbose).With("file", filepath.Base(filename))
	res, err := regalloc.Allocate(fn, regalloc.Options{
		Registers:      c.Registers,
		SecondaryOrder: c.Order(),
		Logger:         logger,
	})
	if err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", filename, err)
		return err
	}

	if c.Dumps("live") {
		if err := dump(filename, dumpExt("live"), out, errOut, func(w io.Writer) {
			regalloc.PrintLiveness(w, fn, res.Liveness)
		}); err != nil {
			return err
		}
	}
	if c.Dumps("interf") {
		if err := dump(filename, dumpExt("interf"), out, errOut, func(w io.Writer) {
			regalloc.PrintInterference(w, res.Graph)
		}); err != nil {
			return err
		}
	}
	if c.Dumps("raw") {
		cs := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
		cs.Fdump(out, res.Map.Colors(), res.Map.Spilled())
	}

	if c.Check {
		if err := regalloc.Verify(res.Graph, res.Map); err != nil {
			fmt.Fprintf(errOut, "%s: %v\n", filename, err)
			return err
		}
	}

	res.Map.Print(out)
	return nil
}

// dump writes the output of emit to input.ext and to out
func dump(filename, ext string, out, errOut io.Writer, emit func(io.Writer)) error {
	var buf bytes.Buffer
	emit(&buf)

	outputFilename := dumpOutputFilename(filename, ext)
	if err := os.WriteFile(outputFilename, buf.Bytes(), 0644); err != nil {
		fmt.Fprintf(errOut, "regalloc: error writing %s: %v\n", outputFilename, err)
		return err
	}
	_, err := out.Write(buf.Bytes())
	return err
}

func dumpExt(name string) string {
	for _, d := range dumpFlags {
		if d.name == name {
			return d.ext
		}
	}
	return "." + name
}

// dumpOutputFilename returns the dump file name: prog.tac -> prog.live
func dumpOutputFilename(filename, ext string) string {
	return strings.TrimSuffix(filename, ".tac") + ext
}

// printCFG writes every block with its successors and predecessors:
//
//	block 1 -> [3, 2] <- [0, 3]
//	  c = n > 0
func printCFG(w io.Writer, fn *cfg.Graph) {
	for _, b := range fn.Vertices() {
		bb, _ := fn.Block(b)
		fmt.Fprintf(w, "block %d -> %s <- %s\n", b, formatBlocks(fn.Succs(b)), formatBlocks(fn.Preds(b)))
		for _, instr := range bb.Instrs {
			fmt.Fprintf(w, "  %s\n", tac.FormatInstr(instr))
		}
	}
}

func formatBlocks(blocks []int) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = fmt.Sprint(b)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
