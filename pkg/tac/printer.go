package tac

import (
	"fmt"
	"io"
	"strings"
)

// Printer writes instructions in the textual TAC format accepted by Parse.
type Printer struct {
	w io.Writer
}

// NewPrinter creates a new TAC printer
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// PrintProgram prints one instruction per line; labels are flush left and
// everything else is indented.
func (p *Printer) PrintProgram(instrs []Instr) {
	for _, instr := range instrs {
		p.PrintInstr(instr)
	}
}

// PrintInstr prints a single instruction followed by a newline
func (p *Printer) PrintInstr(instr Instr) {
	if _, ok := instr.(Label); !ok {
		fmt.Fprint(p.w, "  ")
	}
	fmt.Fprintln(p.w, FormatInstr(instr))
}

// FormatInstr renders instr without indentation or trailing newline.
func FormatInstr(instr Instr) string {
	switch i := instr.(type) {
	case Assign:
		return fmt.Sprintf("%s = %s", i.Var, formatExp(i.Left))
	case Call:
		call := formatCall(i)
		if i.Var != nil {
			return fmt.Sprintf("%s = %s", *i.Var, call)
		}
		return call
	case GotoIf:
		return fmt.Sprintf("if %s goto %s", formatOperand(i.Test), i.Label)
	case Goto:
		return "goto " + i.Label
	case Label:
		return i.Name + ":"
	default:
		return fmt.Sprintf("<unknown %T>", instr)
	}
}

func formatCall(c Call) string {
	args := make([]string, len(c.Args))
	for i, a := range c.Args {
		args[i] = formatOperand(a)
	}
	return fmt.Sprintf("call %s(%s)", c.Name, strings.Join(args, ", "))
}

func formatExp(e Exp) string {
	switch x := e.(type) {
	case Prim:
		return formatOperand(x.P)
	case BinOp:
		return fmt.Sprintf("%s %s %s", formatOperand(x.Left), x.Op, formatOperand(x.Right))
	default:
		return fmt.Sprintf("<unknown %T>", e)
	}
}

func formatOperand(o Operand) string {
	switch x := o.(type) {
	case Const:
		return fmt.Sprintf("%d", x.Value)
	case Name:
		return string(x.Var)
	default:
		return fmt.Sprintf("<unknown %T>", o)
	}
}
