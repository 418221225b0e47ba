package tac

import "fmt"

// Defs returns the variables defined by instr.
func Defs(instr Instr) []Ident {
	switch i := instr.(type) {
	case Assign:
		return []Ident{i.Var}
	case Call:
		if i.Var != nil {
			return []Ident{*i.Var}
		}
		return nil
	case GotoIf, Goto, Label:
		return nil
	default:
		panic(fmt.Sprintf("tac: unknown instruction %T", instr))
	}
}

// Uses returns the variables read by instr. A variable that appears twice
// (e.g. `x = a + a`) is reported once.
func Uses(instr Instr) []Ident {
	switch i := instr.(type) {
	case Assign:
		switch e := i.Left.(type) {
		case Prim:
			return operandVars(e.P)
		case BinOp:
			return operandVars(e.Left, e.Right)
		default:
			panic(fmt.Sprintf("tac: unknown expression %T", i.Left))
		}
	case Call:
		return operandVars(i.Args...)
	case GotoIf:
		return operandVars(i.Test)
	case Goto, Label:
		return nil
	default:
		panic(fmt.Sprintf("tac: unknown instruction %T", instr))
	}
}

func operandVars(ops ...Operand) []Ident {
	var vars []Ident
	for _, op := range ops {
		n, ok := op.(Name)
		if !ok {
			continue
		}
		dup := false
		for _, v := range vars {
			if v == n.Var {
				dup = true
				break
			}
		}
		if !dup {
			vars = append(vars, n.Var)
		}
	}
	return vars
}

// IsCopy reports whether instr is a direct copy `dst = src` between two
// variables. Copies embedded in larger expressions do not count.
func IsCopy(instr Instr) (dst, src Ident, ok bool) {
	a, isAssign := instr.(Assign)
	if !isAssign {
		return "", "", false
	}
	p, isPrim := a.Left.(Prim)
	if !isPrim {
		return "", "", false
	}
	n, isName := p.P.(Name)
	if !isName {
		return "", "", false
	}
	return a.Var, n.Var, true
}
