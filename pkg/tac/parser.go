package tac

import (
	"bufio"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrSyntax is wrapped by every error returned from Parse
var ErrSyntax = errors.New("syntax error")

// Parse reads a program in the textual TAC format, one instruction per line:
//
//	x = 1
//	y = x
//	z = x + y
//	n = call $input_i64()
//	call $print_i64(z)
//	if c goto L1
//	goto L2
//	L1:
//
// Blank lines are ignored and '#' starts a comment. Any identifier may name
// a variable, including goto, if and call.
func Parse(src string) ([]Instr, error) {
	var instrs []Instr
	scanner := bufio.NewScanner(strings.NewReader(src))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if idx := strings.IndexByte(line, '#'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		instr, err := parseLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		instrs = append(instrs, instr)
	}
	if err := scanner.Err(); err != nil {
		// the scanner stops on the line it could not read
		return nil, fmt.Errorf("line %d: %w: %w", lineNo+1, ErrSyntax, err)
	}
	return instrs, nil
}

func syntaxErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSyntax, fmt.Sprintf(format, args...))
}

func parseLine(line string) (Instr, error) {
	fields := strings.Fields(line)

	// Assignments are recognized before keywords, so a variable may be
	// called goto, if or call.
	if lhs, rhs, found := strings.Cut(line, "="); found && isIdent(strings.TrimSpace(lhs)) {
		return parseAssign(Ident(strings.TrimSpace(lhs)), strings.TrimSpace(rhs))
	}

	switch {
	case len(fields) == 1 && strings.HasSuffix(line, ":"):
		name := strings.TrimSuffix(line, ":")
		if !isIdent(name) {
			return nil, syntaxErr("bad label %q", name)
		}
		return Label{Name: name}, nil

	case fields[0] == "goto":
		if len(fields) != 2 || !isIdent(fields[1]) {
			return nil, syntaxErr("expected `goto LABEL`, got %q", line)
		}
		return Goto{Label: fields[1]}, nil

	case fields[0] == "if":
		if len(fields) != 4 || fields[2] != "goto" || !isIdent(fields[3]) {
			return nil, syntaxErr("expected `if OPERAND goto LABEL`, got %q", line)
		}
		test, err := parseOperand(fields[1])
		if err != nil {
			return nil, err
		}
		return GotoIf{Test: test, Label: fields[3]}, nil

	case fields[0] == "call":
		return parseCall(nil, strings.TrimSpace(strings.TrimPrefix(line, "call")))
	}

	lhs, _, found := strings.Cut(line, "=")
	if !found {
		return nil, syntaxErr("unrecognized instruction %q", line)
	}
	return nil, syntaxErr("bad assignment target %q", strings.TrimSpace(lhs))
}

// parseAssign parses the right-hand side of `dst = ...`
func parseAssign(dst Ident, rhs string) (Instr, error) {
	// `call + 1` reads the variable call; only `call NAME(...)` is a call
	if strings.HasPrefix(rhs, "call ") && strings.HasSuffix(rhs, ")") {
		return parseCall(&dst, strings.TrimSpace(strings.TrimPrefix(rhs, "call")))
	}

	parts := strings.Fields(rhs)
	switch len(parts) {
	case 1:
		p, err := parseOperand(parts[0])
		if err != nil {
			return nil, err
		}
		return Assign{Var: dst, Left: Prim{P: p}}, nil
	case 3:
		left, err := parseOperand(parts[0])
		if err != nil {
			return nil, err
		}
		op, ok := LookupOp(parts[1])
		if !ok {
			return nil, syntaxErr("unknown operator %q", parts[1])
		}
		right, err := parseOperand(parts[2])
		if err != nil {
			return nil, err
		}
		return Assign{Var: dst, Left: BinOp{Left: left, Op: op, Right: right}}, nil
	default:
		return nil, syntaxErr("bad right-hand side %q", rhs)
	}
}

// parseCall parses `NAME(ARG, ...)`
func parseCall(dst *Ident, s string) (Instr, error) {
	open := strings.IndexByte(s, '(')
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return nil, syntaxErr("expected `call NAME(ARGS)`, got %q", s)
	}
	name := strings.TrimSpace(s[:open])
	if !isIdent(name) {
		return nil, syntaxErr("bad function name %q", name)
	}
	call := Call{Var: dst, Name: name}
	inner := strings.TrimSpace(s[open+1 : len(s)-1])
	if inner == "" {
		return call, nil
	}
	for _, a := range strings.Split(inner, ",") {
		op, err := parseOperand(strings.TrimSpace(a))
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, op)
	}
	return call, nil
}

func parseOperand(s string) (Operand, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Const{Value: n}, nil
	}
	if !isIdent(s) {
		return nil, syntaxErr("bad operand %q", s)
	}
	return Name{Var: Ident(s)}, nil
}

// isIdent accepts letters, digits, '_', '$' and '.', not starting with a digit.
func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_' || c == '$' || c == '.':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
