// Package tac defines the three-address code (TAC) intermediate representation
// consumed by the register allocator. Each instruction has at most one operator
// and a small fixed number of operands. Control flow is expressed with labels
// and (conditional) jumps; pkg/cfg turns a flat instruction list into blocks.
package tac

// Ident is a virtual variable. Identifiers are compared by name only.
type Ident string

// --- Operands ---

// Operand is either a constant or a variable reference.
type Operand interface {
	implOperand()
}

// Const is an integer literal
type Const struct {
	Value int64
}

// Name is a reference to a variable
type Name struct {
	Var Ident
}

func (Const) implOperand() {}
func (Name) implOperand()  {}

// --- Operators ---

// Op is a binary operator
type Op int

const (
	Add Op = iota
	Sub
	Mul
	Less
	LessEq
	Greater
	GreaterEq
	Eq
	NotEq
	And
	Or
)

var opNames = [...]string{
	Add:       "+",
	Sub:       "-",
	Mul:       "*",
	Less:      "<",
	LessEq:    "<=",
	Greater:   ">",
	GreaterEq: ">=",
	Eq:        "==",
	NotEq:     "!=",
	And:       "&&",
	Or:        "||",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return "?"
}

// LookupOp returns the operator spelled s
func LookupOp(s string) (Op, bool) {
	for i, name := range opNames {
		if name == s {
			return Op(i), true
		}
	}
	return 0, false
}

// --- Right-hand sides ---

// Exp is the right-hand side of an assignment.
type Exp interface {
	implExp()
}

// Prim is a bare operand: `x = 1` or `x = y`
type Prim struct {
	P Operand
}

// BinOp applies a binary operator to two operands: `x = a + b`
type BinOp struct {
	Left  Operand
	Op    Op
	Right Operand
}

func (Prim) implExp()  {}
func (BinOp) implExp() {}

// --- Instructions ---

// Instr is a TAC instruction. The set of implementations is closed.
type Instr interface {
	implInstr()
}

// Assign stores the value of Left into Var
type Assign struct {
	Var  Ident
	Left Exp
}

// Call invokes a function or primitive. Var is nil for calls whose result is
// discarded (e.g. $print_i64).
type Call struct {
	Var  *Ident
	Name string
	Args []Operand
}

// GotoIf jumps to Label when Test is non-zero, otherwise falls through
type GotoIf struct {
	Test  Operand
	Label string
}

// Goto jumps unconditionally to Label
type Goto struct {
	Label string
}

// Label marks a jump target
type Label struct {
	Name string
}

func (Assign) implInstr() {}
func (Call) implInstr()   {}
func (GotoIf) implInstr() {}
func (Goto) implInstr()   {}
func (Label) implInstr()  {}

// Var returns a pointer to v, for use as Call.Var.
func Var(v Ident) *Ident {
	return &v
}
