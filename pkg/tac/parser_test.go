package tac

import (
	"bufio"
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	src := `
# count down from the input
  n = call $input_i64()
  s = 0
loop:
  c = n > 0
  if c goto body
  goto done
body:
  s = s + n
  n = n - 1
  t = s       # copy
  goto loop
done:
  call $print_i64(s, -1)
`
	got, err := Parse(src)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	want := []Instr{
		Call{Var: Var("n"), Name: "$input_i64"},
		Assign{Var: "s", Left: Prim{P: Const{Value: 0}}},
		Label{Name: "loop"},
		Assign{Var: "c", Left: BinOp{Left: Name{Var: "n"}, Op: Greater, Right: Const{Value: 0}}},
		GotoIf{Test: Name{Var: "c"}, Label: "body"},
		Goto{Label: "done"},
		Label{Name: "body"},
		Assign{Var: "s", Left: BinOp{Left: Name{Var: "s"}, Op: Add, Right: Name{Var: "n"}}},
		Assign{Var: "n", Left: BinOp{Left: Name{Var: "n"}, Op: Sub, Right: Const{Value: 1}}},
		Assign{Var: "t", Left: Prim{P: Name{Var: "s"}}},
		Goto{Label: "loop"},
		Label{Name: "done"},
		Call{Name: "$print_i64", Args: []Operand{Name{Var: "s"}, Const{Value: -1}}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse mismatch\ngot:  %#v\nwant: %#v", got, want)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line string
	}{
		{"unknown operator", "x = a % b", "line 1"},
		{"bad target", "1x = 2", "line 1"},
		{"bad goto", "goto", "line 1"},
		{"bad if", "x = 1\nif x L", "line 2"},
		{"bad call", "call $f", "line 1"},
		{"garbage", "hello world", "line 1"},
		{"too many operands", "x = a + b + c", "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("expected ErrSyntax, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.line) {
				t.Errorf("error %q should mention %q", err, tt.line)
			}
		})
	}
}

func TestPrintParseRoundTrip(t *testing.T) {
	prog := []Instr{
		Label{Name: "start"},
		Call{Var: Var("a"), Name: "$input_i64"},
		Assign{Var: "b", Left: BinOp{Left: Name{Var: "a"}, Op: LessEq, Right: Const{Value: 10}}},
		GotoIf{Test: Name{Var: "b"}, Label: "start"},
		Assign{Var: "c", Left: Prim{P: Name{Var: "a"}}},
		Call{Name: "$print_i64", Args: []Operand{Name{Var: "c"}}},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(prog)

	wantText := `start:
  a = call $input_i64()
  b = a <= 10
  if b goto start
  c = a
  call $print_i64(c)
`
	if buf.String() != wantText {
		t.Errorf("printed:\n%s\nwant:\n%s", buf.String(), wantText)
	}

	back, err := Parse(buf.String())
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !reflect.DeepEqual(back, prog) {
		t.Errorf("round trip mismatch\ngot:  %#v\nwant: %#v", back, prog)
	}
}

func TestKeywordNamedVariablesRoundTrip(t *testing.T) {
	prog := []Instr{
		Assign{Var: "call", Left: Prim{P: Const{Value: 1}}},
		Assign{Var: "goto", Left: Prim{P: Const{Value: 1}}},
		Assign{Var: "if", Left: BinOp{Left: Name{Var: "call"}, Op: Add, Right: Const{Value: 1}}},
		Assign{Var: "x", Left: Prim{P: Name{Var: "call"}}},
		Call{Var: Var("goto"), Name: "$input_i64"},
		GotoIf{Test: Name{Var: "call"}, Label: "goto"},
		Goto{Label: "call"},
		Label{Name: "goto"},
		Label{Name: "call"},
		Call{Name: "$print_i64", Args: []Operand{Name{Var: "if"}, Name{Var: "goto"}}},
	}

	var buf bytes.Buffer
	NewPrinter(&buf).PrintProgram(prog)
	if !strings.Contains(buf.String(), "  call = 1\n  goto = 1\n") {
		t.Fatalf("unexpected printer output:\n%s", buf.String())
	}

	back, err := Parse(buf.String())
	if err != nil {
		t.Fatalf("Parse failed: %v\n%s", err, buf.String())
	}
	if !reflect.DeepEqual(back, prog) {
		t.Errorf("round trip mismatch\ngot:  %#v\nwant: %#v", back, prog)
	}
}

func TestParseLineTooLong(t *testing.T) {
	src := "x = 1\ny = " + strings.Repeat("a", bufio.MaxScanTokenSize) + "\n"
	_, err := Parse(src)
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("expected ErrSyntax, got %v", err)
	}
	if !errors.Is(err, bufio.ErrTooLong) {
		t.Errorf("expected bufio.ErrTooLong, got %v", err)
	}
	if err != nil && !strings.HasPrefix(err.Error(), "line 2:") {
		t.Errorf("error %q should name line 2", err)
	}
}

func TestOpString(t *testing.T) {
	for _, op := range []Op{Add, Sub, Mul, Less, LessEq, Greater, GreaterEq, Eq, NotEq, And, Or} {
		back, ok := LookupOp(op.String())
		if !ok || back != op {
			t.Errorf("LookupOp(%q) = %v, %v", op.String(), back, ok)
		}
	}
	if Op(99).String() != "?" {
		t.Error("out-of-range op should print as ?")
	}
}
