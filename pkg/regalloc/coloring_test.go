package regalloc

import (
	"errors"
	"fmt"
	"math/rand"
	"reflect"
	"testing"

	"github.com/rpufe/compiler-construction-student/pkg/tac"
)

func triangle() *InterferenceGraph {
	g := NewInterferenceGraph()
	g.AddEdge("a", "b")
	g.AddEdge("b", "c")
	g.AddEdge("a", "c")
	return g
}

var abcOrder = map[tac.Ident]int{"a": 0, "b": 1, "c": 2}

func TestColorTriangleNoSpill(t *testing.T) {
	m, err := ColorGraph(triangle(), 3, abcOrder)
	if err != nil {
		t.Fatalf("ColorGraph: %v", err)
	}
	seen := make(map[int]bool)
	for _, v := range []tac.Ident{"a", "b", "c"} {
		c, ok := m.Color(v)
		if !ok {
			t.Fatalf("%s has no color", v)
		}
		if c < 0 || c > 2 {
			t.Errorf("%s has color %d, want one of 0, 1, 2", v, c)
		}
		if seen[c] {
			t.Errorf("color %d used twice", c)
		}
		seen[c] = true
	}
	if m.NumSpillSlots() != 0 {
		t.Errorf("expected no spills, got %v", m.Spilled())
	}
}

func TestColorTriangleForcedSpill(t *testing.T) {
	m, err := ColorGraph(triangle(), 1, abcOrder)
	if err != nil {
		t.Fatalf("ColorGraph: %v", err)
	}

	want := map[tac.Ident]int{"a": 0, "b": 1, "c": 2}
	if got := m.Colors(); !reflect.DeepEqual(got, want) {
		t.Errorf("colors = %v, want %v", got, want)
	}
	if got := m.Spilled(); !reflect.DeepEqual(got, []tac.Ident{"b", "c"}) {
		t.Errorf("spilled = %v, want [b c]", got)
	}
	for v, slot := range map[tac.Ident]int{"b": 0, "c": 1} {
		got, ok := m.SpillSlot(v)
		if !ok || got != slot {
			t.Errorf("SpillSlot(%s) = %d, %v; want %d", v, got, ok, slot)
		}
	}
	if r, ok := m.Register("a"); !ok || r != 0 {
		t.Errorf("Register(a) = %d, %v", r, ok)
	}
	if m.IsSpilled("a") || !m.IsSpilled("b") {
		t.Error("IsSpilled is wrong")
	}
}

func TestColorSecondaryOrderDecidesSpills(t *testing.T) {
	// same triangle, reversed tie-break: c keeps the register
	m, err := ColorGraph(triangle(), 1, map[tac.Ident]int{"a": 2, "b": 1, "c": 0})
	if err != nil {
		t.Fatalf("ColorGraph: %v", err)
	}
	want := map[tac.Ident]int{"c": 0, "b": 1, "a": 2}
	if got := m.Colors(); !reflect.DeepEqual(got, want) {
		t.Errorf("colors = %v, want %v", got, want)
	}
}

func TestColorMissingSecondaryKeys(t *testing.T) {
	// only c has a key, so it goes first; a and b follow by name
	m, err := ColorGraph(triangle(), 1, map[tac.Ident]int{"c": 5})
	if err != nil {
		t.Fatalf("ColorGraph: %v", err)
	}
	if got := m.Spilled(); !reflect.DeepEqual(got, []tac.Ident{"a", "b"}) {
		t.Errorf("spilled = %v, want [a b]", got)
	}
	if c, _ := m.Color("c"); c != 0 {
		t.Errorf("c should keep register 0, got %d", c)
	}
}

func TestColorCopyScenario(t *testing.T) {
	// a and b never interfere, so one register is enough
	g := buildGraph(t, `
a = call $input_i64()
b = a
call $print_i64(a)
call $print_i64(b)
`)
	m, err := ColorGraph(g, 1, nil)
	if err != nil {
		t.Fatalf("ColorGraph: %v", err)
	}
	for _, v := range []tac.Ident{"a", "b"} {
		if c, _ := m.Color(v); c != 0 {
			t.Errorf("%s has color %d, want 0", v, c)
		}
	}
}

func TestColorStaticDegreeOrder(t *testing.T) {
	// star: hub interferes with l1, l2, l3; leaves are independent.
	g := NewInterferenceGraph()
	for _, leaf := range []tac.Ident{"l1", "l2", "l3"} {
		g.AddEdge("hub", leaf)
	}

	m, err := ColorGraph(g, 1, nil)
	if err != nil {
		t.Fatalf("ColorGraph: %v", err)
	}
	// hub has the highest degree, so it is colored first and the leaves spill
	if c, _ := m.Color("hub"); c != 0 {
		t.Errorf("hub color = %d, want 0", c)
	}
	if got := m.Spilled(); !reflect.DeepEqual(got, []tac.Ident{"l1", "l2", "l3"}) {
		t.Errorf("spilled = %v, want [l1 l2 l3]", got)
	}

	m2, err := ColorGraph(g, 2, nil)
	if err != nil {
		t.Fatalf("ColorGraph: %v", err)
	}
	if m2.NumSpillSlots() != 0 {
		t.Errorf("two registers suffice for a star, spilled %v", m2.Spilled())
	}
	for _, leaf := range []tac.Ident{"l1", "l2", "l3"} {
		if c, _ := m2.Color(leaf); c != 1 {
			t.Errorf("%s color = %d, want 1", leaf, c)
		}
	}
}

func TestColorIsolatedNodes(t *testing.T) {
	g := NewInterferenceGraph()
	g.AddNode("x")
	g.AddNode("y")
	m, err := ColorGraph(g, 1, nil)
	if err != nil {
		t.Fatalf("ColorGraph: %v", err)
	}
	if m.Len() != 2 || m.NumSpillSlots() != 0 {
		t.Errorf("isolated nodes should share register 0: %v", m.Colors())
	}
}

func TestColorInvalidRegisters(t *testing.T) {
	for _, k := range []int{0, -1} {
		_, err := ColorGraph(triangle(), k, nil)
		if !errors.Is(err, ErrInvalidRegisters) {
			t.Errorf("k=%d: expected ErrInvalidRegisters, got %v", k, err)
		}
	}
}

func randomGraph(rng *rand.Rand, nodes int, density float64) *InterferenceGraph {
	g := NewInterferenceGraph()
	names := make([]tac.Ident, nodes)
	for i := range names {
		names[i] = tac.Ident(fmt.Sprintf("v%d", i))
		g.AddNode(names[i])
	}
	for i := 0; i < nodes; i++ {
		for j := i + 1; j < nodes; j++ {
			if rng.Float64() < density {
				g.AddEdge(names[i], names[j])
			}
		}
	}
	return g
}

func TestColorRandomGraphsAreValid(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		g := randomGraph(rng, 1+rng.Intn(25), rng.Float64())
		k := 1 + rng.Intn(6)

		m, err := ColorGraph(g, k, nil)
		if err != nil {
			t.Fatalf("trial %d: ColorGraph: %v", trial, err)
		}
		if err := Verify(g, m); err != nil {
			t.Fatalf("trial %d (k=%d): %v", trial, k, err)
		}
		if m.Len() != len(g.Nodes) {
			t.Fatalf("trial %d: %d colors for %d nodes", trial, m.Len(), len(g.Nodes))
		}
		for i, v := range m.Spilled() {
			if slot, _ := m.SpillSlot(v); slot != i {
				t.Fatalf("trial %d: %s has slot %d, want %d", trial, v, slot, i)
			}
		}
	}
}

func TestColorDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := randomGraph(rng, 30, 0.4)

	first, err := ColorGraph(g, 3, nil)
	if err != nil {
		t.Fatalf("ColorGraph: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := ColorGraph(g, 3, nil)
		if err != nil {
			t.Fatalf("ColorGraph: %v", err)
		}
		if !reflect.DeepEqual(first.Colors(), again.Colors()) {
			t.Fatal("colors differ between runs")
		}
		if !reflect.DeepEqual(first.Spilled(), again.Spilled()) {
			t.Fatal("spill order differs between runs")
		}
	}
}

func TestVerifyDetectsProblems(t *testing.T) {
	g := triangle()

	bad := &RegisterMap{colors: map[tac.Ident]int{"a": 0, "b": 0, "c": 1}, maxRegs: 2}
	if err := Verify(g, bad); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict, got %v", err)
	}

	missing := &RegisterMap{colors: map[tac.Ident]int{"a": 0, "b": 1}, maxRegs: 2}
	if err := Verify(g, missing); !errors.Is(err, ErrUncolored) {
		t.Errorf("expected ErrUncolored, got %v", err)
	}

	gap := &RegisterMap{
		colors:  map[tac.Ident]int{"a": 0, "b": 2, "c": 3},
		spilled: []tac.Ident{"b", "c"},
		maxRegs: 1,
	}
	if err := Verify(g, gap); !errors.Is(err, ErrSpillOrder) {
		t.Errorf("expected ErrSpillOrder, got %v", err)
	}
}
