package table

import (
	"errors"
	"testing"
)

func TestConstraintMatches(t *testing.T) {
	tests := []struct {
		name     string
		c        Constraint
		affinity ColumnType
		value    string
		want     bool
	}{
		{name: "text equal", c: Constraint{Op: OpEQ, Expr: "bash"}, affinity: Text, value: "bash", want: true},
		{name: "text not equal", c: Constraint{Op: OpNE, Expr: "bash"}, affinity: Text, value: "zsh", want: true},
		{name: "text lexicographic", c: Constraint{Op: OpLT, Expr: "b"}, affinity: Text, value: "a", want: true},
		{name: "integer numeric not lexicographic", c: Constraint{Op: OpGT, Expr: "9"}, affinity: Integer, value: "10", want: true},
		{name: "bigint less or equal", c: Constraint{Op: OpLE, Expr: "9999999999"}, affinity: BigInt, value: "9999999999", want: true},
		{name: "integer ge fails", c: Constraint{Op: OpGE, Expr: "100"}, affinity: Integer, value: "99", want: false},
		{name: "integer unparsable value", c: Constraint{Op: OpEQ, Expr: "1"}, affinity: Integer, value: "one", want: false},
		{name: "integer unparsable value reads as sentinel", c: Constraint{Op: OpLT, Expr: "0"}, affinity: BigInt, value: "abc", want: true},
		{name: "integer padded value reads as sentinel", c: Constraint{Op: OpEQ, Expr: "5"}, affinity: BigInt, value: " 5", want: false},
		{name: "integer out of range reads as sentinel", c: Constraint{Op: OpEQ, Expr: "3000000000"}, affinity: Integer, value: "3000000000", want: false},
		{name: "integer non numeric literal keeps row", c: Constraint{Op: OpEQ, Expr: "x"}, affinity: BigInt, value: "1", want: true},
		{name: "integer fractional literal greater", c: Constraint{Op: OpGT, Expr: "1.5"}, affinity: BigInt, value: "2", want: true},
		{name: "integer fractional literal less", c: Constraint{Op: OpLT, Expr: "1.5"}, affinity: BigInt, value: "2", want: false},
		{name: "integer decimal literal equal", c: Constraint{Op: OpEQ, Expr: "2.00"}, affinity: Integer, value: "2", want: true},
		{name: "like prefix", c: Constraint{Op: OpLike, Expr: "sys%"}, affinity: Text, value: "systemd", want: true},
		{name: "like case insensitive", c: Constraint{Op: OpLike, Expr: "SYS%"}, affinity: Text, value: "systemd", want: true},
		{name: "like single char", c: Constraint{Op: OpLike, Expr: "b_sh"}, affinity: Text, value: "bash", want: true},
		{name: "like literal dot", c: Constraint{Op: OpLike, Expr: "a.c"}, affinity: Text, value: "abc", want: false},
		{name: "glob star", c: Constraint{Op: OpGlob, Expr: "/usr/*"}, affinity: Text, value: "/usr/bin/env", want: true},
		{name: "glob case sensitive", c: Constraint{Op: OpGlob, Expr: "Sys*"}, affinity: Text, value: "systemd", want: false},
		{name: "glob class", c: Constraint{Op: OpGlob, Expr: "tty[0-9]"}, affinity: Text, value: "tty3", want: true},
		{name: "glob negated class", c: Constraint{Op: OpGlob, Expr: "tty[^0-9]"}, affinity: Text, value: "tty3", want: false},
		{name: "glob unterminated class", c: Constraint{Op: OpGlob, Expr: "a[b"}, affinity: Text, value: "a[b", want: true},
		{name: "regexp", c: Constraint{Op: OpRegexp, Expr: "^k.*d$"}, affinity: Text, value: "kthreadd", want: true},
		{name: "invalid regexp keeps row", c: Constraint{Op: OpMatch, Expr: "("}, affinity: Text, value: "x", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.c.Matches(tt.affinity, tt.value); got != tt.want {
				t.Errorf("Matches(%v, %q) = %v, want %v", tt.affinity, tt.value, got, tt.want)
			}
		})
	}
}

func TestConstraintListHelpers(t *testing.T) {
	cl := &ConstraintList{Affinity: BigInt}
	cl.Add(Constraint{Op: OpEQ, Expr: "1"})
	cl.Add(Constraint{Op: OpGT, Expr: "0"})
	cl.Add(Constraint{Op: OpEQ, Expr: "2"})

	if !cl.Exists(OpEQ) {
		t.Error("Exists(EQ) = false, want true")
	}
	if cl.Exists(OpLike) {
		t.Error("Exists(LIKE) = true, want false")
	}

	got := cl.GetAll(OpEQ)
	if len(got) != 2 || got[0] != "1" || got[1] != "2" {
		t.Errorf("GetAll(EQ) = %v, want [1 2]", got)
	}

	// 1 = 1 and 1 > 0 but 1 != 2, so nothing matches both equalities.
	if cl.Matches("1") {
		t.Error("Matches(1) = true, want false")
	}

	var empty *ConstraintList
	if !empty.Matches("anything") {
		t.Error("nil list should match everything")
	}
	if empty.Len() != 0 {
		t.Errorf("nil list Len() = %d, want 0", empty.Len())
	}
}

func TestConstraintListCompilesPatternsOnce(t *testing.T) {
	cl := &ConstraintList{Affinity: Text}
	cl.Add(Constraint{Op: OpLike, Expr: "k%"})
	cl.Add(Constraint{Op: OpRegexp, Expr: "("})
	cl.Add(Constraint{Op: OpNE, Expr: "kswapd"})

	for _, value := range []string{"kworker", "kthreadd", "ksoftirqd"} {
		if !cl.Matches(value) {
			t.Errorf("Matches(%q) = false, want true", value)
		}
	}
	if cl.Matches("bash") {
		t.Error("Matches(bash) = true, want false")
	}
	if cl.Matches("kswapd") {
		t.Error("Matches(kswapd) = true, want false")
	}
	if len(cl.patterns) != 2 {
		t.Errorf("compiled %d patterns, want 2", len(cl.patterns))
	}
	re := cl.patterns[Constraint{Op: OpLike, Expr: "k%"}].re
	cl.Matches("kworker")
	if cl.patterns[Constraint{Op: OpLike, Expr: "k%"}].re != re {
		t.Error("pattern was recompiled")
	}
}

func TestConstraintSetPositionalBinding(t *testing.T) {
	schema := Schema{
		{Name: "pid", Type: BigInt},
		{Name: "name", Type: Text},
		{Name: "threads", Type: Integer},
	}

	var set ConstraintSet
	positions := []int{
		set.Propose("name", OpEQ),
		set.Propose("pid", OpGT),
		set.Propose("name", OpLike),
	}
	for i, pos := range positions {
		if pos != i+1 {
			t.Fatalf("position %d = %d, want %d", i, pos, i+1)
		}
	}

	for i, lit := range []string{"a", "b", "c"} {
		if err := set.Bind(i+1, lit); err != nil {
			t.Fatalf("Bind(%d) error = %v", i+1, err)
		}
	}

	want := []ColumnConstraint{
		{Column: "name", Constraint: Constraint{Op: OpEQ, Expr: "a"}},
		{Column: "pid", Constraint: Constraint{Op: OpGT, Expr: "b"}},
		{Column: "name", Constraint: Constraint{Op: OpLike, Expr: "c"}},
	}
	if set.Len() != len(want) {
		t.Fatalf("Len() = %d, want %d", set.Len(), len(want))
	}
	for i, w := range want {
		if got := set.At(i); got != w {
			t.Errorf("At(%d) = %+v, want %+v", i, got, w)
		}
	}

	qc := set.QueryContext(schema)
	if got := qc.GetAll("name", OpEQ); len(got) != 1 || got[0] != "a" {
		t.Errorf("name EQ = %v, want [a]", got)
	}
	if got := qc.GetAll("name", OpLike); len(got) != 1 || got[0] != "c" {
		t.Errorf("name LIKE = %v, want [c]", got)
	}
	if got := qc.Constraints("pid"); got.Affinity != BigInt || got.Len() != 1 {
		t.Errorf("pid constraints = %+v, want one BIGINT constraint", got)
	}
	if got := qc.Constraints("threads"); got == nil || got.Len() != 0 || got.Affinity != Integer {
		t.Errorf("threads constraints = %+v, want empty INTEGER list", got)
	}
}

func TestConstraintSetBindOutOfRange(t *testing.T) {
	var set ConstraintSet
	set.Propose("name", OpEQ)

	for _, pos := range []int{0, 2, -1} {
		if err := set.Bind(pos, "x"); !errors.Is(err, ErrPositionOutOfRange) {
			t.Errorf("Bind(%d) error = %v, want ErrPositionOutOfRange", pos, err)
		}
	}

	set.Reset()
	if set.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", set.Len())
	}
}

func TestQueryContextMatches(t *testing.T) {
	schema := Schema{{Name: "pid", Type: BigInt}, {Name: "name", Type: Text}}
	qc := NewQueryContext(schema)
	qc.Add("pid", Constraint{Op: OpGE, Expr: "10"})
	qc.Add("name", Constraint{Op: OpLike, Expr: "k%"})

	tests := []struct {
		row  Row
		want bool
	}{
		{row: Row{"pid": "12", "name": "kworker"}, want: true},
		{row: Row{"pid": "2", "name": "kthreadd"}, want: false},
		{row: Row{"pid": "12", "name": "bash"}, want: false},
	}
	for _, tt := range tests {
		if got := qc.Matches(tt.row); got != tt.want {
			t.Errorf("Matches(%v) = %v, want %v", tt.row, got, tt.want)
		}
	}

	if got := qc.Columns(); len(got) != 2 || got[0] != "name" || got[1] != "pid" {
		t.Errorf("Columns() = %v, want [name pid]", got)
	}
}
