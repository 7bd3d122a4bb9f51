// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ir_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/gx-org/tensorfuse/build/shapeerr"
	"github.com/pkg/errors"
)

func exprs(xs ...ir.Expr) []ir.Expr {
	return xs
}

func TestExprString(t *testing.T) {
	tests := []struct {
		expr ir.Expr
		want string
	}{
		{
			expr: ir.Add(ir.Var("a"), ir.Int(1)),
			want: "(a + 1)",
		},
		{
			expr: ir.Max(ir.Var("x"), ir.Float(dtype.Float32, 0)),
			want: "max(x, 0.0)",
		},
		{
			expr: ir.Neg(ir.Exp(ir.Var("x"))),
			want: "-exp(x)",
		},
		{
			expr: ir.Float(dtype.Float64, 0.5),
			want: "0.5",
		},
		{
			expr: ir.Bool(true),
			want: "true",
		},
		{
			expr: ir.MustLoad(ir.Var("x"), exprs(ir.Var("ax0")), exprs(ir.Int(1))),
			want: "x[ax0]",
		},
		{
			expr: ir.MustLoad(ir.Var("x"),
				exprs(ir.Var("ax0"), ir.Var("ax1")),
				exprs(ir.Var("m"), ir.Int(1))),
			want: "x[ax0, ax1; m, 1]",
		},
		{
			expr: ir.None,
			want: "none",
		},
	}
	for i, test := range tests {
		got := test.expr.String()
		if got != test.want {
			t.Errorf("test %d: got %q but want %q", i, got, test.want)
		}
	}
}

func TestStmtString(t *testing.T) {
	ax0 := ir.Range(ir.Var("n"), "ax0")
	load := ir.MustLoad(ir.Var("x"), exprs(ax0.Var()), exprs(ir.Int(1)))
	store := ir.MustStore(ir.Var("y"), exprs(ax0.Var()), exprs(ir.Int(1)), ir.Exp(ir.Var("x_val")))
	tests := []struct {
		stmt ir.Stmt
		want string
	}{
		{
			stmt: ax0.Loop(ir.NewSeq(ir.Let(ir.Var("x_val"), load), store)),
			want: `for ax0 in [0, n) {
	let x_val = x[ax0]
	y[ax0] = exp(x_val)
}`,
		},
		{
			stmt: ir.NewSeq(
				ir.LetMut(ir.Var("acc"), ir.Int(0)),
				ir.Accum(ir.Var("acc"), ir.OpAdd, ir.Var("v")),
				ir.Accum(ir.Var("acc"), ir.OpMax, ir.Var("w")),
			),
			want: `let mut acc = 0
acc += v
acc = max(acc, w)`,
		},
		{
			stmt: ir.IfThen(ir.Binary(ir.OpLt, ir.Var("i"), ir.Int(2)), store, ir.NoStmt),
			want: `if (i < 2) {
	y[ax0] = exp(x_val)
}`,
		},
		{
			stmt: ir.LetIn(ir.Var("a"), ir.Int(1), store),
			want: `let a = 1 in {
	y[ax0] = exp(x_val)
}`,
		},
	}
	for i, test := range tests {
		got := test.stmt.String()
		if diff := cmp.Diff(got, test.want); diff != "" {
			t.Errorf("test %d: unexpected string:\n%s\ndiff:\n%s", i, got, diff)
		}
	}
}

func TestLoadStoreNdimMismatch(t *testing.T) {
	_, err := ir.NewLoad(ir.Var("x"), exprs(ir.Var("ax0"), ir.Var("ax1")), exprs(ir.Int(1)))
	var ndimErr *shapeerr.NdimMismatched
	if !errors.As(err, &ndimErr) {
		t.Fatalf("got error %v but want a %T", err, ndimErr)
	}
	if ndimErr.Expected != 2 || ndimErr.Actual != 1 {
		t.Errorf("got %v but want expected=2 actual=1", ndimErr)
	}
	if _, err := ir.NewStore(ir.Var("x"), nil, exprs(ir.Int(1)), ir.Int(0)); !errors.As(err, &ndimErr) {
		t.Errorf("got error %v but want a %T", err, ndimErr)
	}
}

func TestEqualAndKey(t *testing.T) {
	tests := []struct {
		x, y  ir.Expr
		equal bool
	}{
		{x: ir.Var("a"), y: ir.Var("a"), equal: true},
		{x: ir.Var("a"), y: ir.Var("b"), equal: false},
		{x: ir.Int(1), y: ir.IntT(dtype.Int32, 1), equal: false},
		{x: ir.Float(dtype.Float32, 0), y: ir.Float(dtype.Float32, math.Copysign(0, -1)), equal: false},
		{x: ir.Add(ir.Var("a"), ir.Int(1)), y: ir.Add(ir.Var("a"), ir.Int(1)), equal: true},
		{x: ir.Add(ir.Var("a"), ir.Int(1)), y: ir.Sub(ir.Var("a"), ir.Int(1)), equal: false},
		{x: ir.Add(ir.Var("a"), ir.Int(1)), y: ir.Add(ir.Int(1), ir.Var("a")), equal: false},
		{
			x:     ir.MustLoad(ir.Var("x"), exprs(ir.Var("i")), exprs(ir.Int(1))),
			y:     ir.MustLoad(ir.Var("x"), exprs(ir.Var("i")), exprs(ir.Int(1))),
			equal: true,
		},
		{
			x:     ir.MustLoad(ir.Var("x"), exprs(ir.Var("i")), exprs(ir.Int(1))),
			y:     ir.MustLoad(ir.Var("x"), exprs(ir.Var("i")), exprs(ir.Int(2))),
			equal: false,
		},
		{x: ir.Var("1"), y: ir.Int(1), equal: false},
		{x: ir.None, y: nil, equal: true},
	}
	for i, test := range tests {
		if got := ir.Equal(test.x, test.y); got != test.equal {
			t.Errorf("test %d: Equal(%s, %s) = %t but want %t", i, test.x, test.y, got, test.equal)
		}
		if got := ir.Key(test.x) == ir.Key(test.y); got != test.equal {
			t.Errorf("test %d: Key(%s) == Key(%s) is %t but want %t", i, test.x, test.y, got, test.equal)
		}
	}
}

func TestEqualStmt(t *testing.T) {
	build := func(end int64) ir.Stmt {
		iv := ir.Range(ir.Int(end), "i")
		return iv.Loop(ir.Let(ir.Var("a"), iv.Var()))
	}
	if !ir.EqualStmt(build(4), build(4)) {
		t.Errorf("statements should be equal")
	}
	if ir.EqualStmt(build(4), build(5)) {
		t.Errorf("statements should not be equal")
	}
	if ir.EqualStmt(ir.Let(ir.Var("a"), ir.Int(0)), ir.LetMut(ir.Var("a"), ir.Int(0))) {
		t.Errorf("let and let mut should not be equal")
	}
}

func TestConstFold(t *testing.T) {
	n, m := ir.Var("n"), ir.Var("m")
	tests := []struct {
		expr ir.Expr
		want ir.Expr
	}{
		{expr: ir.Add(ir.Int(2), ir.Int(3)), want: ir.Int(5)},
		{expr: ir.Mul(n, ir.Int(1)), want: n},
		{expr: ir.Add(ir.Mul(ir.Int(0), n), m), want: m},
		{expr: ir.Div(ir.Int(1), ir.Int(0)), want: ir.Div(ir.Int(1), ir.Int(0))},
		{expr: ir.Max(ir.Float(dtype.Float32, 1), ir.Float(dtype.Float32, 2)), want: ir.Float(dtype.Float32, 2)},
		{expr: ir.Binary(ir.OpLt, ir.Int(1), ir.Int(2)), want: ir.Bool(true)},
		{expr: ir.Neg(ir.Int(3)), want: ir.Int(-3)},
		{expr: ir.Cast(dtype.Float64, ir.Int(3)), want: ir.Float(dtype.Float64, 3)},
		{expr: ir.Mul(ir.Float(dtype.Float32, 0), n), want: ir.Mul(ir.Float(dtype.Float32, 0), n)},
	}
	for i, test := range tests {
		got := ir.Simplify(test.expr)
		if !ir.Equal(got, test.want) {
			t.Errorf("test %d: Simplify(%s) = %s but want %s", i, test.expr, got, test.want)
		}
	}
}

func TestMutateUnchangedReturnsOriginal(t *testing.T) {
	expr := ir.Add(ir.Var("a"), ir.MustLoad(ir.Var("x"), exprs(ir.Var("i")), exprs(ir.Var("s"))))
	if got := ir.Simplify(expr); got != ir.Expr(expr) {
		t.Errorf("expression without constants has been rebuilt")
	}
	stmt := ir.NewSeq(
		ir.Let(ir.Var("v"), expr),
		ir.Range(ir.Var("n"), "i").Loop(ir.Accum(ir.Var("v"), ir.OpAdd, ir.Var("i"))),
	)
	if got := (ir.ConstFold{}).MutateStmt(stmt); got != ir.Stmt(stmt) {
		t.Errorf("statement without constants has been rebuilt")
	}
	folded := ir.NewSeq(stmt.Stmts[0], ir.Let(ir.Var("w"), ir.Add(ir.Int(1), ir.Int(1))))
	got := (ir.ConstFold{}).MutateStmt(folded).(*ir.Seq)
	if got == folded {
		t.Fatalf("statement with constants has not been rebuilt")
	}
	if got.Stmts[0] != folded.Stmts[0] {
		t.Errorf("unchanged statement has been rebuilt")
	}
	if want := "let w = 2"; got.Stmts[1].String() != want {
		t.Errorf("got %s but want %s", got.Stmts[1], want)
	}
}

func TestEvalInt(t *testing.T) {
	env := ir.Env{"n": 3, "m": 5}
	tests := []struct {
		expr ir.Expr
		want int64
		err  bool
	}{
		{expr: ir.Add(ir.Mul(ir.Var("n"), ir.Int(4)), ir.Int(1)), want: 13},
		{expr: ir.Max(ir.Var("n"), ir.Var("m")), want: 5},
		{expr: ir.Mod(ir.Var("m"), ir.Var("n")), want: 2},
		{expr: ir.Var("k"), err: true},
		{expr: ir.Div(ir.Var("n"), ir.Int(0)), err: true},
		{expr: ir.Float(dtype.Float32, 1), err: true},
		{expr: ir.MustLoad(ir.Var("x"), nil, nil), err: true},
	}
	for i, test := range tests {
		got, err := ir.EvalInt(test.expr, env)
		if test.err {
			if err == nil {
				t.Errorf("test %d: expected an error evaluating %s", i, test.expr)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d: %+v", i, err)
			continue
		}
		if got != test.want {
			t.Errorf("test %d: EvalInt(%s) = %d but want %d", i, test.expr, got, test.want)
		}
	}
}

func TestIterVar(t *testing.T) {
	iv := ir.Range(ir.Var("n"), "ax0")
	if got, want := iv.String(), "ax0 in [0, n)"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	stepped := ir.NewIterVar(ir.Int(0), ir.Int(10), ir.Int(2), "i")
	if got, want := stepped.String(), "i in [0, 10) step 2"; got != want {
		t.Errorf("got %q but want %q", got, want)
	}
	if iv.HasZeroStep() || stepped.HasZeroStep() {
		t.Errorf("iteration variables do not have a zero step")
	}
	// Construction never validates the range.
	if zero := ir.NewIterVar(ir.Int(5), ir.Int(0), ir.Int(0), "z"); !zero.HasZeroStep() {
		t.Errorf("%s has a zero step", zero)
	}
	nest := ir.Nest([]*ir.IterVar{iv, ir.Range(ir.Var("m"), "ax1")}, ir.Let(ir.Var("a"), ir.Var("ax1")))
	want := `for ax0 in [0, n) {
	for ax1 in [0, m) {
		let a = ax1
	}
}`
	if diff := cmp.Diff(nest.String(), want); diff != "" {
		t.Errorf("unexpected loop nest:\n%s", diff)
	}
}
