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

package subst_test

import (
	"testing"

	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/gx-org/tensorfuse/build/ir/subst"
)

func exprs(xs ...ir.Expr) []ir.Expr {
	return xs
}

func TestNewIsNeutral(t *testing.T) {
	v := subst.New()
	expr := ir.Add(ir.Var("a"), ir.Int(1))
	if got := v.MutateExpr(expr); got != ir.Expr(expr) {
		t.Errorf("got %s but want the original expression", got)
	}
	stmt := ir.Let(ir.Var("b"), expr)
	if got := v.MutateStmt(stmt); got != ir.Stmt(stmt) {
		t.Errorf("got %s but want the original statement", got)
	}
	if v.Len() != 0 {
		t.Errorf("got %d replacements but want 0", v.Len())
	}
}

func TestSubstitution(t *testing.T) {
	strides := ir.MustLoad(ir.Var("%1.s"), exprs(ir.Int(0)), exprs(ir.Int(1)))
	tests := []struct {
		find, replace ir.Expr
		expr          ir.Expr
		want          string
	}{
		{
			find:    ir.Var("a"),
			replace: ir.Var("b"),
			expr:    ir.Add(ir.Var("a"), ir.Mul(ir.Var("a"), ir.Var("c"))),
			want:    "(b + (b * c))",
		},
		{
			find:    ir.Add(ir.Var("a"), ir.Int(1)),
			replace: ir.Var("a1"),
			expr:    ir.Mul(ir.Add(ir.Var("a"), ir.Int(1)), ir.Add(ir.Var("a"), ir.Int(2))),
			want:    "(a1 * (a + 2))",
		},
		{
			find:    strides,
			replace: ir.MustLoad(ir.Var("%3.s"), exprs(ir.Int(2)), exprs(ir.Int(1))),
			expr: ir.MustLoad(ir.Var("%1"),
				exprs(ir.Var("ax0")),
				exprs(ir.MustLoad(ir.Var("%1.s"), exprs(ir.Int(0)), exprs(ir.Int(1))))),
			want: "%1[ax0; %3.s[2]]",
		},
		{
			find:    ir.Var("%1.s"),
			replace: ir.Var("%2.s"),
			expr:    ir.MustLoad(ir.Var("%0"), exprs(ir.Var("ax0")), exprs(strides)),
			want:    "%0[ax0; %2.s[0]]",
		},
		{
			find:    ir.Int(3),
			replace: ir.Int(4),
			expr:    ir.Add(ir.Int(3), ir.Var("x")),
			want:    "(4 + x)",
		},
	}
	for i, test := range tests {
		v := subst.New()
		v.AddReplacement(test.find, test.replace)
		got := v.MutateExpr(test.expr)
		if got.String() != test.want {
			t.Errorf("test %d: got %s but want %s", i, got, test.want)
		}
	}
}

func TestSubstitutionIsSinglePass(t *testing.T) {
	v := subst.New()
	a := ir.Var("a")
	v.AddReplacement(a, ir.Add(a, ir.Int(1)))
	got := v.MutateExpr(ir.Mul(a, a))
	if want := "((a + 1) * (a + 1))"; got.String() != want {
		t.Errorf("got %s but want %s", got, want)
	}
	got = v.MutateExpr(got)
	if want := "(((a + 1) + 1) * ((a + 1) + 1))"; got.String() != want {
		t.Errorf("got %s but want %s", got, want)
	}
}

func TestSubstitutionSharesUnchangedSubtrees(t *testing.T) {
	unchanged := ir.Mul(ir.Var("c"), ir.Var("d"))
	expr := ir.Add(ir.Var("a"), unchanged)
	v := subst.New()
	v.AddReplacement(ir.Var("a"), ir.Var("b"))
	got, ok := v.MutateExpr(expr).(*ir.BinaryOp)
	if !ok {
		t.Fatalf("got %T but want %T", got, expr)
	}
	if got == expr {
		t.Errorf("expression has not been rebuilt")
	}
	if got.Y != ir.Expr(unchanged) {
		t.Errorf("unchanged subtree has been rebuilt")
	}
	if expr.X.String() != "a" {
		t.Errorf("input expression has been modified: %s", expr)
	}
}

func TestAddReplacementOverwrites(t *testing.T) {
	v := subst.New()
	v.AddReplacement(ir.Var("a"), ir.Var("b"))
	v.AddReplacement(ir.Var("a"), ir.Var("c"))
	if v.Len() != 1 {
		t.Errorf("got %d replacements but want 1", v.Len())
	}
	if got := v.MutateExpr(ir.Var("a")); got.String() != "c" {
		t.Errorf("got %s but want c", got)
	}
}

func TestMutateStmt(t *testing.T) {
	ax0 := ir.Range(ir.Var("n"), "ax0")
	load := ir.MustLoad(ir.Var("%0"), exprs(ax0.Var()), exprs(ir.Var("%0.s")))
	stmt := ax0.Loop(ir.NewSeq(
		ir.Let(ir.Var("%0_val"), load),
		ir.Let(ir.Var("%1_val"), ir.Exp(ir.Var("%0_val"))),
		ir.Accum(ir.Var("acc"), ir.OpAdd, ir.Var("%1_val")),
	))
	tests := []struct {
		find, replace ir.Expr
		want          string
	}{
		{
			find:    ir.Var("ax0"),
			replace: ir.Var("ax1"),
			want: `for ax1 in [0, n) {
	let %0_val = %0[ax1; %0.s]
	let %1_val = exp(%0_val)
	acc += %1_val
}`,
		},
		{
			find:    ir.Var("%0.s"),
			replace: ir.Var("%1.s"),
			want: `for ax0 in [0, n) {
	let %0_val = %0[ax0; %1.s]
	let %1_val = exp(%0_val)
	acc += %1_val
}`,
		},
		{
			// Binders are not replaced by non-variable expressions.
			find:    ir.Var("acc"),
			replace: ir.Int(0),
			want: `for ax0 in [0, n) {
	let %0_val = %0[ax0; %0.s]
	let %1_val = exp(%0_val)
	acc += %1_val
}`,
		},
	}
	for i, test := range tests {
		v := subst.New()
		v.AddReplacement(test.find, test.replace)
		got := v.MutateStmt(stmt)
		if got.String() != test.want {
			t.Errorf("test %d: got\n%s\nbut want\n%s", i, got, test.want)
		}
	}
}

func TestMutateStmtsSharesUnchangedStatements(t *testing.T) {
	first := ir.Let(ir.Var("x"), ir.Int(1))
	second := ir.Let(ir.Var("y"), ir.Var("z"))
	v := subst.New()
	v.AddReplacement(ir.Var("z"), ir.Var("x"))
	got := v.MutateStmts([]ir.Stmt{first, second})
	if got[0] != ir.Stmt(first) {
		t.Errorf("unchanged statement has been rebuilt")
	}
	if got[1].String() != "let y = x" {
		t.Errorf("got %s but want let y = x", got[1])
	}
}
