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

package ir

// Mutator rewrites expressions and statements.
type Mutator interface {
	MutateExpr(Expr) Expr
	MutateStmt(Stmt) Stmt
}

func mutateExprs(m Mutator, xs []Expr) ([]Expr, bool) {
	var out []Expr
	for i, x := range xs {
		y := m.MutateExpr(x)
		if y == x && out == nil {
			continue
		}
		if out == nil {
			out = make([]Expr, len(xs))
			copy(out, xs[:i])
		}
		out[i] = y
	}
	if out == nil {
		return xs, false
	}
	return out, true
}

// mutateBinder applies a mutator to a variable in a binding position.
// The variable is only replaced by another variable.
func mutateBinder(m Mutator, v *Variable) *Variable {
	if v == nil {
		return nil
	}
	nv, ok := m.MutateExpr(v).(*Variable)
	if !ok {
		return v
	}
	return nv
}

// MutateExprChildren applies a mutator to the children of an expression.
// A new node is returned only if at least one child changed.
// Otherwise, the expression passed as an argument is returned.
func MutateExprChildren(m Mutator, x Expr) Expr {
	switch xT := x.(type) {
	case *BinaryOp:
		lhs, rhs := m.MutateExpr(xT.X), m.MutateExpr(xT.Y)
		if lhs == xT.X && rhs == xT.Y {
			return x
		}
		return &BinaryOp{Op: xT.Op, X: lhs, Y: rhs}
	case *UnaryOp:
		arg := m.MutateExpr(xT.X)
		if arg == xT.X {
			return x
		}
		return &UnaryOp{Op: xT.Op, X: arg, DType: xT.DType}
	case *Load:
		buf := m.MutateExpr(xT.Buf)
		indices, iChanged := mutateExprs(m, xT.Indices)
		strides, sChanged := mutateExprs(m, xT.Strides)
		if buf == xT.Buf && !iChanged && !sChanged {
			return x
		}
		return &Load{Buf: buf, Indices: indices, Strides: strides}
	}
	return x
}

// MutateStmtChildren applies a mutator to the children of a statement.
// A new node is returned only if at least one child changed.
// Otherwise, the statement passed as an argument is returned.
func MutateStmtChildren(m Mutator, s Stmt) Stmt {
	switch sT := s.(type) {
	case *LetStmt:
		v := mutateBinder(m, sT.Var)
		value := m.MutateExpr(sT.Value)
		body := sT.Body
		if !IsNoStmt(body) {
			body = m.MutateStmt(body)
		}
		if v == sT.Var && value == sT.Value && body == sT.Body {
			return s
		}
		return &LetStmt{Var: v, Value: value, Mutable: sT.Mutable, Body: body}
	case *StoreStmt:
		buf := m.MutateExpr(sT.Buf)
		indices, iChanged := mutateExprs(m, sT.Indices)
		strides, sChanged := mutateExprs(m, sT.Strides)
		value := m.MutateExpr(sT.Value)
		if buf == sT.Buf && !iChanged && !sChanged && value == sT.Value {
			return s
		}
		return &StoreStmt{Buf: buf, Indices: indices, Strides: strides, Value: value}
	case *For:
		v := mutateBinder(m, sT.Var)
		start, end, step := m.MutateExpr(sT.Start), m.MutateExpr(sT.End), m.MutateExpr(sT.Step)
		body := m.MutateStmt(sT.Body)
		if v == sT.Var && start == sT.Start && end == sT.End && step == sT.Step && body == sT.Body {
			return s
		}
		return &For{Var: v, Start: start, End: end, Step: step, Body: body}
	case *If:
		cond := m.MutateExpr(sT.Cond)
		then := m.MutateStmt(sT.Then)
		els := sT.Else
		if !IsNoStmt(els) {
			els = m.MutateStmt(els)
		}
		if cond == sT.Cond && then == sT.Then && els == sT.Else {
			return s
		}
		return &If{Cond: cond, Then: then, Else: els}
	case *Seq:
		stmts, changed := mutateStmts(m, sT.Stmts)
		if !changed {
			return s
		}
		return &Seq{Stmts: stmts}
	case *AccumStmt:
		v := mutateBinder(m, sT.Var)
		value := m.MutateExpr(sT.Value)
		if v == sT.Var && value == sT.Value {
			return s
		}
		return &AccumStmt{Var: v, Op: sT.Op, Value: value}
	}
	return s
}

// MutateStmts applies a mutator to a list of statements.
// The original slice is returned if no statement changed.
func MutateStmts(m Mutator, stmts []Stmt) []Stmt {
	out, _ := mutateStmts(m, stmts)
	return out
}

func mutateStmts(m Mutator, stmts []Stmt) ([]Stmt, bool) {
	var out []Stmt
	for i, stmt := range stmts {
		ns := m.MutateStmt(stmt)
		if ns == stmt && out == nil {
			continue
		}
		if out == nil {
			out = make([]Stmt, len(stmts))
			copy(out, stmts[:i])
		}
		out[i] = ns
	}
	if out == nil {
		return stmts, false
	}
	return out, true
}
