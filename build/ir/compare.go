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

import "math"

// Equal returns true if two expressions have the same structure.
func Equal(x, y Expr) bool {
	if x == y {
		return true
	}
	if IsNone(x) || IsNone(y) {
		return IsNone(x) && IsNone(y)
	}
	switch xT := x.(type) {
	case *Variable:
		yT, ok := y.(*Variable)
		return ok && xT.Name == yT.Name
	case *Constant:
		yT, ok := y.(*Constant)
		return ok && xT.DType == yT.DType && xT.Int == yT.Int &&
			math.Float64bits(xT.Float) == math.Float64bits(yT.Float)
	case *BinaryOp:
		yT, ok := y.(*BinaryOp)
		return ok && xT.Op == yT.Op && Equal(xT.X, yT.X) && Equal(xT.Y, yT.Y)
	case *UnaryOp:
		yT, ok := y.(*UnaryOp)
		if !ok || xT.Op != yT.Op || !Equal(xT.X, yT.X) {
			return false
		}
		return xT.Op != OpCast || xT.DType == yT.DType
	case *Load:
		yT, ok := y.(*Load)
		return ok && Equal(xT.Buf, yT.Buf) &&
			EqualExprs(xT.Indices, yT.Indices) &&
			EqualExprs(xT.Strides, yT.Strides)
	}
	return false
}

// EqualExprs returns true if two lists of expressions are equal element by element.
func EqualExprs(xs, ys []Expr) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i, x := range xs {
		if !Equal(x, ys[i]) {
			return false
		}
	}
	return true
}

// EqualStmt returns true if two statements have the same structure.
func EqualStmt(x, y Stmt) bool {
	if x == y {
		return true
	}
	if IsNoStmt(x) || IsNoStmt(y) {
		return IsNoStmt(x) && IsNoStmt(y)
	}
	switch xT := x.(type) {
	case *LetStmt:
		yT, ok := y.(*LetStmt)
		return ok && xT.Mutable == yT.Mutable && Equal(xT.Var, yT.Var) &&
			Equal(xT.Value, yT.Value) && EqualStmt(xT.Body, yT.Body)
	case *StoreStmt:
		yT, ok := y.(*StoreStmt)
		return ok && Equal(xT.Buf, yT.Buf) &&
			EqualExprs(xT.Indices, yT.Indices) &&
			EqualExprs(xT.Strides, yT.Strides) &&
			Equal(xT.Value, yT.Value)
	case *For:
		yT, ok := y.(*For)
		return ok && Equal(xT.Var, yT.Var) &&
			Equal(xT.Start, yT.Start) && Equal(xT.End, yT.End) && Equal(xT.Step, yT.Step) &&
			EqualStmt(xT.Body, yT.Body)
	case *If:
		yT, ok := y.(*If)
		return ok && Equal(xT.Cond, yT.Cond) && EqualStmt(xT.Then, yT.Then) && EqualStmt(xT.Else, yT.Else)
	case *Seq:
		yT, ok := y.(*Seq)
		if !ok || len(xT.Stmts) != len(yT.Stmts) {
			return false
		}
		for i, s := range xT.Stmts {
			if !EqualStmt(s, yT.Stmts[i]) {
				return false
			}
		}
		return true
	case *AccumStmt:
		yT, ok := y.(*AccumStmt)
		return ok && xT.Op == yT.Op && Equal(xT.Var, yT.Var) && Equal(xT.Value, yT.Value)
	}
	return false
}
