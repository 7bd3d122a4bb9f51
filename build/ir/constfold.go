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

import (
	"math"

	"github.com/gx-org/backend/dtype"
)

// ConstFold folds operations on constants and removes identity
// operations on integer operands (x+0, x*1, x*0, x/1).
type ConstFold struct{}

var _ Mutator = ConstFold{}

// Simplify folds the constants of an expression.
func Simplify(x Expr) Expr {
	return ConstFold{}.MutateExpr(x)
}

// MutateExpr folds the constants in an expression.
func (f ConstFold) MutateExpr(x Expr) Expr {
	x = MutateExprChildren(f, x)
	switch xT := x.(type) {
	case *BinaryOp:
		return foldBinary(xT)
	case *UnaryOp:
		return foldUnary(xT)
	}
	return x
}

// MutateStmt folds the constants in all the expressions of a statement.
func (f ConstFold) MutateStmt(s Stmt) Stmt {
	return MutateStmtChildren(f, s)
}

func isIntConst(x Expr, v int64) bool {
	c, ok := x.(*Constant)
	return ok && IsInteger(c.DType) && c.Int == v
}

func foldBinary(b *BinaryOp) Expr {
	cx, xOk := b.X.(*Constant)
	cy, yOk := b.Y.(*Constant)
	if xOk && yOk {
		if folded := foldConstants(b.Op, cx, cy); folded != nil {
			return folded
		}
		return b
	}
	switch b.Op {
	case OpAdd:
		if isIntConst(b.Y, 0) {
			return b.X
		}
		if isIntConst(b.X, 0) {
			return b.Y
		}
	case OpSub:
		if isIntConst(b.Y, 0) {
			return b.X
		}
	case OpMul:
		if isIntConst(b.Y, 1) {
			return b.X
		}
		if isIntConst(b.X, 1) {
			return b.Y
		}
		if isIntConst(b.X, 0) {
			return b.X
		}
		if isIntConst(b.Y, 0) {
			return b.Y
		}
	case OpDiv:
		if isIntConst(b.Y, 1) {
			return b.X
		}
	}
	return b
}

func foldConstants(op BinOp, x, y *Constant) *Constant {
	if op.IsComparison() {
		return foldComparison(op, x, y)
	}
	dt := Promote(x.DType, y.DType)
	if IsFloat(dt) {
		xv, yv := x.Value(), y.Value()
		var v float64
		switch op {
		case OpAdd:
			v = xv + yv
		case OpSub:
			v = xv - yv
		case OpMul:
			v = xv * yv
		case OpDiv:
			v = xv / yv
		case OpMod:
			v = math.Mod(xv, yv)
		case OpMax:
			v = math.Max(xv, yv)
		case OpMin:
			v = math.Min(xv, yv)
		default:
			return nil
		}
		return Float(dt, roundFloat(dt, v))
	}
	xv, yv := x.Int, y.Int
	var v int64
	switch op {
	case OpAdd:
		v = xv + yv
	case OpSub:
		v = xv - yv
	case OpMul:
		v = xv * yv
	case OpDiv:
		if yv == 0 {
			return nil
		}
		v = xv / yv
	case OpMod:
		if yv == 0 {
			return nil
		}
		v = xv % yv
	case OpMax:
		v = max(xv, yv)
	case OpMin:
		v = min(xv, yv)
	default:
		return nil
	}
	return IntT(dt, v)
}

func foldComparison(op BinOp, x, y *Constant) *Constant {
	xv, yv := x.Value(), y.Value()
	switch op {
	case OpEq:
		return Bool(xv == yv)
	case OpNe:
		return Bool(xv != yv)
	case OpLt:
		return Bool(xv < yv)
	case OpLe:
		return Bool(xv <= yv)
	case OpGt:
		return Bool(xv > yv)
	case OpGe:
		return Bool(xv >= yv)
	case OpAnd:
		return Bool(xv != 0 && yv != 0)
	case OpOr:
		return Bool(xv != 0 || yv != 0)
	}
	return nil
}

func roundFloat(dt dtype.DataType, v float64) float64 {
	if dt == dtype.Float32 {
		return float64(float32(v))
	}
	return v
}

var floatIntrinsics = map[UnOp]func(float64) float64{
	OpExp:   math.Exp,
	OpLog:   math.Log,
	OpSqrt:  math.Sqrt,
	OpSin:   math.Sin,
	OpCos:   math.Cos,
	OpTanh:  math.Tanh,
	OpAbs:   math.Abs,
	OpFloor: math.Floor,
}

func foldUnary(u *UnaryOp) Expr {
	c, ok := u.X.(*Constant)
	if !ok {
		return u
	}
	switch u.Op {
	case OpNeg:
		if c.IsFloat() {
			return Float(c.DType, -c.Float)
		}
		return IntT(c.DType, -c.Int)
	case OpNot:
		return Bool(c.Int == 0)
	case OpCast:
		return Const(u.DType, roundFloat(u.DType, c.Value()))
	case OpAbs:
		if !c.IsFloat() {
			if c.Int < 0 {
				return IntT(c.DType, -c.Int)
			}
			return c
		}
	}
	fn := floatIntrinsics[u.Op]
	if fn == nil || !c.IsFloat() {
		return u
	}
	return Float(c.DType, roundFloat(c.DType, fn(c.Float)))
}
