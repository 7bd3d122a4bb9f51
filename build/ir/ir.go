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

// Package ir is the loop-nest intermediate representation.
//
// The tree is made of expressions, which are immutable values compared by
// structure, and statements describing the body of a loop nest: bindings,
// stores, loops, conditionals and sequences. Trees are rewritten by building
// new nodes; unchanged subtrees are shared between the old and the new tree.
package ir

import (
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorfuse/build/shapeerr"
)

// ----------------------------------------------------------------------------
// Types of node in the tree.
type (
	// Node in the tree.
	Node interface {
		// node marks a structure as a node structure.
		// It prevents external implementations of the interface.
		node()
		String() string
	}

	// Expr is a scalar or index expression.
	Expr interface {
		Node
		expr()
	}

	// Stmt is a statement of a loop body.
	Stmt interface {
		Node
		stmt()
	}
)

// ----------------------------------------------------------------------------
// Expressions.
type (
	// NoneExpr is the absent expression.
	NoneExpr struct{}

	// Variable references a named value: a loop index, a let binding,
	// a buffer or a symbolic axis length.
	Variable struct {
		Name string
	}

	// Constant is a numeric literal.
	// Int holds the value of integer and boolean data types, Float the value of
	// floating point data types.
	Constant struct {
		DType dtype.DataType
		Int   int64
		Float float64
	}

	// BinaryOp applies a binary operator.
	BinaryOp struct {
		Op   BinOp
		X, Y Expr
	}

	// UnaryOp applies a unary operator or an intrinsic.
	// DType is the target type of a cast and is ignored otherwise.
	UnaryOp struct {
		Op    UnOp
		X     Expr
		DType dtype.DataType
	}

	// Load reads one element of a buffer.
	// The element offset is the sum of Indices[i]*Strides[i].
	Load struct {
		Buf     Expr
		Indices []Expr
		Strides []Expr
	}
)

// None is the absent expression.
var None Expr = NoneExpr{}

var (
	_ Expr = NoneExpr{}
	_ Expr = (*Variable)(nil)
	_ Expr = (*Constant)(nil)
	_ Expr = (*BinaryOp)(nil)
	_ Expr = (*UnaryOp)(nil)
	_ Expr = (*Load)(nil)
)

func (NoneExpr) node() {}
func (NoneExpr) expr() {}
func (*Variable) node() {}
func (*Variable) expr() {}
func (*Constant) node() {}
func (*Constant) expr() {}
func (*BinaryOp) node() {}
func (*BinaryOp) expr() {}
func (*UnaryOp) node() {}
func (*UnaryOp) expr() {}
func (*Load) node() {}
func (*Load) expr() {}

// IsNone returns true if the expression is absent.
func IsNone(x Expr) bool {
	if x == nil {
		return true
	}
	_, ok := x.(NoneExpr)
	return ok
}

// Var returns a variable given its name.
func Var(name string) *Variable {
	return &Variable{Name: name}
}

// Int returns a 64-bit integer constant.
func Int(v int64) *Constant {
	return &Constant{DType: IndexType, Int: v}
}

// IntT returns an integer constant of a given data type.
func IntT(dt dtype.DataType, v int64) *Constant {
	return &Constant{DType: dt, Int: v}
}

// Float returns a floating point constant of a given data type.
func Float(dt dtype.DataType, v float64) *Constant {
	return &Constant{DType: dt, Float: v}
}

// Bool returns a boolean constant.
func Bool(v bool) *Constant {
	c := &Constant{DType: dtype.Bool}
	if v {
		c.Int = 1
	}
	return c
}

// Const returns a constant of a given data type from a float value.
// The value is truncated for integer types.
func Const(dt dtype.DataType, v float64) *Constant {
	if IsFloat(dt) {
		return Float(dt, v)
	}
	if dt == dtype.Bool {
		return Bool(v != 0)
	}
	return IntT(dt, int64(v))
}

// Zero returns the zero constant of a data type.
func Zero(dt dtype.DataType) *Constant {
	return Const(dt, 0)
}

// One returns the constant one of a data type.
func One(dt dtype.DataType) *Constant {
	return Const(dt, 1)
}

// IsFloat returns true if the constant holds a floating point value.
func (c *Constant) IsFloat() bool {
	return IsFloat(c.DType)
}

// Value returns the value of the constant as a float.
func (c *Constant) Value() float64 {
	if c.IsFloat() {
		return c.Float
	}
	return float64(c.Int)
}

// Binary returns a binary operation.
func Binary(op BinOp, x, y Expr) *BinaryOp {
	return &BinaryOp{Op: op, X: x, Y: y}
}

// Add returns x + y.
func Add(x, y Expr) *BinaryOp { return Binary(OpAdd, x, y) }

// Sub returns x - y.
func Sub(x, y Expr) *BinaryOp { return Binary(OpSub, x, y) }

// Mul returns x * y.
func Mul(x, y Expr) *BinaryOp { return Binary(OpMul, x, y) }

// Div returns x / y.
func Div(x, y Expr) *BinaryOp { return Binary(OpDiv, x, y) }

// Mod returns x % y.
func Mod(x, y Expr) *BinaryOp { return Binary(OpMod, x, y) }

// Max returns max(x, y).
func Max(x, y Expr) *BinaryOp { return Binary(OpMax, x, y) }

// Min returns min(x, y).
func Min(x, y Expr) *BinaryOp { return Binary(OpMin, x, y) }

// Unary returns a unary operation.
func Unary(op UnOp, x Expr) *UnaryOp {
	return &UnaryOp{Op: op, X: x}
}

// Neg returns -x.
func Neg(x Expr) *UnaryOp { return Unary(OpNeg, x) }

// Exp returns exp(x).
func Exp(x Expr) *UnaryOp { return Unary(OpExp, x) }

// Cast converts x to a data type.
func Cast(dt dtype.DataType, x Expr) *UnaryOp {
	return &UnaryOp{Op: OpCast, X: x, DType: dt}
}

// NewLoad returns a load of buf at the given indices.
// It fails if the number of indices and strides differ.
func NewLoad(buf Expr, indices, strides []Expr) (*Load, error) {
	if err := shapeerr.CheckNdimMatch(len(strides), len(indices)); err != nil {
		return nil, err
	}
	return &Load{Buf: buf, Indices: indices, Strides: strides}, nil
}

// MustLoad is like NewLoad but panics if the number of indices and strides differ.
func MustLoad(buf Expr, indices, strides []Expr) *Load {
	l, err := NewLoad(buf, indices, strides)
	if err != nil {
		panic(err)
	}
	return l
}

// BufferName returns the name of the loaded buffer or an empty string
// if the buffer is not a variable.
func (l *Load) BufferName() string {
	return bufferName(l.Buf)
}

// Offset returns the element offset of the load.
func (l *Load) Offset() Expr {
	return Offset(l.Indices, l.Strides)
}

func bufferName(buf Expr) string {
	v, ok := buf.(*Variable)
	if !ok {
		return ""
	}
	return v.Name
}
