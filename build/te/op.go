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

package te

import (
	"fmt"
	"math"
	"strconv"

	"github.com/gx-org/backend/dtype"
	gxfmt "github.com/gx-org/tensorfuse/base/fmt"
	"github.com/gx-org/tensorfuse/build/ir"
)

// OpKind is the kind of an operation descriptor.
type OpKind int

const (
	// PlaceholderKind is an input of the graph.
	PlaceholderKind OpKind = iota
	// ConstantKind is a scalar constant.
	ConstantKind
	// UnaryKind is a unary element-wise operation.
	UnaryKind
	// BinaryKind is a binary element-wise operation with broadcasting.
	BinaryKind
	// ReduceKind is a reduction over a set of axes.
	ReduceKind
	// ReshapeKind changes the shape of a contiguous buffer.
	ReshapeKind
	// PermuteKind permutes the axes of its input.
	PermuteKind
	// ExpandKind broadcasts its input to a larger shape.
	ExpandKind
	// UnsqueezeKind inserts an axis of length 1.
	UnsqueezeKind
	// SliceKind selects a strided range of elements of every axis.
	SliceKind
)

// Op describes the operation computing the value of a node.
type Op interface {
	Kind() OpKind
	String() string
}

type (
	// UnaryFn is a unary element-wise function.
	UnaryFn int
	// BinaryFn is a binary element-wise function.
	BinaryFn int
	// ReduceFn is a reduction function.
	ReduceFn int
)

// Unary element-wise functions.
const (
	UnaryNeg UnaryFn = iota
	UnaryExp
	UnaryLog
	UnarySqrt
	UnarySin
	UnaryCos
	UnaryTanh
	UnaryAbs
	UnaryRelu
	UnarySigmoid
	UnaryCelu
	UnaryLeakyRelu
	UnaryCast
)

// Binary element-wise functions.
const (
	BinaryAdd BinaryFn = iota
	BinarySub
	BinaryMul
	BinaryDiv
	BinaryMax
	BinaryMin
	BinaryLt
	BinaryGt
	BinaryEq
)

// Reduction functions.
const (
	ReduceSum ReduceFn = iota
	ReduceProd
	ReduceMax
	ReduceMin
)

var unaryNames = [...]string{
	UnaryNeg:       "neg",
	UnaryExp:       "exp",
	UnaryLog:       "log",
	UnarySqrt:      "sqrt",
	UnarySin:       "sin",
	UnaryCos:       "cos",
	UnaryTanh:      "tanh",
	UnaryAbs:       "abs",
	UnaryRelu:      "relu",
	UnarySigmoid:   "sigmoid",
	UnaryCelu:      "celu",
	UnaryLeakyRelu: "leaky_relu",
	UnaryCast:      "cast",
}

func (fn UnaryFn) String() string {
	if fn < 0 || int(fn) >= len(unaryNames) {
		return "unary(" + strconv.Itoa(int(fn)) + ")"
	}
	return unaryNames[fn]
}

// hasFloatResult returns true if the function computes a floating point
// value from an integer input.
func (fn UnaryFn) hasFloatResult() bool {
	switch fn {
	case UnaryNeg, UnaryAbs, UnaryRelu, UnaryCast:
		return false
	}
	return true
}

var binaryOps = [...]ir.BinOp{
	BinaryAdd: ir.OpAdd,
	BinarySub: ir.OpSub,
	BinaryMul: ir.OpMul,
	BinaryDiv: ir.OpDiv,
	BinaryMax: ir.OpMax,
	BinaryMin: ir.OpMin,
	BinaryLt:  ir.OpLt,
	BinaryGt:  ir.OpGt,
	BinaryEq:  ir.OpEq,
}

var binaryNames = [...]string{
	BinaryAdd: "add",
	BinarySub: "sub",
	BinaryMul: "mul",
	BinaryDiv: "div",
	BinaryMax: "max",
	BinaryMin: "min",
	BinaryLt:  "lt",
	BinaryGt:  "gt",
	BinaryEq:  "eq",
}

func (fn BinaryFn) String() string {
	if fn < 0 || int(fn) >= len(binaryNames) {
		return "binary(" + strconv.Itoa(int(fn)) + ")"
	}
	return binaryNames[fn]
}

// IsComparison returns true if the function returns a boolean.
func (fn BinaryFn) IsComparison() bool {
	return binaryOps[fn].IsComparison()
}

var reduceNames = [...]string{
	ReduceSum:  "sum",
	ReduceProd: "prod",
	ReduceMax:  "reduce_max",
	ReduceMin:  "reduce_min",
}

func (fn ReduceFn) String() string {
	if fn < 0 || int(fn) >= len(reduceNames) {
		return "reduce(" + strconv.Itoa(int(fn)) + ")"
	}
	return reduceNames[fn]
}

func (fn ReduceFn) accumOp() ir.BinOp {
	switch fn {
	case ReduceProd:
		return ir.OpMul
	case ReduceMax:
		return ir.OpMax
	case ReduceMin:
		return ir.OpMin
	}
	return ir.OpAdd
}

// init returns the neutral element of the reduction.
func (fn ReduceFn) init(dt dtype.DataType) ir.Expr {
	switch fn {
	case ReduceProd:
		return ir.One(dt)
	case ReduceMax:
		return lowest(dt)
	case ReduceMin:
		return highest(dt)
	}
	return ir.Zero(dt)
}

func lowest(dt dtype.DataType) ir.Expr {
	switch dt {
	case dtype.Int32:
		return ir.IntT(dt, math.MinInt32)
	case dtype.Int64:
		return ir.IntT(dt, math.MinInt64)
	case dtype.Uint32, dtype.Uint64:
		return ir.IntT(dt, 0)
	}
	return ir.Float(dt, math.Inf(-1))
}

func highest(dt dtype.DataType) ir.Expr {
	switch dt {
	case dtype.Int32:
		return ir.IntT(dt, math.MaxInt32)
	case dtype.Uint32:
		return ir.IntT(dt, math.MaxUint32)
	case dtype.Int64, dtype.Uint64:
		// Integer values are stored on 64 bits signed integers.
		return ir.IntT(dt, math.MaxInt64)
	}
	return ir.Float(dt, math.Inf(1))
}

type (
	// Placeholder is an input buffer of the graph.
	Placeholder struct {
		Name string
	}

	// Constant is a scalar constant.
	Constant struct {
		Value float64
	}

	// Unary applies an element-wise function to its input.
	Unary struct {
		Fn UnaryFn
		// Alpha is the parameter of celu and leaky relu.
		Alpha float64
		// To is the target data type of a cast.
		To dtype.DataType
	}

	// Binary applies an element-wise function to its two inputs.
	Binary struct {
		Fn BinaryFn
	}

	// Reduce reduces its input over a set of distinct axes.
	Reduce struct {
		Fn   ReduceFn
		Axes []int
	}

	// Reshape reinterprets a contiguous buffer with a new shape.
	Reshape struct{}

	// Permute permutes the axes of its input.
	// Axis i of the output is axis Perm[i] of the input.
	Permute struct {
		Perm []int
	}

	// Expand broadcasts its input to the shape of the node.
	Expand struct{}

	// Unsqueeze inserts an axis of length 1.
	Unsqueeze struct {
		Axis int
	}

	// Slice selects a strided range of elements of every axis.
	// Sels has one selection per axis, in axis order.
	Slice struct {
		Sels []Selection
	}
)

// Selection selects the elements Begin, Begin+Step, ... of an axis,
// stopping before End. Step is never zero once the node is built.
type Selection struct {
	Axis       int
	Begin, End ir.Expr
	Step       int64
}

// length returns the number of elements selected.
func (s Selection) length() ir.Expr {
	round := s.Step - 1
	if s.Step < 0 {
		round = s.Step + 1
	}
	span := ir.Add(ir.Sub(s.End, s.Begin), ir.Int(round))
	return ir.Simplify(ir.Div(span, ir.Int(s.Step)))
}

// index returns the index in the input of element ax of the selection.
func (s Selection) index(ax ir.Expr) ir.Expr {
	return ir.Simplify(ir.Add(s.Begin, ir.Mul(ax, ir.Int(s.Step))))
}

func (s Selection) String() string {
	return fmt.Sprintf("%s:%s:%d", s.Begin, s.End, s.Step)
}

var (
	_ Op = (*Placeholder)(nil)
	_ Op = (*Constant)(nil)
	_ Op = (*Unary)(nil)
	_ Op = (*Binary)(nil)
	_ Op = (*Reduce)(nil)
	_ Op = (*Reshape)(nil)
	_ Op = (*Permute)(nil)
	_ Op = (*Expand)(nil)
	_ Op = (*Unsqueeze)(nil)
	_ Op = (*Slice)(nil)
)

// Kind of the operation.
func (*Placeholder) Kind() OpKind { return PlaceholderKind }

// Kind of the operation.
func (*Constant) Kind() OpKind { return ConstantKind }

// Kind of the operation.
func (*Unary) Kind() OpKind { return UnaryKind }

// Kind of the operation.
func (*Binary) Kind() OpKind { return BinaryKind }

// Kind of the operation.
func (*Reduce) Kind() OpKind { return ReduceKind }

// Kind of the operation.
func (*Reshape) Kind() OpKind { return ReshapeKind }

// Kind of the operation.
func (*Permute) Kind() OpKind { return PermuteKind }

// Kind of the operation.
func (*Expand) Kind() OpKind { return ExpandKind }

// Kind of the operation.
func (*Unsqueeze) Kind() OpKind { return UnsqueezeKind }

// Kind of the operation.
func (*Slice) Kind() OpKind { return SliceKind }

func (op *Placeholder) String() string {
	return "placeholder(" + op.Name + ")"
}

func (op *Constant) String() string {
	return strconv.FormatFloat(op.Value, 'g', -1, 64)
}

func (op *Unary) String() string {
	switch op.Fn {
	case UnaryCelu, UnaryLeakyRelu:
		return fmt.Sprintf("%s[%g]", op.Fn, op.Alpha)
	case UnaryCast:
		return fmt.Sprintf("cast[%s]", op.To.String())
	}
	return op.Fn.String()
}

func (op *Binary) String() string {
	return op.Fn.String()
}

func (op *Reduce) String() string {
	return fmt.Sprintf("%s%v", op.Fn, op.Axes)
}

func (*Reshape) String() string {
	return "reshape"
}

func (op *Permute) String() string {
	return fmt.Sprintf("permute%v", op.Perm)
}

func (*Expand) String() string {
	return "expand"
}

func (op *Unsqueeze) String() string {
	return fmt.Sprintf("unsqueeze[%d]", op.Axis)
}

func (op *Slice) String() string {
	return "slice[" + gxfmt.List(op.Sels) + "]"
}

// expr returns the expression computing the function given the value x of
// the input of data type in. out is the data type of the result.
func (op *Unary) expr(x ir.Expr, in, out dtype.DataType) ir.Expr {
	if in != out && op.Fn != UnaryCast {
		x = ir.Cast(out, x)
	}
	zero, one := ir.Zero(out), ir.One(out)
	switch op.Fn {
	case UnaryNeg:
		return ir.Neg(x)
	case UnaryExp:
		return ir.Exp(x)
	case UnaryLog:
		return ir.Unary(ir.OpLog, x)
	case UnarySqrt:
		return ir.Unary(ir.OpSqrt, x)
	case UnarySin:
		return ir.Unary(ir.OpSin, x)
	case UnaryCos:
		return ir.Unary(ir.OpCos, x)
	case UnaryTanh:
		return ir.Unary(ir.OpTanh, x)
	case UnaryAbs:
		return ir.Unary(ir.OpAbs, x)
	case UnaryRelu:
		return ir.Max(zero, x)
	case UnarySigmoid:
		return ir.Div(one, ir.Add(one, ir.Exp(ir.Neg(x))))
	case UnaryCelu:
		alpha := ir.Float(out, op.Alpha)
		return ir.Add(
			ir.Max(zero, x),
			ir.Min(zero, ir.Mul(alpha, ir.Sub(ir.Exp(ir.Div(x, alpha)), one))),
		)
	case UnaryLeakyRelu:
		alpha := ir.Float(out, op.Alpha)
		return ir.Add(ir.Max(zero, x), ir.Mul(alpha, ir.Min(zero, x)))
	case UnaryCast:
		return ir.Cast(op.To, x)
	}
	return ir.None
}

// expr returns the expression computing the function given the values of
// both operands, converted to the data type dt.
func (op *Binary) expr(x ir.Expr, xt dtype.DataType, y ir.Expr, yt dtype.DataType, dt dtype.DataType) ir.Expr {
	if xt != dt {
		x = ir.Cast(dt, x)
	}
	if yt != dt {
		y = ir.Cast(dt, y)
	}
	return ir.Binary(binaryOps[op.Fn], x, y)
}

func opString(op Op, inputs []NodeID) string {
	if len(inputs) == 0 {
		return op.String()
	}
	return op.String() + "(" + gxfmt.List(inputs) + ")"
}
