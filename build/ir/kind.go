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

import "github.com/gx-org/backend/dtype"

// BinOp is a binary operator.
type BinOp int

// Binary operators.
const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpMax
	OpMin
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
)

var binOpStrings = [...]string{
	OpAdd: "+",
	OpSub: "-",
	OpMul: "*",
	OpDiv: "/",
	OpMod: "%",
	OpMax: "max",
	OpMin: "min",
	OpEq:  "==",
	OpNe:  "!=",
	OpLt:  "<",
	OpLe:  "<=",
	OpGt:  ">",
	OpGe:  ">=",
	OpAnd: "&&",
	OpOr:  "||",
}

func (op BinOp) String() string {
	if op < 0 || int(op) >= len(binOpStrings) {
		return "invalid"
	}
	return binOpStrings[op]
}

// IsComparison returns true if the operator returns a boolean.
func (op BinOp) IsComparison() bool {
	return op >= OpEq
}

// isCall returns true if the operator is printed as a function call.
func (op BinOp) isCall() bool {
	return op == OpMax || op == OpMin
}

// UnOp is a unary operator or intrinsic.
type UnOp int

// Unary operators and intrinsics.
const (
	OpNeg UnOp = iota
	OpNot
	OpCast
	OpExp
	OpLog
	OpSqrt
	OpSin
	OpCos
	OpTanh
	OpAbs
	OpFloor
)

var unOpStrings = [...]string{
	OpNeg:   "-",
	OpNot:   "!",
	OpCast:  "cast",
	OpExp:   "exp",
	OpLog:   "log",
	OpSqrt:  "sqrt",
	OpSin:   "sin",
	OpCos:   "cos",
	OpTanh:  "tanh",
	OpAbs:   "abs",
	OpFloor: "floor",
}

func (op UnOp) String() string {
	if op < 0 || int(op) >= len(unOpStrings) {
		return "invalid"
	}
	return unOpStrings[op]
}

// IsIntrinsic returns true if the operator is a transcendental function
// producing a floating point result.
func (op UnOp) IsIntrinsic() bool {
	switch op {
	case OpExp, OpLog, OpSqrt, OpSin, OpCos, OpTanh:
		return true
	}
	return false
}

// IndexType is the data type of loop indices, strides and axis lengths.
const IndexType = dtype.Int64

// IsFloat returns true if the data type is a floating point type.
func IsFloat(dt dtype.DataType) bool {
	switch dt {
	case dtype.Bfloat16, dtype.Float32, dtype.Float64:
		return true
	}
	return false
}

// IsInteger returns true if the data type is an integer type.
func IsInteger(dt dtype.DataType) bool {
	switch dt {
	case dtype.Int32, dtype.Int64, dtype.Uint32, dtype.Uint64:
		return true
	}
	return false
}

// IsNumeric returns true if arithmetic is defined on the data type.
func IsNumeric(dt dtype.DataType) bool {
	return IsFloat(dt) || IsInteger(dt)
}

func rank(dt dtype.DataType) int {
	switch dt {
	case dtype.Bool:
		return 0
	case dtype.Int32:
		return 1
	case dtype.Uint32:
		return 2
	case dtype.Int64:
		return 3
	case dtype.Uint64:
		return 4
	case dtype.Bfloat16:
		return 5
	case dtype.Float32:
		return 6
	case dtype.Float64:
		return 7
	}
	return -1
}

// Promote returns the data type of a binary arithmetic operation between
// two data types: the widest of both, floating point types winning over
// integer types.
func Promote(x, y dtype.DataType) dtype.DataType {
	if rank(x) >= rank(y) {
		return x
	}
	return y
}

// FloatOf returns the floating point type an intrinsic of an operand of
// the given type returns.
func FloatOf(dt dtype.DataType) dtype.DataType {
	switch dt {
	case dtype.Bfloat16, dtype.Float32, dtype.Float64:
		return dt
	case dtype.Int64, dtype.Uint64:
		return dtype.Float64
	}
	return dtype.Float32
}
