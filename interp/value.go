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

package interp

import (
	"math"
	"strconv"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// value is a scalar computed by the executor.
// Integers (including uint64 bit patterns) and booleans are stored in i,
// floating point numbers in f.
type value struct {
	dt dtype.DataType
	i  int64
	f  float64
}

func intValue(dt dtype.DataType, v int64) value {
	return value{dt: dt, i: v}
}

func floatValue(dt dtype.DataType, v float64) value {
	return value{dt: dt, f: v}
}

func boolValue(b bool) value {
	v := value{dt: dtype.Bool}
	if b {
		v.i = 1
	}
	return v
}

func constValue(c *ir.Constant) value {
	if c.IsFloat() {
		return normalize(floatValue(c.DType, c.Float))
	}
	return normalize(intValue(c.DType, c.Int))
}

func (v value) isTrue() bool {
	if ir.IsFloat(v.dt) {
		return v.f != 0
	}
	return v.i != 0
}

func (v value) float() float64 {
	switch {
	case ir.IsFloat(v.dt):
		return v.f
	case v.dt == dtype.Uint64:
		return float64(uint64(v.i))
	}
	return float64(v.i)
}

func (v value) int() int64 {
	if ir.IsFloat(v.dt) {
		return int64(v.f)
	}
	return v.i
}

func (v value) String() string {
	switch {
	case ir.IsFloat(v.dt):
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case v.dt == dtype.Bool:
		return strconv.FormatBool(v.isTrue())
	case v.dt == dtype.Uint64:
		return strconv.FormatUint(uint64(v.i), 10)
	}
	return strconv.FormatInt(v.i, 10)
}

// convert a value to another data type.
func convert(v value, dt dtype.DataType) value {
	if v.dt == dt {
		return v
	}
	switch {
	case ir.IsFloat(dt):
		return normalize(floatValue(dt, v.float()))
	case ir.IsInteger(dt):
		return normalize(intValue(dt, v.int()))
	}
	return boolValue(v.isTrue())
}

// normalize rounds or wraps a value to the precision of its data type.
func normalize(v value) value {
	switch v.dt {
	case dtype.Float32, dtype.Bfloat16:
		v.f = float64(float32(v.f))
	case dtype.Int32:
		v.i = int64(int32(v.i))
	case dtype.Uint32:
		v.i = int64(uint32(v.i))
	case dtype.Bool:
		if v.i != 0 {
			v.i = 1
		}
	}
	return v
}

type number interface {
	constraints.Integer | constraints.Float
}

func arith[T number](op ir.BinOp, x, y T) (T, error) {
	switch op {
	case ir.OpAdd:
		return x + y, nil
	case ir.OpSub:
		return x - y, nil
	case ir.OpMul:
		return x * y, nil
	case ir.OpDiv:
		return x / y, nil
	case ir.OpMax:
		return max(x, y), nil
	case ir.OpMin:
		return min(x, y), nil
	}
	return 0, errors.Errorf("operator %s not supported", op)
}

func arithInt[T constraints.Integer](op ir.BinOp, x, y T) (T, error) {
	if (op == ir.OpDiv || op == ir.OpMod) && y == 0 {
		return 0, errors.Errorf("integer division by zero")
	}
	if op == ir.OpMod {
		return x % y, nil
	}
	return arith(op, x, y)
}

func compare[T constraints.Ordered](op ir.BinOp, x, y T) (bool, error) {
	switch op {
	case ir.OpEq:
		return x == y, nil
	case ir.OpNe:
		return x != y, nil
	case ir.OpLt:
		return x < y, nil
	case ir.OpLe:
		return x <= y, nil
	case ir.OpGt:
		return x > y, nil
	case ir.OpGe:
		return x >= y, nil
	}
	return false, errors.Errorf("operator %s is not a comparison", op)
}

func binary(op ir.BinOp, x, y value) (value, error) {
	switch op {
	case ir.OpAnd:
		return boolValue(x.isTrue() && y.isTrue()), nil
	case ir.OpOr:
		return boolValue(x.isTrue() || y.isTrue()), nil
	}
	dt := ir.Promote(x.dt, y.dt)
	x, y = convert(x, dt), convert(y, dt)
	if op.IsComparison() {
		var b bool
		var err error
		switch {
		case ir.IsFloat(dt):
			b, err = compare(op, x.f, y.f)
		case dt == dtype.Uint64:
			b, err = compare(op, uint64(x.i), uint64(y.i))
		default:
			b, err = compare(op, x.i, y.i)
		}
		return boolValue(b), err
	}
	switch {
	case ir.IsFloat(dt):
		if op == ir.OpMod {
			return normalize(floatValue(dt, math.Mod(x.f, y.f))), nil
		}
		r, err := arith(op, x.f, y.f)
		return normalize(floatValue(dt, r)), err
	case dt == dtype.Uint64:
		r, err := arithInt(op, uint64(x.i), uint64(y.i))
		return intValue(dt, int64(r)), err
	case ir.IsInteger(dt):
		r, err := arithInt(op, x.i, y.i)
		return normalize(intValue(dt, r)), err
	}
	return value{}, errors.Errorf("operator %s not supported for %s", op, dt)
}

var intrinsics = map[ir.UnOp]func(float64) float64{
	ir.OpExp:  math.Exp,
	ir.OpLog:  math.Log,
	ir.OpSqrt: math.Sqrt,
	ir.OpSin:  math.Sin,
	ir.OpCos:  math.Cos,
	ir.OpTanh: math.Tanh,
}

func unary(op ir.UnOp, x value, to dtype.DataType) (value, error) {
	switch op {
	case ir.OpCast:
		return convert(x, to), nil
	case ir.OpNot:
		return boolValue(!x.isTrue()), nil
	}
	if fn, ok := intrinsics[op]; ok {
		dt := ir.FloatOf(x.dt)
		return normalize(floatValue(dt, fn(x.float()))), nil
	}
	if ir.IsFloat(x.dt) {
		switch op {
		case ir.OpNeg:
			return floatValue(x.dt, -x.f), nil
		case ir.OpAbs:
			return floatValue(x.dt, math.Abs(x.f)), nil
		case ir.OpFloor:
			return floatValue(x.dt, math.Floor(x.f)), nil
		}
	}
	if ir.IsInteger(x.dt) {
		switch op {
		case ir.OpNeg:
			return normalize(intValue(x.dt, -x.i)), nil
		case ir.OpAbs:
			if x.dt == dtype.Uint32 || x.dt == dtype.Uint64 {
				return x, nil
			}
			return intValue(x.dt, max(x.i, -x.i)), nil
		case ir.OpFloor:
			return x, nil
		}
	}
	return value{}, errors.Errorf("operator %s not supported for %s", op, x.dt)
}
