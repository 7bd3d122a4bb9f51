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

import "github.com/pkg/errors"

// Env binds variable names to integer values.
type Env map[string]int64

// EvalInt evaluates an integer expression.
// Variables are looked up in the environment.
func EvalInt(x Expr, env Env) (int64, error) {
	switch xT := x.(type) {
	case *Variable:
		v, ok := env[xT.Name]
		if !ok {
			return 0, errors.Errorf("undefined variable %s", xT.Name)
		}
		return v, nil
	case *Constant:
		if xT.IsFloat() {
			return 0, errors.Errorf("cannot evaluate floating point constant %s as an integer", xT)
		}
		return xT.Int, nil
	case *UnaryOp:
		v, err := EvalInt(xT.X, env)
		if err != nil {
			return 0, err
		}
		switch xT.Op {
		case OpNeg:
			return -v, nil
		case OpNot:
			return boolToInt(v == 0), nil
		case OpAbs:
			return max(v, -v), nil
		case OpCast, OpFloor:
			return v, nil
		}
		return 0, errors.Errorf("cannot evaluate %s as an integer", xT)
	case *BinaryOp:
		lhs, err := EvalInt(xT.X, env)
		if err != nil {
			return 0, err
		}
		rhs, err := EvalInt(xT.Y, env)
		if err != nil {
			return 0, err
		}
		return evalIntBinary(xT, lhs, rhs)
	}
	return 0, errors.Errorf("cannot evaluate %s as an integer", x)
}

// EvalInts evaluates a list of integer expressions.
func EvalInts(xs []Expr, env Env) ([]int64, error) {
	vals := make([]int64, len(xs))
	for i, x := range xs {
		var err error
		if vals[i], err = EvalInt(x, env); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func evalIntBinary(b *BinaryOp, x, y int64) (int64, error) {
	switch b.Op {
	case OpAdd:
		return x + y, nil
	case OpSub:
		return x - y, nil
	case OpMul:
		return x * y, nil
	case OpDiv, OpMod:
		if y == 0 {
			return 0, errors.Errorf("division by zero in %s", b)
		}
		if b.Op == OpDiv {
			return x / y, nil
		}
		return x % y, nil
	case OpMax:
		return max(x, y), nil
	case OpMin:
		return min(x, y), nil
	case OpEq:
		return boolToInt(x == y), nil
	case OpNe:
		return boolToInt(x != y), nil
	case OpLt:
		return boolToInt(x < y), nil
	case OpLe:
		return boolToInt(x <= y), nil
	case OpGt:
		return boolToInt(x > y), nil
	case OpGe:
		return boolToInt(x >= y), nil
	case OpAnd:
		return boolToInt(x != 0 && y != 0), nil
	case OpOr:
		return boolToInt(x != 0 || y != 0), nil
	}
	return 0, errors.Errorf("unsupported operator %s", b.Op)
}
