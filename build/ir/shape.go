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
	"slices"

	"github.com/pkg/errors"
)

// IsOne returns true if the expression is the integer constant 1.
func IsOne(x Expr) bool {
	return isIntConst(x, 1)
}

// Product returns the number of elements of a shape.
func Product(shape []Expr) Expr {
	var size Expr = Int(1)
	for _, dim := range shape {
		size = Mul(size, dim)
	}
	return Simplify(size)
}

// RowMajorStrides returns the strides of a contiguous row-major
// buffer of the given shape.
func RowMajorStrides(shape []Expr) []Expr {
	strides := make([]Expr, len(shape))
	var stride Expr = Int(1)
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = stride
		stride = Simplify(Mul(stride, shape[i]))
	}
	return strides
}

// Offset returns the expression computing the offset of an element
// given its indices and the strides of each axis.
func Offset(indices, strides []Expr) Expr {
	var offset Expr = Int(0)
	for i, index := range indices {
		offset = Add(offset, Mul(index, strides[i]))
	}
	return Simplify(offset)
}

// sizeFactors splits the number of elements of a shape into a constant
// factor and the sorted keys of its symbolic factors.
func sizeFactors(shape []Expr) (int64, []string) {
	var c int64 = 1
	var keys []string
	var walk func(Expr)
	walk = func(x Expr) {
		switch xT := x.(type) {
		case *Constant:
			if !xT.IsFloat() {
				c *= xT.Int
				return
			}
		case *BinaryOp:
			if xT.Op == OpMul {
				walk(xT.X)
				walk(xT.Y)
				return
			}
		}
		keys = append(keys, Key(x))
	}
	for _, dim := range shape {
		walk(Simplify(dim))
	}
	slices.Sort(keys)
	return c, keys
}

// SameSize returns true if two shapes have provably the same number of
// elements, that is the same constant factor and the same symbolic factors.
func SameSize(a, b []Expr) bool {
	ca, ka := sizeFactors(a)
	cb, kb := sizeFactors(b)
	if ca == 0 && cb == 0 {
		return true
	}
	return ca == cb && slices.Equal(ka, kb)
}

// Concrete evaluates a symbolic shape given a binding of its variables.
func Concrete(shape []Expr, env Env) ([]int, error) {
	dims := make([]int, len(shape))
	for i, dim := range shape {
		v, err := EvalInt(dim, env)
		if err != nil {
			return nil, errors.Wrapf(err, "cannot evaluate axis %d of shape", i)
		}
		if v < 0 {
			return nil, errors.Errorf("negative axis length %d for axis %d (%s)", v, i, dim)
		}
		dims[i] = int(v)
	}
	return dims, nil
}
