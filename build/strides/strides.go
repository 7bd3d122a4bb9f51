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

// Package strides computes the memory strides of the buffers read by a stage.
//
// A stage reads one or more leaf buffers. For each leaf, a row gives the
// stride applied to the index of each axis of the leaf, and which axis of
// the stage iterates over it. Broadcasting sets the stride of an axis to 0
// so that the same element is read along that axis.
package strides

import (
	"fmt"
	"slices"

	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/gx-org/tensorfuse/build/shapeerr"
	"github.com/pkg/errors"
)

// ReduceAxis marks a leaf axis no axis of the stage iterates over:
// a reduction loop iterates over it or a slice fixed its index.
const ReduceAxis = -1

type (
	// Strides of one leaf buffer.
	Strides struct {
		// Values are the strides, in number of elements, for each axis of the leaf.
		Values []int64
		// Axes[j] is the axis of the stage iterating over leaf axis j,
		// or ReduceAxis if no axis of the stage iterates over it.
		Axes []int
	}

	// Func computes the strides of all the leaves of a stage
	// given the value of the symbolic axis lengths.
	Func func(ir.Env) ([]Strides, error)
)

// Clone returns a copy of the strides.
func (s Strides) Clone() Strides {
	return Strides{Values: slices.Clone(s.Values), Axes: slices.Clone(s.Axes)}
}

func (s Strides) String() string {
	return fmt.Sprintf("%v@%v", s.Values, s.Axes)
}

// Width returns the total number of values of a list of rows.
func Width(rows []Strides) int {
	n := 0
	for _, row := range rows {
		n += len(row.Values)
	}
	return n
}

// Flatten concatenates the values of all the rows.
// The result is the runtime stride table of a stage.
func Flatten(rows []Strides) []int64 {
	table := make([]int64, 0, Width(rows))
	for _, row := range rows {
		table = append(table, row.Values...)
	}
	return table
}

func concrete(shape []ir.Expr, env ir.Env) ([]int64, error) {
	dims, err := ir.EvalInts(shape, env)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot compute the strides of shape %s", shapeerr.DimsOf(shape))
	}
	return dims, nil
}

// Contiguous returns the strides of a row-major contiguous buffer.
func Contiguous(shape []ir.Expr) Func {
	return func(env ir.Env) ([]Strides, error) {
		dims, err := concrete(shape, env)
		if err != nil {
			return nil, err
		}
		row := Strides{
			Values: make([]int64, len(dims)),
			Axes:   make([]int, len(dims)),
		}
		var stride int64 = 1
		for i := len(dims) - 1; i >= 0; i-- {
			row.Values[i] = stride
			row.Axes[i] = i
			stride *= dims[i]
		}
		return []Strides{row}, nil
	}
}

// None returns the strides of a stage without leaf.
func None() Func {
	return func(ir.Env) ([]Strides, error) {
		return nil, nil
	}
}

func mapRows(parent Func, f func(rows []Strides) error) Func {
	return func(env ir.Env) ([]Strides, error) {
		rows, err := parent(env)
		if err != nil {
			return nil, err
		}
		out := make([]Strides, len(rows))
		for i, row := range rows {
			out[i] = row.Clone()
		}
		if err := f(out); err != nil {
			return nil, err
		}
		return out, nil
	}
}

// Elementwise broadcasts the strides of a parent to an output shape.
// Shapes are right-aligned. The stride of a leaf axis is set to 0 when the
// length of the parent axis it maps to differs from the length of the
// output axis.
func Elementwise(parent Func, parentShape, outShape []ir.Expr) Func {
	offset := len(outShape) - len(parentShape)
	return func(env ir.Env) ([]Strides, error) {
		if offset < 0 {
			return nil, shapeerr.New(&shapeerr.NdimMismatched{Expected: len(outShape), Actual: len(parentShape)})
		}
		parentDims, err := concrete(parentShape, env)
		if err != nil {
			return nil, err
		}
		outDims, err := concrete(outShape, env)
		if err != nil {
			return nil, err
		}
		return mapRows(parent, func(rows []Strides) error {
			for _, row := range rows {
				for j, axis := range row.Axes {
					if axis == ReduceAxis {
						continue
					}
					if axis >= len(parentDims) {
						return shapeerr.Internalf("leaf axis %d maps to axis %d out of a parent of rank %d", j, axis, len(parentDims))
					}
					if parentDims[axis] != outDims[axis+offset] {
						row.Values[j] = 0
					}
					row.Axes[j] = axis + offset
				}
			}
			return nil
		})(env)
	}
}

// Compose broadcasts the strides of each parent to the output shape.
// One function is returned per parent.
func Compose(parents []Func, parentShapes [][]ir.Expr, outShape []ir.Expr) []Func {
	fs := make([]Func, len(parents))
	for i, parent := range parents {
		fs[i] = Elementwise(parent, parentShapes[i], outShape)
	}
	return fs
}

// Concat concatenates the rows of several functions.
func Concat(fs ...Func) Func {
	return func(env ir.Env) ([]Strides, error) {
		var rows []Strides
		for _, f := range fs {
			fRows, err := f(env)
			if err != nil {
				return nil, err
			}
			rows = append(rows, fRows...)
		}
		return rows, nil
	}
}

// Permute maps the axes of the parent to the axes of a permuted output.
// Output axis i is the parent axis perm[i].
func Permute(parent Func, perm []int) Func {
	inv := make([]int, len(perm))
	for i, p := range perm {
		inv[p] = i
	}
	return mapRows(parent, func(rows []Strides) error {
		for _, row := range rows {
			for j, axis := range row.Axes {
				if axis != ReduceAxis {
					row.Axes[j] = inv[axis]
				}
			}
		}
		return nil
	})
}

// Reduce maps the axes of the parent to the axes of a reduction output.
// Reduced axes are iterated by reduction loops. The remaining axes keep
// their order.
func Reduce(parent Func, axes []int) Func {
	reduced := make(map[int]bool, len(axes))
	for _, axis := range axes {
		reduced[axis] = true
	}
	return mapRows(parent, func(rows []Strides) error {
		for _, row := range rows {
			for j, axis := range row.Axes {
				if axis == ReduceAxis {
					continue
				}
				if reduced[axis] {
					row.Axes[j] = ReduceAxis
					continue
				}
				shift := 0
				for r := range reduced {
					if r < axis {
						shift++
					}
				}
				row.Axes[j] = axis - shift
			}
		}
		return nil
	})
}

// Slice maps the axes of the parent to the axes of a slice.
// Begin offsets and steps are part of the indices of the loads of the stage.
// The index of a leaf axis walking a fixed axis, sliced down to a single
// element, does not depend on the stage axis anymore: broadcasting the
// slice along that axis must not reset its stride.
func Slice(parent Func, fixed []int) Func {
	isFixed := make(map[int]bool, len(fixed))
	for _, axis := range fixed {
		isFixed[axis] = true
	}
	return mapRows(parent, func(rows []Strides) error {
		for _, row := range rows {
			for j, axis := range row.Axes {
				if isFixed[axis] {
					row.Axes[j] = ReduceAxis
				}
			}
		}
		return nil
	})
}

// Insert maps the axes of the parent when a new axis of length 1 is
// inserted at a given position.
func Insert(parent Func, at int) Func {
	return mapRows(parent, func(rows []Strides) error {
		for _, row := range rows {
			for j, axis := range row.Axes {
				if axis != ReduceAxis && axis >= at {
					row.Axes[j] = axis + 1
				}
			}
		}
		return nil
	})
}
