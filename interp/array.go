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
	"fmt"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/gx-org/tensorfuse/build/shapeerr"
	"github.com/pkg/errors"
)

// Array is a dense row-major array in host memory.
// Depending on the data type of its shape, its elements are stored
// in Floats (floating point types), Ints (integer types) or Bools.
type Array struct {
	Shape  *shape.Shape
	Ints   []int64
	Floats []float64
	Bools  []bool
}

// NewArray returns an array of zeros.
func NewArray(dt dtype.DataType, dims ...int) (*Array, error) {
	a := &Array{Shape: &shape.Shape{DType: dt, AxisLengths: dims}}
	size := sizeOf(dims)
	switch {
	case ir.IsFloat(dt):
		a.Floats = make([]float64, size)
	case ir.IsInteger(dt):
		a.Ints = make([]int64, size)
	case dt == dtype.Bool:
		a.Bools = make([]bool, size)
	default:
		return nil, errors.Errorf("data type %s not supported", dt)
	}
	return a, nil
}

func sizeOf(dims []int) int {
	size := 1
	for _, dim := range dims {
		size *= dim
	}
	return size
}

func checkData(dims []int, size int) error {
	if err := shapeerr.CheckSizeMatch(int64(sizeOf(dims)), int64(size)); err != nil {
		return errors.Wrapf(err, "invalid data for shape %v", dims)
	}
	return nil
}

// FromFloats returns a floating point array given its data.
func FromFloats(dt dtype.DataType, data []float64, dims ...int) (*Array, error) {
	if !ir.IsFloat(dt) {
		return nil, errors.Errorf("%s is not a floating point data type", dt)
	}
	if err := checkData(dims, len(data)); err != nil {
		return nil, err
	}
	floats := make([]float64, len(data))
	for i, v := range data {
		floats[i] = normalize(floatValue(dt, v)).f
	}
	return &Array{Shape: &shape.Shape{DType: dt, AxisLengths: dims}, Floats: floats}, nil
}

// FromInts returns an integer array given its data.
func FromInts(dt dtype.DataType, data []int64, dims ...int) (*Array, error) {
	if !ir.IsInteger(dt) {
		return nil, errors.Errorf("%s is not an integer data type", dt)
	}
	if err := checkData(dims, len(data)); err != nil {
		return nil, err
	}
	ints := make([]int64, len(data))
	for i, v := range data {
		ints[i] = normalize(intValue(dt, v)).i
	}
	return &Array{Shape: &shape.Shape{DType: dt, AxisLengths: dims}, Ints: ints}, nil
}

// FromBools returns a boolean array given its data.
func FromBools(data []bool, dims ...int) (*Array, error) {
	if err := checkData(dims, len(data)); err != nil {
		return nil, err
	}
	return &Array{
		Shape: &shape.Shape{DType: dtype.Bool, AxisLengths: dims},
		Bools: append([]bool{}, data...),
	}, nil
}

// DType returns the data type of the elements.
func (a *Array) DType() dtype.DataType {
	return a.Shape.DType
}

// Dims returns the axis lengths.
func (a *Array) Dims() []int {
	return a.Shape.AxisLengths
}

// Size returns the number of elements.
func (a *Array) Size() int {
	return sizeOf(a.Shape.AxisLengths)
}

// Float64s returns the elements of the array converted to float64.
func (a *Array) Float64s() []float64 {
	vals := make([]float64, a.Size())
	for i := range vals {
		vals[i] = a.get(i).float()
	}
	return vals
}

func (a *Array) get(i int) value {
	dt := a.Shape.DType
	switch {
	case ir.IsFloat(dt):
		return floatValue(dt, a.Floats[i])
	case ir.IsInteger(dt):
		return intValue(dt, a.Ints[i])
	}
	return boolValue(a.Bools[i])
}

func (a *Array) set(i int, v value) {
	v = normalize(convert(v, a.Shape.DType))
	switch {
	case ir.IsFloat(v.dt):
		a.Floats[i] = v.f
	case ir.IsInteger(v.dt):
		a.Ints[i] = v.i
	default:
		a.Bools[i] = v.isTrue()
	}
}

func (a *Array) checkOffset(name string, off int64) error {
	if off < 0 || off >= int64(a.Size()) {
		return errors.Errorf("offset %d out of range [0, %d) in buffer %s", off, a.Size(), name)
	}
	return nil
}

func (a *Array) String() string {
	vals := make([]string, a.Size())
	for i := range vals {
		vals[i] = a.get(i).String()
	}
	return fmt.Sprintf("%s%v{%s}", a.Shape.DType, a.Shape.AxisLengths, strings.Join(vals, ", "))
}
