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

// Package shapeerr defines the errors reported when a tensor graph is built
// with incompatible shapes, axes or data types.
//
// All errors are reported synchronously by the graph constructors and carry
// the stack trace of the call that built them. Use errors.As to recover the
// concrete error type.
package shapeerr

import (
	"fmt"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/pkg/errors"
)

// Dims is a list of axis lengths, possibly symbolic, used in error messages.
type Dims []fmt.Stringer

// DimsOf converts a list of axis length expressions into Dims.
func DimsOf[T fmt.Stringer](xs []T) Dims {
	ds := make(Dims, len(xs))
	for i, x := range xs {
		ds[i] = x
	}
	return ds
}

func (d Dims) String() string {
	ss := make([]string, len(d))
	for i, x := range d {
		ss[i] = x.String()
	}
	return "[" + strings.Join(ss, ", ") + "]"
}

type (
	// SizeMismatched is returned when two element counts must be equal.
	SizeMismatched struct {
		Expected, Actual int64
	}

	// NdimMismatched is returned when two ranks must be equal.
	NdimMismatched struct {
		Expected, Actual int
	}

	// IndexOutOfRange is returned when an axis index, after normalisation of
	// negative values, is not in [0, Ndim).
	IndexOutOfRange struct {
		Ndim       int
		Index      int
		Normalized int
	}

	// SameAxis is returned when two axes that must be distinct are equal.
	SameAxis struct {
		Axis1, Axis2 int
	}

	// Broadcast is returned when two shapes cannot be broadcast together.
	Broadcast struct {
		LHS, RHS Dims
		Axis     int
	}

	// Reshape is returned when the number of elements of a reshape source and
	// target differ.
	Reshape struct {
		OldShape, NewShape Dims
		OldSize, NewSize   fmt.Stringer
	}

	// IndexRepeated is returned when an axis list contains the same axis twice.
	IndexRepeated struct {
		Axes  []int
		Index int
	}

	// ExpandDim is returned when a shape cannot be expanded to a target.
	ExpandDim struct {
		Shape, Target Dims
		Axis          int
	}

	// NegativeDim is returned when an axis length is a negative constant.
	NegativeDim struct {
		Shape Dims
		Axis  int
	}

	// SliceStep is returned when a slice selects an axis with a zero step.
	SliceStep struct {
		Axis int
	}

	// SliceRange is returned when the bounds of a slice are out of the axis.
	SliceRange struct {
		Axis       int
		Begin, End fmt.Stringer
		Step       int64
		Dim        fmt.Stringer
	}

	// DTypeMismatched is returned when an operator does not support a data type.
	DTypeMismatched struct {
		Op    string
		DType dtype.DataType
	}
)

func (err *SizeMismatched) Error() string {
	return fmt.Sprintf("expect size %d but got size %d", err.Expected, err.Actual)
}

func (err *NdimMismatched) Error() string {
	return fmt.Sprintf("expect ndim %d but got %d", err.Expected, err.Actual)
}

func (err *IndexOutOfRange) Error() string {
	return fmt.Sprintf("tensor ndim is %d but got index %d => %d", err.Ndim, err.Index, err.Normalized)
}

func (err *SameAxis) Error() string {
	return fmt.Sprintf("axis should be unique, but got %d and %d", err.Axis1, err.Axis2)
}

func (err *Broadcast) Error() string {
	return fmt.Sprintf("cannot broadcast lhs: %s with rhs: %s, expect lhs_shape[%d] or rhs_shape[%d] to be 1", err.LHS, err.RHS, err.Axis, err.Axis)
}

func (err *Reshape) Error() string {
	return fmt.Sprintf("cannot reshape from %s with size %s to %s with size %s", err.OldShape, err.OldSize, err.NewShape, err.NewSize)
}

func (err *IndexRepeated) Error() string {
	return fmt.Sprintf("axis %d is repeated in %v", err.Index, err.Axes)
}

func (err *ExpandDim) Error() string {
	return fmt.Sprintf("cannot expand %s to %s: axis %d must be 1 or match the target", err.Shape, err.Target, err.Axis)
}

func (err *NegativeDim) Error() string {
	return fmt.Sprintf("axis %d of shape %s has a negative length", err.Axis, err.Shape)
}

func (err *SliceStep) Error() string {
	return fmt.Sprintf("cannot slice axis %d with a zero step", err.Axis)
}

func (err *SliceRange) Error() string {
	return fmt.Sprintf("cannot slice axis %d of length %s from %s to %s by step %d", err.Axis, err.Dim, err.Begin, err.End, err.Step)
}

func (err *DTypeMismatched) Error() string {
	return fmt.Sprintf("operator %s does not support data type %s", err.Op, err.DType.String())
}

// New attaches a stack trace to one of the errors of this package.
func New(err error) error {
	return errors.WithStack(err)
}

// Internal wraps an error that should never happen if the package invariants hold.
func Internal(err error) error {
	return fmt.Errorf("tensorfuse internal error. This is a bug. Please report it. Error:\n%+v", err)
}

// Internalf formats an internal error.
func Internalf(format string, a ...any) error {
	return Internal(errors.Errorf(format, a...))
}
