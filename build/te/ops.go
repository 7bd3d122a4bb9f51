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
	"slices"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/gx-org/tensorfuse/build/shapeerr"
	"github.com/pkg/errors"
)

// Placeholder returns a new input of the graph.
// The axis lengths can be symbolic, see Context.Var.
func (c *Context) Placeholder(name string, dt dtype.DataType, shape ...ir.Expr) (*Tensor, error) {
	if dt != dtype.Bool {
		if err := checkDType("placeholder", dt); err != nil {
			return nil, err
		}
	}
	for i, dim := range shape {
		if ir.IsNone(dim) {
			return nil, errors.Errorf("axis %d of placeholder %s has no length", i, name)
		}
	}
	if err := checkDims(shape); err != nil {
		return nil, err
	}
	return c.newNode(&Placeholder{Name: name}, dt, slices.Clone(shape)), nil
}

// Scalar returns a scalar constant.
func (c *Context) Scalar(dt dtype.DataType, v float64) (*Tensor, error) {
	if err := checkDType("scalar", dt); err != nil {
		return nil, err
	}
	return c.newNode(&Constant{Value: v}, dt, nil), nil
}

func (c *Context) unary(op *Unary, x *Tensor) (*Tensor, error) {
	if err := c.checkTensors(x); err != nil {
		return nil, err
	}
	in := x.Node()
	out := in.dtype
	switch {
	case op.Fn == UnaryCast:
		if op.To != dtype.Bool {
			if err := checkDType(op.String(), op.To); err != nil {
				return nil, err
			}
		}
		out = op.To
	case op.Fn.hasFloatResult():
		if err := checkDType(op.String(), in.dtype); err != nil {
			return nil, err
		}
		out = ir.FloatOf(in.dtype)
	default:
		if err := checkDType(op.String(), in.dtype); err != nil {
			return nil, err
		}
	}
	return c.newNode(op, out, in.shape, x), nil
}

// Neg returns -x.
func (c *Context) Neg(x *Tensor) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnaryNeg}, x)
}

// Exp returns the exponential of x.
func (c *Context) Exp(x *Tensor) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnaryExp}, x)
}

// Log returns the natural logarithm of x.
func (c *Context) Log(x *Tensor) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnaryLog}, x)
}

// Sqrt returns the square root of x.
func (c *Context) Sqrt(x *Tensor) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnarySqrt}, x)
}

// Sin returns the sine of x.
func (c *Context) Sin(x *Tensor) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnarySin}, x)
}

// Cos returns the cosine of x.
func (c *Context) Cos(x *Tensor) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnaryCos}, x)
}

// Tanh returns the hyperbolic tangent of x.
func (c *Context) Tanh(x *Tensor) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnaryTanh}, x)
}

// Abs returns the absolute value of x.
func (c *Context) Abs(x *Tensor) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnaryAbs}, x)
}

// Relu returns max(0, x).
func (c *Context) Relu(x *Tensor) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnaryRelu}, x)
}

// Sigmoid returns 1/(1+exp(-x)).
func (c *Context) Sigmoid(x *Tensor) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnarySigmoid}, x)
}

// Celu returns max(0, x) + min(0, alpha*(exp(x/alpha)-1)).
func (c *Context) Celu(x *Tensor, alpha float64) (*Tensor, error) {
	if alpha == 0 {
		return nil, errors.Errorf("celu alpha cannot be 0")
	}
	return c.unary(&Unary{Fn: UnaryCelu, Alpha: alpha}, x)
}

// LeakyRelu returns x if x is positive, alpha*x otherwise.
func (c *Context) LeakyRelu(x *Tensor, alpha float64) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnaryLeakyRelu, Alpha: alpha}, x)
}

// Cast converts the elements of x to another data type.
func (c *Context) Cast(x *Tensor, dt dtype.DataType) (*Tensor, error) {
	return c.unary(&Unary{Fn: UnaryCast, To: dt}, x)
}

// BroadcastShapes returns the shape of the result of an element-wise
// operation on two operands. Shapes are aligned on their last axis.
// Two axis lengths are compatible if they are equal or if one of them is 1.
func BroadcastShapes(lhs, rhs []ir.Expr) ([]ir.Expr, error) {
	rank := max(len(lhs), len(rhs))
	shape := make([]ir.Expr, rank)
	for i := range rank {
		li := i - (rank - len(lhs))
		ri := i - (rank - len(rhs))
		switch {
		case li < 0:
			shape[i] = rhs[ri]
		case ri < 0:
			shape[i] = lhs[li]
		case ir.Equal(ir.Simplify(lhs[li]), ir.Simplify(rhs[ri])):
			shape[i] = lhs[li]
		case ir.IsOne(ir.Simplify(lhs[li])):
			shape[i] = rhs[ri]
		case ir.IsOne(ir.Simplify(rhs[ri])):
			shape[i] = lhs[li]
		default:
			return nil, shapeerr.New(&shapeerr.Broadcast{
				LHS:  shapeerr.DimsOf(lhs),
				RHS:  shapeerr.DimsOf(rhs),
				Axis: i,
			})
		}
	}
	return shape, nil
}

func (c *Context) binary(fn BinaryFn, x, y *Tensor) (*Tensor, error) {
	if err := c.checkTensors(x, y); err != nil {
		return nil, err
	}
	xn, yn := x.Node(), y.Node()
	if err := checkDType(fn.String(), xn.dtype); err != nil {
		return nil, err
	}
	if err := checkDType(fn.String(), yn.dtype); err != nil {
		return nil, err
	}
	shape, err := BroadcastShapes(xn.shape, yn.shape)
	if err != nil {
		return nil, err
	}
	dt := ir.Promote(xn.dtype, yn.dtype)
	if fn.IsComparison() {
		dt = dtype.Bool
	}
	return c.newNode(&Binary{Fn: fn}, dt, shape, x, y), nil
}

// Add returns x+y.
func (c *Context) Add(x, y *Tensor) (*Tensor, error) {
	return c.binary(BinaryAdd, x, y)
}

// Sub returns x-y.
func (c *Context) Sub(x, y *Tensor) (*Tensor, error) {
	return c.binary(BinarySub, x, y)
}

// Mul returns x*y.
func (c *Context) Mul(x, y *Tensor) (*Tensor, error) {
	return c.binary(BinaryMul, x, y)
}

// Div returns x/y.
func (c *Context) Div(x, y *Tensor) (*Tensor, error) {
	return c.binary(BinaryDiv, x, y)
}

// Max returns the element-wise maximum of x and y.
func (c *Context) Max(x, y *Tensor) (*Tensor, error) {
	return c.binary(BinaryMax, x, y)
}

// Min returns the element-wise minimum of x and y.
func (c *Context) Min(x, y *Tensor) (*Tensor, error) {
	return c.binary(BinaryMin, x, y)
}

// Lt returns x<y.
func (c *Context) Lt(x, y *Tensor) (*Tensor, error) {
	return c.binary(BinaryLt, x, y)
}

// Gt returns x>y.
func (c *Context) Gt(x, y *Tensor) (*Tensor, error) {
	return c.binary(BinaryGt, x, y)
}

// Eq returns x==y.
func (c *Context) Eq(x, y *Tensor) (*Tensor, error) {
	return c.binary(BinaryEq, x, y)
}

func (c *Context) reduce(fn ReduceFn, x *Tensor, axes []int) (*Tensor, error) {
	if err := c.checkTensors(x); err != nil {
		return nil, err
	}
	in := x.Node()
	if err := checkDType(fn.String(), in.dtype); err != nil {
		return nil, err
	}
	axes, err := shapeerr.NormalizeAxes(in.Rank(), axes)
	if err != nil {
		return nil, err
	}
	if len(axes) == 0 {
		axes = make([]int, in.Rank())
		for i := range axes {
			axes[i] = i
		}
	}
	slices.Sort(axes)
	var shape []ir.Expr
	for i, dim := range in.shape {
		if !slices.Contains(axes, i) {
			shape = append(shape, dim)
		}
	}
	return c.newNode(&Reduce{Fn: fn, Axes: axes}, in.dtype, shape, x), nil
}

// constInt returns the value of an expression if it is an integer constant.
func constInt(x ir.Expr) (int64, bool) {
	c, ok := ir.Simplify(x).(*ir.Constant)
	if !ok || !ir.IsInteger(c.DType) {
		return 0, false
	}
	return c.Int, true
}

// checkDims returns an error if an axis length is a negative constant.
func checkDims(shape []ir.Expr) error {
	for i, dim := range shape {
		if v, ok := constInt(dim); ok && v < 0 {
			return shapeerr.New(&shapeerr.NegativeDim{Shape: shapeerr.DimsOf(shape), Axis: i})
		}
	}
	return nil
}

// Sum returns the sum of the elements of x over a set of axes.
// All axes are reduced if none is specified.
func (c *Context) Sum(x *Tensor, axes ...int) (*Tensor, error) {
	return c.reduce(ReduceSum, x, axes)
}

// Prod returns the product of the elements of x over a set of axes.
// All axes are reduced if none is specified.
func (c *Context) Prod(x *Tensor, axes ...int) (*Tensor, error) {
	return c.reduce(ReduceProd, x, axes)
}

// ReduceMax returns the maximum of the elements of x over a set of axes.
// All axes are reduced if none is specified.
func (c *Context) ReduceMax(x *Tensor, axes ...int) (*Tensor, error) {
	return c.reduce(ReduceMax, x, axes)
}

// ReduceMin returns the minimum of the elements of x over a set of axes.
// All axes are reduced if none is specified.
func (c *Context) ReduceMin(x *Tensor, axes ...int) (*Tensor, error) {
	return c.reduce(ReduceMin, x, axes)
}

// Reshape changes the shape of x.
// Both shapes must have the same number of elements.
func (c *Context) Reshape(x *Tensor, shape ...ir.Expr) (*Tensor, error) {
	if err := c.checkTensors(x); err != nil {
		return nil, err
	}
	in := x.Node()
	if err := checkDims(shape); err != nil {
		return nil, err
	}
	if !ir.SameSize(in.shape, shape) {
		return nil, shapeerr.New(&shapeerr.Reshape{
			OldShape: shapeerr.DimsOf(in.shape),
			NewShape: shapeerr.DimsOf(shape),
			OldSize:  ir.Product(in.shape),
			NewSize:  ir.Product(shape),
		})
	}
	return c.newNode(&Reshape{}, in.dtype, slices.Clone(shape), x), nil
}

// Permute permutes the axes of x: axis i of the result is axis perm[i] of x.
func (c *Context) Permute(x *Tensor, perm ...int) (*Tensor, error) {
	if err := c.checkTensors(x); err != nil {
		return nil, err
	}
	in := x.Node()
	if err := shapeerr.CheckNdimMatch(len(perm), in.Rank()); err != nil {
		return nil, err
	}
	perm, err := shapeerr.NormalizeAxes(in.Rank(), perm)
	if err != nil {
		return nil, err
	}
	shape := make([]ir.Expr, len(perm))
	for i, p := range perm {
		shape[i] = in.shape[p]
	}
	return c.newNode(&Permute{Perm: perm}, in.dtype, shape, x), nil
}

// Transpose swaps two axes of x.
func (c *Context) Transpose(x *Tensor, axis1, axis2 int) (*Tensor, error) {
	if err := c.checkTensors(x); err != nil {
		return nil, err
	}
	rank := x.Rank()
	ax1, err := shapeerr.CheckIndexInRange(rank, axis1)
	if err != nil {
		return nil, err
	}
	ax2, err := shapeerr.CheckIndexInRange(rank, axis2)
	if err != nil {
		return nil, err
	}
	if err := shapeerr.CheckSameAxis(ax1, ax2); err != nil {
		return nil, err
	}
	perm := make([]int, rank)
	for i := range perm {
		perm[i] = i
	}
	perm[ax1], perm[ax2] = perm[ax2], perm[ax1]
	return c.Permute(x, perm...)
}

// Expand broadcasts x to a target shape.
// Shapes are aligned on their last axis. Each axis of x must either be 1
// or match the target.
func (c *Context) Expand(x *Tensor, shape ...ir.Expr) (*Tensor, error) {
	if err := c.checkTensors(x); err != nil {
		return nil, err
	}
	in := x.Node()
	if len(shape) < in.Rank() {
		err := shapeerr.CheckNdimMatch(len(shape), in.Rank())
		return nil, errors.Wrapf(err, "cannot expand %s to %s", shapeerr.DimsOf(in.shape), shapeerr.DimsOf(shape))
	}
	if err := checkDims(shape); err != nil {
		return nil, err
	}
	offset := len(shape) - in.Rank()
	for i, dim := range in.shape {
		target := shape[i+offset]
		if ir.IsOne(ir.Simplify(dim)) || ir.Equal(ir.Simplify(dim), ir.Simplify(target)) {
			continue
		}
		return nil, shapeerr.New(&shapeerr.ExpandDim{
			Shape:  shapeerr.DimsOf(in.shape),
			Target: shapeerr.DimsOf(shape),
			Axis:   i,
		})
	}
	return c.newNode(&Expand{}, in.dtype, slices.Clone(shape), x), nil
}

// Unsqueeze inserts an axis of length 1 at a given position.
func (c *Context) Unsqueeze(x *Tensor, axis int) (*Tensor, error) {
	if err := c.checkTensors(x); err != nil {
		return nil, err
	}
	in := x.Node()
	axis, err := shapeerr.CheckIndexInRange(in.Rank()+1, axis)
	if err != nil {
		return nil, err
	}
	shape := slices.Insert(slices.Clone(in.shape), axis, ir.Expr(ir.Int(1)))
	return c.newNode(&Unsqueeze{Axis: axis}, in.dtype, shape, x), nil
}

// Slice selects a strided range of elements of some axes of x.
// Axes without a selection are kept whole. A nil Begin or End selects from
// the first or up to the last element in the direction of the step.
// Bounds known at construction are checked against the axis length.
func (c *Context) Slice(x *Tensor, sels ...Selection) (*Tensor, error) {
	if err := c.checkTensors(x); err != nil {
		return nil, err
	}
	in := x.Node()
	full := make([]Selection, in.Rank())
	for i, dim := range in.shape {
		full[i] = Selection{Axis: i, Begin: ir.Int(0), End: dim, Step: 1}
	}
	axes := make([]int, len(sels))
	for i, sel := range sels {
		axes[i] = sel.Axis
	}
	axes, err := shapeerr.NormalizeAxes(in.Rank(), axes)
	if err != nil {
		return nil, err
	}
	for i, sel := range sels {
		axis := axes[i]
		if sel.Step == 0 {
			return nil, shapeerr.New(&shapeerr.SliceStep{Axis: axis})
		}
		sel.Axis = axis
		sel.Begin, sel.End = sliceBounds(sel, in.shape[axis])
		if err := checkSliceRange(sel, in.shape[axis]); err != nil {
			return nil, err
		}
		full[axis] = sel
	}
	shape := make([]ir.Expr, len(full))
	for i, sel := range full {
		shape[i] = sel.length()
	}
	return c.newNode(&Slice{Sels: full}, in.dtype, shape, x), nil
}

func sliceBounds(sel Selection, dim ir.Expr) (begin, end ir.Expr) {
	begin, end = sel.Begin, sel.End
	if begin == nil {
		begin = ir.Int(0)
		if sel.Step < 0 {
			begin = ir.Sub(dim, ir.Int(1))
		}
	}
	if end == nil {
		end = dim
		if sel.Step < 0 {
			end = ir.Int(-1)
		}
	}
	return ir.Simplify(begin), ir.Simplify(end)
}

// checkSliceRange checks the bounds of a selection that are constant.
// Selecting no element is valid.
func checkSliceRange(sel Selection, dim ir.Expr) error {
	begin, beginOk := constInt(sel.Begin)
	end, endOk := constInt(sel.End)
	length, lengthOk := constInt(dim)
	var valid bool
	if sel.Step > 0 {
		valid = !(beginOk && begin < 0) &&
			!(beginOk && endOk && end < begin) &&
			!(endOk && lengthOk && end > length)
	} else {
		valid = !(endOk && end < -1) &&
			!(beginOk && endOk && begin < end) &&
			!(beginOk && lengthOk && begin >= length && begin != end)
	}
	if valid {
		return nil
	}
	return shapeerr.New(&shapeerr.SliceRange{
		Axis:  sel.Axis,
		Begin: sel.Begin,
		End:   sel.End,
		Step:  sel.Step,
		Dim:   dim,
	})
}
