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

package te_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/gx-org/tensorfuse/build/shapeerr"
	"github.com/gx-org/tensorfuse/build/te"
	"github.com/pkg/errors"
)

func TestVar(t *testing.T) {
	ctx := te.NewContext()
	var got []string
	for _, name := range []string{"n", "n", "ax0", "%1", "", "axis"} {
		got = append(got, ctx.Var(name).Name)
	}
	want := []string{"n", "n1", "_ax0", "_%1", "_", "axis"}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("unexpected variable names:\n%s", diff)
	}
}

func TestBlocks(t *testing.T) {
	ctx := te.NewContext()
	x := must(t)(ctx.Placeholder("x", dtype.Float32, ir.Int(2)))
	layer := ctx.PushBlock("layer")
	inner := ctx.PushBlock("inner")
	y := must(t)(ctx.Exp(x))
	if err := ctx.PopBlock(); err != nil {
		t.Fatal(err)
	}
	z := must(t)(ctx.Neg(y))
	if err := ctx.PopBlock(); err != nil {
		t.Fatal(err)
	}
	if err := ctx.PopBlock(); err == nil {
		t.Errorf("popping the root block should fail")
	}
	got := []te.BlockID{x.Node().Block(), y.Node().Block(), z.Node().Block()}
	if diff := cmp.Diff(got, []te.BlockID{te.RootBlock, inner, layer}); diff != "" {
		t.Errorf("unexpected blocks:\n%s", diff)
	}
	blocks := ctx.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("got %d blocks but want 3", len(blocks))
	}
	if blocks[2].Parent != layer || blocks[1].Parent != te.RootBlock {
		t.Errorf("unexpected block parents: %v %v", blocks[1], blocks[2])
	}
}

func TestBroadcastShapes(t *testing.T) {
	n, m := ir.Var("n"), ir.Var("m")
	tests := []struct {
		lhs, rhs []ir.Expr
		want     []ir.Expr
		errAxis  int
	}{
		{lhs: []ir.Expr{n, m}, rhs: []ir.Expr{m}, want: []ir.Expr{n, m}},
		{lhs: []ir.Expr{n, ir.Int(1)}, rhs: []ir.Expr{ir.Int(1), m}, want: []ir.Expr{n, m}},
		{lhs: []ir.Expr{}, rhs: []ir.Expr{n}, want: []ir.Expr{n}},
		{lhs: []ir.Expr{ir.Int(2), n}, rhs: []ir.Expr{ir.Int(3), n}, errAxis: 0},
		{lhs: []ir.Expr{n}, rhs: []ir.Expr{m, m}, errAxis: 1},
	}
	for i, test := range tests {
		got, err := te.BroadcastShapes(test.lhs, test.rhs)
		if test.want == nil {
			var bErr *shapeerr.Broadcast
			if !errors.As(err, &bErr) {
				t.Errorf("test %d: got error %v but want a %T", i, err, bErr)
				continue
			}
			if bErr.Axis != test.errAxis {
				t.Errorf("test %d: got axis %d but want %d", i, bErr.Axis, test.errAxis)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d: %+v", i, err)
			continue
		}
		if !ir.EqualExprs(got, test.want) {
			t.Errorf("test %d: got %v but want %v", i, got, test.want)
		}
	}
}

func TestReshapeSizeLaw(t *testing.T) {
	ctx := te.NewContext()
	n := ctx.Var("n")
	x := must(t)(ctx.Placeholder("x", dtype.Float32, n, ir.Int(4)))
	if _, err := ctx.Reshape(x, ir.Int(2), n, ir.Int(2)); err != nil {
		t.Errorf("%+v", err)
	}
	if _, err := ctx.Reshape(x, ir.Mul(ir.Int(4), n)); err != nil {
		t.Errorf("%+v", err)
	}
	_, err := ctx.Reshape(x, n, ir.Int(3))
	var rErr *shapeerr.Reshape
	if !errors.As(err, &rErr) {
		t.Fatalf("got error %v but want a %T", err, rErr)
	}
	if got, want := rErr.OldSize.String(), "(n * 4)"; got != want {
		t.Errorf("got old size %s but want %s", got, want)
	}
	if got, want := rErr.NewSize.String(), "(n * 3)"; got != want {
		t.Errorf("got new size %s but want %s", got, want)
	}
	if got, want := rErr.NewShape.String(), "[n, 3]"; got != want {
		t.Errorf("got new shape %s but want %s", got, want)
	}
}

func TestConstructionErrors(t *testing.T) {
	ctx := te.NewContext()
	n := ctx.Var("n")
	x := must(t)(ctx.Placeholder("x", dtype.Float32, n, ir.Int(3)))
	b := must(t)(ctx.Placeholder("b", dtype.Bool, n))
	y := must(t)(ctx.Placeholder("y", dtype.Float32, ir.Int(2)))
	other := must(t)(te.NewContext().Placeholder("o", dtype.Float32, n))
	tests := []struct {
		name  string
		build func() (*te.Tensor, error)
		want  any
	}{
		{
			name:  "same axis",
			build: func() (*te.Tensor, error) { return ctx.Transpose(x, 1, -1) },
			want:  new(*shapeerr.SameAxis),
		},
		{
			name:  "axis out of range",
			build: func() (*te.Tensor, error) { return ctx.Transpose(x, 0, 2) },
			want:  new(*shapeerr.IndexOutOfRange),
		},
		{
			name:  "negative axis out of range",
			build: func() (*te.Tensor, error) { return ctx.Sum(x, -3) },
			want:  new(*shapeerr.IndexOutOfRange),
		},
		{
			name:  "repeated axis",
			build: func() (*te.Tensor, error) { return ctx.Sum(x, 1, -1) },
			want:  new(*shapeerr.IndexRepeated),
		},
		{
			name:  "permutation rank",
			build: func() (*te.Tensor, error) { return ctx.Permute(x, 0) },
			want:  new(*shapeerr.NdimMismatched),
		},
		{
			name:  "expand axis",
			build: func() (*te.Tensor, error) { return ctx.Expand(x, n, ir.Int(6)) },
			want:  new(*shapeerr.ExpandDim),
		},
		{
			name:  "expand rank",
			build: func() (*te.Tensor, error) { return ctx.Expand(x, ir.Int(3)) },
			want:  new(*shapeerr.NdimMismatched),
		},
		{
			name:  "unsqueeze",
			build: func() (*te.Tensor, error) { return ctx.Unsqueeze(x, 3) },
			want:  new(*shapeerr.IndexOutOfRange),
		},
		{
			name:  "broadcast",
			build: func() (*te.Tensor, error) { return ctx.Add(x, y) },
			want:  new(*shapeerr.Broadcast),
		},
		{
			name:  "boolean operand",
			build: func() (*te.Tensor, error) { return ctx.Exp(b) },
			want:  new(*shapeerr.DTypeMismatched),
		},
		{
			name:  "negative placeholder axis",
			build: func() (*te.Tensor, error) { return ctx.Placeholder("z", dtype.Float32, n, ir.Int(-2)) },
			want:  new(*shapeerr.NegativeDim),
		},
		{
			name:  "negative reshape axis",
			build: func() (*te.Tensor, error) { return ctx.Reshape(x, ir.Int(-1), ir.Int(-3), n) },
			want:  new(*shapeerr.NegativeDim),
		},
		{
			name:  "negative expand axis",
			build: func() (*te.Tensor, error) { return ctx.Expand(x, ir.Sub(ir.Int(1), ir.Int(2)), ir.Int(3)) },
			want:  new(*shapeerr.NegativeDim),
		},
		{
			name: "zero slice step",
			build: func() (*te.Tensor, error) {
				return ctx.Slice(x, te.Selection{Axis: 1, Step: 0})
			},
			want: new(*shapeerr.SliceStep),
		},
		{
			name: "slice axis out of range",
			build: func() (*te.Tensor, error) {
				return ctx.Slice(x, te.Selection{Axis: 2, Step: 1})
			},
			want: new(*shapeerr.IndexOutOfRange),
		},
		{
			name: "slice axis repeated",
			build: func() (*te.Tensor, error) {
				return ctx.Slice(x, te.Selection{Axis: 1, Step: 1}, te.Selection{Axis: -1, Step: 2})
			},
			want: new(*shapeerr.IndexRepeated),
		},
		{
			name: "slice past the end",
			build: func() (*te.Tensor, error) {
				return ctx.Slice(x, te.Selection{Axis: 1, Begin: ir.Int(1), End: ir.Int(4), Step: 1})
			},
			want: new(*shapeerr.SliceRange),
		},
		{
			name: "slice backward past the end",
			build: func() (*te.Tensor, error) {
				return ctx.Slice(x, te.Selection{Axis: 1, Begin: ir.Int(3), Step: -1})
			},
			want: new(*shapeerr.SliceRange),
		},
		{
			name:  "other context",
			build: func() (*te.Tensor, error) { return ctx.Add(x, other) },
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			before := ctx.Len()
			consumers := x.Node().Consumers()
			got, err := test.build()
			if err == nil {
				t.Fatalf("got %s but want an error", got)
			}
			if test.want != nil && !errors.As(err, test.want) {
				t.Errorf("got error %v of type %T but want a %T", err, err, test.want)
			}
			if after := ctx.Len(); after != before {
				t.Errorf("context has %d nodes after a failure but had %d before", after, before)
			}
			if got := x.Node().Consumers(); got != consumers {
				t.Errorf("got %d consumers after a failure but want %d", got, consumers)
			}
		})
	}
}

func TestAtomicFailure(t *testing.T) {
	ctx := te.NewContext()
	x := must(t)(ctx.Placeholder("x", dtype.Float32, ir.Int(2), ir.Int(3)))
	y := must(t)(ctx.Placeholder("y", dtype.Float32, ir.Int(4)))
	before := ctx.String()
	if _, err := ctx.Mul(x, y); err == nil {
		t.Fatalf("expected a broadcast error")
	}
	if after := ctx.String(); after != before {
		t.Errorf("context changed after a failure:\n%s\nwant:\n%s", after, before)
	}
	if x.Node().Consumers() != 0 || y.Node().Consumers() != 0 {
		t.Errorf("consumers changed after a failure")
	}
	z := must(t)(ctx.Mul(x, x))
	if z.ID() != 2 {
		t.Errorf("got id %d but want 2", z.ID())
	}
	if x.Node().Consumers() != 1 {
		t.Errorf("got %d consumers but want 1", x.Node().Consumers())
	}
}

func TestLowerErrors(t *testing.T) {
	ctx := te.NewContext()
	if _, err := ctx.Lower(); err == nil {
		t.Errorf("lowering without output should fail")
	}
	other := must(t)(te.NewContext().Placeholder("x", dtype.Float32))
	if _, err := ctx.Lower(other); err == nil {
		t.Errorf("lowering a tensor of another context should fail")
	}
}
