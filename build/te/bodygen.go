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

	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/gx-org/tensorfuse/build/ir/subst"
)

// leafStage returns a stage reading the buffer of a node.
func leafStage(n *Node) *Stage {
	load := &ir.Load{
		Buf:     bufVar(n.id),
		Indices: axisVars(n.Rank()),
		Strides: strideLoads(n.id, 0, n.Rank()),
	}
	return &Stage{
		Dims:   dimsOf(n.shape),
		Bodys:  []ir.Stmt{ir.Let(valVar(n.id), load)},
		ID:     n.id,
		OutID:  n.id,
		DType:  n.dtype,
		Leaves: []Leaf{{ID: n.id, Rank: n.Rank()}},
	}
}

// asStage returns a copy of a body as a stage.
// A single statement is wrapped into a stage without loop.
func asStage(b Body) *Stage {
	switch bT := b.(type) {
	case *Stage:
		return bT.Clone()
	case *StmtBody:
		return &Stage{
			Bodys: []ir.Stmt{bT.Stmt},
			ID:    bT.ID,
			OutID: bT.ID,
			DType: bT.DType,
		}
	}
	return nil
}

// renameStrides registers the replacement of the stride table of a stage
// by the stride table of another.
func renameStrides(v *subst.Visitor, from, to NodeID) {
	if from != to {
		v.AddReplacement(ir.Var(StridesName(from)), ir.Var(StridesName(to)))
	}
}

// renameAxis registers the replacement of a loop variable.
func renameAxis(v *subst.Visitor, from int, to ir.Expr) {
	fromVar := ir.Var(AxisName(from))
	if !ir.Equal(fromVar, to) {
		v.AddReplacement(fromVar, to)
	}
}

// alignAxes registers the renaming of the loop variables of a stage of a
// given rank aligned on the last axis of a stage of a larger rank.
func alignAxes(v *subst.Visitor, rank, outRank int) {
	offset := outRank - rank
	if offset == 0 {
		return
	}
	for i := range rank {
		renameAxis(v, i, ir.Var(AxisName(i+offset)))
	}
}

// emit appends the statement computing the value of a node to a stage.
// The value is stored in the buffer of the node if the node is an output
// or bound to the value variable of the node otherwise.
func (n *Node) emit(st *Stage, value ir.Expr, isOutput bool) *Stage {
	if isOutput {
		store := ir.MustStore(bufVar(n.id), axisVars(n.Rank()), ir.RowMajorStrides(n.shape), value)
		st.Bodys = append(st.Bodys, store)
	} else {
		st.Bodys = append(st.Bodys, ir.Let(valVar(n.id), value))
	}
	st.ID = n.id
	st.DType = n.dtype
	return st
}

// fuse extends the stage of the input of a single input node.
// The returned stage iterates over the shape of the node.
func (n *Node) fuse(input Body, v *subst.Visitor, value ir.Expr, isOutput bool) *Stage {
	st := asStage(input)
	renameStrides(v, st.ID, n.id)
	st.Bodys = v.MutateStmts(st.Bodys)
	st.Dims = dimsOf(n.shape)
	return n.emit(st, value, isOutput)
}

// BodyGen returns the body computing the node given the bodies of its inputs.
// If the node is an output, the body stores its value in the node buffer.
func (n *Node) BodyGen(inputs []Body, isOutput bool) Body {
	switch op := n.op.(type) {
	case *Placeholder:
		st := leafStage(n)
		if isOutput {
			return n.emit(st, valVar(n.id), true)
		}
		return st
	case *Constant:
		value := ir.Const(n.dtype, op.Value)
		if isOutput {
			return n.emit(&Stage{ID: n.id, OutID: n.id}, value, true)
		}
		return &StmtBody{ID: n.id, DType: n.dtype, Stmt: ir.Let(valVar(n.id), value)}
	case *Unary:
		in := n.input(0)
		value := op.expr(valVar(inputs[0].NodeID()), in.dtype, n.dtype)
		return n.fuse(inputs[0], subst.New(), value, isOutput)
	case *Binary:
		return n.binaryBody(op, inputs, isOutput)
	case *Reduce:
		return n.reduceBody(op, inputs[0], isOutput)
	case *Reshape:
		return n.reshapeBody(inputs[0], isOutput)
	case *Permute:
		v := subst.New()
		for i, p := range op.Perm {
			renameAxis(v, p, ir.Var(AxisName(i)))
		}
		return n.fuse(inputs[0], v, valVar(inputs[0].NodeID()), isOutput)
	case *Expand:
		v := subst.New()
		alignAxes(v, n.input(0).Rank(), n.Rank())
		return n.fuse(inputs[0], v, valVar(inputs[0].NodeID()), isOutput)
	case *Unsqueeze:
		v := subst.New()
		for i := op.Axis; i < n.input(0).Rank(); i++ {
			renameAxis(v, i, ir.Var(AxisName(i+1)))
		}
		return n.fuse(inputs[0], v, valVar(inputs[0].NodeID()), isOutput)
	case *Slice:
		v := subst.New()
		fixed := n.fixedAxes()
		for i, sel := range op.Sels {
			if slices.Contains(fixed, i) {
				renameAxis(v, i, sel.Begin)
				continue
			}
			renameAxis(v, i, sel.index(ir.Var(AxisName(i))))
		}
		return n.fuse(inputs[0], v, valVar(inputs[0].NodeID()), isOutput)
	}
	return nil
}

// fixedAxes returns the axes a slice reduces to a single element.
// The input of the slice is read at the beginning of the selection
// whatever the index of the loop over the axis.
func (n *Node) fixedAxes() []int {
	if _, ok := n.op.(*Slice); !ok {
		return nil
	}
	var fixed []int
	for i, dim := range n.shape {
		if ir.IsOne(dim) {
			fixed = append(fixed, i)
		}
	}
	return fixed
}

// binaryBody concatenates the stages of both operands.
// The stride tables of the operands are concatenated into the stride
// table of the node: the first entries are the strides of the left
// operand, followed by the strides of the right operand.
// Variables of the right operand also bound by the left operand are
// renamed: both operands can read the same buffer at different offsets.
func (n *Node) binaryBody(op *Binary, inputs []Body, isOutput bool) *Stage {
	lhs, rhs := asStage(inputs[0]), asStage(inputs[1])
	lhsNode, rhsNode := n.input(0), n.input(1)
	st := &Stage{
		Dims:   dimsOf(n.shape),
		OutID:  lhs.OutID,
		Leaves: slices.Concat(lhs.Leaves, rhs.Leaves),
	}
	rhsVal := valVar(rhs.ID)
	offset := 0
	for i, operand := range []*Stage{lhs, rhs} {
		v := subst.New()
		alignAxes(v, n.input(i).Rank(), n.Rank())
		width := operand.StridesWidth()
		for k := range width {
			v.AddReplacement(strideLoad(operand.ID, k), strideLoad(n.id, offset+k))
		}
		offset += width
		if i == 1 {
			bound := letNames(st.Bodys)
			for name := range letNames(operand.Bodys) {
				if !bound[name] {
					continue
				}
				renamed := ir.Var(renamedValue(name, n.id))
				v.AddReplacement(ir.Var(name), renamed)
				if name == rhsVal.Name {
					rhsVal = renamed
				}
			}
		}
		st.Bodys = append(st.Bodys, v.MutateStmts(operand.Bodys)...)
	}
	value := op.expr(
		valVar(lhs.ID), lhsNode.dtype,
		rhsVal, rhsNode.dtype,
		ir.Promote(lhsNode.dtype, rhsNode.dtype),
	)
	return n.emit(st, value, isOutput)
}

// letNames returns the names of the variables bound by let statements.
func letNames(stmts []ir.Stmt) map[string]bool {
	names := make(map[string]bool)
	var walk func(ir.Stmt)
	walk = func(stmt ir.Stmt) {
		switch sT := stmt.(type) {
		case *ir.LetStmt:
			names[sT.Var.Name] = true
			walk(sT.Body)
		case *ir.Seq:
			for _, s := range sT.Stmts {
				walk(s)
			}
		case *ir.For:
			walk(sT.Body)
		case *ir.If:
			walk(sT.Then)
			walk(sT.Else)
		}
	}
	for _, stmt := range stmts {
		walk(stmt)
	}
	return names
}

// reduceBody accumulates the value of the input stage over the reduced axes.
// The loops over the reduced axes are nested in the loops over the kept axes.
func (n *Node) reduceBody(op *Reduce, input Body, isOutput bool) *Stage {
	in := asStage(input)
	inNode := n.input(0)
	v := subst.New()
	renameStrides(v, in.ID, n.id)
	var loops []*ir.IterVar
	kept := 0
	for i, dim := range inNode.shape {
		if slices.Contains(op.Axes, i) {
			iv := ir.Range(dim, reduceName(n.id, i))
			loops = append(loops, iv)
			renameAxis(v, i, iv.Var())
			continue
		}
		renameAxis(v, i, ir.Var(AxisName(kept)))
		kept++
	}
	acc := ir.Var(accName(n.id))
	inner := append(v.MutateStmts(in.Bodys), ir.Accum(acc, op.Fn.accumOp(), valVar(in.ID)))
	st := &Stage{
		Dims: dimsOf(n.shape),
		Bodys: []ir.Stmt{
			ir.LetMut(acc, op.Fn.init(n.dtype)),
			ir.Nest(loops, ir.NewSeq(inner...)),
		},
		OutID:  in.OutID,
		Leaves: in.Leaves,
	}
	return n.emit(st, acc, isOutput)
}

// reshapeBody reads the buffer of the input with the shape of the node.
// The input is either a contiguous buffer or a scalar constant.
func (n *Node) reshapeBody(input Body, isOutput bool) *Stage {
	if _, ok := input.(*StmtBody); ok {
		return n.fuse(input, subst.New(), valVar(input.NodeID()), isOutput)
	}
	in := n.input(0)
	load := &ir.Load{
		Buf:     bufVar(in.id),
		Indices: axisVars(n.Rank()),
		Strides: strideLoads(n.id, 0, n.Rank()),
	}
	st := &Stage{
		Dims:   dimsOf(n.shape),
		Bodys:  []ir.Stmt{ir.Let(valVar(in.id), load)},
		OutID:  n.id,
		Leaves: []Leaf{{ID: in.id, Rank: n.Rank()}},
	}
	return n.emit(st, valVar(in.id), isOutput)
}
