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
	"fmt"
	"slices"

	"github.com/gx-org/backend/dtype"
	gxfmt "github.com/gx-org/tensorfuse/base/fmt"
	"github.com/gx-org/tensorfuse/build/ir"
)

// NodeID identifies a node in a context.
// The ID of a node is always greater than the IDs of its inputs.
type NodeID int

func (id NodeID) String() string {
	return BufferName(id)
}

// Node of a tensor graph.
//
// A node is only created after all the checks of its operation passed.
// Except for its number of consumers, a node is never modified once created.
type Node struct {
	ctx       *Context
	id        NodeID
	shape     []ir.Expr
	dtype     dtype.DataType
	inputs    []NodeID
	op        Op
	block     BlockID
	consumers int
}

// ID of the node.
func (n *Node) ID() NodeID {
	return n.id
}

// Shape returns the axis lengths of the node.
func (n *Node) Shape() []ir.Expr {
	return slices.Clone(n.shape)
}

// Rank returns the number of axes of the node.
func (n *Node) Rank() int {
	return len(n.shape)
}

// DType returns the data type of the node elements.
func (n *Node) DType() dtype.DataType {
	return n.dtype
}

// Inputs returns the IDs of the input nodes.
func (n *Node) Inputs() []NodeID {
	return slices.Clone(n.inputs)
}

// Op returns the operation computing the node.
func (n *Node) Op() Op {
	return n.op
}

// Block returns the block in which the node has been created.
func (n *Node) Block() BlockID {
	return n.block
}

// Consumers returns the number of distinct nodes of the context using this
// node as an input. Lowering only counts the consumers the requested
// outputs depend on.
func (n *Node) Consumers() int {
	return n.consumers
}

func (n *Node) input(i int) *Node {
	return n.ctx.nodes[n.inputs[i]]
}

func (n *Node) inputShapes() [][]ir.Expr {
	shapes := make([][]ir.Expr, len(n.inputs))
	for i := range n.inputs {
		shapes[i] = n.input(i).shape
	}
	return shapes
}

func (n *Node) String() string {
	return fmt.Sprintf("%s = %s: %s[%s]", n.id, opString(n.op, n.inputs), n.dtype.String(), gxfmt.List(n.shape))
}
