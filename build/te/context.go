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

// Package te builds tensor graphs and lowers them into loop nests.
//
// Operations are recorded on a Context as nodes. Shapes and data types are
// checked when an operation is recorded: an operation that fails leaves the
// context unchanged. Lowering turns the nodes required by a set of outputs
// into stages, fusing chains of element-wise operations into a single loop
// nest.
package te

import (
	"slices"
	"strings"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorfuse/base/ordered"
	"github.com/gx-org/tensorfuse/base/uname"
	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/gx-org/tensorfuse/build/shapeerr"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	// BlockID identifies a block of a context.
	BlockID int

	// Block groups the nodes created between a PushBlock and a PopBlock.
	Block struct {
		ID     BlockID
		Name   string
		Parent BlockID
	}
)

// RootBlock is the block of a new context.
const RootBlock BlockID = 0

// Context owns the nodes of a tensor graph.
// A context is not safe for concurrent use.
type Context struct {
	Logger *zap.Logger

	nodes  []*Node
	blocks *ordered.Map[BlockID, *Block]
	stack  []BlockID
	names  *uname.Unique
}

// NewContext returns a new empty context.
func NewContext() *Context {
	c := &Context{
		Logger: zap.NewNop(),
		blocks: ordered.NewMap[BlockID, *Block](),
		stack:  []BlockID{RootBlock},
		names:  uname.New(),
	}
	c.blocks.Store(RootBlock, &Block{ID: RootBlock, Name: "root", Parent: RootBlock})
	return c
}

// WithLogger sets the logger of the context.
func (c *Context) WithLogger(log *zap.Logger) {
	c.Logger = log.With(zap.String("service", "te"))
}

// Var returns a new symbolic axis length.
// The name of the variable is unique in the context.
func (c *Context) Var(name string) *ir.Variable {
	if name == "" || isReserved(name) {
		name = "_" + name
	}
	return ir.Var(c.names.Name(name))
}

// PushBlock opens a new block nested in the current block.
func (c *Context) PushBlock(name string) BlockID {
	id := BlockID(c.blocks.Size())
	c.blocks.Store(id, &Block{ID: id, Name: name, Parent: c.BlockID()})
	c.stack = append(c.stack, id)
	return id
}

// PopBlock closes the current block.
func (c *Context) PopBlock() error {
	if len(c.stack) <= 1 {
		return errors.Errorf("cannot pop the root block")
	}
	c.stack = c.stack[:len(c.stack)-1]
	return nil
}

// BlockID returns the current block.
func (c *Context) BlockID() BlockID {
	return c.stack[len(c.stack)-1]
}

// Blocks returns all the blocks of the context in creation order.
func (c *Context) Blocks() []*Block {
	return slices.Collect(c.blocks.Values())
}

// Len returns the number of nodes in the context.
func (c *Context) Len() int {
	return len(c.nodes)
}

// Node returns a node given its ID.
func (c *Context) Node(id NodeID) (*Node, bool) {
	if id < 0 || int(id) >= len(c.nodes) {
		return nil, false
	}
	return c.nodes[id], true
}

// Nodes returns all the nodes of the context in creation order.
func (c *Context) Nodes() []*Node {
	return slices.Clone(c.nodes)
}

func (c *Context) checkTensors(ts ...*Tensor) error {
	for _, t := range ts {
		if t == nil {
			return errors.Errorf("nil tensor")
		}
		if t.ctx != c {
			return errors.Errorf("tensor %s belongs to another context", t.id)
		}
	}
	return nil
}

// newNode records a node. All the checks of the operation must have
// passed before calling this function.
func (c *Context) newNode(op Op, dt dtype.DataType, shape []ir.Expr, inputs ...*Tensor) *Tensor {
	n := &Node{
		ctx:    c,
		id:     NodeID(len(c.nodes)),
		shape:  shape,
		dtype:  dt,
		op:     op,
		block:  c.BlockID(),
		inputs: make([]NodeID, len(inputs)),
	}
	for i, input := range inputs {
		n.inputs[i] = input.id
		if !slices.Contains(n.inputs[:i], input.id) {
			c.nodes[input.id].consumers++
		}
	}
	c.nodes = append(c.nodes, n)
	return &Tensor{ctx: c, id: n.id}
}

func checkDType(op string, dt dtype.DataType) error {
	if !ir.IsNumeric(dt) {
		return shapeerr.New(&shapeerr.DTypeMismatched{Op: op, DType: dt})
	}
	return nil
}

func (c *Context) String() string {
	lines := make([]string, len(c.nodes))
	for i, n := range c.nodes {
		lines[i] = n.String()
	}
	return strings.Join(lines, "\n")
}
