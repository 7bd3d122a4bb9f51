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
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/tensorfuse/build/ir"
)

// Tensor is a handle on a node of a context.
type Tensor struct {
	ctx *Context
	id  NodeID
}

// ID of the node referenced by the tensor.
func (t *Tensor) ID() NodeID {
	return t.id
}

// Context owning the node.
func (t *Tensor) Context() *Context {
	return t.ctx
}

// Node referenced by the tensor.
func (t *Tensor) Node() *Node {
	return t.ctx.nodes[t.id]
}

// Shape returns the axis lengths of the tensor.
func (t *Tensor) Shape() []ir.Expr {
	return t.Node().Shape()
}

// Rank returns the number of axes of the tensor.
func (t *Tensor) Rank() int {
	return t.Node().Rank()
}

// DType returns the data type of the tensor elements.
func (t *Tensor) DType() dtype.DataType {
	return t.Node().dtype
}

func (t *Tensor) String() string {
	return t.Node().String()
}
