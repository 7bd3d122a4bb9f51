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

import "github.com/gx-org/tensorfuse/build/strides"

// StridesCal returns the function computing the stride table of the stage
// of the node given the functions of the stages of its inputs.
func (n *Node) StridesCal(parents []strides.Func) strides.Func {
	switch op := n.op.(type) {
	case *Placeholder:
		return strides.Contiguous(n.shape)
	case *Constant:
		return strides.None()
	case *Unary:
		return parents[0]
	case *Binary:
		return strides.Concat(strides.Compose(parents, n.inputShapes(), n.shape)...)
	case *Reduce:
		return strides.Reduce(parents[0], op.Axes)
	case *Reshape:
		if n.input(0).op.Kind() == ConstantKind {
			return strides.None()
		}
		return strides.Contiguous(n.shape)
	case *Permute:
		return strides.Permute(parents[0], op.Perm)
	case *Expand:
		return strides.Elementwise(parents[0], n.input(0).shape, n.shape)
	case *Unsqueeze:
		return strides.Insert(parents[0], op.Axis)
	case *Slice:
		return strides.Slice(parents[0], n.fixedAxes())
	}
	return strides.None()
}
