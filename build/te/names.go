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
	"regexp"
	"strings"

	"github.com/gx-org/tensorfuse/build/ir"
)

// BufferName returns the name of the buffer storing the value of a node.
func BufferName(id NodeID) string {
	return fmt.Sprintf("%%%d", id)
}

// StridesName returns the name of the stride table of a stage.
func StridesName(id NodeID) string {
	return fmt.Sprintf("%%%d.s", id)
}

// ValueName returns the name of the variable holding the value of a node
// for the current iteration of a stage.
func ValueName(id NodeID) string {
	return fmt.Sprintf("%%%d_val", id)
}

// AxisName returns the name of the loop variable iterating over an axis of a stage.
func AxisName(axis int) string {
	return fmt.Sprintf("ax%d", axis)
}

// renamedValue returns the name of a variable renamed when fusing the
// operands of a node.
func renamedValue(name string, id NodeID) string {
	return fmt.Sprintf("%s_%d", name, id)
}

func reduceName(id NodeID, axis int) string {
	return fmt.Sprintf("%%%dred%d", id, axis)
}

func accName(id NodeID) string {
	return fmt.Sprintf("%%%d_acc", id)
}

func bufVar(id NodeID) *ir.Variable {
	return ir.Var(BufferName(id))
}

func valVar(id NodeID) *ir.Variable {
	return ir.Var(ValueName(id))
}

func axisVars(rank int) []ir.Expr {
	vars := make([]ir.Expr, rank)
	for i := range vars {
		vars[i] = ir.Var(AxisName(i))
	}
	return vars
}

// strideLoad reads the k-th entry of the stride table of a stage.
func strideLoad(id NodeID, k int) *ir.Load {
	return &ir.Load{
		Buf:     ir.Var(StridesName(id)),
		Indices: []ir.Expr{ir.Int(int64(k))},
		Strides: []ir.Expr{ir.Int(1)},
	}
}

func strideLoads(id NodeID, offset, rank int) []ir.Expr {
	loads := make([]ir.Expr, rank)
	for i := range loads {
		loads[i] = strideLoad(id, offset+i)
	}
	return loads
}

func dimsOf(shape []ir.Expr) []*ir.IterVar {
	dims := make([]*ir.IterVar, len(shape))
	for i, dim := range shape {
		dims[i] = ir.Range(dim, AxisName(i))
	}
	return dims
}

var axisNameRegexp = regexp.MustCompile(`^ax[0-9]+$`)

// isReserved returns true if a name could collide with a name generated
// during lowering.
func isReserved(name string) bool {
	return strings.HasPrefix(name, "%") || axisNameRegexp.MatchString(name)
}
