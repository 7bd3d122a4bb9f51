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

package ir

import "fmt"

// IterVar is a named loop dimension.
// Start and End can be symbolic: they are only compared once the loop nest
// is evaluated against concrete axis lengths.
type IterVar struct {
	Start, End, Step Expr
	Name             string
}

// NewIterVar returns a new loop dimension. It always succeeds.
func NewIterVar(start, end, step Expr, name string) *IterVar {
	return &IterVar{Start: start, End: end, Step: step, Name: name}
}

// Range returns a loop dimension iterating over [0, end) with a unit step.
func Range(end Expr, name string) *IterVar {
	return NewIterVar(Int(0), end, Int(1), name)
}

// Var returns the loop index variable.
func (iv *IterVar) Var() *Variable {
	return Var(iv.Name)
}

// Loop returns a for statement iterating body over the dimension.
func (iv *IterVar) Loop(body Stmt) *For {
	return NewFor(iv.Var(), iv.Start, iv.End, iv.Step, body)
}

// HasZeroStep returns true if the step is the constant zero.
func (iv *IterVar) HasZeroStep() bool {
	c, ok := iv.Step.(*Constant)
	return ok && c.Value() == 0
}

func (iv *IterVar) String() string {
	return fmt.Sprintf("%s in %s", iv.Name, rangeString(iv.Start, iv.End, iv.Step))
}

func rangeString(start, end, step Expr) string {
	s := fmt.Sprintf("[%s, %s)", start.String(), end.String())
	if c, ok := step.(*Constant); ok && c.Value() == 1 {
		return s
	}
	return s + " step " + step.String()
}

// Nest wraps a body into the loops of a list of dimensions, the first
// dimension being the outermost loop.
func Nest(dims []*IterVar, body Stmt) Stmt {
	for i := len(dims) - 1; i >= 0; i-- {
		body = dims[i].Loop(body)
	}
	return body
}
