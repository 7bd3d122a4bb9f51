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

// Package interp executes lowered programs on arrays in host memory.
//
// The interpreter is a reference implementation: it walks the statements
// of every kernel one element at a time. It is used to check that fused and
// unfused lowerings of the same graph compute the same values.
package interp

import (
	"maps"

	gxfmt "github.com/gx-org/tensorfuse/base/fmt"
	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/gx-org/tensorfuse/build/shapeerr"
	"github.com/gx-org/tensorfuse/build/strides"
	"github.com/gx-org/tensorfuse/build/te"
	"github.com/gx-org/tensorfuse/internal/base/scope"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Run executes a program given the values of its symbolic axis lengths
// and of its placeholders. Axis lengths referred to by a single variable
// are inferred from the input arrays when env does not define them.
// It returns the value of every output of the program.
func Run(prog *te.Program, env ir.Env, inputs map[te.NodeID]*Array) (map[te.NodeID]*Array, error) {
	env, err := bind(prog, env, inputs)
	if err != nil {
		return nil, err
	}
	m := &machine{buffers: make(map[string]*Array)}
	for _, id := range prog.Inputs {
		m.buffers[te.BufferName(id)] = inputs[id]
	}
	vals := make(map[string]value, len(env))
	for name, v := range env {
		vals[name] = intValue(ir.IndexType, v)
	}
	root := scope.NewScopeWithValues(vals)
	for _, k := range prog.Kernels {
		if err := m.run(k, env, root); err != nil {
			return nil, errors.Wrapf(err, "cannot compute %s with:\n%s\n", k.Node, gxfmt.Number(k.Stage.String()))
		}
	}
	outs := make(map[te.NodeID]*Array, len(prog.Outputs))
	for _, id := range prog.Outputs {
		if arr, ok := m.buffers[te.BufferName(id)]; ok {
			outs[id] = arr
			continue
		}
		return nil, errors.Errorf("no value computed for output %s", id)
	}
	return outs, nil
}

// bind checks the input arrays against the placeholders of a program
// and returns env extended with the axis lengths inferred from the arrays.
func bind(prog *te.Program, env ir.Env, inputs map[te.NodeID]*Array) (ir.Env, error) {
	env = maps.Clone(env)
	if env == nil {
		env = make(ir.Env)
	}
	var errs error
	for _, id := range prog.Inputs {
		node, ok := prog.Node(id)
		if !ok {
			errs = multierr.Append(errs, shapeerr.Internal(errors.Errorf("input %s not found in graph", id)))
			continue
		}
		arr := inputs[id]
		if arr == nil {
			errs = multierr.Append(errs, errors.Errorf("missing value for %s", node))
			continue
		}
		if arr.DType() != node.DType() {
			errs = multierr.Append(errs, errors.Errorf("%s: got an array of %s, want %s", node, arr.DType(), node.DType()))
			continue
		}
		if err := shapeerr.CheckNdimMatch(len(arr.Dims()), node.Rank()); err != nil {
			errs = multierr.Append(errs, errors.WithMessagef(err, "%s", node))
			continue
		}
		for axis, dim := range node.Shape() {
			actual := int64(arr.Dims()[axis])
			if v, isVar := dim.(*ir.Variable); isVar {
				if _, defined := env[v.Name]; !defined {
					env[v.Name] = actual
					continue
				}
			}
			want, err := ir.EvalInt(dim, env)
			if err != nil {
				errs = multierr.Append(errs, errors.WithMessagef(err, "%s: axis %d", node, axis))
				continue
			}
			if err := shapeerr.CheckSizeMatch(want, actual); err != nil {
				errs = multierr.Append(errs, errors.WithMessagef(err, "%s: axis %d", node, axis))
			}
		}
	}
	return env, errs
}

func (m *machine) run(k *te.Kernel, env ir.Env, root scope.Scope[value]) error {
	if err := k.Stage.Validate(); err != nil {
		return shapeerr.Internal(err)
	}
	dims, err := ir.Concrete(k.Node.Shape(), env)
	if err != nil {
		return err
	}
	out, err := NewArray(k.Node.DType(), dims...)
	if err != nil {
		return err
	}
	rows, err := k.Strides(env)
	if err != nil {
		return err
	}
	flat := strides.Flatten(rows)
	table, err := FromInts(ir.IndexType, flat, len(flat))
	if err != nil {
		return err
	}
	m.buffers[te.StridesName(k.Stage.ID)] = table
	m.buffers[te.BufferName(k.Node.ID())] = out
	return m.newFrame(root).exec(k.Stage.Stmt())
}
