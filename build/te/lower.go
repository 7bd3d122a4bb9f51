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
	"strings"

	"github.com/gx-org/tensorfuse/build/strides"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type (
	lowerConfig struct {
		fusion bool
	}

	// LowerOption configures lowering.
	LowerOption func(*lowerConfig)
)

// WithoutFusion disables fusion: every node except placeholders and
// constants is computed by its own kernel.
func WithoutFusion() LowerOption {
	return func(cfg *lowerConfig) {
		cfg.fusion = false
	}
}

type (
	// Kernel computes the value of a node into its buffer.
	Kernel struct {
		Node  *Node
		Stage *Stage
		// Strides computes the stride table of the stage.
		Strides strides.Func
	}

	// Program is the result of lowering a set of outputs.
	// Kernels are ordered: a kernel only reads the buffers of the
	// placeholders and of the kernels preceding it.
	Program struct {
		ctx *Context

		Kernels []*Kernel
		// Inputs are the placeholders read by the kernels.
		Inputs []NodeID
		// Outputs are the requested nodes. No kernel computes a placeholder
		// output: its value is its input buffer.
		Outputs []NodeID
	}
)

// Node returns a node of the graph the program has been lowered from.
func (p *Program) Node(id NodeID) (*Node, bool) {
	return p.ctx.Node(id)
}

// Body returns the stage storing the value of a node.
func (p *Program) Body(id NodeID) (*Stage, bool) {
	k, ok := p.Kernel(id)
	if !ok {
		return nil, false
	}
	return k.Stage, true
}

// Kernel returns the kernel computing a node.
func (p *Program) Kernel(id NodeID) (*Kernel, bool) {
	for _, k := range p.Kernels {
		if k.Node.id == id {
			return k, true
		}
	}
	return nil, false
}

func (p *Program) String() string {
	stages := make([]string, len(p.Kernels))
	for i, k := range p.Kernels {
		stages[i] = k.Stage.String()
	}
	return strings.Join(stages, "\n")
}

type (
	// lowered is the body of a node as seen by its consumers.
	lowered struct {
		body    Body
		strides strides.Func
	}

	lowering struct {
		ctx      *Context
		cfg      lowerConfig
		log      *zap.Logger
		outputs  map[NodeID]bool
		toBuffer map[NodeID]bool
		uses     map[NodeID]int
		done     map[NodeID]*lowered
		prog     *Program
	}
)

// Lower lowers the nodes required to compute a set of outputs.
func (c *Context) Lower(outputs ...*Tensor) (*Program, error) {
	return c.LowerWithOptions(outputs)
}

// LowerWithOptions lowers the nodes required to compute a set of outputs.
//
// Element-wise operations are fused into the stage of their input. A node is
// computed by its own kernel and read from its buffer by its consumers if:
// it is an output, it has more than one consumer, it is a reduction or it is
// the input of a reshape.
func (c *Context) LowerWithOptions(outputs []*Tensor, opts ...LowerOption) (*Program, error) {
	if len(outputs) == 0 {
		return nil, errors.Errorf("no output to lower")
	}
	if err := c.checkTensors(outputs...); err != nil {
		return nil, err
	}
	l := &lowering{
		ctx:      c,
		cfg:      lowerConfig{fusion: true},
		log:      c.Logger,
		outputs:  make(map[NodeID]bool),
		toBuffer: make(map[NodeID]bool),
		done:     make(map[NodeID]*lowered),
		prog:     &Program{ctx: c},
	}
	for _, opt := range opts {
		opt(&l.cfg)
	}
	if l.log == nil {
		l.log = zap.NewNop()
	}
	for _, out := range outputs {
		if l.outputs[out.id] {
			continue
		}
		l.outputs[out.id] = true
		l.prog.Outputs = append(l.prog.Outputs, out.id)
	}
	l.uses = c.consumersOf(l.prog.Outputs)
	for _, n := range c.nodes {
		reached := l.outputs[n.id] || l.uses[n.id] > 0
		if reached && n.op.Kind() == ReshapeKind {
			l.toBuffer[n.inputs[0]] = true
		}
	}
	for _, id := range l.prog.Outputs {
		l.lower(c.nodes[id])
	}
	slices.Sort(l.prog.Inputs)
	return l.prog, nil
}

// consumersOf counts the distinct consumers of every node among the nodes
// a set of outputs depends on.
func (c *Context) consumersOf(outputs []NodeID) map[NodeID]int {
	uses := make(map[NodeID]int)
	reached := make(map[NodeID]bool)
	var visit func(NodeID)
	visit = func(id NodeID) {
		if reached[id] {
			return
		}
		reached[id] = true
		inputs := slices.Clone(c.nodes[id].inputs)
		slices.Sort(inputs)
		for _, input := range slices.Compact(inputs) {
			uses[input]++
			visit(input)
		}
	}
	for _, id := range outputs {
		visit(id)
	}
	return uses
}

// materialize returns why a node needs to be stored in a buffer,
// or an empty string if it can be fused into its consumer.
func (l *lowering) materialize(n *Node) string {
	switch n.op.Kind() {
	case PlaceholderKind:
		// The value of a placeholder is already in its buffer.
		return ""
	case ConstantKind:
		if l.outputs[n.id] {
			return "output"
		}
		return ""
	}
	switch {
	case l.outputs[n.id]:
		return "output"
	case l.uses[n.id] > 1:
		return "fan-out"
	case n.op.Kind() == ReduceKind:
		return "boundary"
	case l.toBuffer[n.id]:
		return "buffer-input"
	case !l.cfg.fusion:
		return "unfused"
	}
	return ""
}

func (l *lowering) lower(n *Node) *lowered {
	if done := l.done[n.id]; done != nil {
		return done
	}
	var inputs []Body
	var parents []strides.Func
	for _, id := range n.inputs {
		in := l.lower(l.ctx.nodes[id])
		inputs = append(inputs, in.body)
		parents = append(parents, in.strides)
	}
	if n.op.Kind() == PlaceholderKind && !slices.Contains(l.prog.Inputs, n.id) {
		l.prog.Inputs = append(l.prog.Inputs, n.id)
	}
	reason := l.materialize(n)
	var done *lowered
	if reason == "" {
		done = &lowered{body: n.BodyGen(inputs, false), strides: n.StridesCal(parents)}
		if len(n.inputs) > 0 {
			l.log.Debug("fused",
				zap.Int("node", int(n.id)),
				zap.Ints("inputs", idsToInts(n.inputs)),
				zap.String("op", n.op.String()))
		}
	} else {
		stage := asStage(n.BodyGen(inputs, true))
		l.prog.Kernels = append(l.prog.Kernels, &Kernel{
			Node:    n,
			Stage:   stage,
			Strides: n.StridesCal(parents),
		})
		l.log.Debug("materialized",
			zap.Int("node", int(n.id)),
			zap.String("op", n.op.String()),
			zap.String("reason", reason))
		done = l.view(n)
	}
	l.done[n.id] = done
	return done
}

// view returns how consumers read a node stored in a buffer.
func (l *lowering) view(n *Node) *lowered {
	if n.op.Kind() == ConstantKind {
		return &lowered{body: n.BodyGen(nil, false), strides: strides.None()}
	}
	return &lowered{body: leafStage(n), strides: strides.Contiguous(n.shape)}
}

func idsToInts(ids []NodeID) []int {
	ints := make([]int, len(ids))
	for i, id := range ids {
		ints[i] = int(id)
	}
	return ints
}
