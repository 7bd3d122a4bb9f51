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

package interp

import (
	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/gx-org/tensorfuse/internal/base/scope"
	"github.com/pkg/errors"
)

type (
	// machine holds the buffers shared by all kernels of a program.
	machine struct {
		buffers map[string]*Array
	}

	frame struct {
		machine *machine
		vars    *scope.RWScope[value]
	}
)

func (m *machine) newFrame(parent scope.Scope[value]) *frame {
	return &frame{machine: m, vars: scope.NewScope(parent)}
}

func (fr *frame) newChild() *frame {
	return &frame{machine: fr.machine, vars: fr.vars.NewChild()}
}

func (fr *frame) exec(s ir.Stmt) error {
	switch sT := s.(type) {
	case ir.NoneStmt:
		return nil
	case *ir.Seq:
		for _, stmt := range sT.Stmts {
			if err := fr.exec(stmt); err != nil {
				return err
			}
		}
		return nil
	case *ir.LetStmt:
		v, err := fr.eval(sT.Value)
		if err != nil {
			return err
		}
		if ir.IsNoStmt(sT.Body) {
			fr.vars.Define(sT.Var.Name, v)
			return nil
		}
		child := fr.newChild()
		child.vars.Define(sT.Var.Name, v)
		return child.exec(sT.Body)
	case *ir.AccumStmt:
		cur, ok := fr.vars.Find(sT.Var.Name)
		if !ok {
			return errors.Errorf("undefined accumulator %s", sT.Var.Name)
		}
		v, err := fr.eval(sT.Value)
		if err != nil {
			return err
		}
		next, err := binary(sT.Op, cur, v)
		if err != nil {
			return errors.Wrapf(err, "cannot execute %s", sT)
		}
		return fr.vars.Assign(sT.Var.Name, convert(next, cur.dt))
	case *ir.StoreStmt:
		name, buf, off, err := fr.access(sT.Buf, sT.Indices, sT.Strides)
		if err != nil {
			return errors.Wrapf(err, "cannot execute %s", sT)
		}
		if err := buf.checkOffset(name, off); err != nil {
			return err
		}
		v, err := fr.eval(sT.Value)
		if err != nil {
			return err
		}
		buf.set(int(off), v)
		return nil
	case *ir.For:
		return fr.execFor(sT)
	case *ir.If:
		cond, err := fr.eval(sT.Cond)
		if err != nil {
			return err
		}
		if cond.isTrue() {
			return fr.newChild().exec(sT.Then)
		}
		return fr.newChild().exec(sT.Else)
	}
	return errors.Errorf("cannot execute statement %s of type %T", s, s)
}

func (fr *frame) execFor(loop *ir.For) error {
	start, err := fr.evalInt(loop.Start)
	if err != nil {
		return err
	}
	end, err := fr.evalInt(loop.End)
	if err != nil {
		return err
	}
	step, err := fr.evalInt(loop.Step)
	if err != nil {
		return err
	}
	if step == 0 {
		return errors.Errorf("loop %s has a zero step", loop.Var.Name)
	}
	for i := start; (step > 0 && i < end) || (step < 0 && i > end); i += step {
		body := fr.newChild()
		body.vars.Define(loop.Var.Name, intValue(ir.IndexType, i))
		if err := body.exec(loop.Body); err != nil {
			return err
		}
	}
	return nil
}
