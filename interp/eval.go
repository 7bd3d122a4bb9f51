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
	"github.com/pkg/errors"
)

func (fr *frame) eval(x ir.Expr) (value, error) {
	switch xT := x.(type) {
	case *ir.Variable:
		v, ok := fr.vars.Find(xT.Name)
		if !ok {
			return value{}, errors.Errorf("undefined variable %s", xT.Name)
		}
		return v, nil
	case *ir.Constant:
		return constValue(xT), nil
	case *ir.BinaryOp:
		lhs, err := fr.eval(xT.X)
		if err != nil {
			return value{}, err
		}
		rhs, err := fr.eval(xT.Y)
		if err != nil {
			return value{}, err
		}
		v, err := binary(xT.Op, lhs, rhs)
		if err != nil {
			return value{}, errors.Wrapf(err, "cannot evaluate %s", xT)
		}
		return v, nil
	case *ir.UnaryOp:
		operand, err := fr.eval(xT.X)
		if err != nil {
			return value{}, err
		}
		v, err := unary(xT.Op, operand, xT.DType)
		if err != nil {
			return value{}, errors.Wrapf(err, "cannot evaluate %s", xT)
		}
		return v, nil
	case *ir.Load:
		name, buf, off, err := fr.access(xT.Buf, xT.Indices, xT.Strides)
		if err != nil {
			return value{}, errors.Wrapf(err, "cannot evaluate %s", xT)
		}
		if err := buf.checkOffset(name, off); err != nil {
			return value{}, err
		}
		return buf.get(int(off)), nil
	}
	return value{}, errors.Errorf("cannot evaluate expression %s of type %T", x, x)
}

func (fr *frame) evalInt(x ir.Expr) (int64, error) {
	v, err := fr.eval(x)
	if err != nil {
		return 0, err
	}
	if !ir.IsInteger(v.dt) {
		return 0, errors.Errorf("%s: got %s, want an integer", x, v.dt)
	}
	return v.i, nil
}

// access returns the buffer an access refers to and the offset of the
// element it reads or writes.
func (fr *frame) access(buf ir.Expr, indices, strides []ir.Expr) (string, *Array, int64, error) {
	bufVar, ok := buf.(*ir.Variable)
	if !ok {
		return "", nil, 0, errors.Errorf("buffer %s is not a variable", buf)
	}
	arr, ok := fr.machine.buffers[bufVar.Name]
	if !ok {
		return "", nil, 0, errors.Errorf("undefined buffer %s", bufVar.Name)
	}
	if len(indices) != len(strides) {
		return "", nil, 0, errors.Errorf("%d indices but %d strides", len(indices), len(strides))
	}
	var off int64
	for i, index := range indices {
		idx, err := fr.evalInt(index)
		if err != nil {
			return "", nil, 0, err
		}
		stride, err := fr.evalInt(strides[i])
		if err != nil {
			return "", nil, 0, err
		}
		off += idx * stride
	}
	return bufVar.Name, arr, off, nil
}
