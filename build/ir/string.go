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

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gx-org/backend/dtype"
	gxfmt "github.com/gx-org/tensorfuse/base/fmt"
)

func (NoneExpr) String() string {
	return "none"
}

func (v *Variable) String() string {
	return v.Name
}

func (c *Constant) String() string {
	switch {
	case c.DType == dtype.Bool:
		return strconv.FormatBool(c.Int != 0)
	case c.IsFloat():
		s := strconv.FormatFloat(c.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			s += ".0"
		}
		return s
	}
	return strconv.FormatInt(c.Int, 10)
}

func (b *BinaryOp) String() string {
	if b.Op.isCall() {
		return fmt.Sprintf("%s(%s, %s)", b.Op, b.X, b.Y)
	}
	return fmt.Sprintf("(%s %s %s)", b.X, b.Op, b.Y)
}

func (u *UnaryOp) String() string {
	switch u.Op {
	case OpNeg, OpNot:
		return u.Op.String() + u.X.String()
	case OpCast:
		return fmt.Sprintf("cast[%s](%s)", u.DType, u.X)
	}
	return fmt.Sprintf("%s(%s)", u.Op, u.X)
}

func accessString(buf Expr, indices, strides []Expr) string {
	if len(indices) == 0 && len(strides) == 0 {
		return buf.String() + "[]"
	}
	if len(indices) == 1 && len(strides) == 1 {
		if c, ok := strides[0].(*Constant); ok && c.Value() == 1 {
			return fmt.Sprintf("%s[%s]", buf, indices[0])
		}
	}
	return fmt.Sprintf("%s[%s; %s]", buf, gxfmt.List(indices), gxfmt.List(strides))
}

func (l *Load) String() string {
	return accessString(l.Buf, l.Indices, l.Strides)
}

func (NoneStmt) String() string {
	return ""
}

func (s *LetStmt) String() string {
	kw := "let"
	if s.Mutable {
		kw = "let mut"
	}
	decl := fmt.Sprintf("%s %s = %s", kw, s.Var, s.Value)
	if IsNoStmt(s.Body) {
		return decl
	}
	return gxfmt.Block(decl+" in", s.Body.String())
}

func (s *StoreStmt) String() string {
	return accessString(s.Buf, s.Indices, s.Strides) + " = " + s.Value.String()
}

func (s *For) String() string {
	header := fmt.Sprintf("for %s in %s", s.Var, rangeString(s.Start, s.End, s.Step))
	return gxfmt.Block(header, s.Body.String())
}

func (s *If) String() string {
	str := gxfmt.Block("if "+s.Cond.String(), s.Then.String())
	if IsNoStmt(s.Else) {
		return str
	}
	return gxfmt.Block(str+" else", s.Else.String())
}

func (s *Seq) String() string {
	return StmtsString(s.Stmts)
}

func (s *AccumStmt) String() string {
	if s.Op.isCall() {
		return fmt.Sprintf("%s = %s(%s, %s)", s.Var, s.Op, s.Var, s.Value)
	}
	return fmt.Sprintf("%s %s= %s", s.Var, s.Op, s.Value)
}

// StmtsString returns the string representation of a list of statements,
// one statement per line. Empty statements are skipped.
func StmtsString(stmts []Stmt) string {
	lines := make([]string, 0, len(stmts))
	for _, stmt := range stmts {
		if IsNoStmt(stmt) {
			continue
		}
		lines = append(lines, stmt.String())
	}
	return strings.Join(lines, "\n")
}
