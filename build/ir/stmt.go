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

import "github.com/gx-org/tensorfuse/build/shapeerr"

// ----------------------------------------------------------------------------
// Statements.
type (
	// NoneStmt is the empty statement.
	NoneStmt struct{}

	// LetStmt binds a value to a variable.
	// If Body is NoneStmt, the binding is visible to the statements following
	// the let statement in the enclosing statement list. Otherwise, it is only
	// visible in Body.
	LetStmt struct {
		Var     *Variable
		Value   Expr
		Mutable bool
		Body    Stmt
	}

	// StoreStmt writes a value into a buffer.
	StoreStmt struct {
		Buf     Expr
		Indices []Expr
		Strides []Expr
		Value   Expr
	}

	// For executes its body for Var in [Start, End) by Step increments.
	For struct {
		Var              *Variable
		Start, End, Step Expr
		Body             Stmt
	}

	// If executes Then if Cond is true, Else otherwise.
	If struct {
		Cond Expr
		Then Stmt
		Else Stmt
	}

	// Seq executes a list of statements in order.
	Seq struct {
		Stmts []Stmt
	}

	// AccumStmt updates a mutable variable in place: Var = Var Op Value.
	AccumStmt struct {
		Var   *Variable
		Op    BinOp
		Value Expr
	}
)

// NoStmt is the empty statement.
var NoStmt Stmt = NoneStmt{}

var (
	_ Stmt = NoneStmt{}
	_ Stmt = (*LetStmt)(nil)
	_ Stmt = (*StoreStmt)(nil)
	_ Stmt = (*For)(nil)
	_ Stmt = (*If)(nil)
	_ Stmt = (*Seq)(nil)
	_ Stmt = (*AccumStmt)(nil)
)

func (NoneStmt) node() {}
func (NoneStmt) stmt() {}
func (*LetStmt) node() {}
func (*LetStmt) stmt() {}
func (*StoreStmt) node() {}
func (*StoreStmt) stmt() {}
func (*For) node() {}
func (*For) stmt() {}
func (*If) node() {}
func (*If) stmt() {}
func (*Seq) node() {}
func (*Seq) stmt() {}
func (*AccumStmt) node() {}
func (*AccumStmt) stmt() {}

// IsNoStmt returns true if the statement is empty.
func IsNoStmt(s Stmt) bool {
	if s == nil {
		return true
	}
	_, ok := s.(NoneStmt)
	return ok
}

// Let binds a value to a variable for the statements following it.
func Let(v *Variable, value Expr) *LetStmt {
	return &LetStmt{Var: v, Value: value, Body: NoStmt}
}

// LetMut binds a value to a mutable variable for the statements following it.
func LetMut(v *Variable, value Expr) *LetStmt {
	return &LetStmt{Var: v, Value: value, Mutable: true, Body: NoStmt}
}

// LetIn binds a value to a variable inside a body.
func LetIn(v *Variable, value Expr, body Stmt) *LetStmt {
	return &LetStmt{Var: v, Value: value, Body: body}
}

// NewStore returns a statement storing value into buf.
// It fails if the number of indices and strides differ.
func NewStore(buf Expr, indices, strides []Expr, value Expr) (*StoreStmt, error) {
	if err := shapeerr.CheckNdimMatch(len(strides), len(indices)); err != nil {
		return nil, err
	}
	return &StoreStmt{Buf: buf, Indices: indices, Strides: strides, Value: value}, nil
}

// MustStore is like NewStore but panics if the number of indices and strides differ.
func MustStore(buf Expr, indices, strides []Expr, value Expr) *StoreStmt {
	s, err := NewStore(buf, indices, strides, value)
	if err != nil {
		panic(err)
	}
	return s
}

// BufferName returns the name of the buffer written by the store or an empty
// string if the buffer is not a variable.
func (s *StoreStmt) BufferName() string {
	return bufferName(s.Buf)
}

// Offset returns the element offset of the store.
func (s *StoreStmt) Offset() Expr {
	return Offset(s.Indices, s.Strides)
}

// NewFor returns a loop statement.
func NewFor(v *Variable, start, end, step Expr, body Stmt) *For {
	return &For{Var: v, Start: start, End: end, Step: step, Body: body}
}

// IfThen returns a conditional statement. els can be NoStmt.
func IfThen(cond Expr, then, els Stmt) *If {
	return &If{Cond: cond, Then: then, Else: els}
}

// NewSeq returns a sequence of statements.
func NewSeq(stmts ...Stmt) *Seq {
	return &Seq{Stmts: stmts}
}

// Accum returns an in place update of a mutable variable.
func Accum(v *Variable, op BinOp, value Expr) *AccumStmt {
	return &AccumStmt{Var: v, Op: op, Value: value}
}
