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

// Package subst replaces subtrees of expressions and statements.
//
// Subtrees are matched by structural equality, so that any expression,
// not only a variable, can be replaced. Substitution is a single pass:
// the replacements are never scanned again.
package subst

import "github.com/gx-org/tensorfuse/build/ir"

type replacement struct {
	find, replace ir.Expr
}

// Visitor replaces expressions in a tree.
type Visitor struct {
	table map[string][]replacement
	n     int
}

var _ ir.Mutator = (*Visitor)(nil)

// New returns a visitor without replacement.
func New() *Visitor {
	return &Visitor{table: make(map[string][]replacement)}
}

// AddReplacement registers a replacement.
// A later replacement for the same expression overwrites the previous one.
func (v *Visitor) AddReplacement(find, replace ir.Expr) {
	key := ir.Key(find)
	bucket := v.table[key]
	for i, r := range bucket {
		if ir.Equal(r.find, find) {
			bucket[i].replace = replace
			return
		}
	}
	v.table[key] = append(bucket, replacement{find: find, replace: replace})
	v.n++
}

// Len returns the number of registered replacements.
func (v *Visitor) Len() int {
	return v.n
}

func (v *Visitor) lookup(x ir.Expr) (ir.Expr, bool) {
	for _, r := range v.table[ir.Key(x)] {
		if ir.Equal(r.find, x) {
			return r.replace, true
		}
	}
	return nil, false
}

// MutateExpr returns the expression with all its matching subtrees replaced.
// Unchanged subtrees are shared with the input expression.
func (v *Visitor) MutateExpr(x ir.Expr) ir.Expr {
	if v.n == 0 {
		return x
	}
	if replace, ok := v.lookup(x); ok {
		return replace
	}
	return ir.MutateExprChildren(v, x)
}

// MutateStmt returns the statement with all matching subtrees of its expressions
// replaced. Variables in a binding position (let, for and accumulation
// variables) are only replaced by other variables.
func (v *Visitor) MutateStmt(s ir.Stmt) ir.Stmt {
	if v.n == 0 {
		return s
	}
	return ir.MutateStmtChildren(v, s)
}

// MutateStmts applies the visitor to a list of statements.
func (v *Visitor) MutateStmts(stmts []ir.Stmt) []ir.Stmt {
	return ir.MutateStmts(v, stmts)
}
