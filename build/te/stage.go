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
	"slices"

	"github.com/gx-org/backend/dtype"
	gxfmt "github.com/gx-org/tensorfuse/base/fmt"
	"github.com/gx-org/tensorfuse/build/ir"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

type (
	// Body is the result of lowering a node:
	// either a Stage or a single statement (StmtBody).
	Body interface {
		// NodeID returns the node whose value the body computes.
		NodeID() NodeID
		String() string
		body()
	}

	// Leaf is a buffer read by a stage.
	Leaf struct {
		ID   NodeID
		Rank int
	}

	// Stage is a loop nest computing the value of a node.
	//
	// Dims are the loops of the nest, from the outermost to the innermost,
	// and Bodys the statements executed at each iteration. Statements are
	// executed in order and may refer to variables bound by a previous let
	// statement.
	Stage struct {
		Dims  []*ir.IterVar
		Bodys []ir.Stmt
		// ID of the node computed by the stage.
		ID NodeID
		// OutID is the node that opened the loop nest.
		// It does not change when operations are fused into the stage.
		OutID NodeID
		DType dtype.DataType
		// Leaves are the buffers read by the stage, in the order of the rows
		// of its stride table.
		Leaves []Leaf
	}

	// StmtBody is a single statement meant to be spliced into the stage
	// of a consumer.
	StmtBody struct {
		ID    NodeID
		DType dtype.DataType
		Stmt  ir.Stmt
	}
)

var (
	_ Body = (*Stage)(nil)
	_ Body = (*StmtBody)(nil)
)

func (*Stage) body()    {}
func (*StmtBody) body() {}

// NodeID returns the node computed by the stage.
func (s *Stage) NodeID() NodeID { return s.ID }

// NodeID returns the node computed by the statement.
func (s *StmtBody) NodeID() NodeID { return s.ID }

// Clone returns a shallow copy of the stage.
// Statements are immutable and shared with the copy.
func (s *Stage) Clone() *Stage {
	return &Stage{
		Dims:   slices.Clone(s.Dims),
		Bodys:  slices.Clone(s.Bodys),
		ID:     s.ID,
		OutID:  s.OutID,
		DType:  s.DType,
		Leaves: slices.Clone(s.Leaves),
	}
}

// StridesWidth returns the number of entries of the stride table of the stage.
func (s *Stage) StridesWidth() int {
	n := 0
	for _, leaf := range s.Leaves {
		n += leaf.Rank
	}
	return n
}

// Stmt returns the loop nest as a single statement.
func (s *Stage) Stmt() ir.Stmt {
	return ir.Nest(s.Dims, ir.NewSeq(s.Bodys...))
}

// Stores returns all the store statements of the stage.
func (s *Stage) Stores() []*ir.StoreStmt {
	var stores []*ir.StoreStmt
	var walk func(ir.Stmt)
	walk = func(stmt ir.Stmt) {
		switch sT := stmt.(type) {
		case *ir.StoreStmt:
			stores = append(stores, sT)
		case *ir.LetStmt:
			walk(sT.Body)
		case *ir.For:
			walk(sT.Body)
		case *ir.If:
			walk(sT.Then)
			walk(sT.Else)
		case *ir.Seq:
			for _, child := range sT.Stmts {
				walk(child)
			}
		}
	}
	for _, stmt := range s.Bodys {
		walk(stmt)
	}
	return stores
}

// Validate checks the structure of the stage.
func (s *Stage) Validate() error {
	var errs error
	names := make(map[string]bool)
	for i, dim := range s.Dims {
		if dim == nil {
			errs = multierr.Append(errs, errors.Errorf("dimension %d is nil", i))
			continue
		}
		if want := AxisName(i); dim.Name != want {
			errs = multierr.Append(errs, errors.Errorf("dimension %d is named %s instead of %s", i, dim.Name, want))
		}
		if names[dim.Name] {
			errs = multierr.Append(errs, errors.Errorf("dimension %s is defined more than once", dim.Name))
		}
		names[dim.Name] = true
		if dim.HasZeroStep() {
			errs = multierr.Append(errs, errors.Errorf("dimension %s has a zero step", dim))
		}
	}
	for i, stmt := range s.Bodys {
		if stmt == nil {
			errs = multierr.Append(errs, errors.Errorf("statement %d is nil", i))
		}
	}
	if n := len(s.Stores()); n > 1 {
		errs = multierr.Append(errs, errors.Errorf("stage stores %d values instead of at most 1", n))
	}
	for _, leaf := range s.Leaves {
		if leaf.Rank < 0 {
			errs = multierr.Append(errs, errors.Errorf("leaf %s has a negative rank", leaf.ID))
		}
	}
	return errs
}

func (s *Stage) String() string {
	header := fmt.Sprintf("stage %s (from %s)", s.ID, s.OutID)
	return gxfmt.Block(header, s.Stmt().String())
}

func (s *StmtBody) String() string {
	return s.Stmt.String()
}
