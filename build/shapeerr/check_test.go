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

package shapeerr_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/tensorfuse/build/shapeerr"
	"github.com/pkg/errors"
)

func TestCheckIndexInRange(t *testing.T) {
	tests := []struct {
		ndim, index int
		want        int
		wantErr     *shapeerr.IndexOutOfRange
	}{
		{ndim: 3, index: 0, want: 0},
		{ndim: 3, index: 2, want: 2},
		{ndim: 3, index: -1, want: 2},
		{ndim: 3, index: -3, want: 0},
		{ndim: 3, index: 3, wantErr: &shapeerr.IndexOutOfRange{Ndim: 3, Index: 3, Normalized: 3}},
		{ndim: 3, index: -4, wantErr: &shapeerr.IndexOutOfRange{Ndim: 3, Index: -4, Normalized: -1}},
		{ndim: 0, index: 0, wantErr: &shapeerr.IndexOutOfRange{Ndim: 0, Index: 0, Normalized: 0}},
	}
	for i, test := range tests {
		got, err := shapeerr.CheckIndexInRange(test.ndim, test.index)
		if test.wantErr == nil {
			if err != nil {
				t.Errorf("test %d: unexpected error: %v", i, err)
				continue
			}
			if got != test.want {
				t.Errorf("test %d: got %d but want %d", i, got, test.want)
			}
			continue
		}
		var gotErr *shapeerr.IndexOutOfRange
		if !errors.As(err, &gotErr) {
			t.Errorf("test %d: got error %v but want %T", i, err, test.wantErr)
			continue
		}
		if diff := cmp.Diff(test.wantErr, gotErr); diff != "" {
			t.Errorf("test %d: unexpected error (-want +got):\n%s", i, diff)
		}
	}
}

func TestNormalizeAxes(t *testing.T) {
	got, err := shapeerr.NormalizeAxes(4, []int{-1, 0, 2})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{3, 0, 2}, got); diff != "" {
		t.Errorf("unexpected axes (-want +got):\n%s", diff)
	}
	_, err = shapeerr.NormalizeAxes(4, []int{1, -3})
	var repeated *shapeerr.IndexRepeated
	if !errors.As(err, &repeated) {
		t.Fatalf("got %v but want an IndexRepeated error", err)
	}
	if repeated.Index != 1 {
		t.Errorf("got repeated index %d but want 1", repeated.Index)
	}
}

func TestChecks(t *testing.T) {
	if err := shapeerr.CheckNdimMatch(2, 2); err != nil {
		t.Error(err)
	}
	var ndim *shapeerr.NdimMismatched
	if err := shapeerr.CheckNdimMatch(2, 3); !errors.As(err, &ndim) || ndim.Expected != 3 || ndim.Actual != 2 {
		t.Errorf("got %v but want ndim 3 expected and 2 actual", err)
	}
	var same *shapeerr.SameAxis
	if err := shapeerr.CheckSameAxis(1, 1); !errors.As(err, &same) {
		t.Errorf("got %v but want a SameAxis error", err)
	}
	var size *shapeerr.SizeMismatched
	if err := shapeerr.CheckSizeMatch(6, 8); !errors.As(err, &size) || size.Actual != 8 {
		t.Errorf("got %v but want a SizeMismatched error", err)
	}
}

func TestVerbose(t *testing.T) {
	err := shapeerr.CheckSameAxis(0, 0)
	got := shapeerr.Verbose(err)
	if !strings.HasPrefix(got, "axis should be unique, but got 0 and 0") {
		t.Errorf("unexpected message: %q", got)
	}
	if !strings.Contains(got, "Error generated at:") {
		t.Errorf("stack trace missing from %q", got)
	}
}
