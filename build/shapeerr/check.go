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

package shapeerr

import (
	"fmt"

	"github.com/pkg/errors"
)

// CheckNdimMatch returns an error if ndim is not the expected rank.
func CheckNdimMatch(ndim, expected int) error {
	if ndim != expected {
		return New(&NdimMismatched{Expected: expected, Actual: ndim})
	}
	return nil
}

// CheckSameAxis returns an error if both axes are equal.
func CheckSameAxis(axis1, axis2 int) error {
	if axis1 == axis2 {
		return New(&SameAxis{Axis1: axis1, Axis2: axis2})
	}
	return nil
}

// CheckIndexInRange normalises a possibly negative axis index against a rank
// and checks that the result is in [0, ndim).
func CheckIndexInRange(ndim, index int) (int, error) {
	normalized := index
	if index < 0 {
		normalized = index + ndim
	}
	if normalized < 0 || normalized >= ndim {
		return 0, New(&IndexOutOfRange{Ndim: ndim, Index: index, Normalized: normalized})
	}
	return normalized, nil
}

// CheckSizeMatch returns an error if two element counts differ.
func CheckSizeMatch(expected, actual int64) error {
	if expected != actual {
		return New(&SizeMismatched{Expected: expected, Actual: actual})
	}
	return nil
}

// NormalizeAxes normalises a list of axes against a rank and checks that no
// axis appears twice.
func NormalizeAxes(ndim int, axes []int) ([]int, error) {
	seen := make(map[int]bool, len(axes))
	norm := make([]int, len(axes))
	for i, axis := range axes {
		n, err := CheckIndexInRange(ndim, axis)
		if err != nil {
			return nil, err
		}
		if seen[n] {
			return nil, New(&IndexRepeated{Axes: append([]int(nil), axes...), Index: n})
		}
		seen[n] = true
		norm[i] = n
	}
	return norm, nil
}

// Verbose returns the error message followed by the stack trace recorded
// when the error was created, if any.
func Verbose(err error) string {
	if err == nil {
		return ""
	}
	var withSt interface {
		StackTrace() errors.StackTrace
	}
	if !errors.As(err, &withSt) {
		return err.Error()
	}
	return fmt.Sprintf("%s\nError generated at:%+v", err.Error(), withSt.StackTrace())
}
