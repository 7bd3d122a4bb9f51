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

package uname_test

import (
	"testing"

	"github.com/gx-org/tensorfuse/base/uname"
)

func TestName(t *testing.T) {
	tests := []struct {
		name, want string
	}{
		{name: "n", want: "n"},
		{name: "n", want: "n1"},
		{name: "n", want: "n2"},
		{name: "batch", want: "batch"},
		{name: "batch", want: "batch1"},
		{name: "m", want: "m"},
	}
	unames := uname.New()
	for i, test := range tests {
		got := unames.Name(test.name)
		if got != test.want {
			t.Errorf("test %d: for name %s, got %s but want %s", i, test.name, got, test.want)
		}
	}
}

func TestRegisteredNamesAreSkipped(t *testing.T) {
	unames := uname.New()
	unames.Register("n1")
	if got := unames.Name("n"); got != "n" {
		t.Errorf("got %s but want n", got)
	}
	if got := unames.Name("n"); got != "n2" {
		t.Errorf("got %s but want n2", got)
	}
	if got := unames.Name("n1"); got != "n11" {
		t.Errorf("got %s but want n11", got)
	}
	if !unames.Taken("n2") {
		t.Errorf("n2 should be taken")
	}
}
