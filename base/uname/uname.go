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

// Package uname allocates names that are unique within a namespace.
package uname

import "fmt"

// Unique generates unique names.
type Unique struct {
	next  map[string]int
	taken map[string]bool
}

// New name generator.
func New() *Unique {
	return &Unique{
		next:  make(map[string]int),
		taken: make(map[string]bool),
	}
}

// Register marks a name as used without allocating it.
func (n *Unique) Register(name string) {
	n.taken[name] = true
}

// Taken returns true if a name has already been returned or registered.
func (n *Unique) Taken(name string) bool {
	return n.taken[name]
}

// Name returns a unique name given a desired base name.
// If the base name is available, it is returned directly. Else, the smallest
// free numeric suffix is appended.
func (n *Unique) Name(root string) string {
	if !n.taken[root] {
		n.taken[root] = true
		return root
	}
	for i := max(n.next[root], 1); ; i++ {
		name := fmt.Sprintf("%s%d", root, i)
		if n.taken[name] {
			continue
		}
		n.next[root] = i + 1
		n.taken[name] = true
		return name
	}
}
