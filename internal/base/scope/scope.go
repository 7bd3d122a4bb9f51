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

// Package scope provides lexical scopes mapping variable names to values.
package scope

import (
	"fmt"
	"strings"

	"github.com/gx-org/tensorfuse/base/ordered"
	"github.com/pkg/errors"
)

type (
	// Scope provides a set of values that can be found given their name.
	Scope[V any] interface {
		Find(string) (V, bool)
	}

	roScope[V any] struct {
		data *ordered.Map[string, V]
	}
)

// NewScopeWithValues returns a read-only scope with predefined values.
func NewScopeWithValues[V any](vals map[string]V) Scope[V] {
	data := ordered.NewMap[string, V]()
	for k, v := range vals {
		data.Store(k, v)
	}
	return &roScope[V]{data: data}
}

// Find returns the value associated with a key, if any.
func (s *roScope[V]) Find(key string) (V, bool) {
	return s.data.Load(key)
}

func (s *roScope[V]) String() string {
	return dataString(s.data)
}

// RWScope stores key, value pairs.
// A value is retrieved from its key by querying the scope and,
// if not found, its parents recursively.
type RWScope[V any] struct {
	parent Scope[V]
	local  *ordered.Map[string, V]
}

var _ Scope[any] = (*RWScope[any])(nil)

// NewScope returns a new scope given a parent, which can be nil.
func NewScope[V any](parent Scope[V]) *RWScope[V] {
	return &RWScope[V]{
		parent: parent,
		local:  ordered.NewMap[string, V](),
	}
}

// NewChild returns a new scope whose parent is this scope.
func (s *RWScope[V]) NewChild() *RWScope[V] {
	return NewScope[V](s)
}

// Define maps a key to a value in the local scope, overwriting if necessary.
func (s *RWScope[V]) Define(k string, v V) {
	s.local.Store(k, v)
}

// IsLocal returns true if the key is defined in the local scope.
func (s *RWScope[V]) IsLocal(key string) bool {
	_, ok := s.local.Load(key)
	return ok
}

// Find a key in the scope and its parents.
func (s *RWScope[V]) Find(key string) (V, bool) {
	if v, ok := s.local.Load(key); ok || s.parent == nil {
		return v, ok
	}
	return s.parent.Find(key)
}

// Assign maps an existing key to a value, failing if the key is not defined.
// The assignment starts at the innermost scope and cascades upwards through
// successive parent scopes.
func (s *RWScope[V]) Assign(key string, value V) error {
	if s.IsLocal(key) {
		s.Define(key, value)
		return nil
	}
	if s.parent == nil {
		return errors.Errorf("cannot assign %s: not defined in scope", key)
	}
	rwParent, ok := s.parent.(*RWScope[V])
	if !ok {
		return errors.Errorf("cannot assign %s: scope parent of type %T does not support assignment", key, s.parent)
	}
	return rwParent.Assign(key, value)
}

func dataString[V any](data *ordered.Map[string, V]) string {
	if data.Size() == 0 {
		return "empty"
	}
	var kvs []string
	for k, v := range data.Iter() {
		kvs = append(kvs, fmt.Sprintf("%s: %v", k, v))
	}
	return strings.Join(kvs, "\n")
}

// String representation of the scope.
func (s *RWScope[V]) String() string {
	parent := "root"
	if s.parent != nil {
		parent = fmt.Sprint(s.parent)
	}
	return fmt.Sprintf("%s\n-- %p --\n%s", parent, s, dataString(s.local))
}
