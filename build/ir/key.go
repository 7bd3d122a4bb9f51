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
	"math"
	"strconv"
	"strings"
)

// Key returns a string identifying the structure of an expression.
// Two expressions have the same key if and only if they are Equal,
// which makes keys suitable for hash tables keyed by expressions.
func Key(x Expr) string {
	var b strings.Builder
	writeKey(&b, x)
	return b.String()
}

func writeKeys(b *strings.Builder, xs []Expr) {
	b.WriteByte('[')
	for i, x := range xs {
		if i > 0 {
			b.WriteByte(',')
		}
		writeKey(b, x)
	}
	b.WriteByte(']')
}

func writeKey(b *strings.Builder, x Expr) {
	if IsNone(x) {
		b.WriteString("none")
		return
	}
	switch xT := x.(type) {
	case *Variable:
		b.WriteString("v")
		b.WriteString(strconv.Quote(xT.Name))
	case *Constant:
		b.WriteString("c(")
		b.WriteString(strconv.Itoa(int(xT.DType)))
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(xT.Int, 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(math.Float64bits(xT.Float), 16))
		b.WriteByte(')')
	case *BinaryOp:
		b.WriteString("b")
		b.WriteString(strconv.Itoa(int(xT.Op)))
		b.WriteByte('(')
		writeKey(b, xT.X)
		b.WriteByte(',')
		writeKey(b, xT.Y)
		b.WriteByte(')')
	case *UnaryOp:
		b.WriteString("u")
		b.WriteString(strconv.Itoa(int(xT.Op)))
		if xT.Op == OpCast {
			b.WriteByte(':')
			b.WriteString(strconv.Itoa(int(xT.DType)))
		}
		b.WriteByte('(')
		writeKey(b, xT.X)
		b.WriteByte(')')
	case *Load:
		b.WriteString("l(")
		writeKey(b, xT.Buf)
		b.WriteByte(',')
		writeKeys(b, xT.Indices)
		b.WriteByte(',')
		writeKeys(b, xT.Strides)
		b.WriteByte(')')
	default:
		b.WriteString("?")
	}
}
