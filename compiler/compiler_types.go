// Copyright (c) 2024 John Millikin <john@john-millikin.com>
//
// Permission to use, copy, modify, and/or distribute this software for any
// purpose with or without fee is hereby granted.
//
// THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH
// REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY
// AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT,
// INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM
// LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR
// OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR
// PERFORMANCE OF THIS SOFTWARE.
//
// SPDX-License-Identifier: 0BSD

package compiler

import (
	"math"
	"strconv"
	"strings"
)

// Primitive is a fixed-width scalar type known to the compiler.
type Primitive struct {
	Name     string
	Size     int
	Unsigned bool
	Integer  bool
}

var primitives = map[string]Primitive{
	"byte":   {"byte", 1, true, true},
	"sbyte":  {"sbyte", 1, false, true},
	"char":   {"char", 1, true, false},
	"short":  {"short", 2, false, true},
	"ushort": {"ushort", 2, true, true},
	"int":    {"int", 4, false, true},
	"uint":   {"uint", 4, true, true},
	"long":   {"long", 8, false, true},
	"ulong":  {"ulong", 8, true, true},
}

// DefaultEnumStorage backs enums that do not declare a storage type.
const DefaultEnumStorage = "int"

func LookupPrimitive(name string) (Primitive, bool) {
	p, ok := primitives[name]
	return p, ok
}

func Primitives() []Primitive {
	out := make([]Primitive, 0, len(primitives))
	for _, name := range []string{
		"byte", "sbyte", "char", "short", "ushort", "int", "uint", "long", "ulong",
	} {
		out = append(out, primitives[name])
	}
	return out
}

// externalConstants are weak names with a known value.
var externalConstants = map[string]uint64{
	"byte.MaxValue":   math.MaxUint8,
	"sbyte.MaxValue":  math.MaxInt8,
	"short.MaxValue":  math.MaxInt16,
	"ushort.MaxValue": math.MaxUint16,
	"int.MaxValue":    math.MaxInt32,
	"uint.MaxValue":   math.MaxUint32,
	"long.MaxValue":   math.MaxInt64,
	"ulong.MaxValue":  math.MaxUint64,
}

// ParseLiteral interprets a weak symbol as an integer constant. It
// accepts decimal and 0x-prefixed hexadecimal, optionally negated, and
// the named MaxValue constants.
func ParseLiteral(text string) (value uint64, negative bool, ok bool) {
	if v, found := externalConstants[text]; found {
		return v, false, true
	}
	body, negative := strings.CutPrefix(text, "-")
	base := 10
	if hex, isHex := strings.CutPrefix(body, "0x"); isHex {
		body, base = hex, 16
	} else if hex, isHex := strings.CutPrefix(body, "0X"); isHex {
		body, base = hex, 16
	}
	v, err := strconv.ParseUint(body, base, 64)
	if err != nil {
		return 0, false, false
	}
	if negative {
		return -v, true, true
	}
	return v, false, true
}
