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

// Package layout decides how every property is framed on the wire.
// Nothing here inspects runtime data: each decision follows from declared
// types, flags, and lengths alone.
package layout

import (
	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/syntax"
)

// SizeOf returns the static wire width of prop in bytes, or 0 if the
// property is variable-size and must be framed explicitly.
func SizeOf(prop *compiler.Property) int {
	if prop.Flag == syntax.FlagProto {
		return 0
	}
	var width int
	switch typ := prop.Type.(type) {
	case *compiler.WeakSymbol:
		p, ok := compiler.LookupPrimitive(typ.Name)
		if !ok {
			return 0
		}
		width = p.Size
	case *compiler.StrongSymbol:
		enum, ok := typ.Decl.(*syntax.Enum)
		if !ok {
			return 0
		}
		width = enumStorage(enum).Size
	default:
		return 0
	}
	if prop.ArrayLen > 0 {
		return width * prop.ArrayLen
	}
	if prop.LengthField != nil {
		return 0
	}
	return width
}

// IntegerTypeOfSize returns the integer primitive of the given width and
// signedness.
func IntegerTypeOfSize(width int, unsigned bool) (string, bool) {
	for _, p := range compiler.Primitives() {
		if p.Integer && p.Size == width && p.Unsigned == unsigned {
			return p.Name, true
		}
	}
	return "", false
}

func enumStorage(enum *syntax.Enum) compiler.Primitive {
	if storage := enum.Storage(); storage != nil {
		if p, ok := compiler.LookupPrimitive(storage.Get()); ok {
			return p
		}
	}
	p, _ := compiler.LookupPrimitive(compiler.DefaultEnumStorage)
	return p
}

// carrierOf returns the integer primitive written for an enum of the
// given storage.
func carrierOf(storage compiler.Primitive) compiler.Primitive {
	name, ok := IntegerTypeOfSize(storage.Size, storage.Unsigned)
	if !ok {
		return storage
	}
	p, _ := compiler.LookupPrimitive(name)
	return p
}

type Options struct {
	// SupportsGC enables the secondary message family, whose tags are
	// plain 32-bit unsigned integers.
	SupportsGC bool
}

// Planner computes and caches class and enum plans for one schema.
type Planner struct {
	schema  *compiler.Schema
	opts    Options
	classes map[*compiler.Class]*ClassPlan
	enums   map[*compiler.Enum]*EnumPlan
	values  map[*compiler.EnumValue]*valueState
	consts  map[*compiler.Property]bool
}

func NewPlanner(schema *compiler.Schema, opts Options) *Planner {
	return &Planner{
		schema:  schema,
		opts:    opts,
		classes: make(map[*compiler.Class]*ClassPlan),
		enums:   make(map[*compiler.Enum]*EnumPlan),
		values:  make(map[*compiler.EnumValue]*valueState),
		consts:  make(map[*compiler.Property]bool),
	}
}

func (p *Planner) Schema() *compiler.Schema {
	return p.schema
}

func (p *Planner) Options() Options {
	return p.opts
}
