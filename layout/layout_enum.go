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

package layout

import (
	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/syntax"
)

type EnumPlan struct {
	Enum    *compiler.Enum
	Carrier compiler.Primitive

	// Values excludes removed values. Removed values still take part in
	// implicit numbering.
	Values []*ValuePlan
}

func (p *EnumPlan) Name() string {
	return p.Enum.Name
}

type ValuePlan struct {
	Value *compiler.EnumValue

	// Known is false when some term of the value's expression is not a
	// recognized literal. Bits is then meaningless.
	Known bool
	Bits  uint64

	// Implicit values had no expression and follow their predecessor.
	Implicit bool

	storage compiler.Primitive
}

func (v *ValuePlan) Name() string {
	return v.Value.Name
}

// Int64 returns the value as the enum's storage type would interpret it.
func (v *ValuePlan) Int64() int64 {
	return SignExtend(v.Bits, v.storage)
}

type valueState struct {
	busy  bool
	done  bool
	known bool
	bits  uint64
}

// Enum plans the values of enum. Plans are cached.
func (p *Planner) Enum(enum *compiler.Enum) *EnumPlan {
	if plan, ok := p.enums[enum]; ok {
		return plan
	}
	plan := &EnumPlan{
		Enum:    enum,
		Carrier: carrierOf(enum.Storage),
	}
	for _, value := range enum.Values {
		if value.Removed {
			continue
		}
		bits, known := p.Value(enum, value)
		plan.Values = append(plan.Values, &ValuePlan{
			Value:    value,
			Known:    known,
			Bits:     bits,
			Implicit: len(value.Default) == 0,
			storage:  enum.Storage,
		})
	}
	p.enums[enum] = plan
	return plan
}

// Value evaluates one value of enum, masked to the enum's storage width.
// A value without an expression is one more than the value before it,
// and the first value defaults to zero.
func (p *Planner) Value(enum *compiler.Enum, value *compiler.EnumValue) (uint64, bool) {
	state := p.values[value]
	if state == nil {
		state = &valueState{}
		p.values[value] = state
	}
	if state.done {
		return state.bits, state.known
	}
	if state.busy {
		return 0, false
	}
	state.busy = true

	var bits uint64
	var known bool
	if len(value.Default) > 0 {
		bits, known = p.Eval(value.Default)
	} else {
		bits, known = 0, true
		for i, sibling := range enum.Values {
			if sibling != value {
				continue
			}
			if i > 0 {
				bits, known = p.Value(enum, enum.Values[i-1])
				bits++
			}
			break
		}
	}

	state.busy = false
	state.done = true
	state.known = known
	state.bits = Mask(bits, enum.Storage)
	return state.bits, state.known
}

// Eval computes the bitwise OR of an expression's terms. The result is
// unknown if any term is not a literal, a known constant, or a
// reference to an evaluable enum value or const property.
func (p *Planner) Eval(terms []compiler.Symbol) (uint64, bool) {
	if len(terms) == 0 {
		return 0, false
	}
	var bits uint64
	for _, term := range terms {
		v, ok := p.term(term)
		if !ok {
			return 0, false
		}
		bits |= v
	}
	return bits, true
}

func (p *Planner) term(term compiler.Symbol) (uint64, bool) {
	switch sym := term.(type) {
	case *compiler.WeakSymbol:
		v, _, ok := compiler.ParseLiteral(sym.Name)
		return v, ok
	case *compiler.StrongSymbol:
		if sym.Member == nil {
			return 0, false
		}
		switch decl := p.schema.Resolved(sym).(type) {
		case *compiler.Enum:
			value := decl.Value(sym.Member.Name().Get())
			if value == nil {
				return 0, false
			}
			return p.Value(decl, value)
		case *compiler.Class:
			prop := decl.Property(sym.Member.Name().Get())
			if prop == nil || prop.Flag != syntax.FlagConst {
				return 0, false
			}
			if p.consts[prop] {
				return 0, false
			}
			p.consts[prop] = true
			defer delete(p.consts, prop)
			return p.Eval(prop.Default)
		}
	}
	return 0, false
}

// Mask truncates bits to the width of storage.
func Mask(bits uint64, storage compiler.Primitive) uint64 {
	if storage.Size <= 0 || storage.Size >= 8 {
		return bits
	}
	return bits & (1<<(8*storage.Size) - 1)
}

// SignExtend interprets masked bits as a value of storage.
func SignExtend(bits uint64, storage compiler.Primitive) int64 {
	if storage.Unsigned || storage.Size <= 0 || storage.Size >= 8 {
		return int64(bits)
	}
	shift := 64 - 8*storage.Size
	return int64(bits<<shift) >> shift
}
