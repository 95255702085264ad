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

package golang

import (
	"fmt"

	"go.steamd-lang.org/steamd/codegen"
	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/layout"
)

func (b *Backend) RenderEnum(ctx *codegen.Context, plan *layout.EnumPlan) (string, error) {
	name := plan.Name()
	enum := plan.Enum
	p := &printer{}

	if enum.Flags {
		p.linef("// %s is a set of flags.", name)
	}
	p.linef("type %s %s", name, goPrimitives[enum.Storage.Name])
	p.line("")

	if len(plan.Values) > 0 {
		p.line("const (")
		for _, value := range plan.Values {
			expr, err := b.enumValueExpr(ctx, plan, value)
			if err != nil {
				return "", err
			}
			if marker := value.Value.Obsolete; marker != nil {
				p.linef("\t// Deprecated: %s", deprecation(marker))
			}
			p.linef("\t%s_%s %s = %s", name, value.Name(), name, expr)
		}
		p.line(")")
		p.line("")
	}

	if enum.Flags {
		p.line("// Has reports whether every flag set in flag is also set in v.")
		p.linef("func (v %s) Has(flag %s) bool {", name, name)
		p.line("\treturn v&flag == flag")
		p.line("}")
		p.line("")
		return p.String(), nil
	}

	b.renderEnumNames(ctx, p, plan)
	return p.String(), nil
}

func (b *Backend) enumValueExpr(ctx *codegen.Context, plan *layout.EnumPlan, value *layout.ValuePlan) (string, error) {
	enum := plan.Enum
	if value.Known {
		return literal(value.Bits, enum.Storage, enum.Flags), nil
	}
	if len(value.Value.Default) > 0 {
		return b.RenderSymbols(ctx, value.Value.Default, "|")
	}
	prev := predecessor(enum, value.Value)
	if prev == nil || prev.Removed {
		return "", fmt.Errorf("cannot number %s: no emitted value precedes it", value.Name())
	}
	return fmt.Sprintf("%s_%s + 1", plan.Name(), prev.Name), nil
}

func predecessor(enum *compiler.Enum, value *compiler.EnumValue) *compiler.EnumValue {
	for ii, v := range enum.Values {
		if v == value && ii > 0 {
			return enum.Values[ii-1]
		}
	}
	return nil
}

// renderEnumNames emits a String method. Values that repeat an earlier
// value are aliases and keep the earlier name.
func (b *Backend) renderEnumNames(ctx *codegen.Context, p *printer, plan *layout.EnumPlan) {
	name := plan.Name()
	table := unexportedName(name) + "Names"
	seen := make(map[uint64]bool)

	p.linef("var %s = map[%s]string{", table, name)
	for _, value := range plan.Values {
		if !value.Known || seen[value.Bits] {
			continue
		}
		seen[value.Bits] = true
		p.linef("\t%s_%s: %q,", name, value.Name(), value.Name())
	}
	p.line("}")
	p.line("")

	ctx.UseImport("fmt", "")
	p.linef("func (v %s) String() string {", name)
	p.linef("\tif name, ok := %s[v]; ok {", table)
	p.line("\t\treturn name")
	p.line("\t}")
	conv := "int64"
	if plan.Enum.Storage.Unsigned {
		conv = "uint64"
	}
	p.linef("\treturn fmt.Sprintf(\"%s(%%d)\", %s(v))", name, conv)
	p.line("}")
	p.line("")
}
