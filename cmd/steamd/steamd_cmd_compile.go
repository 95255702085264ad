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

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mailru/easyjson/jwriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/internal/driver"
	"go.steamd-lang.org/steamd/layout"
	"go.steamd-lang.org/steamd/syntax"
)

type cmdCompile struct {
	*env
	json       bool
	supportsGC bool
}

func (*cmdCompile) help() *commandHelp {
	return &commandHelp{
		usage:   "compile [--json] FILE",
		summary: "Check a source file and print the layout of every declaration",
	}
}

func (cmd *cmdCompile) flags(flags *pflag.FlagSet) {
	flags.BoolVar(&cmd.json, "json", false, "print the layout as JSON")
	flags.BoolVar(&cmd.supportsGC, "gc", false, "recognize the GC message family")
}

func (cmd *cmdCompile) run(ctx context.Context, argv []string) int {
	diag := newDiagnostics(cmd.stderr)
	if len(argv) != 1 {
		return diag.usage(cmd.help())
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	compiled, err := driver.New(cmd.fs, log).Compile(argv[0])
	if err != nil {
		diag.error(err)
		return 1
	}
	for _, warning := range compiled.Warnings {
		diag.warning(warning)
	}

	report, err := newReport(compiled, layout.Options{SupportsGC: cmd.supportsGC})
	if err != nil {
		diag.error(err)
		return 1
	}
	if cmd.json {
		err = report.writeJSON(cmd.stdout)
	} else {
		err = report.writeText(cmd.stdout)
	}
	if err != nil {
		diag.error(err)
		return 1
	}
	return 0
}

// report is the layout of a compiled schema.
type report struct {
	source   string
	enums    []*layout.EnumPlan
	classes  []*layout.ClassPlan
	planner  *layout.Planner
	warnings []driver.Warning
}

func newReport(compiled *driver.Compiled, opts layout.Options) (*report, error) {
	planner := layout.NewPlanner(compiled.Schema, opts)
	r := &report{
		source:   compiled.Schema.SourcePath,
		planner:  planner,
		warnings: compiled.Warnings,
	}
	for _, decl := range compiled.Schema.Decls {
		if decl.IsRemoved() {
			continue
		}
		switch decl := decl.(type) {
		case *compiler.Enum:
			r.enums = append(r.enums, planner.Enum(decl))
		case *compiler.Class:
			plan, err := planner.Class(decl)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", decl.Name, err)
			}
			r.classes = append(r.classes, plan)
		}
	}
	return r, nil
}

func (r *report) identity(plan *layout.ClassPlan) (uint64, bool) {
	if plan.Class.Ident == nil {
		return 0, false
	}
	return r.planner.Eval([]compiler.Symbol{plan.Class.Ident})
}

func valueText(enum *layout.EnumPlan, value *layout.ValuePlan) string {
	if !value.Known {
		return "?"
	}
	if enum.Enum.Storage.Unsigned {
		return fmt.Sprintf("%d", value.Bits)
	}
	return fmt.Sprintf("%d", value.Int64())
}

func typeText(f *layout.Field) string {
	switch f.Kind {
	case layout.KindProto:
		return f.ProtoType
	case layout.KindClass:
		return f.Class.Name
	case layout.KindArray:
		return fmt.Sprintf("%s<%d>", f.Prop.Type.Identifier(), f.Prop.ArrayLen)
	}
	return f.Prop.Type.Identifier()
}

func fieldText(f *layout.Field) string {
	var b strings.Builder
	if f.Prop.Flag != syntax.FlagNone {
		b.WriteString(f.Prop.Flag.String())
		b.WriteString(" ")
	}
	b.WriteString(typeText(f))
	switch {
	case f.IsFixed():
		fmt.Fprintf(&b, ", %d bytes", f.Size)
	case f.LengthField != nil:
		fmt.Fprintf(&b, ", sized by %s", f.LengthField.Name())
	default:
		b.WriteString(", unbounded")
	}
	if f.LengthOf != nil {
		fmt.Fprintf(&b, ", length of %s", f.LengthOf.Name())
	}
	return b.String()
}

func (r *report) writeText(w io.Writer) error {
	var b strings.Builder
	for _, enum := range r.enums {
		fmt.Fprintf(&b, "enum %s<%s>", enum.Name(), enum.Enum.Storage.Name)
		if enum.Enum.Flags {
			b.WriteString(" flags")
		}
		b.WriteString("\n")
		for _, value := range enum.Values {
			fmt.Fprintf(&b, "\t%s = %s", value.Name(), valueText(enum, value))
			if value.Implicit {
				b.WriteString(" (implicit)")
			}
			if marker := value.Value.Obsolete; marker != nil {
				if msg := marker.Message(); msg != "" {
					fmt.Fprintf(&b, " (obsolete: %s)", msg)
				} else {
					b.WriteString(" (obsolete)")
				}
			}
			b.WriteString("\n")
		}
	}
	for _, plan := range r.classes {
		b.WriteString("class ")
		b.WriteString(plan.Name())
		if tag, ok := r.identity(plan); ok {
			fmt.Fprintf(&b, "<%d>", tag)
		}
		if plan.Parent != nil {
			fmt.Fprintf(&b, " expects %s", plan.Parent.Name())
		}
		fmt.Fprintf(&b, " (%v, %v, %d bytes fixed)\n", plan.Role, plan.Family, plan.BaseSize)
		for _, prop := range plan.Consts {
			fmt.Fprintf(&b, "\tconst %s = %s\n", prop.Name, symbolsText(prop.Default))
		}
		for _, f := range plan.Fields {
			fmt.Fprintf(&b, "\t%s: %s\n", f.Name(), fieldText(f))
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func symbolsText(syms []compiler.Symbol) string {
	idents := make([]string, len(syms))
	for ii, sym := range syms {
		idents[ii] = sym.Identifier()
	}
	return strings.Join(idents, " | ")
}

func (r *report) writeJSON(w io.Writer) error {
	out := &jwriter.Writer{}
	out.RawString(`{"source":`)
	out.String(r.source)

	out.RawString(`,"enums":[`)
	for ii, enum := range r.enums {
		if ii > 0 {
			out.RawByte(',')
		}
		out.RawString(`{"name":`)
		out.String(enum.Name())
		out.RawString(`,"storage":`)
		out.String(enum.Enum.Storage.Name)
		out.RawString(`,"flags":`)
		out.Bool(enum.Enum.Flags)
		out.RawString(`,"values":[`)
		for jj, value := range enum.Values {
			if jj > 0 {
				out.RawByte(',')
			}
			out.RawString(`{"name":`)
			out.String(value.Name())
			if value.Known {
				out.RawString(`,"value":`)
				if enum.Enum.Storage.Unsigned {
					out.Uint64(value.Bits)
				} else {
					out.Int64(value.Int64())
				}
			}
			if value.Implicit {
				out.RawString(`,"implicit":true`)
			}
			if marker := value.Value.Obsolete; marker != nil {
				out.RawString(`,"obsolete":`)
				out.String(marker.Message())
			}
			out.RawByte('}')
		}
		out.RawString(`]}`)
	}

	out.RawString(`],"classes":[`)
	for ii, plan := range r.classes {
		if ii > 0 {
			out.RawByte(',')
		}
		out.RawString(`{"name":`)
		out.String(plan.Name())
		out.RawString(`,"role":`)
		out.String(plan.Role.String())
		out.RawString(`,"family":`)
		out.String(plan.Family.String())
		if tag, ok := r.identity(plan); ok {
			out.RawString(`,"identity":`)
			out.Uint64(tag)
		}
		if plan.Parent != nil {
			out.RawString(`,"parent":`)
			out.String(plan.Parent.Name())
		}
		out.RawString(`,"base_size":`)
		out.Int(plan.BaseSize)
		out.RawString(`,"fields":[`)
		for jj, f := range plan.Fields {
			if jj > 0 {
				out.RawByte(',')
			}
			out.RawString(`{"name":`)
			out.String(f.Name())
			out.RawString(`,"kind":`)
			out.String(f.Kind.String())
			out.RawString(`,"type":`)
			out.String(typeText(f))
			if f.Prop.Flag != syntax.FlagNone {
				out.RawString(`,"flag":`)
				out.String(f.Prop.Flag.String())
			}
			out.RawString(`,"size":`)
			out.Int(f.Size)
			if f.LengthField != nil {
				out.RawString(`,"length_field":`)
				out.String(f.LengthField.Name())
			}
			out.RawByte('}')
		}
		out.RawString(`]}`)
	}

	out.RawString(`],"warnings":[`)
	for ii, warning := range r.warnings {
		if ii > 0 {
			out.RawByte(',')
		}
		out.RawString(`{"path":`)
		out.String(warning.Path)
		out.RawString(`,"line":`)
		out.Int(warning.Pos.Line)
		out.RawString(`,"column":`)
		out.Int(warning.Pos.Column)
		out.RawString(`,"code":`)
		out.Uint32(warning.Warning.Code())
		out.RawString(`,"message":`)
		out.String(warning.Warning.Message())
		out.RawByte('}')
	}
	out.RawString("]}\n")

	if out.Error != nil {
		return out.Error
	}
	_, err := out.DumpTo(w)
	return err
}
