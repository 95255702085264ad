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

package wire

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"

	"go.steamd-lang.org/steamd/layout"
)

// Dump renders rec as indented text, one field per line, in wire order.
func (c *Codec) Dump(rec *Record) string {
	var buf strings.Builder
	c.DumpTo(&buf, rec)
	return buf.String()
}

func (c *Codec) DumpTo(w io.Writer, rec *Record) error {
	e := &dumper{codec: c, w: w}
	e.linef("%s {", rec.Class)
	e.indent += 1
	e.visitRecord(rec)
	e.indent -= 1
	e.line("}")
	return e.err
}

type dumper struct {
	codec  *Codec
	w      io.Writer
	indent int
	err    error
}

func (e *dumper) line(s string) {
	if e.err != nil {
		return
	}
	if indent := strings.Repeat("\t", e.indent); indent != "" {
		if _, err := io.WriteString(e.w, indent); err != nil {
			e.err = err
			return
		}
	}
	if _, err := io.WriteString(e.w, s); err != nil {
		e.err = err
		return
	}
	if _, err := io.WriteString(e.w, "\n"); err != nil {
		e.err = err
		return
	}
}

func (e *dumper) linef(format string, a ...any) {
	e.line(fmt.Sprintf(format, a...))
}

func (e *dumper) visitRecord(rec *Record) {
	plan, err := e.codec.plan(rec.Class)
	if err != nil {
		e.visitLoose(rec)
		return
	}
	if rec.Header != nil {
		e.visitNested("header", rec.Header)
	}
	for _, f := range plan.WireOrder() {
		if e.err != nil {
			return
		}
		value, ok := rec.Fields[f.Name()]
		if !ok {
			continue
		}
		e.visitField(f, value)
	}
}

// visitLoose renders a record of a class the schema does not know, with
// fields sorted by name.
func (e *dumper) visitLoose(rec *Record) {
	names := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		e.linef("%s = %v", name, rec.Fields[name])
	}
}

func (e *dumper) visitNested(name string, rec *Record) {
	e.linef("%s = %s {", name, rec.Class)
	e.indent += 1
	e.visitRecord(rec)
	e.indent -= 1
	e.line("}")
}

func (e *dumper) visitField(f *layout.Field, value any) {
	name := f.Name()
	switch v := value.(type) {
	case *Record:
		e.visitNested(name, v)
		return
	case proto.Message:
		e.linef("%s = %s {", name, v.ProtoReflect().Descriptor().FullName())
		e.indent += 1
		text, err := prototext.MarshalOptions{Multiline: true}.Marshal(v)
		if err != nil {
			e.err = err
			return
		}
		for _, l := range strings.Split(strings.TrimRight(string(text), "\n"), "\n") {
			if l = strings.TrimSpace(l); l != "" {
				e.line(l)
			}
		}
		e.indent -= 1
		e.line("}")
		return
	case []byte:
		if f.Kind == layout.KindProto || (!f.Carrier.Integer && f.Carrier.Size == 1) {
			e.linef("%s = %s", name, quote(string(v)))
			return
		}
		e.linef("%s = [%s]", name, hexBytes(v))
		return
	case bool:
		if v {
			e.linef("%s = .true", name)
		} else {
			e.linef("%s = .false", name)
		}
		return
	case fmt.Stringer:
		e.linef("%s = %s", name, v.String())
		return
	}

	if f.Enum != nil {
		if bits, err := bitsOf(value); err == nil {
			e.linef("%s = %s", name, e.enumName(f, bits))
			return
		}
	}
	e.linef("%s = %v", name, value)
}

// enumName renders bits as the name of a matching value, or as a union
// of flag names when the enum is a flag set.
func (e *dumper) enumName(f *layout.Field, bits uint64) string {
	plan := e.codec.planner.Enum(f.Enum)
	bits = layout.Mask(bits, plan.Carrier)
	for _, v := range plan.Values {
		if v.Known && v.Bits == bits {
			return plan.Name() + "::" + v.Name()
		}
	}
	if plan.Enum.Flags && bits != 0 {
		var names []string
		rest := bits
		for _, v := range plan.Values {
			if v.Known && v.Bits != 0 && v.Bits&(v.Bits-1) == 0 && rest&v.Bits == v.Bits {
				names = append(names, plan.Name()+"::"+v.Name())
				rest &^= v.Bits
			}
		}
		if rest == 0 {
			return strings.Join(names, " | ")
		}
	}
	return fmt.Sprintf("%s(%d)", plan.Name(), layout.SignExtend(bits, plan.Carrier))
}

func hexBytes(buf []byte) string {
	var out strings.Builder
	for ii, b := range buf {
		if ii != 0 {
			out.WriteString(", ")
		}
		fmt.Fprintf(&out, "0x%02X", b)
	}
	return out.String()
}

func quote(text string) string {
	var buf strings.Builder
	buf.WriteByte('"')
	for _, c := range text {
		if c == '\\' || c == '"' {
			buf.WriteByte('\\')
			buf.WriteRune(c)
			continue
		}
		if c == '\t' {
			buf.WriteString("\\t")
			continue
		}
		if c == '\n' {
			buf.WriteString("\\n")
			continue
		}
		if c < 0x20 || c == 0x7F {
			fmt.Fprintf(&buf, "\\x%02X", c)
			continue
		}
		buf.WriteRune(c)
	}
	buf.WriteByte('"')
	return buf.String()
}
