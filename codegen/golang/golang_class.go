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
	"strings"

	"go.steamd-lang.org/steamd/codegen"
	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/layout"
	"go.steamd-lang.org/steamd/syntax"
)

type classWriter struct {
	b     *Backend
	ctx   *codegen.Context
	plan  *layout.ClassPlan
	p     printer
	names map[string]string
}

func (b *Backend) RenderClass(ctx *codegen.Context, plan *layout.ClassPlan) (string, error) {
	w := &classWriter{
		b:     b,
		ctx:   ctx,
		plan:  plan,
		names: make(map[string]string),
	}
	steps := []func() error{
		w.claimNames,
		w.renderStruct,
		w.renderConsts,
		w.renderConstructor,
		w.renderTag,
		w.renderAccessors,
		w.renderSerialize,
		w.renderDeserialize,
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return "", err
		}
	}
	return w.p.String(), nil
}

func (w *classWriter) name() string {
	return w.plan.Name()
}

func (w *classWriter) claim(ident, owner string) error {
	if prev, ok := w.names[ident]; ok {
		return fmt.Errorf("%s and %s both map to Go identifier %s", prev, owner, ident)
	}
	w.names[ident] = owner
	return nil
}

// claimNames checks that no two properties, and no property and
// generated method, share a Go identifier.
func (w *classWriter) claimNames() error {
	plan := w.plan
	reserved := []string{"Serialize", "Deserialize"}
	if plan.Parent != nil {
		if plan.Parent.Class.Removed {
			return fmt.Errorf("parent %s is removed", plan.Parent.Name())
		}
		reserved = append(reserved, "Header")
	}
	switch plan.Role {
	case layout.RoleMessage:
		reserved = append(reserved, "GetEMsg")
	case layout.RoleHeader:
		reserved = append(reserved, "SetEMsg")
	}
	for _, ident := range reserved {
		if err := w.claim(ident, "generated method "+ident); err != nil {
			return err
		}
	}

	for _, f := range plan.Fields {
		if f.Class != nil && f.Class.Removed {
			return fmt.Errorf("field %s has removed type %s", f.Name(), f.Class.Name)
		}
		owner := "property " + f.Name()
		idents := []string{exportedName(f.Name())}
		if f.Transform.IsAdapter() {
			idents = append(idents, unexportedName(f.Name()), "Set"+exportedName(f.Name()))
		}
		for _, ident := range idents {
			if err := w.claim(ident, owner); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *classWriter) errReturn(indent string) {
	w.p.linef("%s\treturn err", indent)
	w.p.linef("%s}", indent)
}

func (w *classWriter) elemType(f *layout.Field) (string, error) {
	if f.Enum != nil {
		return enumRef(w.ctx, f.Enum.Name), nil
	}
	if t, ok := goPrimitives[f.Carrier.Name]; ok {
		return t, nil
	}
	return "", fmt.Errorf("no Go type for property %s", f.Name())
}

// goType is the Go type of the struct field backing f. Adapted fields
// are stored in their raw wire form.
func (w *classWriter) goType(f *layout.Field) (string, error) {
	switch f.Kind {
	case layout.KindScalar:
		if f.Transform.IsAdapter() {
			return goPrimitives[f.Carrier.Name], nil
		}
		return w.elemType(f)
	case layout.KindArray:
		elem, err := w.elemType(f)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("[%d]%s", f.Prop.ArrayLen, elem), nil
	case layout.KindSlice:
		elem, err := w.elemType(f)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case layout.KindProto:
		return "*" + protoRef(w.ctx, f.ProtoType), nil
	case layout.KindClass:
		return f.Class.Name, nil
	}
	return "", fmt.Errorf("property %s has unknown kind %v", f.Name(), f.Kind)
}

func fieldRef(f *layout.Field) string {
	if f.Transform.IsAdapter() {
		return "m." + unexportedName(f.Name())
	}
	return "m." + exportedName(f.Name())
}

func payloadVar(f *layout.Field) string {
	return "payload" + exportedName(f.Name())
}

func obsoleteComment(p *printer, indent string, marker *syntax.Marker) {
	if marker != nil {
		p.linef("%s// Deprecated: %s", indent, deprecation(marker))
	}
}

func (w *classWriter) renderStruct() error {
	p, plan := &w.p, w.plan
	p.linef("type %s struct {", w.name())
	if plan.Parent != nil {
		p.linef("\tHeader %s", plan.Parent.Name())
		if len(plan.Fields) > 0 {
			p.line("")
		}
	}
	for _, f := range plan.Fields {
		typ, err := w.goType(f)
		if err != nil {
			return err
		}
		ident := exportedName(f.Name())
		if f.Transform.IsAdapter() {
			ident = unexportedName(f.Name())
		}
		obsoleteComment(p, "\t", f.Prop.Obsolete)
		p.linef("\t%s %s", ident, typ)
	}
	p.line("}")
	p.line("")

	p.linef("var _ %s = (*%s)(nil)", w.markerInterface(), w.name())
	p.line("")
	return nil
}

func (w *classWriter) markerInterface() string {
	prefix := markerPrefix(w.plan.Family)
	switch w.plan.Role {
	case layout.RoleMessage:
		return prefix + "SerializableMessage"
	case layout.RoleHeader:
		return prefix + "SerializableHeader"
	}
	return "SteamSerializable"
}

func (w *classWriter) storageOf(prop *compiler.Property) compiler.Primitive {
	switch typ := prop.Type.(type) {
	case *compiler.WeakSymbol:
		p, _ := compiler.LookupPrimitive(typ.Name)
		return p
	case *compiler.StrongSymbol:
		if enum, ok := w.ctx.Schema.Resolved(typ).(*compiler.Enum); ok {
			return enum.Storage
		}
	}
	return compiler.Primitive{}
}

func (w *classWriter) renderConsts() error {
	for _, c := range w.plan.Consts {
		typ, err := w.b.RenderTypeName(w.ctx, c.Type)
		if err != nil {
			return fmt.Errorf("const %s: %w", c.Name, err)
		}
		expr, err := w.valueExpr(c.Default, typ, w.storageOf(c))
		if err != nil {
			return fmt.Errorf("const %s: %w", c.Name, err)
		}
		obsoleteComment(&w.p, "", c.Obsolete)
		w.p.linef("const %s_%s %s = %s", w.name(), c.Name, typ, expr)
		w.p.line("")
	}
	return nil
}

// valueExpr renders an expression assigned to a value of type typ. It
// keeps references by name when all of them already have that type and
// are emitted, and otherwise folds the expression to a literal.
func (w *classWriter) valueExpr(terms []compiler.Symbol, typ string, storage compiler.Primitive) (string, error) {
	if w.symbolic(terms, typ) {
		return w.b.RenderSymbols(w.ctx, terms, "|")
	}
	bits, ok := w.ctx.Planner.Eval(terms)
	if !ok {
		var names []string
		for _, term := range terms {
			names = append(names, term.Identifier())
		}
		return "", fmt.Errorf("cannot evaluate %s", strings.Join(names, " | "))
	}
	return literal(bits, storage, false), nil
}

func (w *classWriter) symbolic(terms []compiler.Symbol, typ string) bool {
	if len(terms) == 0 {
		return false
	}
	for _, term := range terms {
		strong, ok := term.(*compiler.StrongSymbol)
		if !ok || strong.Member == nil || removedValue(w.ctx.Schema, strong) {
			return false
		}
		switch decl := w.ctx.Schema.Resolved(strong).(type) {
		case *compiler.Enum:
			if enumTypeName(w.ctx, decl.Name) != typ {
				return false
			}
		case *compiler.Class:
			prop := decl.Property(strong.Member.Name().Get())
			if prop == nil || prop.Flag != syntax.FlagConst || w.typeName(prop.Type) != typ {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// removedValue reports whether sym names an enum value or const property
// that is never emitted.
func removedValue(schema *compiler.Schema, sym *compiler.StrongSymbol) bool {
	if sym.Member == nil {
		return false
	}
	member := sym.Member.Name().Get()
	switch decl := schema.Resolved(sym).(type) {
	case *compiler.Enum:
		value := decl.Value(member)
		return value != nil && value.Removed
	case *compiler.Class:
		prop := decl.Property(member)
		return decl.Removed || (prop != nil && prop.Removed)
	}
	return false
}

// typeName is the Go type of sym, or "" when it has none. Unlike
// RenderTypeName it records no imports.
func (w *classWriter) typeName(sym compiler.Symbol) string {
	switch sym := sym.(type) {
	case *compiler.WeakSymbol:
		return goPrimitives[sym.Name]
	case *compiler.StrongSymbol:
		if enum, ok := w.ctx.Schema.Resolved(sym).(*compiler.Enum); ok && sym.Member == nil {
			return enumTypeName(w.ctx, enum.Name)
		}
	}
	return ""
}

func (w *classWriter) renderConstructor() error {
	p, plan, name := &w.p, w.plan, w.name()
	p.linef("// New%s returns a %s with every declared default applied.", name, name)
	p.linef("func New%s() *%s {", name, name)
	p.linef("\tm := &%s{}", name)

	if parent := plan.Parent; parent != nil {
		p.linef("\tm.Header = *New%s()", parent.Name())
		if plan.Role == layout.RoleMessage && parent.Role == layout.RoleHeader {
			arg := "m.GetEMsg()"
			if own, theirs := tagType(w.ctx, plan.Family), tagType(w.ctx, parent.Family); own != theirs {
				arg = theirs + "(" + arg + ")"
			}
			p.linef("\tm.Header.SetEMsg(%s)", arg)
		}
	}

	for _, f := range plan.Fields {
		switch f.Kind {
		case layout.KindProto:
			p.linef("\t%s = &%s{}", fieldRef(f), protoRef(w.ctx, f.ProtoType))
		case layout.KindClass:
			p.linef("\t%s = *New%s()", fieldRef(f), f.Class.Name)
		}
		if len(f.Prop.Default) == 0 {
			continue
		}
		if f.Kind != layout.KindScalar {
			return fmt.Errorf("property %s: default value on %v field", f.Name(), f.Kind)
		}
		typ, err := w.goType(f)
		if err != nil {
			return err
		}
		expr, err := w.valueExpr(f.Prop.Default, typ, f.Carrier)
		if err != nil {
			return fmt.Errorf("property %s: %w", f.Name(), err)
		}
		p.linef("\t%s = %s", fieldRef(f), expr)
	}

	p.line("\treturn m")
	p.line("}")
	p.line("")
	return nil
}

func (w *classWriter) renderTag() error {
	p, plan, name := &w.p, w.plan, w.name()
	tag := tagType(w.ctx, plan.Family)

	switch plan.Role {
	case layout.RoleMessage:
		expr, err := w.identExpr(tag)
		if err != nil {
			return err
		}
		p.linef("func (m *%s) GetEMsg() %s {", name, tag)
		p.linef("\treturn %s", expr)
		p.line("}")
		p.line("")

	case layout.RoleHeader:
		p.linef("func (m *%s) SetEMsg(msg %s) {", name, tag)
		if f := plan.TagField; f != nil {
			if f.Kind != layout.KindScalar || f.Transform.IsAdapter() {
				return fmt.Errorf("tag property %s must be a plain scalar", f.Name())
			}
			typ, err := w.goType(f)
			if err != nil {
				return err
			}
			value := "msg"
			if typ != tag {
				value = typ + "(msg)"
			}
			p.linef("\t%s = %s", fieldRef(f), value)
		}
		p.line("}")
		p.line("")
	}
	return nil
}

func (w *classWriter) identExpr(tag string) (string, error) {
	switch sym := w.plan.Class.Ident.(type) {
	case *compiler.WeakSymbol:
		v, negative, ok := compiler.ParseLiteral(sym.Name)
		if !ok || negative {
			return "", fmt.Errorf("message tag %q is not a non-negative integer", sym.Name)
		}
		uint32Type, _ := compiler.LookupPrimitive("uint")
		return literal(v, uint32Type, false), nil
	case *compiler.StrongSymbol:
		enum, isEnum := w.ctx.Schema.Resolved(sym).(*compiler.Enum)
		if removedValue(w.ctx.Schema, sym) {
			bits, ok := w.ctx.Planner.Eval([]compiler.Symbol{sym})
			if !ok {
				return "", fmt.Errorf("cannot evaluate message tag %s", sym.Identifier())
			}
			storage, _ := compiler.LookupPrimitive("uint")
			if isEnum {
				storage = enum.Storage
			}
			return tag + "(" + literal(bits, storage, false) + ")", nil
		}
		ref, err := w.b.renderValue(w.ctx, sym)
		if err != nil {
			return "", err
		}
		if isEnum && enumTypeName(w.ctx, enum.Name) == tag {
			return ref, nil
		}
		return tag + "(" + ref + ")", nil
	}
	return "", fmt.Errorf("class has no message tag")
}

func (w *classWriter) renderAccessors() error {
	p, name := &w.p, w.name()
	for _, f := range w.plan.Fields {
		if !f.Transform.IsAdapter() {
			continue
		}
		ident := exportedName(f.Name())
		raw := fieldRef(f)
		switch f.Transform {
		case layout.TransformSteamID, layout.TransformGameID:
			useRuntime(w.ctx)
			typ := "steamd.SteamID"
			if f.Transform == layout.TransformGameID {
				typ = "steamd.GameID"
			}
			p.linef("func (m *%s) %s() %s {", name, ident, typ)
			p.linef("\treturn %s(%s)", typ, raw)
			p.line("}")
			p.line("")
			p.linef("func (m *%s) Set%s(v %s) {", name, ident, typ)
			p.linef("\t%s = v.ToUint64()", raw)
			p.line("}")
			p.line("")
		case layout.TransformBool:
			p.linef("func (m *%s) %s() bool {", name, ident)
			p.linef("\treturn %s != 0", raw)
			p.line("}")
			p.line("")
			p.linef("func (m *%s) Set%s(v bool) {", name, ident)
			p.line("\tif v {")
			p.linef("\t\t%s = 1", raw)
			p.line("\t} else {")
			p.linef("\t\t%s = 0", raw)
			p.line("\t}")
			p.line("}")
			p.line("")
		}
	}
	return nil
}

// renderSerialize writes the parent, then every fixed field, then every
// variable payload. Payloads are rendered first so that length fields
// hold their final values when written.
func (w *classWriter) renderSerialize() error {
	p, plan := &w.p, w.plan
	w.ctx.UseImport("io", "")
	p.linef("func (m *%s) Serialize(w io.Writer) error {", w.name())

	variable := plan.Variable()
	for _, f := range variable {
		var expr string
		switch f.Kind {
		case layout.KindProto:
			w.ctx.UseImport(protobufImport, "")
			expr = fmt.Sprintf("proto.Marshal(%s)", fieldRef(f))
		case layout.KindClass:
			useRuntime(w.ctx)
			expr = fmt.Sprintf("steamd.Marshal(&%s)", fieldRef(f))
		case layout.KindSlice:
			useRuntime(w.ctx)
			expr = fmt.Sprintf("steamd.MarshalValues(%s)", fieldRef(f))
		default:
			return fmt.Errorf("property %s: unexpected variable kind %v", f.Name(), f.Kind)
		}
		p.linef("\t%s, err := %s", payloadVar(f), expr)
		p.line("\tif err != nil {")
		w.errReturn("\t")
	}
	for _, f := range variable {
		holder := f.LengthField
		if holder == nil {
			continue
		}
		p.linef("\tif %s, err = steamd.LengthOf[%s](len(%s)); err != nil {",
			fieldRef(holder), goPrimitives[holder.Carrier.Name], payloadVar(f))
		w.errReturn("\t")
	}

	if plan.Parent != nil {
		p.line("\tif err := m.Header.Serialize(w); err != nil {")
		w.errReturn("\t")
	}
	for _, f := range plan.Fixed() {
		w.ctx.UseImport("encoding/binary", "")
		useRuntime(w.ctx)
		value := fieldRef(f)
		switch f.Transform {
		case layout.TransformProtoMask:
			value = fmt.Sprintf("steamd.MakeMsg(uint32(%s), true)", value)
		case layout.TransformProtoMaskGC:
			value = fmt.Sprintf("steamd.MakeGCMsg(uint32(%s), true)", value)
		}
		p.linef("\tif err := binary.Write(w, steamd.ByteOrder, %s); err != nil {", value)
		w.errReturn("\t")
	}
	for _, f := range variable {
		p.linef("\tif _, err := w.Write(%s); err != nil {", payloadVar(f))
		w.errReturn("\t")
	}

	p.line("\treturn nil")
	p.line("}")
	p.line("")
	return nil
}

// renderDeserialize mirrors renderSerialize. A variable field with a
// length field reads exactly that many bytes; without one, a payload
// runs to the end of the stream.
func (w *classWriter) renderDeserialize() error {
	p, plan := &w.p, w.plan
	w.ctx.UseImport("io", "")
	p.linef("func (m *%s) Deserialize(r io.Reader) error {", w.name())

	if plan.Parent != nil {
		p.line("\tif err := m.Header.Deserialize(r); err != nil {")
		w.errReturn("\t")
	}
	for _, f := range plan.Fixed() {
		w.ctx.UseImport("encoding/binary", "")
		useRuntime(w.ctx)
		switch f.Transform {
		case layout.TransformProtoMask, layout.TransformProtoMaskGC:
			typ, err := w.goType(f)
			if err != nil {
				return err
			}
			unmask := "GetMsg"
			if f.Transform == layout.TransformProtoMaskGC {
				unmask = "GetGCMsg"
			}
			p.line("\t{")
			p.line("\t\tvar raw uint32")
			p.line("\t\tif err := binary.Read(r, steamd.ByteOrder, &raw); err != nil {")
			w.errReturn("\t\t")
			p.linef("\t\t%s = %s(steamd.%s(raw))", fieldRef(f), typ, unmask)
			p.line("\t}")
		default:
			p.linef("\tif err := binary.Read(r, steamd.ByteOrder, &%s); err != nil {", fieldRef(f))
			w.errReturn("\t")
		}
	}

	for _, f := range plan.Variable() {
		if f.Kind == layout.KindClass && f.LengthField == nil {
			p.linef("\tif err := %s.Deserialize(r); err != nil {", fieldRef(f))
			w.errReturn("\t")
			continue
		}

		source := "io.ReadAll(r)"
		if f.LengthField != nil {
			useRuntime(w.ctx)
			source = fmt.Sprintf("steamd.ReadPayload(r, %s)", fieldRef(f.LengthField))
		}
		payload := payloadVar(f)
		p.linef("\t%s, err := %s", payload, source)
		p.line("\tif err != nil {")
		w.errReturn("\t")

		switch f.Kind {
		case layout.KindProto:
			w.ctx.UseImport(protobufImport, "")
			p.linef("\t%s = &%s{}", fieldRef(f), protoRef(w.ctx, f.ProtoType))
			p.linef("\tif err := proto.Unmarshal(%s, %s); err != nil {", payload, fieldRef(f))
			w.errReturn("\t")
		case layout.KindClass:
			w.ctx.UseImport("bytes", "")
			p.linef("\tif err := %s.Deserialize(bytes.NewReader(%s)); err != nil {", fieldRef(f), payload)
			w.errReturn("\t")
		case layout.KindSlice:
			elem, err := w.elemType(f)
			if err != nil {
				return err
			}
			p.linef("\tif %s, err = steamd.UnmarshalValues[%s](%s); err != nil {", fieldRef(f), elem, payload)
			w.errReturn("\t")
		}
	}

	p.line("\treturn nil")
	p.line("}")
	p.line("")
	return nil
}
