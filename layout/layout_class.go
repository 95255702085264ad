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
	"fmt"
	"strings"

	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/syntax"
)

type Role uint8

const (
	RolePlain Role = iota
	// RoleMessage classes declare an identity and expose its tag.
	RoleMessage
	// RoleHeader classes are embedded by messages and accept a tag.
	RoleHeader
)

func (r Role) String() string {
	switch r {
	case RolePlain:
		return "plain"
	case RoleMessage:
		return "message"
	case RoleHeader:
		return "header"
	default:
		return fmt.Sprintf("Role(%d)", uint8(r))
	}
}

type Family uint8

const (
	FamilyPrimary Family = iota
	FamilyGC
)

func (f Family) String() string {
	switch f {
	case FamilyPrimary:
		return "primary"
	case FamilyGC:
		return "gc"
	default:
		return fmt.Sprintf("Family(%d)", uint8(f))
	}
}

type FieldKind uint8

const (
	// KindScalar is one fixed-width integer, possibly enum-typed.
	KindScalar FieldKind = iota
	// KindArray is a fixed-length array of scalars.
	KindArray
	// KindSlice is a run of scalars whose byte length is held in a
	// sibling field.
	KindSlice
	// KindProto is an externally encoded protobuf payload.
	KindProto
	// KindClass is a nested declared class.
	KindClass
)

func (k FieldKind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindSlice:
		return "slice"
	case KindProto:
		return "proto"
	case KindClass:
		return "class"
	default:
		return fmt.Sprintf("FieldKind(%d)", uint8(k))
	}
}

type Transform uint8

const (
	TransformNone Transform = iota
	TransformProtoMask
	TransformProtoMaskGC
	TransformSteamID
	TransformGameID
	TransformBool
)

// IsAdapter reports whether the public value differs in type from the
// raw wire value.
func (t Transform) IsAdapter() bool {
	return t == TransformSteamID || t == TransformGameID || t == TransformBool
}

var transforms = map[syntax.PropFlag]Transform{
	syntax.FlagProtoMask:      TransformProtoMask,
	syntax.FlagProtoMaskGC:    TransformProtoMaskGC,
	syntax.FlagSteamIDMarshal: TransformSteamID,
	syntax.FlagGameIDMarshal:  TransformGameID,
	syntax.FlagBoolMarshal:    TransformBool,
}

type Field struct {
	Prop *compiler.Property
	Kind FieldKind

	// Size is the static width in bytes; 0 for variable-size fields.
	Size int

	// Carrier is the primitive written on the wire, per element for
	// arrays and slices. Unset for proto and class fields.
	Carrier compiler.Primitive

	Enum      *compiler.Enum
	Class     *compiler.Class
	ProtoType string
	Transform Transform

	// LengthField holds this field's encoded byte length.
	LengthField *Field
	// LengthOf is the payload whose byte length this field holds.
	LengthOf *Field
}

func (f *Field) Name() string {
	return f.Prop.Name
}

func (f *Field) IsFixed() bool {
	return f.Size > 0
}

type ClassPlan struct {
	Class  *compiler.Class
	Parent *ClassPlan
	Role   Role
	Family Family

	// Fields holds every serialized property in declaration order.
	Fields []*Field
	Consts []*compiler.Property

	// BaseSize is the total width of this class's own fixed fields.
	BaseSize int

	// TagField is the header field that stores a message tag, if any.
	TagField *Field
}

func (p *ClassPlan) Name() string {
	return p.Class.Name
}

func (p *ClassPlan) Fixed() []*Field {
	var out []*Field
	for _, field := range p.Fields {
		if field.IsFixed() {
			out = append(out, field)
		}
	}
	return out
}

func (p *ClassPlan) Variable() []*Field {
	var out []*Field
	for _, field := range p.Fields {
		if !field.IsFixed() {
			out = append(out, field)
		}
	}
	return out
}

// WireOrder is the order in which fields appear after the parent: every
// fixed field in declaration order, then every variable field in
// declaration order.
func (p *ClassPlan) WireOrder() []*Field {
	return append(p.Fixed(), p.Variable()...)
}

func (p *ClassPlan) Field(name string) *Field {
	for _, field := range p.Fields {
		if field.Name() == name {
			return field
		}
	}
	return nil
}

// Class plans the wire layout of class. Plans are cached.
func (p *Planner) Class(class *compiler.Class) (*ClassPlan, error) {
	if plan, ok := p.classes[class]; ok {
		if plan == nil {
			return nil, fmt.Errorf("class %q contains itself", class.Name)
		}
		return plan, nil
	}
	p.classes[class] = nil

	plan := &ClassPlan{
		Class:  class,
		Role:   roleOf(class),
		Family: p.familyOf(class),
	}
	if class.Parent != nil {
		parent, err := p.Class(class.Parent)
		if err != nil {
			return nil, err
		}
		plan.Parent = parent
	}

	byProp := make(map[*compiler.Property]*Field)
	for _, prop := range class.Props {
		if prop.Removed {
			continue
		}
		if prop.Flag == syntax.FlagConst {
			plan.Consts = append(plan.Consts, prop)
			continue
		}
		field, err := p.field(prop)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", class.Name, prop.Name, err)
		}
		byProp[prop] = field
		plan.Fields = append(plan.Fields, field)
		plan.BaseSize += field.Size
	}
	for _, field := range plan.Fields {
		if holder := byProp[field.Prop.LengthField]; holder != nil {
			field.LengthField = holder
			holder.LengthOf = field
		}
	}
	if plan.Role == RoleHeader {
		plan.TagField = plan.Field("msg")
	}

	p.classes[class] = plan
	return plan, nil
}

func (p *Planner) field(prop *compiler.Property) (*Field, error) {
	field := &Field{
		Prop:      prop,
		Size:      SizeOf(prop),
		Transform: transforms[prop.Flag],
	}

	if prop.Flag == syntax.FlagProto {
		field.Kind = KindProto
		field.ProtoType = prop.Type.Identifier()
		return field, nil
	}

	switch typ := prop.Type.(type) {
	case *compiler.WeakSymbol:
		primitive, ok := compiler.LookupPrimitive(typ.Name)
		if !ok {
			return nil, fmt.Errorf("unknown type %q", typ.Name)
		}
		field.Carrier = primitive
	case *compiler.StrongSymbol:
		switch decl := p.schema.Resolved(typ).(type) {
		case *compiler.Enum:
			field.Enum = decl
			field.Carrier = carrierOf(decl.Storage)
		case *compiler.Class:
			if _, err := p.Class(decl); err != nil {
				return nil, err
			}
			field.Kind = KindClass
			field.Class = decl
			return field, nil
		}
	}

	switch {
	case prop.ArrayLen > 0:
		field.Kind = KindArray
	case prop.LengthField != nil:
		field.Kind = KindSlice
	default:
		field.Kind = KindScalar
	}
	return field, nil
}

// roleOf classifies a class by naming convention: a declared identity
// makes a message, otherwise "Hdr" in the name makes a header.
func roleOf(class *compiler.Class) Role {
	switch {
	case class.Ident != nil:
		return RoleMessage
	case strings.Contains(class.Name, "Hdr"):
		return RoleHeader
	default:
		return RolePlain
	}
}

func (p *Planner) familyOf(class *compiler.Class) Family {
	if p.opts.SupportsGC && strings.Contains(class.Name, "MsgGC") {
		return FamilyGC
	}
	return FamilyPrimary
}
