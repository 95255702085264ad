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

package syntax

import (
	"fmt"
	"iter"
)

type Span struct {
	start, len uint32
}

func NewSpan(start, len uint32) Span {
	return Span{start, len}
}

func (s Span) Start() uint32 {
	return s.start
}

func (s Span) End() uint32 {
	return s.start + s.len
}

func (s Span) Len() uint32 {
	return s.len
}

func spanBetween(first, last Span) Span {
	return Span{first.start, last.End() - first.start}
}

type Node interface {
	Span() Span
}

// Ident is a raw identifier reference. Resolution happens later.
type Ident struct {
	raw   string
	start uint32
}

func NewIdent(raw string, span Span) *Ident {
	return &Ident{raw: raw, start: span.start}
}

func (n *Ident) Get() string {
	return n.raw
}

func (n *Ident) Span() Span {
	return Span{n.start, uint32(len(n.raw))}
}

// Marker records an `obsolete` or `removed` annotation and its optional
// message.
type Marker struct {
	span    Span
	message string
}

func (m *Marker) Span() Span {
	return m.span
}

func (m *Marker) Message() string {
	return m.message
}

type Directive struct {
	span Span
	name string
	arg  *Token
}

func (n *Directive) Span() Span {
	return n.span
}

func (n *Directive) Name() string {
	return n.name
}

// Arg returns the unquoted string argument, if one was given.
func (n *Directive) Arg() (string, bool) {
	if n.arg == nil {
		return "", false
	}
	return n.arg.Value(), true
}

type Document struct {
	span       Span
	directives []*Directive
	decls      []Decl
}

func (d *Document) Span() Span {
	return d.span
}

func (d *Document) Directives() []*Directive {
	return d.directives
}

// Decls returns the top-level declarations in source order.
func (d *Document) Decls() []Decl {
	return d.decls
}

func (d *Document) Decl(name string) Decl {
	for _, decl := range d.decls {
		if decl.Name().Get() == name {
			return decl
		}
	}
	return nil
}

func (d *Document) Classes() iter.Seq[*Class] {
	return func(yield func(*Class) bool) {
		for _, decl := range d.decls {
			if class, ok := decl.(*Class); ok && !yield(class) {
				return
			}
		}
	}
}

func (d *Document) Enums() iter.Seq[*Enum] {
	return func(yield func(*Enum) bool) {
		for _, decl := range d.decls {
			if enum, ok := decl.(*Enum); ok && !yield(enum) {
				return
			}
		}
	}
}

// Merge concatenates the declarations of several documents, in argument
// order. Directives are not carried over.
func Merge(docs ...*Document) *Document {
	out := &Document{}
	for _, doc := range docs {
		out.decls = append(out.decls, doc.decls...)
	}
	if len(docs) > 0 {
		out.span = docs[len(docs)-1].span
	}
	return out
}

// Decl is either a *Class or an *Enum.
type Decl interface {
	Node
	Name() *Ident
	Member(name string) Member
	Members() iter.Seq[Member]
	isDecl()
}

// Member is either a *Property or an *EnumValue.
type Member interface {
	Node
	Name() *Ident
	Obsolete() *Marker
	Removed() *Marker
	isMember()
}

type Class struct {
	span    Span
	name    *Ident
	ident   *Ident
	parent  *Ident
	removed *Marker
	props   []*Property
}

func (n *Class) isDecl() {}

func (n *Class) Span() Span {
	return n.span
}

func (n *Class) Name() *Ident {
	return n.name
}

// Ident is the message-type tag expression, or nil.
func (n *Class) Ident() *Ident {
	return n.ident
}

// Parent names the header embedded before this class's fields, or nil.
func (n *Class) Parent() *Ident {
	return n.parent
}

func (n *Class) Removed() *Marker {
	return n.removed
}

func (n *Class) Properties() []*Property {
	return n.props
}

func (n *Class) Property(name string) *Property {
	for _, prop := range n.props {
		if prop.name.raw == name {
			return prop
		}
	}
	return nil
}

func (n *Class) Member(name string) Member {
	if prop := n.Property(name); prop != nil {
		return prop
	}
	return nil
}

func (n *Class) Members() iter.Seq[Member] {
	return func(yield func(Member) bool) {
		for _, prop := range n.props {
			if !yield(prop) {
				return
			}
		}
	}
}

type Enum struct {
	span    Span
	name    *Ident
	storage *Ident
	flags   bool
	values  []*EnumValue
}

func (n *Enum) isDecl() {}

func (n *Enum) Span() Span {
	return n.span
}

func (n *Enum) Name() *Ident {
	return n.name
}

// Storage is the declared underlying integer type, or nil.
func (n *Enum) Storage() *Ident {
	return n.storage
}

func (n *Enum) IsFlags() bool {
	return n.flags
}

func (n *Enum) Values() []*EnumValue {
	return n.values
}

func (n *Enum) Value(name string) *EnumValue {
	for _, value := range n.values {
		if value.name.raw == name {
			return value
		}
	}
	return nil
}

func (n *Enum) Member(name string) Member {
	if value := n.Value(name); value != nil {
		return value
	}
	return nil
}

func (n *Enum) Members() iter.Seq[Member] {
	return func(yield func(Member) bool) {
		for _, value := range n.values {
			if !yield(value) {
				return
			}
		}
	}
}

type PropFlag uint8

const (
	FlagNone PropFlag = iota
	FlagConst
	FlagProto
	FlagSteamIDMarshal
	FlagGameIDMarshal
	FlagBoolMarshal
	FlagProtoMask
	FlagProtoMaskGC
)

var propFlagNames = map[string]PropFlag{
	"const":          FlagConst,
	"proto":          FlagProto,
	"steamidmarshal": FlagSteamIDMarshal,
	"gameidmarshal":  FlagGameIDMarshal,
	"boolmarshal":    FlagBoolMarshal,
	"protomask":      FlagProtoMask,
	"protomaskgc":    FlagProtoMaskGC,
}

func ParsePropFlag(word string) (PropFlag, bool) {
	flag, ok := propFlagNames[word]
	return flag, ok
}

func (f PropFlag) String() string {
	switch f {
	case FlagNone:
		return ""
	case FlagConst:
		return "const"
	case FlagProto:
		return "proto"
	case FlagSteamIDMarshal:
		return "steamidmarshal"
	case FlagGameIDMarshal:
		return "gameidmarshal"
	case FlagBoolMarshal:
		return "boolmarshal"
	case FlagProtoMask:
		return "protomask"
	case FlagProtoMaskGC:
		return "protomaskgc"
	default:
		return fmt.Sprintf("PropFlag(%d)", uint8(f))
	}
}

type Property struct {
	span     Span
	name     *Ident
	typ      *Ident
	flag     PropFlag
	flagOpt  *Ident
	defaults []*Ident
	obsolete *Marker
	removed  *Marker
}

func (n *Property) isMember() {}

func (n *Property) Span() Span {
	return n.span
}

func (n *Property) Name() *Ident {
	return n.name
}

func (n *Property) Type() *Ident {
	return n.typ
}

func (n *Property) Flag() PropFlag {
	return n.flag
}

// FlagOpt is the text between angle brackets: either a literal array
// length or the name of a sibling holding the payload length.
func (n *Property) FlagOpt() *Ident {
	return n.flagOpt
}

// Defaults returns the default expression terms, which are combined with
// bitwise OR.
func (n *Property) Defaults() []*Ident {
	return n.defaults
}

func (n *Property) Obsolete() *Marker {
	return n.obsolete
}

func (n *Property) Removed() *Marker {
	return n.removed
}

type EnumValue struct {
	span     Span
	name     *Ident
	defaults []*Ident
	obsolete *Marker
	removed  *Marker
}

func (n *EnumValue) isMember() {}

func (n *EnumValue) Span() Span {
	return n.span
}

func (n *EnumValue) Name() *Ident {
	return n.name
}

// Defaults is empty when the value continues from its predecessor.
func (n *EnumValue) Defaults() []*Ident {
	return n.defaults
}

func (n *EnumValue) Obsolete() *Marker {
	return n.obsolete
}

func (n *EnumValue) Removed() *Marker {
	return n.removed
}
