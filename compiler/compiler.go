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
	"strconv"
	"strings"

	"go.steamd-lang.org/steamd/syntax"
)

// Schema is the resolved form of a document. It is not modified after
// Compile returns.
type Schema struct {
	SourcePath string
	Decls      []Decl

	byName map[string]Decl
}

func (s *Schema) Lookup(name string) Decl {
	return s.byName[name]
}

func (s *Schema) Class(name string) *Class {
	class, _ := s.byName[name].(*Class)
	return class
}

func (s *Schema) Enum(name string) *Enum {
	enum, _ := s.byName[name].(*Enum)
	return enum
}

// Resolved returns the compiled declaration a strong symbol refers to.
func (s *Schema) Resolved(sym *StrongSymbol) Decl {
	return s.byName[sym.Decl.Name().Get()]
}

func (s *Schema) Enums() []*Enum {
	var out []*Enum
	for _, decl := range s.Decls {
		if enum, ok := decl.(*Enum); ok {
			out = append(out, enum)
		}
	}
	return out
}

func (s *Schema) Classes() []*Class {
	var out []*Class
	for _, decl := range s.Decls {
		if class, ok := decl.(*Class); ok {
			out = append(out, class)
		}
	}
	return out
}

// Decl is either a *Class or an *Enum.
type Decl interface {
	DeclName() string
	IsRemoved() bool
	isDecl()
}

type Class struct {
	Name    string
	Ident   Symbol
	Parent  *Class
	Props   []*Property
	Removed bool
	Node    *syntax.Class
}

func (*Class) isDecl() {}

func (c *Class) DeclName() string {
	return c.Name
}

func (c *Class) IsRemoved() bool {
	return c.Removed
}

func (c *Class) Property(name string) *Property {
	for _, prop := range c.Props {
		if prop.Name == name {
			return prop
		}
	}
	return nil
}

type Enum struct {
	Name    string
	Storage Primitive
	Flags   bool
	Values  []*EnumValue
	Node    *syntax.Enum
}

func (*Enum) isDecl() {}

func (e *Enum) DeclName() string {
	return e.Name
}

func (e *Enum) IsRemoved() bool {
	return false
}

func (e *Enum) Value(name string) *EnumValue {
	for _, value := range e.Values {
		if value.Name == name {
			return value
		}
	}
	return nil
}

type Property struct {
	Name string
	Type Symbol
	Flag syntax.PropFlag

	// ArrayLen is the literal length of a fixed array, or zero.
	ArrayLen int

	// LengthField is the sibling that carries this property's encoded
	// byte length, or nil.
	LengthField *Property

	// LengthOf is set on a length field and points at the payload it
	// measures.
	LengthOf *Property

	Default  []Symbol
	Obsolete *syntax.Marker
	Removed  bool
	Node     *syntax.Property
}

type EnumValue struct {
	Name     string
	Default  []Symbol
	Obsolete *syntax.Marker
	Removed  bool
	Node     *syntax.EnumValue
}

type CompileOption interface {
	apply(*CompileOptions)
}

type compileOption func(*CompileOptions)

func (f compileOption) apply(opts *CompileOptions) { f(opts) }

type CompileOptions struct {
	sourcePath string
}

func WithSourcePath(sourcePath string) CompileOption {
	return compileOption(func(opts *CompileOptions) {
		opts.sourcePath = sourcePath
	})
}

type CompileResult struct {
	Schema   *Schema
	Warnings []*Warning
}

func Compile(doc *syntax.Document, opts ...CompileOption) (*CompileResult, error) {
	return NewCompileOptions(opts...).Compile(doc)
}

func NewCompileOptions(opts ...CompileOption) *CompileOptions {
	compileOptions := &CompileOptions{}
	for _, opt := range opts {
		opt.apply(compileOptions)
	}
	return compileOptions
}

// Compile resolves every reference in doc. The first error stops
// compilation; warnings are collected.
func (opts *CompileOptions) Compile(doc *syntax.Document) (*CompileResult, error) {
	c := &compiler{
		doc: doc,
		schema: &Schema{
			SourcePath: opts.sourcePath,
			byName:     make(map[string]Decl),
		},
	}
	if err := c.compile(); err != nil {
		return nil, err
	}
	return &CompileResult{
		Schema:   c.schema,
		Warnings: c.warnings,
	}, nil
}

type compiler struct {
	doc      *syntax.Document
	schema   *Schema
	warnings []*Warning
}

func (c *compiler) warn(w *Warning) {
	c.warnings = append(c.warnings, w)
}

func (c *compiler) compile() error {
	// Declarations are registered before anything is resolved, so every
	// reference may point forward.
	for _, node := range c.doc.Decls() {
		name := node.Name().Get()
		if _, dup := c.schema.byName[name]; dup {
			return errDuplicateDecl(name, node.Name().Span())
		}
		if _, ok := primitives[name]; ok {
			c.warn(warnShadowsPrimitive(name, node.Name().Span()))
		}
		if err := checkDuplicateMembers(node); err != nil {
			return err
		}

		var decl Decl
		switch node := node.(type) {
		case *syntax.Class:
			decl = &Class{
				Name:    name,
				Removed: node.Removed() != nil,
				Node:    node,
			}
		case *syntax.Enum:
			decl = &Enum{
				Name:  name,
				Flags: node.IsFlags(),
				Node:  node,
			}
		}
		c.schema.byName[name] = decl
		c.schema.Decls = append(c.schema.Decls, decl)
	}

	// Enum storage widths must be known before class fields are checked.
	for _, enum := range c.schema.Enums() {
		if err := c.compileEnum(enum); err != nil {
			return err
		}
	}
	for _, class := range c.schema.Classes() {
		if err := c.compileClass(class); err != nil {
			return err
		}
	}

	for _, class := range c.schema.Classes() {
		if err := checkParentCycle(class); err != nil {
			return err
		}
	}
	return nil
}

func checkDuplicateMembers(node syntax.Decl) error {
	seen := make(map[string]struct{})
	for member := range node.Members() {
		name := member.Name().Get()
		if _, dup := seen[name]; dup {
			return errDuplicateMember(node.Name().Get(), name, member.Name().Span())
		}
		seen[name] = struct{}{}
	}
	return nil
}

func checkParentCycle(class *Class) error {
	seen := map[*Class]struct{}{class: {}}
	for parent := class.Parent; parent != nil; parent = parent.Parent {
		if _, ok := seen[parent]; ok {
			return errParentCycle(class.Name, class.Node.Parent().Span())
		}
		seen[parent] = struct{}{}
	}
	return nil
}

func (c *compiler) resolve(ident *syntax.Ident, strongOnly bool) (Symbol, error) {
	sym, err := resolve(ident.Get(), c.doc.Decls(), strongOnly)
	if err != nil {
		return nil, withSpan(err, ident.Span())
	}
	return sym, nil
}

func (c *compiler) compileEnum(enum *Enum) error {
	node := enum.Node
	enum.Storage = primitives[DefaultEnumStorage]
	if storage := node.Storage(); storage != nil {
		p, ok := primitives[storage.Get()]
		if !ok || !p.Integer || c.schema.byName[storage.Get()] != nil {
			return errEnumStorage(enum.Name, storage.Get(), storage.Span())
		}
		enum.Storage = p
	}

	for _, valueNode := range node.Values() {
		value := &EnumValue{
			Name:     valueNode.Name().Get(),
			Obsolete: valueNode.Obsolete(),
			Removed:  valueNode.Removed() != nil,
			Node:     valueNode,
		}
		for _, term := range valueNode.Defaults() {
			sym, err := c.resolveEnumTerm(node, term)
			if err != nil {
				return err
			}
			value.Default = append(value.Default, sym)
		}
		enum.Values = append(enum.Values, value)
	}
	return nil
}

// resolveEnumTerm binds a term of an enum value expression. Bare names
// refer to sibling values first.
func (c *compiler) resolveEnumTerm(enum *syntax.Enum, term *syntax.Ident) (Symbol, error) {
	if sibling := enum.Value(term.Get()); sibling != nil {
		return &StrongSymbol{Decl: enum, Member: sibling}, nil
	}
	return c.resolveValue(enum.Name().Get(), term)
}

// resolveValue binds a term of a default or identity expression. Strong
// results must name a member: a bare declaration is not a value.
func (c *compiler) resolveValue(decl string, term *syntax.Ident) (Symbol, error) {
	sym, err := c.resolve(term, false)
	if err != nil {
		return nil, err
	}
	if strong, ok := sym.(*StrongSymbol); ok {
		if strong.Member == nil {
			return nil, errNotAValue(decl, term.Get(), term.Span())
		}
		if strong.Member.Obsolete() != nil {
			c.warn(warnObsoleteReference(decl, term.Get(), term.Span()))
		}
	}
	return sym, nil
}

func (c *compiler) compileClass(class *Class) error {
	node := class.Node

	if ident := node.Ident(); ident != nil {
		sym, err := c.resolve(ident, false)
		if err != nil {
			return err
		}
		if strong, ok := sym.(*StrongSymbol); ok {
			if strong.Member == nil {
				return errNotAValue(class.Name, ident.Get(), ident.Span())
			}
			if marker := strong.Member.Obsolete(); marker != nil {
				c.warn(warnObsoleteIdentity(class.Name, ident.Get(), marker.Message(), ident.Span()))
			}
		}
		class.Ident = sym
	}

	if parent := node.Parent(); parent != nil {
		sym, err := c.resolve(parent, true)
		if err != nil {
			return err
		}
		strong := sym.(*StrongSymbol)
		parentClass, ok := c.schema.Resolved(strong).(*Class)
		if !ok || strong.Member != nil {
			return errParentNotClass(class.Name, parent.Get(), parent.Span())
		}
		if !strings.Contains(parentClass.Name, "Hdr") {
			c.warn(warnParentNotHeader(class.Name, parentClass.Name, parent.Span()))
		}
		class.Parent = parentClass
	}

	for _, propNode := range node.Properties() {
		prop, err := c.compileProperty(class, propNode)
		if err != nil {
			return err
		}
		class.Props = append(class.Props, prop)
	}

	// Length fields are linked once all siblings exist, since a length
	// field may be declared after its payload.
	for _, prop := range class.Props {
		if err := c.linkLengthField(class, prop); err != nil {
			return err
		}
	}

	c.checkUnboundedFields(class)
	return nil
}

func (c *compiler) compileProperty(class *Class, node *syntax.Property) (*Property, error) {
	prop := &Property{
		Name:     node.Name().Get(),
		Flag:     node.Flag(),
		Obsolete: node.Obsolete(),
		Removed:  node.Removed() != nil,
		Node:     node,
	}

	typ, err := c.resolve(node.Type(), false)
	if err != nil {
		return nil, err
	}
	prop.Type = typ
	if err := c.checkPropertyType(class, prop); err != nil {
		return nil, err
	}

	for _, term := range node.Defaults() {
		sym, err := c.resolveValue(class.Name, term)
		if err != nil {
			return nil, err
		}
		prop.Default = append(prop.Default, sym)
	}
	if prop.Flag == syntax.FlagConst && len(prop.Default) == 0 {
		return nil, errConstWithoutValue(class.Name, prop.Name, node.Name().Span())
	}

	if opt := node.FlagOpt(); opt != nil {
		switch prop.Flag {
		case syntax.FlagNone, syntax.FlagProto:
		default:
			return nil, errFlagOptNotAllowed(class.Name, prop.Name, prop.Flag, opt.Span())
		}
		if n, err := strconv.ParseUint(opt.Get(), 10, 31); err == nil {
			if n == 0 || prop.Flag == syntax.FlagProto {
				return nil, errBadArrayLength(class.Name, prop.Name, opt.Get(), opt.Span())
			}
			if _, isPrimitive := prop.Type.(*WeakSymbol); !isPrimitive {
				return nil, errBadArrayLength(class.Name, prop.Name, opt.Get(), opt.Span())
			}
			prop.ArrayLen = int(n)
		} else if opt.Get()[0] >= '0' && opt.Get()[0] <= '9' {
			return nil, errBadArrayLength(class.Name, prop.Name, opt.Get(), opt.Span())
		}
	}
	return prop, nil
}

func (c *compiler) checkPropertyType(class *Class, prop *Property) error {
	node := prop.Node
	typeName := node.Type().Get()
	span := node.Type().Span()

	var primitive Primitive
	var isPrimitive bool
	var enum *Enum
	switch typ := prop.Type.(type) {
	case *WeakSymbol:
		primitive, isPrimitive = primitives[typ.Name]
		if !isPrimitive && prop.Flag != syntax.FlagProto {
			return errUnknownType(class.Name, typeName, span)
		}
	case *StrongSymbol:
		if typ.Member != nil {
			return errTypeIsMember(class.Name, typeName, span)
		}
		if prop.Flag == syntax.FlagProto {
			return errProtoTypeDeclared(class.Name, prop.Name, typeName, span)
		}
		enum, _ = c.schema.Resolved(typ).(*Enum)
	}

	switch prop.Flag {
	case syntax.FlagConst:
		if !isPrimitive && enum == nil {
			return errConstType(class.Name, prop.Name, typeName, span)
		}
	case syntax.FlagSteamIDMarshal, syntax.FlagGameIDMarshal:
		if typeName != "ulong" {
			return errAdapterType(class.Name, prop.Name, prop.Flag, "ulong", typeName, span)
		}
	case syntax.FlagBoolMarshal:
		if typeName != "byte" {
			return errAdapterType(class.Name, prop.Name, prop.Flag, "byte", typeName, span)
		}
	case syntax.FlagProtoMask, syntax.FlagProtoMaskGC:
		size := primitive.Size
		if enum != nil {
			size = enum.Storage.Size
		}
		if size != 4 || (isPrimitive && !primitive.Integer) {
			return errMaskType(class.Name, prop.Name, prop.Flag, typeName, span)
		}
	}
	return nil
}

func (c *compiler) linkLengthField(class *Class, prop *Property) error {
	opt := prop.Node.FlagOpt()
	if opt == nil || prop.ArrayLen > 0 {
		return nil
	}
	holder := class.Property(opt.Get())
	if holder == nil {
		return errUnknownLengthField(class.Name, prop.Name, opt.Get(), opt.Span())
	}
	weak, ok := holder.Type.(*WeakSymbol)
	if !ok || holder == prop || holder.Flag != syntax.FlagNone || holder.ArrayLen > 0 ||
		holder.Node.FlagOpt() != nil || holder.LengthOf != nil || (holder.Removed && !prop.Removed) {
		return errBadLengthField(class.Name, prop.Name, holder.Name, opt.Span())
	}
	if p, ok := primitives[weak.Name]; !ok || !p.Integer {
		return errBadLengthField(class.Name, prop.Name, holder.Name, opt.Span())
	}
	prop.LengthField = holder
	holder.LengthOf = prop
	return nil
}

// checkUnboundedFields warns when a payload without a length field is
// followed by another variable-size field.
func (c *compiler) checkUnboundedFields(class *Class) {
	var unbounded *Property
	for _, prop := range class.Props {
		if prop.Flag == syntax.FlagConst || prop.Removed {
			continue
		}
		variable := prop.Flag == syntax.FlagProto || prop.LengthField != nil
		if _, ok := prop.Type.(*StrongSymbol); ok {
			if _, isClass := c.schema.Resolved(prop.Type.(*StrongSymbol)).(*Class); isClass {
				variable = true
			}
		}
		if !variable {
			continue
		}
		if unbounded != nil {
			c.warn(warnUnboundedField(class.Name, unbounded.Name, prop.Name, unbounded.Node.Name().Span()))
			return
		}
		if prop.Flag == syntax.FlagProto && prop.LengthField == nil {
			unbounded = prop
		}
	}
}
