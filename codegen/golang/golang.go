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

// Package golang renders steamd declarations as Go source. Enums become
// typed constants; classes become structs that implement
// steamd.Serializable.
package golang

import (
	"fmt"
	"go/format"
	"path"
	"strconv"
	"strings"

	"github.com/serenize/snaker"

	"go.steamd-lang.org/steamd/codegen"
	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/layout"
	"go.steamd-lang.org/steamd/syntax"
)

// Backend options, set through codegen.Context.Options.
const (
	// OptionEnumImport is the import path of the enum package. When set,
	// classes are generated into a separate package named "internal".
	OptionEnumImport = "enum_import"

	// OptionProtoImport is the import path of the Go package holding the
	// protobuf messages named by proto fields.
	OptionProtoImport = "proto_import"

	// OptionTagType names the enum used as the primary message tag.
	OptionTagType = "tag_type"
)

const (
	RuntimeImport = "go.steamd-lang.org/steamd"

	protobufImport = "google.golang.org/protobuf/proto"
	protoAlias     = "pb"
	defaultTagType = "EMsg"
)

type Backend struct{}

func New() *Backend {
	return &Backend{}
}

var (
	_ codegen.Backend   = (*Backend)(nil)
	_ codegen.Formatter = (*Backend)(nil)
)

var goPrimitives = map[string]string{
	"byte":   "uint8",
	"sbyte":  "int8",
	"char":   "uint8",
	"short":  "int16",
	"ushort": "uint16",
	"int":    "int32",
	"uint":   "uint32",
	"long":   "int64",
	"ulong":  "uint64",
}

type printer struct {
	buf strings.Builder
}

func (p *printer) line(s string) {
	p.buf.WriteString(s)
	p.buf.WriteByte('\n')
}

func (p *printer) linef(format string, a ...any) {
	p.line(fmt.Sprintf(format, a...))
}

func (p *printer) String() string {
	return p.buf.String()
}

func exportedName(name string) string {
	return snaker.SnakeToCamel(name)
}

func unexportedName(name string) string {
	n := exportedName(name)
	if n == "" {
		return n
	}
	return strings.ToLower(n[:1]) + n[1:]
}

func deprecation(marker *syntax.Marker) string {
	if msg := marker.Message(); msg != "" {
		return msg
	}
	return "obsolete"
}

func separateEnums(ctx *codegen.Context) bool {
	return ctx.Option(OptionEnumImport, "") != ""
}

func packageName(ctx *codegen.Context) string {
	if ctx.Internal && separateEnums(ctx) {
		return "internal"
	}
	return ctx.Namespace
}

var reservedAliases = map[string]bool{
	"binary": true,
	"bytes":  true,
	"io":     true,
	"pb":     true,
	"proto":  true,
	"steamd": true,
}

func importAlias(importPath string) string {
	base := strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}
		return r
	}, path.Base(importPath))
	if reservedAliases[base] {
		return "enums"
	}
	return base
}

func useImport(ctx *codegen.Context, importPath, alias string) {
	if alias == path.Base(importPath) {
		alias = ""
	}
	ctx.UseImport(importPath, alias)
}

func useRuntime(ctx *codegen.Context) {
	ctx.UseImport(RuntimeImport, "")
}

func enumImport(ctx *codegen.Context) string {
	if ctx.Internal {
		return ctx.Option(OptionEnumImport, "")
	}
	return ""
}

// enumRef qualifies an enum type name for the batch being rendered and
// records the import it needs.
func enumRef(ctx *codegen.Context, name string) string {
	imp := enumImport(ctx)
	if imp == "" {
		return name
	}
	alias := importAlias(imp)
	useImport(ctx, imp, alias)
	return alias + "." + name
}

// enumTypeName is enumRef without recording the import.
func enumTypeName(ctx *codegen.Context, name string) string {
	if imp := enumImport(ctx); imp != "" {
		return importAlias(imp) + "." + name
	}
	return name
}

func enumValueRef(ctx *codegen.Context, enum, value string) string {
	return enumRef(ctx, enum) + "_" + value
}

func protoRef(ctx *codegen.Context, protoType string) string {
	name := protoType[strings.LastIndexByte(protoType, '.')+1:]
	if imp := ctx.Option(OptionProtoImport, ""); imp != "" {
		ctx.UseImport(imp, protoAlias)
		return protoAlias + "." + name
	}
	return name
}

// tagType is the Go type of a message tag in the given family.
func tagType(ctx *codegen.Context, family layout.Family) string {
	if family == layout.FamilyGC {
		return "uint32"
	}
	name := ctx.Option(OptionTagType, defaultTagType)
	if ctx.Schema.Enum(name) != nil {
		return enumRef(ctx, name)
	}
	return "uint32"
}

// literal renders bits as a constant of the given storage type.
func literal(bits uint64, storage compiler.Primitive, hex bool) string {
	bits = layout.Mask(bits, storage)
	if !storage.Unsigned {
		if v := layout.SignExtend(bits, storage); v < 0 {
			return strconv.FormatInt(v, 10)
		}
	}
	if hex {
		return fmt.Sprintf("0x%X", bits)
	}
	return strconv.FormatUint(bits, 10)
}

func (b *Backend) RenderTypeName(ctx *codegen.Context, sym compiler.Symbol) (string, error) {
	switch sym := sym.(type) {
	case *compiler.WeakSymbol:
		if t, ok := goPrimitives[sym.Name]; ok {
			return t, nil
		}
		return "", fmt.Errorf("no Go type for %q", sym.Name)
	case *compiler.StrongSymbol:
		if sym.Member != nil {
			return "", fmt.Errorf("%q names a value, not a type", sym.Identifier())
		}
		switch decl := ctx.Schema.Resolved(sym).(type) {
		case *compiler.Enum:
			return enumRef(ctx, decl.Name), nil
		case *compiler.Class:
			return decl.Name, nil
		}
	}
	return "", fmt.Errorf("unresolved type %q", sym.Identifier())
}

func (b *Backend) RenderSymbols(ctx *codegen.Context, syms []compiler.Symbol, op string) (string, error) {
	parts := make([]string, 0, len(syms))
	for _, sym := range syms {
		part, err := b.renderValue(ctx, sym)
		if err != nil {
			return "", err
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " "+op+" "), nil
}

func (b *Backend) renderValue(ctx *codegen.Context, sym compiler.Symbol) (string, error) {
	switch sym := sym.(type) {
	case *compiler.WeakSymbol:
		v, negative, ok := compiler.ParseLiteral(sym.Name)
		if !ok {
			return sym.Name, nil
		}
		if negative {
			return "-" + strconv.FormatUint(-v, 10), nil
		}
		return strconv.FormatUint(v, 10), nil
	case *compiler.StrongSymbol:
		if sym.Member == nil {
			return "", fmt.Errorf("%q names a type, not a value", sym.Identifier())
		}
		member := sym.Member.Name().Get()
		switch decl := ctx.Schema.Resolved(sym).(type) {
		case *compiler.Enum:
			return enumValueRef(ctx, decl.Name, member), nil
		case *compiler.Class:
			return decl.Name + "_" + member, nil
		}
	}
	return "", fmt.Errorf("unresolved value %q", sym.Identifier())
}

func (b *Backend) RenderNamespace(ctx *codegen.Context, open bool) string {
	if !open {
		return ""
	}
	source := "a steamd definition"
	if ctx.Schema.SourcePath != "" {
		source = path.Base(ctx.Schema.SourcePath)
	}
	p := &printer{}
	p.linef("// Code generated by steamd from %s. DO NOT EDIT.", source)
	p.line("")
	p.linef("package %s", packageName(ctx))
	p.line("")
	if imports := ctx.Imports(); len(imports) > 0 {
		p.line("import (")
		for _, imp := range imports {
			if imp.Name != "" {
				p.linef("\t%s %q", imp.Name, imp.Path)
			} else {
				p.linef("\t%q", imp.Path)
			}
		}
		p.line(")")
		p.line("")
	}
	return p.String()
}

func (b *Backend) RenderMarkers(ctx *codegen.Context) string {
	useRuntime(ctx)
	p := &printer{}
	p.line("// SteamSerializable is implemented by every generated class.")
	p.line("type SteamSerializable interface {")
	p.line("\tsteamd.Serializable")
	p.line("}")
	p.line("")

	families := []layout.Family{layout.FamilyPrimary}
	if ctx.SupportsGC {
		families = append(families, layout.FamilyGC)
	}
	for _, family := range families {
		prefix := markerPrefix(family)
		tag := tagType(ctx, family)
		p.linef("// %sSerializableHeader is implemented by header classes, which", prefix)
		p.line("// carry the tag of the message that follows them.")
		p.linef("type %sSerializableHeader interface {", prefix)
		p.line("\tSteamSerializable")
		p.linef("\tSetEMsg(msg %s)", tag)
		p.line("}")
		p.line("")
		p.linef("type %sSerializableMessage interface {", prefix)
		p.line("\tSteamSerializable")
		p.linef("\tGetEMsg() %s", tag)
		p.line("}")
		p.line("")
	}
	return p.String()
}

func markerPrefix(family layout.Family) string {
	if family == layout.FamilyGC {
		return "GC"
	}
	return "Steam"
}

func (b *Backend) Path(ctx *codegen.Context) []string {
	switch {
	case !ctx.Internal:
		return []string{ctx.Base + ".go"}
	case separateEnums(ctx):
		return []string{"internal", ctx.Base + ".go"}
	default:
		return []string{ctx.Base + "_internal.go"}
	}
}

func (b *Backend) Format(src []byte) ([]byte, error) {
	return format.Source(src)
}
