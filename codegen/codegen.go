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

// Package codegen drives a target-language backend over a compiled
// schema. The backend decides syntax; the framing of every field is
// already fixed by package layout.
package codegen

import (
	"bytes"
	"fmt"
	"sort"

	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/layout"
)

// Context is shared by every render call of one batch.
type Context struct {
	Schema  *compiler.Schema
	Planner *layout.Planner

	// Namespace is the name of the batch's enclosing scope.
	Namespace  string
	SupportsGC bool

	// Internal is set for the batch holding classes and the shared
	// marker declarations.
	Internal bool

	// Base is the artifact name the batch's output path derives from.
	Base    string
	Options map[string]string

	imports map[string]string
}

func NewContext(schema *compiler.Schema, namespace string, supportsGC bool) *Context {
	return &Context{
		Schema:     schema,
		Planner:    layout.NewPlanner(schema, layout.Options{SupportsGC: supportsGC}),
		Namespace:  namespace,
		SupportsGC: supportsGC,
		Options:    map[string]string{},
		imports:    map[string]string{},
	}
}

// Option returns a backend option, or fallback if it is unset.
func (ctx *Context) Option(key, fallback string) string {
	if v, ok := ctx.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// UseImport records that the rendered output refers to path under the
// given local name. An empty name means the default.
func (ctx *Context) UseImport(path, name string) {
	if ctx.imports == nil {
		ctx.imports = map[string]string{}
	}
	ctx.imports[path] = name
}

type Import struct {
	Path string
	Name string
}

// Imports returns every recorded import, sorted by path.
func (ctx *Context) Imports() []Import {
	out := make([]Import, 0, len(ctx.imports))
	for path, name := range ctx.imports {
		out = append(out, Import{Path: path, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

// Backend renders declarations in one target language.
type Backend interface {
	// RenderTypeName renders a reference to a type.
	RenderTypeName(ctx *Context, sym compiler.Symbol) (string, error)

	// RenderSymbols renders a combination of values joined by op.
	RenderSymbols(ctx *Context, syms []compiler.Symbol, op string) (string, error)

	// RenderNamespace renders the framing around a batch. It is called
	// after every declaration of the batch has been rendered.
	RenderNamespace(ctx *Context, open bool) string

	// RenderMarkers renders the declarations every serializable type
	// in the internal batch refers to.
	RenderMarkers(ctx *Context) string

	RenderEnum(ctx *Context, plan *layout.EnumPlan) (string, error)
	RenderClass(ctx *Context, plan *layout.ClassPlan) (string, error)

	// Path names the artifact of a batch, one element per directory
	// level.
	Path(ctx *Context) []string
}

// Formatter is implemented by backends that normalize their output.
type Formatter interface {
	Format(src []byte) ([]byte, error)
}

// Emit renders decls in declaration order, wrapped once in the
// backend's namespace framing. Removed declarations are skipped.
func Emit(ctx *Context, decls []compiler.Decl, backend Backend) ([]byte, error) {
	var bodies []string
	if ctx.Internal {
		bodies = append(bodies, backend.RenderMarkers(ctx))
	}
	for _, decl := range decls {
		if decl.IsRemoved() {
			continue
		}
		var body string
		var err error
		switch decl := decl.(type) {
		case *compiler.Enum:
			body, err = backend.RenderEnum(ctx, ctx.Planner.Enum(decl))
		case *compiler.Class:
			var plan *layout.ClassPlan
			if plan, err = ctx.Planner.Class(decl); err == nil {
				body, err = backend.RenderClass(ctx, plan)
			}
		default:
			err = fmt.Errorf("unknown declaration kind %T", decl)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", decl.DeclName(), err)
		}
		bodies = append(bodies, body)
	}

	var buf bytes.Buffer
	buf.WriteString(backend.RenderNamespace(ctx, true))
	for _, body := range bodies {
		buf.WriteString(body)
	}
	buf.WriteString(backend.RenderNamespace(ctx, false))

	out := buf.Bytes()
	if f, ok := backend.(Formatter); ok {
		formatted, err := f.Format(out)
		if err != nil {
			return nil, fmt.Errorf("formatting %s output: %w", ctx.Namespace, err)
		}
		out = formatted
	}
	return out, nil
}
