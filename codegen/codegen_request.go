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

package codegen

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/syntax"
)

//easyjson:json
type Request struct {
	// Sources are compiled as one document, in order. Imported files
	// come before the files that import them.
	Sources []syntax.Source `json:"sources"`

	// File is the base name of both artifacts.
	File       string            `json:"file"`
	Namespace  string            `json:"namespace"`
	SupportsGC bool              `json:"supports_gc"`
	Options    map[string]string `json:"options,omitempty"`

	// Schema, when set, is used instead of compiling Sources. It never
	// crosses a process boundary.
	Schema *compiler.Schema `json:"-"`
}

// Compile builds the schema named by the request.
func (req *Request) Compile() (*compiler.Schema, error) {
	if req.Schema != nil {
		return req.Schema, nil
	}
	if len(req.Sources) == 0 {
		return nil, fmt.Errorf("no sources in request")
	}
	set := syntax.NewSourceSet(req.Sources...)
	doc, err := set.Parse()
	if err != nil {
		return nil, err
	}
	last := req.Sources[len(req.Sources)-1]
	result, err := compiler.Compile(doc, compiler.WithSourcePath(last.Path))
	if err != nil {
		return nil, set.Wrap(err)
	}
	return result.Schema, nil
}

func (req *Request) base() string {
	if req.File != "" {
		return req.File
	}
	if len(req.Sources) > 0 {
		name := filepath.Base(req.Sources[len(req.Sources)-1].Path)
		return strings.TrimSuffix(name, filepath.Ext(name))
	}
	return req.Namespace
}

//easyjson:json
type Response struct {
	Files []OutputFile `json:"files"`
	Error string       `json:"error,omitempty"`
}

type OutputFile struct {
	Path    []string `json:"path"`
	Content []byte   `json:"content"`
}

// Join resolves the file's path under root, rejecting any component
// that would escape it.
func (f *OutputFile) Join(root string) (string, error) {
	parts := f.Path
	if len(parts) == 0 {
		return "", fmt.Errorf("Invalid output path %#v: empty", parts)
	}
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			return "", fmt.Errorf("Invalid output path %#v: bad path component %q", parts, part)
		}
		if part[0] == '/' || filepath.IsAbs(part) {
			return "", fmt.Errorf("Invalid output path %#v: absolute path component %q", parts, part)
		}
		if strings.ContainsAny(part, `/\`) {
			return "", fmt.Errorf("Invalid output path %#v: component %q contains a separator", parts, part)
		}
	}
	return filepath.Join(append([]string{root}, parts...)...), nil
}

// Generator produces the artifacts for one request, either in process
// or through a plugin.
type Generator interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// BackendGenerator runs a Backend in process.
type BackendGenerator struct {
	Backend Backend
}

var _ Generator = (*BackendGenerator)(nil)

func (g *BackendGenerator) Generate(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Generate(req, g.Backend)
}

// Generate renders the request's two artifacts: every enum in the outer
// namespace, then every class in the internal one. Either both are
// produced or neither is.
func Generate(req *Request, backend Backend) (*Response, error) {
	if req.Namespace == "" {
		return nil, fmt.Errorf("no namespace in request")
	}
	schema, err := req.Compile()
	if err != nil {
		return nil, err
	}

	var enums, classes []compiler.Decl
	for _, decl := range schema.Decls {
		switch decl.(type) {
		case *compiler.Enum:
			enums = append(enums, decl)
		case *compiler.Class:
			classes = append(classes, decl)
		}
	}

	resp := &Response{}
	for _, batch := range []struct {
		decls    []compiler.Decl
		internal bool
	}{
		{enums, false},
		{classes, true},
	} {
		ctx := NewContext(schema, req.Namespace, req.SupportsGC)
		ctx.Internal = batch.internal
		ctx.Base = req.base()
		for k, v := range req.Options {
			ctx.Options[k] = v
		}
		content, err := Emit(ctx, batch.decls, backend)
		if err != nil {
			return nil, err
		}
		resp.Files = append(resp.Files, OutputFile{
			Path:    backend.Path(ctx),
			Content: content,
		})
	}
	return resp, nil
}
