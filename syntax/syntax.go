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

// Parse tokenizes and builds src in one step.
func Parse(src []byte) (*Document, error) {
	return Build(Tokenize(src))
}

// Build assembles a Document from a token stream. Identifier references
// are stored verbatim; nothing is resolved here.
func Build(tokens []Token) (*Document, error) {
	ctx := &parseCtx{tokens: tokens}
	return parseDocument(ctx)
}

type parseCtx struct {
	tokens []Token
	pos    int
	err    error

	// name of the declaration being parsed, for error messages
	decl string
}

func (ctx *parseCtx) peek() Token {
	for ctx.pos < len(ctx.tokens) && ctx.tokens[ctx.pos].Kind == T_SPACE {
		ctx.pos++
	}
	if ctx.pos >= len(ctx.tokens) {
		var offset uint32
		if n := len(ctx.tokens); n > 0 {
			offset = ctx.tokens[n-1].Span().End()
		}
		return Token{Kind: T_EOF, Offset: offset}
	}
	return ctx.tokens[ctx.pos]
}

func (ctx *parseCtx) next() Token {
	token := ctx.peek()
	if token.Kind != T_EOF {
		ctx.pos++
	}
	return token
}

// check rejects invalid tokens before any structural decision is made on
// them.
func (ctx *parseCtx) check() bool {
	if ctx.err != nil {
		return false
	}
	if token := ctx.peek(); token.Kind == T_INVALID {
		ctx.err = errInvalidToken(token, ctx.decl)
		return false
	}
	return true
}

func (ctx *parseCtx) tryOperator(op string) (Token, bool) {
	if !ctx.check() {
		return Token{}, false
	}
	token := ctx.peek()
	if token.Kind != T_OPERATOR || token.Text != op {
		return Token{}, false
	}
	return ctx.next(), true
}

func (ctx *parseCtx) operator(op string) Token {
	token, ok := ctx.tryOperator(op)
	if !ok && ctx.err == nil {
		ctx.err = errUnexpectedToken("'"+op+"'", ctx.peek(), ctx.decl)
	}
	return token
}

func (ctx *parseCtx) tryKeyword(keyword string) (Token, bool) {
	if !ctx.check() {
		return Token{}, false
	}
	token := ctx.peek()
	if token.Kind != T_IDENT || token.Text != keyword {
		return Token{}, false
	}
	return ctx.next(), true
}

func (ctx *parseCtx) tryIdent() *Ident {
	if !ctx.check() {
		return nil
	}
	token := ctx.peek()
	if token.Kind != T_IDENT {
		return nil
	}
	ctx.next()
	return &Ident{raw: token.Text, start: token.Offset}
}

func (ctx *parseCtx) ident(what string) *Ident {
	ident := ctx.tryIdent()
	if ident == nil && ctx.err == nil {
		ctx.err = errUnexpectedToken(what, ctx.peek(), ctx.decl)
	}
	return ident
}

func (ctx *parseCtx) tryString() *Token {
	if !ctx.check() {
		return nil
	}
	token := ctx.peek()
	if token.Kind != T_STRING {
		return nil
	}
	ctx.next()
	return &token
}

func (ctx *parseCtx) terminator() Token {
	if !ctx.check() {
		return Token{}
	}
	token := ctx.peek()
	if token.Kind != T_TERMINATOR {
		ctx.err = errMissingTerminator(token, ctx.decl)
		return Token{}
	}
	return ctx.next()
}

func (ctx *parseCtx) marker(keyword string) *Marker {
	kw, ok := ctx.tryKeyword(keyword)
	if !ok {
		return nil
	}
	marker := &Marker{span: kw.Span()}
	if msg := ctx.tryString(); msg != nil {
		marker.message = msg.Value()
		marker.span = spanBetween(kw.Span(), msg.Span())
	}
	return marker
}

// blockEnd reports whether the closing '}' of a block is next, failing if
// the input ends first.
func (ctx *parseCtx) blockEnd(open Token) bool {
	if !ctx.check() {
		return true
	}
	token := ctx.peek()
	if token.Kind == T_EOF {
		ctx.err = errUnbalancedBlock(open, ctx.decl)
		return true
	}
	return token.Kind == T_OPERATOR && token.Text == "}"
}

func parseDocument(ctx *parseCtx) (*Document, error) {
	doc := &Document{}
	for ctx.check() {
		token := ctx.peek()
		switch {
		case token.Kind == T_EOF:
			doc.span = Span{0, token.Offset}
			return doc, nil
		case token.Kind == T_PREPROCESS:
			if directive := parseDirective(ctx); directive != nil {
				doc.directives = append(doc.directives, directive)
			}
		case token.Kind == T_IDENT && token.Text == "class":
			if class := parseClass(ctx); class != nil {
				doc.decls = append(doc.decls, class)
			}
		case token.Kind == T_IDENT && token.Text == "enum":
			if enum := parseEnum(ctx); enum != nil {
				doc.decls = append(doc.decls, enum)
			}
		case token.Kind == T_OPERATOR && token.Text == "}":
			ctx.err = errUnexpectedCloseBlock(token)
		default:
			ctx.err = errExpectedDeclaration(token)
		}
	}
	return nil, ctx.err
}

func parseDirective(ctx *parseCtx) *Directive {
	token := ctx.next()
	if token.Value() == "" {
		ctx.err = errEmptyDirective(token)
		return nil
	}
	directive := &Directive{
		span: token.Span(),
		name: token.Value(),
	}
	if arg := ctx.tryString(); arg != nil {
		directive.arg = arg
		directive.span = spanBetween(token.Span(), arg.Span())
	}
	return directive
}

// class NAME [<IDENT>] [expects PARENT] [removed ["msg"]] { property* } [;]
func parseClass(ctx *parseCtx) *Class {
	kw := ctx.next()
	class := &Class{}
	if class.name = ctx.ident("class name"); class.name == nil {
		return nil
	}
	ctx.decl = class.name.raw
	defer func() { ctx.decl = "" }()

	if _, ok := ctx.tryOperator("<"); ok {
		class.ident = ctx.ident("message identity")
		ctx.operator(">")
	}
	if _, ok := ctx.tryKeyword("expects"); ok {
		class.parent = ctx.ident("parent class name")
	}
	class.removed = ctx.marker("removed")

	open := ctx.operator("{")
	for !ctx.blockEnd(open) {
		if prop := parseProperty(ctx); prop != nil {
			class.props = append(class.props, prop)
		}
	}
	closing := ctx.operator("}")
	end := closing.Span()
	if token, ok := ctx.tryTerminator(); ok {
		end = token.Span()
	}
	if ctx.err != nil {
		return nil
	}
	class.span = spanBetween(kw.Span(), end)
	return class
}

// enum NAME [<TYPE>] [flags] { value* } [;]
func parseEnum(ctx *parseCtx) *Enum {
	kw := ctx.next()
	enum := &Enum{}
	if enum.name = ctx.ident("enum name"); enum.name == nil {
		return nil
	}
	ctx.decl = enum.name.raw
	defer func() { ctx.decl = "" }()

	if _, ok := ctx.tryOperator("<"); ok {
		enum.storage = ctx.ident("enum storage type")
		ctx.operator(">")
	}
	if _, ok := ctx.tryKeyword("flags"); ok {
		enum.flags = true
	}

	open := ctx.operator("{")
	for !ctx.blockEnd(open) {
		if value := parseEnumValue(ctx); value != nil {
			enum.values = append(enum.values, value)
		}
	}
	closing := ctx.operator("}")
	end := closing.Span()
	if token, ok := ctx.tryTerminator(); ok {
		end = token.Span()
	}
	if ctx.err != nil {
		return nil
	}
	enum.span = spanBetween(kw.Span(), end)
	return enum
}

func (ctx *parseCtx) tryTerminator() (Token, bool) {
	if !ctx.check() {
		return Token{}, false
	}
	if token := ctx.peek(); token.Kind == T_TERMINATOR {
		return ctx.next(), true
	}
	return Token{}, false
}

// [FLAG[<OPT>]] TYPE NAME [= expr] ; [obsolete ["msg"]] [removed ["msg"]]
// TYPE<OPT> NAME [= expr] ; ...
func parseProperty(ctx *parseCtx) *Property {
	first := ctx.ident("property type")
	if first == nil {
		return nil
	}
	var opt *Ident
	if _, ok := ctx.tryOperator("<"); ok {
		opt = ctx.ident("array length or length field")
		ctx.operator(">")
	}
	second := ctx.ident("property name")
	if second == nil {
		return nil
	}

	prop := &Property{flagOpt: opt}
	if third := ctx.tryIdent(); third != nil {
		flag, ok := ParsePropFlag(first.raw)
		if !ok {
			ctx.err = errUnknownPropertyFlag(Token{
				Kind:   T_IDENT,
				Text:   first.raw,
				Offset: first.start,
			}, ctx.decl)
			return nil
		}
		prop.flag = flag
		prop.typ = second
		prop.name = third
	} else {
		prop.typ = first
		prop.name = second
	}

	prop.defaults = parseExpr(ctx)
	end := ctx.terminator()
	prop.obsolete = ctx.marker("obsolete")
	prop.removed = ctx.marker("removed")
	if ctx.err != nil {
		return nil
	}
	prop.span = spanBetween(first.Span(), lastSpan(end.Span(), prop.obsolete, prop.removed))
	return prop
}

// NAME [= expr] ; [obsolete ["msg"]] [removed ["msg"]]
func parseEnumValue(ctx *parseCtx) *EnumValue {
	name := ctx.ident("enum value name")
	if name == nil {
		return nil
	}
	value := &EnumValue{name: name}
	value.defaults = parseExpr(ctx)
	end := ctx.terminator()
	value.obsolete = ctx.marker("obsolete")
	value.removed = ctx.marker("removed")
	if ctx.err != nil {
		return nil
	}
	value.span = spanBetween(name.Span(), lastSpan(end.Span(), value.obsolete, value.removed))
	return value
}

// [= IDENT (| IDENT)*]
func parseExpr(ctx *parseCtx) []*Ident {
	if _, ok := ctx.tryOperator("="); !ok {
		return nil
	}
	var terms []*Ident
	for {
		term := ctx.ident("default value")
		if term == nil {
			return nil
		}
		terms = append(terms, term)
		if _, ok := ctx.tryOperator("|"); !ok {
			return terms
		}
	}
}

func lastSpan(end Span, markers ...*Marker) Span {
	for _, marker := range markers {
		if marker != nil && marker.span.End() > end.End() {
			end = marker.span
		}
	}
	return end
}
