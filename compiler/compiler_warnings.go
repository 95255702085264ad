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
	"fmt"

	"go.steamd-lang.org/steamd/syntax"
)

type Warning struct {
	code    uint32
	message string
	span    syntax.Span
}

func (w *Warning) String() string {
	return fmt.Sprintf("W%d: %s", w.code, w.message)
}

func (w *Warning) Code() uint32 {
	return w.code
}

func (w *Warning) Message() string {
	return w.message
}

func (w *Warning) Span() syntax.Span {
	return w.span
}

func warnShadowsPrimitive(name string, span syntax.Span) *Warning {
	return &Warning{
		code:    4000,
		message: fmt.Sprintf("Declaration '%s' shadows the primitive type of the same name", name),
		span:    span,
	}
}

func warnUnboundedField(decl, prop, next string, span syntax.Span) *Warning {
	return &Warning{
		code: 4001,
		message: inDecl(decl, fmt.Sprintf(
			"Property '%s' has no length field and consumes the rest of the"+
				" input, so '%s' can never be read back",
			prop, next,
		)),
		span: span,
	}
}

func warnObsoleteIdentity(decl, ident, reason string, span syntax.Span) *Warning {
	message := fmt.Sprintf("Message identity '%s' is obsolete", ident)
	if reason != "" {
		message = fmt.Sprintf("%s: %s", message, reason)
	}
	return &Warning{
		code:    4002,
		message: inDecl(decl, message),
		span:    span,
	}
}

func warnParentNotHeader(decl, parent string, span syntax.Span) *Warning {
	return &Warning{
		code: 4003,
		message: inDecl(decl, fmt.Sprintf(
			"Parent '%s' is not named as a header type", parent,
		)),
		span: span,
	}
}

func warnObsoleteReference(decl, ident string, span syntax.Span) *Warning {
	return &Warning{
		code:    4004,
		message: inDecl(decl, fmt.Sprintf("Reference to obsolete value '%s'", ident)),
		span:    span,
	}
}
