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
	"errors"
	"fmt"

	"go.steamd-lang.org/steamd/syntax"
)

var (
	ErrUnresolvedSymbol    = errors.New("unresolved symbol")
	ErrMalformedIdentifier = errors.New("malformed identifier")
	ErrInvalidDeclaration  = errors.New("invalid declaration")
)

type Error struct {
	code    uint32
	message string
	span    syntax.Span
}

var _ error = (*Error)(nil)

func (err *Error) Error() string {
	return fmt.Sprintf("E%d: %s", err.code, err.message)
}

func (err *Error) Code() uint32 {
	return err.code
}

func (err *Error) Message() string {
	return err.message
}

func (err *Error) Span() syntax.Span {
	return err.span
}

func (err *Error) Is(target error) bool {
	switch target {
	case ErrUnresolvedSymbol:
		return err.code >= 3000 && err.code < 3100
	case ErrMalformedIdentifier:
		return err.code >= 3100 && err.code < 3200
	case ErrInvalidDeclaration:
		return err.code >= 3200 && err.code < 3300
	}
	return false
}

// withSpan attaches a source location to an error produced without one.
func withSpan(err error, span syntax.Span) error {
	var compileErr *Error
	if errors.As(err, &compileErr) && compileErr.span == (syntax.Span{}) {
		return &Error{
			code:    compileErr.code,
			message: compileErr.message,
			span:    span,
		}
	}
	return err
}

func inDecl(decl, message string) string {
	if decl == "" {
		return message
	}
	return fmt.Sprintf("%s (in '%s')", message, decl)
}

func errUnresolvedStrongSymbol(ident string) error {
	return &Error{
		code:    3000,
		message: fmt.Sprintf("Unresolvable strong symbol '%s'", ident),
	}
}

func errUnknownScope(ident, scope string) error {
	return &Error{
		code: 3001,
		message: fmt.Sprintf(
			"Unknown declaration '%s' in identifier '%s'", scope, ident,
		),
	}
}

func errUnknownMember(ident, scope, member string) error {
	return &Error{
		code: 3002,
		message: fmt.Sprintf(
			"Declaration '%s' has no member '%s' (in identifier '%s')",
			scope, member, ident,
		),
	}
}

func errUnknownLengthField(decl, prop, holder string, span syntax.Span) error {
	return &Error{
		code: 3003,
		message: inDecl(decl, fmt.Sprintf(
			"Property '%s' refers to missing length field '%s'", prop, holder,
		)),
		span: span,
	}
}

func errConstWithoutValue(decl, prop string, span syntax.Span) error {
	return &Error{
		code: 3004,
		message: inDecl(decl, fmt.Sprintf(
			"Constant '%s' has no value", prop,
		)),
		span: span,
	}
}

func errUnknownType(decl, typ string, span syntax.Span) error {
	return &Error{
		code: 3005,
		message: inDecl(decl, fmt.Sprintf(
			"Type '%s' is neither a primitive nor a declared class or enum", typ,
		)),
		span: span,
	}
}

func errMalformedIdentifier(ident string) error {
	return &Error{
		code:    3100,
		message: fmt.Sprintf("Malformed identifier %q", ident),
	}
}

func errDuplicateDecl(name string, span syntax.Span) error {
	return &Error{
		code:    3200,
		message: fmt.Sprintf("Duplicate declaration '%s'", name),
		span:    span,
	}
}

func errDuplicateMember(decl, name string, span syntax.Span) error {
	return &Error{
		code:    3201,
		message: inDecl(decl, fmt.Sprintf("Duplicate member '%s'", name)),
		span:    span,
	}
}

func errParentNotClass(decl, parent string, span syntax.Span) error {
	return &Error{
		code: 3202,
		message: inDecl(decl, fmt.Sprintf(
			"Parent '%s' is not a class", parent,
		)),
		span: span,
	}
}

func errParentCycle(decl string, span syntax.Span) error {
	return &Error{
		code:    3203,
		message: fmt.Sprintf("Class '%s' is embedded in itself through its parents", decl),
		span:    span,
	}
}

func errTypeIsMember(decl, typ string, span syntax.Span) error {
	return &Error{
		code: 3204,
		message: inDecl(decl, fmt.Sprintf(
			"Type '%s' names a member, not a declaration", typ,
		)),
		span: span,
	}
}

func errProtoTypeDeclared(decl, prop, typ string, span syntax.Span) error {
	return &Error{
		code: 3205,
		message: inDecl(decl, fmt.Sprintf(
			"Proto property '%s' must name an external message type, not '%s'",
			prop, typ,
		)),
		span: span,
	}
}

func errBadLengthField(decl, prop, holder string, span syntax.Span) error {
	return &Error{
		code: 3206,
		message: inDecl(decl, fmt.Sprintf(
			"Length field '%s' of property '%s' must be a fixed-size integer",
			holder, prop,
		)),
		span: span,
	}
}

func errFlagOptNotAllowed(decl, prop string, flag syntax.PropFlag, span syntax.Span) error {
	return &Error{
		code: 3207,
		message: inDecl(decl, fmt.Sprintf(
			"Property '%s' with flag '%s' cannot take a length", prop, flag,
		)),
		span: span,
	}
}

func errAdapterType(decl, prop string, flag syntax.PropFlag, want, got string, span syntax.Span) error {
	return &Error{
		code: 3208,
		message: inDecl(decl, fmt.Sprintf(
			"Property '%s' with flag '%s' must have type '%s', not '%s'",
			prop, flag, want, got,
		)),
		span: span,
	}
}

func errMaskType(decl, prop string, flag syntax.PropFlag, got string, span syntax.Span) error {
	return &Error{
		code: 3209,
		message: inDecl(decl, fmt.Sprintf(
			"Property '%s' with flag '%s' must be a 4-byte integer or enum, not '%s'",
			prop, flag, got,
		)),
		span: span,
	}
}

func errEnumStorage(decl, typ string, span syntax.Span) error {
	return &Error{
		code: 3210,
		message: inDecl(decl, fmt.Sprintf(
			"Enum storage type '%s' is not an integer primitive", typ,
		)),
		span: span,
	}
}

func errNotAValue(decl, ident string, span syntax.Span) error {
	return &Error{
		code: 3211,
		message: inDecl(decl, fmt.Sprintf(
			"'%s' names a declaration where a value is expected", ident,
		)),
		span: span,
	}
}

func errBadArrayLength(decl, prop, length string, span syntax.Span) error {
	return &Error{
		code: 3212,
		message: inDecl(decl, fmt.Sprintf(
			"Property '%s' has invalid array length '%s'", prop, length,
		)),
		span: span,
	}
}

func errConstType(decl, prop, typ string, span syntax.Span) error {
	return &Error{
		code: 3213,
		message: inDecl(decl, fmt.Sprintf(
			"Constant '%s' must have a primitive or enum type, not '%s'", prop, typ,
		)),
		span: span,
	}
}
