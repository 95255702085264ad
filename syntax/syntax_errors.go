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
	"errors"
	"fmt"
)

var (
	ErrLexical = errors.New("lexical error")
	ErrSyntax  = errors.New("syntax error")
)

type Error struct {
	code    uint32
	message string
	span    Span
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

func (err *Error) Span() Span {
	return err.span
}

func (err *Error) Is(target error) bool {
	switch target {
	case ErrLexical:
		return err.code >= 1000 && err.code < 2000
	case ErrSyntax:
		return err.code >= 2000 && err.code < 3000
	}
	return false
}

func inDecl(decl, message string) string {
	if decl == "" {
		return message
	}
	return fmt.Sprintf("%s (in '%s')", message, decl)
}

func describe(token Token) string {
	if token.Kind == T_EOF {
		return "end of input"
	}
	return fmt.Sprintf("%v %q", token.Kind, token.Text)
}

func errInvalidToken(token Token, decl string) error {
	return &Error{
		code:    1000,
		message: inDecl(decl, fmt.Sprintf("Unrecognized input %q", token.Text)),
		span:    token.Span(),
	}
}

func errUnexpectedToken(expected string, token Token, decl string) error {
	return &Error{
		code: 2000,
		message: inDecl(decl, fmt.Sprintf(
			"Expected %s, got %s", expected, describe(token),
		)),
		span: token.Span(),
	}
}

func errExpectedDeclaration(token Token) error {
	return &Error{
		code: 2001,
		message: fmt.Sprintf(
			"Expected 'class', 'enum' or a preprocessor directive, got %s",
			describe(token),
		),
		span: token.Span(),
	}
}

func errUnbalancedBlock(open Token, decl string) error {
	return &Error{
		code:    2002,
		message: inDecl(decl, "Block is missing its closing '}'"),
		span:    open.Span(),
	}
}

func errUnexpectedCloseBlock(token Token) error {
	return &Error{
		code:    2003,
		message: "Unexpected '}' outside of a declaration block",
		span:    token.Span(),
	}
}

func errMissingTerminator(token Token, decl string) error {
	return &Error{
		code: 2004,
		message: inDecl(decl, fmt.Sprintf(
			"Expected ';' to end the statement, got %s", describe(token),
		)),
		span: token.Span(),
	}
}

func errUnknownPropertyFlag(token Token, decl string) error {
	return &Error{
		code: 2005,
		message: inDecl(decl, fmt.Sprintf(
			"Unknown property flag '%s'", token.Text,
		)),
		span: token.Span(),
	}
}

func errEmptyDirective(token Token) error {
	return &Error{
		code:    2006,
		message: "Preprocessor directive has no name",
		span:    token.Span(),
	}
}
