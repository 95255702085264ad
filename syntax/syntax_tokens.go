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
)

type TokenKind uint8

const (
	T_EOF TokenKind = iota

	T_SPACE
	T_TERMINATOR
	T_STRING
	T_IDENT
	T_PREPROCESS
	T_OPERATOR
	T_INVALID
)

func (k TokenKind) String() string {
	switch k {
	case T_EOF:
		return "EOF"
	case T_SPACE:
		return "SPACE"
	case T_TERMINATOR:
		return "TERMINATOR"
	case T_STRING:
		return "STRING"
	case T_IDENT:
		return "IDENT"
	case T_PREPROCESS:
		return "PREPROCESS"
	case T_OPERATOR:
		return "OPERATOR"
	case T_INVALID:
		return "INVALID"
	default:
		return fmt.Sprintf("TokenKind(%d)", uint8(k))
	}
}

// Token is a single lexeme. Text is the exact source slice, so string
// tokens keep their quotes and directives keep their leading '#'.
type Token struct {
	Kind   TokenKind
	Text   string
	Offset uint32
}

func (t Token) Span() Span {
	return Span{t.Offset, uint32(len(t.Text))}
}

// Value returns the token content without its delimiters.
func (t Token) Value() string {
	switch t.Kind {
	case T_STRING:
		return t.Text[1 : len(t.Text)-1]
	case T_PREPROCESS:
		return t.Text[1:]
	default:
		return t.Text
	}
}

func (t Token) String() string {
	return fmt.Sprintf("%v %q", t.Kind, t.Text)
}

type Tokens struct {
	src    []byte
	offset uint32
}

func NewTokens(src []byte) *Tokens {
	return &Tokens{src: src}
}

// Next scans one token. Comments are skipped entirely; whitespace is
// reported as T_SPACE so that callers can reconstruct offsets.
func (t *Tokens) Next(token *Token) {
	for {
		if len(t.src) == 0 {
			*token = Token{Kind: T_EOF, Offset: t.offset}
			return
		}
		if n := commentLen(t.src); n > 0 {
			t.advance(n)
			continue
		}
		break
	}

	var kind TokenKind
	var n int
	c := t.src[0]
	switch {
	case isSpace(c):
		kind, n = T_SPACE, spanOf(t.src, isSpace)
	case c == ';':
		kind, n = T_TERMINATOR, 1
	case c == '"' && stringLen(t.src) > 0:
		kind, n = T_STRING, stringLen(t.src)
	case identLen(t.src) > 0:
		kind, n = T_IDENT, identLen(t.src)
	case c == '#':
		kind, n = T_PREPROCESS, 1+spanOf(t.src[1:], isLetter)
	case isOperator(c):
		kind, n = T_OPERATOR, 1
	default:
		kind, n = T_INVALID, spanOf(t.src, func(c byte) bool { return !isSpace(c) })
	}

	*token = Token{
		Kind:   kind,
		Text:   string(t.src[:n]),
		Offset: t.offset,
	}
	t.advance(n)
}

func (t *Tokens) advance(n int) {
	t.src = t.src[n:]
	t.offset += uint32(n)
}

// Tokenize returns every token of src except whitespace, in source order.
// It never fails: unrecognized input is kept as T_INVALID tokens.
func Tokenize(src []byte) []Token {
	var out []Token
	tokens := NewTokens(src)
	var token Token
	for {
		tokens.Next(&token)
		switch token.Kind {
		case T_EOF:
			return out
		case T_SPACE:
			continue
		}
		out = append(out, token)
	}
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentStart(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || c == ':' || c == '.'
}

func isOperator(c byte) bool {
	switch c {
	case '{', '}', '<', '>', ']', '=', '|':
		return true
	}
	return false
}

func isLineEnd(c byte) bool {
	return c == '\n' || c == '\r'
}

func spanOf(src []byte, pred func(byte) bool) int {
	n := 0
	for n < len(src) && pred(src[n]) {
		n++
	}
	return n
}

// stringLen returns the length of a quoted string at the start of src,
// including both quotes, or 0. The body must be non-empty and may not
// span lines.
func stringLen(src []byte) int {
	for ii := 2; ii < len(src); ii++ {
		if isLineEnd(src[ii-1]) {
			return 0
		}
		if src[ii] == '"' {
			return ii + 1
		}
	}
	return 0
}

func commentLen(src []byte) int {
	if len(src) < 2 || src[0] != '/' || src[1] != '/' {
		return 0
	}
	return 2 + spanOf(src[2:], func(c byte) bool { return !isLineEnd(c) })
}

func identLen(src []byte) int {
	start := 0
	if len(src) > 0 && src[0] == '-' {
		start = 1
	}
	if start >= len(src) || !isIdentStart(src[start]) {
		return 0
	}
	return start + 1 + spanOf(src[start+1:], isIdentChar)
}
