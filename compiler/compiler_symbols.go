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
	"strings"

	"go.steamd-lang.org/steamd/syntax"
)

const scopeSeparator = "::"

// Symbol is a resolved identifier: either a *WeakSymbol or a
// *StrongSymbol.
type Symbol interface {
	Identifier() string
	isSymbol()
}

// WeakSymbol is a name that does not bind to any declaration, such as a
// primitive type, a literal, or an external constant.
type WeakSymbol struct {
	Name string
}

func (*WeakSymbol) isSymbol() {}

func (s *WeakSymbol) Identifier() string {
	return s.Name
}

// StrongSymbol binds to a declaration and, for scoped identifiers, to
// one of its members.
type StrongSymbol struct {
	Decl   syntax.Decl
	Member syntax.Member
}

func (*StrongSymbol) isSymbol() {}

func (s *StrongSymbol) Identifier() string {
	if s.Member == nil {
		return s.Decl.Name().Get()
	}
	return s.Decl.Name().Get() + scopeSeparator + s.Member.Name().Get()
}

// Resolve binds identifier against the top-level declarations of doc.
//
// An unscoped name that matches no declaration is weak unless strongOnly
// is set. A scoped name ("Outer::Inner") must always bind, both its outer
// declaration and its member.
func Resolve(identifier string, doc *syntax.Document, strongOnly bool) (Symbol, error) {
	return resolve(identifier, doc.Decls(), strongOnly)
}

func resolve(identifier string, decls []syntax.Decl, strongOnly bool) (Symbol, error) {
	if !wellFormed(identifier) {
		return nil, errMalformedIdentifier(identifier)
	}

	scope, member, scoped := strings.Cut(identifier, scopeSeparator)
	if !scoped {
		if decl := findDecl(decls, identifier); decl != nil {
			return &StrongSymbol{Decl: decl}, nil
		}
		if strongOnly {
			return nil, errUnresolvedStrongSymbol(identifier)
		}
		return &WeakSymbol{Name: identifier}, nil
	}

	decl := findDecl(decls, scope)
	if decl == nil {
		return nil, errUnknownScope(identifier, scope)
	}
	found := decl.Member(member)
	if found == nil {
		return nil, errUnknownMember(identifier, scope, member)
	}
	return &StrongSymbol{Decl: decl, Member: found}, nil
}

func findDecl(decls []syntax.Decl, name string) syntax.Decl {
	for _, decl := range decls {
		if decl.Name().Get() == name {
			return decl
		}
	}
	return nil
}

// wellFormed accepts "name", "-name", dotted names, and "Outer::Inner"
// where either side of "::" may be empty (which then fails to resolve).
func wellFormed(identifier string) bool {
	if identifier == "" {
		return false
	}
	scope, member, scoped := strings.Cut(identifier, scopeSeparator)
	if scoped {
		return isWordChars(scope) && isWordChars(member)
	}
	body := strings.TrimPrefix(identifier, "-")
	if body == "" {
		return false
	}
	for ii := 0; ii < len(body); ii++ {
		c := body[ii]
		if !isWordChar(c) && !(ii > 0 && c == '.') {
			return false
		}
	}
	return true
}

func isWordChars(s string) bool {
	for ii := 0; ii < len(s); ii++ {
		if !isWordChar(s[ii]) {
			return false
		}
	}
	return true
}

func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}
