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

package compiler_test

import (
	"errors"
	"testing"

	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/internal/testutil"
	"go.steamd-lang.org/steamd/syntax"
)

func mustParse(t *testing.T, src string) *syntax.Document {
	t.Helper()
	doc, err := syntax.Parse([]byte(src))
	testutil.AssertNoError(t, err)
	return doc
}

const symbolsSource = `
class Later<EMsg::Hello> expects Hdr { uint a; };
enum EMsg { Hello = 1; World = 2; };
class Hdr { EMsg msg; };
`

func TestResolveUnscoped(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, symbolsSource)

	sym, err := compiler.Resolve("Hdr", doc, true)
	testutil.AssertNoError(t, err)
	strong, ok := sym.(*compiler.StrongSymbol)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, syntax.Decl(doc.Decl("Hdr")), strong.Decl)
	testutil.ExpectTrue(t, strong.Member == nil)
	testutil.ExpectEq(t, "Hdr", sym.Identifier())

	sym, err = compiler.Resolve("uint", doc, false)
	testutil.AssertNoError(t, err)
	weak, ok := sym.(*compiler.WeakSymbol)
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "uint", weak.Name)

	sym, err = compiler.Resolve("ulong.MaxValue", doc, false)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "ulong.MaxValue", sym.Identifier())

	sym, err = compiler.Resolve("-1", doc, false)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "-1", sym.Identifier())
}

func TestResolveStrongOnly(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, symbolsSource)
	_, err := compiler.Resolve("Missing", doc, true)
	testutil.AssertErrorIs(t, err, compiler.ErrUnresolvedSymbol)
}

func TestResolveScoped(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, symbolsSource)

	sym, err := compiler.Resolve("EMsg::World", doc, false)
	testutil.AssertNoError(t, err)
	strong := sym.(*compiler.StrongSymbol)
	testutil.ExpectEq(t, "EMsg", strong.Decl.Name().Get())
	testutil.ExpectEq(t, "World", strong.Member.Name().Get())
	testutil.ExpectEq(t, "EMsg::World", sym.Identifier())

	sym, err = compiler.Resolve("Hdr::msg", doc, false)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, "msg", sym.(*compiler.StrongSymbol).Member.Name().Get())
}

func TestResolveScopedFailures(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, symbolsSource)
	for _, ident := range []string{
		"Foo::",
		"EMsg::",
		"::Hello",
		"Nope::Hello",
		"EMsg::Goodbye",
	} {
		for _, strongOnly := range []bool{false, true} {
			_, err := compiler.Resolve(ident, doc, strongOnly)
			testutil.AssertErrorIs(t, err, compiler.ErrUnresolvedSymbol)
			testutil.ExpectFalse(t, errors.Is(err, compiler.ErrMalformedIdentifier))
		}
	}
}

func TestResolveMalformed(t *testing.T) {
	t.Parallel()

	doc := mustParse(t, symbolsSource)
	for _, ident := range []string{
		"",
		"-",
		"a:b",
		"a::b::c",
		"EMsg::Hel.lo",
		".x",
		"a b",
	} {
		_, err := compiler.Resolve(ident, doc, false)
		testutil.AssertErrorIs(t, err, compiler.ErrMalformedIdentifier)
	}
}

// A reference to a later declaration must resolve to the same symbol as
// one to an earlier declaration.
func TestResolveOrderIndependent(t *testing.T) {
	t.Parallel()

	forward := mustParse(t, "class A { B b; }; class B { uint x; };")
	backward := mustParse(t, "class B { uint x; }; class A { B b; };")

	symF, err := compiler.Resolve("B", forward, true)
	testutil.AssertNoError(t, err)
	symB, err := compiler.Resolve("B", backward, true)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, symF.Identifier(), symB.Identifier())
	testutil.ExpectEq(t, syntax.Decl(forward.Decl("B")), symF.(*compiler.StrongSymbol).Decl)

	again, err := compiler.Resolve("B", forward, true)
	testutil.AssertNoError(t, err)
	testutil.ExpectEq(t, symF.(*compiler.StrongSymbol).Decl, again.(*compiler.StrongSymbol).Decl)

	_, err = compiler.Compile(forward)
	testutil.AssertNoError(t, err)
}
