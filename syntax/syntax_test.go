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

package syntax_test

import (
	"errors"
	"testing"

	"go.steamd-lang.org/steamd/internal/testutil"
	"go.steamd-lang.org/steamd/syntax"
)

func parse(t *testing.T, src string) *syntax.Document {
	t.Helper()
	doc, err := syntax.Parse([]byte(src))
	testutil.AssertNoError(t, err)
	return doc
}

func identTexts(idents []*syntax.Ident) []string {
	var out []string
	for _, ident := range idents {
		out = append(out, ident.Get())
	}
	return out
}

func TestParseSample(t *testing.T) {
	t.Parallel()

	doc := parse(t, testutil.SampleSource)

	directives := doc.Directives()
	testutil.ExpectEq(t, 1, len(directives))
	testutil.ExpectEq(t, "import", directives[0].Name())
	arg, ok := directives[0].Arg()
	testutil.ExpectTrue(t, ok)
	testutil.ExpectEq(t, "steammsg_base.steamd", arg)

	var names []string
	for _, decl := range doc.Decls() {
		names = append(names, decl.Name().Get())
	}
	testutil.ExpectSliceEq(t, []string{
		"EMsg",
		"EUniverse",
		"EUdpPacketType",
		"EClientPersonaStateFlag",
		"UdpHeader",
		"MsgHdr",
		"ExtendedClientMsgHdr",
		"MsgHdrProtoBuf",
		"MsgGCHdrProtoBuf",
		"MsgGCHdr",
		"MsgChannelEncryptRequest",
		"MsgChannelEncryptResult",
		"MsgClientNewLoginKey",
		"MsgClientFriendMsg",
		"MsgClientHello",
		"MsgGCSetItemPosition",
	}, names)
}

func TestParseEnum(t *testing.T) {
	t.Parallel()

	doc := parse(t, testutil.SampleSource)

	emsg := doc.Decl("EMsg").(*syntax.Enum)
	testutil.ExpectTrue(t, emsg.Storage() == nil)
	testutil.ExpectFalse(t, emsg.IsFlags())

	response := emsg.Value("ChannelEncryptResponse")
	testutil.ExpectEq(t, 0, len(response.Defaults()))

	friendMsg := emsg.Value("ClientFriendMsg")
	testutil.ExpectSliceEq(t, []string{"5423"}, identTexts(friendMsg.Defaults()))
	testutil.ExpectEq(t, "superseded by ClientFriendMsg2", friendMsg.Obsolete().Message())
	testutil.ExpectTrue(t, friendMsg.Removed() == nil)

	old := emsg.Value("ClientOldCommand")
	testutil.ExpectTrue(t, old.Removed() != nil)
	testutil.ExpectEq(t, "", old.Removed().Message())

	flags := doc.Decl("EClientPersonaStateFlag").(*syntax.Enum)
	testutil.ExpectTrue(t, flags.IsFlags())
	testutil.ExpectEq(t, "uint", flags.Storage().Get())
	testutil.ExpectSliceEq(t,
		[]string{"Status", "PlayerName"},
		identTexts(flags.Value("Default").Defaults()),
	)
}

func TestParseClass(t *testing.T) {
	t.Parallel()

	doc := parse(t, testutil.SampleSource)

	hello := doc.Decl("MsgClientHello").(*syntax.Class)
	testutil.ExpectEq(t, "EMsg::ClientHello", hello.Ident().Get())
	testutil.ExpectEq(t, "MsgHdr", hello.Parent().Get())

	var propNames []string
	for _, prop := range hello.Properties() {
		propNames = append(propNames, prop.Name().Get())
	}
	testutil.ExpectSliceEq(t, []string{
		"ProtocolVersion",
		"protocolVersion",
		"bodyLength",
		"body",
	}, propNames)

	constProp := hello.Property("ProtocolVersion")
	testutil.ExpectEq(t, syntax.FlagConst, constProp.Flag())
	testutil.ExpectEq(t, "uint", constProp.Type().Get())
	testutil.ExpectSliceEq(t, []string{"65580"}, identTexts(constProp.Defaults()))

	body := hello.Property("body")
	testutil.ExpectEq(t, syntax.FlagProto, body.Flag())
	testutil.ExpectEq(t, "SteamKit2.Internal.CMsgClientHello", body.Type().Get())
	testutil.ExpectEq(t, "bodyLength", body.FlagOpt().Get())

	loginKey := doc.Decl("MsgClientNewLoginKey").(*syntax.Class).Property("loginKey")
	testutil.ExpectEq(t, syntax.FlagNone, loginKey.Flag())
	testutil.ExpectEq(t, "byte", loginKey.Type().Get())
	testutil.ExpectEq(t, "20", loginKey.FlagOpt().Get())

	friend := doc.Decl("MsgClientFriendMsg").(*syntax.Class)
	testutil.ExpectEq(t, syntax.FlagSteamIDMarshal, friend.Property("steamID").Flag())
	testutil.ExpectEq(t, syntax.FlagBoolMarshal, friend.Property("isTyping").Flag())
	testutil.ExpectEq(t, syntax.FlagGameIDMarshal, friend.Property("gameID").Flag())
	testutil.ExpectSliceEq(t, []string{
		"EClientPersonaStateFlag::Status",
		"EClientPersonaStateFlag::Presence",
	}, identTexts(friend.Property("persona").Defaults()))

	gcHdr := doc.Decl("MsgGCHdrProtoBuf").(*syntax.Class)
	testutil.ExpectEq(t, syntax.FlagProtoMaskGC, gcHdr.Property("msg").Flag())
}

func TestParseSpans(t *testing.T) {
	t.Parallel()

	src := "class A\n{\n\tuint x; obsolete \"gone\"\n};"
	doc := parse(t, src)
	class := doc.Decls()[0].(*syntax.Class)
	span := class.Span()
	testutil.ExpectEq(t, src, src[span.Start():span.End()])

	prop := class.Properties()[0]
	span = prop.Span()
	testutil.ExpectEq(t, "uint x; obsolete \"gone\"", src[span.Start():span.End()])

	pos := syntax.PositionOf([]byte(src), prop.Name().Span().Start())
	testutil.ExpectEq(t, "3:7", pos.String())
}

func TestParseRemovedClass(t *testing.T) {
	t.Parallel()

	doc := parse(t, `class Gone<5> removed "no longer sent" { uint a; }`)
	class := doc.Decls()[0].(*syntax.Class)
	testutil.ExpectEq(t, "no longer sent", class.Removed().Message())
	testutil.ExpectEq(t, "5", class.Ident().Get())
}

func TestParseErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		code uint32
		kind error
	}{
		{"invalid token", "class A { uint @x; };", 1000, syntax.ErrLexical},
		{"invalid at top level", "(", 1000, syntax.ErrLexical},
		{"missing name", "class { };", 2000, syntax.ErrSyntax},
		{"bad declaration", "struct A { };", 2001, syntax.ErrSyntax},
		{"unbalanced", "class A { uint a;", 2002, syntax.ErrSyntax},
		{"stray close", "};", 2003, syntax.ErrSyntax},
		{"missing terminator", "class A { uint a }", 2004, syntax.ErrSyntax},
		{"missing enum terminator", "enum E { A = 1 B = 2; }", 2004, syntax.ErrSyntax},
		{"unknown flag", "class A { weird uint a; };", 2005, syntax.ErrSyntax},
		{"empty directive", "# \"x\"", 2006, syntax.ErrSyntax},
		{"dangling or", "enum E { A = 1 | ; }", 2000, syntax.ErrSyntax},
		{"unclosed angle", "class A<EMsg::X { }", 2000, syntax.ErrSyntax},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := syntax.Parse([]byte(test.src))
			testutil.AssertError(t, err)
			var syntaxErr *syntax.Error
			testutil.ExpectTrue(t, errors.As(err, &syntaxErr))
			testutil.ExpectEq(t, test.code, syntaxErr.Code())
			testutil.ExpectTrue(t, errors.Is(err, test.kind))
		})
	}
}

// Parents are introduced by 'expects' and flags precede the type. The
// colon and parenthesized forms are not part of the grammar.
func TestParseRejectsColonParentAndParenFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		code uint32
		kind error
	}{
		{"colon parent", "class MsgFoo : MsgHdr { };", 1000, syntax.ErrLexical},
		{"attached colon parent", "class MsgFoo: MsgHdr { };", 2000, syntax.ErrSyntax},
		{"parenthesized flag", "class A { uint n; byte body (proto = n); };", 1000, syntax.ErrLexical},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := syntax.Parse([]byte(test.src))
			var syntaxErr *syntax.Error
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("Expected *syntax.Error, got: %v", err)
			}
			testutil.ExpectEq(t, test.code, syntaxErr.Code())
			testutil.ExpectTrue(t, errors.Is(err, test.kind))
		})
	}

	doc := parse(t, "class MsgFoo expects MsgHdr { proto<n> X.Y body; uint n; };")
	class := doc.Decls()[0].(*syntax.Class)
	testutil.ExpectEq(t, "MsgHdr", class.Parent().Get())
	testutil.ExpectEq(t, syntax.FlagProto, class.Property("body").Flag())
	testutil.ExpectEq(t, "n", class.Property("body").FlagOpt().Get())
}

func TestParseErrorNamesDeclaration(t *testing.T) {
	t.Parallel()

	_, err := syntax.Parse([]byte("class Outer { uint a }"))
	testutil.AssertError(t, err)
	testutil.ExpectMatch(t, `in 'Outer'`, err.Error())
}

func TestMerge(t *testing.T) {
	t.Parallel()

	base := parse(t, "enum EMsg { A = 1; }")
	main := parse(t, "class M<EMsg::A> { }")
	merged := syntax.Merge(base, main)
	testutil.ExpectEq(t, 2, len(merged.Decls()))
	testutil.ExpectTrue(t, merged.Decl("EMsg") != nil)
	testutil.ExpectTrue(t, merged.Decl("M") != nil)
}
