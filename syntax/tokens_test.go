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
	"strings"
	"testing"

	"go.steamd-lang.org/steamd/internal/testutil"
	"go.steamd-lang.org/steamd/syntax"
)

type strToken struct {
	kind    syntax.TokenKind
	content string
}

func tokenize(src string) []strToken {
	var out []strToken
	for _, token := range syntax.Tokenize([]byte(src)) {
		out = append(out, strToken{token.Kind, token.Text})
	}
	return out
}

func TestTokenize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		src  string
		want []strToken
	}{
		{"empty", "", nil},
		{"spaces only", " \t\r\n ", nil},
		{"terminator", ";", []strToken{{syntax.T_TERMINATOR, ";"}}},
		{"string", `"hello world"`, []strToken{{syntax.T_STRING, `"hello world"`}}},
		{"comment", "// nothing here\n", nil},
		{"comment before code", "//x\nuint a;", []strToken{
			{syntax.T_IDENT, "uint"},
			{syntax.T_IDENT, "a"},
			{syntax.T_TERMINATOR, ";"},
		}},
		{"scoped identifier", "EMsg::ClientLogon", []strToken{
			{syntax.T_IDENT, "EMsg::ClientLogon"},
		}},
		{"dotted identifier", "ulong.MaxValue", []strToken{
			{syntax.T_IDENT, "ulong.MaxValue"},
		}},
		{"negative literal", "-1", []strToken{{syntax.T_IDENT, "-1"}}},
		{"hex literal", "0x31305356", []strToken{{syntax.T_IDENT, "0x31305356"}}},
		{"preprocess", `#import "emsg.steamd"`, []strToken{
			{syntax.T_PREPROCESS, "#import"},
			{syntax.T_STRING, `"emsg.steamd"`},
		}},
		{"operators", "{}<>]=|", []strToken{
			{syntax.T_OPERATOR, "{"},
			{syntax.T_OPERATOR, "}"},
			{syntax.T_OPERATOR, "<"},
			{syntax.T_OPERATOR, ">"},
			{syntax.T_OPERATOR, "]"},
			{syntax.T_OPERATOR, "="},
			{syntax.T_OPERATOR, "|"},
		}},
		{"array length", "byte<20> key;", []strToken{
			{syntax.T_IDENT, "byte"},
			{syntax.T_OPERATOR, "<"},
			{syntax.T_IDENT, "20"},
			{syntax.T_OPERATOR, ">"},
			{syntax.T_IDENT, "key"},
			{syntax.T_TERMINATOR, ";"},
		}},
		{"invalid run", "a @b;c d", []strToken{
			{syntax.T_IDENT, "a"},
			{syntax.T_INVALID, "@b;c"},
			{syntax.T_IDENT, "d"},
		}},
		{"lone minus", "- x", []strToken{
			{syntax.T_INVALID, "-"},
			{syntax.T_IDENT, "x"},
		}},
		{"empty string is invalid", `"" x`, []strToken{
			{syntax.T_INVALID, `""`},
			{syntax.T_IDENT, "x"},
		}},
		{"unterminated string", "\"abc\ndef", []strToken{
			{syntax.T_INVALID, `"abc`},
			{syntax.T_IDENT, "def"},
		}},
		{"parenthesis", "(x)", []strToken{
			{syntax.T_INVALID, "(x)"},
		}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			testutil.ExpectSliceEq(t, test.want, tokenize(test.src))
		})
	}
}

func TestTokenOffsets(t *testing.T) {
	t.Parallel()

	src := "enum E\n{\n\tA = 1; // first\n};"
	tokens := syntax.Tokenize([]byte(src))
	for _, token := range tokens {
		span := token.Span()
		testutil.ExpectEq(t, token.Text, src[span.Start():span.End()])
	}
}

func TestTokenValue(t *testing.T) {
	t.Parallel()

	tokens := syntax.Tokenize([]byte(`#import "a.steamd"`))
	testutil.ExpectEq(t, 2, len(tokens))
	testutil.ExpectEq(t, "import", tokens[0].Value())
	testutil.ExpectEq(t, "a.steamd", tokens[1].Value())
}

func TestTokensNextReportsSpace(t *testing.T) {
	t.Parallel()

	tokens := syntax.NewTokens([]byte("a b"))
	var kinds []syntax.TokenKind
	var token syntax.Token
	for tokens.Next(&token); token.Kind != syntax.T_EOF; tokens.Next(&token) {
		kinds = append(kinds, token.Kind)
	}
	testutil.ExpectSliceEq(t, []syntax.TokenKind{
		syntax.T_IDENT,
		syntax.T_SPACE,
		syntax.T_IDENT,
	}, kinds)
}

// Concatenating token texts must give back the source minus whitespace
// and comments.
func TestTokenizeReconstructs(t *testing.T) {
	t.Parallel()

	src := testutil.SampleSource
	var got strings.Builder
	for _, token := range syntax.Tokenize([]byte(src)) {
		got.WriteString(token.Text)
	}

	var want strings.Builder
	for _, line := range strings.Split(src, "\n") {
		inString := false
		for ii := 0; ii < len(line); ii++ {
			c := line[ii]
			if !inString && strings.HasPrefix(line[ii:], "//") {
				break
			}
			if c == '"' {
				inString = !inString
			}
			if !inString && (c == ' ' || c == '\t' || c == '\r') {
				continue
			}
			want.WriteByte(c)
		}
	}
	testutil.ExpectNoDiff(t, want.String(), got.String())
}

func FuzzTokenize(f *testing.F) {
	f.Add("class A { uint a; };")
	f.Add("\"x\" // y\n#z")
	f.Add("@@@ ;;; -")
	f.Fuzz(func(t *testing.T, src string) {
		var total int
		for _, token := range syntax.Tokenize([]byte(src)) {
			if token.Text == "" {
				t.Fatalf("empty token at offset %d", token.Offset)
			}
			span := token.Span()
			if src[span.Start():span.End()] != token.Text {
				t.Fatalf("token %v does not match source", token)
			}
			total += len(token.Text)
		}
		if total > len(src) {
			t.Fatalf("tokens cover %d bytes of a %d byte source", total, len(src))
		}
	})
}
