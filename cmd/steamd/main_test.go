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

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"go.steamd-lang.org/steamd/internal/testutil"
)

type result struct {
	rc     int
	stdout string
	stderr string
}

func newEnv(t *testing.T, files map[string]string, environ map[string]string) *env {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, text := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(text), 0o644))
	}
	return &env{
		fs:     fs,
		stdin:  strings.NewReader(""),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		lookupEnv: func(key string) (string, bool) {
			value, ok := environ[key]
			return value, ok
		},
	}
}

func run(e *env, args ...string) result {
	rc := runMain(context.Background(), e, args)
	return result{
		rc:     rc,
		stdout: e.stdout.(*bytes.Buffer).String(),
		stderr: e.stderr.(*bytes.Buffer).String(),
	}
}

const helloSource = `
enum EMsg
{
	Invalid = 0;
	Hello = 7;
	Goodbye;
	Old = 9; obsolete "use Goodbye"
};

class Hdr
{
	EMsg msg = EMsg::Invalid;
};

class MsgHello<EMsg::Hello> expects Hdr
{
	const uint VERSION = 3;

	uint version = MsgHello::VERSION;
	int bodyLen;
	proto<bodyLen> google.protobuf.StringValue body;
};
`

func TestNoCommand(t *testing.T) {
	t.Parallel()
	res := run(newEnv(t, nil, nil))
	assert.Equal(t, 1, res.rc)
	assert.Contains(t, res.stderr, "Available Commands:")

	res = run(newEnv(t, nil, nil), "frobnicate")
	assert.Equal(t, 1, res.rc)
	assert.Contains(t, res.stderr, "error: unknown command")
}

func TestTokens(t *testing.T) {
	t.Parallel()
	res := run(newEnv(t, map[string]string{"a.steamd": "enum A { X; };"}, nil), "tokens", "a.steamd")
	require.Equal(t, 0, res.rc, res.stderr)
	testutil.ExpectNoDiff(t, strings.Join([]string{
		"1:1\tIDENT\tenum",
		"1:6\tIDENT\tA",
		"1:8\tOPERATOR\t{",
		"1:10\tIDENT\tX",
		"1:11\tTERMINATOR\t;",
		"1:13\tOPERATOR\t}",
		"1:14\tTERMINATOR\t;",
		"",
	}, "\n"), res.stdout)

	res = run(newEnv(t, nil, nil), "tokens")
	assert.Equal(t, 1, res.rc)
	assert.Contains(t, res.stderr, "usage: steamd tokens FILE")
}

func TestCompileText(t *testing.T) {
	t.Parallel()
	res := run(newEnv(t, map[string]string{"hello.steamd": helloSource}, nil), "compile", "hello.steamd")
	require.Equal(t, 0, res.rc, res.stderr)
	testutil.ExpectContains(t, `enum EMsg<int>
	Invalid = 0
	Hello = 7
	Goodbye = 8 (implicit)
	Old = 9 (obsolete: use Goodbye)`, res.stdout)
	testutil.ExpectContains(t, `class MsgHello<7> expects Hdr (message, primary, 8 bytes fixed)
	const VERSION = 3
	version: uint, 4 bytes
	bodyLen: int, 4 bytes, length of body
	body: proto google.protobuf.StringValue, sized by bodyLen`, res.stdout)
	assert.Empty(t, res.stderr)
}

func TestCompileJSON(t *testing.T) {
	t.Parallel()
	res := run(newEnv(t, map[string]string{"hello.steamd": helloSource}, nil), "compile", "--json", "hello.steamd")
	require.Equal(t, 0, res.rc, res.stderr)
	require.True(t, gjson.Valid(res.stdout), res.stdout)

	out := gjson.Parse(res.stdout)
	assert.Equal(t, "hello.steamd", out.Get("source").String())
	assert.Equal(t, int64(4), out.Get("enums.0.values.#").Int())
	assert.Equal(t, int64(8), out.Get(`enums.0.values.#(name=="Goodbye").value`).Int())
	assert.True(t, out.Get(`enums.0.values.#(name=="Goodbye").implicit`).Bool())
	assert.Equal(t, "use Goodbye", out.Get(`enums.0.values.#(name=="Old").obsolete`).String())

	assert.Equal(t, "header", out.Get(`classes.#(name=="Hdr").role`).String())
	hello := out.Get(`classes.#(name=="MsgHello")`)
	assert.Equal(t, "message", hello.Get("role").String())
	assert.Equal(t, uint64(7), hello.Get("identity").Uint())
	assert.Equal(t, "Hdr", hello.Get("parent").String())
	assert.Equal(t, int64(8), hello.Get("base_size").Int())
	assert.Equal(t, []string{"version", "bodyLen", "body"}, stringsOf(hello.Get("fields.#.name")))
	assert.Equal(t, "proto", hello.Get("fields.2.kind").String())
	assert.Equal(t, "bodyLen", hello.Get("fields.2.length_field").String())
	assert.Equal(t, int64(0), out.Get("warnings.#").Int())
}

func stringsOf(result gjson.Result) []string {
	var out []string
	for _, item := range result.Array() {
		out = append(out, item.String())
	}
	return out
}

func TestCompileDiagnostics(t *testing.T) {
	t.Parallel()
	e := newEnv(t, map[string]string{
		"warn.steamd": "class Base { uint a; };\nclass Msg<1> expects Base { uint b; };",
		"bad.steamd":  "class A\n{\n\tuint a\n};",
	}, nil)
	res := run(e, "compile", "--json", "warn.steamd")
	require.Equal(t, 0, res.rc)
	testutil.ExpectMatch(t, `^warning: warn\.steamd:2:\d+: W4003: `, res.stderr)
	assert.Equal(t, int64(4003), gjson.Get(res.stdout, "warnings.0.code").Int())

	res = run(newEnv(t, map[string]string{"bad.steamd": "class A\n{\n\tuint a\n};"}, nil), "compile", "bad.steamd")
	assert.Equal(t, 1, res.rc)
	testutil.ExpectMatch(t, `^error: bad\.steamd:4:1: E2004: `, res.stderr)
	assert.Empty(t, res.stdout)
}

func TestCodegen(t *testing.T) {
	t.Parallel()
	e := newEnv(t, map[string]string{
		"src/steammsg.steamd":      testutil.SampleSource,
		"src/steammsg_base.steamd": "enum EResult { OK = 1; };",
	}, nil)
	res := run(e, "codegen", "-n", "steamlang", "-o", "gen", "--log-level", "warn", "src/steammsg.steamd")
	require.Equal(t, 0, res.rc, res.stderr)

	enums, err := afero.ReadFile(e.fs, "gen/steammsg.go")
	require.NoError(t, err)
	testutil.ExpectContains(t, "package steamlang", string(enums))
	testutil.ExpectContains(t, "type EResult int32", string(enums))

	classes, err := afero.ReadFile(e.fs, "gen/steammsg_internal.go")
	require.NoError(t, err)
	testutil.ExpectContains(t, "func (m *MsgChannelEncryptRequest) Serialize(w io.Writer) error {", string(classes))
}

func TestCodegenConfig(t *testing.T) {
	t.Parallel()
	e := newEnv(t, map[string]string{
		"steamd.toml": `
output = "gen"

[log]
format = "json"

[go]
enum_import = "example.com/steamlang"

[[job]]
source = "a.steamd"
namespace = "alpha"

[[job]]
source = "b.steamd"
namespace = "beta"
output = "other"
file = "bravo"
`,
		"a.steamd": "enum A { X; };",
		"b.steamd": "class B { uint b; };",
	}, map[string]string{"STEAMD_LOG_LEVEL": "info"})

	res := run(e, "codegen", "--config", "steamd.toml")
	require.Equal(t, 0, res.rc, res.stderr)
	for _, path := range []string{
		"gen/a.go",
		"gen/internal/a.go",
		"other/bravo.go",
		"other/internal/bravo.go",
	} {
		exists, err := afero.Exists(e.fs, path)
		require.NoError(t, err)
		assert.True(t, exists, path)
	}

	var wrote int
	for _, line := range strings.Split(strings.TrimSpace(res.stderr), "\n") {
		require.True(t, gjson.Valid(line), line)
		if gjson.Get(line, "msg").String() == "wrote artifact" {
			wrote++
		}
	}
	assert.Equal(t, 4, wrote)
}

func TestCodegenErrors(t *testing.T) {
	t.Parallel()
	for _, tc := range []struct {
		name string
		args []string
		want string
	}{
		{"no jobs", []string{"codegen"}, "nothing to do"},
		{"no namespace", []string{"codegen", "a.steamd"}, "a.steamd: no namespace"},
		{"bad backend", []string{"codegen", "-n", "a", "--backend", "rust", "a.steamd"}, `unknown backend "rust"`},
		{"no plugin path", []string{"codegen", "-n", "a", "--backend", "wasm", "--plugin", "go", "a.steamd"}, "no plugin path set"},
		{"missing plugin", []string{"codegen", "-n", "a", "--backend", "wasm", "--plugin", "go", "--plugin-path", "/plugins", "a.steamd"}, "steamd-codegen-go.wasm"},
		{"missing config", []string{"codegen", "-c", "nope.toml"}, "load config"},
		{"bad log level", []string{"codegen", "-n", "a", "--log-level", "loud", "a.steamd"}, "log level"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res := run(newEnv(t, map[string]string{"a.steamd": "enum A { X; };"}, nil), tc.args...)
			assert.Equal(t, 1, res.rc)
			assert.Contains(t, res.stderr, tc.want)
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()
	e := newEnv(t, map[string]string{
		"hello.steamd": helloSource,
		"msg.bin":      "\x07\x00\x00\x00\x03\x00\x00\x00\x00\x00\x00\x00",
	}, nil)
	res := run(e, "decode", "hello.steamd", "MsgHello", "msg.bin")
	require.Equal(t, 0, res.rc, res.stderr)
	testutil.ExpectNoDiff(t, `MsgHello {
	header = Hdr {
		msg = EMsg::Hello
	}
	version = 3
	bodyLen = 0
	body = google.protobuf.StringValue {
	}
}
`, res.stdout)
}

func TestDecodeHexStdin(t *testing.T) {
	t.Parallel()
	e := newEnv(t, map[string]string{"pair.steamd": "class Pair { uint a; ushort b; };"}, nil)
	e.stdin = strings.NewReader("01000000\n0200\n")
	res := run(e, "decode", "--hex", "pair.steamd", "Pair")
	require.Equal(t, 0, res.rc, res.stderr)
	testutil.ExpectNoDiff(t, "Pair {\n\ta = 1\n\tb = 2\n}\n", res.stdout)

	e = newEnv(t, map[string]string{"pair.steamd": "class Pair { uint a; ushort b; };"}, nil)
	e.stdin = strings.NewReader("01000000")
	res = run(e, "decode", "--hex", "pair.steamd", "Pair")
	assert.Equal(t, 1, res.rc)
	assert.Contains(t, res.stderr, "error: ")
}
