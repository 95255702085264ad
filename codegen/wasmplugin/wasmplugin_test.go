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

package wasmplugin_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"go.steamd-lang.org/steamd/codegen"
	"go.steamd-lang.org/steamd/codegen/wasmplugin"
	"go.steamd-lang.org/steamd/syntax"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func uleb(v int) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func section(id byte, parts ...[]byte) []byte {
	content := bytes.Join(parts, nil)
	out := append([]byte{id}, uleb(len(content))...)
	return append(out, content...)
}

func name(s string) []byte {
	return append(uleb(len(s)), s...)
}

var wasmHeader = []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

// fakePlugin assembles a module that answers every request with the
// given response and status. Allocation bumps a pointer starting at
// 1024; the response frame lives at offset 16.
func fakePlugin(response string, rc byte) []byte {
	const dataOffset = 16
	frame := wasmplugin.Frame([]byte(response))

	allocate := []byte{
		0x00,       // no locals
		0x23, 0x00, // global.get 0
		0x23, 0x00, // global.get 0
		0x20, 0x00, // local.get 0
		0x6a,       // i32.add
		0x24, 0x00, // global.set 0
		0x0b,
	}
	generate := []byte{
		0x00,
		0x20, 0x01,       // local.get 1
		0x41, dataOffset, // i32.const
		0x36, 0x02, 0x00, // i32.store
		0x41, rc,
		0x0b,
	}

	return bytes.Join([][]byte{
		wasmHeader,
		section(1, []byte{
			0x02,
			0x60, 0x01, 0x7f, 0x01, 0x7f,
			0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f,
		}),
		section(3, []byte{0x02, 0x00, 0x01}),
		section(5, []byte{0x01, 0x00, 0x01}),
		section(6, []byte{0x01, 0x7f, 0x01, 0x41, 0x80, 0x08, 0x0b}),
		section(7,
			[]byte{0x03},
			name("memory"), []byte{0x02, 0x00},
			name(wasmplugin.AllocateExport), []byte{0x00, 0x00},
			name(wasmplugin.GenerateExport), []byte{0x00, 0x01},
		),
		section(10,
			[]byte{0x02},
			uleb(len(allocate)), allocate,
			uleb(len(generate)), generate,
		),
		section(11,
			[]byte{0x01, 0x00, 0x41, dataOffset, 0x0b},
			uleb(len(frame)), frame,
		),
	}, nil)
}

func request() *codegen.Request {
	return &codegen.Request{
		Sources:   []syntax.Source{{Path: "steammsg.steamd", Text: "enum EResult { OK = 1; };"}},
		Namespace: "steamlang",
	}
}

func TestFrame(t *testing.T) {
	t.Parallel()
	framed := wasmplugin.Frame([]byte("abc"))
	assert.Equal(t, []byte{3, 0, 0, 0, 'a', 'b', 'c'}, framed)

	payload, err := wasmplugin.Unframe(append(framed, 0xFF))
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), payload)

	payload, err = wasmplugin.Unframe(wasmplugin.Frame(nil))
	require.NoError(t, err)
	assert.Empty(t, payload)

	for _, buf := range [][]byte{nil, {1, 0}, {4, 0, 0, 0, 'a'}} {
		_, err := wasmplugin.Unframe(buf)
		assert.ErrorIs(t, err, wasmplugin.ErrShortFrame)
	}
}

func TestLocate(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/a/steamd-codegen-go.wasm", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/b/steamd-codegen-go.wasm", []byte{}, 0o644))
	require.NoError(t, afero.WriteFile(fs, "/c/steamd-codegen-go.wasm", []byte{}, 0o644))

	path, err := wasmplugin.Locate(fs, []string{"/a", "", "/b", "/c"}, "go")
	require.NoError(t, err)
	assert.Equal(t, "/b/steamd-codegen-go.wasm", path)

	_, err = wasmplugin.Locate(fs, []string{"/a", "/b"}, "rust")
	assert.ErrorIs(t, err, wasmplugin.ErrNotFound)
	assert.Contains(t, err.Error(), "steamd-codegen-rust.wasm")

	_, err = wasmplugin.Locate(fs, nil, "go")
	assert.ErrorIs(t, err, wasmplugin.ErrEmptySearch)
}

func TestGenerate(t *testing.T) {
	t.Parallel()
	plugin := wasmplugin.New("fake.wasm", fakePlugin(
		`{"files":[{"path":["steammsg.go"],"content":"cGFja2FnZSBzdGVhbWxhbmcK"}]}`, 0,
	))
	resp, err := plugin.Generate(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, resp.Files, 1)
	assert.Equal(t, []string{"steammsg.go"}, resp.Files[0].Path)
	assert.Equal(t, "package steamlang\n", string(resp.Files[0].Content))
	assert.Empty(t, resp.Error)
}

func TestGenerateFailure(t *testing.T) {
	t.Parallel()
	plugin := wasmplugin.New("fake.wasm", fakePlugin(`{"error":"no namespace in request"}`, 1))
	resp, err := plugin.Generate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "no namespace in request", resp.Error)

	plugin = wasmplugin.New("fake.wasm", fakePlugin(`{}`, 2))
	resp, err = plugin.Generate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, "plugin fake.wasm failed with status 2", resp.Error)

	plugin = wasmplugin.New("fake.wasm", fakePlugin(`not json`, 0))
	_, err = plugin.Generate(context.Background(), request())
	assert.ErrorContains(t, err, "plugin fake.wasm: decode response")
}

func TestGenerateBadPlugin(t *testing.T) {
	t.Parallel()
	_, err := wasmplugin.New("junk.wasm", []byte("not wasm")).Generate(context.Background(), request())
	assert.ErrorContains(t, err, "plugin junk.wasm: ")

	_, err = wasmplugin.New("empty.wasm", wasmHeader).Generate(context.Background(), request())
	assert.ErrorIs(t, err, wasmplugin.ErrBadPlugin)
}

func TestGenerateCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := wasmplugin.New("fake.wasm", fakePlugin(`{}`, 0)).Generate(ctx, request())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	bin := fakePlugin(`{"files":[{"path":["x.go"],"content":""}]}`, 0)
	require.NoError(t, afero.WriteFile(fs, "/plugins/steamd-codegen-go.wasm", bin, 0o644))

	plugin, err := wasmplugin.Load(fs, "/plugins/steamd-codegen-go.wasm")
	require.NoError(t, err)
	assert.Equal(t, "steamd-codegen-go.wasm", plugin.Name())

	resp, err := plugin.Generate(context.Background(), request())
	require.NoError(t, err)
	assert.Equal(t, []string{"x.go"}, resp.Files[0].Path)

	_, err = wasmplugin.Load(fs, "/plugins/missing.wasm")
	assert.Error(t, err)
}
