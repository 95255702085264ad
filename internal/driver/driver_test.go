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

package driver_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"go.steamd-lang.org/steamd/codegen"
	"go.steamd-lang.org/steamd/codegen/golang"
	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/internal/config"
	"go.steamd-lang.org/steamd/internal/driver"
	"go.steamd-lang.org/steamd/internal/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newFS(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for path, text := range files {
		require.NoError(t, afero.WriteFile(fs, path, []byte(text), 0o644))
	}
	return fs
}

func newDriver(fs afero.Fs) (*driver.Driver, *logtest.Hook) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return driver.New(fs, logger), hook
}

func sourcePaths(t *testing.T, d *driver.Driver, path string) []string {
	t.Helper()
	sources, err := d.LoadSources(path)
	require.NoError(t, err)
	var paths []string
	for _, src := range sources {
		paths = append(paths, src.Path)
	}
	return paths
}

func TestLoadSourcesOrder(t *testing.T) {
	t.Parallel()
	d, _ := newDriver(newFS(t, map[string]string{
		"proto/main.steamd":      "#import \"base.steamd\"\n#import \"sub/extra.steamd\"\nclass A { uint a; };",
		"proto/base.steamd":      "enum EResult { OK = 1; };",
		"proto/sub/extra.steamd": "#import \"../base.steamd\"\nclass B { EResult r; };",
	}))
	assert.Equal(t, []string{
		filepath.Join("proto", "base.steamd"),
		filepath.Join("proto", "sub", "extra.steamd"),
		filepath.Join("proto", "main.steamd"),
	}, sourcePaths(t, d, "proto/main.steamd"))
}

func TestLoadSourcesCycle(t *testing.T) {
	t.Parallel()
	d, _ := newDriver(newFS(t, map[string]string{
		"a.steamd": "#import \"b.steamd\"\nclass A { uint a; };",
		"b.steamd": "#import \"a.steamd\"\nclass B { uint b; };",
	}))
	assert.Equal(t, []string{"b.steamd", "a.steamd"}, sourcePaths(t, d, "a.steamd"))
}

func TestLoadSourcesErrors(t *testing.T) {
	t.Parallel()
	d, hook := newDriver(newFS(t, map[string]string{
		"missing.steamd": "#import \"nope.steamd\"\n",
		"noarg.steamd":   "#import\nclass A { uint a; };",
		"other.steamd":   "#pragma \"x\"\nclass A { uint a; };",
		"syntax.steamd":  "class A\n{\n\tuint a\n};",
	}))

	_, err := d.LoadSources("missing.steamd")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.steamd: import nope.steamd")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = d.LoadSources("noarg.steamd")
	assert.Error(t, err)

	_, err = d.LoadSources("syntax.steamd")
	require.Error(t, err)
	testutil.ExpectMatch(t, `^syntax\.steamd:4:1: E2`, err.Error())

	_, err = d.LoadSources("other.steamd")
	require.NoError(t, err)
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, "ignoring #pragma directive", hook.LastEntry().Message)
}

func TestCompileLocatesErrors(t *testing.T) {
	t.Parallel()
	d, _ := newDriver(newFS(t, map[string]string{
		"base.steamd": "enum EResult { OK = 1; };",
		"msgs.steamd": "#import \"base.steamd\"\nclass A\n{\n\tuint r = EResult::Nope;\n};",
	}))
	_, err := d.Compile("msgs.steamd")
	require.Error(t, err)
	assert.True(t, errors.Is(err, compiler.ErrUnresolvedSymbol))
	testutil.ExpectMatch(t, `^msgs\.steamd:4:\d+: E3002: `, err.Error())
}

func TestCompileLocatesWarnings(t *testing.T) {
	t.Parallel()
	d, _ := newDriver(newFS(t, map[string]string{
		"base.steamd": "class Base { uint a; };",
		"msgs.steamd": "#import \"base.steamd\"\n\nclass Msg<7> expects Base\n{\n\tuint b;\n};",
	}))
	compiled, err := d.Compile("msgs.steamd")
	require.NoError(t, err)
	require.Len(t, compiled.Warnings, 1)
	assert.Equal(t, "msgs.steamd", compiled.Warnings[0].Path)
	testutil.ExpectMatch(t, `^msgs\.steamd:3:\d+: W4\d+: `, compiled.Warnings[0].String())
}

const sampleBase = "enum EResult { OK = 1; Fail = 2; };\n"

func TestRun(t *testing.T) {
	t.Parallel()
	fs := newFS(t, map[string]string{
		"src/steammsg.steamd":      testutil.SampleSource,
		"src/steammsg_base.steamd": sampleBase,
	})
	d, hook := newDriver(fs)

	job := config.Job{Source: "src/steammsg.steamd", Namespace: "steamlang"}
	gen := &codegen.BackendGenerator{Backend: golang.New()}
	result, err := d.Run(context.Background(), job, "out", gen, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join("out", "steammsg.go"),
		filepath.Join("out", "steammsg_internal.go"),
	}, result.Artifacts)
	for _, path := range result.Artifacts {
		data, err := afero.ReadFile(fs, path)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(string(data), "// Code generated by steamd from steammsg.steamd."))
	}
	enums, err := afero.ReadFile(fs, result.Artifacts[0])
	require.NoError(t, err)
	assert.Contains(t, string(enums), "type EResult int32")

	entries, err := afero.ReadDir(fs, "out")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	var wrote int
	for _, entry := range hook.AllEntries() {
		if entry.Message == "wrote artifact" {
			wrote++
			assert.Equal(t, "steamlang", entry.Data["namespace"])
			assert.Contains(t, entry.Data, "bytes")
		}
	}
	assert.Equal(t, 2, wrote)
}

type fakeGenerator struct {
	resp *codegen.Response
	err  error
}

func (g *fakeGenerator) Generate(ctx context.Context, req *codegen.Request) (*codegen.Response, error) {
	return g.resp, g.err
}

func TestRunWritesAllOrNothing(t *testing.T) {
	t.Parallel()
	job := config.Job{Source: "a.steamd", Namespace: "a"}

	for name, gen := range map[string]*fakeGenerator{
		"bad path": {resp: &codegen.Response{Files: []codegen.OutputFile{
			{Path: []string{"a.go"}, Content: []byte("new")},
			{Path: []string{"..", "escape.go"}, Content: []byte("new")},
		}}},
		"plugin error": {resp: &codegen.Response{Error: "plugin failed"}},
		"no files":     {resp: &codegen.Response{}},
		"failure":      {err: errors.New("boom")},
	} {
		t.Run(name, func(t *testing.T) {
			fs := newFS(t, map[string]string{
				"a.steamd": "enum A { X; };",
				"out/a.go": "old",
			})
			d, _ := newDriver(fs)
			_, err := d.Run(context.Background(), job, "out", gen, nil)
			require.Error(t, err)

			data, err := afero.ReadFile(fs, "out/a.go")
			require.NoError(t, err)
			assert.Equal(t, "old", string(data))
			entries, err := afero.ReadDir(fs, "out")
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestRunReadOnly(t *testing.T) {
	t.Parallel()
	base := newFS(t, map[string]string{"a.steamd": "enum A { X; };"})
	d, _ := newDriver(afero.NewReadOnlyFs(base))

	gen := &codegen.BackendGenerator{Backend: golang.New()}
	_, err := d.Run(context.Background(), config.Job{Source: "a.steamd", Namespace: "a"}, "out", gen, nil)
	require.Error(t, err)

	_, err = base.Stat("out")
	assert.True(t, os.IsNotExist(err))
}
