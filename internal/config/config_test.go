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

package config_test

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.steamd-lang.org/steamd/internal/config"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

const sampleConfig = `
output = "gen"

[log]
level = "debug"

[go]
enum_import = "example.com/steamlang"
tag_type = "EMsg"

[plugin]
path = ["/opt/steamd/plugins"]

[[job]]
source = "steammsg.steamd"
namespace = "steamlang"
supports_gc = true

[[job]]
source = "gc.steamd"
namespace = "gc"
output = "gc-out"
backend = "wasm"
plugin = "steamd-codegen-cs.wasm"
`

func TestLoadDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.Load(afero.NewMemMapFs(), "", env(nil))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "steamd.toml", []byte(sampleConfig), 0o644))

	cfg, err := config.Load(fs, "steamd.toml", env(nil))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "gen", cfg.Output)
	assert.Equal(t, []string{"/opt/steamd/plugins"}, cfg.PluginPath)
	assert.Equal(t, map[string]string{
		"enum_import": "example.com/steamlang",
		"tag_type":    "EMsg",
	}, cfg.Go.Options())

	require.Len(t, cfg.Jobs, 2)
	assert.Equal(t, config.Job{
		Source:     "steammsg.steamd",
		Namespace:  "steamlang",
		SupportsGC: true,
	}, cfg.Jobs[0])
	assert.Equal(t, "gen", cfg.OutputDir(cfg.Jobs[0]))
	assert.Equal(t, "gc-out", cfg.OutputDir(cfg.Jobs[1]))
	assert.Equal(t, config.BackendWasm, cfg.Jobs[1].Backend)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Parallel()
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "steamd.toml", []byte(sampleConfig), 0o644))

	cfg, err := config.Load(fs, "steamd.toml", env(map[string]string{
		"STEAMD_LOG_LEVEL":   "warning",
		"STEAMD_LOG_FORMAT":  "json",
		"STEAMD_PLUGIN_PATH": "/a:/b",
		"STEAMD_OUTPUT":      "elsewhere",
		"UNRELATED":          "x",
	}))
	require.NoError(t, err)
	assert.Equal(t, "warning", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, []string{"/a", "/b"}, cfg.PluginPath)
	assert.Equal(t, "elsewhere", cfg.Output)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()
	for name, text := range map[string]string{
		"unknown key":     "colour = true\n",
		"bad level":       "[log]\nlevel = \"loud\"\n",
		"bad format":      "[log]\nformat = \"xml\"\n",
		"no namespace":    "[[job]]\nsource = \"a.steamd\"\n",
		"no plugin":       "[[job]]\nsource = \"a.steamd\"\nnamespace = \"a\"\nbackend = \"wasm\"\n",
		"stray plugin":    "[[job]]\nsource = \"a.steamd\"\nnamespace = \"a\"\nplugin = \"x.wasm\"\n",
		"unknown backend": "[[job]]\nsource = \"a.steamd\"\nnamespace = \"a\"\nbackend = \"cs\"\n",
		"syntax":          "[log\n",
	} {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fs, "steamd.toml", []byte(text), 0o644))
			_, err := config.Load(fs, "steamd.toml", env(nil))
			assert.Error(t, err)
		})
	}

	_, err := config.Load(afero.NewMemMapFs(), "missing.toml", env(nil))
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()
	cfg := config.Default()
	cfg.Log.Format = "json"
	cfg.Log.Level = "warn"

	var buf bytes.Buffer
	logger, err := cfg.NewLogger(&buf)
	require.NoError(t, err)
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())

	logger.Info("hidden")
	logger.WithField("source", "a.steamd").Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"source":"a.steamd"`)
}
