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

// Package config holds the settings of a steamd run. Settings come from
// an optional TOML file, then from STEAMD_* environment variables, then
// from command-line flags applied by the caller.
package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mstoykov/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"gopkg.in/guregu/null.v3"

	"go.steamd-lang.org/steamd/codegen/golang"
)

const (
	BackendGo   = "go"
	BackendWasm = "wasm"
)

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Go holds options of the built-in Go backend.
type Go struct {
	EnumImport  string `toml:"enum_import"`
	ProtoImport string `toml:"proto_import"`
	TagType     string `toml:"tag_type"`
}

// Options returns the non-empty options keyed as the backend expects.
func (g Go) Options() map[string]string {
	opts := make(map[string]string)
	for key, value := range map[string]string{
		golang.OptionEnumImport:  g.EnumImport,
		golang.OptionProtoImport: g.ProtoImport,
		golang.OptionTagType:     g.TagType,
	} {
		if value != "" {
			opts[key] = value
		}
	}
	return opts
}

// Job is one source file compiled into one pair of artifacts.
type Job struct {
	Source     string `toml:"source"`
	Namespace  string `toml:"namespace"`
	Output     string `toml:"output"`
	File       string `toml:"file"`
	SupportsGC bool   `toml:"supports_gc"`

	// Backend is BackendGo (the default) or BackendWasm, which runs the
	// generator named by Plugin.
	Backend string `toml:"backend"`
	Plugin  string `toml:"plugin"`
}

type Config struct {
	Log Log
	Go  Go

	// Output is the artifact root of jobs that do not name their own.
	Output string

	// PluginPath is searched for plugins named without a directory.
	PluginPath []string

	Jobs []Job
}

func Default() Config {
	return Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Output: ".",
	}
}

type fileConfig struct {
	Log    Log    `toml:"log"`
	Go     Go     `toml:"go"`
	Output string `toml:"output"`
	Plugin struct {
		Path []string `toml:"path"`
	} `toml:"plugin"`
	Jobs []Job `toml:"job"`
}

type envConfig struct {
	LogLevel   null.String `envconfig:"STEAMD_LOG_LEVEL"`
	LogFormat  null.String `envconfig:"STEAMD_LOG_FORMAT"`
	PluginPath null.String `envconfig:"STEAMD_PLUGIN_PATH"`
	Output     null.String `envconfig:"STEAMD_OUTPUT"`
}

// Load builds a configuration from the file at path, which may be empty
// to skip the file, and from the environment seen through lookupEnv.
func Load(fs afero.Fs, path string, lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return Config{}, fmt.Errorf("load config: %w", err)
		}
		if err := cfg.applyFile(string(data)); err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	if err := cfg.applyEnv(lookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg *Config) applyFile(text string) error {
	var raw fileConfig
	meta, err := toml.Decode(text, &raw)
	if err != nil {
		return err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = strings.TrimSpace(raw.Log.Level)
	}
	if meta.IsDefined("log", "format") {
		cfg.Log.Format = strings.TrimSpace(raw.Log.Format)
	}
	cfg.Go = raw.Go
	if meta.IsDefined("output") {
		cfg.Output = strings.TrimSpace(raw.Output)
	}
	if meta.IsDefined("plugin", "path") {
		cfg.PluginPath = raw.Plugin.Path
	}
	cfg.Jobs = raw.Jobs
	return nil
}

func (cfg *Config) applyEnv(lookupEnv func(string) (string, bool)) error {
	var env envConfig
	if err := envconfig.Process("", &env, lookupEnv); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}
	if env.LogLevel.Valid {
		cfg.Log.Level = env.LogLevel.String
	}
	if env.LogFormat.Valid {
		cfg.Log.Format = env.LogFormat.String
	}
	if env.PluginPath.Valid {
		cfg.PluginPath = splitList(env.PluginPath.String)
	}
	if env.Output.Valid {
		cfg.Output = env.Output.String
	}
	return nil
}

func splitList(list string) []string {
	var out []string
	for _, dir := range strings.Split(list, string(os.PathListSeparator)) {
		if dir = strings.TrimSpace(dir); dir != "" {
			out = append(out, dir)
		}
	}
	return out
}

func (cfg *Config) Validate() error {
	if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log format %q: must be \"text\" or \"json\"", cfg.Log.Format)
	}
	for ii, job := range cfg.Jobs {
		if err := job.Validate(); err != nil {
			return fmt.Errorf("job %d: %w", ii+1, err)
		}
	}
	return nil
}

func (job Job) Validate() error {
	if job.Source == "" {
		return fmt.Errorf("no source")
	}
	if job.Namespace == "" {
		return fmt.Errorf("%s: no namespace", job.Source)
	}
	switch job.Backend {
	case "", BackendGo:
		if job.Plugin != "" {
			return fmt.Errorf("%s: plugin set for the %s backend", job.Source, BackendGo)
		}
	case BackendWasm:
		if job.Plugin == "" {
			return fmt.Errorf("%s: the %s backend needs a plugin", job.Source, BackendWasm)
		}
	default:
		return fmt.Errorf("%s: unknown backend %q", job.Source, job.Backend)
	}
	return nil
}

// OutputDir is where a job's artifacts are written.
func (cfg *Config) OutputDir(job Job) string {
	if job.Output != "" {
		return job.Output
	}
	return cfg.Output
}

// NewLogger builds the logger described by the configuration.
func (cfg *Config) NewLogger(out io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logrus.New()
	logger.SetOutput(out)
	logger.SetLevel(level)
	switch cfg.Log.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return logger, nil
}
