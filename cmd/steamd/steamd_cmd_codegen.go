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
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"go.steamd-lang.org/steamd/codegen"
	"go.steamd-lang.org/steamd/codegen/golang"
	"go.steamd-lang.org/steamd/codegen/wasmplugin"
	"go.steamd-lang.org/steamd/internal/config"
	"go.steamd-lang.org/steamd/internal/driver"
)

type cmdCodegen struct {
	*env
	flagSet *pflag.FlagSet

	configPath string
	job        config.Job
	output     string
	pluginPath []string
	logLevel   string
	logFormat  string
}

func (*cmdCodegen) help() *commandHelp {
	return &commandHelp{
		usage:   "codegen [options] [FILE]",
		summary: "Generate code for a source file or for every job of a config file",
	}
}

func (cmd *cmdCodegen) flags(flags *pflag.FlagSet) {
	cmd.flagSet = flags
	flags.StringVarP(&cmd.configPath, "config", "c", "", "TOML config file listing jobs")
	flags.StringVarP(&cmd.job.Namespace, "namespace", "n", "", "namespace of the generated code")
	flags.StringVarP(&cmd.output, "output", "o", "", "directory to write artifacts to")
	flags.StringVar(&cmd.job.File, "file", "", "base name of the artifacts (default: source name)")
	flags.BoolVar(&cmd.job.SupportsGC, "gc", false, "recognize the GC message family")
	flags.StringVar(&cmd.job.Backend, "backend", config.BackendGo, "backend: go or wasm")
	flags.StringVar(&cmd.job.Plugin, "plugin", "", "wasm plugin: a language name or a .wasm path")
	flags.StringSliceVar(&cmd.pluginPath, "plugin-path", nil, "directories searched for wasm plugins")
	flags.StringVar(&cmd.logLevel, "log-level", "", "log level")
	flags.StringVar(&cmd.logFormat, "log-format", "", "log format: text or json")
}

func (cmd *cmdCodegen) run(ctx context.Context, argv []string) int {
	diag := newDiagnostics(cmd.stderr)
	if len(argv) > 1 {
		return diag.usage(cmd.help())
	}

	cfg, err := config.Load(cmd.fs, cmd.configPath, cmd.lookupEnv)
	if err != nil {
		diag.error(err)
		return 1
	}
	cmd.override(&cfg, argv)
	if err := cfg.Validate(); err != nil {
		diag.error(err)
		return 1
	}
	if len(cfg.Jobs) == 0 {
		diag.error(fmt.Errorf("nothing to do: pass a source file or a config file with [[job]] entries"))
		return 1
	}

	logger, err := cfg.NewLogger(cmd.stderr)
	if err != nil {
		diag.error(err)
		return 1
	}
	d := driver.New(cmd.fs, logger)
	for _, job := range cfg.Jobs {
		gen, err := cmd.generator(cfg, job)
		if err != nil {
			diag.error(err)
			return 1
		}
		result, err := d.Run(ctx, job, cfg.OutputDir(job), gen, cfg.Go.Options())
		if err != nil {
			diag.error(err)
			return 1
		}
		logger.WithFields(logrus.Fields{
			"source":    job.Source,
			"artifacts": len(result.Artifacts),
			"warnings":  len(result.Warnings),
		}).Debug("job done")
	}
	return 0
}

// override applies the flags given on the command line. A source
// argument replaces the configured jobs with a single one.
func (cmd *cmdCodegen) override(cfg *config.Config, argv []string) {
	if cmd.flagSet.Changed("log-level") {
		cfg.Log.Level = cmd.logLevel
	}
	if cmd.flagSet.Changed("log-format") {
		cfg.Log.Format = cmd.logFormat
	}
	if cmd.flagSet.Changed("output") {
		cfg.Output = cmd.output
	}
	if cmd.flagSet.Changed("plugin-path") {
		cfg.PluginPath = cmd.pluginPath
	}
	if len(argv) == 1 {
		job := cmd.job
		job.Source = argv[0]
		cfg.Jobs = []config.Job{job}
	}
}

func (cmd *cmdCodegen) generator(cfg config.Config, job config.Job) (codegen.Generator, error) {
	if job.Backend != config.BackendWasm {
		return &codegen.BackendGenerator{Backend: golang.New()}, nil
	}
	path := job.Plugin
	if !strings.HasSuffix(path, ".wasm") && !strings.ContainsRune(path, filepath.Separator) {
		located, err := wasmplugin.Locate(cmd.fs, cfg.PluginPath, job.Plugin)
		if err != nil {
			return nil, err
		}
		path = located
	}
	return wasmplugin.Load(cmd.fs, path, wasmplugin.WithStderr(cmd.stderr))
}
