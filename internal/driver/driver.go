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

// Package driver runs compile jobs end to end: it reads sources through
// an afero.Fs, follows #import directives, compiles, runs a generator,
// and writes the resulting artifacts.
package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"go.steamd-lang.org/steamd/codegen"
	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/internal/config"
	"go.steamd-lang.org/steamd/syntax"
)

const importDirective = "import"

var ErrNoArtifacts = errors.New("generator produced no files")

type Driver struct {
	fs  afero.Fs
	log logrus.FieldLogger
}

func New(fs afero.Fs, log logrus.FieldLogger) *Driver {
	return &Driver{fs: fs, log: log}
}

// LoadSources reads the file at path and every file it imports. Imports
// are resolved relative to the importing file and read once each; every
// file comes after the files it imports.
func (d *Driver) LoadSources(path string) ([]syntax.Source, error) {
	var sources []syntax.Source
	seen := make(map[string]bool)

	var visit func(path, from string) error
	visit = func(path, from string) error {
		path = filepath.Clean(path)
		if seen[path] {
			return nil
		}
		seen[path] = true

		data, err := afero.ReadFile(d.fs, path)
		if err != nil {
			if from != "" {
				return fmt.Errorf("%s: import %s: %w", from, path, err)
			}
			return err
		}
		src := syntax.Source{Path: path, Text: string(data)}
		doc, err := syntax.NewSourceSet(src).Parse()
		if err != nil {
			return err
		}
		for _, directive := range doc.Directives() {
			if directive.Name() != importDirective {
				d.log.WithField("source", path).Debugf("ignoring #%s directive", directive.Name())
				continue
			}
			arg, ok := directive.Arg()
			if !ok || arg == "" {
				return fmt.Errorf("%s: #import without a path", path)
			}
			if !filepath.IsAbs(arg) {
				arg = filepath.Join(filepath.Dir(path), arg)
			}
			if err := visit(arg, path); err != nil {
				return err
			}
		}
		sources = append(sources, src)
		return nil
	}

	if err := visit(path, ""); err != nil {
		return nil, err
	}
	return sources, nil
}

// Warning is a compiler warning positioned within its source file.
type Warning struct {
	Path    string
	Pos     syntax.Position
	Warning *compiler.Warning
}

func (w Warning) String() string {
	return fmt.Sprintf("%s:%v: %v", w.Path, w.Pos, w.Warning)
}

// Compiled is the outcome of compiling one job's sources.
type Compiled struct {
	Sources  []syntax.Source
	Schema   *compiler.Schema
	Warnings []Warning
}

// Compile loads and compiles the source at path. Errors carry the file
// and position they refer to.
func (d *Driver) Compile(path string) (*Compiled, error) {
	sources, err := d.LoadSources(path)
	if err != nil {
		return nil, err
	}
	set := syntax.NewSourceSet(sources...)
	doc, err := set.Parse()
	if err != nil {
		return nil, err
	}
	result, err := compiler.Compile(doc, compiler.WithSourcePath(path))
	if err != nil {
		return nil, set.Wrap(err)
	}

	out := &Compiled{
		Sources: sources,
		Schema:  result.Schema,
	}
	for _, warning := range result.Warnings {
		file, pos := set.Locate(warning.Span().Start())
		out.Warnings = append(out.Warnings, Warning{
			Path:    file,
			Pos:     pos,
			Warning: warning,
		})
	}
	return out, nil
}

// Result describes one completed job.
type Result struct {
	Warnings  []Warning
	Artifacts []string
}

// Run compiles job, renders it with gen, and writes the artifacts under
// outDir. Either every artifact is written or none is.
func (d *Driver) Run(
	ctx context.Context,
	job config.Job,
	outDir string,
	gen codegen.Generator,
	options map[string]string,
) (*Result, error) {
	log := d.log.WithFields(logrus.Fields{
		"source":    job.Source,
		"namespace": job.Namespace,
	})

	compiled, err := d.Compile(job.Source)
	if err != nil {
		return nil, err
	}
	for _, warning := range compiled.Warnings {
		log.Warn(warning.String())
	}

	resp, err := gen.Generate(ctx, &codegen.Request{
		Sources:    compiled.Sources,
		File:       job.File,
		Namespace:  job.Namespace,
		SupportsGC: job.SupportsGC,
		Options:    options,
		Schema:     compiled.Schema,
	})
	if err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	if len(resp.Files) == 0 {
		return nil, ErrNoArtifacts
	}

	paths, err := d.writeAll(outDir, resp.Files)
	if err != nil {
		return nil, err
	}
	for ii, path := range paths {
		log.WithFields(logrus.Fields{
			"artifact": path,
			"bytes":    len(resp.Files[ii].Content),
		}).Info("wrote artifact")
	}
	return &Result{
		Warnings:  compiled.Warnings,
		Artifacts: paths,
	}, nil
}

// writeAll stages every file next to its destination, then renames the
// staged files into place once all of them were written.
func (d *Driver) writeAll(outDir string, files []codegen.OutputFile) ([]string, error) {
	paths := make([]string, len(files))
	for ii := range files {
		path, err := files[ii].Join(outDir)
		if err != nil {
			return nil, err
		}
		paths[ii] = path
	}

	var staged []string
	cleanup := func() {
		for _, tmp := range staged {
			d.fs.Remove(tmp)
		}
	}
	for ii, file := range files {
		tmp, err := d.stage(paths[ii], file.Content)
		if err != nil {
			cleanup()
			return nil, err
		}
		staged = append(staged, tmp)
	}
	for ii, tmp := range staged {
		if err := d.fs.Rename(tmp, paths[ii]); err != nil {
			staged = staged[ii:]
			cleanup()
			return nil, err
		}
	}
	return paths, nil
}

func (d *Driver) stage(path string, content []byte) (string, error) {
	dir := filepath.Dir(path)
	if err := d.fs.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	fp, err := afero.TempFile(d.fs, dir, ".steamd-")
	if err != nil {
		return "", err
	}
	_, writeErr := fp.Write(content)
	closeErr := fp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		d.fs.Remove(fp.Name())
		return "", err
	}
	if err := d.fs.Chmod(fp.Name(), 0o644); err != nil {
		d.fs.Remove(fp.Name())
		return "", err
	}
	return fp.Name(), nil
}
