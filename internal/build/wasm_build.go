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

// Command build compiles a steamd code generator into a wasip1 reactor
// module loadable by `steamd codegen --backend=wasm`.
//
//	go run ./internal/build --output=steamd-codegen-go.wasm ./cmd/steamd-codegen-go
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/pflag"
)

const (
	toolchainGo     = "go"
	toolchainTinyGo = "tinygo"
)

type buildOptions struct {
	toolchain string
	compiler  string
	output    string
	wasmOpt   string
	packages  []string
}

func main() {
	opts := buildOptions{}
	chdir := ""
	flags := pflag.NewFlagSet("build", pflag.ExitOnError)
	flags.StringVar(&opts.toolchain, "toolchain", toolchainGo, "compiler family: go or tinygo")
	flags.StringVar(&opts.compiler, "compiler", "", "compiler binary (default: the toolchain name, found in $PATH)")
	flags.StringVarP(&opts.output, "output", "o", "", "path of the module to write")
	flags.StringVar(&opts.wasmOpt, "wasm-opt", "", "wasm-opt binary used by tinygo")
	flags.StringVar(&chdir, "chdir", "", "directory to build in")
	flags.Parse(os.Args[1:])
	opts.packages = flags.Args()

	pwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if opts.output != "" && !filepath.IsAbs(opts.output) {
		opts.output = filepath.Join(pwd, opts.output)
	}

	name, args, env, err := buildCommand(opts, os.Environ())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cmd := exec.Command(name, args...)
	cmd.Env = env
	cmd.Dir = filepath.Join(pwd, chdir)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// buildCommand returns the compiler invocation for opts, run with the
// given environment.
func buildCommand(opts buildOptions, environ []string) (string, []string, []string, error) {
	if opts.output == "" {
		return "", nil, nil, fmt.Errorf("No output path specified (set --output=)")
	}
	if len(opts.packages) == 0 {
		return "", nil, nil, fmt.Errorf("No package to build")
	}
	name := opts.compiler
	if name == "" {
		name = opts.toolchain
	}

	env := append([]string(nil), environ...)
	var args []string
	switch opts.toolchain {
	case toolchainGo:
		args = []string{"build", "-buildmode=c-shared", "-o=" + opts.output}
		env = append(env, "GOOS=wasip1", "GOARCH=wasm")
	case toolchainTinyGo:
		args = []string{"build", "-target=wasip1", "-buildmode=c-shared", "-o=" + opts.output}
		if opts.wasmOpt != "" {
			env = append(env, "WASMOPT="+opts.wasmOpt)
		}
	default:
		return "", nil, nil, fmt.Errorf("Unknown toolchain %q", opts.toolchain)
	}
	return name, append(args, opts.packages...), env, nil
}
