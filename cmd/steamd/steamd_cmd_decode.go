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
	"encoding/hex"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"go.steamd-lang.org/steamd/internal/driver"
	"go.steamd-lang.org/steamd/wire"
)

type cmdDecode struct {
	*env
	hex        bool
	supportsGC bool
}

func (*cmdDecode) help() *commandHelp {
	return &commandHelp{
		usage:   "decode [--hex] SOURCE CLASS [INPUT]",
		summary: "Decode one message of a class and print its fields",
	}
}

func (cmd *cmdDecode) flags(flags *pflag.FlagSet) {
	flags.BoolVar(&cmd.hex, "hex", false, "input is hexadecimal text")
	flags.BoolVar(&cmd.supportsGC, "gc", false, "recognize the GC message family")
}

func (cmd *cmdDecode) run(ctx context.Context, argv []string) int {
	diag := newDiagnostics(cmd.stderr)
	if len(argv) < 2 || len(argv) > 3 {
		return diag.usage(cmd.help())
	}

	log := logrus.New()
	log.SetOutput(io.Discard)
	compiled, err := driver.New(cmd.fs, log).Compile(argv[0])
	if err != nil {
		diag.error(err)
		return 1
	}

	var input []byte
	if len(argv) == 3 {
		input, err = afero.ReadFile(cmd.fs, argv[2])
	} else {
		input, err = io.ReadAll(cmd.stdin)
	}
	if err != nil {
		diag.error(err)
		return 1
	}
	if cmd.hex {
		if input, err = hex.DecodeString(strings.Join(strings.Fields(string(input)), "")); err != nil {
			diag.error(err)
			return 1
		}
	}

	codec := wire.NewCodec(compiled.Schema, wire.WithSupportsGC(cmd.supportsGC))
	rec, err := codec.Decode(argv[1], input)
	if err != nil {
		diag.error(err)
		return 1
	}
	if err := codec.DumpTo(cmd.stdout, rec); err != nil {
		diag.error(err)
		return 1
	}
	return 0
}
