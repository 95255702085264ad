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

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"go.steamd-lang.org/steamd/syntax"
)

type cmdTokens struct {
	*env
}

func (*cmdTokens) help() *commandHelp {
	return &commandHelp{
		usage:   "tokens FILE",
		summary: "Print the tokens of a source file",
	}
}

func (cmd *cmdTokens) flags(flags *pflag.FlagSet) {}

func (cmd *cmdTokens) run(ctx context.Context, argv []string) int {
	diag := newDiagnostics(cmd.stderr)
	if len(argv) != 1 {
		return diag.usage(cmd.help())
	}
	src, err := afero.ReadFile(cmd.fs, argv[0])
	if err != nil {
		diag.error(err)
		return 1
	}
	for _, token := range syntax.Tokenize(src) {
		pos := syntax.PositionOf(src, token.Offset)
		if _, err := fmt.Fprintf(cmd.stdout, "%v\t%v\t%s\n", pos, token.Kind, token.Text); err != nil {
			diag.error(err)
			return 1
		}
	}
	return 0
}
