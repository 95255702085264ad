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
	"io"

	"github.com/fatih/color"

	"go.steamd-lang.org/steamd/internal/driver"
)

// diagnostics prints compiler messages for people. Colors are dropped
// when the output is not a terminal.
type diagnostics struct {
	w    io.Writer
	warn *color.Color
	fail *color.Color
}

func newDiagnostics(w io.Writer) *diagnostics {
	return &diagnostics{
		w:    w,
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed, color.Bold),
	}
}

func (d *diagnostics) warning(w driver.Warning) {
	d.warn.Fprintf(d.w, "warning: %s\n", w)
}

func (d *diagnostics) error(err error) {
	d.fail.Fprintf(d.w, "error: %v\n", err)
}

// usage reports a command line that does not fit the command.
func (d *diagnostics) usage(help *commandHelp) int {
	d.fail.Fprintf(d.w, "usage: steamd %s\n", help.usage)
	return 1
}
