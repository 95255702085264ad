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

// Command steamd-codegen-go is the Go backend as a stand-alone
// generator. It reads a JSON code generation request on stdin and writes
// the JSON response to stdout. Built for wasip1, it is a plugin for
// `steamd codegen --backend=wasm`.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mailru/easyjson"

	"go.steamd-lang.org/steamd/codegen"
	"go.steamd-lang.org/steamd/codegen/golang"
)

func main() {
	payload, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	response, rc := respond(payload)
	if _, err := os.Stdout.Write(response); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(int(rc))
}

// respond runs one request through the Go backend. A non-zero status
// comes with a response carrying the error.
func respond(payload []byte) ([]byte, uint32) {
	req := &codegen.Request{}
	if err := easyjson.Unmarshal(payload, req); err != nil {
		return errorResponse(fmt.Errorf("decode request: %w", err))
	}
	resp, err := codegen.Generate(req, golang.New())
	if err != nil {
		return errorResponse(err)
	}
	buf, err := easyjson.Marshal(resp)
	if err != nil {
		return errorResponse(err)
	}
	return buf, 0
}

func errorResponse(err error) ([]byte, uint32) {
	buf, _ := easyjson.Marshal(&codegen.Response{Error: err.Error()})
	return buf, 1
}
