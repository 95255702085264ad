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

// Package wasmplugin runs code generators compiled to WebAssembly.
//
// A plugin exports its linear memory and two functions:
//
//	steamd_codegen_allocate(len u32) -> ptr u32
//	steamd_codegen_generate(request_ptr u32, response_ptr_ptr u32) -> rc u8
//
// The host allocates a buffer, writes the framed request into it, and
// allocates a 4-byte slot. The plugin stores a pointer to the framed
// response in the slot. A frame is a little-endian uint32 length
// followed by that many bytes of JSON. A non-zero rc means the response
// carries an error.
package wasmplugin

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/mailru/easyjson"
	"github.com/spf13/afero"
	wasm "github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"go.steamd-lang.org/steamd/codegen"
)

const (
	AllocateExport = "steamd_codegen_allocate"
	GenerateExport = "steamd_codegen_generate"

	defaultMemoryLimitPages = 16384
)

var (
	ErrNotFound    = errors.New("codegen plugin not found")
	ErrBadPlugin   = errors.New("malformed codegen plugin")
	ErrShortFrame  = errors.New("frame is shorter than its length prefix")
	ErrEmptySearch = errors.New("no plugin path set")
)

// Frame prefixes payload with its length.
func Frame(payload []byte) []byte {
	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(buf, uint32(len(payload)))
	copy(buf[4:], payload)
	return buf
}

// Unframe returns the payload of a framed buffer. Bytes past the end of
// the frame are ignored.
func Unframe(buf []byte) ([]byte, error) {
	if len(buf) < 4 {
		return nil, ErrShortFrame
	}
	size := binary.LittleEndian.Uint32(buf)
	if uint64(len(buf)-4) < uint64(size) {
		return nil, ErrShortFrame
	}
	return buf[4 : 4+size], nil
}

// FileName is the file a plugin for language is expected to live in.
func FileName(language string) string {
	return fmt.Sprintf("steamd-codegen-%s.wasm", language)
}

// Locate searches each directory of searchPath, in order, for the
// plugin generating language.
func Locate(fs afero.Fs, searchPath []string, language string) (string, error) {
	if len(searchPath) == 0 {
		return "", ErrEmptySearch
	}
	basename := FileName(language)
	for _, dir := range searchPath {
		if dir == "" {
			continue
		}
		pluginPath := filepath.Join(dir, basename)
		if info, err := fs.Stat(pluginPath); err == nil && !info.IsDir() {
			return pluginPath, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, basename)
}

type Option interface {
	apply(*options)
}

type options struct {
	memoryLimitPages uint32
	stderr           io.Writer
}

type optionFunc func(*options)

func (fn optionFunc) apply(opts *options) {
	fn(opts)
}

// WithMemoryLimitPages caps the plugin's linear memory, in 64 KiB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return optionFunc(func(opts *options) {
		opts.memoryLimitPages = pages
	})
}

// WithStderr receives whatever the plugin writes to its standard error.
func WithStderr(w io.Writer) Option {
	return optionFunc(func(opts *options) {
		opts.stderr = w
	})
}

// Plugin is a compiled-to-wasm code generator. Each Generate call runs
// in a fresh runtime.
type Plugin struct {
	name string
	bin  []byte
	opts options
}

var _ codegen.Generator = (*Plugin)(nil)

func New(name string, bin []byte, opts ...Option) *Plugin {
	p := &Plugin{
		name: name,
		bin:  bin,
		opts: options{
			memoryLimitPages: defaultMemoryLimitPages,
			stderr:           io.Discard,
		},
	}
	for _, opt := range opts {
		opt.apply(&p.opts)
	}
	return p
}

// Load reads the plugin at path.
func Load(fs afero.Fs, path string, opts ...Option) (*Plugin, error) {
	bin, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return New(filepath.Base(path), bin, opts...), nil
}

func (p *Plugin) Name() string {
	return p.name
}

func (p *Plugin) Generate(ctx context.Context, req *codegen.Request) (*codegen.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reqBuf, err := easyjson.Marshal(req)
	if err != nil {
		return nil, err
	}
	respBuf, rc, err := p.call(ctx, Frame(reqBuf))
	if err != nil {
		return nil, fmt.Errorf("plugin %s: %w", p.name, err)
	}

	resp := &codegen.Response{}
	if err := easyjson.Unmarshal(respBuf, resp); err != nil {
		return nil, fmt.Errorf("plugin %s: decode response: %w", p.name, err)
	}
	if rc != 0 && resp.Error == "" {
		resp.Error = fmt.Sprintf("plugin %s failed with status %d", p.name, rc)
	}
	return resp, nil
}

func (p *Plugin) call(ctx context.Context, request []byte) ([]byte, uint8, error) {
	runtimeConfig := wasm.NewRuntimeConfigInterpreter()
	runtimeConfig = runtimeConfig.WithMemoryLimitPages(p.opts.memoryLimitPages)
	runtimeConfig = runtimeConfig.WithCloseOnContextDone(true)
	runtime := wasm.NewRuntimeWithConfig(ctx, runtimeConfig)
	defer runtime.Close(ctx)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, runtime); err != nil {
		return nil, 0, err
	}
	compiled, err := runtime.CompileModule(ctx, p.bin)
	if err != nil {
		return nil, 0, err
	}
	moduleConfig := wasm.NewModuleConfig().
		WithStartFunctions("_initialize").
		WithStderr(p.opts.stderr)
	module, err := runtime.InstantiateModule(ctx, compiled, moduleConfig)
	if err != nil {
		return nil, 0, err
	}

	allocate := module.ExportedFunction(AllocateExport)
	generate := module.ExportedFunction(GenerateExport)
	mem := module.Memory()
	switch {
	case allocate == nil:
		return nil, 0, fmt.Errorf("%w: missing export %s", ErrBadPlugin, AllocateExport)
	case generate == nil:
		return nil, 0, fmt.Errorf("%w: missing export %s", ErrBadPlugin, GenerateExport)
	case mem == nil:
		return nil, 0, fmt.Errorf("%w: no exported memory", ErrBadPlugin)
	}

	requestPtr, err := alloc(ctx, allocate, uint32(len(request)))
	if err != nil {
		return nil, 0, err
	}
	if !mem.Write(requestPtr, request) {
		return nil, 0, fmt.Errorf("%w: request buffer out of range", ErrBadPlugin)
	}
	slot, err := alloc(ctx, allocate, 4)
	if err != nil {
		return nil, 0, err
	}

	results, err := generate.Call(ctx, uint64(requestPtr), uint64(slot))
	if err != nil {
		return nil, 0, err
	}
	if len(results) != 1 {
		return nil, 0, fmt.Errorf("%w: %s returned %d values", ErrBadPlugin, GenerateExport, len(results))
	}
	rc := uint8(results[0])

	response, err := readFrame(mem, slot)
	if err != nil {
		return nil, rc, err
	}
	return response, rc, nil
}

func alloc(ctx context.Context, allocate api.Function, size uint32) (uint32, error) {
	results, err := allocate.Call(ctx, uint64(size))
	if err != nil {
		return 0, err
	}
	if len(results) != 1 || (results[0] == 0 && size > 0) {
		return 0, fmt.Errorf("%w: allocation of %d bytes failed", ErrBadPlugin, size)
	}
	return uint32(results[0]), nil
}

// readFrame follows the pointer stored at slot and copies out the frame
// it points to. The copy outlives the module's memory.
func readFrame(mem api.Memory, slot uint32) ([]byte, error) {
	responsePtr, ok := mem.ReadUint32Le(slot)
	if !ok {
		return nil, fmt.Errorf("%w: response slot out of range", ErrBadPlugin)
	}
	size, ok := mem.ReadUint32Le(responsePtr)
	if !ok {
		return nil, fmt.Errorf("%w: failed to read response length", ErrBadPlugin)
	}
	buf, ok := mem.Read(responsePtr+4, size)
	if !ok {
		return nil, fmt.Errorf("%w: failed to read response", ErrBadPlugin)
	}
	return append([]byte(nil), buf...), nil
}
