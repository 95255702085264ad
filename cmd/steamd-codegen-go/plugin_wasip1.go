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

//go:build wasip1

package main

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// buffers keeps every buffer handed to the host alive.
var buffers = make(map[unsafe.Pointer][]byte)

//go:wasmexport steamd_codegen_allocate
func steamdCodegenAllocate(size uint32) unsafe.Pointer {
	if size > math.MaxInt32 {
		return nil
	}
	buf := make([]byte, int(size)+1)
	ptr := unsafe.Pointer(unsafe.SliceData(buf))
	buffers[ptr] = buf
	return ptr
}

//go:wasmexport steamd_codegen_deallocate
func steamdCodegenDeallocate(ptr unsafe.Pointer) {
	delete(buffers, ptr)
}

//go:wasmexport steamd_codegen_generate
func steamdCodegenGenerate(requestPtr unsafe.Pointer, responseSlot *uint32) uint32 {
	size := binary.LittleEndian.Uint32(unsafe.Slice((*byte)(requestPtr), 4))
	payload := unsafe.Slice((*byte)(unsafe.Add(requestPtr, 4)), size)

	response, rc := respond(payload)
	framed := make([]byte, 4+len(response))
	binary.LittleEndian.PutUint32(framed, uint32(len(response)))
	copy(framed[4:], response)

	ptr := unsafe.Pointer(unsafe.SliceData(framed))
	buffers[ptr] = framed
	*responseSlot = uint32(uintptr(ptr))
	return rc
}
