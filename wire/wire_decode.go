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

package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"google.golang.org/protobuf/proto"

	"go.steamd-lang.org/steamd"
	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/layout"
)

var ErrTrailingData = errors.New("wire: trailing data after message")

// Decode parses buf as one message of the named class. Every byte of buf
// must be consumed.
func (c *Codec) Decode(class string, buf []byte) (*Record, error) {
	r := bytes.NewReader(buf)
	rec, err := c.DecodeFrom(r, class)
	if err != nil {
		return nil, err
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, r.Len())
	}
	return rec, nil
}

func (c *Codec) DecodeFrom(r io.Reader, class string) (*Record, error) {
	plan, err := c.plan(class)
	if err != nil {
		return nil, err
	}
	return c.decode(r, plan)
}

func (c *Codec) decode(r io.Reader, plan *layout.ClassPlan) (*Record, error) {
	rec := &Record{
		Class:  plan.Name(),
		Fields: make(map[string]any, len(plan.Fields)),
	}
	if parent := plan.Parent; parent != nil {
		header, err := c.decode(r, parent)
		if err != nil {
			return nil, err
		}
		rec.Header = header
	}

	for _, f := range plan.Fixed() {
		value, err := c.decodeFixed(r, f)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", plan.Name(), f.Name(), err)
		}
		rec.Fields[f.Name()] = value
	}
	for _, f := range plan.Variable() {
		value, err := c.decodeVariable(r, f, rec)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", plan.Name(), f.Name(), err)
		}
		rec.Fields[f.Name()] = value
	}
	return rec, nil
}

func (c *Codec) decodeFixed(r io.Reader, f *layout.Field) (any, error) {
	if f.Kind == layout.KindArray {
		values := make([]uint64, f.Prop.ArrayLen)
		for ii := range values {
			bits, err := readBits(r, f.Carrier.Size)
			if err != nil {
				return nil, err
			}
			values[ii] = bits
		}
		return valuesOf(f.Carrier, values), nil
	}

	bits, err := readBits(r, f.Carrier.Size)
	if err != nil {
		return nil, err
	}
	switch f.Transform {
	case layout.TransformProtoMask:
		bits = uint64(steamd.GetMsg(uint32(bits)))
	case layout.TransformProtoMaskGC:
		bits = uint64(steamd.GetGCMsg(uint32(bits)))
	}
	return c.scalarValue(f, bits), nil
}

func (c *Codec) decodeVariable(r io.Reader, f *layout.Field, rec *Record) (any, error) {
	if f.Kind == layout.KindClass && f.LengthField == nil {
		sub, err := c.planner.Class(f.Class)
		if err != nil {
			return nil, err
		}
		return c.decode(r, sub)
	}

	payload, err := readPayload(r, f, rec)
	if err != nil {
		return nil, err
	}

	switch f.Kind {
	case layout.KindProto:
		mt, err := c.protoType(f)
		if err != nil {
			return payload, nil
		}
		msg := mt.New().Interface()
		if err := proto.Unmarshal(payload, msg); err != nil {
			return nil, err
		}
		return msg, nil
	case layout.KindClass:
		sub, err := c.planner.Class(f.Class)
		if err != nil {
			return nil, err
		}
		pr := bytes.NewReader(payload)
		nested, err := c.decode(pr, sub)
		if err != nil {
			return nil, err
		}
		if pr.Len() != 0 {
			return nil, fmt.Errorf("%w: %d bytes", ErrTrailingData, pr.Len())
		}
		return nested, nil
	case layout.KindSlice:
		size := f.Carrier.Size
		if len(payload)%size != 0 {
			return nil, steamd.ErrPayloadAlignment
		}
		values := make([]uint64, len(payload)/size)
		for ii := range values {
			values[ii] = loadBits(payload[ii*size:], size)
		}
		return valuesOf(f.Carrier, values), nil
	}
	return nil, fmt.Errorf("%w: unexpected %v field", ErrFieldType, f.Kind)
}

// readPayload reads the bytes framed by f's length field, or the rest of
// the stream if it has none.
func readPayload(r io.Reader, f *layout.Field, rec *Record) ([]byte, error) {
	holder := f.LengthField
	if holder == nil {
		return io.ReadAll(r)
	}
	switch n := rec.Fields[holder.Name()].(type) {
	case uint64:
		return steamd.ReadPayload(r, n)
	case int64:
		return steamd.ReadPayload(r, n)
	}
	return nil, fmt.Errorf("%w: length field %s", ErrFieldType, holder.Name())
}

func readBits(r io.Reader, size int) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:size]); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return loadBits(buf[:], size), nil
}

func loadBits(buf []byte, size int) uint64 {
	switch size {
	case 1:
		return uint64(buf[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf))
	default:
		return binary.LittleEndian.Uint64(buf)
	}
}

func valuesOf(carrier compiler.Primitive, bits []uint64) any {
	switch {
	case carrier.Unsigned && carrier.Size == 1:
		out := make([]byte, len(bits))
		for ii, b := range bits {
			out[ii] = byte(b)
		}
		return out
	case carrier.Unsigned:
		return bits
	default:
		out := make([]int64, len(bits))
		for ii, b := range bits {
			out[ii] = layout.SignExtend(b, carrier)
		}
		return out
	}
}
