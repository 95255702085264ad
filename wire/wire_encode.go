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
	"fmt"
	"io"
	"reflect"

	"google.golang.org/protobuf/proto"

	"go.steamd-lang.org/steamd"
	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/layout"
)

// Encode renders rec. Length fields in rec, and in any nested record,
// are updated to the byte length of the payloads they frame.
func (c *Codec) Encode(rec *Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.EncodeTo(&buf, rec); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Codec) EncodeTo(w io.Writer, rec *Record) error {
	plan, err := c.plan(rec.Class)
	if err != nil {
		return err
	}
	buf, err := c.encode(nil, plan, rec)
	if err != nil {
		return err
	}
	_, err = w.Write(buf)
	return err
}

func (c *Codec) encode(buf []byte, plan *layout.ClassPlan, rec *Record) ([]byte, error) {
	if rec.Fields == nil {
		rec.Fields = make(map[string]any)
	}

	variable := plan.Variable()
	payloads := make([][]byte, len(variable))
	for ii, f := range variable {
		payload, err := c.encodePayload(f, rec.Fields[f.Name()])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", plan.Name(), f.Name(), err)
		}
		payloads[ii] = payload
		if holder := f.LengthField; holder != nil {
			n, err := lengthBits(len(payload), holder.Carrier)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", plan.Name(), f.Name(), err)
			}
			rec.Fields[holder.Name()] = number(holder.Carrier, n)
		}
	}

	if parent := plan.Parent; parent != nil {
		header := rec.Header
		if header == nil {
			var err error
			if header, err = c.newRecord(parent); err != nil {
				return nil, err
			}
		}
		var err error
		if buf, err = c.encode(buf, parent, header); err != nil {
			return nil, err
		}
	}

	for _, f := range plan.Fixed() {
		var err error
		if buf, err = c.encodeFixed(buf, f, rec.Fields[f.Name()]); err != nil {
			return nil, fmt.Errorf("%s.%s: %w", plan.Name(), f.Name(), err)
		}
	}
	for _, payload := range payloads {
		buf = append(buf, payload...)
	}
	return buf, nil
}

func (c *Codec) encodeFixed(buf []byte, f *layout.Field, value any) ([]byte, error) {
	if f.Kind == layout.KindArray {
		values, err := elements(value)
		if err != nil {
			return nil, err
		}
		if len(values) > f.Prop.ArrayLen {
			return nil, fmt.Errorf("%w: %d > %d", ErrArrayLength, len(values), f.Prop.ArrayLen)
		}
		for ii := 0; ii < f.Prop.ArrayLen; ii++ {
			var bits uint64
			if ii < len(values) {
				bits = values[ii]
			}
			buf = appendBits(buf, bits, f.Carrier.Size)
		}
		return buf, nil
	}

	bits, err := bitsOf(value)
	if err != nil {
		return nil, err
	}
	switch f.Transform {
	case layout.TransformProtoMask:
		bits = uint64(steamd.MakeMsg(uint32(bits), true))
	case layout.TransformProtoMaskGC:
		bits = uint64(steamd.MakeGCMsg(uint32(bits), true))
	}
	return appendBits(buf, bits, f.Carrier.Size), nil
}

func (c *Codec) encodePayload(f *layout.Field, value any) ([]byte, error) {
	switch f.Kind {
	case layout.KindProto:
		switch v := value.(type) {
		case nil:
			return nil, nil
		case []byte:
			return v, nil
		case proto.Message:
			return proto.Marshal(v)
		}
	case layout.KindClass:
		sub, err := c.planner.Class(f.Class)
		if err != nil {
			return nil, err
		}
		var nested *Record
		switch v := value.(type) {
		case nil:
		case *Record:
			nested = v
		default:
			return nil, fmt.Errorf("%w: %T for %v field", ErrFieldType, value, f.Kind)
		}
		if nested == nil {
			if nested, err = c.newRecord(sub); err != nil {
				return nil, err
			}
		}
		return c.encode(nil, sub, nested)
	case layout.KindSlice:
		values, err := elements(value)
		if err != nil {
			return nil, err
		}
		buf := make([]byte, 0, len(values)*f.Carrier.Size)
		for _, bits := range values {
			buf = appendBits(buf, bits, f.Carrier.Size)
		}
		return buf, nil
	}
	return nil, fmt.Errorf("%w: %T for %v field", ErrFieldType, value, f.Kind)
}

func lengthBits(n int, carrier compiler.Primitive) (uint64, error) {
	v := uint64(n)
	if n < 0 || v > uint64(steamd.MaxPayloadSize) || layout.Mask(v, carrier) != v ||
		layout.SignExtend(v, carrier) < 0 {
		return 0, fmt.Errorf("%w: %d bytes", steamd.ErrPayloadTooLarge, n)
	}
	return v, nil
}

func appendBits(buf []byte, bits uint64, size int) []byte {
	switch size {
	case 1:
		return append(buf, byte(bits))
	case 2:
		return binary.LittleEndian.AppendUint16(buf, uint16(bits))
	case 4:
		return binary.LittleEndian.AppendUint32(buf, uint32(bits))
	default:
		return binary.LittleEndian.AppendUint64(buf, bits)
	}
}

// bitsOf converts a scalar field value to its two's-complement bits.
func bitsOf(value any) (uint64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case steamd.SteamID:
		return v.ToUint64(), nil
	case steamd.GameID:
		return v.ToUint64(), nil
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return uint64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	}
	return 0, fmt.Errorf("%w: %T is not an integer", ErrFieldType, value)
}

func elements(value any) ([]uint64, error) {
	if value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok {
		value = []byte(s)
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("%w: %T is not a list", ErrFieldType, value)
	}
	out := make([]uint64, rv.Len())
	for ii := range out {
		bits, err := bitsOf(rv.Index(ii).Interface())
		if err != nil {
			return nil, err
		}
		out[ii] = bits
	}
	return out, nil
}
