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

package steamd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

var ErrPayloadAlignment = errors.New("steamd: payload length is not a multiple of the element size")

// LengthOf converts a payload length to the type of its length field.
func LengthOf[T Integer](n int) (T, error) {
	if n < 0 || uint64(n) > uint64(MaxPayloadSize) || int(T(n)) != n {
		return 0, ErrPayloadTooLarge
	}
	return T(n), nil
}

// ReadPayload reads exactly n bytes, where n was read from a length
// field. Memory grows with the bytes actually read, not with n.
func ReadPayload[T Integer](r io.Reader, n T) ([]byte, error) {
	size, err := CheckPayloadLen(n)
	if err != nil {
		return nil, err
	}
	buf, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, err
	}
	if len(buf) != size {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}

// Marshal renders a nested message into its own buffer.
func Marshal(msg Serializable) ([]byte, error) {
	var buf bytes.Buffer
	if err := msg.Serialize(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MarshalValues renders a run of fixed-width values.
func MarshalValues[T any](values []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := binary.Write(&buf, ByteOrder, values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalValues decodes a run of fixed-width values filling buf.
func UnmarshalValues[T any](buf []byte) ([]T, error) {
	var zero T
	size := binary.Size(zero)
	if size <= 0 {
		return nil, fmt.Errorf("steamd: %T is not a fixed-width type", zero)
	}
	if len(buf)%size != 0 {
		return nil, ErrPayloadAlignment
	}
	out := make([]T, len(buf)/size)
	if err := binary.Read(bytes.NewReader(buf), ByteOrder, out); err != nil {
		return nil, err
	}
	return out, nil
}
