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

// Package steamd holds the runtime support shared by code generated from
// steamd protocol definitions.
package steamd

import (
	"encoding/binary"
	"errors"
	"io"
)

// ProtoMask marks a message id whose body is protobuf-encoded.
const ProtoMask uint32 = 0x80000000

// MaxPayloadSize bounds any single length-prefixed payload read from the
// wire.
const MaxPayloadSize uint32 = 0x7FF00000

var ByteOrder = binary.LittleEndian

var ErrPayloadTooLarge = errors.New("steamd: payload exceeds maximum size")

// Serializable is implemented by every generated message type.
type Serializable interface {
	Serialize(w io.Writer) error
	Deserialize(r io.Reader) error
}

func MakeMsg(msg uint32, protobuf bool) uint32 {
	if protobuf {
		return msg | ProtoMask
	}
	return msg
}

func GetMsg(raw uint32) uint32 {
	return raw &^ ProtoMask
}

func MakeGCMsg(msg uint32, protobuf bool) uint32 {
	if protobuf {
		return msg | ProtoMask
	}
	return msg
}

func GetGCMsg(raw uint32) uint32 {
	return raw &^ ProtoMask
}

func IsProtoBuf(raw uint32) bool {
	return raw&ProtoMask != 0
}

// Integer is any fixed-width integer a length field may be declared as.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// CheckPayloadLen validates a length read from a sibling length field
// before that many bytes are read.
func CheckPayloadLen[T Integer](n T) (int, error) {
	if n < 0 || uint64(n) > uint64(MaxPayloadSize) {
		return 0, ErrPayloadTooLarge
	}
	return int(n), nil
}
