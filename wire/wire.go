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

// Package wire encodes and decodes messages by executing class plans
// directly, without generated code.
//
// Field values in a Record use these Go types:
//
//	scalar            uint64 or int64, by the signedness of the carrier
//	steamidmarshal    steamd.SteamID
//	gameidmarshal     steamd.GameID
//	boolmarshal       bool
//	fixed array       []byte for byte-wide unsigned carriers, else
//	length-bound run  []uint64 or []int64
//	proto payload     proto.Message when the type is registered, else []byte
//	nested class      *Record
//
// Encoding also accepts any Go integer type for scalars.
package wire

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"

	"go.steamd-lang.org/steamd"
	"go.steamd-lang.org/steamd/compiler"
	"go.steamd-lang.org/steamd/layout"
)

var (
	ErrUnknownClass = errors.New("wire: unknown class")
	ErrFieldType    = errors.New("wire: field value has the wrong type")
	ErrArrayLength  = errors.New("wire: array value is longer than its declared length")
)

// Record is one message instance. Header holds the embedded parent, if
// the class declares one.
type Record struct {
	Class  string
	Header *Record
	Fields map[string]any
}

// Get returns the value of a field, searching the header chain.
func (rec *Record) Get(name string) (any, bool) {
	for r := rec; r != nil; r = r.Header {
		if v, ok := r.Fields[name]; ok {
			return v, true
		}
	}
	return nil, false
}

// ProtoTypes finds the Go type of a proto payload by its full name.
// *protoregistry.Types implements it.
type ProtoTypes interface {
	FindMessageByName(protoreflect.FullName) (protoreflect.MessageType, error)
}

type CodecOption interface {
	apply(*Codec)
}

type codecOption func(*Codec)

func (f codecOption) apply(c *Codec) { f(c) }

// WithSupportsGC classifies classes into the GC family, as code
// generation does when the same option is set.
func WithSupportsGC(supportsGC bool) CodecOption {
	return codecOption(func(c *Codec) {
		c.opts.SupportsGC = supportsGC
	})
}

// WithProtoTypes sets where proto payload types are looked up. The
// default is protoregistry.GlobalTypes.
func WithProtoTypes(types ProtoTypes) CodecOption {
	return codecOption(func(c *Codec) {
		c.protos = types
	})
}

type Codec struct {
	schema  *compiler.Schema
	opts    layout.Options
	protos  ProtoTypes
	planner *layout.Planner
}

func NewCodec(schema *compiler.Schema, opts ...CodecOption) *Codec {
	c := &Codec{
		schema: schema,
		protos: protoregistry.GlobalTypes,
	}
	for _, opt := range opts {
		opt.apply(c)
	}
	c.planner = layout.NewPlanner(schema, c.opts)
	return c
}

func (c *Codec) Planner() *layout.Planner {
	return c.planner
}

func (c *Codec) plan(name string) (*layout.ClassPlan, error) {
	class := c.schema.Class(name)
	if class == nil || class.Removed {
		return nil, fmt.Errorf("%w %q", ErrUnknownClass, name)
	}
	return c.planner.Class(class)
}

// New returns a record of the named class with every declared default
// applied. A message's header carries the message's identity tag.
func (c *Codec) New(class string) (*Record, error) {
	plan, err := c.plan(class)
	if err != nil {
		return nil, err
	}
	return c.newRecord(plan)
}

func (c *Codec) newRecord(plan *layout.ClassPlan) (*Record, error) {
	rec := &Record{
		Class:  plan.Name(),
		Fields: make(map[string]any, len(plan.Fields)),
	}
	if parent := plan.Parent; parent != nil {
		header, err := c.newRecord(parent)
		if err != nil {
			return nil, err
		}
		rec.Header = header
		if plan.Role == layout.RoleMessage && parent.TagField != nil {
			if tag, ok := c.Identity(plan); ok {
				header.Fields[parent.TagField.Name()] = c.scalarValue(parent.TagField, tag)
			}
		}
	}

	for _, f := range plan.Fields {
		switch f.Kind {
		case layout.KindScalar:
			var bits uint64
			if len(f.Prop.Default) > 0 {
				v, ok := c.planner.Eval(f.Prop.Default)
				if !ok {
					return nil, fmt.Errorf("%s.%s: default value cannot be evaluated", plan.Name(), f.Name())
				}
				bits = v
			}
			rec.Fields[f.Name()] = c.scalarValue(f, bits)
		case layout.KindArray:
			rec.Fields[f.Name()] = makeValues(f.Carrier, f.Prop.ArrayLen)
		case layout.KindSlice:
			rec.Fields[f.Name()] = makeValues(f.Carrier, 0)
		case layout.KindProto:
			if mt, err := c.protoType(f); err == nil {
				rec.Fields[f.Name()] = mt.New().Interface()
			} else {
				rec.Fields[f.Name()] = []byte{}
			}
		case layout.KindClass:
			sub, err := c.planner.Class(f.Class)
			if err != nil {
				return nil, err
			}
			nested, err := c.newRecord(sub)
			if err != nil {
				return nil, err
			}
			rec.Fields[f.Name()] = nested
		}
	}
	return rec, nil
}

// Identity evaluates a message class's identity tag.
func (c *Codec) Identity(plan *layout.ClassPlan) (uint64, bool) {
	if plan.Class.Ident == nil {
		return 0, false
	}
	return c.planner.Eval([]compiler.Symbol{plan.Class.Ident})
}

func (c *Codec) protoType(f *layout.Field) (protoreflect.MessageType, error) {
	name := protoreflect.FullName(f.ProtoType)
	mt, err := c.protos.FindMessageByName(name)
	if err == nil {
		return mt, nil
	}
	if short := name.Name(); protoreflect.FullName(short) != name {
		if mt, shortErr := c.protos.FindMessageByName(protoreflect.FullName(short)); shortErr == nil {
			return mt, nil
		}
	}
	return nil, err
}

func (c *Codec) scalarValue(f *layout.Field, bits uint64) any {
	switch f.Transform {
	case layout.TransformSteamID:
		return steamd.SteamID(bits)
	case layout.TransformGameID:
		return steamd.GameID(bits)
	case layout.TransformBool:
		return layout.Mask(bits, f.Carrier) != 0
	}
	return number(f.Carrier, bits)
}

func number(carrier compiler.Primitive, bits uint64) any {
	bits = layout.Mask(bits, carrier)
	if carrier.Unsigned {
		return bits
	}
	return layout.SignExtend(bits, carrier)
}

func makeValues(carrier compiler.Primitive, n int) any {
	switch {
	case carrier.Unsigned && carrier.Size == 1:
		return make([]byte, n)
	case carrier.Unsigned:
		return make([]uint64, n)
	default:
		return make([]int64, n)
	}
}
