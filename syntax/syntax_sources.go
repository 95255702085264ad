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

package syntax

import (
	"errors"
	"fmt"
	"sort"
)

// Source is one named input file.
type Source struct {
	Path string
	Text string
}

// SourceSet parses several sources as one document, in order, and maps
// spans of that document back to the file they came from.
type SourceSet struct {
	sources []Source
	starts  []uint32
	text    []byte
}

func NewSourceSet(sources ...Source) *SourceSet {
	set := &SourceSet{sources: sources}
	for _, src := range sources {
		set.starts = append(set.starts, uint32(len(set.text)))
		set.text = append(set.text, src.Text...)
		set.text = append(set.text, '\n')
	}
	return set
}

func (s *SourceSet) Sources() []Source {
	return s.sources
}

// Parse checks every source on its own, so that an unterminated block
// cannot run into the next file, then parses their concatenation.
func (s *SourceSet) Parse() (*Document, error) {
	for _, src := range s.sources {
		if _, err := Parse([]byte(src.Text)); err != nil {
			return nil, locate(src, err)
		}
	}
	doc, err := Parse(s.text)
	if err != nil {
		return nil, s.Wrap(err)
	}
	return doc, nil
}

// Locate maps an offset of the combined document to a source path and
// a position within that source.
func (s *SourceSet) Locate(offset uint32) (string, Position) {
	if len(s.sources) == 0 {
		return "", Position{Line: 1, Column: 1}
	}
	idx := sort.Search(len(s.starts), func(ii int) bool {
		return s.starts[ii] > offset
	}) - 1
	if idx < 0 {
		idx = 0
	}
	src := s.sources[idx]
	return src.Path, PositionOf([]byte(src.Text), offset-s.starts[idx])
}

// Wrap attaches a file position to err if it carries a span of the
// combined document.
func (s *SourceSet) Wrap(err error) error {
	var spanned interface{ Span() Span }
	if !errors.As(err, &spanned) || len(s.sources) == 0 {
		return err
	}
	path, pos := s.Locate(spanned.Span().Start())
	return &LocatedError{Path: path, Pos: pos, Err: err}
}

func locate(src Source, err error) error {
	var spanned interface{ Span() Span }
	if !errors.As(err, &spanned) {
		return err
	}
	pos := PositionOf([]byte(src.Text), spanned.Span().Start())
	return &LocatedError{Path: src.Path, Pos: pos, Err: err}
}

// LocatedError is an error positioned within a named source.
type LocatedError struct {
	Path string
	Pos  Position
	Err  error
}

func (err *LocatedError) Error() string {
	return fmt.Sprintf("%s:%v: %v", err.Path, err.Pos, err.Err)
}

func (err *LocatedError) Unwrap() error {
	return err.Err
}
