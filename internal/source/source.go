// Package source holds source units and the byte spans that tie compiled
// code back to them.
package source

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// DefaultEncoding is the only encoding source units may declare.
const DefaultEncoding = "utf-8"

// Span is a half-open byte interval [Start, End) in a unit's text.
type Span struct {
	Start int
	End   int
}

func (s Span) String() string {
	return fmt.Sprintf("[%d,%d)", s.Start, s.End)
}

// Len returns the number of bytes covered by the span.
func (s Span) Len() int { return s.End - s.Start }

// Cover returns the smallest span containing both s and o.
func (s Span) Cover(o Span) Span {
	out := s
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

// Pos is a 1-based line/column location. Column counts runes.
type Pos struct {
	Line   int
	Column int
	Byte   int
}

// Unit is a compiled source file or REPL entry.
type Unit struct {
	Path     string
	Text     string
	Encoding string

	lines []int // byte offset of every line start
}

// NewUnit validates text against encoding and returns a unit. An empty
// encoding means DefaultEncoding.
func NewUnit(path, text, encoding string) (*Unit, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	switch strings.ToLower(encoding) {
	case "utf-8", "utf8":
	default:
		return nil, fmt.Errorf("source %s: unsupported encoding %q", path, encoding)
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("source %s: text is not valid %s", path, encoding)
	}
	u := &Unit{Path: path, Text: text, Encoding: DefaultEncoding}
	u.lines = append(u.lines, 0)
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			u.lines = append(u.lines, i+1)
		}
	}
	return u, nil
}

// Position maps a byte offset to a line/column pair. Offsets past the end
// clamp to the end of the text.
func (u *Unit) Position(offset int) Pos {
	if offset < 0 {
		offset = 0
	}
	if offset > len(u.Text) {
		offset = len(u.Text)
	}
	line := sort.Search(len(u.lines), func(i int) bool { return u.lines[i] > offset }) - 1
	start := u.lines[line]
	return Pos{
		Line:   line + 1,
		Column: utf8.RuneCountInString(u.Text[start:offset]) + 1,
		Byte:   offset,
	}
}

// Slice returns the text covered by span, clamped to the unit.
func (u *Unit) Slice(span Span) string {
	start, end := span.Start, span.End
	if start < 0 {
		start = 0
	}
	if end > len(u.Text) {
		end = len(u.Text)
	}
	if start >= end {
		return ""
	}
	return u.Text[start:end]
}

// Name returns the path, or "<stdin>" for anonymous units.
func (u *Unit) Name() string {
	if u == nil || u.Path == "" {
		return "<stdin>"
	}
	return u.Path
}
