// Package document holds an immutable snapshot of a script file's text
// together with the byte offset to line/column mapping used when
// diagnostics are rendered.
package document

import (
	"os"
	"sort"
	"unicode/utf8"

	"github.com/apparentlymart/go-textseg/v15/textseg"
	"github.com/hashicorp/hcl/v2"
)

// Document is a read-only text snapshot. Offsets are byte offsets into Text.
type Document struct {
	name       string
	text       string
	lineStarts []int
}

// New creates a document snapshot named name.
func New(name, text string) *Document {
	d := &Document{name: name, text: text, lineStarts: []int{0}}
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\n':
			d.lineStarts = append(d.lineStarts, i+1)
		case '\r':
			if i+1 < len(text) && text[i+1] == '\n' {
				continue
			}
			d.lineStarts = append(d.lineStarts, i+1)
		}
	}
	return d
}

// Load reads the file at path into a document named after the path.
func Load(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return New(path, string(b)), nil
}

func (d *Document) Name() string { return d.name }
func (d *Document) Text() string { return d.text }
func (d *Document) Len() int     { return len(d.text) }

// LineCount returns the number of lines, counting a trailing empty line.
func (d *Document) LineCount() int { return len(d.lineStarts) }

// Slice returns the text between start and end, clamped to the document.
func (d *Document) Slice(start, end int) string {
	start, end = d.clamp(start), d.clamp(end)
	if end < start {
		return ""
	}
	return d.text[start:end]
}

// Line returns the zero-based line index containing offset.
func (d *Document) Line(offset int) int {
	offset = d.clamp(offset)
	return sort.Search(len(d.lineStarts), func(i int) bool { return d.lineStarts[i] > offset }) - 1
}

// LineEnd returns the offset of the line terminator ending the line that
// contains offset, or the document length on the last line.
func (d *Document) LineEnd(offset int) int {
	for i := d.clamp(offset); i < len(d.text); i++ {
		if d.text[i] == '\n' || d.text[i] == '\r' {
			return i
		}
	}
	return len(d.text)
}

// Pos converts a byte offset into an HCL position. Lines and columns are
// one-based; columns count grapheme clusters so that combined characters
// occupy a single column.
func (d *Document) Pos(offset int) hcl.Pos {
	offset = d.clamp(offset)
	line := d.Line(offset)
	start := d.lineStarts[line]
	return hcl.Pos{Line: line + 1, Column: columns(d.text[start:offset]) + 1, Byte: offset}
}

// Range converts a byte range into an HCL range stamped with the document name.
func (d *Document) Range(start, end int) hcl.Range {
	if end < start {
		end = start
	}
	return hcl.Range{Filename: d.name, Start: d.Pos(start), End: d.Pos(end)}
}

// File wraps the text as an hcl.File, as needed by HCL's diagnostic writers.
func (d *Document) File() *hcl.File {
	return &hcl.File{Bytes: []byte(d.text)}
}

func (d *Document) clamp(offset int) int {
	if offset < 0 {
		return 0
	}
	if offset > len(d.text) {
		return len(d.text)
	}
	return offset
}

func columns(s string) int {
	if s == "" {
		return 0
	}
	n, err := textseg.TokenCount([]byte(s), textseg.ScanGraphemeClusters)
	if err != nil {
		return utf8.RuneCountInString(s)
	}
	return n
}
