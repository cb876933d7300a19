// Package scanner contains the lexical scanners of the script language.
//
// Every scanner is a plain function over the full document text that resumes
// from an explicit offset and reports byte offsets into that same text. No
// scanner keeps state between calls.
package scanner

import (
	"unicode"
	"unicode/utf8"
)

// Span is a half-open byte range [Start, End) into the scanned text.
type Span struct {
	Start int
	End   int
}

// Text returns the slice of src covered by s.
func (s Span) Text(src string) string { return src[s.Start:s.End] }

// Len returns the number of bytes covered by s.
func (s Span) Len() int { return s.End - s.Start }

// Empty reports whether s covers no bytes.
func (s Span) Empty() bool { return s.End <= s.Start }

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

func isNewline(c byte) bool { return c == '\n' || c == '\r' }

func isSpace(r rune) bool { return unicode.IsSpace(r) || r == '\uFEFF' }

// spaceAt returns the width of the whitespace rune at i, or 0.
func spaceAt(src string, i int) int {
	if i >= len(src) {
		return 0
	}
	if c := src[i]; c < utf8.RuneSelf {
		if isSpace(rune(c)) {
			return 1
		}
		return 0
	}
	r, w := utf8.DecodeRuneInString(src[i:])
	if isSpace(r) {
		return w
	}
	return 0
}

// spaceBefore returns the width of the whitespace rune ending at i, or 0.
func spaceBefore(src string, i int) int {
	if i <= 0 {
		return 0
	}
	if c := src[i-1]; c < utf8.RuneSelf {
		if isSpace(rune(c)) {
			return 1
		}
		return 0
	}
	r, w := utf8.DecodeLastRuneInString(src[:i])
	if isSpace(r) {
		return w
	}
	return 0
}

// skipSpace advances i over whitespace, newlines included, up to limit.
func skipSpace(src string, i, limit int) int {
	for i < limit {
		w := spaceAt(src, i)
		if w == 0 {
			break
		}
		i += w
	}
	return i
}

// skipBlank advances i over whitespace other than line terminators.
func skipBlank(src string, i, limit int) int {
	for i < limit && !isNewline(src[i]) {
		w := spaceAt(src, i)
		if w == 0 {
			break
		}
		i += w
	}
	return i
}

// Trim shrinks [start, end) so it neither starts nor ends with whitespace.
// An all-blank range collapses to the empty span at start.
func Trim(src string, start, end int) Span {
	s := skipSpace(src, start, end)
	if s == end {
		return Span{Start: start, End: start}
	}
	e := end
	for e > s {
		w := spaceBefore(src, e)
		if w == 0 {
			break
		}
		e -= w
	}
	return Span{Start: s, End: e}
}

// lineEnd returns the offset of the first line terminator at or after i.
func lineEnd(src string, i, limit int) int {
	for i < limit && !isNewline(src[i]) {
		i++
	}
	return i
}
