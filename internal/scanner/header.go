package scanner

import "unicode/utf8"

// Header is a block header: a kind keyword, an optional inline name and the
// opening brace. The brace may sit on a later line when only whitespace
// separates it from the header line.
type Header struct {
	Kind  Span
	Name  Span // trimmed; empty when the header has no name
	Brace int  // offset of '{'
}

// NextHeader finds the first block header whose keyword line starts at or
// after from. Headers are anchored at line starts; leading whitespace,
// including blank lines, is skipped.
func NextHeader(src string, from int) (Header, bool) {
	for p := lineStartFrom(src, from); p >= 0 && p < len(src); p = nextLineStart(src, p) {
		if h, ok := headerAt(src, p); ok {
			return h, true
		}
	}
	return Header{}, false
}

func lineStartFrom(src string, from int) int {
	if from <= 0 {
		return 0
	}
	if from > len(src) {
		return -1
	}
	if isNewline(src[from-1]) {
		return from
	}
	return nextLineStart(src, from)
}

func nextLineStart(src string, p int) int {
	for i := p; i < len(src); i++ {
		if isNewline(src[i]) {
			return i + 1
		}
	}
	return -1
}

func headerAt(src string, p int) (Header, bool) {
	k := skipSpace(src, p, len(src))
	e := k
	for e < len(src) && isWordByte(src[e]) {
		e++
	}
	if e == k {
		return Header{}, false
	}

	// One separator character is allowed between the keyword and the name.
	nameStart := e
	if e < len(src) && !isNewline(src[e]) {
		_, w := utf8.DecodeRuneInString(src[e:])
		nameStart = e + w
	}

	end := lineEnd(src, e, len(src))
	for q := e; q <= end; q++ {
		b := skipSpace(src, q, len(src))
		if b < len(src) && src[b] == '{' {
			return Header{
				Kind:  Span{Start: k, End: e},
				Name:  Trim(src, min(nameStart, q), q),
				Brace: b,
			}, true
		}
	}
	return Header{}, false
}

// MatchBrace returns the offset of the '}' that closes the '{' at open. The
// count runs over raw text to the end of src; ok is false when the text ends
// before the brace is closed.
func MatchBrace(src string, open int) (closing int, ok bool) {
	depth := 1
	for i := open + 1; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return -1, false
}
