package scanner

import "strings"

// Match is one occurrence of an entry sub-property.
type Match struct {
	Full  Span // the whole matched text
	Value Span // the captured value; empty for presence-only flags
}

// Matcher finds the first occurrence of a sub-property in src[from:to].
// anchor is the start of the scanned values text; patterns that may only
// appear at the very beginning or after whitespace compare against it.
type Matcher func(src string, anchor, from, to int) (Match, bool)

// Bracketed matches prefix[value], e.g. tags[base:axe;base:saw].
func Bracketed(prefix string) Matcher {
	open := prefix + "["
	return func(src string, _, from, to int) (Match, bool) {
		for i := from; i < to; {
			k := strings.Index(src[i:to], open)
			if k < 0 {
				return Match{}, false
			}
			start := i + k
			o := start + len(prefix)
			if c, ok := closeBracket(src, o, to); ok {
				return Match{Full: Span{Start: start, End: c + 1}, Value: Span{Start: o + 1, End: c}}, true
			}
			i = start + 1
		}
		return Match{}, false
	}
}

// LeadingBracket matches a bare [value] list that starts the values text or
// follows whitespace. The preceding whitespace belongs to the match.
func LeadingBracket() Matcher {
	return func(src string, anchor, from, to int) (Match, bool) {
		for p := from; p < to; p++ {
			o := -1
			if p == anchor && src[p] == '[' {
				o = p
			} else if w := spaceAt(src, p); w > 0 && p+w < to && src[p+w] == '[' {
				o = p + w
			}
			if o < 0 {
				continue
			}
			if c, ok := closeBracket(src, o, to); ok {
				return Match{Full: Span{Start: p, End: c + 1}, Value: Span{Start: o + 1, End: c}}, true
			}
		}
		return Match{}, false
	}
}

// LeadingValue matches a bare value such as Base.Plank that starts the
// values text. Lists, markers and prefixed lists are not bare values.
func LeadingValue() Matcher {
	return func(src string, anchor, from, to int) (Match, bool) {
		start := skipSpace(src, anchor, to)
		if from > start || start >= to {
			return Match{}, false
		}
		e := start
		for e < to && spaceAt(src, e) == 0 {
			e++
		}
		if strings.ContainsAny(src[start:e], "[]:") {
			return Match{}, false
		}
		return Match{Full: Span{Start: start, End: e}, Value: Span{Start: start, End: e}}, true
	}
}

// Marker matches prefix followed by a possibly empty word, e.g. mode:keep.
func Marker(prefix string) Matcher {
	return func(src string, _, from, to int) (Match, bool) {
		k := strings.Index(src[from:to], prefix)
		if k < 0 {
			return Match{}, false
		}
		start := from + k
		v := start + len(prefix)
		e := v
		for e < to && isWordByte(src[e]) {
			e++
		}
		return Match{Full: Span{Start: start, End: e}, Value: Span{Start: v, End: e}}, true
	}
}

// Word matches a literal presence flag such as overlayMapper.
func Word(word string) Matcher {
	return func(src string, _, from, to int) (Match, bool) {
		k := strings.Index(src[from:to], word)
		if k < 0 {
			return Match{}, false
		}
		start := from + k
		return Match{Full: Span{Start: start, End: start + len(word)}, Value: Span{Start: start, End: start}}, true
	}
}

// FindAll returns every non-overlapping occurrence of m in src[start:end].
func FindAll(m Matcher, src string, start, end int) []Match {
	var out []Match
	for from := start; from < end; {
		match, ok := m(src, start, from, end)
		if !ok {
			break
		}
		out = append(out, match)
		from = max(match.Full.End, from+1)
	}
	return out
}

// SplitList splits a list value on ';'. Each element span is trimmed; blank
// elements keep their untrimmed span.
func SplitList(src string, value Span) []Span {
	var out []Span
	start := value.Start
	for i := value.Start; i <= value.End; i++ {
		if i < value.End && src[i] != ';' {
			continue
		}
		el := Trim(src, start, i)
		if el.Empty() {
			el = Span{Start: start, End: i}
		}
		out = append(out, el)
		start = i + 1
	}
	return out
}

// closeBracket finds the ']' closing the '[' at open. At least one character
// must separate the two.
func closeBracket(src string, open, to int) (int, bool) {
	for i := open + 2; i < to; i++ {
		if src[i] == ']' {
			return i, true
		}
	}
	return 0, false
}
