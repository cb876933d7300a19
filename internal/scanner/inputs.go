package scanner

import "strings"

// Entry is one row of an inputs/outputs block:
//
//	item 2 [Base.Plank;Base.Log] mode:keep,
//	-fluid 0.5 [Water],
type Entry struct {
	Name   Span // "item", or "fluid" preceded by any run of signs
	Amount Span
	Values Span // raw text between the amount and the comma, not trimmed
	Comma  Span
	End    int
}

// NextEntry scans src[from:to] for the next inputs entry. The amount token
// is any run of digits, dots and signs that contains at least one digit, so
// that malformed amounts are still reported instead of skipped.
func NextEntry(src string, from, to int) (Entry, bool) {
	for i := from; i < to; i++ {
		nameEnd, ok := entryNameAt(src, i, to)
		if !ok {
			continue
		}

		amountStart := skipSpace(src, nameEnd, to)
		amountEnd := amountStart
		digit := false
		for amountEnd < to && isAmountByte(src[amountEnd]) {
			if src[amountEnd] >= '0' && src[amountEnd] <= '9' {
				digit = true
			}
			amountEnd++
		}
		if !digit {
			continue
		}

		valuesStart := skipSpace(src, amountEnd, to)
		if valuesStart == amountEnd {
			continue
		}
		valuesEnd := valuesStart
		for valuesEnd < to && src[valuesEnd] != ',' && !isNewline(src[valuesEnd]) {
			valuesEnd++
		}
		commaEnd := valuesEnd
		for commaEnd < to && src[commaEnd] == ',' {
			commaEnd++
		}

		return Entry{
			Name:   Span{Start: i, End: nameEnd},
			Amount: Span{Start: amountStart, End: amountEnd},
			Values: Span{Start: valuesStart, End: valuesEnd},
			Comma:  Span{Start: valuesEnd, End: commaEnd},
			End:    commaEnd,
		}, true
	}
	return Entry{}, false
}

func entryNameAt(src string, i, to int) (int, bool) {
	if strings.HasPrefix(src[i:to], "item") {
		return i + len("item"), true
	}
	j := i
	for j < to && (src[j] == '+' || src[j] == '-') {
		j++
	}
	if strings.HasPrefix(src[j:to], "fluid") {
		return j + len("fluid"), true
	}
	return 0, false
}

func isAmountByte(c byte) bool {
	return c >= '0' && c <= '9' || c == '.' || c == '+' || c == '-'
}
