package scanner

// Parameter is one `name = value,` assignment.
type Parameter struct {
	Name  Span
	Value Span // trimmed; an empty value is a zero-width span where it would start
	Comma Span // the run of commas directly after the value, possibly empty
	End   int  // offset just past the assignment
}

// NextParameter scans src[from:to] for the next assignment. The name is the
// whitespace-free token before '='; the value runs to the next comma or line
// terminator.
func NextParameter(src string, from, to int) (Parameter, bool) {
	for search := from; search < to; {
		eq := -1
		for i := search; i < to; i++ {
			if src[i] == '=' {
				eq = i
				break
			}
		}
		if eq < 0 {
			return Parameter{}, false
		}

		nameEnd := eq
		for nameEnd > from {
			w := spaceBefore(src, nameEnd)
			if w == 0 {
				break
			}
			nameEnd -= w
		}
		if nameEnd == from {
			search = eq + 1
			continue
		}
		nameStart := nameEnd
		for nameStart > from && spaceBefore(src, nameStart) == 0 {
			nameStart--
		}

		valueStart := skipBlank(src, eq+1, to)
		valueEnd := valueStart
		for valueEnd < to && src[valueEnd] != ',' && !isNewline(src[valueEnd]) {
			valueEnd++
		}
		commaEnd := valueEnd
		for commaEnd < to && src[commaEnd] == ',' {
			commaEnd++
		}

		return Parameter{
			Name:  Span{Start: nameStart, End: nameEnd},
			Value: Trim(src, valueStart, valueEnd),
			Comma: Span{Start: valueEnd, End: commaEnd},
			End:   commaEnd,
		}, true
	}
	return Parameter{}, false
}
