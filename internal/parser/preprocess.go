package parser

import (
	"bytes"
	"regexp"
)

var (
	cplusplusOpen = regexp.MustCompile(`^\s*#\s*(ifdef\s+__cplusplus\b|if\s+defined\s*\(?\s*__cplusplus\b)`)
	conditionOpen = regexp.MustCompile(`^\s*#\s*if`)
	conditionElse = regexp.MustCompile(`^\s*#\s*(else|elif)\b`)
	conditionEnd  = regexp.MustCompile(`^\s*#\s*endif\b`)
)

// Preprocess blanks the C++ only regions of a header: every
// "#ifdef __cplusplus" branch up to its #else or #endif. The
// extern "C" wrappers those branches usually hold would otherwise leave
// unbalanced braces in the tree. Lines are emptied, not removed, so line
// numbers stay valid.
func Preprocess(source []byte) []byte {
	lines := bytes.SplitAfter(source, []byte("\n"))
	out := make([]byte, 0, len(source))

	depth := 0
	blanking := false
	for _, line := range lines {
		switch {
		case depth == 0 && cplusplusOpen.Match(line):
			depth = 1
			blanking = true
		case depth > 0 && conditionOpen.Match(line):
			depth++
		case depth > 0 && conditionEnd.Match(line):
			depth--
			if depth == 0 {
				out = append(out, blank(line)...)
				blanking = false
				continue
			}
		case depth == 1 && conditionElse.Match(line):
			out = append(out, blank(line)...)
			blanking = false
			continue
		}

		if blanking {
			out = append(out, blank(line)...)
			continue
		}
		out = append(out, line...)
	}
	return out
}

// blank keeps only the line terminator.
func blank(line []byte) []byte {
	if bytes.HasSuffix(line, []byte("\r\n")) {
		return []byte("\r\n")
	}
	if bytes.HasSuffix(line, []byte("\n")) {
		return []byte("\n")
	}
	return nil
}
