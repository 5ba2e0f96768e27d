package emit

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var (
	intLiteral    = regexp.MustCompile(`^(0[xX][0-9a-fA-F]+|0[bB][01]+|0[0-7]*|[1-9][0-9]*)[uUlL]*$`)
	floatLiteral  = regexp.MustCompile(`^([0-9]+\.[0-9]*|\.[0-9]+|[0-9]+)([eE][+-]?[0-9]+)?[fFlL]?$`)
	stringLiteral = regexp.MustCompile(`^"([^"\\]|\\.)*"$`)
	charLiteral   = regexp.MustCompile(`^'(\\.|\\[0-7]{1,3}|\\x[0-9a-fA-F]+|[^'\\])'$`)
)

var charEscapes = map[byte]int{
	'n': '\n', 't': '\t', 'r': '\r', '0': 0, 'a': 7, 'b': 8, 'f': 12, 'v': 11,
	'\\': '\\', '\'': '\'', '"': '"', '?': '?',
}

// MacroLiteral converts a macro body made of a single C literal into Lisp
// syntax. Integers keep their radix (#x, #o, #b), character constants become
// their code, floats and strings are normalized for the Lisp reader. Any
// other body reports false.
func MacroLiteral(body string) (string, bool) {
	s := strings.TrimSpace(body)
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	if s == "" {
		return "", false
	}

	if stringLiteral.MatchString(s) {
		return s, true
	}
	if charLiteral.MatchString(s) {
		code, ok := charCode(s[1 : len(s)-1])
		if !ok {
			return "", false
		}
		return strconv.Itoa(code), true
	}

	sign := ""
	if s[0] == '-' || s[0] == '+' {
		if s[0] == '-' {
			sign = "-"
		}
		s = strings.TrimSpace(s[1:])
	}

	if intLiteral.MatchString(s) {
		return integer(sign, strings.TrimRight(s, "uUlL")), true
	}
	if floatLiteral.MatchString(s) {
		return sign + float(s), true
	}
	return "", false
}

func integer(sign, digits string) string {
	switch {
	case len(digits) > 2 && (digits[1] == 'x' || digits[1] == 'X'):
		return "#x" + sign + strings.ToLower(digits[2:])
	case len(digits) > 2 && (digits[1] == 'b' || digits[1] == 'B'):
		return "#b" + sign + digits[2:]
	case len(digits) > 1 && digits[0] == '0':
		return "#o" + sign + digits[1:]
	default:
		return sign + digits
	}
}

// float rewrites a C floating literal so the Lisp reader sees a float: "1."
// would read as an integer and ".5" as a symbol.
func float(s string) string {
	s = strings.TrimRight(s, "fFlL")
	mantissa, exp := s, ""
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissa, exp = s[:i], s[i:]
	}
	if strings.HasPrefix(mantissa, ".") {
		mantissa = "0" + mantissa
	}
	if strings.HasSuffix(mantissa, ".") {
		mantissa += "0"
	}
	if !strings.Contains(mantissa, ".") && exp == "" {
		mantissa += ".0"
	}
	return mantissa + exp
}

func charCode(body string) (int, bool) {
	if body[0] != '\\' {
		r := []rune(body)
		if len(r) != 1 {
			return 0, false
		}
		return int(r[0]), true
	}
	esc := body[1:]
	if len(esc) == 1 {
		code, ok := charEscapes[esc[0]]
		return code, ok
	}
	if esc[0] == 'x' {
		v, err := strconv.ParseUint(esc[1:], 16, 8)
		return int(v), err == nil
	}
	v, err := strconv.ParseUint(esc, 8, 8)
	return int(v), err == nil
}

// IsHeaderGuard reports whether macro name looks like the include guard of
// the file at path: FOO_BAR_H, __FOO_BAR_H__ and PROJECT_BAR_H all guard
// foo/bar.h.
func IsHeaderGuard(path, name string) bool {
	guard := strings.ToUpper(strings.Trim(name, "_"))
	if guard == "" || path == "" {
		return false
	}
	full := normalizeGuard(filepath.ToSlash(path))
	base := normalizeGuard(filepath.Base(path))
	return strings.HasSuffix(full, guard) || strings.HasSuffix(guard, base)
}

func normalizeGuard(s string) string {
	return strings.Trim(strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToUpper(r)
		}
		return '_'
	}, s), "_")
}
