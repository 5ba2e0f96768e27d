package parser

import (
	"math"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// constEval folds integer constant expressions found in array sizes, enum
// values and bit-field widths. Names resolve against enumerators and macros
// seen earlier in the unit and against -D definitions.
type constEval struct {
	src    []byte
	consts map[string]constant
}

// constKind is the C type class a folded value has. Signed values are
// modelled as long long.
type constKind int

const (
	signedConst constKind = iota
	// uint32Const is unsigned int.
	uint32Const
	// uint64Const is unsigned long long; v holds its bit pattern.
	uint64Const
)

// constant is a folded value and its type class.
type constant struct {
	v    int64
	kind constKind
}

func signed(v int64) constant { return constant{v: v} }

// norm wraps v to the width of its kind.
func (c constant) norm() constant {
	if c.kind == uint32Const {
		c.v = int64(uint32(c.v))
	}
	return c
}

func (c constant) unsigned() bool { return c.kind != signedConst }

func (e *constEval) fold(n *sitter.Node) (int64, bool) {
	c, ok := e.value(n)
	return c.v, ok
}

func (e *constEval) value(n *sitter.Node) (constant, bool) {
	if n == nil {
		return constant{}, false
	}
	switch n.Type() {
	case "number_literal":
		return parseLiteral(n.Content(e.src))
	case "char_literal":
		v, ok := parseChar(n.Content(e.src))
		return signed(v), ok
	case "identifier":
		c, ok := e.consts[n.Content(e.src)]
		return c, ok
	case "parenthesized_expression":
		return e.value(n.NamedChild(0))
	case "cast_expression":
		return e.value(n.ChildByFieldName("value"))
	case "unary_expression":
		c, ok := e.value(n.ChildByFieldName("argument"))
		if !ok {
			return constant{}, false
		}
		return unary(operator(n), c)
	case "binary_expression":
		l, ok := e.value(n.ChildByFieldName("left"))
		if !ok {
			return constant{}, false
		}
		r, ok := e.value(n.ChildByFieldName("right"))
		if !ok {
			return constant{}, false
		}
		return binary(operator(n), l, r)
	case "conditional_expression":
		c, ok := e.value(n.ChildByFieldName("condition"))
		if !ok {
			return constant{}, false
		}
		if c.v != 0 {
			return e.value(n.ChildByFieldName("consequence"))
		}
		return e.value(n.ChildByFieldName("alternative"))
	default:
		return constant{}, false
	}
}

func operator(n *sitter.Node) string {
	if op := n.ChildByFieldName("operator"); op != nil {
		return op.Type()
	}
	return ""
}

func unary(op string, c constant) (constant, bool) {
	switch op {
	case "-":
		return constant{v: -c.v, kind: c.kind}.norm(), true
	case "+":
		return c, true
	case "~":
		return constant{v: ^c.v, kind: c.kind}.norm(), true
	case "!":
		return boolConst(c.v == 0), true
	default:
		return constant{}, false
	}
}

// common applies the usual arithmetic conversions of two operands.
func common(l, r constant) constKind {
	switch {
	case l.kind == uint64Const || r.kind == uint64Const:
		return uint64Const
	case l.kind == uint32Const && r.kind == uint32Const:
		return uint32Const
	default:
		return signedConst
	}
}

func binary(op string, l, r constant) (constant, bool) {
	kind := common(l, r)
	u := kind == uint64Const
	lu, ru := uint64(l.v), uint64(r.v)
	arith := func(v int64) (constant, bool) {
		return constant{v: v, kind: kind}.norm(), true
	}

	switch op {
	case "+":
		return arith(l.v + r.v)
	case "-":
		return arith(l.v - r.v)
	case "*":
		return arith(l.v * r.v)
	case "/":
		if r.v == 0 {
			return constant{}, false
		}
		if u {
			return arith(int64(lu / ru))
		}
		return arith(l.v / r.v)
	case "%":
		if r.v == 0 {
			return constant{}, false
		}
		if u {
			return arith(int64(lu % ru))
		}
		return arith(l.v % r.v)
	case "<<", ">>":
		if r.v < 0 || r.v > 63 {
			return constant{}, false
		}
		shifted := l
		if op == "<<" {
			shifted.v = l.v << uint(r.v)
		} else if l.kind == uint64Const {
			shifted.v = int64(lu >> uint(r.v))
		} else {
			shifted.v = l.v >> uint(r.v)
		}
		return shifted.norm(), true
	case "&":
		return arith(l.v & r.v)
	case "|":
		return arith(l.v | r.v)
	case "^":
		return arith(l.v ^ r.v)
	case "&&":
		return boolConst(l.v != 0 && r.v != 0), true
	case "||":
		return boolConst(l.v != 0 || r.v != 0), true
	case "==":
		return boolConst(l.v == r.v), true
	case "!=":
		return boolConst(l.v != r.v), true
	case "<":
		if u {
			return boolConst(lu < ru), true
		}
		return boolConst(l.v < r.v), true
	case ">":
		if u {
			return boolConst(lu > ru), true
		}
		return boolConst(l.v > r.v), true
	case "<=":
		if u {
			return boolConst(lu <= ru), true
		}
		return boolConst(l.v <= r.v), true
	case ">=":
		if u {
			return boolConst(lu >= ru), true
		}
		return boolConst(l.v >= r.v), true
	default:
		return constant{}, false
	}
}

func boolConst(b bool) constant {
	if b {
		return signed(1)
	}
	return signed(0)
}

// parseInt parses a C integer literal with optional sign, parentheses and
// u/l suffixes.
func parseInt(s string) (int64, bool) {
	c, ok := parseLiteral(s)
	return c.v, ok
}

// parseLiteral parses an integer literal and classifies it the way a C
// compiler for an LP64 target would: a u suffix makes it unsigned, a value
// above the long long range is unsigned long long.
func parseLiteral(s string) (constant, bool) {
	s = strings.TrimSpace(s)
	for len(s) >= 2 && s[0] == '(' && s[len(s)-1] == ')' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = strings.TrimSpace(s[1:])
	}
	digits := strings.TrimRight(s, "uUlL")
	suffix := strings.ToLower(s[len(digits):])
	if digits == "" {
		return constant{}, false
	}

	var (
		u   uint64
		err error
	)
	switch {
	case strings.HasPrefix(digits, "0x") || strings.HasPrefix(digits, "0X"):
		u, err = strconv.ParseUint(digits[2:], 16, 64)
	case strings.HasPrefix(digits, "0b") || strings.HasPrefix(digits, "0B"):
		u, err = strconv.ParseUint(digits[2:], 2, 64)
	case len(digits) > 1 && digits[0] == '0':
		u, err = strconv.ParseUint(digits[1:], 8, 64)
	default:
		u, err = strconv.ParseUint(digits, 10, 64)
	}
	if err != nil {
		return constant{}, false
	}

	c := constant{v: int64(u)}
	switch {
	case u > math.MaxInt64:
		c.kind = uint64Const
	case strings.Contains(suffix, "u") && (strings.Contains(suffix, "l") || u > math.MaxUint32):
		c.kind = uint64Const
	case strings.Contains(suffix, "u"):
		c.kind = uint32Const
	}
	if neg {
		c.v = -c.v
		c = c.norm()
	}
	return c, true
}

var simpleEscapes = map[byte]int64{
	'n': '\n', 't': '\t', 'r': '\r', '0': 0, 'a': 7, 'b': 8, 'f': 12, 'v': 11,
	'\\': '\\', '\'': '\'', '"': '"', '?': '?',
}

// parseChar parses a C character constant such as 'a' or '\n'.
func parseChar(s string) (int64, bool) {
	if len(s) < 3 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return 0, false
	}
	body := s[1 : len(s)-1]
	if body[0] != '\\' {
		r := []rune(body)
		if len(r) != 1 {
			return 0, false
		}
		return int64(r[0]), true
	}
	esc := body[1:]
	switch {
	case len(esc) == 1:
		v, ok := simpleEscapes[esc[0]]
		return v, ok
	case len(esc) > 1 && esc[0] == 'x':
		v, err := strconv.ParseUint(esc[1:], 16, 8)
		return int64(v), err == nil
	default:
		v, err := strconv.ParseUint(esc, 8, 8)
		return int64(v), err == nil
	}
}
