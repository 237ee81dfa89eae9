package table

import (
	"regexp"
	"strings"
)

// likeRegexp translates SQL LIKE into RE2: % matches any run, _ matches one
// character, ASCII letters compare case-insensitively.
func likeRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("(?is)^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteByte('.')
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return b.String()
}

// globRegexp translates SQL GLOB into RE2: * and ? wildcards plus [...] classes,
// [^...] negated. Matching is case-sensitive. An unterminated class is taken literally.
func globRegexp(pattern string) string {
	var b strings.Builder
	b.WriteString("(?s)^")
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteByte('.')
		case '[':
			end := classEnd(runes, i)
			if end < 0 {
				b.WriteString(regexp.QuoteMeta("["))
				continue
			}
			b.WriteByte('[')
			body := runes[i+1 : end]
			if len(body) > 0 && body[0] == '^' {
				b.WriteByte('^')
				body = body[1:]
			}
			for _, c := range body {
				if c == '\\' || c == '[' || c == ']' {
					b.WriteByte('\\')
				}
				b.WriteRune(c)
			}
			b.WriteByte(']')
			i = end
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteByte('$')
	return b.String()
}

// classEnd returns the index of the ']' closing the class opened at start, or -1.
// A ']' directly after '[' or '[^' belongs to the class.
func classEnd(runes []rune, start int) int {
	i := start + 1
	if i < len(runes) && runes[i] == '^' {
		i++
	}
	if i < len(runes) && runes[i] == ']' {
		i++
	}
	for ; i < len(runes); i++ {
		if runes[i] == ']' {
			return i
		}
	}
	return -1
}

// compilePattern returns the matcher of a LIKE, GLOB, REGEXP or MATCH constraint.
// ok is false for other operators.
func compilePattern(c Constraint) (re *regexp.Regexp, ok bool, err error) {
	var expr string
	switch c.Op {
	case OpLike:
		expr = likeRegexp(c.Expr)
	case OpGlob:
		expr = globRegexp(c.Expr)
	case OpRegexp, OpMatch:
		expr = c.Expr
	default:
		return nil, false, nil
	}
	re, err = regexp.Compile(expr)
	return re, true, err
}
