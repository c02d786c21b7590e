// Package dump turns the VALUES clause of MySQL dump INSERT statements into
// positional row tuples without a SQL engine.
//
// The tokenizer only partitions text: quotes are removed where they act as
// delimiters, but backslash escapes are kept so that [Clean] can resolve them
// later. Both functions are pure and safe to call from many goroutines.
package dump

import "strings"

const valuesKeyword = "VALUES"

// Tuple is one parenthesized row from a VALUES clause. Each element is a raw
// field exactly as it appeared between delimiters, before unescaping.
type Tuple []string

// Field returns the normalized value at position i, or "" when the tuple has
// no such column.
func (t Tuple) Field(i int) string {
	if i < 0 || i >= len(t) {
		return ""
	}
	return Clean(t[i])
}

// Statement is the result of scanning one dump line.
type Statement struct {
	Tuples []Tuple

	// Unterminated is set when the line ended inside a tuple. That tuple is
	// not part of Tuples.
	Unterminated bool
}

// ParseValues returns the row tuples that follow the first VALUES keyword on
// line, matched case-insensitively. A line without the keyword yields nil.
func ParseValues(line string) []Tuple {
	return ScanValues(line).Tuples
}

// ScanValues is ParseValues with a diagnostic for a trailing tuple whose
// closing parenthesis never arrived.
func ScanValues(line string) Statement {
	idx := indexFold(line, valuesKeyword)
	if idx < 0 {
		return Statement{}
	}
	return scan(line[idx+len(valuesKeyword):])
}

// scan walks s left to right. Delimiters are all ASCII, so a byte walk never
// splits a multi-byte rune: continuation bytes are copied like any other.
func scan(s string) Statement {
	var (
		stmt       Statement
		tuple      Tuple
		field      strings.Builder
		inString   bool
		escapeNext bool
		depth      int
	)

	pushField := func() {
		tuple = append(tuple, strings.TrimSpace(field.String()))
		field.Reset()
	}

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escapeNext {
			field.WriteByte(c)
			escapeNext = false
			continue
		}

		if c == '\\' {
			escapeNext = true
			field.WriteByte(c)
			continue
		}

		if c == '\'' {
			switch {
			case !inString:
				inString = true
			case i+1 < len(s) && s[i+1] == '\'':
				field.WriteByte('\'')
				i++
			default:
				inString = false
			}
			continue
		}

		if inString {
			field.WriteByte(c)
			continue
		}

		switch {
		case c == '(':
			if depth == 0 {
				tuple = nil
				field.Reset()
			} else {
				field.WriteByte(c)
			}
			depth++
		case c == ')':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				pushField()
				stmt.Tuples = append(stmt.Tuples, tuple)
				tuple = nil
			} else {
				field.WriteByte(c)
			}
		case c == ',' && depth == 1:
			pushField()
		case depth > 0:
			field.WriteByte(c)
		}
	}

	stmt.Unterminated = depth > 0
	return stmt
}

// indexFold returns the index of the first ASCII case-insensitive match of
// upper (which must be upper-case ASCII) in s, or -1.
func indexFold(s, upper string) int {
	n := len(upper)
	for i := 0; i+n <= len(s); i++ {
		j := 0
		for ; j < n; j++ {
			c := s[i+j]
			if 'a' <= c && c <= 'z' {
				c -= 'a' - 'A'
			}
			if c != upper[j] {
				break
			}
		}
		if j == n {
			return i
		}
	}
	return -1
}
