package rdf

import "strings"

// Escape returns s with the characters that are significant inside quoted
// RDF literals replaced by their two-character backslash escapes: tab,
// backspace, newline, carriage return, form feed, backslash, single quote
// and double quote. Every other character, including all non-ASCII text,
// passes through unchanged.
//
// When s contains nothing to escape it is returned as-is without
// allocating; otherwise a single output buffer is grown once and filled in
// one pass.
func Escape(s string) string {
	first := -1
	for i := 0; i < len(s); i++ {
		if escapeByte(s[i]) != 0 {
			first = i
			break
		}
	}
	if first < 0 {
		return s
	}

	var sb strings.Builder
	sb.Grow(len(s) + 8)
	sb.WriteString(s[:first])
	for i := first; i < len(s); i++ {
		c := s[i]
		if e := escapeByte(c); e != 0 {
			sb.WriteByte('\\')
			sb.WriteByte(e)
		} else {
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// escapeByte returns the character following the backslash in the escape
// sequence for c, or 0 when c passes through unescaped. Multi-byte UTF-8
// sequences never match: every escaped character is ASCII.
func escapeByte(c byte) byte {
	switch c {
	case '\t':
		return 't'
	case '\b':
		return 'b'
	case '\n':
		return 'n'
	case '\r':
		return 'r'
	case '\f':
		return 'f'
	case '\\':
		return '\\'
	case '\'':
		return '\''
	case '"':
		return '"'
	}
	return 0
}

// Unescape reverses Escape. Unknown escape sequences and a trailing lone
// backslash pass the backslash through unchanged, so Unescape(Escape(s))
// always returns s.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			sb.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 't':
			sb.WriteByte('\t')
		case 'b':
			sb.WriteByte('\b')
		case 'n':
			sb.WriteByte('\n')
		case 'r':
			sb.WriteByte('\r')
		case 'f':
			sb.WriteByte('\f')
		case '\\', '\'', '"':
			sb.WriteByte(s[i])
		default:
			sb.WriteByte('\\')
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}
