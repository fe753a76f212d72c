package rdf

import (
	"fmt"
	"strings"
)

// ParseTerm decodes one N-Triples term: an IRI in angle brackets, a blank
// node label or a quoted literal with an optional language tag or datatype.
// It accepts exactly the forms the String methods in this package produce,
// which is what the store persists.
func ParseTerm(s string) (Term, error) {
	switch {
	case strings.HasPrefix(s, "<"):
		if !strings.HasSuffix(s, ">") {
			return nil, fmt.Errorf("unterminated IRI term: %q", s)
		}
		return ParseIRI(s[1 : len(s)-1])
	case strings.HasPrefix(s, "_:"):
		if len(s) == 2 {
			return nil, fmt.Errorf("blank node without label")
		}
		return BlankNode{ID: s[2:]}, nil
	case strings.HasPrefix(s, `"`):
		return parseLiteral(s)
	default:
		return nil, fmt.Errorf("unrecognized term: %q", s)
	}
}

func parseLiteral(s string) (Term, error) {
	end := closingQuote(s)
	if end < 0 {
		return nil, fmt.Errorf("unterminated literal: %q", s)
	}
	value := Unescape(s[1:end])
	rest := s[end+1:]
	switch {
	case rest == "":
		return NewStringLiteral(value), nil
	case strings.HasPrefix(rest, "@"):
		if len(rest) == 1 {
			return nil, fmt.Errorf("empty language tag in %q", s)
		}
		return NewLangLiteral(value, rest[1:]), nil
	case strings.HasPrefix(rest, "^^<") && strings.HasSuffix(rest, ">"):
		dt, err := ParseIRI(rest[3 : len(rest)-1])
		if err != nil {
			return nil, err
		}
		return NewTypedLiteral(value, dt), nil
	default:
		return nil, fmt.Errorf("malformed literal suffix in %q", s)
	}
}

// closingQuote finds the index of the unescaped closing quote of a literal
// that starts with one, or -1.
func closingQuote(s string) int {
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return i
		}
	}
	return -1
}
