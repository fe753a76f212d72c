// Package rdf provides the RDF term model used across WikiGraph: validated
// IRIs, blank nodes, literals and quads, together with their N-Triples
// compatible text forms.
package rdf

import (
	"fmt"
	"strings"
)

// IRI is a validated absolute IRI. The zero value is invalid and reports
// IsZero; construct values with ParseIRI or, for compile-time-known
// constants, NewIRIUnchecked.
//
// IRI is a small immutable value type: it is comparable with ==, usable as
// a map key and ordered lexicographically on the underlying text, so
// copies and equality behave identically no matter how the value was
// obtained.
type IRI struct {
	iri string
}

// ParseIRI validates s as an absolute IRI and returns it.
//
// Validation enforces the constraints the textual RDF serializations rely
// on: a scheme must be present, and the string must not contain characters
// that are forbidden unescaped inside an IRIREF (control characters,
// space, '<', '>', '"', '{', '}', '|', '^', '`' and '\').
func ParseIRI(s string) (IRI, error) {
	if err := checkIRI(s); err != nil {
		return IRI{}, err
	}
	return IRI{iri: s}, nil
}

// NewIRIUnchecked builds an IRI without validation. The caller guarantees
// that s is a valid absolute IRI. Use it only for known-constant literals
// such as vocabulary terms; everything read from the outside goes through
// ParseIRI.
func NewIRIUnchecked(s string) IRI {
	return IRI{iri: s}
}

// Value returns the IRI text without angle brackets.
func (i IRI) Value() string { return i.iri }

// IsZero reports whether i is the zero IRI.
func (i IRI) IsZero() bool { return i.iri == "" }

// Less orders IRIs lexicographically on their text.
func (i IRI) Less(other IRI) bool { return i.iri < other.iri }

// String returns the N-Triples form of the IRI, wrapped in angle brackets.
func (i IRI) String() string { return "<" + i.iri + ">" }

func (IRI) terminal() {}

// IRIParseError reports why a string was rejected as an IRI.
type IRIParseError struct {
	Input  string
	Reason string
}

func (e *IRIParseError) Error() string {
	return fmt.Sprintf("invalid IRI %q: %s", e.Input, e.Reason)
}

func checkIRI(s string) error {
	if s == "" {
		return &IRIParseError{Input: s, Reason: "empty string"}
	}
	colon := strings.IndexByte(s, ':')
	if colon <= 0 {
		return &IRIParseError{Input: s, Reason: "no scheme: IRI must be absolute"}
	}
	if !validScheme(s[:colon]) {
		return &IRIParseError{Input: s, Reason: "malformed scheme"}
	}
	for _, r := range s {
		switch {
		case r <= 0x20 || r == 0x7F:
			return &IRIParseError{Input: s, Reason: "control character or space"}
		case r == '<' || r == '>' || r == '"' || r == '{' || r == '}' ||
			r == '|' || r == '^' || r == '`' || r == '\\':
			return &IRIParseError{Input: s, Reason: fmt.Sprintf("forbidden character %q", r)}
		}
	}
	return nil
}

// validScheme checks the RFC 3987 scheme production:
// ALPHA *( ALPHA / DIGIT / "+" / "-" / "." )
func validScheme(s string) bool {
	for i, r := range s {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 {
			if !alpha {
				return false
			}
			continue
		}
		digit := r >= '0' && r <= '9'
		if !alpha && !digit && r != '+' && r != '-' && r != '.' {
			return false
		}
	}
	return true
}
