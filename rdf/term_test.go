package rdf

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLiteralString(t *testing.T) {
	tests := []struct {
		name     string
		literal  Literal
		expected string
	}{
		{
			name:     "plain string",
			literal:  NewStringLiteral("hello"),
			expected: `"hello"`,
		},
		{
			name:     "escaped value",
			literal:  NewStringLiteral("line1\nline2"),
			expected: `"line1\nline2"`,
		},
		{
			name:     "language tagged",
			literal:  NewLangLiteral("bonjour", "FR"),
			expected: `"bonjour"@fr`,
		},
		{
			name:     "typed",
			literal:  NewTypedLiteral("42", NewIRIUnchecked("http://www.w3.org/2001/XMLSchema#integer")),
			expected: `"42"^^<http://www.w3.org/2001/XMLSchema#integer>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.literal.String())
		})
	}
}

func TestQuadString(t *testing.T) {
	q := Quad{
		Subject:   NewIRIUnchecked("http://example.com/s"),
		Predicate: NewIRIUnchecked("http://example.com/p"),
		Object:    NewStringLiteral("o"),
	}
	assert.Equal(t, `<http://example.com/s> <http://example.com/p> "o" .`, q.String())

	q.Graph = NewIRIUnchecked("http://example.com/g")
	assert.Equal(t, `<http://example.com/s> <http://example.com/p> "o" <http://example.com/g> .`, q.String())
	assert.Equal(t, `<http://example.com/s> <http://example.com/p> "o" .`, q.Triple())
}

func TestParseTerm(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Term
		wantErr  bool
	}{
		{name: "IRI", input: "<http://example.com/x>", expected: NewIRIUnchecked("http://example.com/x")},
		{name: "blank node", input: "_:b0", expected: BlankNode{ID: "b0"}},
		{name: "plain literal", input: `"hi"`, expected: NewStringLiteral("hi")},
		{name: "escaped literal", input: `"a\nb"`, expected: NewStringLiteral("a\nb")},
		{name: "lang literal", input: `"hej"@sv`, expected: NewLangLiteral("hej", "sv")},
		{
			name:     "typed literal",
			input:    `"1"^^<http://www.w3.org/2001/XMLSchema#integer>`,
			expected: NewTypedLiteral("1", NewIRIUnchecked("http://www.w3.org/2001/XMLSchema#integer")),
		},
		{name: "unterminated IRI", input: "<http://example.com", wantErr: true},
		{name: "bare label", input: "nope", wantErr: true},
		{name: "unterminated literal", input: `"open`, wantErr: true},
		{name: "empty language", input: `"x"@`, wantErr: true},
		{name: "blank without label", input: "_:", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			term, err := ParseTerm(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, term)
		})
	}
}

func TestParseTermRoundTrip(t *testing.T) {
	terms := []Term{
		NewIRIUnchecked("http://example.com/thing"),
		BlankNode{ID: "gen42"},
		NewStringLiteral("with \"quotes\" and\ttabs"),
		NewLangLiteral("value", "en"),
		NewTypedLiteral("2024-01-01", NewIRIUnchecked("http://www.w3.org/2001/XMLSchema#date")),
	}
	for _, term := range terms {
		parsed, err := ParseTerm(term.String())
		require.NoError(t, err, "parsing %s", term)
		assert.Equal(t, term, parsed)
	}
}
