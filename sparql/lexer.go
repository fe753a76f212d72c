package sparql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360/wikigraph/rdf"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIRI
	tokVariable
	tokPrefixedName
	tokKeywordLike
	tokPunct
	tokLiteral
	tokNumber
	tokBlankNode
)

type token struct {
	kind tokenKind
	text string

	// literal details
	langTag          string
	datatype         string
	datatypePrefixed bool
}

func (t token) isKeyword(kw string) bool {
	return t.kind == tokKeywordLike && strings.EqualFold(t.text, kw)
}

type lexer struct {
	input  string
	pos    int
	peeked *token
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

func (l *lexer) peek() (token, error) {
	if l.peeked == nil {
		tok, err := l.lex()
		if err != nil {
			return token{}, err
		}
		l.peeked = &tok
	}
	return *l.peeked, nil
}

// consume drops the peeked token.
func (l *lexer) consume() {
	l.peeked = nil
}

func (l *lexer) next() (token, error) {
	if l.peeked != nil {
		tok := *l.peeked
		l.peeked = nil
		return tok, nil
	}
	return l.lex()
}

func (l *lexer) nextInteger() (int, error) {
	tok, err := l.next()
	if err != nil {
		return 0, err
	}
	if tok.kind != tokNumber {
		return 0, fmt.Errorf("found %q", tok.text)
	}
	n, err := strconv.Atoi(tok.text)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			l.pos++
		case c == '#':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

func (l *lexer) lex() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return token{kind: tokEOF, text: "end of query"}, nil
	}

	c := l.input[l.pos]
	switch {
	case c == '<':
		return l.lexIRI()
	case c == '?' || c == '$':
		return l.lexVariable()
	case c == '"' || c == '\'':
		return l.lexLiteral(c)
	case c == '{' || c == '}' || c == '.' && !l.digitFollows() || c == ';' || c == ',' || c == '*' || c == '(' || c == ')' || c == '[' || c == ']':
		l.pos++
		return token{kind: tokPunct, text: string(c)}, nil
	case c == '_' && l.pos+1 < len(l.input) && l.input[l.pos+1] == ':':
		return l.lexBlankNode()
	case c >= '0' && c <= '9' || c == '+' || c == '-' || c == '.':
		return l.lexNumber()
	case isNameStart(rune(c)):
		return l.lexWord()
	default:
		return token{}, fmt.Errorf("unexpected character %q", c)
	}
}

func (l *lexer) digitFollows() bool {
	return l.pos+1 < len(l.input) && l.input[l.pos+1] >= '0' && l.input[l.pos+1] <= '9'
}

func (l *lexer) lexIRI() (token, error) {
	end := strings.IndexByte(l.input[l.pos:], '>')
	if end < 0 {
		return token{}, fmt.Errorf("unterminated IRI")
	}
	text := l.input[l.pos+1 : l.pos+end]
	l.pos += end + 1
	return token{kind: tokIRI, text: text}, nil
}

func (l *lexer) lexVariable() (token, error) {
	l.pos++
	start := l.pos
	for l.pos < len(l.input) && isNameChar(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos == start {
		return token{}, fmt.Errorf("variable without a name")
	}
	return token{kind: tokVariable, text: l.input[start:l.pos]}, nil
}

func (l *lexer) lexLiteral(quote byte) (token, error) {
	l.pos++
	start := l.pos
	for l.pos < len(l.input) {
		switch l.input[l.pos] {
		case '\\':
			l.pos += 2
			continue
		case quote:
			raw := l.input[start:l.pos]
			l.pos++
			tok := token{kind: tokLiteral, text: rdf.Unescape(raw)}
			return l.lexLiteralSuffix(tok)
		default:
			l.pos++
		}
	}
	return token{}, fmt.Errorf("unterminated string literal")
}

func (l *lexer) lexLiteralSuffix(tok token) (token, error) {
	if l.pos < len(l.input) && l.input[l.pos] == '@' {
		l.pos++
		start := l.pos
		for l.pos < len(l.input) && (isNameChar(rune(l.input[l.pos])) || l.input[l.pos] == '-') {
			l.pos++
		}
		if l.pos == start {
			return token{}, fmt.Errorf("empty language tag")
		}
		tok.langTag = l.input[start:l.pos]
		return tok, nil
	}
	if strings.HasPrefix(l.input[l.pos:], "^^") {
		l.pos += 2
		dt, err := l.lex()
		if err != nil {
			return token{}, err
		}
		switch dt.kind {
		case tokIRI:
			tok.datatype = dt.text
		case tokPrefixedName:
			tok.datatype = dt.text
			tok.datatypePrefixed = true
		default:
			return token{}, fmt.Errorf("datatype must be an IRI, found %q", dt.text)
		}
	}
	return tok, nil
}

func (l *lexer) lexBlankNode() (token, error) {
	l.pos += 2
	start := l.pos
	for l.pos < len(l.input) && isNameChar(rune(l.input[l.pos])) {
		l.pos++
	}
	if l.pos == start {
		return token{}, fmt.Errorf("blank node without a label")
	}
	return token{kind: tokBlankNode, text: l.input[start:l.pos]}, nil
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	if c := l.input[l.pos]; c == '+' || c == '-' {
		l.pos++
	}
	digits := 0
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c >= '0' && c <= '9' {
			digits++
			l.pos++
			continue
		}
		if c == '.' && !strings.Contains(l.input[start:l.pos], ".") {
			l.pos++
			continue
		}
		break
	}
	if digits == 0 {
		return token{}, fmt.Errorf("malformed number at %q", l.input[start:])
	}
	return token{kind: tokNumber, text: l.input[start:l.pos]}, nil
}

func (l *lexer) lexWord() (token, error) {
	start := l.pos
	for l.pos < len(l.input) && isNameChar(rune(l.input[l.pos])) {
		l.pos++
	}
	word := l.input[start:l.pos]

	// A following ':' makes it a prefixed name (possibly with an empty
	// local part, as in a PREFIX declaration).
	if l.pos < len(l.input) && l.input[l.pos] == ':' {
		l.pos++
		localStart := l.pos
		for l.pos < len(l.input) && isLocalChar(rune(l.input[l.pos])) {
			l.pos++
		}
		return token{kind: tokPrefixedName, text: word + ":" + l.input[localStart:l.pos]}, nil
	}
	return token{kind: tokKeywordLike, text: word}, nil
}

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127
}

func isNameChar(r rune) bool {
	return isNameStart(r) || (r >= '0' && r <= '9')
}

func isLocalChar(r rune) bool {
	return isNameChar(r) || r == '-' || r == '.' || r == '%'
}
