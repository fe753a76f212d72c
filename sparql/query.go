// Package sparql implements the SPARQL protocol layer of WikiGraph: the
// query model and parser, protocol parameter extraction, content
// negotiation, result serialization and a basic graph-pattern evaluator.
//
// The parser covers the subset the query endpoint needs end-to-end:
// SELECT / ASK / CONSTRUCT / DESCRIBE forms, BASE and PREFIX prologues,
// FROM and FROM NAMED dataset clauses, conjunctive triple patterns with
// ';' and ',' continuations, DISTINCT, LIMIT and OFFSET. Everything else
// (OPTIONAL, FILTER, property paths, expressions) is rejected with a parse
// error naming the construct.
package sparql

import (
	"fmt"
	"strings"

	"github.com/c360/wikigraph/errors"
	"github.com/c360/wikigraph/rdf"
)

// Form is the query form keyword.
type Form int

const (
	FormSelect Form = iota
	FormAsk
	FormConstruct
	FormDescribe
)

// String returns the SPARQL keyword for the form.
func (f Form) String() string {
	switch f {
	case FormSelect:
		return "SELECT"
	case FormAsk:
		return "ASK"
	case FormConstruct:
		return "CONSTRUCT"
	case FormDescribe:
		return "DESCRIBE"
	default:
		return "UNKNOWN"
	}
}

// PatternTerm is one position of a triple pattern: either a variable
// (Var non-empty) or a concrete term.
type PatternTerm struct {
	Var  string
	Term rdf.Term
}

// IsVar reports whether the position is a variable.
func (pt PatternTerm) IsVar() bool { return pt.Var != "" }

// TriplePattern is a conjunctive pattern over subject/predicate/object.
type TriplePattern struct {
	Subject   PatternTerm
	Predicate PatternTerm
	Object    PatternTerm
}

// Query is a parsed query. The dataset scope fields are mutable: the
// protocol layer overwrites them when default-graph-uri / named-graph-uri
// parameters are supplied with the request.
type Query struct {
	Form      Form
	Variables []string        // SELECT projection, empty for SELECT *
	Distinct  bool            //
	Where     []TriplePattern //
	Template  []TriplePattern // CONSTRUCT template
	Describe  []PatternTerm   // DESCRIBE targets (IRIs or variables)
	Limit     int             // 0 = unlimited
	Offset    int             //

	// Dataset scope. DefaultGraphs is the FROM list, NamedGraphs the
	// FROM NAMED list; either may be overridden post-parse.
	DefaultGraphs []rdf.IRI
	NamedGraphs   []rdf.IRI
}

// SetDefaultGraphs overwrites the query's default dataset.
func (q *Query) SetDefaultGraphs(graphs []rdf.IRI) { q.DefaultGraphs = graphs }

// SetNamedGraphs overwrites the query's available named graphs.
func (q *Query) SetNamedGraphs(graphs []rdf.IRI) { q.NamedGraphs = graphs }

// ParseError reports a query syntax failure with the parser's message.
type ParseError struct {
	Message string
}

func (e *ParseError) Error() string {
	return "query parse error: " + e.Message
}

// Parse parses text into a Query. Syntax failures return a client-fault
// classified *ParseError.
func Parse(text string) (*Query, error) {
	p := &parser{lexer: newLexer(text), prefixes: map[string]string{}}
	q, err := p.parseQuery()
	if err != nil {
		return nil, errors.Invalid(&ParseError{Message: err.Error()})
	}
	return q, nil
}

type parser struct {
	lexer    *lexer
	prefixes map[string]string
	base     string
}

func (p *parser) parseQuery() (*Query, error) {
	if err := p.parsePrologue(); err != nil {
		return nil, err
	}

	tok, err := p.lexer.next()
	if err != nil {
		return nil, err
	}
	q := &Query{}
	switch {
	case tok.isKeyword("SELECT"):
		q.Form = FormSelect
		if err := p.parseSelect(q); err != nil {
			return nil, err
		}
	case tok.isKeyword("ASK"):
		q.Form = FormAsk
		if err := p.parseAsk(q); err != nil {
			return nil, err
		}
	case tok.isKeyword("CONSTRUCT"):
		q.Form = FormConstruct
		if err := p.parseConstruct(q); err != nil {
			return nil, err
		}
	case tok.isKeyword("DESCRIBE"):
		q.Form = FormDescribe
		if err := p.parseDescribe(q); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("expected SELECT, ASK, CONSTRUCT or DESCRIBE, found %q", tok.text)
	}

	if err := p.parseModifiers(q); err != nil {
		return nil, err
	}
	tok, err = p.lexer.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokEOF {
		return nil, fmt.Errorf("unexpected trailing %q", tok.text)
	}
	return q, nil
}

func (p *parser) parsePrologue() error {
	for {
		tok, err := p.lexer.peek()
		if err != nil {
			return err
		}
		switch {
		case tok.isKeyword("BASE"):
			p.lexer.consume()
			iriTok, err := p.lexer.next()
			if err != nil {
				return err
			}
			if iriTok.kind != tokIRI {
				return fmt.Errorf("BASE expects an IRI, found %q", iriTok.text)
			}
			p.base = iriTok.text
		case tok.isKeyword("PREFIX"):
			p.lexer.consume()
			nsTok, err := p.lexer.next()
			if err != nil {
				return err
			}
			if nsTok.kind != tokPrefixedName || !strings.HasSuffix(nsTok.text, ":") {
				return fmt.Errorf("PREFIX expects a namespace declaration, found %q", nsTok.text)
			}
			iriTok, err := p.lexer.next()
			if err != nil {
				return err
			}
			if iriTok.kind != tokIRI {
				return fmt.Errorf("PREFIX expects an IRI, found %q", iriTok.text)
			}
			p.prefixes[strings.TrimSuffix(nsTok.text, ":")] = iriTok.text
		default:
			return nil
		}
	}
}

func (p *parser) parseSelect(q *Query) error {
	tok, err := p.lexer.peek()
	if err != nil {
		return err
	}
	if tok.isKeyword("DISTINCT") {
		q.Distinct = true
		p.lexer.consume()
	} else if tok.isKeyword("REDUCED") {
		p.lexer.consume()
	}

	tok, err = p.lexer.peek()
	if err != nil {
		return err
	}
	if tok.kind == tokPunct && tok.text == "*" {
		p.lexer.consume()
	} else {
		for {
			tok, err = p.lexer.peek()
			if err != nil {
				return err
			}
			if tok.kind != tokVariable {
				break
			}
			q.Variables = append(q.Variables, tok.text)
			p.lexer.consume()
		}
		if len(q.Variables) == 0 {
			return fmt.Errorf("SELECT needs a projection ('*' or variables)")
		}
	}

	if err := p.parseDatasetClauses(q); err != nil {
		return err
	}
	return p.parseWhere(q)
}

func (p *parser) parseAsk(q *Query) error {
	if err := p.parseDatasetClauses(q); err != nil {
		return err
	}
	return p.parseWhere(q)
}

func (p *parser) parseConstruct(q *Query) error {
	template, err := p.parseGroupPattern()
	if err != nil {
		return err
	}
	q.Template = template
	if err := p.parseDatasetClauses(q); err != nil {
		return err
	}
	return p.parseWhere(q)
}

func (p *parser) parseDescribe(q *Query) error {
	for {
		tok, err := p.lexer.peek()
		if err != nil {
			return err
		}
		switch tok.kind {
		case tokVariable:
			q.Describe = append(q.Describe, PatternTerm{Var: tok.text})
			p.lexer.consume()
			continue
		case tokIRI, tokPrefixedName:
			term, err := p.resolveIRIToken(tok)
			if err != nil {
				return err
			}
			q.Describe = append(q.Describe, PatternTerm{Term: term})
			p.lexer.consume()
			continue
		}
		break
	}
	if len(q.Describe) == 0 {
		return fmt.Errorf("DESCRIBE needs at least one resource or variable")
	}
	if err := p.parseDatasetClauses(q); err != nil {
		return err
	}

	// WHERE is optional for DESCRIBE.
	tok, err := p.lexer.peek()
	if err != nil {
		return err
	}
	if tok.isKeyword("WHERE") || (tok.kind == tokPunct && tok.text == "{") {
		return p.parseWhere(q)
	}
	return nil
}

func (p *parser) parseDatasetClauses(q *Query) error {
	for {
		tok, err := p.lexer.peek()
		if err != nil {
			return err
		}
		if !tok.isKeyword("FROM") {
			return nil
		}
		p.lexer.consume()

		named := false
		tok, err = p.lexer.peek()
		if err != nil {
			return err
		}
		if tok.isKeyword("NAMED") {
			named = true
			p.lexer.consume()
		}

		iriTok, err := p.lexer.next()
		if err != nil {
			return err
		}
		if iriTok.kind != tokIRI && iriTok.kind != tokPrefixedName {
			return fmt.Errorf("FROM expects an IRI, found %q", iriTok.text)
		}
		iri, err := p.resolveIRIToken(iriTok)
		if err != nil {
			return err
		}
		if named {
			q.NamedGraphs = append(q.NamedGraphs, iri)
		} else {
			q.DefaultGraphs = append(q.DefaultGraphs, iri)
		}
	}
}

func (p *parser) parseWhere(q *Query) error {
	tok, err := p.lexer.peek()
	if err != nil {
		return err
	}
	if tok.isKeyword("WHERE") {
		p.lexer.consume()
	}
	where, err := p.parseGroupPattern()
	if err != nil {
		return err
	}
	q.Where = where
	return nil
}

// parseGroupPattern parses "{ triples }" with '.' separators and ';' ','
// continuations.
func (p *parser) parseGroupPattern() ([]TriplePattern, error) {
	tok, err := p.lexer.next()
	if err != nil {
		return nil, err
	}
	if tok.kind != tokPunct || tok.text != "{" {
		return nil, fmt.Errorf("expected '{', found %q", tok.text)
	}

	var patterns []TriplePattern
	for {
		tok, err = p.lexer.peek()
		if err != nil {
			return nil, err
		}
		if tok.kind == tokPunct && tok.text == "}" {
			p.lexer.consume()
			return patterns, nil
		}
		if tok.kind == tokEOF {
			return nil, fmt.Errorf("unterminated group pattern")
		}
		if tok.kind == tokKeywordLike {
			upper := strings.ToUpper(tok.text)
			switch upper {
			case "OPTIONAL", "FILTER", "GRAPH", "UNION", "BIND", "MINUS", "SERVICE", "VALUES":
				return nil, fmt.Errorf("unsupported construct %s", upper)
			}
		}

		subject, err := p.parsePatternTerm(false)
		if err != nil {
			return nil, err
		}
		for {
			predicate, err := p.parsePatternTerm(true)
			if err != nil {
				return nil, err
			}
			for {
				object, err := p.parsePatternTerm(false)
				if err != nil {
					return nil, err
				}
				patterns = append(patterns, TriplePattern{Subject: subject, Predicate: predicate, Object: object})

				tok, err = p.lexer.peek()
				if err != nil {
					return nil, err
				}
				if tok.kind == tokPunct && tok.text == "," {
					p.lexer.consume()
					continue
				}
				break
			}
			if tok.kind == tokPunct && tok.text == ";" {
				p.lexer.consume()
				// A dangling ';' before '.' or '}' is permitted.
				tok, err = p.lexer.peek()
				if err != nil {
					return nil, err
				}
				if tok.kind == tokPunct && (tok.text == "." || tok.text == "}") {
					break
				}
				continue
			}
			break
		}
		if tok.kind == tokPunct && tok.text == "." {
			p.lexer.consume()
		}
	}
}

// parsePatternTerm parses one triple-pattern position. In predicate
// position 'a' expands to rdf:type and only IRIs and variables are valid.
func (p *parser) parsePatternTerm(predicate bool) (PatternTerm, error) {
	tok, err := p.lexer.next()
	if err != nil {
		return PatternTerm{}, err
	}
	switch tok.kind {
	case tokVariable:
		return PatternTerm{Var: tok.text}, nil
	case tokIRI, tokPrefixedName:
		iri, err := p.resolveIRIToken(tok)
		if err != nil {
			return PatternTerm{}, err
		}
		return PatternTerm{Term: iri}, nil
	case tokKeywordLike:
		if tok.text == "a" {
			return PatternTerm{Term: rdf.NewIRIUnchecked(rdfTypeIRI)}, nil
		}
		if !predicate {
			if lit, ok := keywordLiteral(tok.text); ok {
				return PatternTerm{Term: lit}, nil
			}
		}
		return PatternTerm{}, fmt.Errorf("unexpected %q in triple pattern", tok.text)
	case tokLiteral:
		if predicate {
			return PatternTerm{}, fmt.Errorf("literal %q cannot be a predicate", tok.text)
		}
		lit, err := p.literalFromToken(tok)
		if err != nil {
			return PatternTerm{}, err
		}
		return PatternTerm{Term: lit}, nil
	case tokNumber:
		if predicate {
			return PatternTerm{}, fmt.Errorf("number %q cannot be a predicate", tok.text)
		}
		dt := "http://www.w3.org/2001/XMLSchema#integer"
		if strings.Contains(tok.text, ".") {
			dt = "http://www.w3.org/2001/XMLSchema#decimal"
		}
		return PatternTerm{Term: rdf.NewTypedLiteral(tok.text, rdf.NewIRIUnchecked(dt))}, nil
	case tokBlankNode:
		if predicate {
			return PatternTerm{}, fmt.Errorf("blank node cannot be a predicate")
		}
		return PatternTerm{Term: rdf.BlankNode{ID: tok.text}}, nil
	default:
		return PatternTerm{}, fmt.Errorf("unexpected %q in triple pattern", tok.text)
	}
}

func (p *parser) parseModifiers(q *Query) error {
	for {
		tok, err := p.lexer.peek()
		if err != nil {
			return err
		}
		switch {
		case tok.isKeyword("LIMIT"):
			p.lexer.consume()
			n, err := p.lexer.nextInteger()
			if err != nil {
				return fmt.Errorf("LIMIT expects an integer: %w", err)
			}
			q.Limit = n
		case tok.isKeyword("OFFSET"):
			p.lexer.consume()
			n, err := p.lexer.nextInteger()
			if err != nil {
				return fmt.Errorf("OFFSET expects an integer: %w", err)
			}
			q.Offset = n
		default:
			return nil
		}
	}
}

const rdfTypeIRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

func (p *parser) resolveIRIToken(tok token) (rdf.IRI, error) {
	switch tok.kind {
	case tokIRI:
		text := tok.text
		if p.base != "" && !strings.Contains(text, ":") {
			text = p.base + text
		}
		iri, err := rdf.ParseIRI(text)
		if err != nil {
			return rdf.IRI{}, err
		}
		return iri, nil
	case tokPrefixedName:
		prefix, local, found := strings.Cut(tok.text, ":")
		if !found {
			return rdf.IRI{}, fmt.Errorf("malformed prefixed name %q", tok.text)
		}
		ns, ok := p.prefixes[prefix]
		if !ok {
			return rdf.IRI{}, fmt.Errorf("undeclared prefix %q", prefix)
		}
		return rdf.ParseIRI(ns + local)
	default:
		return rdf.IRI{}, fmt.Errorf("expected an IRI, found %q", tok.text)
	}
}

func (p *parser) literalFromToken(tok token) (rdf.Literal, error) {
	switch {
	case tok.langTag != "":
		return rdf.NewLangLiteral(tok.text, tok.langTag), nil
	case tok.datatype != "":
		dtTok := token{kind: tokIRI, text: tok.datatype}
		if tok.datatypePrefixed {
			dtTok.kind = tokPrefixedName
		}
		dt, err := p.resolveIRIToken(dtTok)
		if err != nil {
			return rdf.Literal{}, err
		}
		return rdf.NewTypedLiteral(tok.text, dt), nil
	default:
		return rdf.NewStringLiteral(tok.text), nil
	}
}

func keywordLiteral(text string) (rdf.Literal, bool) {
	switch text {
	case "true", "false":
		return rdf.NewTypedLiteral(text, rdf.NewIRIUnchecked("http://www.w3.org/2001/XMLSchema#boolean")), true
	}
	return rdf.Literal{}, false
}
