package rdf

import "strings"

// Term is the closed set of RDF term kinds: IRI, BlankNode and Literal.
// The String method of every implementation renders the N-Triples form.
type Term interface {
	String() string
	terminal()
}

// BlankNode is a graph-scoped anonymous node identified by a local label.
type BlankNode struct {
	ID string
}

// String returns the N-Triples form "_:label".
func (b BlankNode) String() string { return "_:" + b.ID }

func (BlankNode) terminal() {}

// Literal is an RDF literal: a lexical value with either a language tag or
// a datatype IRI. A literal with neither is a plain xsd:string literal.
type Literal struct {
	Value    string
	Language string
	Datatype IRI
}

// NewStringLiteral returns a plain string literal.
func NewStringLiteral(value string) Literal {
	return Literal{Value: value}
}

// NewLangLiteral returns a language-tagged literal. Tags are normalized to
// lower case for comparison stability.
func NewLangLiteral(value, language string) Literal {
	return Literal{Value: value, Language: strings.ToLower(language)}
}

// NewTypedLiteral returns a literal with an explicit datatype.
func NewTypedLiteral(value string, datatype IRI) Literal {
	return Literal{Value: value, Datatype: datatype}
}

// String returns the N-Triples form of the literal with the value escaped.
func (l Literal) String() string {
	var sb strings.Builder
	sb.WriteByte('"')
	sb.WriteString(Escape(l.Value))
	sb.WriteByte('"')
	switch {
	case l.Language != "":
		sb.WriteByte('@')
		sb.WriteString(l.Language)
	case !l.Datatype.IsZero():
		sb.WriteString("^^")
		sb.WriteString(l.Datatype.String())
	}
	return sb.String()
}

func (Literal) terminal() {}

// Quad is one statement: subject, predicate, object and the graph it
// belongs to. A zero Graph denotes the default graph.
type Quad struct {
	Subject   Term // IRI or BlankNode
	Predicate IRI
	Object    Term
	Graph     IRI
}

// Triple returns the quad without its graph component, as an N-Triples
// line (without the trailing newline).
func (q Quad) Triple() string {
	return q.Subject.String() + " " + q.Predicate.String() + " " + q.Object.String() + " ."
}

// String returns the N-Quads form of the statement.
func (q Quad) String() string {
	if q.Graph.IsZero() {
		return q.Triple()
	}
	return q.Subject.String() + " " + q.Predicate.String() + " " +
		q.Object.String() + " " + q.Graph.String() + " ."
}
