package sparql

import (
	"io"

	"github.com/c360/wikigraph/errors"
	"github.com/c360/wikigraph/rdf"
)

// Results is the closed set of query result shapes: GraphResults,
// SolutionResults and BooleanResults. The shape decides which media types
// are negotiable and which serializer runs.
type Results interface {
	// Supported returns the server-supported media types for this shape,
	// in preference order (the first entry is the default).
	Supported() []string
	// Write serializes the results in the given media type.
	Write(w io.Writer, mediaType string) error
}

// GraphResults is a sequence of statements (CONSTRUCT and DESCRIBE).
type GraphResults struct {
	Quads []rdf.Quad
}

// SolutionResults is a sequence of variable bindings (SELECT).
type SolutionResults struct {
	Variables []string
	Solutions []Solution
}

// BooleanResults is a single boolean (ASK).
type BooleanResults struct {
	Value bool
}

// Solution is one row of variable bindings. Unbound variables are absent.
type Solution map[string]rdf.Term

// Media types for graph-shaped results, default first.
const (
	MediaTypeNTriples = "application/n-triples"
	MediaTypeTurtle   = "text/turtle"
	MediaTypeRDFXML   = "application/rdf+xml"
)

// Media types for solution- and boolean-shaped results, default first.
const (
	MediaTypeResultsXML  = "application/sparql-results+xml"
	MediaTypeResultsJSON = "application/sparql-results+json"
	MediaTypeResultsCSV  = "text/csv"
	MediaTypeResultsTSV  = "text/tab-separated-values"
)

var (
	graphMediaTypes    = []string{MediaTypeNTriples, MediaTypeTurtle, MediaTypeRDFXML}
	solutionMediaTypes = []string{MediaTypeResultsXML, MediaTypeResultsJSON, MediaTypeResultsCSV, MediaTypeResultsTSV}
)

// Supported returns N-Triples, Turtle and RDF/XML, N-Triples first.
func (GraphResults) Supported() []string { return graphMediaTypes }

// Write serializes the graph in the given media type.
func (g GraphResults) Write(w io.Writer, mediaType string) error {
	switch mediaType {
	case MediaTypeNTriples:
		return writeNTriples(w, g.Quads)
	case MediaTypeTurtle:
		return writeTurtle(w, g.Quads)
	case MediaTypeRDFXML:
		return writeRDFXML(w, g.Quads)
	default:
		return errors.ErrUnknownMimeType
	}
}

// Supported returns the SPARQL results formats, XML first.
func (SolutionResults) Supported() []string { return solutionMediaTypes }

// Write serializes the solution sequence in the given media type.
func (s SolutionResults) Write(w io.Writer, mediaType string) error {
	switch mediaType {
	case MediaTypeResultsXML:
		return writeSolutionsXML(w, s)
	case MediaTypeResultsJSON:
		return writeSolutionsJSON(w, s)
	case MediaTypeResultsCSV:
		return writeSolutionsCSV(w, s)
	case MediaTypeResultsTSV:
		return writeSolutionsTSV(w, s)
	default:
		return errors.ErrUnknownMimeType
	}
}

// Supported returns the SPARQL results formats, XML first.
func (BooleanResults) Supported() []string { return solutionMediaTypes }

// Write serializes the boolean in the given media type.
func (b BooleanResults) Write(w io.Writer, mediaType string) error {
	switch mediaType {
	case MediaTypeResultsXML:
		return writeBooleanXML(w, b.Value)
	case MediaTypeResultsJSON:
		return writeBooleanJSON(w, b.Value)
	case MediaTypeResultsCSV, MediaTypeResultsTSV:
		return writeBooleanPlain(w, b.Value)
	default:
		return errors.ErrUnknownMimeType
	}
}
