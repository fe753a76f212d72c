package loader

import (
	"fmt"
	"strings"

	"github.com/piprate/json-gold/ld"

	"github.com/c360/wikigraph/errors"
	"github.com/c360/wikigraph/rdf"
)

// quadsFromJSONLD normalizes a decoded JSON-LD document into statements.
// Every statement lands in the given graph: the wiki page is the unit of
// replacement, so its export URL is the graph name regardless of any
// @graph structure inside the document.
func quadsFromJSONLD(doc any, base string, graph rdf.IRI) ([]rdf.Quad, error) {
	proc := ld.NewJsonLdProcessor()
	options := ld.NewJsonLdOptions(base)
	options.ProduceGeneralizedRdf = false

	normalized, err := proc.ToRDF(doc, options)
	if err != nil {
		return nil, errors.WrapInvalid(err, "loader", "quadsFromJSONLD", "normalize document")
	}
	dataset, ok := normalized.(*ld.RDFDataset)
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("unexpected normalization result %T", normalized),
			"loader", "quadsFromJSONLD", "normalize document")
	}

	var quads []rdf.Quad
	for _, ldQuads := range dataset.Graphs {
		for _, q := range ldQuads {
			quad, err := quadFromLD(q, graph)
			if err != nil {
				return nil, err
			}
			quads = append(quads, quad)
		}
	}
	return quads, nil
}

func quadFromLD(q *ld.Quad, graph rdf.IRI) (rdf.Quad, error) {
	subject, err := termFromLD(q.Subject)
	if err != nil {
		return rdf.Quad{}, err
	}
	predicate, err := iriFromLD(q.Predicate)
	if err != nil {
		return rdf.Quad{}, err
	}
	object, err := termFromLD(q.Object)
	if err != nil {
		return rdf.Quad{}, err
	}
	return rdf.Quad{Subject: subject, Predicate: predicate, Object: object, Graph: graph}, nil
}

func termFromLD(node ld.Node) (rdf.Term, error) {
	switch n := node.(type) {
	case *ld.IRI:
		iri, err := rdf.ParseIRI(n.Value)
		if err != nil {
			return nil, err
		}
		return iri, nil
	case *ld.BlankNode:
		return rdf.BlankNode{ID: strings.TrimPrefix(n.Attribute, "_:")}, nil
	case *ld.Literal:
		switch {
		case n.Language != "":
			return rdf.NewLangLiteral(n.Value, n.Language), nil
		case n.Datatype != "" && n.Datatype != ld.XSDString:
			dt, err := rdf.ParseIRI(n.Datatype)
			if err != nil {
				return nil, errors.WrapInvalid(err, "loader", "termFromLD", "literal datatype")
			}
			return rdf.NewTypedLiteral(n.Value, dt), nil
		default:
			return rdf.NewStringLiteral(n.Value), nil
		}
	default:
		return nil, errors.WrapInvalid(
			fmt.Errorf("unexpected node type %T", node),
			"loader", "termFromLD", "convert term")
	}
}

func iriFromLD(node ld.Node) (rdf.IRI, error) {
	iri, ok := node.(*ld.IRI)
	if !ok {
		return rdf.IRI{}, errors.WrapInvalid(
			fmt.Errorf("predicate %v is not an IRI", node),
			"loader", "iriFromLD", "convert predicate")
	}
	return rdf.ParseIRI(iri.Value)
}
