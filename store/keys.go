package store

import (
	"encoding/binary"
	"fmt"

	"github.com/c360/wikigraph/rdf"
)

// Key layout. Every quad is written under four index orderings so any
// single bound component (and the graph scope) can be resolved with one
// prefix scan:
//
//	'g' | graph | subject | predicate | object
//	's' | subject | predicate | object | graph
//	'p' | predicate | object | subject | graph
//	'o' | object | subject | predicate | graph
//
// Components are the N-Triples renderings of the terms (unique per term),
// uvarint length-prefixed so keys decode unambiguously even when a literal
// contains arbitrary bytes. The graph component is the bare IRI text, empty
// for the default graph.
const (
	prefixGraph     = 'g'
	prefixSubject   = 's'
	prefixPredicate = 'p'
	prefixObject    = 'o'
	prefixMeta      = 'm'
)

var cursorKey = metaKey("sync-cursor")

func metaKey(name string) []byte {
	return append([]byte{prefixMeta}, name...)
}

// encQuad is a quad reduced to its four encoded components.
type encQuad struct {
	s, p, o, g string
}

func encodeQuad(q rdf.Quad) encQuad {
	return encQuad{
		s: q.Subject.String(),
		p: q.Predicate.String(),
		o: q.Object.String(),
		g: q.Graph.Value(),
	}
}

func (e encQuad) decode() (rdf.Quad, error) {
	subject, err := rdf.ParseTerm(e.s)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("decode subject: %w", err)
	}
	predicate, err := rdf.ParseTerm(e.p)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("decode predicate: %w", err)
	}
	piri, ok := predicate.(rdf.IRI)
	if !ok {
		return rdf.Quad{}, fmt.Errorf("predicate %q is not an IRI", e.p)
	}
	object, err := rdf.ParseTerm(e.o)
	if err != nil {
		return rdf.Quad{}, fmt.Errorf("decode object: %w", err)
	}
	var graph rdf.IRI
	if e.g != "" {
		graph = rdf.NewIRIUnchecked(e.g)
	}
	return rdf.Quad{Subject: subject, Predicate: piri, Object: object, Graph: graph}, nil
}

// assembleKey builds "prefix | comp1 | comp2 | ..." with uvarint framing.
// Passing fewer than four components yields a scan prefix.
func assembleKey(prefix byte, components ...string) []byte {
	size := 1
	for _, c := range components {
		size += binary.MaxVarintLen32 + len(c)
	}
	key := make([]byte, 1, size)
	key[0] = prefix
	for _, c := range components {
		key = binary.AppendUvarint(key, uint64(len(c)))
		key = append(key, c...)
	}
	return key
}

func (e encQuad) keys() [4][]byte {
	return [4][]byte{
		assembleKey(prefixGraph, e.g, e.s, e.p, e.o),
		assembleKey(prefixSubject, e.s, e.p, e.o, e.g),
		assembleKey(prefixPredicate, e.p, e.o, e.s, e.g),
		assembleKey(prefixObject, e.o, e.s, e.p, e.g),
	}
}

// splitKey decodes the four framed components of an index key.
func splitKey(key []byte) (prefix byte, components [4]string, err error) {
	if len(key) == 0 {
		return 0, components, fmt.Errorf("empty key")
	}
	prefix = key[0]
	rest := key[1:]
	for i := 0; i < 4; i++ {
		length, n := binary.Uvarint(rest)
		if n <= 0 || uint64(len(rest)-n) < length {
			return 0, components, fmt.Errorf("truncated key component %d", i)
		}
		components[i] = string(rest[n : n+int(length)])
		rest = rest[n+int(length):]
	}
	if len(rest) != 0 {
		return 0, components, fmt.Errorf("trailing bytes in key")
	}
	return prefix, components, nil
}

// quadFromKey reorders an index key's components back into s/p/o/g.
func quadFromKey(key []byte) (rdf.Quad, error) {
	prefix, c, err := splitKey(key)
	if err != nil {
		return rdf.Quad{}, err
	}
	var e encQuad
	switch prefix {
	case prefixGraph:
		e = encQuad{g: c[0], s: c[1], p: c[2], o: c[3]}
	case prefixSubject:
		e = encQuad{s: c[0], p: c[1], o: c[2], g: c[3]}
	case prefixPredicate:
		e = encQuad{p: c[0], o: c[1], s: c[2], g: c[3]}
	case prefixObject:
		e = encQuad{o: c[0], s: c[1], p: c[2], g: c[3]}
	default:
		return rdf.Quad{}, fmt.Errorf("unknown index prefix %q", prefix)
	}
	return e.decode()
}
