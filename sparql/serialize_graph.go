package sparql

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/c360/wikigraph/rdf"
)

// writeNTriples emits one triple per line. Graph components are dropped:
// graph-shaped query results are triples.
func writeNTriples(w io.Writer, quads []rdf.Quad) error {
	bw := bufio.NewWriter(w)
	for _, q := range quads {
		if _, err := bw.WriteString(q.Triple()); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// writeTurtle emits prefixless Turtle, grouping consecutive triples that
// share a subject with ';' continuations.
func writeTurtle(w io.Writer, quads []rdf.Quad) error {
	bw := bufio.NewWriter(w)
	var current rdf.Term
	for i, q := range quads {
		if current != nil && q.Subject == current {
			if _, err := fmt.Fprintf(bw, " ;\n\t%s %s", q.Predicate, q.Object); err != nil {
				return err
			}
			continue
		}
		if i > 0 {
			if _, err := bw.WriteString(" .\n"); err != nil {
				return err
			}
		}
		current = q.Subject
		if _, err := fmt.Fprintf(bw, "%s %s %s", q.Subject, q.Predicate, q.Object); err != nil {
			return err
		}
	}
	if len(quads) > 0 {
		if _, err := bw.WriteString(" .\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

const rdfXMLNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"

// writeRDFXML emits one rdf:Description element per triple. Property
// QNames carry their own namespace declaration, so arbitrary predicate
// IRIs serialize without a shared prefix table.
func writeRDFXML(w io.Writer, quads []rdf.Quad) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<rdf:RDF xmlns:rdf=%q>\n", rdfXMLNamespace); err != nil {
		return err
	}
	for _, q := range quads {
		if err := writeRDFXMLTriple(bw, q); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("</rdf:RDF>\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func writeRDFXMLTriple(bw *bufio.Writer, q rdf.Quad) error {
	switch s := q.Subject.(type) {
	case rdf.IRI:
		if _, err := fmt.Fprintf(bw, "\t<rdf:Description rdf:about=%q>\n", s.Value()); err != nil {
			return err
		}
	case rdf.BlankNode:
		if _, err := fmt.Fprintf(bw, "\t<rdf:Description rdf:nodeID=%q>\n", s.ID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unserializable subject %s", q.Subject)
	}

	ns, local, ok := splitForQName(q.Predicate.Value())
	if !ok {
		return fmt.Errorf("predicate %s cannot be expressed as an XML QName", q.Predicate)
	}

	switch o := q.Object.(type) {
	case rdf.IRI:
		if _, err := fmt.Fprintf(bw, "\t\t<p:%s xmlns:p=%q rdf:resource=%q/>\n", local, ns, o.Value()); err != nil {
			return err
		}
	case rdf.BlankNode:
		if _, err := fmt.Fprintf(bw, "\t\t<p:%s xmlns:p=%q rdf:nodeID=%q/>\n", local, ns, o.ID); err != nil {
			return err
		}
	case rdf.Literal:
		if _, err := fmt.Fprintf(bw, "\t\t<p:%s xmlns:p=%q", local, ns); err != nil {
			return err
		}
		if o.Language != "" {
			if _, err := fmt.Fprintf(bw, " xml:lang=%q", o.Language); err != nil {
				return err
			}
		} else if !o.Datatype.IsZero() {
			if _, err := fmt.Fprintf(bw, " rdf:datatype=%q", o.Datatype.Value()); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('>'); err != nil {
			return err
		}
		if err := xml.EscapeText(bw, []byte(o.Value)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(bw, "</p:%s>\n", local); err != nil {
			return err
		}
	}
	_, err := bw.WriteString("\t</rdf:Description>\n")
	return err
}

// splitForQName splits an IRI at the last '#' or '/' into a namespace and
// an XML-name-safe local part.
func splitForQName(iri string) (ns, local string, ok bool) {
	idx := strings.LastIndexAny(iri, "#/")
	if idx < 0 || idx == len(iri)-1 {
		return "", "", false
	}
	ns, local = iri[:idx+1], iri[idx+1:]
	if !validXMLName(local) {
		return "", "", false
	}
	return ns, local, true
}

func validXMLName(s string) bool {
	for i, r := range s {
		alpha := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r > 127
		if i == 0 && !alpha {
			return false
		}
		if !alpha && !(r >= '0' && r <= '9') && r != '-' && r != '.' {
			return false
		}
	}
	return s != ""
}
