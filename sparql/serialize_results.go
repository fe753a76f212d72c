package sparql

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/c360/wikigraph/rdf"
)

const sparqlResultsNamespace = "http://www.w3.org/2005/sparql-results#"

func writeSolutionsXML(w io.Writer, s SolutionResults) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "<?xml version=\"1.0\"?>\n<sparql xmlns=%q>\n<head>\n", sparqlResultsNamespace); err != nil {
		return err
	}
	for _, v := range s.Variables {
		if _, err := fmt.Fprintf(bw, "\t<variable name=%q/>\n", v); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("</head>\n<results>\n"); err != nil {
		return err
	}
	for _, solution := range s.Solutions {
		if _, err := bw.WriteString("\t<result>\n"); err != nil {
			return err
		}
		for _, v := range s.Variables {
			term, bound := solution[v]
			if !bound {
				continue
			}
			if _, err := fmt.Fprintf(bw, "\t\t<binding name=%q>", v); err != nil {
				return err
			}
			if err := writeXMLTerm(bw, term); err != nil {
				return err
			}
			if _, err := bw.WriteString("</binding>\n"); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("\t</result>\n"); err != nil {
			return err
		}
	}
	if _, err := bw.WriteString("</results>\n</sparql>\n"); err != nil {
		return err
	}
	return bw.Flush()
}

func writeXMLTerm(bw *bufio.Writer, term rdf.Term) error {
	switch t := term.(type) {
	case rdf.IRI:
		if _, err := bw.WriteString("<uri>"); err != nil {
			return err
		}
		if err := xml.EscapeText(bw, []byte(t.Value())); err != nil {
			return err
		}
		_, err := bw.WriteString("</uri>")
		return err
	case rdf.BlankNode:
		_, err := fmt.Fprintf(bw, "<bnode>%s</bnode>", t.ID)
		return err
	case rdf.Literal:
		if _, err := bw.WriteString("<literal"); err != nil {
			return err
		}
		if t.Language != "" {
			if _, err := fmt.Fprintf(bw, " xml:lang=%q", t.Language); err != nil {
				return err
			}
		} else if !t.Datatype.IsZero() {
			if _, err := fmt.Fprintf(bw, " datatype=%q", t.Datatype.Value()); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('>'); err != nil {
			return err
		}
		if err := xml.EscapeText(bw, []byte(t.Value)); err != nil {
			return err
		}
		_, err := bw.WriteString("</literal>")
		return err
	default:
		return fmt.Errorf("unserializable term %v", term)
	}
}

func writeBooleanXML(w io.Writer, value bool) error {
	_, err := fmt.Fprintf(w, "<?xml version=\"1.0\"?>\n<sparql xmlns=%q>\n<head/>\n<boolean>%t</boolean>\n</sparql>\n",
		sparqlResultsNamespace, value)
	return err
}

// JSON per the "SPARQL 1.1 Query Results JSON Format" recommendation.

type jsonResults struct {
	Head    jsonHead      `json:"head"`
	Results *jsonBindings `json:"results,omitempty"`
	Boolean *bool         `json:"boolean,omitempty"`
}

type jsonHead struct {
	Vars []string `json:"vars,omitempty"`
}

type jsonBindings struct {
	Bindings []map[string]jsonTerm `json:"bindings"`
}

type jsonTerm struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Language string `json:"xml:lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

func jsonTermOf(term rdf.Term) jsonTerm {
	switch t := term.(type) {
	case rdf.IRI:
		return jsonTerm{Type: "uri", Value: t.Value()}
	case rdf.BlankNode:
		return jsonTerm{Type: "bnode", Value: t.ID}
	case rdf.Literal:
		return jsonTerm{Type: "literal", Value: t.Value, Language: t.Language, Datatype: t.Datatype.Value()}
	default:
		return jsonTerm{}
	}
}

func writeSolutionsJSON(w io.Writer, s SolutionResults) error {
	bindings := make([]map[string]jsonTerm, len(s.Solutions))
	for i, solution := range s.Solutions {
		row := make(map[string]jsonTerm, len(solution))
		for v, term := range solution {
			row[v] = jsonTermOf(term)
		}
		bindings[i] = row
	}
	vars := s.Variables
	if vars == nil {
		vars = []string{}
	}
	enc := json.NewEncoder(w)
	return enc.Encode(jsonResults{
		Head:    jsonHead{Vars: vars},
		Results: &jsonBindings{Bindings: bindings},
	})
}

func writeBooleanJSON(w io.Writer, value bool) error {
	enc := json.NewEncoder(w)
	return enc.Encode(jsonResults{Boolean: &value})
}

// CSV carries bare lexical values; TSV carries full N-Triples term syntax.
// Both follow the "SPARQL 1.1 Query Results CSV and TSV Formats" note.

func writeSolutionsCSV(w io.Writer, s SolutionResults) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(s.Variables); err != nil {
		return err
	}
	row := make([]string, len(s.Variables))
	for _, solution := range s.Solutions {
		for i, v := range s.Variables {
			row[i] = csvValue(solution[v])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvValue(term rdf.Term) string {
	switch t := term.(type) {
	case nil:
		return ""
	case rdf.IRI:
		return t.Value()
	case rdf.BlankNode:
		return "_:" + t.ID
	case rdf.Literal:
		return t.Value
	default:
		return ""
	}
}

func writeSolutionsTSV(w io.Writer, s SolutionResults) error {
	bw := bufio.NewWriter(w)
	for i, v := range s.Variables {
		if i > 0 {
			if err := bw.WriteByte('\t'); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString("?" + v); err != nil {
			return err
		}
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	for _, solution := range s.Solutions {
		for i, v := range s.Variables {
			if i > 0 {
				if err := bw.WriteByte('\t'); err != nil {
					return err
				}
			}
			if term, bound := solution[v]; bound {
				if _, err := bw.WriteString(term.String()); err != nil {
					return err
				}
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeBooleanPlain(w io.Writer, value bool) error {
	_, err := fmt.Fprintf(w, "%t\n", value)
	return err
}
