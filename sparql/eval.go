package sparql

import (
	"github.com/c360/wikigraph/errors"
	"github.com/c360/wikigraph/rdf"
	"github.com/c360/wikigraph/store"
)

// Matcher is the narrow store surface the evaluator needs: streaming quad
// pattern matching over a stable snapshot. *store.Snapshot satisfies it.
type Matcher interface {
	Match(p store.Pattern, fn func(rdf.Quad) error) error
}

// Evaluate runs q against m and returns results in the shape the query
// form dictates. The evaluator handles conjunctive triple patterns with
// variable joins; anything beyond that was already rejected by Parse.
//
// A nil default-graph scope evaluates over the union of all graphs,
// which is the store-level default for a wiki-synchronized dataset where
// every page lives in its own named graph. A non-nil empty scope is a
// dataset explicitly set to no graphs and matches nothing.
func Evaluate(m Matcher, q *Query) (Results, error) {
	solutions, err := solve(m, q.Where, q.DefaultGraphs)
	if err != nil {
		return nil, errors.WrapTransient(err, "sparql", "Evaluate", "match patterns")
	}

	switch q.Form {
	case FormAsk:
		return BooleanResults{Value: len(solutions) > 0}, nil
	case FormSelect:
		return selectResults(q, solutions), nil
	case FormConstruct:
		return constructResults(q, solutions), nil
	case FormDescribe:
		return describeResults(m, q, solutions)
	default:
		return nil, errors.Invalidf("unsupported query form %s", q.Form)
	}
}

type binding map[string]rdf.Term

// emptyScope reports a dataset explicitly set to no graphs, as opposed to
// a nil scope, which means the union of all graphs.
func emptyScope(graphs []rdf.IRI) bool {
	return graphs != nil && len(graphs) == 0
}

// solve joins the patterns left to right, extending the binding set one
// pattern at a time.
func solve(m Matcher, patterns []TriplePattern, graphs []rdf.IRI) ([]binding, error) {
	if len(patterns) > 0 && emptyScope(graphs) {
		return nil, nil
	}
	solutions := []binding{{}}
	for _, pattern := range patterns {
		var next []binding
		for _, b := range solutions {
			extended, err := extend(m, pattern, b, graphs)
			if err != nil {
				return nil, err
			}
			next = append(next, extended...)
		}
		solutions = next
		if len(solutions) == 0 {
			break
		}
	}
	return solutions, nil
}

func extend(m Matcher, pattern TriplePattern, b binding, graphs []rdf.IRI) ([]binding, error) {
	resolve := func(pt PatternTerm) rdf.Term {
		if pt.IsVar() {
			return b[pt.Var] // nil when still unbound
		}
		return pt.Term
	}

	sp := store.Pattern{
		Subject:   resolve(pattern.Subject),
		Predicate: resolve(pattern.Predicate),
		Object:    resolve(pattern.Object),
		Graphs:    graphs,
	}

	var out []binding
	err := m.Match(sp, func(q rdf.Quad) error {
		nb := b
		copied := false
		bind := func(pt PatternTerm, term rdf.Term) bool {
			if !pt.IsVar() {
				return true
			}
			if existing, bound := nb[pt.Var]; bound {
				return existing == term
			}
			if !copied {
				clone := make(binding, len(nb)+3)
				for k, v := range nb {
					clone[k] = v
				}
				nb = clone
				copied = true
			}
			nb[pt.Var] = term
			return true
		}
		if bind(pattern.Subject, q.Subject) &&
			bind(pattern.Predicate, q.Predicate) &&
			bind(pattern.Object, q.Object) {
			out = append(out, nb)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func selectResults(q *Query, solutions []binding) SolutionResults {
	vars := q.Variables
	if len(vars) == 0 {
		vars = collectVariables(q.Where)
	}

	results := SolutionResults{Variables: vars}
	seen := map[string]bool{}
	for _, b := range solutions {
		row := make(Solution, len(vars))
		for _, v := range vars {
			if term, bound := b[v]; bound {
				row[v] = term
			}
		}
		if q.Distinct {
			key := solutionKey(vars, row)
			if seen[key] {
				continue
			}
			seen[key] = true
		}
		results.Solutions = append(results.Solutions, row)
	}
	results.Solutions = sliceWindow(results.Solutions, q.Offset, q.Limit)
	return results
}

func constructResults(q *Query, solutions []binding) GraphResults {
	var quads []rdf.Quad
	seen := map[string]bool{}
	for _, b := range solutions {
		for _, tp := range q.Template {
			quad, ok := instantiate(tp, b)
			if !ok {
				continue
			}
			key := quad.Triple()
			if seen[key] {
				continue
			}
			seen[key] = true
			quads = append(quads, quad)
		}
	}
	return GraphResults{Quads: sliceWindow(quads, q.Offset, q.Limit)}
}

func describeResults(m Matcher, q *Query, solutions []binding) (Results, error) {
	var resources []rdf.Term
	seenResource := map[string]bool{}
	add := func(term rdf.Term) {
		if term == nil {
			return
		}
		if _, isLiteral := term.(rdf.Literal); isLiteral {
			return
		}
		key := term.String()
		if !seenResource[key] {
			seenResource[key] = true
			resources = append(resources, term)
		}
	}
	for _, target := range q.Describe {
		if !target.IsVar() {
			add(target.Term)
			continue
		}
		for _, b := range solutions {
			add(b[target.Var])
		}
	}

	if emptyScope(q.DefaultGraphs) {
		return GraphResults{}, nil
	}

	var quads []rdf.Quad
	seen := map[string]bool{}
	for _, resource := range resources {
		err := m.Match(store.Pattern{Subject: resource, Graphs: q.DefaultGraphs}, func(quad rdf.Quad) error {
			key := quad.Triple()
			if !seen[key] {
				seen[key] = true
				quads = append(quads, quad)
			}
			return nil
		})
		if err != nil {
			return nil, errors.WrapTransient(err, "sparql", "Evaluate", "describe resource")
		}
	}
	return GraphResults{Quads: quads}, nil
}

func instantiate(tp TriplePattern, b binding) (rdf.Quad, bool) {
	resolve := func(pt PatternTerm) rdf.Term {
		if pt.IsVar() {
			return b[pt.Var]
		}
		return pt.Term
	}
	subject := resolve(tp.Subject)
	predicate := resolve(tp.Predicate)
	object := resolve(tp.Object)
	if subject == nil || predicate == nil || object == nil {
		return rdf.Quad{}, false
	}
	piri, ok := predicate.(rdf.IRI)
	if !ok {
		return rdf.Quad{}, false
	}
	if _, isLiteral := subject.(rdf.Literal); isLiteral {
		return rdf.Quad{}, false
	}
	return rdf.Quad{Subject: subject, Predicate: piri, Object: object}, true
}

func collectVariables(patterns []TriplePattern) []string {
	var vars []string
	seen := map[string]bool{}
	add := func(pt PatternTerm) {
		if pt.IsVar() && !seen[pt.Var] {
			seen[pt.Var] = true
			vars = append(vars, pt.Var)
		}
	}
	for _, tp := range patterns {
		add(tp.Subject)
		add(tp.Predicate)
		add(tp.Object)
	}
	return vars
}

func solutionKey(vars []string, row Solution) string {
	key := ""
	for _, v := range vars {
		if term, bound := row[v]; bound {
			key += term.String()
		}
		key += "\x1f"
	}
	return key
}

func sliceWindow[T any](items []T, offset, limit int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
