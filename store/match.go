package store

import (
	badger "github.com/dgraph-io/badger/v2"

	"github.com/c360/wikigraph/errors"
	"github.com/c360/wikigraph/rdf"
)

// Pattern is a quad pattern: nil term components are wildcards. Graphs
// restricts matching to the listed graphs; nil means every graph.
type Pattern struct {
	Subject   rdf.Term
	Predicate rdf.Term
	Object    rdf.Term
	Graphs    []rdf.IRI
}

// Snapshot is a stable read view over the store, backed by one Badger read
// transaction.
type Snapshot struct {
	txn *badger.Txn
}

// Close discards the underlying read transaction.
func (sn *Snapshot) Close() {
	sn.txn.Discard()
}

// Match streams every quad matching p to fn, stopping early if fn returns
// an error.
func (sn *Snapshot) Match(p Pattern, fn func(rdf.Quad) error) error {
	if len(p.Graphs) > 0 && p.Subject == nil && p.Predicate == nil && p.Object == nil {
		// Pure graph scans go straight to the graph index.
		for _, g := range p.Graphs {
			if err := sn.scan(assembleKey(prefixGraph, g.Value()), p, fn); err != nil {
				return err
			}
		}
		return nil
	}
	return sn.scan(sn.scanPrefix(p), p, fn)
}

// scanPrefix picks the most selective index for the bound components.
func (sn *Snapshot) scanPrefix(p Pattern) []byte {
	switch {
	case p.Subject != nil && p.Predicate != nil && p.Object != nil:
		return assembleKey(prefixSubject, p.Subject.String(), p.Predicate.String(), p.Object.String())
	case p.Subject != nil && p.Predicate != nil:
		return assembleKey(prefixSubject, p.Subject.String(), p.Predicate.String())
	case p.Subject != nil:
		return assembleKey(prefixSubject, p.Subject.String())
	case p.Predicate != nil && p.Object != nil:
		return assembleKey(prefixPredicate, p.Predicate.String(), p.Object.String())
	case p.Predicate != nil:
		return assembleKey(prefixPredicate, p.Predicate.String())
	case p.Object != nil:
		return assembleKey(prefixObject, p.Object.String())
	default:
		return []byte{prefixSubject}
	}
}

func (sn *Snapshot) scan(prefix []byte, p Pattern, fn func(rdf.Quad) error) error {
	it := sn.txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		quad, err := quadFromKey(it.Item().Key())
		if err != nil {
			return errors.WrapFatal(err, "Snapshot", "Match", "decode index key")
		}
		if !matches(p, quad) {
			continue
		}
		if err := fn(quad); err != nil {
			return err
		}
	}
	return nil
}

func matches(p Pattern, q rdf.Quad) bool {
	if p.Subject != nil && p.Subject != q.Subject {
		return false
	}
	if p.Predicate != nil {
		piri, ok := p.Predicate.(rdf.IRI)
		if !ok || piri != q.Predicate {
			return false
		}
	}
	if p.Object != nil && p.Object != q.Object {
		return false
	}
	if len(p.Graphs) > 0 {
		found := false
		for _, g := range p.Graphs {
			if g == q.Graph {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Contains reports whether at least one quad matches p.
func (sn *Snapshot) Contains(p Pattern) (bool, error) {
	found := false
	err := sn.Match(p, func(rdf.Quad) error {
		found = true
		return errStopIteration
	})
	if err != nil && err != errStopIteration {
		return false, err
	}
	return found, nil
}

// Graphs lists every named graph present in the snapshot.
func (sn *Snapshot) Graphs() ([]rdf.IRI, error) {
	it := sn.txn.NewIterator(badger.IteratorOptions{Prefix: []byte{prefixGraph}})
	defer it.Close()

	var graphs []rdf.IRI
	var last string
	first := true
	for it.Rewind(); it.Valid(); it.Next() {
		_, c, err := splitKey(it.Item().Key())
		if err != nil {
			return nil, errors.WrapFatal(err, "Snapshot", "Graphs", "decode index key")
		}
		if first || c[0] != last {
			first = false
			last = c[0]
			if c[0] != "" {
				graphs = append(graphs, rdf.NewIRIUnchecked(c[0]))
			}
		}
	}
	return graphs, nil
}

type stopIteration struct{}

func (stopIteration) Error() string { return "stop iteration" }

var errStopIteration error = stopIteration{}
