// Package wikigraph is an RDF knowledge-graph store that is kept
// continuously synchronized with a MediaWiki/Wikibase knowledge base while
// serving read-only SPARQL protocol queries to concurrent HTTP clients.
//
// # Architecture
//
// WikiGraph is split into two cooperating halves that share a single store:
//
// Writer side:
//   - loader: performs an initial bulk import from the wiki, then polls
//     for recent changes indefinitely and applies each changed page as one
//     atomic store batch. It is the only writer in the process.
//
// Reader side:
//   - server: the SPARQL protocol endpoint. Each request extracts the query
//     and optional dataset scope, parses it, evaluates it against a store
//     snapshot, negotiates the response format and serializes the result.
//
// Supporting packages:
//   - rdf: validated IRIs, the RDF term model and the literal escape codec
//   - vocabulary: read-only RDF/RDFS/XSD term constants
//   - store: the Badger-backed quad store (snapshot reads, atomic batches)
//   - sparql: query model, protocol parameter extraction, content
//     negotiation, result serialization and a basic pattern evaluator
//   - errors, pkg/retry, metric, config: classified errors, bounded
//     backoff, Prometheus metrics and startup configuration
//
// Concurrency safety between the loader and query handlers is delegated
// entirely to the store's transaction model: queries read from a snapshot,
// the loader commits each batch atomically, and no application-level
// locking exists anywhere in the request path.
package wikigraph
