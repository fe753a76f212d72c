// Package store implements the persistent quad store shared by the
// synchronization loader (sole writer) and the query handlers (readers).
//
// The store is a Badger database holding each quad under four index
// orderings. All concurrency safety the rest of WikiGraph relies on comes
// from Badger's transaction model: Snapshot wraps a read transaction and
// therefore observes a stable view, and ApplyBatch commits its deletes,
// inserts and cursor advance in one update transaction, so a reader sees
// either none or all of a batch.
package store

import (
	"context"
	"log/slog"

	badger "github.com/dgraph-io/badger/v2"

	"github.com/c360/wikigraph/errors"
	"github.com/c360/wikigraph/rdf"
)

// Store is a cloneable, thread-safe handle to the persistent quad store.
// All clones share the same underlying database.
type Store struct {
	path string
	db   *badger.DB
}

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is noisy; we log lifecycle events ourselves
	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.WrapFatal(err, "Store", "Open", "open badger database")
	}
	slog.Info("Opened quad store", "path", path)
	return &Store{path: path, db: db}, nil
}

// Clone returns a handle sharing the same underlying database. Handles are
// already safe for concurrent use; Clone exists so ownership of the handle
// given to the loader is explicit.
func (s *Store) Clone() *Store {
	return &Store{path: s.path, db: s.db}
}

// Path returns the directory the store persists into.
func (s *Store) Path() string { return s.path }

// Close releases the underlying database. Only the handle originally
// returned by Open should be closed, once, at process shutdown.
func (s *Store) Close() error {
	return s.db.Close()
}

// Batch is one atomic unit of change: graphs dropped, quads inserted and
// an optional synchronization cursor advance, committed together.
type Batch struct {
	DropGraphs []rdf.IRI
	Inserts    []rdf.Quad
	Cursor     string
}

// ApplyBatch applies b in a single update transaction. Readers observe the
// pre-batch or post-batch state, never a mix.
func (s *Store) ApplyBatch(ctx context.Context, b Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, g := range b.DropGraphs {
			if err := dropGraphTxn(txn, g); err != nil {
				return err
			}
		}
		for _, q := range b.Inserts {
			for _, key := range encodeQuad(q).keys() {
				if err := txn.Set(key, nil); err != nil {
					return err
				}
			}
		}
		if b.Cursor != "" {
			if err := txn.Set(cursorKey, []byte(b.Cursor)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.WrapTransient(err, "Store", "ApplyBatch", "commit batch")
	}
	return nil
}

// ReplaceGraph atomically replaces every statement in the named graph with
// quads. The quads' graph components are forced to graph.
func (s *Store) ReplaceGraph(ctx context.Context, graph rdf.IRI, quads []rdf.Quad) error {
	inserts := make([]rdf.Quad, len(quads))
	for i, q := range quads {
		q.Graph = graph
		inserts[i] = q
	}
	return s.ApplyBatch(ctx, Batch{DropGraphs: []rdf.IRI{graph}, Inserts: inserts})
}

func dropGraphTxn(txn *badger.Txn, graph rdf.IRI) error {
	prefix := assembleKey(prefixGraph, graph.Value())
	it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix})
	defer it.Close()

	// Collect first: deleting while iterating the same prefix is undefined.
	var doomed [][]byte
	for it.Rewind(); it.Valid(); it.Next() {
		doomed = append(doomed, it.Item().KeyCopy(nil))
	}
	for _, gKey := range doomed {
		_, c, err := splitKey(gKey)
		if err != nil {
			return err
		}
		e := encQuad{g: c[0], s: c[1], p: c[2], o: c[3]}
		for _, key := range e.keys() {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
	}
	return nil
}

// SyncCursor returns the persisted synchronization cursor, or "" when no
// load has happened yet.
func (s *Store) SyncCursor() (string, error) {
	var cursor string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(cursorKey)
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			cursor = string(val)
			return nil
		})
	})
	if err != nil {
		return "", errors.WrapTransient(err, "Store", "SyncCursor", "read cursor")
	}
	return cursor, nil
}

// SetSyncCursor persists the cursor outside of a batch. The loader uses
// this only at the start of the initial load; batch-coupled advances go
// through ApplyBatch.
func (s *Store) SetSyncCursor(cursor string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(cursorKey, []byte(cursor))
	})
	if err != nil {
		return errors.WrapTransient(err, "Store", "SetSyncCursor", "write cursor")
	}
	return nil
}

// Snapshot returns a read view of the store at the current commit point.
// The caller must Close it.
func (s *Store) Snapshot() *Snapshot {
	return &Snapshot{txn: s.db.NewTransaction(false)}
}
