// Package loader keeps the store synchronized with an upstream
// MediaWiki/Wikibase installation: a one-shot initial bulk load followed
// by an indefinite incremental update loop driven by the wiki's recent
// changes feed. Each wiki page maps to one named graph; applying a page
// is a single atomic graph replacement.
package loader

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/c360/wikigraph/errors"
	"github.com/c360/wikigraph/metric"
	"github.com/c360/wikigraph/pkg/retry"
	"github.com/c360/wikigraph/rdf"
	"github.com/c360/wikigraph/store"
)

// DefaultSyncInterval is the update-loop poll interval when none is
// configured.
const DefaultSyncInterval = 10 * time.Second

// apiTimeFormat is the MediaWiki API timestamp layout.
const apiTimeFormat = "2006-01-02T15:04:05Z"

// Options tunes a Loader beyond its store and client.
type Options struct {
	// Namespaces restricts synchronization to the listed wiki
	// namespaces. Defaults to namespace 0. Mutually exclusive with Slot.
	Namespaces []int
	// Slot restricts synchronization to changes touching one content
	// slot. Mutually exclusive with Namespaces.
	Slot string
	// Interval between update-loop polls.
	Interval time.Duration

	Logger    *slog.Logger
	Metrics   *metric.Metrics
	Publisher *Publisher
}

// Loader synchronizes the store with the upstream wiki. It is the only
// writer in the process.
type Loader struct {
	store      *store.Store
	client     *Client
	namespaces []int
	slot       string
	interval   time.Duration
	logger     *slog.Logger
	metrics    *metric.Metrics
	publisher  *Publisher
}

// New validates the options and builds a loader.
func New(st *store.Store, client *Client, opts Options) (*Loader, error) {
	if st == nil || client == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "Loader", "New",
			"store and client are required")
	}
	if opts.Slot != "" && len(opts.Namespaces) > 0 {
		return nil, errors.WrapInvalid(errors.ErrInvalidConfig, "Loader", "New",
			"namespace and slot filters are mutually exclusive")
	}

	namespaces := opts.Namespaces
	if len(namespaces) == 0 {
		namespaces = []int{0}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Loader{
		store:      st,
		client:     client,
		namespaces: namespaces,
		slot:       opts.Slot,
		interval:   interval,
		logger:     logger,
		metrics:    opts.Metrics,
		publisher:  opts.Publisher,
	}, nil
}

// InitialLoad pulls every page in scope into the store and seeds the sync
// cursor with the upstream clock read before listing started, so changes
// racing the bulk load are replayed by the first update iteration. Any
// failure is fatal: the process must not serve a partially loaded store.
func (l *Loader) InitialLoad(ctx context.Context) error {
	start := time.Now()
	cursor, err := l.client.ServerTime(ctx)
	if err != nil {
		return errors.WrapFatal(err, "Loader", "InitialLoad", "read upstream clock")
	}

	var pages, totalQuads int
	for _, namespace := range l.namespaces {
		cont := ""
		for {
			listing, next, err := l.client.AllPages(ctx, namespace, cont)
			if err != nil {
				return errors.WrapFatal(err, "Loader", "InitialLoad",
					fmt.Sprintf("list namespace %d", namespace))
			}
			for _, page := range listing {
				n, err := l.loadPage(ctx, page.Title)
				if err != nil {
					return errors.WrapFatal(err, "Loader", "InitialLoad",
						fmt.Sprintf("load page %q", page.Title))
				}
				pages++
				totalQuads += n
			}
			if next == "" {
				break
			}
			cont = next
		}
	}

	if err := l.store.SetSyncCursor(cursor); err != nil {
		return errors.WrapFatal(err, "Loader", "InitialLoad", "seed sync cursor")
	}

	l.logger.Info("initial load complete",
		"pages", pages,
		"quads", totalQuads,
		"cursor", cursor,
		"elapsed", time.Since(start))
	if l.metrics != nil {
		l.metrics.SyncPagesTotal.Add(float64(pages))
		l.metrics.SyncQuadsTotal.Add(float64(totalQuads))
		l.metrics.SyncBatchesTotal.WithLabelValues("initial").Inc()
	}
	l.publisher.Publish(SyncEvent{
		Quads:     totalQuads,
		Cursor:    cursor,
		Initial:   true,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// UpdateLoop polls the recent changes feed every interval, indefinitely.
// A failed iteration is retried with bounded backoff, then logged and
// abandoned until the next tick. The loop returns only when ctx is
// cancelled or an iteration fails with a fatal-classified error.
func (l *Loader) UpdateLoop(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		err := retry.Do(ctx, retry.Sync(), func() error {
			return l.syncOnce(ctx)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.IsFatal(err) {
				return err
			}
			l.logger.Error("sync iteration abandoned", "error", err)
			if l.metrics != nil {
				l.metrics.SyncBatchesTotal.WithLabelValues("failed").Inc()
			}
		}
	}
}

// syncOnce applies every change recorded upstream since the cursor. Each
// changed page becomes one atomic batch carrying its own cursor advance,
// so a crash mid-iteration resumes exactly where it stopped.
func (l *Loader) syncOnce(ctx context.Context) error {
	cursor, err := l.store.SyncCursor()
	if err != nil {
		return errors.WrapFatal(err, "Loader", "syncOnce", "read sync cursor")
	}
	if cursor == "" {
		return errors.WrapFatal(errors.ErrCursorNotFound, "Loader", "syncOnce",
			"store has no sync cursor; initial load missing")
	}

	changes, err := l.client.RecentChanges(ctx, cursor, l.slot)
	if err != nil {
		return err
	}
	changes = l.filterChanges(changes)
	if len(changes) == 0 {
		l.observeLag(cursor)
		return nil
	}

	event := SyncEvent{Timestamp: time.Now().UTC()}
	next := cursor
	for _, page := range changes {
		graph, err := rdf.ParseIRI(l.client.EntityDataURL(page.Title))
		if err != nil {
			return errors.WrapFatal(err, "Loader", "syncOnce",
				fmt.Sprintf("graph name for page %q", page.Title))
		}
		// ISO timestamps compare lexically; dedup can reorder changes, so
		// never let the cursor move backwards.
		if c := advanceCursor(page.Timestamp); c > next {
			next = c
		}

		if page.Deleted {
			batch := store.Batch{DropGraphs: []rdf.IRI{graph}, Cursor: next}
			if err := l.store.ApplyBatch(ctx, batch); err != nil {
				return err
			}
			event.Deleted = append(event.Deleted, page.Title)
			continue
		}

		doc, err := l.client.EntityData(ctx, page.Title)
		if stderrors.Is(err, ErrPageGone) {
			batch := store.Batch{DropGraphs: []rdf.IRI{graph}, Cursor: next}
			if err := l.store.ApplyBatch(ctx, batch); err != nil {
				return err
			}
			event.Deleted = append(event.Deleted, page.Title)
			continue
		}
		if err != nil {
			return err
		}

		quads, err := quadsFromJSONLD(doc, l.client.EntityDataURL(page.Title), graph)
		if err != nil {
			// A malformed export is the page's problem, not ours: log,
			// drop the stale statements, move on.
			l.logger.Warn("unparseable page export", "title", page.Title, "error", err)
			quads = nil
		}
		batch := store.Batch{DropGraphs: []rdf.IRI{graph}, Inserts: quads, Cursor: next}
		if err := l.store.ApplyBatch(ctx, batch); err != nil {
			return err
		}
		event.Pages = append(event.Pages, page.Title)
		event.Quads += len(quads)
	}

	event.Cursor = next
	l.logger.Info("sync batch applied",
		"pages", len(event.Pages),
		"deleted", len(event.Deleted),
		"quads", event.Quads,
		"cursor", next)
	if l.metrics != nil {
		l.metrics.SyncBatchesTotal.WithLabelValues("applied").Inc()
		l.metrics.SyncPagesTotal.Add(float64(len(event.Pages)))
		l.metrics.SyncQuadsTotal.Add(float64(event.Quads))
		if ts, err := time.Parse(apiTimeFormat, next); err == nil {
			l.metrics.SyncLastTimestamp.Set(float64(ts.Unix()))
		}
	}
	l.observeLag(next)
	l.publisher.Publish(event)
	return nil
}

// loadPage fetches a page export and replaces its graph, returning the
// statement count. A vanished page drops the graph.
func (l *Loader) loadPage(ctx context.Context, title string) (int, error) {
	graph, err := rdf.ParseIRI(l.client.EntityDataURL(title))
	if err != nil {
		return 0, errors.WrapFatal(err, "Loader", "loadPage",
			fmt.Sprintf("graph name for page %q", title))
	}

	doc, err := l.client.EntityData(ctx, title)
	if stderrors.Is(err, ErrPageGone) {
		return 0, l.store.ReplaceGraph(ctx, graph, nil)
	}
	if err != nil {
		return 0, err
	}

	quads, err := quadsFromJSONLD(doc, l.client.EntityDataURL(title), graph)
	if err != nil {
		l.logger.Warn("unparseable page export", "title", title, "error", err)
		quads = nil
	}
	if err := l.store.ReplaceGraph(ctx, graph, quads); err != nil {
		return 0, err
	}
	return len(quads), nil
}

// filterChanges applies the namespace filter and collapses repeated
// changes to the same page, keeping the newest change data in the
// position of the first occurrence.
func (l *Loader) filterChanges(changes []Page) []Page {
	var out []Page
	seen := map[string]int{}
	for _, page := range changes {
		if l.slot == "" && !slices.Contains(l.namespaces, page.Namespace) {
			continue
		}
		if idx, dup := seen[page.Title]; dup {
			out[idx] = page
			continue
		}
		seen[page.Title] = len(out)
		out = append(out, page)
	}
	return out
}

func (l *Loader) observeLag(cursor string) {
	if l.metrics == nil {
		return
	}
	if ts, err := time.Parse(apiTimeFormat, cursor); err == nil {
		l.metrics.SyncLagSeconds.Set(time.Since(ts).Seconds())
	}
}

// advanceCursor bumps a change timestamp one second past itself: rcstart
// is inclusive, so persisting the raw timestamp would replay the boundary
// change on every poll. The API's resolution is one second; a burst of
// changes within the boundary second is replayed once, which the
// graph-replacement batches absorb idempotently.
func advanceCursor(timestamp string) string {
	ts, err := time.Parse(apiTimeFormat, timestamp)
	if err != nil {
		return timestamp
	}
	return ts.Add(time.Second).UTC().Format(apiTimeFormat)
}
