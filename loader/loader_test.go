package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wikigraph/errors"
	"github.com/c360/wikigraph/rdf"
	"github.com/c360/wikigraph/store"
)

// fakeWiki mocks the MediaWiki action API plus Special:EntityData.
type fakeWiki struct {
	mu       sync.Mutex
	pages    map[string]map[string]any // title -> JSON-LD doc
	changes  []map[string]any
	now      string
	requests int
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{
		pages: map[string]map[string]any{},
		now:   "2026-08-26T10:00:00Z",
	}
}

func (f *fakeWiki) setPage(title, subject, name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[title] = map[string]any{
		"@id":                     subject,
		"http://example.com/name": name,
	}
}

func (f *fakeWiki) deletePage(title, timestamp string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.pages, title)
	f.changes = append(f.changes, map[string]any{
		"title": title, "ns": 0, "type": "log", "logtype": "delete", "timestamp": timestamp,
	})
}

func (f *fakeWiki) recordLogEvent(title, logType, timestamp string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, map[string]any{
		"title": title, "ns": 0, "type": "log", "logtype": logType, "timestamp": timestamp,
	})
}

func (f *fakeWiki) recordEdit(title, timestamp string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, map[string]any{
		"title": title, "ns": 0, "type": "edit", "timestamp": timestamp,
	})
}

func (f *fakeWiki) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.requests++

		if strings.HasPrefix(r.URL.Path, "/wiki/Special:EntityData/") {
			title := strings.TrimSuffix(
				strings.TrimPrefix(r.URL.Path, "/wiki/Special:EntityData/"), ".jsonld")
			doc, ok := f.pages[title]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/ld+json")
			_ = json.NewEncoder(w).Encode(doc)
			return
		}

		q := r.URL.Query()
		switch {
		case q.Get("meta") == "siteinfo":
			fmt.Fprintf(w, `{"curtimestamp":%q}`, f.now)
		case q.Get("list") == "allpages":
			titles := make([]map[string]any, 0, len(f.pages))
			for title := range f.pages {
				titles = append(titles, map[string]any{"title": title, "ns": 0})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"query": map[string]any{"allpages": titles},
			})
		case q.Get("list") == "recentchanges":
			since := q.Get("rcstart")
			var out []map[string]any
			for _, change := range f.changes {
				if change["timestamp"].(string) >= since {
					out = append(out, change)
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"query": map[string]any{"recentchanges": out},
			})
		default:
			http.Error(w, "unknown action", http.StatusBadRequest)
		}
	})
}

type loaderFixture struct {
	wiki   *fakeWiki
	store  *store.Store
	loader *Loader
}

func newFixture(t *testing.T, opts Options) *loaderFixture {
	t.Helper()

	wiki := newFakeWiki()
	ts := httptest.NewServer(wiki.handler())
	t.Cleanup(ts.Close)

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	client := NewClient(ts.URL+"/w/api.php", ts.URL)
	l, err := New(st, client, opts)
	require.NoError(t, err)
	return &loaderFixture{wiki: wiki, store: st, loader: l}
}

func countGraph(t *testing.T, st *store.Store, graph rdf.IRI) int {
	t.Helper()
	snapshot := st.Snapshot()
	defer snapshot.Close()
	n := 0
	require.NoError(t, snapshot.Match(store.Pattern{Graphs: []rdf.IRI{graph}}, func(rdf.Quad) error {
		n++
		return nil
	}))
	return n
}

func TestNewValidation(t *testing.T) {
	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	defer st.Close()
	client := NewClient("http://wiki.test/w/api.php", "http://wiki.test")

	_, err = New(st, client, Options{Namespaces: []int{0}, Slot: "mediainfo"})
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = New(nil, client, Options{})
	require.Error(t, err)

	l, err := New(st, client, Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{0}, l.namespaces)
	assert.Equal(t, DefaultSyncInterval, l.interval)
}

func TestInitialLoad(t *testing.T) {
	fx := newFixture(t, Options{})
	fx.wiki.setPage("Q1", "http://example.com/entity/Q1", "Alice")
	fx.wiki.setPage("Q2", "http://example.com/entity/Q2", "Bob")

	require.NoError(t, fx.loader.InitialLoad(context.Background()))

	g1 := rdf.NewIRIUnchecked(fx.loader.client.EntityDataURL("Q1"))
	g2 := rdf.NewIRIUnchecked(fx.loader.client.EntityDataURL("Q2"))
	assert.Equal(t, 1, countGraph(t, fx.store, g1))
	assert.Equal(t, 1, countGraph(t, fx.store, g2))

	cursor, err := fx.store.SyncCursor()
	require.NoError(t, err)
	assert.Equal(t, "2026-08-26T10:00:00Z", cursor)
}

func TestSyncOnceAppliesEdits(t *testing.T) {
	fx := newFixture(t, Options{})
	require.NoError(t, fx.loader.InitialLoad(context.Background()))

	fx.wiki.setPage("Q1", "http://example.com/entity/Q1", "Alice")
	fx.wiki.recordEdit("Q1", "2026-08-26T10:05:00Z")

	require.NoError(t, fx.loader.syncOnce(context.Background()))

	g1 := rdf.NewIRIUnchecked(fx.loader.client.EntityDataURL("Q1"))
	assert.Equal(t, 1, countGraph(t, fx.store, g1))

	cursor, err := fx.store.SyncCursor()
	require.NoError(t, err)
	assert.Equal(t, "2026-08-26T10:05:01Z", cursor, "cursor advances past the change")
}

func TestSyncOnceReplacesChangedGraphs(t *testing.T) {
	fx := newFixture(t, Options{})
	fx.wiki.setPage("Q1", "http://example.com/entity/Q1", "Alice")
	require.NoError(t, fx.loader.InitialLoad(context.Background()))

	fx.wiki.setPage("Q1", "http://example.com/entity/Q1", "Alicia")
	fx.wiki.recordEdit("Q1", "2026-08-26T10:06:00Z")
	require.NoError(t, fx.loader.syncOnce(context.Background()))

	g1 := rdf.NewIRIUnchecked(fx.loader.client.EntityDataURL("Q1"))
	snapshot := fx.store.Snapshot()
	defer snapshot.Close()

	var values []string
	require.NoError(t, snapshot.Match(store.Pattern{Graphs: []rdf.IRI{g1}}, func(q rdf.Quad) error {
		values = append(values, q.Object.(rdf.Literal).Value)
		return nil
	}))
	assert.Equal(t, []string{"Alicia"}, values, "replacement removes the old statement")
}

func TestSyncOnceDropsDeletedPages(t *testing.T) {
	fx := newFixture(t, Options{})
	fx.wiki.setPage("Q1", "http://example.com/entity/Q1", "Alice")
	require.NoError(t, fx.loader.InitialLoad(context.Background()))

	fx.wiki.deletePage("Q1", "2026-08-26T10:07:00Z")
	require.NoError(t, fx.loader.syncOnce(context.Background()))

	g1 := rdf.NewIRIUnchecked(fx.loader.client.EntityDataURL("Q1"))
	assert.Equal(t, 0, countGraph(t, fx.store, g1))
}

func TestSyncOnceIgnoresNonDeleteLogEvents(t *testing.T) {
	fx := newFixture(t, Options{})
	fx.wiki.setPage("Q1", "http://example.com/entity/Q1", "Alice")
	require.NoError(t, fx.loader.InitialLoad(context.Background()))

	// A protection is a log event but leaves the page's content alone.
	fx.wiki.recordLogEvent("Q1", "protect", "2026-08-26T10:07:00Z")
	require.NoError(t, fx.loader.syncOnce(context.Background()))

	g1 := rdf.NewIRIUnchecked(fx.loader.client.EntityDataURL("Q1"))
	assert.Equal(t, 1, countGraph(t, fx.store, g1))
}

func TestSyncOnceWithoutCursorIsFatal(t *testing.T) {
	fx := newFixture(t, Options{})
	err := fx.loader.syncOnce(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestFilterChanges(t *testing.T) {
	l := &Loader{namespaces: []int{0, 120}}

	changes := []Page{
		{Title: "A", Namespace: 0, Timestamp: "2026-08-26T10:00:00Z"},
		{Title: "B", Namespace: 4, Timestamp: "2026-08-26T10:00:01Z"},
		{Title: "A", Namespace: 0, Timestamp: "2026-08-26T10:00:02Z"},
		{Title: "C", Namespace: 120, Timestamp: "2026-08-26T10:00:03Z"},
	}
	out := l.filterChanges(changes)
	require.Len(t, out, 2)
	assert.Equal(t, "A", out[0].Title)
	assert.Equal(t, "2026-08-26T10:00:02Z", out[0].Timestamp, "latest change wins")
	assert.Equal(t, "C", out[1].Title)
}

func TestAdvanceCursor(t *testing.T) {
	assert.Equal(t, "2026-08-26T10:00:01Z", advanceCursor("2026-08-26T10:00:00Z"))
	assert.Equal(t, "garbage", advanceCursor("garbage"))
}

func TestQuadsFromJSONLD(t *testing.T) {
	graph := rdf.NewIRIUnchecked("http://example.com/page/Q1")
	doc := map[string]any{
		"@id": "http://example.com/entity/Q1",
		"http://example.com/name": map[string]any{
			"@value": "Alice", "@language": "en",
		},
		"http://example.com/age": map[string]any{
			"@value": "42", "@type": "http://www.w3.org/2001/XMLSchema#integer",
		},
	}

	quads, err := quadsFromJSONLD(doc, "http://example.com/", graph)
	require.NoError(t, err)
	require.Len(t, quads, 2)

	for _, q := range quads {
		assert.Equal(t, graph, q.Graph, "all statements land in the page graph")
		assert.Equal(t, rdf.NewIRIUnchecked("http://example.com/entity/Q1"), q.Subject)
	}

	got := map[string]string{}
	for _, q := range quads {
		got[q.Predicate.Value()] = q.Object.String()
	}
	want := map[string]string{
		"http://example.com/name": rdf.NewLangLiteral("Alice", "en").String(),
		"http://example.com/age": rdf.NewTypedLiteral("42",
			rdf.NewIRIUnchecked("http://www.w3.org/2001/XMLSchema#integer")).String(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("object terms mismatch (-want +got):\n%s", diff)
	}
}
