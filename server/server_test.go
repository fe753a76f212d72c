package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/wikigraph/rdf"
	"github.com/c360/wikigraph/sparql"
	"github.com/c360/wikigraph/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	name := rdf.NewIRIUnchecked("http://example.com/name")
	alice := rdf.NewIRIUnchecked("http://example.com/alice")
	bob := rdf.NewIRIUnchecked("http://example.com/bob")
	g1 := rdf.NewIRIUnchecked("http://example.com/graphs/1")
	g2 := rdf.NewIRIUnchecked("http://example.com/graphs/2")

	require.NoError(t, st.ReplaceGraph(context.Background(), g1, []rdf.Quad{
		{Subject: alice, Predicate: name, Object: rdf.NewStringLiteral("Alice")},
	}))
	require.NoError(t, st.ReplaceGraph(context.Background(), g2, []rdf.Quad{
		{Subject: bob, Predicate: name, Object: rdf.NewStringLiteral("Bob")},
	}))

	ts := httptest.NewServer(New(st, "test", nil, nil).Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, ts *httptest.Server, path string, headers map[string]string) (*http.Response, string) {
	t.Helper()
	req, err := http.NewRequest("GET", ts.URL+path, nil)
	require.NoError(t, err)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func queryPath(query string) string {
	return "/query?query=" + url.QueryEscape(query)
}

func TestRouting(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		method string
		path   string
	}{
		{method: "GET", path: "/"},
		{method: "GET", path: "/update"},
		{method: "DELETE", path: "/query"},
		{method: "PUT", path: "/query"},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, ts.URL+tc.path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Contains(t, readBody(t, resp),
				tc.method+" "+tc.path+" is not supported by this server")
		})
	}
}

func TestIdentityHeaders(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := get(t, ts, queryPath("ASK { ?s ?p ?o }"), nil)
	assert.Equal(t, "WikiGraph/test", resp.Header.Get("Server"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp, _ = get(t, ts, queryPath("ASK { ?s ?p ?o }"), map[string]string{"X-Request-ID": "trace-42"})
	assert.Equal(t, "trace-42", resp.Header.Get("X-Request-ID"))
}

func TestSelectDefaultsToXML(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, queryPath("SELECT ?name WHERE { ?s <http://example.com/name> ?name }"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/sparql-results+xml", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, "Alice")
	assert.Contains(t, body, "Bob")
}

func TestSelectNegotiatesJSON(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, queryPath("SELECT ?name WHERE { ?s <http://example.com/name> ?name }"),
		map[string]string{"Accept": "application/sparql-results+json"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/sparql-results+json", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, `"type":"literal"`)
}

func TestAsk(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts, queryPath("ASK { <http://example.com/alice> ?p ?o }"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<boolean>true</boolean>")
}

func TestConstructDefaultsToNTriples(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts,
		queryPath("CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/n-triples", resp.Header.Get("Content-Type"))
	assert.Contains(t, body, `<http://example.com/alice> <http://example.com/name> "Alice" .`)
}

func TestConstructNegotiatesTurtle(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := get(t, ts, queryPath("CONSTRUCT { ?s ?p ?o } WHERE { ?s ?p ?o }"),
		map[string]string{"Accept": "text/turtle"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/turtle", resp.Header.Get("Content-Type"))
}

func TestGraphScopeParameter(t *testing.T) {
	ts := newTestServer(t)

	resp, body := get(t, ts,
		queryPath("SELECT ?name WHERE { ?s <http://example.com/name> ?name }")+
			"&default-graph-uri="+url.QueryEscape("http://example.com/graphs/1"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Alice")
	assert.NotContains(t, body, "Bob")
}

func TestGraphScopeParameterReplacesQueryDataset(t *testing.T) {
	ts := newTestServer(t)

	// A lone named-graph-uri describes the whole dataset: the query's
	// FROM clause is cleared, leaving an empty default scope.
	resp, body := get(t, ts,
		queryPath("SELECT ?name FROM <http://example.com/graphs/1> "+
			"WHERE { ?s <http://example.com/name> ?name }")+
			"&named-graph-uri="+url.QueryEscape("http://example.com/graphs/2"), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotContains(t, body, "Alice")
	assert.NotContains(t, body, "Bob")
}

func TestProtocolErrors(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "missing query",
			path:       "/query",
			wantStatus: http.StatusBadRequest,
			wantBody:   "you should set the 'query' parameter",
		},
		{
			name:       "multiple queries",
			path:       "/query?query=ASK%20%7B%7D&query=ASK%20%7B%7D",
			wantStatus: http.StatusBadRequest,
			wantBody:   "multiple query parameters provided",
		},
		{
			name:       "malformed query",
			path:       queryPath("SELECT WHERE"),
			wantStatus: http.StatusBadRequest,
			wantBody:   "query parse error",
		},
		{
			name:       "malformed graph uri",
			path:       queryPath("ASK { ?s ?p ?o }") + "&default-graph-uri=not%20an%20iri",
			wantStatus: http.StatusBadRequest,
			wantBody:   "graph URI",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := get(t, ts, tc.path, nil)
			assert.Equal(t, tc.wantStatus, resp.StatusCode)
			assert.Contains(t, body, tc.wantBody)
		})
	}
}

func TestPostQuery(t *testing.T) {
	ts := newTestServer(t)

	t.Run("direct", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/query", sparql.ContentTypeSPARQLQuery,
			strings.NewReader("ASK { ?s ?p ?o }"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("form", func(t *testing.T) {
		form := url.Values{"query": {"ASK { ?s ?p ?o }"}}
		resp, err := http.Post(ts.URL+"/query", sparql.ContentTypeForm,
			strings.NewReader(form.Encode()))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("missing content type", func(t *testing.T) {
		req, err := http.NewRequest("POST", ts.URL+"/query", strings.NewReader("ASK {}"))
		require.NoError(t, err)
		req.Header.Del("Content-Type")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "no Content-Type given")
	})

	t.Run("unsupported content type", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/query", "application/json", strings.NewReader("{}"))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
		assert.Contains(t, readBody(t, resp), "not supported Content-Type given: application/json")
	})
}
