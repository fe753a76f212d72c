// Package server exposes the read-only SPARQL protocol endpoint over HTTP.
//
// The routing surface is deliberately tiny: /query accepts GET and POST,
// everything else is a 404. Each request runs against one store snapshot,
// so a query observes either the pre- or post-state of any concurrent
// loader batch, never a mix.
package server

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/c360/wikigraph/errors"
	"github.com/c360/wikigraph/metric"
	"github.com/c360/wikigraph/rdf"
	"github.com/c360/wikigraph/sparql"
	"github.com/c360/wikigraph/store"
)

// Server handles SPARQL protocol requests against a store handle.
type Server struct {
	store   *store.Store
	version string
	logger  *slog.Logger
	metrics *metric.Metrics
}

// New creates a query server. metrics may be nil for tests.
func New(st *store.Store, version string, logger *slog.Logger, metrics *metric.Metrics) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		store:   st,
		version: version,
		logger:  logger,
		metrics: metrics,
	}
}

// Handler returns the full HTTP handler: routing, identity headers and
// per-request metrics around the query endpoint.
func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		rec.Header().Set("Server", "WikiGraph/"+s.version)
		rec.Header().Set("X-Request-ID", requestID(r))

		s.route(rec, r)

		if s.metrics != nil {
			s.metrics.RequestsTotal.WithLabelValues(fmt.Sprintf("%d", rec.status)).Inc()
			s.metrics.RequestDuration.Observe(time.Since(start).Seconds())
			s.metrics.ResponseBytes.Add(float64(rec.bytes))
		}
	})
}

// Run serves the handler on bind until ctx is cancelled, then drains.
func (s *Server) Run(ctx context.Context, bind string) error {
	srv := &http.Server{
		Addr:    bind,
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.WrapTransient(err, "Server", "Run", "graceful shutdown")
		}
		return nil
	case err := <-errCh:
		return errors.WrapFatal(err, "Server", "Run", fmt.Sprintf("listen on %s", bind))
	}
}

func (s *Server) route(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/query" && (r.Method == http.MethodGet || r.Method == http.MethodPost) {
		s.handleQuery(w, r)
		return
	}
	http.Error(w, fmt.Sprintf("%s %s is not supported by this server", r.Method, r.URL.Path),
		http.StatusNotFound)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	protocol, err := sparql.Extract(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	query, err := sparql.Parse(protocol.Query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	if err := applyGraphScope(query, protocol); err != nil {
		s.writeError(w, r, err)
		return
	}

	snapshot := s.store.Snapshot()
	defer snapshot.Close()

	results, err := sparql.Evaluate(snapshot, query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	mediaType, err := sparql.Negotiate(r.Header.Get("Accept"), results.Supported())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	// Serialize before touching the response so a serializer fault can
	// still become a clean 500.
	var body bytes.Buffer
	if err := results.Write(&body, mediaType); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", mediaType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body.Bytes())
}

// applyGraphScope validates protocol graph parameters and, when present,
// overrides the query's dataset clauses. The parameters describe the whole
// dataset: either one being present replaces both lists, so a request
// carrying only named-graph-uri also clears any FROM clause in the query.
func applyGraphScope(q *sparql.Query, protocol sparql.ProtocolRequest) error {
	parse := func(uris []string) ([]rdf.IRI, error) {
		graphs := make([]rdf.IRI, 0, len(uris))
		for _, uri := range uris {
			iri, err := rdf.ParseIRI(uri)
			if err != nil {
				return nil, errors.WrapInvalid(err, "Server", "applyGraphScope",
					fmt.Sprintf("graph URI %q", uri))
			}
			graphs = append(graphs, iri)
		}
		return graphs, nil
	}

	if len(protocol.DefaultGraphURIs) == 0 && len(protocol.NamedGraphURIs) == 0 {
		return nil
	}

	defaults, err := parse(protocol.DefaultGraphURIs)
	if err != nil {
		return err
	}
	named, err := parse(protocol.NamedGraphURIs)
	if err != nil {
		return err
	}
	q.SetDefaultGraphs(defaults)
	q.SetNamedGraphs(named)
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("query request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"error", err)
	}
	http.Error(w, err.Error(), status)
}

// statusFor maps error classes onto the protocol's status codes: client
// faults are 400, an unsupported POST content type is 415, everything
// else is a 500.
func statusFor(err error) int {
	if stderrors.Is(err, errors.ErrUnsupportedMedia) {
		return http.StatusUnsupportedMediaType
	}
	if errors.IsInvalid(err) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return uuid.NewString()
}

// statusRecorder captures the response status and size for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(p []byte) (int, error) {
	n, err := rec.ResponseWriter.Write(p)
	rec.bytes += n
	return n, err
}
