package sparql

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/c360/wikigraph/errors"
)

// MaxRequestBodySize is the hard cap on SPARQL protocol request bodies.
// Longer bodies are truncated at the cap rather than buffered further.
const MaxRequestBodySize = 1_048_576

// Protocol content types for POSTed queries.
const (
	ContentTypeSPARQLQuery = "application/sparql-query"
	ContentTypeForm        = "application/x-www-form-urlencoded"
)

// ProtocolRequest is the query text and dataset scope extracted from one
// SPARQL protocol request, before any parsing or validation.
type ProtocolRequest struct {
	Query            string
	DefaultGraphURIs []string
	NamedGraphURIs   []string
}

// Extract pulls the query string and graph-scope lists out of r, handling
// the three protocol encodings: GET parameters, a raw sparql-query POST
// body, and a form-encoded POST body. Protocol violations return
// client-fault classified errors; an unsupported POST content type
// returns errors.ErrUnsupportedMedia.
func Extract(r *http.Request) (ProtocolRequest, error) {
	switch r.Method {
	case http.MethodGet:
		return extractParams(r.URL.RawQuery, "", false)
	case http.MethodPost:
		return extractPost(r)
	default:
		return ProtocolRequest{}, errors.Invalidf("method %s is not part of the query protocol", r.Method)
	}
}

func extractPost(r *http.Request) (ProtocolRequest, error) {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return ProtocolRequest{}, errors.Invalid(errors.ErrNoContentType)
	}
	essence, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ProtocolRequest{}, errors.Invalidf("malformed Content-Type %q: %v", contentType, err)
	}

	switch essence {
	case ContentTypeSPARQLQuery:
		body, err := readCapped(r.Body)
		if err != nil {
			return ProtocolRequest{}, errors.WrapTransient(err, "Extract", "extractPost", "read request body")
		}
		return extractParams(r.URL.RawQuery, body, true)
	case ContentTypeForm:
		body, err := readCapped(r.Body)
		if err != nil {
			return ProtocolRequest{}, errors.WrapTransient(err, "Extract", "extractPost", "read request body")
		}
		return extractParams(body, "", false)
	default:
		return ProtocolRequest{}, fmt.Errorf("not supported Content-Type given: %s: %w", essence, errors.ErrUnsupportedMedia)
	}
}

func readCapped(body io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(body, MaxRequestBodySize))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// extractParams walks form-encoded key/value pairs in arrival order.
// haveQuery marks the query as already supplied by a sparql-query POST
// body, even an empty one; a further query value from the parameters is
// then a protocol violation.
func extractParams(encoded, query string, haveQuery bool) (ProtocolRequest, error) {
	req := ProtocolRequest{Query: query}

	for _, pair := range strings.Split(encoded, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return ProtocolRequest{}, errors.Invalidf("malformed parameter name %q: %v", rawKey, err)
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return ProtocolRequest{}, errors.Invalidf("malformed value for parameter %q: %v", key, err)
		}
		switch key {
		case "query":
			if haveQuery {
				return ProtocolRequest{}, errors.Invalid(errors.ErrMultipleQueries)
			}
			req.Query = value
			haveQuery = true
		case "default-graph-uri":
			req.DefaultGraphURIs = append(req.DefaultGraphURIs, value)
		case "named-graph-uri":
			req.NamedGraphURIs = append(req.NamedGraphURIs, value)
		default:
			// Unknown parameters are ignored for forward compatibility.
		}
	}

	if !haveQuery {
		return ProtocolRequest{}, errors.Invalid(errors.ErrMissingQuery)
	}
	return req, nil
}
