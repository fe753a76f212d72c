package sparql

import (
	"fmt"
	"mime"
	"sort"
	"strconv"
	"strings"

	"github.com/c360/wikigraph/errors"
)

func init() {
	// The supported lists are server configuration: an unparseable entry
	// is a programming error caught at startup, not per-request.
	for _, list := range [][]string{graphMediaTypes, solutionMediaTypes} {
		if len(list) == 0 {
			panic("sparql: empty supported media type list")
		}
		for _, mt := range list {
			if _, _, err := mime.ParseMediaType(mt); err != nil {
				panic(fmt.Sprintf("sparql: unparseable supported media type %q: %v", mt, err))
			}
		}
	}
}

// acceptEntry is one parsed Accept header element.
type acceptEntry struct {
	typ     string
	subtype string
	quality float64
	order   int
}

// Negotiate picks one media type from supported given the request's Accept
// header. An empty header selects the first supported entry, which is the
// server's default for that result shape. When nothing in the header
// matches a supported type the negotiation fails.
func Negotiate(acceptHeader string, supported []string) (string, error) {
	if strings.TrimSpace(acceptHeader) == "" {
		return supported[0], nil
	}

	entries, err := parseAccept(acceptHeader)
	if err != nil {
		return "", errors.Invalid(err)
	}

	best := ""
	bestQuality := 0.0
	bestIndex := len(supported)
	for i, mt := range supported {
		typ, subtype, _ := strings.Cut(mt, "/")
		for _, e := range entries {
			if !e.matches(typ, subtype) || e.quality <= 0 {
				continue
			}
			// Highest quality wins; ties break on server preference order.
			if e.quality > bestQuality || (e.quality == bestQuality && i < bestIndex) {
				best = mt
				bestQuality = e.quality
				bestIndex = i
			}
		}
	}
	if best == "" {
		return "", errors.ErrUnknownMimeType
	}
	return best, nil
}

func (e acceptEntry) matches(typ, subtype string) bool {
	if e.typ == "*" && e.subtype == "*" {
		return true
	}
	if e.typ == typ && e.subtype == "*" {
		return true
	}
	return e.typ == typ && e.subtype == subtype
}

func parseAccept(header string) ([]acceptEntry, error) {
	var entries []acceptEntry
	for i, element := range strings.Split(header, ",") {
		element = strings.TrimSpace(element)
		if element == "" {
			continue
		}
		mt, params, err := mime.ParseMediaType(element)
		if err != nil {
			return nil, fmt.Errorf("malformed Accept element %q: %w", element, err)
		}
		typ, subtype, found := strings.Cut(mt, "/")
		if !found {
			return nil, fmt.Errorf("malformed media range %q", mt)
		}
		quality := 1.0
		if qs, ok := params["q"]; ok {
			quality, err = strconv.ParseFloat(qs, 64)
			if err != nil || quality < 0 || quality > 1 {
				return nil, fmt.Errorf("malformed quality value %q", qs)
			}
		}
		entries = append(entries, acceptEntry{typ: typ, subtype: subtype, quality: quality, order: i})
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("empty Accept header")
	}
	// More specific ranges first so "text/*;q=0.5, text/turtle" prefers
	// the explicit subtype at equal quality.
	sort.SliceStable(entries, func(a, b int) bool {
		return specificity(entries[a]) > specificity(entries[b])
	})
	return entries, nil
}

func specificity(e acceptEntry) int {
	switch {
	case e.typ == "*":
		return 0
	case e.subtype == "*":
		return 1
	default:
		return 2
	}
}
