package loader

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/c360/wikigraph/errors"
)

// maxAPIResponseSize caps buffered upstream responses. Entity exports for
// large pages stay well under this.
const maxAPIResponseSize = 16 << 20

// Client talks to a MediaWiki action API plus its Special:EntityData
// export endpoint. All calls go through a shared rate limiter so the
// loader cannot hammer the upstream wiki.
type Client struct {
	apiURL      string
	contentBase string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewClient builds a client for the given action API endpoint and content
// base URL (the wiki origin serving Special:EntityData).
func NewClient(apiURL, contentBase string) *Client {
	return &Client{
		apiURL:      apiURL,
		contentBase: strings.TrimRight(contentBase, "/"),
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		limiter:     rate.NewLimiter(rate.Limit(10), 5),
	}
}

// Page is one wiki page reference from a listing or change feed.
type Page struct {
	Title     string
	Namespace int
	Timestamp string
	Deleted   bool
}

type apiResponse struct {
	Continue map[string]string `json:"continue"`
	Query    struct {
		AllPages []struct {
			Title string `json:"title"`
			NS    int    `json:"ns"`
		} `json:"allpages"`
		RecentChanges []struct {
			Title     string `json:"title"`
			NS        int    `json:"ns"`
			Type      string `json:"type"`
			LogType   string `json:"logtype"`
			Timestamp string `json:"timestamp"`
		} `json:"recentchanges"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// AllPages lists every page in the namespace, following API continuation.
// An empty cont starts from the beginning; the returned cont is empty when
// the listing is exhausted.
func (c *Client) AllPages(ctx context.Context, namespace int, cont string) ([]Page, string, error) {
	params := url.Values{
		"action":      {"query"},
		"format":      {"json"},
		"list":        {"allpages"},
		"apnamespace": {strconv.Itoa(namespace)},
		"aplimit":     {"500"},
	}
	if cont != "" {
		params.Set("apcontinue", cont)
	}

	var resp apiResponse
	if err := c.call(ctx, params, &resp); err != nil {
		return nil, "", errors.WrapTransient(err, "Client", "AllPages", "list pages")
	}

	pages := make([]Page, 0, len(resp.Query.AllPages))
	for _, p := range resp.Query.AllPages {
		pages = append(pages, Page{Title: p.Title, Namespace: p.NS})
	}
	return pages, resp.Continue["apcontinue"], nil
}

// RecentChanges lists pages changed since the given API timestamp, oldest
// first, following continuation within the call. A non-empty slot
// restricts the feed to changes touching that content slot.
func (c *Client) RecentChanges(ctx context.Context, since, slot string) ([]Page, error) {
	var pages []Page
	cont := ""
	for {
		params := url.Values{
			"action":  {"query"},
			"format":  {"json"},
			"list":    {"recentchanges"},
			"rcdir":   {"newer"},
			"rclimit": {"500"},
			"rcprop":  {"title|timestamp|loginfo"},
			"rcstart": {since},
			"rctype":  {"edit|new|log"},
		}
		if slot != "" {
			params.Set("rcslot", slot)
		}
		if cont != "" {
			params.Set("rccontinue", cont)
		}

		var resp apiResponse
		if err := c.call(ctx, params, &resp); err != nil {
			return nil, errors.WrapTransient(err, "Client", "RecentChanges", "list changes")
		}
		for _, rc := range resp.Query.RecentChanges {
			if rc.Type == "log" && rc.LogType != "delete" {
				// Protections, moves and other log events leave the
				// page's content in place.
				continue
			}
			pages = append(pages, Page{
				Title:     rc.Title,
				Namespace: rc.NS,
				Timestamp: rc.Timestamp,
				Deleted:   rc.Type == "log",
			})
		}
		cont = resp.Continue["rccontinue"]
		if cont == "" {
			return pages, nil
		}
	}
}

// ServerTime returns the upstream's current timestamp, used to seed the
// sync cursor before an initial load.
func (c *Client) ServerTime(ctx context.Context) (string, error) {
	params := url.Values{
		"action":  {"query"},
		"format":  {"json"},
		"meta":    {"siteinfo"},
		"curtime": {"1"},
	}
	var resp struct {
		CurTime string `json:"curtimestamp"`
		Query   struct {
			General struct {
				Time string `json:"time"`
			} `json:"general"`
		} `json:"query"`
	}
	if err := c.call(ctx, params, &resp); err != nil {
		return "", errors.WrapTransient(err, "Client", "ServerTime", "query site info")
	}
	if resp.CurTime != "" {
		return resp.CurTime, nil
	}
	if resp.Query.General.Time != "" {
		return resp.Query.General.Time, nil
	}
	// Older MediaWiki builds omit both fields; fall back to local time in
	// the API's timestamp format.
	return time.Now().UTC().Format("2006-01-02T15:04:05Z"), nil
}

// ErrPageGone reports that a page's export no longer exists upstream.
var ErrPageGone = stderrors.New("entity data not found")

// EntityDataURL is the canonical JSON-LD export URL for a page. It doubles
// as the page's graph name in the store.
func (c *Client) EntityDataURL(title string) string {
	return c.contentBase + "/wiki/Special:EntityData/" + url.PathEscape(title) + ".jsonld"
}

// EntityData fetches and decodes the JSON-LD export of a page. A page
// deleted between listing and fetch returns ErrPageGone.
func (c *Client) EntityData(ctx context.Context, title string) (any, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.EntityDataURL(title)+"?flavor=dump", nil)
	if err != nil {
		return nil, errors.WrapFatal(err, "Client", "EntityData", "build request")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "EntityData", "fetch entity export")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrPageGone
	case http.StatusTooManyRequests:
		return nil, errors.WrapTransient(errors.ErrRateLimited, "Client", "EntityData", title)
	default:
		return nil, errors.WrapTransient(
			fmt.Errorf("unexpected status %d", resp.StatusCode),
			"Client", "EntityData", "fetch entity export")
	}

	var doc any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAPIResponseSize)).Decode(&doc); err != nil {
		return nil, errors.WrapTransient(err, "Client", "EntityData", "decode JSON-LD")
	}
	return doc, nil
}

func (c *Client) call(ctx context.Context, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAPIResponseSize))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode API response: %w", err)
	}
	if apiErr, ok := out.(*apiResponse); ok && apiErr.Error != nil {
		return fmt.Errorf("API error %s: %s", apiErr.Error.Code, apiErr.Error.Info)
	}
	return nil
}
