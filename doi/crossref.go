package doi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/lehigh-university-libraries/bibtidy/helpers"
)

const (
	// DefaultCrossrefURL is the Crossref REST API root.
	DefaultCrossrefURL = "https://api.crossref.org"

	// exactRows is how many candidates are compared when an exact title
	// match is required; a relaxed lookup takes only the top hit.
	exactRows = 10
)

// CrossrefClient looks up DOIs with the Crossref works search.
type CrossrefClient struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string

	// Mailto is sent with every request to use Crossref's polite pool.
	Mailto string

	MaxRetries int

	// Backoff is the delay before the first retry; it doubles each retry.
	Backoff time.Duration

	// Cache is optional.
	Cache *Cache

	limiter *rate.Limiter
}

// NewCrossrefClient returns a client paced to rps requests per second
// (unlimited when rps <= 0) that retries failed requests maxRetries times.
func NewCrossrefClient(mailto string, rps float64, maxRetries int) *CrossrefClient {
	limit := rate.Inf
	if rps > 0 {
		limit = rate.Limit(rps)
	}

	userAgent := "bibtidy/1.0"
	if mailto != "" {
		userAgent += " (mailto:" + mailto + ")"
	}

	return &CrossrefClient{
		BaseURL: DefaultCrossrefURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent:  userAgent,
		Mailto:     mailto,
		MaxRetries: maxRetries,
		Backoff:    time.Second,
		limiter:    rate.NewLimiter(limit, 1),
	}
}

// Lookup implements Lookuper.
func (c *CrossrefClient) Lookup(ctx context.Context, q Query) (string, error) {
	if strings.TrimSpace(q.Title) == "" {
		return "", ErrNotFound
	}

	u := c.searchURL(q)
	body, err := c.fetch(ctx, u)
	if err != nil {
		return "", err
	}
	return pickDOI(body, q)
}

func (c *CrossrefClient) searchURL(q Query) string {
	rows := 1
	if q.Exact {
		rows = exactRows
	}

	params := url.Values{}
	params.Set("query.bibliographic", q.Title)
	if q.AuthorFamily != "" {
		params.Set("query.author", q.AuthorFamily)
	}
	params.Set("rows", strconv.Itoa(rows))
	params.Set("select", "DOI,title,score")
	if c.Mailto != "" {
		params.Set("mailto", c.Mailto)
	}

	return strings.TrimSuffix(c.BaseURL, "/") + "/works?" + params.Encode()
}

// pickDOI selects the DOI from a works search response. A relaxed query
// takes the best-scored item; an exact query takes the first item whose
// title matches after folding.
func pickDOI(body []byte, q Query) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("invalid JSON in crossref response")
	}

	items := gjson.GetBytes(body, "message.items")
	found := ""
	bestScore := -1.0
	items.ForEach(func(_, item gjson.Result) bool {
		d := item.Get("DOI").String()
		if d == "" {
			return true
		}
		if q.Exact {
			if helpers.SameTitle(item.Get("title.0").String(), q.Title) {
				found = d
				return false
			}
			return true
		}
		if score := item.Get("score").Float(); score > bestScore {
			bestScore = score
			found = d
		}
		return true
	})

	if found == "" {
		return "", ErrNotFound
	}
	return found, nil
}

// fetch returns the response body for u, from the cache when possible.
// Rate limited (429) and server error responses are retried with
// exponential backoff.
func (c *CrossrefClient) fetch(ctx context.Context, u string) ([]byte, error) {
	if c.Cache != nil {
		if cached, ok := c.Cache.Get(u); ok {
			slog.Debug("cache hit", "url", u)
			return cached, nil
		}
		slog.Debug("cache miss, fetching from network", "url", u)
	}

	var lastErr error
	for i := 0; i <= c.MaxRetries; i++ {
		if i > 0 {
			backoff := c.Backoff * time.Duration(1<<uint(i-1))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retry, err := c.get(ctx, u)
		if err == nil {
			if c.Cache != nil {
				if err := c.Cache.Put(u, body); err != nil {
					slog.Warn("failed to cache crossref response", "url", u, "error", err)
				}
			}
			return body, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("after %d retries: %w", c.MaxRetries, lastErr)
}

// get performs one request. retry reports whether the failure is worth
// another attempt.
func (c *CrossrefClient) get(ctx context.Context, u string) (body []byte, retry bool, err error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		slog.Debug("network request failed", "url", u, "error", err, "duration", time.Since(start))
		return nil, ctx.Err() == nil, fmt.Errorf("fetching %s: %w", u, err)
	}
	defer resp.Body.Close()

	slog.Debug("network request complete", "url", u, "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		retry = resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return nil, retry, fmt.Errorf("fetching %s: status %d", u, resp.StatusCode)
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("reading response: %w", err)
	}
	return body, false, nil
}
