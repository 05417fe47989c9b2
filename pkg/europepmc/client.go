package europepmc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

// Client searches the Europe PMC literature index. All requests flow
// through a single shared rate limiter owned by the client; provider-side
// rate limits are retried with bounded exponential backoff, so callers see
// either results or an exhausted error, never a raw 429.
type Client interface {
	Search(ctx context.Context, query string, limit int) ([]Article, error)
	FetchArticles(ctx context.Context, ids []string) ([]Article, error)
	SearchOrganToxicity(ctx context.Context, symbol, organSystem string, limit int) ([]Article, error)
	SearchGeneralToxicity(ctx context.Context, symbol string, limit int) ([]Article, error)
	SearchClinicalSafety(ctx context.Context, symbol string, limit int) ([]Article, error)
	SearchAnimalToxicity(ctx context.Context, symbol string, limit int) ([]Article, error)
}

// Article is one literature search hit.
type Article struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Title    string `json:"title"`
	Journal  string `json:"journalTitle"`
	PubYear  string `json:"pubYear"`
	DOI      string `json:"doi"`
	CitedBy  int    `json:"citedByCount"`
}

// URL returns the canonical Europe PMC link for the article.
func (a Article) URL() string {
	return fmt.Sprintf("https://europepmc.org/article/%s/%s", a.Source, a.ID)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default request rate (10 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxRetries overrides the default attempt limit for 429/5xx responses.
func WithMaxRetries(n int) Option {
	return func(c *httpClient) {
		c.maxRetries = n
	}
}

type httpClient struct {
	baseURL    string
	http       *http.Client
	limiter    *rate.Limiter
	maxRetries int
}

// NewClient creates a Europe PMC client with its own request queue.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:    defaultBaseURL,
		limiter:    rate.NewLimiter(10, 1),
		maxRetries: 4,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) doWithRetry(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "europepmc: rate limiter wait")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "europepmc: create request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			c.backoff(ctx, attempt)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			lastErr = eris.Errorf("europepmc: status %d", resp.StatusCode)
			zap.L().Warn("europepmc: provider pushed back, backing off",
				zap.Int("status", resp.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			c.backoff(ctx, attempt)
			continue
		}

		if readErr != nil {
			return nil, eris.Wrap(readErr, "europepmc: read response")
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("europepmc: unexpected status %d: %s", resp.StatusCode, string(body))
		}
		return body, nil
	}

	return nil, eris.Wrap(lastErr, "europepmc: retries exhausted")
}

func (c *httpClient) backoff(ctx context.Context, attempt int) {
	d := time.Duration(float64(500*time.Millisecond) * math.Pow(2, float64(attempt)))
	if d > 15*time.Second {
		d = 15 * time.Second
	}
	d += time.Duration(rand.Int63n(int64(d) / 2))

	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (c *httpClient) Search(ctx context.Context, query string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("format", "json")
	params.Set("pageSize", fmt.Sprint(limit))
	params.Set("sort", "CITED desc")

	body, err := c.doWithRetry(ctx, c.baseURL+"/search?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var data struct {
		ResultList struct {
			Result []Article `json:"result"`
		} `json:"resultList"`
	}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, eris.Wrap(err, "europepmc: unmarshal response")
	}
	return data.ResultList.Result, nil
}

func (c *httpClient) FetchArticles(ctx context.Context, ids []string) ([]Article, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	terms := make([]string, 0, len(ids))
	for _, id := range ids {
		terms = append(terms, "EXT_ID:"+id)
	}
	return c.Search(ctx, strings.Join(terms, " OR "), len(ids))
}

func (c *httpClient) SearchOrganToxicity(ctx context.Context, symbol, organSystem string, limit int) ([]Article, error) {
	return c.Search(ctx, fmt.Sprintf("%s AND %s AND (toxicity OR injury OR dysfunction)", symbol, organSystem), limit)
}

func (c *httpClient) SearchGeneralToxicity(ctx context.Context, symbol string, limit int) ([]Article, error) {
	return c.Search(ctx, fmt.Sprintf("%s AND (toxicity OR \"adverse effect\" OR \"side effect\")", symbol), limit)
}

func (c *httpClient) SearchClinicalSafety(ctx context.Context, symbol string, limit int) ([]Article, error) {
	return c.Search(ctx, fmt.Sprintf("%s AND \"clinical trial\" AND (safety OR tolerability OR \"adverse event\")", symbol), limit)
}

func (c *httpClient) SearchAnimalToxicity(ctx context.Context, symbol string, limit int) ([]Article, error) {
	return c.Search(ctx, fmt.Sprintf("%s AND (\"knockout mouse\" OR \"animal model\") AND (phenotype OR lethal OR toxicity)", symbol), limit)
}
