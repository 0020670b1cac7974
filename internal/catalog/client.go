package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/vadimtrunov/moviedeck/internal/httpclient"
)

const (
	DefaultBaseURL  = "https://api.themoviedb.org/3"
	DefaultLanguage = "en-US"
	DefaultTimeout  = 8 * time.Second
	DefaultCacheTTL = 15 * time.Minute
)

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("tmdb api key is required")

// Options configures a Client. Zero values fall back to the defaults above,
// except CacheTTL where zero disables caching.
type Options struct {
	APIKey   string
	BaseURL  string
	Language string
	Timeout  time.Duration
	CacheTTL time.Duration

	// HTTPClient overrides the underlying transport. It is not modified.
	HTTPClient *http.Client
}

// Client is a read-only TMDb v3 catalog client.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	http     *httpclient.Client
	pages    *cache[*Page]
	details  *cache[*Detail]
	logger   *slog.Logger
}

// New creates a catalog client. It fails fast when the API key is missing.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	hcfg := httpclient.DefaultConfig()
	hcfg.Timeout = opts.Timeout

	var hc *httpclient.Client
	if opts.HTTPClient != nil {
		hc = httpclient.NewWithHTTPClient(hcfg, opts.HTTPClient, logger)
	} else {
		hc = httpclient.New(hcfg, logger)
	}

	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		language: opts.Language,
		http:     hc,
		pages:    newCache[*Page](opts.CacheTTL),
		details:  newCache[*Detail](opts.CacheTTL),
		logger:   logger,
	}, nil
}

// ListPopular returns one page of currently popular movies.
func (c *Client) ListPopular(ctx context.Context, page int) (*Page, error) {
	if page < 1 {
		return nil, &ValidationError{Field: "page", Message: "Page must be a positive integer"}
	}

	cacheKey := "popular:" + strconv.Itoa(page)
	if cached, ok := c.pages.Get(cacheKey); ok {
		return cached, nil
	}

	var resp Page
	params := url.Values{"page": {strconv.Itoa(page)}}
	if err := c.get(ctx, "/movie/popular", params, &resp); err != nil {
		return nil, fmt.Errorf("list popular page %d: %w", page, err)
	}

	c.pages.Set(cacheKey, &resp)
	return &resp, nil
}

// Search returns one page of movies matching query. The query is trimmed first.
func (c *Client) Search(ctx context.Context, query string, page int) (*Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &ValidationError{Field: "query", Message: "Search query is required"}
	}
	if page < 1 {
		return nil, &ValidationError{Field: "page", Message: "Page must be a positive integer"}
	}

	cacheKey := fmt.Sprintf("search:%s:%d", strings.ToLower(query), page)
	if cached, ok := c.pages.Get(cacheKey); ok {
		return cached, nil
	}

	params := url.Values{
		"query":         {query},
		"page":          {strconv.Itoa(page)},
		"include_adult": {"false"},
	}

	var resp Page
	if err := c.get(ctx, "/search/movie", params, &resp); err != nil {
		return nil, fmt.Errorf("search %q page %d: %w", query, page, err)
	}

	c.pages.Set(cacheKey, &resp)
	return &resp, nil
}

// GetDetail fetches details, credits and videos for a movie concurrently.
// All three must succeed; the first failure cancels the rest and is returned.
func (c *Client) GetDetail(ctx context.Context, id int) (*Detail, error) {
	if id < 1 {
		return nil, &ValidationError{Field: "id", Message: "Movie id is required"}
	}

	cacheKey := "movie:" + strconv.Itoa(id)
	if cached, ok := c.details.Get(cacheKey); ok {
		return cached, nil
	}

	var (
		details MovieDetails
		credits creditsResponse
		videos  videosResponse
		base    = "/movie/" + strconv.Itoa(id)
	)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error { return c.get(ctx, base, nil, &details) })
	p.Go(func(ctx context.Context) error { return c.get(ctx, base+"/credits", nil, &credits) })
	p.Go(func(ctx context.Context) error { return c.get(ctx, base+"/videos", nil, &videos) })
	if err := p.Wait(); err != nil {
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}

	detail := &Detail{
		Movie:  details,
		Cast:   credits.Cast,
		Videos: videos.Results,
	}
	c.details.Set(cacheKey, detail)
	return detail, nil
}

// get performs an authenticated GET request and decodes the JSON response.
// Every failure leaves through translate.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return translate(nil, fmt.Errorf("invalid URL: %w", err))
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	q.Set("language", c.language)
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return translate(nil, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return translate(nil, err)
	}
	defer resp.Body.Close()

	if err := translate(resp, nil); err != nil {
		c.logger.Debug("catalog request rejected",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return translate(nil, fmt.Errorf("decode %s: %w", path, err))
	}
	return nil
}
