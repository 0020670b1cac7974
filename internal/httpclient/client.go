package httpclient

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// Config holds transport configuration.
type Config struct {
	Timeout   time.Duration
	UserAgent string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:   8 * time.Second,
		UserAgent: "moviedeck",
	}
}

// Client wraps http.Client with a fixed per-request timeout and request logging.
// It performs exactly one attempt per call; callers decide what a failure means.
type Client struct {
	http   *http.Client
	config Config
	logger *slog.Logger
}

// New creates a new Client with a default http.Client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http: &http.Client{
			Timeout: cfg.Timeout,
		},
		config: cfg,
		logger: logger,
	}
}

// NewWithHTTPClient creates a Client with a custom http.Client (e.g. a test transport).
// httpClient is copied, so the caller's value is never modified.
func NewWithHTTPClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	hc := *httpClient
	if hc.Timeout == 0 {
		hc.Timeout = cfg.Timeout
	}
	return &Client{
		http:   &hc,
		config: cfg,
		logger: logger,
	}
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}

// Do executes an HTTP request once.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if c.config.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)

	if err != nil {
		c.logger.Debug("request failed",
			slog.String("method", req.Method),
			slog.String("url", RedactURL(req.URL)),
			slog.Duration("elapsed", elapsed),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Debug("request completed",
		slog.String("method", req.Method),
		slog.String("url", RedactURL(req.URL)),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", elapsed),
	)
	return resp, nil
}

// secretParams are query parameters never written to logs.
var secretParams = []string{"api_key", "token", "access_token"}

// RedactURL returns u as a string with credentials and secret query values masked.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	clean := *u
	clean.User = nil
	q := clean.Query()
	for _, p := range secretParams {
		if q.Has(p) {
			q.Set(p, "REDACTED")
		}
	}
	clean.RawQuery = q.Encode()
	return clean.String()
}
