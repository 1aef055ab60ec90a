// Package arxiv is a read-only client for the arXiv Atom search API.
package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/docmind/internal/domain"
	domarxiv "github.com/kailas-cloud/docmind/internal/domain/arxiv"
	"github.com/kailas-cloud/docmind/internal/metrics"
)

const (
	// DefaultBaseURL is the public arXiv query endpoint.
	DefaultBaseURL = "http://export.arxiv.org/api/query"
	// DefaultTimeout bounds one HTTP attempt.
	DefaultTimeout = 30 * time.Second
	// DefaultInterval is the courtesy gap between requests the arXiv API asks for.
	DefaultInterval = 3 * time.Second
	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 2
	// MaxResults is the largest page the API serves.
	MaxResults = 2000

	maxBodyBytes = 16 << 20
)

// Client searches arXiv.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	maxRetries   uint64
	retryBackoff time.Duration
	logger       *zap.Logger
}

// Option configures the Client.
type Option func(*Client)

// WithBaseURL sets a custom endpoint.
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithRateLimit allows one request per interval with the given burst.
// A non-positive interval disables limiting.
func WithRateLimit(interval time.Duration, burst int) Option {
	return func(c *Client) {
		if interval <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Every(interval), burst)
	}
}

// WithRetry sets the retry count and the initial backoff interval.
func WithRetry(maxRetries int, initial time.Duration) Option {
	return func(c *Client) {
		if maxRetries < 0 {
			maxRetries = 0
		}
		c.maxRetries = uint64(maxRetries)
		if initial > 0 {
			c.retryBackoff = initial
		}
	}
}

// NewClient creates an arXiv client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:      DefaultBaseURL,
		httpClient:   &http.Client{Timeout: DefaultTimeout},
		limiter:      rate.NewLimiter(rate.Every(DefaultInterval), 1),
		maxRetries:   DefaultMaxRetries,
		retryBackoff: 500 * time.Millisecond,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchQuery maps free text to the arXiv query syntax. Multi-word text is
// searched as an exact phrase.
func SearchQuery(text string) string {
	q := strings.Join(strings.Fields(text), " ")
	if strings.Contains(q, " ") {
		return `all:"` + q + `"`
	}
	return "all:" + q
}

// Search fetches one page of results. page is 1-based.
func (c *Client) Search(ctx context.Context, query string, page, pageSize int) (domarxiv.Page, error) {
	if strings.TrimSpace(query) == "" {
		return domarxiv.Page{}, domain.NewValidation("query is required")
	}
	if page < 1 {
		return domarxiv.Page{}, domain.NewValidation("page must be >= 1")
	}
	if pageSize < 1 {
		return domarxiv.Page{}, domain.NewValidation("page_size must be >= 1")
	}
	if pageSize > MaxResults {
		pageSize = MaxResults
	}

	params := url.Values{}
	params.Set("search_query", SearchQuery(query))
	params.Set("start", strconv.Itoa((page-1)*pageSize))
	params.Set("max_results", strconv.Itoa(pageSize))
	reqURL := c.baseURL + "?" + params.Encode()

	start := time.Now()
	body, err := c.fetchWithRetry(ctx, reqURL)
	metrics.ArxivRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ArxivRequestsTotal.WithLabelValues("error").Inc()
		return domarxiv.Page{}, err
	}

	feed, err := parseFeed(body)
	if err != nil {
		metrics.ArxivRequestsTotal.WithLabelValues("error").Inc()
		return domarxiv.Page{}, fmt.Errorf("parse arxiv feed: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	metrics.ArxivRequestsTotal.WithLabelValues("success").Inc()

	c.logger.Debug("arxiv search",
		zap.String("query", query),
		zap.Int("page", page),
		zap.Int("records", len(feed.Records)),
		zap.Int("total", feed.Total),
	)

	return domarxiv.Page{
		Records:  feed.Records,
		Total:    feed.Total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

func (c *Client) fetchWithRetry(ctx context.Context, reqURL string) ([]byte, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.retryBackoff
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, c.maxRetries), ctx)

	var body []byte
	attempt := 0
	op := func() error {
		attempt++
		b, err := c.fetch(ctx, reqURL)
		if err != nil {
			c.logger.Warn("arxiv request failed", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		body = b
		return nil
	}
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("arxiv search: %w: %w", domain.ErrUpstreamUnavailable, err)
	}
	return body, nil
}

func (c *Client) fetch(ctx context.Context, reqURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("rate limiter: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/atom+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		statusErr := fmt.Errorf("unexpected status %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(statusErr)
		}
		return nil, statusErr
	}
	return body, nil
}
