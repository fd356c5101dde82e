// Package scraper fetches trending skill keywords from a search results page.
package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/fairyhunter13/ai-profile-upgrader/internal/adapter/observability"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/domain"
	"github.com/fairyhunter13/ai-profile-upgrader/internal/retry"
	"github.com/fairyhunter13/ai-profile-upgrader/pkg/textx"
)

// DefaultSelector matches the skill chips of the search results page.
const DefaultSelector = "div.B0jnne"

// Options configures the scraper.
type Options struct {
	BaseURL   string
	UserAgent string
	Selector  string
	Timeout   time.Duration
	Retry     retry.Policy
	// HTTPClient overrides the traced default client.
	HTTPClient *http.Client
}

// Client scrapes keyword chips for "trending skills for <profession>".
type Client struct {
	opts Options
	hc   *http.Client
}

var _ domain.KeywordSource = (*Client)(nil)

// statusError is a non-2xx response.
type statusError struct {
	Code int
}

func (e *statusError) Error() string { return fmt.Sprintf("search status %d", e.Code) }

func (e *statusError) Is(target error) bool {
	return e.Code == http.StatusTooManyRequests && target == domain.ErrUpstreamRateLimit
}

// New constructs a Client. Zero options fall back to sane defaults.
func New(opts Options) *Client {
	if opts.Selector == "" {
		opts.Selector = DefaultSelector
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Retry.MaxAttempts == 0 {
		opts.Retry = retry.Fixed(3, 2*time.Second, nil)
	}
	opts.Retry.Retryable = Retryable
	hc := opts.HTTPClient
	if hc == nil {
		hc = observability.HTTPClient(opts.Timeout)
	}
	return &Client{opts: opts, hc: hc}
}

// Retryable reports rate limits, server errors and transport failures as transient.
func Retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.Code == http.StatusTooManyRequests || se.Code >= 500
	}
	return !errors.Is(err, context.Canceled)
}

// SearchURL builds the query URL for a profession.
func (c *Client) SearchURL(profession string) string {
	q := url.Values{"q": {"trending skills for " + profession}}
	return c.opts.BaseURL + "?" + q.Encode()
}

// FetchKeywords returns up to max unique keywords in page order.
// An empty slice with nil error means the page had no skill elements.
func (c *Client) FetchKeywords(ctx context.Context, profession string, max int) ([]string, error) {
	profession = strings.TrimSpace(profession)
	if profession == "" {
		return nil, fmt.Errorf("%w: profession is required", domain.ErrInvalidArgument)
	}
	target := c.SearchURL(profession)
	var keywords []string
	err := c.opts.Retry.Named("scraper.FetchKeywords").Do(ctx, func(ctx context.Context) error {
		kws, err := c.fetchOnce(ctx, target)
		if err != nil {
			return err
		}
		keywords = kws
		return nil
	})
	if err != nil {
		return nil, &domain.NetworkError{Op: "scraper.FetchKeywords", Err: err}
	}
	keywords = textx.UniqueStrings(keywords)
	if max > 0 && len(keywords) > max {
		keywords = keywords[:max]
	}
	observability.LoggerFromContext(ctx).Debug("keywords scraped",
		"profession", profession, "count", len(keywords))
	return keywords, nil
}

func (c *Client) fetchOnce(ctx context.Context, target string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "text/html")
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ScrapeRequestsTotal.WithLabelValues("transport_error").Inc()
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		if resp.StatusCode == http.StatusTooManyRequests {
			observability.ScrapeRequestsTotal.WithLabelValues("rate_limited").Inc()
		} else {
			observability.ScrapeRequestsTotal.WithLabelValues("http_error").Inc()
		}
		return nil, &statusError{Code: resp.StatusCode}
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		observability.ScrapeRequestsTotal.WithLabelValues("parse_error").Inc()
		return nil, fmt.Errorf("parse search page: %w", err)
	}
	observability.ScrapeRequestsTotal.WithLabelValues("ok").Inc()
	var out []string
	doc.Find(c.opts.Selector).Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			out = append(out, t)
		}
	})
	return out, nil
}
