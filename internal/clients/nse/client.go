// Package nse provides a client for the NSE bhavcopy archive
package nse

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/nsebhav/internal/common"
	"github.com/bobmcallan/nsebhav/internal/interfaces"
	"github.com/bobmcallan/nsebhav/internal/models"
)

const (
	DefaultBaseURL   = "https://archives.nseindia.com"
	DefaultTimeout   = 10 * time.Second
	DefaultRateLimit = 0 // requests per second; zero is unlimited
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	maxBodyBytes = 64 << 20
)

// Client implements the BhavcopyClient interface against the archive host
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit throttles archive requests; zero or less disables it
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent overrides the User-Agent header. The archive rejects
// requests with an empty or default Go agent, so blank values are ignored.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if strings.TrimSpace(ua) != "" {
			c.userAgent = ua
		}
	}
}

// NewClient creates a new bhavcopy archive client.
// No API key is required, the archive is public.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: common.NewSilentLogger(),
	}
	WithRateLimit(DefaultRateLimit)(c)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// BhavcopyURL builds the archive URL for the full bhavcopy of date.
func (c *Client) BhavcopyURL(date time.Time) string {
	p := common.ExchangeDateParts(date)
	return fmt.Sprintf("%s/products/content/sec_bhavdata_full_%s%s%04d.csv", c.baseURL, p.Day, p.Month, p.Year)
}

// FetchBhavcopy downloads the raw CSV for date.
func (c *Client) FetchBhavcopy(ctx context.Context, date time.Time) (string, error) {
	reqURL := c.BhavcopyURL(date)

	if err := c.limiter.Wait(ctx); err != nil {
		return "", &models.NetworkError{URL: reqURL, Err: fmt.Errorf("rate limit wait: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", &models.NetworkError{URL: reqURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/csv,*/*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", reqURL).Dur("elapsed", elapsed).Msg("Bhavcopy request failed")
		return "", &models.NetworkError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		c.logger.Debug().Str("url", reqURL).Int("status", resp.StatusCode).Dur("elapsed", elapsed).Msg("Bhavcopy non-OK response")
		return "", &models.NetworkError{URL: reqURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", &models.NetworkError{URL: reqURL, Err: fmt.Errorf("failed to read body: %w", err)}
	}

	c.logger.Debug().
		Str("date", common.ISODate(date)).
		Int("bytes", len(body)).
		Dur("elapsed", time.Since(start)).
		Msg("Bhavcopy downloaded")

	return string(body), nil
}

// Ensure Client implements BhavcopyClient
var _ interfaces.BhavcopyClient = (*Client)(nil)
