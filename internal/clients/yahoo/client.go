// Package yahoo provides a Yahoo Finance chart API client.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL    = "https://query1.finance.yahoo.com"
	DefaultTimeout    = 30 * time.Second
	DefaultRateLimit  = 2 // requests per second
	DefaultMaxRetries = 3
)

// ErrUpstream marks failures talking to Yahoo Finance itself, as opposed to
// a symbol simply having no data.
var ErrUpstream = errors.New("yahoo finance request failed")

// errNotFound is returned by fetch for unknown symbols.
var errNotFound = errors.New("symbol not found")

// Client is a Yahoo Finance API client
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryWait  time.Duration // first backoff, doubled per attempt
	log        zerolog.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond float64) ClientOption {
	return func(c *Client) {
		burst := int(requestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithRetries sets the attempt count and the first backoff interval
func WithRetries(maxRetries int, wait time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = maxRetries
		c.retryWait = wait
	}
}

// NewClient creates a new Yahoo Finance client
func NewClient(log zerolog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		maxRetries: DefaultMaxRetries,
		retryWait:  time.Second,
		log:        log.With().Str("client", "yahoo").Logger(),
	}

	for _, opt := range opts {
		opt(c)
	}
	if c.maxRetries < 1 {
		c.maxRetries = 1
	}

	return c
}

// GetHistoricalPrices fetches daily closes for symbol between start and end,
// both inclusive. Days Yahoo reports as null are skipped. An unknown symbol
// yields an empty slice.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]HistoricalPrice, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("period1", strconv.FormatInt(start.Unix(), 10))
	params.Add("period2", strconv.FormatInt(end.AddDate(0, 0, 1).Unix(), 10))
	params.Add("includeAdjustedClose", "true")

	data, err := c.fetchChart(ctx, symbol, params)
	if errors.Is(err, errNotFound) {
		c.log.Warn().Str("symbol", symbol).Msg("Symbol not found")
		return []HistoricalPrice{}, nil
	}
	if err != nil {
		return nil, err
	}

	if len(data.Chart.Result) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No historical data returned")
		return []HistoricalPrice{}, nil
	}

	chartData := data.Chart.Result[0]
	if len(chartData.Indicators.Quote) == 0 {
		c.log.Warn().Str("symbol", symbol).Msg("No quote data in response")
		return []HistoricalPrice{}, nil
	}

	closes := chartData.Indicators.Quote[0].Close
	var adjCloses []*float64
	if len(chartData.Indicators.AdjClose) > 0 {
		adjCloses = chartData.Indicators.AdjClose[0].AdjClose
	}

	prices := make([]HistoricalPrice, 0, len(chartData.Timestamp))
	for i, ts := range chartData.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}

		adjClose := *closes[i]
		if i < len(adjCloses) && adjCloses[i] != nil {
			adjClose = *adjCloses[i]
		}

		prices = append(prices, HistoricalPrice{
			Date:     time.Unix(ts, 0).UTC(),
			Close:    *closes[i],
			AdjClose: adjClose,
		})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Time("start", start).
		Time("end", end).
		Int("count", len(prices)).
		Msg("Fetched historical prices")

	return prices, nil
}

// GetQuote fetches the latest market price for symbol. Returns nil, nil
// when Yahoo has no price for it.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	params := url.Values{}
	params.Add("interval", "1d")
	params.Add("range", "5d")

	data, err := c.fetchChart(ctx, symbol, params)
	if errors.Is(err, errNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if len(data.Chart.Result) == 0 {
		return nil, nil
	}

	meta := data.Chart.Result[0].Meta
	if meta.RegularMarketPrice == nil {
		return nil, nil
	}

	return &Quote{
		Symbol:   symbol,
		Price:    *meta.RegularMarketPrice,
		Currency: meta.Currency,
		Time:     time.Unix(meta.RegularMarketTime, 0).UTC(),
	}, nil
}

// fetchChart calls the chart endpoint with retry and exponential backoff.
// Transport errors, 429 and 5xx are retried; other statuses are final.
func (c *Client) fetchChart(ctx context.Context, symbol string, params url.Values) (*chartResponse, error) {
	reqURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			waitTime := c.retryWait * time.Duration(1<<uint(attempt-1))
			c.log.Warn().Err(lastErr).
				Str("symbol", symbol).
				Int("attempt", attempt+1).
				Dur("wait", waitTime).
				Msg("Chart request failed, retrying")

			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(waitTime):
			}
		}

		data, retry, err := c.doChart(ctx, reqURL)
		if err == nil {
			return data, nil
		}
		if !retry || ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}

	return nil, fmt.Errorf("%w: %s failed after %d attempts: %v", ErrUpstream, symbol, c.maxRetries, lastErr)
}

func (c *Client) doChart(ctx context.Context, reqURL string) (*chartResponse, bool, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers to mimic browser
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("failed to fetch chart: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, errNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("Yahoo Finance API returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode, truncate(body, 200))
	}

	var result chartResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, false, fmt.Errorf("%w: failed to parse response: %v", ErrUpstream, err)
	}

	if result.Chart.Error != nil {
		if result.Chart.Error.Code == "Not Found" {
			return nil, false, errNotFound
		}
		return nil, false, fmt.Errorf("%w: %s: %s", ErrUpstream, result.Chart.Error.Code, result.Chart.Error.Description)
	}

	return &result, false, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
