// Package oddsapi fetches upcoming events and per-event odds from The Odds
// API v4.
package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/rewired-gh/evoracle/internal/logger"
	"github.com/rewired-gh/evoracle/internal/market"
)

// Client provides access to The Odds API
type Client struct {
	baseURL    string
	apiKey     string
	regions    []string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	retryDelay time.Duration
}

// NewClient creates a new client. Event-odds requests are spaced at least
// requestDelay apart.
func NewClient(baseURL, apiKey string, regions []string, requestDelay, timeout time.Duration, maxRetries int) *Client {
	limit := rate.Inf
	if requestDelay > 0 {
		limit = rate.Every(requestDelay)
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		regions: regions,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter:    rate.NewLimiter(limit, 1),
		maxRetries: maxRetries,
		retryDelay: time.Second,
	}
}

// FetchEvents lists the upcoming events of one sport. The response carries
// no bookmakers.
func (c *Client) FetchEvents(ctx context.Context, sport string) ([]market.Event, error) {
	u, err := c.endpoint("/v4/sports/"+url.PathEscape(sport)+"/events", nil)
	if err != nil {
		return nil, err
	}

	var events []market.Event
	if err := c.getJSON(ctx, u, &events); err != nil {
		return nil, fmt.Errorf("failed to fetch %s events: %w", sport, err)
	}
	return events, nil
}

// FetchEventOdds retrieves American odds for one event across the
// configured regions.
func (c *Client) FetchEventOdds(ctx context.Context, sport, eventID string, markets []string) (*market.Game, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("regions", strings.Join(c.regions, ","))
	q.Set("markets", strings.Join(markets, ","))
	q.Set("oddsFormat", "american")

	u, err := c.endpoint("/v4/sports/"+url.PathEscape(sport)+"/events/"+url.PathEscape(eventID)+"/odds", q)
	if err != nil {
		return nil, err
	}

	var game market.Game
	if err := c.getJSON(ctx, u, &game); err != nil {
		return nil, fmt.Errorf("failed to fetch odds for event %s: %w", eventID, err)
	}
	return &game, nil
}

func (c *Client) endpoint(path string, q url.Values) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %w", err)
	}
	if q == nil {
		q = url.Values{}
	}
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) getJSON(ctx context.Context, urlStr string, out interface{}) error {
	resp, err := c.doRequest(ctx, urlStr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if remaining := resp.Header.Get("x-requests-remaining"); remaining != "" {
		logger.WithFields(map[string]interface{}{
			"remaining": remaining,
			"used":      resp.Header.Get("x-requests-used"),
		}).Debug("Odds API quota")
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// doRequest performs HTTP request with retry logic
func (c *Client) doRequest(ctx context.Context, urlStr string) (*http.Response, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(i) * c.retryDelay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
